package api

import (
	"context"
	"errors"
	"fmt"

	"github.com/bytedance/sonic"

	"github.com/GoldenManBel/project-management-app/domain"
	"github.com/GoldenManBel/project-management-app/slice"
)

var (
	errMissingData = errors.New("missing data")
	errMissingID   = errors.New("missing entity id")
)

// step is a validated command bound to a slice. Asynchronous steps never
// fail: their outcome lands in the slice state.
type step struct {
	key    string
	target string
	async  bool
	run    func(ctx context.Context) error
}

func prepare(ws *slice.Workspace, cmd Command) (step, error) {
	var (
		st  step
		err error
	)
	switch cmd.Family {
	case domain.Boards:
		st, err = prepareFor(ws.Boards, cmd)
	case domain.Columns:
		st, err = prepareFor(ws.Columns, cmd)
	case domain.Tasks:
		st, err = prepareFor(ws.Tasks, cmd)
	default:
		return step{}, fmt.Errorf("unknown family %q", cmd.Family)
	}
	if err != nil {
		return step{}, fmt.Errorf("%s %s: %w", cmd.Family, cmd.Type, err)
	}
	st.key = cmd.IdempotencyKey
	st.target = cmd.target()
	return st, nil
}

func prepareFor[T slice.Keyed, D any](s *slice.Slice[T, D], cmd Command) (step, error) {
	parent := cmd.ParentID
	switch cmd.Type {
	case cmdFetch:
		return asyncStep(func(ctx context.Context) { s.Fetch(ctx, parent) }), nil
	case cmdCreate:
		var draft D
		if err := decodeData(cmd.Data, &draft); err != nil {
			return step{}, err
		}
		return asyncStep(func(ctx context.Context) { s.Create(ctx, draft, parent) }), nil
	case cmdUpdate:
		var item T
		if err := decodeData(cmd.Data, &item); err != nil {
			return step{}, err
		}
		if item.Key() == "" {
			return step{}, errMissingID
		}
		return asyncStep(func(ctx context.Context) { s.Update(ctx, item, parent) }), nil
	case cmdDelete:
		if cmd.ID == "" {
			return step{}, errMissingID
		}
		id := cmd.ID
		return asyncStep(func(ctx context.Context) { s.Delete(ctx, id, parent) }), nil
	case cmdSelect:
		return step{run: func(ctx context.Context) error { return s.Select(ctx, parent) }}, nil
	case cmdResetCreated:
		return syncStep(func() { s.ResetFlag(slice.FlagCreated) }), nil
	case cmdResetUpdated:
		return syncStep(func() { s.ResetFlag(slice.FlagUpdated) }), nil
	}
	return step{}, fmt.Errorf("unknown command type %q", cmd.Type)
}

func asyncStep(fn func(ctx context.Context)) step {
	return step{async: true, run: func(ctx context.Context) error {
		fn(ctx)
		return nil
	}}
}

func syncStep(fn func()) step {
	return step{run: func(context.Context) error {
		fn()
		return nil
	}}
}

func decodeData(data sonic.NoCopyRawMessage, v any) error {
	if len(data) == 0 {
		return errMissingData
	}
	if err := sonic.Unmarshal(data, v); err != nil {
		return fmt.Errorf("invalid data: %w", err)
	}
	return nil
}
