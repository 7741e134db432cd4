package slice

import (
	"context"
	"errors"

	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/trace"

	"github.com/GoldenManBel/project-management-app/domain"
)

type (
	// BoardSlice holds the boards of the signed-in user under the empty parent id.
	BoardSlice = Slice[domain.Board, domain.BoardDraft]
	// ColumnSlice holds columns keyed by board id.
	ColumnSlice = Slice[domain.Column, domain.ColumnDraft]
	// TaskSlice holds tasks keyed by column id.
	TaskSlice = Slice[domain.Task, domain.TaskDraft]
)

// Remotes bundles the remote collaborators of the three families.
type Remotes struct {
	Boards  Remote[domain.Board, domain.BoardDraft]
	Columns Remote[domain.Column, domain.ColumnDraft]
	Tasks   Remote[domain.Task, domain.TaskDraft]
}

// Workspace is the store of one user: one slice per entity family.
type Workspace struct {
	Boards  *BoardSlice
	Columns *ColumnSlice
	Tasks   *TaskSlice
}

// NewWorkspace builds the three slices. sel may be nil, in which case
// selections are kept in memory only.
func NewWorkspace(remotes Remotes, sel Selection, logger *log.Logger, tracer trace.Tracer) *Workspace {
	return &Workspace{
		Boards: New(Config[domain.Board, domain.BoardDraft]{
			Family: domain.Boards,
			Remote: remotes.Boards,
			Logger: logger,
			Tracer: tracer,
		}),
		Columns: New(Config[domain.Column, domain.ColumnDraft]{
			Family:       domain.Columns,
			Remote:       remotes.Columns,
			Selection:    sel,
			SelectionKey: domain.SelectedBoardKey,
			Logger:       logger,
			Tracer:       tracer,
		}),
		Tasks: New(Config[domain.Task, domain.TaskDraft]{
			Family:       domain.Tasks,
			Remote:       remotes.Tasks,
			Selection:    sel,
			SelectionKey: domain.SelectedColumnKey,
			Logger:       logger,
			Tracer:       tracer,
		}),
	}
}

// Restore reloads the persisted selections of all slices.
func (w *Workspace) Restore(ctx context.Context) error {
	return errors.Join(
		w.Columns.Restore(ctx),
		w.Tasks.Restore(ctx),
	)
}

// OnChange registers fn on every slice of the workspace.
func (w *Workspace) OnChange(fn func(domain.Family, Event)) {
	w.Boards.OnChange(func(ev Event) { fn(domain.Boards, ev) })
	w.Columns.OnChange(func(ev Event) { fn(domain.Columns, ev) })
	w.Tasks.OnChange(func(ev Event) { fn(domain.Tasks, ev) })
}

// Snapshot returns the snapshot of the named family as an untyped value
// suitable for encoding.
func (w *Workspace) Snapshot(f domain.Family) (any, bool) {
	switch f {
	case domain.Boards:
		return w.Boards.Snapshot(), true
	case domain.Columns:
		return w.Columns.Snapshot(), true
	case domain.Tasks:
		return w.Tasks.Snapshot(), true
	}
	return nil, false
}
