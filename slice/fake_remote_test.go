package slice

import (
	"context"
	"errors"
	"strconv"
	"sync"

	"github.com/GoldenManBel/project-management-app/domain"
)

type fakeTaskRemote struct {
	listFn   func(ctx context.Context, parentID string) ([]domain.Task, error)
	createFn func(ctx context.Context, draft domain.TaskDraft, parentID string) (domain.Task, error)
	updateFn func(ctx context.Context, item domain.Task, parentID string) (domain.Task, error)
	deleteFn func(ctx context.Context, id, parentID string) error
}

func (f *fakeTaskRemote) List(ctx context.Context, parentID string) ([]domain.Task, error) {
	if f.listFn == nil {
		return nil, errors.New("unexpected List call")
	}
	return f.listFn(ctx, parentID)
}

func (f *fakeTaskRemote) Create(ctx context.Context, draft domain.TaskDraft, parentID string) (domain.Task, error) {
	if f.createFn == nil {
		return domain.Task{}, errors.New("unexpected Create call")
	}
	return f.createFn(ctx, draft, parentID)
}

func (f *fakeTaskRemote) Update(ctx context.Context, item domain.Task, parentID string) (domain.Task, error) {
	if f.updateFn == nil {
		return domain.Task{}, errors.New("unexpected Update call")
	}
	return f.updateFn(ctx, item, parentID)
}

func (f *fakeTaskRemote) Delete(ctx context.Context, id, parentID string) error {
	if f.deleteFn == nil {
		return errors.New("unexpected Delete call")
	}
	return f.deleteFn(ctx, id, parentID)
}

// echoTaskRemote behaves like a well-behaved server: it assigns sequential ids
// on create and echoes updates back.
func echoTaskRemote() *fakeTaskRemote {
	var mu sync.Mutex
	next := 0
	return &fakeTaskRemote{
		createFn: func(_ context.Context, d domain.TaskDraft, parentID string) (domain.Task, error) {
			mu.Lock()
			next++
			id := "t" + strconv.Itoa(next)
			mu.Unlock()
			return domain.Task{ID: id, Title: d.Title, Description: d.Description, Order: d.Order, ColumnID: parentID}, nil
		},
		updateFn: func(_ context.Context, item domain.Task, _ string) (domain.Task, error) {
			return item, nil
		},
		deleteFn: func(context.Context, string, string) error { return nil },
	}
}

type memSelection struct {
	mu      sync.Mutex
	values  map[string]string
	saveErr error
}

func (m *memSelection) Load(_ context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.values[key], nil
}

func (m *memSelection) Save(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveErr != nil {
		return m.saveErr
	}
	if m.values == nil {
		m.values = map[string]string{}
	}
	m.values[key] = value
	return nil
}

func newTaskSlice(remote Remote[domain.Task, domain.TaskDraft], sel Selection) *TaskSlice {
	return New(Config[domain.Task, domain.TaskDraft]{
		Family:       domain.Tasks,
		Remote:       remote,
		Selection:    sel,
		SelectionKey: domain.SelectedColumnKey,
	})
}
