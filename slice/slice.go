package slice

import (
	"context"
	"fmt"
	"sync"

	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/GoldenManBel/project-management-app/domain"
)

const tracerName = "github.com/GoldenManBel/project-management-app/slice"

// defaultErrorMessage is used when the remote collaborator fails without a message.
const defaultErrorMessage = "operation failed"

// Remote is the collaborator a slice calls for its asynchronous operations.
// Every call either returns the server's view of the entity (or list) or an
// error whose message is shown to the user verbatim.
type Remote[T Keyed, D any] interface {
	List(ctx context.Context, parentID string) ([]T, error)
	Create(ctx context.Context, draft D, parentID string) (T, error)
	Update(ctx context.Context, item T, parentID string) (T, error)
	Delete(ctx context.Context, id, parentID string) error
}

// Selection durably remembers the selected parent of a slice.
type Selection interface {
	Load(ctx context.Context, key string) (string, error)
	Save(ctx context.Context, key, value string) error
}

// Config wires a slice to its collaborators.
type Config[T Keyed, D any] struct {
	Family domain.Family
	Remote Remote[T, D]
	// Selection and SelectionKey are optional; without them Select only
	// changes the in-memory value.
	Selection    Selection
	SelectionKey string
	Logger       *log.Logger
	Tracer       trace.Tracer
}

// Slice holds the client-side copy of one entity family, grouped by parent id.
// All state transitions go through reduce under mu, so readers always see a
// state between two complete transitions.
type Slice[T Keyed, D any] struct {
	family       domain.Family
	remote       Remote[T, D]
	selection    Selection
	selectionKey string
	logger       *log.Logger
	tracer       trace.Tracer

	mu          sync.Mutex
	items       map[string]*Ordered[T]
	selected    string
	inflight    int
	err         string
	justCreated bool
	justUpdated bool
	phases      map[Op]Phase
	ticket      uint64
	fetchedAt   map[string]uint64
	mutatedAt   map[string]uint64
	stale       uint64
	listeners   []func(Event)
}

// New creates an empty slice.
func New[T Keyed, D any](cfg Config[T, D]) *Slice[T, D] {
	if cfg.Remote == nil {
		panic("slice.New: remote is nil")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = log.StandardLogger()
	}
	tracer := cfg.Tracer
	if tracer == nil {
		tracer = otel.Tracer(tracerName)
	}
	return &Slice[T, D]{
		family:       cfg.Family,
		remote:       cfg.Remote,
		selection:    cfg.Selection,
		selectionKey: cfg.SelectionKey,
		logger:       logger,
		tracer:       tracer,
		items:        make(map[string]*Ordered[T]),
		phases: map[Op]Phase{
			OpFetch:  PhaseIdle,
			OpCreate: PhaseIdle,
			OpUpdate: PhaseIdle,
			OpDelete: PhaseIdle,
		},
		fetchedAt: make(map[string]uint64),
		mutatedAt: make(map[string]uint64),
	}
}

// Family returns the entity family served by the slice.
func (s *Slice[T, D]) Family() domain.Family { return s.family }

// OnChange registers fn to be called after every applied event. Callbacks run
// outside the slice lock, in the goroutine that applied the event.
func (s *Slice[T, D]) OnChange(fn func(Event)) {
	s.mu.Lock()
	s.listeners = append(s.listeners, fn)
	s.mu.Unlock()
}

// Fetch replaces the sequence stored for parentID with the remote list.
func (s *Slice[T, D]) Fetch(ctx context.Context, parentID string) {
	meta := s.start(OpFetch, parentID)
	ctx, span := s.startSpan(ctx, meta)
	items, err := s.remote.List(ctx, parentID)
	if err != nil {
		s.reject(meta, err, span)
		return
	}
	span.SetAttributes(attribute.Int("board.items", len(items)))
	s.dispatch(Listed[T]{Meta: meta, Items: items})
	span.End()
}

// Create asks the remote to create draft under parentID and appends the result.
func (s *Slice[T, D]) Create(ctx context.Context, draft D, parentID string) {
	meta := s.start(OpCreate, parentID)
	ctx, span := s.startSpan(ctx, meta)
	item, err := s.remote.Create(ctx, draft, parentID)
	if err != nil {
		s.reject(meta, err, span)
		return
	}
	span.SetAttributes(attribute.String("board.entity_id", item.Key()))
	s.dispatch(Created[T]{Meta: meta, Item: item})
	span.End()
}

// Update asks the remote to update item and replaces it in place.
func (s *Slice[T, D]) Update(ctx context.Context, item T, parentID string) {
	meta := s.start(OpUpdate, parentID)
	ctx, span := s.startSpan(ctx, meta)
	span.SetAttributes(attribute.String("board.entity_id", item.Key()))
	updated, err := s.remote.Update(ctx, item, parentID)
	if err != nil {
		s.reject(meta, err, span)
		return
	}
	s.dispatch(Updated[T]{Meta: meta, Item: updated})
	span.End()
}

// Delete asks the remote to delete id and removes it from parentID's sequence.
func (s *Slice[T, D]) Delete(ctx context.Context, id, parentID string) {
	meta := s.start(OpDelete, parentID)
	ctx, span := s.startSpan(ctx, meta)
	span.SetAttributes(attribute.String("board.entity_id", id))
	if err := s.remote.Delete(ctx, id, parentID); err != nil {
		s.reject(meta, err, span)
		return
	}
	s.dispatch(Deleted{Meta: meta, ID: id})
	span.End()
}

// Select makes parentID the current parent and persists it. The in-memory
// value changes even when persisting fails.
func (s *Slice[T, D]) Select(ctx context.Context, parentID string) error {
	s.dispatch(Selected{Meta: Meta{Op: OpSelect, Parent: parentID}})
	if s.selection == nil || s.selectionKey == "" {
		return nil
	}
	if err := s.selection.Save(ctx, s.selectionKey, parentID); err != nil {
		s.logger.WithError(err).WithFields(log.Fields{"family": s.family, "key": s.selectionKey}).Warn("failed to persist selection")
		return fmt.Errorf("persist %s selection: %w", s.family, err)
	}
	return nil
}

// Restore loads the persisted selection, if any.
func (s *Slice[T, D]) Restore(ctx context.Context) error {
	if s.selection == nil || s.selectionKey == "" {
		return nil
	}
	v, err := s.selection.Load(ctx, s.selectionKey)
	if err != nil {
		return fmt.Errorf("load %s selection: %w", s.family, err)
	}
	if v != "" {
		s.dispatch(Selected{Meta: Meta{Op: OpSelect, Parent: v}})
	}
	return nil
}

// ResetFlag clears a one-shot flag. Clearing an already cleared flag is fine.
func (s *Slice[T, D]) ResetFlag(flag Flag) {
	s.dispatch(FlagReset{Meta: Meta{Op: OpReset}, Flag: flag})
}

// Selected returns the current parent id.
func (s *Slice[T, D]) Selected() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selected
}

// Items returns the sequence stored for parentID.
func (s *Slice[T, D]) Items(parentID string) []T {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.items[parentID].Values()
}

// Snapshot returns a copy of the whole slice state.
func (s *Slice[T, D]) Snapshot() Snapshot[T] {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := Snapshot[T]{
		Family:      s.family,
		Selected:    s.selected,
		Loading:     s.inflight > 0,
		Error:       s.err,
		JustCreated: s.justCreated,
		JustUpdated: s.justUpdated,
		Phases:      make(map[Op]Phase, len(s.phases)),
		Items:       make(map[string][]T, len(s.items)),
		Stale:       s.stale,
	}
	for op, phase := range s.phases {
		snap.Phases[op] = phase
	}
	for parent, seq := range s.items {
		snap.Items[parent] = seq.Values()
	}
	return snap
}

func (s *Slice[T, D]) start(op Op, parentID string) Meta {
	s.mu.Lock()
	s.ticket++
	meta := Meta{Op: op, Parent: parentID, Ticket: s.ticket}
	s.reduce(Started{Meta: meta})
	listeners := s.listeners
	s.mu.Unlock()
	notify(listeners, Started{Meta: meta})
	return meta
}

func (s *Slice[T, D]) dispatch(ev Event) {
	s.mu.Lock()
	s.reduce(ev)
	listeners := s.listeners
	s.mu.Unlock()
	notify(listeners, ev)
}

func notify(listeners []func(Event), ev Event) {
	for _, fn := range listeners {
		fn(ev)
	}
}

func (s *Slice[T, D]) reject(meta Meta, err error, span trace.Span) {
	msg := err.Error()
	if msg == "" {
		msg = defaultErrorMessage
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, msg)
	span.End()
	s.logger.WithFields(log.Fields{
		"family": s.family,
		"op":     meta.Op,
		"parent": meta.Parent,
		"ticket": meta.Ticket,
	}).WithError(err).Debug("slice operation rejected")
	s.dispatch(Rejected{Meta: meta, Message: msg})
}

func (s *Slice[T, D]) startSpan(ctx context.Context, meta Meta) (context.Context, trace.Span) {
	return s.tracer.Start(ctx, string(s.family)+"."+string(meta.Op), trace.WithAttributes(
		attribute.String("board.family", string(s.family)),
		attribute.String("board.parent_id", meta.Parent),
		attribute.Int64("board.ticket", int64(meta.Ticket)),
	))
}
