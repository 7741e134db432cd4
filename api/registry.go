package api

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/bytedance/sonic"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/trace"

	"github.com/GoldenManBel/project-management-app/domain"
	"github.com/GoldenManBel/project-management-app/remote"
	"github.com/GoldenManBel/project-management-app/slice"
	"github.com/GoldenManBel/project-management-app/storage"
	"github.com/GoldenManBel/project-management-app/subscription"
)

// Journal receives the terminal events of every workspace.
type Journal interface {
	Append(ctx context.Context, entries ...storage.Entry) error
}

// RemoteFactory builds the remote collaborators of one workspace. board
// returns the board currently selected in that workspace.
type RemoteFactory func(token remote.TokenSource, board func() string) slice.Remotes

// HTTPRemotes returns a RemoteFactory talking to the board REST API at baseURL.
func HTTPRemotes(baseURL string, httpClient *http.Client) RemoteFactory {
	return func(token remote.TokenSource, board func() string) slice.Remotes {
		c := remote.New(baseURL, httpClient, token)
		return slice.Remotes{
			Boards:  c.Boards(),
			Columns: c.Columns(),
			Tasks:   c.Tasks(board),
		}
	}
}

// RegistryConfig wires a Registry.
type RegistryConfig struct {
	Remotes RemoteFactory
	// Selections persists selected parents; nil keeps them in memory.
	Selections storage.Store
	// Journal and Notify are optional.
	Journal Journal
	Notify  func(ctx context.Context, n subscription.Notice) error
	Logger  *log.Logger
	Tracer  trace.Tracer
}

// Registry keeps one workspace per user for the lifetime of the process.
type Registry struct {
	cfg RegistryConfig

	mu      sync.Mutex
	entries map[string]*registryEntry
}

type registryEntry struct {
	ws      *slice.Workspace
	token   *remote.SwappableToken
	restore sync.Once
}

// NewRegistry creates an empty registry.
func NewRegistry(cfg RegistryConfig) *Registry {
	if cfg.Remotes == nil {
		panic("api.NewRegistry: remote factory is nil")
	}
	if cfg.Selections == nil {
		cfg.Selections = storage.NewMemory()
	}
	if cfg.Logger == nil {
		cfg.Logger = log.StandardLogger()
	}
	return &Registry{cfg: cfg, entries: make(map[string]*registryEntry)}
}

// Workspace returns the workspace of userID, creating it and restoring its
// persisted selections on first use. Every call refreshes the token used for
// remote calls. Restoring happens outside the registry lock, so only callers
// for the same user wait for it.
func (r *Registry) Workspace(ctx context.Context, userID, token string) (*slice.Workspace, error) {
	r.mu.Lock()
	e, ok := r.entries[userID]
	if !ok {
		e = r.newEntry(userID)
		r.entries[userID] = e
		r.cfg.Logger.WithFields(log.Fields{"user": userID, "workspaces": len(r.entries)}).Debug("workspace created")
	}
	e.token.Set(token)
	r.mu.Unlock()

	e.restore.Do(func() {
		if err := e.ws.Restore(ctx); err != nil {
			// The workspace still works with nothing selected.
			r.cfg.Logger.WithError(err).WithField("user", userID).Warn("failed to restore selections")
		}
		e.ws.OnChange(func(f domain.Family, ev slice.Event) {
			r.changed(userID, f, ev)
		})
	})
	return e.ws, nil
}

func (r *Registry) newEntry(userID string) *registryEntry {
	e := &registryEntry{token: &remote.SwappableToken{}}
	remotes := r.cfg.Remotes(e.token, func() string { return e.ws.Columns.Selected() })
	e.ws = slice.NewWorkspace(remotes, storage.Scoped{Store: r.cfg.Selections, UserID: userID}, r.cfg.Logger, r.cfg.Tracer)
	return e
}

func (r *Registry) changed(userID string, f domain.Family, ev slice.Event) {
	kind := slice.Kind(ev)
	logger := r.cfg.Logger.WithFields(log.Fields{"user": userID, "family": f, "kind": kind})

	if r.cfg.Notify != nil {
		n := subscription.Notice{UserID: userID, Family: string(f), Kind: kind}
		if err := r.cfg.Notify(context.Background(), n); err != nil {
			logger.WithError(err).Warn("failed to publish change notice")
		}
	}

	if r.cfg.Journal == nil || !terminal(ev) {
		return
	}
	payload, err := sonic.Marshal(ev)
	if err != nil {
		logger.WithError(err).Error("failed to encode journal entry")
		return
	}
	entry := storage.Entry{
		UserID:    userID,
		Family:    string(f),
		Kind:      kind,
		Event:     payload,
		Timestamp: time.Now().UnixMilli(),
	}
	if err := r.cfg.Journal.Append(context.Background(), entry); err != nil {
		logger.WithError(err).Warn("failed to append journal entry")
	}
}

// terminal reports whether ev resolves an asynchronous operation.
func terminal(ev slice.Event) bool {
	if _, ok := ev.(slice.Started); ok {
		return false
	}
	return ev.Header().Ticket != 0
}
