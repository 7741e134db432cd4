package api

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"

	"github.com/bytedance/sonic"
	log "github.com/sirupsen/logrus"

	"github.com/GoldenManBel/project-management-app/storage"
)

// boardAPI is an in-memory stand-in for the board REST API.
type boardAPI struct {
	mu     sync.Mutex
	nextID int
	boards []map[string]any
	tasks  map[string][]map[string]any // keyed by board/column
	auth   []string
	calls  []string
}

func newBoardAPI(t *testing.T) (*boardAPI, *httptest.Server) {
	t.Helper()
	api := &boardAPI{tasks: map[string][]map[string]any{}}
	mux := http.NewServeMux()
	mux.HandleFunc("GET /boards", func(w http.ResponseWriter, r *http.Request) {
		api.record(r)
		api.mu.Lock()
		defer api.mu.Unlock()
		writeJSON(w, http.StatusOK, api.boards)
	})
	mux.HandleFunc("POST /boards", func(w http.ResponseWriter, r *http.Request) {
		api.record(r)
		body := readBody(t, r)
		api.mu.Lock()
		defer api.mu.Unlock()
		api.nextID++
		body["_id"] = "b" + strconv.Itoa(api.nextID)
		api.boards = append(api.boards, body)
		writeJSON(w, http.StatusCreated, body)
	})
	mux.HandleFunc("GET /boards/{board}/columns/{column}/tasks", func(w http.ResponseWriter, r *http.Request) {
		api.record(r)
		api.mu.Lock()
		defer api.mu.Unlock()
		tasks := api.tasks[r.PathValue("board")+"/"+r.PathValue("column")]
		if tasks == nil {
			tasks = []map[string]any{}
		}
		writeJSON(w, http.StatusOK, tasks)
	})
	mux.HandleFunc("DELETE /boards/{board}", func(w http.ResponseWriter, r *http.Request) {
		api.record(r)
		writeJSON(w, http.StatusNotFound, map[string]any{"statusCode": 404, "message": "Board was not founded!"})
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return api, srv
}

func (a *boardAPI) record(r *http.Request) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.auth = append(a.auth, r.Header.Get("Authorization"))
	a.calls = append(a.calls, r.Method+" "+r.URL.Path)
}

func (a *boardAPI) Calls() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]string(nil), a.calls...)
}

func (a *boardAPI) Auth() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]string(nil), a.auth...)
}

func (a *boardAPI) seedTasks(board, column string, tasks ...map[string]any) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.tasks[board+"/"+column] = tasks
}

func readBody(t *testing.T, r *http.Request) map[string]any {
	data, err := io.ReadAll(r.Body)
	if err != nil {
		t.Errorf("read body: %v", err)
		return nil
	}
	var body map[string]any
	if err := sonic.Unmarshal(data, &body); err != nil {
		t.Errorf("decode body: %v", err)
	}
	return body
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	data, _ := sonic.Marshal(v)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(data)
}

type mockAuth struct{}

func (mockAuth) UserIDFromAuthHeader(h string) (string, error) {
	if h == "" {
		return "", errMissingAuthorization
	}
	return "user", nil
}

type failingAuth struct{}

func (failingAuth) UserIDFromAuthHeader(string) (string, error) {
	return "", errors.New("token expired")
}

func newTestRegistry(srvURL string, sel storage.Store) *Registry {
	return NewRegistry(RegistryConfig{
		Remotes:    HTTPRemotes(srvURL, nil),
		Selections: sel,
		Logger:     log.New(),
	})
}
