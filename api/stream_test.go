package api

import (
	"bufio"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/bytedance/sonic"
	"github.com/labstack/echo/v4"

	"github.com/GoldenManBel/project-management-app/subscription"
)

type streamEvent struct {
	Family   string         `json:"family"`
	Event    string         `json:"event"`
	Snapshot map[string]any `json:"snapshot"`
}

func readEvent(t *testing.T, r *bufio.Reader) streamEvent {
	t.Helper()
	for {
		line, err := r.ReadString('\n')
		if err != nil {
			t.Fatalf("read stream: %v", err)
		}
		line = strings.TrimSpace(line)
		if !strings.HasPrefix(line, "data: ") {
			continue
		}
		var ev streamEvent
		if err := sonic.UnmarshalString(strings.TrimPrefix(line, "data: "), &ev); err != nil {
			t.Fatalf("decode event %q: %v", line, err)
		}
		return ev
	}
}

func TestStreamSendsSnapshotsAndChanges(t *testing.T) {
	_, boardSrv := newBoardAPI(t)
	reg := newTestRegistry(boardSrv.URL, nil)
	hub := subscription.NewHub()

	e := echo.New()
	Register(e, Deps{Auth: mockAuth{}, Workspaces: reg, Listeners: hub})
	srv := httptest.NewServer(e)
	t.Cleanup(srv.Close)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/api/stream?token=a.b.c", nil)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status 200 got %d", resp.StatusCode)
	}
	if ct := resp.Header.Get(echo.HeaderContentType); ct != "text/event-stream" {
		t.Fatalf("unexpected content type %q", ct)
	}

	r := bufio.NewReader(resp.Body)
	for _, want := range []string{"boards", "columns", "tasks"} {
		ev := readEvent(t, r)
		if ev.Family != want || ev.Event != "snapshot" {
			t.Fatalf("unexpected initial event %+v", ev)
		}
	}

	ws, _ := reg.Workspace(ctx, "user", "a.b.c")
	if err := ws.Columns.Select(ctx, "b1"); err != nil {
		t.Fatalf("select: %v", err)
	}
	hub.Broadcast(subscription.Notice{UserID: "someone-else", Family: "boards", Kind: "listed"})
	hub.Broadcast(subscription.Notice{UserID: "user", Family: "columns", Kind: "selected"})

	ev := readEvent(t, r)
	if ev.Family != "columns" || ev.Event != "selected" {
		t.Fatalf("unexpected change event %+v", ev)
	}
	if ev.Snapshot["selected"] != "b1" {
		t.Fatalf("expected fresh snapshot, got %#v", ev.Snapshot)
	}
}

func TestStreamUnauthorized(t *testing.T) {
	e := echo.New()
	Register(e, Deps{Auth: failingAuth{}, Listeners: subscription.NewHub()})
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/stream?token=a.b.c", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected status 401 got %d", rec.Code)
	}
}
