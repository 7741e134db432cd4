package api

import (
	"net/http"

	"github.com/bytedance/sonic"
	"github.com/labstack/echo/v4"
	log "github.com/sirupsen/logrus"

	"github.com/GoldenManBel/project-management-app/domain"
	"github.com/GoldenManBel/project-management-app/slice"
)

const streamBuffer = 16

var streamFamilies = []domain.Family{domain.Boards, domain.Columns, domain.Tasks}

// streamChanges writes the caller's snapshots as Server-Sent Events: all three
// families on connect, then the changed family after every notice.
func streamChanges(auth Authenticator, workspaces Workspaces, listeners Listeners, logger *log.Logger) echo.HandlerFunc {
	return func(c echo.Context) error {
		header := authHeaderFromQuery(c.Request().Header.Get(echo.HeaderAuthorization), c.QueryParam("token"))
		userID, token, err := authenticate(auth, header)
		if err != nil {
			return c.String(http.StatusUnauthorized, err.Error())
		}
		if listeners == nil {
			return c.String(http.StatusServiceUnavailable, "stream unsupported")
		}
		ctx := c.Request().Context()
		ws, err := workspaces.Workspace(ctx, userID, token)
		if err != nil {
			c.Logger().Error(err)
			return c.String(http.StatusInternalServerError, err.Error())
		}

		c.Response().Header().Set(echo.HeaderContentType, "text/event-stream")
		c.Response().Header().Set(echo.HeaderCacheControl, "no-cache")
		c.Response().Header().Set(echo.HeaderConnection, "keep-alive")
		c.Response().Header().Set("X-Accel-Buffering", "no")
		flusher, ok := c.Response().Writer.(http.Flusher)
		if !ok {
			return c.String(http.StatusInternalServerError, "stream unsupported")
		}

		notices, cancel := listeners.Subscribe(userID, streamBuffer)
		defer cancel()

		c.Response().WriteHeader(http.StatusOK)
		for _, f := range streamFamilies {
			if err := writeSnapshot(c, ws, f, "snapshot"); err != nil {
				return nil
			}
		}
		flusher.Flush()

		for {
			select {
			case <-ctx.Done():
				return nil
			case n := <-notices:
				f := domain.Family(n.Family)
				if !f.Valid() {
					logger.WithField("family", n.Family).Debug("ignoring notice for unknown family")
					continue
				}
				if err := writeSnapshot(c, ws, f, n.Kind); err != nil {
					return nil
				}
				flusher.Flush()
			}
		}
	}
}

func writeSnapshot(c echo.Context, ws *slice.Workspace, f domain.Family, event string) error {
	snap, _ := ws.Snapshot(f)
	data, err := sonic.Marshal(streamMessage{Family: f, Event: event, Snapshot: snap})
	if err != nil {
		return err
	}
	w := c.Response()
	if _, err := w.Write([]byte("data: ")); err != nil {
		return err
	}
	if _, err := w.Write(data); err != nil {
		return err
	}
	_, err = w.Write([]byte("\n\n"))
	return err
}
