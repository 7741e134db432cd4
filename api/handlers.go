package api

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/bytedance/sonic"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	log "github.com/sirupsen/logrus"

	"github.com/GoldenManBel/project-management-app/domain"
)

// Deps are the collaborators of the HTTP surface. Deduper, Dispatcher and
// Listeners are optional.
type Deps struct {
	Auth       Authenticator
	Workspaces Workspaces
	Deduper    Deduper
	Dispatcher *Dispatcher
	Listeners  Listeners
	Logger     *log.Logger
}

// Register wires up all API routes on the provided Echo instance.
func Register(e *echo.Echo, d Deps) {
	if d.Logger == nil {
		d.Logger = log.StandardLogger()
	}
	e.GET("/healthz", healthz())
	e.GET("/api/stream", streamChanges(d.Auth, d.Workspaces, d.Listeners, d.Logger))
	e.GET("/api/:family", getSnapshot(d.Auth, d.Workspaces, d.Logger))
	e.POST("/api/commands", postCommands(d.Auth, d.Workspaces, d.Deduper, d.Dispatcher, d.Logger), decodeCommandBody)
}

func healthz() echo.HandlerFunc {
	return func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	}
}

// authenticate returns the caller's user id and the raw token forwarded to
// the remote API.
func authenticate(auth Authenticator, header string) (string, string, error) {
	userID, err := auth.UserIDFromAuthHeader(header)
	if err != nil {
		return "", "", err
	}
	token, err := bearerToken(header)
	if err != nil {
		return "", "", err
	}
	return userID, token, nil
}

func getSnapshot(auth Authenticator, workspaces Workspaces, logger *log.Logger) echo.HandlerFunc {
	return func(c echo.Context) (err error) {
		metrics, ctx := newRequestMetrics(c.Request().Context(), logger, "/api/:family")
		c.SetRequest(c.Request().WithContext(ctx))
		defer func() {
			metrics.Log(c.Response().Status, err)
		}()

		authStart := time.Now()
		userID, token, authErr := authenticate(auth, c.Request().Header.Get(echo.HeaderAuthorization))
		metrics.ObserveAuth(time.Since(authStart))
		if authErr != nil {
			metrics.SetErrorStage("auth")
			return c.String(http.StatusUnauthorized, authErr.Error())
		}

		family := domain.Family(c.Param("family"))
		metrics.SetFamily(string(family))
		if !family.Valid() {
			metrics.SetErrorStage("family")
			return c.String(http.StatusNotFound, "unknown family")
		}

		ws, wsErr := workspaces.Workspace(ctx, userID, token)
		if wsErr != nil {
			metrics.SetErrorStage("workspace")
			c.Logger().Error(wsErr)
			return c.String(http.StatusInternalServerError, wsErr.Error())
		}
		snap, _ := ws.Snapshot(family)
		err = c.JSON(http.StatusOK, snap)
		if err != nil {
			metrics.SetErrorStage("encode_response")
		}
		return err
	}
}

func postCommands(auth Authenticator, workspaces Workspaces, deduper Deduper, dispatcher *Dispatcher, logger *log.Logger) echo.HandlerFunc {
	return func(c echo.Context) (err error) {
		metrics, ctx := newRequestMetrics(c.Request().Context(), logger, "/api/commands")
		c.SetRequest(c.Request().WithContext(ctx))
		defer func() {
			metrics.Log(c.Response().Status, err)
		}()

		authStart := time.Now()
		userID, token, authErr := authenticate(auth, c.Request().Header.Get(echo.HeaderAuthorization))
		metrics.ObserveAuth(time.Since(authStart))
		if authErr != nil {
			metrics.SetErrorStage("auth")
			return c.String(http.StatusUnauthorized, authErr.Error())
		}

		lr := io.LimitReader(c.Request().Body, postCommandMaxSize)
		dec := sonic.ConfigStd.NewDecoder(lr)
		dec.DisallowUnknownFields()

		cmds := make([]Command, 0, 4)
		if decErr := dec.Decode(&cmds); decErr != nil {
			metrics.SetErrorStage("decode")
			return c.String(http.StatusBadRequest, "invalid body")
		}
		keys := finalizeCommands(cmds)
		if len(cmds) == 0 {
			return c.JSON(http.StatusAccepted, postCommandResponse{})
		}

		ws, wsErr := workspaces.Workspace(ctx, userID, token)
		if wsErr != nil {
			metrics.SetErrorStage("workspace")
			c.Logger().Error(wsErr)
			return c.String(http.StatusInternalServerError, wsErr.Error())
		}

		steps := make([]step, 0, len(cmds))
		for _, cmd := range cmds {
			st, prepErr := prepare(ws, cmd)
			if prepErr != nil {
				metrics.SetErrorStage("validate")
				return c.JSON(http.StatusBadRequest, postCommandResponse{Error: prepErr.Error()})
			}
			steps = append(steps, st)
		}

		claimed, dedupeErr := dedupe(ctx, deduper, logger, userID, steps)
		metrics.SetCommands(len(cmds), len(claimed.duplicates))
		if dedupeErr != nil {
			metrics.SetErrorStage("dedupe")
			logger.WithError(dedupeErr).WithField("user", userID).Error("failed to record commands")
			return c.String(http.StatusInternalServerError, "failed to record commands")
		}
		if len(claimed.conflicts) > 0 {
			metrics.SetErrorStage("dedupe")
			return c.JSON(http.StatusConflict, postCommandResponse{
				IdempotencyKeys: keys,
				Conflicts:       claimed.conflicts,
				Error:           "idempotency key reused for a different command",
			})
		}

		workStart := time.Now()
		j := job{userID: userID}
		var (
			syncErrs []error
			failed   []string
		)
		for _, st := range claimed.steps {
			if st.async {
				j.steps = append(j.steps, func(ctx context.Context) { _ = st.run(ctx) })
				continue
			}
			if runErr := st.run(ctx); runErr != nil {
				syncErrs = append(syncErrs, runErr)
				failed = append(failed, st.key)
			}
		}
		release(deduper, logger, userID, failed)
		if len(j.steps) > 0 && !dispatcher.trySubmit(j) {
			if dispatcher != nil {
				logger.Warn("dispatch buffer saturated; processing inline")
			}
			metrics.SetInline(true)
			j.run(context.Background())
		}
		metrics.ObserveWork(time.Since(workStart))

		resp := postCommandResponse{IdempotencyKeys: keys, Duplicates: claimed.duplicates}
		if len(syncErrs) > 0 {
			metrics.SetErrorStage("select")
			resp.Error = errors.Join(syncErrs...).Error()
		}
		return c.JSON(http.StatusAccepted, resp)
	}
}

// finalizeCommands assigns missing idempotency keys and returns the keys in
// request order.
func finalizeCommands(cmds []Command) []string {
	keys := make([]string, len(cmds))
	for i := range cmds {
		if cmds[i].IdempotencyKey == "" {
			cmds[i].IdempotencyKey = uuid.NewString()
		}
		keys[i] = cmds[i].IdempotencyKey
	}
	return keys
}

type claimResult struct {
	steps      []step
	duplicates []string
	conflicts  []string
}

// dedupe claims the key of every step and keeps the steps whose key was free.
// When the claim fails or any key conflicts, the keys claimed by this call are
// released again so the whole batch can be resent.
func dedupe(ctx context.Context, deduper Deduper, logger *log.Logger, userID string, steps []step) (claimResult, error) {
	if deduper == nil || len(steps) == 0 {
		return claimResult{steps: steps}, nil
	}
	claims := make([]Claim, len(steps))
	for i, st := range steps {
		claims[i] = Claim{Key: st.key, Command: st.target}
	}
	states, err := deduper.Claim(ctx, userID, claims)

	var res claimResult
	var fresh []string
	for i, st := range steps {
		if i >= len(states) {
			break
		}
		switch states[i] {
		case ClaimNew:
			fresh = append(fresh, st.key)
			res.steps = append(res.steps, st)
		case ClaimDuplicate:
			res.duplicates = append(res.duplicates, st.key)
		case ClaimConflict:
			res.conflicts = append(res.conflicts, st.key)
		}
	}
	if err != nil {
		release(deduper, logger, userID, fresh)
		return claimResult{}, err
	}
	if len(res.conflicts) > 0 {
		release(deduper, logger, userID, fresh)
		res.steps = nil
	}
	return res, nil
}

func release(deduper Deduper, logger *log.Logger, userID string, keys []string) {
	if deduper == nil || len(keys) == 0 {
		return
	}
	if err := deduper.Release(context.Background(), userID, keys...); err != nil {
		logger.WithError(err).WithFields(log.Fields{"user": userID, "keys": keys}).Error("failed to release idempotency keys")
	}
}
