package api

import (
	"context"

	"github.com/GoldenManBel/project-management-app/slice"
	"github.com/GoldenManBel/project-management-app/subscription"
)

// Authenticator is implemented by types able to extract user IDs from headers.
type Authenticator interface {
	UserIDFromAuthHeader(string) (string, error)
}

// Deduper prevents processing of duplicate commands.
type Deduper interface {
	// Claim records each key for its command and reports, per claim, whether
	// the key was free, already held by the same command or held by another.
	Claim(ctx context.Context, userID string, claims []Claim) ([]ClaimState, error)
	// Release forgets keys so their commands may be retried.
	Release(ctx context.Context, userID string, keys ...string) error
}

// Workspaces hands out the workspace of a user. token is the caller's bearer
// token and is used for the remote calls made on the user's behalf.
type Workspaces interface {
	Workspace(ctx context.Context, userID, token string) (*slice.Workspace, error)
}

// Listeners lets the stream endpoint follow changes of one user.
type Listeners interface {
	Subscribe(userID string, buffer int) (<-chan subscription.Notice, func())
}
