package api

import (
	"github.com/bytedance/sonic"

	"github.com/GoldenManBel/project-management-app/domain"
)

const postCommandMaxSize = 64 * 1024 // 64 KiB

// Command types accepted by POST /api/commands.
const (
	cmdFetch        = "fetch"
	cmdCreate       = "create"
	cmdUpdate       = "update"
	cmdDelete       = "delete"
	cmdSelect       = "select"
	cmdResetCreated = "reset-created"
	cmdResetUpdated = "reset-updated"
)

// Command is one view intent against a slice of the caller's workspace.
type Command struct {
	IdempotencyKey string        `json:"idempotencyKey"`
	Family         domain.Family `json:"family"`
	Type           string        `json:"type"`
	// ParentID is the board id for columns and the column id for tasks. For
	// select it is the parent being selected.
	ParentID string `json:"parentId,omitempty"`
	// ID names the entity to delete.
	ID   string                 `json:"id,omitempty"`
	Data sonic.NoCopyRawMessage `json:"data,omitempty"`
}

// target identifies what the command acts on. An idempotency key stays bound
// to the target it was first used for.
func (c Command) target() string {
	return string(c.Family) + "/" + c.Type + "/" + c.ParentID + "/" + c.ID
}

// /POST /api/commands response body
type postCommandResponse struct {
	IdempotencyKeys []string `json:"idempotencyKeys,omitempty"`
	Duplicates      []string `json:"duplicates,omitempty"`
	Conflicts       []string `json:"conflicts,omitempty"`
	Error           string   `json:"error,omitempty"`
}

// streamMessage is written as the data of every SSE event.
type streamMessage struct {
	Family   domain.Family `json:"family"`
	Event    string        `json:"event"`
	Snapshot any           `json:"snapshot"`
}
