package slice

import "github.com/GoldenManBel/project-management-app/domain"

// Snapshot is a read-only copy of a slice's state handed to the view layer.
type Snapshot[T Keyed] struct {
	Family      domain.Family  `json:"family"`
	Selected    string         `json:"selected"`
	Loading     bool           `json:"isLoading"`
	Error       string         `json:"error"`
	JustCreated bool           `json:"isCreated"`
	JustUpdated bool           `json:"isUpdated"`
	Phases      map[Op]Phase   `json:"phases"`
	Items       map[string][]T `json:"items"`
	// Stale counts fetch results dropped because a newer result for the same
	// parent had already been applied.
	Stale uint64 `json:"staleFetches,omitempty"`
}
