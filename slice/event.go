package slice

// Op names an operation issued against a slice.
type Op string

const (
	OpFetch  Op = "fetch"
	OpCreate Op = "create"
	OpUpdate Op = "update"
	OpDelete Op = "delete"
	OpSelect Op = "select"
	OpReset  Op = "reset"
)

// Phase is the observable state of one kind of asynchronous operation.
type Phase string

const (
	PhaseIdle      Phase = "idle"
	PhasePending   Phase = "pending"
	PhaseSucceeded Phase = "succeeded"
	PhaseFailed    Phase = "failed"
)

// Flag identifies a one-shot success flag.
type Flag string

const (
	FlagCreated Flag = "created"
	FlagUpdated Flag = "updated"
)

// Meta is carried by every event.
type Meta struct {
	Op     Op     `json:"op"`
	Parent string `json:"parentId"`
	// Ticket orders asynchronous operations by issue time; zero for local ones.
	Ticket uint64 `json:"ticket,omitempty"`
}

// Header returns the event metadata.
func (m Meta) Header() Meta { return m }

func (Meta) sealed() {}

// Event is the closed set of state transitions a slice applies. Only the types
// declared in this file implement it.
type Event interface {
	Header() Meta
	sealed()
}

// Started marks the issue of an asynchronous operation.
type Started struct {
	Meta
}

// Listed carries the full sequence returned by a fetch.
type Listed[T Keyed] struct {
	Meta
	Items []T `json:"items"`
}

// Created carries the entity returned by a create, with its server-assigned id.
type Created[T Keyed] struct {
	Meta
	Item T `json:"item"`
}

// Updated carries the entity returned by an update.
type Updated[T Keyed] struct {
	Meta
	Item T `json:"item"`
}

// Deleted carries the id removed by a delete.
type Deleted struct {
	Meta
	ID string `json:"id"`
}

// Rejected carries the message of a failed asynchronous operation.
type Rejected struct {
	Meta
	Message string `json:"message"`
}

// Selected records a new current parent.
type Selected struct {
	Meta
}

// FlagReset clears a one-shot flag.
type FlagReset struct {
	Meta
	Flag Flag `json:"flag"`
}

// Kind returns a stable name for ev, used on the wire.
func Kind(ev Event) string {
	switch ev.(type) {
	case Started:
		return "started"
	case Rejected:
		return "rejected"
	case Deleted:
		return "deleted"
	case Selected:
		return "selected"
	case FlagReset:
		return "flag-reset"
	}
	switch ev.Header().Op {
	case OpFetch:
		return "listed"
	case OpCreate:
		return "created"
	case OpUpdate:
		return "updated"
	}
	return "unknown"
}
