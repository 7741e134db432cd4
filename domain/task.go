package domain

// Task represents a single card inside a column.
type Task struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Description string   `json:"description,omitempty"`
	Order       int      `json:"order"`
	BoardID     string   `json:"boardId,omitempty"`
	ColumnID    string   `json:"columnId,omitempty"`
	UserID      string   `json:"userId,omitempty"`
	Users       []string `json:"users,omitempty"`
}

// Key returns the task identifier.
func (t Task) Key() string { return t.ID }

// TaskDraft carries the fields of a task before the server assigns an id.
type TaskDraft struct {
	Title       string   `json:"title"`
	Description string   `json:"description,omitempty"`
	Order       int      `json:"order"`
	UserID      string   `json:"userId,omitempty"`
	Users       []string `json:"users,omitempty"`
}
