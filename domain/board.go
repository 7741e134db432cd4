package domain

// Board is the top-level container of columns.
type Board struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Description string   `json:"description,omitempty"`
	Owner       string   `json:"owner,omitempty"`
	Users       []string `json:"users,omitempty"`
}

// Key returns the board identifier.
func (b Board) Key() string { return b.ID }

// BoardDraft carries the fields of a board before the server assigns an id.
type BoardDraft struct {
	Title       string   `json:"title"`
	Description string   `json:"description,omitempty"`
	Owner       string   `json:"owner,omitempty"`
	Users       []string `json:"users,omitempty"`
}
