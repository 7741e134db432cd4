package domain

// Column groups tasks on a board.
type Column struct {
	ID      string `json:"id"`
	Title   string `json:"title"`
	Order   int    `json:"order"`
	BoardID string `json:"boardId,omitempty"`
}

// Key returns the column identifier.
func (c Column) Key() string { return c.ID }

// ColumnDraft carries the fields of a column before the server assigns an id.
type ColumnDraft struct {
	Title string `json:"title"`
	Order int    `json:"order"`
}
