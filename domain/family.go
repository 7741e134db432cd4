package domain

// Family names an entity family; each family is served by its own slice.
type Family string

const (
	Boards  Family = "boards"
	Columns Family = "columns"
	Tasks   Family = "tasks"
)

// Valid reports whether f is one of the known families.
func (f Family) Valid() bool {
	switch f {
	case Boards, Columns, Tasks:
		return true
	}
	return false
}

// Durable keys under which the selected parent of a family is remembered.
const (
	SelectedBoardKey  = "boardId"
	SelectedColumnKey = "columnId"
)
