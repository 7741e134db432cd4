package remote

import "github.com/GoldenManBel/project-management-app/domain"

// The REST API names identifiers "_id"; these types translate to the domain.

type boardWire struct {
	ID          string   `json:"_id,omitempty"`
	Title       string   `json:"title"`
	Description string   `json:"description,omitempty"`
	Owner       string   `json:"owner,omitempty"`
	Users       []string `json:"users"`
}

func (w boardWire) toDomain() domain.Board {
	return domain.Board{ID: w.ID, Title: w.Title, Description: w.Description, Owner: w.Owner, Users: w.Users}
}

type columnWire struct {
	ID      string `json:"_id,omitempty"`
	Title   string `json:"title"`
	Order   int    `json:"order"`
	BoardID string `json:"boardId,omitempty"`
}

func (w columnWire) toDomain() domain.Column {
	return domain.Column{ID: w.ID, Title: w.Title, Order: w.Order, BoardID: w.BoardID}
}

type taskWire struct {
	ID          string   `json:"_id,omitempty"`
	Title       string   `json:"title"`
	Order       int      `json:"order"`
	Description string   `json:"description"`
	BoardID     string   `json:"boardId,omitempty"`
	ColumnID    string   `json:"columnId,omitempty"`
	UserID      string   `json:"userId"`
	Users       []string `json:"users"`
}

func (w taskWire) toDomain() domain.Task {
	return domain.Task{
		ID:          w.ID,
		Title:       w.Title,
		Description: w.Description,
		Order:       w.Order,
		BoardID:     w.BoardID,
		ColumnID:    w.ColumnID,
		UserID:      w.UserID,
		Users:       w.Users,
	}
}

func nonNil(users []string) []string {
	if users == nil {
		return []string{}
	}
	return users
}
