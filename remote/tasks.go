package remote

import (
	"context"
	"net/http"
	"net/url"

	"github.com/GoldenManBel/project-management-app/domain"
)

// Tasks implements the task family collaborator; the parent id is the column
// id. Task routes are nested under a board, which board() supplies.
type Tasks struct {
	c     *Client
	board func() string
}

// Tasks returns the task collaborator. board is consulted on every call and
// usually returns the column slice's selected board.
func (c *Client) Tasks(board func() string) Tasks { return Tasks{c: c, board: board} }

func (t Tasks) path(columnID string) (string, error) {
	boardID := ""
	if t.board != nil {
		boardID = t.board()
	}
	if boardID == "" {
		return "", errNoBoard
	}
	return columnsPath(boardID) + "/" + url.PathEscape(columnID) + "/tasks", nil
}

func (t Tasks) List(ctx context.Context, columnID string) ([]domain.Task, error) {
	p, err := t.path(columnID)
	if err != nil {
		return nil, err
	}
	var wire []taskWire
	if err := t.c.do(ctx, http.MethodGet, p, nil, &wire); err != nil {
		return nil, err
	}
	out := make([]domain.Task, 0, len(wire))
	for _, w := range wire {
		out = append(out, w.toDomain())
	}
	return out, nil
}

func (t Tasks) Create(ctx context.Context, d domain.TaskDraft, columnID string) (domain.Task, error) {
	p, err := t.path(columnID)
	if err != nil {
		return domain.Task{}, err
	}
	in := taskWire{Title: d.Title, Order: d.Order, Description: d.Description, UserID: d.UserID, Users: nonNil(d.Users)}
	var out taskWire
	if err := t.c.do(ctx, http.MethodPost, p, in, &out); err != nil {
		return domain.Task{}, err
	}
	task := out.toDomain()
	if task.ColumnID == "" {
		task.ColumnID = columnID
	}
	return task, nil
}

func (t Tasks) Update(ctx context.Context, item domain.Task, columnID string) (domain.Task, error) {
	p, err := t.path(columnID)
	if err != nil {
		return domain.Task{}, err
	}
	in := taskWire{
		Title:       item.Title,
		Order:       item.Order,
		Description: item.Description,
		ColumnID:    columnID,
		UserID:      item.UserID,
		Users:       nonNil(item.Users),
	}
	var out taskWire
	if err := t.c.do(ctx, http.MethodPut, p+"/"+url.PathEscape(item.ID), in, &out); err != nil {
		return domain.Task{}, err
	}
	return out.toDomain(), nil
}

func (t Tasks) Delete(ctx context.Context, id, columnID string) error {
	p, err := t.path(columnID)
	if err != nil {
		return err
	}
	return t.c.do(ctx, http.MethodDelete, p+"/"+url.PathEscape(id), nil, nil)
}
