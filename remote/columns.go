package remote

import (
	"context"
	"net/http"
	"net/url"

	"github.com/GoldenManBel/project-management-app/domain"
)

// Columns implements the column family collaborator; the parent id is the board id.
type Columns struct{ c *Client }

// Columns returns the column collaborator.
func (c *Client) Columns() Columns { return Columns{c: c} }

func columnsPath(boardID string) string {
	return "/boards/" + url.PathEscape(boardID) + "/columns"
}

func (cl Columns) List(ctx context.Context, boardID string) ([]domain.Column, error) {
	if boardID == "" {
		return nil, errNoBoard
	}
	var wire []columnWire
	if err := cl.c.do(ctx, http.MethodGet, columnsPath(boardID), nil, &wire); err != nil {
		return nil, err
	}
	out := make([]domain.Column, 0, len(wire))
	for _, w := range wire {
		col := w.toDomain()
		if col.BoardID == "" {
			col.BoardID = boardID
		}
		out = append(out, col)
	}
	return out, nil
}

func (cl Columns) Create(ctx context.Context, d domain.ColumnDraft, boardID string) (domain.Column, error) {
	if boardID == "" {
		return domain.Column{}, errNoBoard
	}
	var out columnWire
	if err := cl.c.do(ctx, http.MethodPost, columnsPath(boardID), columnWire{Title: d.Title, Order: d.Order}, &out); err != nil {
		return domain.Column{}, err
	}
	col := out.toDomain()
	if col.BoardID == "" {
		col.BoardID = boardID
	}
	return col, nil
}

func (cl Columns) Update(ctx context.Context, item domain.Column, boardID string) (domain.Column, error) {
	if boardID == "" {
		return domain.Column{}, errNoBoard
	}
	var out columnWire
	path := columnsPath(boardID) + "/" + url.PathEscape(item.ID)
	if err := cl.c.do(ctx, http.MethodPut, path, columnWire{Title: item.Title, Order: item.Order}, &out); err != nil {
		return domain.Column{}, err
	}
	col := out.toDomain()
	if col.BoardID == "" {
		col.BoardID = boardID
	}
	return col, nil
}

func (cl Columns) Delete(ctx context.Context, id, boardID string) error {
	if boardID == "" {
		return errNoBoard
	}
	return cl.c.do(ctx, http.MethodDelete, columnsPath(boardID)+"/"+url.PathEscape(id), nil, nil)
}
