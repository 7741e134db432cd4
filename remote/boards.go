package remote

import (
	"context"
	"net/http"
	"net/url"

	"github.com/GoldenManBel/project-management-app/domain"
)

// Boards implements the board family collaborator. Boards have no parent; the
// parent id argument is ignored.
type Boards struct{ c *Client }

// Boards returns the board collaborator.
func (c *Client) Boards() Boards { return Boards{c: c} }

func (b Boards) List(ctx context.Context, _ string) ([]domain.Board, error) {
	var wire []boardWire
	if err := b.c.do(ctx, http.MethodGet, "/boards", nil, &wire); err != nil {
		return nil, err
	}
	out := make([]domain.Board, 0, len(wire))
	for _, w := range wire {
		out = append(out, w.toDomain())
	}
	return out, nil
}

func (b Boards) Create(ctx context.Context, d domain.BoardDraft, _ string) (domain.Board, error) {
	in := boardWire{Title: d.Title, Description: d.Description, Owner: d.Owner, Users: nonNil(d.Users)}
	var out boardWire
	if err := b.c.do(ctx, http.MethodPost, "/boards", in, &out); err != nil {
		return domain.Board{}, err
	}
	return out.toDomain(), nil
}

func (b Boards) Update(ctx context.Context, item domain.Board, _ string) (domain.Board, error) {
	in := boardWire{Title: item.Title, Description: item.Description, Owner: item.Owner, Users: nonNil(item.Users)}
	var out boardWire
	if err := b.c.do(ctx, http.MethodPut, "/boards/"+url.PathEscape(item.ID), in, &out); err != nil {
		return domain.Board{}, err
	}
	return out.toDomain(), nil
}

func (b Boards) Delete(ctx context.Context, id, _ string) error {
	return b.c.do(ctx, http.MethodDelete, "/boards/"+url.PathEscape(id), nil, nil)
}
