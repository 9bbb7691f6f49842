package apiclient

import (
	"context"
	"net/http"

	"sbp-admin/internal/models"
)

// GetOrders fetches one page of orders. Zero page or limit fall back to 1 and 20.
func (c *Client) GetOrders(ctx context.Context, opts models.ListOptions) (*models.Envelope[models.OrderPage], error) {
	opts = opts.Normalize()
	env, err := send[models.OrderPage](ctx, c, call{
		method: http.MethodGet,
		route:  "/orders",
		path:   "/orders",
		query:  pageQuery(opts),
	})
	if err != nil {
		return nil, err
	}
	if env.Data != nil {
		fillPagination(&env.Data.Pagination, opts)
	}
	return env, nil
}

func (c *Client) UpdateOrderStatus(ctx context.Context, id string, status models.OrderStatus) (*models.Envelope[models.Order], error) {
	return send[models.Order](ctx, c, call{
		method: http.MethodPut,
		route:  "/orders/{id}/status",
		path:   idPath("/orders", id, "status"),
		body:   models.StatusUpdate[models.OrderStatus]{Status: status},
	})
}

// fillPagination backfills page and limit when the server leaves them out, so
// TotalPages still works off the requested page size.
func fillPagination(p *models.Pagination, opts models.ListOptions) {
	if p.Page == 0 {
		p.Page = opts.Page
	}
	if p.Limit == 0 {
		p.Limit = opts.Limit
	}
}
