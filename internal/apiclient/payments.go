package apiclient

import (
	"context"
	"net/http"

	"sbp-admin/internal/models"
)

func (c *Client) GetPayments(ctx context.Context, opts models.ListOptions) (*models.Envelope[models.PaymentPage], error) {
	opts = opts.Normalize()
	env, err := send[models.PaymentPage](ctx, c, call{
		method: http.MethodGet,
		route:  "/payments",
		path:   "/payments",
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

func (c *Client) GetPayment(ctx context.Context, id string) (*models.Envelope[models.Payment], error) {
	return send[models.Payment](ctx, c, call{method: http.MethodGet, route: "/payments/{id}", path: idPath("/payments", id)})
}
