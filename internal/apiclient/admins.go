package apiclient

import (
	"context"
	"net/http"

	"sbp-admin/internal/models"
)

func (c *Client) GetAdmins(ctx context.Context) (*models.Envelope[[]models.Admin], error) {
	return send[[]models.Admin](ctx, c, call{method: http.MethodGet, route: "/admins", path: "/admins"})
}

func (c *Client) CreateAdmin(ctx context.Context, in models.AdminInput) (*models.Envelope[models.Admin], error) {
	return send[models.Admin](ctx, c, call{method: http.MethodPost, route: "/admins", path: "/admins", body: in})
}

func (c *Client) UpdateAdmin(ctx context.Context, id string, in models.AdminInput) (*models.Envelope[models.Admin], error) {
	return send[models.Admin](ctx, c, call{method: http.MethodPut, route: "/admins/{id}", path: idPath("/admins", id), body: in})
}

func (c *Client) DeleteAdmin(ctx context.Context, id string) (*models.Envelope[any], error) {
	return send[any](ctx, c, call{method: http.MethodDelete, route: "/admins/{id}", path: idPath("/admins", id)})
}
