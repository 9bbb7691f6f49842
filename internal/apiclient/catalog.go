package apiclient

import (
	"context"
	"net/http"

	"sbp-admin/internal/models"
)

func (c *Client) GetPlatforms(ctx context.Context) (*models.Envelope[[]models.Platform], error) {
	return send[[]models.Platform](ctx, c, call{method: http.MethodGet, route: "/platforms", path: "/platforms"})
}

func (c *Client) CreatePlatform(ctx context.Context, in models.PlatformInput) (*models.Envelope[models.Platform], error) {
	return send[models.Platform](ctx, c, call{method: http.MethodPost, route: "/platforms", path: "/platforms", body: in})
}

func (c *Client) UpdatePlatform(ctx context.Context, id string, in models.PlatformInput) (*models.Envelope[models.Platform], error) {
	return send[models.Platform](ctx, c, call{method: http.MethodPut, route: "/platforms/{id}", path: idPath("/platforms", id), body: in})
}

func (c *Client) DeletePlatform(ctx context.Context, id string) (*models.Envelope[any], error) {
	return send[any](ctx, c, call{method: http.MethodDelete, route: "/platforms/{id}", path: idPath("/platforms", id)})
}

func (c *Client) GetServices(ctx context.Context) (*models.Envelope[[]models.Service], error) {
	return send[[]models.Service](ctx, c, call{method: http.MethodGet, route: "/services", path: "/services"})
}

func (c *Client) CreateService(ctx context.Context, in models.ServiceInput) (*models.Envelope[models.Service], error) {
	return send[models.Service](ctx, c, call{method: http.MethodPost, route: "/services", path: "/services", body: in})
}

func (c *Client) UpdateService(ctx context.Context, id string, in models.ServiceInput) (*models.Envelope[models.Service], error) {
	return send[models.Service](ctx, c, call{method: http.MethodPut, route: "/services/{id}", path: idPath("/services", id), body: in})
}

func (c *Client) DeleteService(ctx context.Context, id string) (*models.Envelope[any], error) {
	return send[any](ctx, c, call{method: http.MethodDelete, route: "/services/{id}", path: idPath("/services", id)})
}

func (c *Client) GetServiceTypes(ctx context.Context) (*models.Envelope[[]models.ServiceType], error) {
	return send[[]models.ServiceType](ctx, c, call{method: http.MethodGet, route: "/service-types", path: "/service-types"})
}

func (c *Client) CreateServiceType(ctx context.Context, in models.ServiceTypeInput) (*models.Envelope[models.ServiceType], error) {
	return send[models.ServiceType](ctx, c, call{method: http.MethodPost, route: "/service-types", path: "/service-types", body: in})
}

func (c *Client) UpdateServiceType(ctx context.Context, id string, in models.ServiceTypeInput) (*models.Envelope[models.ServiceType], error) {
	return send[models.ServiceType](ctx, c, call{method: http.MethodPut, route: "/service-types/{id}", path: idPath("/service-types", id), body: in})
}

func (c *Client) DeleteServiceType(ctx context.Context, id string) (*models.Envelope[any], error) {
	return send[any](ctx, c, call{method: http.MethodDelete, route: "/service-types/{id}", path: idPath("/service-types", id)})
}
