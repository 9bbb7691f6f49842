package apiclient

import (
	"context"
	"net/http"

	"sbp-admin/internal/models"
)

// Login exchanges credentials for a token. It does not store the token.
func (c *Client) Login(ctx context.Context, email, password string) (*models.Envelope[models.LoginData], error) {
	return send[models.LoginData](ctx, c, call{
		method: http.MethodPost,
		route:  "/auth/login",
		path:   "/auth/login",
		body:   models.LoginRequest{Email: email, Password: password},
	})
}

func (c *Client) Logout(ctx context.Context) (*models.Envelope[any], error) {
	return send[any](ctx, c, call{
		method: http.MethodPost,
		route:  "/auth/logout",
		path:   "/auth/logout",
	})
}
