package apiclient

import (
	"context"
	"net/http"

	"sbp-admin/internal/models"
)

func (c *Client) GetTickets(ctx context.Context, opts models.ListOptions) (*models.Envelope[models.TicketPage], error) {
	opts = opts.Normalize()
	env, err := send[models.TicketPage](ctx, c, call{
		method: http.MethodGet,
		route:  "/tickets",
		path:   "/tickets",
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

func (c *Client) UpdateTicketStatus(ctx context.Context, id string, status models.TicketStatus) (*models.Envelope[models.SupportTicket], error) {
	return send[models.SupportTicket](ctx, c, call{
		method: http.MethodPut,
		route:  "/tickets/{id}/status",
		path:   idPath("/tickets", id, "status"),
		body:   models.StatusUpdate[models.TicketStatus]{Status: status},
	})
}

func (c *Client) ReplyToTicket(ctx context.Context, id, message string) (*models.Envelope[models.SupportTicket], error) {
	return send[models.SupportTicket](ctx, c, call{
		method: http.MethodPost,
		route:  "/tickets/{id}/reply",
		path:   idPath("/tickets", id, "reply"),
		body:   models.TicketReply{Message: message},
	})
}
