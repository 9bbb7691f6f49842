package models

// Envelope is the wrapper every backend endpoint responds with.
type Envelope[T any] struct {
	Success bool   `json:"success"`
	Data    *T     `json:"data,omitempty"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}

// Reason returns the server supplied explanation for a rejected envelope.
func (e *Envelope[T]) Reason() string {
	if e.Message != "" {
		return e.Message
	}
	return e.Error
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type LoginData struct {
	Token string `json:"token"`
	Admin Admin  `json:"admin"`
}

type StatusUpdate[S ~string] struct {
	Status S `json:"status"`
}

type TicketReply struct {
	Message string `json:"message" validate:"required"`
}

const (
	DefaultPage  = 1
	DefaultLimit = 20
)

type ListOptions struct {
	Page     int
	Limit    int
	Status   string
	Priority string
}

// Normalize fills in the default page and limit.
func (o ListOptions) Normalize() ListOptions {
	if o.Page < 1 {
		o.Page = DefaultPage
	}
	if o.Limit < 1 {
		o.Limit = DefaultLimit
	}
	return o
}

type Pagination struct {
	Total int `json:"total"`
	Page  int `json:"page"`
	Limit int `json:"limit"`
}

func (p Pagination) TotalPages() int {
	if p.Limit <= 0 {
		return 0
	}
	return (p.Total + p.Limit - 1) / p.Limit
}

type OrderPage struct {
	Orders []Order `json:"orders"`
	Pagination
}

type PaymentPage struct {
	Payments []Payment `json:"payments"`
	Pagination
}

type TicketPage struct {
	Tickets []SupportTicket `json:"tickets"`
	Pagination
}
