package models

type OrderStatus string

const (
	OrderPending    OrderStatus = "pending"
	OrderProcessing OrderStatus = "processing"
	OrderCompleted  OrderStatus = "completed"
	OrderCancelled  OrderStatus = "cancelled"
)

func (s OrderStatus) Valid() bool {
	switch s {
	case OrderPending, OrderProcessing, OrderCompleted, OrderCancelled:
		return true
	}
	return false
}

type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "pending"
	PaymentCompleted PaymentStatus = "completed"
	PaymentFailed    PaymentStatus = "failed"
)

func (s PaymentStatus) Valid() bool {
	switch s {
	case PaymentPending, PaymentCompleted, PaymentFailed:
		return true
	}
	return false
}

type TicketStatus string

const (
	TicketOpen       TicketStatus = "open"
	TicketInProgress TicketStatus = "in_progress"
	TicketResolved   TicketStatus = "resolved"
	TicketClosed     TicketStatus = "closed"
)

func (s TicketStatus) Valid() bool {
	switch s {
	case TicketOpen, TicketInProgress, TicketResolved, TicketClosed:
		return true
	}
	return false
}

type TicketPriority string

const (
	PriorityLow    TicketPriority = "low"
	PriorityMedium TicketPriority = "medium"
	PriorityHigh   TicketPriority = "high"
)

func (p TicketPriority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

type AdminRole string

const (
	RoleSuperAdmin AdminRole = "super_admin"
	RoleAdmin      AdminRole = "admin"
	RoleSupport    AdminRole = "support"
)

func (r AdminRole) Valid() bool {
	switch r {
	case RoleSuperAdmin, RoleAdmin, RoleSupport:
		return true
	}
	return false
}

type Platform struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Icon        string    `json:"icon,omitempty"`
	IsActive    bool      `json:"isActive"`
	CreatedAt   Timestamp `json:"createdAt"`
	UpdatedAt   Timestamp `json:"updatedAt"`
}

// PlatformInput is the writable part of a Platform.
type PlatformInput struct {
	Name        string `json:"name" validate:"required"`
	Description string `json:"description,omitempty"`
	Icon        string `json:"icon,omitempty"`
	IsActive    bool   `json:"isActive"`
}

func (p Platform) Input() PlatformInput {
	return PlatformInput{
		Name:        p.Name,
		Description: p.Description,
		Icon:        p.Icon,
		IsActive:    p.IsActive,
	}
}

type Service struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	PlatformID  string    `json:"platformId"`
	Price       float64   `json:"price"`
	IsActive    bool      `json:"isActive"`
	CreatedAt   Timestamp `json:"createdAt"`
	UpdatedAt   Timestamp `json:"updatedAt"`
}

type ServiceInput struct {
	Name        string  `json:"name" validate:"required"`
	Description string  `json:"description,omitempty"`
	PlatformID  string  `json:"platformId" validate:"required"`
	Price       float64 `json:"price" validate:"gte=0"`
	IsActive    bool    `json:"isActive"`
}

func (s Service) Input() ServiceInput {
	return ServiceInput{
		Name:        s.Name,
		Description: s.Description,
		PlatformID:  s.PlatformID,
		Price:       s.Price,
		IsActive:    s.IsActive,
	}
}

type ServiceType struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	ServiceID   string    `json:"serviceId,omitempty"`
	PlatformID  string    `json:"platformId,omitempty"`
	CreatedAt   Timestamp `json:"createdAt"`
	UpdatedAt   Timestamp `json:"updatedAt"`
}

type ServiceTypeInput struct {
	Name        string `json:"name" validate:"required"`
	Description string `json:"description,omitempty"`
	ServiceID   string `json:"serviceId,omitempty"`
	PlatformID  string `json:"platformId,omitempty"`
}

func (t ServiceType) Input() ServiceTypeInput {
	return ServiceTypeInput{
		Name:        t.Name,
		Description: t.Description,
		ServiceID:   t.ServiceID,
		PlatformID:  t.PlatformID,
	}
}

type Order struct {
	ID         string      `json:"id"`
	UserID     string      `json:"userId"`
	ServiceID  string      `json:"serviceId"`
	Quantity   int         `json:"quantity"`
	TotalPrice float64     `json:"totalPrice"`
	Status     OrderStatus `json:"status"`
	CreatedAt  Timestamp   `json:"createdAt"`
	UpdatedAt  Timestamp   `json:"updatedAt"`
}

type Payment struct {
	ID            string        `json:"id"`
	OrderID       string        `json:"orderId"`
	Amount        float64       `json:"amount"`
	Status        PaymentStatus `json:"status"`
	PaymentMethod string        `json:"paymentMethod"`
	CreatedAt     Timestamp     `json:"createdAt"`
	UpdatedAt     Timestamp     `json:"updatedAt"`
}

type SupportTicket struct {
	ID        string         `json:"id"`
	UserID    string         `json:"userId"`
	Subject   string         `json:"subject"`
	Message   string         `json:"message"`
	Status    TicketStatus   `json:"status"`
	Priority  TicketPriority `json:"priority"`
	CreatedAt Timestamp      `json:"createdAt"`
	UpdatedAt Timestamp      `json:"updatedAt"`
}

type Admin struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Role      AdminRole `json:"role"`
	IsActive  bool      `json:"isActive"`
	CreatedAt Timestamp `json:"createdAt"`
	UpdatedAt Timestamp `json:"updatedAt"`
}

// AdminInput carries an optional password, only sent on create or reset.
type AdminInput struct {
	Email    string    `json:"email" validate:"required,email"`
	Name     string    `json:"name" validate:"required"`
	Role     AdminRole `json:"role" validate:"required"`
	IsActive bool      `json:"isActive"`
	Password string    `json:"password,omitempty"`
}

func (a Admin) Input() AdminInput {
	return AdminInput{
		Email:    a.Email,
		Name:     a.Name,
		Role:     a.Role,
		IsActive: a.IsActive,
	}
}
