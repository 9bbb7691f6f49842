// Package mockapi is an in-memory stand-in for the boosting platform's admin
// REST API, used for local development and end-to-end tests of the client.
package mockapi

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"sbp-admin/internal/auth"
	"sbp-admin/internal/models"
	"sbp-admin/internal/telemetry"
)

const maxLimit = 100

// RateLimiter is satisfied by cache.Client.
type RateLimiter interface {
	IsRateLimited(ctx context.Context, key string, limit int, window time.Duration) bool
}

type Options struct {
	JWTSecret string
	TokenTTL  time.Duration
	Limiter   RateLimiter
	RateLimit int
}

type Handler struct {
	store     *Store
	issuer    *auth.Issuer
	auth      *auth.Middleware
	validate  *validator.Validate
	limiter   RateLimiter
	rateLimit int
}

func NewHandler(store *Store, opts Options) *Handler {
	if opts.TokenTTL <= 0 {
		opts.TokenTTL = 24 * time.Hour
	}
	return &Handler{
		store:     store,
		issuer:    auth.NewIssuer(opts.JWTSecret, opts.TokenTTL),
		auth:      auth.NewMiddleware(opts.JWTSecret, store, writeUnauthorized),
		validate:  validator.New(validator.WithRequiredStructEnabled()),
		limiter:   opts.Limiter,
		rateLimit: opts.RateLimit,
	}
}

// Register mounts every backend route on mux.
func (h *Handler) Register(mux *http.ServeMux) {
	h.public(mux, "POST /auth/login", h.Login)
	h.protected(mux, "POST /auth/logout", h.Logout)

	h.protected(mux, "GET /platforms", h.ListPlatforms)
	h.protected(mux, "POST /platforms", h.CreatePlatform)
	h.protected(mux, "PUT /platforms/{id}", h.UpdatePlatform)
	h.protected(mux, "DELETE /platforms/{id}", h.DeletePlatform)

	h.protected(mux, "GET /services", h.ListServices)
	h.protected(mux, "POST /services", h.CreateService)
	h.protected(mux, "PUT /services/{id}", h.UpdateService)
	h.protected(mux, "DELETE /services/{id}", h.DeleteService)

	h.protected(mux, "GET /service-types", h.ListServiceTypes)
	h.protected(mux, "POST /service-types", h.CreateServiceType)
	h.protected(mux, "PUT /service-types/{id}", h.UpdateServiceType)
	h.protected(mux, "DELETE /service-types/{id}", h.DeleteServiceType)

	h.protected(mux, "GET /orders", h.ListOrders)
	h.protected(mux, "PUT /orders/{id}/status", h.UpdateOrderStatus)

	h.protected(mux, "GET /payments", h.ListPayments)
	h.protected(mux, "GET /payments/{id}", h.GetPayment)

	h.protected(mux, "GET /tickets", h.ListTickets)
	h.protected(mux, "PUT /tickets/{id}/status", h.UpdateTicketStatus)
	h.protected(mux, "POST /tickets/{id}/reply", h.ReplyToTicket)

	h.protected(mux, "GET /admins", h.ListAdmins)
	h.protected(mux, "POST /admins", h.CreateAdmin)
	h.protected(mux, "PUT /admins/{id}", h.UpdateAdmin)
	h.protected(mux, "DELETE /admins/{id}", h.DeleteAdmin)
}

func routeOf(pattern string) string {
	if _, route, ok := strings.Cut(pattern, " "); ok {
		return route
	}
	return pattern
}

func (h *Handler) public(mux *http.ServeMux, pattern string, fn http.HandlerFunc) {
	mux.HandleFunc(pattern, telemetry.Middleware(routeOf(pattern), fn))
}

func (h *Handler) protected(mux *http.ServeMux, pattern string, fn http.HandlerFunc) {
	h.public(mux, pattern, h.auth.ValidateToken(h.requireAdmin(fn)))
}

// requireAdmin rejects tokens whose admin has since been deleted.
func (h *Handler) requireAdmin(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !h.store.AdminExists(auth.AdminID(r.Context())) {
			writeUnauthorized(w, "Admin no longer exists")
			return
		}
		next(w, r)
	}
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func (h *Handler) valid(w http.ResponseWriter, v interface{}) bool {
	if err := h.validate.Struct(v); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			writeError(w, http.StatusBadRequest, "validation_failed",
				fmt.Sprintf("field %s failed %s validation", fe.Field(), fe.Tag()))
			return false
		}
		writeError(w, http.StatusBadRequest, "validation_failed", err.Error())
		return false
	}
	return true
}

func writeStoreError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, errNotFound):
		writeError(w, http.StatusNotFound, "not_found", "Resource not found")
	case errors.Is(err, errDuplicate):
		writeError(w, http.StatusConflict, "conflict", "Resource already exists")
	case errors.Is(err, errBadReference):
		writeError(w, http.StatusBadRequest, "bad_reference", err.Error())
	default:
		slog.Error("Store error", "error", err)
		writeError(w, http.StatusInternalServerError, "internal", "Internal Server Error")
	}
}

func listOptions(r *http.Request) models.ListOptions {
	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	limit, _ := strconv.Atoi(q.Get("limit"))
	opts := models.ListOptions{
		Page:     page,
		Limit:    limit,
		Status:   q.Get("status"),
		Priority: q.Get("priority"),
	}.Normalize()
	if opts.Limit > maxLimit {
		opts.Limit = maxLimit
	}
	return opts
}

// Auth

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if !decodeJSON(w, r, &req) || !h.valid(w, req) {
		return
	}

	if h.limiter != nil && h.rateLimit > 0 {
		key := "login:" + clientIP(r)
		if h.limiter.IsRateLimited(r.Context(), key, h.rateLimit, time.Minute) {
			slog.Warn("Rate limit exceeded", "ip", clientIP(r))
			writeError(w, http.StatusTooManyRequests, "rate_limited", "Too many login attempts")
			return
		}
	}

	admin, err := h.store.Authenticate(req.Email, req.Password)
	switch {
	case errors.Is(err, errInvalidCreds):
		writeError(w, http.StatusUnauthorized, "invalid_credentials", "Invalid email or password")
		return
	case errors.Is(err, errInactiveAdmin):
		writeError(w, http.StatusForbidden, "inactive", "Admin account is disabled")
		return
	case err != nil:
		writeStoreError(w, err)
		return
	}

	token, _, err := h.issuer.Issue(admin.ID, string(admin.Role))
	if err != nil {
		slog.Error("Failed to issue token", "admin_id", admin.ID, "error", err)
		writeError(w, http.StatusInternalServerError, "internal", "Internal Server Error")
		return
	}

	slog.Info("Admin logged in", "admin_id", admin.ID)
	writeData(w, http.StatusOK, models.LoginData{Token: token, Admin: admin})
}

func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	if claims := auth.ClaimsFrom(r.Context()); claims != nil {
		exp := time.Now().Add(24 * time.Hour)
		if claims.ExpiresAt != nil {
			exp = claims.ExpiresAt.Time
		}
		h.store.Revoke(claims.ID, exp)
	}
	writeMessage(w, http.StatusOK, "Logged out")
}

// Platforms

func (h *Handler) ListPlatforms(w http.ResponseWriter, r *http.Request) {
	writeData(w, http.StatusOK, h.store.ListPlatforms())
}

func (h *Handler) CreatePlatform(w http.ResponseWriter, r *http.Request) {
	var in models.PlatformInput
	if !decodeJSON(w, r, &in) || !h.valid(w, in) {
		return
	}
	writeData(w, http.StatusCreated, h.store.CreatePlatform(in))
}

func (h *Handler) UpdatePlatform(w http.ResponseWriter, r *http.Request) {
	var in models.PlatformInput
	if !decodeJSON(w, r, &in) || !h.valid(w, in) {
		return
	}
	p, err := h.store.UpdatePlatform(r.PathValue("id"), in)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeData(w, http.StatusOK, p)
}

func (h *Handler) DeletePlatform(w http.ResponseWriter, r *http.Request) {
	if err := h.store.DeletePlatform(r.PathValue("id")); err != nil {
		writeStoreError(w, err)
		return
	}
	writeMessage(w, http.StatusOK, "Platform deleted")
}

// Services

func (h *Handler) ListServices(w http.ResponseWriter, r *http.Request) {
	writeData(w, http.StatusOK, h.store.ListServices())
}

func (h *Handler) CreateService(w http.ResponseWriter, r *http.Request) {
	var in models.ServiceInput
	if !decodeJSON(w, r, &in) || !h.valid(w, in) {
		return
	}
	v, err := h.store.CreateService(in)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeData(w, http.StatusCreated, v)
}

func (h *Handler) UpdateService(w http.ResponseWriter, r *http.Request) {
	var in models.ServiceInput
	if !decodeJSON(w, r, &in) || !h.valid(w, in) {
		return
	}
	v, err := h.store.UpdateService(r.PathValue("id"), in)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeData(w, http.StatusOK, v)
}

func (h *Handler) DeleteService(w http.ResponseWriter, r *http.Request) {
	if err := h.store.DeleteService(r.PathValue("id")); err != nil {
		writeStoreError(w, err)
		return
	}
	writeMessage(w, http.StatusOK, "Service deleted")
}

// Service types

func (h *Handler) ListServiceTypes(w http.ResponseWriter, r *http.Request) {
	writeData(w, http.StatusOK, h.store.ListServiceTypes())
}

func (h *Handler) CreateServiceType(w http.ResponseWriter, r *http.Request) {
	var in models.ServiceTypeInput
	if !decodeJSON(w, r, &in) || !h.valid(w, in) {
		return
	}
	v, err := h.store.CreateServiceType(in)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeData(w, http.StatusCreated, v)
}

func (h *Handler) UpdateServiceType(w http.ResponseWriter, r *http.Request) {
	var in models.ServiceTypeInput
	if !decodeJSON(w, r, &in) || !h.valid(w, in) {
		return
	}
	v, err := h.store.UpdateServiceType(r.PathValue("id"), in)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeData(w, http.StatusOK, v)
}

func (h *Handler) DeleteServiceType(w http.ResponseWriter, r *http.Request) {
	if err := h.store.DeleteServiceType(r.PathValue("id")); err != nil {
		writeStoreError(w, err)
		return
	}
	writeMessage(w, http.StatusOK, "Service type deleted")
}

// Orders

func (h *Handler) ListOrders(w http.ResponseWriter, r *http.Request) {
	opts := listOptions(r)
	all := h.store.ListOrders(opts.Status)
	writeData(w, http.StatusOK, models.OrderPage{
		Orders:     paginate(all, opts.Page, opts.Limit),
		Pagination: models.Pagination{Total: len(all), Page: opts.Page, Limit: opts.Limit},
	})
}

func (h *Handler) UpdateOrderStatus(w http.ResponseWriter, r *http.Request) {
	var in models.StatusUpdate[models.OrderStatus]
	if !decodeJSON(w, r, &in) {
		return
	}
	if !in.Status.Valid() {
		writeError(w, http.StatusBadRequest, "validation_failed", fmt.Sprintf("invalid order status %q", in.Status))
		return
	}
	o, err := h.store.UpdateOrderStatus(r.PathValue("id"), in.Status)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeData(w, http.StatusOK, o)
}

// Payments

func (h *Handler) ListPayments(w http.ResponseWriter, r *http.Request) {
	opts := listOptions(r)
	all := h.store.ListPayments(opts.Status)
	writeData(w, http.StatusOK, models.PaymentPage{
		Payments:   paginate(all, opts.Page, opts.Limit),
		Pagination: models.Pagination{Total: len(all), Page: opts.Page, Limit: opts.Limit},
	})
}

func (h *Handler) GetPayment(w http.ResponseWriter, r *http.Request) {
	p, err := h.store.GetPayment(r.PathValue("id"))
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeData(w, http.StatusOK, p)
}

// Tickets

func (h *Handler) ListTickets(w http.ResponseWriter, r *http.Request) {
	opts := listOptions(r)
	all := h.store.ListTickets(opts.Status, opts.Priority)
	writeData(w, http.StatusOK, models.TicketPage{
		Tickets:    paginate(all, opts.Page, opts.Limit),
		Pagination: models.Pagination{Total: len(all), Page: opts.Page, Limit: opts.Limit},
	})
}

func (h *Handler) UpdateTicketStatus(w http.ResponseWriter, r *http.Request) {
	var in models.StatusUpdate[models.TicketStatus]
	if !decodeJSON(w, r, &in) {
		return
	}
	if !in.Status.Valid() {
		writeError(w, http.StatusBadRequest, "validation_failed", fmt.Sprintf("invalid ticket status %q", in.Status))
		return
	}
	t, err := h.store.UpdateTicketStatus(r.PathValue("id"), in.Status)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeData(w, http.StatusOK, t)
}

func (h *Handler) ReplyToTicket(w http.ResponseWriter, r *http.Request) {
	var in models.TicketReply
	if !decodeJSON(w, r, &in) || !h.valid(w, in) {
		return
	}
	if strings.TrimSpace(in.Message) == "" {
		writeError(w, http.StatusBadRequest, "validation_failed", "message must not be blank")
		return
	}
	t, err := h.store.ReplyToTicket(r.PathValue("id"), auth.AdminID(r.Context()), in.Message)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeData(w, http.StatusOK, t)
}

// Admins

func (h *Handler) ListAdmins(w http.ResponseWriter, r *http.Request) {
	writeData(w, http.StatusOK, h.store.ListAdmins())
}

func (h *Handler) validAdmin(w http.ResponseWriter, in models.AdminInput, create bool) bool {
	if !h.valid(w, in) {
		return false
	}
	if !in.Role.Valid() {
		writeError(w, http.StatusBadRequest, "validation_failed", fmt.Sprintf("invalid role %q", in.Role))
		return false
	}
	if (create || in.Password != "") && len(in.Password) < 8 {
		writeError(w, http.StatusBadRequest, "validation_failed", "password must be at least 8 characters")
		return false
	}
	return true
}

func (h *Handler) CreateAdmin(w http.ResponseWriter, r *http.Request) {
	var in models.AdminInput
	if !decodeJSON(w, r, &in) || !h.validAdmin(w, in, true) {
		return
	}
	a, err := h.store.CreateAdmin(in)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeData(w, http.StatusCreated, a)
}

func (h *Handler) UpdateAdmin(w http.ResponseWriter, r *http.Request) {
	var in models.AdminInput
	if !decodeJSON(w, r, &in) || !h.validAdmin(w, in, false) {
		return
	}
	a, err := h.store.UpdateAdmin(r.PathValue("id"), in)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeData(w, http.StatusOK, a)
}

func (h *Handler) DeleteAdmin(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == auth.AdminID(r.Context()) {
		writeError(w, http.StatusBadRequest, "self_delete", "Admins cannot delete themselves")
		return
	}
	if err := h.store.DeleteAdmin(id); err != nil {
		writeStoreError(w, err)
		return
	}
	writeMessage(w, http.StatusOK, "Admin deleted")
}
