package mockapi

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"sbp-admin/internal/models"
)

var (
	errNotFound      = errors.New("resource not found")
	errDuplicate     = errors.New("duplicate resource")
	errBadReference  = errors.New("referenced resource does not exist")
	errInvalidCreds  = errors.New("invalid email or password")
	errInactiveAdmin = errors.New("admin account is disabled")
)

type adminRecord struct {
	models.Admin
	passwordHash []byte
}

type TicketReplyRecord struct {
	AdminID   string    `json:"adminId"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"createdAt"`
}

// Store is the backend's in-memory database.
type Store struct {
	mu  sync.RWMutex
	now func() time.Time

	platforms    map[string]models.Platform
	services     map[string]models.Service
	serviceTypes map[string]models.ServiceType
	orders       map[string]models.Order
	payments     map[string]models.Payment
	tickets      map[string]models.SupportTicket
	replies      map[string][]TicketReplyRecord
	admins       map[string]*adminRecord
	revoked      map[string]time.Time
}

func NewStore() *Store {
	return &Store{
		now:          func() time.Time { return time.Now().UTC() },
		platforms:    map[string]models.Platform{},
		services:     map[string]models.Service{},
		serviceTypes: map[string]models.ServiceType{},
		orders:       map[string]models.Order{},
		payments:     map[string]models.Payment{},
		tickets:      map[string]models.SupportTicket{},
		replies:      map[string][]TicketReplyRecord{},
		admins:       map[string]*adminRecord{},
		revoked:      map[string]time.Time{},
	}
}

func sorted[T any](m map[string]T, created func(T) time.Time, id func(T) string) []T {
	out := make([]T, 0, len(m))
	for _, v := range m {
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool {
		ci, cj := created(out[i]), created(out[j])
		if !ci.Equal(cj) {
			return ci.After(cj)
		}
		return id(out[i]) < id(out[j])
	})
	return out
}

// Platforms

func (s *Store) ListPlatforms() []models.Platform {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return sorted(s.platforms,
		func(p models.Platform) time.Time { return p.CreatedAt.Time },
		func(p models.Platform) string { return p.ID })
}

func (s *Store) CreatePlatform(in models.PlatformInput) models.Platform {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	p := models.Platform{
		ID:          uuid.NewString(),
		Name:        in.Name,
		Description: in.Description,
		Icon:        in.Icon,
		IsActive:    in.IsActive,
		CreatedAt:   models.At(now),
		UpdatedAt:   models.At(now),
	}
	s.platforms[p.ID] = p
	return p
}

func (s *Store) UpdatePlatform(id string, in models.PlatformInput) (models.Platform, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.platforms[id]
	if !ok {
		return models.Platform{}, errNotFound
	}
	p.Name, p.Description, p.Icon, p.IsActive = in.Name, in.Description, in.Icon, in.IsActive
	p.UpdatedAt = models.At(s.now())
	s.platforms[id] = p
	return p, nil
}

func (s *Store) DeletePlatform(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.platforms[id]; !ok {
		return errNotFound
	}
	delete(s.platforms, id)
	return nil
}

// Services

func (s *Store) ListServices() []models.Service {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return sorted(s.services,
		func(v models.Service) time.Time { return v.CreatedAt.Time },
		func(v models.Service) string { return v.ID })
}

func (s *Store) CreateService(in models.ServiceInput) (models.Service, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.platforms[in.PlatformID]; !ok {
		return models.Service{}, errBadReference
	}
	now := s.now()
	v := models.Service{
		ID:          uuid.NewString(),
		Name:        in.Name,
		Description: in.Description,
		PlatformID:  in.PlatformID,
		Price:       in.Price,
		IsActive:    in.IsActive,
		CreatedAt:   models.At(now),
		UpdatedAt:   models.At(now),
	}
	s.services[v.ID] = v
	return v, nil
}

func (s *Store) UpdateService(id string, in models.ServiceInput) (models.Service, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.services[id]
	if !ok {
		return models.Service{}, errNotFound
	}
	if _, ok := s.platforms[in.PlatformID]; !ok {
		return models.Service{}, errBadReference
	}
	v.Name, v.Description, v.PlatformID, v.Price, v.IsActive = in.Name, in.Description, in.PlatformID, in.Price, in.IsActive
	v.UpdatedAt = models.At(s.now())
	s.services[id] = v
	return v, nil
}

func (s *Store) DeleteService(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.services[id]; !ok {
		return errNotFound
	}
	delete(s.services, id)
	return nil
}

// Service types

func (s *Store) ListServiceTypes() []models.ServiceType {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return sorted(s.serviceTypes,
		func(v models.ServiceType) time.Time { return v.CreatedAt.Time },
		func(v models.ServiceType) string { return v.ID })
}

func (s *Store) checkServiceTypeRefs(in models.ServiceTypeInput) error {
	if in.ServiceID != "" {
		if _, ok := s.services[in.ServiceID]; !ok {
			return errBadReference
		}
	}
	if in.PlatformID != "" {
		if _, ok := s.platforms[in.PlatformID]; !ok {
			return errBadReference
		}
	}
	return nil
}

func (s *Store) CreateServiceType(in models.ServiceTypeInput) (models.ServiceType, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkServiceTypeRefs(in); err != nil {
		return models.ServiceType{}, err
	}
	now := s.now()
	v := models.ServiceType{
		ID:          uuid.NewString(),
		Name:        in.Name,
		Description: in.Description,
		ServiceID:   in.ServiceID,
		PlatformID:  in.PlatformID,
		CreatedAt:   models.At(now),
		UpdatedAt:   models.At(now),
	}
	s.serviceTypes[v.ID] = v
	return v, nil
}

func (s *Store) UpdateServiceType(id string, in models.ServiceTypeInput) (models.ServiceType, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.serviceTypes[id]
	if !ok {
		return models.ServiceType{}, errNotFound
	}
	if err := s.checkServiceTypeRefs(in); err != nil {
		return models.ServiceType{}, err
	}
	v.Name, v.Description, v.ServiceID, v.PlatformID = in.Name, in.Description, in.ServiceID, in.PlatformID
	v.UpdatedAt = models.At(s.now())
	s.serviceTypes[id] = v
	return v, nil
}

func (s *Store) DeleteServiceType(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.serviceTypes[id]; !ok {
		return errNotFound
	}
	delete(s.serviceTypes, id)
	return nil
}

// Orders and payments

func (s *Store) ListOrders(status string) []models.Order {
	s.mu.RLock()
	defer s.mu.RUnlock()
	all := sorted(s.orders,
		func(o models.Order) time.Time { return o.CreatedAt.Time },
		func(o models.Order) string { return o.ID })
	return filter(all, func(o models.Order) bool { return status == "" || string(o.Status) == status })
}

func (s *Store) UpdateOrderStatus(id string, status models.OrderStatus) (models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[id]
	if !ok {
		return models.Order{}, errNotFound
	}
	o.Status = status
	o.UpdatedAt = models.At(s.now())
	s.orders[id] = o
	return o, nil
}

func (s *Store) ListPayments(status string) []models.Payment {
	s.mu.RLock()
	defer s.mu.RUnlock()
	all := sorted(s.payments,
		func(p models.Payment) time.Time { return p.CreatedAt.Time },
		func(p models.Payment) string { return p.ID })
	return filter(all, func(p models.Payment) bool { return status == "" || string(p.Status) == status })
}

func (s *Store) GetPayment(id string) (models.Payment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.payments[id]
	if !ok {
		return models.Payment{}, errNotFound
	}
	return p, nil
}

// Tickets

func (s *Store) ListTickets(status, priority string) []models.SupportTicket {
	s.mu.RLock()
	defer s.mu.RUnlock()
	all := sorted(s.tickets,
		func(t models.SupportTicket) time.Time { return t.CreatedAt.Time },
		func(t models.SupportTicket) string { return t.ID })
	return filter(all, func(t models.SupportTicket) bool {
		return (status == "" || string(t.Status) == status) &&
			(priority == "" || string(t.Priority) == priority)
	})
}

func (s *Store) UpdateTicketStatus(id string, status models.TicketStatus) (models.SupportTicket, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tickets[id]
	if !ok {
		return models.SupportTicket{}, errNotFound
	}
	t.Status = status
	t.UpdatedAt = models.At(s.now())
	s.tickets[id] = t
	return t, nil
}

// ReplyToTicket records the reply; an open ticket moves to in_progress.
func (s *Store) ReplyToTicket(id, adminID, message string) (models.SupportTicket, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tickets[id]
	if !ok {
		return models.SupportTicket{}, errNotFound
	}
	now := s.now()
	s.replies[id] = append(s.replies[id], TicketReplyRecord{AdminID: adminID, Message: message, CreatedAt: now})
	if t.Status == models.TicketOpen {
		t.Status = models.TicketInProgress
	}
	t.UpdatedAt = models.At(now)
	s.tickets[id] = t
	return t, nil
}

func (s *Store) Replies(id string) []TicketReplyRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]TicketReplyRecord(nil), s.replies[id]...)
}

// Admins

func (s *Store) ListAdmins() []models.Admin {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Admin, 0, len(s.admins))
	for _, a := range s.admins {
		out = append(out, a.Admin)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Email < out[j].Email })
	return out
}

func (s *Store) CreateAdmin(in models.AdminInput) (models.Admin, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return models.Admin{}, fmt.Errorf("hash password: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.adminByEmail(in.Email) != nil {
		return models.Admin{}, errDuplicate
	}
	now := s.now()
	rec := &adminRecord{
		Admin: models.Admin{
			ID:        uuid.NewString(),
			Email:     strings.ToLower(in.Email),
			Name:      in.Name,
			Role:      in.Role,
			IsActive:  in.IsActive,
			CreatedAt: models.At(now),
			UpdatedAt: models.At(now),
		},
		passwordHash: hash,
	}
	s.admins[rec.ID] = rec
	return rec.Admin, nil
}

func (s *Store) UpdateAdmin(id string, in models.AdminInput) (models.Admin, error) {
	var hash []byte
	if in.Password != "" {
		h, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
		if err != nil {
			return models.Admin{}, fmt.Errorf("hash password: %w", err)
		}
		hash = h
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.admins[id]
	if !ok {
		return models.Admin{}, errNotFound
	}
	if other := s.adminByEmail(in.Email); other != nil && other.ID != id {
		return models.Admin{}, errDuplicate
	}
	rec.Email = strings.ToLower(in.Email)
	rec.Name = in.Name
	rec.Role = in.Role
	rec.IsActive = in.IsActive
	rec.UpdatedAt = models.At(s.now())
	if hash != nil {
		rec.passwordHash = hash
	}
	return rec.Admin, nil
}

func (s *Store) DeleteAdmin(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.admins[id]; !ok {
		return errNotFound
	}
	delete(s.admins, id)
	return nil
}

func (s *Store) adminByEmail(email string) *adminRecord {
	email = strings.ToLower(email)
	for _, a := range s.admins {
		if a.Email == email {
			return a
		}
	}
	return nil
}

// Authenticate checks credentials and returns the admin on success.
func (s *Store) Authenticate(email, password string) (models.Admin, error) {
	s.mu.RLock()
	rec := s.adminByEmail(email)
	var (
		admin models.Admin
		hash  []byte
	)
	if rec != nil {
		admin, hash = rec.Admin, rec.passwordHash
	}
	s.mu.RUnlock()

	if rec == nil {
		return models.Admin{}, errInvalidCreds
	}
	if err := bcrypt.CompareHashAndPassword(hash, []byte(password)); err != nil {
		return models.Admin{}, errInvalidCreds
	}
	if !admin.IsActive {
		return models.Admin{}, errInactiveAdmin
	}
	return admin, nil
}

func (s *Store) AdminExists(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.admins[id]
	return ok
}

// Revoke marks a token id unusable until expiresAt.
func (s *Store) Revoke(jti string, expiresAt time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	for id, exp := range s.revoked {
		if exp.Before(now) {
			delete(s.revoked, id)
		}
	}
	s.revoked[jti] = expiresAt
}

func (s *Store) IsRevoked(jti string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.revoked[jti]
	return ok
}

func filter[T any](in []T, keep func(T) bool) []T {
	out := in[:0:0]
	for _, v := range in {
		if keep(v) {
			out = append(out, v)
		}
	}
	return out
}

// paginate returns the requested window of items. Pages past the end are
// empty; the bound is checked before multiplying so huge pages cannot overflow.
func paginate[T any](items []T, page, limit int) []T {
	if page < 1 || limit < 1 {
		return []T{}
	}
	pages := len(items) / limit
	if len(items)%limit != 0 {
		pages++
	}
	if page > pages {
		return []T{}
	}
	start := (page - 1) * limit
	end := start + limit
	if end > len(items) {
		end = len(items)
	}
	return items[start:end]
}
