package mockapi

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"sbp-admin/internal/models"
)

// Seed creates the bootstrap super admin plus a small catalogue and order
// history so every listing has something to show.
func Seed(s *Store, adminEmail, adminPassword string) (models.Admin, error) {
	admin, err := s.CreateAdmin(models.AdminInput{
		Email:    adminEmail,
		Name:     "Super Admin",
		Role:     models.RoleSuperAdmin,
		IsActive: true,
		Password: adminPassword,
	})
	if err != nil {
		return models.Admin{}, fmt.Errorf("seed admin: %w", err)
	}

	ig := s.CreatePlatform(models.PlatformInput{Name: "Instagram", Description: "Followers, likes and views", Icon: "instagram", IsActive: true})
	tt := s.CreatePlatform(models.PlatformInput{Name: "TikTok", Icon: "tiktok", IsActive: true})
	s.CreatePlatform(models.PlatformInput{Name: "YouTube", Icon: "youtube", IsActive: false})

	followers, err := s.CreateService(models.ServiceInput{Name: "Instagram Followers", PlatformID: ig.ID, Price: 4.99, IsActive: true})
	if err != nil {
		return models.Admin{}, err
	}
	views, err := s.CreateService(models.ServiceInput{Name: "TikTok Views", PlatformID: tt.ID, Price: 1.49, IsActive: true})
	if err != nil {
		return models.Admin{}, err
	}
	if _, err := s.CreateServiceType(models.ServiceTypeInput{Name: "Real followers", ServiceID: followers.ID, PlatformID: ig.ID}); err != nil {
		return models.Admin{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	base := s.now().Add(-72 * time.Hour)
	orderStatuses := []models.OrderStatus{models.OrderCompleted, models.OrderPending, models.OrderProcessing, models.OrderCancelled}
	for i := 0; i < 24; i++ {
		svc := followers
		if i%2 == 1 {
			svc = views
		}
		qty := 100 * (i%5 + 1)
		at := base.Add(time.Duration(i) * time.Hour)
		o := models.Order{
			ID:         uuid.NewString(),
			UserID:     fmt.Sprintf("user-%d", i%6+1),
			ServiceID:  svc.ID,
			Quantity:   qty,
			TotalPrice: float64(qty) / 100 * svc.Price,
			Status:     orderStatuses[i%len(orderStatuses)],
			CreatedAt:  models.At(at),
			UpdatedAt:  models.At(at),
		}
		s.orders[o.ID] = o

		payStatus := models.PaymentPending
		switch o.Status {
		case models.OrderCompleted, models.OrderProcessing:
			payStatus = models.PaymentCompleted
		case models.OrderCancelled:
			payStatus = models.PaymentFailed
		}
		p := models.Payment{
			ID:            uuid.NewString(),
			OrderID:       o.ID,
			Amount:        o.TotalPrice,
			Status:        payStatus,
			PaymentMethod: []string{"card", "paypal", "crypto"}[i%3],
			CreatedAt:     models.At(at),
			UpdatedAt:     models.At(at),
		}
		s.payments[p.ID] = p
	}

	ticketStatuses := []models.TicketStatus{models.TicketOpen, models.TicketInProgress, models.TicketResolved, models.TicketClosed, models.TicketOpen}
	priorities := []models.TicketPriority{models.PriorityHigh, models.PriorityMedium, models.PriorityLow}
	for i := 0; i < 10; i++ {
		at := base.Add(time.Duration(i) * 2 * time.Hour)
		t := models.SupportTicket{
			ID:        uuid.NewString(),
			UserID:    fmt.Sprintf("user-%d", i%6+1),
			Subject:   fmt.Sprintf("Order issue #%d", i+1),
			Message:   "My order has not been delivered yet.",
			Status:    ticketStatuses[i%len(ticketStatuses)],
			Priority:  priorities[i%len(priorities)],
			CreatedAt: models.At(at),
			UpdatedAt: models.At(at),
		}
		s.tickets[t.ID] = t
	}

	return admin, nil
}
