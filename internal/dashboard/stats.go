// Package dashboard aggregates the headline figures shown on the admin home page.
package dashboard

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"sbp-admin/internal/models"
)

// revenuePageSize is the page size used when walking completed payments.
const revenuePageSize = 100

type Source interface {
	GetOrders(ctx context.Context, opts models.ListOptions) (*models.Envelope[models.OrderPage], error)
	GetPlatforms(ctx context.Context) (*models.Envelope[[]models.Platform], error)
	GetTickets(ctx context.Context, opts models.ListOptions) (*models.Envelope[models.TicketPage], error)
	GetPayments(ctx context.Context, opts models.ListOptions) (*models.Envelope[models.PaymentPage], error)
}

type Stats struct {
	TotalOrders     int               `json:"totalOrders"`
	TotalRevenue    float64           `json:"totalRevenue"`
	ActivePlatforms int               `json:"activePlatforms"`
	PendingTickets  int               `json:"pendingTickets"`
	Errors          map[string]string `json:"errors,omitempty"`
}

// Load fetches every figure concurrently. A failing source is logged and listed
// in Stats.Errors; Load only fails when every source failed.
func Load(ctx context.Context, src Source) (*Stats, error) {
	var (
		wg    sync.WaitGroup
		mu    sync.Mutex
		stats = &Stats{}
		errs  = map[string]error{}
	)

	fail := func(source string, err error) {
		slog.Error("Dashboard source failed", "source", source, "error", err)
		mu.Lock()
		errs[source] = err
		mu.Unlock()
	}

	wg.Add(4)

	go func() {
		defer wg.Done()
		n, err := totalOrders(ctx, src)
		if err != nil {
			fail("orders", err)
			return
		}
		stats.TotalOrders = n
	}()

	go func() {
		defer wg.Done()
		n, err := activePlatforms(ctx, src)
		if err != nil {
			fail("platforms", err)
			return
		}
		stats.ActivePlatforms = n
	}()

	go func() {
		defer wg.Done()
		n, err := pendingTickets(ctx, src)
		if err != nil {
			fail("tickets", err)
			return
		}
		stats.PendingTickets = n
	}()

	go func() {
		defer wg.Done()
		sum, err := revenue(ctx, src)
		if err != nil {
			fail("payments", err)
			return
		}
		stats.TotalRevenue = sum
	}()

	wg.Wait()

	if len(errs) == 4 {
		return nil, errors.Join(errs["orders"], errs["platforms"], errs["tickets"], errs["payments"])
	}
	if len(errs) > 0 {
		stats.Errors = make(map[string]string, len(errs))
		for source, err := range errs {
			stats.Errors[source] = err.Error()
		}
	}
	return stats, nil
}

func rejected[T any](env *models.Envelope[T]) error {
	if env.Success {
		return nil
	}
	if reason := env.Reason(); reason != "" {
		return errors.New(reason)
	}
	return errors.New("request rejected")
}

func totalOrders(ctx context.Context, src Source) (int, error) {
	env, err := src.GetOrders(ctx, models.ListOptions{Page: 1, Limit: 1})
	if err != nil {
		return 0, err
	}
	if err := rejected(env); err != nil {
		return 0, err
	}
	if env.Data == nil {
		return 0, nil
	}
	return env.Data.Total, nil
}

func activePlatforms(ctx context.Context, src Source) (int, error) {
	env, err := src.GetPlatforms(ctx)
	if err != nil {
		return 0, err
	}
	if err := rejected(env); err != nil {
		return 0, err
	}
	if env.Data == nil {
		return 0, nil
	}
	n := 0
	for _, p := range *env.Data {
		if p.IsActive {
			n++
		}
	}
	return n, nil
}

func pendingTickets(ctx context.Context, src Source) (int, error) {
	env, err := src.GetTickets(ctx, models.ListOptions{Page: 1, Limit: 1, Status: string(models.TicketOpen)})
	if err != nil {
		return 0, err
	}
	if err := rejected(env); err != nil {
		return 0, err
	}
	if env.Data == nil {
		return 0, nil
	}
	return env.Data.Total, nil
}

// revenue sums completed payments page by page.
func revenue(ctx context.Context, src Source) (float64, error) {
	var sum float64
	for page := 1; ; page++ {
		env, err := src.GetPayments(ctx, models.ListOptions{
			Page:   page,
			Limit:  revenuePageSize,
			Status: string(models.PaymentCompleted),
		})
		if err != nil {
			return 0, fmt.Errorf("payments page %d: %w", page, err)
		}
		if err := rejected(env); err != nil {
			return 0, err
		}
		if env.Data == nil {
			return sum, nil
		}
		for _, p := range env.Data.Payments {
			if p.Status == models.PaymentCompleted {
				sum += p.Amount
			}
		}
		if len(env.Data.Payments) == 0 || page >= env.Data.TotalPages() {
			return sum, nil
		}
	}
}
