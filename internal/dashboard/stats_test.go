package dashboard

import (
	"context"
	"errors"
	"sync"
	"testing"

	"sbp-admin/internal/models"
)

type fakeSource struct {
	mu       sync.Mutex
	payments []models.Payment
	failAll  bool
	failTix  bool
	calls    []models.ListOptions
}

var errDown = errors.New("backend down")

func (f *fakeSource) GetOrders(_ context.Context, opts models.ListOptions) (*models.Envelope[models.OrderPage], error) {
	if f.failAll {
		return nil, errDown
	}
	return &models.Envelope[models.OrderPage]{Success: true, Data: &models.OrderPage{
		Orders:     []models.Order{{ID: "o1"}},
		Pagination: models.Pagination{Total: 45, Page: opts.Page, Limit: opts.Limit},
	}}, nil
}

func (f *fakeSource) GetPlatforms(context.Context) (*models.Envelope[[]models.Platform], error) {
	if f.failAll {
		return nil, errDown
	}
	list := []models.Platform{{ID: "1", IsActive: true}, {ID: "2"}, {ID: "3", IsActive: true}}
	return &models.Envelope[[]models.Platform]{Success: true, Data: &list}, nil
}

func (f *fakeSource) GetTickets(_ context.Context, opts models.ListOptions) (*models.Envelope[models.TicketPage], error) {
	if f.failAll {
		return nil, errDown
	}
	if f.failTix {
		return &models.Envelope[models.TicketPage]{Success: false, Message: "tickets disabled"}, nil
	}
	if opts.Status != string(models.TicketOpen) {
		return nil, errors.New("expected open filter")
	}
	return &models.Envelope[models.TicketPage]{Success: true, Data: &models.TicketPage{
		Pagination: models.Pagination{Total: 7, Page: 1, Limit: 1},
	}}, nil
}

func (f *fakeSource) GetPayments(_ context.Context, opts models.ListOptions) (*models.Envelope[models.PaymentPage], error) {
	if f.failAll {
		return nil, errDown
	}
	f.mu.Lock()
	f.calls = append(f.calls, opts)
	f.mu.Unlock()

	start := (opts.Page - 1) * opts.Limit
	end := start + opts.Limit
	if start > len(f.payments) {
		start = len(f.payments)
	}
	if end > len(f.payments) {
		end = len(f.payments)
	}
	return &models.Envelope[models.PaymentPage]{Success: true, Data: &models.PaymentPage{
		Payments:   f.payments[start:end],
		Pagination: models.Pagination{Total: len(f.payments), Page: opts.Page, Limit: opts.Limit},
	}}, nil
}

func TestLoad(t *testing.T) {
	src := &fakeSource{}
	for i := 0; i < 250; i++ {
		src.payments = append(src.payments, models.Payment{Amount: 2, Status: models.PaymentCompleted})
	}

	stats, err := Load(context.Background(), src)
	if err != nil {
		t.Fatal(err)
	}
	if stats.TotalOrders != 45 || stats.ActivePlatforms != 2 || stats.PendingTickets != 7 {
		t.Errorf("stats = %+v", stats)
	}
	if stats.TotalRevenue != 500 {
		t.Errorf("TotalRevenue = %v, want 500", stats.TotalRevenue)
	}
	if len(src.calls) != 3 {
		t.Errorf("payment pages fetched = %d, want 3", len(src.calls))
	}
	for _, c := range src.calls {
		if c.Status != "completed" || c.Limit != revenuePageSize {
			t.Errorf("payments called with %+v", c)
		}
	}
	if stats.Errors != nil {
		t.Errorf("Errors = %v", stats.Errors)
	}
}

func TestLoadPartialFailure(t *testing.T) {
	src := &fakeSource{failTix: true}
	stats, err := Load(context.Background(), src)
	if err != nil {
		t.Fatal(err)
	}
	if stats.PendingTickets != 0 || stats.TotalOrders != 45 {
		t.Errorf("stats = %+v", stats)
	}
	if stats.Errors["tickets"] != "tickets disabled" {
		t.Errorf("Errors = %v", stats.Errors)
	}
}

func TestLoadAllFail(t *testing.T) {
	_, err := Load(context.Background(), &fakeSource{failAll: true})
	if !errors.Is(err, errDown) {
		t.Fatalf("error = %v, want errDown", err)
	}
}

func TestRevenueNoPayments(t *testing.T) {
	sum, err := revenue(context.Background(), &fakeSource{})
	if err != nil || sum != 0 {
		t.Fatalf("revenue() = %v, %v", sum, err)
	}
}
