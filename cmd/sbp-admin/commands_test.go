package main

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"sbp-admin/internal/apiclient"
	"sbp-admin/internal/authstore"
	"sbp-admin/internal/mockapi"
	"sbp-admin/internal/models"
	"sbp-admin/internal/tokenstore"
)

const (
	adminEmail    = "cli@sbp.local"
	adminPassword = "cli-password"
)

type harness struct {
	url       string
	tokenFile string
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	store := mockapi.NewStore()
	if _, err := mockapi.Seed(store, adminEmail, adminPassword); err != nil {
		t.Fatal(err)
	}
	mux := http.NewServeMux()
	mockapi.NewHandler(store, mockapi.Options{JWTSecret: "cli-test", TokenTTL: time.Hour}).Register(mux)
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return &harness{url: srv.URL, tokenFile: filepath.Join(t.TempDir(), "token")}
}

// exec runs one invocation with a fresh client, as separate processes would.
func (h *harness) exec(t *testing.T, args ...string) (string, error) {
	t.Helper()
	client := apiclient.New(h.url, tokenstore.NewFileStore(h.tokenFile))
	var out bytes.Buffer
	a := &app{
		client: client,
		auth:   authstore.New(client),
		out:    &out,
		errOut: io.Discard,
		now:    time.Now,
	}
	err := a.run(context.Background(), args)
	return out.String(), err
}

func (h *harness) mustExec(t *testing.T, args ...string) string {
	t.Helper()
	out, err := h.exec(t, args...)
	if err != nil {
		t.Fatalf("%v: %v", args, err)
	}
	return out
}

func TestCommandsRequireLogin(t *testing.T) {
	h := newHarness(t)
	for _, args := range [][]string{{"platforms", "list"}, {"stats"}, {"whoami"}, {"logout"}} {
		if _, err := h.exec(t, args...); !errors.Is(err, errNotLoggedIn) {
			t.Errorf("%v: error = %v, want not logged in", args, err)
		}
	}
}

func TestLoginPersistsAcrossInvocations(t *testing.T) {
	h := newHarness(t)

	if _, err := h.exec(t, "login", "-email", adminEmail, "-password", "nope"); err == nil {
		t.Fatal("login with wrong password succeeded")
	}

	out := h.mustExec(t, "login", "-email", adminEmail, "-password", adminPassword)
	if !strings.Contains(out, "Logged in as "+adminEmail) {
		t.Errorf("login output = %q", out)
	}

	var id identity
	if err := json.Unmarshal([]byte(h.mustExec(t, "whoami")), &id); err != nil {
		t.Fatal(err)
	}
	if id.Role != string(models.RoleSuperAdmin) || id.Expired || id.AdminID == "" {
		t.Errorf("whoami = %+v", id)
	}

	h.mustExec(t, "logout")
	if _, err := h.exec(t, "platforms", "list"); !errors.Is(err, errNotLoggedIn) {
		t.Errorf("after logout error = %v", err)
	}
}

func TestPlatformCommands(t *testing.T) {
	h := newHarness(t)
	h.mustExec(t, "login", "-email", adminEmail, "-password", adminPassword)

	var created models.Platform
	out := h.mustExec(t, "platforms", "create", "-name", "Twitch", "-description", "Streams")
	if err := json.Unmarshal([]byte(out), &created); err != nil {
		t.Fatal(err)
	}
	if created.Name != "Twitch" || !created.IsActive {
		t.Fatalf("created = %+v", created)
	}

	var updated models.Platform
	out = h.mustExec(t, "platforms", "update", created.ID, "-active=false")
	if err := json.Unmarshal([]byte(out), &updated); err != nil {
		t.Fatal(err)
	}
	if updated.IsActive || updated.Name != "Twitch" || updated.Description != "Streams" {
		t.Errorf("update lost fields: %+v", updated)
	}

	if out := h.mustExec(t, "platforms", "delete", created.ID); !strings.Contains(out, "Platform deleted") {
		t.Errorf("delete output = %q", out)
	}
	if _, err := h.exec(t, "platforms", "update", created.ID, "-name", "x"); err == nil {
		t.Error("update of deleted platform succeeded")
	}
}

func TestOrdersListFooter(t *testing.T) {
	h := newHarness(t)
	h.mustExec(t, "login", "-email", adminEmail, "-password", adminPassword)

	out := h.mustExec(t, "orders", "list", "-page", "2", "-limit", "10")
	if !strings.HasSuffix(out, "page 2 of 3 (24 total)\n") {
		t.Errorf("footer missing: %q", out)
	}
}

func TestTicketCommands(t *testing.T) {
	h := newHarness(t)
	h.mustExec(t, "login", "-email", adminEmail, "-password", adminPassword)

	out := h.mustExec(t, "tickets", "list", "-status", "open", "-limit", "1")
	var tickets []models.SupportTicket
	if err := json.Unmarshal([]byte(out[:strings.LastIndex(out, "page ")]), &tickets); err != nil {
		t.Fatal(err)
	}
	if len(tickets) != 1 {
		t.Fatalf("tickets = %+v", tickets)
	}

	var replied models.SupportTicket
	out = h.mustExec(t, "tickets", "reply", tickets[0].ID, "Looking", "into", "it")
	if err := json.Unmarshal([]byte(out), &replied); err != nil {
		t.Fatal(err)
	}
	if replied.Status != models.TicketInProgress {
		t.Errorf("status = %s", replied.Status)
	}

	if _, err := h.exec(t, "tickets", "status", tickets[0].ID, "bogus"); err == nil {
		t.Error("invalid status accepted")
	}
}

func TestStatsCommand(t *testing.T) {
	h := newHarness(t)
	h.mustExec(t, "login", "-email", adminEmail, "-password", adminPassword)

	var stats struct {
		TotalOrders     int `json:"totalOrders"`
		ActivePlatforms int `json:"activePlatforms"`
	}
	if err := json.Unmarshal([]byte(h.mustExec(t, "stats")), &stats); err != nil {
		t.Fatal(err)
	}
	if stats.TotalOrders != 24 || stats.ActivePlatforms != 2 {
		t.Errorf("stats = %+v", stats)
	}
}

func TestUsageErrors(t *testing.T) {
	h := newHarness(t)
	if _, err := h.exec(t); !errors.Is(err, errUsage) {
		t.Errorf("no args error = %v", err)
	}
	h.mustExec(t, "login", "-email", adminEmail, "-password", adminPassword)
	if _, err := h.exec(t, "platforms"); !errors.Is(err, errUsage) {
		t.Errorf("missing subcommand error = %v", err)
	}
	if _, err := h.exec(t, "frobnicate"); err == nil || !strings.Contains(err.Error(), "unknown command") {
		t.Errorf("unknown command error = %v", err)
	}
}
