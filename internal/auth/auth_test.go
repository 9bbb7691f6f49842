package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

type revokedSet map[string]bool

func (r revokedSet) IsRevoked(jti string) bool { return r[jti] }

func serve(t *testing.T, m *Middleware, header string) (*httptest.ResponseRecorder, string) {
	t.Helper()
	var seen string
	h := m.ValidateToken(func(w http.ResponseWriter, r *http.Request) {
		seen = AdminID(r.Context())
		w.WriteHeader(http.StatusNoContent)
	})
	req := httptest.NewRequest(http.MethodGet, "/admins", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	rec := httptest.NewRecorder()
	h(rec, req)
	return rec, seen
}

func TestValidateTokenAcceptsIssuedToken(t *testing.T) {
	iss := NewIssuer("s3cret", time.Hour)
	token, claims, err := iss.Issue("admin-1", "super_admin")
	if err != nil {
		t.Fatal(err)
	}
	if claims.ID == "" {
		t.Error("claims missing jti")
	}

	rec, seen := serve(t, NewMiddleware("s3cret", nil, nil), "Bearer "+token)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body)
	}
	if seen != "admin-1" {
		t.Errorf("AdminID = %q, want admin-1", seen)
	}
}

func TestValidateTokenRejects(t *testing.T) {
	good, claims, _ := NewIssuer("s3cret", time.Hour).Issue("a", "admin")
	wrongKey, _, _ := NewIssuer("other", time.Hour).Issue("a", "admin")
	expired, _, _ := NewIssuer("s3cret", -time.Minute).Issue("a", "admin")

	tests := []struct {
		name    string
		header  string
		revoked revokedSet
	}{
		{"missing header", "", nil},
		{"wrong scheme", "Basic " + good, nil},
		{"garbage", "Bearer not.a.jwt", nil},
		{"wrong key", "Bearer " + wrongKey, nil},
		{"expired", "Bearer " + expired, nil},
		{"revoked", "Bearer " + good, revokedSet{claims.ID: true}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var m *Middleware
			if tt.revoked != nil {
				m = NewMiddleware("s3cret", tt.revoked, nil)
			} else {
				m = NewMiddleware("s3cret", nil, nil)
			}
			rec, _ := serve(t, m, tt.header)
			if rec.Code != http.StatusUnauthorized {
				t.Errorf("status = %d, want 401", rec.Code)
			}
		})
	}
}

func TestCustomUnauthorizedWriter(t *testing.T) {
	var msg string
	m := NewMiddleware("k", nil, func(w http.ResponseWriter, message string) {
		msg = message
		w.WriteHeader(http.StatusUnauthorized)
	})
	serve(t, m, "")
	if msg != "Missing Authorization header" {
		t.Errorf("message = %q", msg)
	}
}

func TestInspect(t *testing.T) {
	iss := NewIssuer("k", time.Hour)
	fixed := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	iss.now = func() time.Time { return fixed }

	token, _, err := iss.Issue("admin-9", "support")
	if err != nil {
		t.Fatal(err)
	}
	claims, err := Inspect(token)
	if err != nil {
		t.Fatal(err)
	}
	if claims.Subject != "admin-9" || claims.Role != "support" {
		t.Errorf("claims = %+v", claims)
	}
	expired, err := claims.Expired(fixed.Add(2 * time.Hour))
	if err != nil || !expired {
		t.Errorf("Expired() = %v, %v, want true", expired, err)
	}

	if _, err := Inspect("opaque-token"); err == nil {
		t.Error("Inspect(opaque) should fail")
	}
	if _, err := (&Claims{}).Expired(fixed); err != ErrNoExpiry {
		t.Errorf("Expired() without exp error = %v", err)
	}
}
