// Package authstore tracks whether an admin is logged in and tells
// subscribers about every change.
package authstore

import (
	"context"
	"log/slog"
	"sync"

	"sbp-admin/internal/models"
)

// DefaultLoginError is shown when the backend rejects a login without a message.
const DefaultLoginError = "login failed"

// Client is the part of the API client the store drives.
type Client interface {
	Login(ctx context.Context, email, password string) (*models.Envelope[models.LoginData], error)
	Logout(ctx context.Context) (*models.Envelope[any], error)
	SetToken(ctx context.Context, token string) error
	Token(ctx context.Context) (string, error)
	ClearToken(ctx context.Context) error
}

type State struct {
	IsAuthenticated bool
	Admin           *models.Admin
	Loading         bool
	Error           string
}

type Phase string

const (
	PhaseAnonymous      Phase = "anonymous"
	PhaseAuthenticating Phase = "authenticating"
	PhaseAuthenticated  Phase = "authenticated"
	PhaseError          Phase = "error"
)

func (s State) Phase() Phase {
	switch {
	case s.Loading:
		return PhaseAuthenticating
	case s.Error != "":
		return PhaseError
	case s.IsAuthenticated:
		return PhaseAuthenticated
	default:
		return PhaseAnonymous
	}
}

func (s State) clone() State {
	if s.Admin != nil {
		a := *s.Admin
		s.Admin = &a
	}
	return s
}

type Listener func(State)

type Store struct {
	client Client

	// transition serializes state changes together with their notifications.
	transition sync.Mutex

	mu        sync.RWMutex
	state     State
	listeners map[uint64]Listener
	order     []uint64
	nextID    uint64
}

func New(client Client) *Store {
	return &Store{
		client:    client,
		listeners: make(map[uint64]Listener),
	}
}

// GetState returns a copy; mutating it does not affect the store.
func (s *Store) GetState() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.clone()
}

// Subscribe registers fn to receive a snapshot after every transition and
// returns a function that removes it. Listeners run synchronously on the
// goroutine that caused the transition and must not start another transition.
func (s *Store) Subscribe(fn Listener) func() {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = fn
	s.order = append(s.order, id)
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			delete(s.listeners, id)
			for i, v := range s.order {
				if v == id {
					s.order = append(s.order[:i:i], s.order[i+1:]...)
					break
				}
			}
		})
	}
}

// update applies mutate under the state lock, then notifies every listener
// that was registered when the mutation happened.
func (s *Store) update(mutate func(*State)) {
	s.transition.Lock()
	defer s.transition.Unlock()

	s.mu.Lock()
	mutate(&s.state)
	snapshot := s.state.clone()
	targets := make([]Listener, 0, len(s.order))
	for _, id := range s.order {
		targets = append(targets, s.listeners[id])
	}
	s.mu.Unlock()

	for _, fn := range targets {
		fn(snapshot.clone())
	}
}

// Login authenticates against the backend and stores the returned token.
func (s *Store) Login(ctx context.Context, email, password string) bool {
	s.update(func(st *State) {
		st.Loading = true
		st.Error = ""
	})

	resp, err := s.client.Login(ctx, email, password)
	if err != nil {
		s.update(func(st *State) {
			st.Loading = false
			st.Error = err.Error()
		})
		return false
	}

	if !resp.Success || resp.Data == nil {
		msg := resp.Reason()
		if msg == "" {
			msg = DefaultLoginError
		}
		s.update(func(st *State) {
			st.Loading = false
			st.Error = msg
		})
		return false
	}

	admin := resp.Data.Admin
	ok := true
	s.update(func(st *State) {
		st.Loading = false
		if err := s.client.SetToken(ctx, resp.Data.Token); err != nil {
			slog.Error("Failed to store token", "error", err)
			if err := s.client.ClearToken(ctx); err != nil {
				slog.Error("Failed to roll back token", "error", err)
			}
			ok = false
			st.IsAuthenticated = false
			st.Admin = nil
			st.Error = err.Error()
			return
		}
		st.IsAuthenticated = true
		st.Admin = &admin
		st.Error = ""
	})
	return ok
}

// Logout tells the backend best effort and always ends anonymous locally.
func (s *Store) Logout(ctx context.Context) {
	if _, err := s.client.Logout(ctx); err != nil {
		slog.Warn("Remote logout failed", "error", err)
	}

	s.update(func(st *State) {
		if err := s.client.ClearToken(ctx); err != nil {
			slog.Error("Failed to clear token", "error", err)
		}
		*st = State{}
	})
}

// CheckAuth reports whether a token is present. It never calls the backend.
// Without a token the state is forced to anonymous.
func (s *Store) CheckAuth(ctx context.Context) bool {
	token, err := s.client.Token(ctx)
	if err != nil {
		slog.Warn("Failed to read token", "error", err)
	}
	if token != "" {
		return true
	}

	s.update(func(st *State) {
		st.IsAuthenticated = false
		st.Admin = nil
	})
	return false
}

func (s *Store) ClearError() {
	s.update(func(st *State) {
		st.Error = ""
	})
}
