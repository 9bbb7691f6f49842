package authstore

import (
	"context"
	"errors"
	"sync"
	"testing"

	"sbp-admin/internal/models"
)

type fakeClient struct {
	mu sync.Mutex

	loginResp *models.Envelope[models.LoginData]
	loginErr  error
	logoutErr error
	setErr    error

	token       string
	setCalls    []string
	clearCalls  int
	loginCalls  int
	logoutCalls int
}

func (f *fakeClient) Login(_ context.Context, _, _ string) (*models.Envelope[models.LoginData], error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.loginCalls++
	return f.loginResp, f.loginErr
}

func (f *fakeClient) Logout(_ context.Context) (*models.Envelope[any], error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.logoutCalls++
	if f.logoutErr != nil {
		return nil, f.logoutErr
	}
	return &models.Envelope[any]{Success: true}, nil
}

func (f *fakeClient) SetToken(_ context.Context, token string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.setCalls = append(f.setCalls, token)
	if f.setErr != nil {
		f.token = token
		return f.setErr
	}
	f.token = token
	return nil
}

func (f *fakeClient) Token(_ context.Context) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.token, nil
}

func (f *fakeClient) ClearToken(_ context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.clearCalls++
	f.token = ""
	return nil
}

func (f *fakeClient) networkCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.loginCalls + f.logoutCalls
}

var testAdmin = models.Admin{ID: "a1", Email: "root@sbp.io", Name: "Root", Role: models.RoleSuperAdmin, IsActive: true}

func record(s *Store) *[]State {
	var states []State
	s.Subscribe(func(st State) { states = append(states, st) })
	return &states
}

func TestLoginSuccess(t *testing.T) {
	fc := &fakeClient{loginResp: &models.Envelope[models.LoginData]{
		Success: true,
		Data:    &models.LoginData{Token: "T", Admin: testAdmin},
	}}
	s := New(fc)
	states := record(s)

	if !s.Login(context.Background(), "root@sbp.io", "pw") {
		t.Fatal("Login() = false")
	}

	st := s.GetState()
	if !st.IsAuthenticated || st.Admin == nil || *st.Admin != testAdmin || st.Loading || st.Error != "" {
		t.Fatalf("state = %+v", st)
	}
	if len(fc.setCalls) != 1 || fc.setCalls[0] != "T" {
		t.Errorf("SetToken calls = %v, want [T]", fc.setCalls)
	}

	if len(*states) != 2 {
		t.Fatalf("notifications = %d, want 2", len(*states))
	}
	if (*states)[0].Phase() != PhaseAuthenticating {
		t.Errorf("first phase = %s", (*states)[0].Phase())
	}
	if (*states)[1].Phase() != PhaseAuthenticated {
		t.Errorf("second phase = %s", (*states)[1].Phase())
	}
}

func TestLoginRejected(t *testing.T) {
	fc := &fakeClient{
		token:     "previous",
		loginResp: &models.Envelope[models.LoginData]{Success: false, Message: "bad creds"},
	}
	s := New(fc)

	if s.Login(context.Background(), "x@y.z", "nope") {
		t.Fatal("Login() = true")
	}
	st := s.GetState()
	if st.IsAuthenticated || st.Error != "bad creds" || st.Loading {
		t.Fatalf("state = %+v", st)
	}
	if st.Phase() != PhaseError {
		t.Errorf("phase = %s", st.Phase())
	}
	if len(fc.setCalls) != 0 || fc.clearCalls != 0 || fc.token != "previous" {
		t.Errorf("token mutated: set=%v clear=%d token=%q", fc.setCalls, fc.clearCalls, fc.token)
	}
}

func TestLoginRejectedWithoutMessage(t *testing.T) {
	fc := &fakeClient{loginResp: &models.Envelope[models.LoginData]{Success: true}}
	s := New(fc)

	s.Login(context.Background(), "x@y.z", "pw")
	if got := s.GetState().Error; got != DefaultLoginError {
		t.Errorf("Error = %q, want %q", got, DefaultLoginError)
	}
}

func TestLoginTransportError(t *testing.T) {
	fc := &fakeClient{loginErr: errors.New("dial tcp: connection refused")}
	s := New(fc)

	if s.Login(context.Background(), "x@y.z", "pw") {
		t.Fatal("Login() = true")
	}
	st := s.GetState()
	if st.Error != "dial tcp: connection refused" || st.Loading || st.IsAuthenticated {
		t.Fatalf("state = %+v", st)
	}
}

func TestLoginTokenPersistFailure(t *testing.T) {
	fc := &fakeClient{
		setErr: errors.New("disk full"),
		loginResp: &models.Envelope[models.LoginData]{
			Success: true,
			Data:    &models.LoginData{Token: "T", Admin: testAdmin},
		},
	}
	s := New(fc)

	if s.Login(context.Background(), "x@y.z", "pw") {
		t.Fatal("Login() = true")
	}
	st := s.GetState()
	if st.IsAuthenticated || st.Admin != nil || st.Error == "" {
		t.Fatalf("state = %+v", st)
	}
	if fc.token != "" {
		t.Errorf("token left behind: %q", fc.token)
	}
}

func TestLogoutAlwaysEndsAnonymous(t *testing.T) {
	for _, remoteErr := range []error{nil, errors.New("503 upstream")} {
		fc := &fakeClient{loginResp: &models.Envelope[models.LoginData]{
			Success: true,
			Data:    &models.LoginData{Token: "T", Admin: testAdmin},
		}}
		s := New(fc)
		ctx := context.Background()
		s.Login(ctx, "x@y.z", "pw")

		fc.logoutErr = remoteErr
		states := record(s)
		s.Logout(ctx)

		st := s.GetState()
		if st.IsAuthenticated || st.Admin != nil || st.Loading || st.Error != "" {
			t.Fatalf("remoteErr=%v: state = %+v", remoteErr, st)
		}
		if fc.token != "" {
			t.Errorf("remoteErr=%v: token not cleared", remoteErr)
		}
		if len(*states) != 1 {
			t.Errorf("remoteErr=%v: notifications = %d, want 1", remoteErr, len(*states))
		}
	}
}

func TestLogoutClearsTokenBeforeListenersRun(t *testing.T) {
	fc := &fakeClient{token: "T"}
	s := New(fc)

	var tokenSeen string
	s.Subscribe(func(st State) {
		tokenSeen, _ = fc.Token(context.Background())
		if st.IsAuthenticated {
			t.Error("listener saw authenticated state after logout")
		}
	})
	s.Logout(context.Background())

	if tokenSeen != "" {
		t.Errorf("listener saw token %q", tokenSeen)
	}
}

func TestCheckAuthWithoutToken(t *testing.T) {
	fc := &fakeClient{}
	s := New(fc)
	s.state = State{IsAuthenticated: true, Admin: &testAdmin}

	if s.CheckAuth(context.Background()) {
		t.Fatal("CheckAuth() = true")
	}
	st := s.GetState()
	if st.IsAuthenticated || st.Admin != nil {
		t.Fatalf("state = %+v", st)
	}
	if fc.networkCalls() != 0 {
		t.Errorf("CheckAuth issued %d network calls", fc.networkCalls())
	}
}

func TestCheckAuthWithToken(t *testing.T) {
	fc := &fakeClient{token: "T"}
	s := New(fc)
	states := record(s)

	if !s.CheckAuth(context.Background()) {
		t.Fatal("CheckAuth() = false")
	}
	if len(*states) != 0 {
		t.Errorf("CheckAuth with token notified %d times", len(*states))
	}
}

func TestClearError(t *testing.T) {
	fc := &fakeClient{token: "keep", loginResp: &models.Envelope[models.LoginData]{Message: "nope"}}
	s := New(fc)
	s.Login(context.Background(), "x@y.z", "pw")

	s.ClearError()
	st := s.GetState()
	if st.Error != "" || st.Phase() != PhaseAnonymous {
		t.Fatalf("state = %+v", st)
	}
	if fc.token != "keep" {
		t.Errorf("ClearError touched token: %q", fc.token)
	}
}

func TestGetStateIsACopy(t *testing.T) {
	s := New(&fakeClient{})
	s.state = State{IsAuthenticated: true, Admin: &models.Admin{Name: "orig"}}

	st := s.GetState()
	st.Admin.Name = "mutated"
	st.IsAuthenticated = false

	again := s.GetState()
	if again.Admin.Name != "orig" || !again.IsAuthenticated {
		t.Fatalf("internal state mutated: %+v", again)
	}
}

func TestSubscribersNotifiedOncePerTransition(t *testing.T) {
	s := New(&fakeClient{})
	var a, b int
	unsubA := s.Subscribe(func(State) { a++ })
	s.Subscribe(func(State) { b++ })

	s.ClearError()
	s.ClearError()
	unsubA()
	unsubA()
	s.ClearError()

	if a != 2 || b != 3 {
		t.Errorf("a=%d b=%d, want 2 and 3", a, b)
	}
}

func TestSubscribeDuringNotification(t *testing.T) {
	s := New(&fakeClient{})
	var late int
	var once sync.Once
	s.Subscribe(func(State) {
		once.Do(func() {
			s.Subscribe(func(State) { late++ })
		})
	})

	s.ClearError()
	if late != 0 {
		t.Fatalf("late subscriber notified for the transition it joined during")
	}
	s.ClearError()
	if late != 1 {
		t.Fatalf("late = %d, want 1", late)
	}
}

func TestConcurrentTransitionsDoNotInterleave(t *testing.T) {
	s := New(&fakeClient{})
	var (
		mu     sync.Mutex
		active int
		bad    bool
	)
	s.Subscribe(func(State) {
		mu.Lock()
		active++
		if active > 1 {
			bad = true
		}
		mu.Unlock()

		mu.Lock()
		active--
		mu.Unlock()
	})

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.ClearError()
		}()
	}
	wg.Wait()

	if bad {
		t.Fatal("notifications overlapped")
	}
}
