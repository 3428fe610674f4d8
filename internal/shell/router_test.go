package shell

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"payego/internal/adapters/credential"
	"payego/internal/core/domain"
	"payego/internal/core/session"
)

type stubState struct {
	mu sync.Mutex
	st session.State
}

func (s *stubState) State() session.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st
}

func (s *stubState) set(st session.State) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.st = st
}

var (
	loading  = session.State{IsLoading: true}
	guest    = session.State{}
	signedIn = session.State{IsAuthenticated: true, User: &domain.User{ID: "u1"}}
)

func TestResolveGuard(t *testing.T) {
	tests := []struct {
		name  string
		state session.State
		path  string
		want  string
	}{
		{name: "loading never redirects", state: loading, path: "/wallets", want: "/wallets"},
		{name: "protected as guest", state: guest, path: "/wallets", want: LoginPath},
		{name: "protected with params as guest", state: guest, path: "/transactions/tx-1", want: LoginPath},
		{name: "protected signed in", state: signedIn, path: "/transactions/tx-1", want: "/transactions/tx-1"},
		{name: "guest-only signed in", state: signedIn, path: "/register", want: DashboardPath},
		{name: "guest-only as guest", state: guest, path: "/login", want: LoginPath},
		{name: "public with query", state: guest, path: "/verify-email?token=abc", want: "/verify-email?token=abc"},
		{name: "unknown path", state: signedIn, path: "/nope", want: NotFoundPath},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewRouter(&stubState{st: tt.state}, nil)
			assert.Equal(t, tt.want, r.Resolve(tt.path))
		})
	}
}

func TestMatchParams(t *testing.T) {
	route, params, ok := Match(DefaultRoutes, "/transactions/abc-123")
	require.True(t, ok)
	assert.Equal(t, "transaction", route.View)
	assert.Equal(t, "abc-123", params["id"])

	_, _, ok = Match(DefaultRoutes, "/transactions/abc/extra")
	assert.False(t, ok)
}

func TestNavigateAndSync(t *testing.T) {
	src := &stubState{st: signedIn}
	r := NewRouter(src, nil)

	r.Navigate("/wallets")
	assert.Equal(t, "/wallets", r.Location())

	src.set(guest)
	r.Sync()
	assert.Equal(t, LoginPath, r.Location())
	assert.Equal(t, []string{"/wallets", LoginPath}, r.History())

	route, _, ok := r.Current()
	require.True(t, ok)
	assert.Equal(t, GuestOnly, route.Access)
}

func TestRedirectAfter(t *testing.T) {
	r := NewRouter(&stubState{st: signedIn}, nil)

	r.RedirectAfter(10*time.Millisecond, DashboardPath)
	assert.Equal(t, 1, r.Pending())
	require.Eventually(t, func() bool { return r.Location() == DashboardPath }, time.Second, time.Millisecond)
	assert.Zero(t, r.Pending())

	cancel := r.RedirectAfter(20*time.Millisecond, "/wallets")
	cancel()
	time.Sleep(40 * time.Millisecond)
	assert.Equal(t, DashboardPath, r.Location())

	r.RedirectAfter(time.Hour, "/banks")
	r.Close()
	assert.Zero(t, r.Pending())
}

func TestRecover(t *testing.T) {
	err := Recover(func() error { panic("nil map") })
	assert.True(t, IsCrash(err))
	assert.Equal(t, MsgCrash, err.Error())

	plain := errors.New("plain")
	assert.Equal(t, plain, Recover(func() error { return plain }))
	assert.NoError(t, Recover(func() error { return nil }))
}

func TestLayoutSidebar(t *testing.T) {
	l := NewLayout(credential.NewPreferences(credential.NewMemoryStore()))
	assert.True(t, l.SidebarOpen())

	open, err := l.ToggleSidebar()
	require.NoError(t, err)
	assert.False(t, open)
	assert.False(t, l.SidebarOpen())

	require.NoError(t, l.SetSidebar(true))
	assert.True(t, l.SidebarOpen())
}
