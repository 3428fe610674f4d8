// Package session owns what the client believes about authentication.
package session

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"payego/internal/core/domain"
	"payego/internal/pkg/jwt"
)

var (
	ErrEmptyToken   = errors.New("empty credential")
	ErrNoCredential = errors.New("no credential stored")
)

// Status is the coarse session state.
type Status int

const (
	StatusUnknown Status = iota
	StatusUnauthenticated
	StatusAuthenticated
)

func (s Status) String() string {
	switch s {
	case StatusUnauthenticated:
		return "unauthenticated"
	case StatusAuthenticated:
		return "authenticated"
	default:
		return "unknown"
	}
}

// State is a published snapshot. User is only ever set while IsAuthenticated.
type State struct {
	IsAuthenticated bool
	User            *domain.User
	IsLoading       bool
}

// Status derives the coarse state: loading wins, then the credential flag.
func (s State) Status() Status {
	switch {
	case s.IsLoading:
		return StatusUnknown
	case s.IsAuthenticated:
		return StatusAuthenticated
	default:
		return StatusUnauthenticated
	}
}

// Credentials is the credential vault as seen by the session.
type Credentials interface {
	Token() (string, bool)
	Save(token string, remember bool) error
	Clear() error
}

// Identity fetches the current user and ends server sessions.
type Identity interface {
	CurrentUser(ctx context.Context) (*domain.User, error)
	Logout(ctx context.Context, token string) error
}

// Manager is the single owner of the session. It starts in StatusUnknown.
//
// Identity fetches are sequence-gated: a response is applied only if no newer
// fetch has started and no logout happened since it was issued.
type Manager struct {
	creds    Credentials
	identity Identity

	now           func() time.Time
	logoutTimeout time.Duration

	mu        sync.Mutex
	state     State
	seq       uint64
	epoch     uint64
	listeners map[int]func(State)
	nextID    int

	bg sync.WaitGroup
}

// Option configures a Manager.
type Option func(*Manager)

// WithClock overrides time.Now for credential expiry checks.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

// WithLogoutTimeout bounds the best-effort server logout.
func WithLogoutTimeout(d time.Duration) Option {
	return func(m *Manager) { m.logoutTimeout = d }
}

// NewManager creates a session in StatusUnknown with IsLoading set.
func NewManager(creds Credentials, identity Identity, opts ...Option) *Manager {
	m := &Manager{
		creds:         creds,
		identity:      identity,
		now:           time.Now,
		logoutTimeout: 5 * time.Second,
		state:         State{IsLoading: true},
		listeners:     make(map[int]func(State)),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// State returns the current snapshot.
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Subscribe registers fn for every published state and returns its removal.
func (m *Manager) Subscribe(fn func(State)) func() {
	m.mu.Lock()
	id := m.nextID
	m.nextID++
	m.listeners[id] = fn
	m.mu.Unlock()

	return func() {
		m.mu.Lock()
		delete(m.listeners, id)
		m.mu.Unlock()
	}
}

// Mount resolves the initial state from the stored credential.
func (m *Manager) Mount(ctx context.Context) error {
	m.mu.Lock()
	token, ok := m.creds.Token()
	if ok && jwt.Expired(token, m.now()) {
		log.Println("⚠️ Stored credential has expired, discarding")
		m.clearLocked()
		ok = false
	}
	if !ok {
		m.state = State{}
		m.publishLocked()
		return nil
	}
	m.state.IsAuthenticated = true
	m.mu.Unlock()

	return m.fetch(ctx, true)
}

// Login stores token in the scope chosen by remember, marks the session
// authenticated and then fetches the user.
func (m *Manager) Login(ctx context.Context, token string, remember bool) error {
	if token == "" {
		return ErrEmptyToken
	}

	m.mu.Lock()
	if err := m.creds.Save(token, remember); err != nil {
		m.mu.Unlock()
		return err
	}
	m.state.IsAuthenticated = true
	m.state.User = nil
	m.publishLocked()

	return m.fetch(ctx, false)
}

// RefreshUser re-runs the identity fetch.
func (m *Manager) RefreshUser(ctx context.Context) error {
	if _, ok := m.creds.Token(); !ok {
		return ErrNoCredential
	}
	return m.fetch(ctx, false)
}

// Logout clears the credential and publishes the unauthenticated state
// before returning. The server is told in the background.
func (m *Manager) Logout(ctx context.Context) {
	m.mu.Lock()
	token, hadToken := m.creds.Token()
	m.clearLocked()
	m.state = State{}
	m.publishLocked()

	if !hadToken {
		return
	}

	m.bg.Add(1)
	go func() {
		defer m.bg.Done()
		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), m.logoutTimeout)
		defer cancel()
		if err := m.identity.Logout(ctx, token); err != nil {
			log.Printf("⚠️ Server logout failed: %v", err)
		}
	}()
}

// ForceUnauthenticated drops the session from any state. The API layer calls
// it on every authorization failure.
func (m *Manager) ForceUnauthenticated() {
	m.mu.Lock()
	m.clearLocked()
	m.state = State{}
	m.publishLocked()
}

// Wait blocks until background server logouts have finished.
func (m *Manager) Wait() {
	m.bg.Wait()
}

func (m *Manager) fetch(ctx context.Context, mount bool) error {
	m.mu.Lock()
	m.seq++
	seq, epoch := m.seq, m.epoch
	m.mu.Unlock()

	user, err := m.identity.CurrentUser(ctx)

	m.mu.Lock()
	loading := m.state.IsLoading && !mount
	if seq == m.seq && epoch == m.epoch {
		if err != nil {
			log.Printf("⚠️ Identity fetch failed, dropping credential: %v", err)
			m.clearLocked()
			m.state = State{}
		} else {
			m.state = State{IsAuthenticated: true, User: user}
		}
	}
	m.state.IsLoading = loading
	m.publishLocked()
	return err
}

// clearLocked discards the credential and invalidates in-flight fetches.
func (m *Manager) clearLocked() {
	m.epoch++
	if err := m.creds.Clear(); err != nil {
		log.Printf("❌ Failed to clear credential: %v", err)
	}
}

// publishLocked releases mu and then notifies listeners with the snapshot.
func (m *Manager) publishLocked() {
	st := m.state
	fns := make([]func(State), 0, len(m.listeners))
	for _, fn := range m.listeners {
		fns = append(fns, fn)
	}
	m.mu.Unlock()

	for _, fn := range fns {
		fn(st)
	}
}
