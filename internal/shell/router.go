package shell

import (
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"payego/internal/core/session"
)

// StateSource reports the current session.
type StateSource interface {
	State() session.State
}

// Router holds the current location and applies the route guard on every
// navigation. It is the navigator used by the API client and the forms.
type Router struct {
	src    StateSource
	routes []Route

	mu       sync.Mutex
	location string
	history  []string
	timers   map[*time.Timer]struct{}
}

func NewRouter(src StateSource, routes []Route) *Router {
	if routes == nil {
		routes = DefaultRoutes
	}
	return &Router{src: src, routes: routes, location: "/", timers: make(map[*time.Timer]struct{})}
}

// Resolve returns where a request for path actually lands. Nothing is
// redirected while the session is still loading.
func (r *Router) Resolve(path string) string {
	route, _, ok := Match(r.routes, path)
	if !ok {
		return NotFoundPath
	}

	st := r.src.State()
	if st.IsLoading {
		return path
	}
	switch {
	case route.Access == Protected && !st.IsAuthenticated:
		return LoginPath
	case route.Access == GuestOnly && st.IsAuthenticated:
		return DashboardPath
	}
	return path
}

// Location is the current path.
func (r *Router) Location() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.location
}

// Navigate moves to path, subject to the guard.
func (r *Router) Navigate(path string) {
	dest := r.Resolve(path)

	r.mu.Lock()
	defer r.mu.Unlock()
	if dest == r.location {
		return
	}
	r.location = dest
	r.history = append(r.history, dest)
}

// Sync re-applies the guard to the current location, as after a session change.
func (r *Router) Sync() {
	r.Navigate(r.Location())
}

// History lists every location visited, oldest first.
func (r *Router) History() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.history...)
}

// Current returns the route and params of the current location.
func (r *Router) Current() (Route, map[string]string, bool) {
	return Match(r.routes, r.Location())
}

// RedirectAfter navigates to path once delay has passed unless cancelled.
func (r *Router) RedirectAfter(delay time.Duration, path string) func() {
	var t *time.Timer
	r.mu.Lock()
	t = time.AfterFunc(delay, func() {
		r.mu.Lock()
		delete(r.timers, t)
		r.mu.Unlock()
		r.Navigate(path)
	})
	r.timers[t] = struct{}{}
	r.mu.Unlock()

	return func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		if t.Stop() {
			delete(r.timers, t)
		}
	}
}

// Pending is the number of scheduled redirects that have not fired.
func (r *Router) Pending() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.timers)
}

// Close cancels every scheduled redirect.
func (r *Router) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for t := range r.timers {
		t.Stop()
	}
	r.timers = make(map[*time.Timer]struct{})
}

// MsgCrash replaces a view that failed to render.
const MsgCrash = "Something went wrong. Please try again."

// CrashError is returned by Recover when a view panicked.
type CrashError struct {
	Value interface{}
}

func (e *CrashError) Error() string {
	return MsgCrash
}

// IsCrash reports whether err came from a recovered panic.
func IsCrash(err error) bool {
	var ce *CrashError
	return errors.As(err, &ce)
}

// Recover runs view and turns a panic into a CrashError, so one broken view
// never takes the process down.
func Recover(view func() error) (err error) {
	defer func() {
		if v := recover(); v != nil {
			log.Printf("❌ View crashed: %v", v)
			err = &CrashError{Value: v}
		}
	}()
	return view()
}

// Describe renders a route for help output.
func Describe(r Route) string {
	return fmt.Sprintf("%-20s %-16s %s", r.Pattern, r.View, r.Access)
}
