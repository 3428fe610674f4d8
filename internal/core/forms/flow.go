// Package forms implements the client's multi-step transaction forms and
// the authentication forms.
package forms

import (
	"context"
	"errors"
	"sync"

	"payego/internal/core/apierror"
)

var (
	ErrBusy          = errors.New("a request is already in flight")
	ErrNotConfirming = errors.New("nothing to confirm; preview first")
)

// Phase is the position of a flow in Editing → Previewing → Confirming →
// Submitting → Succeeded. A failed preview or submission returns to Editing
// with Error set.
type Phase int

const (
	PhaseEditing Phase = iota
	PhasePreviewing
	PhaseConfirming
	PhaseSubmitting
	PhaseSucceeded
)

func (p Phase) String() string {
	switch p {
	case PhasePreviewing:
		return "previewing"
	case PhaseConfirming:
		return "confirming"
	case PhaseSubmitting:
		return "submitting"
	case PhaseSucceeded:
		return "succeeded"
	default:
		return "editing"
	}
}

// Navigator moves the user to another view.
type Navigator interface {
	Navigate(path string)
}

// Invalidator marks cache keys stale.
type Invalidator interface {
	Invalidate(keys ...string)
}

// Outcome is what a successful submission produced.
type Outcome struct {
	TransactionID string
	Message       string
	Detail        map[string]string
}

// Steps are the per-form parts of a flow.
type Steps[In, P any] struct {
	// Validate performs local checks only.
	Validate func(In) FieldErrors
	// Preview performs the non-mutating lookup and freezes its result.
	Preview func(context.Context, In) (P, error)
	// Submit performs the mutation with the frozen preview and a fresh key.
	Submit func(ctx context.Context, in In, preview P, key string) (Outcome, error)
	// Invalidate lists the cache keys a success makes stale.
	Invalidate []string
	// Destination is the view to open after success.
	Destination func(Outcome) string
}

// State is a snapshot of a flow.
type State[In, P any] struct {
	Phase       Phase
	Input       In
	Preview     P
	FieldErrors FieldErrors
	Error       string
	Outcome     Outcome
	// Key is the idempotency key of the latest submission attempt.
	Key string
}

// Flow runs one form through its phases. It is safe for concurrent use;
// overlapping actions are rejected with ErrBusy.
type Flow[In, P any] struct {
	steps  Steps[In, P]
	cache  Invalidator
	nav    Navigator
	newKey func() string

	mu    sync.Mutex
	state State[In, P]
}

// NewFlow wires steps to the cache and navigator. newKey generates an
// idempotency key per confirmation.
func NewFlow[In, P any](steps Steps[In, P], cache Invalidator, nav Navigator, newKey func() string) *Flow[In, P] {
	return &Flow[In, P]{steps: steps, cache: cache, nav: nav, newKey: newKey}
}

// State returns a snapshot.
func (f *Flow[In, P]) State() State[In, P] {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

// Edit replaces the input. Editing while confirming discards the preview.
func (f *Flow[In, P]) Edit(in In) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	switch f.state.Phase {
	case PhasePreviewing, PhaseSubmitting:
		return ErrBusy
	}
	var zero P
	f.state = State[In, P]{Phase: PhaseEditing, Input: in, Preview: zero}
	return nil
}

// Preview validates the input locally and then runs the lookup. On success
// the flow is Confirming with the preview frozen.
func (f *Flow[In, P]) Preview(ctx context.Context) (P, error) {
	var zero P

	f.mu.Lock()
	if f.state.Phase != PhaseEditing && f.state.Phase != PhaseConfirming {
		f.mu.Unlock()
		return zero, ErrBusy
	}
	in := f.state.Input
	f.state.Preview = zero
	f.state.Error = ""
	if fe := f.validate(in); len(fe) > 0 {
		f.state.Phase = PhaseEditing
		f.state.FieldErrors = fe
		f.mu.Unlock()
		return zero, fe
	}
	f.state.FieldErrors = nil
	f.state.Phase = PhasePreviewing
	f.mu.Unlock()

	p, err := f.steps.Preview(ctx, in)

	f.mu.Lock()
	defer f.mu.Unlock()
	if err != nil {
		f.state.Phase = PhaseEditing
		f.fail(err)
		return zero, err
	}
	f.state.Phase = PhaseConfirming
	f.state.Preview = p
	return p, nil
}

// Confirm submits the frozen preview with a fresh idempotency key. A second
// Confirm while the first is in flight is rejected.
func (f *Flow[In, P]) Confirm(ctx context.Context) (Outcome, error) {
	f.mu.Lock()
	switch f.state.Phase {
	case PhaseSubmitting, PhasePreviewing:
		f.mu.Unlock()
		return Outcome{}, ErrBusy
	case PhaseConfirming:
	default:
		f.mu.Unlock()
		return Outcome{}, ErrNotConfirming
	}
	in, preview := f.state.Input, f.state.Preview
	key := f.newKey()
	f.state.Key = key
	f.state.Phase = PhaseSubmitting
	f.mu.Unlock()

	out, err := f.steps.Submit(ctx, in, preview, key)

	f.mu.Lock()
	if err != nil {
		var zero P
		f.state.Phase = PhaseEditing
		f.state.Preview = zero
		f.fail(err)
		f.mu.Unlock()
		return Outcome{}, err
	}
	f.state.Phase = PhaseSucceeded
	f.state.Outcome = out
	f.mu.Unlock()

	if f.cache != nil && len(f.steps.Invalidate) > 0 {
		f.cache.Invalidate(f.steps.Invalidate...)
	}
	if f.nav != nil && f.steps.Destination != nil {
		if dest := f.steps.Destination(out); dest != "" {
			f.nav.Navigate(dest)
		}
	}
	return out, nil
}

// Reset returns to an empty Editing state.
func (f *Flow[In, P]) Reset() error {
	var zero In
	return f.Edit(zero)
}

func (f *Flow[In, P]) validate(in In) FieldErrors {
	if f.steps.Validate == nil {
		return nil
	}
	return f.steps.Validate(in)
}

// fail records err; field errors stay field-level, everything else is
// classified for display. Must be called with mu held.
func (f *Flow[In, P]) fail(err error) {
	var fe FieldErrors
	if errors.As(err, &fe) {
		f.state.FieldErrors = fe
		return
	}
	f.state.Error = apierror.Classify(err)
}
