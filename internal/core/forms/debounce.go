package forms

import (
	"context"
	"sync"
	"time"
)

// DefaultDebounce is the pause after the last keystroke before a lookup fires.
const DefaultDebounce = 500 * time.Millisecond

// Debouncer runs only the last of a burst of calls, delay after the burst.
type Debouncer struct {
	delay time.Duration

	mu    sync.Mutex
	gen   uint64
	timer *time.Timer
}

func NewDebouncer(delay time.Duration) *Debouncer {
	if delay <= 0 {
		delay = DefaultDebounce
	}
	return &Debouncer{delay: delay}
}

// Trigger cancels any pending call and schedules fn. fn receives a check that
// stays true only while no later Trigger or Stop has happened.
func (d *Debouncer) Trigger(fn func(current func() bool)) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.gen++
	gen := d.gen
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.delay, func() {
		fn(func() bool { return d.isCurrent(gen) })
	})
}

// Stop cancels the pending call and marks in-flight work as superseded.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.gen++
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}

func (d *Debouncer) isCurrent(gen uint64) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return gen == d.gen
}

// AccountResolver resolves a bank account holder's name.
type AccountResolver interface {
	ResolveAccount(ctx context.Context, accountNumber, bankCode string) (string, error)
}

// LookupResult is delivered for the latest complete account number only.
type LookupResult struct {
	BankCode      string
	AccountNumber string
	AccountName   string
	Err           error
}

// AccountLookup resolves account names while the user types. Partial numbers
// never reach the server, and results of superseded lookups are dropped.
type AccountLookup struct {
	resolver AccountResolver
	debounce *Debouncer
	timeout  time.Duration
	onResult func(LookupResult)
}

func NewAccountLookup(resolver AccountResolver, delay time.Duration, onResult func(LookupResult)) *AccountLookup {
	return &AccountLookup{
		resolver: resolver,
		debounce: NewDebouncer(delay),
		timeout:  15 * time.Second,
		onResult: onResult,
	}
}

// Type records the current field values, as on every keystroke.
func (l *AccountLookup) Type(bankCode, accountNumber string) {
	if bankCode == "" || !ValidAccountNumber(accountNumber) {
		l.debounce.Stop()
		return
	}

	l.debounce.Trigger(func(current func() bool) {
		if !current() {
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), l.timeout)
		defer cancel()

		name, err := l.resolver.ResolveAccount(ctx, accountNumber, bankCode)
		if !current() {
			return
		}
		l.onResult(LookupResult{BankCode: bankCode, AccountNumber: accountNumber, AccountName: name, Err: err})
	})
}

// Stop abandons pending and in-flight lookups, as when the view closes.
func (l *AccountLookup) Stop() {
	l.debounce.Stop()
}
