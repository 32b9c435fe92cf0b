package circuitbreaker

import (
	"errors"
	"sync"
	"time"
)

// State represents the state of the circuit breaker.
type State int

const (
	// Closed is the initial state where requests are allowed.
	Closed State = iota
	// Open state is when the circuit has tripped and requests are blocked.
	Open
	// HalfOpen lets trial requests through to test whether the backend recovered.
	HalfOpen
)

// String returns the string representation of the state.
func (s State) String() string {
	switch s {
	case Closed:
		return "Closed"
	case Open:
		return "Open"
	case HalfOpen:
		return "Half-Open"
	default:
		return "Unknown"
	}
}

// ErrCircuitOpen is returned when the circuit breaker is in the Open state.
var ErrCircuitOpen = errors.New("circuit breaker is open")

// CircuitBreaker guards calls to an unreliable dependency.
type CircuitBreaker interface {
	// Execute runs fn unless the circuit is open. The error returned by fn counts as a failure.
	Execute(fn func() error) error
	// State returns the current state of the circuit breaker.
	State() State
}

// Option customizes a breaker created by New.
type Option func(*breaker)

// WithStateChange registers a callback invoked (outside the lock) on every transition.
func WithStateChange(fn func(from, to State)) Option {
	return func(b *breaker) {
		b.onStateChange = fn
	}
}

// WithClock replaces time.Now; used by tests.
func WithClock(now func() time.Time) Option {
	return func(b *breaker) {
		b.now = now
	}
}

type breaker struct {
	failureThreshold uint32        // Consecutive failures that trip the circuit.
	successThreshold uint32        // Consecutive half-open successes that close it again.
	openTimeout      time.Duration // Time spent Open before moving to HalfOpen.

	mu        sync.Mutex
	state     State
	failures  uint32
	successes uint32
	openedAt  time.Time

	now           func() time.Time
	onStateChange func(from, to State)
}

// New creates a circuit breaker.
// failureThreshold: consecutive failures required to open the circuit.
// successThreshold: consecutive half-open successes required to close it.
// timeout: how long the circuit stays open before allowing a trial request.
func New(failureThreshold, successThreshold uint32, timeout time.Duration, opts ...Option) CircuitBreaker {
	b := &breaker{
		failureThreshold: max(failureThreshold, 1),
		successThreshold: max(successThreshold, 1),
		openTimeout:      timeout,
		state:            Closed,
		now:              time.Now,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

func (b *breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.currentState()
}

func (b *breaker) Execute(fn func() error) error {
	b.mu.Lock()
	from := b.state
	state := b.currentState()
	b.mu.Unlock()
	b.notify(from, state)

	if state == Open {
		return ErrCircuitOpen
	}

	err := fn()

	b.mu.Lock()
	from = b.state
	if err != nil {
		b.onFailure()
	} else {
		b.onSuccess()
	}
	to := b.state
	b.mu.Unlock()
	b.notify(from, to)

	return err
}

// currentState moves Open to HalfOpen once the timeout elapsed. Callers hold mu.
func (b *breaker) currentState() State {
	if b.state == Open && b.now().Sub(b.openedAt) > b.openTimeout {
		b.state = HalfOpen
		b.successes = 0
	}
	return b.state
}

func (b *breaker) onSuccess() {
	switch b.state {
	case HalfOpen:
		b.successes++
		if b.successes >= b.successThreshold {
			b.state = Closed
			b.failures = 0
			b.successes = 0
		}
	case Closed:
		b.failures = 0
	}
}

func (b *breaker) onFailure() {
	switch b.state {
	case HalfOpen:
		b.trip()
	case Closed:
		b.failures++
		if b.failures >= b.failureThreshold {
			b.trip()
		}
	}
}

func (b *breaker) trip() {
	b.state = Open
	b.openedAt = b.now()
	b.failures = 0
	b.successes = 0
}

func (b *breaker) notify(from, to State) {
	if from != to && b.onStateChange != nil {
		b.onStateChange(from, to)
	}
}
