package scheduler

import "sync"

// Ticket identifies one submitted asynchronous request. Later submissions get
// larger tickets.
type Ticket uint64

// Latest applies asynchronous results in submission order: a result is kept
// only if no result from a later submission has been delivered yet. A slow
// response to an old request can therefore never overwrite a newer one.
type Latest[T any] struct {
	mu      sync.Mutex
	next    Ticket
	applied Ticket
	value   T
	has     bool
	onApply func(T)
}

// NewLatest returns an empty gate. onApply, if non-nil, is called with every
// accepted value while the gate's lock is held, so it must not call back into
// the gate.
func NewLatest[T any](onApply func(T)) *Latest[T] {
	return &Latest[T]{onApply: onApply}
}

// Submit reserves the next ticket.
func (l *Latest[T]) Submit() Ticket {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.next++
	return l.next
}

// Deliver offers the result for ticket t. It reports whether the value was
// applied; results older than the newest applied one are dropped.
func (l *Latest[T]) Deliver(t Ticket, v T) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if t <= l.applied || t > l.next {
		return false
	}
	l.applied = t
	l.value = v
	l.has = true
	if l.onApply != nil {
		l.onApply(v)
	}
	return true
}

// Value returns the newest applied value.
func (l *Latest[T]) Value() (T, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.value, l.has
}
