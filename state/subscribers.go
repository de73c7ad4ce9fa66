package state

import (
	"slices"
	"sync"
)

// Handle identifies a subscription. The zero Handle never refers to a
// subscriber, so removing it is always a no-op.
type Handle uint64

type subscriber[T any] struct {
	handle Handle
	fn     func(T)
}

// Subscribers is an ordered set of change callbacks for one value.
// The zero value is ready to use.
//
// Notify works on a snapshot of the callbacks taken before the first one
// runs: callbacks added or removed during a fan-out take part in the next
// one, not the current one.
type Subscribers[T any] struct {
	mu   sync.Mutex
	list []subscriber[T]
	next Handle

	// prepare, when set, produces the value handed to each callback.
	prepare func(T) T
}

// Add appends fn and returns its handle. A nil fn is not registered and
// yields the zero Handle.
func (s *Subscribers[T]) Add(fn func(T)) Handle {
	if fn == nil {
		return 0
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.next++
	h := s.next
	s.list = append(s.list, subscriber[T]{handle: h, fn: fn})
	return h
}

// Remove drops the callback registered under h and reports whether one was
// found. Unknown and already removed handles are ignored.
func (s *Subscribers[T]) Remove(h Handle) bool {
	if h == 0 {
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	i := slices.IndexFunc(s.list, func(sub subscriber[T]) bool {
		return sub.handle == h
	})
	if i < 0 {
		return false
	}

	// Copy-on-write so snapshots held by an in-flight Notify stay intact.
	s.list = slices.Delete(slices.Clone(s.list), i, i+1)
	return true
}

// Len returns the number of registered callbacks.
func (s *Subscribers[T]) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.list)
}

// Notify calls every callback, in subscription order, with value. A callback
// that panics is recovered and reported as a *CallbackError in the returned
// slice; the remaining callbacks still run.
func (s *Subscribers[T]) Notify(value T) []error {
	s.mu.Lock()
	subs := s.list
	prepare := s.prepare
	s.mu.Unlock()

	var errs []error
	for _, sub := range subs {
		v := value
		if prepare != nil {
			v = prepare(value)
		}
		if err := invoke(sub, v); err != nil {
			errs = append(errs, err)
		}
	}
	return errs
}

func (s *Subscribers[T]) setPrepare(fn func(T) T) {
	s.mu.Lock()
	s.prepare = fn
	s.mu.Unlock()
}

func invoke[T any](sub subscriber[T], value T) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &CallbackError{Handle: sub.handle, Panic: r}
		}
	}()
	sub.fn(value)
	return nil
}
