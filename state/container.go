package state

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/tailored-agentic-units/state/observability"
)

// Option configures a Container at construction.
type Option func(*options)

type options struct {
	observer observability.Observer
	source   string
	clone    any
}

// WithObserver sets the observer that receives the container's events.
// A nil observer leaves the default NoOpObserver in place.
func WithObserver(o observability.Observer) Option {
	return func(opts *options) {
		if o != nil {
			opts.observer = o
		}
	}
}

// WithSource sets the Source of the container's events.
func WithSource(source string) Option {
	return func(opts *options) {
		if source != "" {
			opts.source = source
		}
	}
}

// WithClone sets the copy function used whenever the value leaves the
// container: by Get, Any and for each subscriber during fan-out. Use it
// for values holding slices, maps or pointers so callers cannot alias the
// stored value.
//
// The function must take the container's own value type; a mismatched
// function is ignored.
func WithClone[T any](clone func(T) T) Option {
	return func(opts *options) {
		if clone != nil {
			opts.clone = clone
		}
	}
}

// Untyped is the type-erased view of a Container, used by registries and
// diagnostics that handle containers of different value types together.
type Untyped interface {
	ID() string
	Type() reflect.Type
	Version() uint64
	SubscriberCount() int
	Poisoned() bool
	Any() (any, error)
}

// Container holds one value of type T behind a reader-writer lock and
// notifies subscribers after every successful mutation.
//
// Fan-out runs after the lock is released, on the goroutine that performed
// the mutation, so callbacks may call back into the container. Each fan-out
// carries the value produced by its own mutation.
type Container[T any] struct {
	mu       sync.RWMutex
	value    T
	version  uint64
	poisoned bool

	subs     Subscribers[T]
	id       string
	clone    func(T) T
	observer observability.Observer
	source   string
}

var _ Untyped = (*Container[int])(nil)

// New creates a container holding initial, with no subscribers.
func New[T any](initial T, opts ...Option) *Container[T] {
	o := options{
		observer: observability.NoOpObserver{},
		source:   defaultSource,
	}
	for _, opt := range opts {
		opt(&o)
	}

	c := &Container[T]{
		value:    initial,
		id:       uuid.Must(uuid.NewV7()).String(),
		observer: o.observer,
		source:   o.source,
	}
	if clone, ok := o.clone.(func(T) T); ok {
		c.clone = clone
		c.subs.setPrepare(clone)
	}

	c.emit(EventCreate, observability.LevelVerbose, map[string]any{
		"type": c.Type().String(),
	})
	return c
}

// FromConfig creates a container from cfg. Options are applied after the
// config, so they override it.
func FromConfig[T any](cfg *Config, initial T, opts ...Option) (*Container[T], error) {
	base, err := cfg.Options()
	if err != nil {
		return nil, err
	}
	return New(initial, append(base, opts...)...), nil
}

// ID returns the container's unique identifier.
func (c *Container[T]) ID() string {
	return c.id
}

// Type returns the reflect.Type of T.
func (c *Container[T]) Type() reflect.Type {
	return reflect.TypeFor[T]()
}

// Get returns a copy of the current value.
func (c *Container[T]) Get() (T, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.poisoned {
		var zero T
		return zero, ErrLockPoisoned
	}
	return c.copyOf(c.value), nil
}

// View calls fn with the current value while holding the read lock. fn must
// not retain or modify the value, and must not mutate the container.
func (c *Container[T]) View(fn func(T)) error {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.poisoned {
		return ErrLockPoisoned
	}
	if fn != nil {
		fn(c.value)
	}
	return nil
}

// Any returns a copy of the current value as an any.
func (c *Container[T]) Any() (any, error) {
	v, err := c.Get()
	if err != nil {
		return nil, err
	}
	return v, nil
}

// Set replaces the value and notifies subscribers with it.
func (c *Container[T]) Set(value T) error {
	next, version, err := c.apply(func(T) T { return value })
	if err != nil {
		return err
	}
	c.notify(next, version, EventSet, nil)
	return nil
}

// Update replaces the value with fn(value) atomically: no other writer runs
// between the read and the write. Subscribers are notified with the result.
// A nil fn does nothing.
func (c *Container[T]) Update(fn func(T) T) error {
	if fn == nil {
		return nil
	}

	next, version, err := c.apply(fn)
	if err != nil {
		return err
	}
	c.notify(next, version, EventUpdate, nil)
	return nil
}

// Subscribe registers fn to be called with every new value and returns the
// handle that removes it.
func (c *Container[T]) Subscribe(fn func(T)) Handle {
	h := c.subs.Add(fn)
	if h != 0 {
		c.emit(EventSubscribe, observability.LevelVerbose, map[string]any{
			"handle":      uint64(h),
			"subscribers": c.subs.Len(),
		})
	}
	return h
}

// Unsubscribe removes the callback registered under h. Removing an unknown
// or already removed handle is a no-op.
func (c *Container[T]) Unsubscribe(h Handle) {
	if c.subs.Remove(h) {
		c.emit(EventUnsubscribe, observability.LevelVerbose, map[string]any{
			"handle":      uint64(h),
			"subscribers": c.subs.Len(),
		})
	}
}

// SubscriberCount returns the number of active subscriptions.
func (c *Container[T]) SubscriberCount() int {
	return c.subs.Len()
}

// Version returns the number of mutations applied so far. Every Set, Update
// and non-empty transaction commit increments it by one while holding the
// write lock, so versions follow the order writers acquired the lock.
func (c *Container[T]) Version() uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.version
}

// Poisoned reports whether a mutation panicked while holding the lock.
func (c *Container[T]) Poisoned() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.poisoned
}

// Begin starts a transaction against the container.
func (c *Container[T]) Begin() *Transaction[T] {
	return NewTransaction(c)
}

// apply runs fn under the write lock and returns the stored result together
// with the new version. A panic in fn poisons the container.
func (c *Container[T]) apply(fn func(T) T) (T, uint64, error) {
	next, version, err := c.applyLocked(fn)

	var perr *PoisonError
	if errors.As(err, &perr) {
		c.emit(EventPoisoned, observability.LevelError, map[string]any{
			"panic": fmt.Sprint(perr.Panic),
		})
	}
	return next, version, err
}

func (c *Container[T]) applyLocked(fn func(T) T) (next T, version uint64, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.poisoned {
		return next, 0, ErrLockPoisoned
	}

	defer func() {
		if r := recover(); r != nil {
			c.poisoned = true
			err = &PoisonError{ContainerID: c.id, Panic: r}
		}
	}()

	c.value = fn(c.value)
	c.version++
	return c.copyOf(c.value), c.version, nil
}

// notify fans value out to subscribers and reports the mutation and any
// failed callbacks to the observer.
func (c *Container[T]) notify(value T, version uint64, event observability.EventType, data map[string]any) {
	errs := c.subs.Notify(value)

	if data == nil {
		data = make(map[string]any, 3)
	}
	data["version"] = version
	data["subscribers"] = c.subs.Len()
	data["failed"] = len(errs)
	c.emit(event, observability.LevelVerbose, data)

	for _, err := range errs {
		fields := map[string]any{
			"version": version,
			"error":   err.Error(),
		}
		var cerr *CallbackError
		if errors.As(err, &cerr) {
			fields["handle"] = uint64(cerr.Handle)
		}
		c.emit(EventSubscriberFailed, observability.LevelError, fields)
	}
}

func (c *Container[T]) copyOf(v T) T {
	if c.clone == nil {
		return v
	}
	return c.clone(v)
}

func (c *Container[T]) emit(t observability.EventType, level observability.Level, data map[string]any) {
	if c.observer == nil {
		return
	}
	if data == nil {
		data = make(map[string]any, 1)
	}
	data["container"] = c.id

	c.observer.OnEvent(context.Background(), observability.Event{
		Type:      t,
		Level:     level,
		Timestamp: time.Now(),
		Source:    c.source,
		Data:      data,
	})
}
