// Package registry manages many named state containers of different value
// types behind string keys.
//
// Containers are stored type-erased and recovered with a checked type
// assertion on every typed access, so a container can never be observed as
// the wrong type:
//
//	r := registry.NewRegistry()
//	count, err := registry.Register(r, "count", 0)
//	count.Set(10)
//
//	same, err := registry.Get[int](r, "count")    // same container, value 10
//	_, err = registry.Get[string](r, "count")     // ErrTypeMismatch
//
// Registration is idempotent: registering an existing key with the same type
// returns the existing container and discards the new initial value.
//
// There is no process-wide registry. Construct one in the application's
// composition root and pass it to the code that needs it.
package registry

import (
	"context"
	"fmt"
	"reflect"
	"sort"
	"sync"
	"time"

	"github.com/tailored-agentic-units/state/observability"
	"github.com/tailored-agentic-units/state/state"
)

// Option configures a Registry after config-driven initialization.
type Option func(*Registry)

// WithObserver overrides the observer that receives registry events.
func WithObserver(o observability.Observer) Option {
	return func(r *Registry) {
		if o != nil {
			r.observer = o
		}
	}
}

// WithContainerOptions appends options applied to every container created
// by Register. They run after the config-derived options.
func WithContainerOptions(opts ...state.Option) Option {
	return func(r *Registry) {
		r.containerOpts = append(r.containerOpts, opts...)
	}
}

// Entry describes one registered key in a Registry snapshot.
type Entry struct {
	Key             string
	Type            reflect.Type
	ContainerID     string
	Version         uint64
	SubscriberCount int
	Registered      time.Time
}

type entry struct {
	typ        reflect.Type
	container  state.Untyped
	registered time.Time
}

// Registry maps string keys to containers of arbitrary value types.
// It is safe for concurrent use.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]entry

	observer      observability.Observer
	containerOpts []state.Option
}

// New creates a Registry from configuration. Options are applied after the
// config and override it.
func New(cfg *Config, opts ...Option) (*Registry, error) {
	merged := DefaultConfig()
	if cfg != nil {
		merged.Merge(cfg)
	}

	observer, err := observability.GetObserver(merged.Observer)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve registry observer: %w", err)
	}

	containerOpts, err := merged.Container.Options()
	if err != nil {
		return nil, fmt.Errorf("failed to configure containers: %w", err)
	}

	r := &Registry{
		entries:       make(map[string]entry),
		observer:      observer,
		containerOpts: containerOpts,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// NewRegistry creates an empty Registry that reports nothing unless options
// say otherwise.
func NewRegistry(opts ...Option) *Registry {
	r := &Registry{
		entries:  make(map[string]entry),
		observer: observability.NoOpObserver{},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register returns the container stored under key, creating it with initial
// if the key is unused. An existing container of the same type is returned
// as is; its value is not reset. An existing container of another type
// yields a *TypeMismatchError.
func Register[T any](r *Registry, key string, initial T) (*state.Container[T], error) {
	if key == "" {
		return nil, ErrEmptyKey
	}

	// Fast path: the key is usually registered already.
	r.mu.RLock()
	e, exists := r.entries[key]
	r.mu.RUnlock()
	if exists {
		return reuse[T](r, key, e)
	}

	r.mu.Lock()
	if e, exists = r.entries[key]; exists {
		r.mu.Unlock()
		return reuse[T](r, key, e)
	}

	c := state.New(initial, r.containerOpts...)
	r.entries[key] = entry{
		typ:        c.Type(),
		container:  c,
		registered: time.Now(),
	}
	r.mu.Unlock()

	r.emit(EventRegister, observability.LevelVerbose, map[string]any{
		"key":       key,
		"type":      c.Type().String(),
		"container": c.ID(),
	})
	return c, nil
}

// Get returns the container registered under key as a *state.Container[T].
// It returns ErrNotFound for an unknown key and a *TypeMismatchError when T
// differs from the registered type.
func Get[T any](r *Registry, key string) (*state.Container[T], error) {
	r.mu.RLock()
	e, exists := r.entries[key]
	r.mu.RUnlock()

	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, key)
	}
	return typed[T](r, key, e)
}

// Lookup returns the type-erased container registered under key.
func (r *Registry) Lookup(key string) (state.Untyped, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, exists := r.entries[key]
	if !exists {
		return nil, false
	}
	return e.container, true
}

// Unregister removes key and reports whether it was present. Handles to the
// container obtained earlier keep working; the registry simply forgets it.
func (r *Registry) Unregister(key string) bool {
	r.mu.Lock()
	e, exists := r.entries[key]
	delete(r.entries, key)
	r.mu.Unlock()

	if exists {
		r.emit(EventUnregister, observability.LevelVerbose, map[string]any{
			"key":       key,
			"container": e.container.ID(),
		})
	}
	return exists
}

// Has reports whether key is registered.
func (r *Registry) Has(key string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, exists := r.entries[key]
	return exists
}

// Len returns the number of registered keys.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

// Keys returns the registered keys in sorted order.
func (r *Registry) Keys() []string {
	r.mu.RLock()
	keys := make([]string, 0, len(r.entries))
	for key := range r.entries {
		keys = append(keys, key)
	}
	r.mu.RUnlock()

	sort.Strings(keys)
	return keys
}

// Entries returns a snapshot of all registrations sorted by key, for
// diagnostics.
func (r *Registry) Entries() []Entry {
	r.mu.RLock()
	snapshot := make(map[string]entry, len(r.entries))
	for key, e := range r.entries {
		snapshot[key] = e
	}
	r.mu.RUnlock()

	// Container state is read after releasing the registry lock so that a
	// busy container never stalls registry access.
	entries := make([]Entry, 0, len(snapshot))
	for key, e := range snapshot {
		entries = append(entries, Entry{
			Key:             key,
			Type:            e.typ,
			ContainerID:     e.container.ID(),
			Version:         e.container.Version(),
			SubscriberCount: e.container.SubscriberCount(),
			Registered:      e.registered,
		})
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Key < entries[j].Key
	})
	return entries
}

func reuse[T any](r *Registry, key string, e entry) (*state.Container[T], error) {
	c, err := typed[T](r, key, e)
	if err != nil {
		return nil, err
	}

	r.emit(EventReuse, observability.LevelVerbose, map[string]any{
		"key":       key,
		"container": c.ID(),
	})
	return c, nil
}

func typed[T any](r *Registry, key string, e entry) (*state.Container[T], error) {
	c, ok := e.container.(*state.Container[T])
	if !ok {
		err := &TypeMismatchError{
			Key:        key,
			Registered: e.typ,
			Requested:  reflect.TypeFor[T](),
		}
		r.emit(EventMismatch, observability.LevelWarning, map[string]any{
			"key":        key,
			"registered": err.Registered.String(),
			"requested":  err.Requested.String(),
		})
		return nil, err
	}
	return c, nil
}

func (r *Registry) emit(t observability.EventType, level observability.Level, data map[string]any) {
	if r.observer == nil {
		return
	}
	r.observer.OnEvent(context.Background(), observability.Event{
		Type:      t,
		Level:     level,
		Timestamp: time.Now(),
		Source:    "registry",
		Data:      data,
	})
}
