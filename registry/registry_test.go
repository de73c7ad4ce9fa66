package registry_test

import (
	"context"
	"errors"
	"reflect"
	"slices"
	"sync"
	"testing"

	"github.com/tailored-agentic-units/state/observability"
	"github.com/tailored-agentic-units/state/registry"
	"github.com/tailored-agentic-units/state/state"
)

type captureObserver struct {
	mu     sync.Mutex
	events []observability.Event
}

func (c *captureObserver) OnEvent(ctx context.Context, event observability.Event) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, event)
}

func (c *captureObserver) count(t observability.EventType) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	n := 0
	for _, e := range c.events {
		if e.Type == t {
			n++
		}
	}
	return n
}

func TestRegister_NewKey(t *testing.T) {
	r := registry.NewRegistry()

	count, err := registry.Register(r, "count", 0)
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	count.Set(10)

	got, err := registry.Get[int](r, "count")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got != count {
		t.Error("Get() returned a different container than Register()")
	}
	if v, _ := got.Get(); v != 10 {
		t.Errorf("value = %d, want 10", v)
	}
}

func TestRegister_Idempotent(t *testing.T) {
	r := registry.NewRegistry()

	first, err := registry.Register(r, "name", "alice")
	if err != nil {
		t.Fatalf("first Register() error = %v", err)
	}
	second, err := registry.Register(r, "name", "bob")
	if err != nil {
		t.Fatalf("second Register() error = %v", err)
	}

	if first != second {
		t.Error("re-registration returned a different container")
	}
	if v, _ := second.Get(); v != "alice" {
		t.Errorf("value = %q, want alice (second initial value discarded)", v)
	}
	if first.Version() != 0 {
		t.Errorf("Version() = %d, re-registration must not mutate", first.Version())
	}
	if r.Len() != 1 {
		t.Errorf("Len() = %d, want 1", r.Len())
	}
}

func TestRegister_TypeMismatch(t *testing.T) {
	r := registry.NewRegistry()
	if _, err := registry.Register(r, "count", 0); err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	c, err := registry.Register(r, "count", "zero")
	if !errors.Is(err, registry.ErrTypeMismatch) {
		t.Fatalf("Register() error = %v, want ErrTypeMismatch", err)
	}
	if c != nil {
		t.Error("mismatched Register() returned a container")
	}

	var terr *registry.TypeMismatchError
	if !errors.As(err, &terr) {
		t.Fatalf("error %T is not *TypeMismatchError", err)
	}
	if terr.Key != "count" || terr.Registered != reflect.TypeFor[int]() || terr.Requested != reflect.TypeFor[string]() {
		t.Errorf("TypeMismatchError = %+v", terr)
	}
}

func TestRegister_EmptyKey(t *testing.T) {
	r := registry.NewRegistry()

	if _, err := registry.Register(r, "", 1); !errors.Is(err, registry.ErrEmptyKey) {
		t.Errorf("Register(\"\") error = %v, want ErrEmptyKey", err)
	}
}

func TestGet(t *testing.T) {
	r := registry.NewRegistry()
	registry.Register(r, "count", 0)
	registry.Register(r, "names", []string{"a"})

	tests := []struct {
		name    string
		lookup  func() error
		wantErr error
	}{
		{
			name:   "matching int",
			lookup: func() error { _, err := registry.Get[int](r, "count"); return err },
		},
		{
			name:   "matching slice",
			lookup: func() error { _, err := registry.Get[[]string](r, "names"); return err },
		},
		{
			name:    "unknown key",
			lookup:  func() error { _, err := registry.Get[int](r, "missing"); return err },
			wantErr: registry.ErrNotFound,
		},
		{
			name:    "wrong type",
			lookup:  func() error { _, err := registry.Get[int64](r, "count"); return err },
			wantErr: registry.ErrTypeMismatch,
		},
		{
			name:    "interface type is not the concrete type",
			lookup:  func() error { _, err := registry.Get[any](r, "count"); return err },
			wantErr: registry.ErrTypeMismatch,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.lookup()
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("error = %v, want nil", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

type point struct{ X, Y int }

func TestRegistry_NamedTypes(t *testing.T) {
	type otherPoint struct{ X, Y int }
	r := registry.NewRegistry()

	if _, err := registry.Register(r, "origin", point{}); err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	if _, err := registry.Get[otherPoint](r, "origin"); !errors.Is(err, registry.ErrTypeMismatch) {
		t.Errorf("Get[otherPoint]() error = %v, want ErrTypeMismatch", err)
	}
	if _, err := registry.Get[*point](r, "origin"); !errors.Is(err, registry.ErrTypeMismatch) {
		t.Errorf("Get[*point]() error = %v, want ErrTypeMismatch", err)
	}
}

func TestRegistry_Unregister(t *testing.T) {
	r := registry.NewRegistry()
	c, _ := registry.Register(r, "count", 1)

	if !r.Unregister("count") {
		t.Error("Unregister() = false, want true")
	}
	if r.Unregister("count") {
		t.Error("second Unregister() = true, want false")
	}
	if r.Has("count") {
		t.Error("Has() = true after Unregister")
	}

	// The external handle outlives the registration.
	if err := c.Set(2); err != nil {
		t.Errorf("Set() on unregistered container error = %v", err)
	}
	if v, _ := c.Get(); v != 2 {
		t.Errorf("value = %d, want 2", v)
	}

	fresh, _ := registry.Register(r, "count", 100)
	if fresh == c {
		t.Error("registering after Unregister should create a new container")
	}
	if v, _ := fresh.Get(); v != 100 {
		t.Errorf("fresh value = %d, want 100", v)
	}
}

func TestRegistry_KeysAndEntries(t *testing.T) {
	r := registry.NewRegistry()
	b, _ := registry.Register(r, "b", "x")
	registry.Register(r, "a", 1)
	registry.Register(r, "c", 2.5)

	b.Subscribe(func(string) {})
	b.Set("y")

	if keys := r.Keys(); !slices.Equal(keys, []string{"a", "b", "c"}) {
		t.Errorf("Keys() = %v, want [a b c]", keys)
	}

	entries := r.Entries()
	if len(entries) != 3 {
		t.Fatalf("Entries() returned %d entries, want 3", len(entries))
	}
	e := entries[1]
	if e.Key != "b" || e.Type != reflect.TypeFor[string]() {
		t.Errorf("entry = %+v", e)
	}
	if e.ContainerID != b.ID() || e.Version != 1 || e.SubscriberCount != 1 {
		t.Errorf("entry = %+v, want container %s version 1 subscribers 1", e, b.ID())
	}
	if e.Registered.IsZero() {
		t.Error("entry Registered time is zero")
	}
}

func TestRegistry_Lookup(t *testing.T) {
	r := registry.NewRegistry()
	registry.Register(r, "count", 7)

	u, ok := r.Lookup("count")
	if !ok {
		t.Fatal("Lookup() ok = false")
	}
	if u.Type() != reflect.TypeFor[int]() {
		t.Errorf("Type() = %v, want int", u.Type())
	}
	v, err := u.Any()
	if err != nil || v != 7 {
		t.Errorf("Any() = %v, %v; want 7, nil", v, err)
	}

	if _, ok := r.Lookup("missing"); ok {
		t.Error("Lookup(missing) ok = true")
	}
}

func TestRegistry_ContainerOptions(t *testing.T) {
	containerObs := &captureObserver{}
	registryObs := &captureObserver{}
	r := registry.NewRegistry(
		registry.WithObserver(registryObs),
		registry.WithContainerOptions(state.WithObserver(containerObs), state.WithSource("app")),
	)

	c, _ := registry.Register(r, "count", 0)
	c.Set(1)
	registry.Register(r, "count", 0)
	registry.Get[string](r, "count")
	r.Unregister("count")

	if containerObs.count(state.EventSet) != 1 {
		t.Errorf("container observer saw %d set events, want 1", containerObs.count(state.EventSet))
	}

	tests := []struct {
		event observability.EventType
		want  int
	}{
		{registry.EventRegister, 1},
		{registry.EventReuse, 1},
		{registry.EventMismatch, 1},
		{registry.EventUnregister, 1},
	}
	for _, tt := range tests {
		t.Run(string(tt.event), func(t *testing.T) {
			if got := registryObs.count(tt.event); got != tt.want {
				t.Errorf("%s emitted %d times, want %d", tt.event, got, tt.want)
			}
		})
	}
}
