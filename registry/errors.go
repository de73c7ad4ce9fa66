package registry

import (
	"errors"
	"fmt"
	"reflect"
)

// Sentinel errors for registry operations.
var (
	ErrNotFound     = errors.New("state not registered")
	ErrEmptyKey     = errors.New("state key is empty")
	ErrTypeMismatch = errors.New("state type mismatch")
)

// TypeMismatchError reports a typed access whose type differs from the type
// the key was registered with.
type TypeMismatchError struct {
	Key        string
	Registered reflect.Type
	Requested  reflect.Type
}

func (e *TypeMismatchError) Error() string {
	return fmt.Sprintf("state %q registered as %v, requested as %v", e.Key, e.Registered, e.Requested)
}

func (e *TypeMismatchError) Unwrap() error {
	return ErrTypeMismatch
}
