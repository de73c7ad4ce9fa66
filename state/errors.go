package state

import (
	"errors"
	"fmt"
)

// Sentinel errors for containers and transactions.
var (
	ErrLockPoisoned                = errors.New("state lock poisoned")
	ErrTransactionAlreadyCommitted = errors.New("transaction already committed")
	ErrSubscriberCallbackFailed    = errors.New("subscriber callback failed")
	ErrNilContainer                = errors.New("transaction has no container")
)

// PoisonError is returned by the mutation that poisoned a container: the
// transform panicked while the write lock was held. Every later operation on
// the container returns ErrLockPoisoned.
type PoisonError struct {
	ContainerID string
	Panic       any
}

func (e *PoisonError) Error() string {
	return fmt.Sprintf("container %s: mutation panicked: %v", e.ContainerID, e.Panic)
}

func (e *PoisonError) Unwrap() error {
	return ErrLockPoisoned
}

// CallbackError reports a subscriber that panicked during fan-out. It never
// aborts the fan-out or the mutation that triggered it.
type CallbackError struct {
	Handle Handle
	Panic  any
}

func (e *CallbackError) Error() string {
	return fmt.Sprintf("subscriber %d panicked: %v", e.Handle, e.Panic)
}

func (e *CallbackError) Unwrap() error {
	return ErrSubscriberCallbackFailed
}
