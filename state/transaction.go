package state

import (
	"sync"

	"github.com/google/uuid"
	"github.com/tailored-agentic-units/state/observability"
)

// Transaction batches updates to one container so they land together.
//
// Queued operations do not touch the container. Commit applies all of them,
// in the order they were queued, under a single write-lock acquisition and
// notifies subscribers once with the final value. Subscribers never see an
// intermediate value. A transaction that is dropped without Commit changes
// nothing.
//
// Commit is final: a transaction commits at most once and cannot be rolled
// back.
type Transaction[T any] struct {
	id        string
	container *Container[T]

	mu        sync.Mutex
	ops       []func(T) T
	committed bool
}

// NewTransaction creates an open, empty transaction bound to c.
func NewTransaction[T any](c *Container[T]) *Transaction[T] {
	return &Transaction[T]{
		id:        uuid.Must(uuid.NewV7()).String(),
		container: c,
	}
}

// ID returns the transaction's unique identifier.
func (tx *Transaction[T]) ID() string {
	return tx.id
}

// Update queues fn. It returns ErrTransactionAlreadyCommitted once the
// transaction has been committed. A nil fn is ignored.
func (tx *Transaction[T]) Update(fn func(T) T) error {
	tx.mu.Lock()
	defer tx.mu.Unlock()

	if tx.committed {
		return ErrTransactionAlreadyCommitted
	}
	if fn != nil {
		tx.ops = append(tx.ops, fn)
	}
	return nil
}

// Len returns the number of queued operations.
func (tx *Transaction[T]) Len() int {
	tx.mu.Lock()
	defer tx.mu.Unlock()
	return len(tx.ops)
}

// Committed reports whether Commit has been called.
func (tx *Transaction[T]) Committed() bool {
	tx.mu.Lock()
	defer tx.mu.Unlock()
	return tx.committed
}

// Commit applies the queued operations and notifies subscribers once.
//
// A second Commit returns ErrTransactionAlreadyCommitted and applies nothing.
// Committing an empty transaction finalizes it without touching the
// container or notifying anyone. If an operation panics the container is
// poisoned, none of the batch is stored and the *PoisonError is returned.
func (tx *Transaction[T]) Commit() error {
	tx.mu.Lock()
	if tx.committed {
		tx.mu.Unlock()
		return ErrTransactionAlreadyCommitted
	}
	tx.committed = true
	ops := tx.ops
	tx.ops = nil
	tx.mu.Unlock()

	c := tx.container
	if c == nil {
		return ErrNilContainer
	}

	if len(ops) == 0 {
		c.emit(EventTransactionEmpty, observability.LevelVerbose, map[string]any{
			"transaction": tx.id,
		})
		return nil
	}

	next, version, err := c.apply(func(value T) T {
		for _, op := range ops {
			value = op(value)
		}
		return value
	})
	if err != nil {
		return err
	}

	c.notify(next, version, EventTransactionCommit, map[string]any{
		"transaction": tx.id,
		"operations":  len(ops),
	})
	return nil
}
