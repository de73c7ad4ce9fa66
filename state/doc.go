// Package state provides goroutine-safe containers for typed values with
// synchronous change notification and batched, atomic updates.
//
// # Containers
//
// A Container holds one value behind a sync.RWMutex. Readers run
// concurrently; writers are exclusive and totally ordered, and every
// successful write increments the container's version.
//
//	counter := state.New(0)
//	h := counter.Subscribe(func(v int) {
//	    fmt.Println("counter is now", v)
//	})
//	counter.Set(5)                                       // prints 5
//	counter.Update(func(v int) int { return v + 1 })     // prints 6
//	counter.Unsubscribe(h)
//
// Subscribers run on the goroutine that performed the write, in subscription
// order, after the lock is released. A subscriber may read or write the
// container it observes. A subscriber that panics is recovered and reported
// through the observer as EventSubscriberFailed; the write itself has already
// landed and the remaining subscribers still run.
//
// # Transactions
//
// A Transaction queues updates and applies them together:
//
//	tx := counter.Begin()
//	tx.Update(func(v int) int { return v + 1 })
//	tx.Update(func(v int) int { return v * 2 })
//	err := tx.Commit() // one lock acquisition, one notification
//
// Subscribers see only the final value of the batch. Committing twice returns
// ErrTransactionAlreadyCommitted; an empty commit notifies nobody.
//
// # Poisoning
//
// A transform that panics while the write lock is held poisons the
// container. The panicking call returns a *PoisonError and every later
// operation returns ErrLockPoisoned; the container must be replaced.
//
// # Copies
//
// Get returns the value by assignment, which is a shallow copy. Containers of
// slices, maps or pointers should be created WithClone so readers and
// subscribers get their own copy:
//
//	items := state.New([]string{}, state.WithClone(slices.Clone[[]string]))
//
// # Observability
//
// Containers report creation, writes, subscriptions, commits, callback
// failures and poisoning to an observability.Observer. Event data holds
// identifiers, versions and counts, never the stored value.
package state
