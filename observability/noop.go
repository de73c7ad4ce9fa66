package observability

import "context"

// NoOpObserver discards every event. It is the default for containers that
// are constructed without an observer.
type NoOpObserver struct{}

func (NoOpObserver) OnEvent(ctx context.Context, event Event) {}
