package registry

import "github.com/tailored-agentic-units/state/observability"

const (
	EventRegister   observability.EventType = "registry.register"
	EventReuse      observability.EventType = "registry.reuse"
	EventMismatch   observability.EventType = "registry.mismatch"
	EventUnregister observability.EventType = "registry.unregister"
)
