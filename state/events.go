package state

import "github.com/tailored-agentic-units/state/observability"

const (
	// Container lifecycle and mutation
	EventCreate   observability.EventType = "state.create"
	EventSet      observability.EventType = "state.set"
	EventUpdate   observability.EventType = "state.update"
	EventPoisoned observability.EventType = "state.poisoned"

	// Subscriptions
	EventSubscribe        observability.EventType = "state.subscribe"
	EventUnsubscribe      observability.EventType = "state.unsubscribe"
	EventSubscriberFailed observability.EventType = "state.subscriber.failed"

	// Transactions
	EventTransactionCommit observability.EventType = "state.transaction.commit"
	EventTransactionEmpty  observability.EventType = "state.transaction.empty"
)
