package feed

import (
	"sync"

	"tokenfeed/src/interfaces"
)

// -----------------------------------------------------------------------------
// SubscriptionRegistry
// -----------------------------------------------------------------------------

// SubscriptionRegistry tracks, per message type, which consumer callbacks are
// interested. Entries are keyed by (topic, consumerID); re-registering the
// same pair replaces the prior callback so a consumer is never delivered the
// same event twice. The registry lives independently of the connection, which
// is what lets subscriptions survive reconnects.
type SubscriptionRegistry struct {
	mu      sync.RWMutex
	entries map[string]map[string]interfaces.FeedCallback
}

// -----------------------------------------------------------------------------

func NewSubscriptionRegistry() *SubscriptionRegistry {
	return &SubscriptionRegistry{
		entries: make(map[string]map[string]interfaces.FeedCallback),
	}
}

// -----------------------------------------------------------------------------

// Register adds or replaces the callback for (topic, consumerID).
func (r *SubscriptionRegistry) Register(topic, consumerID string, cb interfaces.FeedCallback) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.entries[topic]; !ok {
		r.entries[topic] = make(map[string]interfaces.FeedCallback)
	}
	r.entries[topic][consumerID] = cb
}

// -----------------------------------------------------------------------------

// Deregister removes the (topic, consumerID) entry if present.
func (r *SubscriptionRegistry) Deregister(topic, consumerID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if consumers, ok := r.entries[topic]; ok {
		delete(consumers, consumerID)
		if len(consumers) == 0 {
			delete(r.entries, topic)
		}
	}
}

// -----------------------------------------------------------------------------

// Snapshot returns a copy of the callbacks registered for topic. Dispatch
// iterates over the copy, so concurrent mount/unmount cannot race the loop.
func (r *SubscriptionRegistry) Snapshot(topic string) []interfaces.FeedCallback {
	r.mu.RLock()
	defer r.mu.RUnlock()

	consumers, ok := r.entries[topic]
	if !ok {
		return nil
	}

	out := make([]interfaces.FeedCallback, 0, len(consumers))
	for _, cb := range consumers {
		out = append(out, cb)
	}
	return out
}

// -----------------------------------------------------------------------------

// Topics returns every topic with at least one registered consumer.
func (r *SubscriptionRegistry) Topics() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]string, 0, len(r.entries))
	for topic := range r.entries {
		out = append(out, topic)
	}
	return out
}

// -----------------------------------------------------------------------------

// Count returns the number of consumers registered for topic.
func (r *SubscriptionRegistry) Count(topic string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries[topic])
}
