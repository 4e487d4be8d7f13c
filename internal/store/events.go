package store

import (
	"sync"
	"time"
)

// ChangeKind names the operation that produced a Change.
type ChangeKind string

const (
	ChangeCreated   ChangeKind = "created"
	ChangeUpdated   ChangeKind = "updated"
	ChangeDeleted   ChangeKind = "deleted"
	ChangeRefreshed ChangeKind = "refreshed"

	changeDefaultBuffer = 16
)

// Change notifies observers that a collection's in-memory list changed.
type Change struct {
	Collection string     `json:"collection"`
	Kind       ChangeKind `json:"kind"`
	RecordID   string     `json:"record_id,omitempty"`
	Count      int        `json:"count"`
	Error      string     `json:"error,omitempty"`
	At         time.Time  `json:"at"`
}

// ChangeBroadcaster fans changes out to subscribers. Slow subscribers miss events instead of blocking stores.
type ChangeBroadcaster struct {
	mutex        sync.Mutex
	nextID       int64
	subscribers  map[int64]chan Change
	closed       bool
	bufferLength int
}

// NewChangeBroadcaster constructs an empty broadcaster.
func NewChangeBroadcaster() *ChangeBroadcaster {
	return &ChangeBroadcaster{
		subscribers:  make(map[int64]chan Change),
		bufferLength: changeDefaultBuffer,
	}
}

// Subscribe registers a new subscriber. It returns nil once the broadcaster is closed.
func (broadcaster *ChangeBroadcaster) Subscribe() *Subscription {
	if broadcaster == nil {
		return nil
	}
	broadcaster.mutex.Lock()
	defer broadcaster.mutex.Unlock()
	if broadcaster.closed {
		return nil
	}
	subscriptionID := broadcaster.nextID
	broadcaster.nextID++
	changes := make(chan Change, broadcaster.bufferLength)
	broadcaster.subscribers[subscriptionID] = changes
	return &Subscription{broadcaster: broadcaster, identifier: subscriptionID, changes: changes}
}

// Publish delivers change to every subscriber with room in its buffer.
func (broadcaster *ChangeBroadcaster) Publish(change Change) {
	if broadcaster == nil {
		return
	}
	broadcaster.mutex.Lock()
	defer broadcaster.mutex.Unlock()
	if broadcaster.closed {
		return
	}
	for _, changes := range broadcaster.subscribers {
		select {
		case changes <- change:
		default:
		}
	}
}

// Close closes every subscription channel and rejects later subscriptions.
func (broadcaster *ChangeBroadcaster) Close() {
	if broadcaster == nil {
		return
	}
	broadcaster.mutex.Lock()
	defer broadcaster.mutex.Unlock()
	if broadcaster.closed {
		return
	}
	broadcaster.closed = true
	for identifier, changes := range broadcaster.subscribers {
		close(changes)
		delete(broadcaster.subscribers, identifier)
	}
}

func (broadcaster *ChangeBroadcaster) remove(identifier int64) {
	broadcaster.mutex.Lock()
	defer broadcaster.mutex.Unlock()
	if changes, exists := broadcaster.subscribers[identifier]; exists {
		delete(broadcaster.subscribers, identifier)
		close(changes)
	}
}

// Subscription is one registered observer of a ChangeBroadcaster.
type Subscription struct {
	broadcaster *ChangeBroadcaster
	identifier  int64
	changes     chan Change
	once        sync.Once
}

// Changes exposes the receive side of the subscription. The channel closes on Close.
func (subscription *Subscription) Changes() <-chan Change {
	if subscription == nil {
		return nil
	}
	return subscription.changes
}

// Close unregisters the subscription.
func (subscription *Subscription) Close() {
	if subscription == nil {
		return
	}
	subscription.once.Do(func() {
		subscription.broadcaster.remove(subscription.identifier)
	})
}
