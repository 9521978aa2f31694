package subscription

import (
	"context"
	"fmt"
	"sync"

	"github.com/streamingfast/defi-subgraphs/state"
)

type topicSubscriptions map[string][]*Subscriber

// Hub fans state deltas out to the subscribers of a topic, one topic per
// entity table.
type Hub struct {
	topicSubscriptions topicSubscriptions
	subscribersMutex   sync.Mutex
}

func NewHub() *Hub {
	return &Hub{
		topicSubscriptions: topicSubscriptions{},
	}
}

func (h *Hub) RegisterTopic(topic string) error {
	h.subscribersMutex.Lock()
	defer h.subscribersMutex.Unlock()

	if _, found := h.topicSubscriptions[topic]; found {
		return fmt.Errorf("topic [%s] already registered", topic)
	}
	h.topicSubscriptions[topic] = []*Subscriber{}
	return nil
}

// BroadcastDeltas blocks until every subscriber of topic received the deltas
// or ctx is done. Deltas of a topic nobody registered are dropped.
func (h *Hub) BroadcastDeltas(ctx context.Context, topic string, deltas []state.StateDelta) error {
	if len(deltas) == 0 {
		return nil
	}

	h.subscribersMutex.Lock()
	subscriptions := h.topicSubscriptions[topic]
	h.subscribersMutex.Unlock()

	for _, delta := range deltas {
		for _, subscription := range subscriptions {
			select {
			case subscription.input <- delta:
			case <-subscription.done:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}
	return nil
}

func (h *Hub) Subscribe(subscriber *Subscriber, topic string) error {
	h.subscribersMutex.Lock()
	defer h.subscribersMutex.Unlock()

	if subscriptions, found := h.topicSubscriptions[topic]; found {
		h.topicSubscriptions[topic] = append(subscriptions, subscriber)
		return nil
	}
	return fmt.Errorf("topic [%s] not found", topic)
}

// Unsubscribe removes the subscriber from every topic and closes it.
func (h *Hub) Unsubscribe(removeSub *Subscriber) {
	h.subscribersMutex.Lock()
	defer h.subscribersMutex.Unlock()

	for topic, subscriptions := range h.topicSubscriptions {
		var kept []*Subscriber
		for _, sub := range subscriptions {
			if sub != removeSub {
				kept = append(kept, sub)
			}
		}
		h.topicSubscriptions[topic] = kept
	}
	removeSub.close()
}
