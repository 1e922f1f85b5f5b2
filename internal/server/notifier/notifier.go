// Package notifier fans change signals out to live page connections.
package notifier

import "sync"

// Topic names what changed. Topics combine as a bit set.
type Topic uint8

// Topics.
const (
	TopicProjects Topic = 1 << iota
	TopicRuns

	TopicAll = TopicProjects | TopicRuns
)

// Has reports whether t includes every bit of o.
func (t Topic) Has(o Topic) bool {
	return o != 0 && t&o == o
}

// Subscription is one listener. C receives a ping whenever topics are
// pending; Topics returns and clears them. Pings coalesce, so a slow
// listener sees the union of everything broadcast since its last read.
type Subscription struct {
	C <-chan struct{}

	ch      chan struct{}
	mu      sync.Mutex
	pending Topic
}

// Topics returns the topics broadcast since the last call and clears them.
func (s *Subscription) Topics() Topic {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := s.pending
	s.pending = 0
	return t
}

func (s *Subscription) mark(t Topic) {
	s.mu.Lock()
	s.pending |= t
	s.mu.Unlock()

	select {
	case s.ch <- struct{}{}:
	default:
	}
}

// Notifier broadcasts topic changes to all subscriptions.
type Notifier struct {
	mu        sync.RWMutex
	listeners map[*Subscription]struct{}
}

// New creates a new Notifier instance.
func New() *Notifier {
	return &Notifier{
		listeners: make(map[*Subscription]struct{}),
	}
}

// Subscribe registers a listener. The caller must Unsubscribe when done.
func (n *Notifier) Subscribe() *Subscription {
	ch := make(chan struct{}, 1)
	s := &Subscription{C: ch, ch: ch}
	n.mu.Lock()
	n.listeners[s] = struct{}{}
	n.mu.Unlock()
	return s
}

// Unsubscribe removes a listener and closes its channel.
func (n *Notifier) Unsubscribe(s *Subscription) {
	n.mu.Lock()
	_, ok := n.listeners[s]
	delete(n.listeners, s)
	n.mu.Unlock()
	if ok {
		close(s.ch)
	}
}

// Broadcast marks t pending on every listener without blocking.
func (n *Notifier) Broadcast(t Topic) {
	if t == 0 {
		return
	}
	n.mu.RLock()
	defer n.mu.RUnlock()

	for s := range n.listeners {
		s.mark(t)
	}
}

// Len returns the number of listeners.
func (n *Notifier) Len() int {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return len(n.listeners)
}
