package preferences

import "sync"

type subscription struct {
	id uint64
	fn func(key string)
}

// Subscribers is a list of change callbacks shared by the store
// implementations. Notify iterates a snapshot, so callbacks may subscribe
// or unsubscribe while being notified.
type Subscribers struct {
	mu     sync.RWMutex
	nextID uint64
	subs   []subscription
}

// Add registers fn and returns its removal function.
func (s *Subscribers) Add(fn func(key string)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	id := s.nextID
	s.subs = append(s.subs, subscription{id: id, fn: fn})

	var once sync.Once
	return func() {
		once.Do(func() { s.remove(id) })
	}
}

func (s *Subscribers) remove(id uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, sub := range s.subs {
		if sub.id == id {
			s.subs = append(s.subs[:i], s.subs[i+1:]...)
			return
		}
	}
}

// Len returns the number of active subscriptions.
func (s *Subscribers) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.subs)
}

// Notify calls every subscriber with key, in subscription order.
func (s *Subscribers) Notify(key string) {
	s.mu.RLock()
	subs := make([]subscription, len(s.subs))
	copy(subs, s.subs)
	s.mu.RUnlock()

	for _, sub := range subs {
		sub.fn(key)
	}
}
