package cart

import "sync"

// Stream is a replay-last publish/subscribe channel: a new subscriber first
// receives the most recent value, then every later publication in order.
//
// Deliveries are serialized, so callbacks must not publish or subscribe on
// the same stream.
type Stream[T any] struct {
	deliver sync.Mutex
	mu      sync.Mutex
	latest  T
	subs    []*subscriber[T]
	nextID  int
}

type subscriber[T any] struct {
	id int
	fn func(T)
}

// NewStream creates a stream whose latest value is initial.
func NewStream[T any](initial T) *Stream[T] {
	return &Stream[T]{latest: initial}
}

// Subscribe registers fn, calls it with the latest value and returns a
// function that removes the subscription. Unsubscribing twice is harmless.
func (s *Stream[T]) Subscribe(fn func(T)) func() {
	s.deliver.Lock()
	defer s.deliver.Unlock()

	s.mu.Lock()
	s.nextID++
	sub := &subscriber[T]{id: s.nextID, fn: fn}
	s.subs = append(s.subs, sub)
	latest := s.latest
	s.mu.Unlock()

	fn(latest)

	var once sync.Once
	return func() {
		once.Do(func() { s.remove(sub.id) })
	}
}

// Publish records v as the latest value and delivers it to every active
// subscriber in subscription order.
func (s *Stream[T]) Publish(v T) {
	s.deliver.Lock()
	defer s.deliver.Unlock()

	s.mu.Lock()
	s.latest = v
	subs := make([]*subscriber[T], len(s.subs))
	copy(subs, s.subs)
	s.mu.Unlock()

	for _, sub := range subs {
		sub.fn(v)
	}
}

// Latest returns the most recently published value.
func (s *Stream[T]) Latest() T {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.latest
}

func (s *Stream[T]) remove(id int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, sub := range s.subs {
		if sub.id == id {
			s.subs = append(s.subs[:i], s.subs[i+1:]...)
			return
		}
	}
}
