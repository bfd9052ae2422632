package memory

import (
	"sync"

	"agenda/internal/form"
)

type subscription struct {
	id   uint64
	kind form.EventKind
	h    form.Handler
}

// handlerSet keeps subscriptions in registration order. Handlers are copied
// out before being invoked so they may subscribe or unsubscribe freely.
type handlerSet struct {
	mu   sync.Mutex
	next uint64
	subs []subscription
}

func (s *handlerSet) add(kind form.EventKind, h form.Handler) form.Unsubscribe {
	if h == nil {
		return func() {}
	}
	s.mu.Lock()
	s.next++
	id := s.next
	s.subs = append(s.subs, subscription{id: id, kind: kind, h: h})
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() { s.remove(id) })
	}
}

func (s *handlerSet) remove(id uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, sub := range s.subs {
		if sub.id == id {
			s.subs = append(s.subs[:i], s.subs[i+1:]...)
			return
		}
	}
}

func (s *handlerSet) clear() {
	s.mu.Lock()
	s.subs = nil
	s.mu.Unlock()
}

func (s *handlerSet) count(kind form.EventKind) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, sub := range s.subs {
		if sub.kind == kind {
			n++
		}
	}
	return n
}

func (s *handlerSet) emit(ev form.Event) {
	s.mu.Lock()
	handlers := make([]form.Handler, 0, len(s.subs))
	for _, sub := range s.subs {
		if sub.kind == ev.Kind {
			handlers = append(handlers, sub.h)
		}
	}
	s.mu.Unlock()

	for _, h := range handlers {
		h(ev)
	}
}
