package memory

import (
	"sync"

	"agenda/internal/form"
)

// Container pairs an input with an optional select.
type Container struct {
	id    string
	input *Field

	mu       sync.Mutex
	sel      *Select
	attached int
}

var _ form.Container = (*Container)(nil)

func (c *Container) ID() string { return c.id }

func (c *Container) Input() (form.Field, bool) {
	if c.input == nil {
		return nil, false
	}
	return c.input, true
}

func (c *Container) Select() (form.Select, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.sel == nil {
		return nil, false
	}
	return c.sel, true
}

func (c *Container) AttachSelect(options []form.Option) form.Select {
	c.mu.Lock()
	old := c.sel
	c.mu.Unlock()
	if old != nil {
		old.Remove()
	}

	s := &Select{container: c, options: append([]form.Option(nil), options...)}
	c.mu.Lock()
	c.sel = s
	c.attached++
	c.mu.Unlock()
	return s
}

// InputField returns the concrete input, or nil.
func (c *Container) InputField() *Field { return c.input }

// CurrentSelect returns the concrete rendered select, or nil.
func (c *Container) CurrentSelect() *Select {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sel
}

// AttachCount reports how many selects were ever attached.
func (c *Container) AttachCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.attached
}

func (c *Container) detach(s *Select) {
	c.mu.Lock()
	if c.sel == s {
		c.sel = nil
	}
	c.mu.Unlock()
}

// Select is a headless selection control.
type Select struct {
	container *Container

	mu       sync.Mutex
	options  []form.Option
	selected string
	removed  bool

	handlers handlerSet
}

var _ form.Select = (*Select)(nil)

func (s *Select) Options() []form.Option {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]form.Option(nil), s.options...)
}

func (s *Select) Subscribe(h form.Handler) form.Unsubscribe {
	s.mu.Lock()
	removed := s.removed
	s.mu.Unlock()
	if removed {
		return func() {}
	}
	return s.handlers.add(form.EventChange, h)
}

func (s *Select) Remove() {
	s.mu.Lock()
	if s.removed {
		s.mu.Unlock()
		return
	}
	s.removed = true
	s.mu.Unlock()

	s.handlers.clear()
	if s.container != nil {
		s.container.detach(s)
	}
}

// Choose simulates the user picking the option with the given value.
// Returns false if the select was removed or has no such option.
func (s *Select) Choose(value string) bool {
	s.mu.Lock()
	if s.removed || !s.hasOptionLocked(value) {
		s.mu.Unlock()
		return false
	}
	s.selected = value
	s.mu.Unlock()

	s.handlers.emit(form.Event{Kind: form.EventChange, Value: value})
	return true
}

// Selected returns the currently chosen value.
func (s *Select) Selected() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selected
}

// Removed reports whether Remove was called.
func (s *Select) Removed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.removed
}

// HandlerCount reports how many change handlers are subscribed.
func (s *Select) HandlerCount() int {
	return s.handlers.count(form.EventChange)
}

func (s *Select) hasOptionLocked(value string) bool {
	for _, o := range s.options {
		if o.Value == value {
			return true
		}
	}
	return false
}
