// Package form defines the ports through which reference-data components talk
// to a presentation layer: fields that can be read, written, focused and
// observed, selection controls, and containers that pair the two.
//
// Implementations must be safe for concurrent use and must not invoke event
// handlers while holding internal locks, since handlers call back into the
// same fields.
package form

// State is the validation state of a single field.
type State int

const (
	StateEmpty State = iota
	StateTyping
	StateValid
	StateInvalid
	StatePendingRemote
	StateResolved
	StateError
)

func (s State) String() string {
	switch s {
	case StateEmpty:
		return "empty"
	case StateTyping:
		return "typing"
	case StateValid:
		return "valid"
	case StateInvalid:
		return "invalid"
	case StatePendingRemote:
		return "pending_remote"
	case StateResolved:
		return "resolved"
	case StateError:
		return "error"
	default:
		return "unknown"
	}
}

// Feedback is what a field shows the user: a state (rendered as a border or
// class) plus an optional human-readable message.
type Feedback struct {
	State   State
	Message string
}

// EventKind identifies a field or select event.
type EventKind int

const (
	// EventInput fires on every keystroke.
	EventInput EventKind = iota
	// EventBlur fires when the field loses focus.
	EventBlur
	// EventChange fires when a select option is chosen.
	EventChange
)

// Event carries the value observed when the event fired.
type Event struct {
	Kind  EventKind
	Value string
}

// Handler reacts to an event.
type Handler func(Event)

// Unsubscribe removes a previously registered handler. Calling it more than
// once is a no-op.
type Unsubscribe func()

// Field is a single free-text input.
type Field interface {
	Name() string
	Value() string
	// SetValue replaces the value without emitting an input event.
	SetValue(value string)
	Placeholder() string
	SetPlaceholder(placeholder string)
	// Focus moves focus to the field with the caret at the end of its value.
	Focus()
	SetFeedback(feedback Feedback)
	Subscribe(kind EventKind, h Handler) Unsubscribe
}

// Option is one entry of a selection control.
type Option struct {
	Value string
	Label string
}

// Select is a rendered selection control.
type Select interface {
	Options() []Option
	// Subscribe registers h for EventChange events carrying the chosen value.
	Subscribe(h Handler) Unsubscribe
	// Remove detaches the control and drops all of its handlers.
	Remove()
}

// Container groups a free-text input with an optional selection control.
type Container interface {
	ID() string
	Input() (Field, bool)
	Select() (Select, bool)
	// AttachSelect renders a new selection control, replacing any existing one.
	AttachSelect(options []Option) Select
}

// Document locates fields by name and containers by id.
type Document interface {
	Field(name string) (Field, bool)
	Container(id string) (Container, bool)
}

// Subscriptions collects Unsubscribe funcs so a component can release all of
// its handlers at once when it is rebound or closed.
type Subscriptions struct {
	items []Unsubscribe
}

// Add records u.
func (s *Subscriptions) Add(u Unsubscribe) {
	if u != nil {
		s.items = append(s.items, u)
	}
}

// Release calls every recorded Unsubscribe and forgets them.
func (s *Subscriptions) Release() {
	for _, u := range s.items {
		u()
	}
	s.items = nil
}

// Len reports how many subscriptions are held.
func (s *Subscriptions) Len() int {
	return len(s.items)
}
