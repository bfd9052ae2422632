package memory

import (
	"sync"
	"unicode/utf8"

	"agenda/internal/form"
)

// Field is a headless text input.
type Field struct {
	doc  *Document
	name string

	mu          sync.Mutex
	value       string
	placeholder string
	caret       int
	feedback    form.Feedback
	history     []form.Feedback

	handlers handlerSet
}

var _ form.Field = (*Field)(nil)

func (f *Field) Name() string { return f.name }

func (f *Field) Value() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.value
}

func (f *Field) SetValue(value string) {
	f.mu.Lock()
	f.value = value
	if n := utf8.RuneCountInString(value); f.caret > n {
		f.caret = n
	}
	f.mu.Unlock()
}

func (f *Field) Placeholder() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.placeholder
}

func (f *Field) SetPlaceholder(placeholder string) {
	f.mu.Lock()
	f.placeholder = placeholder
	f.mu.Unlock()
}

func (f *Field) Focus() {
	f.mu.Lock()
	f.caret = utf8.RuneCountInString(f.value)
	f.mu.Unlock()
	if f.doc != nil {
		f.doc.setFocus(f.name)
	}
}

func (f *Field) SetFeedback(feedback form.Feedback) {
	f.mu.Lock()
	f.feedback = feedback
	f.history = append(f.history, feedback)
	f.mu.Unlock()
}

func (f *Field) Subscribe(kind form.EventKind, h form.Handler) form.Unsubscribe {
	return f.handlers.add(kind, h)
}

// Feedback returns the feedback currently shown.
func (f *Field) Feedback() form.Feedback {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.feedback
}

// FeedbackHistory returns every feedback set so far, oldest first.
func (f *Field) FeedbackHistory() []form.Feedback {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]form.Feedback(nil), f.history...)
}

// Caret returns the caret position in runes.
func (f *Field) Caret() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.caret
}

// Focused reports whether this field holds document focus.
func (f *Field) Focused() bool {
	return f.doc != nil && f.doc.Focused() == f.name
}

// HandlerCount reports how many handlers are subscribed for kind.
func (f *Field) HandlerCount(kind form.EventKind) int {
	return f.handlers.count(kind)
}

// Type simulates a keystroke that leaves the field holding value.
func (f *Field) Type(value string) {
	f.SetValue(value)
	f.handlers.emit(form.Event{Kind: form.EventInput, Value: value})
}

// Blur simulates focus loss.
func (f *Field) Blur() {
	if f.doc != nil {
		f.doc.clearFocus(f.name)
	}
	f.handlers.emit(form.Event{Kind: form.EventBlur, Value: f.Value()})
}
