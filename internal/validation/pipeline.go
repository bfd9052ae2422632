package validation

import (
	"log/slog"
	"sync"
	"time"

	"agenda/internal/form"
	"agenda/internal/platform/logger"
	"agenda/pkg/platform/debounce"
)

const (
	DefaultDebounce    = time.Second
	DefaultRevertAfter = 2 * time.Second
)

// Pipeline watches fields and sets their feedback. A match shows a success
// state that fades back to empty after RevertAfter; a miss shows the rule's
// message until the value is corrected.
type Pipeline struct {
	debounce    time.Duration
	revertAfter time.Duration
	logger      *slog.Logger

	mu      sync.Mutex
	watches map[*watch]struct{}
	// reverts holds the success timers of one-off Validate calls, per field.
	reverts map[form.Field]*debounce.Debouncer
	closed  bool
}

type Option func(*Pipeline)

func WithDebounce(d time.Duration) Option {
	return func(p *Pipeline) {
		if d > 0 {
			p.debounce = d
		}
	}
}

func WithRevertAfter(d time.Duration) Option {
	return func(p *Pipeline) {
		if d > 0 {
			p.revertAfter = d
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) {
		p.logger = logger
	}
}

func New(opts ...Option) *Pipeline {
	p := &Pipeline{
		debounce:    DefaultDebounce,
		revertAfter: DefaultRevertAfter,
		logger:      logger.Discard(),
		watches:     make(map[*watch]struct{}),
		reverts:     make(map[form.Field]*debounce.Debouncer),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(p)
		}
	}
	return p
}

type watch struct {
	field  form.Field
	rule   Rule
	logger *slog.Logger
	subs   form.Subscriptions
	typing *debounce.Debouncer
	revert *debounce.Debouncer
}

// Watch validates field with rule on blur and, once the value is longer than
// the rule's minimum, after the user pauses typing. The returned func stops
// watching.
func (p *Pipeline) Watch(field form.Field, rule Rule) form.Unsubscribe {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed || field == nil {
		return func() {}
	}

	w := &watch{
		field:  field,
		rule:   rule,
		logger: p.logger,
		typing: debounce.New(p.debounce),
		revert: debounce.New(p.revertAfter),
	}
	w.subs.Add(field.Subscribe(form.EventBlur, func(ev form.Event) {
		w.typing.Cancel()
		w.validate(ev.Value)
	}))
	w.subs.Add(field.Subscribe(form.EventInput, func(ev form.Event) {
		w.revert.Cancel()
		if Length(ev.Value) <= w.rule.MinLength {
			w.typing.Cancel()
			return
		}
		w.typing.Trigger(func() {
			w.validate(w.field.Value())
		})
	}))
	p.watches[w] = struct{}{}

	var once sync.Once
	return func() {
		once.Do(func() {
			p.mu.Lock()
			delete(p.watches, w)
			p.mu.Unlock()
			w.stop()
		})
	}
}

// Validate checks field once, immediately, and sets its feedback. A success
// still fades after RevertAfter unless the pipeline is closed first.
func (p *Pipeline) Validate(field form.Field, rule Rule) form.State {
	p.mu.Lock()
	revert, ok := p.reverts[field]
	if !ok {
		revert = debounce.New(p.revertAfter)
		if p.closed {
			revert.Stop()
		} else {
			p.reverts[field] = revert
		}
	}
	p.mu.Unlock()

	w := &watch{field: field, rule: rule, logger: p.logger, revert: revert}
	return w.validate(field.Value())
}

// Close stops every watch and pending timer. Later Watch calls are no-ops.
func (p *Pipeline) Close() {
	p.mu.Lock()
	watches, reverts := p.watches, p.reverts
	p.watches = make(map[*watch]struct{})
	p.reverts = make(map[form.Field]*debounce.Debouncer)
	p.closed = true
	p.mu.Unlock()

	for w := range watches {
		w.stop()
	}
	for _, revert := range reverts {
		revert.Stop()
	}
}

func (w *watch) stop() {
	w.subs.Release()
	if w.typing != nil {
		w.typing.Stop()
	}
	w.revert.Stop()
}

func (w *watch) validate(value string) form.State {
	if Length(value) == 0 {
		w.revert.Cancel()
		w.field.SetFeedback(form.Feedback{State: form.StateEmpty})
		return form.StateEmpty
	}

	if !w.rule.Check(value) {
		w.revert.Cancel()
		w.field.SetFeedback(form.Feedback{State: form.StateInvalid, Message: w.rule.Message})
		w.logger.Debug("advisory validation miss", "field", w.field.Name(), "rule", w.rule.Name)
		return form.StateInvalid
	}

	w.field.SetFeedback(form.Feedback{State: form.StateValid})
	w.revert.Trigger(func() {
		if w.field.Value() == value {
			w.field.SetFeedback(form.Feedback{State: form.StateEmpty})
		}
	})
	return form.StateValid
}
