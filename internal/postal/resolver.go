package postal

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"agenda/internal/form"
	"agenda/internal/platform/logger"
	"agenda/internal/platform/metrics"
	"agenda/pkg/platform/debounce"
	"agenda/pkg/platform/sentinel"
	"agenda/pkg/requestcontext"
)

// DefaultLookupTimeout bounds one remote lookup.
const DefaultLookupTimeout = 10 * time.Second

// Messages shown next to the postal code field.
const (
	MessageInvalidFormat = "CEP inválido. Verifique os números digitados."
	MessagePending       = "Buscando endereço..."
	MessageNotFound      = "CEP não encontrado. Preencha o endereço manualmente."
	MessageIncomplete    = "Endereço incompleto para este CEP. Confira e complete os campos."
	MessageUnavailable   = "Serviço de CEP indisponível. Preencha o endereço manualmente."
)

// ErrFieldMissing is returned by Bind when the postal code field is absent.
var ErrFieldMissing = errors.New("postal code field not found")

// Outcome is the result of one resolution attempt.
type Outcome int

const (
	// OutcomeSkipped: the field does not hold a full code yet.
	OutcomeSkipped Outcome = iota
	OutcomeInvalidFormat
	OutcomeNotFound
	OutcomeIncomplete
	OutcomeResolved
	OutcomeUnavailable
	// OutcomeStale: a newer edit or lookup superseded this one; nothing was
	// applied.
	OutcomeStale
)

func (o Outcome) String() string {
	switch o {
	case OutcomeSkipped:
		return "skipped"
	case OutcomeInvalidFormat:
		return "invalid_format"
	case OutcomeNotFound:
		return "not_found"
	case OutcomeIncomplete:
		return "incomplete"
	case OutcomeResolved:
		return "resolved"
	case OutcomeUnavailable:
		return "unavailable"
	case OutcomeStale:
		return "stale"
	default:
		return "unknown"
	}
}

// Resolver keeps one block of address fields in sync with its postal code
// field.
//
// Every edit and every lookup takes a new token; a lookup applies its result
// only if its token is still the latest, so a slow answer for an old code
// never overwrites a newer one.
type Resolver struct {
	doc     form.Document
	client  Client
	fields  FieldSet
	timeout time.Duration
	idle    time.Duration

	logger  *slog.Logger
	metrics *metrics.Metrics
	tracer  trace.Tracer

	mu       sync.Mutex
	token    uint64
	subs     form.Subscriptions
	debounce *debounce.Debouncer

	// inflight counts lookups started by field events; settled is signalled
	// whenever it drops to zero.
	inflight int
	settled  *sync.Cond
}

type Option func(*Resolver)

func WithFields(fields FieldSet) Option {
	return func(r *Resolver) {
		r.fields = fields
	}
}

func WithLookupTimeout(timeout time.Duration) Option {
	return func(r *Resolver) {
		if timeout > 0 {
			r.timeout = timeout
		}
	}
}

// WithIdleResolve resolves a complete, well-formed code once the user stops
// typing for delay, without waiting for the field to lose focus.
func WithIdleResolve(delay time.Duration) Option {
	return func(r *Resolver) {
		r.idle = delay
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(r *Resolver) {
		r.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(r *Resolver) {
		r.metrics = m
	}
}

func NewResolver(doc form.Document, client Client, opts ...Option) (*Resolver, error) {
	if doc == nil {
		return nil, errors.New("document is required")
	}
	if client == nil {
		return nil, errors.New("postal client is required")
	}

	r := &Resolver{
		doc:     doc,
		client:  client,
		fields:  DefaultFields,
		timeout: DefaultLookupTimeout,
		logger:  logger.Discard(),
		tracer:  otel.Tracer("agenda/internal/postal"),
	}
	r.settled = sync.NewCond(&r.mu)
	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}
	if r.fields.PostalCode == "" {
		return nil, errors.New("postal code field name is required")
	}
	return r, nil
}

// Bind subscribes to the postal code field. The returned func removes every
// subscription and cancels a pending idle resolution. Binding again replaces
// the previous subscriptions.
func (r *Resolver) Bind() (func(), error) {
	field, ok := r.doc.Field(r.fields.PostalCode)
	if !ok {
		return nil, ErrFieldMissing
	}

	r.mu.Lock()
	r.subs.Release()
	if r.debounce != nil {
		r.debounce.Stop()
		r.debounce = nil
	}
	if r.idle > 0 {
		r.debounce = debounce.New(r.idle)
	}
	r.subs.Add(field.Subscribe(form.EventInput, func(ev form.Event) {
		r.onInput(field, ev.Value)
	}))
	r.subs.Add(field.Subscribe(form.EventBlur, func(form.Event) {
		r.resolveAsync()
	}))
	r.mu.Unlock()

	return r.unbind, nil
}

func (r *Resolver) unbind() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.subs.Release()
	if r.debounce != nil {
		r.debounce.Stop()
		r.debounce = nil
	}
}

// Wait blocks until every lookup started by a field event has finished. An
// idle resolution whose timer has not fired yet is not waited for.
func (r *Resolver) Wait() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for r.inflight > 0 {
		r.settled.Wait()
	}
}

func (r *Resolver) onInput(field form.Field, value string) {
	masked := Mask(value)
	if masked != value {
		field.SetValue(masked)
	}

	r.mu.Lock()
	r.token++
	idle := r.debounce
	r.mu.Unlock()
	if idle != nil {
		idle.Cancel()
	}

	digits := Digits(masked)
	switch {
	case digits == "":
		field.SetFeedback(form.Feedback{State: form.StateEmpty})
	case len(digits) < CodeLength:
		field.SetFeedback(form.Feedback{State: form.StateTyping})
	default:
		if err := ValidateFormat(digits); err != nil {
			field.SetFeedback(form.Feedback{State: form.StateInvalid, Message: MessageInvalidFormat})
			return
		}
		field.SetFeedback(form.Feedback{State: form.StateValid})
		if idle != nil {
			idle.Trigger(r.resolveAsync)
		}
	}
}

func (r *Resolver) resolveAsync() {
	r.mu.Lock()
	r.inflight++
	r.mu.Unlock()

	go func() {
		defer func() {
			r.mu.Lock()
			r.inflight--
			if r.inflight == 0 {
				r.settled.Broadcast()
			}
			r.mu.Unlock()
		}()
		r.Resolve(context.Background())
	}()
}

// Resolve looks up the code currently in the postal code field and applies
// the result to the dependent fields.
func (r *Resolver) Resolve(ctx context.Context) Outcome {
	field, ok := r.doc.Field(r.fields.PostalCode)
	if !ok {
		return OutcomeSkipped
	}

	// The token is taken before the value is read: an edit landing in
	// between advances the token past ours and the lookup goes stale.
	r.mu.Lock()
	r.token++
	token := r.token
	r.mu.Unlock()

	digits := Digits(field.Value())
	if len(digits) != CodeLength {
		return OutcomeSkipped
	}

	if err := ValidateFormat(digits); err != nil {
		return r.finish(ctx, token, OutcomeInvalidFormat, func() {
			r.clearDependents()
			field.SetFeedback(form.Feedback{State: form.StateInvalid, Message: MessageInvalidFormat})
		})
	}

	if !r.apply(token, func() {
		field.SetFeedback(form.Feedback{State: form.StatePendingRemote, Message: MessagePending})
	}) {
		return r.finish(ctx, token, OutcomeStale, nil)
	}

	addr, err := r.lookup(ctx, digits)
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		return r.finish(ctx, token, OutcomeNotFound, func() {
			r.clearDependents()
			field.SetFeedback(form.Feedback{State: form.StateError, Message: MessageNotFound})
		})
	case err != nil:
		r.logger.WarnContext(ctx, "postal lookup failed", "cep", digits, "error", err)
		return r.finish(ctx, token, OutcomeUnavailable, func() {
			r.clearDependents()
			field.SetFeedback(form.Feedback{State: form.StateError, Message: MessageUnavailable})
		})
	case !addr.Complete():
		return r.finish(ctx, token, OutcomeIncomplete, func() {
			r.populate(addr)
			field.SetFeedback(form.Feedback{State: form.StateInvalid, Message: MessageIncomplete})
		})
	default:
		return r.finish(ctx, token, OutcomeResolved, func() {
			r.populate(addr)
			field.SetFeedback(form.Feedback{State: form.StateResolved})
			if r.fields.Number == "" {
				return
			}
			if next, ok := r.doc.Field(r.fields.Number); ok {
				next.Focus()
			}
		})
	}
}

func (r *Resolver) lookup(ctx context.Context, digits string) (Address, error) {
	ctx = requestcontext.EnsureRequestID(ctx)
	ctx, span := r.tracer.Start(ctx, "postal.lookup", trace.WithAttributes(
		attribute.String("cep", digits),
		attribute.String("request_id", requestcontext.RequestID(ctx)),
	))
	defer span.End()

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	start := time.Now()
	addr, err := r.client.Lookup(ctx, digits)
	r.metrics.ObservePostalLookupLatency(time.Since(start))
	if err != nil && !errors.Is(err, sentinel.ErrNotFound) {
		span.RecordError(err)
		span.SetStatus(codes.Error, "lookup failed")
	}
	return addr, err
}

// finish applies fn under token and records the outcome. A superseded token
// turns any outcome into OutcomeStale.
func (r *Resolver) finish(ctx context.Context, token uint64, outcome Outcome, fn func()) Outcome {
	if fn != nil && !r.apply(token, fn) {
		outcome = OutcomeStale
	}
	if outcome == OutcomeStale {
		r.logger.DebugContext(ctx, "discarding stale postal lookup", "token", token)
	}
	r.metrics.IncPostalLookup(outcome.String())
	return outcome
}

// apply runs fn only while token is the latest. Field writes done by fn emit
// no events, so holding the lock across them cannot re-enter the resolver.
func (r *Resolver) apply(token uint64, fn func()) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if token != r.token {
		return false
	}
	fn()
	return true
}

func (r *Resolver) clearDependents() {
	for _, name := range r.fields.dependents() {
		if f, ok := r.doc.Field(name); ok {
			f.SetValue("")
		}
	}
}

func (r *Resolver) populate(addr Address) {
	for name, value := range r.fields.values(addr) {
		if f, ok := r.doc.Field(name); ok {
			f.SetValue(value)
		}
	}
}
