// Package binding pairs free-text inputs with selection controls filled from
// reference lists. The text field always stays editable; the control only
// offers shortcuts.
package binding

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"agenda/internal/form"
	"agenda/internal/platform/logger"
)

const (
	// OtherValue is the option value that switches to free-form entry.
	OtherValue = "__other__"
	// OtherLabel is the label of the terminal free-form option.
	OtherLabel = "Outro (digitar manualmente)"
	// OtherPlaceholder replaces the input placeholder after "other" is chosen.
	OtherPlaceholder = "Digite manualmente..."
)

// ListSource resolves a dataset name to its reference list.
type ListSource interface {
	List(ctx context.Context, name string) ([]string, error)
}

// Controller renders and tracks one selection control per container.
type Controller struct {
	doc    form.Document
	lists  ListSource
	logger *slog.Logger

	mu       sync.Mutex
	bindings map[string]*binding
}

type binding struct {
	input       form.Field
	sel         form.Select
	placeholder string
	subs        form.Subscriptions
}

type Option func(*Controller)

func WithLogger(logger *slog.Logger) Option {
	return func(c *Controller) {
		c.logger = logger
	}
}

func NewController(doc form.Document, lists ListSource, opts ...Option) (*Controller, error) {
	if doc == nil {
		return nil, errors.New("document is required")
	}
	if lists == nil {
		return nil, errors.New("list source is required")
	}
	c := &Controller{
		doc:      doc,
		lists:    lists,
		logger:   logger.Discard(),
		bindings: make(map[string]*binding),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c, nil
}

// Bind renders a selection control for datasetName inside containerID.
// selectPlaceholder labels the blank first option. Binding the same
// container again replaces the previous control and its handlers.
//
// A missing container or input is logged and ignored. Only an unknown
// dataset is reported.
func (c *Controller) Bind(ctx context.Context, datasetName, containerID, selectPlaceholder string) error {
	container, ok := c.doc.Container(containerID)
	if !ok {
		c.logger.WarnContext(ctx, "binding skipped: container not found", "container", containerID)
		return nil
	}
	input, ok := container.Input()
	if !ok {
		c.logger.WarnContext(ctx, "binding skipped: container has no input", "container", containerID)
		return nil
	}

	values, err := c.lists.List(ctx, datasetName)
	if err != nil {
		return fmt.Errorf("bind %s to %s: %w", datasetName, containerID, err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	placeholder := input.Placeholder()
	if prev, ok := c.bindings[containerID]; ok {
		placeholder = prev.placeholder
		prev.release()
	}
	if sel, ok := container.Select(); ok {
		sel.Remove()
	}

	b := &binding{input: input, placeholder: placeholder}
	b.sel = container.AttachSelect(options(values, selectPlaceholder))
	b.subs.Add(b.sel.Subscribe(b.onChange))
	c.bindings[containerID] = b

	c.logger.DebugContext(ctx, "selection control bound",
		"dataset", datasetName,
		"container", containerID,
		"options", len(values),
	)
	return nil
}

// Unbind removes the control from containerID and restores the input's
// original placeholder. The input value is kept.
func (c *Controller) Unbind(containerID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if b, ok := c.bindings[containerID]; ok {
		b.release()
		b.input.SetPlaceholder(b.placeholder)
		delete(c.bindings, containerID)
	}
}

// Close unbinds every container.
func (c *Controller) Close() {
	c.mu.Lock()
	ids := make([]string, 0, len(c.bindings))
	for id := range c.bindings {
		ids = append(ids, id)
	}
	c.mu.Unlock()

	for _, id := range ids {
		c.Unbind(id)
	}
}

func (b *binding) release() {
	b.subs.Release()
	b.sel.Remove()
}

func (b *binding) onChange(ev form.Event) {
	switch ev.Value {
	case "":
		b.input.SetValue("")
		b.input.SetPlaceholder(b.placeholder)
	case OtherValue:
		b.input.SetValue("")
		b.input.SetPlaceholder(OtherPlaceholder)
		b.input.Focus()
	default:
		b.input.SetValue(ev.Value)
		b.input.SetPlaceholder(b.placeholder)
		b.input.Focus()
	}
}

func options(values []string, placeholder string) []form.Option {
	opts := make([]form.Option, 0, len(values)+2)
	opts = append(opts, form.Option{Value: "", Label: placeholder})
	for _, v := range values {
		if v == "" || v == OtherValue {
			continue
		}
		opts = append(opts, form.Option{Value: v, Label: v})
	}
	return append(opts, form.Option{Value: OtherValue, Label: OtherLabel})
}
