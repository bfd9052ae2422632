// Package memory is a headless, in-process implementation of the form ports.
// It backs the CLI and the tests: callers simulate the user with Type, Blur
// and Choose, and inspect values, focus and feedback afterwards.
package memory

import (
	"sync"

	"agenda/internal/form"
)

// Document holds fields and containers by name/id and tracks focus.
type Document struct {
	mu         sync.Mutex
	fields     map[string]*Field
	containers map[string]*Container
	focused    string
}

var _ form.Document = (*Document)(nil)

// New creates an empty document.
func New() *Document {
	return &Document{
		fields:     make(map[string]*Field),
		containers: make(map[string]*Container),
	}
}

// AddField registers a free-text field. Re-adding a name replaces the field.
func (d *Document) AddField(name, placeholder string) *Field {
	f := &Field{doc: d, name: name, placeholder: placeholder}
	d.mu.Lock()
	d.fields[name] = f
	d.mu.Unlock()
	return f
}

// AddContainer registers a container whose embedded input is also reachable
// through Field(inputName).
func (d *Document) AddContainer(id, inputName, placeholder string) *Container {
	c := &Container{id: id, input: d.AddField(inputName, placeholder)}
	d.mu.Lock()
	d.containers[id] = c
	d.mu.Unlock()
	return c
}

// AddEmptyContainer registers a container without an input.
func (d *Document) AddEmptyContainer(id string) *Container {
	c := &Container{id: id}
	d.mu.Lock()
	d.containers[id] = c
	d.mu.Unlock()
	return c
}

// Field implements form.Document.
func (d *Document) Field(name string) (form.Field, bool) {
	f := d.Lookup(name)
	if f == nil {
		return nil, false
	}
	return f, true
}

// Container implements form.Document.
func (d *Document) Container(id string) (form.Container, bool) {
	d.mu.Lock()
	c, ok := d.containers[id]
	d.mu.Unlock()
	if !ok {
		return nil, false
	}
	return c, true
}

// Lookup returns the concrete field or nil.
func (d *Document) Lookup(name string) *Field {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.fields[name]
}

// Focused returns the name of the focused field, or "".
func (d *Document) Focused() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.focused
}

// Values snapshots every field value by name.
func (d *Document) Values() map[string]string {
	d.mu.Lock()
	fields := make([]*Field, 0, len(d.fields))
	for _, f := range d.fields {
		fields = append(fields, f)
	}
	d.mu.Unlock()

	out := make(map[string]string, len(fields))
	for _, f := range fields {
		out[f.Name()] = f.Value()
	}
	return out
}

func (d *Document) setFocus(name string) {
	d.mu.Lock()
	d.focused = name
	d.mu.Unlock()
}

func (d *Document) clearFocus(name string) {
	d.mu.Lock()
	if d.focused == name {
		d.focused = ""
	}
	d.mu.Unlock()
}
