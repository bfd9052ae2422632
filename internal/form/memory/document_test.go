package memory

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"agenda/internal/form"
)

func TestFieldEventsAndUnsubscribe(t *testing.T) {
	doc := New()
	f := doc.AddField("cep", "00000-000")

	var seen []form.Event
	unsub := f.Subscribe(form.EventInput, func(ev form.Event) { seen = append(seen, ev) })
	f.Subscribe(form.EventBlur, func(ev form.Event) { seen = append(seen, ev) })

	f.Type("1310")
	f.Blur()
	unsub()
	unsub()
	f.Type("13100")

	require.Len(t, seen, 2)
	assert.Equal(t, form.Event{Kind: form.EventInput, Value: "1310"}, seen[0])
	assert.Equal(t, form.Event{Kind: form.EventBlur, Value: "1310"}, seen[1])
	assert.Equal(t, 0, f.HandlerCount(form.EventInput))
	assert.Equal(t, 1, f.HandlerCount(form.EventBlur))
}

func TestFieldFocusPutsCaretAtEnd(t *testing.T) {
	doc := New()
	f := doc.AddField("cidade", "")
	other := doc.AddField("uf", "")

	f.SetValue("São Paulo")
	f.Focus()

	assert.True(t, f.Focused())
	assert.False(t, other.Focused())
	assert.Equal(t, 9, f.Caret())
	assert.Equal(t, "cidade", doc.Focused())

	f.Blur()
	assert.Empty(t, doc.Focused())
}

func TestFieldFeedbackHistory(t *testing.T) {
	f := New().AddField("cep", "")
	f.SetFeedback(form.Feedback{State: form.StatePendingRemote})
	f.SetFeedback(form.Feedback{State: form.StateResolved})

	assert.Equal(t, form.StateResolved, f.Feedback().State)
	assert.Len(t, f.FeedbackHistory(), 2)
}

func TestDocumentLookups(t *testing.T) {
	doc := New()
	doc.AddContainer("cidade-container", "cidade", "Cidade")
	doc.AddEmptyContainer("vazio")

	_, ok := doc.Field("missing")
	assert.False(t, ok)
	_, ok = doc.Container("missing")
	assert.False(t, ok)

	c, ok := doc.Container("cidade-container")
	require.True(t, ok)
	input, ok := c.Input()
	require.True(t, ok)
	assert.Equal(t, "cidade", input.Name())

	field, ok := doc.Field("cidade")
	require.True(t, ok)
	assert.Same(t, input, field)

	empty, ok := doc.Container("vazio")
	require.True(t, ok)
	_, ok = empty.Input()
	assert.False(t, ok)
}

func TestContainerSelectLifecycle(t *testing.T) {
	doc := New()
	c := doc.AddContainer("esp", "especialidade", "")

	first := c.AttachSelect([]form.Option{{Value: "", Label: "Selecione"}, {Value: "Cardiologia", Label: "Cardiologia"}}).(*Select)
	var chosen []string
	first.Subscribe(func(ev form.Event) { chosen = append(chosen, ev.Value) })

	assert.True(t, first.Choose("Cardiologia"))
	assert.False(t, first.Choose("Ortopedia"))
	assert.Equal(t, "Cardiologia", first.Selected())

	second := c.AttachSelect([]form.Option{{Value: "Ortopedia", Label: "Ortopedia"}}).(*Select)

	assert.True(t, first.Removed())
	assert.Zero(t, first.HandlerCount())
	assert.False(t, first.Choose("Cardiologia"))
	assert.Same(t, second, c.CurrentSelect())
	assert.Equal(t, 2, c.AttachCount())
	assert.Equal(t, []string{"Cardiologia"}, chosen)

	second.Remove()
	_, ok := c.Select()
	assert.False(t, ok)
}

func TestValuesSnapshot(t *testing.T) {
	doc := New()
	doc.AddField("cep", "").SetValue("01310-000")
	doc.AddField("uf", "").SetValue("SP")

	assert.Equal(t, map[string]string{"cep": "01310-000", "uf": "SP"}, doc.Values())
}
