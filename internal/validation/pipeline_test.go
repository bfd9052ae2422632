package validation

import (
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"agenda/internal/form"
	"agenda/internal/form/memory"
)

// =============================================================================
// Validation Pipeline Test Suite
// =============================================================================
// Justification for unit tests: timing drives the observable behavior
// (debounce, auto-revert). Durations are shortened so the suite stays fast.

type PipelineSuite struct {
	suite.Suite
	doc      *memory.Document
	address  *memory.Field
	pipeline *Pipeline
}

func TestPipelineSuite(t *testing.T) {
	suite.Run(t, new(PipelineSuite))
}

func (s *PipelineSuite) SetupTest() {
	s.doc = memory.New()
	s.address = s.doc.AddField("endereco", "")
	s.pipeline = New(
		WithDebounce(20*time.Millisecond),
		WithRevertAfter(60*time.Millisecond),
	)
	s.pipeline.Watch(s.address, AddressRule)
}

func (s *PipelineSuite) TearDownTest() {
	s.pipeline.Close()
}

func (s *PipelineSuite) TestBlurMatchShowsTransientSuccess() {
	s.address.Type("Rua Campos Sales")
	s.address.Blur()

	s.Equal(form.StateValid, s.address.Feedback().State)
	s.Eventually(func() bool {
		return s.address.Feedback().State == form.StateEmpty
	}, time.Second, 5*time.Millisecond)
}

func (s *PipelineSuite) TestBlurMissShowsPersistentWarning() {
	s.address.Type("perto do mercado")
	s.address.Blur()

	s.Equal(form.Feedback{State: form.StateInvalid, Message: AddressRule.Message}, s.address.Feedback())
	time.Sleep(120 * time.Millisecond)
	s.Equal(form.StateInvalid, s.address.Feedback().State, "warning stays until corrected")

	s.address.Type("Rua perto do mercado")
	s.address.Blur()
	s.Equal(form.StateValid, s.address.Feedback().State)
}

func (s *PipelineSuite) TestTypingValidatesAfterPause() {
	s.address.Type("Avenida Brasi")
	s.address.Type("Avenida Brasil")

	s.Eventually(func() bool {
		return s.address.Feedback().State == form.StateValid
	}, time.Second, 2*time.Millisecond)

	history := s.address.FeedbackHistory()
	s.Equal(form.StateValid, history[0].State)
}

func (s *PipelineSuite) TestShortInputIsNotValidatedWhileTyping() {
	s.address.Type("Rua 1")
	time.Sleep(60 * time.Millisecond)

	s.Empty(s.address.FeedbackHistory(), "values at or under the minimum wait for blur")
}

func (s *PipelineSuite) TestSuccessDoesNotRevertAfterValueChanged() {
	s.address.Type("Rua Campos Sales")
	s.address.Blur()
	s.address.SetValue("Rua Campos Sales 10")

	time.Sleep(120 * time.Millisecond)
	s.Equal(form.StateValid, s.address.Feedback().State)
}

func (s *PipelineSuite) TestEmptyBlurClearsFeedback() {
	s.address.Type("perto do mercado")
	s.address.Blur()
	s.address.Type("")
	s.address.Blur()

	s.Equal(form.Feedback{State: form.StateEmpty}, s.address.Feedback())
}

func (s *PipelineSuite) TestUnwatchAndClose() {
	other := s.doc.AddField("especialidade", "")
	unwatch := s.pipeline.Watch(other, SpecialtyRule)
	s.Equal(1, other.HandlerCount(form.EventBlur))

	unwatch()
	unwatch()
	s.Equal(0, other.HandlerCount(form.EventBlur))

	s.pipeline.Close()
	s.Equal(0, s.address.HandlerCount(form.EventInput))

	late := s.pipeline.Watch(other, SpecialtyRule)
	s.Equal(0, other.HandlerCount(form.EventBlur))
	late()
}

func (s *PipelineSuite) TestValidateOnce() {
	field := s.doc.AddField("especialidade", "")
	field.SetValue("Ortopedia")
	s.Equal(form.StateValid, s.pipeline.Validate(field, SpecialtyRule))

	field.SetValue("ab")
	s.Equal(form.StateInvalid, s.pipeline.Validate(field, SpecialtyRule))
}

func (s *PipelineSuite) TestShortValueMatchingOnBlurIsValid() {
	s.address.Type("Rua A, 12")
	s.address.Blur()

	s.Equal(form.StateValid, s.address.Feedback().State)
}

func (s *PipelineSuite) TestCloseStopsValidateRevert() {
	field := s.doc.AddField("especialidade", "")
	field.SetValue("Ortopedia")
	s.Require().Equal(form.StateValid, s.pipeline.Validate(field, SpecialtyRule))

	s.pipeline.Close()
	time.Sleep(120 * time.Millisecond)

	s.Equal(form.StateValid, field.Feedback().State, "no revert after Close")
	s.Len(field.FeedbackHistory(), 1)
}

func (s *PipelineSuite) TestValidateRevertsWhileOpen() {
	field := s.doc.AddField("especialidade", "")
	field.SetValue("Ortopedia")
	s.Require().Equal(form.StateValid, s.pipeline.Validate(field, SpecialtyRule))

	s.Eventually(func() bool {
		return field.Feedback().State == form.StateEmpty
	}, time.Second, 5*time.Millisecond)
}
