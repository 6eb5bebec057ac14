package models

import "encoding/json"

// ExamAggregate is an exam with its ordered questions and their payloads.
type ExamAggregate struct {
	Exam
	Questions []QuestionNode `json:"questions"`
}

// Payload is the type-specific part of a question. A nil Payload means
// nothing has been attached yet.
type Payload interface {
	Kind() QuestionType
}

// OptionsPayload is the payload of a MULTIPLE_CHOICE question.
type OptionsPayload struct {
	Options []MultipleChoiceOption
}

func (OptionsPayload) Kind() QuestionType { return QuestionTypeMultipleChoice }

// FormulaPayload is the payload of a FORMULA question.
type FormulaPayload struct {
	Answer FormulaAnswer
}

func (FormulaPayload) Kind() QuestionType { return QuestionTypeFormula }

type QuestionNode struct {
	Question
	Payload Payload
}

func (n QuestionNode) HasPayload() bool {
	return n.Payload != nil
}

// AttachedOptions returns the attached options and whether an options payload exists.
func (n QuestionNode) AttachedOptions() ([]MultipleChoiceOption, bool) {
	p, ok := n.Payload.(OptionsPayload)
	if !ok {
		return nil, false
	}
	return p.Options, true
}

// AttachedAnswer returns the attached formula answer and whether one exists.
func (n QuestionNode) AttachedAnswer() (FormulaAnswer, bool) {
	p, ok := n.Payload.(FormulaPayload)
	if !ok {
		return FormulaAnswer{}, false
	}
	return p.Answer, true
}

// MarshalJSON flattens the question and emits at most one of
// multiple_choice_options / formula_answer. Neither key is present when the
// payload is absent.
func (n QuestionNode) MarshalJSON() ([]byte, error) {
	type wire struct {
		Question
		MultipleChoiceOptions []MultipleChoiceOption `json:"multiple_choice_options,omitempty"`
		FormulaAnswer         *FormulaAnswer         `json:"formula_answer,omitempty"`
	}
	out := wire{Question: n.Question}
	switch p := n.Payload.(type) {
	case OptionsPayload:
		out.MultipleChoiceOptions = p.Options
	case FormulaPayload:
		answer := p.Answer
		out.FormulaAnswer = &answer
	}
	return json.Marshal(out)
}
