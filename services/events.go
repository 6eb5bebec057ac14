package services

import (
	"context"
	"time"
)

type EventType string

const (
	EventExamCreated          EventType = "exam.created"
	EventExamUpdated          EventType = "exam.updated"
	EventExamDeleted          EventType = "exam.deleted"
	EventQuestionCreated      EventType = "question.created"
	EventQuestionUpdated      EventType = "question.updated"
	EventQuestionDeleted      EventType = "question.deleted"
	EventOptionCreated        EventType = "option.created"
	EventOptionUpdated        EventType = "option.updated"
	EventOptionDeleted        EventType = "option.deleted"
	EventFormulaAnswerCreated EventType = "formula_answer.created"
	EventFormulaAnswerUpdated EventType = "formula_answer.updated"
	EventFormulaAnswerDeleted EventType = "formula_answer.deleted"
)

// ExamEvent describes a committed mutation somewhere inside an exam.
type ExamEvent struct {
	Type     EventType `json:"type"`
	ExamID   uint      `json:"exam_id"`
	EntityID uint      `json:"entity_id"`
	At       time.Time `json:"at"`
}

// Notifier receives events after the mutation has been committed.
type Notifier interface {
	Publish(ctx context.Context, event ExamEvent) error
}

// Notifiers fans an event out to several notifiers and returns the first error.
type Notifiers []Notifier

func (ns Notifiers) Publish(ctx context.Context, event ExamEvent) error {
	var first error
	for _, n := range ns {
		if n == nil {
			continue
		}
		if err := n.Publish(ctx, event); err != nil && first == nil {
			first = err
		}
	}
	return first
}
