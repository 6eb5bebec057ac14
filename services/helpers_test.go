package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"gorm.io/gorm"

	"exambuilder/logger"
	"exambuilder/models"
	"exambuilder/testutil"
)

type recordingNotifier struct {
	mu     sync.Mutex
	events []ExamEvent
	err    error
}

func (n *recordingNotifier) Publish(_ context.Context, event ExamEvent) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, event)
	return n.err
}

func (n *recordingNotifier) types() []EventType {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]EventType, 0, len(n.events))
	for _, e := range n.events {
		out = append(out, e.Type)
	}
	return out
}

type fixture struct {
	svc      *ExamService
	db       *gorm.DB
	clock    *testutil.Clock
	notifier *recordingNotifier
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := testutil.DB(t)
	clock := testutil.NewClock(time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC))
	notifier := &recordingNotifier{}
	svc := NewExamService(db, logger.Nop(), WithClock(clock.Now), WithNotifier(notifier))
	return &fixture{svc: svc, db: db, clock: clock, notifier: notifier}
}

func (f *fixture) exam(t *testing.T, title string) *models.Exam {
	t.Helper()
	exam, err := f.svc.CreateExam(context.Background(), &CreateExamRequest{Title: title})
	if err != nil {
		t.Fatalf("CreateExam(%q): %v", title, err)
	}
	return exam
}

func (f *fixture) question(t *testing.T, examID uint, typ models.QuestionType, text string, order int) *models.Question {
	t.Helper()
	q, err := f.svc.CreateQuestion(context.Background(), examID, &CreateQuestionRequest{
		Type:         typ,
		QuestionText: text,
		Points:       1,
		OrderIndex:   order,
	})
	if err != nil {
		t.Fatalf("CreateQuestion(%q): %v", text, err)
	}
	return q
}

func (f *fixture) option(t *testing.T, questionID uint, text string, correct bool, order int) *models.MultipleChoiceOption {
	t.Helper()
	o, err := f.svc.CreateMultipleChoiceOption(context.Background(), questionID, &CreateOptionRequest{
		OptionText: text,
		IsCorrect:  correct,
		OrderIndex: order,
	})
	if err != nil {
		t.Fatalf("CreateMultipleChoiceOption(%q): %v", text, err)
	}
	return o
}

func (f *fixture) answer(t *testing.T, questionID uint, expected string) *models.FormulaAnswer {
	t.Helper()
	a, err := f.svc.CreateFormulaAnswer(context.Background(), questionID, &CreateFormulaAnswerRequest{ExpectedAnswer: expected})
	if err != nil {
		t.Fatalf("CreateFormulaAnswer(%q): %v", expected, err)
	}
	return a
}

func (f *fixture) count(t *testing.T, model interface{}) int64 {
	t.Helper()
	var n int64
	if err := f.db.Model(model).Count(&n).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	return n
}
