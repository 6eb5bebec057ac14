// Package seed loads exams described in YAML through the exam service, so
// fixtures obey the same validation as API callers.
package seed

import (
	"context"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"exambuilder/models"
	"exambuilder/services"
)

type Fixture struct {
	Exams []ExamFixture `yaml:"exams"`
}

type ExamFixture struct {
	Title       string            `yaml:"title"`
	Description *string           `yaml:"description"`
	Questions   []QuestionFixture `yaml:"questions"`
}

type QuestionFixture struct {
	Type       string          `yaml:"type"`
	Text       string          `yaml:"text"`
	Points     float64         `yaml:"points"`
	OrderIndex int             `yaml:"order_index"`
	Options    []OptionFixture `yaml:"options"`
	Answer     *string         `yaml:"answer"`
}

type OptionFixture struct {
	Text       string `yaml:"text"`
	Correct    bool   `yaml:"correct"`
	OrderIndex int    `yaml:"order_index"`
}

// Store is the subset of the exam service the loader drives.
type Store interface {
	CreateExam(ctx context.Context, req *services.CreateExamRequest) (*models.Exam, error)
	DeleteExam(ctx context.Context, id uint) (bool, error)
	CreateQuestion(ctx context.Context, examID uint, req *services.CreateQuestionRequest) (*models.Question, error)
	CreateMultipleChoiceOption(ctx context.Context, questionID uint, req *services.CreateOptionRequest) (*models.MultipleChoiceOption, error)
	CreateFormulaAnswer(ctx context.Context, questionID uint, req *services.CreateFormulaAnswerRequest) (*models.FormulaAnswer, error)
}

// Parse decodes a fixture, rejecting unknown keys.
func Parse(r io.Reader) (*Fixture, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	var f Fixture
	if err := dec.Decode(&f); err != nil {
		if err == io.EOF {
			return &Fixture{}, nil
		}
		return nil, fmt.Errorf("parse fixture: %w", err)
	}
	return &f, nil
}

// Load creates every exam of the fixture and returns their ids in order. An
// exam that fails part way is deleted again before the error is returned;
// exams loaded before it stay.
func Load(ctx context.Context, store Store, f *Fixture) ([]uint, error) {
	ids := make([]uint, 0, len(f.Exams))
	for i := range f.Exams {
		id, err := loadExam(ctx, store, &f.Exams[i])
		if err != nil {
			return ids, fmt.Errorf("exam %d (%q): %w", i, f.Exams[i].Title, err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func loadExam(ctx context.Context, store Store, ef *ExamFixture) (uint, error) {
	exam, err := store.CreateExam(ctx, &services.CreateExamRequest{
		Title:       ef.Title,
		Description: ef.Description,
	})
	if err != nil {
		return 0, err
	}

	for i := range ef.Questions {
		if err := loadQuestion(ctx, store, exam.ID, &ef.Questions[i]); err != nil {
			if _, delErr := store.DeleteExam(ctx, exam.ID); delErr != nil {
				return 0, fmt.Errorf("question %d: %w (cleanup failed: %v)", i, err, delErr)
			}
			return 0, fmt.Errorf("question %d: %w", i, err)
		}
	}
	return exam.ID, nil
}

func loadQuestion(ctx context.Context, store Store, examID uint, qf *QuestionFixture) error {
	question, err := store.CreateQuestion(ctx, examID, &services.CreateQuestionRequest{
		Type:         models.QuestionType(qf.Type),
		QuestionText: qf.Text,
		Points:       qf.Points,
		OrderIndex:   qf.OrderIndex,
	})
	if err != nil {
		return err
	}

	for j, of := range qf.Options {
		if _, err := store.CreateMultipleChoiceOption(ctx, question.ID, &services.CreateOptionRequest{
			OptionText: of.Text,
			IsCorrect:  of.Correct,
			OrderIndex: of.OrderIndex,
		}); err != nil {
			return fmt.Errorf("option %d: %w", j, err)
		}
	}

	if qf.Answer != nil {
		if _, err := store.CreateFormulaAnswer(ctx, question.ID, &services.CreateFormulaAnswerRequest{
			ExpectedAnswer: *qf.Answer,
		}); err != nil {
			return fmt.Errorf("answer: %w", err)
		}
	}
	return nil
}
