package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"gorm.io/gorm"

	"exambuilder/models"
)

// GetExamWithQuestions loads the exam, its questions ordered by order_index
// (ties by id) and each question's payload. Questions with nothing attached
// carry a nil Payload.
func (s *ExamService) GetExamWithQuestions(ctx context.Context, id uint) (agg *models.ExamAggregate, err error) {
	ctx, span := s.startSpan(ctx, "GetExamWithQuestions")
	defer func() { endSpan(span, err) }()

	var (
		exam      models.Exam
		questions []models.Question
		options   []models.MultipleChoiceOption
		answers   []models.FormulaAnswer
	)
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&exam, id).Error; err != nil {
			return err
		}
		if err := tx.Where("exam_id = ?", id).
			Order("order_index ASC").
			Order("id ASC").
			Find(&questions).Error; err != nil {
			return err
		}
		if len(questions) == 0 {
			return nil
		}
		if err := tx.Model(&models.MultipleChoiceOption{}).
			Select("multiple_choice_options.*").
			Joins("JOIN questions ON questions.id = multiple_choice_options.question_id").
			Where("questions.exam_id = ?", id).
			Order("multiple_choice_options.order_index ASC").
			Order("multiple_choice_options.id ASC").
			Find(&options).Error; err != nil {
			return err
		}
		return tx.Model(&models.FormulaAnswer{}).
			Select("formula_answers.*").
			Joins("JOIN questions ON questions.id = formula_answers.question_id").
			Where("questions.exam_id = ?", id).
			Find(&answers).Error
	}, s.readTxOptions())
	if errors.Is(err, gorm.ErrRecordNotFound) {
		s.log.Debug("exam not found", "op", "GetExamWithQuestions", "exam_id", id)
		return nil, notFound("exam", id)
	}
	if err != nil {
		return nil, s.storeError("GetExamWithQuestions", err)
	}

	return assemble(exam, questions, options, answers), nil
}

// assemble merges the payload rows into their questions by question_id.
// Options must already be in display order.
func assemble(exam models.Exam, questions []models.Question, options []models.MultipleChoiceOption, answers []models.FormulaAnswer) *models.ExamAggregate {
	optionsByQuestion := make(map[uint][]models.MultipleChoiceOption)
	for _, o := range options {
		optionsByQuestion[o.QuestionID] = append(optionsByQuestion[o.QuestionID], o)
	}
	answerByQuestion := make(map[uint]models.FormulaAnswer, len(answers))
	for _, a := range answers {
		answerByQuestion[a.QuestionID] = a
	}

	agg := &models.ExamAggregate{
		Exam:      exam,
		Questions: make([]models.QuestionNode, 0, len(questions)),
	}
	for _, q := range questions {
		node := models.QuestionNode{Question: q}
		switch q.Type {
		case models.QuestionTypeMultipleChoice:
			if opts, ok := optionsByQuestion[q.ID]; ok && len(opts) > 0 {
				node.Payload = models.OptionsPayload{Options: opts}
			}
		case models.QuestionTypeFormula:
			if a, ok := answerByQuestion[q.ID]; ok {
				node.Payload = models.FormulaPayload{Answer: a}
			}
		}
		agg.Questions = append(agg.Questions, node)
	}
	return agg
}

// readTxOptions gives the aggregate read a single snapshot on Postgres.
// SQLite transactions are serializable already.
func (s *ExamService) readTxOptions() *sql.TxOptions {
	if s.db.Dialector != nil && s.db.Dialector.Name() == "postgres" {
		return &sql.TxOptions{Isolation: sql.LevelRepeatableRead, ReadOnly: true}
	}
	return nil
}

// ValidateExam reports advisory problems: clashing order indexes, multiple
// choice questions without options or without a correct option, and
// formula questions without an answer. It never changes anything.
func (s *ExamService) ValidateExam(ctx context.Context, id uint) (report *models.ExamReport, err error) {
	ctx, span := s.startSpan(ctx, "ValidateExam")
	defer func() { endSpan(span, err) }()

	agg, err := s.GetExamWithQuestions(ctx, id)
	if err != nil {
		return nil, err
	}
	report = inspect(agg)
	span.SetAttributes(
		attribute.Bool("exam.complete", report.Complete),
		attribute.Int("exam.issues", len(report.Issues)),
	)
	return report, nil
}

func inspect(agg *models.ExamAggregate) *models.ExamReport {
	report := &models.ExamReport{ExamID: agg.ID, Issues: []models.ExamIssue{}}
	add := func(code models.IssueCode, questionID uint, format string, args ...interface{}) {
		qid := questionID
		report.Issues = append(report.Issues, models.ExamIssue{
			Code:       code,
			QuestionID: &qid,
			Message:    fmt.Sprintf(format, args...),
		})
	}

	seenQuestionOrder := make(map[int]uint)
	for _, node := range agg.Questions {
		if first, ok := seenQuestionOrder[node.OrderIndex]; ok {
			add(models.IssueDuplicateQuestionOrder, node.ID,
				"question %d shares order_index %d with question %d", node.ID, node.OrderIndex, first)
		} else {
			seenQuestionOrder[node.OrderIndex] = node.ID
		}

		switch node.Type {
		case models.QuestionTypeMultipleChoice:
			opts, ok := node.AttachedOptions()
			if !ok {
				add(models.IssueMissingOptions, node.ID, "question %d has no options", node.ID)
				continue
			}
			correct := 0
			seenOptionOrder := make(map[int]bool, len(opts))
			for _, o := range opts {
				if o.IsCorrect {
					correct++
				}
				if seenOptionOrder[o.OrderIndex] {
					add(models.IssueDuplicateOptionOrder, node.ID,
						"question %d has more than one option at order_index %d", node.ID, o.OrderIndex)
				}
				seenOptionOrder[o.OrderIndex] = true
			}
			if correct == 0 {
				add(models.IssueNoCorrectOption, node.ID, "question %d has no correct option", node.ID)
			}
		case models.QuestionTypeFormula:
			if _, ok := node.AttachedAnswer(); !ok {
				add(models.IssueMissingFormulaAnswer, node.ID, "question %d has no expected answer", node.ID)
			}
		}
	}

	report.Complete = len(report.Issues) == 0
	return report
}
