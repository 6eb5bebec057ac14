package services

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"exambuilder/models"
)

// CreateMultipleChoiceOption attaches an option to a MULTIPLE_CHOICE question.
// Any other question type is rejected with a ConstraintError.
func (s *ExamService) CreateMultipleChoiceOption(ctx context.Context, questionID uint, req *CreateOptionRequest) (option *models.MultipleChoiceOption, err error) {
	ctx, span := s.startSpan(ctx, "CreateMultipleChoiceOption")
	defer func() { endSpan(span, err) }()

	if err := req.validate(); err != nil {
		return nil, err
	}

	var examID uint
	option = &models.MultipleChoiceOption{
		QuestionID: questionID,
		OptionText: req.OptionText,
		IsCorrect:  req.IsCorrect,
		OrderIndex: req.OrderIndex,
	}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		question, err := loadQuestion(tx, questionID)
		if err != nil {
			return err
		}
		if question.Type != models.QuestionTypeMultipleChoice {
			return &ConstraintError{Reason: fmt.Sprintf("question %d is not a multiple choice question", questionID)}
		}
		examID = question.ExamID
		return tx.Create(option).Error
	})
	if errors.Is(err, gorm.ErrRecordNotFound) {
		s.log.Debug("question not found", "op", "CreateMultipleChoiceOption", "question_id", questionID)
		return nil, notFound("question", questionID)
	}
	if errors.Is(err, ErrConstraintViolation) {
		return nil, err
	}
	if err != nil {
		return nil, s.storeError("CreateMultipleChoiceOption", err)
	}

	s.notify(ctx, EventOptionCreated, examID, option.ID)
	return option, nil
}

// UpdateMultipleChoiceOption applies the supplied fields. Like questions, a
// request without any field returns ErrNoFieldsToUpdate.
func (s *ExamService) UpdateMultipleChoiceOption(ctx context.Context, id uint, req *UpdateOptionRequest) (option *models.MultipleChoiceOption, err error) {
	ctx, span := s.startSpan(ctx, "UpdateMultipleChoiceOption")
	defer func() { endSpan(span, err) }()

	if err := req.validate(); err != nil {
		return nil, err
	}

	changes := map[string]interface{}{}
	if req.OptionText != nil {
		changes["option_text"] = *req.OptionText
	}
	if req.IsCorrect != nil {
		changes["is_correct"] = *req.IsCorrect
	}
	if req.OrderIndex != nil {
		changes["order_index"] = *req.OrderIndex
	}
	if len(changes) == 0 {
		return nil, ErrNoFieldsToUpdate
	}

	var (
		updated models.MultipleChoiceOption
		examID  uint
	)
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.MultipleChoiceOption{}).Where("id = ?", id).Updates(changes)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		if err := tx.First(&updated, id).Error; err != nil {
			return err
		}
		owner, err := examIDForQuestion(tx, updated.QuestionID)
		examID = owner
		return err
	})
	if errors.Is(err, gorm.ErrRecordNotFound) {
		s.log.Debug("option not found", "op", "UpdateMultipleChoiceOption", "option_id", id)
		return nil, notFound("option", id)
	}
	if err != nil {
		return nil, s.storeError("UpdateMultipleChoiceOption", err)
	}

	s.notify(ctx, EventOptionUpdated, examID, updated.ID)
	return &updated, nil
}

func (s *ExamService) DeleteMultipleChoiceOption(ctx context.Context, id uint) (deleted bool, err error) {
	ctx, span := s.startSpan(ctx, "DeleteMultipleChoiceOption")
	defer func() { endSpan(span, err) }()

	var examID uint
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var option models.MultipleChoiceOption
		if err := tx.First(&option, id).Error; err != nil {
			return err
		}
		var err error
		if examID, err = examIDForQuestion(tx, option.QuestionID); err != nil {
			return err
		}
		return tx.Delete(&models.MultipleChoiceOption{}, id).Error
	})
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, s.storeError("DeleteMultipleChoiceOption", err)
	}

	s.notify(ctx, EventOptionDeleted, examID, id)
	return true, nil
}

// CreateFormulaAnswer attaches the expected answer of a FORMULA question. A
// question holds at most one answer; a second one is a ConstraintError.
func (s *ExamService) CreateFormulaAnswer(ctx context.Context, questionID uint, req *CreateFormulaAnswerRequest) (answer *models.FormulaAnswer, err error) {
	ctx, span := s.startSpan(ctx, "CreateFormulaAnswer")
	defer func() { endSpan(span, err) }()

	if err := req.validate(); err != nil {
		return nil, err
	}

	var examID uint
	answer = &models.FormulaAnswer{
		QuestionID:     questionID,
		ExpectedAnswer: req.ExpectedAnswer,
	}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		question, err := loadQuestion(tx, questionID)
		if err != nil {
			return err
		}
		if question.Type != models.QuestionTypeFormula {
			return &ConstraintError{Reason: fmt.Sprintf("question %d is not a formula question", questionID)}
		}

		var existing int64
		if err := tx.Model(&models.FormulaAnswer{}).Where("question_id = ?", questionID).Count(&existing).Error; err != nil {
			return err
		}
		if existing > 0 {
			return duplicateAnswer(questionID)
		}

		examID = question.ExamID
		return tx.Create(answer).Error
	})
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		err = duplicateAnswer(questionID)
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		s.log.Debug("question not found", "op", "CreateFormulaAnswer", "question_id", questionID)
		return nil, notFound("question", questionID)
	}
	if errors.Is(err, ErrConstraintViolation) {
		return nil, err
	}
	if err != nil {
		return nil, s.storeError("CreateFormulaAnswer", err)
	}

	s.notify(ctx, EventFormulaAnswerCreated, examID, answer.ID)
	return answer, nil
}

// UpdateFormulaAnswer applies the supplied fields. Unlike questions and
// options, a request without any field returns the stored answer unchanged.
func (s *ExamService) UpdateFormulaAnswer(ctx context.Context, id uint, req *UpdateFormulaAnswerRequest) (answer *models.FormulaAnswer, err error) {
	ctx, span := s.startSpan(ctx, "UpdateFormulaAnswer")
	defer func() { endSpan(span, err) }()

	if err := req.validate(); err != nil {
		return nil, err
	}

	var (
		current models.FormulaAnswer
		examID  uint
		changed bool
	)
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&current, id).Error; err != nil {
			return err
		}
		if req.ExpectedAnswer == nil {
			return nil
		}
		if err := tx.Model(&models.FormulaAnswer{}).Where("id = ?", id).
			Update("expected_answer", *req.ExpectedAnswer).Error; err != nil {
			return err
		}
		if err := tx.First(&current, id).Error; err != nil {
			return err
		}
		changed = true
		owner, err := examIDForQuestion(tx, current.QuestionID)
		examID = owner
		return err
	})
	if errors.Is(err, gorm.ErrRecordNotFound) {
		s.log.Debug("formula answer not found", "op", "UpdateFormulaAnswer", "answer_id", id)
		return nil, notFound("formula answer", id)
	}
	if err != nil {
		return nil, s.storeError("UpdateFormulaAnswer", err)
	}

	if changed {
		s.notify(ctx, EventFormulaAnswerUpdated, examID, current.ID)
	}
	return &current, nil
}

func (s *ExamService) DeleteFormulaAnswer(ctx context.Context, id uint) (deleted bool, err error) {
	ctx, span := s.startSpan(ctx, "DeleteFormulaAnswer")
	defer func() { endSpan(span, err) }()

	var examID uint
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var answer models.FormulaAnswer
		if err := tx.First(&answer, id).Error; err != nil {
			return err
		}
		var err error
		if examID, err = examIDForQuestion(tx, answer.QuestionID); err != nil {
			return err
		}
		return tx.Delete(&models.FormulaAnswer{}, id).Error
	})
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, s.storeError("DeleteFormulaAnswer", err)
	}

	s.notify(ctx, EventFormulaAnswerDeleted, examID, id)
	return true, nil
}

func duplicateAnswer(questionID uint) error {
	return &ConstraintError{Reason: fmt.Sprintf("question %d already has a formula answer", questionID)}
}
