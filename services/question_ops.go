package services

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"exambuilder/models"
)

// CreateQuestion adds a question to an existing exam. The question starts
// without a payload.
func (s *ExamService) CreateQuestion(ctx context.Context, examID uint, req *CreateQuestionRequest) (question *models.Question, err error) {
	ctx, span := s.startSpan(ctx, "CreateQuestion")
	defer func() { endSpan(span, err) }()

	if err := req.validate(); err != nil {
		return nil, err
	}

	question = &models.Question{
		ExamID:       examID,
		Type:         req.Type,
		QuestionText: req.QuestionText,
		Points:       req.Points,
		OrderIndex:   req.OrderIndex,
		CreatedAt:    s.timestamp(),
	}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var exam models.Exam
		if err := tx.Select("id").First(&exam, examID).Error; err != nil {
			return err
		}
		return tx.Create(question).Error
	})
	if errors.Is(err, gorm.ErrRecordNotFound) {
		s.log.Debug("exam not found", "op", "CreateQuestion", "exam_id", examID)
		return nil, notFound("exam", examID)
	}
	if err != nil {
		return nil, s.storeError("CreateQuestion", err)
	}

	s.notify(ctx, EventQuestionCreated, question.ExamID, question.ID)
	return question, nil
}

// UpdateQuestion applies the supplied fields. A request without any field
// returns ErrNoFieldsToUpdate and no record.
func (s *ExamService) UpdateQuestion(ctx context.Context, id uint, req *UpdateQuestionRequest) (question *models.Question, err error) {
	ctx, span := s.startSpan(ctx, "UpdateQuestion")
	defer func() { endSpan(span, err) }()

	if err := req.validate(); err != nil {
		return nil, err
	}

	changes := map[string]interface{}{}
	if req.QuestionText != nil {
		changes["question_text"] = *req.QuestionText
	}
	if req.Points != nil {
		changes["points"] = *req.Points
	}
	if req.OrderIndex != nil {
		changes["order_index"] = *req.OrderIndex
	}
	if len(changes) == 0 {
		return nil, ErrNoFieldsToUpdate
	}

	var updated models.Question
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Question{}).Where("id = ?", id).Updates(changes)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return tx.First(&updated, id).Error
	})
	if errors.Is(err, gorm.ErrRecordNotFound) {
		s.log.Debug("question not found", "op", "UpdateQuestion", "question_id", id)
		return nil, notFound("question", id)
	}
	if err != nil {
		return nil, s.storeError("UpdateQuestion", err)
	}

	s.notify(ctx, EventQuestionUpdated, updated.ExamID, updated.ID)
	return &updated, nil
}

// DeleteQuestion reports whether the question existed. Its options or
// answer are removed with it.
func (s *ExamService) DeleteQuestion(ctx context.Context, id uint) (deleted bool, err error) {
	ctx, span := s.startSpan(ctx, "DeleteQuestion")
	defer func() { endSpan(span, err) }()

	var question models.Question
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Select("id", "exam_id").First(&question, id).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Question{}, id).Error
	})
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, s.storeError("DeleteQuestion", err)
	}

	s.notify(ctx, EventQuestionDeleted, question.ExamID, id)
	return true, nil
}

// loadQuestion fetches the question a payload is being attached to.
func loadQuestion(tx *gorm.DB, id uint) (*models.Question, error) {
	var question models.Question
	if err := tx.First(&question, id).Error; err != nil {
		return nil, err
	}
	return &question, nil
}

func examIDForQuestion(tx *gorm.DB, questionID uint) (uint, error) {
	var question models.Question
	if err := tx.Select("id", "exam_id").First(&question, questionID).Error; err != nil {
		return 0, err
	}
	return question.ExamID, nil
}
