package services

import (
	"bytes"
	"encoding/json"

	"exambuilder/models"
)

type CreateExamRequest struct {
	Title       string  `json:"title" validate:"notblank"`
	Description *string `json:"description"`
}

// UpdateExamRequest is a partial update. A nil field is left unchanged;
// ClearDescription sets the description to NULL.
type UpdateExamRequest struct {
	Title            *string `json:"title" validate:"omitempty,notblank"`
	Description      *string `json:"description"`
	ClearDescription bool    `json:"-"`
}

// UnmarshalJSON tells an explicit "description": null apart from an omitted
// description.
func (r *UpdateExamRequest) UnmarshalJSON(data []byte) error {
	var raw struct {
		Title       *string         `json:"title"`
		Description json.RawMessage `json:"description"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	r.Title = raw.Title
	r.Description = nil
	r.ClearDescription = false
	switch {
	case len(raw.Description) == 0:
	case bytes.Equal(bytes.TrimSpace(raw.Description), []byte("null")):
		r.ClearDescription = true
	default:
		var desc string
		if err := json.Unmarshal(raw.Description, &desc); err != nil {
			return err
		}
		r.Description = &desc
	}
	return nil
}

type CreateQuestionRequest struct {
	Type         models.QuestionType `json:"type" validate:"question_type"`
	QuestionText string              `json:"question_text" validate:"notblank"`
	Points       float64             `json:"points" validate:"finite,gt=0"`
	OrderIndex   int                 `json:"order_index" validate:"min=0"`
}

type UpdateQuestionRequest struct {
	QuestionText *string  `json:"question_text" validate:"omitempty,notblank"`
	Points       *float64 `json:"points" validate:"omitempty,finite,gt=0"`
	OrderIndex   *int     `json:"order_index" validate:"omitempty,min=0"`
}

type CreateOptionRequest struct {
	OptionText string `json:"option_text" validate:"notblank"`
	IsCorrect  bool   `json:"is_correct"`
	OrderIndex int    `json:"order_index" validate:"min=0"`
}

type UpdateOptionRequest struct {
	OptionText *string `json:"option_text" validate:"omitempty,notblank"`
	IsCorrect  *bool   `json:"is_correct"`
	OrderIndex *int    `json:"order_index" validate:"omitempty,min=0"`
}

type CreateFormulaAnswerRequest struct {
	ExpectedAnswer string `json:"expected_answer" validate:"notblank"`
}

type UpdateFormulaAnswerRequest struct {
	ExpectedAnswer *string `json:"expected_answer" validate:"omitempty,notblank"`
}
