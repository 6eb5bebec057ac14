package models

import (
	"strings"
	"time"
)

type QuestionType string

const (
	QuestionTypeMultipleChoice QuestionType = "MULTIPLE_CHOICE"
	QuestionTypeFormula        QuestionType = "FORMULA"
)

// ParseQuestionType accepts the canonical names case-insensitively, plus the
// legacy MATHEMATICS_FORMULA spelling.
func ParseQuestionType(raw string) (QuestionType, bool) {
	switch strings.ToUpper(strings.TrimSpace(raw)) {
	case string(QuestionTypeMultipleChoice):
		return QuestionTypeMultipleChoice, true
	case string(QuestionTypeFormula), "MATHEMATICS_FORMULA":
		return QuestionTypeFormula, true
	}
	return "", false
}

func (t QuestionType) Valid() bool {
	return t == QuestionTypeMultipleChoice || t == QuestionTypeFormula
}

type Question struct {
	ID           uint         `json:"id" gorm:"primaryKey"`
	ExamID       uint         `json:"exam_id" gorm:"not null;index"`
	Type         QuestionType `json:"type" gorm:"type:varchar(32);not null"`
	QuestionText string       `json:"question_text" gorm:"not null"`
	Points       float64      `json:"points" gorm:"not null"`
	OrderIndex   int          `json:"order_index" gorm:"not null"`
	CreatedAt    time.Time    `json:"created_at" gorm:"not null;autoCreateTime:false"`

	// Relationships
	Options       []MultipleChoiceOption `json:"-" gorm:"foreignKey:QuestionID;constraint:OnDelete:CASCADE"`
	FormulaAnswer *FormulaAnswer         `json:"-" gorm:"foreignKey:QuestionID;constraint:OnDelete:CASCADE"`
}
