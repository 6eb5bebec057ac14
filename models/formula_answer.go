package models

// FormulaAnswer holds the expected answer of a FORMULA question. The unique
// index on QuestionID keeps it one-to-one with its question.
type FormulaAnswer struct {
	ID             uint   `json:"id" gorm:"primaryKey"`
	QuestionID     uint   `json:"question_id" gorm:"not null;uniqueIndex"`
	ExpectedAnswer string `json:"expected_answer" gorm:"not null"`
}
