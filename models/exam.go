package models

import "time"

// Exam is the aggregate root. Deleting it removes every question and payload
// row underneath it through the foreign key cascade.
type Exam struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	Title       string    `json:"title" gorm:"not null"`
	Description *string   `json:"description"`
	CreatedAt   time.Time `json:"created_at" gorm:"not null;autoCreateTime:false"`
	UpdatedAt   time.Time `json:"updated_at" gorm:"not null;autoUpdateTime:false"`

	// Relationships
	Questions []Question `json:"-" gorm:"foreignKey:ExamID;constraint:OnDelete:CASCADE"`
}
