package models

import (
	"time"

	"github.com/google/uuid"
)

// TaskCompletion is an immutable log entry recorded each time a task is
// completed. Rows are only removed by cascade when the parent task is deleted.
type TaskCompletion struct {
	BaseUUIDModel
	TaskID      uuid.UUID `gorm:"type:uuid;not null;index"                      json:"taskId"`
	Task        *CareTask `gorm:"foreignKey:TaskID;constraint:OnDelete:CASCADE" json:"task,omitempty"`
	CompletedAt time.Time `gorm:"type:timestamp;not null"                       json:"completedAt"`
	Notes       string    `gorm:"type:text"                                     json:"notes,omitempty"`
	Skipped     bool      `gorm:"type:bool;default:false"                       json:"skipped"`
}
