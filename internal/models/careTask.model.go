package models

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type CareTaskType string

const (
	TaskTypeWater          CareTaskType = "water"
	TaskTypeFertilize      CareTaskType = "fertilize"
	TaskTypeWaterFertilize CareTaskType = "water_fertilize"
	TaskTypeMist           CareTaskType = "mist"
	TaskTypeRepotCheck     CareTaskType = "repot_check"
	TaskTypePrune          CareTaskType = "prune"
	TaskTypeRotate         CareTaskType = "rotate"
	TaskTypeCustom         CareTaskType = "custom"
)

func (t CareTaskType) IsValid() bool {
	switch t {
	case TaskTypeWater, TaskTypeFertilize, TaskTypeWaterFertilize, TaskTypeMist,
		TaskTypeRepotCheck, TaskTypePrune, TaskTypeRotate, TaskTypeCustom:
		return true
	}
	return false
}

// AutoGeneratedTaskTypes are created for every new plant, seeded from the
// plant's last-care dates when supplied.
var AutoGeneratedTaskTypes = []CareTaskType{
	TaskTypeWater,
	TaskTypeFertilize,
	TaskTypeMist,
	TaskTypeRepotCheck,
}

type RecurrenceUnit string

const (
	UnitDays   RecurrenceUnit = "days"
	UnitWeeks  RecurrenceUnit = "weeks"
	UnitMonths RecurrenceUnit = "months"
)

func (u RecurrenceUnit) IsValid() bool {
	switch u {
	case UnitDays, UnitWeeks, UnitMonths:
		return true
	}
	return false
}

// RecurrencePattern describes how often a task repeats. SpecificDays carries
// day-of-week constraints (0=Sunday) for weekly patterns; it is stored but not
// factored into due-date computation.
type RecurrencePattern struct {
	Frequency    int            `json:"frequency"`
	Unit         RecurrenceUnit `json:"unit"`
	SpecificDays []int          `json:"specificDays,omitempty"`
}

func (p *RecurrencePattern) Validate() error {
	if p == nil {
		return errors.New("recurrence pattern is required")
	}
	if p.Frequency <= 0 {
		return fmt.Errorf("recurrence frequency must be positive, got %d", p.Frequency)
	}
	if !p.Unit.IsValid() {
		return fmt.Errorf("invalid recurrence unit: %q", p.Unit)
	}
	for _, day := range p.SpecificDays {
		if day < 0 || day > 6 {
			return fmt.Errorf("specific day out of range 0..6: %d", day)
		}
	}
	return nil
}

// ScheduleMode is the explicit task state derived from IsRecurring and
// NextDueDate. The three modes are mutually exclusive and exhaustive.
type ScheduleMode string

const (
	ModeRecurring   ScheduleMode = "recurring"
	ModeOneTime     ScheduleMode = "one_time"
	ModeUnscheduled ScheduleMode = "unscheduled"
)

func (m ScheduleMode) IsValid() bool {
	switch m {
	case ModeRecurring, ModeOneTime, ModeUnscheduled:
		return true
	}
	return false
}

type CareTask struct {
	BaseUUIDModel
	PlantID     uuid.UUID    `gorm:"type:uuid;not null;index"                        json:"plantId"`
	Plant       *Plant       `gorm:"foreignKey:PlantID;constraint:OnDelete:CASCADE"  json:"plant,omitempty"`
	Type        CareTaskType `gorm:"type:text;not null"                              json:"type"`
	Title       string       `gorm:"type:text;not null"                              json:"title"`
	Description string       `gorm:"type:text"                                       json:"description,omitempty"`

	IsRecurring         bool                     `gorm:"type:bool;default:false" json:"isRecurring"`
	RecurrenceFrequency *int                     `gorm:"type:int"                json:"recurrenceFrequency,omitempty"`
	RecurrenceUnit      *RecurrenceUnit          `gorm:"type:text"               json:"recurrenceUnit,omitempty"`
	RecurrenceDays      datatypes.JSONSlice[int] `gorm:"type:jsonb"              json:"recurrenceDays,omitempty"`

	NextDueDate     *time.Time `gorm:"type:timestamp;index" json:"nextDueDate,omitempty"`
	LastCompletedAt *time.Time `gorm:"type:timestamp"       json:"lastCompletedAt,omitempty"`

	AssignedUserID       *uuid.UUID `gorm:"type:uuid"          json:"assignedUserId,omitempty"`
	CreatedByUserID      uuid.UUID  `gorm:"type:uuid;not null" json:"createdByUserId"`
	LastModifiedByUserID *uuid.UUID `gorm:"type:uuid"          json:"lastModifiedByUserId,omitempty"`

	Completions []TaskCompletion `gorm:"foreignKey:TaskID;constraint:OnDelete:CASCADE" json:"completions,omitempty"`
}

// Mode derives the schedule mode from the stored fields.
func (t *CareTask) Mode() ScheduleMode {
	if t.IsRecurring {
		return ModeRecurring
	}
	if t.NextDueDate != nil {
		return ModeOneTime
	}
	return ModeUnscheduled
}

// Pattern returns the task's recurrence pattern, or nil for non-recurring tasks.
func (t *CareTask) Pattern() *RecurrencePattern {
	if t.RecurrenceFrequency == nil || t.RecurrenceUnit == nil {
		return nil
	}
	return &RecurrencePattern{
		Frequency:    *t.RecurrenceFrequency,
		Unit:         *t.RecurrenceUnit,
		SpecificDays: t.RecurrenceDays,
	}
}

func (t *CareTask) SetPattern(pattern *RecurrencePattern) {
	if pattern == nil {
		t.ClearPattern()
		return
	}
	frequency := pattern.Frequency
	unit := pattern.Unit
	t.RecurrenceFrequency = &frequency
	t.RecurrenceUnit = &unit
	t.RecurrenceDays = pattern.SpecificDays
}

func (t *CareTask) ClearPattern() {
	t.RecurrenceFrequency = nil
	t.RecurrenceUnit = nil
	t.RecurrenceDays = nil
}

// BeforeSave rejects the illegal combination of a recurring task without a
// maintained pattern and due date.
func (t *CareTask) BeforeSave(tx *gorm.DB) error {
	if !t.IsRecurring {
		return nil
	}
	if err := t.Pattern().Validate(); err != nil {
		return fmt.Errorf("recurring task requires a valid pattern: %w", err)
	}
	if t.NextDueDate == nil {
		return errors.New("recurring task requires a next due date")
	}
	return nil
}
