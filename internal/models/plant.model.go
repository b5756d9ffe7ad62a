package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

type Plant struct {
	BaseUUIDModel
	UserID      uuid.UUID  `gorm:"type:uuid;not null;index"       json:"userId"`
	User        *User      `gorm:"foreignKey:UserID"              json:"user,omitempty"`
	GroupID     *uuid.UUID `gorm:"type:uuid;index"                json:"groupId,omitempty"`
	Name        string     `gorm:"type:text;not null"             json:"name"`
	SpeciesType string     `gorm:"type:text;not null"             json:"speciesType"`
	SpeciesName string     `gorm:"type:text"                      json:"speciesName"`
	Location    string     `gorm:"type:text;not null"             json:"location"`

	DateAcquired       *time.Time `gorm:"type:timestamp"  json:"dateAcquired,omitempty"`
	PotSize            string     `gorm:"type:text"       json:"potSize,omitempty"`
	PotType            string     `gorm:"type:text"       json:"potType,omitempty"`
	SoilType           string     `gorm:"type:text"       json:"soilType,omitempty"`
	Sunlight           string     `gorm:"type:text"       json:"sunlight,omitempty"`
	Notes              string     `gorm:"type:text"       json:"notes,omitempty"`
	PurchasePriceCents *int64     `gorm:"type:bigint"     json:"purchasePriceCents,omitempty"`

	// Last-care timestamps, read as seeds for auto-generated tasks and
	// written on task completion.
	LastWateredAt    *time.Time `gorm:"type:timestamp" json:"lastWateredAt,omitempty"`
	LastFertilizedAt *time.Time `gorm:"type:timestamp" json:"lastFertilizedAt,omitempty"`
	LastMistedAt     *time.Time `gorm:"type:timestamp" json:"lastMistedAt,omitempty"`
	LastRepottedAt   *time.Time `gorm:"type:timestamp" json:"lastRepottedAt,omitempty"`

	AssignedUserID       *uuid.UUID `gorm:"type:uuid"          json:"assignedUserId,omitempty"`
	CreatedByUserID      uuid.UUID  `gorm:"type:uuid;not null" json:"createdByUserId"`
	LastModifiedByUserID *uuid.UUID `gorm:"type:uuid"          json:"lastModifiedByUserId,omitempty"`
}

// PlantDedupKey builds the case- and whitespace-insensitive composite key used
// to match imported rows against existing plants for the same user. Two plants
// with the same key are treated as the same plant for import purposes.
func PlantDedupKey(name, speciesType, location string) string {
	parts := []string{name, speciesType, location}
	for i, part := range parts {
		parts[i] = strings.ToLower(strings.TrimSpace(part))
	}
	return strings.Join(parts, "|")
}

func (p *Plant) DedupKey() string {
	return PlantDedupKey(p.Name, p.SpeciesType, p.Location)
}

// LastCareDate returns the plant's last-care timestamp matching a task type,
// or nil when the type has no corresponding plant field.
func (p *Plant) LastCareDate(taskType CareTaskType) *time.Time {
	switch taskType {
	case TaskTypeWater:
		return p.LastWateredAt
	case TaskTypeFertilize:
		return p.LastFertilizedAt
	case TaskTypeMist:
		return p.LastMistedAt
	case TaskTypeRepotCheck:
		return p.LastRepottedAt
	}
	return nil
}

// StampLastCare records a completion time on the plant fields matching a task
// type. water_fertilize stamps both watering and fertilizing.
func (p *Plant) StampLastCare(taskType CareTaskType, completedAt time.Time) {
	switch taskType {
	case TaskTypeWater:
		p.LastWateredAt = &completedAt
	case TaskTypeFertilize:
		p.LastFertilizedAt = &completedAt
	case TaskTypeWaterFertilize:
		p.LastWateredAt = &completedAt
		p.LastFertilizedAt = &completedAt
	case TaskTypeMist:
		p.LastMistedAt = &completedAt
	case TaskTypeRepotCheck:
		p.LastRepottedAt = &completedAt
	}
}
