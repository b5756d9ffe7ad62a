package services

import (
	"context"
	"time"
	. "trellis/internal/models"
	"trellis/internal/repositories"

	logger "github.com/Bparsons0904/goLogger"

	"github.com/google/uuid"
)

// TaskDefault is the built-in schedule applied when a task of a given type is
// auto-generated for a plant.
type TaskDefault struct {
	Frequency int
	Unit      RecurrenceUnit
	Title     string
}

var taskDefaults = map[CareTaskType]TaskDefault{
	TaskTypeWater:          {Frequency: 6, Unit: UnitDays, Title: "Water"},
	TaskTypeFertilize:      {Frequency: 12, Unit: UnitDays, Title: "Fertilize"},
	TaskTypeWaterFertilize: {Frequency: 12, Unit: UnitDays, Title: "Water & fertilize"},
	TaskTypeMist:           {Frequency: 3, Unit: UnitDays, Title: "Mist"},
	TaskTypeRepotCheck:     {Frequency: 6, Unit: UnitMonths, Title: "Check for repotting"},
	TaskTypePrune:          {Frequency: 30, Unit: UnitDays, Title: "Prune"},
	TaskTypeRotate:         {Frequency: 7, Unit: UnitDays, Title: "Rotate"},
	TaskTypeCustom:         {Frequency: 7, Unit: UnitDays, Title: "Care task"},
}

// TaskDefaults returns the default schedule for a task type. Unknown types
// fall back to the custom default.
func TaskDefaults(taskType CareTaskType) TaskDefault {
	if def, ok := taskDefaults[taskType]; ok {
		return def
	}
	return taskDefaults[TaskTypeCustom]
}

// CalculateNextDueDate advances a base date by one recurrence interval.
// Months use calendar-month arithmetic, so day-of-month overflow rolls into
// the following month (Jan 31 + 1 month lands in March).
func CalculateNextDueDate(from time.Time, pattern RecurrencePattern) time.Time {
	switch pattern.Unit {
	case UnitDays:
		return from.AddDate(0, 0, pattern.Frequency)
	case UnitWeeks:
		return from.AddDate(0, 0, pattern.Frequency*7)
	case UnitMonths:
		return from.AddDate(0, pattern.Frequency, 0)
	}
	return from
}

// RecurrenceService seeds the default recurring care tasks for new plants.
type RecurrenceService struct {
	careTaskRepo repositories.CareTaskRepository
	log          logger.Logger
}

func NewRecurrenceService(careTaskRepo repositories.CareTaskRepository) *RecurrenceService {
	return &RecurrenceService{
		careTaskRepo: careTaskRepo,
		log:          logger.New("recurrenceService"),
	}
}

// SeedDefaultTasks creates one recurring task per auto-generated type for a
// newly created plant. The plant's last-care date for a type, when present,
// seeds the first due date; otherwise the clock starts now. A failure creating
// one type's task is logged and does not prevent the others.
func (s *RecurrenceService) SeedDefaultTasks(
	ctx context.Context,
	plant *Plant,
	userID uuid.UUID,
) []uuid.UUID {
	log := s.log.Function("SeedDefaultTasks")

	now := time.Now()
	taskIDs := make([]uuid.UUID, 0, len(AutoGeneratedTaskTypes))

	for _, taskType := range AutoGeneratedTaskTypes {
		def := TaskDefaults(taskType)
		pattern := RecurrencePattern{Frequency: def.Frequency, Unit: def.Unit}

		base := now
		if lastCare := plant.LastCareDate(taskType); lastCare != nil {
			base = *lastCare
		}
		nextDue := CalculateNextDueDate(base, pattern)

		task := &CareTask{
			PlantID:         plant.ID,
			Type:            taskType,
			Title:           def.Title,
			IsRecurring:     true,
			NextDueDate:     &nextDue,
			AssignedUserID:  &userID,
			CreatedByUserID: userID,
		}
		task.SetPattern(&pattern)

		created, err := s.careTaskRepo.Create(ctx, task)
		if err != nil {
			log.Er("failed to seed default task", err,
				"plantID", plant.ID,
				"taskType", taskType,
			)
			continue
		}

		taskIDs = append(taskIDs, created.ID)
	}

	log.Info("Seeded default tasks", "plantID", plant.ID, "created", len(taskIDs))
	return taskIDs
}
