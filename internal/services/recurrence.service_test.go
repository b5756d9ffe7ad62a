package services

import (
	"context"
	"errors"
	"testing"
	"time"
	. "trellis/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCalculateNextDueDate(t *testing.T) {
	base := time.Date(2026, 3, 10, 8, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		from     time.Time
		pattern  RecurrencePattern
		expected time.Time
	}{
		{
			name:     "days",
			from:     base,
			pattern:  RecurrencePattern{Frequency: 6, Unit: UnitDays},
			expected: time.Date(2026, 3, 16, 8, 0, 0, 0, time.UTC),
		},
		{
			name:     "weeks",
			from:     base,
			pattern:  RecurrencePattern{Frequency: 2, Unit: UnitWeeks},
			expected: time.Date(2026, 3, 24, 8, 0, 0, 0, time.UTC),
		},
		{
			name:     "months",
			from:     base,
			pattern:  RecurrencePattern{Frequency: 6, Unit: UnitMonths},
			expected: time.Date(2026, 9, 10, 8, 0, 0, 0, time.UTC),
		},
		{
			name:     "days across month boundary",
			from:     time.Date(2026, 1, 30, 12, 0, 0, 0, time.UTC),
			pattern:  RecurrencePattern{Frequency: 5, Unit: UnitDays},
			expected: time.Date(2026, 2, 4, 12, 0, 0, 0, time.UTC),
		},
		{
			name:    "month overflow rolls forward",
			from:    time.Date(2026, 1, 31, 0, 0, 0, 0, time.UTC),
			pattern: RecurrencePattern{Frequency: 1, Unit: UnitMonths},
			// 2026 is not a leap year, so Feb 31 normalizes to Mar 3
			expected: time.Date(2026, 3, 3, 0, 0, 0, 0, time.UTC),
		},
		{
			name:     "months across year boundary",
			from:     time.Date(2026, 11, 15, 0, 0, 0, 0, time.UTC),
			pattern:  RecurrencePattern{Frequency: 3, Unit: UnitMonths},
			expected: time.Date(2027, 2, 15, 0, 0, 0, 0, time.UTC),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := CalculateNextDueDate(tt.from, tt.pattern)
			assert.True(t, result.Equal(tt.expected),
				"expected %s, got %s", tt.expected, result)
		})
	}
}

func TestTaskDefaults(t *testing.T) {
	tests := []struct {
		taskType  CareTaskType
		frequency int
		unit      RecurrenceUnit
	}{
		{TaskTypeWater, 6, UnitDays},
		{TaskTypeFertilize, 12, UnitDays},
		{TaskTypeWaterFertilize, 12, UnitDays},
		{TaskTypeMist, 3, UnitDays},
		{TaskTypeRepotCheck, 6, UnitMonths},
		{TaskTypePrune, 30, UnitDays},
		{TaskTypeRotate, 7, UnitDays},
		{TaskTypeCustom, 7, UnitDays},
	}

	for _, tt := range tests {
		t.Run(string(tt.taskType), func(t *testing.T) {
			def := TaskDefaults(tt.taskType)
			assert.Equal(t, tt.frequency, def.Frequency)
			assert.Equal(t, tt.unit, def.Unit)
			assert.NotEmpty(t, def.Title)
		})
	}
}

func TestTaskDefaultsUnknownTypeFallsBackToCustom(t *testing.T) {
	def := TaskDefaults(CareTaskType("interpretive_dance"))
	assert.Equal(t, taskDefaults[TaskTypeCustom], def)
}

type mockCareTaskRepository struct {
	created   []*CareTask
	createErr func(task *CareTask) error
}

func (m *mockCareTaskRepository) GetByID(ctx context.Context, id uuid.UUID) (*CareTask, error) {
	return nil, errors.New("not implemented")
}

func (m *mockCareTaskRepository) GetByPlant(
	ctx context.Context,
	plantID uuid.UUID,
) ([]*CareTask, error) {
	return nil, errors.New("not implemented")
}

func (m *mockCareTaskRepository) GetDueBefore(
	ctx context.Context,
	cutoff time.Time,
) ([]*CareTask, error) {
	return nil, errors.New("not implemented")
}

func (m *mockCareTaskRepository) Create(ctx context.Context, task *CareTask) (*CareTask, error) {
	if m.createErr != nil {
		if err := m.createErr(task); err != nil {
			return nil, err
		}
	}
	task.ID = uuid.Must(uuid.NewV7())
	m.created = append(m.created, task)
	return task, nil
}

func (m *mockCareTaskRepository) Update(ctx context.Context, task *CareTask) (*CareTask, error) {
	return nil, errors.New("not implemented")
}

func (m *mockCareTaskRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return errors.New("not implemented")
}

func (m *mockCareTaskRepository) CreateCompletion(
	ctx context.Context,
	completion *TaskCompletion,
) error {
	return errors.New("not implemented")
}

func (m *mockCareTaskRepository) GetCompletions(
	ctx context.Context,
	taskID uuid.UUID,
) ([]*TaskCompletion, error) {
	return nil, errors.New("not implemented")
}

func TestSeedDefaultTasksCreatesOneTaskPerType(t *testing.T) {
	repo := &mockCareTaskRepository{}
	service := NewRecurrenceService(repo)
	userID := uuid.Must(uuid.NewV7())
	plant := &Plant{BaseUUIDModel: BaseUUIDModel{ID: uuid.Must(uuid.NewV7())}}

	taskIDs := service.SeedDefaultTasks(context.Background(), plant, userID)

	require.Len(t, taskIDs, len(AutoGeneratedTaskTypes))
	require.Len(t, repo.created, len(AutoGeneratedTaskTypes))

	seenTypes := make(map[CareTaskType]bool)
	for _, task := range repo.created {
		seenTypes[task.Type] = true
		assert.True(t, task.IsRecurring)
		assert.Equal(t, ModeRecurring, task.Mode())
		assert.Equal(t, plant.ID, task.PlantID)
		assert.Equal(t, userID, task.CreatedByUserID)
		require.NotNil(t, task.NextDueDate)
		assert.True(t, task.NextDueDate.After(time.Now()),
			"tasks seeded without care history are due in the future")
	}
	for _, taskType := range AutoGeneratedTaskTypes {
		assert.True(t, seenTypes[taskType], "missing task for type %s", taskType)
	}
}

func TestSeedDefaultTasksUsesLastCareDates(t *testing.T) {
	repo := &mockCareTaskRepository{}
	service := NewRecurrenceService(repo)
	userID := uuid.Must(uuid.NewV7())

	lastWatered := time.Date(2026, 8, 1, 9, 0, 0, 0, time.UTC)
	plant := &Plant{
		BaseUUIDModel: BaseUUIDModel{ID: uuid.Must(uuid.NewV7())},
		LastWateredAt: &lastWatered,
	}

	service.SeedDefaultTasks(context.Background(), plant, userID)

	var waterTask *CareTask
	for _, task := range repo.created {
		if task.Type == TaskTypeWater {
			waterTask = task
		}
	}
	require.NotNil(t, waterTask)
	require.NotNil(t, waterTask.NextDueDate)

	expected := lastWatered.AddDate(0, 0, 6)
	assert.True(t, waterTask.NextDueDate.Equal(expected),
		"watering schedule should continue from the recorded care history")
}

func TestSeedDefaultTasksContinuesPastFailures(t *testing.T) {
	repo := &mockCareTaskRepository{
		createErr: func(task *CareTask) error {
			if task.Type == TaskTypeFertilize {
				return errors.New("constraint violation")
			}
			return nil
		},
	}
	service := NewRecurrenceService(repo)
	plant := &Plant{BaseUUIDModel: BaseUUIDModel{ID: uuid.Must(uuid.NewV7())}}

	taskIDs := service.SeedDefaultTasks(context.Background(), plant, uuid.Must(uuid.NewV7()))

	assert.Len(t, taskIDs, len(AutoGeneratedTaskTypes)-1,
		"one failed type should not block the others")
}
