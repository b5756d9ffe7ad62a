package taskController

import (
	"context"
	"errors"
	"testing"
	"time"
	. "trellis/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type mockCareTaskRepo struct {
	tasks       map[uuid.UUID]*CareTask
	completions []*TaskCompletion
	deleted     []uuid.UUID
}

func newMockCareTaskRepo() *mockCareTaskRepo {
	return &mockCareTaskRepo{tasks: make(map[uuid.UUID]*CareTask)}
}

func (m *mockCareTaskRepo) GetByID(ctx context.Context, id uuid.UUID) (*CareTask, error) {
	task, ok := m.tasks[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *task
	return &copied, nil
}

func (m *mockCareTaskRepo) GetByPlant(ctx context.Context, plantID uuid.UUID) ([]*CareTask, error) {
	var tasks []*CareTask
	for _, task := range m.tasks {
		if task.PlantID == plantID {
			tasks = append(tasks, task)
		}
	}
	return tasks, nil
}

func (m *mockCareTaskRepo) GetDueBefore(ctx context.Context, cutoff time.Time) ([]*CareTask, error) {
	return nil, errors.New("not implemented")
}

func (m *mockCareTaskRepo) Create(ctx context.Context, task *CareTask) (*CareTask, error) {
	task.ID = uuid.Must(uuid.NewV7())
	task.CreatedAt = time.Now()
	m.tasks[task.ID] = task
	return task, nil
}

func (m *mockCareTaskRepo) Update(ctx context.Context, task *CareTask) (*CareTask, error) {
	if _, ok := m.tasks[task.ID]; !ok {
		return nil, gorm.ErrRecordNotFound
	}
	m.tasks[task.ID] = task
	return task, nil
}

func (m *mockCareTaskRepo) Delete(ctx context.Context, id uuid.UUID) error {
	delete(m.tasks, id)
	m.deleted = append(m.deleted, id)
	return nil
}

func (m *mockCareTaskRepo) CreateCompletion(ctx context.Context, completion *TaskCompletion) error {
	completion.ID = uuid.Must(uuid.NewV7())
	m.completions = append(m.completions, completion)
	return nil
}

func (m *mockCareTaskRepo) GetCompletions(
	ctx context.Context,
	taskID uuid.UUID,
) ([]*TaskCompletion, error) {
	var completions []*TaskCompletion
	for _, completion := range m.completions {
		if completion.TaskID == taskID {
			completions = append(completions, completion)
		}
	}
	return completions, nil
}

type mockPlantRepo struct {
	plants map[uuid.UUID]*Plant
}

func newMockPlantRepo() *mockPlantRepo {
	return &mockPlantRepo{plants: make(map[uuid.UUID]*Plant)}
}

func (m *mockPlantRepo) GetByID(ctx context.Context, id uuid.UUID) (*Plant, error) {
	plant, ok := m.plants[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *plant
	return &copied, nil
}

func (m *mockPlantRepo) GetAllByUser(ctx context.Context, userID uuid.UUID) ([]*Plant, error) {
	return nil, errors.New("not implemented")
}

func (m *mockPlantRepo) GetAllByGroup(ctx context.Context, groupID uuid.UUID) ([]*Plant, error) {
	return nil, errors.New("not implemented")
}

func (m *mockPlantRepo) Create(ctx context.Context, plant *Plant) (*Plant, error) {
	return nil, errors.New("not implemented")
}

func (m *mockPlantRepo) InsertMany(ctx context.Context, plants []*Plant) ([]*Plant, error) {
	return nil, errors.New("not implemented")
}

func (m *mockPlantRepo) Update(ctx context.Context, plant *Plant) (*Plant, error) {
	if _, ok := m.plants[plant.ID]; !ok {
		return nil, gorm.ErrRecordNotFound
	}
	m.plants[plant.ID] = plant
	return plant, nil
}

func (m *mockPlantRepo) Delete(ctx context.Context, id uuid.UUID) error {
	return errors.New("not implemented")
}

type mockGroupRepo struct {
	members map[uuid.UUID]map[uuid.UUID]bool
}

func (m *mockGroupRepo) GetByID(ctx context.Context, id uuid.UUID) (*PlantGroup, error) {
	return nil, errors.New("not implemented")
}

func (m *mockGroupRepo) GetByInviteCode(ctx context.Context, code string) (*PlantGroup, error) {
	return nil, errors.New("not implemented")
}

func (m *mockGroupRepo) GetAllByUser(ctx context.Context, userID uuid.UUID) ([]*PlantGroup, error) {
	return nil, errors.New("not implemented")
}

func (m *mockGroupRepo) Create(ctx context.Context, group *PlantGroup) (*PlantGroup, error) {
	return nil, errors.New("not implemented")
}

func (m *mockGroupRepo) AddMember(ctx context.Context, member *PlantGroupMember) error {
	return errors.New("not implemented")
}

func (m *mockGroupRepo) IsMember(ctx context.Context, groupID, userID uuid.UUID) (bool, error) {
	if m.members == nil {
		return false, nil
	}
	return m.members[groupID][userID], nil
}

type fakeTransaction struct{}

func (f *fakeTransaction) Execute(
	ctx context.Context,
	fn func(context.Context, *gorm.DB) error,
) error {
	return fn(ctx, nil)
}

type taskTestEnv struct {
	controller *TaskController
	taskRepo   *mockCareTaskRepo
	plantRepo  *mockPlantRepo
	user       *User
	plant      *Plant
}

func newTaskTestEnv(t *testing.T) *taskTestEnv {
	t.Helper()

	taskRepo := newMockCareTaskRepo()
	plantRepo := newMockPlantRepo()

	user := &User{BaseUUIDModel: BaseUUIDModel{ID: uuid.Must(uuid.NewV7())}}
	plant := &Plant{
		BaseUUIDModel:   BaseUUIDModel{ID: uuid.Must(uuid.NewV7())},
		UserID:          user.ID,
		CreatedByUserID: user.ID,
		Name:            "Fernando",
		SpeciesType:     "fern",
		Location:        "bathroom",
	}
	plantRepo.plants[plant.ID] = plant

	controller := &TaskController{
		careTaskRepo:       taskRepo,
		plantRepo:          plantRepo,
		groupRepo:          &mockGroupRepo{},
		transactionService: &fakeTransaction{},
	}

	return &taskTestEnv{
		controller: controller,
		taskRepo:   taskRepo,
		plantRepo:  plantRepo,
		user:       user,
		plant:      plant,
	}
}

func (e *taskTestEnv) addTask(task *CareTask) *CareTask {
	task.ID = uuid.Must(uuid.NewV7())
	task.PlantID = e.plant.ID
	task.CreatedByUserID = e.user.ID
	if task.CreatedAt.IsZero() {
		task.CreatedAt = time.Now().Add(-24 * time.Hour)
	}
	e.taskRepo.tasks[task.ID] = task
	return task
}

func TestCreateTaskScheduleConfiguration(t *testing.T) {
	env := newTaskTestEnv(t)
	ctx := context.Background()

	tests := []struct {
		name    string
		request CreateTaskRequest
		wantErr error
	}{
		{
			name: "recurring without pattern",
			request: CreateTaskRequest{
				Type: TaskTypeWater, Title: "Water", Mode: ModeRecurring,
			},
			wantErr: ErrInvalidScheduleConfiguration,
		},
		{
			name: "recurring with invalid pattern",
			request: CreateTaskRequest{
				Type: TaskTypeWater, Title: "Water", Mode: ModeRecurring,
				Pattern: &RecurrencePattern{Frequency: 0, Unit: UnitDays},
			},
			wantErr: ErrInvalidScheduleConfiguration,
		},
		{
			name: "one-time without due date",
			request: CreateTaskRequest{
				Type: TaskTypeRepotCheck, Title: "Repot", Mode: ModeOneTime,
			},
			wantErr: ErrInvalidScheduleConfiguration,
		},
		{
			name: "one-time with pattern",
			request: CreateTaskRequest{
				Type: TaskTypeRepotCheck, Title: "Repot", Mode: ModeOneTime,
				DueDate: time.Now().Add(time.Hour).Format(time.RFC3339),
				Pattern: &RecurrencePattern{Frequency: 1, Unit: UnitDays},
			},
			wantErr: ErrInvalidScheduleConfiguration,
		},
		{
			name: "unscheduled with due date",
			request: CreateTaskRequest{
				Type: TaskTypeCustom, Title: "Dust leaves", Mode: ModeUnscheduled,
				DueDate: time.Now().Add(time.Hour).Format(time.RFC3339),
			},
			wantErr: ErrInvalidScheduleConfiguration,
		},
		{
			name: "unknown mode",
			request: CreateTaskRequest{
				Type: TaskTypeCustom, Title: "Dust leaves", Mode: ScheduleMode("sometimes"),
			},
			wantErr: ErrInvalidScheduleConfiguration,
		},
		{
			name: "invalid type",
			request: CreateTaskRequest{
				Type: CareTaskType("serenade"), Title: "Sing", Mode: ModeUnscheduled,
			},
			wantErr: ErrValidation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.request.PlantID = env.plant.ID
			_, err := env.controller.CreateTask(ctx, env.user, &tt.request)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestCreateRecurringTaskComputesDueDate(t *testing.T) {
	env := newTaskTestEnv(t)

	start := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	task, err := env.controller.CreateTask(context.Background(), env.user, &CreateTaskRequest{
		PlantID:   env.plant.ID,
		Type:      TaskTypeWater,
		Title:     "Water",
		Mode:      ModeRecurring,
		Pattern:   &RecurrencePattern{Frequency: 6, Unit: UnitDays},
		StartDate: start.Format(time.RFC3339),
	})

	require.NoError(t, err)
	assert.Equal(t, ModeRecurring, task.Mode())
	require.NotNil(t, task.NextDueDate)
	assert.True(t, task.NextDueDate.Equal(start.AddDate(0, 0, 6)))
}

func TestCreateUnscheduledTask(t *testing.T) {
	env := newTaskTestEnv(t)

	task, err := env.controller.CreateTask(context.Background(), env.user, &CreateTaskRequest{
		PlantID: env.plant.ID,
		Type:    TaskTypeCustom,
		Title:   "Dust leaves",
		Mode:    ModeUnscheduled,
	})

	require.NoError(t, err)
	assert.Equal(t, ModeUnscheduled, task.Mode())
	assert.Nil(t, task.NextDueDate)
}

func TestCreateTaskDeniedForOtherUsersPlant(t *testing.T) {
	env := newTaskTestEnv(t)
	stranger := &User{BaseUUIDModel: BaseUUIDModel{ID: uuid.Must(uuid.NewV7())}}

	_, err := env.controller.CreateTask(context.Background(), stranger, &CreateTaskRequest{
		PlantID: env.plant.ID,
		Type:    TaskTypeWater,
		Title:   "Water",
		Mode:    ModeUnscheduled,
	})

	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCompleteRecurringTask(t *testing.T) {
	env := newTaskTestEnv(t)

	oldDue := time.Now().Add(-48 * time.Hour)
	task := env.addTask(&CareTask{
		Type:        TaskTypeWater,
		Title:       "Water",
		IsRecurring: true,
		RecurrenceFrequency: func() *int { f := 6; return &f }(),
		RecurrenceUnit:      func() *RecurrenceUnit { u := UnitDays; return &u }(),
		NextDueDate:         &oldDue,
	})

	completedAt := time.Now().Add(-time.Hour).Truncate(time.Second)
	response, err := env.controller.CompleteTask(
		context.Background(),
		env.user,
		task.ID,
		&CompleteTaskRequest{
			CompletedAt: completedAt.Format(time.RFC3339),
			Notes:       "a good soak",
		},
	)

	require.NoError(t, err)
	assert.False(t, response.Deleted)
	require.NotNil(t, response.Task)

	require.NotNil(t, response.Task.NextDueDate)
	expected := completedAt.AddDate(0, 0, 6)
	assert.True(t, response.Task.NextDueDate.Equal(expected),
		"due date must advance from the completion time, not the old due date")
	require.NotNil(t, response.Task.LastCompletedAt)
	assert.True(t, response.Task.LastCompletedAt.Equal(completedAt))

	require.Len(t, env.taskRepo.completions, 1)
	assert.Equal(t, task.ID, env.taskRepo.completions[0].TaskID)
	assert.Equal(t, "a good soak", env.taskRepo.completions[0].Notes)

	plant := env.plantRepo.plants[env.plant.ID]
	require.NotNil(t, plant.LastWateredAt)
	assert.True(t, plant.LastWateredAt.Equal(completedAt))
}

func TestCompleteWaterFertilizeStampsBothFields(t *testing.T) {
	env := newTaskTestEnv(t)
	task := env.addTask(&CareTask{Type: TaskTypeWaterFertilize, Title: "Feed & water"})

	_, err := env.controller.CompleteTask(
		context.Background(), env.user, task.ID, &CompleteTaskRequest{},
	)

	require.NoError(t, err)
	plant := env.plantRepo.plants[env.plant.ID]
	assert.NotNil(t, plant.LastWateredAt)
	assert.NotNil(t, plant.LastFertilizedAt)
}

func TestCompleteOneTimeTaskDeletesIt(t *testing.T) {
	env := newTaskTestEnv(t)

	due := time.Now().Add(24 * time.Hour)
	task := env.addTask(&CareTask{
		Type:        TaskTypeRepotCheck,
		Title:       "Repot",
		NextDueDate: &due,
	})

	response, err := env.controller.CompleteTask(
		context.Background(), env.user, task.ID, &CompleteTaskRequest{},
	)

	require.NoError(t, err)
	assert.True(t, response.Deleted)
	assert.Nil(t, response.Task)
	assert.NotContains(t, env.taskRepo.tasks, task.ID)

	plant := env.plantRepo.plants[env.plant.ID]
	assert.NotNil(t, plant.LastRepottedAt)
}

func TestCompleteUnscheduledTask(t *testing.T) {
	env := newTaskTestEnv(t)
	task := env.addTask(&CareTask{Type: TaskTypeCustom, Title: "Dust leaves"})

	response, err := env.controller.CompleteTask(
		context.Background(), env.user, task.ID, &CompleteTaskRequest{},
	)

	require.NoError(t, err)
	assert.False(t, response.Deleted)
	require.NotNil(t, response.Task)
	assert.Nil(t, response.Task.NextDueDate, "unscheduled tasks stay unscheduled")
	assert.NotNil(t, response.Task.LastCompletedAt)
	assert.Contains(t, env.taskRepo.tasks, task.ID)
}

func TestCompleteTaskRejectsFutureTimestamp(t *testing.T) {
	env := newTaskTestEnv(t)
	task := env.addTask(&CareTask{Type: TaskTypeCustom, Title: "Dust leaves"})

	_, err := env.controller.CompleteTask(
		context.Background(), env.user, task.ID, &CompleteTaskRequest{
			CompletedAt: time.Now().Add(time.Hour).Format(time.RFC3339),
		},
	)

	assert.ErrorIs(t, err, ErrValidation)
}

func TestSkipTask(t *testing.T) {
	env := newTaskTestEnv(t)

	due := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	task := env.addTask(&CareTask{
		Type:        TaskTypeWater,
		Title:       "Water",
		NextDueDate: &due,
	})

	updated, err := env.controller.SkipTask(
		context.Background(), env.user, task.ID, &SkipTaskRequest{Days: 3},
	)

	require.NoError(t, err)
	require.NotNil(t, updated.NextDueDate)
	assert.True(t, updated.NextDueDate.Equal(due.AddDate(0, 0, 3)))
	assert.Nil(t, updated.LastCompletedAt, "skip must not record a completion")
	assert.Empty(t, env.taskRepo.completions)
}

func TestSkipUnscheduledTaskFails(t *testing.T) {
	env := newTaskTestEnv(t)
	task := env.addTask(&CareTask{Type: TaskTypeCustom, Title: "Dust leaves"})

	_, err := env.controller.SkipTask(
		context.Background(), env.user, task.ID, &SkipTaskRequest{Days: 3},
	)

	assert.ErrorIs(t, err, ErrCannotSkipUnscheduled)
	assert.Nil(t, env.taskRepo.tasks[task.ID].NextDueDate)
}

func TestSkipTaskRequiresPositiveDays(t *testing.T) {
	env := newTaskTestEnv(t)

	due := time.Now()
	task := env.addTask(&CareTask{Type: TaskTypeWater, Title: "Water", NextDueDate: &due})

	_, err := env.controller.SkipTask(
		context.Background(), env.user, task.ID, &SkipTaskRequest{Days: 0},
	)

	assert.ErrorIs(t, err, ErrValidation)
}

func TestEditScheduleToRecurringRestartsFromLastCompletion(t *testing.T) {
	env := newTaskTestEnv(t)

	createdAt := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	lastCompleted := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)
	task := env.addTask(&CareTask{
		Type:            TaskTypeWater,
		Title:           "Water",
		LastCompletedAt: &lastCompleted,
	})
	task.CreatedAt = createdAt

	updated, err := env.controller.EditSchedule(
		context.Background(), env.user, task.ID, &EditScheduleRequest{
			Mode:    ModeRecurring,
			Pattern: &RecurrencePattern{Frequency: 2, Unit: UnitWeeks},
		},
	)

	require.NoError(t, err)
	assert.Equal(t, ModeRecurring, updated.Mode())
	require.NotNil(t, updated.NextDueDate)
	assert.True(t, updated.NextDueDate.Equal(lastCompleted.AddDate(0, 0, 14)),
		"recompute must start from the later of last completion and creation")
}

func TestEditScheduleToUnscheduledClearsEverything(t *testing.T) {
	env := newTaskTestEnv(t)

	due := time.Now()
	frequency := 6
	unit := UnitDays
	task := env.addTask(&CareTask{
		Type:                TaskTypeWater,
		Title:               "Water",
		IsRecurring:         true,
		RecurrenceFrequency: &frequency,
		RecurrenceUnit:      &unit,
		NextDueDate:         &due,
	})

	updated, err := env.controller.EditSchedule(
		context.Background(), env.user, task.ID, &EditScheduleRequest{Mode: ModeUnscheduled},
	)

	require.NoError(t, err)
	assert.Equal(t, ModeUnscheduled, updated.Mode())
	assert.Nil(t, updated.NextDueDate)
	assert.Nil(t, updated.Pattern())
}

func TestConvertToUnscheduledKeepsDueDate(t *testing.T) {
	env := newTaskTestEnv(t)

	due := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	frequency := 6
	unit := UnitDays
	task := env.addTask(&CareTask{
		Type:                TaskTypeWater,
		Title:               "Water",
		IsRecurring:         true,
		RecurrenceFrequency: &frequency,
		RecurrenceUnit:      &unit,
		NextDueDate:         &due,
	})

	updated, err := env.controller.ConvertToUnscheduled(context.Background(), env.user, task.ID)

	require.NoError(t, err)
	assert.False(t, updated.IsRecurring)
	assert.Nil(t, updated.Pattern())
	require.NotNil(t, updated.NextDueDate)
	assert.True(t, updated.NextDueDate.Equal(due), "pending occurrence survives the conversion")
}
