package taskController

import (
	"context"
	"errors"
	"time"
	"trellis/config"
	"trellis/internal/database"
	"trellis/internal/events"
	. "trellis/internal/models"
	"trellis/internal/repositories"
	"trellis/internal/services"

	logger "github.com/Bparsons0904/goLogger"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	MaxNotesLength = 1000
)

var (
	ErrValidation                   = errors.New("validation error")
	ErrNotFound                     = errors.New("not found")
	ErrInvalidScheduleConfiguration = errors.New("invalid schedule configuration")
	ErrCannotSkipUnscheduled        = errors.New("cannot skip unscheduled task")
)

// transactionExecutor runs a function inside a database transaction.
type transactionExecutor interface {
	Execute(ctx context.Context, fn func(context.Context, *gorm.DB) error) error
}

type TaskController struct {
	careTaskRepo       repositories.CareTaskRepository
	plantRepo          repositories.PlantRepository
	groupRepo          repositories.PlantGroupRepository
	transactionService transactionExecutor
	eventBus           *events.EventBus
	db                 database.DB
	Config             config.Config
}

type CreateTaskRequest struct {
	PlantID        uuid.UUID          `json:"plantId"`
	Type           CareTaskType       `json:"type"`
	Title          string             `json:"title"`
	Description    string             `json:"description,omitempty"`
	Mode           ScheduleMode       `json:"mode"`
	Pattern        *RecurrencePattern `json:"pattern,omitempty"`
	StartDate      string             `json:"startDate,omitempty"`
	DueDate        string             `json:"dueDate,omitempty"`
	AssignedUserID *uuid.UUID         `json:"assignedUserId,omitempty"`
}

type UpdateTaskRequest struct {
	Title          *string    `json:"title,omitempty"`
	Description    *string    `json:"description,omitempty"`
	AssignedUserID *uuid.UUID `json:"assignedUserId,omitempty"`
}

type EditScheduleRequest struct {
	Mode    ScheduleMode       `json:"mode"`
	Pattern *RecurrencePattern `json:"pattern,omitempty"`
	DueDate string             `json:"dueDate,omitempty"`
}

type CompleteTaskRequest struct {
	CompletedAt string `json:"completedAt,omitempty"`
	Notes       string `json:"notes,omitempty"`
}

// CompleteTaskResponse reports the post-completion task state. Task is nil and
// Deleted true for one-time tasks, which do not survive their completion.
type CompleteTaskResponse struct {
	Task    *CareTask `json:"task,omitempty"`
	Deleted bool      `json:"deleted"`
}

type SkipTaskRequest struct {
	Days int `json:"days"`
}

type TaskControllerInterface interface {
	CreateTask(ctx context.Context, user *User, request *CreateTaskRequest) (*CareTask, error)
	GetTask(ctx context.Context, user *User, taskID uuid.UUID) (*CareTask, error)
	GetPlantTasks(ctx context.Context, user *User, plantID uuid.UUID) ([]*CareTask, error)
	UpdateTask(
		ctx context.Context,
		user *User,
		taskID uuid.UUID,
		request *UpdateTaskRequest,
	) (*CareTask, error)
	EditSchedule(
		ctx context.Context,
		user *User,
		taskID uuid.UUID,
		request *EditScheduleRequest,
	) (*CareTask, error)
	ConvertToUnscheduled(ctx context.Context, user *User, taskID uuid.UUID) (*CareTask, error)
	CompleteTask(
		ctx context.Context,
		user *User,
		taskID uuid.UUID,
		request *CompleteTaskRequest,
	) (*CompleteTaskResponse, error)
	SkipTask(
		ctx context.Context,
		user *User,
		taskID uuid.UUID,
		request *SkipTaskRequest,
	) (*CareTask, error)
	DeleteTask(ctx context.Context, user *User, taskID uuid.UUID) error
	GetTaskCompletions(
		ctx context.Context,
		user *User,
		taskID uuid.UUID,
	) ([]*TaskCompletion, error)
}

func New(
	repos repositories.Repository,
	services services.Service,
	eventBus *events.EventBus,
	config config.Config,
	db database.DB,
) TaskControllerInterface {
	return &TaskController{
		careTaskRepo:       repos.CareTask,
		plantRepo:          repos.Plant,
		groupRepo:          repos.PlantGroup,
		transactionService: services.Transaction,
		eventBus:           eventBus,
		db:                 db,
		Config:             config,
	}
}

func parseDateTime(dateStr string) (time.Time, error) {
	if dateStr == "" {
		return time.Time{}, errors.New("datetime is required")
	}

	t, err := time.Parse(time.RFC3339, dateStr)
	if err != nil {
		return time.Time{}, errors.New("invalid datetime format, expected RFC3339")
	}

	return t, nil
}

// verifyPlantAccess loads a plant and confirms the user may act on it, either
// as its owner or as a member of its group. Denied access reports not-found so
// plant ids are not probeable.
func (c *TaskController) verifyPlantAccess(
	ctx context.Context,
	user *User,
	plantID uuid.UUID,
	log logger.Logger,
) (*Plant, error) {
	plant, err := c.plantRepo.GetByID(ctx, plantID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, log.ErrorWithType(ErrNotFound, "plant not found", "plantID", plantID)
		}
		return nil, log.Error("failed to retrieve plant", "error", err, "plantID", plantID)
	}

	if plant.UserID == user.ID {
		return plant, nil
	}

	if plant.GroupID != nil {
		isMember, err := c.groupRepo.IsMember(ctx, *plant.GroupID, user.ID)
		if err != nil {
			return nil, log.Error("failed to verify group membership", "error", err)
		}
		if isMember {
			return plant, nil
		}
	}

	return nil, log.ErrorWithType(ErrNotFound, "plant not found", "plantID", plantID)
}

func (c *TaskController) getAccessibleTask(
	ctx context.Context,
	user *User,
	taskID uuid.UUID,
	log logger.Logger,
) (*CareTask, error) {
	if taskID == uuid.Nil {
		return nil, log.ErrorWithType(ErrValidation, "taskId is required")
	}

	task, err := c.careTaskRepo.GetByID(ctx, taskID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, log.ErrorWithType(ErrNotFound, "task not found", "taskID", taskID)
		}
		return nil, log.Error("failed to retrieve task", "error", err, "taskID", taskID)
	}

	if _, err := c.verifyPlantAccess(ctx, user, task.PlantID, log); err != nil {
		return nil, err
	}

	return task, nil
}

func (c *TaskController) CreateTask(
	ctx context.Context,
	user *User,
	request *CreateTaskRequest,
) (*CareTask, error) {
	log := logger.NewWithContext(ctx, "taskController").Function("CreateTask")

	if request.PlantID == uuid.Nil {
		return nil, log.ErrorWithType(ErrValidation, "plantId is required")
	}
	if !request.Type.IsValid() {
		return nil, log.ErrorWithType(ErrValidation, "invalid task type", "type", request.Type)
	}
	if request.Title == "" {
		return nil, log.ErrorWithType(ErrValidation, "title is required")
	}
	if !request.Mode.IsValid() {
		return nil, log.ErrorWithType(
			ErrInvalidScheduleConfiguration,
			"invalid schedule mode",
			"mode", request.Mode,
		)
	}

	if _, err := c.verifyPlantAccess(ctx, user, request.PlantID, log); err != nil {
		return nil, err
	}

	task := &CareTask{
		PlantID:         request.PlantID,
		Type:            request.Type,
		Title:           request.Title,
		Description:     request.Description,
		AssignedUserID:  request.AssignedUserID,
		CreatedByUserID: user.ID,
	}

	switch request.Mode {
	case ModeRecurring:
		if err := request.Pattern.Validate(); err != nil {
			return nil, log.ErrorWithType(
				ErrInvalidScheduleConfiguration,
				"recurring task requires a valid pattern",
				"error", err,
			)
		}

		startDate := time.Now()
		if request.StartDate != "" {
			parsed, err := parseDateTime(request.StartDate)
			if err != nil {
				return nil, log.ErrorWithType(ErrValidation, "invalid startDate", "error", err)
			}
			startDate = parsed
		}

		nextDue := services.CalculateNextDueDate(startDate, *request.Pattern)
		task.IsRecurring = true
		task.NextDueDate = &nextDue
		task.SetPattern(request.Pattern)

	case ModeOneTime:
		if request.Pattern != nil {
			return nil, log.ErrorWithType(
				ErrInvalidScheduleConfiguration,
				"one-time task cannot have a recurrence pattern",
			)
		}
		dueDate, err := parseDateTime(request.DueDate)
		if err != nil {
			return nil, log.ErrorWithType(
				ErrInvalidScheduleConfiguration,
				"one-time task requires a due date",
				"error", err,
			)
		}
		task.NextDueDate = &dueDate

	case ModeUnscheduled:
		if request.Pattern != nil || request.DueDate != "" {
			return nil, log.ErrorWithType(
				ErrInvalidScheduleConfiguration,
				"unscheduled task cannot have a pattern or due date",
			)
		}
	}

	created, err := c.careTaskRepo.Create(ctx, task)
	if err != nil {
		return nil, log.Error(
			"failed to create task",
			"error", err,
			"plantID", request.PlantID,
			"type", request.Type,
		)
	}

	log.Info(
		"Task created successfully",
		"taskID", created.ID,
		"plantID", created.PlantID,
		"mode", created.Mode(),
	)

	return created, nil
}

func (c *TaskController) GetTask(
	ctx context.Context,
	user *User,
	taskID uuid.UUID,
) (*CareTask, error) {
	log := logger.NewWithContext(ctx, "taskController").Function("GetTask")
	return c.getAccessibleTask(ctx, user, taskID, log)
}

func (c *TaskController) GetPlantTasks(
	ctx context.Context,
	user *User,
	plantID uuid.UUID,
) ([]*CareTask, error) {
	log := logger.NewWithContext(ctx, "taskController").Function("GetPlantTasks")

	if _, err := c.verifyPlantAccess(ctx, user, plantID, log); err != nil {
		return nil, err
	}

	return c.careTaskRepo.GetByPlant(ctx, plantID)
}

func (c *TaskController) UpdateTask(
	ctx context.Context,
	user *User,
	taskID uuid.UUID,
	request *UpdateTaskRequest,
) (*CareTask, error) {
	log := logger.NewWithContext(ctx, "taskController").Function("UpdateTask")

	task, err := c.getAccessibleTask(ctx, user, taskID, log)
	if err != nil {
		return nil, err
	}

	if request.Title != nil {
		if *request.Title == "" {
			return nil, log.ErrorWithType(ErrValidation, "title cannot be empty")
		}
		task.Title = *request.Title
	}
	if request.Description != nil {
		task.Description = *request.Description
	}
	if request.AssignedUserID != nil {
		task.AssignedUserID = request.AssignedUserID
	}
	task.LastModifiedByUserID = &user.ID

	updated, err := c.careTaskRepo.Update(ctx, task)
	if err != nil {
		return nil, log.Error("failed to update task", "error", err, "taskID", taskID)
	}

	return updated, nil
}

// EditSchedule moves a task between schedule modes. Switching to recurring
// restarts the clock from the more recent of last completion or creation;
// switching to one-time requires a fresh explicit due date.
func (c *TaskController) EditSchedule(
	ctx context.Context,
	user *User,
	taskID uuid.UUID,
	request *EditScheduleRequest,
) (*CareTask, error) {
	log := logger.NewWithContext(ctx, "taskController").Function("EditSchedule")

	task, err := c.getAccessibleTask(ctx, user, taskID, log)
	if err != nil {
		return nil, err
	}

	switch request.Mode {
	case ModeRecurring:
		if err := request.Pattern.Validate(); err != nil {
			return nil, log.ErrorWithType(
				ErrInvalidScheduleConfiguration,
				"recurring schedule requires a valid pattern",
				"error", err,
			)
		}

		base := task.CreatedAt
		if task.LastCompletedAt != nil && task.LastCompletedAt.After(base) {
			base = *task.LastCompletedAt
		}
		nextDue := services.CalculateNextDueDate(base, *request.Pattern)

		task.IsRecurring = true
		task.NextDueDate = &nextDue
		task.SetPattern(request.Pattern)

	case ModeOneTime:
		dueDate, err := parseDateTime(request.DueDate)
		if err != nil {
			return nil, log.ErrorWithType(
				ErrInvalidScheduleConfiguration,
				"one-time schedule requires a due date",
				"error", err,
			)
		}
		task.IsRecurring = false
		task.NextDueDate = &dueDate
		task.ClearPattern()

	case ModeUnscheduled:
		task.IsRecurring = false
		task.NextDueDate = nil
		task.ClearPattern()

	default:
		return nil, log.ErrorWithType(
			ErrInvalidScheduleConfiguration,
			"invalid schedule mode",
			"mode", request.Mode,
		)
	}

	task.LastModifiedByUserID = &user.ID

	updated, err := c.careTaskRepo.Update(ctx, task)
	if err != nil {
		return nil, log.Error("failed to update task schedule", "error", err, "taskID", taskID)
	}

	log.Info("Task schedule updated", "taskID", taskID, "mode", updated.Mode())
	return updated, nil
}

// ConvertToUnscheduled clears the recurrence flags but leaves any existing due
// date untouched, so a recurring task keeps its pending occurrence as a
// one-time task.
func (c *TaskController) ConvertToUnscheduled(
	ctx context.Context,
	user *User,
	taskID uuid.UUID,
) (*CareTask, error) {
	log := logger.NewWithContext(ctx, "taskController").Function("ConvertToUnscheduled")

	task, err := c.getAccessibleTask(ctx, user, taskID, log)
	if err != nil {
		return nil, err
	}

	task.IsRecurring = false
	task.ClearPattern()
	task.LastModifiedByUserID = &user.ID

	updated, err := c.careTaskRepo.Update(ctx, task)
	if err != nil {
		return nil, log.Error("failed to convert task", "error", err, "taskID", taskID)
	}

	return updated, nil
}

// CompleteTask records a completion, stamps the plant's last-care fields, and
// applies the mode-specific follow-up: recurring tasks get a freshly computed
// due date, one-time tasks are deleted, unscheduled tasks persist unchanged
// beyond lastCompletedAt.
func (c *TaskController) CompleteTask(
	ctx context.Context,
	user *User,
	taskID uuid.UUID,
	request *CompleteTaskRequest,
) (*CompleteTaskResponse, error) {
	log := logger.NewWithContext(ctx, "taskController").Function("CompleteTask")

	if len(request.Notes) > MaxNotesLength {
		return nil, log.ErrorWithType(
			ErrValidation,
			"notes exceed maximum length",
			"length", len(request.Notes),
			"max", MaxNotesLength,
		)
	}

	completedAt := time.Now()
	if request.CompletedAt != "" {
		parsed, err := parseDateTime(request.CompletedAt)
		if err != nil {
			return nil, log.ErrorWithType(ErrValidation, "invalid completedAt", "error", err)
		}
		if parsed.After(time.Now()) {
			return nil, log.ErrorWithType(ErrValidation, "completedAt cannot be in the future")
		}
		completedAt = parsed
	}

	task, err := c.getAccessibleTask(ctx, user, taskID, log)
	if err != nil {
		return nil, err
	}

	mode := task.Mode()
	response := &CompleteTaskResponse{}

	err = c.transactionService.Execute(ctx, func(txCtx context.Context, tx *gorm.DB) error {
		completion := &TaskCompletion{
			TaskID:      task.ID,
			CompletedAt: completedAt,
			Notes:       request.Notes,
		}

		// One-time tasks are deleted after completion; the completion record
		// would cascade away with them, so it is only written for survivors.
		if mode != ModeOneTime {
			if err := c.careTaskRepo.CreateCompletion(txCtx, completion); err != nil {
				return err
			}
		}

		plant, err := c.plantRepo.GetByID(txCtx, task.PlantID)
		if err != nil {
			return err
		}
		plant.StampLastCare(task.Type, completedAt)
		if _, err := c.plantRepo.Update(txCtx, plant); err != nil {
			return err
		}

		switch mode {
		case ModeRecurring:
			nextDue := services.CalculateNextDueDate(completedAt, *task.Pattern())
			task.NextDueDate = &nextDue
			task.LastCompletedAt = &completedAt
			updated, err := c.careTaskRepo.Update(txCtx, task)
			if err != nil {
				return err
			}
			response.Task = updated

		case ModeOneTime:
			if err := c.careTaskRepo.Delete(txCtx, task.ID); err != nil {
				return err
			}
			response.Deleted = true

		case ModeUnscheduled:
			task.LastCompletedAt = &completedAt
			updated, err := c.careTaskRepo.Update(txCtx, task)
			if err != nil {
				return err
			}
			response.Task = updated
		}

		return nil
	})
	if err != nil {
		return nil, log.Error("failed to complete task", "error", err, "taskID", taskID)
	}

	c.publishCompletionEvent(user, task, completedAt)

	log.Info(
		"Task completed",
		"taskID", taskID,
		"mode", mode,
		"deleted", response.Deleted,
	)

	return response, nil
}

func (c *TaskController) publishCompletionEvent(user *User, task *CareTask, completedAt time.Time) {
	if c.eventBus == nil {
		return
	}

	event := events.Event{
		Type:   events.TASK_COMPLETED,
		UserID: &user.ID,
		Data: map[string]any{
			"taskId":      task.ID.String(),
			"plantId":     task.PlantID.String(),
			"taskType":    string(task.Type),
			"completedAt": completedAt,
		},
	}

	if err := c.eventBus.Publish(events.NOTIFICATION_CHANNEL, event); err != nil {
		logger.New("taskController").Function("publishCompletionEvent").
			Warn("failed to publish completion event", "taskID", task.ID, "error", err)
	}
}

// SkipTask pushes the due date out by a caller-supplied number of days. No
// completion is recorded and lastCompletedAt is untouched.
func (c *TaskController) SkipTask(
	ctx context.Context,
	user *User,
	taskID uuid.UUID,
	request *SkipTaskRequest,
) (*CareTask, error) {
	log := logger.NewWithContext(ctx, "taskController").Function("SkipTask")

	if request.Days <= 0 {
		return nil, log.ErrorWithType(ErrValidation, "days must be positive", "days", request.Days)
	}

	task, err := c.getAccessibleTask(ctx, user, taskID, log)
	if err != nil {
		return nil, err
	}

	if task.NextDueDate == nil {
		return nil, log.ErrorWithType(
			ErrCannotSkipUnscheduled,
			"task has no due date to skip",
			"taskID", taskID,
		)
	}

	nextDue := task.NextDueDate.AddDate(0, 0, request.Days)
	task.NextDueDate = &nextDue
	task.LastModifiedByUserID = &user.ID

	updated, err := c.careTaskRepo.Update(ctx, task)
	if err != nil {
		return nil, log.Error("failed to skip task", "error", err, "taskID", taskID)
	}

	log.Info("Task skipped", "taskID", taskID, "days", request.Days, "nextDueDate", nextDue)
	return updated, nil
}

func (c *TaskController) DeleteTask(ctx context.Context, user *User, taskID uuid.UUID) error {
	log := logger.NewWithContext(ctx, "taskController").Function("DeleteTask")

	task, err := c.getAccessibleTask(ctx, user, taskID, log)
	if err != nil {
		return err
	}

	if err := c.careTaskRepo.Delete(ctx, task.ID); err != nil {
		return log.Error("failed to delete task", "error", err, "taskID", taskID)
	}

	log.Info("Task deleted", "taskID", taskID)
	return nil
}

func (c *TaskController) GetTaskCompletions(
	ctx context.Context,
	user *User,
	taskID uuid.UUID,
) ([]*TaskCompletion, error) {
	log := logger.NewWithContext(ctx, "taskController").Function("GetTaskCompletions")

	task, err := c.getAccessibleTask(ctx, user, taskID, log)
	if err != nil {
		return nil, err
	}

	return c.careTaskRepo.GetCompletions(ctx, task.ID)
}
