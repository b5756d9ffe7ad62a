package repositories

import (
	"context"
	"time"
	contextutil "trellis/internal/context"
	"trellis/internal/database"
	. "trellis/internal/models"

	logger "github.com/Bparsons0904/goLogger"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type CareTaskRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*CareTask, error)
	GetByPlant(ctx context.Context, plantID uuid.UUID) ([]*CareTask, error)
	GetDueBefore(ctx context.Context, cutoff time.Time) ([]*CareTask, error)
	Create(ctx context.Context, task *CareTask) (*CareTask, error)
	Update(ctx context.Context, task *CareTask) (*CareTask, error)
	Delete(ctx context.Context, id uuid.UUID) error
	CreateCompletion(ctx context.Context, completion *TaskCompletion) error
	GetCompletions(ctx context.Context, taskID uuid.UUID) ([]*TaskCompletion, error)
}

type careTaskRepository struct {
	db  database.DB
	log logger.Logger
}

func NewCareTaskRepository(db database.DB) CareTaskRepository {
	return &careTaskRepository{
		db:  db,
		log: logger.New("careTaskRepository"),
	}
}

func (r *careTaskRepository) getDB(ctx context.Context) *gorm.DB {
	if tx, ok := contextutil.GetTransaction(ctx); ok {
		return tx
	}
	return r.db.SQLWithContext(ctx)
}

func (r *careTaskRepository) GetByID(ctx context.Context, id uuid.UUID) (*CareTask, error) {
	log := r.log.Function("GetByID")

	var task CareTask
	if err := r.getDB(ctx).Preload("Plant").First(&task, "id = ?", id).Error; err != nil {
		return nil, log.Err("failed to get care task by ID", err, "id", id)
	}

	return &task, nil
}

func (r *careTaskRepository) GetByPlant(ctx context.Context, plantID uuid.UUID) ([]*CareTask, error) {
	log := r.log.Function("GetByPlant")

	var tasks []*CareTask
	if err := r.getDB(ctx).
		Where("plant_id = ?", plantID).
		Order("next_due_date ASC NULLS LAST").
		Find(&tasks).Error; err != nil {
		return nil, log.Err("failed to get care tasks by plant", err, "plantID", plantID)
	}

	return tasks, nil
}

// GetDueBefore returns scheduled tasks whose next due date has passed the
// cutoff, with the owning plant preloaded for notification context.
func (r *careTaskRepository) GetDueBefore(ctx context.Context, cutoff time.Time) ([]*CareTask, error) {
	log := r.log.Function("GetDueBefore")

	var tasks []*CareTask
	if err := r.getDB(ctx).
		Preload("Plant").
		Where("next_due_date IS NOT NULL AND next_due_date <= ?", cutoff).
		Order("next_due_date ASC").
		Find(&tasks).Error; err != nil {
		return nil, log.Err("failed to get due care tasks", err, "cutoff", cutoff)
	}

	return tasks, nil
}

func (r *careTaskRepository) Create(ctx context.Context, task *CareTask) (*CareTask, error) {
	log := r.log.Function("Create")

	if err := r.getDB(ctx).Create(task).Error; err != nil {
		return nil, log.Err("failed to create care task", err, "plantID", task.PlantID, "type", task.Type)
	}

	return task, nil
}

func (r *careTaskRepository) Update(ctx context.Context, task *CareTask) (*CareTask, error) {
	log := r.log.Function("Update")

	if err := r.getDB(ctx).Save(task).Error; err != nil {
		return nil, log.Err("failed to update care task", err, "id", task.ID)
	}

	return task, nil
}

// Delete removes a task and its completion log. Completions are only ever
// deleted here, via the parent task.
func (r *careTaskRepository) Delete(ctx context.Context, id uuid.UUID) error {
	log := r.log.Function("Delete")

	db := r.getDB(ctx)

	if err := db.Delete(&TaskCompletion{}, "task_id = ?", id).Error; err != nil {
		return log.Err("failed to delete task completions", err, "taskID", id)
	}

	if err := db.Delete(&CareTask{}, "id = ?", id).Error; err != nil {
		return log.Err("failed to delete care task", err, "id", id)
	}

	return nil
}

func (r *careTaskRepository) CreateCompletion(ctx context.Context, completion *TaskCompletion) error {
	log := r.log.Function("CreateCompletion")

	if err := r.getDB(ctx).Create(completion).Error; err != nil {
		return log.Err("failed to create task completion", err, "taskID", completion.TaskID)
	}

	return nil
}

func (r *careTaskRepository) GetCompletions(ctx context.Context, taskID uuid.UUID) ([]*TaskCompletion, error) {
	log := r.log.Function("GetCompletions")

	var completions []*TaskCompletion
	if err := r.getDB(ctx).
		Where("task_id = ?", taskID).
		Order("completed_at DESC").
		Find(&completions).Error; err != nil {
		return nil, log.Err("failed to get task completions", err, "taskID", taskID)
	}

	return completions, nil
}
