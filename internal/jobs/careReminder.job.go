package jobs

import (
	"context"
	"time"
	"trellis/internal/events"
	. "trellis/internal/models"
	"trellis/internal/repositories"
	"trellis/internal/services"

	logger "github.com/Bparsons0904/goLogger"

	"github.com/google/uuid"
)

// CareReminderJob publishes a daily digest of due and overdue care tasks to
// each responsible user. A task falls to its assigned user when one is set,
// otherwise to the plant owner.
type CareReminderJob struct {
	careTaskRepo repositories.CareTaskRepository
	eventBus     *events.EventBus
	schedule     services.Schedule
	log          logger.Logger
}

func NewCareReminderJob(
	careTaskRepo repositories.CareTaskRepository,
	eventBus *events.EventBus,
	schedule services.Schedule,
) *CareReminderJob {
	return &CareReminderJob{
		careTaskRepo: careTaskRepo,
		eventBus:     eventBus,
		schedule:     schedule,
		log:          logger.New("jobs").File("care_reminder_job"),
	}
}

func (j *CareReminderJob) Name() string {
	return "Care Reminder"
}

func (j *CareReminderJob) Schedule() services.Schedule {
	return j.schedule
}

func (j *CareReminderJob) Execute(ctx context.Context) error {
	log := j.log.Function("Execute")

	// Everything due by the end of today counts for the morning digest.
	now := time.Now().UTC()
	cutoff := time.Date(now.Year(), now.Month(), now.Day(), 23, 59, 59, 0, time.UTC)

	tasks, err := j.careTaskRepo.GetDueBefore(ctx, cutoff)
	if err != nil {
		return log.Err("failed to load due tasks", err)
	}

	if len(tasks) == 0 {
		log.Info("No due tasks, skipping reminder digest")
		return nil
	}

	byUser := j.groupByResponsibleUser(tasks)
	published := 0
	for userID, userTasks := range byUser {
		if err := j.publishDigest(userID, userTasks); err != nil {
			_ = log.Err("failed to publish reminder digest", err, "userID", userID)
			continue
		}
		published++
	}

	log.Info(
		"Care reminder digest complete",
		"dueTasks", len(tasks),
		"users", len(byUser),
		"published", published,
	)

	return nil
}

func (j *CareReminderJob) groupByResponsibleUser(tasks []*CareTask) map[uuid.UUID][]*CareTask {
	byUser := make(map[uuid.UUID][]*CareTask)
	for _, task := range tasks {
		userID := j.responsibleUser(task)
		if userID == uuid.Nil {
			continue
		}
		byUser[userID] = append(byUser[userID], task)
	}
	return byUser
}

func (j *CareReminderJob) responsibleUser(task *CareTask) uuid.UUID {
	if task.AssignedUserID != nil {
		return *task.AssignedUserID
	}
	if task.Plant != nil {
		return task.Plant.UserID
	}
	return uuid.Nil
}

func (j *CareReminderJob) publishDigest(userID uuid.UUID, tasks []*CareTask) error {
	digest := make([]map[string]any, 0, len(tasks))
	for _, task := range tasks {
		entry := map[string]any{
			"taskId": task.ID,
			"type":   task.Type,
			"title":  task.Title,
		}
		if task.NextDueDate != nil {
			entry["dueDate"] = task.NextDueDate
		}
		if task.Plant != nil {
			entry["plantId"] = task.Plant.ID
			entry["plantName"] = task.Plant.Name
		}
		digest = append(digest, entry)
	}

	event := events.Event{
		Type:   events.TASKS_DUE,
		UserID: &userID,
		Data: map[string]any{
			"count": len(tasks),
			"tasks": digest,
		},
	}

	return j.eventBus.Publish(events.NOTIFICATION_CHANNEL, event)
}
