package handlers

import (
	"errors"
	"trellis/internal/app"
	taskController "trellis/internal/controllers/tasks"
	"trellis/internal/handlers/middleware"

	logger "github.com/Bparsons0904/goLogger"

	"github.com/gofiber/fiber/v2"
)

type TaskHandler struct {
	Handler
	taskController taskController.TaskControllerInterface
	authMiddleware fiber.Handler
}

func NewTaskHandler(app app.App, router fiber.Router) *TaskHandler {
	log := logger.New("handlers").File("task_handler")
	return &TaskHandler{
		taskController: app.Controllers.Task,
		authMiddleware: app.Middleware.RequireAuth(app.Controllers.Auth),
		Handler: Handler{
			log:        log,
			router:     router,
			middleware: app.Middleware,
		},
	}
}

func (h *TaskHandler) Register() {
	tasks := h.router.Group("/tasks", h.authMiddleware)
	tasks.Post("/", h.createTask)
	tasks.Get("/:id", h.getTask)
	tasks.Patch("/:id", h.updateTask)
	tasks.Delete("/:id", h.deleteTask)
	tasks.Put("/:id/schedule", h.editSchedule)
	tasks.Post("/:id/unschedule", h.convertToUnscheduled)
	tasks.Post("/:id/complete", h.completeTask)
	tasks.Post("/:id/skip", h.skipTask)
	tasks.Get("/:id/completions", h.getCompletions)

	plants := h.router.Group("/plants", h.authMiddleware)
	plants.Get("/:id/tasks", h.getPlantTasks)
}

func (h *TaskHandler) createTask(c *fiber.Ctx) error {
	user := middleware.GetUser(c)
	if user == nil {
		return unauthorized(c)
	}

	var req taskController.CreateTaskRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	task, err := h.taskController.CreateTask(c.UserContext(), user, &req)
	if err != nil {
		return taskErrorResponse(c, err, "Failed to create task")
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"task": task})
}

func (h *TaskHandler) getTask(c *fiber.Ctx) error {
	user := middleware.GetUser(c)
	if user == nil {
		return unauthorized(c)
	}

	taskID, err := parseIDParam(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid task id",
		})
	}

	task, err := h.taskController.GetTask(c.UserContext(), user, taskID)
	if err != nil {
		return taskErrorResponse(c, err, "Failed to load task")
	}

	return c.JSON(fiber.Map{"task": task})
}

func (h *TaskHandler) getPlantTasks(c *fiber.Ctx) error {
	user := middleware.GetUser(c)
	if user == nil {
		return unauthorized(c)
	}

	plantID, err := parseIDParam(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid plant id",
		})
	}

	tasks, err := h.taskController.GetPlantTasks(c.UserContext(), user, plantID)
	if err != nil {
		return taskErrorResponse(c, err, "Failed to load tasks")
	}

	return c.JSON(fiber.Map{"tasks": tasks})
}

func (h *TaskHandler) updateTask(c *fiber.Ctx) error {
	user := middleware.GetUser(c)
	if user == nil {
		return unauthorized(c)
	}

	taskID, err := parseIDParam(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid task id",
		})
	}

	var req taskController.UpdateTaskRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	task, err := h.taskController.UpdateTask(c.UserContext(), user, taskID, &req)
	if err != nil {
		return taskErrorResponse(c, err, "Failed to update task")
	}

	return c.JSON(fiber.Map{"task": task})
}

func (h *TaskHandler) deleteTask(c *fiber.Ctx) error {
	user := middleware.GetUser(c)
	if user == nil {
		return unauthorized(c)
	}

	taskID, err := parseIDParam(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid task id",
		})
	}

	if err := h.taskController.DeleteTask(c.UserContext(), user, taskID); err != nil {
		return taskErrorResponse(c, err, "Failed to delete task")
	}

	return c.JSON(fiber.Map{"message": "Task deleted"})
}

func (h *TaskHandler) editSchedule(c *fiber.Ctx) error {
	user := middleware.GetUser(c)
	if user == nil {
		return unauthorized(c)
	}

	taskID, err := parseIDParam(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid task id",
		})
	}

	var req taskController.EditScheduleRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	task, err := h.taskController.EditSchedule(c.UserContext(), user, taskID, &req)
	if err != nil {
		return taskErrorResponse(c, err, "Failed to edit schedule")
	}

	return c.JSON(fiber.Map{"task": task})
}

func (h *TaskHandler) convertToUnscheduled(c *fiber.Ctx) error {
	user := middleware.GetUser(c)
	if user == nil {
		return unauthorized(c)
	}

	taskID, err := parseIDParam(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid task id",
		})
	}

	task, err := h.taskController.ConvertToUnscheduled(c.UserContext(), user, taskID)
	if err != nil {
		return taskErrorResponse(c, err, "Failed to convert task")
	}

	return c.JSON(fiber.Map{"task": task})
}

func (h *TaskHandler) completeTask(c *fiber.Ctx) error {
	user := middleware.GetUser(c)
	if user == nil {
		return unauthorized(c)
	}

	taskID, err := parseIDParam(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid task id",
		})
	}

	req := &taskController.CompleteTaskRequest{}
	if len(c.Body()) > 0 {
		if err := c.BodyParser(req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Invalid request body",
			})
		}
	}

	response, err := h.taskController.CompleteTask(c.UserContext(), user, taskID, req)
	if err != nil {
		return taskErrorResponse(c, err, "Failed to complete task")
	}

	return c.JSON(response)
}

func (h *TaskHandler) skipTask(c *fiber.Ctx) error {
	user := middleware.GetUser(c)
	if user == nil {
		return unauthorized(c)
	}

	taskID, err := parseIDParam(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid task id",
		})
	}

	var req taskController.SkipTaskRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	task, err := h.taskController.SkipTask(c.UserContext(), user, taskID, &req)
	if err != nil {
		return taskErrorResponse(c, err, "Failed to skip task")
	}

	return c.JSON(fiber.Map{"task": task})
}

func (h *TaskHandler) getCompletions(c *fiber.Ctx) error {
	user := middleware.GetUser(c)
	if user == nil {
		return unauthorized(c)
	}

	taskID, err := parseIDParam(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid task id",
		})
	}

	completions, err := h.taskController.GetTaskCompletions(c.UserContext(), user, taskID)
	if err != nil {
		return taskErrorResponse(c, err, "Failed to load completions")
	}

	return c.JSON(fiber.Map{"completions": completions})
}

func taskErrorResponse(c *fiber.Ctx, err error, fallback string) error {
	switch {
	case errors.Is(err, taskController.ErrInvalidScheduleConfiguration):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, taskController.ErrValidation):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, taskController.ErrCannotSkipUnscheduled):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, taskController.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Task not found"})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": fallback})
	}
}
