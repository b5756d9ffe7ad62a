package handlers

import (
	"errors"
	"trellis/internal/app"
	groupController "trellis/internal/controllers/groups"
	"trellis/internal/handlers/middleware"

	logger "github.com/Bparsons0904/goLogger"

	"github.com/gofiber/fiber/v2"
)

type GroupHandler struct {
	Handler
	groupController groupController.GroupControllerInterface
	authMiddleware  fiber.Handler
}

func NewGroupHandler(app app.App, router fiber.Router) *GroupHandler {
	log := logger.New("handlers").File("group_handler")
	return &GroupHandler{
		groupController: app.Controllers.Group,
		authMiddleware:  app.Middleware.RequireAuth(app.Controllers.Auth),
		Handler: Handler{
			log:        log,
			router:     router,
			middleware: app.Middleware,
		},
	}
}

func (h *GroupHandler) Register() {
	groups := h.router.Group("/groups", h.authMiddleware)
	groups.Post("/", h.createGroup)
	groups.Get("/", h.getUserGroups)
	groups.Post("/join", h.joinGroup)
	groups.Get("/:id", h.getGroup)
	groups.Get("/:id/plants", h.getGroupPlants)
}

func (h *GroupHandler) createGroup(c *fiber.Ctx) error {
	user := middleware.GetUser(c)
	if user == nil {
		return unauthorized(c)
	}

	var req groupController.CreateGroupRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	group, err := h.groupController.CreateGroup(c.UserContext(), user, &req)
	if err != nil {
		return groupErrorResponse(c, err, "Failed to create group")
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"group": group})
}

func (h *GroupHandler) getUserGroups(c *fiber.Ctx) error {
	user := middleware.GetUser(c)
	if user == nil {
		return unauthorized(c)
	}

	groups, err := h.groupController.GetUserGroups(c.UserContext(), user)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to load groups",
		})
	}

	return c.JSON(fiber.Map{"groups": groups})
}

func (h *GroupHandler) getGroup(c *fiber.Ctx) error {
	user := middleware.GetUser(c)
	if user == nil {
		return unauthorized(c)
	}

	groupID, err := parseIDParam(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid group id",
		})
	}

	group, err := h.groupController.GetGroup(c.UserContext(), user, groupID)
	if err != nil {
		return groupErrorResponse(c, err, "Failed to load group")
	}

	return c.JSON(fiber.Map{"group": group})
}

func (h *GroupHandler) joinGroup(c *fiber.Ctx) error {
	user := middleware.GetUser(c)
	if user == nil {
		return unauthorized(c)
	}

	var req struct {
		InviteCode string `json:"inviteCode"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	group, err := h.groupController.JoinGroup(c.UserContext(), user, req.InviteCode)
	if err != nil {
		return groupErrorResponse(c, err, "Failed to join group")
	}

	return c.JSON(fiber.Map{"group": group})
}

func (h *GroupHandler) getGroupPlants(c *fiber.Ctx) error {
	user := middleware.GetUser(c)
	if user == nil {
		return unauthorized(c)
	}

	groupID, err := parseIDParam(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid group id",
		})
	}

	plants, err := h.groupController.GetGroupPlants(c.UserContext(), user, groupID)
	if err != nil {
		return groupErrorResponse(c, err, "Failed to load group plants")
	}

	return c.JSON(fiber.Map{"plants": plants})
}

func groupErrorResponse(c *fiber.Ctx, err error, fallback string) error {
	switch {
	case errors.Is(err, groupController.ErrValidation):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, groupController.ErrAlreadyMember):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, groupController.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Group not found"})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": fallback})
	}
}
