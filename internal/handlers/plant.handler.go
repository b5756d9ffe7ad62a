package handlers

import (
	"errors"
	"io"
	"trellis/internal/app"
	plantController "trellis/internal/controllers/plants"
	"trellis/internal/handlers/middleware"

	logger "github.com/Bparsons0904/goLogger"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type PlantHandler struct {
	Handler
	plantController plantController.PlantControllerInterface
	authMiddleware  fiber.Handler
}

func NewPlantHandler(app app.App, router fiber.Router) *PlantHandler {
	log := logger.New("handlers").File("plant_handler")
	return &PlantHandler{
		plantController: app.Controllers.Plant,
		authMiddleware:  app.Middleware.RequireAuth(app.Controllers.Auth),
		Handler: Handler{
			log:        log,
			router:     router,
			middleware: app.Middleware,
		},
	}
}

func (h *PlantHandler) Register() {
	plants := h.router.Group("/plants", h.authMiddleware)
	plants.Post("/", h.createPlant)
	plants.Get("/", h.getUserPlants)
	plants.Post("/import", h.importCSV)
	plants.Get("/:id", h.getPlant)
	plants.Patch("/:id", h.updatePlant)
	plants.Delete("/:id", h.deletePlant)
}

func (h *PlantHandler) createPlant(c *fiber.Ctx) error {
	user := middleware.GetUser(c)
	if user == nil {
		return unauthorized(c)
	}

	var req plantController.CreatePlantRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	plant, err := h.plantController.CreatePlant(c.UserContext(), user, &req)
	if err != nil {
		return plantErrorResponse(c, err, "Failed to create plant")
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"plant": plant})
}

func (h *PlantHandler) getUserPlants(c *fiber.Ctx) error {
	user := middleware.GetUser(c)
	if user == nil {
		return unauthorized(c)
	}

	plants, err := h.plantController.GetUserPlants(c.UserContext(), user)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to load plants",
		})
	}

	return c.JSON(fiber.Map{"plants": plants})
}

func (h *PlantHandler) getPlant(c *fiber.Ctx) error {
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

	plant, err := h.plantController.GetPlant(c.UserContext(), user, plantID)
	if err != nil {
		return plantErrorResponse(c, err, "Failed to load plant")
	}

	return c.JSON(fiber.Map{"plant": plant})
}

func (h *PlantHandler) updatePlant(c *fiber.Ctx) error {
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

	var req plantController.UpdatePlantRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	plant, err := h.plantController.UpdatePlant(c.UserContext(), user, plantID, &req)
	if err != nil {
		return plantErrorResponse(c, err, "Failed to update plant")
	}

	return c.JSON(fiber.Map{"plant": plant})
}

func (h *PlantHandler) deletePlant(c *fiber.Ctx) error {
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

	if err := h.plantController.DeletePlant(c.UserContext(), user, plantID); err != nil {
		return plantErrorResponse(c, err, "Failed to delete plant")
	}

	return c.JSON(fiber.Map{"message": "Plant deleted"})
}

// importCSV accepts a multipart upload under the "file" field and returns the
// reconciliation result, including a downloadable error CSV when rows failed.
func (h *PlantHandler) importCSV(c *fiber.Ctx) error {
	user := middleware.GetUser(c)
	if user == nil {
		return unauthorized(c)
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "CSV file is required",
		})
	}

	file, err := fileHeader.Open()
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Failed to read uploaded file",
		})
	}
	defer func() {
		if closeErr := file.Close(); closeErr != nil {
			h.log.Warn("failed to close uploaded file", "error", closeErr)
		}
	}()

	data, err := io.ReadAll(file)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Failed to read uploaded file",
		})
	}

	result, err := h.plantController.ImportCSV(c.UserContext(), user, data)
	if err != nil {
		return plantErrorResponse(c, err, "Import failed")
	}

	status := fiber.StatusOK
	if !result.Success {
		status = fiber.StatusUnprocessableEntity
	}

	return c.Status(status).JSON(result)
}

func plantErrorResponse(c *fiber.Ctx, err error, fallback string) error {
	switch {
	case errors.Is(err, plantController.ErrValidation):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, plantController.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Plant not found"})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": fallback})
	}
}

func unauthorized(c *fiber.Ctx) error {
	return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
		"error": "Authentication required",
	})
}

func parseIDParam(c *fiber.Ctx) (uuid.UUID, error) {
	return uuid.Parse(c.Params("id"))
}
