package plantController

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

var (
	ErrValidation = errors.New("validation error")
	ErrNotFound   = errors.New("not found")
)

// csvReconciler is the bulk import engine behind the upload endpoint.
type csvReconciler interface {
	Reconcile(ctx context.Context, user *User, parse *services.ParseResult) *services.ImportResult
}

// taskSeeder creates the default care tasks for a newly created plant.
type taskSeeder interface {
	SeedDefaultTasks(ctx context.Context, plant *Plant, userID uuid.UUID) []uuid.UUID
}

type PlantController struct {
	plantRepo   repositories.PlantRepository
	groupRepo   repositories.PlantGroupRepository
	csvParser   *services.CSVParserService
	plantImport csvReconciler
	taskSeeder  taskSeeder
	eventBus    *events.EventBus
	db          database.DB
	Config      config.Config
}

type CreatePlantRequest struct {
	Name               string     `json:"name"`
	SpeciesType        string     `json:"speciesType"`
	SpeciesName        string     `json:"speciesName,omitempty"`
	Location           string     `json:"location"`
	DateAcquired       *time.Time `json:"dateAcquired,omitempty"`
	PotSize            string     `json:"potSize,omitempty"`
	PotType            string     `json:"potType,omitempty"`
	SoilType           string     `json:"soilType,omitempty"`
	Sunlight           string     `json:"sunlight,omitempty"`
	Notes              string     `json:"notes,omitempty"`
	PurchasePriceCents *int64     `json:"purchasePriceCents,omitempty"`
	GroupID            *uuid.UUID `json:"groupId,omitempty"`
	LastWateredAt      *time.Time `json:"lastWateredAt,omitempty"`
	LastFertilizedAt   *time.Time `json:"lastFertilizedAt,omitempty"`
	LastMistedAt       *time.Time `json:"lastMistedAt,omitempty"`
	LastRepottedAt     *time.Time `json:"lastRepottedAt,omitempty"`
}

type UpdatePlantRequest struct {
	Name           *string    `json:"name,omitempty"`
	SpeciesType    *string    `json:"speciesType,omitempty"`
	SpeciesName    *string    `json:"speciesName,omitempty"`
	Location       *string    `json:"location,omitempty"`
	PotSize        *string    `json:"potSize,omitempty"`
	PotType        *string    `json:"potType,omitempty"`
	SoilType       *string    `json:"soilType,omitempty"`
	Sunlight       *string    `json:"sunlight,omitempty"`
	Notes          *string    `json:"notes,omitempty"`
	GroupID        *uuid.UUID `json:"groupId,omitempty"`
	AssignedUserID *uuid.UUID `json:"assignedUserId,omitempty"`
}

type PlantControllerInterface interface {
	CreatePlant(ctx context.Context, user *User, request *CreatePlantRequest) (*Plant, error)
	GetPlant(ctx context.Context, user *User, plantID uuid.UUID) (*Plant, error)
	GetUserPlants(ctx context.Context, user *User) ([]*Plant, error)
	UpdatePlant(
		ctx context.Context,
		user *User,
		plantID uuid.UUID,
		request *UpdatePlantRequest,
	) (*Plant, error)
	DeletePlant(ctx context.Context, user *User, plantID uuid.UUID) error
	ImportCSV(ctx context.Context, user *User, data []byte) (*services.ImportResult, error)
}

func New(
	repos repositories.Repository,
	services services.Service,
	eventBus *events.EventBus,
	config config.Config,
	db database.DB,
) PlantControllerInterface {
	return &PlantController{
		plantRepo:   repos.Plant,
		groupRepo:   repos.PlantGroup,
		csvParser:   services.CSVParser,
		plantImport: services.PlantImport,
		taskSeeder:  services.Recurrence,
		eventBus:    eventBus,
		db:          db,
		Config:      config,
	}
}

func (c *PlantController) CreatePlant(
	ctx context.Context,
	user *User,
	request *CreatePlantRequest,
) (*Plant, error) {
	log := logger.NewWithContext(ctx, "plantController").Function("CreatePlant")

	if request.Name == "" {
		return nil, log.ErrorWithType(ErrValidation, "name is required")
	}
	if request.SpeciesType == "" {
		return nil, log.ErrorWithType(ErrValidation, "speciesType is required")
	}
	if request.Location == "" {
		return nil, log.ErrorWithType(ErrValidation, "location is required")
	}

	if request.GroupID != nil {
		isMember, err := c.groupRepo.IsMember(ctx, *request.GroupID, user.ID)
		if err != nil {
			return nil, log.Error("failed to verify group membership", "error", err)
		}
		if !isMember {
			return nil, log.ErrorWithType(ErrValidation, "user is not a member of the group")
		}
	}

	plant := &Plant{
		UserID:             user.ID,
		GroupID:            request.GroupID,
		Name:               request.Name,
		SpeciesType:        request.SpeciesType,
		SpeciesName:        request.SpeciesName,
		Location:           request.Location,
		DateAcquired:       request.DateAcquired,
		PotSize:            request.PotSize,
		PotType:            request.PotType,
		SoilType:           request.SoilType,
		Sunlight:           request.Sunlight,
		Notes:              request.Notes,
		PurchasePriceCents: request.PurchasePriceCents,
		LastWateredAt:      request.LastWateredAt,
		LastFertilizedAt:   request.LastFertilizedAt,
		LastMistedAt:       request.LastMistedAt,
		LastRepottedAt:     request.LastRepottedAt,
		AssignedUserID:     &user.ID,
		CreatedByUserID:    user.ID,
	}

	created, err := c.plantRepo.Create(ctx, plant)
	if err != nil {
		return nil, log.Error("failed to create plant", "error", err, "name", request.Name)
	}

	// Default tasks seed from any supplied last-care dates. Seeding failures
	// are logged inside the seeder and never fail plant creation.
	taskIDs := c.taskSeeder.SeedDefaultTasks(ctx, created, user.ID)

	log.Info(
		"Plant created successfully",
		"plantID", created.ID,
		"userID", user.ID,
		"seededTasks", len(taskIDs),
	)

	return created, nil
}

func (c *PlantController) GetPlant(
	ctx context.Context,
	user *User,
	plantID uuid.UUID,
) (*Plant, error) {
	log := logger.NewWithContext(ctx, "plantController").Function("GetPlant")
	return c.verifyPlantAccess(ctx, user, plantID, log)
}

func (c *PlantController) GetUserPlants(ctx context.Context, user *User) ([]*Plant, error) {
	return c.plantRepo.GetAllByUser(ctx, user.ID)
}

func (c *PlantController) UpdatePlant(
	ctx context.Context,
	user *User,
	plantID uuid.UUID,
	request *UpdatePlantRequest,
) (*Plant, error) {
	log := logger.NewWithContext(ctx, "plantController").Function("UpdatePlant")

	plant, err := c.verifyPlantAccess(ctx, user, plantID, log)
	if err != nil {
		return nil, err
	}

	if request.Name != nil {
		if *request.Name == "" {
			return nil, log.ErrorWithType(ErrValidation, "name cannot be empty")
		}
		plant.Name = *request.Name
	}
	if request.SpeciesType != nil {
		if *request.SpeciesType == "" {
			return nil, log.ErrorWithType(ErrValidation, "speciesType cannot be empty")
		}
		plant.SpeciesType = *request.SpeciesType
	}
	if request.SpeciesName != nil {
		plant.SpeciesName = *request.SpeciesName
	}
	if request.Location != nil {
		if *request.Location == "" {
			return nil, log.ErrorWithType(ErrValidation, "location cannot be empty")
		}
		plant.Location = *request.Location
	}
	if request.PotSize != nil {
		plant.PotSize = *request.PotSize
	}
	if request.PotType != nil {
		plant.PotType = *request.PotType
	}
	if request.SoilType != nil {
		plant.SoilType = *request.SoilType
	}
	if request.Sunlight != nil {
		plant.Sunlight = *request.Sunlight
	}
	if request.Notes != nil {
		plant.Notes = *request.Notes
	}
	if request.GroupID != nil {
		isMember, err := c.groupRepo.IsMember(ctx, *request.GroupID, user.ID)
		if err != nil {
			return nil, log.Error("failed to verify group membership", "error", err)
		}
		if !isMember {
			return nil, log.ErrorWithType(ErrValidation, "user is not a member of the group")
		}
		plant.GroupID = request.GroupID
	}
	if request.AssignedUserID != nil {
		plant.AssignedUserID = request.AssignedUserID
	}

	plant.LastModifiedByUserID = &user.ID

	updated, err := c.plantRepo.Update(ctx, plant)
	if err != nil {
		return nil, log.Error("failed to update plant", "error", err, "plantID", plantID)
	}

	return updated, nil
}

func (c *PlantController) DeletePlant(ctx context.Context, user *User, plantID uuid.UUID) error {
	log := logger.NewWithContext(ctx, "plantController").Function("DeletePlant")

	plant, err := c.verifyPlantAccess(ctx, user, plantID, log)
	if err != nil {
		return err
	}

	if plant.UserID != user.ID {
		return log.ErrorWithType(ErrValidation, "only the owner can delete a plant")
	}

	if err := c.plantRepo.Delete(ctx, plantID); err != nil {
		return log.Error("failed to delete plant", "error", err, "plantID", plantID)
	}

	log.Info("Plant deleted", "plantID", plantID)
	return nil
}

// ImportCSV runs the full bulk import pipeline: parse and validate the file,
// then reconcile rows against the user's existing plants. File-level parse
// failures abort before reconciliation; row-level problems are reported in the
// result.
func (c *PlantController) ImportCSV(
	ctx context.Context,
	user *User,
	data []byte,
) (*services.ImportResult, error) {
	log := logger.NewWithContext(ctx, "plantController").Function("ImportCSV")

	if len(data) == 0 {
		return nil, log.ErrorWithType(ErrValidation, "file is empty")
	}

	c.publishImportEvent(events.IMPORT_STARTED, user, nil)

	parse := c.csvParser.ParsePlantCSV(data)
	if !parse.Success {
		c.publishImportEvent(events.IMPORT_FAILED, user, map[string]any{"error": parse.Error})
		return nil, log.ErrorWithType(ErrValidation, "csv parse failed", "error", parse.Error)
	}

	result := c.plantImport.Reconcile(ctx, user, parse)

	eventType := events.IMPORT_COMPLETE
	if !result.Success {
		eventType = events.IMPORT_FAILED
	}
	c.publishImportEvent(eventType, user, map[string]any{
		"totalRows": result.Stats.TotalRows,
		"inserted":  result.Stats.SuccessfulInserts,
		"updated":   result.Stats.UpdatedPlants,
		"failed":    result.Stats.FailedRows,
	})

	log.Info(
		"CSV import finished",
		"userID", user.ID,
		"success", result.Success,
		"inserted", result.Stats.SuccessfulInserts,
		"updated", result.Stats.UpdatedPlants,
	)

	return result, nil
}

func (c *PlantController) publishImportEvent(
	eventType events.MessageType,
	user *User,
	data map[string]any,
) {
	if c.eventBus == nil {
		return
	}

	event := events.Event{
		Type:   eventType,
		UserID: &user.ID,
		Data:   data,
	}

	if err := c.eventBus.Publish(events.IMPORT_CHANNEL, event); err != nil {
		logger.New("plantController").Function("publishImportEvent").
			Warn("failed to publish import event", "type", eventType, "error", err)
	}
}

func (c *PlantController) verifyPlantAccess(
	ctx context.Context,
	user *User,
	plantID uuid.UUID,
	log logger.Logger,
) (*Plant, error) {
	if plantID == uuid.Nil {
		return nil, log.ErrorWithType(ErrValidation, "plantId is required")
	}

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
