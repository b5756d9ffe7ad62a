package repositories

import (
	"context"
	contextutil "trellis/internal/context"
	"trellis/internal/database"
	. "trellis/internal/models"

	logger "github.com/Bparsons0904/goLogger"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	PLANT_BATCH_SIZE = 500
)

type PlantRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*Plant, error)
	GetAllByUser(ctx context.Context, userID uuid.UUID) ([]*Plant, error)
	GetAllByGroup(ctx context.Context, groupID uuid.UUID) ([]*Plant, error)
	Create(ctx context.Context, plant *Plant) (*Plant, error)
	InsertMany(ctx context.Context, plants []*Plant) ([]*Plant, error)
	Update(ctx context.Context, plant *Plant) (*Plant, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type plantRepository struct {
	db  database.DB
	log logger.Logger
}

func NewPlantRepository(db database.DB) PlantRepository {
	return &plantRepository{
		db:  db,
		log: logger.New("plantRepository"),
	}
}

func (r *plantRepository) getDB(ctx context.Context) *gorm.DB {
	if tx, ok := contextutil.GetTransaction(ctx); ok {
		return tx
	}
	return r.db.SQLWithContext(ctx)
}

func (r *plantRepository) GetByID(ctx context.Context, id uuid.UUID) (*Plant, error) {
	log := r.log.Function("GetByID")

	var plant Plant
	if err := r.getDB(ctx).First(&plant, "id = ?", id).Error; err != nil {
		return nil, log.Err("failed to get plant by ID", err, "id", id)
	}

	return &plant, nil
}

func (r *plantRepository) GetAllByUser(ctx context.Context, userID uuid.UUID) ([]*Plant, error) {
	log := r.log.Function("GetAllByUser")

	var plants []*Plant
	if err := r.getDB(ctx).
		Where("user_id = ?", userID).
		Order("created_at ASC").
		Find(&plants).Error; err != nil {
		return nil, log.Err("failed to get plants by user", err, "userID", userID)
	}

	return plants, nil
}

func (r *plantRepository) GetAllByGroup(ctx context.Context, groupID uuid.UUID) ([]*Plant, error) {
	log := r.log.Function("GetAllByGroup")

	var plants []*Plant
	if err := r.getDB(ctx).
		Where("group_id = ?", groupID).
		Order("created_at ASC").
		Find(&plants).Error; err != nil {
		return nil, log.Err("failed to get plants by group", err, "groupID", groupID)
	}

	return plants, nil
}

func (r *plantRepository) Create(ctx context.Context, plant *Plant) (*Plant, error) {
	log := r.log.Function("Create")

	if err := r.getDB(ctx).Create(plant).Error; err != nil {
		return nil, log.Err("failed to create plant", err, "name", plant.Name)
	}

	return plant, nil
}

// InsertMany persists a batch of new plants in a single batched insert and
// returns the records with their generated ids populated.
func (r *plantRepository) InsertMany(ctx context.Context, plants []*Plant) ([]*Plant, error) {
	log := r.log.Function("InsertMany")

	if len(plants) == 0 {
		return plants, nil
	}

	if err := r.getDB(ctx).CreateInBatches(plants, PLANT_BATCH_SIZE).Error; err != nil {
		return nil, log.Err("failed to insert plant batch", err, "count", len(plants))
	}

	log.Info("Inserted plants", "count", len(plants))
	return plants, nil
}

func (r *plantRepository) Update(ctx context.Context, plant *Plant) (*Plant, error) {
	log := r.log.Function("Update")

	if err := r.getDB(ctx).Save(plant).Error; err != nil {
		return nil, log.Err("failed to update plant", err, "id", plant.ID)
	}

	return plant, nil
}

func (r *plantRepository) Delete(ctx context.Context, id uuid.UUID) error {
	log := r.log.Function("Delete")

	if err := r.getDB(ctx).Delete(&Plant{}, "id = ?", id).Error; err != nil {
		return log.Err("failed to delete plant", err, "id", id)
	}

	return nil
}
