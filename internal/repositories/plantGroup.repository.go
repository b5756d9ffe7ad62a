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

type PlantGroupRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*PlantGroup, error)
	GetByInviteCode(ctx context.Context, inviteCode string) (*PlantGroup, error)
	GetAllByUser(ctx context.Context, userID uuid.UUID) ([]*PlantGroup, error)
	Create(ctx context.Context, group *PlantGroup) (*PlantGroup, error)
	AddMember(ctx context.Context, member *PlantGroupMember) error
	IsMember(ctx context.Context, groupID, userID uuid.UUID) (bool, error)
}

type plantGroupRepository struct {
	db  database.DB
	log logger.Logger
}

func NewPlantGroupRepository(db database.DB) PlantGroupRepository {
	return &plantGroupRepository{
		db:  db,
		log: logger.New("plantGroupRepository"),
	}
}

func (r *plantGroupRepository) getDB(ctx context.Context) *gorm.DB {
	if tx, ok := contextutil.GetTransaction(ctx); ok {
		return tx
	}
	return r.db.SQLWithContext(ctx)
}

func (r *plantGroupRepository) GetByID(ctx context.Context, id uuid.UUID) (*PlantGroup, error) {
	log := r.log.Function("GetByID")

	var group PlantGroup
	if err := r.getDB(ctx).Preload("Members.User").First(&group, "id = ?", id).Error; err != nil {
		return nil, log.Err("failed to get plant group by ID", err, "id", id)
	}

	return &group, nil
}

func (r *plantGroupRepository) GetByInviteCode(ctx context.Context, inviteCode string) (*PlantGroup, error) {
	log := r.log.Function("GetByInviteCode")

	var group PlantGroup
	if err := r.getDB(ctx).First(&group, "invite_code = ?", inviteCode).Error; err != nil {
		return nil, log.Err("failed to get plant group by invite code", err)
	}

	return &group, nil
}

func (r *plantGroupRepository) GetAllByUser(ctx context.Context, userID uuid.UUID) ([]*PlantGroup, error) {
	log := r.log.Function("GetAllByUser")

	var groups []*PlantGroup
	if err := r.getDB(ctx).
		Joins("JOIN plant_group_members ON plant_group_members.group_id = plant_groups.id").
		Where("plant_group_members.user_id = ? AND plant_group_members.deleted_at IS NULL", userID).
		Find(&groups).Error; err != nil {
		return nil, log.Err("failed to get plant groups by user", err, "userID", userID)
	}

	return groups, nil
}

func (r *plantGroupRepository) Create(ctx context.Context, group *PlantGroup) (*PlantGroup, error) {
	log := r.log.Function("Create")

	if err := r.getDB(ctx).Create(group).Error; err != nil {
		return nil, log.Err("failed to create plant group", err, "name", group.Name)
	}

	return group, nil
}

func (r *plantGroupRepository) AddMember(ctx context.Context, member *PlantGroupMember) error {
	log := r.log.Function("AddMember")

	if err := r.getDB(ctx).Create(member).Error; err != nil {
		return log.Err("failed to add group member", err, "groupID", member.GroupID, "userID", member.UserID)
	}

	return nil
}

func (r *plantGroupRepository) IsMember(ctx context.Context, groupID, userID uuid.UUID) (bool, error) {
	log := r.log.Function("IsMember")

	var count int64
	if err := r.getDB(ctx).
		Model(&PlantGroupMember{}).
		Where("group_id = ? AND user_id = ?", groupID, userID).
		Count(&count).Error; err != nil {
		return false, log.Err("failed to check group membership", err, "groupID", groupID, "userID", userID)
	}

	return count > 0, nil
}
