package groupController

import (
	"context"
	"errors"
	"trellis/config"
	"trellis/internal/database"
	. "trellis/internal/models"
	"trellis/internal/repositories"
	"trellis/internal/services"

	logger "github.com/Bparsons0904/goLogger"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	MaxGroupNameLength = 100
)

var (
	ErrValidation    = errors.New("validation error")
	ErrNotFound      = errors.New("not found")
	ErrAlreadyMember = errors.New("already a member")
)

type GroupController struct {
	groupRepo          repositories.PlantGroupRepository
	plantRepo          repositories.PlantRepository
	transactionService *services.TransactionService
	db                 database.DB
	Config             config.Config
}

type CreateGroupRequest struct {
	Name string `json:"name"`
}

type GroupControllerInterface interface {
	CreateGroup(ctx context.Context, user *User, request *CreateGroupRequest) (*PlantGroup, error)
	GetGroup(ctx context.Context, user *User, groupID uuid.UUID) (*PlantGroup, error)
	GetUserGroups(ctx context.Context, user *User) ([]*PlantGroup, error)
	JoinGroup(ctx context.Context, user *User, inviteCode string) (*PlantGroup, error)
	GetGroupPlants(ctx context.Context, user *User, groupID uuid.UUID) ([]*Plant, error)
}

func New(
	repos repositories.Repository,
	services services.Service,
	config config.Config,
	db database.DB,
) GroupControllerInterface {
	return &GroupController{
		groupRepo:          repos.PlantGroup,
		plantRepo:          repos.Plant,
		transactionService: services.Transaction,
		db:                 db,
		Config:             config,
	}
}

// CreateGroup creates a group and enrolls the creator as its owner in one
// transaction.
func (c *GroupController) CreateGroup(
	ctx context.Context,
	user *User,
	request *CreateGroupRequest,
) (*PlantGroup, error) {
	log := logger.NewWithContext(ctx, "groupController").Function("CreateGroup")

	if request.Name == "" {
		return nil, log.ErrorWithType(ErrValidation, "name is required")
	}
	if len(request.Name) > MaxGroupNameLength {
		return nil, log.ErrorWithType(
			ErrValidation,
			"name exceeds maximum length",
			"length", len(request.Name),
			"max", MaxGroupNameLength,
		)
	}

	group := &PlantGroup{
		Name:        request.Name,
		OwnerUserID: user.ID,
	}

	err := c.transactionService.Execute(ctx, func(txCtx context.Context, tx *gorm.DB) error {
		created, err := c.groupRepo.Create(txCtx, group)
		if err != nil {
			return err
		}

		return c.groupRepo.AddMember(txCtx, &PlantGroupMember{
			GroupID: created.ID,
			UserID:  user.ID,
			Role:    RoleOwner,
		})
	})
	if err != nil {
		return nil, log.Error("failed to create group", "error", err, "name", request.Name)
	}

	log.Info("Group created", "groupID", group.ID, "ownerID", user.ID)
	return group, nil
}

func (c *GroupController) GetGroup(
	ctx context.Context,
	user *User,
	groupID uuid.UUID,
) (*PlantGroup, error) {
	log := logger.NewWithContext(ctx, "groupController").Function("GetGroup")

	if groupID == uuid.Nil {
		return nil, log.ErrorWithType(ErrValidation, "groupId is required")
	}

	if err := c.requireMembership(ctx, groupID, user.ID, log); err != nil {
		return nil, err
	}

	group, err := c.groupRepo.GetByID(ctx, groupID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, log.ErrorWithType(ErrNotFound, "group not found", "groupID", groupID)
		}
		return nil, log.Error("failed to retrieve group", "error", err, "groupID", groupID)
	}

	return group, nil
}

func (c *GroupController) GetUserGroups(ctx context.Context, user *User) ([]*PlantGroup, error) {
	return c.groupRepo.GetAllByUser(ctx, user.ID)
}

func (c *GroupController) JoinGroup(
	ctx context.Context,
	user *User,
	inviteCode string,
) (*PlantGroup, error) {
	log := logger.NewWithContext(ctx, "groupController").Function("JoinGroup")

	if inviteCode == "" {
		return nil, log.ErrorWithType(ErrValidation, "invite code is required")
	}

	group, err := c.groupRepo.GetByInviteCode(ctx, inviteCode)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, log.ErrorWithType(ErrNotFound, "invalid invite code")
		}
		return nil, log.Error("failed to look up invite code", "error", err)
	}

	isMember, err := c.groupRepo.IsMember(ctx, group.ID, user.ID)
	if err != nil {
		return nil, log.Error("failed to check membership", "error", err)
	}
	if isMember {
		return nil, log.ErrorWithType(ErrAlreadyMember, "user already in group", "groupID", group.ID)
	}

	if err := c.groupRepo.AddMember(ctx, &PlantGroupMember{
		GroupID: group.ID,
		UserID:  user.ID,
		Role:    RoleMember,
	}); err != nil {
		return nil, log.Error("failed to add member", "error", err, "groupID", group.ID)
	}

	log.Info("User joined group", "groupID", group.ID, "userID", user.ID)
	return group, nil
}

func (c *GroupController) GetGroupPlants(
	ctx context.Context,
	user *User,
	groupID uuid.UUID,
) ([]*Plant, error) {
	log := logger.NewWithContext(ctx, "groupController").Function("GetGroupPlants")

	if groupID == uuid.Nil {
		return nil, log.ErrorWithType(ErrValidation, "groupId is required")
	}

	if err := c.requireMembership(ctx, groupID, user.ID, log); err != nil {
		return nil, err
	}

	return c.plantRepo.GetAllByGroup(ctx, groupID)
}

func (c *GroupController) requireMembership(
	ctx context.Context,
	groupID, userID uuid.UUID,
	log logger.Logger,
) error {
	isMember, err := c.groupRepo.IsMember(ctx, groupID, userID)
	if err != nil {
		return log.Error("failed to check membership", "error", err, "groupID", groupID)
	}
	if !isMember {
		return log.ErrorWithType(ErrNotFound, "group not found", "groupID", groupID)
	}
	return nil
}
