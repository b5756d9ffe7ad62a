package userController

import (
	"context"
	"errors"
	"trellis/config"
	"trellis/internal/database"
	. "trellis/internal/models"
	"trellis/internal/repositories"

	logger "github.com/Bparsons0904/goLogger"

	"golang.org/x/crypto/bcrypt"
)

var (
	ErrValidation = errors.New("validation error")
)

type UserController struct {
	userRepo repositories.UserRepository
	db       database.DB
	Config   config.Config
}

type UpdateProfileRequest struct {
	FirstName   *string `json:"firstName,omitempty"`
	LastName    *string `json:"lastName,omitempty"`
	DisplayName *string `json:"displayName,omitempty"`
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

type UserControllerInterface interface {
	GetProfile(ctx context.Context, user *User) (UserProfile, error)
	UpdateProfile(
		ctx context.Context,
		user *User,
		request *UpdateProfileRequest,
	) (UserProfile, error)
	ChangePassword(ctx context.Context, user *User, request *ChangePasswordRequest) error
}

func New(
	repos repositories.Repository,
	config config.Config,
	db database.DB,
) UserControllerInterface {
	return &UserController{
		userRepo: repos.User,
		db:       db,
		Config:   config,
	}
}

func (c *UserController) GetProfile(ctx context.Context, user *User) (UserProfile, error) {
	return user.ToProfile(), nil
}

func (c *UserController) UpdateProfile(
	ctx context.Context,
	user *User,
	request *UpdateProfileRequest,
) (UserProfile, error) {
	log := logger.NewWithContext(ctx, "userController").Function("UpdateProfile")

	if request.FirstName != nil {
		user.FirstName = *request.FirstName
	}
	if request.LastName != nil {
		user.LastName = *request.LastName
	}
	if request.DisplayName != nil {
		if *request.DisplayName == "" {
			return UserProfile{}, log.ErrorWithType(ErrValidation, "displayName cannot be empty")
		}
		user.DisplayName = *request.DisplayName
	}

	if err := c.userRepo.Update(ctx, user); err != nil {
		return UserProfile{}, log.Error("failed to update profile", "error", err, "userID", user.ID)
	}

	log.Info("Profile updated", "userID", user.ID)
	return user.ToProfile(), nil
}

func (c *UserController) ChangePassword(
	ctx context.Context,
	user *User,
	request *ChangePasswordRequest,
) error {
	log := logger.NewWithContext(ctx, "userController").Function("ChangePassword")

	if err := bcrypt.CompareHashAndPassword(
		[]byte(user.Password),
		[]byte(request.CurrentPassword),
	); err != nil {
		return log.ErrorWithType(ErrValidation, "current password is incorrect", "userID", user.ID)
	}

	if len(request.NewPassword) < 8 {
		return log.ErrorWithType(ErrValidation, "password too short", "min", 8)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(request.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		return log.Error("failed to hash password", "error", err)
	}

	user.Password = string(hash)
	if err := c.userRepo.Update(ctx, user); err != nil {
		return log.Error("failed to update password", "error", err, "userID", user.ID)
	}

	log.Info("Password changed", "userID", user.ID)
	return nil
}
