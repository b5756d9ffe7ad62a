package controllers

import (
	"trellis/config"
	"trellis/internal/database"
	"trellis/internal/events"
	"trellis/internal/repositories"
	"trellis/internal/services"

	authController "trellis/internal/controllers/auth"
	groupController "trellis/internal/controllers/groups"
	plantController "trellis/internal/controllers/plants"
	taskController "trellis/internal/controllers/tasks"
	userController "trellis/internal/controllers/users"
)

type Controllers struct {
	Auth  authController.AuthControllerInterface
	User  userController.UserControllerInterface
	Plant plantController.PlantControllerInterface
	Task  taskController.TaskControllerInterface
	Group groupController.GroupControllerInterface
}

func New(
	services services.Service,
	repos repositories.Repository,
	eventBus *events.EventBus,
	config config.Config,
	db database.DB,
) Controllers {
	return Controllers{
		Auth:  authController.New(repos, config, db),
		User:  userController.New(repos, config, db),
		Plant: plantController.New(repos, services, eventBus, config, db),
		Task:  taskController.New(repos, services, eventBus, config, db),
		Group: groupController.New(repos, services, config, db),
	}
}
