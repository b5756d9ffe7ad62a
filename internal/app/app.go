package app

import (
	"context"
	"trellis/config"
	"trellis/internal/controllers"
	"trellis/internal/database"
	"trellis/internal/events"
	"trellis/internal/handlers/middleware"
	"trellis/internal/jobs"
	"trellis/internal/repositories"
	"trellis/internal/services"

	logger "github.com/Bparsons0904/goLogger"
)

type App struct {
	Database    database.DB
	Middleware  middleware.Middleware
	EventBus    *events.EventBus
	Config      config.Config
	Services    services.Service
	Repos       repositories.Repository
	Controllers controllers.Controllers
}

func New() (*App, error) {
	log := logger.New("app").Function("New")

	config, err := config.InitConfig()
	if err != nil {
		return &App{}, log.Err("failed to initialize config", err)
	}

	db, err := database.New(config)
	if err != nil {
		return &App{}, log.Err("failed to create database", err)
	}

	eventBus := events.New(db.Cache.Events, config)

	repos := repositories.New(db)

	appServices, err := services.New(db, config, eventBus)
	if err != nil {
		return &App{}, log.Err("failed to initialize services", err)
	}

	middleware := middleware.New(db, eventBus, config)
	appControllers := controllers.New(appServices, repos, eventBus, config, db)

	if config.SchedulerEnabled {
		careReminderJob := jobs.NewCareReminderJob(
			repos.CareTask,
			eventBus,
			services.DailyMorning,
		)
		if err := appServices.Scheduler.AddJob(careReminderJob); err != nil {
			return &App{}, log.Err("failed to register care reminder job", err)
		}
		log.Info("Registered care reminder job with scheduler")

		if err := appServices.Scheduler.Start(context.Background()); err != nil {
			return &App{}, log.Err("failed to start scheduler", err)
		}
	}

	app := &App{
		Database:    db,
		Config:      config,
		Middleware:  middleware,
		EventBus:    eventBus,
		Services:    appServices,
		Repos:       repos,
		Controllers: appControllers,
	}

	if err := app.validate(); err != nil {
		return &App{}, log.Err("failed to validate app", err)
	}

	return app, nil
}

func (a *App) validate() error {
	log := logger.New("app").Function("validate")
	if a.Database.SQL == nil {
		return log.ErrMsg("database is nil")
	}

	if a.Config == (config.Config{}) {
		return log.ErrMsg("config is nil")
	}

	nilChecks := []any{
		a.EventBus,
		a.Services.Transaction,
		a.Services.Scheduler,
		a.Services.Recurrence,
		a.Services.CSVParser,
		a.Services.PlantImport,
		a.Controllers.Auth,
		a.Controllers.User,
		a.Controllers.Plant,
		a.Controllers.Task,
		a.Controllers.Group,
		a.Repos.User,
		a.Repos.Plant,
		a.Repos.CareTask,
		a.Repos.PlantGroup,
	}

	for _, check := range nilChecks {
		if check == nil {
			return log.ErrMsg("nil check failed")
		}
	}

	return nil
}

func (a *App) Close() (err error) {
	if a.EventBus != nil {
		if closeErr := a.EventBus.Close(); closeErr != nil {
			err = closeErr
		}
	}

	if a.Services.Scheduler != nil {
		if closeErr := a.Services.Scheduler.Stop(context.Background()); closeErr != nil {
			err = closeErr
		}
	}

	if dbErr := a.Database.Close(); dbErr != nil {
		err = dbErr
	}

	return err
}
