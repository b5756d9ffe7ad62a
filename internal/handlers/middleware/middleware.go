package middleware

import (
	"trellis/config"
	"trellis/internal/database"
	"trellis/internal/events"

	logger "github.com/Bparsons0904/goLogger"
)

type Middleware struct {
	DB       database.DB
	Config   config.Config
	log      logger.Logger
	eventBus *events.EventBus
}

func New(
	db database.DB,
	eventBus *events.EventBus,
	config config.Config,
) Middleware {
	return Middleware{
		DB:       db,
		Config:   config,
		log:      logger.New("middleware"),
		eventBus: eventBus,
	}
}
