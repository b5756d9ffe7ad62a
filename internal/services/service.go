package services

import (
	"trellis/config"
	"trellis/internal/database"
	"trellis/internal/events"
	"trellis/internal/repositories"
)

type Service struct {
	Transaction *TransactionService
	Scheduler   *SchedulerService
	Recurrence  *RecurrenceService
	CSVParser   *CSVParserService
	PlantImport *PlantImportService
}

func New(db database.DB, config config.Config, eventBus *events.EventBus) (Service, error) {
	transactionService := NewTransactionService(db)
	repos := repositories.New(db)

	schedulerService := NewSchedulerService()
	recurrenceService := NewRecurrenceService(repos.CareTask)
	csvParserService := NewCSVParserService(config.ImportMaxRows)
	plantImportService := NewPlantImportService(repos.Plant, recurrenceService)

	return Service{
		Transaction: transactionService,
		Scheduler:   schedulerService,
		Recurrence:  recurrenceService,
		CSVParser:   csvParserService,
		PlantImport: plantImportService,
	}, nil
}
