package database

import (
	"trellis/internal/models"

	logger "github.com/Bparsons0904/goLogger"
)

// MigrateModels runs GORM AutoMigrate for all models
func (db *DB) MigrateModels() error {
	log := logger.New("database").Function("MigrateModels")
	log.Info("Starting database migration")

	modelsToMigrate := []interface{}{
		&models.User{},
		&models.PlantGroup{},
		&models.PlantGroupMember{},
		&models.Plant{},
		&models.CareTask{},
		&models.TaskCompletion{},
	}

	for _, model := range modelsToMigrate {
		if err := db.SQL.AutoMigrate(model); err != nil {
			return log.Err("failed to migrate model", err, "model", model)
		}
	}

	log.Info("Database migration completed successfully")
	return nil
}

// CreateIndexes creates additional indexes that GORM doesn't create automatically
func (db *DB) CreateIndexes() error {
	log := logger.New("database").Function("CreateIndexes")
	log.Info("Creating additional database indexes")

	indexes := []string{
		"CREATE INDEX IF NOT EXISTS idx_care_tasks_plant_due ON care_tasks(plant_id, next_due_date)",
		"CREATE INDEX IF NOT EXISTS idx_care_tasks_assigned_due ON care_tasks(assigned_user_id, next_due_date)",
		"CREATE INDEX IF NOT EXISTS idx_task_completions_task_completed ON task_completions(task_id, completed_at DESC)",
		"CREATE INDEX IF NOT EXISTS idx_plants_user_name ON plants(user_id, lower(name))",
	}

	for _, indexSQL := range indexes {
		if err := db.SQL.Exec(indexSQL).Error; err != nil {
			log.Warn("Failed to create index", "sql", indexSQL, "error", err)
			// Continue with other indexes even if one fails
		}
	}

	log.Info("Additional database indexes created")
	return nil
}
