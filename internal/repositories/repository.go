package repositories

import (
	"trellis/internal/database"
)

type Repository struct {
	User       UserRepository
	Plant      PlantRepository
	CareTask   CareTaskRepository
	PlantGroup PlantGroupRepository
}

func New(db database.DB) Repository {
	return Repository{
		User:       NewUserRepository(db),
		Plant:      NewPlantRepository(db),
		CareTask:   NewCareTaskRepository(db),
		PlantGroup: NewPlantGroupRepository(db),
	}
}
