package seed

import (
	"time"
	"trellis/config"
	. "trellis/internal/models"

	logger "github.com/Bparsons0904/goLogger"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

func timePtr(t time.Time) *time.Time {
	return &t
}

func intPtr(i int) *int {
	return &i
}

func Seed(db *gorm.DB, config config.Config, log logger.Logger) error {
	log = log.Function("seed")
	log.Info("Seeding development data")

	users, err := seedUsers(db, log)
	if err != nil {
		return err
	}

	group, err := seedGroup(db, users, log)
	if err != nil {
		return err
	}

	if err := seedPlants(db, users, group, log); err != nil {
		return err
	}

	return nil
}

func seedUsers(db *gorm.DB, log logger.Logger) ([]User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte("password"), bcrypt.DefaultCost)
	if err != nil {
		return nil, log.Err("failed to hash seed password", err)
	}

	users := []User{
		{
			FirstName:   "Test",
			LastName:    "User",
			DisplayName: "Test User",
			Email:       "test@example.com",
			Password:    string(hash),
		}, {
			FirstName:   "Ada",
			LastName:    "Lovelace",
			DisplayName: "Ada Lovelace",
			Email:       "ada.lovelace@example.com",
			Password:    string(hash),
		},
	}

	for i := range users {
		var existing User
		if err := db.First(&existing, "email = ?", users[i].Email).Error; err == nil {
			users[i] = existing
			log.Info("User already exists", "email", users[i].Email)
			continue
		}
		log.Info("Seeding user", "email", users[i].Email)
		if err := db.Create(&users[i]).Error; err != nil {
			return nil, log.Err("failed to create user", err, "email", users[i].Email)
		}
	}

	return users, nil
}

func seedGroup(db *gorm.DB, users []User, log logger.Logger) (*PlantGroup, error) {
	group := PlantGroup{
		Name:        "Apartment 4B",
		OwnerUserID: users[0].ID,
	}

	var existing PlantGroup
	if err := db.First(&existing, "name = ?", group.Name).Error; err == nil {
		return &existing, nil
	}

	if err := db.Create(&group).Error; err != nil {
		return nil, log.Err("failed to create group", err)
	}

	members := []PlantGroupMember{
		{GroupID: group.ID, UserID: users[0].ID, Role: RoleOwner},
		{GroupID: group.ID, UserID: users[1].ID, Role: RoleMember},
	}
	for _, member := range members {
		if err := db.Create(&member).Error; err != nil {
			return nil, log.Err("failed to add group member", err)
		}
	}

	log.Info("Seeded group", "name", group.Name, "inviteCode", group.InviteCode)
	return &group, nil
}

func seedPlants(db *gorm.DB, users []User, group *PlantGroup, log logger.Logger) error {
	owner := users[0]
	now := time.Now()

	plants := []Plant{
		{
			UserID:          owner.ID,
			Name:            "Monty",
			SpeciesType:     "Monstera",
			SpeciesName:     "Monstera deliciosa",
			Location:        "Living Room",
			Sunlight:        "bright indirect",
			DateAcquired:    timePtr(now.AddDate(-1, 0, 0)),
			LastWateredAt:   timePtr(now.AddDate(0, 0, -3)),
			CreatedByUserID: owner.ID,
			AssignedUserID:  &owner.ID,
		},
		{
			UserID:          owner.ID,
			GroupID:         &group.ID,
			Name:            "Fernie",
			SpeciesType:     "Fern",
			SpeciesName:     "Nephrolepis exaltata",
			Location:        "Bathroom",
			Sunlight:        "low",
			LastMistedAt:    timePtr(now.AddDate(0, 0, -1)),
			CreatedByUserID: owner.ID,
			AssignedUserID:  &users[1].ID,
		},
	}

	for i := range plants {
		var existing Plant
		if err := db.First(&existing, "user_id = ? AND name = ?", owner.ID, plants[i].Name).Error; err == nil {
			log.Info("Plant already exists", "name", plants[i].Name)
			continue
		}
		if err := db.Create(&plants[i]).Error; err != nil {
			return log.Err("failed to create plant", err, "name", plants[i].Name)
		}

		waterDue := now.AddDate(0, 0, 2)
		task := CareTask{
			PlantID:             plants[i].ID,
			Type:                TaskTypeWater,
			Title:               "Water",
			IsRecurring:         true,
			RecurrenceFrequency: intPtr(6),
			NextDueDate:         &waterDue,
			CreatedByUserID:     owner.ID,
			AssignedUserID:      plants[i].AssignedUserID,
		}
		unit := UnitDays
		task.RecurrenceUnit = &unit
		if err := db.Create(&task).Error; err != nil {
			return log.Err("failed to create care task", err, "plant", plants[i].Name)
		}
	}

	log.Info("Seeded plants", "count", len(plants))
	return nil
}
