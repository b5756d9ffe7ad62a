package services

import (
	"context"
	"fmt"
	"strings"
	"time"
	. "trellis/internal/models"
	"trellis/internal/repositories"
	"trellis/internal/utils"

	logger "github.com/Bparsons0904/goLogger"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TaskSeeder creates the default recurring tasks for a newly imported plant.
type TaskSeeder interface {
	SeedDefaultTasks(ctx context.Context, plant *Plant, userID uuid.UUID) []uuid.UUID
}

// ImportError is a structured error attributed to a CSV row. Row 0 marks
// failures that cannot be attributed to a single row (batch insert).
type ImportError struct {
	Row     int    `json:"row"`
	Field   string `json:"field,omitempty"`
	Message string `json:"message"`
}

type ImportStats struct {
	TotalRows         int `json:"totalRows"`
	SuccessfulInserts int `json:"successfulInserts"`
	UpdatedPlants     int `json:"updatedPlants"`
	DuplicatesSkipped int `json:"duplicatesSkipped"`
	FailedRows        int `json:"failedRows"`
}

// ImportResult is always returned to the caller, never a raw error, so a
// partial success stays distinguishable from a total failure.
type ImportResult struct {
	Success        bool          `json:"success"`
	Stats          ImportStats   `json:"stats"`
	Errors         []ImportError `json:"errors,omitempty"`
	InsertedPlants []*Plant      `json:"insertedPlants,omitempty"`
	UpdatedPlants  []*Plant      `json:"updatedPlants,omitempty"`
	ErrorCSV       string        `json:"errorCSV,omitempty"`
}

// mappedRow is the typed result of mapping a CSV row's snake_case fields onto
// internal plant fields. Mapping either fully succeeds or the row is rejected.
type mappedRow struct {
	Name               string
	SpeciesType        string
	SpeciesName        string
	Location           string
	DateAcquired       *time.Time
	PotSize            string
	PotType            string
	SoilType           string
	Sunlight           string
	Notes              string
	PurchasePriceCents *int64
	LastWateredAt      *time.Time
	LastFertilizedAt   *time.Time
	LastMistedAt       *time.Time
	LastRepottedAt     *time.Time
}

// PlantImportService reconciles a parsed CSV batch against a user's existing
// plants, classifying each row as insert, update, or duplicate.
type PlantImportService struct {
	plantRepo  repositories.PlantRepository
	taskSeeder TaskSeeder
	log        logger.Logger
}

func NewPlantImportService(
	plantRepo repositories.PlantRepository,
	taskSeeder TaskSeeder,
) *PlantImportService {
	return &PlantImportService{
		plantRepo:  plantRepo,
		taskSeeder: taskSeeder,
		log:        logger.New("plantImportService"),
	}
}

// Reconcile applies a validated CSV batch for a user. Inserts are applied in
// one batched call; updates individually so one failure cannot poison the
// rest. All errors are accumulated into the result, never thrown.
func (s *PlantImportService) Reconcile(
	ctx context.Context,
	user *User,
	parse *ParseResult,
) *ImportResult {
	log := s.log.Function("Reconcile")

	result := &ImportResult{
		Stats: ImportStats{TotalRows: parse.TotalRows},
	}

	var validRows, invalidRows []ParsedRow
	for _, row := range parse.Rows {
		if row.IsValid {
			validRows = append(validRows, row)
		} else {
			invalidRows = append(invalidRows, row)
			for _, rowErr := range row.Errors {
				result.Errors = append(result.Errors, ImportError{
					Row:     row.Row,
					Field:   rowErr.Field,
					Message: rowErr.Message,
				})
			}
		}
	}

	if len(validRows) == 0 {
		result.Stats.FailedRows = len(invalidRows)
		result.ErrorCSV = BuildErrorCSV(parse.Headers, invalidRows, nil)
		log.Warn("No valid rows in import", "totalRows", parse.TotalRows)
		return result
	}

	existing, err := s.plantRepo.GetAllByUser(ctx, user.ID)
	if err != nil {
		result.Errors = append(result.Errors, ImportError{
			Row:     0,
			Message: "failed to load existing plants: " + err.Error(),
		})
		result.Stats.FailedRows = len(result.Errors)
		return result
	}

	existingByKey := make(map[string]*Plant, len(existing))
	for _, plant := range existing {
		existingByKey[plant.DedupKey()] = plant
	}

	type queuedUpdate struct {
		row   int
		plant *Plant
	}
	type queuedInsert struct {
		row   int
		plant *Plant
	}

	var inserts []queuedInsert
	var updates []queuedUpdate
	processingErrors := make(map[int][]string)

	// First occurrence of a key in the file claims it; later occurrences are
	// duplicates regardless of differing field values.
	seen := make(map[string]bool, len(validRows))

	for _, row := range validRows {
		key := PlantDedupKey(
			row.Data[ColumnName],
			row.Data[ColumnSpeciesType],
			row.Data[ColumnLocation],
		)

		if seen[key] {
			result.Stats.DuplicatesSkipped++
			continue
		}
		seen[key] = true

		mapped, err := mapImportRow(row.Data)
		if err != nil {
			message := fmt.Sprintf("failed to process row: %v", err)
			result.Errors = append(result.Errors, ImportError{Row: row.Row, Message: message})
			processingErrors[row.Row] = append(processingErrors[row.Row], message)
			continue
		}

		if existingPlant, ok := existingByKey[key]; ok {
			// Imports must not rewrite provenance: the existing record keeps
			// its DateAcquired, UserID, CreatedByUserID, and CreatedAt.
			updated := *existingPlant
			applyImportFields(&updated, mapped)
			updated.LastModifiedByUserID = &user.ID
			updates = append(updates, queuedUpdate{row: row.Row, plant: &updated})
			continue
		}

		plant := &Plant{
			UserID:          user.ID,
			CreatedByUserID: user.ID,
			AssignedUserID:  &user.ID,
			DateAcquired:    mapped.DateAcquired,
		}
		applyImportFields(plant, mapped)
		inserts = append(inserts, queuedInsert{row: row.Row, plant: plant})
	}

	if len(inserts) > 0 {
		toInsert := make([]*Plant, len(inserts))
		for i, queued := range inserts {
			toInsert[i] = queued.plant
		}

		inserted, err := s.plantRepo.InsertMany(ctx, toInsert)
		if err != nil {
			// A failed batch insert cannot be attributed to one row.
			result.Errors = append(result.Errors, ImportError{
				Row:     0,
				Message: "batch insert failed: " + err.Error(),
			})
		} else {
			result.InsertedPlants = inserted
			result.Stats.SuccessfulInserts = len(inserted)

			for _, plant := range inserted {
				s.taskSeeder.SeedDefaultTasks(ctx, plant, user.ID)
			}
		}
	}

	for _, queued := range updates {
		updated, err := s.plantRepo.Update(ctx, queued.plant)
		if err != nil {
			message := "failed to update plant: " + err.Error()
			result.Errors = append(result.Errors, ImportError{Row: queued.row, Message: message})
			processingErrors[queued.row] = append(processingErrors[queued.row], message)
			continue
		}
		result.UpdatedPlants = append(result.UpdatedPlants, updated)
		result.Stats.UpdatedPlants++
	}

	result.Stats.FailedRows = len(result.Errors)
	result.Success = len(result.Errors) == 0 ||
		result.Stats.SuccessfulInserts > 0 || result.Stats.UpdatedPlants > 0

	if len(result.Errors) > 0 {
		failedRows := append([]ParsedRow{}, invalidRows...)
		for _, row := range validRows {
			if _, ok := processingErrors[row.Row]; ok {
				failedRows = append(failedRows, row)
			}
		}
		result.ErrorCSV = BuildErrorCSV(parse.Headers, failedRows, processingErrors)
	}

	log.Info("Import reconciliation complete",
		"totalRows", result.Stats.TotalRows,
		"inserted", result.Stats.SuccessfulInserts,
		"updated", result.Stats.UpdatedPlants,
		"duplicates", result.Stats.DuplicatesSkipped,
		"failed", result.Stats.FailedRows,
	)
	return result
}

// mapImportRow maps the CSV's snake_case fields to internal field names. The
// mapping is a fixed table, not a generic case transform; several fields
// rename semantically (purchase_price becomes PurchasePriceCents).
func mapImportRow(data map[string]string) (*mappedRow, error) {
	mapped := &mappedRow{
		Name:        strings.TrimSpace(data[ColumnName]),
		SpeciesType: strings.TrimSpace(data[ColumnSpeciesType]),
		SpeciesName: strings.TrimSpace(data[ColumnSpeciesName]),
		Location:    strings.TrimSpace(data[ColumnLocation]),
		PotSize:     strings.TrimSpace(data[ColumnPotSize]),
		PotType:     strings.TrimSpace(data[ColumnPotType]),
		SoilType:    strings.TrimSpace(data[ColumnSoilType]),
		Sunlight:    strings.TrimSpace(data[ColumnSunlight]),
		Notes:       strings.TrimSpace(data[ColumnNotes]),
	}

	dates := []struct {
		column string
		target **time.Time
	}{
		{ColumnDateAcquired, &mapped.DateAcquired},
		{ColumnLastWatered, &mapped.LastWateredAt},
		{ColumnLastFertilized, &mapped.LastFertilizedAt},
		{ColumnLastMisted, &mapped.LastMistedAt},
		{ColumnLastRepotted, &mapped.LastRepottedAt},
	}
	for _, date := range dates {
		parsed, err := utils.ParseCSVDate(data[date.column])
		if err != nil {
			return nil, fmt.Errorf("%s: %w", date.column, err)
		}
		*date.target = parsed
	}

	if value := strings.TrimSpace(data[ColumnPurchasePrice]); value != "" {
		price, err := decimal.NewFromString(strings.TrimPrefix(value, "$"))
		if err != nil {
			return nil, fmt.Errorf("%s: %w", ColumnPurchasePrice, err)
		}
		cents := price.Mul(decimal.NewFromInt(100)).IntPart()
		mapped.PurchasePriceCents = &cents
	}

	return mapped, nil
}

// applyImportFields copies mapped CSV fields onto a plant. DateAcquired is
// deliberately excluded; the insert path sets it and the update path
// preserves the existing value.
func applyImportFields(plant *Plant, mapped *mappedRow) {
	plant.Name = mapped.Name
	plant.SpeciesType = mapped.SpeciesType
	plant.SpeciesName = mapped.SpeciesName
	plant.Location = mapped.Location
	plant.PotSize = mapped.PotSize
	plant.PotType = mapped.PotType
	plant.SoilType = mapped.SoilType
	plant.Sunlight = mapped.Sunlight
	plant.Notes = mapped.Notes
	plant.PurchasePriceCents = mapped.PurchasePriceCents
	plant.LastWateredAt = mapped.LastWateredAt
	plant.LastFertilizedAt = mapped.LastFertilizedAt
	plant.LastMistedAt = mapped.LastMistedAt
	plant.LastRepottedAt = mapped.LastRepottedAt
}
