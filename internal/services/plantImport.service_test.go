package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"
	. "trellis/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockPlantRepository struct {
	existing        []*Plant
	getAllErr       error
	insertErr       error
	updateErr       func(plant *Plant) error
	insertManyCalls int
	inserted        []*Plant
	updated         []*Plant
}

func (m *mockPlantRepository) GetByID(ctx context.Context, id uuid.UUID) (*Plant, error) {
	return nil, errors.New("not implemented")
}

func (m *mockPlantRepository) GetAllByUser(ctx context.Context, userID uuid.UUID) ([]*Plant, error) {
	if m.getAllErr != nil {
		return nil, m.getAllErr
	}
	return m.existing, nil
}

func (m *mockPlantRepository) GetAllByGroup(ctx context.Context, groupID uuid.UUID) ([]*Plant, error) {
	return nil, errors.New("not implemented")
}

func (m *mockPlantRepository) Create(ctx context.Context, plant *Plant) (*Plant, error) {
	return nil, errors.New("not implemented")
}

func (m *mockPlantRepository) InsertMany(ctx context.Context, plants []*Plant) ([]*Plant, error) {
	m.insertManyCalls++
	if m.insertErr != nil {
		return nil, m.insertErr
	}
	for _, plant := range plants {
		plant.ID = uuid.Must(uuid.NewV7())
	}
	m.inserted = append(m.inserted, plants...)
	return plants, nil
}

func (m *mockPlantRepository) Update(ctx context.Context, plant *Plant) (*Plant, error) {
	if m.updateErr != nil {
		if err := m.updateErr(plant); err != nil {
			return nil, err
		}
	}
	m.updated = append(m.updated, plant)
	return plant, nil
}

func (m *mockPlantRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return errors.New("not implemented")
}

type mockTaskSeeder struct {
	seededPlantIDs []uuid.UUID
}

func (m *mockTaskSeeder) SeedDefaultTasks(
	ctx context.Context,
	plant *Plant,
	userID uuid.UUID,
) []uuid.UUID {
	m.seededPlantIDs = append(m.seededPlantIDs, plant.ID)
	return []uuid.UUID{uuid.Must(uuid.NewV7())}
}

func validRow(rowNum int, name, speciesType, location string) ParsedRow {
	return ParsedRow{
		Row: rowNum,
		Data: map[string]string{
			ColumnName:        name,
			ColumnSpeciesType: speciesType,
			ColumnLocation:    location,
		},
		IsValid: true,
	}
}

func invalidRow(rowNum int, field, message string) ParsedRow {
	return ParsedRow{
		Row:     rowNum,
		Data:    map[string]string{},
		IsValid: false,
		Errors:  []RowError{{Field: field, Message: message}},
	}
}

func parseResultOf(rows ...ParsedRow) *ParseResult {
	result := &ParseResult{
		Success:   true,
		Headers:   []string{ColumnName, ColumnSpeciesType, ColumnLocation},
		Rows:      rows,
		TotalRows: len(rows),
	}
	for _, row := range rows {
		if !row.IsValid {
			result.InvalidRows++
		}
	}
	return result
}

func testImportUser() *User {
	return &User{
		BaseUUIDModel: BaseUUIDModel{ID: uuid.Must(uuid.NewV7())},
		Email:         "importer@example.com",
	}
}

func TestReconcileInsertsAllNewPlantsInOneBatch(t *testing.T) {
	repo := &mockPlantRepository{}
	seeder := &mockTaskSeeder{}
	service := NewPlantImportService(repo, seeder)

	rows := make([]ParsedRow, 0, 20)
	for i := range 20 {
		rows = append(rows, validRow(i+1, fmt.Sprintf("Plant %d", i+1), "monstera", "living room"))
	}

	result := service.Reconcile(context.Background(), testImportUser(), parseResultOf(rows...))

	assert.True(t, result.Success)
	assert.Equal(t, 20, result.Stats.SuccessfulInserts)
	assert.Equal(t, 0, result.Stats.UpdatedPlants)
	assert.Equal(t, 0, result.Stats.DuplicatesSkipped)
	assert.Equal(t, 0, result.Stats.FailedRows)
	assert.Equal(t, 1, repo.insertManyCalls, "all inserts should go through a single batch")
	assert.Len(t, seeder.seededPlantIDs, 20, "every inserted plant gets default tasks")
	assert.Empty(t, result.ErrorCSV)
}

func TestReconcileUpdatesExistingPlants(t *testing.T) {
	user := testImportUser()
	existing := &Plant{
		BaseUUIDModel:   BaseUUIDModel{ID: uuid.Must(uuid.NewV7())},
		UserID:          user.ID,
		CreatedByUserID: user.ID,
		Name:            "Fernando",
		SpeciesType:     "fern",
		Location:        "bathroom",
		Notes:           "old notes",
	}
	repo := &mockPlantRepository{existing: []*Plant{existing}}
	service := NewPlantImportService(repo, &mockTaskSeeder{})

	row := validRow(1, "Fernando", "fern", "bathroom")
	row.Data[ColumnNotes] = "fresh notes"

	result := service.Reconcile(context.Background(), user, parseResultOf(row))

	assert.True(t, result.Success)
	assert.Equal(t, 0, result.Stats.SuccessfulInserts)
	assert.Equal(t, 1, result.Stats.UpdatedPlants)
	assert.Equal(t, 0, repo.insertManyCalls)
	require.Len(t, repo.updated, 1)
	assert.Equal(t, existing.ID, repo.updated[0].ID)
	assert.Equal(t, "fresh notes", repo.updated[0].Notes)
}

func TestReconcileDedupKeyIsCaseAndWhitespaceInsensitive(t *testing.T) {
	user := testImportUser()
	existing := &Plant{
		BaseUUIDModel:   BaseUUIDModel{ID: uuid.Must(uuid.NewV7())},
		UserID:          user.ID,
		CreatedByUserID: user.ID,
		Name:            "Fernando",
		SpeciesType:     "Fern",
		Location:        "Bathroom",
	}
	repo := &mockPlantRepository{existing: []*Plant{existing}}
	service := NewPlantImportService(repo, &mockTaskSeeder{})

	result := service.Reconcile(
		context.Background(),
		user,
		parseResultOf(validRow(1, "  FERNANDO ", "fern", "bathroom")),
	)

	assert.True(t, result.Success)
	assert.Equal(t, 1, result.Stats.UpdatedPlants)
	assert.Equal(t, 0, result.Stats.SuccessfulInserts)
}

func TestReconcileFirstOccurrenceWinsWithinFile(t *testing.T) {
	repo := &mockPlantRepository{}
	service := NewPlantImportService(repo, &mockTaskSeeder{})

	first := validRow(1, "Spike", "cactus", "office")
	first.Data[ColumnNotes] = "first"
	second := validRow(2, "Spike", "cactus", "office")
	second.Data[ColumnNotes] = "second"

	result := service.Reconcile(context.Background(), testImportUser(), parseResultOf(first, second))

	assert.True(t, result.Success)
	assert.Equal(t, 1, result.Stats.SuccessfulInserts)
	assert.Equal(t, 1, result.Stats.DuplicatesSkipped)
	require.Len(t, repo.inserted, 1)
	assert.Equal(t, "first", repo.inserted[0].Notes, "first occurrence claims the key")
}

func TestReconcileMixedBatchStats(t *testing.T) {
	user := testImportUser()
	repo := &mockPlantRepository{existing: []*Plant{
		{
			BaseUUIDModel: BaseUUIDModel{ID: uuid.Must(uuid.NewV7())},
			UserID:        user.ID, CreatedByUserID: user.ID,
			Name: "Fernando", SpeciesType: "fern", Location: "bathroom",
		},
		{
			BaseUUIDModel: BaseUUIDModel{ID: uuid.Must(uuid.NewV7())},
			UserID:        user.ID, CreatedByUserID: user.ID,
			Name: "Ivy", SpeciesType: "pothos", Location: "kitchen",
		},
	}}
	service := NewPlantImportService(repo, &mockTaskSeeder{})

	result := service.Reconcile(context.Background(), user, parseResultOf(
		validRow(1, "New One", "monstera", "hall"),
		validRow(2, "Fernando", "fern", "bathroom"),
		validRow(3, "New Two", "monstera", "hall"),
		validRow(4, "Ivy", "pothos", "kitchen"),
		validRow(5, "New Three", "monstera", "office"),
		validRow(6, "New One", "monstera", "hall"),
	))

	assert.True(t, result.Success)
	assert.Equal(t, 3, result.Stats.SuccessfulInserts)
	assert.Equal(t, 2, result.Stats.UpdatedPlants)
	assert.Equal(t, 1, result.Stats.DuplicatesSkipped)
	assert.Equal(t, 0, result.Stats.FailedRows)
	assert.Equal(t, 1, repo.insertManyCalls)
}

func TestReconcileAllInvalidRowsFails(t *testing.T) {
	repo := &mockPlantRepository{}
	service := NewPlantImportService(repo, &mockTaskSeeder{})

	result := service.Reconcile(context.Background(), testImportUser(), parseResultOf(
		invalidRow(1, ColumnName, "name is required"),
		invalidRow(2, ColumnLocation, "location is required"),
	))

	assert.False(t, result.Success)
	assert.Equal(t, 2, result.Stats.FailedRows)
	assert.Equal(t, 0, repo.insertManyCalls)
	assert.NotEmpty(t, result.ErrorCSV)
	assert.Contains(t, result.ErrorCSV, "name is required")
}

func TestReconcilePartialSuccessWithInvalidRows(t *testing.T) {
	repo := &mockPlantRepository{}
	service := NewPlantImportService(repo, &mockTaskSeeder{})

	result := service.Reconcile(context.Background(), testImportUser(), parseResultOf(
		validRow(1, "Spike", "cactus", "office"),
		invalidRow(2, ColumnName, "name is required"),
	))

	assert.True(t, result.Success, "a batch with at least one applied row succeeds")
	assert.Equal(t, 1, result.Stats.SuccessfulInserts)
	assert.Equal(t, 1, result.Stats.FailedRows)
	assert.NotEmpty(t, result.ErrorCSV)
}

func TestReconcileUpdatePreservesProvenance(t *testing.T) {
	owner := testImportUser()
	acquired := time.Date(2023, 4, 1, 0, 0, 0, 0, time.UTC)
	existing := &Plant{
		BaseUUIDModel:   BaseUUIDModel{ID: uuid.Must(uuid.NewV7())},
		UserID:          owner.ID,
		CreatedByUserID: owner.ID,
		Name:            "Fernando",
		SpeciesType:     "fern",
		Location:        "bathroom",
		DateAcquired:    &acquired,
	}
	repo := &mockPlantRepository{existing: []*Plant{existing}}
	service := NewPlantImportService(repo, &mockTaskSeeder{})

	row := validRow(1, "Fernando", "fern", "bathroom")
	row.Data[ColumnDateAcquired] = "2026-01-15"

	result := service.Reconcile(context.Background(), owner, parseResultOf(row))

	require.True(t, result.Success)
	require.Len(t, repo.updated, 1)
	updated := repo.updated[0]
	assert.Equal(t, owner.ID, updated.UserID)
	assert.Equal(t, owner.ID, updated.CreatedByUserID)
	require.NotNil(t, updated.DateAcquired)
	assert.True(t, updated.DateAcquired.Equal(acquired),
		"import must not overwrite the original acquisition date")
	require.NotNil(t, updated.LastModifiedByUserID)
	assert.Equal(t, owner.ID, *updated.LastModifiedByUserID)
}

func TestReconcileBatchInsertFailure(t *testing.T) {
	repo := &mockPlantRepository{insertErr: errors.New("connection reset")}
	seeder := &mockTaskSeeder{}
	service := NewPlantImportService(repo, seeder)

	result := service.Reconcile(context.Background(), testImportUser(), parseResultOf(
		validRow(1, "Spike", "cactus", "office"),
		validRow(2, "Ivy", "pothos", "kitchen"),
	))

	assert.False(t, result.Success)
	assert.Equal(t, 0, result.Stats.SuccessfulInserts)
	assert.Empty(t, seeder.seededPlantIDs)
	require.Len(t, result.Errors, 1)
	assert.Equal(t, 0, result.Errors[0].Row, "batch failures are not attributed to a row")
}

func TestReconcileUpdateFailureIsIsolated(t *testing.T) {
	user := testImportUser()
	repo := &mockPlantRepository{
		existing: []*Plant{
			{
				BaseUUIDModel: BaseUUIDModel{ID: uuid.Must(uuid.NewV7())},
				UserID:        user.ID, CreatedByUserID: user.ID,
				Name: "Fernando", SpeciesType: "fern", Location: "bathroom",
			},
			{
				BaseUUIDModel: BaseUUIDModel{ID: uuid.Must(uuid.NewV7())},
				UserID:        user.ID, CreatedByUserID: user.ID,
				Name: "Ivy", SpeciesType: "pothos", Location: "kitchen",
			},
		},
		updateErr: func(plant *Plant) error {
			if plant.Name == "Fernando" {
				return errors.New("deadlock detected")
			}
			return nil
		},
	}
	service := NewPlantImportService(repo, &mockTaskSeeder{})

	result := service.Reconcile(context.Background(), user, parseResultOf(
		validRow(1, "Fernando", "fern", "bathroom"),
		validRow(2, "Ivy", "pothos", "kitchen"),
	))

	assert.True(t, result.Success, "one failed update does not sink the batch")
	assert.Equal(t, 1, result.Stats.UpdatedPlants)
	assert.Equal(t, 1, result.Stats.FailedRows)
	require.Len(t, result.Errors, 1)
	assert.Equal(t, 1, result.Errors[0].Row)
	assert.True(t, strings.Contains(result.ErrorCSV, "deadlock detected"))
}

func TestReconcileParsesPurchasePriceToCents(t *testing.T) {
	repo := &mockPlantRepository{}
	service := NewPlantImportService(repo, &mockTaskSeeder{})

	row := validRow(1, "Spike", "cactus", "office")
	row.Data[ColumnPurchasePrice] = "$24.99"

	result := service.Reconcile(context.Background(), testImportUser(), parseResultOf(row))

	require.True(t, result.Success)
	require.Len(t, repo.inserted, 1)
	require.NotNil(t, repo.inserted[0].PurchasePriceCents)
	assert.Equal(t, int64(2499), *repo.inserted[0].PurchasePriceCents)
}
