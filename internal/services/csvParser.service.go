package services

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"trellis/internal/utils"

	logger "github.com/Bparsons0904/goLogger"

	"github.com/shopspring/decimal"
)

// CSV header contract for plant imports. Headers are matched
// case-insensitively; unknown columns are ignored.
const (
	ColumnName           = "name"
	ColumnSpeciesType    = "species_type"
	ColumnSpeciesName    = "species_name"
	ColumnLocation       = "location"
	ColumnDateAcquired   = "date_acquired"
	ColumnPotSize        = "pot_size"
	ColumnPotType        = "pot_type"
	ColumnSoilType       = "soil_type"
	ColumnSunlight       = "sunlight"
	ColumnNotes          = "notes"
	ColumnPurchasePrice  = "purchase_price"
	ColumnLastWatered    = "last_watered"
	ColumnLastFertilized = "last_fertilized"
	ColumnLastMisted     = "last_misted"
	ColumnLastRepotted   = "last_repotted"
)

var requiredColumns = []string{ColumnName, ColumnSpeciesType, ColumnLocation}

var dateColumns = []string{
	ColumnDateAcquired,
	ColumnLastWatered,
	ColumnLastFertilized,
	ColumnLastMisted,
	ColumnLastRepotted,
}

// RowError describes a single field-level validation failure.
type RowError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ParsedRow is one CSV data row tagged valid or invalid. Data keys are the
// snake_case CSV headers.
type ParsedRow struct {
	Row     int               `json:"row"`
	Data    map[string]string `json:"data"`
	IsValid bool              `json:"isValid"`
	Errors  []RowError        `json:"errors,omitempty"`
}

// ParseResult is the outcome of parsing and validating a plant CSV file.
// A file-level failure (unreadable file, missing headers) sets Success false
// and leaves Rows empty.
type ParseResult struct {
	Success     bool        `json:"success"`
	Error       string      `json:"error,omitempty"`
	Rows        []ParsedRow `json:"rows"`
	Headers     []string    `json:"headers"`
	TotalRows   int         `json:"totalRows"`
	InvalidRows int         `json:"invalidRows"`
}

type CSVParserService struct {
	maxRows int
	log     logger.Logger
}

func NewCSVParserService(maxRows int) *CSVParserService {
	return &CSVParserService{
		maxRows: maxRows,
		log:     logger.New("csvParserService"),
	}
}

// ParsePlantCSV reads CSV bytes and yields rows tagged valid/invalid with
// field-level errors. Validation never aborts the file; only unreadable input
// or a broken header row does.
func (s *CSVParserService) ParsePlantCSV(data []byte) *ParseResult {
	log := s.log.Function("ParsePlantCSV")

	result := &ParseResult{}

	cleaned, wasCleaned := utils.CleanUTF8(string(data))
	if wasCleaned {
		log.Warn("CSV contained invalid UTF-8, cleaned before parsing")
	}

	reader := csv.NewReader(strings.NewReader(cleaned))
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		result.Error = "could not read CSV header: " + err.Error()
		return result
	}

	headers := make([]string, len(header))
	for i, h := range header {
		headers[i] = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
	}
	result.Headers = headers

	headerIndex := make(map[string]int, len(headers))
	for i, h := range headers {
		headerIndex[h] = i
	}

	for _, required := range requiredColumns {
		if _, ok := headerIndex[required]; !ok {
			result.Error = fmt.Sprintf("missing required column: %s", required)
			return result
		}
	}

	rowNum := 0
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		rowNum++

		if s.maxRows > 0 && rowNum > s.maxRows {
			result.Error = fmt.Sprintf("file exceeds maximum of %d rows", s.maxRows)
			return result
		}

		parsed := ParsedRow{Row: rowNum, Data: make(map[string]string, len(headers))}

		if err != nil {
			parsed.Errors = append(parsed.Errors, RowError{
				Field:   "row",
				Message: "malformed CSV row: " + err.Error(),
			})
			result.Rows = append(result.Rows, parsed)
			result.InvalidRows++
			continue
		}

		for i, h := range headers {
			if i < len(record) {
				parsed.Data[h] = strings.TrimSpace(record[i])
			}
		}

		parsed.Errors = validateRow(parsed.Data)
		parsed.IsValid = len(parsed.Errors) == 0
		if !parsed.IsValid {
			result.InvalidRows++
		}

		result.Rows = append(result.Rows, parsed)
	}

	result.TotalRows = rowNum
	result.Success = true

	log.Info("Parsed plant CSV",
		"totalRows", result.TotalRows,
		"invalidRows", result.InvalidRows,
	)
	return result
}

func validateRow(data map[string]string) []RowError {
	var errors []RowError

	for _, required := range requiredColumns {
		if data[required] == "" {
			errors = append(errors, RowError{
				Field:   required,
				Message: required + " is required",
			})
		}
	}

	for _, column := range dateColumns {
		if value := data[column]; value != "" {
			if _, err := utils.ParseCSVDate(value); err != nil {
				errors = append(errors, RowError{
					Field:   column,
					Message: "invalid date: " + value,
				})
			}
		}
	}

	if value := data[ColumnPurchasePrice]; value != "" {
		if _, err := decimal.NewFromString(strings.TrimPrefix(value, "$")); err != nil {
			errors = append(errors, RowError{
				Field:   ColumnPurchasePrice,
				Message: "invalid price: " + value,
			})
		}
	}

	return errors
}

// BuildErrorCSV renders failed rows back into a downloadable CSV, each row
// annotated with its error messages, so the user can fix and re-upload just
// the failures.
func BuildErrorCSV(headers []string, rows []ParsedRow, rowErrors map[int][]string) string {
	if len(rows) == 0 {
		return ""
	}

	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	_ = writer.Write(append(append([]string{}, headers...), "errors"))

	for _, row := range rows {
		record := make([]string, 0, len(headers)+1)
		for _, h := range headers {
			record = append(record, row.Data[h])
		}

		var messages []string
		for _, rowErr := range row.Errors {
			messages = append(messages, rowErr.Field+": "+rowErr.Message)
		}
		messages = append(messages, rowErrors[row.Row]...)

		record = append(record, strings.Join(messages, "; "))
		_ = writer.Write(record)
	}

	writer.Flush()
	return buf.String()
}
