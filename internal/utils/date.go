package utils

import (
	"fmt"
	"strings"
	"time"
)

// Date formats accepted in CSV imports, tried in order.
var csvDateFormats = []string{
	"2006-01-02",
	time.RFC3339,
	"2006-01-02 15:04:05",
	"01/02/2006",
}

// ParseCSVDate parses a date value from an imported CSV cell. Empty cells are
// not an error; they return nil.
func ParseCSVDate(value string) (*time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, nil
	}

	for _, format := range csvDateFormats {
		if parsed, err := time.Parse(format, value); err == nil {
			return &parsed, nil
		}
	}

	return nil, fmt.Errorf("unrecognized date format: %q", value)
}
