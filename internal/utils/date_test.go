package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCSVDate(t *testing.T) {
	tests := []struct {
		name        string
		input       string
		want        *time.Time
		expectError bool
	}{
		{
			name:  "ISO date",
			input: "2025-03-14",
			want:  timePtr(time.Date(2025, 3, 14, 0, 0, 0, 0, time.UTC)),
		},
		{
			name:  "RFC3339",
			input: "2025-03-14T09:30:00Z",
			want:  timePtr(time.Date(2025, 3, 14, 9, 30, 0, 0, time.UTC)),
		},
		{
			name:  "US slash date",
			input: "03/14/2025",
			want:  timePtr(time.Date(2025, 3, 14, 0, 0, 0, 0, time.UTC)),
		},
		{
			name:  "empty cell is nil, not an error",
			input: "",
			want:  nil,
		},
		{
			name:  "whitespace-only cell is nil",
			input: "   ",
			want:  nil,
		},
		{
			name:        "garbage",
			input:       "next tuesday",
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseCSVDate(tt.input)
			if tt.expectError {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			if tt.want == nil {
				assert.Nil(t, got)
			} else {
				require.NotNil(t, got)
				assert.True(t, tt.want.Equal(*got))
			}
		})
	}
}

func TestCleanUTF8(t *testing.T) {
	clean, changed := CleanUTF8("Monstera Deliciosa")
	assert.Equal(t, "Monstera Deliciosa", clean)
	assert.False(t, changed)

	clean, changed = CleanUTF8("Fern\x00 Gully")
	assert.Equal(t, "Fern Gully", clean)
	assert.True(t, changed)

	clean, changed = CleanUTF8(string([]byte{0xff, 0xfe}) + "Pothos")
	assert.Equal(t, "Pothos", clean)
	assert.True(t, changed)
}

func timePtr(t time.Time) *time.Time {
	return &t
}
