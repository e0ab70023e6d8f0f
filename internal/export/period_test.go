package export

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePeriod(t *testing.T) {
	tests := []struct {
		year, month string
		want        Period
		ok          bool
	}{
		{"2025", "", Period{Year: 2025}, true},
		{"2025", "4", Period{Year: 2025, Month: 4}, true},
		{"2025", "04", Period{Year: 2025, Month: 4}, true},
		{"2025", "12", Period{Year: 2025, Month: 12}, true},
		{"2025", "13", Period{}, false},
		{"2025", "0", Period{}, false},
		{"2025", "-1", Period{}, false},
		{"2025", "+4", Period{}, false},
		{"2025", "april", Period{}, false},
		{"25", "", Period{}, false},
		{"20255", "", Period{}, false},
		{"abcd", "", Period{}, false},
		{"0000", "", Period{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.year+"/"+tt.month, func(t *testing.T) {
			got, err := ParsePeriod(tt.year, tt.month)
			if !tt.ok {
				assert.ErrorIs(t, err, ErrInvalidPeriod)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPeriodNaming(t *testing.T) {
	year := Period{Year: 2025}
	assert.Equal(t, "2025", year.SignupPrefix())
	assert.Equal(t, "constituents-2025.csv", year.FileName())
	assert.Equal(t, "constituents/2025/constituents-2025.csv", year.Key(""))

	month := Period{Year: 2025, Month: 4}
	assert.Equal(t, "2025-04", month.SignupPrefix())
	assert.Equal(t, "constituents-2025-04.csv", month.FileName())
	assert.Equal(t, "constituents/2025/04/constituents-2025-04.csv", month.Key(""))
	assert.Equal(t, "prod/constituents/2025/04/constituents-2025-04.csv", month.Key("/prod/"))
}

func TestPeriodClosed(t *testing.T) {
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	tests := []struct {
		p    Period
		want bool
	}{
		{Period{Year: 2025, Month: 5}, true},
		{Period{Year: 2025, Month: 6}, false},
		{Period{Year: 2025, Month: 7}, false},
		{Period{Year: 2024}, true},
		{Period{Year: 2025}, false},
		{Period{Year: 2026}, false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.p.Closed(now), tt.p.String())
	}

	assert.Equal(t, time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), Period{Year: 2025, Month: 12}.End(time.UTC))
	assert.True(t, Period{Year: 2025, Month: 5}.Closed(time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)))
}
