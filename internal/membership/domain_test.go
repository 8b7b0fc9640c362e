package membership

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCalculateEndDate(t *testing.T) {
	start := time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		term string
		want time.Time
	}{
		{TermSixMonths, time.Date(2025, 7, 15, 0, 0, 0, 0, time.UTC)},
		{TermOneYear, time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC)},
		{TermTwoYears, time.Date(2027, 1, 15, 0, 0, 0, 0, time.UTC)},
	}

	for _, tt := range tests {
		t.Run(tt.term, func(t *testing.T) {
			end, err := CalculateEndDate(start, tt.term)
			require.NoError(t, err)
			assert.Equal(t, tt.want, end)
		})
	}

	t.Run("unknown term", func(t *testing.T) {
		_, err := CalculateEndDate(start, "3 weeks")
		assert.ErrorIs(t, err, ErrInvalidTerm)
	})
}

func TestFullName(t *testing.T) {
	m := &Membership{FirstName: "Asha", LastName: "Rao"}
	assert.Equal(t, "Asha Rao", m.FullName())
}
