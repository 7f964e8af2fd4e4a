package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatDate(t *testing.T) {
	plus2 := time.FixedZone("UTC+2", 2*60*60)

	assert.Equal(t, "2024-03-01", FormatDate(time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, "2024-03-01", FormatDate(time.Date(2024, 3, 1, 2, 0, 0, 0, plus2)))
	assert.Equal(t, "2024-02-29T22:00:00Z", FormatDate(time.Date(2024, 3, 1, 0, 0, 0, 0, plus2)))
	assert.Equal(t, "2024-03-01T10:30:00Z", FormatDate(time.Date(2024, 3, 1, 10, 30, 0, 0, time.UTC)))
}

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2024-03-01")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), d)

	d, err = ParseDate("2024-03-01T00:00:00+02:00")
	require.NoError(t, err)
	assert.Equal(t, "2024-02-29T22:00:00Z", FormatDate(d))

	_, err = ParseDate("01/03/2024")
	assert.ErrorIs(t, err, ErrInvalidDate)
}
