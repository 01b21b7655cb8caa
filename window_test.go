package goacm

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWindow(t *testing.T) {
	start := time.Date(2008, 1, 1, 0, 0, 0, 0, time.UTC)
	cutoff := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)

	w, err := NewWindow(start, cutoff)
	require.NoError(t, err)
	assert.True(t, w.Contains(start))
	assert.True(t, w.Contains(cutoff.AddDate(0, 0, -1)))
	assert.False(t, w.Contains(cutoff))
	assert.False(t, w.Contains(start.AddDate(0, 0, -1)))
	assert.Equal(t, "2008-01-01..2020-01-01", w.String())
}

func TestNewWindowRejectsInvertedRange(t *testing.T) {
	start := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name   string
		cutoff time.Time
	}{
		{"equal", start},
		{"before", start.AddDate(-1, 0, 0)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewWindow(start, tt.cutoff)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrConfiguration))
		})
	}
}

func TestWindowEqual(t *testing.T) {
	a := Window{
		Start:  time.Date(2008, 1, 1, 0, 0, 0, 0, time.UTC),
		Cutoff: time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	b := Window{
		Start:  a.Start.In(time.FixedZone("EET", 2*3600)),
		Cutoff: a.Cutoff,
	}

	assert.True(t, a.Equal(b))
	assert.False(t, a.Equal(Window{Start: a.Start, Cutoff: a.Cutoff.AddDate(0, 0, 1)}))
}
