package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/nutritracker/client/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func fixedClock(year int, month time.Month, day int) func() time.Time {
	return func() time.Time {
		return time.Date(year, month, day, 12, 0, 0, 0, time.UTC)
	}
}

func TestBuildMonth(t *testing.T) {
	tests := []struct {
		name          string
		year          int
		month         time.Month
		expectedDays  int
		expectedTitle string
	}{
		{name: "30 day month", year: 2026, month: time.September, expectedDays: 30, expectedTitle: "September 2026"},
		{name: "31 day month", year: 2026, month: time.October, expectedDays: 31, expectedTitle: "October 2026"},
		{name: "february", year: 2026, month: time.February, expectedDays: 28, expectedTitle: "February 2026"},
		{name: "leap february", year: 2028, month: time.February, expectedDays: 29, expectedTitle: "February 2028"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			selected := models.FormatDay(tt.year, tt.month, 15)

			calendar := BuildMonth(tt.year, tt.month, selected, nil)

			assert.Equal(t, tt.expectedTitle, calendar.Title)
			require.Len(t, calendar.Days, tt.expectedDays)
			selectedCount := 0
			for i, day := range calendar.Days {
				assert.Equal(t, i+1, day.Day)
				assert.Equal(t, models.FormatDay(tt.year, tt.month, i+1), day.Date)
				assert.False(t, day.HasEntry)
				if day.Selected {
					selectedCount++
					assert.Equal(t, 15, day.Day)
				}
			}
			assert.Equal(t, 1, selectedCount)
		})
	}
}

func TestBuildMonth_SelectedOutsideMonth(t *testing.T) {
	calendar := BuildMonth(2026, time.September, "2026-08-31", nil)

	for _, day := range calendar.Days {
		assert.False(t, day.Selected)
	}
}

func TestCalendarService_Month(t *testing.T) {
	repo := &mockCalendarRepository{recorded: map[string]bool{"2026-09-03": true, "2026-09-20": true}}
	svc := NewCalendarService(repo, fixedClock(2026, time.September, 16), zap.NewNop())

	calendar, err := svc.Month(context.Background(), &models.Session{UserID: 1}, "2026-09-03")
	require.NoError(t, err)

	assert.Equal(t, "2026-09-01", repo.from)
	assert.Equal(t, "2026-09-30", repo.to)
	require.Len(t, calendar.Days, 30)
	assert.True(t, calendar.Days[2].HasEntry)
	assert.True(t, calendar.Days[2].Selected)
	assert.True(t, calendar.Days[19].HasEntry)
	assert.False(t, calendar.Days[19].Selected)
	assert.False(t, calendar.Days[15].HasEntry)
}

func TestCalendarService_MonthErrors(t *testing.T) {
	t.Run("not authenticated", func(t *testing.T) {
		svc := NewCalendarService(&mockCalendarRepository{}, nil, zap.NewNop())

		calendar, err := svc.Month(context.Background(), nil, "2026-09-03")

		assert.Nil(t, calendar)
		assert.ErrorIs(t, err, models.ErrNotAuthenticated)
	})

	t.Run("repository error", func(t *testing.T) {
		repoErr := &models.NetworkError{Op: "GET /meals/1/2026-09-01", Err: errors.New("connection refused")}
		svc := NewCalendarService(&mockCalendarRepository{err: repoErr}, fixedClock(2026, time.September, 1), zap.NewNop())

		calendar, err := svc.Month(context.Background(), &models.Session{UserID: 1}, "2026-09-01")

		assert.Nil(t, calendar)
		var networkErr *models.NetworkError
		assert.ErrorAs(t, err, &networkErr)
	})
}
