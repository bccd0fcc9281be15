package services

import (
	"context"
	"fmt"
	"time"

	"github.com/nutritracker/client/internal/models"
	"go.uber.org/zap"
)

// CalendarRepository is the interface that wraps the record presence lookup used by the calendar
type CalendarRepository interface {
	// Method RecordedDates returns the dates between "from" and "to" (inclusive, YYYY-MM-DD)
	// on which the session user has an entry or at least one meal.
	//
	// Dates without records are absent from the map.
	RecordedDates(ctx context.Context, session *models.Session, from, to string) (map[string]bool, error)
}

type calendarService struct {
	repo   CalendarRepository
	now    func() time.Time
	logger *zap.Logger
}

// NewCalendarService creates a new calendar service
//
// now supplies the current time; the calendar always shows the month it falls in.
func NewCalendarService(repo CalendarRepository, now func() time.Time, logger *zap.Logger) *calendarService {
	if now == nil {
		now = time.Now
	}
	return &calendarService{
		repo:   repo,
		now:    now,
		logger: logger,
	}
}

// Month returns the calendar of the current month with the selected date and recorded dates marked
func (s *calendarService) Month(ctx context.Context, session *models.Session, selected string) (*models.Calendar, error) {
	if session == nil {
		return nil, models.ErrNotAuthenticated
	}

	today := s.now()
	year, month := today.Year(), today.Month()
	from := models.FormatDay(year, month, 1)
	to := models.FormatDay(year, month, models.DaysInMonth(year, month))

	recorded, err := s.repo.RecordedDates(ctx, session, from, to)
	if err != nil {
		s.logger.Error("failed to get recorded dates",
			zap.Int("userID", session.UserID),
			zap.String("from", from),
			zap.String("to", to),
			zap.Error(err),
		)
		return nil, fmt.Errorf("failed to build calendar: %w", err)
	}

	return BuildMonth(year, month, selected, recorded), nil
}

// BuildMonth lays out days 1..N of the month
func BuildMonth(year int, month time.Month, selected string, recorded map[string]bool) *models.Calendar {
	count := models.DaysInMonth(year, month)
	days := make([]models.CalendarDay, count)
	for i := range days {
		date := models.FormatDay(year, month, i+1)
		days[i] = models.CalendarDay{
			Day:      i + 1,
			Date:     date,
			Selected: date == selected,
			HasEntry: recorded[date],
		}
	}
	return &models.Calendar{
		Title: fmt.Sprintf("%s %d", month, year),
		Days:  days,
	}
}
