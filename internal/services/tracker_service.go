package services

import (
	"context"
	"fmt"
	"time"

	"github.com/nutritracker/client/internal/models"
	"go.uber.org/zap"
)

// EntryRepository is the interface that wraps methods for daily entry access
type EntryRepository interface {
	// Method SaveEntry stores the aggregate macros of the session user for "date", replacing any previous entry.
	SaveEntry(ctx context.Context, session *models.Session, date string, macros models.Macros) error
	// Method GetEntry retrieves the aggregate macros of the session user for "date".
	//
	// If nothing was deposited for that date, "nil" will be returned together with "nil" error.
	GetEntry(ctx context.Context, session *models.Session, date string) (*models.Macros, error)
}

// MealRepository is the interface that wraps methods for meal access
type MealRepository interface {
	// Method ListMeals retrieves the meals of the session user for "date".
	ListMeals(ctx context.Context, session *models.Session, date string) ([]models.Meal, error)
	// Method CreateMeal stores a new meal of the session user on meal.Date and returns it with its assigned ID.
	CreateMeal(ctx context.Context, session *models.Session, meal models.Meal) (*models.Meal, error)
	// Method UpdateMeal replaces the name, weight and macros of the meal with meal.ID.
	//
	// If no such meal exists, an error matching models.IsNotFound will be returned.
	UpdateMeal(ctx context.Context, session *models.Session, meal models.Meal) (*models.Meal, error)
	// Method DeleteMeal removes the meal with "mealID".
	//
	// If no such meal exists, an error matching models.IsNotFound will be returned.
	DeleteMeal(ctx context.Context, session *models.Session, mealID int) error
}

// TargetRepository is the interface that wraps the daily targets lookup
type TargetRepository interface {
	// Method GetTargets retrieves the daily targets of the session user.
	GetTargets(ctx context.Context, session *models.Session) (models.DailyTargets, error)
}

type trackerService struct {
	entries EntryRepository
	meals   MealRepository
	targets TargetRepository
	now     func() time.Time
	logger  *zap.Logger
}

// NewTrackerService creates a new tracker service
func NewTrackerService(entries EntryRepository, meals MealRepository, targets TargetRepository, now func() time.Time, logger *zap.Logger) *trackerService {
	if now == nil {
		now = time.Now
	}
	return &trackerService{
		entries: entries,
		meals:   meals,
		targets: targets,
		now:     now,
		logger:  logger,
	}
}

func requireSession(session *models.Session) error {
	if session == nil {
		return models.ErrNotAuthenticated
	}
	return nil
}

// Deposit stores the aggregate entry for date
func (s *trackerService) Deposit(ctx context.Context, session *models.Session, date string, macros models.Macros) error {
	if err := requireSession(session); err != nil {
		return err
	}

	if err := s.entries.SaveEntry(ctx, session, date, macros); err != nil {
		s.logger.Error("failed to save entry", zap.Int("userID", session.UserID), zap.String("date", date), zap.Error(err))
		return fmt.Errorf("failed to save entry: %w", err)
	}
	return nil
}

// Meals retrieves the meals recorded for date
func (s *trackerService) Meals(ctx context.Context, session *models.Session, date string) ([]models.Meal, error) {
	if err := requireSession(session); err != nil {
		return nil, err
	}

	meals, err := s.meals.ListMeals(ctx, session, date)
	if err != nil {
		s.logger.Error("failed to list meals", zap.Int("userID", session.UserID), zap.String("date", date), zap.Error(err))
		return nil, fmt.Errorf("failed to get meals: %w", err)
	}
	return meals, nil
}

// Summary compares everything consumed on date against the user's daily targets
func (s *trackerService) Summary(ctx context.Context, session *models.Session, date string) (*models.Summary, error) {
	if err := requireSession(session); err != nil {
		return nil, err
	}

	targets, err := s.targets.GetTargets(ctx, session)
	if err != nil {
		s.logger.Error("failed to get targets", zap.Int("userID", session.UserID), zap.Error(err))
		return nil, fmt.Errorf("failed to get targets: %w", err)
	}

	entry, err := s.entries.GetEntry(ctx, session, date)
	if err != nil {
		s.logger.Error("failed to get entry", zap.Int("userID", session.UserID), zap.String("date", date), zap.Error(err))
		return nil, fmt.Errorf("failed to get entry: %w", err)
	}

	meals, err := s.Meals(ctx, session, date)
	if err != nil {
		return nil, err
	}

	return BuildSummary(date, targets, entry, meals), nil
}

// BuildSummary adds the entry and the meals up and computes the remaining amount of every macro
//
// entry may be nil when nothing was deposited for the date.
func BuildSummary(date string, targets models.DailyTargets, entry *models.Macros, meals []models.Meal) *models.Summary {
	summary := &models.Summary{
		Date:     date,
		Targets:  targets,
		HasEntry: entry != nil,
		Meals:    meals,
	}
	if summary.Meals == nil {
		summary.Meals = []models.Meal{}
	}
	if entry != nil {
		summary.Entry = *entry
	}
	summary.Consumed = summary.Entry.Add(models.SumMeals(meals))
	summary.Remaining = targets.Remaining(summary.Consumed)

	summary.Lines = []models.MacroLine{
		macroLine("Calories", "", summary.Consumed.Calories, targets.Calories),
		macroLine("Protein", "g", summary.Consumed.Protein, targets.Protein),
		macroLine("Carbs", "g", summary.Consumed.Carbs, targets.Carbs),
		macroLine("Fat", "g", summary.Consumed.Fat, targets.Fat),
	}
	return summary
}

func macroLine(name, unit string, actual, target float64) models.MacroLine {
	line := models.MacroLine{
		Name:      name,
		Unit:      unit,
		Actual:    actual,
		Target:    target,
		Remaining: target - actual,
		Severity:  models.SeveritySuccess,
	}
	if line.Remaining < 0 {
		line.Severity = models.SeverityError
	}
	return line
}

// AddMeal records a meal for the session user on date
//
// The user and date of meal are ignored; they always come from session and date.
func (s *trackerService) AddMeal(ctx context.Context, session *models.Session, date string, meal models.Meal) (*models.Meal, error) {
	if err := requireSession(session); err != nil {
		return nil, err
	}
	if date > models.DateOf(s.now()) {
		return nil, &models.ValidationError{Message: "Cannot add meals for future dates."}
	}

	meal.ID = 0
	meal.UserID = session.UserID
	meal.Date = date

	created, err := s.meals.CreateMeal(ctx, session, meal)
	if err != nil {
		s.logger.Error("failed to create meal", zap.Int("userID", session.UserID), zap.String("date", date), zap.Error(err))
		return nil, fmt.Errorf("failed to add meal: %w", err)
	}

	s.logger.Debug("meal added", zap.Int("userID", session.UserID), zap.Int("mealID", created.ID))
	return created, nil
}

// EditMeal replaces the name, weight and macros of a meal
func (s *trackerService) EditMeal(ctx context.Context, session *models.Session, mealID int, meal models.Meal) (*models.Meal, error) {
	if err := requireSession(session); err != nil {
		return nil, err
	}
	if mealID <= 0 {
		return nil, &models.ValidationError{Message: fmt.Sprintf("Invalid meal id: %d.", mealID)}
	}

	meal.ID = mealID
	meal.UserID = session.UserID
	updated, err := s.meals.UpdateMeal(ctx, session, meal)
	if err != nil {
		s.logger.Error("failed to update meal", zap.Int("userID", session.UserID), zap.Int("mealID", mealID), zap.Error(err))
		return nil, fmt.Errorf("failed to edit meal: %w", err)
	}
	return updated, nil
}

// DeleteMeal removes a meal
func (s *trackerService) DeleteMeal(ctx context.Context, session *models.Session, mealID int) error {
	if err := requireSession(session); err != nil {
		return err
	}
	if mealID <= 0 {
		return &models.ValidationError{Message: fmt.Sprintf("Invalid meal id: %d.", mealID)}
	}

	if err := s.meals.DeleteMeal(ctx, session, mealID); err != nil {
		s.logger.Error("failed to delete meal", zap.Int("userID", session.UserID), zap.Int("mealID", mealID), zap.Error(err))
		return fmt.Errorf("failed to delete meal: %w", err)
	}
	return nil
}
