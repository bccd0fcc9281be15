package services

import (
	"context"

	"github.com/nutritracker/client/internal/models"
)

// mockAccountRepository is a mock implementation of AccountRepository
type mockAccountRepository struct {
	session *models.Session
	err     error
	calls   int
	lastArg [2]string
}

func (m *mockAccountRepository) Register(ctx context.Context, username, password string) error {
	m.calls++
	m.lastArg = [2]string{username, password}
	return m.err
}

func (m *mockAccountRepository) Login(ctx context.Context, username, password string) (*models.Session, error) {
	m.calls++
	m.lastArg = [2]string{username, password}
	if m.err != nil {
		return nil, m.err
	}
	return m.session, nil
}

// mockCalendarRepository is a mock implementation of CalendarRepository
type mockCalendarRepository struct {
	recorded map[string]bool
	err      error
	from, to string
}

func (m *mockCalendarRepository) RecordedDates(ctx context.Context, session *models.Session, from, to string) (map[string]bool, error) {
	m.from, m.to = from, to
	if m.err != nil {
		return nil, m.err
	}
	return m.recorded, nil
}

// mockTrackerRepository is a mock implementation of EntryRepository, MealRepository and TargetRepository
type mockTrackerRepository struct {
	targets   models.DailyTargets
	entry     *models.Macros
	meals     []models.Meal
	err       error
	entryErr  error
	saved     []models.Macros
	created   []models.Meal
	updated   []models.Meal
	deleted   []int
	nextID    int
	mealCalls int
}

func (m *mockTrackerRepository) SaveEntry(ctx context.Context, session *models.Session, date string, macros models.Macros) error {
	if m.err != nil {
		return m.err
	}
	m.saved = append(m.saved, macros)
	return nil
}

func (m *mockTrackerRepository) GetEntry(ctx context.Context, session *models.Session, date string) (*models.Macros, error) {
	if m.entryErr != nil {
		return nil, m.entryErr
	}
	return m.entry, nil
}

func (m *mockTrackerRepository) ListMeals(ctx context.Context, session *models.Session, date string) ([]models.Meal, error) {
	m.mealCalls++
	if m.err != nil {
		return nil, m.err
	}
	return m.meals, nil
}

func (m *mockTrackerRepository) CreateMeal(ctx context.Context, session *models.Session, meal models.Meal) (*models.Meal, error) {
	m.mealCalls++
	if m.err != nil {
		return nil, m.err
	}
	m.nextID++
	meal.ID = m.nextID
	m.created = append(m.created, meal)
	return &meal, nil
}

func (m *mockTrackerRepository) UpdateMeal(ctx context.Context, session *models.Session, meal models.Meal) (*models.Meal, error) {
	m.mealCalls++
	if m.err != nil {
		return nil, m.err
	}
	m.updated = append(m.updated, meal)
	return &meal, nil
}

func (m *mockTrackerRepository) DeleteMeal(ctx context.Context, session *models.Session, mealID int) error {
	m.mealCalls++
	if m.err != nil {
		return m.err
	}
	m.deleted = append(m.deleted, mealID)
	return nil
}

func (m *mockTrackerRepository) GetTargets(ctx context.Context, session *models.Session) (models.DailyTargets, error) {
	return m.targets, nil
}

// mockAdminRepository is a mock implementation of AdminRepository
type mockAdminRepository struct {
	users   []models.UserListItem
	err     error
	calls   int
	deleted []int
	updates map[int]*models.UpdateUserRequest
}

func (m *mockAdminRepository) ListUsers(ctx context.Context, admin *models.Session) ([]models.UserListItem, error) {
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	return m.users, nil
}

func (m *mockAdminRepository) DeleteUser(ctx context.Context, admin *models.Session, userID int) error {
	m.calls++
	if m.err != nil {
		return m.err
	}
	m.deleted = append(m.deleted, userID)
	return nil
}

func (m *mockAdminRepository) UpdateUser(ctx context.Context, admin *models.Session, userID int, req *models.UpdateUserRequest) error {
	m.calls++
	if m.err != nil {
		return m.err
	}
	if m.updates == nil {
		m.updates = map[int]*models.UpdateUserRequest{}
	}
	m.updates[userID] = req
	return nil
}

// form builds a FormValue from a map
func form(values map[string]string) FormValue {
	return func(field string) string {
		return values[field]
	}
}
