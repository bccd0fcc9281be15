package repositories

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/nutritracker/client/internal/models"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// KeyValueStore is the interface that wraps the string storage used by the local repository
type KeyValueStore interface {
	// Method Get returns the value stored under key.
	//
	// The boolean result is false when nothing is stored under key; that is not an error.
	Get(ctx context.Context, key string) (string, bool, error)
	// Method Set replaces the value stored under key.
	Set(ctx context.Context, key, value string) error
}

// usersKey is the single storage key holding the whole users table
const usersKey = "users"

// localUser is one record of the serialized users table
type localUser struct {
	ID       int                      `json:"id"`
	Password string                   `json:"password"`
	IsAdmin  bool                     `json:"is_admin,omitempty"`
	Daily    models.DailyTargets      `json:"daily"`
	Entries  map[string]models.Macros `json:"entries"`
	Meals    map[string][]models.Meal `json:"meals,omitempty"`
}

type usersTable map[string]*localUser

// localRepository implements every persistence capability on top of one serialized users table
type localRepository struct {
	store    KeyValueStore
	defaults models.DailyTargets
	admins   map[string]bool
	hashCost int
	logger   *zap.Logger
	// mu serializes read-modify-write cycles of the whole table
	mu sync.Mutex
}

// NewLocalRepository creates a new local repository
//
// Users registered with a name listed in adminUsernames get the admin flag.
func NewLocalRepository(store KeyValueStore, defaults models.DailyTargets, adminUsernames []string, logger *zap.Logger) *localRepository {
	admins := make(map[string]bool, len(adminUsernames))
	for _, name := range adminUsernames {
		admins[name] = true
	}
	return &localRepository{
		store:    store,
		defaults: defaults,
		admins:   admins,
		hashCost: bcrypt.DefaultCost,
		logger:   logger,
	}
}

// load reads and decodes the users table; a missing table is empty
func (r *localRepository) load(ctx context.Context) (usersTable, error) {
	raw, ok, err := r.store.Get(ctx, usersKey)
	if err != nil {
		return nil, fmt.Errorf("failed to read users table: %w", err)
	}
	table := usersTable{}
	if !ok || strings.TrimSpace(raw) == "" {
		return table, nil
	}
	if err := json.Unmarshal([]byte(raw), &table); err != nil {
		return nil, fmt.Errorf("failed to decode users table: %w", err)
	}
	for _, user := range table {
		if user.Entries == nil {
			user.Entries = map[string]models.Macros{}
		}
	}
	return table, nil
}

// save encodes and writes back the whole users table
func (r *localRepository) save(ctx context.Context, table usersTable) error {
	data, err := json.Marshal(table)
	if err != nil {
		return fmt.Errorf("failed to encode users table: %w", err)
	}
	if err := r.store.Set(ctx, usersKey, string(data)); err != nil {
		r.logger.Error("failed to save users table", zap.Error(err))
		return fmt.Errorf("failed to save users table: %w", err)
	}
	return nil
}

// update runs fn against the loaded table and saves it when fn succeeds
func (r *localRepository) update(ctx context.Context, fn func(table usersTable) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	table, err := r.load(ctx)
	if err != nil {
		return err
	}
	if err := fn(table); err != nil {
		return err
	}
	return r.save(ctx, table)
}

// view runs fn against the loaded table without saving
func (r *localRepository) view(ctx context.Context, fn func(table usersTable) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	table, err := r.load(ctx)
	if err != nil {
		return err
	}
	return fn(table)
}

// userFor returns the record bound to the session
func userFor(table usersTable, session *models.Session) (*localUser, error) {
	user, ok := table[session.Username]
	if !ok || user.ID != session.UserID {
		return nil, fmt.Errorf("user %q: %w", session.Username, models.ErrNotFound)
	}
	return user, nil
}

// userByID returns the username and record with the given ID
func userByID(table usersTable, userID int) (string, *localUser, error) {
	for name, user := range table {
		if user.ID == userID {
			return name, user, nil
		}
	}
	return "", nil, fmt.Errorf("user %d: %w", userID, models.ErrNotFound)
}

func nextUserID(table usersTable) int {
	maxID := 0
	for _, user := range table {
		maxID = max(maxID, user.ID)
	}
	return maxID + 1
}

func nextMealID(table usersTable) int {
	maxID := 0
	for _, user := range table {
		for _, meals := range user.Meals {
			for _, meal := range meals {
				maxID = max(maxID, meal.ID)
			}
		}
	}
	return maxID + 1
}

// checkPassword compares a stored password with the supplied one
//
// Tables written by older clients hold plaintext passwords; those are compared in constant time.
func checkPassword(stored, password string) bool {
	if strings.HasPrefix(stored, "$2") {
		return bcrypt.CompareHashAndPassword([]byte(stored), []byte(password)) == nil
	}
	return subtle.ConstantTimeCompare([]byte(stored), []byte(password)) == 1
}

// Register creates a new user with default targets
func (r *localRepository) Register(ctx context.Context, username, password string) error {
	return r.update(ctx, func(table usersTable) error {
		if _, exists := table[username]; exists {
			return &models.DuplicateUserError{Username: username}
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(password), r.hashCost)
		if err != nil {
			return fmt.Errorf("failed to hash password: %w", err)
		}

		table[username] = &localUser{
			ID:       nextUserID(table),
			Password: string(hash),
			IsAdmin:  r.admins[username],
			Daily:    r.defaults,
			Entries:  map[string]models.Macros{},
		}
		return nil
	})
}

// Login verifies the credentials and returns the session to bind
func (r *localRepository) Login(ctx context.Context, username, password string) (*models.Session, error) {
	var session *models.Session
	err := r.view(ctx, func(table usersTable) error {
		user, ok := table[username]
		if !ok || !checkPassword(user.Password, password) {
			return &models.InvalidCredentialsError{Message: "Invalid credentials."}
		}
		session = &models.Session{
			UserID:   user.ID,
			Username: username,
			IsAdmin:  user.IsAdmin,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return session, nil
}

// GetTargets returns the daily targets of the session user
func (r *localRepository) GetTargets(ctx context.Context, session *models.Session) (models.DailyTargets, error) {
	var targets models.DailyTargets
	err := r.view(ctx, func(table usersTable) error {
		user, err := userFor(table, session)
		if err != nil {
			return err
		}
		targets = user.Daily
		return nil
	})
	return targets, err
}

// SaveEntry overwrites the entry of the session user for date
func (r *localRepository) SaveEntry(ctx context.Context, session *models.Session, date string, macros models.Macros) error {
	return r.update(ctx, func(table usersTable) error {
		user, err := userFor(table, session)
		if err != nil {
			return err
		}
		user.Entries[date] = macros
		return nil
	})
}

// GetEntry returns the entry of the session user for date, or nil when none was deposited
func (r *localRepository) GetEntry(ctx context.Context, session *models.Session, date string) (*models.Macros, error) {
	var entry *models.Macros
	err := r.view(ctx, func(table usersTable) error {
		user, err := userFor(table, session)
		if err != nil {
			return err
		}
		if macros, ok := user.Entries[date]; ok {
			entry = &macros
		}
		return nil
	})
	return entry, err
}

// ListMeals returns the meals of the session user for date
func (r *localRepository) ListMeals(ctx context.Context, session *models.Session, date string) ([]models.Meal, error) {
	meals := []models.Meal{}
	err := r.view(ctx, func(table usersTable) error {
		user, err := userFor(table, session)
		if err != nil {
			return err
		}
		meals = append(meals, user.Meals[date]...)
		return nil
	})
	return meals, err
}

// CreateMeal stores a new meal and assigns its ID
func (r *localRepository) CreateMeal(ctx context.Context, session *models.Session, meal models.Meal) (*models.Meal, error) {
	err := r.update(ctx, func(table usersTable) error {
		user, err := userFor(table, session)
		if err != nil {
			return err
		}
		if user.Meals == nil {
			user.Meals = map[string][]models.Meal{}
		}
		meal.ID = nextMealID(table)
		meal.UserID = user.ID
		user.Meals[meal.Date] = append(user.Meals[meal.Date], meal)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &meal, nil
}

// UpdateMeal replaces the name, weight and macros of an existing meal of the session user
func (r *localRepository) UpdateMeal(ctx context.Context, session *models.Session, meal models.Meal) (*models.Meal, error) {
	var updated models.Meal
	err := r.update(ctx, func(table usersTable) error {
		user, err := userFor(table, session)
		if err != nil {
			return err
		}
		for date, meals := range user.Meals {
			for i := range meals {
				if meals[i].ID != meal.ID {
					continue
				}
				meal.UserID = user.ID
				meal.Date = date
				meals[i] = meal
				updated = meal
				return nil
			}
		}
		return fmt.Errorf("meal %d: %w", meal.ID, models.ErrNotFound)
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

// DeleteMeal removes a meal of the session user
func (r *localRepository) DeleteMeal(ctx context.Context, session *models.Session, mealID int) error {
	return r.update(ctx, func(table usersTable) error {
		user, err := userFor(table, session)
		if err != nil {
			return err
		}
		for date, meals := range user.Meals {
			for i := range meals {
				if meals[i].ID != mealID {
					continue
				}
				remaining := append(meals[:i:i], meals[i+1:]...)
				if len(remaining) == 0 {
					delete(user.Meals, date)
				} else {
					user.Meals[date] = remaining
				}
				return nil
			}
		}
		return fmt.Errorf("meal %d: %w", mealID, models.ErrNotFound)
	})
}

// RecordedDates returns the dates between from and to (inclusive) with an entry or at least one meal
func (r *localRepository) RecordedDates(ctx context.Context, session *models.Session, from, to string) (map[string]bool, error) {
	recorded := map[string]bool{}
	err := r.view(ctx, func(table usersTable) error {
		user, err := userFor(table, session)
		if err != nil {
			return err
		}
		for date := range user.Entries {
			if date >= from && date <= to {
				recorded[date] = true
			}
		}
		for date, meals := range user.Meals {
			if len(meals) > 0 && date >= from && date <= to {
				recorded[date] = true
			}
		}
		return nil
	})
	return recorded, err
}

// requireAdmin checks the admin flag stored in the table, which is the authority in local mode
func requireAdmin(table usersTable, admin *models.Session) error {
	user, err := userFor(table, admin)
	if err != nil || !user.IsAdmin {
		return &models.ForbiddenError{}
	}
	return nil
}

// ListUsers returns all users ordered by ID
func (r *localRepository) ListUsers(ctx context.Context, admin *models.Session) ([]models.UserListItem, error) {
	var users []models.UserListItem
	err := r.view(ctx, func(table usersTable) error {
		if err := requireAdmin(table, admin); err != nil {
			return err
		}
		users = make([]models.UserListItem, 0, len(table))
		for name, user := range table {
			users = append(users, models.UserListItem{
				ID:       user.ID,
				Username: name,
				IsAdmin:  user.IsAdmin,
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(users, func(i, j int) bool { return users[i].ID < users[j].ID })
	return users, nil
}

// DeleteUser removes a user together with all entries and meals
func (r *localRepository) DeleteUser(ctx context.Context, admin *models.Session, userID int) error {
	return r.update(ctx, func(table usersTable) error {
		if err := requireAdmin(table, admin); err != nil {
			return err
		}
		name, _, err := userByID(table, userID)
		if err != nil {
			return err
		}
		delete(table, name)
		return nil
	})
}

// UpdateUser applies the non-nil fields of req to a user
func (r *localRepository) UpdateUser(ctx context.Context, admin *models.Session, userID int, req *models.UpdateUserRequest) error {
	return r.update(ctx, func(table usersTable) error {
		if err := requireAdmin(table, admin); err != nil {
			return err
		}
		name, user, err := userByID(table, userID)
		if err != nil {
			return err
		}

		if req.Password != nil {
			hash, err := bcrypt.GenerateFromPassword([]byte(*req.Password), r.hashCost)
			if err != nil {
				return fmt.Errorf("failed to hash password: %w", err)
			}
			user.Password = string(hash)
		}
		if req.IsAdmin != nil {
			user.IsAdmin = *req.IsAdmin
		}
		user.Daily = req.Daily.Apply(user.Daily)
		if req.Username != nil && *req.Username != name {
			if _, exists := table[*req.Username]; exists {
				return &models.DuplicateUserError{Username: *req.Username}
			}
			delete(table, name)
			table[*req.Username] = user
		}
		return nil
	})
}
