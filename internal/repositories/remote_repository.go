package repositories

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/nutritracker/client/internal/models"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// DefaultBaseURL is the address of the nutrition backend when none is configured
const DefaultBaseURL = "http://localhost:5000"

// remoteRepository implements every persistence capability through the nutrition backend REST API
type remoteRepository struct {
	baseURL     string
	client      *http.Client
	targets     models.DailyTargets
	concurrency int
	logger      *zap.Logger
}

// NewRemoteRepository creates a new remote repository
//
// The backend exposes no endpoint for daily targets, so targets are used for every user.
// concurrency bounds the number of parallel requests issued while collecting calendar markers.
func NewRemoteRepository(baseURL string, client *http.Client, targets models.DailyTargets, concurrency int, logger *zap.Logger) *remoteRepository {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	if concurrency < 1 {
		concurrency = 1
	}
	return &remoteRepository{
		baseURL:     strings.TrimRight(baseURL, "/"),
		client:      client,
		targets:     targets,
		concurrency: concurrency,
		logger:      logger,
	}
}

// statusPayload is the part of every backend reply that signals failure
type statusPayload struct {
	Success *bool  `json:"success"`
	Message string `json:"message"`
}

// mealPayload is the body sent for meal creation and edits
type mealPayload struct {
	UserID   int     `json:"user_id,omitempty"`
	Date     string  `json:"date,omitempty"`
	Name     string  `json:"name"`
	Grams    float64 `json:"grams"`
	Calories float64 `json:"calories"`
	Protein  float64 `json:"protein"`
	Carbs    float64 `json:"carbs"`
	Fat      float64 `json:"fat"`
}

// depositPayload is the body sent for entry deposits
type depositPayload struct {
	UserID   int     `json:"user_id"`
	Date     string  `json:"date"`
	Calories float64 `json:"calories"`
	Protein  float64 `json:"protein"`
	Carbs    float64 `json:"carbs"`
	Fat      float64 `json:"fat"`
}

// do sends one request and returns the raw reply body
//
// Transport failures become NetworkError. Non-2xx statuses and {"success": false} payloads become
// ServerError carrying the backend message verbatim. Nothing is retried.
func (r *remoteRepository) do(ctx context.Context, method, path string, query url.Values, body any) ([]byte, error) {
	op := method + " " + path

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to encode %s request: %w", op, err)
		}
		reader = bytes.NewReader(data)
	}

	endpoint := r.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create %s request: %w", op, err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		r.logger.Warn("backend request failed", zap.String("op", op), zap.Error(err))
		return nil, &models.NetworkError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &models.NetworkError{Op: op, Err: err}
	}

	var status statusPayload
	// Replies may be bare arrays; those carry no status
	_ = json.Unmarshal(raw, &status)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 || (status.Success != nil && !*status.Success) {
		r.logger.Debug("backend rejected request",
			zap.String("op", op),
			zap.Int("status", resp.StatusCode),
			zap.String("message", status.Message),
		)
		return nil, &models.ServerError{Status: resp.StatusCode, Message: status.Message}
	}

	return raw, nil
}

func decode(op string, raw []byte, out any) error {
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("failed to decode %s response: %w", op, err)
	}
	return nil
}

func userPath(prefix string, userID int, date string) string {
	return fmt.Sprintf("%s/%d/%s", prefix, userID, url.PathEscape(date))
}

func adminQuery(admin *models.Session) url.Values {
	return url.Values{"admin_id": []string{strconv.Itoa(admin.UserID)}}
}

// Register creates a new user on the backend; duplicate checks are the backend's
func (r *remoteRepository) Register(ctx context.Context, username, password string) error {
	_, err := r.do(ctx, http.MethodPost, "/register", nil, map[string]string{
		"username": username,
		"password": password,
	})
	return err
}

// Login verifies the credentials with the backend and returns the session to bind
func (r *remoteRepository) Login(ctx context.Context, username, password string) (*models.Session, error) {
	raw, err := r.do(ctx, http.MethodPost, "/login", nil, map[string]string{
		"username": username,
		"password": password,
	})
	var serverErr *models.ServerError
	if errors.As(err, &serverErr) {
		return nil, &models.InvalidCredentialsError{Message: serverErr.Message}
	}
	if err != nil {
		return nil, err
	}

	var reply struct {
		UserID  int  `json:"user_id"`
		IsAdmin bool `json:"is_admin"`
	}
	if err := decode("login", raw, &reply); err != nil {
		return nil, err
	}
	return &models.Session{
		UserID:   reply.UserID,
		Username: username,
		IsAdmin:  reply.IsAdmin,
	}, nil
}

// GetTargets returns the configured targets
func (r *remoteRepository) GetTargets(ctx context.Context, session *models.Session) (models.DailyTargets, error) {
	return r.targets, nil
}

// SaveEntry overwrites the aggregate entry of the session user for date
func (r *remoteRepository) SaveEntry(ctx context.Context, session *models.Session, date string, macros models.Macros) error {
	_, err := r.do(ctx, http.MethodPost, "/deposit", nil, depositPayload{
		UserID:   session.UserID,
		Date:     date,
		Calories: macros.Calories,
		Protein:  macros.Protein,
		Carbs:    macros.Carbs,
		Fat:      macros.Fat,
	})
	return err
}

// GetEntry returns the aggregate entry of the session user for date, or nil when none exists
//
// Backends without the entry endpoint answer 404, which is treated as "no entry".
func (r *remoteRepository) GetEntry(ctx context.Context, session *models.Session, date string) (*models.Macros, error) {
	raw, err := r.do(ctx, http.MethodGet, userPath("/entry", session.UserID, date), nil, nil)
	if models.IsNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var reply struct {
		Entry *models.Macros `json:"entry"`
	}
	if err := decode("entry", raw, &reply); err != nil {
		return nil, err
	}
	return reply.Entry, nil
}

// ListMeals returns the meals of the session user for date
func (r *remoteRepository) ListMeals(ctx context.Context, session *models.Session, date string) ([]models.Meal, error) {
	raw, err := r.do(ctx, http.MethodGet, userPath("/meals", session.UserID, date), nil, nil)
	if err != nil {
		return nil, err
	}

	var reply struct {
		Meals []models.Meal `json:"meals"`
	}
	if err := decode("meals", raw, &reply); err != nil {
		return nil, err
	}

	meals := make([]models.Meal, 0, len(reply.Meals))
	for _, meal := range reply.Meals {
		meal.UserID = session.UserID
		meal.Date = date
		meals = append(meals, meal)
	}
	return meals, nil
}

// CreateMeal stores a new meal; user and date are taken from the meal, which the caller fills from state
func (r *remoteRepository) CreateMeal(ctx context.Context, session *models.Session, meal models.Meal) (*models.Meal, error) {
	raw, err := r.do(ctx, http.MethodPost, "/meal", nil, mealPayload{
		UserID:   session.UserID,
		Date:     meal.Date,
		Name:     meal.Name,
		Grams:    meal.Grams,
		Calories: meal.Calories,
		Protein:  meal.Protein,
		Carbs:    meal.Carbs,
		Fat:      meal.Fat,
	})
	if err != nil {
		return nil, err
	}

	// Backends reply either {"meal_id": n} or the created meal
	var reply struct {
		MealID int `json:"meal_id"`
		ID     int `json:"id"`
	}
	if err := decode("meal", raw, &reply); err != nil {
		return nil, err
	}
	meal.ID = reply.MealID
	if meal.ID == 0 {
		meal.ID = reply.ID
	}
	meal.UserID = session.UserID
	return &meal, nil
}

// UpdateMeal replaces the name, weight and macros of a meal
func (r *remoteRepository) UpdateMeal(ctx context.Context, session *models.Session, meal models.Meal) (*models.Meal, error) {
	_, err := r.do(ctx, http.MethodPut, "/meal/"+strconv.Itoa(meal.ID), nil, mealPayload{
		Name:     meal.Name,
		Grams:    meal.Grams,
		Calories: meal.Calories,
		Protein:  meal.Protein,
		Carbs:    meal.Carbs,
		Fat:      meal.Fat,
	})
	if err != nil {
		return nil, err
	}
	meal.UserID = session.UserID
	return &meal, nil
}

// DeleteMeal removes a meal
func (r *remoteRepository) DeleteMeal(ctx context.Context, session *models.Session, mealID int) error {
	_, err := r.do(ctx, http.MethodDelete, "/meal/"+strconv.Itoa(mealID), nil, nil)
	return err
}

// RecordedDates returns the dates between from and to (inclusive) with an entry or at least one meal
//
// The backend has no range query, so every day is checked; at most r.concurrency days are in flight.
func (r *remoteRepository) RecordedDates(ctx context.Context, session *models.Session, from, to string) (map[string]bool, error) {
	start, err := time.Parse(models.DateLayout, from)
	if err != nil {
		return nil, fmt.Errorf("invalid range start %q: %w", from, err)
	}
	end, err := time.Parse(models.DateLayout, to)
	if err != nil {
		return nil, fmt.Errorf("invalid range end %q: %w", to, err)
	}

	var mu sync.Mutex
	recorded := map[string]bool{}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.concurrency)
	for day := start; !day.After(end); day = day.AddDate(0, 0, 1) {
		date := models.DateOf(day)
		g.Go(func() error {
			has, err := r.hasRecords(gctx, session, date)
			if err != nil {
				return err
			}
			if has {
				mu.Lock()
				recorded[date] = true
				mu.Unlock()
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return recorded, nil
}

func (r *remoteRepository) hasRecords(ctx context.Context, session *models.Session, date string) (bool, error) {
	meals, err := r.ListMeals(ctx, session, date)
	if err != nil {
		return false, err
	}
	if len(meals) > 0 {
		return true, nil
	}
	entry, err := r.GetEntry(ctx, session, date)
	if err != nil {
		return false, err
	}
	return entry != nil, nil
}

// ListUsers returns the backend user list; authorization is decided by the backend
func (r *remoteRepository) ListUsers(ctx context.Context, admin *models.Session) ([]models.UserListItem, error) {
	raw, err := r.do(ctx, http.MethodGet, "/admin/users", adminQuery(admin), nil)
	if err != nil {
		return nil, err
	}

	users := []models.UserListItem{}
	if trimmed := bytes.TrimSpace(raw); len(trimmed) > 0 && trimmed[0] == '[' {
		if err := decode("admin users", raw, &users); err != nil {
			return nil, err
		}
		return users, nil
	}

	var reply struct {
		Users []models.UserListItem `json:"users"`
	}
	if err := decode("admin users", raw, &reply); err != nil {
		return nil, err
	}
	if reply.Users != nil {
		users = reply.Users
	}
	return users, nil
}

// DeleteUser removes a user through the admin endpoint
func (r *remoteRepository) DeleteUser(ctx context.Context, admin *models.Session, userID int) error {
	_, err := r.do(ctx, http.MethodDelete, "/admin/user/"+strconv.Itoa(userID), adminQuery(admin), nil)
	return err
}

// UpdateUser sends the non-nil fields of req to the admin endpoint
func (r *remoteRepository) UpdateUser(ctx context.Context, admin *models.Session, userID int, req *models.UpdateUserRequest) error {
	_, err := r.do(ctx, http.MethodPut, "/admin/user/"+strconv.Itoa(userID), adminQuery(admin), req)
	return err
}
