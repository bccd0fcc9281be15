package app

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/nutritracker/client/internal/models"
	"github.com/nutritracker/client/internal/services"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// SessionService is the interface that wraps account operations
type SessionService interface {
	// Method Register validates the credentials and creates a user. It never logs in.
	Register(ctx context.Context, username, password string) error
	// Method Login validates the credentials and returns the session to bind.
	Login(ctx context.Context, username, password string) (*models.Session, error)
}

// CalendarService is the interface that wraps the month calendar
type CalendarService interface {
	// Method Month returns the calendar of the current month with "selected" and recorded dates marked.
	Month(ctx context.Context, session *models.Session, selected string) (*models.Calendar, error)
}

// TrackerService is the interface that wraps entry and meal operations
type TrackerService interface {
	Deposit(ctx context.Context, session *models.Session, date string, macros models.Macros) error
	Summary(ctx context.Context, session *models.Session, date string) (*models.Summary, error)
	AddMeal(ctx context.Context, session *models.Session, date string, meal models.Meal) (*models.Meal, error)
	EditMeal(ctx context.Context, session *models.Session, mealID int, meal models.Meal) (*models.Meal, error)
	DeleteMeal(ctx context.Context, session *models.Session, mealID int) error
}

// AdminService is the interface that wraps user administration
type AdminService interface {
	Users(ctx context.Context, session *models.Session) ([]models.UserListItem, error)
	DeleteUser(ctx context.Context, session *models.Session, userID int) error
	ModifyUser(ctx context.Context, session *models.Session, userID int, req *models.UpdateUserRequest) error
}

// Controller owns the client state and runs every user action against it
//
// Actions that write through the persistence layer are serialized. Refreshes are not: each one
// takes a new generation and cancels the previous refresh, and only the latest generation may
// publish its result. The selected date in State is the published one; cursor is the date the
// user asked for last and becomes the selected date together with its calendar and summary.
type Controller struct {
	sessions SessionService
	calendar CalendarService
	tracker  TrackerService
	admin    AdminService
	logger   *zap.Logger

	// actions serializes writes
	actions sync.Mutex

	mu         sync.RWMutex
	state      State
	cursor     string
	generation uint64
	cancel     context.CancelFunc
}

// NewController creates a new controller with the selected date set to today
func NewController(
	sessions SessionService,
	calendar CalendarService,
	tracker TrackerService,
	admin AdminService,
	now func() time.Time,
	logger *zap.Logger,
) *Controller {
	if now == nil {
		now = time.Now
	}
	today := models.DateOf(now())
	return &Controller{
		sessions: sessions,
		calendar: calendar,
		tracker:  tracker,
		admin:    admin,
		logger:   logger,
		cursor:   today,
		state: State{
			SelectedDate: today,
			Message:      models.StatusMessage{Severity: models.SeveritySuccess},
		},
	}
}

// View returns a snapshot of the current state
func (c *Controller) View() models.View {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state.view()
}

// IsAdmin reports whether the bound session carries the admin flag
func (c *Controller) IsAdmin() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state.Session != nil && c.state.Session.IsAdmin
}

func (c *Controller) session() *models.Session {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state.Session
}

func (c *Controller) setMessage(text string, severity models.Severity) {
	c.mu.Lock()
	c.state.Message = models.StatusMessage{Text: text, Severity: severity}
	c.mu.Unlock()
}

// ReportError turns err into the status message and returns it
func (c *Controller) ReportError(err error) error {
	if err == nil || errors.Is(err, models.ErrSuperseded) {
		return err
	}
	c.mu.Lock()
	c.state.Message = models.ErrorMessage(err)
	c.mu.Unlock()
	return err
}

// Register creates a user without logging in
func (c *Controller) Register(ctx context.Context, username, password string) error {
	c.actions.Lock()
	defer c.actions.Unlock()

	if err := c.sessions.Register(ctx, username, password); err != nil {
		return c.ReportError(err)
	}
	c.setMessage("Registered! Please login.", models.SeveritySuccess)
	return nil
}

// Login binds the session and refreshes the calendar, summary and admin user list
func (c *Controller) Login(ctx context.Context, username, password string) error {
	c.actions.Lock()
	session, err := c.sessions.Login(ctx, username, password)
	if err != nil {
		c.actions.Unlock()
		return c.ReportError(err)
	}

	c.mu.Lock()
	c.cancelRefreshLocked()
	c.state.clear()
	c.state.Session = session
	c.state.Message = models.StatusMessage{Severity: models.SeveritySuccess}
	c.cursor = c.state.SelectedDate
	c.mu.Unlock()
	c.actions.Unlock()

	c.logger.Info("user logged in", zap.Int("userID", session.UserID), zap.Bool("isAdmin", session.IsAdmin))
	return c.refreshAfterAction(ctx, session)
}

// Logout clears the session and everything shown for it; calling it again is a no-op
//
// It waits for a running write to finish so that write cannot report against a cleared session.
func (c *Controller) Logout() {
	c.actions.Lock()
	defer c.actions.Unlock()

	c.mu.Lock()
	defer c.mu.Unlock()

	c.cancelRefreshLocked()
	c.state.clear()
	c.state.Message = models.StatusMessage{Severity: models.SeveritySuccess}
	c.cursor = c.state.SelectedDate
}

// SelectDate moves the date cursor and re-renders the calendar and summary
//
// The date is not validated. Without a session the date is selected at once and
// models.ErrNotAuthenticated is reported.
func (c *Controller) SelectDate(ctx context.Context, date string) error {
	c.mu.Lock()
	c.cursor = date
	session := c.state.Session
	if session == nil {
		c.state.SelectedDate = date
		c.mu.Unlock()
		return c.ReportError(models.ErrNotAuthenticated)
	}
	c.mu.Unlock()
	return c.refresh(ctx, session)
}

// cancelRefreshLocked invalidates the in-flight refresh; c.mu must be held
func (c *Controller) cancelRefreshLocked() {
	c.generation++
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
}

// Refresh reloads the calendar, summary and (for admins) the user list and publishes them
//
// A refresh started later supersedes this one: its result is dropped and models.ErrSuperseded
// is returned.
func (c *Controller) Refresh(ctx context.Context) error {
	session := c.session()
	if session == nil {
		return c.ReportError(models.ErrNotAuthenticated)
	}
	return c.refresh(ctx, session)
}

// refresh loads the cursor date for session and publishes it
//
// The calendar and summary are published together with the selected date or not at all. When
// they fail the cursor returns to the published date. A failing user list is reported but does
// not hold back the calendar and summary; the previous list stays shown. A session that is no
// longer bound yields models.ErrSuperseded.
func (c *Controller) refresh(ctx context.Context, session *models.Session) error {
	c.mu.Lock()
	if c.state.Session != session {
		c.mu.Unlock()
		return models.ErrSuperseded
	}
	c.cancelRefreshLocked()
	generation := c.generation
	date := c.cursor
	ctx, cancel := context.WithCancel(ctx)
	c.cancel = cancel
	c.mu.Unlock()
	defer cancel()

	var (
		calendar *models.Calendar
		summary  *models.Summary
		users    []models.UserListItem
		admin    errgroup.Group
	)
	if session.IsAdmin {
		admin.Go(func() error {
			var err error
			users, err = c.admin.Users(ctx, session)
			return err
		})
	}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		calendar, err = c.calendar.Month(gctx, session, date)
		return err
	})
	g.Go(func() error {
		var err error
		summary, err = c.tracker.Summary(gctx, session, date)
		return err
	})
	err := g.Wait()
	usersErr := admin.Wait()

	c.mu.Lock()
	defer c.mu.Unlock()
	if generation != c.generation {
		c.logger.Debug("dropping superseded refresh", zap.String("date", date), zap.Uint64("generation", generation))
		return models.ErrSuperseded
	}
	c.cancel = nil
	if err != nil {
		c.cursor = c.state.SelectedDate
		c.state.Message = models.ErrorMessage(err)
		return err
	}
	c.state.SelectedDate = date
	c.state.Calendar = calendar
	c.state.Summary = summary
	if usersErr != nil {
		c.logger.Warn("failed to load users", zap.Error(usersErr))
		c.state.Message = models.ErrorMessage(usersErr)
		return usersErr
	}
	if session.IsAdmin {
		c.state.Users = users
	}
	return nil
}

// write runs fn with the bound session under the action lock, then sets the success message and refreshes
func (c *Controller) write(ctx context.Context, success string, fn func(session *models.Session) error) error {
	c.actions.Lock()
	session := c.session()
	if session == nil {
		c.actions.Unlock()
		return c.ReportError(models.ErrNotAuthenticated)
	}
	if err := fn(session); err != nil {
		c.actions.Unlock()
		return c.ReportError(err)
	}
	c.setMessage(success, models.SeveritySuccess)
	c.actions.Unlock()

	return c.refreshAfterAction(ctx, session)
}

// refreshAfterAction refreshes after a completed action for the session it ran with
//
// Being superseded by a newer refresh, a logout or another login is fine.
func (c *Controller) refreshAfterAction(ctx context.Context, session *models.Session) error {
	if err := c.refresh(ctx, session); err != nil && !errors.Is(err, models.ErrSuperseded) {
		return err
	}
	return nil
}

// selectedDate returns the date writes apply to
func (c *Controller) selectedDate() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.cursor
}

// Deposit stores the entry for the selected date from the calories, protein, carbs and fat fields
func (c *Controller) Deposit(ctx context.Context, form services.FormValue) error {
	return c.write(ctx, "Entry saved.", func(session *models.Session) error {
		macros, err := services.ParseMacros(form)
		if err != nil {
			return err
		}
		return c.tracker.Deposit(ctx, session, c.selectedDate(), macros)
	})
}

// AddMeal records a meal on the selected date
func (c *Controller) AddMeal(ctx context.Context, form services.FormValue) error {
	return c.write(ctx, "Meal added.", func(session *models.Session) error {
		meal, err := services.ParseMeal(form)
		if err != nil {
			return err
		}
		_, err = c.tracker.AddMeal(ctx, session, c.selectedDate(), meal)
		return err
	})
}

// EditMeal replaces a meal with the values of the form
func (c *Controller) EditMeal(ctx context.Context, mealID int, form services.FormValue) error {
	return c.write(ctx, "Meal updated.", func(session *models.Session) error {
		meal, err := services.ParseMeal(form)
		if err != nil {
			return err
		}
		_, err = c.tracker.EditMeal(ctx, session, mealID, meal)
		return err
	})
}

// DeleteMeal removes a meal
func (c *Controller) DeleteMeal(ctx context.Context, mealID int) error {
	return c.write(ctx, "Meal deleted.", func(session *models.Session) error {
		return c.tracker.DeleteMeal(ctx, session, mealID)
	})
}

// ModifyUser applies the admin form to a user
func (c *Controller) ModifyUser(ctx context.Context, userID int, form services.FormValue) error {
	return c.write(ctx, "User updated.", func(session *models.Session) error {
		req, err := services.ParseUserUpdate(form)
		if err != nil {
			return err
		}
		return c.admin.ModifyUser(ctx, session, userID, req)
	})
}

// DeleteUser deletes a user from the admin dashboard
func (c *Controller) DeleteUser(ctx context.Context, userID int) error {
	return c.write(ctx, "User deleted.", func(session *models.Session) error {
		return c.admin.DeleteUser(ctx, session, userID)
	})
}
