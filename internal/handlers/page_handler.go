package handlers

import (
	"context"
	"errors"
	"html/template"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"
	"github.com/nutritracker/client/internal/middlewares"
	"github.com/nutritracker/client/internal/models"
	"github.com/nutritracker/client/internal/services"
	"github.com/nutritracker/client/internal/views"
	"go.uber.org/zap"
)

// Controller is the interface that wraps the client actions behind the page
type Controller interface {
	// Method View returns a consistent snapshot of the client state.
	View() models.View
	// Method IsAdmin reports whether the bound session is an administrator.
	IsAdmin() bool
	// Method Register creates a user. The outcome is reported through the status message.
	Register(ctx context.Context, username, password string) error
	// Method Login binds a session and loads the calendar, summary and (for admins) user list.
	Login(ctx context.Context, username, password string) error
	// Method Logout clears the session. It is idempotent.
	Logout()
	// Method SelectDate moves the date cursor and reloads the calendar and summary.
	//
	// A call overtaken by a newer one returns models.ErrSuperseded and publishes nothing.
	SelectDate(ctx context.Context, date string) error
	// Method Deposit stores the aggregate entry for the selected date.
	Deposit(ctx context.Context, form services.FormValue) error
	// Method AddMeal records a meal on the selected date.
	AddMeal(ctx context.Context, form services.FormValue) error
	// Method EditMeal replaces a meal.
	EditMeal(ctx context.Context, mealID int, form services.FormValue) error
	// Method DeleteMeal removes a meal.
	DeleteMeal(ctx context.Context, mealID int) error
	// Method ModifyUser applies an admin modification to a user.
	ModifyUser(ctx context.Context, userID int, form services.FormValue) error
	// Method DeleteUser deletes a user.
	DeleteUser(ctx context.Context, userID int) error
	// Method ReportError shows err in the status message.
	ReportError(err error) error
}

// Renderer is the interface that wraps HTML rendering of views
type Renderer interface {
	Page(w io.Writer, data views.PageData) error
	Fragment(w io.Writer, name string, data views.PageData) error
}

// PageHandler serves the HTML front end
type PageHandler struct {
	BaseHandler
	controller Controller
	renderer   Renderer
	csrfField  func(r *http.Request) template.HTML
	authLimit  int
}

// NewPageHandler creates a new page handler
//
// csrfField may be nil when CSRF protection is off. authLimit is the number of register and login
// attempts allowed per IP and minute; 0 disables the limit.
func NewPageHandler(controller Controller, renderer Renderer, csrfField func(r *http.Request) template.HTML, authLimit int, logger *zap.Logger) *PageHandler {
	return &PageHandler{
		BaseHandler: BaseHandler{logger: logger},
		controller:  controller,
		renderer:    renderer,
		csrfField:   csrfField,
		authLimit:   authLimit,
	}
}

// RegisterRoutes registers all page routes
func (h *PageHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.Index)
	r.Get("/fragments/{name}", h.Fragment)

	r.Group(func(r chi.Router) {
		if h.authLimit > 0 {
			r.Use(httprate.LimitByIP(h.authLimit, time.Minute))
		}
		r.Post("/register", h.Register)
		r.Post("/login", h.Login)
	})
	r.Post("/logout", h.Logout)
	r.Post("/select", h.SelectDate)
	r.Post("/deposit", h.Deposit)
	r.Route("/meals", func(r chi.Router) {
		r.Post("/", h.AddMeal)
		r.Post("/{id}/edit", h.EditMeal)
		r.Post("/{id}/delete", h.DeleteMeal)
	})
	r.Route("/admin/users", func(r chi.Router) {
		r.Use(middlewares.AdminOnly(h.controller.IsAdmin))
		r.Post("/{id}/edit", h.ModifyUser)
		r.Post("/{id}/delete", h.DeleteUser)
	})
}

func (h *PageHandler) pageData(r *http.Request) views.PageData {
	data := views.PageData{View: h.controller.View()}
	if h.csrfField != nil {
		data.CSRFField = h.csrfField(r)
	}
	return data
}

// Index handles GET /
func (h *PageHandler) Index(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	if err := h.renderer.Page(w, h.pageData(r)); err != nil {
		h.logger.Error("failed to render page", zap.Error(err))
		http.Error(w, "internal server error", http.StatusInternalServerError)
	}
}

// Fragment handles GET /fragments/{name}
func (h *PageHandler) Fragment(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	switch name {
	case views.FragmentCalendar, views.FragmentSummary, views.FragmentAdmin:
	default:
		http.NotFound(w, r)
		return
	}
	if name == views.FragmentAdmin && !h.controller.IsAdmin() {
		http.Error(w, "Admin access required.", http.StatusForbidden)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	if err := h.renderer.Fragment(w, name, h.pageData(r)); err != nil {
		h.logger.Error("failed to render fragment", zap.String("fragment", name), zap.Error(err))
		http.Error(w, "internal server error", http.StatusInternalServerError)
	}
}

// finish logs a failed action and sends the browser back to the page, which shows the status message
func (h *PageHandler) finish(w http.ResponseWriter, r *http.Request, action string, err error) {
	if err != nil && !errors.Is(err, models.ErrSuperseded) {
		h.logger.Info("action failed",
			zap.String("action", action),
			zap.String("request_id", middlewares.GetRequestID(r.Context())),
			zap.Error(err),
		)
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// parseForm reads the posted form; it reports false after answering the request itself
func (h *PageHandler) parseForm(w http.ResponseWriter, r *http.Request) bool {
	if err := r.ParseForm(); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			http.Error(w, "request body too large", http.StatusRequestEntityTooLarge)
			return false
		}
		http.Error(w, "invalid form", http.StatusBadRequest)
		return false
	}
	return true
}

// pathID parses the {id} URL parameter
func pathID(r *http.Request) (int, error) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.Atoi(raw)
	if err != nil || id <= 0 {
		return 0, &models.ValidationError{Message: "Invalid id: " + strconv.Quote(raw) + "."}
	}
	return id, nil
}

// Register handles POST /register
func (h *PageHandler) Register(w http.ResponseWriter, r *http.Request) {
	if !h.parseForm(w, r) {
		return
	}
	err := h.controller.Register(r.Context(), r.PostForm.Get("username"), r.PostForm.Get("password"))
	h.finish(w, r, "register", err)
}

// Login handles POST /login
func (h *PageHandler) Login(w http.ResponseWriter, r *http.Request) {
	if !h.parseForm(w, r) {
		return
	}
	err := h.controller.Login(r.Context(), r.PostForm.Get("username"), r.PostForm.Get("password"))
	h.finish(w, r, "login", err)
}

// Logout handles POST /logout
func (h *PageHandler) Logout(w http.ResponseWriter, r *http.Request) {
	h.controller.Logout()
	h.finish(w, r, "logout", nil)
}

// SelectDate handles POST /select
func (h *PageHandler) SelectDate(w http.ResponseWriter, r *http.Request) {
	if !h.parseForm(w, r) {
		return
	}
	err := h.controller.SelectDate(r.Context(), r.PostForm.Get("date"))
	h.finish(w, r, "select date", err)
}

// Deposit handles POST /deposit
func (h *PageHandler) Deposit(w http.ResponseWriter, r *http.Request) {
	if !h.parseForm(w, r) {
		return
	}
	err := h.controller.Deposit(r.Context(), r.PostForm.Get)
	h.finish(w, r, "deposit", err)
}

// AddMeal handles POST /meals
func (h *PageHandler) AddMeal(w http.ResponseWriter, r *http.Request) {
	if !h.parseForm(w, r) {
		return
	}
	err := h.controller.AddMeal(r.Context(), r.PostForm.Get)
	h.finish(w, r, "add meal", err)
}

// EditMeal handles POST /meals/{id}/edit
func (h *PageHandler) EditMeal(w http.ResponseWriter, r *http.Request) {
	if !h.parseForm(w, r) {
		return
	}
	mealID, err := pathID(r)
	if err != nil {
		h.finish(w, r, "edit meal", h.controller.ReportError(err))
		return
	}
	err = h.controller.EditMeal(r.Context(), mealID, r.PostForm.Get)
	h.finish(w, r, "edit meal", err)
}

// DeleteMeal handles POST /meals/{id}/delete
func (h *PageHandler) DeleteMeal(w http.ResponseWriter, r *http.Request) {
	mealID, err := pathID(r)
	if err != nil {
		h.finish(w, r, "delete meal", h.controller.ReportError(err))
		return
	}
	err = h.controller.DeleteMeal(r.Context(), mealID)
	h.finish(w, r, "delete meal", err)
}

// ModifyUser handles POST /admin/users/{id}/edit
func (h *PageHandler) ModifyUser(w http.ResponseWriter, r *http.Request) {
	if !h.parseForm(w, r) {
		return
	}
	userID, err := pathID(r)
	if err != nil {
		h.finish(w, r, "modify user", h.controller.ReportError(err))
		return
	}
	err = h.controller.ModifyUser(r.Context(), userID, r.PostForm.Get)
	h.finish(w, r, "modify user", err)
}

// DeleteUser handles POST /admin/users/{id}/delete
func (h *PageHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	userID, err := pathID(r)
	if err != nil {
		h.finish(w, r, "delete user", h.controller.ReportError(err))
		return
	}
	err = h.controller.DeleteUser(r.Context(), userID)
	h.finish(w, r, "delete user", err)
}
