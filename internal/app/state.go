package app

import (
	"github.com/nutritracker/client/internal/models"
)

// State is everything the client remembers between actions
//
// A zero Session means nobody is logged in. Calendar, Summary and Users are the last published
// results of a refresh and are nil until the first one completes.
type State struct {
	Session      *models.Session
	SelectedDate string
	Message      models.StatusMessage
	Calendar     *models.Calendar
	Summary      *models.Summary
	Users        []models.UserListItem
}

// view copies the state into a snapshot safe to hand to other goroutines
func (s *State) view() models.View {
	v := models.View{
		SelectedDate: s.SelectedDate,
		Message:      s.Message,
	}
	if s.Session == nil {
		return v
	}

	v.Authenticated = true
	v.Username = s.Session.Username
	v.IsAdmin = s.Session.IsAdmin
	if s.Calendar != nil {
		calendar := *s.Calendar
		calendar.Days = append([]models.CalendarDay(nil), s.Calendar.Days...)
		v.Calendar = &calendar
	}
	if s.Summary != nil {
		summary := *s.Summary
		summary.Meals = append([]models.Meal{}, s.Summary.Meals...)
		summary.Lines = append([]models.MacroLine(nil), s.Summary.Lines...)
		v.Summary = &summary
	}
	if s.Session.IsAdmin {
		v.Users = append([]models.UserListItem(nil), s.Users...)
	}
	return v
}

// clear drops the session and everything published for it
func (s *State) clear() {
	s.Session = nil
	s.Calendar = nil
	s.Summary = nil
	s.Users = nil
}
