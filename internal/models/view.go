package models

// Severity is the visual severity of a status message or a remaining macro value
type Severity string

// Severity constants
const (
	SeveritySuccess Severity = "success"
	SeverityError   Severity = "error"
)

// StatusMessage is the single user-visible status line
type StatusMessage struct {
	Text     string   `json:"text"`
	Severity Severity `json:"severity"`
}

// CalendarDay is one day cell of the month calendar
type CalendarDay struct {
	Day      int    `json:"day"`
	Date     string `json:"date"`
	Selected bool   `json:"selected"`
	HasEntry bool   `json:"has_entry"`
}

// Calendar is the month calendar around the selected date
type Calendar struct {
	Title string        `json:"title"`
	Days  []CalendarDay `json:"days"`
}

// MacroLine is one "actual / target (Left: remaining)" row of the summary
type MacroLine struct {
	Name      string   `json:"name"`
	Unit      string   `json:"unit"`
	Actual    float64  `json:"actual"`
	Target    float64  `json:"target"`
	Remaining float64  `json:"remaining"`
	Severity  Severity `json:"severity"`
}

// Summary is the aggregate of a user's records for one date compared against daily targets
type Summary struct {
	Date      string       `json:"date"`
	Targets   DailyTargets `json:"targets"`
	Entry     Macros       `json:"entry"`
	HasEntry  bool         `json:"has_entry"`
	Meals     []Meal       `json:"meals"`
	Consumed  Macros       `json:"consumed"`
	Remaining Macros       `json:"remaining"`
	Lines     []MacroLine  `json:"lines"`
}

// View is a consistent snapshot of everything the front end paints
type View struct {
	Authenticated bool           `json:"authenticated"`
	Username      string         `json:"username,omitempty"`
	IsAdmin       bool           `json:"is_admin"`
	SelectedDate  string         `json:"selected_date"`
	Message       StatusMessage  `json:"message"`
	Calendar      *Calendar      `json:"calendar,omitempty"`
	Summary       *Summary       `json:"summary,omitempty"`
	Users         []UserListItem `json:"users,omitempty"`
}
