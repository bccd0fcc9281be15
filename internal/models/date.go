package models

import (
	"fmt"
	"time"
)

// DateLayout is the ISO calendar date format used for entries, meals and the selected date
const DateLayout = "2006-01-02"

// FormatDay formats a calendar day as YYYY-MM-DD
func FormatDay(year int, month time.Month, day int) string {
	return fmt.Sprintf("%04d-%02d-%02d", year, int(month), day)
}

// DateOf formats the calendar date of t
func DateOf(t time.Time) string {
	return t.Format(DateLayout)
}

// DaysInMonth returns the number of days in the month (the last day of the month)
func DaysInMonth(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
