package services

import (
	"math"
	"strconv"
	"strings"

	"github.com/nutritracker/client/internal/models"
)

// FormValue returns the raw value of a named form field, or "" when absent
type FormValue func(field string) string

// parseAmount parses a non-negative quantity; an empty field means 0
func parseAmount(get FormValue, field string) (float64, error) {
	raw := strings.TrimSpace(get(field))
	if raw == "" {
		return 0, nil
	}
	value, err := strconv.ParseFloat(raw, 64)
	if err != nil || value < 0 || math.IsNaN(value) || math.IsInf(value, 0) {
		return 0, &models.InvalidNumberError{Field: field, Value: raw}
	}
	return value, nil
}

// ParseMacros reads the calories, protein, carbs and fat fields
func ParseMacros(get FormValue) (models.Macros, error) {
	var (
		macros models.Macros
		err    error
	)
	if macros.Calories, err = parseAmount(get, "calories"); err != nil {
		return models.Macros{}, err
	}
	if macros.Protein, err = parseAmount(get, "protein"); err != nil {
		return models.Macros{}, err
	}
	if macros.Carbs, err = parseAmount(get, "carbs"); err != nil {
		return models.Macros{}, err
	}
	if macros.Fat, err = parseAmount(get, "fat"); err != nil {
		return models.Macros{}, err
	}
	return macros, nil
}

// ParseMeal reads a meal from the name, grams and macro fields
//
// The returned meal carries no ID, user or date.
func ParseMeal(get FormValue) (models.Meal, error) {
	name := strings.TrimSpace(get("name"))
	if name == "" {
		return models.Meal{}, &models.ValidationError{Message: "Meal name is required."}
	}
	grams, err := parseAmount(get, "grams")
	if err != nil {
		return models.Meal{}, err
	}
	macros, err := ParseMacros(get)
	if err != nil {
		return models.Meal{}, err
	}
	return models.Meal{
		Name:     name,
		Grams:    grams,
		Calories: macros.Calories,
		Protein:  macros.Protein,
		Carbs:    macros.Carbs,
		Fat:      macros.Fat,
	}, nil
}

// ParseUserUpdate reads an admin modification of a user
//
// Empty fields are left unchanged. "is_admin" accepts any strconv.ParseBool value.
// Only the target fields present in the form are sent; the stored values of the others are kept.
func ParseUserUpdate(get FormValue) (*models.UpdateUserRequest, error) {
	req := &models.UpdateUserRequest{}

	if username := strings.TrimSpace(get("username")); username != "" {
		req.Username = &username
	}
	if password := get("password"); password != "" {
		req.Password = &password
	}
	if raw := strings.TrimSpace(get("is_admin")); raw != "" {
		isAdmin, err := strconv.ParseBool(raw)
		if err != nil {
			return nil, &models.ValidationError{Message: "is_admin must be true or false."}
		}
		req.IsAdmin = &isAdmin
	}

	daily := &models.TargetsUpdate{}
	fields := []struct {
		name   string
		target **float64
	}{
		{"daily_calories", &daily.Calories},
		{"daily_protein", &daily.Protein},
		{"daily_carbs", &daily.Carbs},
		{"daily_fat", &daily.Fat},
	}
	for _, f := range fields {
		if strings.TrimSpace(get(f.name)) == "" {
			continue
		}
		value, err := parseAmount(get, f.name)
		if err != nil {
			return nil, err
		}
		*f.target = &value
		req.Daily = daily
	}

	if req.IsEmpty() {
		return nil, &models.ValidationError{Message: "Nothing to update."}
	}
	return req, nil
}
