package models

// Meal is one discrete food-intake record for a user on a date
type Meal struct {
	ID       int     `json:"id"`
	UserID   int     `json:"user_id,omitempty"`
	Date     string  `json:"date,omitempty"`
	Name     string  `json:"name"`
	Grams    float64 `json:"grams"`
	Calories float64 `json:"calories"`
	Protein  float64 `json:"protein"`
	Carbs    float64 `json:"carbs"`
	Fat      float64 `json:"fat"`
}

// Macros returns the macro part of the meal
func (m Meal) Macros() Macros {
	return Macros{
		Calories: m.Calories,
		Protein:  m.Protein,
		Carbs:    m.Carbs,
		Fat:      m.Fat,
	}
}

// SumMeals adds up the macros of all meals
func SumMeals(meals []Meal) Macros {
	var total Macros
	for _, meal := range meals {
		total = total.Add(meal.Macros())
	}
	return total
}
