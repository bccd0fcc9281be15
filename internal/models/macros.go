package models

// Macros is an amount of calories (kcal) and protein, carbs and fat (grams)
type Macros struct {
	Calories float64 `json:"calories"`
	Protein  float64 `json:"protein"`
	Carbs    float64 `json:"carbs"`
	Fat      float64 `json:"fat"`
}

// DailyTargets holds the per-user daily ceilings for each macro
type DailyTargets Macros

// DefaultTargets are assigned to users registered without explicit targets
var DefaultTargets = DailyTargets{
	Calories: 2000,
	Protein:  150,
	Carbs:    250,
	Fat:      70,
}

// Add returns the sum of two amounts
func (m Macros) Add(o Macros) Macros {
	return Macros{
		Calories: m.Calories + o.Calories,
		Protein:  m.Protein + o.Protein,
		Carbs:    m.Carbs + o.Carbs,
		Fat:      m.Fat + o.Fat,
	}
}

// Remaining returns target minus consumed for every macro. Values go negative when over budget.
func (t DailyTargets) Remaining(consumed Macros) Macros {
	return Macros{
		Calories: t.Calories - consumed.Calories,
		Protein:  t.Protein - consumed.Protein,
		Carbs:    t.Carbs - consumed.Carbs,
		Fat:      t.Fat - consumed.Fat,
	}
}

// TargetsUpdate carries the daily targets changed by an admin; nil fields keep their current value
type TargetsUpdate struct {
	Calories *float64 `json:"calories,omitempty"`
	Protein  *float64 `json:"protein,omitempty"`
	Carbs    *float64 `json:"carbs,omitempty"`
	Fat      *float64 `json:"fat,omitempty"`
}

// Apply returns current with the fields set in u replaced
func (u *TargetsUpdate) Apply(current DailyTargets) DailyTargets {
	if u == nil {
		return current
	}
	if u.Calories != nil {
		current.Calories = *u.Calories
	}
	if u.Protein != nil {
		current.Protein = *u.Protein
	}
	if u.Carbs != nil {
		current.Carbs = *u.Carbs
	}
	if u.Fat != nil {
		current.Fat = *u.Fat
	}
	return current
}
