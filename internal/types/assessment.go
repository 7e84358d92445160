// Package types provides type definitions for structured data used throughout the program generator.
//
//nolint:revive // types is a standard Go package name pattern
package types

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Assessment is the fitness questionnaire submitted by the mobile client.
// Field names follow the client's storage format.
type Assessment struct {
	ID                 string        `json:"id,omitempty"`
	UserID             string        `json:"user_id,omitempty"`
	Name               string        `json:"name,omitempty"`
	Goals              []string      `json:"goals"`
	GoalDescription    string        `json:"goal_description,omitempty"`
	WeeklyDays         int           `json:"weekly_days" validate:"min=0,max=7"`
	AvailableDays      []string      `json:"available_days,omitempty"`
	HeightCM           float64       `json:"height_cm,omitempty" validate:"min=0,max=260"`
	WeightKG           float64       `json:"weight_kg,omitempty" validate:"min=0,max=400"`
	Age                int           `json:"age,omitempty" validate:"min=0,max=120"`
	Gender             string        `json:"gender,omitempty" validate:"omitempty,oneof=male female other"`
	HasEquipment       bool          `json:"has_equipment,omitempty"`
	Equipment          EquipmentList `json:"equipment,omitempty"`
	DailyMinutes       int           `json:"daily_minutes,omitempty" validate:"min=0,max=300"`
	TrainingExperience string        `json:"training_experience,omitempty" validate:"omitempty,oneof=beginner intermediate advanced"`
	InjuriesOrPain     string        `json:"injuries_or_pain,omitempty"`
	PriorityAreas      string        `json:"priority_areas,omitempty"`
	ActivityLevel      string        `json:"activity_level,omitempty"`
	CreatedAt          string        `json:"created_at,omitempty"`
}

// Validate checks the assessment's numeric ranges and enums.
func (a *Assessment) Validate() error {
	validate := validator.New()
	return validate.Struct(a)
}

// WithDefaults returns a copy with unset profile fields filled in.
func (a Assessment) WithDefaults() Assessment {
	if a.Age == 0 {
		a.Age = 30
	}
	if a.WeightKG == 0 {
		a.WeightKG = 70
	}
	if a.HeightCM == 0 {
		a.HeightCM = 170
	}
	if a.Gender == "" {
		a.Gender = "male"
	}
	if a.WeeklyDays == 0 {
		a.WeeklyDays = 3
	}
	if a.DailyMinutes == 0 {
		a.DailyMinutes = 45
	}
	if a.TrainingExperience == "" {
		a.TrainingExperience = "intermediate"
	}
	if strings.TrimSpace(a.InjuriesOrPain) == "" {
		a.InjuriesOrPain = "none"
	}
	if strings.TrimSpace(a.PriorityAreas) == "" {
		a.PriorityAreas = "none"
	}
	if a.ActivityLevel == "" {
		a.ActivityLevel = "moderately_active"
	}
	return a
}

// GoalSummary joins the goal tags for prompts.
func (a *Assessment) GoalSummary() string {
	if len(a.Goals) == 0 {
		return "General fitness"
	}
	return strings.Join(a.Goals, ", ")
}

// EquipmentDescription describes the equipment available to the user.
func (a *Assessment) EquipmentDescription() string {
	if a.HasEquipment {
		return "Full gym access (barbells, dumbbells, machines, cables, etc.)"
	}
	if len(a.Equipment) > 0 {
		return "Limited equipment: " + strings.Join(a.Equipment, ", ")
	}
	return "No equipment (bodyweight only)"
}

// EquipmentList accepts either a JSON string or an array of strings.
type EquipmentList []string

// UnmarshalJSON implements json.Unmarshaler.
func (e *EquipmentList) UnmarshalJSON(data []byte) error {
	trimmed := strings.TrimSpace(string(data))
	if trimmed == "null" || trimmed == "" {
		*e = nil
		return nil
	}

	if strings.HasPrefix(trimmed, "\"") {
		var single string
		if err := json.Unmarshal(data, &single); err != nil {
			return fmt.Errorf("equipment: %w", err)
		}
		single = strings.TrimSpace(single)
		if single == "" {
			*e = nil
			return nil
		}
		*e = EquipmentList{single}
		return nil
	}

	var list []string
	if err := json.Unmarshal(data, &list); err != nil {
		return fmt.Errorf("equipment: %w", err)
	}
	*e = list
	return nil
}
