package schemas

import (
	"encoding/json"
	"fmt"
)

// crossChecks hold reference checks that JSON Schema cannot express.
// They only run once the document is structurally valid.
var crossChecks = map[Name]func(raw []byte) []FieldError{
	Blueprint:        checkBlueprintRefs,
	TrainingTemplate: checkTemplateDayIndexes,
}

type blueprintRefs struct {
	SplitDesign struct {
		DayTypes []struct {
			ID string `json:"id"`
		} `json:"dayTypes"`
		MicrocycleTemplate []struct {
			DayIndex  int    `json:"dayIndex"`
			DayTypeID string `json:"dayTypeId"`
		} `json:"microcycleTemplate"`
	} `json:"splitDesign"`
}

func checkBlueprintRefs(raw []byte) []FieldError {
	var bp blueprintRefs
	if err := json.Unmarshal(raw, &bp); err != nil {
		return []FieldError{{Field: "(root)", Message: err.Error()}}
	}

	var errs []FieldError
	catalog := make(map[string]bool, len(bp.SplitDesign.DayTypes))
	for i, dt := range bp.SplitDesign.DayTypes {
		if catalog[dt.ID] {
			errs = append(errs, FieldError{
				Field:   fmt.Sprintf("splitDesign.dayTypes.%d.id", i),
				Message: fmt.Sprintf("duplicate day type id %q", dt.ID),
			})
		}
		catalog[dt.ID] = true
	}

	seen := make(map[int]bool, len(bp.SplitDesign.MicrocycleTemplate))
	for i, day := range bp.SplitDesign.MicrocycleTemplate {
		if !catalog[day.DayTypeID] {
			errs = append(errs, FieldError{
				Field:   fmt.Sprintf("splitDesign.microcycleTemplate.%d.dayTypeId", i),
				Message: fmt.Sprintf("day type %q is not in splitDesign.dayTypes", day.DayTypeID),
			})
		}
		if seen[day.DayIndex] {
			errs = append(errs, FieldError{
				Field:   fmt.Sprintf("splitDesign.microcycleTemplate.%d.dayIndex", i),
				Message: fmt.Sprintf("duplicate dayIndex %d", day.DayIndex),
			})
		}
		seen[day.DayIndex] = true
	}

	return errs
}

func checkTemplateDayIndexes(raw []byte) []FieldError {
	var tmpl struct {
		Training []struct {
			DayIndex int `json:"dayIndex"`
		} `json:"training"`
	}
	if err := json.Unmarshal(raw, &tmpl); err != nil {
		return []FieldError{{Field: "(root)", Message: err.Error()}}
	}

	var errs []FieldError
	seen := make(map[int]bool, len(tmpl.Training))
	for i, day := range tmpl.Training {
		if seen[day.DayIndex] {
			errs = append(errs, FieldError{
				Field:   fmt.Sprintf("training.%d.dayIndex", i),
				Message: fmt.Sprintf("duplicate dayIndex %d", day.DayIndex),
			})
		}
		seen[day.DayIndex] = true
	}
	return errs
}
