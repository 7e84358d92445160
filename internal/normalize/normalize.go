// Package normalize repairs common shape defects in generated plan documents before validation.
//
// All functions operate on decoded JSON (map[string]any, []any, float64, string, bool)
// and return a repaired deep copy; the input is never modified. Repairs only fill gaps
// or coerce values that would fail validation, so already-valid documents come back unchanged
// and applying a repair twice gives the same result as applying it once.
package normalize

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/jonathan/fitness-planner/internal/types"
)

// Options toggles individual repairs.
type Options struct {
	// TemplateLength pads or truncates 14-day arrays.
	TemplateLength bool
	// DayIndex assigns missing dayIndex values by position.
	DayIndex bool
	// Tutorials fills missing exercise guidance.
	Tutorials bool
	// RecoverySuggestions coerces recovery lists given as strings.
	RecoverySuggestions bool
}

// DefaultOptions enables every repair.
func DefaultOptions() Options {
	return Options{
		TemplateLength:      true,
		DayIndex:            true,
		Tutorials:           true,
		RecoverySuggestions: true,
	}
}

// Fallback content
var (
	DefaultRestSuggestions     = []string{"Focus on recovery", "Light stretching", "Stay hydrated"}
	DefaultRecoverySuggestions = []string{"Rest and recovery", "Light mobility work", "Stay hydrated"}
	DefaultHowTo               = "Follow proper form and technique."
)

const restDayTypeID = "rest"

var suggestionSplit = regexp.MustCompile(`\n|;`)

// Document applies the enabled repairs to every recognised part of doc:
// a blueprint's splitDesign, a template's training array (at the root or under "template"),
// and a dayTypeDetails map.
func Document(doc any, opts Options) any {
	out := clone(doc)
	root, ok := out.(map[string]any)
	if !ok {
		return out
	}

	if split, ok := root["splitDesign"].(map[string]any); ok {
		repairSplit(split, opts)
	}
	if _, ok := root["training"]; ok {
		repairTemplate(root, opts)
	}
	if tmpl, ok := root["template"].(map[string]any); ok {
		repairTemplate(tmpl, opts)
	}
	if details, ok := root["dayTypeDetails"].(map[string]any); ok {
		repairDetailMap(details, opts)
	}
	return out
}

// Blueprint repairs a generated blueprint with every repair enabled.
func Blueprint(doc any) any {
	return Document(doc, DefaultOptions())
}

// Template repairs a training template or an assembled program with every repair enabled.
func Template(doc any) any {
	return Document(doc, DefaultOptions())
}

// DayTypeDetails repairs a detail map keyed by day type id. A map wrapped in a
// single "dayTypeDetails" key is unwrapped first.
func DayTypeDetails(doc any) any {
	out := clone(doc)
	root, ok := out.(map[string]any)
	if !ok {
		return out
	}
	if len(root) == 1 {
		if inner, ok := root["dayTypeDetails"].(map[string]any); ok {
			root = inner
		}
	}
	repairDetailMap(root, DefaultOptions())
	return root
}

// JSON decodes raw, applies fn and re-encodes the result.
func JSON(raw []byte, fn func(any) any) ([]byte, error) {
	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("normalize: %w", err)
	}
	out, err := json.Marshal(fn(doc))
	if err != nil {
		return nil, fmt.Errorf("normalize: %w", err)
	}
	return out, nil
}

func repairSplit(split map[string]any, opts Options) {
	tmpl, isList := split["microcycleTemplate"].([]any)
	if !isList {
		return
	}

	if opts.TemplateLength {
		tmpl = fitMicrocycle(split, tmpl)
		split["microcycleTemplate"] = tmpl
		split["microcycleLengthDays"] = float64(types.MicrocycleLengthDays)
		if _, ok := split["programLengthDays"]; !ok {
			split["programLengthDays"] = float64(types.ProgramLengthDays)
		}
	}
	if opts.DayIndex {
		assignDayIndexes(tmpl)
	}
}

// fitMicrocycle brings the template to 14 entries. A 7-day cycle is repeated;
// anything else shorter is padded with a recovery day type.
func fitMicrocycle(split map[string]any, tmpl []any) []any {
	n := types.MicrocycleLengthDays
	switch {
	case len(tmpl) == n:
		return tmpl
	case len(tmpl) > n:
		return tmpl[:n]
	case len(tmpl) == 7:
		out := make([]any, 0, n)
		out = append(out, tmpl...)
		for i, entry := range tmpl {
			copied := clone(entry)
			if m, ok := copied.(map[string]any); ok {
				if _, has := m["dayIndex"]; has {
					m["dayIndex"] = float64(i + 8)
				}
			}
			out = append(out, copied)
		}
		return out
	}

	restID := ensureRecoveryDayType(split)
	out := make([]any, 0, n)
	out = append(out, tmpl...)
	for i := len(tmpl); i < n; i++ {
		out = append(out, map[string]any{
			"dayIndex":  float64(i + 1),
			"dayTypeId": restID,
		})
	}
	return out
}

// ensureRecoveryDayType returns the id of the first recovery day type,
// appending a generic rest type to the catalog when there is none.
func ensureRecoveryDayType(split map[string]any) string {
	dayTypes, _ := split["dayTypes"].([]any)
	taken := make(map[string]bool, len(dayTypes))
	for _, entry := range dayTypes {
		dt, ok := entry.(map[string]any)
		if !ok {
			continue
		}
		id, _ := dt["id"].(string)
		taken[id] = true
		if recovery, _ := dt["isRecoveryDay"].(bool); recovery && id != "" {
			return id
		}
	}

	id := restDayTypeID
	for i := 2; taken[id]; i++ {
		id = fmt.Sprintf("%s_%d", restDayTypeID, i)
	}
	split["dayTypes"] = append(dayTypes, map[string]any{
		"id":               id,
		"label":            "Rest Day",
		"category":         types.CategoryRecovery,
		"focusDescription": "Rest and recovery",
		"includesCardio":   false,
		"isRecoveryDay":    true,
	})
	return id
}

func repairTemplate(tmpl map[string]any, opts Options) {
	training, ok := tmpl["training"].([]any)
	if !ok {
		return
	}

	if opts.TemplateLength {
		training = fitTraining(training)
		tmpl["training"] = training
	}
	if opts.DayIndex {
		assignDayIndexes(training)
	}

	for _, entry := range training {
		day, ok := entry.(map[string]any)
		if !ok {
			continue
		}
		if opts.Tutorials {
			if workout, ok := day["workout"].(map[string]any); ok {
				if exercises, ok := workout["exercises"].([]any); ok {
					for _, ex := range exercises {
						if m, ok := ex.(map[string]any); ok {
							repairTemplateExercise(m)
						}
					}
				}
			}
		}
		if opts.RecoverySuggestions {
			if recovery, ok := day["recovery"].(map[string]any); ok {
				recovery["suggestions"] = coerceList(recovery["suggestions"], DefaultRecoverySuggestions)
			}
		}
	}
}

func fitTraining(training []any) []any {
	n := types.MicrocycleLengthDays
	if len(training) >= n {
		return training[:n]
	}
	out := make([]any, 0, n)
	out = append(out, training...)
	for i := len(training); i < n; i++ {
		out = append(out, RestDay(i+1))
	}
	return out
}

// RestDay builds a synthesized rest entry for template position dayIndex.
func RestDay(dayIndex int) map[string]any {
	return map[string]any{
		"dayIndex":     float64(dayIndex),
		"isWorkoutDay": false,
		"label":        fmt.Sprintf("Day %d", dayIndex),
		"focus":        "Rest",
		"recovery": map[string]any{
			"suggestions": toAnyList(DefaultRestSuggestions),
		},
	}
}

func assignDayIndexes(entries []any) {
	for i, entry := range entries {
		m, ok := entry.(map[string]any)
		if !ok {
			continue
		}
		if n, ok := asInt(m["dayIndex"]); !ok || n == 0 {
			m["dayIndex"] = float64(i + 1)
		}
	}
}

func repairTemplateExercise(ex map[string]any) {
	tutorial, ok := ex["tutorial"].(map[string]any)
	if !ok {
		name, _ := ex["name"].(string)
		ex["tutorial"] = map[string]any{
			"howTo":          FallbackHowTo(name),
			"cues":           []any{},
			"commonMistakes": []any{},
		}
		return
	}
	if howTo, _ := tutorial["howTo"].(string); howTo == "" {
		tutorial["howTo"] = howToFromNotes(ex)
	}
	for _, key := range []string{"cues", "commonMistakes"} {
		if _, ok := tutorial[key].([]any); !ok {
			tutorial[key] = []any{}
		}
	}
}

// FallbackHowTo is the instruction used for an exercise with no guidance at all.
func FallbackHowTo(name string) string {
	if strings.TrimSpace(name) == "" {
		return DefaultHowTo
	}
	return fmt.Sprintf("Perform %s with proper form. Focus on controlled movement and full range of motion.", name)
}

func howToFromNotes(ex map[string]any) string {
	if notes, _ := ex["notes"].(string); strings.TrimSpace(notes) != "" {
		return notes
	}
	return DefaultHowTo
}

func repairDetailMap(details map[string]any, opts Options) {
	for _, entry := range details {
		detail, ok := entry.(map[string]any)
		if !ok {
			continue
		}
		if opts.Tutorials {
			if blocks, ok := detail["blocks"].([]any); ok {
				for _, b := range blocks {
					block, ok := b.(map[string]any)
					if !ok {
						continue
					}
					exercises, _ := block["exercises"].([]any)
					for _, ex := range exercises {
						if m, ok := ex.(map[string]any); ok {
							repairDetailExercise(m)
						}
					}
				}
			}
		}
		if opts.RecoverySuggestions {
			if routine, ok := detail["recoveryRoutine"].(map[string]any); ok {
				routine["steps"] = coerceList(routine["steps"], DefaultRecoverySuggestions)
			}
		}
	}
}

func repairDetailExercise(ex map[string]any) {
	if howTo, _ := ex["howTo"].(string); howTo == "" {
		ex["howTo"] = howToFromNotes(ex)
	}
	for _, key := range []string{"cues", "commonMistakes", "progressionTips"} {
		if _, ok := ex[key].([]any); !ok {
			ex[key] = []any{}
		}
	}
}

// coerceList returns v when it is already a list. A string is split on
// newlines and semicolons; anything else, or a string with no usable parts,
// becomes fallback.
func coerceList(v any, fallback []string) any {
	switch val := v.(type) {
	case []any:
		return val
	case string:
		parts := SplitSuggestions(val)
		if len(parts) > 0 {
			return toAnyList(parts)
		}
	}
	return toAnyList(fallback)
}

// SplitSuggestions splits free text into trimmed, non-empty items.
func SplitSuggestions(s string) []string {
	var out []string
	for _, part := range suggestionSplit.Split(s, -1) {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func toAnyList(items []string) []any {
	out := make([]any, len(items))
	for i, s := range items {
		out[i] = s
	}
	return out
}

func asInt(v any) (int, bool) {
	switch n := v.(type) {
	case float64:
		return int(n), true
	case int:
		return n, true
	case json.Number:
		i, err := n.Int64()
		return int(i), err == nil
	}
	return 0, false
}

func clone(v any) any {
	switch val := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, item := range val {
			out[k] = clone(item)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = clone(item)
		}
		return out
	default:
		return val
	}
}
