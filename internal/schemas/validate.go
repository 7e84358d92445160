// Package schemas provides JSON Schema validation functionality for generated plan artifacts.
package schemas

import (
	"embed"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/xeipuuv/gojsonschema"
)

//go:embed defs/*.schema.json
var defsFS embed.FS

// Name identifies an embedded schema.
type Name string

// Embedded schema names
const (
	Blueprint        Name = "blueprint"
	WorkoutDetails   Name = "workout_details"
	RecoveryDetails  Name = "recovery_details"
	CoachNotes       Name = "coach_notes"
	PlanDetails      Name = "plan_details"
	TrainingTemplate Name = "training_template"
)

var (
	compiledMu sync.Mutex
	compiled   = make(map[Name]*gojsonschema.Schema)
)

// ValidationError represents a schema validation error with field paths
type ValidationError struct {
	Schema string
	Errors []FieldError
}

// FieldError represents a single validation error at a specific field
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// SchemaLoadError represents errors loading or parsing the schema itself
type SchemaLoadError struct {
	Path    string
	Message string
	Cause   error
}

func (e *SchemaLoadError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("failed to load schema %s: %s: %v", e.Path, e.Message, e.Cause)
	}
	return fmt.Sprintf("failed to load schema %s: %s", e.Path, e.Message)
}

func (e *SchemaLoadError) Unwrap() error {
	return e.Cause
}

func (ve *ValidationError) Error() string {
	var sb strings.Builder
	if ve.Schema != "" {
		sb.WriteString(fmt.Sprintf("%s validation failed:\n", ve.Schema))
	} else {
		sb.WriteString("validation failed:\n")
	}
	for i, err := range ve.Errors {
		sb.WriteString(fmt.Sprintf("  %d. %s: %s\n", i+1, err.Field, err.Message))
	}
	return sb.String()
}

// Names returns the embedded schema names in sorted order.
func Names() []Name {
	entries, err := defsFS.ReadDir("defs")
	if err != nil {
		return nil
	}
	names := make([]Name, 0, len(entries))
	for _, e := range entries {
		names = append(names, Name(strings.TrimSuffix(e.Name(), ".schema.json")))
	}
	sort.Slice(names, func(i, j int) bool { return names[i] < names[j] })
	return names
}

// Source returns the raw JSON Schema document for name.
func Source(name Name) ([]byte, error) {
	data, err := defsFS.ReadFile(path(name))
	if err != nil {
		return nil, &SchemaLoadError{Path: path(name), Message: "unknown schema", Cause: err}
	}
	return data, nil
}

func path(name Name) string {
	return "defs/" + string(name) + ".schema.json"
}

// load compiles the named schema once and caches it.
func load(name Name) (*gojsonschema.Schema, error) {
	compiledMu.Lock()
	defer compiledMu.Unlock()

	if s, ok := compiled[name]; ok {
		return s, nil
	}

	data, err := Source(name)
	if err != nil {
		return nil, err
	}

	s, err := gojsonschema.NewSchema(gojsonschema.NewBytesLoader(data))
	if err != nil {
		return nil, &SchemaLoadError{Path: path(name), Message: "invalid schema document", Cause: err}
	}
	compiled[name] = s
	return s, nil
}

// Validate validates raw JSON against the named embedded schema.
// Structural failures are returned as *ValidationError.
func Validate(name Name, raw []byte) error {
	schema, err := load(name)
	if err != nil {
		return err
	}

	if !json.Valid(raw) {
		return &ValidationError{
			Schema: string(name),
			Errors: []FieldError{{Field: "(root)", Message: "document is not valid JSON"}},
		}
	}

	result, err := schema.Validate(gojsonschema.NewBytesLoader(raw))
	if err != nil {
		return &SchemaLoadError{
			Path:    path(name),
			Message: "schema validation failed during load",
			Cause:   err,
		}
	}

	if !result.Valid() {
		return toValidationError(string(name), result)
	}

	if check, ok := crossChecks[name]; ok {
		if errs := check(raw); len(errs) > 0 {
			return &ValidationError{Schema: string(name), Errors: errs}
		}
	}

	return nil
}

// Decode validates raw against the named schema and unmarshals it into out.
// No coercion takes place; any repair must happen before Decode.
func Decode(name Name, raw []byte, out any) error {
	if err := Validate(name, raw); err != nil {
		return err
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return &ValidationError{
			Schema: string(name),
			Errors: []FieldError{{Field: "(root)", Message: err.Error()}},
		}
	}
	return nil
}

// ValidateFile validates a JSON file on disk against the named embedded schema.
func ValidateFile(name Name, jsonPath string) error {
	absPath, err := filepath.Abs(jsonPath)
	if err != nil {
		return fmt.Errorf("failed to resolve JSON path: %w", err)
	}

	data, err := os.ReadFile(absPath)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("JSON file not found: %s", absPath)
		}
		return fmt.Errorf("failed to read JSON file: %w", err)
	}

	return Validate(name, data)
}

// ValidateJSONString validates JSON string content against schema string content
func ValidateJSONString(schemaContent, jsonContent string) error {
	schemaLoader := gojsonschema.NewStringLoader(schemaContent)
	documentLoader := gojsonschema.NewStringLoader(jsonContent)

	result, err := gojsonschema.Validate(schemaLoader, documentLoader)
	if err != nil {
		return &SchemaLoadError{
			Path:    "(string schema)",
			Message: "schema validation failed during load",
			Cause:   err,
		}
	}

	if result.Valid() {
		return nil
	}

	return toValidationError("", result)
}

func toValidationError(schema string, result *gojsonschema.Result) *ValidationError {
	validationErr := &ValidationError{
		Schema: schema,
		Errors: make([]FieldError, 0, len(result.Errors())),
	}

	for _, desc := range result.Errors() {
		field := desc.Field()
		if field == "" {
			field = "(root)"
		}
		validationErr.Errors = append(validationErr.Errors, FieldError{
			Field:   field,
			Message: desc.Description(),
		})
	}

	return validationErr
}
