package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/jonathan/fitness-planner/internal/pipeline"
	"github.com/jonathan/fitness-planner/internal/planning"
	"github.com/jonathan/fitness-planner/internal/types"
)

// maxBodyBytes bounds request bodies; a blueprint is well under this.
const maxBodyBytes = 1 << 20

// AssessmentRequest is the body of the plan and blueprint endpoints.
type AssessmentRequest struct {
	Assessment *types.Assessment `json:"assessment" validate:"required"`
}

// BlueprintRequest is the body of the coach notes and plan details endpoints.
type BlueprintRequest struct {
	Assessment *types.Assessment `json:"assessment" validate:"required"`
	Blueprint  json.RawMessage   `json:"blueprint"`
}

// DayTypesRequest is the body of the workout and recovery details endpoints.
type DayTypesRequest struct {
	Assessment *types.Assessment `json:"assessment" validate:"required"`
	Blueprint  json.RawMessage   `json:"blueprint"`
	DayTypeIDs []string          `json:"dayTypeIds" validate:"required"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// Report JSON field names in errors.
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// decodeRequest reads a JSON body into dst and validates it.
func decodeRequest(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return &ErrValidation{Field: "body", Message: "invalid JSON: " + err.Error()}
	}
	if err := validate.Struct(dst); err != nil {
		return requestError(err)
	}
	return nil
}

// requestError converts the first validator failure into an ErrValidation.
func requestError(err error) error {
	var fields validator.ValidationErrors
	if !errors.As(err, &fields) || len(fields) == 0 {
		return err
	}
	fe := fields[0]
	field := strings.TrimPrefix(fe.Namespace(), strings.SplitN(fe.Namespace(), ".", 2)[0]+".")
	if fe.Tag() == "required" {
		return &ErrValidation{Field: field, Message: "is required"}
	}
	return &ErrValidation{Field: field, Message: "failed " + fe.Tag() + " check"}
}

// decodeBlueprint normalizes and validates a blueprint supplied by the client.
func decodeBlueprint(raw json.RawMessage) (*types.PlanBlueprint, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, &ErrValidation{Field: "blueprint", Message: "is required"}
	}
	bp, err := planning.DecodeBlueprint(raw)
	if err != nil {
		return nil, &ErrValidation{Field: "blueprint", Message: err.Error()}
	}
	return bp, nil
}

// handleGenerate90DayPlan generates, assembles and optionally stores a program.
func (s *Server) handleGenerate90DayPlan(w http.ResponseWriter, r *http.Request) {
	var req AssessmentRequest
	if err := decodeRequest(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	program, err := s.pipeline.Generate90DayPlan(r.Context(), *req.Assessment)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.savePlan(r, req.Assessment.UserID, program)
	s.jsonResponse(w, http.StatusOK, program)
}

// handleGenerate90DayPlanStream runs the same generation and reports progress
// as server-sent events: "step" per progress event, then "complete" with the
// program or "error" with the error envelope.
func (s *Server) handleGenerate90DayPlanStream(w http.ResponseWriter, r *http.Request) {
	var req AssessmentRequest
	if err := decodeRequest(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	sse, err := NewSSEWriter(w)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	defer sse.Close()

	ctx := pipeline.WithProgress(r.Context(), func(event pipeline.ProgressEvent) {
		if err := sse.WriteEvent("step", event); err != nil {
			s.log.Warn("failed to write SSE event", "error", err, "request_id", RequestID(r.Context()))
		}
	})

	program, err := s.pipeline.Generate90DayPlan(ctx, *req.Assessment)
	if err != nil {
		s.log.Error("streaming generation failed", "error", err, "request_id", RequestID(r.Context()))
		sse.WriteError(err)
		return
	}
	s.savePlan(r, req.Assessment.UserID, program)
	sse.WriteComplete(program)
}

// savePlan stores program for userID when a store is configured. Failures
// are logged; the caller still receives the program.
func (s *Server) savePlan(r *http.Request, userID string, program *types.Program) {
	if s.store == nil || userID == "" {
		return
	}
	if err := s.store.Set(r.Context(), userID, program); err != nil {
		s.log.Error("failed to store plan", "user_id", userID, "error", err, "request_id", RequestID(r.Context()))
	}
}

func (s *Server) handlePlanBlueprint(w http.ResponseWriter, r *http.Request) {
	var req AssessmentRequest
	if err := decodeRequest(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	bp, err := s.planner.GenerateBlueprint(r.Context(), *req.Assessment)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, bp)
}

func (s *Server) handleWorkoutDetails(w http.ResponseWriter, r *http.Request) {
	s.handleDayTypeDetails(w, r, s.planner.GenerateWorkoutDetails)
}

func (s *Server) handleRecoveryDetails(w http.ResponseWriter, r *http.Request) {
	s.handleDayTypeDetails(w, r, s.planner.GenerateRecoveryDetails)
}

type dayTypeGenerator func(ctx context.Context, a types.Assessment, bp *types.PlanBlueprint, ids []string) (types.DayTypeDetails, error)

func (s *Server) handleDayTypeDetails(w http.ResponseWriter, r *http.Request, generate dayTypeGenerator) {
	var req DayTypesRequest
	if err := decodeRequest(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	bp, err := decodeBlueprint(req.Blueprint)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	details, err := generate(r.Context(), *req.Assessment, bp, req.DayTypeIDs)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, details)
}

func (s *Server) handleCoachNotes(w http.ResponseWriter, r *http.Request) {
	var req BlueprintRequest
	if err := decodeRequest(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	bp, err := decodeBlueprint(req.Blueprint)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	notes, err := s.planner.GenerateCoachNotes(r.Context(), *req.Assessment, bp)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, notes)
}

func (s *Server) handlePlanDetails(w http.ResponseWriter, r *http.Request) {
	var req BlueprintRequest
	if err := decodeRequest(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	bp, err := decodeBlueprint(req.Blueprint)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	details, err := s.planner.GeneratePlanDetails(r.Context(), *req.Assessment, bp)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, details)
}

func (s *Server) handleCoachHint(w http.ResponseWriter, r *http.Request) {
	var req planning.HintRequest
	if err := decodeRequest(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, s.planner.GenerateCoachHint(r.Context(), req))
}

func (s *Server) handleCoachCheckIn(w http.ResponseWriter, r *http.Request) {
	var req planning.CheckInRequest
	if err := decodeRequest(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, s.planner.GenerateCoachCheckIn(r.Context(), req))
}

// handleGetPlan returns the stored program of a user.
func (s *Server) handleGetPlan(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		s.jsonResponse(w, http.StatusNotFound, map[string]string{"error": "plan storage is not configured"})
		return
	}
	program, err := s.store.Get(r.Context(), r.PathValue("user_id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, program)
}
