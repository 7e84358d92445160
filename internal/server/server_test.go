package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/fitness-planner/internal/generation"
	"github.com/jonathan/fitness-planner/internal/llm"
	"github.com/jonathan/fitness-planner/internal/llm/llmtest"
	"github.com/jonathan/fitness-planner/internal/pipeline"
	"github.com/jonathan/fitness-planner/internal/planning"
	"github.com/jonathan/fitness-planner/internal/planning/planningtest"
	"github.com/jonathan/fitness-planner/internal/server/ratelimit"
	"github.com/jonathan/fitness-planner/internal/store"
	"github.com/jonathan/fitness-planner/internal/types"
)

const assessmentJSON = `{"user_id":"u-42","goals":["strength"],"weekly_days":4,"daily_minutes":45,"has_equipment":true}`

type testOptions struct {
	budget    time.Duration
	rateLimit *ratelimit.Config
	noStore   bool
}

type testServer struct {
	*Server
	client *llmtest.MockClient
	store  *store.MemoryStore
}

func newTestServer(t *testing.T, client *llmtest.MockClient, opts testOptions) *testServer {
	t.Helper()

	planner := planning.New(client, nil)
	planner.Policy = generation.Policy{MaxAttempts: 3, Backoff: time.Millisecond, MaxBackoff: time.Millisecond}
	planner.LightPolicy = planner.Policy.WithAttempts(2)

	pl, err := pipeline.New(pipeline.Config{
		Planner: planner,
		Budget:  opts.budget,
		Clock:   func() time.Time { return time.Date(2024, time.December, 31, 9, 0, 0, 0, time.UTC) },
	})
	require.NoError(t, err)

	mem, err := store.NewMemoryStore(8)
	require.NoError(t, err)

	cfg := Config{Planner: planner, Pipeline: pl, RateLimit: opts.rateLimit}
	if cfg.RateLimit == nil {
		cfg.RateLimit = &ratelimit.Config{Enabled: false}
	}
	if !opts.noStore {
		cfg.Store = mem
	}
	s, err := New(cfg)
	require.NoError(t, err)

	return &testServer{Server: s, client: client, store: mem}
}

func (s *testServer) do(method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder, v any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), v), w.Body.String())
}

func blueprintJSON(t *testing.T) string {
	t.Helper()
	data, err := json.Marshal(planningtest.Blueprint())
	require.NoError(t, err)
	return string(data)
}

func TestNew_RequiresCollaborators(t *testing.T) {
	_, err := New(Config{})
	assert.Error(t, err)
}

func TestHealthEndpoint(t *testing.T) {
	s := newTestServer(t, planningtest.Client(planningtest.Blueprint()), testOptions{})

	w := s.do(http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, w.Code)

	var resp map[string]string
	decodeBody(t, w, &resp)
	assert.Equal(t, "ok", resp["status"])
}

func TestCORSPreflight(t *testing.T) {
	s := newTestServer(t, planningtest.Client(planningtest.Blueprint()), testOptions{})

	w := s.do(http.MethodOptions, "/api/generate-90day-plan", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, w.Header().Get("Access-Control-Allow-Methods"), "POST")
	assert.Equal(t, 0, s.client.Calls())
}

func TestMethodNotAllowed(t *testing.T) {
	s := newTestServer(t, planningtest.Client(planningtest.Blueprint()), testOptions{})

	for _, path := range []string{
		"/api/generate-90day-plan",
		"/api/plan-blueprint",
		"/api/plan-details-workouts",
		"/api/plan-details-recovery",
		"/api/plan-details-coach-notes",
		"/api/plan-details",
	} {
		w := s.do(http.MethodGet, path, "")
		assert.Equal(t, http.StatusMethodNotAllowed, w.Code, path)
		assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

		var resp map[string]string
		decodeBody(t, w, &resp)
		assert.Equal(t, "Method not allowed", resp["error"])
	}
}

func TestMissingFields(t *testing.T) {
	s := newTestServer(t, planningtest.Client(planningtest.Blueprint()), testOptions{})
	bp := blueprintJSON(t)

	tests := []struct {
		path  string
		body  string
		field string
	}{
		{"/api/generate-90day-plan", `{}`, "assessment"},
		{"/api/plan-blueprint", `{"assessment": null}`, "assessment"},
		{"/api/plan-details-workouts", `{"assessment":` + assessmentJSON + `,"blueprint":` + bp + `}`, "dayTypeIds"},
		{"/api/plan-details-recovery", `{"blueprint":` + bp + `,"dayTypeIds":["recovery_a"]}`, "assessment"},
		{"/api/plan-details-coach-notes", `{"assessment":` + assessmentJSON + `}`, "blueprint"},
		{"/api/plan-details", `{"assessment":` + assessmentJSON + `,"blueprint":null}`, "blueprint"},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			w := s.do(http.MethodPost, tt.path, tt.body)
			assert.Equal(t, http.StatusBadRequest, w.Code)

			var resp map[string]string
			decodeBody(t, w, &resp)
			assert.Equal(t, "validation error: "+tt.field+" - is required", resp["error"])
		})
	}
	assert.Equal(t, 0, s.client.Calls())
}

func TestInvalidBody(t *testing.T) {
	s := newTestServer(t, planningtest.Client(planningtest.Blueprint()), testOptions{})

	w := s.do(http.MethodPost, "/api/plan-blueprint", `{"assessment":`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(http.MethodPost, "/api/plan-blueprint", `{"assessment":{"weekly_days":9}}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	var resp map[string]string
	decodeBody(t, w, &resp)
	assert.Contains(t, resp["error"], "assessment.weekly_days")
}

func TestInvalidBlueprintIsBadRequest(t *testing.T) {
	s := newTestServer(t, planningtest.Client(planningtest.Blueprint()), testOptions{})

	w := s.do(http.MethodPost, "/api/plan-details-coach-notes",
		`{"assessment":`+assessmentJSON+`,"blueprint":{"programOverview":{}}}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, 0, s.client.Calls())
}

func TestPlanBlueprint(t *testing.T) {
	s := newTestServer(t, planningtest.Client(planningtest.Blueprint()), testOptions{})

	w := s.do(http.MethodPost, "/api/plan-blueprint", `{"assessment":`+assessmentJSON+`}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var bp types.PlanBlueprint
	decodeBody(t, w, &bp)
	assert.Len(t, bp.SplitDesign.DayTypes, 5)
	assert.Len(t, bp.SplitDesign.MicrocycleTemplate, 14)
	assert.Equal(t, 1, s.client.Calls())
}

func TestWorkoutAndRecoveryDetails(t *testing.T) {
	s := newTestServer(t, planningtest.Client(planningtest.Blueprint()), testOptions{})
	bp := blueprintJSON(t)

	w := s.do(http.MethodPost, "/api/plan-details-workouts",
		`{"assessment":`+assessmentJSON+`,"blueprint":`+bp+`,"dayTypeIds":["upper_a","lower_a"]}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var workouts types.DayTypeDetails
	decodeBody(t, w, &workouts)
	assert.Len(t, workouts, 2)
	assert.Contains(t, workouts, "upper_a")

	w = s.do(http.MethodPost, "/api/plan-details-recovery",
		`{"assessment":`+assessmentJSON+`,"blueprint":`+bp+`,"dayTypeIds":["recovery_a"]}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var recovery types.DayTypeDetails
	decodeBody(t, w, &recovery)
	require.Contains(t, recovery, "recovery_a")
	assert.NotNil(t, recovery["recovery_a"].RecoveryRoutine)

	w = s.do(http.MethodPost, "/api/plan-details-workouts",
		`{"assessment":`+assessmentJSON+`,"blueprint":`+bp+`,"dayTypeIds":[]}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{}`, w.Body.String())
}

func TestCoachNotesAndPlanDetails(t *testing.T) {
	s := newTestServer(t, planningtest.Client(planningtest.Blueprint()), testOptions{})
	body := `{"assessment":` + assessmentJSON + `,"blueprint":` + blueprintJSON(t) + `}`

	w := s.do(http.MethodPost, "/api/plan-details-coach-notes", body)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var notes types.CoachNotes
	decodeBody(t, w, &notes)
	assert.NotEmpty(t, notes.HowThisProgramWorks)

	w = s.do(http.MethodPost, "/api/plan-details", body)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var details types.PlanDetails
	decodeBody(t, w, &details)
	assert.Len(t, details.DayTypeDetails, 5)
}

func TestGenerate90DayPlan_StoresPlan(t *testing.T) {
	s := newTestServer(t, planningtest.Client(planningtest.Blueprint()), testOptions{})

	w := s.do(http.MethodPost, "/api/generate-90day-plan", `{"assessment":`+assessmentJSON+`}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var program types.Program
	decodeBody(t, w, &program)
	assert.Equal(t, 90, program.ProgramLengthDays)
	assert.Equal(t, "2025-01-01", program.StartDate.String())
	assert.NotEmpty(t, program.Workouts)

	w = s.do(http.MethodGet, "/api/plans/u-42", "")
	require.Equal(t, http.StatusOK, w.Code)
	var stored types.Program
	decodeBody(t, w, &stored)
	assert.Equal(t, program.StartDate, stored.StartDate)
	assert.Len(t, stored.Workouts, len(program.Workouts))

	w = s.do(http.MethodGet, "/api/plans/someone-else", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGetPlan_WithoutStore(t *testing.T) {
	s := newTestServer(t, planningtest.Client(planningtest.Blueprint()), testOptions{noStore: true})

	w := s.do(http.MethodPost, "/api/generate-90day-plan", `{"assessment":`+assessmentJSON+`}`)
	require.Equal(t, http.StatusOK, w.Code)

	w = s.do(http.MethodGet, "/api/plans/u-42", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGenerate90DayPlan_Timeout(t *testing.T) {
	client := &llmtest.MockClient{CompleteFunc: func(ctx context.Context, _ llm.Request) (string, error) {
		<-ctx.Done()
		return "", ctx.Err()
	}}
	s := newTestServer(t, client, testOptions{budget: 30 * time.Millisecond})

	w := s.do(http.MethodPost, "/api/generate-90day-plan", `{"assessment":`+assessmentJSON+`}`)
	assert.Equal(t, http.StatusGatewayTimeout, w.Code)

	var resp map[string]any
	decodeBody(t, w, &resp)
	assert.Equal(t, true, resp["timeout"])
	assert.Equal(t, timeoutMessage, resp["error"])
	assert.Equal(t, 0, s.store.Len())
}

func TestGenerationFailureIsServerError(t *testing.T) {
	client := &llmtest.MockClient{CompleteFunc: llmtest.Static(`{"not": "a blueprint"}`)}
	s := newTestServer(t, client, testOptions{})

	w := s.do(http.MethodPost, "/api/plan-blueprint", `{"assessment":`+assessmentJSON+`}`)
	assert.Equal(t, http.StatusInternalServerError, w.Code)

	var resp map[string]string
	decodeBody(t, w, &resp)
	assert.Contains(t, resp["error"], "blueprint stage validation error")
}

func TestGenerate90DayPlanStream(t *testing.T) {
	s := newTestServer(t, planningtest.Client(planningtest.Blueprint()), testOptions{})

	w := s.do(http.MethodPost, "/api/generate-90day-plan/stream", `{"assessment":`+assessmentJSON+`}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/event-stream", w.Header().Get("Content-Type"))

	body := w.Body.String()
	assert.Equal(t, 5, strings.Count(body, "event: step\n"))
	assert.Contains(t, body, "Step 1/3")
	assert.Contains(t, body, "event: complete\n")
	assert.NotContains(t, body, "event: error")
	assert.Equal(t, 1, s.store.Len())
}

func TestGenerate90DayPlanStream_Error(t *testing.T) {
	client := &llmtest.MockClient{CompleteFunc: func(context.Context, llm.Request) (string, error) {
		return "", &llm.RefusalError{Reason: "SAFETY"}
	}}
	s := newTestServer(t, client, testOptions{})

	w := s.do(http.MethodPost, "/api/generate-90day-plan/stream", `{"assessment":`+assessmentJSON+`}`)
	body := w.Body.String()
	assert.Contains(t, body, "event: error\n")
	assert.NotContains(t, body, "event: complete")
}

func TestCoachHint(t *testing.T) {
	s := newTestServer(t, planningtest.Client(planningtest.Blueprint()), testOptions{})

	w := s.do(http.MethodPost, "/api/coach-hint", `{"streakDays":3,"completionRate":60,"tone":"motivational"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var hint planning.Hint
	decodeBody(t, w, &hint)
	assert.NotEmpty(t, hint.Hint)

	w = s.do(http.MethodPost, "/api/coach-hint", `{"tone":"grumpy"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCoachCheckIn(t *testing.T) {
	s := newTestServer(t, planningtest.Client(planningtest.Blueprint()), testOptions{})

	w := s.do(http.MethodPost, "/api/coach-checkin", `{"userMessage":"Ready to lift","type":"pre","context":{"dayNumber":3,"workoutName":"Upper A"}}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var reply planning.CheckIn
	decodeBody(t, w, &reply)
	assert.NotEmpty(t, reply.Response)
	assert.False(t, reply.Fallback)

	w = s.do(http.MethodPost, "/api/coach-checkin", `{"type":"pre"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "userMessage")

	w = s.do(http.MethodPost, "/api/coach-checkin", `{"userMessage":"hi","type":"during"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(http.MethodGet, "/api/coach-checkin", "")
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
}

func TestRequestID(t *testing.T) {
	s := newTestServer(t, planningtest.Client(planningtest.Blueprint()), testOptions{})

	w := s.do(http.MethodGet, "/health", "")
	assert.Len(t, w.Header().Get(RequestIDHeader), 36)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	assert.Equal(t, "abc-123", rec.Header().Get(RequestIDHeader))
}

func TestRateLimit(t *testing.T) {
	s := newTestServer(t, planningtest.Client(planningtest.Blueprint()), testOptions{
		rateLimit: ratelimit.NewConfig(2, 60),
	})

	w := s.do(http.MethodPost, "/api/plan-blueprint", `{"assessment":`+assessmentJSON+`}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "2", w.Header().Get("X-RateLimit-Limit"))

	w = s.do(http.MethodPost, "/api/plan-blueprint", `{"assessment":`+assessmentJSON+`}`)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.NotEmpty(t, w.Header().Get("Retry-After"))

	var resp map[string]any
	decodeBody(t, w, &resp)
	assert.Equal(t, "rate_limit_exceeded", resp["error"])
	assert.Equal(t, 1, s.client.Calls())

	// health stays available
	assert.Equal(t, http.StatusOK, s.do(http.MethodGet, "/health", "").Code)
}

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{&pipeline.TimeoutError{Budget: time.Second}, http.StatusGatewayTimeout},
		{fmt.Errorf("wrapped: %w", &pipeline.TimeoutError{}), http.StatusGatewayTimeout},
		{&ErrValidation{Field: "assessment", Message: "is required"}, http.StatusBadRequest},
		{&ErrMethodNotAllowed{Method: "GET"}, http.StatusMethodNotAllowed},
		{store.ErrNotFound, http.StatusNotFound},
		{&generation.Error{Kind: generation.KindValidation, Stage: "blueprint"}, http.StatusInternalServerError},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, HTTPStatus(tt.err), tt.err.Error())
	}
}
