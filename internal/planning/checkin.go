package planning

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/jonathan/fitness-planner/internal/generation"
	"github.com/jonathan/fitness-planner/internal/llm"
)

// Check-in moments
const (
	CheckInPre  = "pre"
	CheckInPost = "post"
)

var checkInStage = stageSpec{
	name:      StageCoachCheckIn,
	promptKey: "coach-checkin",
	tier:      llm.TierLite,
	maxTokens: 150,
	light:     true,
}

// CheckInContext places a check-in within the program.
type CheckInContext struct {
	DayNumber   int    `json:"dayNumber,omitempty" validate:"min=0,max=90"`
	WorkoutName string `json:"workoutName,omitempty"`
}

// CheckInRequest is a message the user shares before or after a workout.
type CheckInRequest struct {
	UserMessage string          `json:"userMessage" validate:"required"`
	Type        string          `json:"type" validate:"required,oneof=pre post"`
	Context     *CheckInContext `json:"context,omitempty"`
}

// Validate checks the message and the check-in type.
func (r *CheckInRequest) Validate() error {
	return validator.New().Struct(r)
}

// CheckIn is the coach's reply to a check-in.
type CheckIn struct {
	Response string `json:"response"`
	// Fallback is true when the reply did not come from the model.
	Fallback bool `json:"fallback"`
}

// GenerateCoachCheckIn answers a pre- or post-workout check-in in one or two
// sentences. Like GenerateCoachHint it never fails; the fallback depends only
// on the check-in type.
func (p *Planner) GenerateCoachCheckIn(ctx context.Context, req CheckInRequest) CheckIn {
	data := checkInData(req)

	text, err := runStage(ctx, p, checkInStage, data, decodeCheckIn)
	if err != nil {
		p.log().Warn("coach check-in generation failed, using fallback", "error", err, "kind", generation.KindOf(err), "type", req.Type)
		return CheckIn{Response: FallbackCheckIn(req.Type), Fallback: true}
	}
	return CheckIn{Response: text}
}

func checkInData(req CheckInRequest) map[string]string {
	data := map[string]string{
		"UserMessage": strings.TrimSpace(req.UserMessage),
		"Moment":      "The user just finished their workout",
		"Instruction": "Provide a brief, supportive post-workout message (1-2 sentences) acknowledging their effort and giving one recovery tip.",
	}
	if req.Type == CheckInPre {
		data["Moment"] = "The user is about to start their workout"
		data["Instruction"] = "Provide a brief, encouraging pre-workout message (1-2 sentences) to motivate them and give one helpful tip."
	}

	var lines []string
	if req.Context != nil {
		if req.Context.DayNumber > 0 {
			lines = append(lines, fmt.Sprintf("This is day %d of their 90-day program.", req.Context.DayNumber))
		}
		if name := strings.TrimSpace(req.Context.WorkoutName); name != "" {
			lines = append(lines, "Workout: "+name)
		}
	}
	data["Context"] = strings.Join(lines, "\n")
	return data
}

func decodeCheckIn(raw []byte) (string, error) {
	var out struct {
		Response string `json:"response"`
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return "", &generation.Error{Kind: generation.KindParse, Stage: StageCoachCheckIn, Message: "check-in response is not valid JSON", Cause: err}
	}
	text := strings.TrimSpace(out.Response)
	if text == "" {
		return "", &generation.Error{Kind: generation.KindEmptyResponse, Stage: StageCoachCheckIn, Message: "check-in response is empty"}
	}
	return text, nil
}

// FallbackCheckIn returns the canned reply for a check-in type.
func FallbackCheckIn(checkInType string) string {
	if checkInType == CheckInPre {
		return "Great! Stay focused and give it your best effort today. Remember to warm up properly and listen to your body."
	}
	return "Well done! Recovery is just as important as training. Make sure to hydrate and get some rest."
}
