package planning

import (
	"context"
	"encoding/json"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/jonathan/fitness-planner/internal/generation"
	"github.com/jonathan/fitness-planner/internal/llm"
)

// Hint tones
const (
	ToneEncouraging  = "encouraging"
	ToneMotivational = "motivational"
	ToneAnalytical   = "analytical"
)

var toneDescriptions = map[string]string{
	ToneEncouraging:  "warm and supportive",
	ToneMotivational: "energetic and inspiring",
	ToneAnalytical:   "fact-based and constructive",
}

var hintStage = stageSpec{
	name:      StageCoachHint,
	promptKey: "coach-hint",
	tier:      llm.TierLite,
	maxTokens: 200,
	light:     true,
}

// HintRequest carries the adherence figures a coach hint is based on.
type HintRequest struct {
	StreakDays       int     `json:"streakDays" validate:"min=0"`
	OnTimePercentage float64 `json:"onTimePercentage" validate:"min=0,max=100"`
	CompletionRate   float64 `json:"completionRate" validate:"min=0,max=100"`
	RecentCheckins   int     `json:"recentCheckins" validate:"min=0"`
	Tone             string  `json:"tone" validate:"omitempty,oneof=encouraging motivational analytical"`
}

// Validate checks ranges and the tone.
func (r *HintRequest) Validate() error {
	return validator.New().Struct(r)
}

// Hint is a generated coaching sentence.
type Hint struct {
	Hint string `json:"hint"`
	// Fallback is true when the hint did not come from the model.
	Fallback bool `json:"fallback"`
}

// GenerateCoachHint returns a one-sentence coaching hint. It never fails: when
// the model call fails, a deterministic hint based on the figures is returned.
func (p *Planner) GenerateCoachHint(ctx context.Context, req HintRequest) Hint {
	tone := toneDescriptions[req.Tone]
	if tone == "" {
		tone = toneDescriptions[ToneEncouraging]
	}

	data := map[string]string{
		"Tone":             tone,
		"StreakDays":       strconv.Itoa(req.StreakDays),
		"OnTimePercentage": strconv.FormatFloat(req.OnTimePercentage, 'f', 0, 64),
		"CompletionRate":   strconv.FormatFloat(req.CompletionRate, 'f', 0, 64),
		"RecentCheckins":   strconv.Itoa(req.RecentCheckins),
	}

	text, err := runStage(ctx, p, hintStage, data, decodeHint)
	if err != nil {
		p.log().Warn("coach hint generation failed, using fallback", "error", err, "kind", generation.KindOf(err))
		return Hint{Hint: FallbackHint(req), Fallback: true}
	}
	return Hint{Hint: text}
}

func decodeHint(raw []byte) (string, error) {
	var out struct {
		Hint string `json:"hint"`
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return "", &generation.Error{Kind: generation.KindParse, Stage: StageCoachHint, Message: "hint is not valid JSON", Cause: err}
	}
	hint := strings.TrimSpace(out.Hint)
	if hint == "" {
		return "", &generation.Error{Kind: generation.KindEmptyResponse, Stage: StageCoachHint, Message: "hint is empty"}
	}
	return hint, nil
}

// FallbackHint picks a canned hint from the adherence figures.
func FallbackHint(req HintRequest) string {
	switch {
	case req.StreakDays >= 7:
		return "You're on fire! Keep this momentum going."
	case req.CompletionRate >= 80:
		return "Great progress! You're staying consistent."
	case req.CompletionRate < 50:
		return "Try to focus on completing at least one task per day to build momentum."
	default:
		return "Every step forward counts. Keep going!"
	}
}
