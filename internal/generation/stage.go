package generation

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/jonathan/fitness-planner/internal/llm"
)

// Stage describes one completion call.
type Stage struct {
	Name      string
	System    string
	User      string
	Tier      llm.ModelTier
	MaxTokens int
	// Timeout bounds this single call; zero means no extra bound.
	Timeout time.Duration
}

// CallStage sends the stage prompt, strips code fences and checks that the
// answer is a single JSON object. It does not validate the object's shape.
func CallStage(ctx context.Context, client llm.Client, stage Stage) (json.RawMessage, error) {
	callCtx := ctx
	if stage.Timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, stage.Timeout)
		defer cancel()
	}

	text, err := client.Complete(callCtx, llm.Request{
		System:    stage.System,
		User:      stage.User,
		Tier:      stage.Tier,
		MaxTokens: stage.MaxTokens,
		JSON:      true,
	})
	if err != nil {
		return nil, classify(ctx, stage.Name, err)
	}

	cleaned := llm.CleanJSONBlock(text)
	if strings.TrimSpace(cleaned) == "" {
		return nil, &Error{Kind: KindEmptyResponse, Stage: stage.Name, Message: "completion contained no text"}
	}

	var probe any
	if err := json.Unmarshal([]byte(cleaned), &probe); err != nil {
		return nil, &Error{Kind: KindParse, Stage: stage.Name, Message: "completion is not valid JSON", Cause: err}
	}
	if _, ok := probe.(map[string]any); !ok {
		return nil, &Error{Kind: KindParse, Stage: stage.Name, Message: "completion is not a JSON object"}
	}

	return json.RawMessage(cleaned), nil
}

// classify maps a provider error onto a stage error. parent is the caller's
// context, used to tell caller cancellation apart from the per-call timeout.
func classify(parent context.Context, stage string, err error) *Error {
	if parentErr := parent.Err(); parentErr != nil {
		if errors.Is(parentErr, context.DeadlineExceeded) {
			return &Error{Kind: KindTimeout, Stage: stage, Message: "deadline exceeded", Cause: err}
		}
		return &Error{Kind: KindCanceled, Stage: stage, Message: "canceled", Cause: err}
	}

	var refusal *llm.RefusalError
	switch {
	case errors.As(err, &refusal):
		return &Error{Kind: KindRefusal, Stage: stage, Message: "provider refused the request", Cause: err}
	case errors.Is(err, llm.ErrEmptyResponse):
		return &Error{Kind: KindEmptyResponse, Stage: stage, Message: "provider returned no content", Cause: err}
	case errors.Is(err, context.DeadlineExceeded):
		return &Error{Kind: KindTransport, Stage: stage, Message: "call timed out", Cause: err}
	default:
		return &Error{Kind: KindTransport, Stage: stage, Message: "provider call failed", Cause: err}
	}
}
