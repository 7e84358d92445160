package llm

import (
	"testing"
)

func TestCleanJSONBlock_MarkdownCodeBlock(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "json code block",
			input:    "```json\n{\"key\": \"value\"}\n```",
			expected: `{"key": "value"}`,
		},
		{
			name:     "generic code block",
			input:    "```\n{\"key\": \"value\"}\n```",
			expected: `{"key": "value"}`,
		},
		{
			name:     "code block with language",
			input:    "```javascript\n{\"key\": \"value\"}\n```",
			expected: `{"key": "value"}`,
		},
		{
			name:     "plain JSON",
			input:    `{"key": "value"}`,
			expected: `{"key": "value"}`,
		},
		{
			name:     "unterminated fence",
			input:    "```json\n{\"dayIndex\": 1}",
			expected: `{"dayIndex": 1}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := CleanJSONBlock(tt.input)
			if result != tt.expected {
				t.Errorf("CleanJSONBlock() = %q, want %q", result, tt.expected)
			}
		})
	}
}

func TestCleanJSONBlock_SurroundingText(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "preamble before JSON object",
			input:    "Here is your blueprint:\n{\"programLengthDays\": 90}",
			expected: `{"programLengthDays": 90}`,
		},
		{
			name:     "preamble before JSON array",
			input:    "Here are the steps:\n[\"walk\", \"stretch\"]",
			expected: `["walk", "stretch"]`,
		},
		{
			name:     "JSON with trailing text",
			input:    "{\"key\": \"value\"}\n\nLet me know if you need anything else!",
			expected: `{"key": "value"}`,
		},
		{
			name:     "nested objects",
			input:    "Output:\n{\"outer\": {\"inner\": \"value\"}}",
			expected: `{"outer": {"inner": "value"}}`,
		},
		{
			name:     "JSON with escaped quotes",
			input:    "Result: {\"message\": \"He said \\\"hello\\\"\"}",
			expected: `{"message": "He said \"hello\""}`,
		},
		{
			name:     "braces inside strings",
			input:    `{"howTo": "Keep {core} tight"} trailing`,
			expected: `{"howTo": "Keep {core} tight"}`,
		},
		{
			name:     "no JSON at all",
			input:    "Sorry, I cannot help with that.",
			expected: "Sorry, I cannot help with that.",
		},
		{
			name:     "unbalanced object is returned as is",
			input:    `{"a": {"b": 1}`,
			expected: `{"a": {"b": 1}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := CleanJSONBlock(tt.input)
			if result != tt.expected {
				t.Errorf("CleanJSONBlock() = %q, want %q", result, tt.expected)
			}
		})
	}
}

func TestExtractJSONValue(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"simple object", `{"key": "value"}`, `{"key": "value"}`},
		{"object with array", `{"items": [1, 2, 3]}`, `{"items": [1, 2, 3]}`},
		{"array of objects", `[{"id": 1}, {"id": 2}] extra`, `[{"id": 1}, {"id": 2}]`},
		{"empty input", "", ""},
		{"not starting with brace", "not json", ""},
		{"never closed", `{"a": 1`, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := extractJSONValue(tt.input)
			if result != tt.expected {
				t.Errorf("extractJSONValue() = %q, want %q", result, tt.expected)
			}
		})
	}
}
