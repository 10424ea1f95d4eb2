package model

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrNoJSON is returned when a model response holds no object-shaped payload.
var ErrNoJSON = errors.New("no valid json found")

// ExtractJSON returns the substring from the first '{' to the last '}'.
// Leading prose, trailing prose and markdown fences are dropped by the same cut.
func ExtractJSON(s string) (string, error) {
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")

	if start == -1 || end == -1 || end <= start {
		return s, ErrNoJSON
	}

	return s[start : end+1], nil
}

// ParseJSON decodes a structured model response into T.
//
// The response is decoded as-is first. If that fails, the brace-bounded
// substring is decoded once more. Nothing else is attempted.
func ParseJSON[T any](raw string) (T, error) {
	var out T

	raw = strings.TrimSpace(raw)
	if err := json.Unmarshal([]byte(raw), &out); err == nil {
		return out, nil
	}

	candidate, err := ExtractJSON(raw)
	if err != nil {
		return out, err
	}

	out = *new(T)
	if err := json.Unmarshal([]byte(candidate), &out); err != nil {
		return out, fmt.Errorf("decode extracted json: %w", err)
	}
	return out, nil
}
