package ai

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/spigell/laborconnect/internal/laborer"
)

const (
	FieldBestMatchID = "bestMatchId"
	FieldReason      = "reason"
)

var errMissingField = errors.New("missing required field")

// DecodeMatch parses a provider payload strictly: both fields must be present
// non-empty strings.
func DecodeMatch(raw string) (*Match, error) {
	cleaned := extractJSON(raw)

	var data map[string]any
	if err := json.Unmarshal([]byte(cleaned), &data); err != nil {
		return nil, fmt.Errorf("parse match response: %w", err)
	}

	id, err := requiredString(data, FieldBestMatchID)
	if err != nil {
		return nil, err
	}
	reason, err := requiredString(data, FieldReason)
	if err != nil {
		return nil, err
	}

	return &Match{BestMatchID: id, Reason: strings.TrimSpace(reason), Raw: raw}, nil
}

// fallbackMatch picks the first candidate. laborers must not be empty.
func fallbackMatch(raw string, laborers *laborer.Laborers) *Match {
	return &Match{
		BestMatchID: laborers.Items[0].ID,
		Reason:      FallbackReason,
		Fallback:    true,
		Raw:         raw,
	}
}

func requiredString(data map[string]any, key string) (string, error) {
	value, ok := data[key]
	if !ok {
		return "", fmt.Errorf("%w %q", errMissingField, key)
	}
	s, ok := value.(string)
	if !ok {
		return "", fmt.Errorf("field %q is %T, want string", key, value)
	}
	if strings.TrimSpace(s) == "" {
		return "", fmt.Errorf("%w %q", errMissingField, key)
	}
	return s, nil
}

func extractJSON(raw string) string {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, "```") {
		raw = strings.TrimPrefix(raw, "```json")
		raw = strings.TrimPrefix(raw, "```")
		raw = strings.TrimSpace(raw)
		if idx := strings.LastIndex(raw, "```"); idx != -1 {
			raw = raw[:idx]
		}
	}
	raw = strings.Trim(raw, "`")
	return strings.TrimSpace(raw)
}
