package ai

import (
	"context"
	"errors"
	"strings"

	"github.com/spigell/laborconnect/internal/laborer"
)

const (
	// FallbackReason is reported when the provider answered with something unusable.
	FallbackReason = "Manual match selected due to processing error."
	// GuidanceMessage tells the user what to type before asking for a match.
	GuidanceMessage = "Please describe what you need help with in the search bar (e.g., 'Need someone to help me move furniture')"
)

var (
	ErrEmptyQuery   = errors.New("query must not be empty")
	ErrNoCandidates = errors.New("no laborers to match against")
)

// Match is the advisor's pick. BestMatchID is not guaranteed to exist in the
// store; callers resolve it themselves.
type Match struct {
	BestMatchID string `json:"bestMatchId"`
	Reason      string `json:"reason"`
	// Fallback is set when the provider response could not be used.
	Fallback bool   `json:"-"`
	Raw      string `json:"-"`
}

// Advisor picks the single laborer that best fits a free-text request.
type Advisor interface {
	SmartMatch(ctx context.Context, query string, laborers *laborer.Laborers) (*Match, error)
}

// Candidate is the reduced laborer projection sent to the provider.
type Candidate struct {
	ID     string  `json:"id"`
	Name   string  `json:"name"`
	Skills string  `json:"skills"`
	Rate   float64 `json:"rate"`
	Rating float64 `json:"rating"`
	Bio    string  `json:"bio"`
}

// ValidateQuery returns ErrEmptyQuery for blank input.
func ValidateQuery(query string) error {
	if strings.TrimSpace(query) == "" {
		return ErrEmptyQuery
	}
	return nil
}

// Candidates projects laborers in store order.
func Candidates(laborers *laborer.Laborers) []Candidate {
	out := make([]Candidate, 0, laborers.Len())
	if laborers == nil {
		return out
	}
	for _, l := range laborers.Items {
		out = append(out, Candidate{
			ID:     l.ID,
			Name:   l.Name,
			Skills: strings.Join(l.Skills, ", "),
			Rate:   l.RatePerHour,
			Rating: l.Rating,
			Bio:    l.Bio,
		})
	}
	return out
}
