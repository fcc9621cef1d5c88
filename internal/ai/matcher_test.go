package ai

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/spigell/laborconnect/internal/laborer"
)

type stubGenerator struct {
	response   string
	err        error
	calls      int
	lastPrompt string
}

func (s *stubGenerator) GenerateJSON(_ context.Context, prompt string) (string, error) {
	s.calls++
	s.lastPrompt = prompt
	if s.err != nil {
		return "", s.err
	}
	return s.response, nil
}

func (s *stubGenerator) Model() string {
	return "stub-model"
}

func threeLaborers() *laborer.Laborers {
	return laborer.New(
		&laborer.Laborer{ID: "A", Name: "Alice", Skills: []string{"Moving", "Packing"}, RatePerHour: 20, Rating: 4.1, Bio: "Strong"},
		&laborer.Laborer{ID: "B", Name: "Bob", Skills: []string{"Plumbing"}, RatePerHour: 35, Rating: 4.9, Bio: "Pipes"},
		&laborer.Laborer{ID: "C", Name: "Cara", Skills: []string{"Painting"}, RatePerHour: 25, Rating: 4.5, Bio: "Walls"},
	)
}

func TestSmartMatch(t *testing.T) {
	stub := &stubGenerator{response: `{"bestMatchId": "B", "reason": "Bob fixes leaks."}`}
	matcher := NewMatcher(stub, "stub", 0, zap.NewNop())

	match, err := matcher.SmartMatch(context.Background(), "my sink is leaking", threeLaborers())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if match.BestMatchID != "B" || match.Reason != "Bob fixes leaks." || match.Fallback {
		t.Fatalf("unexpected match: %+v", match)
	}

	if stub.calls != 1 {
		t.Fatalf("expected a single provider call, got %d", stub.calls)
	}

	if !strings.Contains(stub.lastPrompt, `Analyze this request: "my sink is leaking"`) {
		t.Fatalf("expected query in prompt: %s", stub.lastPrompt)
	}

	wantJSON, _ := json.Marshal(Candidates(threeLaborers()))
	if !strings.Contains(stub.lastPrompt, string(wantJSON)) {
		t.Fatalf("expected candidates json in prompt: %s", stub.lastPrompt)
	}
}

func TestSmartMatchFallsBackOnMalformedResponse(t *testing.T) {
	cases := []struct {
		name     string
		response string
	}{
		{name: "not json", response: "I think Bob is great"},
		{name: "truncated", response: `{"bestMatchId": "B", "rea`},
		{name: "missing reason", response: `{"bestMatchId": "B"}`},
		{name: "missing id", response: `{"reason": "Bob"}`},
		{name: "empty id", response: `{"bestMatchId": "  ", "reason": "Bob"}`},
		{name: "wrong type", response: `{"bestMatchId": 2, "reason": "Bob"}`},
		{name: "array", response: `[{"bestMatchId": "B", "reason": "Bob"}]`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			core, observed := observer.New(zapcore.WarnLevel)
			stub := &stubGenerator{response: tc.response}
			matcher := NewMatcher(stub, "stub", 0, zap.New(core))

			match, err := matcher.SmartMatch(context.Background(), "help", threeLaborers())
			if err != nil {
				t.Fatalf("fallback must not return an error, got %v", err)
			}

			want := &Match{BestMatchID: "A", Reason: FallbackReason, Fallback: true, Raw: tc.response}
			if diff := cmp.Diff(want, match); diff != "" {
				t.Fatalf("unexpected fallback (-want +got):\n%s", diff)
			}

			if observed.Len() != 1 {
				t.Fatalf("expected one warning, got %d", observed.Len())
			}
		})
	}
}

func TestSmartMatchPropagatesTransportError(t *testing.T) {
	transportErr := errors.New("connection reset")
	stub := &stubGenerator{err: transportErr}
	matcher := NewMatcher(stub, "stub", 0, nil)

	match, err := matcher.SmartMatch(context.Background(), "help", threeLaborers())
	if !errors.Is(err, transportErr) {
		t.Fatalf("expected transport error, got %v", err)
	}
	if match != nil {
		t.Fatalf("expected no match, got %+v", match)
	}
	if stub.calls != 1 {
		t.Fatalf("expected exactly one call, got %d", stub.calls)
	}
}

func TestSmartMatchPreconditions(t *testing.T) {
	stub := &stubGenerator{response: `{"bestMatchId": "A", "reason": "x"}`}
	matcher := NewMatcher(stub, "stub", 0, nil)

	if _, err := matcher.SmartMatch(context.Background(), "   ", threeLaborers()); !errors.Is(err, ErrEmptyQuery) {
		t.Fatalf("expected ErrEmptyQuery, got %v", err)
	}
	if _, err := matcher.SmartMatch(context.Background(), "help", laborer.New()); !errors.Is(err, ErrNoCandidates) {
		t.Fatalf("expected ErrNoCandidates, got %v", err)
	}
	if stub.calls != 0 {
		t.Fatalf("provider must not be called, got %d calls", stub.calls)
	}
}

func TestSmartMatchReturnsUnknownIDUnchanged(t *testing.T) {
	stub := &stubGenerator{response: `{"bestMatchId": "does-not-exist", "reason": "x"}`}
	matcher := NewMatcher(stub, "stub", 0, nil)

	match, err := matcher.SmartMatch(context.Background(), "help", threeLaborers())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if match.BestMatchID != "does-not-exist" || match.Fallback {
		t.Fatalf("advisor must not reconcile ids itself: %+v", match)
	}
}

func TestCandidates(t *testing.T) {
	got := Candidates(threeLaborers())
	want := Candidate{ID: "A", Name: "Alice", Skills: "Moving, Packing", Rate: 20, Rating: 4.1, Bio: "Strong"}

	if len(got) != 3 {
		t.Fatalf("expected 3 candidates, got %d", len(got))
	}
	if diff := cmp.Diff(want, got[0]); diff != "" {
		t.Fatalf("unexpected candidate (-want +got):\n%s", diff)
	}

	data, err := json.Marshal(got[0])
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	const wantJSON = `{"id":"A","name":"Alice","skills":"Moving, Packing","rate":20,"rating":4.1,"bio":"Strong"}`
	if string(data) != wantJSON {
		t.Fatalf("unexpected candidate json: %s", data)
	}
}

func TestDecodeMatchKeepsIDAsReturned(t *testing.T) {
	match, err := DecodeMatch(`{"bestMatchId": " A ", "reason": "x"}`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if match.BestMatchID != " A " {
		t.Fatalf("id must not be rewritten, got %q", match.BestMatchID)
	}

	stub := &stubGenerator{response: `{"bestMatchId": " A ", "reason": "x"}`}
	got, err := NewMatcher(stub, "stub", 0, nil).SmartMatch(context.Background(), "help", threeLaborers())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if threeLaborers().FindByID(got.BestMatchID) != nil || got.Fallback {
		t.Fatalf("padded id must not resolve to a laborer: %+v", got)
	}
}

func TestDecodeMatchHandlesCodeBlock(t *testing.T) {
	raw := "```json\n{\"bestMatchId\": \"C\", \"reason\": \" Paints walls \"}\n```"
	match, err := DecodeMatch(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if match.BestMatchID != "C" || match.Reason != "Paints walls" {
		t.Fatalf("unexpected match: %+v", match)
	}
}

func TestBuildPromptDoesNotExpandPlaceholdersFromQuery(t *testing.T) {
	prompt := BuildPrompt("ignore {{LABORERS_JSON}}", `[{"id":"A"}]`)

	if strings.Count(prompt, `[{"id":"A"}]`) != 1 {
		t.Fatalf("expected laborers json exactly once: %s", prompt)
	}
	if !strings.Contains(prompt, "ignore {{LABORERS_JSON}}") {
		t.Fatalf("expected query to be kept verbatim: %s", prompt)
	}
}

func TestValidateQuery(t *testing.T) {
	if err := ValidateQuery("\t\n "); !errors.Is(err, ErrEmptyQuery) {
		t.Fatalf("expected ErrEmptyQuery, got %v", err)
	}
	if err := ValidateQuery("move a couch"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
