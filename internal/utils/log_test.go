package utils

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestTruncateForLog(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		input  string
		limit  int
		expect string
	}{
		{name: "non-positive limit", input: "Need a mover", limit: 0, expect: ""},
		{name: "fits", input: "Need a mover", limit: 20, expect: "Need a mover"},
		{name: "cut with ellipsis", input: "Need a mover", limit: 4, expect: "Need..."},
		{name: "prompt folded onto one line", input: "Request:\n  \"paint\"\n\nLaborers: []", limit: 100, expect: "Request: \"paint\" Laborers: []"},
		{name: "counts runes", input: "Дом ремонт", limit: 3, expect: "Дом..."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := TruncateForLog(tt.input, tt.limit); got != tt.expect {
				t.Fatalf("expected %q, got %q", tt.expect, got)
			}
		})
	}
}

func TestWaitFor(t *testing.T) {
	t.Parallel()

	if err := WaitFor(context.Background(), time.Millisecond); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	start := time.Now()
	if err := WaitFor(ctx, time.Hour); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if time.Since(start) > time.Second {
		t.Fatal("WaitFor must return as soon as the context is done")
	}

	if err := WaitFor(ctx, 0); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected cancelled context to be reported, got %v", err)
	}
}
