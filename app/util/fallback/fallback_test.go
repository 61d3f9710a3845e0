package fallback

import (
	"context"
	"fmt"
	"testing"
)

func TestAttemptPrimarySucceeds(t *testing.T) {
	got, primaryUsed := Attempt(context.Background(), "test",
		func(ctx context.Context) (int, error) { return 42, nil },
		func() int { return 7 },
	)

	if !primaryUsed || got != 42 {
		t.Errorf("Attempt = (%d, %v), want (42, true)", got, primaryUsed)
	}
}

func TestAttemptFallsBack(t *testing.T) {
	got, primaryUsed := Attempt(context.Background(), "test",
		func(ctx context.Context) (int, error) { return 0, fmt.Errorf("nope") },
		func() int { return 7 },
	)

	if primaryUsed || got != 7 {
		t.Errorf("Attempt = (%d, %v), want (7, false)", got, primaryUsed)
	}
}

func TestAttemptNilPrimary(t *testing.T) {
	got, primaryUsed := Attempt[string](context.Background(), "test",
		nil,
		func() string { return "deterministic" },
	)

	if primaryUsed || got != "deterministic" {
		t.Errorf("Attempt = (%q, %v), want (deterministic, false)", got, primaryUsed)
	}
}
