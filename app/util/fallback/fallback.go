package fallback

import (
	"context"
	"log/slog"
)

// Attempt runs primary and returns its result. If primary fails, the error
// is logged and swallowed, and the deterministic secondary produces the
// value instead. The returned bool reports whether the primary succeeded.
func Attempt[T any](ctx context.Context, name string, primary func(ctx context.Context) (T, error), secondary func() T) (T, bool) {
	if primary != nil {
		value, err := primary(ctx)
		if err == nil {
			return value, true
		}

		slog.Warn("Falling back to deterministic path",
			"name", name,
			"error", err)
	}

	return secondary(), false
}
