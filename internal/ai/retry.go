package ai

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/spigell/laborconnect/internal/utils"
)

const defaultBackoff = time.Second

// CallPolicy bounds a single provider call. The zero value makes exactly one
// attempt with no timeout.
type CallPolicy struct {
	MaxRetries int
	Timeout    time.Duration
	Backoff    time.Duration
}

// Do runs call, retrying errors accepted by temporary up to MaxRetries times
// with linear backoff.
func (p CallPolicy) Do(ctx context.Context, logger *zap.Logger, temporary func(error) bool, call func(context.Context) (string, error)) (string, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	attempts := 1 + max(p.MaxRetries, 0)
	backoff := p.Backoff
	if backoff <= 0 {
		backoff = defaultBackoff
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		out, err := p.once(ctx, call)
		if err == nil {
			return out, nil
		}
		lastErr = err

		if attempt == attempts || temporary == nil || !temporary(err) {
			break
		}

		delay := backoff * time.Duration(attempt)
		logger.Warn("temporary ai provider error, retrying",
			zap.Error(err),
			zap.Int("attempt", attempt),
			zap.Int("max_attempts", attempts),
			zap.Duration("delay", delay),
		)

		if err := utils.WaitFor(ctx, delay); err != nil {
			return "", err
		}
	}

	return "", lastErr
}

func (p CallPolicy) once(ctx context.Context, call func(context.Context) (string, error)) (string, error) {
	if p.Timeout <= 0 {
		return call(ctx)
	}

	ctx, cancel := context.WithTimeout(ctx, p.Timeout)
	defer cancel()
	return call(ctx)
}
