package listener

import (
	"context"
	"time"
)

// RetryPolicy — политика повторного получения соединения.
//
// Задержка: InitialInterval * Multiplier^(attempt-1), но не больше MaxInterval.
type RetryPolicy struct {
	// MaxAttempts — максимальное количество попыток (0 — без ограничения).
	MaxAttempts int

	// InitialInterval — задержка перед второй попыткой.
	InitialInterval time.Duration

	// MaxInterval — верхняя граница задержки.
	MaxInterval time.Duration

	// Multiplier — множитель задержки (<= 1 — фиксированная задержка).
	Multiplier float64
}

// DefaultRetryPolicy: 5 попыток, 100ms → 5s с множителем 2.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts:     5,
		InitialInterval: 100 * time.Millisecond,
		MaxInterval:     5 * time.Second,
		Multiplier:      2,
	}
}

// Delay возвращает задержку после неудачной попытки attempt (начиная с 1).
func (p RetryPolicy) Delay(attempt int) time.Duration {
	delay := p.InitialInterval
	if delay <= 0 {
		delay = 100 * time.Millisecond
	}

	maxDelay := p.MaxInterval
	if maxDelay <= 0 {
		maxDelay = 30 * time.Second
	}

	if p.Multiplier > 1 {
		for i := 1; i < attempt; i++ {
			delay = time.Duration(float64(delay) * p.Multiplier)
			if delay > maxDelay {
				break
			}
		}
	}

	return min(delay, maxDelay)
}

// Exhausted возвращает true, если после attempt попыток повторять больше нельзя.
func (p RetryPolicy) Exhausted(attempt int) bool {
	return p.MaxAttempts > 0 && attempt >= p.MaxAttempts
}

// sleep ждёт d или отмены контекста.
func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
