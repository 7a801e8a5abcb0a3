package client

import (
	"context"
	"time"
)

const (
	MaxRetries    = 3
	RetryInterval = 1 * time.Second
	RetryBackoff  = 2
)

// Policy -- явная политика повторов одного запроса. Повторяются только
// retryable-ошибки (429, 5xx, транспорт); терминальные возвращаются сразу.
// Повторы целого sync-задания -- отдельный слой в планировщике.
type Policy struct {
	Tries   int
	Delay   time.Duration
	Backoff int
}

func DefaultPolicy() Policy {
	return Policy{Tries: MaxRetries, Delay: RetryInterval, Backoff: RetryBackoff}
}

// Do выполняет fn до Tries раз с экспоненциальной паузой между попытками.
// Последняя ошибка возвращается после исчерпания попыток.
func (p Policy) Do(ctx context.Context, fn func() error) error {
	tries := p.Tries
	if tries < 1 {
		tries = 1
	}
	delay := p.Delay

	var lastErr error
	for attempt := 1; attempt <= tries; attempt++ {
		lastErr = fn()
		if lastErr == nil {
			return nil
		}
		if !Retryable(lastErr) {
			return lastErr
		}
		if attempt == tries {
			break
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
		delay *= time.Duration(p.Backoff)
	}
	return lastErr
}
