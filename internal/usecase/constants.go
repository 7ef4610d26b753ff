package usecase

import "time"

const (
	// ReconciliationCacheTTL bounds how stale a cached drift check may be.
	ReconciliationCacheTTL = 5 * time.Minute

	// IdempotencyKeyTTL is how long idempotency keys are cached
	IdempotencyKeyTTL = 24 * time.Hour
)
