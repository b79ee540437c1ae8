package shared

import "context"

// CacheInvalidator drops cached read models after a write.
type CacheInvalidator interface {
	Bump(ctx context.Context) error
}
