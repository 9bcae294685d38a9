package lock

import (
	"context"
	"time"
)

// Locker hands out short-lived exclusive leases on string keys. It guards
// the check-then-insert of document ingestion across workers and replicas.
type Locker interface {
	// Acquire returns acquired=false without error when the key is held
	// elsewhere. release is nil unless acquired.
	Acquire(ctx context.Context, key string, ttl time.Duration) (release func(), acquired bool, err error)
}
