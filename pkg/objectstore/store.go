package objectstore

import (
	"context"
	"time"
)

// Object is a source document held in external storage.
type Object struct {
	Name      string
	Size      int64
	UpdatedAt time.Time
}

// Store is the read-only view of the curriculum bucket the pipelines need.
type Store interface {
	List(ctx context.Context) ([]Object, error)
	// Download fails with NotFound for a missing object and EmptyPayload for
	// a zero-byte one.
	Download(ctx context.Context, name string) ([]byte, error)
}
