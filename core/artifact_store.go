package core

import (
	"context"
	"time"
)

// ArtifactStore persists generated binaries. Implementations must be
// goroutine-safe and must never silently overwrite an existing artifact.
//
// Reserve derives a stamp from t that is unused for every ArtifactKind, so an
// image and a model saved under the same stamp stay correlatable. Save writes
// data once and returns the artifact path. Path returns the path an artifact
// would have without writing it. Release ends a reservation once its
// artifacts are written or abandoned; stamps stay taken while any artifact
// under them exists. Delete removes a written artifact and is a no-op when
// none exists.
type ArtifactStore interface {
	Reserve(t time.Time) (string, error)
	Release(stamp string)
	Save(ctx context.Context, kind ArtifactKind, stamp string, data []byte) (string, error)
	Path(kind ArtifactKind, stamp string) string
	Get(ctx context.Context, kind ArtifactKind, stamp string) ([]byte, error)
	Delete(ctx context.Context, kind ArtifactKind, stamp string) error
	List(ctx context.Context) ([]string, error)
}
