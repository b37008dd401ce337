// Package remote declares the external collaborator surfaces the delivery
// core depends on: a path-keyed realtime store and a blob store. Both are
// provided by the hosting backend; the core only needs these primitives.
package remote

import (
	"context"
	"encoding/json"
)

// Store is a path-keyed JSON document store with upsert semantics. Paths are
// slash-separated, e.g. "messages/<user>/<peer>/<id>".
type Store interface {
	// Get returns the value at path; ok is false when absent.
	Get(ctx context.Context, path string) (value json.RawMessage, ok bool, err error)
	// Set upserts the full value at path.
	Set(ctx context.Context, path string, value any) error
	// Update merges the partial value into the object at path, creating it
	// when absent.
	Update(ctx context.Context, path string, partial map[string]any) error
	// Subscribe registers onChange for writes at or below path and returns
	// an unsubscribe func.
	Subscribe(path string, onChange func(path string, value json.RawMessage)) func()
}

// Blobs stores opaque binary objects (uploaded audio) and hands back stable
// references.
type Blobs interface {
	Upload(ctx context.Context, data []byte) (ref string, err error)
	URL(ref string) (string, error)
}
