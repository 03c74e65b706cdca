package store

import (
	"context"
	"encoding/json"
	"errors"
)

var (
	// ErrNotFound indicates no document exists at the requested path.
	ErrNotFound = errors.New("document not found")
	// ErrFetchFailed indicates the document exists but could not be decoded into the requested shape.
	ErrFetchFailed = errors.New("failed to fetch document")
)

// Transform mutates the current document value at a path. The raw argument is nil
// when no document exists yet. The returned value replaces the document atomically.
type Transform func(raw json.RawMessage) (interface{}, error)

// DocumentStore is a schemaless tree of JSON documents addressed by slash-delimited
// paths. Writes publish a change event so subscribers can re-read the path.
type DocumentStore interface {
	Get(ctx context.Context, path string, into interface{}) error
	Set(ctx context.Context, path string, value interface{}) error
	// Update applies transform under an optimistic transaction so that concurrent
	// read-modify-write cycles on the same path cannot lose each other's writes.
	Update(ctx context.Context, path string, transform Transform) error
	Delete(ctx context.Context, path string) error
	Exists(ctx context.Context, path string) (bool, error)
	// Watch emits an event for every committed write to the path until ctx is done.
	Watch(ctx context.Context, path string) (<-chan struct{}, error)
}
