// Package storage provides persistent snapshot backends for the project index.
//
// It defines the Backend interface that all storage implementations must
// satisfy, along with common types used across backends. Backends persist
// the raw index content (diagrams, items, predicate metadata) and serve
// full-text search over predicate names.
package storage

import (
	"context"

	"github.com/obdakit/graphol-go/internal/graphol"
	"github.com/obdakit/graphol-go/internal/project"
)

// SearchResult represents one predicate occurrence matched by Search.
type SearchResult struct {
	// NodeID is the ID of the matching predicate node.
	NodeID string

	// Diagram is the diagram containing the occurrence.
	Diagram string

	// Type is the predicate type tag.
	Type graphol.ItemType

	// Name is the predicate display name.
	Name string

	// Score is the relevance score (higher is better).
	Score float64
}

// Backend defines the interface for storage implementations.
//
// Implementations must be thread-safe and support concurrent access.
type Backend interface {
	// Lifecycle methods

	// Initialize opens or creates the storage backend at the given path.
	// If readOnly is true, the backend is opened in read-only mode.
	Initialize(path string, readOnly bool) error

	// Close releases all resources held by the backend.
	Close() error

	// Bulk operations

	// Snapshot replaces the entire store with the current index content.
	Snapshot(ctx context.Context, px *project.Index) error

	// Restore replays the stored project into the given index.
	Restore(ctx context.Context, px *project.Index) error

	// Incremental record operations, mirrors of the index mutators

	// PutDiagram stores a diagram record.
	PutDiagram(ctx context.Context, id, name string) error

	// DeleteDiagram removes a diagram record (items are deleted separately).
	DeleteDiagram(ctx context.Context, id string) error

	// PutItem stores one node or edge record.
	PutItem(ctx context.Context, item graphol.Item) error

	// DeleteItem removes one node or edge record.
	DeleteItem(ctx context.Context, item graphol.Item) error

	// PutMeta stores predicate metadata, overwriting any previous value.
	PutMeta(ctx context.Context, meta graphol.PredicateMeta) error

	// DeleteMeta removes predicate metadata.
	DeleteMeta(ctx context.Context, typ graphol.ItemType, name string) error

	// Search

	// Search performs full-text search over predicate names and metadata
	// descriptions.
	Search(ctx context.Context, query string, limit int) ([]SearchResult, error)

	// Counters

	// ItemCount returns the number of stored item records.
	ItemCount() int

	// DiagramCount returns the number of stored diagram records.
	DiagramCount() int
}

// Mirror subscribes the backend to the index so every mutation is written
// through as it happens. Watch mode uses this to keep the snapshot current
// without re-snapshotting the whole project.
//
// The onError handler is invoked synchronously for write failures; it may
// be nil.
func Mirror(px *project.Index, backend Backend, onError func(error)) {
	report := func(err error) {
		if err != nil && onError != nil {
			onError(err)
		}
	}
	px.Subscribe(func(ev project.Event) {
		ctx := context.Background()
		switch ev.Kind {
		case project.EventDiagramAdded:
			name := ev.Diagram
			if d := px.Diagram(ev.Diagram); d != nil {
				name = d.Name
			}
			report(backend.PutDiagram(ctx, ev.Diagram, name))
		case project.EventDiagramRemoved:
			report(backend.DeleteDiagram(ctx, ev.Diagram))
		case project.EventItemAdded:
			report(backend.PutItem(ctx, ev.Item))
		case project.EventItemRemoved:
			report(backend.DeleteItem(ctx, ev.Item))
		case project.EventMetaAdded:
			report(backend.PutMeta(ctx, px.Meta(ev.Predicate.Type, ev.Predicate.Name)))
		case project.EventMetaRemoved:
			report(backend.DeleteMeta(ctx, ev.Predicate.Type, ev.Predicate.Name))
		}
	})
}
