package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/dgraph-io/badger/v4"

	"github.com/obdakit/graphol-go/internal/graphol"
	"github.com/obdakit/graphol-go/internal/project"
)

// Key prefixes for project records
const (
	prefixDiagram = "d:" // d:diagramID -> diagram record
	prefixNode    = "n:" // n:diagramID:nodeID -> node record
	prefixEdge    = "e:" // e:diagramID:edgeID -> edge record
	prefixMeta    = "m:" // m:type:name -> predicate metadata record
)

// diagramRecord is the persisted form of a diagram header.
type diagramRecord struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// BadgerBackend implements Backend using BadgerDB for persistence.
type BadgerBackend struct {
	db  *badger.DB
	fts *FTSIndex

	mu           sync.RWMutex
	itemCount    int
	diagramCount int
}

// NewBadgerBackend creates a new uninitialized BadgerDB backend.
func NewBadgerBackend() *BadgerBackend {
	return &BadgerBackend{}
}

// Initialize opens or creates the BadgerDB database at the given path.
func (b *BadgerBackend) Initialize(path string, readOnly bool) error {
	opts := badger.DefaultOptions(path)
	opts.ReadOnly = readOnly
	opts = opts.WithLoggingLevel(badger.ERROR)

	db, err := badger.Open(opts)
	if err != nil {
		return fmt.Errorf("opening badger database: %w", err)
	}

	b.db = db
	b.fts = NewFTSIndex(db)

	return b.loadCounts()
}

// Close closes the BadgerDB database.
func (b *BadgerBackend) Close() error {
	if b.db == nil {
		return nil
	}
	err := b.db.Close()
	b.db = nil
	return err
}

// loadCounts scans the store once to initialize the in-memory counters.
func (b *BadgerBackend) loadCounts() error {
	var diagrams, items int
	err := b.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			key := string(it.Item().Key())
			switch {
			case len(key) >= 2 && key[:2] == prefixDiagram:
				diagrams++
			case len(key) >= 2 && (key[:2] == prefixNode || key[:2] == prefixEdge):
				items++
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("counting records: %w", err)
	}

	b.mu.Lock()
	b.diagramCount = diagrams
	b.itemCount = items
	b.mu.Unlock()
	return nil
}

// itemKey builds the record key for a node or edge.
func itemKey(item graphol.Item) string {
	prefix := prefixNode
	if item.IsEdge() {
		prefix = prefixEdge
	}
	return prefix + item.Diagram() + ":" + item.ID()
}

// metaKey builds the record key for predicate metadata.
func metaKey(typ graphol.ItemType, name string) string {
	return prefixMeta + string(typ) + ":" + name
}

// Snapshot replaces the entire store with the current index content.
func (b *BadgerBackend) Snapshot(ctx context.Context, px *project.Index) error {
	if err := b.db.DropAll(); err != nil {
		return fmt.Errorf("clearing store: %w", err)
	}

	wb := b.db.NewWriteBatch()
	defer wb.Cancel()

	diagrams := px.Diagrams()
	for _, d := range diagrams {
		rec, err := json.Marshal(diagramRecord{ID: d.ID(), Name: d.Name})
		if err != nil {
			return fmt.Errorf("marshaling diagram %s: %w", d.ID(), err)
		}
		if err := wb.Set([]byte(prefixDiagram+d.ID()), rec); err != nil {
			return err
		}
	}

	items := px.Items()
	for _, item := range items {
		if err := ctx.Err(); err != nil {
			return err
		}
		rec, err := json.Marshal(item)
		if err != nil {
			return fmt.Errorf("marshaling item %s: %w", item.ID(), err)
		}
		if err := wb.Set([]byte(itemKey(item)), rec); err != nil {
			return err
		}
	}

	var metas []graphol.PredicateMeta
	for _, key := range px.Metas() {
		metas = append(metas, px.Meta(key.Type, key.Name))
	}
	for _, meta := range metas {
		rec, err := json.Marshal(meta)
		if err != nil {
			return fmt.Errorf("marshaling metadata %s: %w", meta.Name, err)
		}
		if err := wb.Set([]byte(metaKey(meta.Type, meta.Name)), rec); err != nil {
			return err
		}
	}

	if err := wb.Flush(); err != nil {
		return fmt.Errorf("flushing snapshot: %w", err)
	}

	// Rebuild the FTS index from the predicate occurrences.
	for _, item := range items {
		if !item.IsPredicate() {
			continue
		}
		if err := b.indexOccurrence(item, px.Meta(item.Type(), item.Text()).Description); err != nil {
			return err
		}
	}

	b.mu.Lock()
	b.diagramCount = len(diagrams)
	b.itemCount = len(items)
	b.mu.Unlock()
	return nil
}

// Restore replays the stored project into the given index.
func (b *BadgerBackend) Restore(ctx context.Context, px *project.Index) error {
	diagrams := make(map[string]*graphol.Diagram)
	var metas []graphol.PredicateMeta

	err := b.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(prefixDiagram)
		it := txn.NewIterator(opts)
		for it.Rewind(); it.Valid(); it.Next() {
			var rec diagramRecord
			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &rec)
			}); err != nil {
				return fmt.Errorf("unmarshaling diagram record: %w", err)
			}
			d := graphol.NewDiagram(rec.ID)
			d.Name = rec.Name
			diagrams[rec.ID] = d
		}
		it.Close()

		restoreItem := func(val []byte, isEdge bool) error {
			var item graphol.Item
			if isEdge {
				edge := &graphol.Edge{}
				if err := json.Unmarshal(val, edge); err != nil {
					return fmt.Errorf("unmarshaling edge record: %w", err)
				}
				item = edge
			} else {
				node := &graphol.Node{}
				if err := json.Unmarshal(val, node); err != nil {
					return fmt.Errorf("unmarshaling node record: %w", err)
				}
				item = node
			}
			d, ok := diagrams[item.Diagram()]
			if !ok {
				d = graphol.NewDiagram(item.Diagram())
				diagrams[item.Diagram()] = d
			}
			d.AddItem(item)
			return nil
		}

		for _, prefix := range []string{prefixNode, prefixEdge} {
			opts := badger.DefaultIteratorOptions
			opts.Prefix = []byte(prefix)
			it := txn.NewIterator(opts)
			for it.Rewind(); it.Valid(); it.Next() {
				isEdge := prefix == prefixEdge
				if err := it.Item().Value(func(val []byte) error {
					return restoreItem(val, isEdge)
				}); err != nil {
					it.Close()
					return err
				}
			}
			it.Close()
		}

		opts = badger.DefaultIteratorOptions
		opts.Prefix = []byte(prefixMeta)
		mit := txn.NewIterator(opts)
		defer mit.Close()
		for mit.Rewind(); mit.Valid(); mit.Next() {
			var meta graphol.PredicateMeta
			if err := mit.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &meta)
			}); err != nil {
				return fmt.Errorf("unmarshaling metadata record: %w", err)
			}
			metas = append(metas, meta)
		}
		return nil
	})
	if err != nil {
		return err
	}

	for _, d := range diagrams {
		if err := ctx.Err(); err != nil {
			return err
		}
		px.AddDiagram(d)
	}
	for _, meta := range metas {
		px.AddMeta(meta.Type, meta.Name, meta)
	}
	return nil
}

// PutDiagram stores a diagram record.
func (b *BadgerBackend) PutDiagram(ctx context.Context, id, name string) error {
	rec, err := json.Marshal(diagramRecord{ID: id, Name: name})
	if err != nil {
		return fmt.Errorf("marshaling diagram %s: %w", id, err)
	}
	created, err := b.setRecord(prefixDiagram+id, rec)
	if err != nil {
		return err
	}
	if created {
		b.mu.Lock()
		b.diagramCount++
		b.mu.Unlock()
	}
	return nil
}

// DeleteDiagram removes a diagram record.
func (b *BadgerBackend) DeleteDiagram(ctx context.Context, id string) error {
	existed, err := b.deleteRecord(prefixDiagram + id)
	if err != nil {
		return err
	}
	if existed {
		b.mu.Lock()
		b.diagramCount--
		b.mu.Unlock()
	}
	return nil
}

// PutItem stores one node or edge record and indexes predicate occurrences
// for search.
func (b *BadgerBackend) PutItem(ctx context.Context, item graphol.Item) error {
	rec, err := json.Marshal(item)
	if err != nil {
		return fmt.Errorf("marshaling item %s: %w", item.ID(), err)
	}
	created, err := b.setRecord(itemKey(item), rec)
	if err != nil {
		return err
	}
	if created {
		b.mu.Lock()
		b.itemCount++
		b.mu.Unlock()
	}

	if item.IsPredicate() {
		return b.indexOccurrence(item, b.storedDescription(item.Type(), item.Text()))
	}
	return nil
}

// DeleteItem removes one node or edge record.
func (b *BadgerBackend) DeleteItem(ctx context.Context, item graphol.Item) error {
	existed, err := b.deleteRecord(itemKey(item))
	if err != nil {
		return err
	}
	if existed {
		b.mu.Lock()
		b.itemCount--
		b.mu.Unlock()
	}

	if item.IsPredicate() {
		return b.fts.Remove(item.Diagram(), item.ID())
	}
	return nil
}

// PutMeta stores predicate metadata and reindexes the predicate's stored
// occurrences so the description becomes searchable.
func (b *BadgerBackend) PutMeta(ctx context.Context, meta graphol.PredicateMeta) error {
	rec, err := json.Marshal(meta)
	if err != nil {
		return fmt.Errorf("marshaling metadata %s: %w", meta.Name, err)
	}
	if _, err := b.setRecord(metaKey(meta.Type, meta.Name), rec); err != nil {
		return err
	}
	return b.reindexPredicate(meta.Type, meta.Name, meta.Description)
}

// DeleteMeta removes predicate metadata.
func (b *BadgerBackend) DeleteMeta(ctx context.Context, typ graphol.ItemType, name string) error {
	if _, err := b.deleteRecord(metaKey(typ, name)); err != nil {
		return err
	}
	return b.reindexPredicate(typ, name, "")
}

// Search performs full-text search over predicate names and descriptions.
func (b *BadgerBackend) Search(ctx context.Context, query string, limit int) ([]SearchResult, error) {
	if b.fts == nil {
		return []SearchResult{}, nil
	}
	return b.fts.Search(query, limit)
}

// ItemCount returns the number of stored item records.
func (b *BadgerBackend) ItemCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.itemCount
}

// DiagramCount returns the number of stored diagram records.
func (b *BadgerBackend) DiagramCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.diagramCount
}

// setRecord writes one record, reporting whether the key was new.
func (b *BadgerBackend) setRecord(key string, value []byte) (bool, error) {
	created := false
	err := b.db.Update(func(txn *badger.Txn) error {
		_, err := txn.Get([]byte(key))
		if errors.Is(err, badger.ErrKeyNotFound) {
			created = true
		} else if err != nil {
			return err
		}
		return txn.Set([]byte(key), value)
	})
	if err != nil {
		return false, fmt.Errorf("writing record %s: %w", key, err)
	}
	return created, nil
}

// deleteRecord removes one record, reporting whether the key existed.
func (b *BadgerBackend) deleteRecord(key string) (bool, error) {
	existed := false
	err := b.db.Update(func(txn *badger.Txn) error {
		_, err := txn.Get([]byte(key))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		} else if err != nil {
			return err
		}
		existed = true
		return txn.Delete([]byte(key))
	})
	if err != nil {
		return false, fmt.Errorf("deleting record %s: %w", key, err)
	}
	return existed, nil
}

// indexOccurrence writes one predicate occurrence into the FTS index.
func (b *BadgerBackend) indexOccurrence(item graphol.Item, description string) error {
	text := item.Text()
	if description != "" {
		text += " " + description
	}
	return b.fts.Index(ftsDoc{
		NodeID:  item.ID(),
		Diagram: item.Diagram(),
		Type:    item.Type(),
		Name:    item.Text(),
	}, text)
}

// storedDescription looks up the description from a stored metadata record.
func (b *BadgerBackend) storedDescription(typ graphol.ItemType, name string) string {
	var description string
	_ = b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(metaKey(typ, name)))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			var meta graphol.PredicateMeta
			if err := json.Unmarshal(val, &meta); err != nil {
				return err
			}
			description = meta.Description
			return nil
		})
	})
	return description
}

// reindexPredicate refreshes the FTS entries of every stored occurrence
// of one predicate identity.
func (b *BadgerBackend) reindexPredicate(typ graphol.ItemType, name, description string) error {
	var occurrences []*graphol.Node

	err := b.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(prefixNode)
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			var node graphol.Node
			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &node)
			}); err != nil {
				return err
			}
			if node.NodeType == typ && node.Label == name {
				n := node
				occurrences = append(occurrences, &n)
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("scanning occurrences of %s: %w", name, err)
	}

	for _, node := range occurrences {
		if err := b.indexOccurrence(node, description); err != nil {
			return err
		}
	}
	return nil
}
