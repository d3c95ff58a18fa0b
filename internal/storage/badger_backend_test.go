package storage

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/obdakit/graphol-go/internal/graphol"
	"github.com/obdakit/graphol-go/internal/project"
)

func setupTestBadgerBackend(t *testing.T) *BadgerBackend {
	t.Helper()

	backend := NewBadgerBackend()
	err := backend.Initialize(filepath.Join(t.TempDir(), "badger"), false)
	require.NoError(t, err)
	t.Cleanup(func() { backend.Close() })

	return backend
}

// familyIndex builds a small two-diagram project used across storage tests.
func familyIndex(t *testing.T) *project.Index {
	t.Helper()

	px := project.NewIndex()

	family := graphol.NewDiagram("family")
	familyPerson := family.NewNode(graphol.ConceptNode, "Person")
	father := family.NewNode(graphol.ConceptNode, "Father")
	family.NewEdge(graphol.InclusionEdge, father.ID(), familyPerson.ID())
	px.AddDiagram(family)

	org := graphol.NewDiagram("org")
	org.NewNode(graphol.ConceptNode, "Person")
	org.NewNode(graphol.RoleNode, "worksFor")
	px.AddDiagram(org)

	meta := graphol.NewPredicateMeta(graphol.ConceptNode, "Person")
	meta.Description = "a human being"
	px.AddMeta(graphol.ConceptNode, "Person", meta)

	return px
}

func TestBadgerBackend_Initialize(t *testing.T) {
	t.Parallel()

	t.Run("Success", func(t *testing.T) {
		t.Parallel()

		backend := NewBadgerBackend()
		err := backend.Initialize(filepath.Join(t.TempDir(), "badger"), false)

		assert.NoError(t, err)
		assert.NotNil(t, backend.db)

		backend.Close()
	})

	t.Run("ReadOnly", func(t *testing.T) {
		t.Parallel()

		dbPath := filepath.Join(t.TempDir(), "badger")

		backend1 := NewBadgerBackend()
		require.NoError(t, backend1.Initialize(dbPath, false))
		backend1.Close()

		backend2 := NewBadgerBackend()
		err := backend2.Initialize(dbPath, true)

		assert.NoError(t, err)
		backend2.Close()
	})
}

func TestBadgerBackend_PutItem(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	backend := setupTestBadgerBackend(t)

	node := &graphol.Node{NodeID: "n0", DiagramID: "family", NodeType: graphol.ConceptNode, Label: "Person"}
	edge := &graphol.Edge{EdgeID: "e0", DiagramID: "family", EdgeType: graphol.InclusionEdge, Source: "n1", Target: "n0"}

	require.NoError(t, backend.PutItem(ctx, node))
	require.NoError(t, backend.PutItem(ctx, edge))
	assert.Equal(t, 2, backend.ItemCount())

	// Overwriting the same key must not inflate the counter.
	require.NoError(t, backend.PutItem(ctx, node))
	assert.Equal(t, 2, backend.ItemCount())

	results, err := backend.Search(ctx, "Person", 10)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "n0", results[0].NodeID)
	assert.Equal(t, "family", results[0].Diagram)
}

func TestBadgerBackend_DeleteItem(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	backend := setupTestBadgerBackend(t)

	node := &graphol.Node{NodeID: "n0", DiagramID: "family", NodeType: graphol.ConceptNode, Label: "Person"}
	require.NoError(t, backend.PutItem(ctx, node))
	require.NoError(t, backend.DeleteItem(ctx, node))

	assert.Equal(t, 0, backend.ItemCount())

	results, err := backend.Search(ctx, "Person", 10)
	require.NoError(t, err)
	assert.Empty(t, results)

	// Deleting again stays a no-op.
	require.NoError(t, backend.DeleteItem(ctx, node))
	assert.Equal(t, 0, backend.ItemCount())
}

func TestBadgerBackend_Diagrams(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	backend := setupTestBadgerBackend(t)

	require.NoError(t, backend.PutDiagram(ctx, "family", "Family"))
	require.NoError(t, backend.PutDiagram(ctx, "org", "Organization"))
	assert.Equal(t, 2, backend.DiagramCount())

	require.NoError(t, backend.PutDiagram(ctx, "family", "Family v2"))
	assert.Equal(t, 2, backend.DiagramCount())

	require.NoError(t, backend.DeleteDiagram(ctx, "org"))
	assert.Equal(t, 1, backend.DiagramCount())
}

func TestBadgerBackend_MetaSearch(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	backend := setupTestBadgerBackend(t)

	node := &graphol.Node{NodeID: "n0", DiagramID: "family", NodeType: graphol.ConceptNode, Label: "Person"}
	require.NoError(t, backend.PutItem(ctx, node))

	meta := graphol.NewPredicateMeta(graphol.ConceptNode, "Person")
	meta.Description = "a human being"
	require.NoError(t, backend.PutMeta(ctx, meta))

	results, err := backend.Search(ctx, "human", 10)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "Person", results[0].Name)

	// Dropping the metadata makes the description unsearchable again.
	require.NoError(t, backend.DeleteMeta(ctx, graphol.ConceptNode, "Person"))

	results, err = backend.Search(ctx, "human", 10)
	require.NoError(t, err)
	assert.Empty(t, results)

	results, err = backend.Search(ctx, "Person", 10)
	require.NoError(t, err)
	assert.Len(t, results, 1)
}

func TestBadgerBackend_SnapshotRestore(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	backend := setupTestBadgerBackend(t)
	px := familyIndex(t)

	require.NoError(t, backend.Snapshot(ctx, px))
	assert.Equal(t, 2, backend.DiagramCount())
	assert.Equal(t, 5, backend.ItemCount())

	restored := project.NewIndex()
	require.NoError(t, backend.Restore(ctx, restored))

	assert.Equal(t, px.Stats(), restored.Stats())

	d := restored.Diagram("family")
	require.NotNil(t, d)
	assert.Equal(t, "family", d.Name)

	count, err := restored.Count(project.CountOptions{Predicate: graphol.ConceptNode})
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	meta := restored.Meta(graphol.ConceptNode, "Person")
	assert.Equal(t, "a human being", meta.Description)
}

func TestBadgerBackend_SnapshotReplaces(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	backend := setupTestBadgerBackend(t)

	stale := &graphol.Node{NodeID: "n9", DiagramID: "scratch", NodeType: graphol.ConceptNode, Label: "Stale"}
	require.NoError(t, backend.PutDiagram(ctx, "scratch", "Scratch"))
	require.NoError(t, backend.PutItem(ctx, stale))

	require.NoError(t, backend.Snapshot(ctx, familyIndex(t)))

	results, err := backend.Search(ctx, "Stale", 10)
	require.NoError(t, err)
	assert.Empty(t, results)
	assert.Equal(t, 2, backend.DiagramCount())
}

func TestBadgerBackend_CountsSurviveReopen(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	dbPath := filepath.Join(t.TempDir(), "badger")

	backend := NewBadgerBackend()
	require.NoError(t, backend.Initialize(dbPath, false))
	require.NoError(t, backend.Snapshot(ctx, familyIndex(t)))
	require.NoError(t, backend.Close())

	reopened := NewBadgerBackend()
	require.NoError(t, reopened.Initialize(dbPath, false))
	defer reopened.Close()

	assert.Equal(t, 2, reopened.DiagramCount())
	assert.Equal(t, 5, reopened.ItemCount())
}
