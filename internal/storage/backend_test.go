package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/obdakit/graphol-go/internal/graphol"
	"github.com/obdakit/graphol-go/internal/project"
)

func TestMemoryBackend_SnapshotRestore(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	backend := NewMemoryBackend()
	px := familyIndex(t)

	require.NoError(t, backend.Snapshot(ctx, px))
	assert.Equal(t, 2, backend.DiagramCount())
	assert.Equal(t, 5, backend.ItemCount())

	restored := project.NewIndex()
	require.NoError(t, backend.Restore(ctx, restored))
	assert.Equal(t, px.Stats(), restored.Stats())

	meta := restored.Meta(graphol.ConceptNode, "Person")
	assert.Equal(t, "a human being", meta.Description)
}

func TestMemoryBackend_Search(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	backend := NewMemoryBackend()
	require.NoError(t, backend.Snapshot(ctx, familyIndex(t)))

	t.Run("NameAcrossDiagrams", func(t *testing.T) {
		results, err := backend.Search(ctx, "Person", 10)
		require.NoError(t, err)
		require.Len(t, results, 2)
		diagrams := []string{results[0].Diagram, results[1].Diagram}
		assert.ElementsMatch(t, []string{"family", "org"}, diagrams)
	})

	t.Run("Description", func(t *testing.T) {
		results, err := backend.Search(ctx, "human", 10)
		require.NoError(t, err)
		require.Len(t, results, 2)
		for _, r := range results {
			assert.Equal(t, "Person", r.Name)
		}
	})

	t.Run("CamelCasePart", func(t *testing.T) {
		results, err := backend.Search(ctx, "works", 10)
		require.NoError(t, err)
		require.Len(t, results, 1)
		assert.Equal(t, graphol.RoleNode, results[0].Type)
	})

	t.Run("Limit", func(t *testing.T) {
		results, err := backend.Search(ctx, "Person", 1)
		require.NoError(t, err)
		assert.Len(t, results, 1)
	})
}

func TestMirror(t *testing.T) {
	t.Parallel()

	backend := NewMemoryBackend()
	px := project.NewIndex()
	Mirror(px, backend, nil)

	family := graphol.NewDiagram("family")
	person := family.NewNode(graphol.ConceptNode, "Person")
	father := family.NewNode(graphol.ConceptNode, "Father")
	family.NewEdge(graphol.InclusionEdge, father.ID(), person.ID())

	px.AddDiagram(family)
	assert.Equal(t, 1, backend.DiagramCount())
	assert.Equal(t, 3, backend.ItemCount())

	meta := graphol.NewPredicateMeta(graphol.ConceptNode, "Person")
	meta.Description = "a human being"
	px.AddMeta(graphol.ConceptNode, "Person", meta)

	results, err := backend.Search(context.Background(), "human", 10)
	require.NoError(t, err)
	assert.Len(t, results, 1)

	px.RemoveMeta(graphol.ConceptNode, "Person")
	results, err = backend.Search(context.Background(), "human", 10)
	require.NoError(t, err)
	assert.Empty(t, results)

	px.RemoveDiagram(family)
	assert.Equal(t, 0, backend.DiagramCount())
	assert.Equal(t, 0, backend.ItemCount())
}

func TestMirror_ReportsErrors(t *testing.T) {
	t.Parallel()

	var seen []error
	backend := &failingBackend{MemoryBackend: NewMemoryBackend()}
	px := project.NewIndex()
	Mirror(px, backend, func(err error) { seen = append(seen, err) })

	px.AddDiagram(graphol.NewDiagram("family"))
	require.Len(t, seen, 1)
	assert.ErrorIs(t, seen[0], errWriteFailed)
}

type failingBackend struct {
	*MemoryBackend
}

func (f *failingBackend) PutDiagram(ctx context.Context, id, name string) error {
	return errWriteFailed
}

var errWriteFailed = assert.AnError
