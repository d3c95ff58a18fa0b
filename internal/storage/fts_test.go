package storage

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/obdakit/graphol-go/internal/graphol"
)

func TestTokenize(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		input    string
		expected []string
	}{
		{
			name:     "SimpleWord",
			input:    "person",
			expected: []string{"person"},
		},
		{
			name:     "CamelCase",
			input:    "hasAncestor",
			expected: []string{"hasancestor", "has", "ancestor"},
		},
		{
			name:     "SnakeCase",
			input:    "works_for",
			expected: []string{"works_for", "works", "for"},
		},
		{
			name:     "IRIStyle",
			input:    "family:Person",
			expected: []string{"family:person", "family", "person"},
		},
		{
			name:     "Empty",
			input:    "",
			expected: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			tokens := tokenize(tt.input)
			assert.ElementsMatch(t, tt.expected, tokens)
		})
	}
}

func setupTestFTS(t *testing.T) *FTSIndex {
	t.Helper()

	backend := NewBadgerBackend()
	err := backend.Initialize(filepath.Join(t.TempDir(), "badger"), false)
	require.NoError(t, err)
	t.Cleanup(func() { backend.Close() })

	return backend.fts
}

func TestFTSIndex_Search(t *testing.T) {
	t.Parallel()

	fts := setupTestFTS(t)

	docs := []struct {
		doc  ftsDoc
		text string
	}{
		{ftsDoc{NodeID: "n0", Diagram: "family", Type: graphol.ConceptNode, Name: "Person"}, "Person"},
		{ftsDoc{NodeID: "n1", Diagram: "family", Type: graphol.RoleNode, Name: "hasAncestor"}, "hasAncestor"},
		{ftsDoc{NodeID: "n2", Diagram: "org", Type: graphol.ConceptNode, Name: "Person"}, "Person a human being"},
	}
	for _, d := range docs {
		require.NoError(t, fts.Index(d.doc, d.text))
	}

	t.Run("ExactName", func(t *testing.T) {
		results, err := fts.Search("Person", 10)
		require.NoError(t, err)
		require.Len(t, results, 2)
		for _, r := range results {
			assert.Equal(t, "Person", r.Name)
		}
	})

	t.Run("CamelCasePart", func(t *testing.T) {
		results, err := fts.Search("ancestor", 10)
		require.NoError(t, err)
		require.Len(t, results, 1)
		assert.Equal(t, "n1", results[0].NodeID)
		assert.Equal(t, graphol.RoleNode, results[0].Type)
	})

	t.Run("DescriptionToken", func(t *testing.T) {
		results, err := fts.Search("human", 10)
		require.NoError(t, err)
		require.Len(t, results, 1)
		assert.Equal(t, "org", results[0].Diagram)
	})

	t.Run("Limit", func(t *testing.T) {
		results, err := fts.Search("Person", 1)
		require.NoError(t, err)
		assert.Len(t, results, 1)
	})

	t.Run("NoMatch", func(t *testing.T) {
		results, err := fts.Search("spaceship", 10)
		require.NoError(t, err)
		assert.Empty(t, results)
	})

	t.Run("EmptyQuery", func(t *testing.T) {
		results, err := fts.Search("", 10)
		require.NoError(t, err)
		assert.Empty(t, results)
	})
}

func TestFTSIndex_Remove(t *testing.T) {
	t.Parallel()

	fts := setupTestFTS(t)

	doc := ftsDoc{NodeID: "n0", Diagram: "family", Type: graphol.ConceptNode, Name: "Person"}
	require.NoError(t, fts.Index(doc, "Person"))

	results, err := fts.Search("Person", 10)
	require.NoError(t, err)
	require.Len(t, results, 1)

	require.NoError(t, fts.Remove("family", "n0"))

	results, err = fts.Search("Person", 10)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestFTSIndex_Reindex(t *testing.T) {
	t.Parallel()

	fts := setupTestFTS(t)

	doc := ftsDoc{NodeID: "n0", Diagram: "family", Type: graphol.ConceptNode, Name: "Person"}
	require.NoError(t, fts.Index(doc, "Person"))
	require.NoError(t, fts.Index(doc, "Person a human being"))

	// Stale tokens must not linger, new ones must resolve.
	results, err := fts.Search("human", 10)
	require.NoError(t, err)
	require.Len(t, results, 1)

	require.NoError(t, fts.Index(doc, "Person"))
	results, err = fts.Search("human", 10)
	require.NoError(t, err)
	assert.Empty(t, results)
}
