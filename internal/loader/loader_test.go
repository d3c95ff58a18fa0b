package loader

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/obdakit/graphol-go/internal/graphol"
	"github.com/obdakit/graphol-go/internal/project"
)

func writeDoc(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

const familyDoc = `{
  "id": "family",
  "name": "Family",
  "nodes": [
    {"id": "n0", "type": "concept_node", "label": "Person"},
    {"id": "n1", "type": "concept_node", "label": "Father"}
  ],
  "edges": [
    {"id": "e0", "type": "inclusion_edge", "source": "n1", "target": "n0"}
  ]
}`

func TestReadDiagram(t *testing.T) {
	t.Parallel()

	t.Run("Success", func(t *testing.T) {
		t.Parallel()

		path := writeDoc(t, t.TempDir(), "family.json", familyDoc)

		d, err := ReadDiagram(path)
		require.NoError(t, err)
		assert.Equal(t, "family", d.ID())
		assert.Equal(t, "Family", d.Name)
		assert.Len(t, d.Items(), 3)

		// Items carry the document's diagram id.
		node := d.Item("n0")
		require.NotNil(t, node)
		assert.Equal(t, "family", node.Diagram())
		assert.Equal(t, "Person", node.Text())
	})

	t.Run("IDDefaultsToFileName", func(t *testing.T) {
		t.Parallel()

		path := writeDoc(t, t.TempDir(), "pizza.json", `{"nodes": []}`)

		d, err := ReadDiagram(path)
		require.NoError(t, err)
		assert.Equal(t, "pizza", d.ID())
	})

	t.Run("InvalidJSON", func(t *testing.T) {
		t.Parallel()

		path := writeDoc(t, t.TempDir(), "broken.json", `{not json`)

		_, err := ReadDiagram(path)
		assert.Error(t, err)
	})

	t.Run("MissingFile", func(t *testing.T) {
		t.Parallel()

		_, err := ReadDiagram(filepath.Join(t.TempDir(), "absent.json"))
		assert.Error(t, err)
	})
}

func TestProjectLoader_Load(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeDoc(t, dir, "family.json", familyDoc)
	writeDoc(t, dir, "org.json", `{
  "id": "org",
  "nodes": [
    {"id": "n0", "type": "concept_node", "label": "Person"},
    {"id": "n1", "type": "role_node", "label": "worksFor"}
  ]
}`)
	writeDoc(t, dir, "meta.json", `[
  {"kind": "concept", "type": "concept_node", "name": "Person", "description": "a human being"}
]`)
	writeDoc(t, dir, "notes.txt", "not a diagram")
	writeDoc(t, dir, ".graphol/store.json", `{"id": "ignored"}`)

	px := project.NewIndex()
	count, err := NewProjectLoader(dir, px).Load()
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	assert.Len(t, px.Diagrams(), 2)
	assert.Len(t, px.Items("family"), 3)

	// Person occurs in both diagrams under one predicate identity.
	occurrences := px.Predicates(project.PredicateFilter{
		Type: graphol.ConceptNode,
		Name: "Person",
	})
	assert.Len(t, occurrences, 2)

	meta := px.Meta(graphol.ConceptNode, "Person")
	assert.Equal(t, "a human being", meta.Description)
}

func TestProjectLoader_Reload(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := writeDoc(t, dir, "family.json", familyDoc)

	px := project.NewIndex()
	l := NewProjectLoader(dir, px)
	_, err := l.Load()
	require.NoError(t, err)
	require.Len(t, px.Items("family"), 3)

	// Rewrite the document with one node dropped, then reload the file.
	writeDoc(t, dir, "family.json", `{
  "id": "family",
  "name": "Family",
  "nodes": [{"id": "n0", "type": "concept_node", "label": "Person"}]
}`)
	require.NoError(t, l.loadFile(path))

	assert.Len(t, px.Diagrams(), 1)
	assert.Len(t, px.Items("family"), 1)
	assert.Nil(t, px.Item("family", "n1"))
}

func TestProjectLoader_RemoveFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := writeDoc(t, dir, "family.json", familyDoc)

	px := project.NewIndex()
	l := NewProjectLoader(dir, px)
	_, err := l.Load()
	require.NoError(t, err)

	require.NoError(t, os.Remove(path))
	assert.True(t, l.removeFile(path))

	assert.True(t, px.IsEmpty())
	assert.Nil(t, px.Diagram("family"))

	// Removing an untracked path is a no-op.
	assert.False(t, l.removeFile(filepath.Join(dir, "absent.json")))
}

func TestProjectLoader_LoadSubdirectories(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeDoc(t, dir, "modules/family.json", familyDoc)

	px := project.NewIndex()
	count, err := NewProjectLoader(dir, px).Load()
	require.NoError(t, err)
	assert.Equal(t, 1, count)
	assert.NotNil(t, px.Diagram("family"))
}
