package loader

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/obdakit/graphol-go/internal/project"
)

func TestLoadGitignoreMatcher(t *testing.T) {
	t.Parallel()

	t.Run("NoFile", func(t *testing.T) {
		t.Parallel()

		matcher, err := loadGitignoreMatcher(t.TempDir())
		require.NoError(t, err)
		assert.Nil(t, matcher)
	})

	t.Run("Patterns", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		writeDoc(t, dir, ".gitignore", "# scratch space\ndrafts/\n*.bak.json\n")

		matcher, err := loadGitignoreMatcher(dir)
		require.NoError(t, err)
		require.NotNil(t, matcher)

		assert.True(t, matcher.Match([]string{"drafts"}, true))
		assert.True(t, matcher.Match([]string{"family.bak.json"}, false))
		assert.False(t, matcher.Match([]string{"family.json"}, false))
	})
}

func TestProjectLoader_ShouldWatchFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeDoc(t, dir, ".gitignore", "drafts/\n")

	matcher, err := loadGitignoreMatcher(dir)
	require.NoError(t, err)

	l := NewProjectLoader(dir, project.NewIndex())

	assert.True(t, l.shouldWatchFile(filepath.Join(dir, "family.json"), matcher))
	assert.True(t, l.shouldWatchFile(filepath.Join(dir, MetaFileName), matcher))
	assert.False(t, l.shouldWatchFile(filepath.Join(dir, "notes.txt"), matcher))
	assert.False(t, l.shouldWatchFile(filepath.Join(dir, "drafts", "family.json"), matcher))

	assert.True(t, l.shouldIgnoreDir(".git", filepath.Join(dir, ".git"), matcher))
	assert.True(t, l.shouldIgnoreDir("drafts", filepath.Join(dir, "drafts"), matcher))
	assert.False(t, l.shouldIgnoreDir("modules", filepath.Join(dir, "modules"), matcher))
}
