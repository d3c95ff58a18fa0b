// Package loader reads project directories into the index.
//
// A project directory holds one JSON document per diagram plus an optional
// meta.json carrying predicate metadata. The loader builds graphol diagrams
// from the documents and feeds them through the index mutators, so every
// load exercises the same paths as interactive editing.
package loader

import (
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/obdakit/graphol-go/internal/graphol"
	"github.com/obdakit/graphol-go/internal/project"
)

// MetaFileName is the project-level predicate metadata document.
const MetaFileName = "meta.json"

// diagramDoc is the on-disk form of one diagram.
type diagramDoc struct {
	ID    string         `json:"id"`
	Name  string         `json:"name,omitempty"`
	Nodes []graphol.Node `json:"nodes,omitempty"`
	Edges []graphol.Edge `json:"edges,omitempty"`
}

// ProjectLoader loads a project directory into an index and keeps track of
// which file produced which diagram, so watch mode can reload and remove
// diagrams as their files change.
type ProjectLoader struct {
	dir string
	px  *project.Index

	// byPath maps absolute document paths to diagram ids.
	byPath map[string]string
}

// NewProjectLoader creates a loader for the given project directory.
func NewProjectLoader(dir string, px *project.Index) *ProjectLoader {
	return &ProjectLoader{
		dir:    dir,
		px:     px,
		byPath: make(map[string]string),
	}
}

// Load reads every diagram document under the project directory into the
// index, then applies meta.json if present. Returns the number of diagrams
// loaded.
func (l *ProjectLoader) Load() (int, error) {
	count := 0
	err := filepath.WalkDir(l.dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != l.dir && shouldSkipDir(d.Name()) {
				return filepath.SkipDir
			}
			return nil
		}
		if !isDiagramDoc(path) {
			return nil
		}
		if err := l.loadFile(path); err != nil {
			return err
		}
		count++
		return nil
	})
	if err != nil {
		return count, fmt.Errorf("loading project %s: %w", l.dir, err)
	}

	if err := l.loadMeta(); err != nil {
		return count, err
	}
	return count, nil
}

// loadFile reads one diagram document and replaces its previous version in
// the index, if any.
func (l *ProjectLoader) loadFile(path string) error {
	diagram, err := ReadDiagram(path)
	if err != nil {
		return err
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}

	// Remove the stale version first so the reload flows through the
	// regular remove-then-add notification sequence.
	if oldID, ok := l.byPath[abs]; ok {
		if old := l.px.Diagram(oldID); old != nil {
			l.px.RemoveDiagram(old)
		}
	} else if old := l.px.Diagram(diagram.ID()); old != nil {
		l.px.RemoveDiagram(old)
	}

	l.px.AddDiagram(diagram)
	l.byPath[abs] = diagram.ID()
	return nil
}

// removeFile drops the diagram loaded from a deleted document.
func (l *ProjectLoader) removeFile(path string) bool {
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}

	id, ok := l.byPath[abs]
	if !ok {
		return false
	}
	delete(l.byPath, abs)

	if d := l.px.Diagram(id); d != nil {
		return l.px.RemoveDiagram(d)
	}
	return false
}

// loadMeta applies the project-level meta.json, if present.
func (l *ProjectLoader) loadMeta() error {
	path := filepath.Join(l.dir, MetaFileName)
	content, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}

	var metas []graphol.PredicateMeta
	if err := json.Unmarshal(content, &metas); err != nil {
		return fmt.Errorf("parsing %s: %w", path, err)
	}

	for _, meta := range metas {
		l.px.AddMeta(meta.Type, meta.Name, meta)
	}
	return nil
}

// ReadDiagram parses one diagram document into a graphol diagram. Items
// carry the document's diagram id regardless of what their own records say.
func ReadDiagram(path string) (*graphol.Diagram, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	var doc diagramDoc
	if err := json.Unmarshal(content, &doc); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}

	if doc.ID == "" {
		doc.ID = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}

	diagram := graphol.NewDiagram(doc.ID)
	if doc.Name != "" {
		diagram.Name = doc.Name
	}

	for i := range doc.Nodes {
		node := doc.Nodes[i]
		node.DiagramID = doc.ID
		diagram.AddItem(&node)
	}
	for i := range doc.Edges {
		edge := doc.Edges[i]
		edge.DiagramID = doc.ID
		diagram.AddItem(&edge)
	}
	return diagram, nil
}

// isDiagramDoc reports whether a path looks like a diagram document.
func isDiagramDoc(path string) bool {
	if filepath.Ext(path) != ".json" {
		return false
	}
	return filepath.Base(path) != MetaFileName
}

// shouldSkipDir reports whether a directory never holds diagram documents.
func shouldSkipDir(name string) bool {
	switch name {
	case ".git", ".graphol", "node_modules", "vendor":
		return true
	}
	return false
}
