// Package cmd provides CLI command implementations for graphol-go.
package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"
	"syscall"
	"time"

	"github.com/alecthomas/kong"
	"github.com/fatih/color"

	"github.com/obdakit/graphol-go/internal/graphol"
	"github.com/obdakit/graphol-go/internal/loader"
	"github.com/obdakit/graphol-go/internal/project"
	"github.com/obdakit/graphol-go/internal/storage"
	"github.com/obdakit/graphol-go/mcp"
)

// Version is set at build time via ldflags.
var Version = "dev"

// storeDirName holds the on-disk index for a project directory.
const storeDirName = ".graphol"

// LoadCmd indexes a project directory into the store.
type LoadCmd struct {
	Path string `arg:"" optional:"" default:"." help:"Path to project directory"`
}

// Run executes the load command.
func (c *LoadCmd) Run() error {
	ctx := context.Background()
	projectDir, err := filepath.Abs(c.Path)
	if err != nil {
		return fmt.Errorf("resolving path: %w", err)
	}

	info, err := os.Stat(projectDir)
	if err != nil {
		return fmt.Errorf("accessing %s: %w", projectDir, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", projectDir)
	}

	color.Green("Loading %s", projectDir)

	px := project.NewIndex()
	count, err := loader.NewProjectLoader(projectDir, px).Load()
	if err != nil {
		return fmt.Errorf("loading project: %w", err)
	}

	storeDir := filepath.Join(projectDir, storeDirName)
	if err := os.MkdirAll(storeDir, 0o755); err != nil {
		return fmt.Errorf("creating %s directory: %w", storeDirName, err)
	}

	store := storage.NewBadgerBackend()
	if err := store.Initialize(filepath.Join(storeDir, "badger"), false); err != nil {
		return fmt.Errorf("initializing storage: %w", err)
	}
	defer func() { _ = store.Close() }()

	if err := store.Snapshot(ctx, px); err != nil {
		return fmt.Errorf("writing snapshot: %w", err)
	}

	stats := px.Stats()
	meta := map[string]any{
		"version":   Version,
		"name":      filepath.Base(projectDir),
		"path":      projectDir,
		"stats":     stats,
		"loaded_at": time.Now().UTC().Format(time.RFC3339),
	}
	metaJSON, _ := json.MarshalIndent(meta, "", "  ")
	if err := os.WriteFile(filepath.Join(storeDir, "meta.json"), metaJSON, 0o644); err != nil {
		return fmt.Errorf("writing meta.json: %w", err)
	}

	color.Green("\n✓ Load complete")
	fmt.Printf("  Diagrams:    %d\n", count)
	fmt.Printf("  Items:       %d\n", stats["items"])
	fmt.Printf("  Predicates:  %d\n", stats["predicates"])
	fmt.Printf("  Metadata:    %d\n", stats["metas"])

	return nil
}

// StatsCmd prints statistics of the loaded project.
type StatsCmd struct{}

// Run executes the stats command.
func (c *StatsCmd) Run() error {
	px, store, err := loadIndex()
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	stats := px.Stats()
	fmt.Printf("Diagrams:    %d\n", stats["diagrams"])
	fmt.Printf("Items:       %d\n", stats["items"])
	fmt.Printf("  Nodes:     %d\n", stats["nodes"])
	fmt.Printf("  Edges:     %d\n", stats["edges"])
	fmt.Printf("Predicates:  %d\n", stats["predicates"])
	fmt.Printf("Metadata:    %d\n", stats["metas"])

	diagrams := px.Diagrams()
	sort.Slice(diagrams, func(i, j int) bool { return diagrams[i].ID() < diagrams[j].ID() })
	for _, d := range diagrams {
		fmt.Printf("  %s: %d items\n", d.ID(), len(px.Items(d.ID())))
	}
	return nil
}

// SearchCmd searches predicate names and descriptions.
type SearchCmd struct {
	Query string `arg:"" help:"Search query"`
	Limit int    `short:"n" default:"20" help:"Maximum results"`
}

// Run executes the search command.
func (c *SearchCmd) Run() error {
	ctx := context.Background()
	store, err := openStore(true)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	results, err := store.Search(ctx, c.Query, c.Limit)
	if err != nil {
		return fmt.Errorf("searching: %w", err)
	}

	if len(results) == 0 {
		fmt.Println("No results found")
		return nil
	}

	for i, r := range results {
		fmt.Printf("\n%d. %s (%s)\n", i+1, r.Name, predicateLabel(r.Type))
		fmt.Printf("   Diagram: %s, node %s\n", r.Diagram, r.NodeID)
		fmt.Printf("   Score: %.1f\n", r.Score)
	}
	return nil
}

// PredicatesCmd lists predicate occurrences.
type PredicatesCmd struct {
	Type    string `help:"Predicate type: concept, role, attribute, value_domain, individual"`
	Name    string `help:"Predicate display name"`
	Diagram string `help:"Diagram identifier"`
}

// Run executes the predicates command.
func (c *PredicatesCmd) Run() error {
	px, store, err := loadIndex()
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	filter := project.PredicateFilter{Name: c.Name, Diagram: c.Diagram}
	if c.Type != "" {
		filter.Type, err = parsePredicateType(c.Type)
		if err != nil {
			return err
		}
	}

	occurrences := px.Predicates(filter)
	if len(occurrences) == 0 {
		fmt.Println("No predicate occurrences found")
		return nil
	}

	sort.Slice(occurrences, func(i, j int) bool {
		if occurrences[i].Text() != occurrences[j].Text() {
			return occurrences[i].Text() < occurrences[j].Text()
		}
		return occurrences[i].Diagram() < occurrences[j].Diagram()
	})

	for _, item := range occurrences {
		fmt.Printf("%s (%s)  diagram=%s node=%s\n",
			item.Text(), predicateLabel(item.Type()), item.Diagram(), item.ID())
	}
	return nil
}

// MetaCmd prints the metadata of one predicate identity.
type MetaCmd struct {
	Type string `arg:"" help:"Predicate type: concept, role, attribute, value_domain, individual"`
	Name string `arg:"" help:"Predicate display name"`
}

// Run executes the meta command.
func (c *MetaCmd) Run() error {
	px, store, err := loadIndex()
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	typ, err := parsePredicateType(c.Type)
	if err != nil {
		return err
	}

	meta := px.Meta(typ, c.Name)
	fmt.Printf("%s (%s)\n", meta.Name, predicateLabel(meta.Type))
	if meta.Description != "" {
		fmt.Printf("  Description: %s\n", meta.Description)
	}
	if meta.URL != "" {
		fmt.Printf("  URL: %s\n", meta.URL)
	}
	for _, f := range []struct {
		name string
		set  bool
	}{
		{"functional", meta.Functional},
		{"inverse functional", meta.InverseFunctional},
		{"symmetric", meta.Symmetric},
		{"asymmetric", meta.Asymmetric},
		{"reflexive", meta.Reflexive},
		{"irreflexive", meta.Irreflexive},
		{"transitive", meta.Transitive},
	} {
		if f.set {
			fmt.Printf("  %s\n", f.name)
		}
	}

	occurrences := px.Predicates(project.PredicateFilter{Type: typ, Name: c.Name})
	fmt.Printf("  Occurrences: %d\n", len(occurrences))
	return nil
}

// WatchCmd reloads diagram documents as they change on disk.
type WatchCmd struct{}

// Run executes the watch command.
func (c *WatchCmd) Run() error {
	projectDir, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("getting current directory: %w", err)
	}

	store, err := openStore(false)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	px := project.NewIndex()
	storage.Mirror(px, store, func(err error) {
		fmt.Fprintf(os.Stderr, "Store write error: %v\n", err)
	})

	l := loader.NewProjectLoader(projectDir, px)
	if _, err := l.Load(); err != nil {
		return fmt.Errorf("loading project: %w", err)
	}

	fmt.Printf("Watching %s for changes (Ctrl+C to stop)\n\n", projectDir)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		<-osSignalChannel()
		fmt.Println("\nStopping watch mode...")
		cancel()
	}()

	err = l.Watch(ctx)
	if err != nil && err != context.Canceled {
		return fmt.Errorf("watch error: %w", err)
	}

	fmt.Println("Watch mode stopped.")
	return nil
}

// MCPCmd starts the MCP server over stdio.
type MCPCmd struct{}

// Run executes the mcp command.
func (c *MCPCmd) Run() error {
	ctx := context.Background()
	px, store, err := loadIndex()
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	server := mcp.NewServer(px, store)

	// Note: No output to stderr - MCP server uses stdio for JSON-RPC only
	return server.Run(ctx, os.Stdin, os.Stdout)
}

// ServeCmd starts the MCP server with optional watch mode.
type ServeCmd struct {
	Watch bool `short:"w" help:"Enable file watching"`
}

// Run executes the serve command.
func (c *ServeCmd) Run() error {
	ctx := context.Background()

	if !c.Watch {
		fmt.Fprintln(os.Stderr, "Starting MCP server...")
		return (&MCPCmd{}).Run()
	}

	projectDir, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("getting working directory: %w", err)
	}

	store, err := openStore(false)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	px := project.NewIndex()
	storage.Mirror(px, store, func(err error) {
		fmt.Fprintf(os.Stderr, "Store write error: %v\n", err)
	})

	l := loader.NewProjectLoader(projectDir, px)
	if _, err := l.Load(); err != nil {
		return fmt.Errorf("loading project: %w", err)
	}

	fmt.Fprintln(os.Stderr, "Starting MCP server with watch mode...")

	watchCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	go func() {
		err := l.Watch(watchCtx)
		if err != nil && err != context.Canceled {
			fmt.Fprintf(os.Stderr, "Watch error: %v\n", err)
		}
	}()

	server := mcp.NewServer(px, store)
	return server.Run(ctx, os.Stdin, os.Stdout)
}

// SetupCmd writes MCP client configuration for this project.
type SetupCmd struct {
	Client string `arg:"" optional:"" default:"claude" help:"Client to configure: claude, cursor"`
}

// Run executes the setup command.
func (c *SetupCmd) Run() error {
	exe, err := os.Executable()
	if err != nil {
		return fmt.Errorf("resolving executable: %w", err)
	}

	config := map[string]any{
		"mcpServers": map[string]any{
			"graphol": map[string]any{
				"command": exe,
				"args":    []string{"mcp"},
			},
		},
	}
	configJSON, _ := json.MarshalIndent(config, "", "  ")
	configJSON = append(configJSON, '\n')

	var path string
	switch strings.ToLower(c.Client) {
	case "claude":
		path = ".mcp.json"
	case "cursor":
		if err := os.MkdirAll(".cursor", 0o755); err != nil {
			return fmt.Errorf("creating .cursor directory: %w", err)
		}
		path = filepath.Join(".cursor", "mcp.json")
	default:
		return fmt.Errorf("unknown client: %s (expected claude or cursor)", c.Client)
	}

	if err := os.WriteFile(path, configJSON, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}

	color.Green("✓ Created MCP config at %s", path)
	return nil
}

// CleanCmd deletes the store for the current project.
type CleanCmd struct {
	Force bool `short:"f" help:"Skip confirmation"`
}

// Run executes the clean command.
func (c *CleanCmd) Run() error {
	projectDir, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("getting working directory: %w", err)
	}

	storeDir := filepath.Join(projectDir, storeDirName)
	if _, err := os.Stat(storeDir); os.IsNotExist(err) {
		return fmt.Errorf("no store found at %s. Nothing to clean", projectDir)
	}

	if !c.Force {
		fmt.Printf("Delete store at %s? [y/N] ", storeDir)
		var response string
		_, _ = fmt.Scanln(&response)
		if response != "y" && response != "Y" {
			fmt.Println("Aborted")
			return nil
		}
	}

	if err := os.RemoveAll(storeDir); err != nil {
		return fmt.Errorf("deleting store: %w", err)
	}

	color.Green("Deleted %s", storeDir)
	return nil
}

// Helper functions

// osSignalChannel returns a channel that receives OS signals for graceful shutdown.
func osSignalChannel() <-chan os.Signal {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	return sigChan
}

// openStore opens the store of the current project directory.
func openStore(readOnly bool) (*storage.BadgerBackend, error) {
	projectDir, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("getting working directory: %w", err)
	}

	dbPath := filepath.Join(projectDir, storeDirName, "badger")
	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("no store found at %s. Run 'graphol load' first", projectDir)
	}

	store := storage.NewBadgerBackend()
	if err := store.Initialize(dbPath, readOnly); err != nil {
		return nil, fmt.Errorf("initializing storage: %w", err)
	}
	return store, nil
}

// loadIndex opens the store read-only and restores it into a fresh index.
func loadIndex() (*project.Index, *storage.BadgerBackend, error) {
	store, err := openStore(true)
	if err != nil {
		return nil, nil, err
	}

	px := project.NewIndex()
	if err := store.Restore(context.Background(), px); err != nil {
		_ = store.Close()
		return nil, nil, fmt.Errorf("restoring index: %w", err)
	}
	return px, store, nil
}

// parsePredicateType maps a CLI argument to a predicate item type.
func parsePredicateType(s string) (graphol.ItemType, error) {
	switch strings.ToLower(strings.TrimSuffix(s, "_node")) {
	case "concept":
		return graphol.ConceptNode, nil
	case "role":
		return graphol.RoleNode, nil
	case "attribute":
		return graphol.AttributeNode, nil
	case "value_domain":
		return graphol.ValueDomainNode, nil
	case "individual":
		return graphol.IndividualNode, nil
	}
	return "", fmt.Errorf("unknown predicate type: %s", s)
}

// predicateLabel renders an item type for display.
func predicateLabel(t graphol.ItemType) string {
	return strings.TrimSuffix(string(t), "_node")
}

// CLI is the root Kong command structure.
type CLI struct {
	Version kong.VersionFlag `help:"Show version information"`

	// Commands
	Load       LoadCmd       `cmd:"" help:"Load a project directory into the store"`
	Stats      StatsCmd      `cmd:"" help:"Show statistics of the loaded project"`
	Search     SearchCmd     `cmd:"" help:"Search predicate names and descriptions"`
	Predicates PredicatesCmd `cmd:"" help:"List predicate occurrences"`
	Meta       MetaCmd       `cmd:"" help:"Show metadata of one predicate"`
	Watch      WatchCmd      `cmd:"" help:"Watch mode with live reloading"`
	Setup      SetupCmd      `cmd:"" help:"Configure MCP for Claude Code / Cursor"`
	MCP        MCPCmd        `cmd:"" help:"Start MCP server (stdio transport)"`
	Serve      ServeCmd      `cmd:"" help:"Start MCP server with optional watch mode"`
	Clean      CleanCmd      `cmd:"" help:"Delete the store for the current project"`
}

// NewCLI creates a new CLI instance.
func NewCLI() *CLI {
	return &CLI{}
}

// Execute parses command-line arguments and executes the selected command.
func (c *CLI) Execute(args []string) error {
	kongCtx := kong.Parse(c,
		kong.Name("graphol"),
		kong.Description("Project index engine for Graphol ontology diagrams"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact:             true,
			NoExpandSubcommands: true,
		}),
		kong.Vars{
			"version": Version,
		},
	)

	return kongCtx.Run()
}
