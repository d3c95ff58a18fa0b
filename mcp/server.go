// Package mcp provides the MCP (Model Context Protocol) server for the
// project index.
package mcp

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/obdakit/graphol-go/internal/graphol"
	"github.com/obdakit/graphol-go/internal/project"
	"github.com/obdakit/graphol-go/internal/storage"
)

// Server represents the MCP server over one loaded project.
type Server struct {
	px      *project.Index
	backend storage.Backend
	server  *mcp.Server
}

// Tool represents an MCP tool.
type Tool struct {
	Name        string
	Description string
	InputSchema *jsonschema.Schema
}

// Resource represents an MCP resource.
type Resource struct {
	URI         string
	Name        string
	Description string
	MimeType    string
}

// NewServer creates a new MCP server over the given index. The backend is
// used for full-text search and may be nil when no store is open.
func NewServer(px *project.Index, backend storage.Backend) *Server {
	s := &Server{
		px:      px,
		backend: backend,
	}

	s.server = mcp.NewServer(&mcp.Implementation{
		Name:    "graphol-go",
		Version: "0.1.0",
	}, nil)

	return s
}

// ListTools returns all registered tools.
func (s *Server) ListTools() []Tool {
	return []Tool{
		{
			Name:        "graphol_search",
			Description: "Full-text search over predicate names and descriptions. Returns ranked predicate occurrences.",
			InputSchema: &jsonschema.Schema{
				Type: "object",
				Properties: map[string]*jsonschema.Schema{
					"query": {Type: "string", Description: "Search query text"},
					"limit": {Type: "integer", Description: "Maximum number of results"},
				},
				Required: []string{"query"},
			},
		},
		{
			Name:        "graphol_stats",
			Description: "High-level statistics of the loaded ontology project: diagrams, items, predicates, metadata entries.",
			InputSchema: &jsonschema.Schema{
				Type:       "object",
				Properties: map[string]*jsonschema.Schema{},
			},
		},
		{
			Name:        "graphol_predicates",
			Description: "List predicate occurrences, optionally filtered by predicate type, name, or diagram.",
			InputSchema: &jsonschema.Schema{
				Type: "object",
				Properties: map[string]*jsonschema.Schema{
					"type":    {Type: "string", Description: "Predicate type: concept, role, attribute, value_domain, individual"},
					"name":    {Type: "string", Description: "Predicate display name"},
					"diagram": {Type: "string", Description: "Diagram identifier"},
				},
			},
		},
		{
			Name:        "graphol_meta",
			Description: "Get the metadata of one predicate identity (description, URL, logical characteristics).",
			InputSchema: &jsonschema.Schema{
				Type: "object",
				Properties: map[string]*jsonschema.Schema{
					"type": {Type: "string", Description: "Predicate type: concept, role, attribute, value_domain, individual"},
					"name": {Type: "string", Description: "Predicate display name"},
				},
				Required: []string{"type", "name"},
			},
		},
		{
			Name:        "graphol_diagram",
			Description: "List the items of one diagram.",
			InputSchema: &jsonschema.Schema{
				Type: "object",
				Properties: map[string]*jsonschema.Schema{
					"diagram": {Type: "string", Description: "Diagram identifier"},
				},
				Required: []string{"diagram"},
			},
		},
	}
}

// ListResources returns all registered resources.
func (s *Server) ListResources() []Resource {
	return []Resource{
		{
			URI:         "graphol://overview",
			Name:        "Project Overview",
			Description: "High-level statistics about the loaded ontology project",
			MimeType:    "text/plain",
		},
		{
			URI:         "graphol://schema",
			Name:        "Graphol Vocabulary",
			Description: "Description of the Graphol item types and predicate metadata",
			MimeType:    "text/plain",
		},
	}
}

// CallTool executes a tool with the given arguments.
func (s *Server) CallTool(ctx context.Context, name string, args map[string]any) (string, error) {
	switch name {
	case "graphol_search":
		query, _ := args["query"].(string)
		limit, _ := args["limit"].(float64)
		if limit == 0 {
			limit = 20
		}
		return s.handleSearch(ctx, query, int(limit))
	case "graphol_stats":
		return s.overview(), nil
	case "graphol_predicates":
		typ, _ := args["type"].(string)
		predName, _ := args["name"].(string)
		diagram, _ := args["diagram"].(string)
		return s.handlePredicates(typ, predName, diagram)
	case "graphol_meta":
		typ, _ := args["type"].(string)
		predName, _ := args["name"].(string)
		return s.handleMeta(typ, predName)
	case "graphol_diagram":
		diagram, _ := args["diagram"].(string)
		return s.handleDiagram(diagram)
	default:
		return "", fmt.Errorf("unknown tool: %s", name)
	}
}

// ReadResource reads a resource by URI.
func (s *Server) ReadResource(ctx context.Context, uri string) (string, error) {
	switch uri {
	case "graphol://overview":
		return s.overview(), nil
	case "graphol://schema":
		return vocabulary(), nil
	default:
		return "", fmt.Errorf("unknown resource: %s", uri)
	}
}

// Run starts the MCP server with stdio transport.
func (s *Server) Run(ctx context.Context, stdin io.Reader, stdout io.Writer) error {
	if stdin == nil || stdout == nil {
		return fmt.Errorf("stdin and stdout must not be nil")
	}

	reader := bufio.NewReader(stdin)
	encoder := json.NewEncoder(stdout)
	// Note: Do NOT use SetIndent - MCP protocol requires compact JSON (one line per message)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		line, err := reader.ReadBytes('\n')
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}

		var req map[string]any
		if err := json.Unmarshal(line, &req); err != nil {
			continue
		}

		resp := s.handleRequest(ctx, req)
		if err := encoder.Encode(resp); err != nil {
			return err
		}
	}
}

func (s *Server) handleRequest(ctx context.Context, req map[string]any) map[string]any {
	method, _ := req["method"].(string)
	id := req["id"]

	switch method {
	case "initialize":
		return s.handleInitialize(id)
	case "tools/list":
		return s.handleToolsList(id)
	case "tools/call":
		return s.handleToolsCall(ctx, id, req)
	case "resources/list":
		return s.handleResourcesList(id)
	case "resources/read":
		return s.handleResourcesRead(ctx, id, req)
	default:
		return errorResponse(id, -32601, "Method not found: "+method)
	}
}

func (s *Server) handleInitialize(id any) map[string]any {
	return map[string]any{
		"jsonrpc": "2.0",
		"id":      id,
		"result": map[string]any{
			"protocolVersion": "2024-11-05",
			"serverInfo": map[string]any{
				"name":    "graphol-go",
				"version": "0.1.0",
			},
			"capabilities": map[string]any{
				"tools": map[string]any{
					"listChanged": false,
				},
				"resources": map[string]any{
					"listChanged": false,
				},
			},
		},
	}
}

func (s *Server) handleToolsList(id any) map[string]any {
	tools := s.ListTools()
	toolList := make([]map[string]any, len(tools))
	for i, tool := range tools {
		schema, _ := json.Marshal(tool.InputSchema)
		var schemaMap map[string]any
		json.Unmarshal(schema, &schemaMap)

		toolList[i] = map[string]any{
			"name":        tool.Name,
			"description": tool.Description,
			"inputSchema": schemaMap,
		}
	}

	return map[string]any{
		"jsonrpc": "2.0",
		"id":      id,
		"result": map[string]any{
			"tools": toolList,
		},
	}
}

func (s *Server) handleToolsCall(ctx context.Context, id any, req map[string]any) map[string]any {
	params, _ := req["params"].(map[string]any)
	if params == nil {
		return errorResponse(id, -32602, "Invalid params")
	}

	name, _ := params["name"].(string)
	args, _ := params["arguments"].(map[string]any)

	result, err := s.CallTool(ctx, name, args)
	if err != nil {
		return errorResponse(id, -32000, err.Error())
	}

	return map[string]any{
		"jsonrpc": "2.0",
		"id":      id,
		"result": map[string]any{
			"content": []map[string]any{
				{
					"type": "text",
					"text": result,
				},
			},
		},
	}
}

func (s *Server) handleResourcesList(id any) map[string]any {
	resources := s.ListResources()
	resourceList := make([]map[string]any, len(resources))
	for i, res := range resources {
		resourceList[i] = map[string]any{
			"uri":         res.URI,
			"name":        res.Name,
			"description": res.Description,
			"mimeType":    res.MimeType,
		}
	}

	return map[string]any{
		"jsonrpc": "2.0",
		"id":      id,
		"result": map[string]any{
			"resources": resourceList,
		},
	}
}

func (s *Server) handleResourcesRead(ctx context.Context, id any, req map[string]any) map[string]any {
	params, _ := req["params"].(map[string]any)
	if params == nil {
		return errorResponse(id, -32602, "Invalid params")
	}

	uri, _ := params["uri"].(string)

	content, err := s.ReadResource(ctx, uri)
	if err != nil {
		return errorResponse(id, -32000, err.Error())
	}

	return map[string]any{
		"jsonrpc": "2.0",
		"id":      id,
		"result": map[string]any{
			"contents": []map[string]any{
				{
					"uri":      uri,
					"mimeType": "text/plain",
					"text":     content,
				},
			},
		},
	}
}

// Tool Handlers

func (s *Server) handleSearch(ctx context.Context, query string, limit int) (string, error) {
	if query == "" {
		return "No query provided", nil
	}
	if s.backend == nil {
		return "No store is open; run load first", nil
	}

	results, err := s.backend.Search(ctx, query, limit)
	if err != nil {
		return "", err
	}
	if len(results) == 0 {
		return "No results found", nil
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Found %d results for '%s':\n\n", len(results), query))
	for i, r := range results {
		sb.WriteString(fmt.Sprintf("%d. **%s** (%s)\n", i+1, r.Name, predicateLabel(r.Type)))
		sb.WriteString(fmt.Sprintf("   Diagram: %s, node %s\n", r.Diagram, r.NodeID))
		sb.WriteString(fmt.Sprintf("   Score: %.1f\n", r.Score))
	}
	return sb.String(), nil
}

func (s *Server) handlePredicates(typ, name, diagram string) (string, error) {
	filter := project.PredicateFilter{Name: name, Diagram: diagram}
	if typ != "" {
		itemType, err := parsePredicateType(typ)
		if err != nil {
			return "", err
		}
		filter.Type = itemType
	}

	occurrences := s.px.Predicates(filter)
	if len(occurrences) == 0 {
		return "No predicate occurrences found", nil
	}

	sort.Slice(occurrences, func(i, j int) bool {
		if occurrences[i].Text() != occurrences[j].Text() {
			return occurrences[i].Text() < occurrences[j].Text()
		}
		return occurrences[i].Diagram() < occurrences[j].Diagram()
	})

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Found %d predicate occurrence(s):\n\n", len(occurrences)))
	for _, item := range occurrences {
		sb.WriteString(fmt.Sprintf("- **%s** (%s) in diagram %s, node %s\n",
			item.Text(), predicateLabel(item.Type()), item.Diagram(), item.ID()))
	}
	return sb.String(), nil
}

func (s *Server) handleMeta(typ, name string) (string, error) {
	if name == "" {
		return "", fmt.Errorf("name must not be empty")
	}
	itemType, err := parsePredicateType(typ)
	if err != nil {
		return "", err
	}

	meta := s.px.Meta(itemType, name)

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("**%s** (%s)\n", meta.Name, predicateLabel(meta.Type)))
	if meta.Description != "" {
		sb.WriteString(fmt.Sprintf("Description: %s\n", meta.Description))
	}
	if meta.URL != "" {
		sb.WriteString(fmt.Sprintf("URL: %s\n", meta.URL))
	}

	var flags []string
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
			flags = append(flags, f.name)
		}
	}
	if len(flags) > 0 {
		sb.WriteString(fmt.Sprintf("Characteristics: %s\n", strings.Join(flags, ", ")))
	}

	count, err := s.px.Count(project.CountOptions{Predicate: itemType})
	if err == nil {
		occurrences := len(s.px.Predicates(project.PredicateFilter{Type: itemType, Name: name}))
		sb.WriteString(fmt.Sprintf("Occurrences: %d (of %d %s predicates)\n",
			occurrences, count, predicateLabel(itemType)))
	}
	return sb.String(), nil
}

func (s *Server) handleDiagram(diagram string) (string, error) {
	d := s.px.Diagram(diagram)
	if d == nil {
		return fmt.Sprintf("Unknown diagram: %s", diagram), nil
	}

	nodes := s.px.Nodes(diagram)
	edges := s.px.Edges(diagram)

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Diagram **%s** (%s): %d nodes, %d edges\n\n",
		d.Name, d.ID(), len(nodes), len(edges)))

	sort.Slice(nodes, func(i, j int) bool { return nodes[i].ID() < nodes[j].ID() })
	for _, n := range nodes {
		if n.IsPredicate() {
			sb.WriteString(fmt.Sprintf("- %s: %s **%s**\n", n.ID(), predicateLabel(n.Type()), n.Text()))
		} else {
			sb.WriteString(fmt.Sprintf("- %s: %s\n", n.ID(), n.Type()))
		}
	}

	sort.Slice(edges, func(i, j int) bool { return edges[i].ID() < edges[j].ID() })
	for _, e := range edges {
		edge, ok := e.(*graphol.Edge)
		if !ok {
			continue
		}
		sb.WriteString(fmt.Sprintf("- %s: %s %s -> %s\n", e.ID(), e.Type(), edge.Source, edge.Target))
	}
	return sb.String(), nil
}

// overview renders the project statistics.
func (s *Server) overview() string {
	stats := s.px.Stats()

	var sb strings.Builder
	sb.WriteString("Ontology Project Overview\n")
	sb.WriteString("=========================\n\n")
	sb.WriteString(fmt.Sprintf("Diagrams:         %d\n", stats["diagrams"]))
	sb.WriteString(fmt.Sprintf("Items:            %d\n", stats["items"]))
	sb.WriteString(fmt.Sprintf("  Nodes:          %d\n", stats["nodes"]))
	sb.WriteString(fmt.Sprintf("  Edges:          %d\n", stats["edges"]))
	sb.WriteString(fmt.Sprintf("Predicates:       %d\n", stats["predicates"]))
	sb.WriteString(fmt.Sprintf("Metadata entries: %d\n", stats["metas"]))

	diagrams := s.px.Diagrams()
	if len(diagrams) > 0 {
		sort.Slice(diagrams, func(i, j int) bool { return diagrams[i].ID() < diagrams[j].ID() })
		sb.WriteString("\nDiagrams:\n")
		for _, d := range diagrams {
			sb.WriteString(fmt.Sprintf("  %s (%d items)\n", d.ID(), len(s.px.Items(d.ID()))))
		}
	}
	return sb.String()
}

// vocabulary describes the Graphol item types served by the index.
func vocabulary() string {
	return `Graphol Vocabulary
==================

Predicate nodes (carry a shared (type, name) identity across diagrams):
  concept_node, role_node, attribute_node, value_domain_node, individual_node

Constructor nodes (anonymous expressions, no predicate identity):
  domain_restriction_node, range_restriction_node, union_node,
  disjoint_union_node, intersection_node, complement_node, enumeration_node,
  role_chain_node, role_inverse_node, datatype_restriction_node,
  property_assertion_node, facet_node

Edges:
  inclusion_edge, equivalence_edge, input_edge, membership_edge

Predicate metadata (per (type, name) identity, independent of occurrences):
  description, URL, and logical characteristics (functional, inverse
  functional, symmetric, asymmetric, reflexive, irreflexive, transitive).
`
}

// parsePredicateType maps a tool argument to a predicate item type.
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

func errorResponse(id any, code int, message string) map[string]any {
	return map[string]any{
		"jsonrpc": "2.0",
		"id":      id,
		"error": map[string]any{
			"code":    code,
			"message": message,
		},
	}
}
