package tools

import (
	"fmt"
	"log/slog"
	"sync"

	"docsmith/app/config"

	"github.com/elliotchance/pie/v2"
	"github.com/samber/do"
	lctools "github.com/tmc/langchaingo/tools"
)

type Service struct {
	mu        sync.RWMutex
	contracts map[string]*Contract
	adapters  map[string]Adapter

	mcpClients []*mcpClientWrapper
}

var _ do.Shutdownable = (*Service)(nil)

func New(di *do.Injector) (*Service, error) {
	cfg := do.MustInvoke[*config.Config](di)

	s := NewRegistry()

	for _, server := range cfg.Tools.MCPServers {
		if err := s.connectMCPServer(server); err != nil {
			// a broken tool server costs adapters, not the run
			slog.Warn("Failed to connect MCP tool server",
				"name", server.Name,
				"error", err)
		}
	}

	return s, nil
}

func NewRegistry() *Service {
	s := &Service{
		contracts: make(map[string]*Contract),
		adapters:  make(map[string]Adapter),
	}

	for _, contract := range defaultContracts {
		s.RegisterContract(contract)
	}

	s.RegisterAdapter("calc.eval", FromLangchainTool(lctools.Calculator{}))

	return s
}

func (s *Service) RegisterContract(contract *Contract) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.contracts[contract.Name] = contract
}

func (s *Service) RegisterAdapter(name string, adapter Adapter) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.adapters[name] = adapter
}

// Contract returns the contract for a tool name, or nil when the tool
// has no declared schema.
func (s *Service) Contract(name string) *Contract {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.contracts[name]
}

// Adapter returns the adapter for a tool name, or nil when none is
// registered.
func (s *Service) Adapter(name string) Adapter {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.adapters[name]
}

func (s *Service) AdapterNames() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := make([]string, 0, len(s.adapters))
	for name := range s.adapters {
		names = append(names, name)
	}
	return pie.Sort(names)
}

func (s *Service) Shutdown() error {
	for _, wrapper := range s.mcpClients {
		if err := wrapper.client.Close(); err != nil {
			return fmt.Errorf("failed to close MCP client %s: %w", wrapper.name, err)
		}
	}

	return nil
}

var defaultContracts = []*Contract{
	{
		Name:        "repo.search",
		Description: "Search repository files by keyword or regex pattern.",
		Category:    "repo",
		Parameters: []Parameter{
			{Name: "query", Type: "string", Description: "Search query or regex", Required: true},
			{Name: "max_results", Type: "integer"},
		},
		OutputType:   "json",
		PrivacyLevel: "standard",
	},
	{
		Name:        "repo.read",
		Description: "Read a file or file range from the repository.",
		Category:    "repo",
		Parameters: []Parameter{
			{Name: "path", Type: "string", Description: "Relative file path", Required: true},
			{Name: "start_line", Type: "integer"},
			{Name: "end_line", Type: "integer"},
		},
		OutputType:   "string",
		PrivacyLevel: "permissive",
	},
	{
		Name:        "repo.diff",
		Description: "Get the diff between two git refs.",
		Category:    "repo",
		Parameters: []Parameter{
			{Name: "ref1", Type: "string", Description: "Base ref", Required: true},
			{Name: "ref2", Type: "string", Description: "Head ref"},
		},
		OutputType:   "json",
		PrivacyLevel: "standard",
	},
	{
		Name:        "repo.summarize",
		Description: "Generate a concise summary of a file or directory.",
		Category:    "repo",
		Parameters: []Parameter{
			{Name: "path", Type: "string", Required: true},
			{Name: "max_tokens", Type: "integer"},
		},
		OutputType:   "markdown",
		PrivacyLevel: "standard",
	},
	{
		Name:        "diagram.render",
		Description: "Render a diagram from Mermaid, PlantUML, or Graphviz source.",
		Category:    "diagram",
		Parameters: []Parameter{
			{Name: "type", Type: "string", Required: true, Enum: []string{"mermaid", "plantuml", "graphviz"}},
			{Name: "spec", Type: "string", Required: true},
			{Name: "output_format", Type: "string", Enum: []string{"svg", "png", "pdf"}},
		},
		OutputType:   "svg",
		PrivacyLevel: "standard",
	},
	{
		Name:        "chart.generate",
		Description: "Generate a chart image from structured data.",
		Category:    "chart",
		Parameters: []Parameter{
			{Name: "data", Type: "object", Required: true},
			{Name: "chart_type", Type: "string", Required: true, Enum: []string{"bar", "line", "pie", "scatter", "heatmap", "treemap"}},
			{Name: "title", Type: "string"},
		},
		OutputType:   "png",
		PrivacyLevel: "standard",
	},
	{
		Name:        "calc.eval",
		Description: "Evaluate an arithmetic expression when shaping chart data.",
		Category:    "chart",
		Parameters: []Parameter{
			{Name: "input", Type: "string", Description: "Arithmetic expression", Required: true},
		},
		OutputType:   "string",
		PrivacyLevel: "standard",
	},
	{
		Name:        "docx.refine",
		Description: "Refine a Word document while retaining evidence links.",
		Category:    "doc",
		Parameters: []Parameter{
			{Name: "instructions", Type: "string", Required: true},
			{Name: "graph_refs", Type: "array"},
		},
		OutputType:   "docx",
		PrivacyLevel: "standard",
	},
	{
		Name:        "pptx.refine",
		Description: "Refine a slide deck while retaining evidence links.",
		Category:    "doc",
		Parameters: []Parameter{
			{Name: "instructions", Type: "string", Required: true},
			{Name: "graph_refs", Type: "array"},
		},
		OutputType:   "pptx",
		PrivacyLevel: "standard",
	},
}
