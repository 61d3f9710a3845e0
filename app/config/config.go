package config

import (
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/samber/oops"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Log     Log     `yaml:"log"`
	OpenAI  OpenAI  `yaml:"openai"`
	Privacy Privacy `yaml:"privacy"`
	Critic  Critic  `yaml:"critic"`
	Loop    Loop    `yaml:"loop"`
	Tools   Tools   `yaml:"tools"`
	Input   Input   `yaml:"input"`
	Diff    Diff    `yaml:"diff"`
}

type OpenAI struct {
	Planner ModelConfig `yaml:"planner"`
	Section ModelConfig `yaml:"section"`
	Critic  ModelConfig `yaml:"critic"`
}

type ModelConfig struct {
	// OpenAI-compatible base url
	BaseURL string `yaml:"base_url" example:"https://openrouter.ai/api/v1"`
	// OpenAI token, empty disables the generative path
	Token string `yaml:"token" example:"sk-proj-abc123456789DEF789ghi012JKL345mno678PQR901stu234VWX"`
	// Model name
	Model string `yaml:"model" example:"gpt-4o-mini"`
}

type Privacy struct {
	// Privacy mode for data sent to the model
	Mode string `yaml:"mode" example:"standard" validate:"omitempty,oneof=strict standard permissive"`
}

type Critic struct {
	// Minimum global evidence coverage percentage for approval
	MinCoveragePct float64 `yaml:"min_coverage_pct" example:"80"`
	// Maximum number of unsupported claims before rejection
	MaxAssumptions int `yaml:"max_assumptions" example:"5"`
}

type Loop struct {
	// Number of re-planning rounds after the initial iteration
	MaxRetries int `yaml:"max_retries" example:"2"`
}

type Tools struct {
	// External MCP tool servers to register as adapters
	MCPServers []MCPServer `yaml:"mcp_servers"`
}

type MCPServer struct {
	// Adapter name prefix
	Name string `yaml:"name" example:"repo" validate:"required"`
	// Command launching the stdio server
	Command string `yaml:"command" example:"docker" validate:"required"`
	// Command arguments
	Args []string `yaml:"args"`
}

type Input struct {
	// Path to the repo profile JSON produced by the extraction stage
	ProfilePath string `yaml:"profile_path" example:"data/profile.json" validate:"required"`
	// Path to the knowledge graph JSON produced by the extraction stage
	GraphPath string `yaml:"graph_path" example:"data/graph.json" validate:"required"`
}

type Diff struct {
	// Local path of the repository checkout, empty disables the diff pipeline
	RepoPath string `yaml:"repo_path" example:"/srv/checkouts/myrepo"`
	// Base git ref
	BaseRef string `yaml:"base_ref" example:"HEAD~1"`
	// Head git ref
	HeadRef string `yaml:"head_ref" example:"HEAD"`
	// Version tag used in release notes
	Version string `yaml:"version" example:"1.4.0"`
}

type Log struct {
	// Log debug records to the console
	Verbose bool `yaml:"verbose" example:"false"`
	// Telegram logging config
	Telegram TelegramLog `yaml:"telegram"`
}

type TelegramLog struct {
	// Chat bot token, obtain it via BotFather
	Token string `yaml:"token" example:"1234567890:ABCdefGHIjklMNopQRstUVwxyZ-123456789"`
	// Chat ID to send messages to
	ChatID string `yaml:"chat_id" example:"1001234567890"`
}

func Load() (*Config, error) {
	var result Config

	data, err := os.ReadFile("config.yaml")
	if err != nil {
		return nil, oops.Errorf("failed to read config file: %w", err)
	}

	if err = yaml.Unmarshal(data, &result); err != nil {
		return nil, oops.Errorf("failed to parse YAML config: %w", err)
	}

	if result.Privacy.Mode == "" {
		result.Privacy.Mode = "standard"
	}
	if result.Critic.MinCoveragePct == 0 {
		result.Critic.MinCoveragePct = 80
	}
	if result.Critic.MaxAssumptions == 0 {
		result.Critic.MaxAssumptions = 5
	}
	if result.Loop.MaxRetries == 0 {
		result.Loop.MaxRetries = 2
	}
	if result.Diff.BaseRef == "" {
		result.Diff.BaseRef = "HEAD~1"
	}
	if result.Diff.HeadRef == "" {
		result.Diff.HeadRef = "HEAD"
	}

	validate := validator.New(validator.WithRequiredStructEnabled())
	if err := validate.Struct(result); err != nil {
		return nil, oops.Errorf("failed to validate config: %w", err)
	}

	return &result, nil
}
