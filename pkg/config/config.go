package config

import (
	"encoding/json"
	"log"
	"os"
)

type Config struct {
	App     AppConfig     `json:"app"`
	Models  ModelsConfig  `json:"models"`
	Tools   ToolsConfig   `json:"tools"`
	Run     RunConfig     `json:"run"`
	Audit   AuditConfig   `json:"audit"`
	Prompts PromptsConfig `json:"prompts"`
}

type AppConfig struct {
	Name      string `json:"name"`
	Workspace string `json:"workspace"`
}

type ModelsConfig struct {
	Planner        ModelConfig `json:"planner"`
	Executor       ModelConfig `json:"executor"`
	TimeoutSeconds int         `json:"timeout_seconds"`
	Retries        int         `json:"retries"`
}

type ModelConfig struct {
	Provider string `json:"provider"` // ollama, openai or openrouter
	Model    string `json:"model"`
	BaseURL  string `json:"base_url,omitempty"`
	APIKey   string `json:"api_key,omitempty"`
}

type ToolsConfig struct {
	Fetch  FetchConfig  `json:"fetch"`
	Search SearchConfig `json:"search"`
}

type FetchConfig struct {
	MaxContentChars int  `json:"max_content_chars"`
	RenderJS        bool `json:"render_js"`
}

type SearchConfig struct {
	DefaultResults int `json:"default_results"`
	MaxResults     int `json:"max_results"`
}

type RunConfig struct {
	MaxSteps      int `json:"max_steps"`
	ActionRetries int `json:"action_retries"`
}

type AuditConfig struct {
	Enabled bool   `json:"enabled"`
	Path    string `json:"path"`
}

type PromptsConfig struct {
	Directory string `json:"directory"`
}

// Default returns a runnable configuration pointing at a local Ollama
// instance, so the agent works without a config file.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

func LoadConfig(path string) *Config {
	file, err := os.Open(path)
	if err != nil {
		log.Fatalf("failed to open config file: %v", err)
	}
	defer file.Close()

	var cfg Config
	decoder := json.NewDecoder(file)
	if err := decoder.Decode(&cfg); err != nil {
		log.Fatalf("failed to decode config file: %v", err)
	}

	cfg.applyDefaults()
	return &cfg
}

func (c *Config) applyDefaults() {
	if c.App.Name == "" {
		c.App.Name = "stride"
	}
	if c.App.Workspace == "" {
		c.App.Workspace = "./workspace"
	}
	applyModelDefaults(&c.Models.Planner)
	applyModelDefaults(&c.Models.Executor)
	if c.Models.TimeoutSeconds <= 0 {
		c.Models.TimeoutSeconds = 90
	}
	if c.Models.Retries <= 0 {
		c.Models.Retries = 2
	}
	if c.Tools.Fetch.MaxContentChars <= 0 {
		c.Tools.Fetch.MaxContentChars = 4000
	}
	if c.Tools.Search.DefaultResults <= 0 {
		c.Tools.Search.DefaultResults = 5
	}
	if c.Tools.Search.MaxResults <= 0 {
		c.Tools.Search.MaxResults = 15
	}
	if c.Run.MaxSteps <= 0 {
		c.Run.MaxSteps = 10
	}
	if c.Run.ActionRetries <= 0 {
		c.Run.ActionRetries = 2
	}
	if c.Audit.Path == "" {
		c.Audit.Path = "stride.db"
	}
}

func applyModelDefaults(m *ModelConfig) {
	if m.Provider == "" {
		m.Provider = "ollama"
	}
	if m.Model == "" {
		m.Model = "llama3.2"
	}
	if m.Provider == "ollama" && m.BaseURL == "" {
		m.BaseURL = "http://localhost:11434"
	}
}
