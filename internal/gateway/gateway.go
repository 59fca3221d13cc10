package gateway

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/stride-agent/stride/internal/observability"
	"github.com/stride-agent/stride/pkg/config"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/llms/openai"
)

// Role selects which configured backend serves a request.
type Role string

const (
	RolePlanner  Role = "planner"
	RoleExecutor Role = "executor"
)

// Request is one prompt for a language-model backend. ConstrainJSON
// asks the backend to emit syntactically valid JSON.
type Request struct {
	Role          Role
	Prompt        string
	ConstrainJSON bool
}

var ErrUnknownProvider = errors.New("unknown model provider")

// Gateway fronts the planner and executor backends behind a single
// request/response contract with per-call timeouts and bounded retries.
type Gateway struct {
	planner  llms.Model
	executor llms.Model
	timeout  time.Duration
	retries  int
	logger   *observability.Logger
}

func New(planner, executor llms.Model, timeout time.Duration, retries int, logger *observability.Logger) *Gateway {
	if timeout <= 0 {
		timeout = 90 * time.Second
	}
	if retries < 0 {
		retries = 0
	}
	return &Gateway{
		planner:  planner,
		executor: executor,
		timeout:  timeout,
		retries:  retries,
		logger:   logger,
	}
}

// NewFromConfig builds both backends from the models section of the
// configuration.
func NewFromConfig(cfg *config.Config, logger *observability.Logger) (*Gateway, error) {
	planner, err := buildModel(cfg.Models.Planner)
	if err != nil {
		return nil, fmt.Errorf("planner backend: %w", err)
	}
	executor, err := buildModel(cfg.Models.Executor)
	if err != nil {
		return nil, fmt.Errorf("executor backend: %w", err)
	}
	timeout := time.Duration(cfg.Models.TimeoutSeconds) * time.Second
	return New(planner, executor, timeout, cfg.Models.Retries, logger), nil
}

func buildModel(mc config.ModelConfig) (llms.Model, error) {
	switch mc.Provider {
	case "ollama":
		opts := []ollama.Option{
			ollama.WithModel(mc.Model),
		}
		if mc.BaseURL != "" {
			opts = append(opts, ollama.WithServerURL(mc.BaseURL))
		}
		return ollama.New(opts...)
	case "openai", "openrouter":
		opts := []openai.Option{
			openai.WithToken(mc.APIKey),
			openai.WithModel(mc.Model),
		}
		if mc.BaseURL != "" {
			opts = append(opts, openai.WithBaseURL(mc.BaseURL))
		}
		return openai.New(opts...)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownProvider, mc.Provider)
	}
}

// Generate sends the request to the backend selected by its role and
// returns the raw text response. Transport and timeout failures are
// retried up to the configured count; the last error is returned once
// the budget is spent.
func (g *Gateway) Generate(ctx context.Context, req Request) (string, error) {
	model := g.executor
	if req.Role == RolePlanner {
		model = g.planner
	}
	if model == nil {
		return "", fmt.Errorf("no backend configured for role %s", req.Role)
	}

	var opts []llms.CallOption
	if req.ConstrainJSON {
		opts = append(opts, llms.WithJSONMode())
	}

	var lastErr error
	for attempt := 0; attempt <= g.retries; attempt++ {
		callCtx, cancel := context.WithTimeout(ctx, g.timeout)
		out, err := llms.GenerateFromSinglePrompt(callCtx, model, req.Prompt, opts...)
		cancel()

		if err == nil {
			if g.logger != nil {
				g.logger.LogLLM(string(req.Role), req.Prompt, out)
			}
			return out, nil
		}

		lastErr = err
		log.Printf("[Gateway] %s call failed (attempt %d/%d): %v", req.Role, attempt+1, g.retries+1, err)

		// The caller is gone; further attempts cannot succeed.
		if ctx.Err() != nil {
			break
		}
	}

	return "", fmt.Errorf("%s backend failed after %d attempts: %w", req.Role, g.retries+1, lastErr)
}
