package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"

	"github.com/stride-agent/stride/internal/gateway"
	"github.com/stride-agent/stride/internal/observability"
	"github.com/stride-agent/stride/internal/tools"
)

// Generator is the slice of the model gateway the runner needs.
type Generator interface {
	Generate(ctx context.Context, req gateway.Request) (string, error)
}

// Dispatcher is the slice of the tool registry the runner needs.
type Dispatcher interface {
	Catalog() string
	Dispatch(ctx context.Context, name tools.Name, argsJSON string) (string, error)
}

// State is the terminal condition of a run.
type State string

const (
	StateCompleted State = "completed"
	StateHalted    State = "halted"
)

// Outcome records how a run ended. Reason is set only for halts.
type Outcome struct {
	State  State  `json:"state"`
	Reason string `json:"reason,omitempty"`
}

// RunReport is everything a run produced: the plan, the stored step
// results, and the terminal outcome.
type RunReport struct {
	Request  string
	Plan     *Plan
	Results  *ResultStore
	Executed int
	Outcome  Outcome
}

// Runner drives one request end to end: it asks the planner model for a
// plan once, then executes the steps strictly in order, halting at the
// first failure. Results never feed back into planning.
type Runner struct {
	gateway       Generator
	registry      Dispatcher
	prompts       *Prompts
	logger        *observability.Logger
	maxSteps      int
	actionRetries int
}

func NewRunner(gw Generator, registry Dispatcher, prompts *Prompts, logger *observability.Logger, maxSteps, actionRetries int) *Runner {
	if maxSteps <= 0 {
		maxSteps = 10
	}
	if actionRetries < 0 {
		actionRetries = 0
	}
	return &Runner{
		gateway:       gw,
		registry:      registry,
		prompts:       prompts,
		logger:        logger,
		maxSteps:      maxSteps,
		actionRetries: actionRetries,
	}
}

// Run plans and executes one user request. The returned report is never
// nil; the outcome says whether the plan ran to completion.
func (r *Runner) Run(ctx context.Context, userRequest string) *RunReport {
	report := &RunReport{
		Request: userRequest,
		Results: NewResultStore(),
	}

	catalog := r.registry.Catalog()

	log.Printf("[Planner] Generating plan for request: %s", firstLine(userRequest))
	raw, err := r.gateway.Generate(ctx, gateway.Request{
		Role:          gateway.RolePlanner,
		Prompt:        r.prompts.Planner(catalog, userRequest),
		ConstrainJSON: true,
	})
	if err != nil {
		return r.halt(report, fmt.Sprintf("planner call failed: %v", err))
	}

	plan, err := ParsePlan(raw)
	if err != nil {
		return r.halt(report, fmt.Sprintf("plan rejected: %v", err))
	}
	report.Plan = plan
	if r.logger != nil {
		r.logger.LogPlan(len(plan.Steps), userRequest)
	}

	for i := range plan.Steps {
		step := &plan.Steps[i]

		if ctx.Err() != nil {
			return r.halt(report, fmt.Sprintf("run aborted: %v", ctx.Err()))
		}
		if report.Executed >= r.maxSteps {
			return r.halt(report, fmt.Sprintf("step limit reached (%d)", r.maxSteps))
		}

		log.Printf("[Step %d/%d] %s (tool: %s)", step.Ordinal, len(plan.Steps), step.Description, step.Tool)
		if r.logger != nil {
			r.logger.LogStep(step.Ordinal, string(step.Tool), step.Description)
		}

		res := r.executeStep(ctx, step, report.Results, catalog)
		report.Executed++

		// The result is stored before the failure check so that a halted
		// run still exposes the failing step's output under its ref.
		if step.OutputRef != "" {
			if perr := report.Results.Put(step.OutputRef, res); perr != nil {
				res = Failure(fmt.Sprintf("storing result failed: %v", perr))
			}
		}
		if r.logger != nil {
			r.logger.LogToolResult(step.Ordinal, string(step.Tool), res.Failed(), len(res.Content))
		}

		if res.Failed() {
			return r.halt(report, fmt.Sprintf("step %d failed: %s", step.Ordinal, res.Err))
		}
	}

	report.Outcome = Outcome{State: StateCompleted}
	if r.logger != nil {
		r.logger.LogRun(string(StateCompleted), report.Executed, "")
	}
	return report
}

func (r *Runner) halt(report *RunReport, reason string) *RunReport {
	report.Outcome = Outcome{State: StateHalted, Reason: reason}
	log.Printf("[Run] halted: %s", reason)
	if r.logger != nil {
		r.logger.LogRun(string(StateHalted), report.Executed, reason)
	}
	return report
}

// executeStep resolves the step's arguments, asks the executor model
// for the tool action, and dispatches it. Malformed actions are retried
// within the configured budget; everything else fails the step.
func (r *Runner) executeStep(ctx context.Context, step *Step, store *ResultStore, catalog string) Result {
	resolved, used, err := ResolveArguments(step, store)
	if err != nil {
		return Failure(fmt.Sprintf("argument resolution failed: %v", err))
	}

	if step.Tool.Pseudo() {
		return r.generateText(ctx, resolved)
	}

	argsJSON, err := json.Marshal(resolved)
	if err != nil {
		return Failure(fmt.Sprintf("arguments are not serializable: %v", err))
	}

	prompt := r.prompts.Executor(catalog, step, string(argsJSON), used)

	var lastErr error
	for attempt := 0; attempt <= r.actionRetries; attempt++ {
		raw, err := r.gateway.Generate(ctx, gateway.Request{
			Role:          gateway.RoleExecutor,
			Prompt:        prompt,
			ConstrainJSON: true,
		})
		if err != nil {
			// The gateway already retried transport failures.
			return Failure(fmt.Sprintf("executor call failed: %v", err))
		}

		action, err := ParseAction(raw, step.Tool)
		if err != nil {
			lastErr = err
			log.Printf("[Step %d] action rejected (attempt %d/%d): %v", step.Ordinal, attempt+1, r.actionRetries+1, err)
			continue
		}

		// The tool receives the arguments the executor model produced,
		// not the resolved plan arguments.
		execArgs, err := json.Marshal(action.Arguments)
		if err != nil {
			return Failure(fmt.Sprintf("action arguments are not serializable: %v", err))
		}

		if r.logger != nil {
			r.logger.LogToolCall(step.Ordinal, string(action.Tool), string(execArgs))
		}
		out, err := r.registry.Dispatch(ctx, action.Tool, string(execArgs))
		if err != nil {
			return Failure(err.Error())
		}
		return Success(out)
	}

	return Failure(fmt.Sprintf("no valid action after %d attempts: %v", r.actionRetries+1, lastErr))
}

// generateText services the generation pseudo-tool with a direct,
// unconstrained model call.
func (r *Runner) generateText(ctx context.Context, resolved map[string]any) Result {
	instruction, _ := resolved["prompt"].(string)
	if strings.TrimSpace(instruction) == "" {
		return Failure("'generate_text' step planned without a 'prompt' argument")
	}

	out, err := r.gateway.Generate(ctx, gateway.Request{
		Role:   gateway.RoleExecutor,
		Prompt: r.prompts.Generation(instruction),
	})
	if err != nil {
		return Failure(fmt.Sprintf("text generation failed: %v", err))
	}
	return Success(out)
}

// firstLine trims a request to one short log-friendly line.
func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	if len(s) > 80 {
		s = s[:80] + "..."
	}
	return s
}
