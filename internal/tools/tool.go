package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/stride-agent/stride/internal/governance"
	"github.com/stride-agent/stride/internal/observability"
)

// Name identifies one of the agent's capabilities. The set is closed:
// plans and actions naming anything else are rejected during validation.
type Name string

const (
	NameFetchWebContent Name = "fetch_web_content"
	NameWriteFile       Name = "write_file"
	NameReadFile        Name = "read_file"
	NameWebSearch       Name = "web_search"

	// NameGenerateText is a pseudo-tool: valid in plans, but serviced by
	// a direct model call instead of a registry entry.
	NameGenerateText Name = "generate_text"
)

// Known reports whether n is a member of the capability set, the
// generation pseudo-tool included.
func (n Name) Known() bool {
	switch n {
	case NameFetchWebContent, NameWriteFile, NameReadFile, NameWebSearch, NameGenerateText:
		return true
	}
	return false
}

// Pseudo reports whether n is carried out by the model rather than a
// registered tool.
func (n Name) Pseudo() bool {
	return n == NameGenerateText
}

// Tool defines the interface for all agent capabilities.
type Tool interface {
	Name() Name
	Description() string
	Parameters() map[string]any // JSON Schema for the tool's inputs
	Execute(ctx context.Context, input string) (string, error)
}

// Registry manages the set of available tools and gates every dispatch
// through the policy engine.
type Registry struct {
	tools  map[Name]Tool
	policy governance.PolicyEngine
	logger *observability.Logger
}

func NewRegistry(policy governance.PolicyEngine, logger *observability.Logger) *Registry {
	return &Registry{
		tools:  make(map[Name]Tool),
		policy: policy,
		logger: logger,
	}
}

func (r *Registry) Register(t Tool) {
	r.tools[t.Name()] = t
}

func (r *Registry) Get(name Name) Tool {
	return r.tools[name]
}

// Catalog renders the registered tools, plus the generation pseudo-tool,
// in the form the planner and executor prompts expect.
func (r *Registry) Catalog() string {
	names := make([]string, 0, len(r.tools))
	for n := range r.tools {
		names = append(names, string(n))
	}
	sort.Strings(names)

	var b strings.Builder
	for _, n := range names {
		t := r.tools[Name(n)]
		fmt.Fprintf(&b, "- %s:\n    Description: %s\n", t.Name(), t.Description())
		if schema, err := json.Marshal(t.Parameters()); err == nil {
			fmt.Fprintf(&b, "    Args: %s\n", schema)
		}
	}
	fmt.Fprintf(&b, "- %s:\n    Description: Generate free-form text (summaries, reports, creative writing) directly with the language model.\n", NameGenerateText)
	fmt.Fprintf(&b, "    Args: {\"prompt\": \"string (the full instruction describing the text to generate)\"}\n")
	return b.String()
}

// Dispatch routes a validated action to its tool. Policy denials and
// tool panics come back as ordinary errors; a tool can never terminate
// the run.
func (r *Registry) Dispatch(ctx context.Context, name Name, argsJSON string) (out string, err error) {
	tool := r.tools[name]
	if tool == nil {
		return "", fmt.Errorf("tool '%s' is not registered", name)
	}

	if r.policy != nil {
		verdict, perr := r.policy.Evaluate(ctx, governance.Request{
			Tool:      string(name),
			Arguments: argsJSON,
		})
		if perr != nil {
			return "", fmt.Errorf("policy evaluation failed: %w", perr)
		}
		if r.logger != nil {
			r.logger.LogPolicyCheck(string(name), string(verdict.Effect), verdict.Reason)
		}
		if verdict.Effect == governance.EffectDeny {
			return "", fmt.Errorf("blocked by policy: %s", verdict.Reason)
		}
	}

	defer func() {
		if rec := recover(); rec != nil {
			out = ""
			err = fmt.Errorf("tool '%s' panicked: %v", name, rec)
		}
	}()

	return tool.Execute(ctx, argsJSON)
}
