package agent

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

const defaultPlannerTemplate = `You are a planning AI assistant. Your goal is to create a step-by-step plan to fulfill the user's request using the available tools.

Available Tools:
%s

User Request: %s

Output the plan as a valid JSON list of steps. Each step must be a JSON object with keys: "step", "task_description", "tool_name", "arguments" (an object), and "output_ref" (a short unique name under which the step's result is stored, e.g. "step1_output"). A later step can pass a previous "output_ref" name as an argument value to receive that step's result.

Number the steps consecutively starting at 1. Respond ONLY with the JSON plan list. Ensure the JSON is valid and complete.`

const defaultExecutorTemplate = `You are an execution AI assistant. Your task is to generate the precise JSON object required to execute a specific step of a plan, given the context.

Available Tools:
%s

Current Plan Step Context:
Task Description: %s
Tool to Use: %s
Arguments Provided in Plan: %s
Input Data (if applicable, from previous steps):
%s

Based ONLY on the CURRENT step information, generate the required JSON object for the specified tool '%s'.
- The JSON object MUST have the keys "tool_name" and "arguments".
- The "arguments" value MUST be a JSON object containing all necessary parameter-name/value pairs for the tool '%s'.
- Ensure all string values within the JSON are properly quoted and escaped (use \n for newlines, \" for quotes).

Your response MUST be ONLY the valid JSON object itself, and nothing else.

Example output for fetch_web_content:
{
  "tool_name": "fetch_web_content",
  "arguments": {
    "url": "https://example.com"
  }
}

Example output for write_file:
{
  "tool_name": "write_file",
  "arguments": {
    "filename": "report.md",
    "content": "# Report Title\nThis is line one."
  }
}`

const defaultGenerationTemplate = `You are a helpful AI assistant. Complete the following writing instruction directly and thoroughly. Respond with the requested text only, without preamble or commentary.

Instruction: %s`

// Snippet length for previous-step data shown to the executor model.
const refSnippetMax = 200

// Prompts renders the planner, executor and generation prompts. A
// directory of markdown files (planner.md, executor.md, generator.md)
// can override the built-in templates; overrides must keep the same
// placeholder order.
type Prompts struct {
	Directory string
}

func NewPrompts(dir string) *Prompts {
	return &Prompts{Directory: dir}
}

func (p *Prompts) template(name, fallback string) string {
	if p.Directory == "" {
		return fallback
	}
	path := filepath.Join(p.Directory, name)
	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			log.Printf("Warning: failed to read prompt file %s: %v", path, err)
		}
		return fallback
	}
	return string(data)
}

// Planner renders the planning prompt from the tool catalog and the
// user's request.
func (p *Prompts) Planner(catalog, userRequest string) string {
	return fmt.Sprintf(p.template("planner.md", defaultPlannerTemplate), catalog, userRequest)
}

// Executor renders the action-generation prompt for one step. argsJSON
// carries the step's resolved arguments; used carries the payloads of
// referenced previous results.
func (p *Prompts) Executor(catalog string, step *Step, argsJSON string, used map[string]string) string {
	return fmt.Sprintf(p.template("executor.md", defaultExecutorTemplate),
		catalog, step.Description, step.Tool, argsJSON, refContext(used), step.Tool, step.Tool)
}

// Generation renders the free-form prompt for the generate_text
// pseudo-tool.
func (p *Prompts) Generation(instruction string) string {
	return fmt.Sprintf(p.template("generator.md", defaultGenerationTemplate), instruction)
}

// refContext renders the referenced previous results as short snippets,
// keeping the executor prompt small even when payloads are large.
func refContext(used map[string]string) string {
	if len(used) == 0 {
		return "None."
	}

	refs := make([]string, 0, len(used))
	for ref := range used {
		refs = append(refs, ref)
	}
	sort.Strings(refs)

	var b strings.Builder
	b.WriteString("Available data from previous steps (referenced by output_ref):\n")
	for _, ref := range refs {
		snippet := used[ref]
		if len(snippet) > refSnippetMax {
			snippet = snippet[:refSnippetMax] + "..."
		}
		fmt.Fprintf(&b, "- %s: %s\n", ref, snippet)
	}
	return strings.TrimRight(b.String(), "\n")
}
