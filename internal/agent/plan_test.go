package agent

import (
	"errors"
	"strings"
	"testing"
)

const twoStepPlan = `[
  {"step": 1, "task_description": "Search for Go release notes", "tool_name": "web_search", "arguments": {"query": "golang 1.25 release notes"}, "output_ref": "search_results"},
  {"step": 2, "task_description": "Summarize the findings", "tool_name": "generate_text", "arguments": {"prompt": "search_results"}}
]`

func TestParsePlan_Valid(t *testing.T) {
	plan, err := ParsePlan(twoStepPlan)
	if err != nil {
		t.Fatalf("ParsePlan failed: %v", err)
	}
	if len(plan.Steps) != 2 {
		t.Fatalf("expected 2 steps, got %d", len(plan.Steps))
	}

	first := plan.Steps[0]
	if first.Ordinal != 1 {
		t.Errorf("first step ordinal = %d, want 1", first.Ordinal)
	}
	if first.Tool != "web_search" {
		t.Errorf("first step tool = %s, want web_search", first.Tool)
	}
	if first.OutputRef != "search_results" {
		t.Errorf("first step output_ref = %q", first.OutputRef)
	}
	if q, _ := first.Arguments["query"].(string); q != "golang 1.25 release notes" {
		t.Errorf("first step query argument = %q", q)
	}
	if plan.Steps[1].OutputRef != "" {
		t.Errorf("second step output_ref = %q, want empty", plan.Steps[1].OutputRef)
	}
}

func TestParsePlan_WrappedOutput(t *testing.T) {
	cases := []struct {
		name string
		raw  string
	}{
		{"code fence", "```json\n" + twoStepPlan + "\n```"},
		{"bare fence", "```\n" + twoStepPlan + "\n```"},
		{"surrounding prose", "Here is the plan you asked for:\n" + twoStepPlan + "\nLet me know if you need changes."},
		{"leading whitespace", "\n\n  " + twoStepPlan + "  \n"},
	}

	for _, tc := range cases {
		plan, err := ParsePlan(tc.raw)
		if err != nil {
			t.Errorf("%s: ParsePlan failed: %v", tc.name, err)
			continue
		}
		if len(plan.Steps) != 2 {
			t.Errorf("%s: expected 2 steps, got %d", tc.name, len(plan.Steps))
		}
	}
}

func TestParsePlan_Malformed(t *testing.T) {
	cases := []string{
		"",
		"I could not produce a plan, sorry.",
		`{"step": 1}`,
		"[1, 2, 3]",
		`[{"step": "one", "task_description": "x", "tool_name": "web_search", "arguments": {}}]`,
	}

	for _, raw := range cases {
		if _, err := ParsePlan(raw); !errors.Is(err, ErrPlanMalformed) {
			t.Errorf("ParsePlan(%q) error = %v, want ErrPlanMalformed", raw, err)
		}
	}
}

func TestParsePlan_Empty(t *testing.T) {
	if _, err := ParsePlan("[]"); !errors.Is(err, ErrPlanEmpty) {
		t.Errorf("empty list error = %v, want ErrPlanEmpty", err)
	}
}

func TestParsePlan_StepValidation(t *testing.T) {
	cases := []struct {
		name string
		raw  string
		want error
	}{
		{
			"missing description",
			`[{"step": 1, "tool_name": "web_search", "arguments": {"query": "x"}}]`,
			ErrStepField,
		},
		{
			"missing tool",
			`[{"step": 1, "task_description": "search", "arguments": {"query": "x"}}]`,
			ErrStepField,
		},
		{
			"missing arguments",
			`[{"step": 1, "task_description": "search", "tool_name": "web_search"}]`,
			ErrStepField,
		},
		{
			"missing step number",
			`[{"task_description": "search", "tool_name": "web_search", "arguments": {"query": "x"}}]`,
			ErrStepField,
		},
		{
			"unknown tool",
			`[{"step": 1, "task_description": "launch", "tool_name": "send_email", "arguments": {}}]`,
			ErrUnknownTool,
		},
		{
			"numbering starts at 2",
			`[{"step": 2, "task_description": "search", "tool_name": "web_search", "arguments": {"query": "x"}}]`,
			ErrStepOrdinal,
		},
		{
			"numbering gap",
			`[{"step": 1, "task_description": "search", "tool_name": "web_search", "arguments": {"query": "x"}, "output_ref": "a"},
			  {"step": 3, "task_description": "write", "tool_name": "write_file", "arguments": {"filename": "out.md", "content": "a"}}]`,
			ErrStepOrdinal,
		},
		{
			"duplicate output_ref",
			`[{"step": 1, "task_description": "search once", "tool_name": "web_search", "arguments": {"query": "x"}, "output_ref": "results"},
			  {"step": 2, "task_description": "search twice", "tool_name": "web_search", "arguments": {"query": "y"}, "output_ref": "results"}]`,
			ErrDuplicateRef,
		},
	}

	for _, tc := range cases {
		if _, err := ParsePlan(tc.raw); !errors.Is(err, tc.want) {
			t.Errorf("%s: error = %v, want %v", tc.name, err, tc.want)
		}
	}
}

func TestParsePlan_ForwardReference(t *testing.T) {
	forward := `[
	  {"step": 1, "task_description": "Summarize the page", "tool_name": "generate_text", "arguments": {"prompt": "page_text"}},
	  {"step": 2, "task_description": "Fetch the page", "tool_name": "fetch_web_content", "arguments": {"url": "https://example.com"}, "output_ref": "page_text"}
	]`
	if _, err := ParsePlan(forward); !errors.Is(err, ErrForwardRef) {
		t.Errorf("forward reference error = %v, want ErrForwardRef", err)
	}

	self := `[
	  {"step": 1, "task_description": "Fetch the page", "tool_name": "fetch_web_content", "arguments": {"url": "page_text"}, "output_ref": "page_text"}
	]`
	if _, err := ParsePlan(self); !errors.Is(err, ErrForwardRef) {
		t.Errorf("self reference error = %v, want ErrForwardRef", err)
	}
}

func TestParsePlan_NoisyBackwardReference(t *testing.T) {
	// The reference check applies the resolver's normalization, so a
	// quoted or braced ref still counts as a reference, and a backward
	// one is fine.
	raw := `[
	  {"step": 1, "task_description": "Fetch the page", "tool_name": "fetch_web_content", "arguments": {"url": "https://example.com"}, "output_ref": "page_text"},
	  {"step": 2, "task_description": "Save it", "tool_name": "write_file", "arguments": {"filename": "page.md", "content": "{page_text}"}}
	]`
	plan, err := ParsePlan(raw)
	if err != nil {
		t.Fatalf("ParsePlan failed: %v", err)
	}
	if len(plan.Steps) != 2 {
		t.Fatalf("expected 2 steps, got %d", len(plan.Steps))
	}
}

func TestParsePlan_TrimsOutputRef(t *testing.T) {
	raw := `[{"step": 1, "task_description": "search", "tool_name": "web_search", "arguments": {"query": "x"}, "output_ref": "  results  "}]`
	plan, err := ParsePlan(raw)
	if err != nil {
		t.Fatalf("ParsePlan failed: %v", err)
	}
	if plan.Steps[0].OutputRef != "results" {
		t.Errorf("output_ref = %q, want %q", plan.Steps[0].OutputRef, "results")
	}
}

func TestParsePlan_OrdinaryLiteralsAreNotReferences(t *testing.T) {
	raw := `[
	  {"step": 1, "task_description": "search", "tool_name": "web_search", "arguments": {"query": "x"}, "output_ref": "results"},
	  {"step": 2, "task_description": "write", "tool_name": "generate_text", "arguments": {"prompt": "Summarize the text in results above"}}
	]`
	plan, err := ParsePlan(raw)
	if err != nil {
		t.Fatalf("ParsePlan failed: %v", err)
	}
	if !strings.Contains(plan.Steps[1].Arguments["prompt"].(string), "results above") {
		t.Error("literal prompt was altered during parsing")
	}
}
