package agent

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/stride-agent/stride/internal/tools"
)

// Step is one planned unit of work. Read-only after parsing.
type Step struct {
	Ordinal     int            `json:"step"`
	Description string         `json:"task_description"`
	Tool        tools.Name     `json:"tool_name"`
	Arguments   map[string]any `json:"arguments"`
	OutputRef   string         `json:"output_ref,omitempty"`
}

// Plan is the ordered step sequence produced once per run and immutable
// afterwards.
type Plan struct {
	Steps []Step `json:"steps"`
}

// Each validation failure is a distinct error so callers and tests can
// branch on the exact defect.
var (
	ErrPlanMalformed = errors.New("plan is not a valid JSON list")
	ErrPlanEmpty     = errors.New("plan contains no steps")
	ErrStepField     = errors.New("plan step is missing a required field")
	ErrUnknownTool   = errors.New("plan step names an unknown tool")
	ErrStepOrdinal   = errors.New("plan step numbers must be consecutive starting at 1")
	ErrDuplicateRef  = errors.New("plan declares a duplicate output_ref")
	ErrForwardRef    = errors.New("plan references an output_ref before it is produced")
)

var (
	fenceRE    = regexp.MustCompile("(?s)```(?:json)?\\s*(.*?)```")
	planListRE = regexp.MustCompile(`(?s)\[\s*\{.*?\}\s*\]`)
)

// extractPlanJSON pulls the JSON list out of raw planner output, which
// routinely arrives wrapped in code fences or surrounding prose.
func extractPlanJSON(raw string) (string, error) {
	s := strings.TrimSpace(raw)
	if m := fenceRE.FindStringSubmatch(s); m != nil {
		s = strings.TrimSpace(m[1])
	}
	if match := planListRE.FindString(s); match != "" {
		return match, nil
	}
	if strings.HasPrefix(s, "[") && strings.HasSuffix(s, "]") {
		return s, nil
	}
	return "", fmt.Errorf("%w: no JSON list found in planner output", ErrPlanMalformed)
}

// ParsePlan validates raw planner output into an executable Plan.
// Nothing is auto-corrected: any structural defect rejects the whole
// plan before a single step runs.
func ParsePlan(raw string) (*Plan, error) {
	payload, err := extractPlanJSON(raw)
	if err != nil {
		return nil, err
	}

	var steps []Step
	if err := json.Unmarshal([]byte(payload), &steps); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPlanMalformed, err)
	}
	if len(steps) == 0 {
		return nil, ErrPlanEmpty
	}

	declared := make(map[string]int) // output_ref -> index of the declaring step
	for i := range steps {
		s := &steps[i]
		s.OutputRef = strings.TrimSpace(s.OutputRef)

		if s.Ordinal <= 0 {
			return nil, fmt.Errorf("%w: element %d has no positive step number", ErrStepField, i+1)
		}
		if s.Ordinal != i+1 {
			return nil, fmt.Errorf("%w: position %d carries step number %d", ErrStepOrdinal, i+1, s.Ordinal)
		}
		if s.Description == "" {
			return nil, fmt.Errorf("%w: step %d has no task_description", ErrStepField, s.Ordinal)
		}
		if s.Tool == "" {
			return nil, fmt.Errorf("%w: step %d has no tool_name", ErrStepField, s.Ordinal)
		}
		if !s.Tool.Known() {
			return nil, fmt.Errorf("%w: step %d wants '%s'", ErrUnknownTool, s.Ordinal, s.Tool)
		}
		if s.Arguments == nil {
			return nil, fmt.Errorf("%w: step %d has no arguments object", ErrStepField, s.Ordinal)
		}
		if s.OutputRef != "" {
			if prev, dup := declared[s.OutputRef]; dup {
				return nil, fmt.Errorf("%w: '%s' declared by steps %d and %d", ErrDuplicateRef, s.OutputRef, steps[prev].Ordinal, s.Ordinal)
			}
			declared[s.OutputRef] = i
		}
	}

	// Argument values naming an output_ref must point at a strictly
	// earlier step. The check applies the same normalization the
	// resolver uses at execution time, so parse time and run time agree
	// on what counts as a reference.
	for i := range steps {
		for key, value := range steps[i].Arguments {
			str, ok := value.(string)
			if !ok {
				continue
			}
			ref := NormalizeRef(str)
			if at, found := declared[ref]; found && at >= i {
				return nil, fmt.Errorf("%w: step %d argument '%s' wants '%s' from step %d",
					ErrForwardRef, steps[i].Ordinal, key, ref, steps[at].Ordinal)
			}
		}
	}

	return &Plan{Steps: steps}, nil
}
