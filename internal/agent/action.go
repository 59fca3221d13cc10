package agent

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/stride-agent/stride/internal/tools"
)

var (
	ErrActionMalformed    = errors.New("action is not a valid JSON object")
	ErrActionToolMismatch = errors.New("action tool_name does not match the planned step")
)

// Action is the concrete, fully resolved instruction dispatched for one
// step. Constructed fresh per step, never reused.
type Action struct {
	Tool      tools.Name     `json:"tool_name"`
	Arguments map[string]any `json:"arguments"`
}

// ParseAction validates raw executor output against the step's planned
// tool. Prose or fences around the JSON object are tolerated; a tool
// swap is not, and is never silently corrected.
func ParseAction(raw string, want tools.Name) (*Action, error) {
	payload := strings.TrimSpace(raw)
	if m := fenceRE.FindStringSubmatch(payload); m != nil {
		payload = strings.TrimSpace(m[1])
	}
	if !strings.HasPrefix(payload, "{") || !strings.HasSuffix(payload, "}") {
		start := strings.Index(payload, "{")
		end := strings.LastIndex(payload, "}")
		if start == -1 || end < start {
			return nil, fmt.Errorf("%w: no JSON object found in executor output", ErrActionMalformed)
		}
		payload = payload[start : end+1]
	}

	var action Action
	if err := json.Unmarshal([]byte(payload), &action); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrActionMalformed, err)
	}
	if action.Tool == "" {
		return nil, fmt.Errorf("%w: missing tool_name", ErrActionMalformed)
	}
	if action.Tool != want {
		return nil, fmt.Errorf("%w: step plans '%s', action wants '%s'", ErrActionToolMismatch, want, action.Tool)
	}
	if action.Arguments == nil {
		action.Arguments = make(map[string]any)
	}
	return &action, nil
}
