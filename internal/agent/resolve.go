package agent

import (
	"errors"
	"fmt"
	"strings"
)

var ErrFailedReference = errors.New("argument references a failed step result")

// refCutset covers the noise planner models wrap around reference
// names: quotes, stray braces, and whitespace.
const refCutset = "\"'{} \t\n\r"

// NormalizeRef strips incidental formatting noise from a candidate
// reference value before it is matched against stored result keys.
// Interior characters are untouched, so ordinary literals survive.
func NormalizeRef(value string) string {
	return strings.Trim(value, refCutset)
}

// ResolveArguments substitutes stored results into one step's
// arguments. A string value whose normalized form names a stored result
// is replaced by that result's payload; a string matching no stored key
// passes through as the original literal; non-string values always pass
// through. Referencing a stored failure fails the whole step.
//
// The second return value maps each referenced key to its full payload,
// for the executor prompt's context section.
func ResolveArguments(step *Step, store *ResultStore) (map[string]any, map[string]string, error) {
	resolved := make(map[string]any, len(step.Arguments))
	used := make(map[string]string)

	for key, value := range step.Arguments {
		str, ok := value.(string)
		if !ok {
			resolved[key] = value
			continue
		}

		ref := NormalizeRef(str)
		res, found := store.Get(ref)
		if !found {
			resolved[key] = value
			continue
		}
		if res.Failed() {
			return nil, nil, fmt.Errorf("%w: argument '%s' references '%s' (%s)", ErrFailedReference, key, ref, res.Err)
		}
		resolved[key] = res.Content
		used[ref] = res.Content
	}

	return resolved, used, nil
}
