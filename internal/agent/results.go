package agent

import (
	"errors"
	"fmt"
)

// Result is the outcome of one executed step: either a success payload
// or a failure message, never both. Immutable once stored.
type Result struct {
	Content string `json:"content,omitempty"`
	Err     string `json:"error,omitempty"`
}

func Success(content string) Result {
	return Result{Content: content}
}

func Failure(message string) Result {
	return Result{Err: message}
}

// Failed reports whether the result is the failure variant.
func (r Result) Failed() bool {
	return r.Err != ""
}

var ErrRefExists = errors.New("output_ref already holds a result")

// ResultStore accumulates step results keyed by output_ref for the
// lifetime of one run. Append-only: a key, once written, is never
// replaced, and nothing is persisted beyond the run.
type ResultStore struct {
	results map[string]Result
	refs    []string
}

func NewResultStore() *ResultStore {
	return &ResultStore{results: make(map[string]Result)}
}

// Put stores a result under ref. Writing to an existing key is an
// error, never an overwrite.
func (s *ResultStore) Put(ref string, r Result) error {
	if _, exists := s.results[ref]; exists {
		return fmt.Errorf("%w: '%s'", ErrRefExists, ref)
	}
	s.results[ref] = r
	s.refs = append(s.refs, ref)
	return nil
}

func (s *ResultStore) Get(ref string) (Result, bool) {
	r, ok := s.results[ref]
	return r, ok
}

func (s *ResultStore) Len() int {
	return len(s.results)
}

// Refs returns the stored keys in insertion order.
func (s *ResultStore) Refs() []string {
	out := make([]string, len(s.refs))
	copy(out, s.refs)
	return out
}
