package agent

import (
	"errors"
	"testing"
)

func TestNormalizeRef(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"search_results", "search_results"},
		{`"search_results"`, "search_results"},
		{"'search_results'", "search_results"},
		{"{search_results}", "search_results"},
		{` "{ search_results }" `, "search_results"},
		{"  step1_output\n", "step1_output"},
		{"", ""},
		{"   ", ""},
		// Interior characters survive, so ordinary prose is untouched.
		{"the search results", "the search results"},
		{"https://example.com", "https://example.com"},
	}

	for _, tc := range cases {
		if got := NormalizeRef(tc.in); got != tc.want {
			t.Errorf("NormalizeRef(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestResolveArguments_Substitution(t *testing.T) {
	store := NewResultStore()
	if err := store.Put("page_text", Success("the fetched article body")); err != nil {
		t.Fatal(err)
	}

	step := &Step{
		Ordinal:     2,
		Description: "Save the article",
		Tool:        "write_file",
		Arguments: map[string]any{
			"filename": "article.md",
			"content":  `"{page_text}"`,
			"retries":  float64(3),
		},
	}

	resolved, used, err := ResolveArguments(step, store)
	if err != nil {
		t.Fatalf("ResolveArguments failed: %v", err)
	}
	if resolved["content"] != "the fetched article body" {
		t.Errorf("content = %v, want stored payload", resolved["content"])
	}
	if resolved["filename"] != "article.md" {
		t.Errorf("filename literal was altered: %v", resolved["filename"])
	}
	if resolved["retries"] != float64(3) {
		t.Errorf("non-string argument was altered: %v", resolved["retries"])
	}
	if used["page_text"] != "the fetched article body" {
		t.Errorf("used map = %v, want page_text entry", used)
	}
	if len(used) != 1 {
		t.Errorf("used map has %d entries, want 1", len(used))
	}
}

func TestResolveArguments_UnknownNamePassesThrough(t *testing.T) {
	store := NewResultStore()
	step := &Step{
		Arguments: map[string]any{"query": "golang concurrency patterns"},
	}

	resolved, used, err := ResolveArguments(step, store)
	if err != nil {
		t.Fatalf("ResolveArguments failed: %v", err)
	}
	if resolved["query"] != "golang concurrency patterns" {
		t.Errorf("literal argument was altered: %v", resolved["query"])
	}
	if len(used) != 0 {
		t.Errorf("used map should be empty, got %v", used)
	}
}

func TestResolveArguments_FailedReference(t *testing.T) {
	store := NewResultStore()
	if err := store.Put("search_results", Failure("search backend unreachable")); err != nil {
		t.Fatal(err)
	}

	step := &Step{
		Arguments: map[string]any{"prompt": "search_results"},
	}

	_, _, err := ResolveArguments(step, store)
	if !errors.Is(err, ErrFailedReference) {
		t.Errorf("error = %v, want ErrFailedReference", err)
	}
}

func TestResultStore_AppendOnly(t *testing.T) {
	store := NewResultStore()
	if err := store.Put("a", Success("first")); err != nil {
		t.Fatal(err)
	}
	if err := store.Put("a", Success("second")); !errors.Is(err, ErrRefExists) {
		t.Errorf("overwrite error = %v, want ErrRefExists", err)
	}

	got, ok := store.Get("a")
	if !ok || got.Content != "first" {
		t.Errorf("stored value changed: %v", got)
	}

	if err := store.Put("b", Failure("boom")); err != nil {
		t.Fatal(err)
	}
	refs := store.Refs()
	if len(refs) != 2 || refs[0] != "a" || refs[1] != "b" {
		t.Errorf("Refs() = %v, want [a b]", refs)
	}
	if store.Len() != 2 {
		t.Errorf("Len() = %d, want 2", store.Len())
	}
}
