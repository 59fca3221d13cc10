package tools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/tmc/langchaingo/tools/duckduckgo"
)

const searchOutputMax = 3500

type SearchTool struct {
	defaultResults int
	maxResults     int
	userAgent      string
}

func NewSearchTool(defaultResults, maxResults int) (*SearchTool, error) {
	if defaultResults <= 0 {
		defaultResults = 5
	}
	if maxResults <= 0 {
		maxResults = 15
	}
	s := &SearchTool{
		defaultResults: defaultResults,
		maxResults:     maxResults,
		userAgent:      duckduckgo.DefaultUserAgent,
	}
	// Probe construction once so a bad client setup surfaces at startup
	// rather than mid-plan.
	if _, err := duckduckgo.New(defaultResults, s.userAgent); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *SearchTool) Name() Name {
	return NameWebSearch
}

func (s *SearchTool) Description() string {
	return fmt.Sprintf("Search the web using DuckDuckGo and return the top results (title, URL, snippet). Use this FIRST when information is needed and no URL is known. Default %d results, maximum %d.", s.defaultResults, s.maxResults)
}

func (s *SearchTool) Parameters() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"query": map[string]any{
				"type":        "string",
				"description": "The search term or question to look up",
			},
			"num_results": map[string]any{
				"type":        "integer",
				"description": fmt.Sprintf("Optional number of results to retrieve (default %d, max %d)", s.defaultResults, s.maxResults),
			},
		},
		"required": []string{"query"},
	}
}

func (s *SearchTool) Execute(ctx context.Context, input string) (string, error) {
	var args struct {
		Query      string `json:"query"`
		NumResults int    `json:"num_results"`
	}
	if err := json.Unmarshal([]byte(input), &args); err != nil {
		return "", fmt.Errorf("invalid input: %v", err)
	}
	if args.Query == "" {
		return "", fmt.Errorf("search query must not be empty")
	}

	n := s.clampResults(args.NumResults)

	// The client is sized per call because the result count is a
	// per-call argument.
	ddg, err := duckduckgo.New(n, s.userAgent)
	if err != nil {
		return "", fmt.Errorf("failed to initialize search client: %w", err)
	}

	res, err := ddg.Call(ctx, args.Query)
	if err != nil {
		return "", fmt.Errorf("web search failed: %w", err)
	}
	if res == "" {
		return fmt.Sprintf("Web search for '%s' returned no results.", args.Query), nil
	}

	return truncate(res, searchOutputMax), nil
}

func (s *SearchTool) clampResults(n int) int {
	if n <= 0 {
		return s.defaultResults
	}
	if n > s.maxResults {
		return s.maxResults
	}
	return n
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "\n... (content truncated) ..."
}
