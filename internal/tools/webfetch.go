package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/chromedp/chromedp"
	"github.com/go-shiori/go-readability"
	"github.com/microcosm-cc/bluemonday"
)

type FetchTool struct {
	userAgent string
	maxChars  int
	renderJS  bool
	timeout   time.Duration
}

// NewFetchTool builds the web fetch tool. With renderJS set, pages are
// loaded through a headless browser before extraction, which captures
// script-built content at the cost of a local Chrome dependency.
func NewFetchTool(maxChars int, renderJS bool) *FetchTool {
	if maxChars <= 0 {
		maxChars = 4000
	}
	return &FetchTool{
		userAgent: "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36",
		maxChars:  maxChars,
		renderJS:  renderJS,
		timeout:   30 * time.Second,
	}
}

func (f *FetchTool) Name() Name {
	return NameFetchWebContent
}

func (f *FetchTool) Description() string {
	return "Fetch a webpage URL and extract the main content as clean, sanitized text. Use this when the exact URL is already known."
}

func (f *FetchTool) Parameters() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"url": map[string]any{
				"type":        "string",
				"description": "The full URL of the webpage to fetch (e.g., https://example.com/article)",
			},
		},
		"required": []string{"url"},
	}
}

func (f *FetchTool) Execute(ctx context.Context, input string) (string, error) {
	var args struct {
		URL string `json:"url"`
	}
	if err := json.Unmarshal([]byte(input), &args); err != nil {
		return "", fmt.Errorf("invalid input: %v", err)
	}
	if args.URL == "" {
		return "", fmt.Errorf("url must not be empty")
	}

	// Planner models regularly omit the scheme.
	rawURL := args.URL
	if !strings.HasPrefix(rawURL, "http://") && !strings.HasPrefix(rawURL, "https://") {
		rawURL = "http://" + rawURL
	}

	parsedURL, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("failed to parse URL: %v", err)
	}

	var article readability.Article
	if f.renderJS {
		html, err := f.renderHTML(ctx, rawURL)
		if err != nil {
			return "", err
		}
		article, err = readability.FromReader(strings.NewReader(html), parsedURL)
		if err != nil {
			return "", fmt.Errorf("failed to parse article: %v", err)
		}
	} else {
		client := &http.Client{
			Timeout: f.timeout,
		}

		req, err := http.NewRequestWithContext(ctx, "GET", rawURL, nil)
		if err != nil {
			return "", fmt.Errorf("failed to create request: %v", err)
		}
		req.Header.Set("User-Agent", f.userAgent)

		resp, err := client.Do(req)
		if err != nil {
			return "", fmt.Errorf("failed to fetch URL: %v", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return "", fmt.Errorf("failed to fetch URL: status code %d", resp.StatusCode)
		}

		article, err = readability.FromReader(resp.Body, parsedURL)
		if err != nil {
			return "", fmt.Errorf("failed to parse article: %v", err)
		}
	}

	// Sanitize output (remove any remaining HTML tags or scripts)
	p := bluemonday.StrictPolicy()
	sanitized := p.Sanitize(article.TextContent)

	// Combine into a structured report for the LLM
	output := fmt.Sprintf("TITLE: %s\n", article.Title)
	if article.Excerpt != "" {
		output += fmt.Sprintf("EXCERPT: %s\n", article.Excerpt)
	}
	output += "\n-- CONTENT --\n"
	output += truncate(sanitized, f.maxChars)

	return output, nil
}

func (f *FetchTool) renderHTML(ctx context.Context, pageURL string) (string, error) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.NoSandbox,
		chromedp.Flag("headless", true),
		chromedp.Flag("no-first-run", true),
		chromedp.Flag("no-default-browser-check", true),
	)

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
	defer cancelAlloc()
	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)
	defer cancelBrowser()

	runCtx, cancel := context.WithTimeout(browserCtx, f.timeout)
	defer cancel()

	var html string
	err := chromedp.Run(runCtx,
		chromedp.Navigate(pageURL),
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
	)
	if err != nil {
		return "", fmt.Errorf("browser rendering failed: %v", err)
	}
	return html, nil
}
