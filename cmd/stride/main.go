package main

import (
	"bufio"
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/stride-agent/stride/internal/agent"
	"github.com/stride-agent/stride/internal/gateway"
	"github.com/stride-agent/stride/internal/governance"
	"github.com/stride-agent/stride/internal/observability"
	"github.com/stride-agent/stride/internal/store"
	"github.com/stride-agent/stride/internal/tools"
	"github.com/stride-agent/stride/pkg/config"
)

func main() {
	observability.PrintBanner()

	cfgPath := "config.json"
	if len(os.Args) > 1 {
		cfgPath = os.Args[1]
	}
	var cfg *config.Config
	if _, err := os.Stat(cfgPath); err == nil {
		cfg = config.LoadConfig(cfgPath)
	} else {
		log.Printf("No config file at %s, using defaults", cfgPath)
		cfg = config.Default()
	}

	// Each process run gets its own session directory under the
	// workspace, so file outputs from different runs never collide.
	session := "session_" + time.Now().Format("20060102_150405")
	workspace, err := tools.NewWorkspace(filepath.Join(cfg.App.Workspace, session))
	if err != nil {
		log.Fatalf("failed to prepare workspace: %v", err)
	}

	logger := observability.NewLogger(session)
	policy := governance.NewToolPolicy()

	registry := tools.NewRegistry(policy, logger)

	searchTool, err := tools.NewSearchTool(cfg.Tools.Search.DefaultResults, cfg.Tools.Search.MaxResults)
	if err != nil {
		log.Printf("Warning: Failed to initialize search tool: %v", err)
	} else {
		registry.Register(searchTool)
	}
	registry.Register(tools.NewFetchTool(cfg.Tools.Fetch.MaxContentChars, cfg.Tools.Fetch.RenderJS))
	registry.Register(tools.NewWriteFileTool(workspace))
	registry.Register(tools.NewReadFileTool(workspace))

	gw, err := gateway.NewFromConfig(cfg, logger)
	if err != nil {
		log.Fatal(err)
	}

	prompts := agent.NewPrompts(cfg.Prompts.Directory)
	runner := agent.NewRunner(gw, registry, prompts, logger, cfg.Run.MaxSteps, cfg.Run.ActionRetries)

	var audit *store.RunStore
	if cfg.Audit.Enabled {
		audit, err = store.NewRunStore(cfg.Audit.Path)
		if err != nil {
			log.Printf("Warning: Failed to open audit store: %v", err)
			audit = nil
		} else {
			defer audit.Close()
			if n, err := audit.CountRuns(); err == nil && n > 0 {
				log.Printf("[%s] audit trail holds %d previous runs", cfg.App.Name, n)
				if last, err := audit.RecentRuns(1); err == nil && len(last) > 0 {
					log.Printf("[%s] last run: %s (%s)", cfg.App.Name, last[0].State, last[0].Request)
				}
			}
		}
	}

	log.Printf("[%s] session %s started (workspace: %s)", cfg.App.Name, session, workspace.Root())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	scanner := bufio.NewScanner(os.Stdin)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for {
		if ctx.Err() != nil {
			break
		}

		fmt.Print("\n\033[92mYou:\033[0m ")
		if !scanner.Scan() {
			break
		}
		request := strings.TrimSpace(scanner.Text())
		if request == "" {
			continue
		}
		if request == "quit" || request == "exit" {
			break
		}

		report := runner.Run(ctx, request)
		printReport(report)
		if audit != nil {
			recordRun(audit, session, report)
		}
	}

	fmt.Println("\n\033[95mGoodbye.\033[0m")
}

func printReport(report *agent.RunReport) {
	if report.Plan != nil {
		fmt.Printf("\nPlan (%d steps):\n", len(report.Plan.Steps))
		for _, step := range report.Plan.Steps {
			if step.OutputRef != "" {
				fmt.Printf("  %d. %s (tool: %s -> %s)\n", step.Ordinal, step.Description, step.Tool, step.OutputRef)
			} else {
				fmt.Printf("  %d. %s (tool: %s)\n", step.Ordinal, step.Description, step.Tool)
			}
		}
	}

	for _, ref := range report.Results.Refs() {
		res, _ := report.Results.Get(ref)
		if res.Failed() {
			fmt.Printf("\n\033[91m[%s]\033[0m %s\n", ref, res.Err)
		} else {
			fmt.Printf("\n\033[96m[%s]\033[0m %s\n", ref, snippet(res.Content, 600))
		}
	}

	switch report.Outcome.State {
	case agent.StateCompleted:
		fmt.Printf("\n\033[96mRun completed (%d steps executed).\033[0m\n", report.Executed)
	default:
		fmt.Printf("\n\033[93mRun halted: %s\033[0m\n", report.Outcome.Reason)
	}
}

func recordRun(audit *store.RunStore, session string, report *agent.RunReport) {
	rec := store.RunRecord{
		Session:  session,
		Request:  report.Request,
		State:    string(report.Outcome.State),
		Reason:   report.Outcome.Reason,
		Executed: report.Executed,
	}
	if report.Plan != nil {
		rec.Planned = len(report.Plan.Steps)
	}

	var steps []store.StepRecord
	for _, ref := range report.Results.Refs() {
		res, _ := report.Results.Get(ref)
		content := res.Content
		if res.Failed() {
			content = res.Err
		}
		steps = append(steps, store.StepRecord{Ref: ref, Failed: res.Failed(), Content: content})
	}

	if err := audit.RecordRun(rec, steps); err != nil {
		log.Printf("Warning: Failed to record run: %v", err)
	}
}

func snippet(s string, max int) string {
	s = strings.TrimSpace(s)
	if len(s) <= max {
		return s
	}
	return s[:max] + "\n... (truncated, full output stored under the ref) ..."
}
