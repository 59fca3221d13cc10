package observability

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"
)

// EventType defines the category of the log event.
type EventType string

const (
	EventTypePlan        EventType = "plan"
	EventTypeStep        EventType = "step"
	EventTypeToolCall    EventType = "tool_call"
	EventTypeToolResult  EventType = "tool_result"
	EventTypePolicyCheck EventType = "policy_check"
	EventTypeLLM         EventType = "llm"
	EventTypeRun         EventType = "run"
)

// Event represents a structured log entry.
type Event struct {
	Type      EventType `json:"type"`
	Session   string    `json:"session,omitempty"`
	Step      int       `json:"step,omitempty"`
	Data      any       `json:"data"`
	Timestamp time.Time `json:"timestamp"`
}

// Logger handles structured logging for one agent session.
type Logger struct {
	session    string
	llmLogPath string
	maxSize    int64
}

func NewLogger(session string) *Logger {
	return &Logger{
		session:    session,
		llmLogPath: filepath.Join("logs", "llm.jsonl"),
		maxSize:    10 * 1024 * 1024, // 10MB
	}
}

// Log emits a structured JSON event to stdout.
func (l *Logger) Log(evt Event) {
	if evt.Session == "" {
		evt.Session = l.session
	}
	if evt.Timestamp.IsZero() {
		evt.Timestamp = time.Now()
	}
	data, err := json.Marshal(evt)
	if err != nil {
		fmt.Printf("{\"error\": \"failed to marshal event: %v\"}\n", err)
		return
	}
	fmt.Println(string(data))

	if evt.Type == EventTypeLLM {
		l.writeToFile(data)
	}
}

func (l *Logger) writeToFile(data []byte) {
	if err := os.MkdirAll(filepath.Dir(l.llmLogPath), 0755); err != nil {
		log.Printf("failed to create log directory: %v", err)
		return
	}

	// Check size before writing
	info, err := os.Stat(l.llmLogPath)
	if err == nil && info.Size() > l.maxSize {
		l.rotateLogs()
	}

	f, err := os.OpenFile(l.llmLogPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		log.Printf("failed to open log file: %v", err)
		return
	}
	defer f.Close()

	if _, err := f.Write(append(data, '\n')); err != nil {
		log.Printf("failed to write to log file: %v", err)
	}
}

func (l *Logger) rotateLogs() {
	// Simple rotation: keep one .old file
	oldPath := l.llmLogPath + ".old"
	_ = os.Remove(oldPath)
	_ = os.Rename(l.llmLogPath, oldPath)
}

// Helper methods for common events

func (l *Logger) LogPlan(steps int, request string) {
	l.Log(Event{
		Type: EventTypePlan,
		Data: map[string]any{
			"steps":   steps,
			"request": request,
		},
	})
}

func (l *Logger) LogStep(step int, tool, description string) {
	l.Log(Event{
		Type: EventTypeStep,
		Step: step,
		Data: map[string]string{
			"tool":        tool,
			"description": description,
		},
	})
}

func (l *Logger) LogToolCall(step int, tool, args string) {
	l.Log(Event{
		Type: EventTypeToolCall,
		Step: step,
		Data: map[string]string{
			"tool": tool,
			"args": args,
		},
	})
}

func (l *Logger) LogToolResult(step int, tool string, failed bool, chars int) {
	l.Log(Event{
		Type: EventTypeToolResult,
		Step: step,
		Data: map[string]any{
			"tool":   tool,
			"failed": failed,
			"chars":  chars,
		},
	})
}

func (l *Logger) LogPolicyCheck(tool, effect, reason string) {
	l.Log(Event{
		Type: EventTypePolicyCheck,
		Data: map[string]string{
			"tool":   tool,
			"effect": effect,
			"reason": reason,
		},
	})
}

func (l *Logger) LogLLM(role, prompt, response string) {
	l.Log(Event{
		Type: EventTypeLLM,
		Data: map[string]string{
			"role":     role,
			"prompt":   prompt,
			"response": response,
		},
	})
}

func (l *Logger) LogRun(state string, executed int, reason string) {
	l.Log(Event{
		Type: EventTypeRun,
		Data: map[string]any{
			"state":    state,
			"executed": executed,
			"reason":   reason,
		},
	})
}
