package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Workspace confines the file tools to one session directory.
type Workspace struct {
	root string
}

func NewWorkspace(root string) (*Workspace, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve workspace root: %w", err)
	}
	if err := os.MkdirAll(abs, 0755); err != nil {
		return nil, fmt.Errorf("failed to create workspace: %w", err)
	}
	return &Workspace{root: abs}, nil
}

func (w *Workspace) Root() string {
	return w.root
}

// Resolve maps a model-supplied filename to an absolute path inside the
// workspace. Filenames must be plain names: no path separators, not
// empty, no leading dot.
func (w *Workspace) Resolve(filename string) (string, error) {
	if filename == "" {
		return "", fmt.Errorf("filename must not be empty")
	}
	if filepath.Base(filename) != filename {
		return "", fmt.Errorf("invalid filename '%s': paths are not allowed", filename)
	}
	if strings.HasPrefix(filename, ".") {
		return "", fmt.Errorf("invalid filename '%s': must not start with '.'", filename)
	}

	targetPath := filepath.Join(w.root, filename)

	// Safety check: ensure targetPath is within the workspace root
	rel, err := filepath.Rel(w.root, targetPath)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("unsafe path attempt: %s", filename)
	}

	return targetPath, nil
}

type WriteFileTool struct {
	ws *Workspace
}

func NewWriteFileTool(ws *Workspace) *WriteFileTool {
	return &WriteFileTool{ws: ws}
}

func (t *WriteFileTool) Name() Name {
	return NameWriteFile
}

func (t *WriteFileTool) Description() string {
	return "Write the provided text content to a named file in the session workspace. Use this to save results, notes, or generated text. Overwrites any existing file with the same name."
}

func (t *WriteFileTool) Parameters() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"filename": map[string]any{
				"type":        "string",
				"description": "The name of the file, e.g. 'report.md'. Must not contain paths.",
			},
			"content": map[string]any{
				"type":        "string",
				"description": "The full text content to write to the file",
			},
		},
		"required": []string{"filename", "content"},
	}
}

func (t *WriteFileTool) Execute(ctx context.Context, input string) (string, error) {
	var args struct {
		Filename string `json:"filename"`
		Content  string `json:"content"`
	}
	if err := json.Unmarshal([]byte(input), &args); err != nil {
		return "", fmt.Errorf("invalid input: %v", err)
	}

	targetPath, err := t.ws.Resolve(args.Filename)
	if err != nil {
		return "", err
	}

	if err := os.WriteFile(targetPath, []byte(args.Content), 0644); err != nil {
		return "", fmt.Errorf("failed to write file '%s': %w", args.Filename, err)
	}

	return fmt.Sprintf("Success: File '%s' written to workspace (%d characters).", args.Filename, len(args.Content)), nil
}

type ReadFileTool struct {
	ws *Workspace
}

func NewReadFileTool(ws *Workspace) *ReadFileTool {
	return &ReadFileTool{ws: ws}
}

func (t *ReadFileTool) Name() Name {
	return NameReadFile
}

func (t *ReadFileTool) Description() string {
	return "Read the full text content of a previously written file from the session workspace."
}

func (t *ReadFileTool) Parameters() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"filename": map[string]any{
				"type":        "string",
				"description": "The name of the file to read, e.g. 'report.md'. Must not contain paths.",
			},
		},
		"required": []string{"filename"},
	}
}

func (t *ReadFileTool) Execute(ctx context.Context, input string) (string, error) {
	var args struct {
		Filename string `json:"filename"`
	}
	if err := json.Unmarshal([]byte(input), &args); err != nil {
		return "", fmt.Errorf("invalid input: %v", err)
	}

	targetPath, err := t.ws.Resolve(args.Filename)
	if err != nil {
		return "", err
	}

	data, err := os.ReadFile(targetPath)
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("file '%s' not found in the workspace", args.Filename)
		}
		return "", fmt.Errorf("failed to read file '%s': %w", args.Filename, err)
	}

	return string(data), nil
}
