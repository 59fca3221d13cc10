package tools

import (
	"context"
	"strings"
	"testing"
)

func TestWorkspace_Resolve(t *testing.T) {
	ws, err := NewWorkspace(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	if _, err := ws.Resolve("report.md"); err != nil {
		t.Errorf("plain filename should resolve, got error: %v", err)
	}

	rejected := []string{
		"",
		"sub/report.md",
		"../escape.txt",
		"..",
		".hidden",
		"./report.md",
	}
	for _, name := range rejected {
		if _, err := ws.Resolve(name); err == nil {
			t.Errorf("Resolve(%q) should be rejected", name)
		}
	}
}

func TestFileTools_WriteReadRoundTrip(t *testing.T) {
	ws, err := NewWorkspace(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()

	writeTool := NewWriteFileTool(ws)
	readTool := NewReadFileTool(ws)

	out, err := writeTool.Execute(ctx, `{"filename":"notes.txt","content":"line one\nline two"}`)
	if err != nil {
		t.Fatalf("write failed: %v", err)
	}
	if !strings.Contains(out, "notes.txt") {
		t.Errorf("write result should name the file, got: %s", out)
	}

	content, err := readTool.Execute(ctx, `{"filename":"notes.txt"}`)
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if content != "line one\nline two" {
		t.Errorf("read returned wrong content: %q", content)
	}
}

func TestReadFileTool_Missing(t *testing.T) {
	ws, err := NewWorkspace(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	readTool := NewReadFileTool(ws)
	if _, err := readTool.Execute(context.Background(), `{"filename":"absent.txt"}`); err == nil {
		t.Error("reading a missing file should fail")
	}
}

func TestWriteFileTool_RejectsPaths(t *testing.T) {
	ws, err := NewWorkspace(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	writeTool := NewWriteFileTool(ws)
	if _, err := writeTool.Execute(context.Background(), `{"filename":"../out.txt","content":"x"}`); err == nil {
		t.Error("path traversal in filename should fail")
	}
}
