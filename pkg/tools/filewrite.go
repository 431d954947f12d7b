package tools

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/anthic/corvus/pkg/security"
	"github.com/google/uuid"
)

// FileWriteTool creates or overwrites files.
type FileWriteTool struct{}

func (f *FileWriteTool) Name() string { return "Write" }

func (f *FileWriteTool) Description() string {
	return "Writes a file to the local filesystem. This tool will overwrite the existing file if there is one at the provided path."
}

func (f *FileWriteTool) InputSchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"file_path": map[string]any{
				"type":        "string",
				"description": "The absolute path to the file to write",
			},
			"content": map[string]any{
				"type":        "string",
				"description": "The content to write to the file",
			},
		},
		"required": []string{"file_path", "content"},
	}
}

func (f *FileWriteTool) SideEffect() SideEffectType { return SideEffectMutating }

func (f *FileWriteTool) Execute(ctx context.Context, input map[string]any) (ToolOutput, error) {
	filePath, ok := input["file_path"].(string)
	if !ok || filePath == "" {
		return ToolOutput{Content: "Error: file_path is required", IsError: true}, nil
	}

	if !filepath.IsAbs(filePath) {
		return ToolOutput{Content: "Error: file_path must be an absolute path", IsError: true}, nil
	}

	content, ok := input["content"].(string)
	if !ok {
		return ToolOutput{Content: "Error: content is required", IsError: true}, nil
	}

	dir := filepath.Dir(filePath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return ToolOutput{Content: fmt.Sprintf("Error creating directories: %s", err), IsError: true}, nil
	}

	if err := writeFileAtomic(SecurityFrom(ctx), filePath, []byte(content), 0o644); err != nil {
		return ToolOutput{Content: fmt.Sprintf("Error writing file: %s", err), IsError: true}, nil
	}

	lineCount := strings.Count(content, "\n")
	if len(content) > 0 && !strings.HasSuffix(content, "\n") {
		lineCount++ // count the last line without trailing newline
	}

	return ToolOutput{Content: fmt.Sprintf("File written successfully at: %s (%d lines)", filePath, lineCount)}, nil
}

// writeFileAtomic writes data to a temp file in the same directory as
// path, then renames it over path so readers never observe a partial
// write. When sec is non-nil, the final path is adjudicated through the
// Security Context (TOCTOU-safe resolution + deny-pattern check) before
// the rename is allowed to proceed.
func writeFileAtomic(sec *security.Context, path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	tmpPath := filepath.Join(dir, "."+filepath.Base(path)+".tmp."+uuid.NewString())

	if err := os.WriteFile(tmpPath, data, perm); err != nil {
		return err
	}

	if sec != nil {
		probe, err := sec.Open(path, os.O_WRONLY|os.O_CREATE, perm)
		if err != nil {
			os.Remove(tmpPath)
			return err
		}
		probe.Close()
	}

	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return err
	}
	return nil
}

// readFileSecure reads path through sec's TOCTOU-safe Open when sec is
// non-nil, falling back to a plain os.ReadFile when security adjudication
// is disabled for this call.
func readFileSecure(sec *security.Context, path string) ([]byte, error) {
	if sec == nil {
		return os.ReadFile(path)
	}
	file, err := sec.Open(path, os.O_RDONLY, 0)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	return io.ReadAll(file)
}
