package export

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gorewood/wasdoing/internal/output"
)

// WriteMarkdown writes rendered document text to path atomically.
func WriteMarkdown(path string, text string) error {
	return writeAtomic(path, []byte(text))
}

// writeAtomic writes data to path using write-to-temp-then-rename.
// The temp file is created in the same directory as path.
func writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return output.NewSystemErrorWithCause("failed to create output directory", err)
	}

	tmpFile, err := os.CreateTemp(dir, ".tmp-*"+filepath.Ext(path))
	if err != nil {
		return output.NewSystemErrorWithCause("failed to create temp file", err)
	}
	tmpPath := tmpFile.Name()
	defer func() { _ = os.Remove(tmpPath) }()

	if _, err := tmpFile.Write(data); err != nil {
		_ = tmpFile.Close()
		return output.NewSystemErrorWithCause(fmt.Sprintf("failed to write %s", path), err)
	}
	if err := tmpFile.Close(); err != nil {
		return output.NewSystemErrorWithCause("failed to close temp file", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return output.NewSystemErrorWithCause(fmt.Sprintf("failed to replace %s", path), err)
	}
	return nil
}
