package spreadsheet

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/afero"

	"github.com/devbush/stockdesk/internal/ports"
)

// Files reads and writes sheets on a filesystem.
type Files struct {
	fs    afero.Fs
	codec ports.SheetCodec
}

// NewFiles creates a sheet file helper. A nil codec uses CSV.
func NewFiles(fs afero.Fs, codec ports.SheetCodec) *Files {
	if codec == nil {
		codec = NewCSVCodec()
	}
	return &Files{fs: fs, codec: codec}
}

// Read decodes the sheet at path.
func (f *Files) Read(path string) (*ports.Sheet, error) {
	file, err := f.fs.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer file.Close()

	sheet, err := f.codec.Decode(file)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return sheet, nil
}

// Write encodes sheet to path, creating parent directories. The file is
// written to a temporary name first so a failed export never truncates an
// existing file.
func (f *Files) Write(path string, sheet *ports.Sheet) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := f.fs.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create %s: %w", dir, err)
		}
	}

	tmp := path + ".tmp"
	file, err := f.fs.OpenFile(tmp, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", tmp, err)
	}
	if err := f.codec.Encode(file, sheet); err != nil {
		file.Close()
		_ = f.fs.Remove(tmp)
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := file.Close(); err != nil {
		_ = f.fs.Remove(tmp)
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return f.fs.Rename(tmp, path)
}
