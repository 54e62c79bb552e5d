// Package journal keeps batch runs with failures on disk, one directory per run.
package journal

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/spf13/afero"

	"github.com/devbush/stockdesk/internal/domain"
	"github.com/devbush/stockdesk/internal/ports"
)

const runFile = "run.json"

// minPrefix is the shortest id prefix Get accepts.
const minPrefix = 4

type FileJournal struct {
	fs      afero.Fs
	baseDir string
	now     func() time.Time
}

func NewFileJournal(fs afero.Fs, baseDir string) *FileJournal {
	return &FileJournal{
		fs:      fs,
		baseDir: baseDir,
		now:     time.Now,
	}
}

func (j *FileJournal) runDir(id string) string {
	return filepath.Join(j.baseDir, id)
}

func (j *FileJournal) runPath(id string) string {
	return filepath.Join(j.runDir(id), runFile)
}

func validID(id string) bool {
	return id != "" && !strings.ContainsAny(id, `/\`) && id != "." && id != ".."
}

func (j *FileJournal) read(id string) (*ports.RunRecord, error) {
	data, err := afero.ReadFile(j.fs, j.runPath(id))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, domain.ErrRunMiss
		}
		return nil, err
	}

	var run ports.RunRecord
	if err := json.Unmarshal(data, &run); err != nil {
		return nil, fmt.Errorf("run %s: %w", id, err)
	}
	return &run, nil
}

// Get accepts a full id or an unambiguous prefix of at least four characters.
func (j *FileJournal) Get(ctx context.Context, id string) (*ports.RunRecord, error) {
	id = strings.TrimSpace(id)
	if !validID(id) {
		return nil, domain.ErrRunMiss
	}

	run, err := j.read(id)
	if errors.Is(err, domain.ErrRunMiss) && len(id) >= minPrefix {
		full, perr := j.expand(id)
		if perr != nil {
			return nil, perr
		}
		run, err = j.read(full)
	}
	if err != nil {
		return nil, err
	}

	if run.Expired(j.now()) {
		return nil, domain.ErrRunExpired
	}
	return run, nil
}

func (j *FileJournal) expand(prefix string) (string, error) {
	ids, err := j.ids()
	if err != nil {
		return "", err
	}
	var match string
	for _, id := range ids {
		if !strings.HasPrefix(id, prefix) {
			continue
		}
		if match != "" {
			return "", fmt.Errorf("%w: run id %q is ambiguous", domain.ErrInvalidInput, prefix)
		}
		match = id
	}
	if match == "" {
		return "", domain.ErrRunMiss
	}
	return match, nil
}

func (j *FileJournal) Save(ctx context.Context, run *ports.RunRecord) error {
	if !validID(run.ID) {
		return fmt.Errorf("%w: run id %q", domain.ErrInvalidInput, run.ID)
	}
	dir := j.runDir(run.ID)
	if err := j.fs.MkdirAll(dir, 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(run, "", "  ")
	if err != nil {
		return err
	}

	return afero.WriteFile(j.fs, j.runPath(run.ID), data, 0644)
}

func (j *FileJournal) Delete(ctx context.Context, id string) error {
	if !validID(id) {
		return domain.ErrRunMiss
	}
	return j.fs.RemoveAll(j.runDir(id))
}

func (j *FileJournal) ids() ([]string, error) {
	entries, err := afero.ReadDir(j.fs, j.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	ids := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			ids = append(ids, entry.Name())
		}
	}
	return ids, nil
}

// List skips expired and unreadable runs.
func (j *FileJournal) List(ctx context.Context) ([]*ports.RunRecord, error) {
	ids, err := j.ids()
	if err != nil {
		return nil, err
	}

	now := j.now()
	runs := make([]*ports.RunRecord, 0, len(ids))
	for _, id := range ids {
		run, err := j.read(id)
		if err != nil || run.Expired(now) {
			continue
		}
		runs = append(runs, run)
	}

	sort.Slice(runs, func(a, b int) bool {
		return runs[a].CreatedAt.After(runs[b].CreatedAt)
	})
	return runs, nil
}

func (j *FileJournal) CleanExpired(ctx context.Context) (int, error) {
	ids, err := j.ids()
	if err != nil {
		return 0, err
	}

	now := j.now()
	cleaned := 0
	for _, id := range ids {
		run, err := j.read(id)
		if err != nil || !run.Expired(now) {
			continue
		}
		if err := j.Delete(ctx, id); err == nil {
			cleaned++
		}
	}

	return cleaned, nil
}

func (j *FileJournal) Clear(ctx context.Context) error {
	ids, err := j.ids()
	if err != nil {
		return err
	}

	for _, id := range ids {
		_ = j.fs.RemoveAll(j.runDir(id))
	}

	return nil
}

func (j *FileJournal) Stats(ctx context.Context) (count int, totalSize int64, err error) {
	ids, err := j.ids()
	if err != nil {
		return 0, 0, err
	}

	for _, id := range ids {
		count++

		_ = afero.Walk(j.fs, j.runDir(id), func(path string, info os.FileInfo, err error) error {
			if err == nil && !info.IsDir() {
				totalSize += info.Size()
			}
			return nil
		})
	}

	return count, totalSize, nil
}

var _ ports.RunJournal = (*FileJournal)(nil)
