package feedback

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/goccy/go-json"

	"github.com/BerylCAtieno/watch-recommender/internal/models"
)

// CSVRecorder appends rows to a flat file, writing the header when the file
// is first created.
type CSVRecorder struct {
	path string
	mu   sync.Mutex
}

func NewCSVRecorder(path string) *CSVRecorder {
	return &CSVRecorder{path: path}
}

func (r *CSVRecorder) Path() string {
	return r.path
}

func (r *CSVRecorder) Record(_ context.Context, fb models.Feedback) error {
	fb = stamp(fb)
	watches, err := json.Marshal(fb.RecommendedWatches)
	if err != nil {
		return fmt.Errorf("failed to encode recommended watches: %w", err)
	}
	row := append(fb.Preferences.Values(), fb.Feedback, string(watches))

	r.mu.Lock()
	defer r.mu.Unlock()

	if dir := filepath.Dir(r.path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create feedback dir: %w", err)
		}
	}

	_, statErr := os.Stat(r.path)
	needHeader := errors.Is(statErr, fs.ErrNotExist)

	f, err := os.OpenFile(r.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open feedback log: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if needHeader {
		if err := w.Write(Header); err != nil {
			return fmt.Errorf("failed to write feedback header: %w", err)
		}
	}
	if err := w.Write(row); err != nil {
		return fmt.Errorf("failed to write feedback row: %w", err)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("failed to flush feedback log: %w", err)
	}
	return f.Sync()
}

func (r *CSVRecorder) Close() error {
	return nil
}
