// Package feedback persists user satisfaction with the shown watches.
package feedback

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/BerylCAtieno/watch-recommender/internal/models"
)

// Recorder appends feedback records. Implementations are safe for concurrent
// use.
type Recorder interface {
	Record(ctx context.Context, fb models.Feedback) error
	Close() error
}

// Header is the CSV header and the column order of every record.
var Header = append(append([]string(nil), models.FeatureFields...), "Feedback", "Recommended Watches")

// New opens the recorder for a backend: "csv" or "sqlite".
func New(backend, csvPath, sqlitePath string) (Recorder, error) {
	switch backend {
	case "", "csv":
		return NewCSVRecorder(csvPath), nil
	case "sqlite":
		return OpenSQLite(sqlitePath)
	default:
		return nil, fmt.Errorf("unknown feedback backend %q", backend)
	}
}

// stamp fills in the id and timestamp when the caller left them empty.
func stamp(fb models.Feedback) models.Feedback {
	if fb.ID == "" {
		fb.ID = uuid.NewString()
	}
	if fb.CreatedAt.IsZero() {
		fb.CreatedAt = time.Now().UTC()
	}
	if fb.RecommendedWatches == nil {
		fb.RecommendedWatches = []string{}
	}
	return fb
}
