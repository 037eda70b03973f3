package feedback

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/goccy/go-json"
	_ "modernc.org/sqlite"

	"github.com/BerylCAtieno/watch-recommender/internal/models"
)

const schema = `
CREATE TABLE IF NOT EXISTS feedback (
	id TEXT PRIMARY KEY,
	age_group TEXT NOT NULL DEFAULT '',
	profession TEXT NOT NULL DEFAULT '',
	personality TEXT NOT NULL DEFAULT '',
	lifestyle TEXT NOT NULL DEFAULT '',
	design TEXT NOT NULL DEFAULT '',
	price_range TEXT NOT NULL DEFAULT '',
	material TEXT NOT NULL DEFAULT '',
	functionality TEXT NOT NULL DEFAULT '',
	feedback TEXT NOT NULL,
	recommended_watches TEXT NOT NULL DEFAULT '[]',
	created_at DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_feedback_created_at ON feedback(created_at);
`

// SQLiteRecorder stores feedback in a SQLite table.
type SQLiteRecorder struct {
	db *sql.DB
}

// OpenSQLite opens (creating if needed) the database at path and applies the
// schema.
func OpenSQLite(path string) (*SQLiteRecorder, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create feedback dir: %w", err)
		}
	}

	dsn := path + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open feedback database: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetConnMaxLifetime(time.Hour)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply feedback schema: %w", err)
	}
	return &SQLiteRecorder{db: db}, nil
}

func (r *SQLiteRecorder) Record(ctx context.Context, fb models.Feedback) error {
	fb = stamp(fb)
	watches, err := json.Marshal(fb.RecommendedWatches)
	if err != nil {
		return fmt.Errorf("failed to encode recommended watches: %w", err)
	}

	p := fb.Preferences
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO feedback (id, age_group, profession, personality, lifestyle, design,
			price_range, material, functionality, feedback, recommended_watches, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		fb.ID, p.AgeGroup, p.Profession, p.Personality, p.Lifestyle, p.Design,
		p.PriceRange, p.Material, p.Functionality, fb.Feedback, string(watches), fb.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert feedback: %w", err)
	}
	return nil
}

// List returns stored feedback, oldest first.
func (r *SQLiteRecorder) List(ctx context.Context) ([]models.Feedback, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, age_group, profession, personality, lifestyle, design,
			price_range, material, functionality, feedback, recommended_watches, created_at
		FROM feedback ORDER BY created_at, rowid`)
	if err != nil {
		return nil, fmt.Errorf("failed to query feedback: %w", err)
	}
	defer rows.Close()

	var out []models.Feedback
	for rows.Next() {
		var fb models.Feedback
		var watches string
		p := &fb.Preferences
		if err := rows.Scan(&fb.ID, &p.AgeGroup, &p.Profession, &p.Personality, &p.Lifestyle, &p.Design,
			&p.PriceRange, &p.Material, &p.Functionality, &fb.Feedback, &watches, &fb.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan feedback: %w", err)
		}
		if err := json.Unmarshal([]byte(watches), &fb.RecommendedWatches); err != nil {
			return nil, fmt.Errorf("failed to decode recommended watches: %w", err)
		}
		out = append(out, fb)
	}
	return out, rows.Err()
}

func (r *SQLiteRecorder) Close() error {
	return r.db.Close()
}
