package feedback

import (
	"context"
	"encoding/csv"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BerylCAtieno/watch-recommender/internal/models"
)

func sampleFeedback(value string) models.Feedback {
	return models.Feedback{
		Preferences: models.Preferences{
			AgeGroup: "31-40", Profession: "engineer", Personality: "analytical", Lifestyle: "professional",
			Design: "classic", PriceRange: "luxury", Material: "gold", Functionality: "durability",
		},
		Feedback:           value,
		RecommendedWatches: []string{"rolex submariner", "omega speedmaster"},
	}
}

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	records, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	return records
}

func TestCSVRecorderWritesHeaderOnce(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data", "feedback_data.csv")
	r := NewCSVRecorder(path)
	ctx := context.Background()

	require.NoError(t, r.Record(ctx, sampleFeedback(models.FeedbackSatisfied)))
	require.NoError(t, r.Record(ctx, sampleFeedback(models.FeedbackNotSatisfied)))
	require.NoError(t, r.Close())

	records := readCSV(t, path)
	require.Len(t, records, 3)
	assert.Equal(t, Header, records[0])
	assert.Equal(t, "31-40", records[1][0])
	assert.Equal(t, "satisfied", records[1][8])
	assert.Equal(t, `["rolex submariner","omega speedmaster"]`, records[1][9])
	assert.Equal(t, "not_satisfied", records[2][8])
}

func TestCSVRecorderAppendsToExistingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "feedback_data.csv")
	require.NoError(t, NewCSVRecorder(path).Record(context.Background(), sampleFeedback(models.FeedbackSatisfied)))

	// a fresh recorder over the same file must not repeat the header
	require.NoError(t, NewCSVRecorder(path).Record(context.Background(), sampleFeedback(models.FeedbackSatisfied)))

	assert.Len(t, readCSV(t, path), 3)
}

func TestCSVRecorderConcurrentWrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "feedback_data.csv")
	r := NewCSVRecorder(path)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, r.Record(context.Background(), sampleFeedback(models.FeedbackSatisfied)))
		}()
	}
	wg.Wait()

	assert.Len(t, readCSV(t, path), 21)
}

func TestSQLiteRecorder(t *testing.T) {
	r, err := OpenSQLite(filepath.Join(t.TempDir(), "feedback.db"))
	require.NoError(t, err)
	t.Cleanup(func() { r.Close() })
	ctx := context.Background()

	require.NoError(t, r.Record(ctx, sampleFeedback(models.FeedbackSatisfied)))
	empty := sampleFeedback(models.FeedbackNotSatisfied)
	empty.RecommendedWatches = nil
	require.NoError(t, r.Record(ctx, empty))

	stored, err := r.List(ctx)
	require.NoError(t, err)
	require.Len(t, stored, 2)

	assert.NotEmpty(t, stored[0].ID)
	assert.NotEqual(t, stored[0].ID, stored[1].ID)
	assert.False(t, stored[0].CreatedAt.IsZero())
	assert.Equal(t, "luxury", stored[0].Preferences.PriceRange)
	assert.Equal(t, []string{"rolex submariner", "omega speedmaster"}, stored[0].RecommendedWatches)
	assert.Equal(t, "not_satisfied", stored[1].Feedback)
	assert.Empty(t, stored[1].RecommendedWatches)
}

func TestNewBackends(t *testing.T) {
	dir := t.TempDir()

	r, err := New("csv", filepath.Join(dir, "f.csv"), "")
	require.NoError(t, err)
	assert.IsType(t, &CSVRecorder{}, r)

	r, err = New("sqlite", "", filepath.Join(dir, "f.db"))
	require.NoError(t, err)
	assert.IsType(t, &SQLiteRecorder{}, r)
	require.NoError(t, r.Close())

	_, err = New("kafka", "", "")
	assert.Error(t, err)
}
