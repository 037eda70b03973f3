// Package artifacts persists the trained model bundle: the forest, the brand
// label encoder and the ordered one-hot column list.
package artifacts

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/goccy/go-json"

	"github.com/BerylCAtieno/watch-recommender/internal/features"
	"github.com/BerylCAtieno/watch-recommender/internal/forest"
)

const (
	ModelFile   = "random_forest_model.json"
	EncoderFile = "brand_label_encoder.json"
	ColumnsFile = "X_encoded_columns.json"
)

// ErrMissing reports that at least one artifact file does not exist. The
// server treats it as "no model" rather than a fatal error.
var ErrMissing = errors.New("model artifacts not found")

type Bundle struct {
	Classifier *forest.Classifier
	Labels     *features.LabelEncoder
	Columns    []string
}

type encoderFile struct {
	Classes []string `json:"classes"`
}

// Validate checks that the three artifacts agree with each other.
func (b *Bundle) Validate() error {
	if b.Classifier == nil || b.Labels == nil {
		return fmt.Errorf("incomplete bundle")
	}
	if err := b.Classifier.Validate(); err != nil {
		return err
	}
	if b.Classifier.NumFeatures != len(b.Columns) {
		return fmt.Errorf("classifier expects %d features but column list has %d", b.Classifier.NumFeatures, len(b.Columns))
	}
	if b.Classifier.NumClasses != b.Labels.Len() {
		return fmt.Errorf("classifier has %d classes but encoder has %d", b.Classifier.NumClasses, b.Labels.Len())
	}
	return nil
}

// Load reads a bundle from dir. It returns an error wrapping ErrMissing when
// any file is absent.
func Load(dir string) (*Bundle, error) {
	for _, name := range []string{ModelFile, EncoderFile, ColumnsFile} {
		if _, err := os.Stat(filepath.Join(dir, name)); errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrMissing, filepath.Join(dir, name))
		}
	}

	var clf forest.Classifier
	if err := readJSON(filepath.Join(dir, ModelFile), &clf); err != nil {
		return nil, err
	}
	var enc encoderFile
	if err := readJSON(filepath.Join(dir, EncoderFile), &enc); err != nil {
		return nil, err
	}
	var columns []string
	if err := readJSON(filepath.Join(dir, ColumnsFile), &columns); err != nil {
		return nil, err
	}

	b := &Bundle{
		Classifier: &clf,
		Labels:     features.NewLabelEncoder(enc.Classes),
		Columns:    columns,
	}
	if err := b.Validate(); err != nil {
		return nil, fmt.Errorf("inconsistent artifacts in %s: %w", dir, err)
	}
	return b, nil
}

// Save writes the bundle into dir, creating it if needed. Each file is
// written to a temp file and renamed into place.
func Save(dir string, b *Bundle) error {
	if err := b.Validate(); err != nil {
		return fmt.Errorf("refusing to save bundle: %w", err)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create model dir: %w", err)
	}

	files := []struct {
		name string
		v    any
	}{
		{ModelFile, b.Classifier},
		{EncoderFile, encoderFile{Classes: b.Labels.Classes()}},
		{ColumnsFile, b.Columns},
	}
	for _, f := range files {
		if err := writeJSON(filepath.Join(dir, f.name), f.v); err != nil {
			return err
		}
	}
	return nil
}

func readJSON(path string, v any) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("failed to decode %s: %w", path, err)
	}
	return nil
}

func writeJSON(path string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", filepath.Base(path), err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", path, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to move %s into place: %w", path, err)
	}
	return nil
}
