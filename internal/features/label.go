package features

import (
	"errors"
	"fmt"
	"sort"
)

var ErrUnknownLabel = errors.New("unknown label")

// LabelEncoder maps class names to dense integer ids. Classes are sorted so
// ids are stable for a given label set.
type LabelEncoder struct {
	classes []string
	index   map[string]int
}

// FitLabels builds an encoder from the distinct labels.
func FitLabels(labels []string) *LabelEncoder {
	seen := make(map[string]struct{}, len(labels))
	classes := make([]string, 0)
	for _, l := range labels {
		if _, ok := seen[l]; ok {
			continue
		}
		seen[l] = struct{}{}
		classes = append(classes, l)
	}
	sort.Strings(classes)
	return NewLabelEncoder(classes)
}

// NewLabelEncoder restores an encoder from an already ordered class list.
func NewLabelEncoder(classes []string) *LabelEncoder {
	index := make(map[string]int, len(classes))
	for i, c := range classes {
		index[c] = i
	}
	return &LabelEncoder{
		classes: append([]string(nil), classes...),
		index:   index,
	}
}

func (e *LabelEncoder) Classes() []string {
	return append([]string(nil), e.classes...)
}

func (e *LabelEncoder) Len() int {
	return len(e.classes)
}

func (e *LabelEncoder) Transform(label string) (int, error) {
	id, ok := e.index[label]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnknownLabel, label)
	}
	return id, nil
}

func (e *LabelEncoder) TransformAll(labels []string) ([]int, error) {
	ids := make([]int, len(labels))
	for i, l := range labels {
		id, err := e.Transform(l)
		if err != nil {
			return nil, err
		}
		ids[i] = id
	}
	return ids, nil
}

func (e *LabelEncoder) Inverse(id int) (string, error) {
	if id < 0 || id >= len(e.classes) {
		return "", fmt.Errorf("%w: class id %d out of range [0,%d)", ErrUnknownLabel, id, len(e.classes))
	}
	return e.classes[id], nil
}
