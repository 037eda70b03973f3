// Package features turns categorical answers into the numeric space the
// classifier is trained on.
//
// Column naming follows the "<field>_<value>" convention, grouped by field in
// field order and sorted by value within a field.
package features

import (
	"sort"
)

// ColumnName returns the one-hot column for a field/value pair.
func ColumnName(field, value string) string {
	return field + "_" + value
}

// FitColumns derives the one-hot column list from training rows. Each row
// holds one value per field, in field order. With dropFirst the
// lexicographically smallest category of every field gets no column and is
// represented by all zeros.
func FitColumns(fields []string, rows [][]string, dropFirst bool) []string {
	columns := make([]string, 0)
	for i, field := range fields {
		seen := make(map[string]struct{})
		for _, row := range rows {
			if i >= len(row) {
				continue
			}
			seen[row[i]] = struct{}{}
		}

		values := make([]string, 0, len(seen))
		for v := range seen {
			values = append(values, v)
		}
		sort.Strings(values)
		if dropFirst && len(values) > 0 {
			values = values[1:]
		}

		for _, v := range values {
			columns = append(columns, ColumnName(field, v))
		}
	}
	return columns
}

// OneHot encodes rows onto a fixed, ordered column list.
type OneHot struct {
	columns []string
	index   map[string]int
}

func NewOneHot(columns []string) *OneHot {
	index := make(map[string]int, len(columns))
	for i, c := range columns {
		index[c] = i
	}
	return &OneHot{
		columns: append([]string(nil), columns...),
		index:   index,
	}
}

func (o *OneHot) Columns() []string {
	return append([]string(nil), o.columns...)
}

func (o *OneHot) Width() int {
	return len(o.columns)
}

// Transform encodes one row. The result always has Width() entries; values
// without a matching column contribute nothing.
func (o *OneHot) Transform(fields, values []string) []float64 {
	vec := make([]float64, len(o.columns))
	for i, field := range fields {
		if i >= len(values) {
			break
		}
		if idx, ok := o.index[ColumnName(field, values[i])]; ok {
			vec[idx] = 1
		}
	}
	return vec
}

func (o *OneHot) TransformAll(fields []string, rows [][]string) [][]float64 {
	out := make([][]float64, len(rows))
	for i, row := range rows {
		out[i] = o.Transform(fields, row)
	}
	return out
}

// Unmatched returns the field/value columns of a row that are not part of the
// encoding. A dropped baseline category also shows up here.
func (o *OneHot) Unmatched(fields, values []string) []string {
	var missing []string
	for i, field := range fields {
		if i >= len(values) {
			break
		}
		name := ColumnName(field, values[i])
		if _, ok := o.index[name]; !ok {
			missing = append(missing, name)
		}
	}
	return missing
}
