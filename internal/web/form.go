package web

import (
	"sort"
	"strings"

	"github.com/BerylCAtieno/watch-recommender/internal/models"
)

// recommendationForm is the POST / payload.
type recommendationForm struct {
	models.Preferences
	OtherProfession string `form:"other_profession"`
}

// preferences applies the "other" profession override.
func (f recommendationForm) preferences() models.Preferences {
	p := f.Preferences
	if strings.EqualFold(strings.TrimSpace(p.Profession), "other") && strings.TrimSpace(f.OtherProfession) != "" {
		p.Profession = f.OtherProfession
	}
	return p.Normalize()
}

type formField struct {
	Name    string
	Label   string
	Value   string
	Options []string
}

var formNames = []string{
	"age_group", "profession", "personality", "lifestyle",
	"design", "price_range", "material", "functionality",
}

// buildFields prepares the form inputs, suggesting the categories the model
// knows for each field.
func buildFields(prefs models.Preferences, featureColumns []string) []formField {
	options := fieldOptions(featureColumns)
	values := prefs.Values()
	fields := make([]formField, len(models.FeatureFields))
	for i, label := range models.FeatureFields {
		fields[i] = formField{
			Name:    formNames[i],
			Label:   label,
			Value:   values[i],
			Options: options[label],
		}
	}
	return fields
}

// fieldOptions splits "<field>_<value>" columns back into per-field values.
func fieldOptions(columns []string) map[string][]string {
	out := make(map[string][]string, len(models.FeatureFields))
	for _, col := range columns {
		for _, field := range models.FeatureFields {
			prefix := field + "_"
			if strings.HasPrefix(col, prefix) {
				out[field] = append(out[field], strings.TrimPrefix(col, prefix))
				break
			}
		}
	}
	for field := range out {
		sort.Strings(out[field])
	}
	return out
}
