package models

import "strings"

// Column names shared by the purchase history, the one-hot feature space and
// the feedback log.
const (
	FieldAgeGroup      = "Age Group"
	FieldProfession    = "Profession"
	FieldPersonality   = "Personality"
	FieldLifestyle     = "Lifestyle"
	FieldDesign        = "Design"
	FieldPriceRange    = "Price Range"
	FieldMaterial      = "Material"
	FieldFunctionality = "Functionality"
)

// FeatureFields lists the preference columns in training order.
var FeatureFields = []string{
	FieldAgeGroup,
	FieldProfession,
	FieldPersonality,
	FieldLifestyle,
	FieldDesign,
	FieldPriceRange,
	FieldMaterial,
	FieldFunctionality,
}

type Preferences struct {
	AgeGroup      string `json:"age_group" form:"age_group" binding:"required"`
	Profession    string `json:"profession" form:"profession" binding:"required"`
	Personality   string `json:"personality" form:"personality" binding:"required"`
	Lifestyle     string `json:"lifestyle" form:"lifestyle" binding:"required"`
	Design        string `json:"design" form:"design" binding:"required"`
	PriceRange    string `json:"price_range" form:"price_range" binding:"required"`
	Material      string `json:"material" form:"material" binding:"required"`
	Functionality string `json:"functionality" form:"functionality" binding:"required"`
}

// Normalize returns a copy with every field trimmed and lowercased.
func (p Preferences) Normalize() Preferences {
	return Preferences{
		AgeGroup:      normalize(p.AgeGroup),
		Profession:    normalize(p.Profession),
		Personality:   normalize(p.Personality),
		Lifestyle:     normalize(p.Lifestyle),
		Design:        normalize(p.Design),
		PriceRange:    normalize(p.PriceRange),
		Material:      normalize(p.Material),
		Functionality: normalize(p.Functionality),
	}
}

// Values returns the field values ordered like FeatureFields.
func (p Preferences) Values() []string {
	return []string{
		p.AgeGroup,
		p.Profession,
		p.Personality,
		p.Lifestyle,
		p.Design,
		p.PriceRange,
		p.Material,
		p.Functionality,
	}
}

// Map returns the preferences keyed by column name.
func (p Preferences) Map() map[string]string {
	values := p.Values()
	m := make(map[string]string, len(FeatureFields))
	for i, field := range FeatureFields {
		m[field] = values[i]
	}
	return m
}

// PreferencesFromMap builds Preferences from a map keyed either by column
// name ("Age Group") or by form name ("age_group"). Unknown keys are ignored.
func PreferencesFromMap(m map[string]string) Preferences {
	var p Preferences
	for key, value := range m {
		switch fieldKey(key) {
		case "age_group":
			p.AgeGroup = value
		case "profession":
			p.Profession = value
		case "personality":
			p.Personality = value
		case "lifestyle":
			p.Lifestyle = value
		case "design":
			p.Design = value
		case "price_range":
			p.PriceRange = value
		case "material":
			p.Material = value
		case "functionality":
			p.Functionality = value
		}
	}
	return p
}

func fieldKey(key string) string {
	key = strings.ToLower(strings.TrimSpace(key))
	key = strings.ReplaceAll(key, " ", "_")
	return strings.ReplaceAll(key, "-", "_")
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
