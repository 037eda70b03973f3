package models

import "time"

// Watch is one catalog row. Attributes holds every non-brand column keyed by
// its spreadsheet header.
type Watch struct {
	Brand      string            `json:"brand"`
	Attributes map[string]string `json:"attributes"`
}

// Label is the brand followed by the value of the first column in columns
// that the watch has.
func (w Watch) Label(columns []string) string {
	for _, c := range columns {
		if v := w.Attributes[c]; v != "" {
			return w.Brand + " " + v
		}
	}
	return w.Brand
}

// Purchase is one row of the historical purchase records used for training.
type Purchase struct {
	Preferences Preferences
	Brand       string
}

// Feedback satisfaction values posted by the result page.
const (
	FeedbackSatisfied    = "satisfied"
	FeedbackNotSatisfied = "not_satisfied"
)

type Feedback struct {
	ID                 string      `json:"id"`
	Preferences        Preferences `json:"preferences"`
	Feedback           string      `json:"feedback"`
	RecommendedWatches []string    `json:"recommended_watches"`
	CreatedAt          time.Time   `json:"created_at"`
}
