// Package stylist produces an optional one-paragraph explanation of why the
// predicted brands fit a user's answers.
package stylist

import (
	"context"
	"fmt"
	"strings"

	"github.com/BerylCAtieno/watch-recommender/internal/models"
)

// Noter is implemented by GeminiClient; handlers accept a nil Noter to mean
// "no note".
type Noter interface {
	Note(ctx context.Context, prefs models.Preferences, brands []string) (string, error)
}

// maxNoteLen caps the rendered note in runes.
const maxNoteLen = 600

func BuildPrompt(prefs models.Preferences, brands []string) string {
	p := prefs.Normalize()
	return fmt.Sprintf(`You are a watch stylist. A customer answered a short questionnaire and a model picked these brands for them: %s.

Write ONE short paragraph (at most three sentences) explaining why these brands suit the customer. Plain text only, no markdown, no lists, no greeting.

Customer answers:
age group: %s
profession: %s
personality: %s
lifestyle: %s
preferred design: %s
price range: %s
material: %s
functionality: %s`,
		strings.Join(brands, ", "),
		p.AgeGroup, p.Profession, p.Personality, p.Lifestyle,
		p.Design, p.PriceRange, p.Material, p.Functionality)
}

// CleanNote strips markdown emphasis, collapses whitespace and truncates
// overly long output at a word boundary.
func CleanNote(text string) string {
	text = strings.NewReplacer("**", "", "__", "", "`", "", "#", "").Replace(text)
	text = strings.Join(strings.Fields(text), " ")

	runes := []rune(text)
	if len(runes) <= maxNoteLen {
		return text
	}
	cut := string(runes[:maxNoteLen])
	if i := strings.LastIndex(cut, " "); i > 0 {
		cut = cut[:i]
	}
	return cut + "…"
}
