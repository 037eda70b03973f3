package web

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BerylCAtieno/watch-recommender/internal/catalog"
	"github.com/BerylCAtieno/watch-recommender/internal/features"
	"github.com/BerylCAtieno/watch-recommender/internal/models"
	"github.com/BerylCAtieno/watch-recommender/internal/predictor"
	"github.com/BerylCAtieno/watch-recommender/internal/recommend"
)

type stubClassifier struct{ probs []float64 }

func (s stubClassifier) PredictProba([]float64) ([]float64, error) { return s.probs, nil }

type memoryRecorder struct {
	mu      sync.Mutex
	records []models.Feedback
	err     error
}

func (m *memoryRecorder) Record(_ context.Context, fb models.Feedback) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.records = append(m.records, fb)
	return nil
}

func (m *memoryRecorder) Close() error { return nil }

func newRouter(t *testing.T, withModel bool, rec *memoryRecorder) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cat, err := catalog.FromRows([][]string{
		{"Brands", "Model"},
		{"Rolex", "Submariner"},
		{"Casio", "F-91W"},
	}, "Brands")
	require.NoError(t, err)

	var pipeline *predictor.Pipeline
	if withModel {
		labels := features.FitLabels([]string{"Casio", "Rolex"})
		pipeline, err = predictor.New(stubClassifier{probs: []float64{0.25, 0.75}}, labels,
			[]string{"Material_gold", "Material_steel", "Price Range_luxury"}, 5)
		require.NoError(t, err)
	}

	svc := recommend.NewService(pipeline, cat, 5, nil)
	r := gin.New()
	r.Use(RequestLogger())
	NewHandler(svc, rec).Register(r)
	return r
}

func validForm() url.Values {
	return url.Values{
		"age_group":     {"31-40"},
		"profession":    {"Engineer"},
		"personality":   {"Analytical"},
		"lifestyle":     {"Professional"},
		"design":        {"Classic"},
		"price_range":   {"Luxury"},
		"material":      {"Gold"},
		"functionality": {"Durability"},
	}
}

func postForm(r http.Handler, path string, form url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestShowForm(t *testing.T) {
	r := newRouter(t, true, &memoryRecorder{})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, `name="age_group"`)
	assert.Contains(t, body, `<option value="gold">`)
	assert.Contains(t, body, `<option value="luxury">`)
	assert.NotContains(t, body, "temporarily unavailable")
}

func TestSubmitFormRendersRecommendations(t *testing.T) {
	r := newRouter(t, true, &memoryRecorder{})

	w := postForm(r, "/", validForm())

	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, "Your recommendations")
	assert.Contains(t, body, "Rolex (75.0%)")
	assert.Contains(t, body, "Submariner")
	assert.Contains(t, body, "F-91W")
	assert.Contains(t, body, `name="recommended_watches"`)
	assert.Contains(t, body, `name="profession" value="engineer"`)
}

func TestSubmitFormOtherProfession(t *testing.T) {
	r := newRouter(t, true, &memoryRecorder{})
	form := validForm()
	form.Set("profession", "Other")
	form.Set("other_profession", "Pilot")

	w := postForm(r, "/", form)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `name="profession" value="pilot"`)
}

func TestSubmitFormWithoutModelReRendersForm(t *testing.T) {
	r := newRouter(t, false, &memoryRecorder{})

	w := postForm(r, "/", validForm())

	assert.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, "Find your watch")
	assert.Contains(t, body, "temporarily unavailable")
	assert.Contains(t, body, `value="Engineer"`)
}

func TestSubmitFormMissingFields(t *testing.T) {
	r := newRouter(t, true, &memoryRecorder{})
	form := validForm()
	form.Del("material")
	form.Del("design")

	w := postForm(r, "/", form)

	assert.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, "Material is required.")
	assert.Contains(t, body, "Design is required.")
	assert.NotContains(t, body, "Your recommendations")
}

func TestSubmitFeedback(t *testing.T) {
	rec := &memoryRecorder{}
	r := newRouter(t, true, rec)
	form := validForm()
	form.Set("feedback", "satisfied")
	form.Set("recommended_watches", `["rolex Submariner","casio F-91W"]`)

	w := postForm(r, "/feedback", form)

	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/", w.Header().Get("Location"))
	require.Len(t, rec.records, 1)
	got := rec.records[0]
	assert.Equal(t, "satisfied", got.Feedback)
	assert.Equal(t, "Luxury", got.Preferences.PriceRange)
	assert.Equal(t, []string{"rolex Submariner", "casio F-91W"}, got.RecommendedWatches)
}

func TestSubmitFeedbackMalformedWatches(t *testing.T) {
	rec := &memoryRecorder{}
	r := newRouter(t, true, rec)
	form := validForm()
	form.Set("feedback", "not_satisfied")
	form.Set("recommended_watches", "not json")

	w := postForm(r, "/feedback", form)

	assert.Equal(t, http.StatusSeeOther, w.Code)
	require.Len(t, rec.records, 1)
	assert.Empty(t, rec.records[0].RecommendedWatches)
}

func TestSubmitFeedbackRejectsUnknownValue(t *testing.T) {
	rec := &memoryRecorder{}
	r := newRouter(t, true, rec)
	form := validForm()
	form.Set("feedback", "meh")

	w := postForm(r, "/feedback", form)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Empty(t, rec.records)
}

func TestSubmitFeedbackRecorderFailure(t *testing.T) {
	r := newRouter(t, true, &memoryRecorder{err: errors.New("disk full")})
	form := validForm()
	form.Set("feedback", "satisfied")

	w := postForm(r, "/feedback", form)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestHealthAndMetrics(t *testing.T) {
	r := newRouter(t, true, &memoryRecorder{})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "OK", w.Body.String())

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "watchrec_http_requests_total")
}

func TestFieldOptions(t *testing.T) {
	got := fieldOptions([]string{"Material_steel", "Material_gold", "Price Range_luxury", "Unknown_x"})

	assert.Equal(t, []string{"gold", "steel"}, got["Material"])
	assert.Equal(t, []string{"luxury"}, got["Price Range"])
	assert.Len(t, got, 2)
}
