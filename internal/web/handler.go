// Package web serves the questionnaire, the result page and the feedback
// endpoint.
package web

import (
	"embed"
	"errors"
	"html/template"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-json"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/BerylCAtieno/watch-recommender/internal/feedback"
	"github.com/BerylCAtieno/watch-recommender/internal/logging"
	"github.com/BerylCAtieno/watch-recommender/internal/metrics"
	"github.com/BerylCAtieno/watch-recommender/internal/models"
	"github.com/BerylCAtieno/watch-recommender/internal/recommend"
)

//go:embed templates/*.html
var templatesFS embed.FS

type Handler struct {
	svc      *recommend.Service
	recorder feedback.Recorder
	log      zerolog.Logger
}

func NewHandler(svc *recommend.Service, recorder feedback.Recorder) *Handler {
	return &Handler{
		svc:      svc,
		recorder: recorder,
		log:      logging.With("web"),
	}
}

// Templates parses the embedded HTML templates.
func Templates() *template.Template {
	return template.Must(template.New("").Funcs(template.FuncMap{
		"percent": func(p float64) string {
			return strconv.FormatFloat(p*100, 'f', 1, 64) + "%"
		},
	}).ParseFS(templatesFS, "templates/*.html"))
}

// Register mounts the HTML routes plus /health and /metrics.
func (h *Handler) Register(r *gin.Engine) {
	r.SetHTMLTemplate(Templates())

	r.GET("/", h.ShowForm)
	r.POST("/", h.SubmitForm)
	r.POST("/feedback", h.SubmitFeedback)

	r.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "OK")
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
}

type formPage struct {
	Fields          []formField
	Errors          []string
	OtherProfession string
	ModelReady      bool
}

func (h *Handler) ShowForm(c *gin.Context) {
	h.renderForm(c, http.StatusOK, models.Preferences{}, "", nil)
}

// SubmitForm validates the answers and renders recommendations. Without a
// model, or with invalid input, the form is shown again.
func (h *Handler) SubmitForm(c *gin.Context) {
	var form recommendationForm
	if err := c.ShouldBind(&form); err != nil {
		h.renderForm(c, http.StatusOK, form.Preferences, form.OtherProfession, bindingErrors(err))
		return
	}

	if !h.svc.Ready() {
		h.log.Warn().Msg("model not loaded, re-rendering form")
		h.renderForm(c, http.StatusOK, form.Preferences, form.OtherProfession, nil)
		return
	}

	res, err := h.svc.Recommend(c.Request.Context(), form.preferences())
	if err != nil {
		_ = c.Error(err)
		h.renderForm(c, http.StatusInternalServerError, form.Preferences, form.OtherProfession,
			[]string{"We could not compute recommendations right now. Please try again."})
		return
	}

	labels := h.svc.WatchLabels(res.Watches)
	labelsJSON, err := json.Marshal(labels)
	if err != nil {
		labelsJSON = []byte("[]")
	}

	c.HTML(http.StatusOK, "result.html", gin.H{
		"Result":             res,
		"Columns":            h.svc.CatalogColumns(),
		"Hidden":             buildFields(res.Preferences, nil),
		"RecommendedWatches": string(labelsJSON),
	})
}

// SubmitFeedback records the satisfaction flag and redirects to the form.
func (h *Handler) SubmitFeedback(c *gin.Context) {
	value := strings.TrimSpace(c.PostForm("feedback"))
	if value != models.FeedbackSatisfied && value != models.FeedbackNotSatisfied {
		c.String(http.StatusBadRequest, "feedback must be %q or %q", models.FeedbackSatisfied, models.FeedbackNotSatisfied)
		return
	}

	var watches []string
	if raw := c.DefaultPostForm("recommended_watches", "[]"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &watches); err != nil {
			h.log.Warn().Err(err).Msg("ignoring malformed recommended_watches")
			watches = nil
		}
	}

	values := make(map[string]string, len(formNames))
	for _, name := range formNames {
		values[name] = c.PostForm(name)
	}

	fb := models.Feedback{
		Preferences:        models.PreferencesFromMap(values),
		Feedback:           value,
		RecommendedWatches: watches,
	}
	if err := h.recorder.Record(c.Request.Context(), fb); err != nil {
		metrics.FeedbackErrors.Inc()
		_ = c.Error(err)
		c.String(http.StatusInternalServerError, "could not save feedback")
		return
	}
	metrics.FeedbackRecorded.WithLabelValues(value).Inc()

	c.Redirect(http.StatusSeeOther, "/")
}

func (h *Handler) renderForm(c *gin.Context, status int, prefs models.Preferences, other string, errs []string) {
	c.HTML(status, "form.html", formPage{
		Fields:          buildFields(prefs, h.svc.FeatureColumns()),
		Errors:          errs,
		OtherProfession: other,
		ModelReady:      h.svc.Ready(),
	})
}

// bindingErrors turns validator output into messages for the form.
func bindingErrors(err error) []string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []string{"The form could not be read. Please try again."}
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fieldLabel(fe.Field())+" is required.")
	}
	return msgs
}

func fieldLabel(structField string) string {
	for i, name := range []string{"AgeGroup", "Profession", "Personality", "Lifestyle", "Design", "PriceRange", "Material", "Functionality"} {
		if name == structField {
			return models.FeatureFields[i]
		}
	}
	return structField
}
