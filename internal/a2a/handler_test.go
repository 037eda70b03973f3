package a2a

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BerylCAtieno/watch-recommender/internal/catalog"
	"github.com/BerylCAtieno/watch-recommender/internal/features"
	"github.com/BerylCAtieno/watch-recommender/internal/predictor"
	"github.com/BerylCAtieno/watch-recommender/internal/recommend"
)

type stubClassifier struct{ probs []float64 }

func (s stubClassifier) PredictProba([]float64) ([]float64, error) { return s.probs, nil }

const fullText = "age group: 31-40, profession: Engineer, personality: Analytical, lifestyle: Professional, " +
	"design: Classic, price range: Luxury, material: Gold, functionality: Durability"

func newRouter(t *testing.T, withModel bool) *gin.Engine {
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
		pipeline, err = predictor.New(stubClassifier{probs: []float64{0.25, 0.75}},
			features.FitLabels([]string{"Casio", "Rolex"}), []string{"Material_gold"}, 5)
		require.NoError(t, err)
	}

	r := gin.New()
	NewHandler(recommend.NewService(pipeline, cat, 5, nil), "http://localhost:8080/").Register(r)
	return r
}

func call(t *testing.T, r http.Handler, body string) JSONRPCResponse {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/a2a/recommender", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var resp JSONRPCResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "2.0", resp.JSONRPC)
	return resp
}

func rpcBody(t *testing.T, method string, parts ...MessagePart) string {
	t.Helper()
	params, err := json.Marshal(MessageParams{Message: A2AMessage{Kind: "message", Role: RoleUser, Parts: parts}})
	require.NoError(t, err)
	body, err := json.Marshal(JSONRPCRequest{JSONRPC: "2.0", ID: "req-1", Method: method, Params: params})
	require.NoError(t, err)
	return string(body)
}

func TestAgentCard(t *testing.T) {
	r := newRouter(t, true)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/.well-known/agent.json", nil))

	require.Equal(t, http.StatusOK, w.Code)
	var card AgentCard
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &card))
	assert.Equal(t, "Watch Recommender", card.Name)
	assert.Equal(t, "http://localhost:8080/a2a/recommender", card.URL)
	require.Len(t, card.Skills, 1)
}

func TestMessageSendWithText(t *testing.T) {
	r := newRouter(t, true)

	resp := call(t, r, rpcBody(t, "message/send", TextPart(fullText)))

	require.Nil(t, resp.Error)
	require.NotNil(t, resp.Result)
	assert.Equal(t, "req-1", resp.ID)
	assert.Equal(t, StateCompleted, resp.Result.Status.State)
	require.Len(t, resp.Result.Artifacts, 1)
	parts := resp.Result.Artifacts[0].Parts
	require.Len(t, parts, 2)
	assert.Contains(t, parts[0].Text, "- Rolex (75.0%)")
	assert.Contains(t, parts[0].Text, "rolex Submariner")
	assert.Equal(t, "data", parts[1].Kind)

	var result recommend.Result
	require.NoError(t, json.Unmarshal(parts[1].Data, &result))
	assert.Equal(t, "gold", result.Preferences.Material)
	assert.Len(t, result.Watches, 2)
}

func TestAgentTaskWithDataPart(t *testing.T) {
	r := newRouter(t, true)
	data := DataPart(map[string]string{
		"Age Group": "31-40", "Profession": "engineer", "Personality": "analytical",
		"Lifestyle": "professional", "Design": "classic", "Price Range": "luxury",
		"Material": "gold", "Functionality": "durability",
	})

	resp := call(t, r, rpcBody(t, "agent/task", data))

	require.NotNil(t, resp.Result)
	assert.Equal(t, StateCompleted, resp.Result.Status.State)
}

func TestMissingPreferencesRequestInput(t *testing.T) {
	r := newRouter(t, true)

	resp := call(t, r, rpcBody(t, "message/send", TextPart("material: gold")))

	require.NotNil(t, resp.Result)
	assert.Equal(t, StateInputRequired, resp.Result.Status.State)
	text := resp.Result.Status.Message.Parts[0].Text
	assert.Contains(t, text, "Age Group")
	assert.NotContains(t, text, "Material,")
}

func TestModelNotLoaded(t *testing.T) {
	r := newRouter(t, false)

	resp := call(t, r, rpcBody(t, "message/send", TextPart(fullText)))

	require.NotNil(t, resp.Result)
	assert.Equal(t, StateFailed, resp.Result.Status.State)
}

func TestDirectMessage(t *testing.T) {
	r := newRouter(t, true)
	body, err := json.Marshal(MessageParams{Message: A2AMessage{Kind: "message", Role: RoleUser, Parts: []MessagePart{TextPart(fullText)}}})
	require.NoError(t, err)

	resp := call(t, r, string(body))

	require.NotNil(t, resp.Result)
	assert.Equal(t, directMessageID, resp.ID)
	assert.Equal(t, StateCompleted, resp.Result.Status.State)
}

func TestRPCErrors(t *testing.T) {
	r := newRouter(t, true)

	tests := []struct {
		name string
		body string
		code int
	}{
		{"malformed json", "{not json", CodeParseError},
		{"wrong version", `{"jsonrpc":"1.0","id":"1","method":"message/send","params":{}}`, CodeInvalidRequest},
		{"unknown method", `{"jsonrpc":"2.0","id":"1","method":"tasks/cancel","params":{}}`, CodeMethodNotFound},
		{"bad params", `{"jsonrpc":"2.0","id":"1","method":"message/send","params":[1,2]}`, CodeInvalidParams},
		{"empty object", `{}`, CodeInvalidRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := call(t, r, tt.body)
			require.NotNil(t, resp.Error)
			assert.Equal(t, tt.code, resp.Error.Code)
			assert.Nil(t, resp.Result)
		})
	}
}

func TestExtractPreferences(t *testing.T) {
	msg := A2AMessage{Parts: []MessagePart{
		TextPart("<p>Age Group: 18-25; Profession: student\nmaterial: steel</p>"),
		DataPart(map[string]any{"material": "leather", "ignored": true}),
	}}

	p := ExtractPreferences(msg)

	assert.Equal(t, "18-25", p.AgeGroup)
	assert.Equal(t, "student", p.Profession)
	assert.Equal(t, "leather", p.Material)
	assert.Empty(t, p.Design)
}
