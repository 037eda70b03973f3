// Package a2a exposes the recommender as an agent-to-agent JSON-RPC endpoint.
package a2a

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/BerylCAtieno/watch-recommender/internal/logging"
	"github.com/BerylCAtieno/watch-recommender/internal/models"
	"github.com/BerylCAtieno/watch-recommender/internal/recommend"
)

const directMessageID = "direct-message"

type Handler struct {
	svc  *recommend.Service
	card AgentCard
	log  zerolog.Logger
}

// NewHandler builds the agent. baseURL is advertised in the agent card.
func NewHandler(svc *recommend.Service, baseURL string) *Handler {
	return &Handler{
		svc:  svc,
		card: newAgentCard(strings.TrimRight(baseURL, "/") + "/a2a/recommender"),
		log:  logging.With("a2a"),
	}
}

func newAgentCard(url string) AgentCard {
	return AgentCard{
		Name:               "Watch Recommender",
		Description:        "Recommends watch brands and catalog watches from a short lifestyle questionnaire.",
		URL:                url,
		Version:            "1.0.0",
		DefaultInputModes:  []string{"text", "data"},
		DefaultOutputModes: []string{"text", "data"},
		Skills: []AgentSkill{{
			ID:          "recommend-watches",
			Name:        "Recommend watches",
			Description: "Predicts the best matching brands and samples up to five watches from the catalog.",
			Tags:        []string{"watches", "recommendation"},
			Examples: []string{
				"age group: 31-40, profession: engineer, personality: analytical, lifestyle: professional, " +
					"design: classic, price range: luxury, material: gold, functionality: durability",
			},
		}},
	}
}

// Register mounts the agent card and the JSON-RPC endpoint.
func (h *Handler) Register(r *gin.Engine) {
	r.GET("/.well-known/agent.json", h.ServeAgentCard)
	r.POST("/a2a/recommender", h.HandleRecommender)
}

func (h *Handler) ServeAgentCard(c *gin.Context) {
	data, err := json.Marshal(h.card)
	if err != nil {
		h.log.Error().Err(err).Msg("failed to encode agent card")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Agent card not available"})
		return
	}
	c.Data(http.StatusOK, "application/json", data)
}

// HandleRecommender processes message/send and agent/task calls. Requests
// without the JSON-RPC envelope are accepted as bare message params.
func (h *Handler) HandleRecommender(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		h.log.Error().Err(err).Msg("failed to read request body")
		h.sendErrorResponse(c, "", "Failed to read request body", CodeParseError)
		return
	}

	var rpcReq JSONRPCRequest
	if err := json.Unmarshal(body, &rpcReq); err != nil {
		h.log.Warn().Err(err).Msg("request is not valid JSON")
		h.sendErrorResponse(c, "", "Invalid request format", CodeParseError)
		return
	}

	if rpcReq.Method == "" {
		h.handleDirectMessage(c, body)
		return
	}

	if rpcReq.JSONRPC != "2.0" {
		h.log.Warn().Str("jsonrpc", rpcReq.JSONRPC).Msg("invalid JSON-RPC version")
		h.sendErrorResponse(c, rpcReq.ID, "Invalid JSON-RPC version", CodeInvalidRequest)
		return
	}

	switch rpcReq.Method {
	case "message/send", "agent/task":
		var params MessageParams
		if err := json.Unmarshal(rpcReq.Params, &params); err != nil {
			h.log.Warn().Err(err).Msg("invalid message params")
			h.sendErrorResponse(c, rpcReq.ID, "Invalid parameters", CodeInvalidParams)
			return
		}
		h.sendSuccessResponse(c, rpcReq.ID, h.handleMessage(c.Request.Context(), rpcReq.ID, params.Message))
	default:
		h.log.Warn().Str("method", rpcReq.Method).Msg("unknown method")
		h.sendErrorResponse(c, rpcReq.ID, fmt.Sprintf("Method not found: %s", rpcReq.Method), CodeMethodNotFound)
	}
}

func (h *Handler) handleDirectMessage(c *gin.Context, body []byte) {
	var params MessageParams
	if err := json.Unmarshal(body, &params); err != nil || len(params.Message.Parts) == 0 {
		h.sendErrorResponse(c, "", "Invalid request format", CodeInvalidRequest)
		return
	}
	h.sendSuccessResponse(c, directMessageID, h.handleMessage(c.Request.Context(), directMessageID, params.Message))
}

func (h *Handler) handleMessage(ctx context.Context, taskID string, msg A2AMessage) TaskResult {
	prefs := ExtractPreferences(msg)
	if missing := missingFields(prefs); len(missing) > 0 {
		h.log.Info().Strs("missing", missing).Msg("incomplete preferences")
		return inputRequiredResult(taskID, fmt.Sprintf(
			"Please provide all preferences as \"field: value\" pairs. Missing: %s.",
			strings.Join(missing, ", ")))
	}

	res, err := h.svc.Recommend(ctx, prefs)
	if errors.Is(err, recommend.ErrUnavailable) {
		return errorTaskResult(taskID, "Recommendations are temporarily unavailable: the model is not loaded.")
	}
	if err != nil {
		h.log.Error().Err(err).Msg("recommendation failed")
		return errorTaskResult(taskID, fmt.Sprintf("Failed to compute recommendations: %v", err))
	}

	return h.successTaskResult(taskID, res)
}

// ExtractPreferences reads preferences from data parts (a JSON object keyed
// by field) and text parts ("field: value" pairs separated by commas,
// semicolons or newlines). Later parts override earlier ones.
func ExtractPreferences(msg A2AMessage) models.Preferences {
	values := make(map[string]string)
	for _, part := range msg.Parts {
		switch part.Kind {
		case "data":
			for k, v := range dataValues(part.Data) {
				values[k] = v
			}
		case "text":
			for k, v := range parsePairs(part.Text) {
				values[k] = v
			}
		}
	}
	return models.PreferencesFromMap(values)
}

func dataValues(raw json.RawMessage) map[string]string {
	if len(raw) == 0 {
		return nil
	}
	var obj map[string]any
	if err := json.Unmarshal(raw, &obj); err != nil {
		return nil
	}
	out := make(map[string]string, len(obj))
	for k, v := range obj {
		switch val := v.(type) {
		case string:
			out[k] = val
		case float64:
			out[k] = strconv.FormatFloat(val, 'f', -1, 64)
		}
	}
	return out
}

func parsePairs(text string) map[string]string {
	text = strings.NewReplacer("<p>", "", "</p>", "").Replace(text)
	out := make(map[string]string)
	for _, chunk := range strings.FieldsFunc(text, func(r rune) bool {
		return r == ',' || r == ';' || r == '\n'
	}) {
		key, value, ok := strings.Cut(chunk, ":")
		if !ok {
			continue
		}
		key, value = strings.TrimSpace(key), strings.TrimSpace(value)
		if key != "" && value != "" {
			out[key] = value
		}
	}
	return out
}

func missingFields(p models.Preferences) []string {
	var missing []string
	for i, v := range p.Values() {
		if strings.TrimSpace(v) == "" {
			missing = append(missing, models.FeatureFields[i])
		}
	}
	return missing
}

func (h *Handler) successTaskResult(taskID string, res *recommend.Result) TaskResult {
	text := formatRecommendation(res, h.svc.WatchLabels(res.Watches))

	return TaskResult{
		ID:   taskID,
		Kind: "task",
		Status: TaskStatus{
			State:     StateCompleted,
			Timestamp: Timestamp(),
			Message: &A2AMessage{
				Kind:      "message",
				Role:      RoleAgent,
				MessageID: uuid.New().String(),
				TaskID:    taskID,
				Parts:     []MessagePart{TextPart(text)},
			},
		},
		Artifacts: []Artifact{{
			ArtifactID: uuid.New().String(),
			Name:       "Watch Recommendations",
			Parts:      []MessagePart{TextPart(text), DataPart(res)},
		}},
	}
}

func errorTaskResult(taskID, msg string) TaskResult {
	return statusOnlyResult(taskID, StateFailed, msg)
}

func inputRequiredResult(taskID, msg string) TaskResult {
	return statusOnlyResult(taskID, StateInputRequired, msg)
}

func statusOnlyResult(taskID, state, msg string) TaskResult {
	return TaskResult{
		ID:   taskID,
		Kind: "task",
		Status: TaskStatus{
			State:     state,
			Timestamp: Timestamp(),
			Message: &A2AMessage{
				Kind:      "message",
				Role:      RoleAgent,
				MessageID: uuid.New().String(),
				TaskID:    taskID,
				Parts:     []MessagePart{TextPart(msg)},
			},
		},
	}
}

func formatRecommendation(res *recommend.Result, labels []string) string {
	var b strings.Builder
	b.WriteString("# Watch Recommendations\n\n")

	b.WriteString("**Brands:**\n")
	for _, s := range res.Brands {
		fmt.Fprintf(&b, "- %s (%.1f%%)\n", s.Brand, s.Probability*100)
	}

	b.WriteString("\n**Watches:**\n")
	if len(labels) == 0 {
		b.WriteString("- No watches in the catalog match these brands yet.\n")
	}
	for _, l := range labels {
		fmt.Fprintf(&b, "- %s\n", l)
	}

	if res.Note != "" {
		b.WriteString("\n")
		b.WriteString(res.Note)
		b.WriteString("\n")
	}
	return b.String()
}

func (h *Handler) sendSuccessResponse(c *gin.Context, id string, result TaskResult) {
	h.log.Debug().Str("id", id).Str("state", result.Status.State).Msg("sending task result")
	h.writeJSON(c, JSONRPCResponse{JSONRPC: "2.0", ID: id, Result: &result})
}

// sendErrorResponse writes a JSON-RPC error. The HTTP status stays 200.
func (h *Handler) sendErrorResponse(c *gin.Context, id, message string, code int) {
	h.log.Debug().Int("code", code).Str("message", message).Msg("sending rpc error")
	h.writeJSON(c, JSONRPCResponse{
		JSONRPC: "2.0",
		ID:      id,
		Error:   &JSONRPCError{Code: code, Message: message},
	})
}

func (h *Handler) writeJSON(c *gin.Context, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		h.log.Error().Err(err).Msg("failed to encode response")
		c.Status(http.StatusInternalServerError)
		return
	}
	c.Data(http.StatusOK, "application/json", data)
}
