package main

import (
	"bytes"
	"flag"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/goccy/go-json"
)

const (
	colorReset  = "\033[0m"
	colorRed    = "\033[31m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorBlue   = "\033[34m"
	colorPurple = "\033[35m"
	colorCyan   = "\033[36m"
)

// samplePreferences is the questionnaire used by the form and agent tests.
var samplePreferences = map[string]string{
	"age_group":     "31-40",
	"profession":    "Engineer",
	"personality":   "Analytical",
	"lifestyle":     "Professional",
	"design":        "Classic",
	"price_range":   "Luxury",
	"material":      "Gold",
	"functionality": "Durability",
}

type TestClient struct {
	baseURL string
	client  *http.Client
}

func NewTestClient(baseURL string) *TestClient {
	return &TestClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		client: &http.Client{
			Timeout: 30 * time.Second,
			// keep redirects visible to the feedback test
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
	}
}

func main() {
	baseURL := flag.String("url", "http://localhost:8080", "Base URL of the recommender")
	testType := flag.String("test", "all", "Test type: all, health, agent-card, form, agent, feedback, custom")
	text := flag.String("text", "", "Preferences as \"field: value, ...\" for the custom agent test")
	flag.Parse()

	client := NewTestClient(*baseURL)

	printHeader("Watch Recommender - Smoke Tests")
	fmt.Printf("%sBase URL: %s%s\n\n", colorCyan, client.baseURL, colorReset)

	var ok bool
	switch *testType {
	case "all":
		client.runAllTests()
		return
	case "health":
		ok = client.testHealthCheck()
	case "agent-card":
		ok = client.testAgentCard()
	case "form":
		ok = client.testFormSubmission()
	case "agent":
		ok = client.testAgentRecommendation()
	case "feedback":
		ok = client.testFeedback()
	case "custom":
		if *text == "" {
			printError("Preferences are required for the custom test. Use -text flag")
			os.Exit(1)
		}
		ok = client.testCustomRecommendation(*text)
	default:
		printError(fmt.Sprintf("Unknown test type: %s", *testType))
		fmt.Println("\nAvailable tests: all, health, agent-card, form, agent, feedback, custom")
		os.Exit(1)
	}
	if !ok {
		os.Exit(1)
	}
}

// runAllTests skips the feedback test, which writes to the feedback store.
func (tc *TestClient) runAllTests() {
	tests := []struct {
		name string
		fn   func() bool
	}{
		{"Health Check", tc.testHealthCheck},
		{"Agent Card", tc.testAgentCard},
		{"Form Submission", tc.testFormSubmission},
		{"Agent Recommendation", tc.testAgentRecommendation},
	}

	passed := 0
	failed := 0

	for _, test := range tests {
		if test.fn() {
			passed++
		} else {
			failed++
		}
		fmt.Println()
	}

	printHeader("Test Summary")
	fmt.Printf("%sPassed: %d%s\n", colorGreen, passed, colorReset)
	fmt.Printf("%sFailed: %d%s\n", colorRed, failed, colorReset)
	fmt.Printf("Total: %d\n", passed+failed)

	if failed > 0 {
		os.Exit(1)
	}
}

func (tc *TestClient) testHealthCheck() bool {
	printTestHeader("Testing Health Check Endpoint")

	target := tc.baseURL + "/health"
	fmt.Printf("GET %s\n", target)

	status, body, err := tc.get(target)
	if err != nil {
		printError(fmt.Sprintf("Request failed: %v", err))
		return false
	}
	if status != http.StatusOK {
		printError(fmt.Sprintf("Expected status 200, got %d", status))
		return false
	}
	if string(body) != "OK" {
		printError(fmt.Sprintf("Expected body 'OK', got '%s'", string(body)))
		return false
	}

	printSuccess("Health check passed")
	return true
}

func (tc *TestClient) testAgentCard() bool {
	printTestHeader("Testing Agent Card Endpoint")

	target := tc.baseURL + "/.well-known/agent.json"
	fmt.Printf("GET %s\n", target)

	status, body, err := tc.get(target)
	if err != nil {
		printError(fmt.Sprintf("Request failed: %v", err))
		return false
	}
	if status != http.StatusOK {
		printError(fmt.Sprintf("Expected status 200, got %d", status))
		fmt.Printf("Response: %s\n", string(body))
		return false
	}

	var card map[string]any
	if err := json.Unmarshal(body, &card); err != nil {
		printError(fmt.Sprintf("Invalid JSON response: %v", err))
		return false
	}
	for _, field := range []string{"name", "description", "url", "version", "capabilities", "skills"} {
		if _, ok := card[field]; !ok {
			printError(fmt.Sprintf("Missing required field: %s", field))
			return false
		}
	}

	printSuccess("Agent card is valid")
	printJSON(body)
	return true
}

func (tc *TestClient) testFormSubmission() bool {
	printTestHeader("Testing Questionnaire Submission")

	target := tc.baseURL + "/"
	fmt.Printf("POST %s\n", target)

	form := url.Values{}
	for k, v := range samplePreferences {
		form.Set(k, v)
	}

	resp, err := tc.client.PostForm(target, form)
	if err != nil {
		printError(fmt.Sprintf("Request failed: %v", err))
		return false
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)

	if resp.StatusCode != http.StatusOK {
		printError(fmt.Sprintf("Expected status 200, got %d", resp.StatusCode))
		return false
	}

	page := string(body)
	switch {
	case strings.Contains(page, "Your recommendations"):
		printSuccess("Result page rendered")
	case strings.Contains(page, "temporarily unavailable"):
		fmt.Printf("%sModel not loaded: the form was re-rendered. Run the trainer to enable predictions.%s\n", colorYellow, colorReset)
		printSuccess("Form re-rendered without a model")
	default:
		printError("Response is neither the result page nor the form")
		return false
	}
	return true
}

func (tc *TestClient) testFeedback() bool {
	printTestHeader("Testing Feedback Submission")

	target := tc.baseURL + "/feedback"
	fmt.Printf("POST %s\n", target)

	form := url.Values{}
	for k, v := range samplePreferences {
		form.Set(k, v)
	}
	form.Set("feedback", "satisfied")
	form.Set("recommended_watches", `["smoke test"]`)

	resp, err := tc.client.PostForm(target, form)
	if err != nil {
		printError(fmt.Sprintf("Request failed: %v", err))
		return false
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusSeeOther {
		printError(fmt.Sprintf("Expected status 303, got %d", resp.StatusCode))
		return false
	}

	printSuccess(fmt.Sprintf("Feedback recorded, redirected to %s", resp.Header.Get("Location")))
	return true
}

func (tc *TestClient) testAgentRecommendation() bool {
	pairs := make([]string, 0, len(samplePreferences))
	for _, k := range []string{"age_group", "profession", "personality", "lifestyle", "design", "price_range", "material", "functionality"} {
		pairs = append(pairs, fmt.Sprintf("%s: %s", strings.ReplaceAll(k, "_", " "), samplePreferences[k]))
	}
	return tc.testCustomRecommendation(strings.Join(pairs, ", "))
}

func (tc *TestClient) testCustomRecommendation(text string) bool {
	printTestHeader("Testing Agent Recommendation")

	target := tc.baseURL + "/a2a/recommender"
	fmt.Printf("POST %s\n", target)
	fmt.Printf("%sPreferences:%s %s\n\n", colorCyan, colorReset, text)

	request := map[string]any{
		"jsonrpc": "2.0",
		"id":      fmt.Sprintf("test-%d", time.Now().Unix()),
		"method":  "message/send",
		"params": map[string]any{
			"message": map[string]any{
				"kind": "message",
				"role": "user",
				"parts": []map[string]any{
					{"kind": "text", "text": text},
				},
			},
			"configuration": map[string]any{
				"blocking":            true,
				"acceptedOutputModes": []string{"text", "data"},
			},
		},
	}

	jsonData, _ := json.MarshalIndent(request, "", "  ")
	fmt.Printf("%sRequest:%s\n", colorYellow, colorReset)
	fmt.Println(string(jsonData))
	fmt.Println()

	resp, err := tc.client.Post(target, "application/json", bytes.NewReader(jsonData))
	if err != nil {
		printError(fmt.Sprintf("Request failed: %v", err))
		return false
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)

	if resp.StatusCode != http.StatusOK {
		printError(fmt.Sprintf("Expected status 200, got %d", resp.StatusCode))
		fmt.Printf("Response: %s\n", string(body))
		return false
	}

	var response struct {
		Error  map[string]any `json:"error"`
		Result *struct {
			Status struct {
				State   string `json:"state"`
				Message *struct {
					Parts []struct {
						Text string `json:"text"`
					} `json:"parts"`
				} `json:"message"`
			} `json:"status"`
			Artifacts []json.RawMessage `json:"artifacts"`
		} `json:"result"`
	}
	if err := json.Unmarshal(body, &response); err != nil {
		printError(fmt.Sprintf("Invalid JSON response: %v", err))
		return false
	}
	if response.Error != nil {
		printError("Request returned an error")
		errJSON, _ := json.MarshalIndent(response.Error, "", "  ")
		fmt.Println(string(errJSON))
		return false
	}
	if response.Result == nil {
		printError("Invalid result format")
		return false
	}

	status := response.Result.Status
	if status.Message != nil {
		fmt.Printf("\n%sAgent Reply:%s\n", colorGreen, colorReset)
		fmt.Println(strings.Repeat("=", 80))
		for _, p := range status.Message.Parts {
			fmt.Println(p.Text)
		}
		fmt.Println(strings.Repeat("=", 80))
	}

	if status.State != "completed" {
		printError(fmt.Sprintf("Expected state 'completed', got '%s'", status.State))
		return false
	}
	printSuccess("Recommendation completed successfully")

	if len(response.Result.Artifacts) > 0 {
		fmt.Printf("\n%sArtifacts:%s\n", colorPurple, colorReset)
		artifactsJSON, _ := json.MarshalIndent(response.Result.Artifacts, "", "  ")
		fmt.Println(string(artifactsJSON))
	}
	return true
}

func (tc *TestClient) get(target string) (int, []byte, error) {
	resp, err := tc.client.Get(target)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	return resp.StatusCode, body, err
}

func printHeader(text string) {
	fmt.Printf("\n%s%s%s\n", colorBlue, strings.Repeat("=", len(text)+4), colorReset)
	fmt.Printf("%s= %s =%s\n", colorBlue, text, colorReset)
	fmt.Printf("%s%s%s\n\n", colorBlue, strings.Repeat("=", len(text)+4), colorReset)
}

func printTestHeader(text string) {
	fmt.Printf("%s[TEST] %s%s\n", colorCyan, text, colorReset)
	fmt.Println(strings.Repeat("-", 80))
}

func printSuccess(text string) {
	fmt.Printf("%s✓ %s%s\n", colorGreen, text, colorReset)
}

func printError(text string) {
	fmt.Printf("%s✗ %s%s\n", colorRed, text, colorReset)
}

func printJSON(data []byte) {
	var prettyJSON bytes.Buffer
	if err := json.Indent(&prettyJSON, data, "", "  "); err == nil {
		fmt.Printf("\n%sResponse:%s\n%s\n", colorYellow, colorReset, prettyJSON.String())
	}
}
