package mcptools

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- Test helpers ---

func newTestSetup(handler http.Handler) (*Handlers, func()) {
	ts := httptest.NewServer(handler)
	client := NewClient(Config{APIURL: ts.URL})
	return NewHandlers(client), ts.Close
}

func makeRequest(args map[string]any) mcp.CallToolRequest {
	var req mcp.CallToolRequest
	if args == nil {
		args = map[string]any{}
	}
	req.Params.Arguments = args
	return req
}

func resultText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	require.NotEmpty(t, result.Content, "expected at least one content block")
	tc, ok := result.Content[0].(mcp.TextContent)
	require.True(t, ok, "expected TextContent, got %T", result.Content[0])
	return tc.Text
}

func scoreArgs() map[string]any {
	return map[string]any{
		"name":          "Jordan Vale",
		"patient_id":    "P-1042",
		"pregnancies":   2.0,
		"glucose":       150.0,
		"bloodpressure": 80.0,
		"skinthickness": 30.0,
		"insulin":       100.0,
		"bmi":           33.5,
		"dpf":           0.6,
		"age":           45.0,
	}
}

// --- Client tests ---

func TestClient_ErrorWithAPIMessage(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"error":   "validation_error",
			"message": "glucose is not a valid number",
		})
	}))
	defer ts.Close()

	client := NewClient(Config{APIURL: ts.URL})
	_, err := client.ScorePatient(context.Background(), map[string]any{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "400")
	assert.Contains(t, err.Error(), "glucose is not a valid number")
}

func TestClient_ConnectionRefused(t *testing.T) {
	client := NewClient(Config{APIURL: "http://127.0.0.1:1"})
	_, err := client.GetDashboard(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "request failed")
}

// --- Handler tests ---

func TestHandleScorePatient_Success(t *testing.T) {
	var gotBody map[string]any
	h, cleanup := newTestSetup(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/score", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		_ = json.NewEncoder(w).Encode(map[string]any{
			"result":      "High Risk",
			"probability": 82.4,
			"suggestion":  "Please consult a doctor as soon as possible.",
		})
	}))
	defer cleanup()

	result, err := h.HandleScorePatient(context.Background(), makeRequest(scoreArgs()))
	require.NoError(t, err)
	require.False(t, result.IsError)

	text := resultText(t, result)
	assert.Contains(t, text, "High Risk")
	assert.Contains(t, text, "82.40%")

	assert.Equal(t, "Jordan Vale", gotBody["name"])
	assert.Equal(t, "P-1042", gotBody["patient_id"])
	assert.Equal(t, 150.0, gotBody["glucose"])
}

func TestHandleScorePatient_MissingFeature(t *testing.T) {
	h, cleanup := newTestSetup(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request should reach the API")
	}))
	defer cleanup()

	args := scoreArgs()
	delete(args, "bmi")

	result, err := h.HandleScorePatient(context.Background(), makeRequest(args))
	require.NoError(t, err)
	assert.True(t, result.IsError)
	assert.Contains(t, resultText(t, result), "bmi is required")
}

func TestHandleGetDashboard_Empty(t *testing.T) {
	h, cleanup := newTestSetup(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"total": 0, "avg": 0, "high": 0,
			"records": []any{},
			"message": "No data available yet.",
		})
	}))
	defer cleanup()

	result, err := h.HandleGetDashboard(context.Background(), makeRequest(nil))
	require.NoError(t, err)
	assert.Equal(t, "No data available yet.", resultText(t, result))
}

func TestHandleGetDashboard_Populated(t *testing.T) {
	h, cleanup := newTestSetup(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"total": 2, "avg": 50.0, "high": 1,
			"records": []map[string]any{
				{"name": "A", "patientId": "P-1", "probability": 10.0, "riskLevel": "Low Risk"},
				{"name": "B", "patientId": "P-2", "probability": 90.0, "riskLevel": "High Risk"},
			},
		})
	}))
	defer cleanup()

	result, err := h.HandleGetDashboard(context.Background(), makeRequest(nil))
	require.NoError(t, err)

	text := resultText(t, result)
	assert.Contains(t, text, "Assessments: 2")
	assert.Contains(t, text, "High risk: 1")
	assert.Contains(t, text, "High Risk")
}

func TestHandleGetRecord_Success(t *testing.T) {
	h, cleanup := newTestSetup(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/records/3", r.URL.Path)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"record": map[string]any{
				"seq":         3,
				"timestamp":   "2026-08-29T10:00:00Z",
				"name":        "Jordan Vale",
				"patientId":   "P-1042",
				"probability": 56.13,
				"riskLevel":   "Moderate Risk",
			},
		})
	}))
	defer cleanup()

	result, err := h.HandleGetRecord(context.Background(), makeRequest(map[string]any{"index": 3.0}))
	require.NoError(t, err)

	text := resultText(t, result)
	assert.Contains(t, text, "Record #3")
	assert.Contains(t, text, "Jordan Vale")
	assert.Contains(t, text, "56.13%")
}

func TestHandleGetRecord_MissingIndex(t *testing.T) {
	h, cleanup := newTestSetup(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request should reach the API")
	}))
	defer cleanup()

	result, err := h.HandleGetRecord(context.Background(), makeRequest(nil))
	require.NoError(t, err)
	assert.True(t, result.IsError)
}

func TestHandleGetRecord_NotFound(t *testing.T) {
	h, cleanup := newTestSetup(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"error": "not_found", "message": "Record not found",
		})
	}))
	defer cleanup()

	result, err := h.HandleGetRecord(context.Background(), makeRequest(map[string]any{"index": 99.0}))
	require.NoError(t, err)
	assert.True(t, result.IsError)
	assert.Contains(t, resultText(t, result), "Record not found")
}
