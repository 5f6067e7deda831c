package mcptools

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
)

// featureKeys are the numeric tool arguments forwarded to the scoring API.
var featureKeys = []string{
	"pregnancies", "glucose", "bloodpressure", "skinthickness",
	"insulin", "bmi", "dpf", "age",
}

// Handlers holds the handler functions for each MCP tool.
type Handlers struct {
	client *Client
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(client *Client) *Handlers {
	return &Handlers{client: client}
}

// HandleScorePatient submits the measurements and formats the scoring result.
func (h *Handlers) HandleScorePatient(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()

	payload := make(map[string]any, len(featureKeys)+2)
	for _, key := range featureKeys {
		v, ok := args[key]
		if !ok {
			return mcp.NewToolResultError(fmt.Sprintf("%s is required", key)), nil
		}
		payload[key] = v
	}
	if name := req.GetString("name", ""); name != "" {
		payload["name"] = name
	}
	if id := req.GetString("patient_id", ""); id != "" {
		payload["patient_id"] = id
	}

	raw, err := h.client.ScorePatient(ctx, payload)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Scoring failed: %v", err)), nil
	}

	text, err := formatScoreResult(raw)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to parse result: %v", err)), nil
	}

	return mcp.NewToolResultText(text), nil
}

// HandleGetDashboard returns history aggregates.
func (h *Handlers) HandleGetDashboard(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	raw, err := h.client.GetDashboard(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to get dashboard: %v", err)), nil
	}

	text, err := formatDashboard(raw)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to parse dashboard: %v", err)), nil
	}

	return mcp.NewToolResultText(text), nil
}

// HandleGetRecord fetches one assessment by index.
func (h *Handlers) HandleGetRecord(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	index := req.GetInt("index", -1)
	if index < 0 {
		return mcp.NewToolResultError("index is required and must be non-negative"), nil
	}

	raw, err := h.client.GetRecord(ctx, int64(index))
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to get record: %v", err)), nil
	}

	text, err := formatRecord(raw)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to parse record: %v", err)), nil
	}

	return mcp.NewToolResultText(text), nil
}

func formatScoreResult(raw json.RawMessage) (string, error) {
	var resp struct {
		Result      string  `json:"result"`
		Probability float64 `json:"probability"`
		Suggestion  string  `json:"suggestion"`
	}
	if err := json.Unmarshal(raw, &resp); err != nil {
		return "", err
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Risk level: %s\n", resp.Result)
	fmt.Fprintf(&sb, "Probability: %.2f%%\n", resp.Probability)
	fmt.Fprintf(&sb, "Suggestion: %s\n", resp.Suggestion)
	return sb.String(), nil
}

func formatDashboard(raw json.RawMessage) (string, error) {
	var resp struct {
		Total   int     `json:"total"`
		Avg     float64 `json:"avg"`
		High    int     `json:"high"`
		Message string  `json:"message"`
		Records []struct {
			Name        string  `json:"name"`
			PatientID   string  `json:"patientId"`
			Probability float64 `json:"probability"`
			RiskLevel   string  `json:"riskLevel"`
		} `json:"records"`
	}
	if err := json.Unmarshal(raw, &resp); err != nil {
		return "", err
	}

	if resp.Total == 0 {
		if resp.Message != "" {
			return resp.Message, nil
		}
		return "No assessments recorded yet.", nil
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Assessments: %d\n", resp.Total)
	fmt.Fprintf(&sb, "Average probability: %.2f%%\n", resp.Avg)
	fmt.Fprintf(&sb, "High risk: %d\n\n", resp.High)
	for i, rec := range resp.Records {
		name := rec.Name
		if name == "" {
			name = "(unnamed)"
		}
		fmt.Fprintf(&sb, "%d. %s [%s] %.2f%% — %s\n", i, name, rec.PatientID, rec.Probability, rec.RiskLevel)
	}
	return sb.String(), nil
}

func formatRecord(raw json.RawMessage) (string, error) {
	var resp struct {
		Record struct {
			Seq         int64   `json:"seq"`
			Timestamp   string  `json:"timestamp"`
			Name        string  `json:"name"`
			PatientID   string  `json:"patientId"`
			Probability float64 `json:"probability"`
			RiskLevel   string  `json:"riskLevel"`
		} `json:"record"`
	}
	if err := json.Unmarshal(raw, &resp); err != nil {
		return "", err
	}

	rec := resp.Record
	var sb strings.Builder
	fmt.Fprintf(&sb, "Record #%d\n", rec.Seq)
	if rec.Name != "" {
		fmt.Fprintf(&sb, "Name: %s\n", rec.Name)
	}
	if rec.PatientID != "" {
		fmt.Fprintf(&sb, "Patient ID: %s\n", rec.PatientID)
	}
	fmt.Fprintf(&sb, "Timestamp: %s\n", rec.Timestamp)
	fmt.Fprintf(&sb, "Probability: %.2f%%\n", rec.Probability)
	fmt.Fprintf(&sb, "Risk level: %s\n", rec.RiskLevel)
	return sb.String(), nil
}
