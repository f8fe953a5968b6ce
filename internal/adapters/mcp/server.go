// Package mcpadapter exposes read-only onboarding lookups as MCP tools.
package mcpadapter

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/kirillkom/hr-onboarding/internal/core/domain"
	"github.com/kirillkom/hr-onboarding/internal/core/ports"
)

const (
	serverName    = "hr-onboarding"
	serverVersion = "1.0.0"
)

type Tools struct {
	candidates   ports.CandidateService
	verification ports.VerificationService
}

func NewTools(candidates ports.CandidateService, verification ports.VerificationService) *Tools {
	return &Tools{candidates: candidates, verification: verification}
}

// NewServer registers every tool on a fresh MCP server.
func NewServer(tools *Tools) *server.MCPServer {
	s := server.NewMCPServer(serverName, serverVersion,
		server.WithToolCapabilities(false),
		server.WithRecovery(),
	)

	s.AddTool(mcp.NewTool("requirement_catalog",
		mcp.WithDescription("List the documents every candidate must supply, with their matching keywords."),
	), tools.RequirementCatalog)

	s.AddTool(mcp.NewTool("list_candidates",
		mcp.WithDescription("List onboarding candidates, optionally filtered by pipeline stage."),
		mcp.WithString("status", mcp.Description("Stage name such as \"Documents Requested\". Case-insensitive.")),
	), tools.ListCandidates)

	s.AddTool(mcp.NewTool("candidate_documents",
		mcp.WithDescription("Resolve the document checklist of one candidate against their storage folder."),
		mcp.WithString("candidate_id", mcp.Required(), mcp.Description("Candidate id.")),
	), tools.CandidateDocuments)

	return s
}

func (t *Tools) RequirementCatalog(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return jsonResult(map[string]any{"requirements": t.verification.Catalog()})
}

func (t *Tools) ListCandidates(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var stage domain.CandidateStatus
	if raw := strings.TrimSpace(req.GetString("status", "")); raw != "" {
		parsed, ok := domain.ParseCandidateStatus(raw)
		if !ok {
			return mcp.NewToolResultError("unknown status " + raw), nil
		}
		stage = parsed
	}

	items, err := t.candidates.List(ctx)
	if err != nil {
		return toolError("list_candidates", err), nil
	}
	type summary struct {
		ID     string                 `json:"id"`
		Name   string                 `json:"name"`
		Role   string                 `json:"role"`
		Status domain.CandidateStatus `json:"status"`
	}
	out := make([]summary, 0, len(items))
	for _, c := range items {
		if stage != "" && c.Status != stage {
			continue
		}
		out = append(out, summary{ID: c.ID, Name: c.Name, Role: c.Role, Status: c.Status})
	}
	return jsonResult(map[string]any{"candidates": out})
}

func (t *Tools) CandidateDocuments(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("candidate_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	view, err := t.verification.Documents(ctx, strings.TrimSpace(id))
	if err != nil {
		return toolError("candidate_documents", err), nil
	}
	counts := make(map[string]int, 4)
	for label, n := range view.Documents.Counts() {
		counts[string(label)] = n
	}
	return jsonResult(map[string]any{
		"candidateId": view.CandidateID,
		"stage":       view.Stage,
		"documents":   view.Documents,
		"counts":      counts,
		"degraded":    view.Degraded,
	})
}

func toolError(tool string, err error) *mcp.CallToolResult {
	if !domain.IsKind(err, domain.ErrCandidateNotFound) && !domain.IsKind(err, domain.ErrInvalidInput) {
		slog.Error("mcp_tool_error", "tool", tool, "error", err)
	}
	return mcp.NewToolResultError(err.Error())
}

func jsonResult(payload any) (*mcp.CallToolResult, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return mcp.NewToolResultText(string(raw)), nil
}
