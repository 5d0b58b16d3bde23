package mcp

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/romanpilnik/fitlog/internal/models"
)

func (h *handlers) activeProgram(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	uid := UserIDFromContext(ctx)

	summary := map[string]any{"active": false}
	program, err := h.ds.GetActiveProgram(ctx, uid)
	switch {
	case errors.Is(err, models.ErrNotFound):
	case err != nil:
		return nil, err
	default:
		summary["active"] = true
		summary["program"] = program
		next, err := h.ds.GetNextWorkout(ctx, uid)
		if err != nil {
			h.log.Warn("active_program: next workout failed", "error", err)
		} else {
			summary["next_workout"] = next
		}
	}

	data, err := json.Marshal(summary)
	if err != nil {
		return nil, err
	}

	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      req.Params.URI,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}
