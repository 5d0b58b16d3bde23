package mcp

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/romanpilnik/fitlog/internal/models"
)

const defaultSessionLimit = 10

var toolGetActiveProgram = mcp.NewTool("get_active_program",
	mcp.WithDescription("Get the user's active training program: workouts, periodization plan (weeks, RIR per week, deload week) and the progress cursor."),
)

var toolGetNextWorkout = mcp.NewTool("get_next_workout",
	mcp.WithDescription("Get the workout the user should train next, with the target RIR for the current week, whether it is a deload week and overall progress in percent."),
)

var toolGetExerciseStats = mcp.NewTool("get_exercise_stats",
	mcp.WithDescription("Get performance statistics for one exercise: last performance, personal record, the last 10 sessions, progression rate, estimated one rep max and user notes."),
	mcp.WithString("exercise_id", mcp.Required(), mcp.Description("Exercise UUID")),
)

var toolListExerciseStats = mcp.NewTool("list_exercise_stats",
	mcp.WithDescription("List performance statistics for every exercise the user has trained, most recently trained first."),
)

var toolGetRecentSessions = mcp.NewTool("get_recent_sessions",
	mcp.WithDescription("List the user's most recently logged sessions with every set (weight, reps, RIR)."),
	mcp.WithNumber("limit", mcp.Description("Number of sessions to return. Defaults to 10, at most 200."), mcp.Min(1), mcp.Max(200)),
)

var toolListTemplates = mcp.NewTool("list_templates",
	mcp.WithDescription("List the program templates a user can start from."),
)

func (h *handlers) getActiveProgram(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	program, err := h.ds.GetActiveProgram(ctx, UserIDFromContext(ctx))
	if errors.Is(err, models.ErrNotFound) {
		return mcp.NewToolResultText("The user has no active program."), nil
	}
	if err != nil {
		h.log.Error("mcp get_active_program", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}
	return jsonResult(program)
}

func (h *handlers) getNextWorkout(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	next, err := h.ds.GetNextWorkout(ctx, UserIDFromContext(ctx))
	if errors.Is(err, models.ErrNotFound) {
		return mcp.NewToolResultText("The user has no active program."), nil
	}
	if err != nil {
		h.log.Error("mcp get_next_workout", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}
	return jsonResult(next)
}

func (h *handlers) getExerciseStats(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	raw, err := req.RequireString("exercise_id")
	if err != nil {
		return mcp.NewToolResultError("exercise_id parameter is required"), nil
	}
	exerciseID, err := uuid.Parse(raw)
	if err != nil {
		return mcp.NewToolResultError("invalid exercise_id: " + err.Error()), nil
	}

	stats, err := h.ds.GetExerciseStats(ctx, UserIDFromContext(ctx), exerciseID)
	if errors.Is(err, models.ErrNotFound) {
		return mcp.NewToolResultText("The user has not trained this exercise yet."), nil
	}
	if err != nil {
		h.log.Error("mcp get_exercise_stats", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}
	return jsonResult(stats)
}

func (h *handlers) listExerciseStats(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	stats, err := h.ds.ListExerciseStats(ctx, UserIDFromContext(ctx))
	if err != nil {
		h.log.Error("mcp list_exercise_stats", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}
	return jsonResult(stats)
}

func (h *handlers) getRecentSessions(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	limit := req.GetInt("limit", defaultSessionLimit)
	sessions, err := h.ds.ListSessions(ctx, UserIDFromContext(ctx), limit)
	if err != nil {
		h.log.Error("mcp get_recent_sessions", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}
	return jsonResult(sessions)
}

func (h *handlers) listTemplates(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	templates, err := h.ds.ListTemplates(ctx)
	if err != nil {
		h.log.Error("mcp list_templates", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}
	return jsonResult(templates)
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	result, err := mcp.NewToolResultJSON(v)
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}
