package logging

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Field keys for context correlation data.
const (
	runIDKey       = "run.id"
	projectPathKey = "project.path"
)

// ContextFields extracts correlation data from context.
func ContextFields(ctx context.Context) []zap.Field {
	fields := make([]zap.Field, 0, 2)

	if runID := RunIDFromContext(ctx); runID != "" {
		fields = append(fields, zap.String(runIDKey, runID))
	}

	if path := ProjectPathFromContext(ctx); path != "" {
		fields = append(fields, zap.String(projectPathKey, path))
	}

	return fields
}

type runCtxKey struct{}
type projectCtxKey struct{}

// NewRunID returns a fresh identifier for one gitlabber invocation.
func NewRunID() string {
	return uuid.NewString()
}

// WithRunID adds the run ID to context.
func WithRunID(ctx context.Context, runID string) context.Context {
	return context.WithValue(ctx, runCtxKey{}, runID)
}

// RunIDFromContext extracts the run ID from context.
func RunIDFromContext(ctx context.Context) string {
	if s, ok := ctx.Value(runCtxKey{}).(string); ok {
		return s
	}
	return ""
}

// WithProjectPath adds the canonical path of the project being worked on.
func WithProjectPath(ctx context.Context, path string) context.Context {
	return context.WithValue(ctx, projectCtxKey{}, path)
}

// ProjectPathFromContext extracts the project path from context.
func ProjectPathFromContext(ctx context.Context) string {
	if s, ok := ctx.Value(projectCtxKey{}).(string); ok {
		return s
	}
	return ""
}

type loggerCtxKey struct{}

// WithLogger stores logger in context.
func WithLogger(ctx context.Context, logger *Logger) context.Context {
	return context.WithValue(ctx, loggerCtxKey{}, logger)
}

// FromContext retrieves logger from context.
// Returns a nop logger if not found.
func FromContext(ctx context.Context) *Logger {
	if l, ok := ctx.Value(loggerCtxKey{}).(*Logger); ok {
		return l
	}
	return Nop()
}
