package logging

import (
	"context"
	"log/slog"

	"gavel/internal/services"
)

const (
	// FieldComponent identifies the subsystem emitting a record.
	FieldComponent = "component"
	// FieldRunID carries the audit run identifier.
	FieldRunID = "run_id"
	// FieldPhase names the workflow phase active when the record was emitted.
	FieldPhase = "phase"
	// FieldCriterion names the rubric criterion being evaluated.
	FieldCriterion = "criterion"
	// FieldPersona names the evaluator persona producing an opinion.
	FieldPersona = "persona"
	// FieldCollector names the evidence collector at work.
	FieldCollector = "collector"
	// FieldCorrelationID links records belonging to one external request.
	FieldCorrelationID = "correlation_id"
	// FieldAlert marks records that should surface in notifications.
	FieldAlert = "alert"
	// FieldEventType classifies warning and error records.
	FieldEventType = "event_type"
	// FieldErrorKind carries the error taxonomy bucket for failure records.
	FieldErrorKind = "error_kind"
	// FieldErrorHint suggests a recovery action for error records.
	FieldErrorHint = "error_hint"
	// FieldDuration reports elapsed time for a completed operation.
	FieldDuration = "duration"
)

// ContextFields extracts run metadata stored on the context and returns it
// as attributes ready to attach to a record.
func ContextFields(ctx context.Context) []Attr {
	if ctx == nil {
		return nil
	}

	attrs := make([]Attr, 0, 5)
	if runID, ok := services.RunIDFromContext(ctx); ok {
		attrs = append(attrs, String(FieldRunID, runID))
	}
	if phase, ok := services.PhaseFromContext(ctx); ok {
		attrs = append(attrs, String(FieldPhase, phase))
	}
	if criterion, ok := services.CriterionFromContext(ctx); ok {
		attrs = append(attrs, String(FieldCriterion, criterion))
	}
	if persona, ok := services.PersonaFromContext(ctx); ok {
		attrs = append(attrs, String(FieldPersona, persona))
	}
	if requestID, ok := services.RequestIDFromContext(ctx); ok {
		attrs = append(attrs, String(FieldCorrelationID, requestID))
	}
	return attrs
}

// WithContext returns a logger that carries the run metadata found on ctx.
func WithContext(ctx context.Context, logger *slog.Logger) *slog.Logger {
	if logger == nil {
		return nil
	}
	fields := ContextFields(ctx)
	if len(fields) == 0 {
		return logger
	}
	return logger.With(attrsToArgs(fields)...)
}
