package logger

import (
	"context"
	"log/slog"
	"sort"
	"strings"
	"time"
)

// Audit event types.
const (
	EventUpdateRequested = "profile_update_requested"
	EventUpdateApproved  = "profile_update_approved"
	EventUpdateRejected  = "profile_update_rejected"
	EventStatusChanged   = "user_status_changed"
	EventUserCreated     = "user_created"
	EventAuthFailed      = "auth_failed"
	EventAccessDenied    = "access_denied"
)

// AuditEvent is a single entry in the audit trail.
type AuditEvent struct {
	EventType     string
	ActorID       string
	TargetUserID  string
	RequestID     string
	IPAddress     string
	Success       bool
	FailureReason string
	Metadata      map[string]string
}

// AuditLogger writes audit entries as structured log records tagged audit=true.
type AuditLogger struct {
	logger *slog.Logger
}

func NewAuditLogger(logger *slog.Logger) *AuditLogger {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuditLogger{
		logger: logger,
	}
}

// Log records event. Failed events are logged at warn level.
func (al *AuditLogger) Log(ctx context.Context, event AuditEvent) {
	attrs := []slog.Attr{
		slog.Bool("audit", true),
		slog.String("event_type", event.EventType),
		slog.Bool("success", event.Success),
		slog.String("timestamp", time.Now().UTC().Format(time.RFC3339)),
	}

	if event.ActorID != "" {
		attrs = append(attrs, slog.String("actor_id", event.ActorID))
	}
	if event.TargetUserID != "" {
		attrs = append(attrs, slog.String("user_id", event.TargetUserID))
	}
	if event.RequestID != "" {
		attrs = append(attrs, slog.String("update_request_id", event.RequestID))
	}
	if event.IPAddress != "" {
		attrs = append(attrs, slog.String("ip_address", event.IPAddress))
	}
	if event.FailureReason != "" {
		attrs = append(attrs, slog.String("failure_reason", event.FailureReason))
	}

	keys := make([]string, 0, len(event.Metadata))
	for k := range event.Metadata {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		attrs = append(attrs, slog.String(k, event.Metadata[k]))
	}

	level := slog.LevelInfo
	if !event.Success {
		level = slog.LevelWarn
	}
	al.logger.LogAttrs(ctx, level, "audit", attrs...)
}

// LogUpdateRequested records a profile update submission by userID.
func (al *AuditLogger) LogUpdateRequested(ctx context.Context, userID, requestID string, fields []string) {
	al.Log(ctx, AuditEvent{
		EventType:    EventUpdateRequested,
		ActorID:      userID,
		TargetUserID: userID,
		RequestID:    requestID,
		Success:      true,
		Metadata:     map[string]string{"fields": joinFields(fields)},
	})
}

// LogReview records the outcome of a review by reviewerID.
func (al *AuditLogger) LogReview(ctx context.Context, reviewerID, userID, requestID string, approved bool, fields []string) {
	eventType := EventUpdateRejected
	if approved {
		eventType = EventUpdateApproved
	}
	al.Log(ctx, AuditEvent{
		EventType:    eventType,
		ActorID:      reviewerID,
		TargetUserID: userID,
		RequestID:    requestID,
		Success:      true,
		Metadata:     map[string]string{"fields": joinFields(fields)},
	})
}

// LogStatusChange records a user status change applied through an approved update request. Always warn level.
func (al *AuditLogger) LogStatusChange(ctx context.Context, reviewerID, userID, requestID, from, to string) {
	al.logger.LogAttrs(ctx, slog.LevelWarn, "audit",
		slog.Bool("audit", true),
		slog.String("event_type", EventStatusChanged),
		slog.String("actor_id", reviewerID),
		slog.String("user_id", userID),
		slog.String("update_request_id", requestID),
		slog.String("from_status", from),
		slog.String("to_status", to),
		slog.String("timestamp", time.Now().UTC().Format(time.RFC3339)),
	)
}

func joinFields(fields []string) string {
	return strings.Join(fields, ",")
}
