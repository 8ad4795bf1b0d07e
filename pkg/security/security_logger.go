package security

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"strings"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// EventType represents the type of security event
type EventType string

const (
	EventCaptchaRejected      EventType = "captcha_rejected"
	EventCaptchaMisconfigured EventType = "captcha_misconfigured"
	EventCaptchaUnavailable   EventType = "captcha_unavailable"
	EventRateLimitTriggered   EventType = "rate_limit_triggered"
	EventValidationFailed     EventType = "validation_failed"
	EventFieldsRejected       EventType = "fields_rejected"
)

// SecurityEvent represents a security-related event to be logged
type SecurityEvent struct {
	Timestamp    time.Time              `json:"timestamp"`
	Service      string                 `json:"service"`
	Level        string                 `json:"level"`
	Event        EventType              `json:"event"`
	Severity     Severity               `json:"severity"`
	SubjectType  string                 `json:"subject_type,omitempty"`  // "email", "ip"
	SubjectValue string                 `json:"subject_value,omitempty"` // Masked or hashed for PII
	IP           string                 `json:"ip,omitempty"`
	UserAgent    string                 `json:"user_agent,omitempty"`
	RequestID    string                 `json:"request_id,omitempty"`
	Details      map[string]interface{} `json:"details,omitempty"`
}

// SecurityLogger provides structured logging for security events
type SecurityLogger struct {
	zapLogger   *zap.Logger
	serviceName string
}

// NewSecurityLogger wraps an application logger. A nil logger discards events.
func NewSecurityLogger(base *zap.Logger, serviceName string) *SecurityLogger {
	if base == nil {
		base = zap.NewNop()
	}
	return &SecurityLogger{
		zapLogger:   base.Named("security"),
		serviceName: serviceName,
	}
}

// Log logs a security event
func (sl *SecurityLogger) Log(ctx context.Context, event SecurityEvent) {
	if sl == nil {
		return
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}
	event.Service = sl.serviceName

	// Determine log level based on event type
	level := zapcore.WarnLevel
	switch event.Event {
	case EventValidationFailed, EventFieldsRejected:
		level = zapcore.InfoLevel
	case EventCaptchaRejected, EventRateLimitTriggered, EventCaptchaUnavailable:
		level = zapcore.WarnLevel
	case EventCaptchaMisconfigured:
		level = zapcore.ErrorLevel
	}
	event.Level = level.String()
	event.Severity = GetSeverity(event.Event)

	fields := []zap.Field{
		zap.String("service", event.Service),
		zap.String("event", string(event.Event)),
		zap.String("severity", string(event.Severity)),
		zap.Time("event_time", event.Timestamp),
	}
	if event.SubjectType != "" {
		fields = append(fields, zap.String("subject_type", event.SubjectType))
	}
	if event.SubjectValue != "" {
		fields = append(fields, zap.String("subject_value", event.SubjectValue))
	}
	if event.IP != "" {
		fields = append(fields, zap.String("ip", event.IP))
	}
	if event.UserAgent != "" {
		fields = append(fields, zap.String("user_agent", event.UserAgent))
	}
	if event.RequestID != "" {
		fields = append(fields, zap.String("request_id", event.RequestID))
	}
	if len(event.Details) > 0 {
		detailsJSON, _ := json.Marshal(event.Details)
		fields = append(fields, zap.String("details", string(detailsJSON)))
	}

	sl.zapLogger.Log(level, string(event.Event), fields...)
}

// LogCaptchaRejected logs a token the verification service refused or could not check
func (sl *SecurityLogger) LogCaptchaRejected(ctx context.Context, email, ip, requestID string, cause error) {
	event := SecurityEvent{
		Event:        EventCaptchaRejected,
		SubjectType:  "email",
		SubjectValue: MaskEmail(email),
		IP:           ip,
		RequestID:    requestID,
	}
	if cause != nil {
		event.Event = EventCaptchaUnavailable
		event.Details = map[string]interface{}{"error": cause.Error()}
	}
	sl.Log(ctx, event)
}

// LogCaptchaMisconfigured logs a verification attempt without a secret key
func (sl *SecurityLogger) LogCaptchaMisconfigured(ctx context.Context, ip, requestID string) {
	sl.Log(ctx, SecurityEvent{
		Event:     EventCaptchaMisconfigured,
		IP:        ip,
		RequestID: requestID,
		Details:   map[string]interface{}{"reason": "secret_key_missing"},
	})
}

// LogFieldsRejected logs fields dropped by the allow-list
func (sl *SecurityLogger) LogFieldsRejected(ctx context.Context, ip, requestID string, names []string) {
	hashed := make([]string, 0, len(names))
	for _, n := range names {
		hashed = append(hashed, HashValue(n))
	}
	sl.Log(ctx, SecurityEvent{
		Event:     EventFieldsRejected,
		IP:        ip,
		RequestID: requestID,
		Details:   map[string]interface{}{"count": len(names), "fields": hashed},
	})
}

// LogValidationFailed logs which fields failed validation, never their values
func (sl *SecurityLogger) LogValidationFailed(ctx context.Context, ip, requestID string, fields []string) {
	sl.Log(ctx, SecurityEvent{
		Event:     EventValidationFailed,
		IP:        ip,
		RequestID: requestID,
		Details:   map[string]interface{}{"fields": fields},
	})
}

// LogRateLimitTriggered logs when rate limiting is triggered
func (sl *SecurityLogger) LogRateLimitTriggered(ctx context.Context, ip, userAgent, requestID, endpoint string) {
	sl.Log(ctx, SecurityEvent{
		Event:        EventRateLimitTriggered,
		SubjectType:  "ip",
		SubjectValue: ip,
		IP:           ip,
		UserAgent:    userAgent,
		RequestID:    requestID,
		Details:      map[string]interface{}{"endpoint": endpoint},
	})
}

// Sync flushes any buffered log entries
func (sl *SecurityLogger) Sync() error {
	return sl.zapLogger.Sync()
}

// --- Helper Functions ---

// MaskEmail masks an email for logging (e.g., "j***@example.com")
func MaskEmail(email string) string {
	atIndex := strings.LastIndexByte(email, '@')
	if atIndex < 0 {
		return "***"
	}
	local := []rune(email[:atIndex])
	if len(local) <= 1 {
		return "***" + email[atIndex:]
	}
	return string(local[0]) + "***" + email[atIndex:]
}

// HashValue creates a SHA256 hash of a value (for logging without PII)
func HashValue(value string) string {
	hash := sha256.Sum256([]byte(value))
	return hex.EncodeToString(hash[:8]) // First 16 chars of hex
}
