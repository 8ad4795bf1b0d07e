package security

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestMaskEmail(t *testing.T) {
	assert.Equal(t, "j***@example.com", MaskEmail("jane@example.com"))
	assert.Equal(t, "***", MaskEmail("ab"))
	assert.Equal(t, "***@b.com", MaskEmail("a@b.com"))
	assert.Equal(t, "***", MaskEmail("no-at-sign"))
	assert.Equal(t, "***", MaskEmail("ελένη"))
	assert.Equal(t, "ε***@example.gr", MaskEmail("ελένη@example.gr"))
	assert.Equal(t, "***@example.com", MaskEmail("@example.com"))
}

func TestHashValueIsStableAndShort(t *testing.T) {
	assert.Equal(t, HashValue("isAdmin"), HashValue("isAdmin"))
	assert.NotEqual(t, HashValue("isAdmin"), HashValue("__proto__"))
	assert.Len(t, HashValue("x"), 16)
}

func TestLogLevels(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	sl := NewSecurityLogger(zap.New(core), "portfolio-backend")
	ctx := context.Background()

	sl.LogCaptchaMisconfigured(ctx, "203.0.113.7", "req-1")
	sl.LogCaptchaRejected(ctx, "jane@example.com", "203.0.113.7", "req-2", nil)
	sl.LogCaptchaRejected(ctx, "jane@example.com", "203.0.113.7", "req-3", errors.New("timeout"))
	sl.LogFieldsRejected(ctx, "203.0.113.7", "req-4", []string{"isAdmin"})

	entries := logs.All()
	assert.Len(t, entries, 4)
	assert.Equal(t, zapcore.ErrorLevel, entries[0].Level)
	assert.Equal(t, string(EventCaptchaRejected), entries[1].Message)
	assert.Equal(t, string(EventCaptchaUnavailable), entries[2].Message)
	assert.Equal(t, zapcore.InfoLevel, entries[3].Level)

	assert.Equal(t, string(SeverityCRITICAL), entries[0].ContextMap()["severity"])
	assert.True(t, IsCritical(EventCaptchaMisconfigured))
	assert.Equal(t, SeverityMEDIUM, GetSeverity(EventType("unknown")))

	fields := entries[1].ContextMap()
	assert.Equal(t, "j***@example.com", fields["subject_value"])
	assert.NotContains(t, entries[3].ContextMap()["details"], "isAdmin")
}

func TestNilLoggerIsSafe(t *testing.T) {
	var sl *SecurityLogger
	sl.Log(context.Background(), SecurityEvent{Event: EventValidationFailed})
}
