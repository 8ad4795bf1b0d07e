package security

// Severity represents the severity level of a security event
// This is derived from EventType, NOT user-provided
type Severity string

const (
	SeverityINFO     Severity = "INFO"
	SeverityMEDIUM   Severity = "MEDIUM"
	SeverityWARN     Severity = "WARN"
	SeverityHIGH     Severity = "HIGH"
	SeverityCRITICAL Severity = "CRITICAL"
)

// EventSeverityMap defines the hard-coded severity for each event type
var EventSeverityMap = map[EventType]Severity{
	// INFO - Normal user mistakes
	EventValidationFailed: SeverityINFO,

	// MEDIUM - Probing or tampered clients
	EventFieldsRejected:     SeverityMEDIUM,
	EventCaptchaUnavailable: SeverityMEDIUM,

	// WARN - Likely automated traffic, monitor
	EventCaptchaRejected:    SeverityWARN,
	EventRateLimitTriggered: SeverityWARN,

	// CRITICAL - Every submission is failing
	EventCaptchaMisconfigured: SeverityCRITICAL,
}

// GetSeverity returns the severity for an event type
// If the event type is not mapped, defaults to MEDIUM
func GetSeverity(eventType EventType) Severity {
	if severity, ok := EventSeverityMap[eventType]; ok {
		return severity
	}
	return SeverityMEDIUM
}

// IsCritical returns true if the event requires immediate attention
func IsCritical(eventType EventType) bool {
	return GetSeverity(eventType) == SeverityCRITICAL
}
