package domain

import (
	"context"
	"errors"
	"time"
)

// Contact form field names
const (
	FieldName    = "name"
	FieldEmail   = "email"
	FieldMessage = "message"
)

// ContactFieldNames is the allow-list of fields accepted by the contact form, in display order.
var ContactFieldNames = []string{FieldName, FieldEmail, FieldMessage}

// ErrStoreUnavailable is returned by repositories when the backing store cannot be reached.
var ErrStoreUnavailable = errors.New("submission store unavailable")

// FormField is one named input of a contact form submission.
type FormField struct {
	Name     string `json:"name" example:"email"`
	Value    string `json:"value" example:"jane@example.com"`
	Required bool   `json:"required" example:"true"`
}

// ValidationErrors maps a field name to a human readable message. Empty means valid.
type ValidationErrors map[string]string

// HasErrors reports whether at least one field failed validation.
func (v ValidationErrors) HasErrors() bool {
	return len(v) > 0
}

// SubmissionRecord is the persisted form of an accepted contact submission.
// Records are append-only: never updated or deleted by this service.
type SubmissionRecord struct {
	ID        string    `json:"id" bson:"_id"`
	Name      string    `json:"name" bson:"name"`
	Email     string    `json:"email" bson:"email"`
	Message   string    `json:"message" bson:"message"`
	Locale    string    `json:"locale,omitempty" bson:"locale,omitempty"`
	CreatedAt time.Time `json:"createdAt" bson:"createdAt"`
}

// SubmissionResult is returned for exactly one submission attempt.
type SubmissionResult struct {
	Success            bool             `json:"success"`
	ValidationErrors   ValidationErrors `json:"validationErrors"`
	VerificationFailed bool             `json:"verificationFailed"`
	StoreError         bool             `json:"storeError"`
	ResponseError      string           `json:"responseError,omitempty"`
}

// SubmissionMeta carries request context that is not part of the form itself.
type SubmissionMeta struct {
	Locale    string
	RemoteIP  string
	RequestID string
}

// ContactRequest is the JSON body of POST /contact.
// Either Fields is set, or the flat Name/Email/Message form is used.
type ContactRequest struct {
	Fields       []FormField `json:"fields,omitempty"`
	Name         *string     `json:"name,omitempty"`
	Email        *string     `json:"email,omitempty"`
	Message      *string     `json:"message,omitempty"`
	CaptchaToken string      `json:"captchaToken" example:"0.AAAAAA..."` // Cloudflare Turnstile Token
}

// FormFields returns the submitted fields, converting the flat body when Fields is empty.
// Every contact form field is required.
func (r *ContactRequest) FormFields() []FormField {
	if len(r.Fields) > 0 {
		return r.Fields
	}

	var fields []FormField
	flat := []struct {
		name  string
		value *string
	}{
		{FieldName, r.Name},
		{FieldEmail, r.Email},
		{FieldMessage, r.Message},
	}
	for _, f := range flat {
		if f.value == nil {
			continue
		}
		fields = append(fields, FormField{Name: f.name, Value: *f.value, Required: true})
	}
	return fields
}

// SubmissionRepository persists accepted submissions. Append-only.
type SubmissionRepository interface {
	Insert(ctx context.Context, record *SubmissionRecord) error
	Ping(ctx context.Context) error
}

// CaptchaVerifier checks a client supplied challenge token.
type CaptchaVerifier interface {
	Verify(ctx context.Context, token, remoteIP string) (bool, error)
}

// ContactNotifier tells the site owner about a stored submission.
type ContactNotifier interface {
	NotifySubmission(ctx context.Context, record *SubmissionRecord) error
}

// ContactUsecase defines the interface for contact form operations
type ContactUsecase interface {
	// Submit runs the full pipeline for one submission attempt. It never returns an error:
	// every failure is reported through the result.
	Submit(ctx context.Context, fields []FormField, captchaToken string, meta SubmissionMeta) *SubmissionResult
	// Ready reports whether the submission store is reachable.
	Ready(ctx context.Context) error
}
