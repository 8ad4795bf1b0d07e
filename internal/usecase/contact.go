package usecase

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"portfolio-backend/internal/domain"
	"portfolio-backend/internal/observability/metrics"
	"portfolio-backend/pkg/captcha"
	"portfolio-backend/pkg/i18n"
	"portfolio-backend/pkg/security"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

var contactTracer = otel.Tracer("portfolio.internal.usecase.contact")

// DefaultStoreTimeout bounds a single submission insert.
const DefaultStoreTimeout = 5 * time.Second

// FieldValidator maps named fields to per-field error messages.
type FieldValidator interface {
	Validate(fields []domain.FormField, locale string) domain.ValidationErrors
}

// ContactDeps are the collaborators of the contact usecase. Validator, Verifier,
// Repository and Catalog are required; the rest may be nil.
type ContactDeps struct {
	Validator      FieldValidator
	Verifier       domain.CaptchaVerifier
	Repository     domain.SubmissionRepository
	Notifier       domain.ContactNotifier
	Catalog        *i18n.Catalog
	Metrics        *metrics.ContactMetrics
	SecurityLogger *security.SecurityLogger
	Logger         *zap.Logger
	StoreTimeout   time.Duration
	// Now and NewID are overridable for tests.
	Now   func() time.Time
	NewID func() string
}

type contactUsecase struct {
	validator    FieldValidator
	verifier     domain.CaptchaVerifier
	repo         domain.SubmissionRepository
	notifier     domain.ContactNotifier
	catalog      *i18n.Catalog
	metrics      *metrics.ContactMetrics
	secLog       *security.SecurityLogger
	logger       *zap.Logger
	storeTimeout time.Duration
	now          func() time.Time
	newID        func() string
}

// NewContactUsecase creates a new contact usecase
func NewContactUsecase(deps ContactDeps) domain.ContactUsecase {
	uc := &contactUsecase{
		validator:    deps.Validator,
		verifier:     deps.Verifier,
		repo:         deps.Repository,
		notifier:     deps.Notifier,
		catalog:      deps.Catalog,
		metrics:      deps.Metrics,
		secLog:       deps.SecurityLogger,
		logger:       deps.Logger,
		storeTimeout: deps.StoreTimeout,
		now:          deps.Now,
		newID:        deps.NewID,
	}
	if uc.logger == nil {
		uc.logger = zap.NewNop()
	}
	if uc.storeTimeout <= 0 {
		uc.storeTimeout = DefaultStoreTimeout
	}
	if uc.now == nil {
		uc.now = time.Now
	}
	if uc.newID == nil {
		uc.newID = uuid.NewString
	}
	return uc
}

// submission is the state carried through one pipeline run.
type submission struct {
	fields   []domain.FormField
	token    string
	meta     domain.SubmissionMeta
	filtered []domain.FormField
}

// stepResult is the tagged outcome of a pipeline step: either continue, or stop with a result.
type stepResult struct {
	stop   bool
	result *domain.SubmissionResult
}

func proceed() stepResult { return stepResult{} }

func halt(r *domain.SubmissionResult) stepResult { return stepResult{stop: true, result: r} }

type pipelineStep struct {
	name string
	run  func(ctx context.Context, s *submission) stepResult
}

// pipeline is RECEIVED -> FILTERED -> VALIDATED -> VERIFIED -> PERSISTED -> DONE.
func (uc *contactUsecase) pipeline() []pipelineStep {
	return []pipelineStep{
		{name: "filter", run: uc.filter},
		{name: "validate", run: uc.validate},
		{name: "verify", run: uc.verify},
		{name: "persist", run: uc.persist},
	}
}

// Submit runs the submission pipeline. Every failure is converted into the result.
func (uc *contactUsecase) Submit(ctx context.Context, fields []domain.FormField, captchaToken string, meta domain.SubmissionMeta) *domain.SubmissionResult {
	if meta.Locale == "" {
		meta.Locale = i18n.DefaultLocale
	}

	ctx, span := contactTracer.Start(ctx, "contact.submit")
	defer span.End()

	s := &submission{fields: fields, token: captchaToken, meta: meta}
	for _, step := range uc.pipeline() {
		stepCtx, stepSpan := contactTracer.Start(ctx, "contact."+step.name)
		res := step.run(stepCtx, s)
		stepSpan.SetAttributes(attribute.Bool("contact.halted", res.stop))
		stepSpan.End()

		if res.stop {
			span.SetAttributes(attribute.String("contact.halted_at", step.name))
			return res.result
		}
	}

	uc.metrics.ObserveSubmission(metrics.OutcomeSuccess)
	return &domain.SubmissionResult{
		Success:          true,
		ValidationErrors: domain.ValidationErrors{},
	}
}

// Ready reports whether the submission store is reachable.
func (uc *contactUsecase) Ready(ctx context.Context) error {
	return uc.repo.Ping(ctx)
}

// filter drops fields outside the allow-list and keeps the first of duplicate names.
// Values are stored as plain text; markup is escaped where it is rendered.
func (uc *contactUsecase) filter(ctx context.Context, s *submission) stepResult {
	allowed := make(map[string]bool, len(domain.ContactFieldNames))
	for _, name := range domain.ContactFieldNames {
		allowed[name] = true
	}

	seen := make(map[string]bool, len(s.fields))
	var rejected []string
	for _, f := range s.fields {
		if !allowed[f.Name] {
			rejected = append(rejected, f.Name)
			continue
		}
		if seen[f.Name] {
			continue
		}
		seen[f.Name] = true
		s.filtered = append(s.filtered, f)
	}

	if len(rejected) > 0 {
		uc.metrics.ObserveRejectedFields(len(rejected))
		uc.secLog.LogFieldsRejected(ctx, s.meta.RemoteIP, s.meta.RequestID, rejected)
	}
	return proceed()
}

func (uc *contactUsecase) validate(ctx context.Context, s *submission) stepResult {
	errs := uc.validator.Validate(s.filtered, s.meta.Locale)
	if !errs.HasErrors() {
		return proceed()
	}

	names := make([]string, 0, len(errs))
	for name := range errs {
		names = append(names, name)
	}
	sort.Strings(names)
	uc.secLog.LogValidationFailed(ctx, s.meta.RemoteIP, s.meta.RequestID, names)
	uc.metrics.ObserveSubmission(metrics.OutcomeValidationFailed)

	return halt(&domain.SubmissionResult{
		Success:          false,
		ValidationErrors: errs,
	})
}

func (uc *contactUsecase) verify(ctx context.Context, s *submission) stepResult {
	start := time.Now()
	ok, err := uc.verifier.Verify(ctx, s.token, s.meta.RemoteIP)

	label := "ok"
	switch {
	case errors.Is(err, captcha.ErrNotConfigured):
		label = "misconfigured"
		uc.secLog.LogCaptchaMisconfigured(ctx, s.meta.RemoteIP, s.meta.RequestID)
	case err != nil:
		label = "error"
		uc.logger.Warn("Captcha verification failed",
			zap.String("request_id", s.meta.RequestID),
			zap.Error(err),
		)
		uc.secLog.LogCaptchaRejected(ctx, fieldValue(s.filtered, domain.FieldEmail), s.meta.RemoteIP, s.meta.RequestID, err)
	case !ok:
		label = "rejected"
		uc.secLog.LogCaptchaRejected(ctx, fieldValue(s.filtered, domain.FieldEmail), s.meta.RemoteIP, s.meta.RequestID, nil)
	}
	uc.metrics.ObserveCaptcha(label, time.Since(start).Seconds())

	if err == nil && ok {
		return proceed()
	}

	uc.metrics.ObserveSubmission(metrics.OutcomeVerificationFailed)
	return halt(&domain.SubmissionResult{
		Success:            false,
		ValidationErrors:   domain.ValidationErrors{},
		VerificationFailed: true,
		ResponseError:      uc.catalog.T(s.meta.Locale, "errors.verificationFailed", nil),
	})
}

func (uc *contactUsecase) persist(ctx context.Context, s *submission) stepResult {
	record := &domain.SubmissionRecord{
		ID:        uc.newID(),
		Name:      strings.TrimSpace(fieldValue(s.filtered, domain.FieldName)),
		Email:     strings.TrimSpace(fieldValue(s.filtered, domain.FieldEmail)),
		Message:   strings.TrimSpace(fieldValue(s.filtered, domain.FieldMessage)),
		Locale:    s.meta.Locale,
		CreatedAt: uc.now().UTC(),
	}

	storeCtx, cancel := context.WithTimeout(ctx, uc.storeTimeout)
	defer cancel()

	start := time.Now()
	if err := uc.repo.Insert(storeCtx, record); err != nil {
		uc.metrics.ObserveStore("error", time.Since(start).Seconds())
		uc.metrics.ObserveSubmission(metrics.OutcomeStoreError)
		uc.logger.Error("Failed to store contact submission",
			zap.String("request_id", s.meta.RequestID),
			zap.String("submission_id", record.ID),
			zap.Error(err),
		)
		return halt(&domain.SubmissionResult{
			Success:          false,
			ValidationErrors: domain.ValidationErrors{},
			StoreError:       true,
			ResponseError:    uc.catalog.T(s.meta.Locale, "errors.serverError", nil),
		})
	}
	uc.metrics.ObserveStore("ok", time.Since(start).Seconds())

	uc.logger.Info("Contact submission stored",
		zap.String("request_id", s.meta.RequestID),
		zap.String("submission_id", record.ID),
		zap.String("email", security.MaskEmail(record.Email)),
	)

	// Notification is best-effort: the submission is already stored.
	if uc.notifier != nil {
		if err := uc.notifier.NotifySubmission(ctx, record); err != nil {
			uc.logger.Warn("Failed to send contact notification",
				zap.String("submission_id", record.ID),
				zap.Error(err),
			)
		}
	}
	return proceed()
}

func fieldValue(fields []domain.FormField, name string) string {
	for _, f := range fields {
		if f.Name == name {
			return f.Value
		}
	}
	return ""
}
