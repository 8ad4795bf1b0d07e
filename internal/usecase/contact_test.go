package usecase_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"portfolio-backend/internal/domain"
	"portfolio-backend/internal/observability/metrics"
	"portfolio-backend/internal/usecase"
	"portfolio-backend/pkg/captcha"
	"portfolio-backend/pkg/i18n"
	"portfolio-backend/pkg/validation"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// Mocks
type MockVerifier struct {
	mock.Mock
}

func (m *MockVerifier) Verify(ctx context.Context, token, remoteIP string) (bool, error) {
	args := m.Called(ctx, token, remoteIP)
	return args.Bool(0), args.Error(1)
}

type MockSubmissionRepo struct {
	mock.Mock
}

func (m *MockSubmissionRepo) Insert(ctx context.Context, record *domain.SubmissionRecord) error {
	return m.Called(ctx, record).Error(0)
}

func (m *MockSubmissionRepo) Ping(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) NotifySubmission(ctx context.Context, record *domain.SubmissionRecord) error {
	return m.Called(ctx, record).Error(0)
}

var fixedNow = time.Date(2025, 3, 14, 9, 26, 53, 0, time.UTC)

type fixture struct {
	uc       domain.ContactUsecase
	verifier *MockVerifier
	repo     *MockSubmissionRepo
	notifier *MockNotifier
}

func newFixture(t *testing.T, verifier domain.CaptchaVerifier) *fixture {
	t.Helper()
	catalog := i18n.MustLoad()
	f := &fixture{
		verifier: new(MockVerifier),
		repo:     new(MockSubmissionRepo),
		notifier: new(MockNotifier),
	}
	if verifier == nil {
		verifier = f.verifier
	}
	f.uc = usecase.NewContactUsecase(usecase.ContactDeps{
		Validator:  validation.NewContactValidator(validation.NewValidator(), catalog),
		Verifier:   verifier,
		Repository: f.repo,
		Notifier:   f.notifier,
		Catalog:    catalog,
		Metrics:    metrics.NewContactMetrics(prometheus.NewRegistry()),
		Now:        func() time.Time { return fixedNow },
		NewID:      func() string { return "sub-1" },
	})
	return f
}

func validFields() []domain.FormField {
	return []domain.FormField{
		{Name: "name", Value: "Jane", Required: true},
		{Name: "email", Value: "jane@x.com", Required: true},
		{Name: "message", Value: "hello", Required: true},
	}
}

var meta = domain.SubmissionMeta{Locale: "en", RemoteIP: "203.0.113.7", RequestID: "req-1"}

func TestSubmitValidationShortCircuits(t *testing.T) {
	f := newFixture(t, nil)

	fields := []domain.FormField{
		{Name: "name", Value: "", Required: true},
		{Name: "email", Value: "a@b.com"},
		{Name: "message", Value: "hi", Required: true},
	}
	res := f.uc.Submit(context.Background(), fields, "valid-token", meta)

	assert.False(t, res.Success)
	assert.Equal(t, domain.ValidationErrors{"name": "Name is required"}, res.ValidationErrors)
	assert.False(t, res.VerificationFailed)
	assert.False(t, res.StoreError)
	f.verifier.AssertNumberOfCalls(t, "Verify", 0)
	f.repo.AssertNotCalled(t, "Insert", mock.Anything, mock.Anything)
}

func TestSubmitVerificationRejected(t *testing.T) {
	f := newFixture(t, nil)
	f.verifier.On("Verify", mock.Anything, "expired-token", "203.0.113.7").Return(false, nil).Once()

	res := f.uc.Submit(context.Background(), validFields(), "expired-token", meta)

	assert.False(t, res.Success)
	assert.True(t, res.VerificationFailed)
	assert.False(t, res.StoreError)
	assert.Empty(t, res.ValidationErrors)
	assert.Equal(t, "Verification failed. Please try again.", res.ResponseError)
	f.verifier.AssertExpectations(t)
	f.repo.AssertNotCalled(t, "Insert", mock.Anything, mock.Anything)
}

func TestSubmitVerifierErrorIsVerificationFailure(t *testing.T) {
	f := newFixture(t, nil)
	f.verifier.On("Verify", mock.Anything, "tok", mock.Anything).Return(false, errors.New("dial tcp: timeout")).Once()

	res := f.uc.Submit(context.Background(), validFields(), "tok", meta)

	assert.False(t, res.Success)
	assert.True(t, res.VerificationFailed)
	assert.NotContains(t, res.ResponseError, "dial")
	f.repo.AssertNotCalled(t, "Insert", mock.Anything, mock.Anything)
}

func TestSubmitFailsClosedWithoutSecret(t *testing.T) {
	verifier := captcha.NewTurnstileVerifier(captcha.Config{VerifyURL: "http://127.0.0.1:1"}, nil, nil)
	f := newFixture(t, verifier)

	res := f.uc.Submit(context.Background(), validFields(), "any-token", meta)

	assert.False(t, res.Success)
	assert.True(t, res.VerificationFailed)
	f.repo.AssertNotCalled(t, "Insert", mock.Anything, mock.Anything)
}

func TestSubmitSuccessPersistsRecord(t *testing.T) {
	f := newFixture(t, nil)
	f.verifier.On("Verify", mock.Anything, "valid-token", "203.0.113.7").Return(true, nil).Once()

	want := &domain.SubmissionRecord{
		ID:        "sub-1",
		Name:      "Jane",
		Email:     "jane@x.com",
		Message:   "hello",
		Locale:    "en",
		CreatedAt: fixedNow,
	}
	f.repo.On("Insert", mock.Anything, want).Return(nil).Once()
	f.notifier.On("NotifySubmission", mock.Anything, want).Return(nil).Once()

	res := f.uc.Submit(context.Background(), validFields(), "valid-token", meta)

	assert.True(t, res.Success)
	assert.Empty(t, res.ValidationErrors)
	assert.False(t, res.VerificationFailed)
	assert.False(t, res.StoreError)
	assert.Empty(t, res.ResponseError)
	f.repo.AssertNumberOfCalls(t, "Insert", 1)
	f.notifier.AssertExpectations(t)
}

func TestSubmitStoreErrorIsReported(t *testing.T) {
	f := newFixture(t, nil)
	f.verifier.On("Verify", mock.Anything, mock.Anything, mock.Anything).Return(true, nil).Once()
	f.repo.On("Insert", mock.Anything, mock.Anything).
		Return(errors.New("pq: connection refused on 10.0.0.5")).Once()

	res := f.uc.Submit(context.Background(), validFields(), "valid-token", meta)

	assert.False(t, res.Success)
	assert.True(t, res.StoreError)
	assert.False(t, res.VerificationFailed)
	assert.Equal(t, "Something went wrong on our side. Please try again later.", res.ResponseError)
	assert.NotContains(t, res.ResponseError, "10.0.0.5")
	f.notifier.AssertNotCalled(t, "NotifySubmission", mock.Anything, mock.Anything)
}

func TestSubmitStoreGetsBoundedContext(t *testing.T) {
	f := newFixture(t, nil)
	f.verifier.On("Verify", mock.Anything, mock.Anything, mock.Anything).Return(true, nil)
	f.repo.On("Insert", mock.MatchedBy(func(ctx context.Context) bool {
		_, ok := ctx.Deadline()
		return ok
	}), mock.Anything).Return(nil).Once()
	f.notifier.On("NotifySubmission", mock.Anything, mock.Anything).Return(nil)

	res := f.uc.Submit(context.Background(), validFields(), "valid-token", meta)
	assert.True(t, res.Success)
	f.repo.AssertExpectations(t)
}

func TestSubmitNotifierFailureKeepsSuccess(t *testing.T) {
	f := newFixture(t, nil)
	f.verifier.On("Verify", mock.Anything, mock.Anything, mock.Anything).Return(true, nil)
	f.repo.On("Insert", mock.Anything, mock.Anything).Return(nil)
	f.notifier.On("NotifySubmission", mock.Anything, mock.Anything).Return(errors.New("smtp down"))

	res := f.uc.Submit(context.Background(), validFields(), "valid-token", meta)
	assert.True(t, res.Success)
}

func TestSubmitAllowListFiltering(t *testing.T) {
	f := newFixture(t, nil)
	f.verifier.On("Verify", mock.Anything, mock.Anything, mock.Anything).Return(true, nil)
	f.notifier.On("NotifySubmission", mock.Anything, mock.Anything).Return(nil)

	var stored *domain.SubmissionRecord
	f.repo.On("Insert", mock.Anything, mock.Anything).Return(nil).Run(func(args mock.Arguments) {
		stored = args.Get(1).(*domain.SubmissionRecord)
	})

	fields := append(validFields(),
		domain.FormField{Name: "__proto__", Value: `{"polluted":true}`},
		domain.FormField{Name: "isAdmin", Value: "", Required: true},
		domain.FormField{Name: "name", Value: "Mallory", Required: true},
	)
	res := f.uc.Submit(context.Background(), fields, "valid-token", meta)

	require.True(t, res.Success, "unexpected result %+v", res)
	require.NotNil(t, stored)
	assert.Equal(t, "Jane", stored.Name, "first occurrence of a field wins")
	assert.Equal(t, "jane@x.com", stored.Email)
	assert.Equal(t, "hello", stored.Message)
	assert.NotContains(t, res.ValidationErrors, "isAdmin")
}

func TestSubmitStoresTextVerbatim(t *testing.T) {
	tests := []struct {
		name    string
		message string
	}{
		{name: "generic type", message: "I liked your Map<String, Int> helper"},
		{name: "comparison", message: "use a<b>c for x"},
		{name: "entity encoded", message: "&lt;script&gt;alert(1)&lt;/script&gt;"},
		{name: "literal tags", message: "Tom & Jerry <script>alert(1)</script> say I <3 Go"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, nil)
			f.verifier.On("Verify", mock.Anything, mock.Anything, mock.Anything).Return(true, nil)
			f.notifier.On("NotifySubmission", mock.Anything, mock.Anything).Return(nil)

			var stored *domain.SubmissionRecord
			f.repo.On("Insert", mock.Anything, mock.Anything).Return(nil).Run(func(args mock.Arguments) {
				stored = args.Get(1).(*domain.SubmissionRecord)
			})

			fields := validFields()
			fields[0].Value = "  Jane  "
			fields[2].Value = tt.message

			res := f.uc.Submit(context.Background(), fields, "valid-token", meta)
			require.True(t, res.Success, "unexpected result %+v", res)
			assert.Equal(t, "Jane", stored.Name)
			assert.Equal(t, tt.message, stored.Message)
		})
	}
}

func TestSubmitDefaultsLocale(t *testing.T) {
	f := newFixture(t, nil)
	f.verifier.On("Verify", mock.Anything, mock.Anything, mock.Anything).Return(false, nil)

	res := f.uc.Submit(context.Background(), validFields(), "tok", domain.SubmissionMeta{})
	assert.Equal(t, "Verification failed. Please try again.", res.ResponseError)

	greek := f.uc.Submit(context.Background(), validFields(), "tok", domain.SubmissionMeta{Locale: "el"})
	assert.Equal(t, "Η επαλήθευση απέτυχε. Παρακαλώ δοκιμάστε ξανά.", greek.ResponseError)
}

func TestReady(t *testing.T) {
	f := newFixture(t, nil)
	f.repo.On("Ping", mock.Anything).Return(domain.ErrStoreUnavailable).Once()
	assert.ErrorIs(t, f.uc.Ready(context.Background()), domain.ErrStoreUnavailable)
}
