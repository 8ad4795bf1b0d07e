package v1

import (
	"errors"
	"net/http"

	"portfolio-backend/internal/delivery/http/middleware"
	"portfolio-backend/internal/delivery/http/response"
	"portfolio-backend/internal/domain"
	"portfolio-backend/pkg/apperror"
	"portfolio-backend/pkg/i18n"

	"github.com/gin-gonic/gin"
)

// maxContactBodyBytes caps the JSON body; the longest field is 1000 runes.
const maxContactBodyBytes = 16 << 10

type ContactHandler struct {
	contactUC domain.ContactUsecase
	catalog   *i18n.Catalog
}

// NewContactHandler registers the contact routes (public, no auth required).
// Extra handlers, such as the rate limiter, run before the submit handler.
func NewContactHandler(public *gin.RouterGroup, contactUC domain.ContactUsecase, catalog *i18n.Catalog, extra ...gin.HandlerFunc) {
	handler := &ContactHandler{
		contactUC: contactUC,
		catalog:   catalog,
	}

	handlers := append(extra, handler.SubmitContact)
	public.POST("/contact", handlers...)
}

// SubmitContact godoc
// @Summary      Submit Contact Form
// @Description  Validate, verify (Cloudflare Turnstile) and store a contact form submission.
// @Description  Accepts either a fields array or the flat name/email/message body.
// @Tags         contact
// @Accept       json
// @Produce      json
// @Param        locale   query     string                 false  "Message locale (en, el)"
// @Param        contact  body      domain.ContactRequest  true   "Contact Form Data"
// @Success      200      {object}  response.Response{data=domain.SubmissionResult}
// @Failure      400      {object}  response.Response
// @Failure      413      {object}  response.Response
// @Failure      403      {object}  response.Response{data=domain.SubmissionResult}
// @Failure      422      {object}  response.Response{data=domain.SubmissionResult}
// @Failure      429      {object}  response.Response
// @Failure      500      {object}  response.Response{data=domain.SubmissionResult}
// @Router       /contact [post]
func (h *ContactHandler) SubmitContact(c *gin.Context) {
	locale := resolveLocale(c, h.catalog)

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxContactBodyBytes)

	var req domain.ContactRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.Error(apperror.New(http.StatusRequestEntityTooLarge, h.catalog.T(locale, "errors.requestTooLarge", nil), nil))
			return
		}
		c.Error(apperror.BadRequest(h.catalog.T(locale, "errors.invalidRequest", nil)))
		return
	}

	meta := domain.SubmissionMeta{
		Locale:    locale,
		RemoteIP:  c.ClientIP(),
		RequestID: c.GetString(middleware.RequestIDKey),
	}

	result := h.contactUC.Submit(c.Request.Context(), req.FormFields(), req.CaptchaToken, meta)

	switch {
	case result.Success:
		response.Success(c, http.StatusOK, h.catalog.T(locale, "success.submitted", nil), result)
	case result.ValidationErrors.HasErrors():
		response.Error(c, http.StatusUnprocessableEntity, h.catalog.T(locale, "errors.validationFailed", nil), result)
	case result.VerificationFailed:
		response.Error(c, http.StatusForbidden, result.ResponseError, result)
	default:
		// Store failures carry no detail beyond the generic message
		response.Error(c, http.StatusInternalServerError, result.ResponseError, result)
	}
}

// resolveLocale prefers ?locale= over Accept-Language.
func resolveLocale(c *gin.Context, catalog *i18n.Catalog) string {
	return catalog.Match(c.Query("locale"), c.GetHeader("Accept-Language"))
}
