package validation

import (
	"errors"

	"portfolio-backend/pkg/i18n"

	"github.com/go-playground/validator/v10"
)

// messageKey maps a failed tag on a field to its catalog key.
// Field specific keys come first; generic keys cover fields of other forms.
func messageKey(field, tag string) string {
	switch tag {
	case "required":
		if _, ok := contactFieldLabels[field]; ok {
			return "validations." + field + "Required"
		}
		return "validations.fieldRequired"
	case "max":
		if _, ok := contactFieldLabels[field]; ok {
			return "validations." + field + "MaxLength"
		}
		return "validations.fieldMaxLength"
	case "contact_email":
		return "validations.invalidEmail"
	default:
		return "validations.fieldRequired"
	}
}

var contactFieldLabels = map[string]struct{}{
	"name":    {},
	"email":   {},
	"message": {},
}

// FormatFieldError converts the first validator failure of a single Var check into
// a localized message.
func FormatFieldError(catalog *i18n.Catalog, locale, field string, err error) string {
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) || len(validationErrors) == 0 {
		// Not a validation error, return generic message
		return catalog.T(locale, "validations.fieldRequired", nil)
	}

	e := validationErrors[0]
	var args map[string]interface{}
	if e.Tag() == "max" {
		args = map[string]interface{}{"max": e.Param()}
	}
	return catalog.T(locale, messageKey(field, e.Tag()), args)
}
