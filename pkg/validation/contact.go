package validation

import (
	"strings"

	"portfolio-backend/internal/domain"
	"portfolio-backend/pkg/i18n"

	"github.com/go-playground/validator/v10"
)

// Max lengths of the contact form fields, in characters.
const (
	NameMaxLength    = 100
	EmailMaxLength   = 100
	MessageMaxLength = 1000
)

// FieldRule describes how one named field is checked.
type FieldRule struct {
	// Required makes the field mandatory even when the client did not flag it.
	Required bool
	// Tags are validator tags applied to the trimmed value when it is non-empty.
	Tags string
	// Format is applied to the raw value when it is non-empty and overwrites earlier errors.
	Format string
}

// FormValidator maps a set of named fields to per-field error messages.
// It holds no mutable state and is safe for concurrent use.
type FormValidator struct {
	validate *validator.Validate
	catalog  *i18n.Catalog
	rules    map[string]FieldRule
	order    []string
}

// ContactFormRules is the contact form definition.
var ContactFormRules = map[string]FieldRule{
	domain.FieldName:    {Required: true, Tags: "max=100"},
	domain.FieldEmail:   {Required: true, Tags: "max=100", Format: "contact_email"},
	domain.FieldMessage: {Required: true, Tags: "max=1000"},
}

// NewFormValidator builds a validator for the given rules. order lists the rule names
// in the sequence missing fields are reported.
func NewFormValidator(v *validator.Validate, catalog *i18n.Catalog, rules map[string]FieldRule, order []string) *FormValidator {
	return &FormValidator{
		validate: v,
		catalog:  catalog,
		rules:    rules,
		order:    order,
	}
}

// NewContactValidator builds the validator for the contact form.
func NewContactValidator(v *validator.Validate, catalog *i18n.Catalog) *FormValidator {
	return NewFormValidator(v, catalog, ContactFormRules, domain.ContactFieldNames)
}

// Validate checks fields and returns the errors keyed by field name.
// A required field missing from fields is treated as an empty value.
func (fv *FormValidator) Validate(fields []domain.FormField, locale string) domain.ValidationErrors {
	errs := make(domain.ValidationErrors)
	seen := make(map[string]bool, len(fields))

	for _, field := range fields {
		seen[field.Name] = true
		rule := fv.rules[field.Name]
		trimmed := strings.TrimSpace(field.Value)

		if field.Required || rule.Required {
			if err := fv.validate.Var(trimmed, "required"); err != nil {
				errs[field.Name] = FormatFieldError(fv.catalog, locale, field.Name, err)
			}
		}

		if trimmed != "" && rule.Tags != "" {
			if err := fv.validate.Var(trimmed, rule.Tags); err != nil {
				errs[field.Name] = FormatFieldError(fv.catalog, locale, field.Name, err)
			}
		}

		if field.Value != "" && rule.Format != "" {
			if err := fv.validate.Var(field.Value, rule.Format); err != nil {
				errs[field.Name] = FormatFieldError(fv.catalog, locale, field.Name, err)
			}
		}
	}

	for _, name := range fv.order {
		if seen[name] || !fv.rules[name].Required {
			continue
		}
		err := fv.validate.Var("", "required")
		errs[name] = FormatFieldError(fv.catalog, locale, name, err)
	}

	return errs
}
