package validator

import (
	"context"
	"errors"
	"regexp"
	"strings"

	"github.com/go-playground/validator"
)

var (
	global          *validator.Validate
	identifierRegex = regexp.MustCompile(`^[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}$`)
	phoneRegex      = regexp.MustCompile(`^[0-9]{10}$`)
)

const (
	ErrInvalidFormat      = "Invalid format"
	ErrFieldRequired      = "Field is required"
	ErrFieldExceedsMaxLen = "Field exceeds maximum length"
	ErrFieldBelowMinLen   = "Field is below minimum length"
	ErrFieldExceedsMaxVal = "Field exceeds maximum value"
	ErrFieldBelowMinVal   = "Field is below minimum value"
	ErrUnknownValidation  = "Unknown validation error"

	maxEmailLen    = 254
	maxSanitizeLen = 500
)

func init() {
	SetValidator(New())
}

func New() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("identifier", validateIdentifier)
	_ = v.RegisterValidation("phone10", validatePhone)
	_ = v.RegisterValidation("contact_email", validateEmail)
	_ = v.RegisterValidation("payment", validatePayment)
	return v
}

func SetValidator(v *validator.Validate) {
	global = v
}

func Validator() *validator.Validate {
	return global
}

// IsIdentifier reports whether v is a canonical 36-character hyphenated
// hexadecimal identifier (8-4-4-4-12 groups, case-insensitive).
func IsIdentifier(v string) bool {
	return identifierRegex.MatchString(v)
}

// IsPhone reports whether v is exactly 10 decimal digits.
func IsPhone(v string) bool {
	return phoneRegex.MatchString(v)
}

// IsEmail is intentionally permissive: anything with an '@' and at most
// 254 characters passes. Full RFC validation rejects real addresses and
// buys nothing here; delivery failures surface via the mailer anyway.
func IsEmail(v string) bool {
	return len(v) <= maxEmailLen && strings.Contains(v, "@")
}

// Sanitize trims whitespace, strips markup-significant characters and
// truncates to 500 characters. Idempotent; never grows its input. It is
// a storage-side guard, not a substitute for output encoding.
func Sanitize(v string) string {
	v = strings.TrimSpace(v)
	v = strings.Map(func(r rune) rune {
		switch r {
		case '<', '>', '"', '\'', '`':
			return -1
		}
		return r
	}, v)
	if r := []rune(v); len(r) > maxSanitizeLen {
		v = string(r[:maxSanitizeLen])
	}
	return strings.TrimSpace(v)
}

func validateIdentifier(fl validator.FieldLevel) bool {
	return IsIdentifier(fl.Field().String())
}

func validatePhone(fl validator.FieldLevel) bool {
	return IsPhone(fl.Field().String())
}

func validateEmail(fl validator.FieldLevel) bool {
	return IsEmail(fl.Field().String())
}

func validatePayment(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "cash", "upi":
		return true
	}
	return false
}

func Validate(ctx context.Context, structure any) error {
	return parseValidationErrors(Validator().StructCtx(ctx, structure))
}

func parseValidationErrors(err error) error {
	if err == nil {
		return nil
	}
	vErrors, ok := err.(validator.ValidationErrors)
	if !ok || len(vErrors) == 0 {
		return nil
	}
	ve := vErrors[0]
	var msg string
	switch ve.Tag() {
	case "identifier", "phone10", "contact_email":
		msg = ErrInvalidFormat
	case "payment":
		msg = "Payment method must be cash or upi"
	case "required":
		msg = ErrFieldRequired
	case "max":
		msg = ErrFieldExceedsMaxLen
	case "min":
		msg = ErrFieldBelowMinLen
	case "lt", "lte":
		msg = ErrFieldExceedsMaxVal
	case "gt", "gte":
		msg = ErrFieldBelowMinVal
	default:
		msg = ErrUnknownValidation
	}
	return errors.New(msg + ": " + ve.Namespace())
}
