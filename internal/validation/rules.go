// Package validation provides custom validation rules for the application.
package validation

import (
	"regexp"
	"strings"

	validation "github.com/jellydator/validation"

	apperrors "github.com/keyloft/keyloft/internal/errors"
)

var (
	// secretKeyRegex restricts secret keys to environment-variable style
	// names.
	secretKeyRegex = regexp.MustCompile(`^[A-Za-z0-9_.\-]+$`)

	// hostnameRegex is a basic DNS hostname pattern.
	hostnameRegex = regexp.MustCompile(`^[a-zA-Z0-9]([a-zA-Z0-9\-]*[a-zA-Z0-9])?(\.[a-zA-Z0-9]([a-zA-Z0-9\-]*[a-zA-Z0-9])?)*$`)

	// loginUserRegex matches POSIX login names.
	loginUserRegex = regexp.MustCompile(`^[a-z_][a-z0-9_\-]*$`)
)

// WrapValidationError wraps validation errors as domain ErrInvalidInput
func WrapValidationError(err error) error {
	if err == nil {
		return nil
	}
	return apperrors.Wrap(apperrors.ErrInvalidInput, err.Error())
}

// NotBlank validates that a string is not empty after trimming whitespace
var NotBlank = validation.NewStringRuleWithError(
	func(s string) bool {
		return strings.TrimSpace(s) != ""
	},
	validation.NewError("validation_not_blank", "must not be blank"),
)

// SecretKey validates secret key names.
var SecretKey = validation.NewStringRuleWithError(
	func(s string) bool {
		return secretKeyRegex.MatchString(s)
	},
	validation.NewError("validation_secret_key", "must contain only letters, digits, underscores, dots, and dashes"),
)

// Hostname validates DNS hostnames.
var Hostname = validation.NewStringRuleWithError(
	func(s string) bool {
		return len(s) <= 253 && hostnameRegex.MatchString(s)
	},
	validation.NewError("validation_hostname", "must be a valid hostname"),
)

// LoginUser validates unix login user names.
var LoginUser = validation.NewStringRuleWithError(
	func(s string) bool {
		return len(s) <= 32 && loginUserRegex.MatchString(s)
	},
	validation.NewError("validation_login_user", "must be a valid unix login name"),
)

// UUID validates canonical UUID strings.
var UUID = validation.NewStringRuleWithError(
	func(s string) bool {
		return uuidRegex.MatchString(s)
	},
	validation.NewError("validation_uuid", "must be a valid UUID"),
)

var uuidRegex = regexp.MustCompile(`^[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}$`)
