package survey

import (
	"errors"
	"reflect"
	"regexp"
	"slices"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/seatbelt-tracker/seatbelt-admin/internal/common/apperrors"
)

var (
	ErrValidation  apperrors.Error = apperrors.New("validation failed")
	ErrInvalidSite apperrors.Error = ErrValidation.New("invalid site")
	ErrInvalidUser apperrors.Error = ErrValidation.New("invalid user")
	ErrInvalidRef  apperrors.Error = ErrValidation.New("invalid image reference")
)

// FieldError describes one invalid field, named by its JSON key.
type FieldError struct {
	Field   string
	Message string
}

// FieldErrors collects the invalid fields of one value.
type FieldErrors []FieldError

func (fe FieldErrors) Error() string {
	parts := make([]string, 0, len(fe))
	for _, e := range fe {
		parts = append(parts, e.Field+": "+e.Message)
	}
	return strings.Join(parts, "; ")
}

// Get returns the message for field, or "".
func (fe FieldErrors) Get(field string) string {
	for _, e := range fe {
		if e.Field == field {
			return e.Message
		}
	}
	return ""
}

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

var (
	signedDecimalRe   = regexp.MustCompile(`^-?\d+(\.\d+)?$`)
	positiveDecimalRe = regexp.MustCompile(`^\d+(\.\d+)?$`)
)

func signedDecimal(fl validator.FieldLevel) bool {
	return signedDecimalRe.MatchString(strings.TrimSpace(fl.Field().String()))
}

func positiveDecimal(fl validator.FieldLevel) bool {
	return positiveDecimalRe.MatchString(strings.TrimSpace(fl.Field().String()))
}

// V returns the shared validator with our custom tags registered.
func V() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(func(f reflect.StructField) string {
			name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
			if name == "-" {
				return ""
			}
			return name
		})
		validate.RegisterValidation("signedDecimal", signedDecimal)
		validate.RegisterValidation("positiveDecimal", positiveDecimal)
	})
	return validate
}

var requiredMessages = map[string]string{
	"county":     "County is required",
	"name":       "Location ID is required",
	"roadway":    "Roadway is required",
	"location":   "Location description is required",
	"email":      "Email is required",
	"first_name": "First name is required",
	"last_name":  "Last name is required",
	"siteName":   "Site is required",
	"fileName":   "File name is required",
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		if msg, ok := requiredMessages[fe.Field()]; ok {
			return msg
		}
		return "is required"
	case "email":
		return "Please enter a valid email address"
	case "signedDecimal":
		return "Must be a valid number"
	case "positiveDecimal":
		return "Must be a positive number"
	case "min":
		if fe.Field() == "password" {
			return "Password must be at least 8 characters"
		}
		return "must be at least " + fe.Param() + " characters"
	case "oneof":
		return "Must be one of " + strings.Join(strings.Fields(fe.Param()), ", ")
	}
	return "is invalid"
}

func validateStruct(v any) FieldErrors {
	err := V().Struct(v)
	if err == nil {
		return nil
	}
	var ves validator.ValidationErrors
	if !errors.As(err, &ves) {
		return FieldErrors{{Field: "", Message: err.Error()}}
	}
	var out FieldErrors
	for _, fe := range ves {
		out = append(out, FieldError{Field: fe.Field(), Message: fieldMessage(fe)})
	}
	return out
}

// ValidateSite checks a site before it is sent to the backend.
func ValidateSite(s Site) error {
	if fe := validateStruct(s); len(fe) > 0 {
		return ErrInvalidSite.MsgErr(fe.Error(), fe)
	}
	return nil
}

// ValidateUser checks a user before it is sent to the backend. New users must
// carry a password.
func ValidateUser(u User, creating bool) error {
	fe := validateStruct(u)
	if creating && u.Password == "" {
		fe = append(fe, FieldError{Field: "password", Message: "Password is required for new users"})
	}
	if len(fe) > 0 {
		return ErrInvalidUser.MsgErr(fe.Error(), fe)
	}
	return nil
}

// ValidateImageRef checks that an image reference names a county, site and file.
func ValidateImageRef(r ImageRef) error {
	if fe := validateStruct(r); len(fe) > 0 {
		return ErrInvalidRef.MsgErr(fe.Error(), fe)
	}
	return nil
}

// IsDirection reports whether d is an accepted direction of travel.
func IsDirection(d string) bool {
	return slices.Contains(Directions, d)
}
