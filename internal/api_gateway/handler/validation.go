package handler

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/lifesync-ledger/internal/domain/contact"
)

func init() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		v.RegisterTagNameFunc(fieldName)
	}
}

// fieldName reports violations under the name the client used
func fieldName(fld reflect.StructField) string {
	for _, tag := range []string{"json", "form"} {
		name := strings.SplitN(fld.Tag.Get(tag), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name != "" {
			return name
		}
	}
	return fld.Name
}

// bindingViolations converts validator errors into field violations. It returns false for errors
// that are not rule violations, such as malformed JSON.
func bindingViolations(err error) ([]contact.FieldViolation, bool) {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return nil, false
	}

	violations := make([]contact.FieldViolation, 0, len(verrs))
	for _, fe := range verrs {
		violations = append(violations, contact.FieldViolation{
			Field:   fe.Field(),
			Message: violationMessage(fe),
		})
	}
	return violations, true
}

func violationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fe.Field() + " is required"
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", fe.Field(), fe.Param())
	case "min":
		return fmt.Sprintf("%s must be at least %s", fe.Field(), fe.Param())
	case "email", "email|len=0":
		return fe.Field() + " must be a valid email address"
	default:
		return fmt.Sprintf("%s failed the '%s' rule", fe.Field(), fe.Tag())
	}
}

// mergeViolations appends the domain violations whose field has not been reported yet
func mergeViolations(binding, domain []contact.FieldViolation) []contact.FieldViolation {
	seen := make(map[string]bool, len(binding))
	for _, v := range binding {
		seen[v.Field] = true
	}
	merged := binding
	for _, v := range domain {
		if !seen[v.Field] {
			merged = append(merged, v)
			seen[v.Field] = true
		}
	}
	return merged
}
