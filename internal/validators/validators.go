package validators

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"time"

	"applicant-api-io/api/pkg/eligibility"
	"applicant-api-io/api/pkg/util"

	"github.com/go-playground/validator/v10"
)

var (
	bdPhonePattern   = regexp.MustCompile(`^(\+88)?01[3-9]\d{8}$`)
	intlPhonePattern = regexp.MustCompile(`^\+?[0-9]{10,15}$`)
	hex64Pattern     = regexp.MustCompile(`^[0-9a-f]{64}$`)
)

// DateLayout is the accepted calendar date format for birth dates.
const DateLayout = "2006-01-02"

// Now is the clock used by the adult rule.
var Now = time.Now

// Register installs the custom tags and json field naming on v.
func Register(v *validator.Validate) error {
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
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
	})

	rules := map[string]validator.Func{
		"bdphone": func(fl validator.FieldLevel) bool {
			return bdPhonePattern.MatchString(fl.Field().String())
		},
		"intlphone": func(fl validator.FieldLevel) bool {
			return intlPhonePattern.MatchString(fl.Field().String())
		},
		"hex64": func(fl validator.FieldLevel) bool {
			return hex64Pattern.MatchString(fl.Field().String())
		},
		"adult": func(fl validator.FieldLevel) bool {
			dob, err := time.Parse(DateLayout, fl.Field().String())
			if err != nil {
				return false
			}
			return eligibility.IsAdult(dob, Now())
		},
		"personname": func(fl validator.FieldLevel) bool {
			return ValidateNameFormat(fl.Field().String()) == nil
		},
	}
	for tag, fn := range rules {
		if err := v.RegisterValidation(tag, fn); err != nil {
			return err
		}
	}
	return nil
}

// Translate converts validator errors into path/message pairs. Paths use the
// json names of the fields, nested with dots.
func Translate(err error) []util.FieldError {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []util.FieldError{{Path: "", Message: err.Error()}}
	}

	out := make([]util.FieldError, 0, len(verrs))
	for _, fe := range verrs {
		out = append(out, util.FieldError{Path: fieldPath(fe), Message: message(fe)})
	}
	return out
}

// ValidationError runs v over s and returns a classified error, or nil.
func ValidationError(v *validator.Validate, s any) error {
	if err := v.Struct(s); err != nil {
		return util.Invalid(Translate(err))
	}
	return nil
}

func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.Index(ns, "."); i >= 0 {
		return ns[i+1:]
	}
	return fe.Field()
}

func message(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "email":
		return fmt.Sprintf("%s must be a valid email address", field)
	case "bdphone":
		return "Invalid Bangladeshi phone number"
	case "intlphone":
		return "Invalid phone number"
	case "adult":
		return "You must be at least 18 years old (date format YYYY-MM-DD)"
	case "hex64":
		return "Invalid token"
	case "personname":
		return fmt.Sprintf("%s contains invalid characters", field)
	case "len":
		return fmt.Sprintf("%s must be %s characters long", field, fe.Param())
	case "min":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("%s must be at least %s characters", field, fe.Param())
		}
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "max":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("%s must be at most %s characters", field, fe.Param())
		}
		return fmt.Sprintf("%s must be at most %s", field, fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, fe.Param())
	case "numeric":
		return fmt.Sprintf("%s must be numeric", field)
	default:
		return fmt.Sprintf("%s is invalid", field)
	}
}
