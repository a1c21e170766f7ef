package validate

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"sync"

	"livestock-tracking/internal/domain/apperr"

	"github.com/go-playground/validator/v10"
)

// cattleCodePattern: código natural del animal, 3-20 mayúsculas/dígitos.
var cattleCodePattern = regexp.MustCompile(`^[A-Z0-9]{3,20}$`)

var (
	once     sync.Once
	instance *validator.Validate
)

func get() *validator.Validate {
	once.Do(func() {
		v := validator.New(validator.WithRequiredStructEnabled())

		// Reportar errores con el nombre json del campo (lo que ve el cliente).
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
			if name == "-" || name == "" {
				return f.Name
			}
			return name
		})

		_ = v.RegisterValidation("cattlecode", func(fl validator.FieldLevel) bool {
			return cattleCodePattern.MatchString(fl.Field().String())
		})

		instance = v
	})
	return instance
}

// CattleCode valida un código natural suelto (p.ej. path params).
func CattleCode(code string) bool {
	return cattleCodePattern.MatchString(code)
}

// Struct valida s y traduce los errores a apperr.ValidationErrors.
func Struct(s any) error {
	err := get().Struct(s)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}

	out := make(apperr.ValidationErrors, 0, len(verrs))
	for _, fe := range verrs {
		out = append(out, apperr.ValidationError{
			Field:   fe.Field(),
			Rule:    fe.Tag(),
			Message: message(fe),
		})
	}
	return out
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", fe.Field())
	case "cattlecode":
		return fmt.Sprintf("%s must be 3-20 uppercase letters or digits", fe.Field())
	case "email":
		return fmt.Sprintf("%s must be a valid email", fe.Field())
	case "min":
		return fmt.Sprintf("%s must be at least %s", fe.Field(), fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s", fe.Field(), fe.Param())
	case "gte":
		return fmt.Sprintf("%s must be >= %s", fe.Field(), fe.Param())
	case "lte":
		return fmt.Sprintf("%s must be <= %s", fe.Field(), fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s]", fe.Field(), fe.Param())
	default:
		return fmt.Sprintf("%s is invalid (%s)", fe.Field(), fe.Tag())
	}
}
