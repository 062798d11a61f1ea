package validator

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"
)

var setupOnce sync.Once

// Setup configures gin's validator: JSON names in field errors and the
// notblank rule. Safe to call more than once.
func Setup() {
	setupOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		v.RegisterTagNameFunc(jsonFieldName)
		_ = v.RegisterValidation("notblank", validators.NotBlank)
	})
}

func jsonFieldName(fld reflect.StructField) string {
	name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
	if name == "-" {
		return ""
	}
	if name == "" {
		return fld.Name
	}
	return name
}

// FieldErrors returns field -> message for rule violations, nil otherwise.
func FieldErrors(err error) map[string]string {
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return nil
	}

	fields := make(map[string]string, len(validationErrors))
	for _, fe := range validationErrors {
		if _, seen := fields[fe.Field()]; !seen {
			fields[fe.Field()] = getFieldErrorMessage(fe)
		}
	}
	return fields
}

// FormatValidationError flattens err into one human-readable line.
func FormatValidationError(err error) string {
	if fields := FieldErrors(err); fields != nil {
		messages := make([]string, 0, len(fields))
		for field, msg := range fields {
			messages = append(messages, field+": "+msg)
		}
		return strings.Join(messages, "; ")
	}
	return "Некорректный формат запроса"
}

func getFieldErrorMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required", "notblank":
		return "не должно быть пустым"
	case "email":
		return "должно иметь формат адреса электронной почты"
	case "min":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("размер должен быть не меньше %s", fe.Param())
		}
		return fmt.Sprintf("должно быть не меньше %s", fe.Param())
	case "max":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("размер должен быть не больше %s", fe.Param())
		}
		return fmt.Sprintf("должно быть не больше %s", fe.Param())
	default:
		return "недопустимое значение"
	}
}
