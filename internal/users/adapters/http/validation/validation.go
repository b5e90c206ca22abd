// Package validation проверяет форму входящих JSON-запросов до вызова сценариев.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"

	"userapi/internal/users/domain/entities"
)

// Validator оборачивает validator.Validate и переводит ошибки в entities.ErrValidation.
type Validator struct {
	validate *validator.Validate
}

// New создает валидатор, который называет поля по их json-тегам.
// Тег notblank отвергает строки из одних пробелов.
func New() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	if err := v.RegisterValidation("notblank", validators.NotBlank); err != nil {
		panic(err)
	}
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name, _, _ := strings.Cut(field.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		if name == "" {
			return field.Name
		}
		return name
	})

	return &Validator{validate: v}
}

// Struct проверяет структуру запроса. Все нарушения собираются в одну
// строку вида "email: value is not a valid email address; username: field required".
func (v *Validator) Struct(s any) error {
	err := v.validate.Struct(s)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fmt.Errorf("%w: %w", entities.ErrValidation, err)
	}

	messages := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		messages = append(messages, fe.Field()+": "+describe(fe))
	}

	return &Error{Detail: strings.Join(messages, "; ")}
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "field required"
	case "email":
		return "value is not a valid email address"
	case "min":
		return "must not be empty"
	case "notblank":
		return "must not be blank"
	default:
		return "failed " + fe.Tag() + " check"
	}
}

// Error - ошибка валидации с текстом для клиента.
type Error struct {
	Detail string
}

func (e *Error) Error() string {
	return e.Detail
}

// Unwrap позволяет сопоставлять ошибку с entities.ErrValidation.
func (e *Error) Unwrap() error {
	return entities.ErrValidation
}

// Wrap оборачивает произвольную ошибку разбора в ошибку валидации.
func Wrap(detail string) error {
	return &Error{Detail: detail}
}
