// Package apperr define los errores de negocio compartidos por los servicios.
//
// Los adapters de storage devuelven los sentinels (ErrNotFound, ErrDuplicateKey);
// los servicios los traducen a las variantes tipadas con recurso/campo/valor.
package apperr

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrDuplicateKey = errors.New("duplicate key")
	ErrInvalidInput = errors.New("invalid input")
)

// NotFoundError se devuelve cuando una búsqueda por identificador (o una
// referencia obligatoria) no encuentra registro.
type NotFoundError struct {
	Resource string
	Field    string
	Value    any
}

func NotFound(resource, field string, value any) *NotFoundError {
	return &NotFoundError{Resource: resource, Field: field, Value: value}
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found with %s : '%v'", e.Resource, e.Field, e.Value)
}

func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

// DuplicateKeyError se devuelve cuando una clave única ya está tomada
// (código natural, username, email).
type DuplicateKeyError struct {
	Resource string
	Field    string
	Value    any
}

func DuplicateKey(resource, field string, value any) *DuplicateKeyError {
	return &DuplicateKeyError{Resource: resource, Field: field, Value: value}
}

func (e *DuplicateKeyError) Error() string {
	return fmt.Sprintf("%s already exists with %s : '%v'", e.Resource, e.Field, e.Value)
}

func (e *DuplicateKeyError) Is(target error) bool { return target == ErrDuplicateKey }

// ValidationError describe una regla de formato no cumplida por un campo.
type ValidationError struct {
	Field   string `json:"field"`
	Rule    string `json:"rule"`
	Message string `json:"message"`
}

type ValidationErrors []ValidationError

func (v ValidationErrors) Error() string {
	if len(v) == 0 {
		return "invalid input"
	}
	parts := make([]string, 0, len(v))
	for _, e := range v {
		parts = append(parts, e.Message)
	}
	return "invalid input: " + strings.Join(parts, "; ")
}

func (v ValidationErrors) Is(target error) bool { return target == ErrInvalidInput }

// Invalid construye un error de validación de un solo campo.
func Invalid(field, rule, message string) ValidationErrors {
	return ValidationErrors{{Field: field, Rule: rule, Message: message}}
}

// IsClientError indica si el error debe exponerse como "bad request".
func IsClientError(err error) bool {
	return errors.Is(err, ErrDuplicateKey) || errors.Is(err, ErrInvalidInput)
}
