package api

import (
	"errors"
	"net/http"

	"korob/internal/schema"
)

type FieldError struct {
	Code    string `json:"code"`
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Коды ошибок API-слоя. Валидационные коды приходят из движка схем.
const (
	ErrNotFound        = "not_found"
	ErrVersionConflict = "version_conflict"
)

func ferr(code, field, msg string) FieldError {
	return FieldError{Code: code, Field: field, Message: msg}
}

// fieldErrorFrom переводит ошибку движка в FieldError + HTTP-статус.
// Вся валидация живёт в schema; здесь только транспортная обёртка.
func fieldErrorFrom(err error) (int, FieldError) {
	var ve *schema.ValidationError
	if errors.As(err, &ve) {
		return http.StatusBadRequest, ferr(schema.ErrValidation, ve.Attribute, ve.Reason)
	}
	var ce *schema.CastError
	if errors.As(err, &ce) {
		return http.StatusBadRequest, ferr(schema.ErrCast, ce.Attribute, ce.Reason)
	}
	var ro *schema.ReadOnlyError
	if errors.As(err, &ro) {
		return http.StatusBadRequest, ferr(schema.ErrReadOnly, ro.Attribute, "Field '"+ro.Attribute+"' is read-only")
	}
	return http.StatusInternalServerError, ferr("internal", "", err.Error())
}
