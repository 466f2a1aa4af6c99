package usecase

import (
	"errors"
	"fmt"
	"net/http"
)

// 種類ごとの番兵。errors.Is で判定する。
var (
	ErrNotFound           = errors.New("not found")
	ErrInsufficientStock  = errors.New("insufficient stock")
	ErrInvalidReference   = errors.New("invalid reference")
	ErrConflictingUpdate  = errors.New("conflicting update")
	ErrMalformedData      = errors.New("malformed data")
	ErrStorageUnavailable = errors.New("storage unavailable")
	ErrValidation         = errors.New("validation error")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrForbidden          = errors.New("forbidden")
	ErrConflict           = errors.New("conflict")
)

var kindStatus = map[error]int{
	ErrNotFound:           http.StatusNotFound,
	ErrInsufficientStock:  http.StatusConflict,
	ErrInvalidReference:   http.StatusConflict,
	ErrConflictingUpdate:  http.StatusConflict,
	ErrMalformedData:      http.StatusUnprocessableEntity,
	ErrStorageUnavailable: http.StatusInternalServerError,
	ErrValidation:         http.StatusBadRequest,
	ErrUnauthorized:       http.StatusUnauthorized,
	ErrForbidden:          http.StatusForbidden,
	ErrConflict:           http.StatusConflict,
}

// handlerがそのまま返せるエラー
type HTTPError struct {
	Status  int
	Message string
	Kind    error
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("%d: %s", e.Status, e.Message)
}

func (e *HTTPError) Unwrap() error {
	return e.Kind
}

func NewHTTPError(status int, message string) error {
	return &HTTPError{
		Status:  status,
		Message: message,
	}
}

// 種類からステータスを決める
func newKindError(kind error, message string) error {
	status, ok := kindStatus[kind]
	if !ok {
		status = http.StatusInternalServerError
	}
	return &HTTPError{Status: status, Message: message, Kind: kind}
}

func AsHTTPError(err error) (*HTTPError, bool) {
	var he *HTTPError
	ok := errors.As(err, &he)
	return he, ok
}

func errNotFound(what string) error {
	return newKindError(ErrNotFound, what+" not found")
}

func errValidation(message string) error {
	return newKindError(ErrValidation, message)
}

func errStorage() error {
	return newKindError(ErrStorageUnavailable, "db error")
}
