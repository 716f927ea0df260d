package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

type ErrorCode string

const (
	ErrCodeNotFound          ErrorCode = "NOT_FOUND"
	ErrCodeUnauthorized      ErrorCode = "UNAUTHORIZED"
	ErrCodeForbidden         ErrorCode = "FORBIDDEN"
	ErrCodeBadRequest        ErrorCode = "BAD_REQUEST"
	ErrCodeInternal          ErrorCode = "INTERNAL_ERROR"
	ErrCodeValidation        ErrorCode = "VALIDATION_ERROR"
	ErrCodePermissionDenied  ErrorCode = "PERMISSION_DENIED"
	ErrCodeInvalidTransition ErrorCode = "INVALID_TRANSITION"
	ErrCodeUrgencyAlreadySet ErrorCode = "URGENCY_ALREADY_SET"
	ErrCodeAlreadyRedeemed   ErrorCode = "ALREADY_REDEEMED"
	ErrCodeStorageFailure    ErrorCode = "STORAGE_FAILURE"
	ErrCodeRecordStore       ErrorCode = "RECORD_STORE_FAILURE"
)

type AppError struct {
	Code       ErrorCode
	Message    string
	HTTPStatus int
	// Target уточняет источник ошибки, например датчик для PERMISSION_DENIED.
	Target string
	Cause  error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

func New(code ErrorCode, message string) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: codeToHTTPStatus(code),
	}
}

func Wrap(err error, code ErrorCode, message string) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: codeToHTTPStatus(code),
		Cause:      err,
	}
}

// PermissionDenied сообщает об отказе в доступе к датчику (camera или location).
func PermissionDenied(target string, cause error) *AppError {
	return &AppError{
		Code:       ErrCodePermissionDenied,
		Message:    target + " access denied",
		HTTPStatus: codeToHTTPStatus(ErrCodePermissionDenied),
		Target:     target,
		Cause:      cause,
	}
}

// StorageFailure оборачивает ошибку объектного хранилища.
func StorageFailure(err error) *AppError {
	return Wrap(err, ErrCodeStorageFailure, "failed to store photo")
}

// RecordStoreFailure оборачивает ошибку хранилища записей.
func RecordStoreFailure(err error, message string) *AppError {
	return Wrap(err, ErrCodeRecordStore, message)
}

func codeToHTTPStatus(code ErrorCode) int {
	switch code {
	case ErrCodeNotFound:
		return http.StatusNotFound
	case ErrCodeUnauthorized:
		return http.StatusUnauthorized
	case ErrCodeForbidden:
		return http.StatusForbidden
	case ErrCodeBadRequest, ErrCodeValidation:
		return http.StatusBadRequest
	case ErrCodeInvalidTransition, ErrCodeUrgencyAlreadySet, ErrCodeAlreadyRedeemed:
		return http.StatusConflict
	case ErrCodePermissionDenied:
		return http.StatusUnprocessableEntity
	case ErrCodeStorageFailure:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// HasCode проверяет, что в цепочке есть AppError с указанным кодом.
func HasCode(err error, code ErrorCode) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Code == code
}

// As извлекает AppError из цепочки ошибок.
func As(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

func IsNotFound(err error) bool {
	return HasCode(err, ErrCodeNotFound)
}

func IsForbidden(err error) bool {
	return HasCode(err, ErrCodeForbidden)
}

func IsValidation(err error) bool {
	return HasCode(err, ErrCodeValidation)
}

func IsInvalidTransition(err error) bool {
	return HasCode(err, ErrCodeInvalidTransition)
}

var (
	ErrComplaintNotFound = New(ErrCodeNotFound, "complaint not found")
	ErrRewardNotFound    = New(ErrCodeNotFound, "reward entry not found")
	ErrUnauthorized      = New(ErrCodeUnauthorized, "authorization required")
	ErrForbidden         = New(ErrCodeForbidden, "insufficient permissions")
	ErrInvalidTransition = New(ErrCodeInvalidTransition, "status transition is not allowed")
	ErrUrgencyAlreadySet = New(ErrCodeUrgencyAlreadySet, "urgency is already set")
	ErrAlreadyRedeemed   = New(ErrCodeAlreadyRedeemed, "reward is already redeemed")
	ErrNothingCaptured   = New(ErrCodeBadRequest, "no photo has been captured")
)
