package internal

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

type ErrorType string

const (
	ErrorTypeValidation    ErrorType = "VALIDATION_ERROR"
	ErrorTypeNotFound      ErrorType = "NOT_FOUND"
	ErrorTypeUnauthorized  ErrorType = "UNAUTHORIZED"
	ErrorTypeForbidden     ErrorType = "FORBIDDEN"
	ErrorTypeConflict      ErrorType = "CONFLICT"
	ErrorTypeStateConflict ErrorType = "STATE_CONFLICT"
	ErrorTypeInternal      ErrorType = "INTERNAL_ERROR"
	ErrorTypeExternal      ErrorType = "EXTERNAL_ERROR"
)

type ErrorCode string

const (
	ErrCodeValidationFailed  ErrorCode = "VALIDATION_FAILED"
	ErrCodeInvalidEmail      ErrorCode = "INVALID_EMAIL"
	ErrCodeInvalidUsername   ErrorCode = "INVALID_USERNAME"
	ErrCodeWeakPassword      ErrorCode = "WEAK_PASSWORD"
	ErrCodeDuplicateUsername ErrorCode = "DUPLICATE_USERNAME"
	ErrCodeDuplicateEmail    ErrorCode = "DUPLICATE_EMAIL"

	ErrCodeUserNotFound       ErrorCode = "USER_NOT_FOUND"
	ErrCodeRoleNotFound       ErrorCode = "ROLE_NOT_FOUND"
	ErrCodePermissionNotFound ErrorCode = "PERMISSION_NOT_FOUND"
	ErrCodeDuplicateRole      ErrorCode = "DUPLICATE_ROLE"
	ErrCodeDuplicatePerm      ErrorCode = "DUPLICATE_PERMISSION"

	ErrCodeTokenNotFound ErrorCode = "TOKEN_NOT_FOUND"
	ErrCodeTokenConsumed ErrorCode = "TOKEN_CONSUMED"
	ErrCodeTokenRevoked  ErrorCode = "TOKEN_REVOKED"
	ErrCodeTokenExpired  ErrorCode = "TOKEN_EXPIRED"

	ErrCodeUserEnabled ErrorCode = "USER_ALREADY_ENABLED"
	ErrCodeUserExpired ErrorCode = "USER_EXPIRED"
	ErrCodeUserLocked  ErrorCode = "USER_LOCKED"

	ErrCodeInvalidCredentials ErrorCode = "INVALID_CREDENTIALS"
	ErrCodeInvalidToken       ErrorCode = "INVALID_TOKEN"
)

type AppError struct {
	Type       ErrorType   `json:"type"`
	Code       ErrorCode   `json:"code"`
	Message    string      `json:"message"`
	Details    interface{} `json:"details,omitempty"`
	StatusCode int         `json:"-"`
	Cause      error       `json:"-"`
}

func (e *AppError) Error() string {
	if e.Details != nil {
		if validationErrors, ok := e.Details.(ValidationErrors); ok && len(validationErrors.Errors) > 0 {
			return validationErrors.Errors[0].Message
		}
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *AppError) GetDetailedMessage() string {
	if e.Details != nil {
		if validationErrors, ok := e.Details.(ValidationErrors); ok {
			if len(validationErrors.Errors) == 1 {
				return validationErrors.Errors[0].Message
			} else if len(validationErrors.Errors) > 1 {
				messages := make([]string, len(validationErrors.Errors))
				for i, err := range validationErrors.Errors {
					messages[i] = err.Message
				}
				return strings.Join(messages, "; ")
			}
		}
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

func (e *AppError) WithCause(cause error) *AppError {
	e.Cause = cause
	return e
}

func (e *AppError) WithDetails(details interface{}) *AppError {
	e.Details = details
	return e
}

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

type ValidationErrors struct {
	Errors []ValidationError `json:"errors"`
}

func NewValidationError(message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeValidation,
		Code:       code,
		Message:    message,
		StatusCode: http.StatusBadRequest,
	}
}

func NewValidationFieldError(field, message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeValidation,
		Code:       ErrCodeValidationFailed,
		Message:    "Validation failed",
		StatusCode: http.StatusBadRequest,
		Details: ValidationErrors{
			Errors: []ValidationError{
				{Field: field, Message: message, Code: string(code)},
			},
		},
	}
}

func NewNotFoundError(message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeNotFound,
		Code:       code,
		Message:    message,
		StatusCode: http.StatusNotFound,
	}
}

func NewUnauthorizedError(message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeUnauthorized,
		Code:       code,
		Message:    message,
		StatusCode: http.StatusUnauthorized,
	}
}

func NewForbiddenError(message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeForbidden,
		Code:       code,
		Message:    message,
		StatusCode: http.StatusForbidden,
	}
}

func NewInternalError(message string, cause error) *AppError {
	return &AppError{
		Type:       ErrorTypeInternal,
		Code:       "INTERNAL_ERROR",
		Message:    message,
		StatusCode: http.StatusInternalServerError,
		Cause:      cause,
	}
}

func NewConflictError(message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeConflict,
		Code:       code,
		Message:    message,
		StatusCode: http.StatusConflict,
	}
}

// NewStateConflictError marks lifecycle violations: tokens already consumed,
// users already enabled, locked accounts attempting activation.
func NewStateConflictError(message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeStateConflict,
		Code:       code,
		Message:    message,
		StatusCode: http.StatusConflict,
	}
}

var (
	ErrUserNotFound       = NewNotFoundError("user not found", ErrCodeUserNotFound)
	ErrRoleNotFound       = NewNotFoundError("role not found", ErrCodeRoleNotFound)
	ErrPermissionNotFound = NewNotFoundError("permission not found", ErrCodePermissionNotFound)
	ErrTokenNotFound      = NewNotFoundError("token not found", ErrCodeTokenNotFound)

	ErrDuplicateUsername   = NewConflictError("username already in use", ErrCodeDuplicateUsername)
	ErrDuplicateEmail      = NewConflictError("email already in use", ErrCodeDuplicateEmail)
	ErrDuplicateRole       = NewConflictError("role already exists", ErrCodeDuplicateRole)
	ErrDuplicatePermission = NewConflictError("permission already exists", ErrCodeDuplicatePerm)

	ErrTokenConsumed = NewStateConflictError("token already consumed", ErrCodeTokenConsumed)
	ErrTokenRevoked  = NewStateConflictError("token has been revoked", ErrCodeTokenRevoked)
	ErrTokenExpired  = NewStateConflictError("token has expired", ErrCodeTokenExpired)

	ErrUserEnabled = NewStateConflictError("user is already enabled", ErrCodeUserEnabled)
	ErrUserExpired = NewStateConflictError("user account has expired", ErrCodeUserExpired)
	ErrUserLocked  = NewStateConflictError("user account is locked", ErrCodeUserLocked)

	ErrInvalidCredentials = NewUnauthorizedError("invalid username or password", ErrCodeInvalidCredentials)
	ErrInvalidToken       = NewUnauthorizedError("invalid token", ErrCodeInvalidToken)

	ErrInvalidEmail = NewValidationError("email address is not valid", ErrCodeInvalidEmail)
	ErrWeakPassword = NewValidationError("password does not meet strength requirements", ErrCodeWeakPassword)
)

func IsAppError(err error) (*AppError, bool) {
	if appErr, ok := err.(*AppError); ok {
		return appErr, true
	}
	return nil, false
}

type Response struct {
	Error *AppError `json:"error"`
}

func (e *AppError) ToHTTPResponse() (int, interface{}) {
	return e.StatusCode, Response{Error: e}
}

func (e *AppError) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Type    ErrorType   `json:"type"`
		Code    ErrorCode   `json:"code"`
		Message string      `json:"message"`
		Details interface{} `json:"details,omitempty"`
	}{
		Type:    e.Type,
		Code:    e.Code,
		Message: e.Message,
		Details: e.Details,
	})
}
