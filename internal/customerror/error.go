package customerror

import (
	"errors"
	"fmt"
	"net/http"
)

type CustomError interface {
	Error() string
	GetHTTPCode() int
}

type BadRequestError struct {
	httpCode int
	message  string
	Fields   map[string]string
}

func NewBadRequestError(msg string) *BadRequestError {
	return &BadRequestError{httpCode: http.StatusBadRequest, message: msg}
}

// NewValidationError собирает ошибки валидации по полям формы.
func NewValidationError(fields map[string]string) *BadRequestError {
	return &BadRequestError{httpCode: http.StatusBadRequest, message: "validation failed", Fields: fields}
}

func (e *BadRequestError) Error() string {
	return e.message
}

func (e *BadRequestError) GetHTTPCode() int {
	return e.httpCode
}

type UnauthorizedError struct {
	httpCode int
	message  string
}

func NewUnauthorizedError(msg string) *UnauthorizedError {
	return &UnauthorizedError{httpCode: http.StatusUnauthorized, message: msg}
}

func (e *UnauthorizedError) Error() string {
	return e.message
}

func (e *UnauthorizedError) GetHTTPCode() int {
	return e.httpCode
}

type ForbiddenError struct {
	httpCode int
	message  string
}

func NewForbiddenError(msg string) *ForbiddenError {
	return &ForbiddenError{httpCode: http.StatusForbidden, message: msg}
}

func (e *ForbiddenError) Error() string {
	return e.message
}

func (e *ForbiddenError) GetHTTPCode() int {
	return e.httpCode
}

type NotFoundError struct {
	httpCode int
	message  string
}

func NewNotFoundError(msg string) *NotFoundError {
	return &NotFoundError{httpCode: http.StatusNotFound, message: msg}
}

func (e *NotFoundError) Error() string {
	return e.message
}

func (e *NotFoundError) GetHTTPCode() int {
	return e.httpCode
}

type ConflictError struct {
	httpCode int
	message  string
}

func NewConflictError(msg string) *ConflictError {
	return &ConflictError{httpCode: http.StatusConflict, message: msg}
}

func (e *ConflictError) Error() string {
	return e.message
}

func (e *ConflictError) GetHTTPCode() int {
	return e.httpCode
}

type PayloadTooLargeError struct {
	httpCode int
	message  string
}

func NewPayloadTooLargeError(limit int64) *PayloadTooLargeError {
	return &PayloadTooLargeError{
		httpCode: http.StatusRequestEntityTooLarge,
		message:  fmt.Sprintf("request body exceeds %d bytes", limit),
	}
}

func (e *PayloadTooLargeError) Error() string {
	return e.message
}

func (e *PayloadTooLargeError) GetHTTPCode() int {
	return e.httpCode
}

// ServerError скрывает причину от клиента, причина доступна только в логах.
type ServerError struct {
	httpCode int
	message  string
	cause    error
}

func NewServerError(msg string, cause error) *ServerError {
	return &ServerError{httpCode: http.StatusInternalServerError, message: msg, cause: cause}
}

func (e *ServerError) Error() string {
	if e.cause == nil {
		return e.message
	}
	return fmt.Sprintf("%s: %v", e.message, e.cause)
}

func (e *ServerError) Unwrap() error {
	return e.cause
}

func (e *ServerError) GetHTTPCode() int {
	return e.httpCode
}

const genericServerMessage = "internal server error"

// HTTPCode returns the status code carried by err, 500 for anything unclassified.
func HTTPCode(err error) int {
	var customErr CustomError
	if errors.As(err, &customErr) {
		return customErr.GetHTTPCode()
	}
	return http.StatusInternalServerError
}

// PublicMessage returns the text that may be shown to API callers.
func PublicMessage(err error) string {
	var serverErr *ServerError
	if errors.As(err, &serverErr) {
		return genericServerMessage
	}
	var customErr CustomError
	if errors.As(err, &customErr) {
		return customErr.Error()
	}
	return genericServerMessage
}
