package customerror

import (
	"fmt"
	"net/http"
)

type CustomError interface {
	Error() string
	GetHTTPCode() int
}

type UniqueViolationError struct {
	httpCode int
	message  string
}

func NewUniqueViolationError(msg string) *UniqueViolationError {
	return &UniqueViolationError{httpCode: http.StatusConflict, message: msg}
}

func (e *UniqueViolationError) Error() string {
	return fmt.Sprintf("unique violation: %s", e.message)
}

func (e *UniqueViolationError) GetHTTPCode() int {
	return e.httpCode
}

type CommonPGError struct {
	httpCode int
	message  string
}

func NewCommonPGError(msg string) *CommonPGError {
	return &CommonPGError{httpCode: http.StatusInternalServerError, message: msg}
}

func (e *CommonPGError) Error() string {
	return e.message
}

func (e *CommonPGError) GetHTTPCode() int {
	return e.httpCode
}

// RequestError is a client-caused failure with the status code to answer with.
type RequestError struct {
	httpCode int
	message  string
}

func NewRequestError(httpCode int, msg string) *RequestError {
	return &RequestError{httpCode: httpCode, message: msg}
}

func NewNotFoundError(msg string) *RequestError {
	return NewRequestError(http.StatusNotFound, msg)
}

func NewForbiddenError(msg string) *RequestError {
	return NewRequestError(http.StatusForbidden, msg)
}

func NewConflictError(msg string) *RequestError {
	return NewRequestError(http.StatusConflict, msg)
}

func NewBadRequestError(msg string) *RequestError {
	return NewRequestError(http.StatusBadRequest, msg)
}

func NewGatewayError(msg string) *RequestError {
	return NewRequestError(http.StatusBadGateway, msg)
}

func (e *RequestError) Error() string {
	return e.message
}

func (e *RequestError) GetHTTPCode() int {
	return e.httpCode
}
