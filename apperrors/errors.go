// Package apperrors определяет типы ошибок сервиса и их отображение
// в HTTP-статусы единым JSON-конвертом.
package apperrors

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"wellness-platform/models"
)

// Kind — категория ошибки. Каждой категории соответствует ровно один HTTP-статус.
type Kind int

const (
	KindDatabase Kind = iota
	KindExternalAPI
	KindValidation
	KindBusinessLogic
	KindConflict
	KindNotFound
	KindAuthentication
	KindAuthorization
	KindRateLimit
	KindCircuitBreaker
	KindInternal
)

// HTTPStatus возвращает транспортный статус категории.
func (k Kind) HTTPStatus() int {
	switch k {
	case KindDatabase:
		return http.StatusInternalServerError
	case KindExternalAPI:
		return http.StatusBadGateway
	case KindValidation:
		return http.StatusUnprocessableEntity
	case KindBusinessLogic:
		return http.StatusBadRequest
	case KindConflict:
		return http.StatusConflict
	case KindNotFound:
		return http.StatusNotFound
	case KindAuthentication:
		return http.StatusUnauthorized
	case KindAuthorization:
		return http.StatusForbidden
	case KindRateLimit:
		return http.StatusTooManyRequests
	case KindCircuitBreaker:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func (k Kind) String() string {
	switch k {
	case KindDatabase:
		return "database"
	case KindExternalAPI:
		return "external_api"
	case KindValidation:
		return "validation"
	case KindBusinessLogic:
		return "business_logic"
	case KindConflict:
		return "conflict"
	case KindNotFound:
		return "not_found"
	case KindAuthentication:
		return "authentication"
	case KindAuthorization:
		return "authorization"
	case KindRateLimit:
		return "rate_limit"
	case KindCircuitBreaker:
		return "circuit_breaker"
	default:
		return "internal"
	}
}

// Error — ошибка с категорией, машинным кодом и деталями для конверта.
type Error struct {
	Kind    Kind
	Message string
	Code    string
	Details map[string]interface{}
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

func Newf(kind Kind, code, message string) *Error {
	return &Error{Kind: kind, Code: code, Message: message}
}

func Wrap(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// WithDetails добавляет детали к ошибке.
func (e *Error) WithDetails(details map[string]interface{}) *Error {
	e.Details = details
	return e
}

// Envelope — единый формат тела ответа об ошибке.
type Envelope struct {
	Error EnvelopeBody `json:"error"`
}

type EnvelopeBody struct {
	Message    string                 `json:"message"`
	StatusCode int                    `json:"status_code"`
	Timestamp  string                 `json:"timestamp"`
	Code       string                 `json:"code,omitempty"`
	Details    map[string]interface{} `json:"details,omitempty"`
}

// ToEnvelope приводит любую ошибку к конверту и статусу.
// Необработанные ошибки никогда не протекают наружу: всё прочее — generic 500.
func ToEnvelope(err error) (int, Envelope) {
	appErr := Classify(err)
	status := appErr.Kind.HTTPStatus()
	return status, Envelope{
		Error: EnvelopeBody{
			Message:    appErr.Message,
			StatusCode: status,
			Timestamp:  time.Now().UTC().Format(time.RFC3339),
			Code:       appErr.Code,
			Details:    appErr.Details,
		},
	}
}

// Classify сводит произвольную ошибку к *Error.
func Classify(err error) *Error {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr
	}
	if errors.Is(err, models.ErrNotFound) {
		return Newf(KindNotFound, "NOT_FOUND", "Resource not found")
	}
	if errors.Is(err, models.ErrInvalidPattern) {
		return &Error{Kind: KindBusinessLogic, Code: "INVALID_PATTERN", Message: err.Error()}
	}
	if dbErr := classifyDatabaseError(err); dbErr != nil {
		return dbErr
	}
	return &Error{Kind: KindInternal, Code: "INTERNAL_ERROR", Message: "Internal server error", Err: err}
}

// classifyDatabaseError разбирает нарушения целостности по тексту ошибки:
// уникальность -> 409, внешний ключ -> 400, прочая целостность -> 400,
// проблемы соединения -> 503.
func classifyDatabaseError(err error) *Error {
	msg := strings.ToLower(err.Error())

	switch {
	case strings.Contains(msg, "duplicate key value violates unique constraint"),
		strings.Contains(msg, "unique constraint failed"):
		return Newf(KindConflict, "DUPLICATE_RESOURCE", "Resource already exists")
	case strings.Contains(msg, "violates foreign key constraint"),
		strings.Contains(msg, "foreign key constraint failed"):
		return Newf(KindBusinessLogic, "INVALID_REFERENCE", "Referenced resource does not exist")
	case strings.Contains(msg, "violates check constraint"),
		strings.Contains(msg, "violates not-null constraint"):
		return Newf(KindBusinessLogic, "DATA_INTEGRITY_ERROR", "Data integrity violation")
	case strings.Contains(msg, "connection refused"),
		strings.Contains(msg, "connection reset"),
		strings.Contains(msg, "timeout"),
		strings.Contains(msg, "too many connections"):
		e := Newf(KindCircuitBreaker, "DATABASE_UNAVAILABLE", "Database service temporarily unavailable")
		e.Details = map[string]interface{}{"retry_after": 30}
		return e
	}
	return nil
}
