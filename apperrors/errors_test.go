package apperrors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"wellness-platform/models"
)

func TestKindHTTPStatus(t *testing.T) {
	tests := []struct {
		kind Kind
		want int
	}{
		{KindDatabase, http.StatusInternalServerError},
		{KindExternalAPI, http.StatusBadGateway},
		{KindValidation, http.StatusUnprocessableEntity},
		{KindBusinessLogic, http.StatusBadRequest},
		{KindConflict, http.StatusConflict},
		{KindNotFound, http.StatusNotFound},
		{KindAuthentication, http.StatusUnauthorized},
		{KindAuthorization, http.StatusForbidden},
		{KindRateLimit, http.StatusTooManyRequests},
		{KindCircuitBreaker, http.StatusServiceUnavailable},
		{KindInternal, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		if got := tt.kind.HTTPStatus(); got != tt.want {
			t.Errorf("HTTPStatus(%s) = %d, want %d", tt.kind, got, tt.want)
		}
	}
}

func TestClassifyPassesThroughAppError(t *testing.T) {
	original := Newf(KindConflict, "DUPLICATE_RESOURCE", "Resource already exists")
	if got := Classify(original); got != original {
		t.Errorf("Classify() rebuilt an already classified error")
	}

	wrapped := fmt.Errorf("handler: %w", original)
	if got := Classify(wrapped); got != original {
		t.Errorf("Classify() failed to unwrap nested *Error")
	}
}

func TestClassifyNotFound(t *testing.T) {
	got := Classify(fmt.Errorf("lookup: %w", models.ErrNotFound))
	if got.Kind != KindNotFound {
		t.Errorf("Kind = %s, want not_found", got.Kind)
	}
	if got.Code != "NOT_FOUND" {
		t.Errorf("Code = %q, want NOT_FOUND", got.Code)
	}
}

func TestClassifyInvalidPattern(t *testing.T) {
	got := Classify(fmt.Errorf("%w: count must be between 1 and 52", models.ErrInvalidPattern))
	if got.Kind != KindBusinessLogic {
		t.Errorf("Kind = %s, want business_logic", got.Kind)
	}
	if got.Code != "INVALID_PATTERN" {
		t.Errorf("Code = %q, want INVALID_PATTERN", got.Code)
	}
	if got.Kind.HTTPStatus() != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", got.Kind.HTTPStatus())
	}
}

func TestClassifyDatabaseErrors(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantKind Kind
		wantCode string
	}{
		{
			"duplicate key",
			errors.New(`ERROR: duplicate key value violates unique constraint "clients_email_key"`),
			KindConflict, "DUPLICATE_RESOURCE",
		},
		{
			"foreign key",
			errors.New(`ERROR: insert or update on table "appointments" violates foreign key constraint`),
			KindBusinessLogic, "INVALID_REFERENCE",
		},
		{
			"not null",
			errors.New(`ERROR: null value in column "name" violates not-null constraint`),
			KindBusinessLogic, "DATA_INTEGRITY_ERROR",
		},
		{
			"connection refused",
			errors.New("dial tcp 127.0.0.1:5432: connect: connection refused"),
			KindCircuitBreaker, "DATABASE_UNAVAILABLE",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Classify(tt.err)
			if got.Kind != tt.wantKind {
				t.Errorf("Kind = %s, want %s", got.Kind, tt.wantKind)
			}
			if got.Code != tt.wantCode {
				t.Errorf("Code = %q, want %q", got.Code, tt.wantCode)
			}
		})
	}
}

func TestClassifyConnectionErrorCarriesRetryAfter(t *testing.T) {
	got := Classify(errors.New("pq: too many connections"))
	if got.Details["retry_after"] != 30 {
		t.Errorf("Details = %v, want retry_after 30", got.Details)
	}
}

func TestClassifyUnknownErrorIsOpaque(t *testing.T) {
	got := Classify(errors.New("secret internal detail"))
	if got.Kind != KindInternal {
		t.Errorf("Kind = %s, want internal", got.Kind)
	}
	// Сырой текст внутренней ошибки наружу не отдаётся
	if got.Message != "Internal server error" {
		t.Errorf("Message = %q, want generic message", got.Message)
	}
}

func TestToEnvelope(t *testing.T) {
	err := Newf(KindValidation, "VALIDATION_ERROR", "days must be positive").
		WithDetails(map[string]interface{}{"field": "days"})

	status, envelope := ToEnvelope(err)
	if status != http.StatusUnprocessableEntity {
		t.Errorf("status = %d, want 422", status)
	}
	if envelope.Error.StatusCode != status {
		t.Errorf("envelope status_code = %d, want %d", envelope.Error.StatusCode, status)
	}
	if envelope.Error.Message != "days must be positive" {
		t.Errorf("message = %q", envelope.Error.Message)
	}
	if envelope.Error.Code != "VALIDATION_ERROR" {
		t.Errorf("code = %q", envelope.Error.Code)
	}
	if envelope.Error.Timestamp == "" {
		t.Error("timestamp is empty")
	}
	if envelope.Error.Details["field"] != "days" {
		t.Errorf("details = %v", envelope.Error.Details)
	}
}

func TestErrorUnwrap(t *testing.T) {
	inner := errors.New("db down")
	wrapped := Wrap(KindDatabase, "Query failed", inner)
	if !errors.Is(wrapped, inner) {
		t.Error("Wrap() lost the underlying error")
	}
	if wrapped.Error() != "Query failed: db down" {
		t.Errorf("Error() = %q", wrapped.Error())
	}
}
