package errx

import (
	"errors"
	"net/http"
	"testing"
)

func TestRegistryQualifiesCodes(t *testing.T) {
	registry := NewRegistry("TEST")
	code := registry.Register("NOT_FOUND", TypeNotFound, http.StatusNotFound, "Thing not found")

	if code != "TEST_NOT_FOUND" {
		t.Fatalf("code = %q, want TEST_NOT_FOUND", code)
	}

	err := registry.New(code)
	if err.Type != TypeNotFound || err.HTTPStatus != http.StatusNotFound {
		t.Errorf("err = %+v, want registered type and status", err)
	}
	if err.Message != "Thing not found" {
		t.Errorf("message = %q", err.Message)
	}
}

func TestUnregisteredCodeDegradesToInternal(t *testing.T) {
	registry := NewRegistry("TEST")

	err := registry.New("TEST_UNKNOWN")
	if err.Type != TypeInternal || err.HTTPStatus != http.StatusInternalServerError {
		t.Errorf("unregistered code produced %+v, want internal error", err)
	}
}

func TestWithCauseUnwraps(t *testing.T) {
	registry := NewRegistry("TEST")
	code := registry.Register("FAILED", TypeInternal, http.StatusInternalServerError, "Operation failed")

	cause := errors.New("disk full")
	err := registry.New(code).WithCause(cause)

	if !errors.Is(err, cause) {
		t.Error("errors.Is does not reach the cause")
	}

	var extracted *Error
	if !errors.As(err, &extracted) {
		t.Fatal("errors.As failed to extract *Error")
	}
	if extracted.Code != code {
		t.Errorf("extracted code = %q, want %q", extracted.Code, code)
	}
}

func TestWithDetailAccumulates(t *testing.T) {
	registry := NewRegistry("TEST")
	code := registry.Register("BAD", TypeValidation, http.StatusBadRequest, "Bad input")

	err := registry.New(code).
		WithDetail("field", "name").
		WithDetails(map[string]any{"reason": "empty"})

	if err.Details["field"] != "name" || err.Details["reason"] != "empty" {
		t.Errorf("details = %v", err.Details)
	}
}

func TestWrapClassifiesPlainErrors(t *testing.T) {
	cause := errors.New("timeout")
	err := Wrap(cause, "upstream call failed", TypeExternal)

	if err.HTTPStatus != http.StatusInternalServerError {
		t.Errorf("external wrap status = %d", err.HTTPStatus)
	}
	if !IsType(err, TypeExternal) {
		t.Error("IsType(TypeExternal) = false")
	}
	if !errors.Is(err, cause) {
		t.Error("wrapped cause lost")
	}
}

func TestToHTTPResponseCarriesDetails(t *testing.T) {
	registry := NewRegistry("TEST")
	code := registry.Register("DENIED", TypeAuthorization, http.StatusForbidden, "Not yours")

	resp := registry.New(code).WithDetail("id", "42").ToHTTPResponse()
	if resp.Code != code || resp.Type != TypeAuthorization {
		t.Errorf("response = %+v", resp)
	}
	if resp.Details["id"] != "42" {
		t.Errorf("response details = %v", resp.Details)
	}
}
