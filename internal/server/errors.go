package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/ts2rs/ts2rs/compiler/ir"
)

// ErrorCode is a machine-readable error code.
type ErrorCode string

const (
	CodeInvalidArgument   ErrorCode = "invalid_argument"
	CodeCompileFailed     ErrorCode = "compile_failed"
	CodeNotFound          ErrorCode = "not_found"
	CodeMethodNotAllowed  ErrorCode = "method_not_allowed"
	CodeResourceExhausted ErrorCode = "resource_exhausted"
	CodeCanceled          ErrorCode = "canceled"
	CodeDeadlineExceeded  ErrorCode = "deadline_exceeded"
	CodeInternal          ErrorCode = "internal"
)

// Error is the JSON error envelope.
type Error struct {
	Code    ErrorCode      `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Errorf creates an Error with a formatted message.
func Errorf(code ErrorCode, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// WithDetail returns a copy of e with key set in its details.
func (e *Error) WithDetail(key string, value any) *Error {
	details := make(map[string]any, len(e.Details)+1)
	for k, v := range e.Details {
		details[k] = v
	}
	details[key] = value
	return &Error{Code: e.Code, Message: e.Message, Details: details}
}

// HTTPStatus maps the code to an HTTP status.
func (c ErrorCode) HTTPStatus() int {
	switch c {
	case CodeInvalidArgument:
		return http.StatusBadRequest
	case CodeCompileFailed:
		return http.StatusUnprocessableEntity
	case CodeNotFound:
		return http.StatusNotFound
	case CodeMethodNotAllowed:
		return http.StatusMethodNotAllowed
	case CodeResourceExhausted:
		return http.StatusRequestEntityTooLarge
	case CodeCanceled:
		return 499 // Client Closed Request
	case CodeDeadlineExceeded:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// ErrorTransformer maps an error to an envelope. Returning nil falls back
// to DefaultErrorTransformer.
type ErrorTransformer func(error) *Error

// DefaultErrorTransformer maps request, validation and compile errors to
// envelopes.
func DefaultErrorTransformer(err error) *Error {
	if err == nil {
		return nil
	}

	var svcErr *Error
	if errors.As(err, &svcErr) {
		return svcErr
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return Errorf(CodeDeadlineExceeded, "compilation timed out")
	}
	if errors.Is(err, context.Canceled) {
		return Errorf(CodeCanceled, "request canceled")
	}

	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return Errorf(CodeResourceExhausted, "request body exceeds %d bytes", tooLarge.Limit)
	}

	var pe ir.PositionedError
	if errors.As(err, &pe) {
		return (&Error{Code: CodeCompileFailed, Message: err.Error()}).
			WithDetail("diagnostics", ir.Diagnostics{ir.ErrorDiagnostic(pe)})
	}

	var valErrs validator.ValidationErrors
	if errors.As(err, &valErrs) {
		details := make(map[string]any, len(valErrs))
		messages := make([]string, 0, len(valErrs))
		for _, ve := range valErrs {
			msg := formatValidationError(ve)
			details[ve.Field()] = msg
			messages = append(messages, ve.Field()+": "+msg)
		}
		return &Error{Code: CodeInvalidArgument, Message: strings.Join(messages, "; "), Details: details}
	}

	return Errorf(CodeInternal, "%s", err.Error())
}

func formatValidationError(ve validator.FieldError) string {
	switch ve.Tag() {
	case "required":
		return "required"
	case "max":
		return fmt.Sprintf("must be at most %s long", ve.Param())
	case "oneof":
		return fmt.Sprintf("must be one of: %s", ve.Param())
	case "rust_path":
		return "must be a Rust path such as Debug or serde::Serialize"
	default:
		if ve.Param() != "" {
			return fmt.Sprintf("failed %s=%s validation", ve.Tag(), ve.Param())
		}
		return fmt.Sprintf("failed %s validation", ve.Tag())
	}
}

// envelope wraps every response body: exactly one of the fields is set.
type envelope struct {
	Result any    `json:"result,omitempty"`
	Error  *Error `json:"error,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, body envelope, logger *slog.Logger) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logger.Error("failed to encode response", slog.Int("status", status), slog.Any("error", err))
	}
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	var svcErr *Error
	if s.transform != nil {
		svcErr = s.transform(err)
	}
	if svcErr == nil {
		svcErr = DefaultErrorTransformer(err)
	}
	writeJSON(w, svcErr.Code.HTTPStatus(), envelope{Error: svcErr}, s.logger)
}
