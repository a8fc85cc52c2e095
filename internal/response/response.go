// Package response writes the API's JSON envelope. Successful calls carry
// {"data": ...}; failures carry {"error": "...", "kind": "..."} where kind is
// a stable machine-readable class clients can branch on.
package response

import (
	"encoding/json"
	"net/http"
)

// Error kinds.
const (
	KindInvalidArgument = "InvalidArgument"
	KindUnauthorized    = "Unauthorized"
	KindForbidden       = "Forbidden"
	KindNotFound        = "NotFound"
	KindConflict        = "Conflict"
	KindTooLarge        = "TooLarge"
	KindNotImplemented  = "NotImplemented"
	KindUnavailable     = "Unavailable"
	KindInternal        = "Internal"
)

var statusKinds = map[int]string{
	http.StatusBadRequest:            KindInvalidArgument,
	http.StatusUnauthorized:          KindUnauthorized,
	http.StatusForbidden:             KindForbidden,
	http.StatusNotFound:              KindNotFound,
	http.StatusConflict:              KindConflict,
	http.StatusRequestEntityTooLarge: KindTooLarge,
	http.StatusNotImplemented:        KindNotImplemented,
	http.StatusServiceUnavailable:    KindUnavailable,
}

// Envelope is the body of every JSON response.
type Envelope struct {
	Data  any    `json:"data,omitempty"`
	Error string `json:"error,omitempty"`
	Kind  string `json:"kind,omitempty" example:"NotFound"`
}

// KindOf returns the error kind reported for status. Unlisted 4xx codes are
// invalid arguments and unlisted 5xx codes are internal.
func KindOf(status int) string {
	if k, ok := statusKinds[status]; ok {
		return k
	}
	if status >= http.StatusInternalServerError {
		return KindInternal
	}
	return KindInvalidArgument
}

// JSON writes payload with the given status code.
func JSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

// OK writes a 200 response with data.
func OK(w http.ResponseWriter, data any) {
	JSON(w, http.StatusOK, Envelope{Data: data})
}

// Error writes a failure envelope for status.
func Error(w http.ResponseWriter, status int, message string) {
	if message == "" {
		message = http.StatusText(status)
	}
	JSON(w, status, Envelope{Error: message, Kind: KindOf(status)})
}

func BadRequest(w http.ResponseWriter, message string) {
	Error(w, http.StatusBadRequest, message)
}

func Unauthorized(w http.ResponseWriter, message string) {
	Error(w, http.StatusUnauthorized, message)
}

func Forbidden(w http.ResponseWriter, message string) {
	Error(w, http.StatusForbidden, message)
}

func NotFound(w http.ResponseWriter, message string) {
	Error(w, http.StatusNotFound, message)
}

func Conflict(w http.ResponseWriter, message string) {
	Error(w, http.StatusConflict, message)
}

func RequestTooLarge(w http.ResponseWriter, message string) {
	Error(w, http.StatusRequestEntityTooLarge, message)
}

func ServiceUnavailable(w http.ResponseWriter, message string) {
	Error(w, http.StatusServiceUnavailable, message)
}

// InternalError writes a 500 without any detail of the cause.
func InternalError(w http.ResponseWriter) {
	Error(w, http.StatusInternalServerError, "internal server error")
}
