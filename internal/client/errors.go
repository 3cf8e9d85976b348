package client

import (
	"campusbook/internal/domains/booking/validation"
	"campusbook/shared/constant"
	"campusbook/shared/failure"
	"encoding/json"
	"errors"
	"net/http"
)

type errorBody struct {
	Error   string          `json:"error"`
	Message string          `json:"message"`
	Kind    string          `json:"kind"`
	Details json.RawMessage `json:"details"`
}

var statusKinds = map[int]string{
	http.StatusBadRequest:      failure.KindValidation,
	http.StatusUnauthorized:    failure.KindUnauthorized,
	http.StatusForbidden:       failure.KindForbidden,
	http.StatusNotFound:        failure.KindNotFound,
	http.StatusConflict:        failure.KindConflict,
	http.StatusTooManyRequests: failure.KindNetworkOrServer,
}

// decodeFailure turns an error answer into a Failure. Details stay raw JSON until a
// caller asks for them with one of the typed accessors below.
func decodeFailure(code int, body []byte) error {
	var payload errorBody

	_ = json.Unmarshal(body, &payload)

	msg := payload.Error
	if msg == constant.Empty {
		msg = payload.Message
	}

	if msg == constant.Empty {
		msg = http.StatusText(code)
	}

	if code >= http.StatusInternalServerError {
		return failure.NetworkOrServer(code, msg) // nolint:wrapcheck
	}

	kind := payload.Kind
	if kind == constant.Empty {
		kind = statusKinds[code]
	}

	if kind == constant.Empty {
		kind = failure.KindInternal
	}

	fail := &failure.Failure{Code: code, Kind: kind, Message: msg}
	if len(payload.Details) > 0 && string(payload.Details) != "null" {
		fail.Details = payload.Details
	}

	return fail
}

func details[T any](err error, kind string) (T, bool) {
	var (
		zero T
		fail *failure.Failure
	)

	if !errors.As(err, &fail) || fail.Kind != kind {
		return zero, false
	}

	var out T

	switch raw := fail.Details.(type) {
	case json.RawMessage:
		if err := json.Unmarshal(raw, &out); err != nil {
			return zero, false
		}
	case T:
		out = raw
	case *T:
		if raw == nil {
			return zero, false
		}

		out = *raw
	default:
		return zero, false
	}

	return out, true
}

// Suggestions returns the alternatives carried by a capacity_exceeded failure.
func Suggestions(err error) ([]validation.Suggestion, bool) {
	return details[[]validation.Suggestion](err, failure.KindCapacityExceeded)
}

// ConflictOf returns the reservation that blocked a slot_conflict failure.
func ConflictOf(err error) (validation.Conflict, bool) {
	return details[validation.Conflict](err, failure.KindSlotConflict)
}

// ViolationOf returns the rule and field named by a validation failure, when the
// failure came from the booking checks rather than request decoding.
func ViolationOf(err error) (validation.Violation, bool) {
	return details[validation.Violation](err, failure.KindValidation)
}

// IsNetworkOrServer reports whether err means the server could not be reached or failed.
func IsNetworkOrServer(err error) bool {
	return failure.Is(err, failure.KindNetworkOrServer)
}
