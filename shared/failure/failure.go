package failure

import (
	"errors"
	"net/http"
)

const (
	KindValidation        = "validation_error"
	KindCapacityExceeded  = "capacity_exceeded"
	KindSlotConflict      = "slot_conflict"
	KindInvalidTransition = "invalid_transition"
	KindUnauthorized      = "unauthorized"
	KindForbidden         = "forbidden"
	KindNotFound          = "not_found"
	KindConflict          = "conflict"
	KindInternal          = "internal_error"
	KindUnimplemented     = "unimplemented"
	KindNetworkOrServer   = "network_or_server_error"
)

// Failure is a wrapper for error messages and codes using standard HTTP response codes.
// Kind is a stable machine-readable name for the failure; Details optionally carries a
// structured payload (e.g. capacity suggestions) rendered next to the message.
type Failure struct {
	Code    int    `json:"code"`
	Kind    string `json:"kind,omitempty"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

var InvalidPageParam = &Failure{Code: http.StatusBadRequest, Kind: KindValidation, Message: "invalid page parameter"}
var InvalidLimitParam = &Failure{Code: http.StatusBadRequest, Kind: KindValidation, Message: "invalid limit parameter"}
var ForbiddenError = &Failure{Code: http.StatusForbidden, Kind: KindForbidden, Message: "You don't have the required permissions"}
var ResourceRestrictedError = &Failure{Code: http.StatusForbidden, Kind: KindForbidden, Message: "You don't have permission to access this resource"}

// Error returns the error code and message in a formatted string.
func (e *Failure) Error() string {
	return e.Message
}

// BadRequest returns a new Failure with code for bad requests.
func BadRequest(err error) error {
	if err != nil {
		return &Failure{
			Code:    http.StatusBadRequest,
			Kind:    KindValidation,
			Message: err.Error(),
		}
	}

	return nil
}

// BadRequestFromString returns a new Failure with code for bad requests with message set from string.
func BadRequestFromString(msg string) error {
	return &Failure{
		Code:    http.StatusBadRequest,
		Kind:    KindValidation,
		Message: msg,
	}
}

// Validation returns a bad request Failure that names the violated rule and field.
func Validation(msg string, details any) error {
	return &Failure{
		Code:    http.StatusBadRequest,
		Kind:    KindValidation,
		Message: msg,
		Details: details,
	}
}

// CapacityExceeded returns a Failure carrying alternative resources as details.
func CapacityExceeded(msg string, suggestions any) error {
	return &Failure{
		Code:    http.StatusUnprocessableEntity,
		Kind:    KindCapacityExceeded,
		Message: msg,
		Details: suggestions,
	}
}

// SlotConflict returns a Failure carrying the overlapping reservation as details.
func SlotConflict(msg string, conflict any) error {
	return &Failure{
		Code:    http.StatusConflict,
		Kind:    KindSlotConflict,
		Message: msg,
		Details: conflict,
	}
}

// InvalidTransition returns a Failure for a state change not permitted from the current state.
func InvalidTransition(msg string) error {
	return &Failure{
		Code:    http.StatusConflict,
		Kind:    KindInvalidTransition,
		Message: msg,
	}
}

// Unauthorized returns a new Failure with code for unauthorized requests.
func Unauthorized(msg string) error {
	return &Failure{
		Code:    http.StatusUnauthorized,
		Kind:    KindUnauthorized,
		Message: msg,
	}
}

// InternalError returns a new Failure with code for internal error and message derived from an error interface.
func InternalError(err error) error {
	if err != nil {
		return &Failure{
			Code:    http.StatusInternalServerError,
			Kind:    KindInternal,
			Message: err.Error(),
		}
	}

	return nil
}

// Unimplemented returns a new Failure with code for unimplemented method.
func Unimplemented(methodName string) error {
	return &Failure{
		Code:    http.StatusNotImplemented,
		Kind:    KindUnimplemented,
		Message: methodName,
	}
}

// NotFound returns a new Failure with code for entity not found.
func NotFound(entityName string) error {
	return &Failure{
		Code:    http.StatusNotFound,
		Kind:    KindNotFound,
		Message: entityName,
	}
}

// Conflict returns a new Failure with code for conflict situations.
func Conflict(message string) error {
	return &Failure{
		Code:    http.StatusConflict,
		Kind:    KindConflict,
		Message: message,
	}
}

func Forbidden(msg string) error {
	return &Failure{
		Code:    http.StatusForbidden,
		Kind:    KindForbidden,
		Message: msg,
	}
}

// NetworkOrServer returns a Failure for a request that never got a usable answer:
// a transport error (code 0 becomes 502) or a 5xx response.
func NetworkOrServer(code int, msg string) error {
	if code == 0 {
		code = http.StatusBadGateway
	}

	return &Failure{
		Code:    code,
		Kind:    KindNetworkOrServer,
		Message: msg,
	}
}

// GetCode returns the error code of an error interface.
func GetCode(err error) int {
	var fail *Failure
	if errors.As(err, &fail) {
		return fail.Code
	}

	return http.StatusInternalServerError
}

// GetKind returns the failure kind of an error interface, internal_error when it is not a Failure.
func GetKind(err error) string {
	var fail *Failure
	if errors.As(err, &fail) && fail.Kind != "" {
		return fail.Kind
	}

	return KindInternal
}

// GetDetails returns the structured details of a Failure, nil otherwise.
func GetDetails(err error) any {
	var fail *Failure
	if errors.As(err, &fail) {
		return fail.Details
	}

	return nil
}

// Is reports whether err is a Failure of the given kind.
func Is(err error, kind string) bool {
	return GetKind(err) == kind
}
