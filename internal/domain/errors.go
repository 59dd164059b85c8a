package domain

import (
	"errors"
	"fmt"
	"net/http"
)

// Error codes carried in API error bodies. Codes are stable identifiers
// for clients; HTTP statuses are transport-level hints.
const (
	CodeMalformedDocument          = 1000
	CodeFullIntentNotFound         = 1001
	CodePartialIntentNotFound      = 1002
	CodeFullIntentAlreadyExists    = 1003
	CodePartialIntentAlreadyExists = 1004
	CodePartialFilterAlreadyExists = 1005
	CodeGroupAlreadyExists         = 1006
	CodeGroupNotFound              = 1007
	CodeHostnameScopeViolation     = 1008
	CodeHostnameMismatch           = 1009
	CodeDuplicateOwnership         = 1010
	CodeImmutableFieldViolation    = 1011
	CodeHostnameLock               = 1012
	CodeTransportFailure           = 1013
	CodeNotFound                   = 1014
	CodeUpdateFailed               = 1015
	CodeNotImplemented             = 1100
)

// Error is the structured error surfaced on every API failure. All fields
// are serialized in the response body.
type Error struct {
	Code           int    `json:"code"`
	Reason         string `json:"reason"`
	Message        string `json:"message"`
	Status         int    `json:"status"`
	ReferenceError string `json:"reference_error,omitempty"`
}

func (e *Error) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return e.Reason
}

// AsError extracts a structured error from an error chain
func AsError(err error) (*Error, bool) {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}

// ErrMalformedDocument reports an input document that failed to parse as
// well-formed XML; detail carries the parser's message.
func ErrMalformedDocument(detail string) *Error {
	return &Error{
		Code:    CodeMalformedDocument,
		Reason:  "XML formatting error has occurred.",
		Message: detail,
		Status:  http.StatusBadRequest,
	}
}

// ErrFullIntentNotFound reports a missing full intent
func ErrFullIntentNotFound(id string) *Error {
	return &Error{
		Code:    CodeFullIntentNotFound,
		Reason:  fmt.Sprintf("FullIntentConfig '%s' not found.", id),
		Message: "full intent config not found",
		Status:  http.StatusBadRequest,
	}
}

// ErrPartialIntentNotFound reports a missing partial intent
func ErrPartialIntentNotFound(id string) *Error {
	return &Error{
		Code:    CodePartialIntentNotFound,
		Reason:  fmt.Sprintf("PartialIntentConfig '%s' not found.", id),
		Message: "partial intent config not found",
		Status:  http.StatusBadRequest,
	}
}

// ErrFullIntentAlreadyExists reports a second full intent for a hostname
func ErrFullIntentAlreadyExists() *Error {
	return &Error{
		Code:    CodeFullIntentAlreadyExists,
		Reason:  "FullIntentConfig already exists.",
		Message: "a full intent config already exists for this hostname",
		Status:  http.StatusBadRequest,
	}
}

// ErrPartialIntentAlreadyExists reports a partial intent whose canonical
// configuration is already tracked for the same hostname scope
func ErrPartialIntentAlreadyExists() *Error {
	return &Error{
		Code:    CodePartialIntentAlreadyExists,
		Reason:  "PartialIntentConfig already exists.",
		Message: "a partial intent config with the same canonical configuration already exists for this hostname scope",
		Status:  http.StatusBadRequest,
	}
}

// ErrPartialFilterAlreadyExists reports a partial intent whose filter is
// already managed by another intent for the same hostname scope
func ErrPartialFilterAlreadyExists() *Error {
	return &Error{
		Code:    CodePartialFilterAlreadyExists,
		Reason:  "PartialIntentConfig filter already exists.",
		Message: "a partial intent config with the same canonical filter already exists for this hostname scope",
		Status:  http.StatusBadRequest,
	}
}

// ErrGroupAlreadyExists reports a duplicate group label
func ErrGroupAlreadyExists() *Error {
	return &Error{
		Code:    CodeGroupAlreadyExists,
		Reason:  "IntentGroup already exists.",
		Message: "an intent group with this label already exists",
		Status:  http.StatusBadRequest,
	}
}

// ErrGroupNotFound reports a missing intent group
func ErrGroupNotFound(id string) *Error {
	return &Error{
		Code:    CodeGroupNotFound,
		Reason:  fmt.Sprintf("IntentGroup '%s' not found.", id),
		Message: "intent group not found",
		Status:  http.StatusBadRequest,
	}
}

// ErrHostnameScopeViolation reports a common group inheriting a
// hostname-scoped member
func ErrHostnameScopeViolation() *Error {
	return &Error{
		Code:    CodeHostnameScopeViolation,
		Reason:  "IntentGroups without a hostname can not inherit PartialIntentConfig or IntentGroup objects which are managed via a hostname.",
		Message: "hostname scope violation",
		Status:  http.StatusBadRequest,
	}
}

// ErrHostnameMismatch reports a hostname-scoped group inheriting a member
// scoped to a different hostname
func ErrHostnameMismatch() *Error {
	return &Error{
		Code:    CodeHostnameMismatch,
		Reason:  "IntentGroups managed with a hostname must only inherit PartialIntentConfig or IntentGroup objects with the same hostname.",
		Message: "hostname scope mismatch",
		Status:  http.StatusBadRequest,
	}
}

// ErrDuplicateOwnership reports a partial intent reachable through more
// than one path in a group's inheritance closure
func ErrDuplicateOwnership() *Error {
	return &Error{
		Code:    CodeDuplicateOwnership,
		Reason:  "An existing Intent has been found either directly or indirectly via an inherited group. You can not manage the same Intent from multiple resources.",
		Message: "duplicate intent ownership",
		Status:  http.StatusBadRequest,
	}
}

// ErrImmutableFieldViolation reports an attempt to change a locked field
// (netdrift_managed or the record identity) through the API
func ErrImmutableFieldViolation(field string) *Error {
	return &Error{
		Code:    CodeImmutableFieldViolation,
		Reason:  fmt.Sprintf("%s attribute can not be changed via the API because this will break the discovery logic.", field),
		Message: "immutable field violation",
		Status:  http.StatusBadRequest,
	}
}

// ErrHostnameLock reports an attempt to change an intent's hostname
func ErrHostnameLock() *Error {
	return &Error{
		Code:    CodeHostnameLock,
		Reason:  "hostname attribute can not be changed on an Intent.",
		Message: "hostname is locked after creation",
		Status:  http.StatusBadRequest,
	}
}

// ErrTransportFailure reports a device session that could not be opened or
// used; detail carries the transport error.
func ErrTransportFailure(hostname, detail string) *Error {
	return &Error{
		Code:    CodeTransportFailure,
		Reason:  fmt.Sprintf("Unable to setup transport to '%s'.", hostname),
		Message: detail,
		Status:  http.StatusBadGateway,
	}
}

// ErrNotFound reports a missing entity on the combined intent and jobs APIs
func ErrNotFound(what string) *Error {
	return &Error{
		Code:    CodeNotFound,
		Reason:  fmt.Sprintf("%s not found.", what),
		Message: "resource not found",
		Status:  http.StatusNotFound,
	}
}

// ErrUpdateFailed reports a generic update-path validation failure
func ErrUpdateFailed(detail string) *Error {
	return &Error{
		Code:    CodeUpdateFailed,
		Reason:  "Unable to update resource.",
		Message: detail,
		Status:  http.StatusBadRequest,
	}
}

// ErrNotImplemented reports an endpoint whose logic is intentionally not
// implemented; it must never be mistaken for a silent success.
func ErrNotImplemented() *Error {
	return &Error{
		Code:    CodeNotImplemented,
		Reason:  "This endpoint/logic is currently not implemented.",
		Message: "not implemented",
		Status:  http.StatusNotImplemented,
	}
}
