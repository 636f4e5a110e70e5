// Package fault defines the domain error taxonomy shared by all services.
//
// Services return these errors without knowing anything about HTTP; the API
// layer maps each kind to a status code.
package fault

import "errors"

// Kind classifies a domain error.
type Kind int

const (
	// KindUnknown is any error that is not a classified domain error.
	KindUnknown Kind = iota
	// KindBusinessRule marks a well-formed, authorized request that violates
	// a domain invariant. Never retryable.
	KindBusinessRule
	// KindPermissionDenied marks insufficient role or ownership.
	KindPermissionDenied
	// KindNotFound marks a missing entity. Entities outside the caller's
	// organization are reported identically to nonexistent ones.
	KindNotFound
	// KindConflict marks an operation that conflicts with current state.
	KindConflict
	// KindUnauthorized marks a missing or invalid credential.
	KindUnauthorized
)

// Error is a classified domain error.
type Error struct {
	Kind    Kind
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

// BusinessRule returns a business-rule violation error.
func BusinessRule(message string) error {
	return &Error{Kind: KindBusinessRule, Message: message}
}

// PermissionDenied returns a permission-denied error.
func PermissionDenied(message string) error {
	return &Error{Kind: KindPermissionDenied, Message: message}
}

// NotFound returns a resource-not-found error.
func NotFound(message string) error {
	return &Error{Kind: KindNotFound, Message: message}
}

// Conflict returns a conflict error.
func Conflict(message string) error {
	return &Error{Kind: KindConflict, Message: message}
}

// Unauthorized returns an authentication error.
func Unauthorized(message string) error {
	return &Error{Kind: KindUnauthorized, Message: message}
}

// KindOf returns the kind of err, or KindUnknown for unclassified errors.
func KindOf(err error) Kind {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Kind
	}
	return KindUnknown
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}
