package gateway

import (
	"errors"
	"fmt"
)

// Kind classifies every failure surfaced by the storefront core. Handlers
// map a kind to an HTTP status and the client maps it to messaging.
type Kind string

const (
	// KindAuthRequired: a mutating operation was attempted without a valid
	// credential. Resolved locally, no backend call is made.
	KindAuthRequired Kind = "auth_required"
	// KindSessionExpired: the backend rejected the credential (401).
	KindSessionExpired Kind = "session_expired"
	// KindNotFound: the backend answered 404.
	KindNotFound Kind = "not_found"
	// KindBackend: any other non-2xx backend response.
	KindBackend Kind = "backend_error"
	// KindNetwork: the request could not complete (timeout, connectivity).
	KindNetwork Kind = "network_error"
	// KindValidation: a request failed local precondition checks.
	KindValidation Kind = "validation_error"
	// KindVerificationMismatch: payment verification reported non-success.
	KindVerificationMismatch Kind = "verification_mismatch"
	// KindAbandonedSession: a checkout return carried no session reference.
	KindAbandonedSession Kind = "abandoned_session"
)

const (
	genericBackendMessage = "An error occurred"
	networkMessage        = "Network error. Please check your connection."
)

// Error is the normalized failure shape for every gateway and service
// operation.
type Error struct {
	Kind    Kind
	Status  int
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func NewError(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// KindOf extracts the failure kind from an error chain. Unclassified errors
// report as backend failures.
func KindOf(err error) Kind {
	var ge *Error
	if errors.As(err, &ge) {
		return ge.Kind
	}
	return KindBackend
}

// MessageOf extracts the user-facing message from an error chain.
func MessageOf(err error) string {
	var ge *Error
	if errors.As(err, &ge) && ge.Message != "" {
		return ge.Message
	}
	return genericBackendMessage
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind Kind) bool {
	var ge *Error
	return errors.As(err, &ge) && ge.Kind == kind
}
