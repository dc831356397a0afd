package model

import (
	"errors"
	"fmt"
)

// Error kinds. Every sentinel below wraps exactly one kind so callers can
// match either the precise cause or its family with errors.Is.
var (
	ErrAddressing = errors.New("addressing error")
	ErrValidation = errors.New("validation error")
	ErrRemote     = errors.New("remote failure")
)

var (
	// ErrInvalidDocumentType is returned for values outside the closed document type set.
	ErrInvalidDocumentType = fmt.Errorf("%w: invalid document type", ErrAddressing)
	// ErrMissingRoot is returned when a cross-pod location has no target root.
	ErrMissingRoot = fmt.Errorf("%w: missing root url", ErrAddressing)

	// ErrNotFound indicates the requested resource or container does not exist.
	ErrNotFound = errors.New("not found")

	ErrSelfGrantRejected    = fmt.Errorf("%w: cannot change container permissions for own pod", ErrValidation)
	ErrMissingSubject       = fmt.Errorf("%w: pod url not provided", ErrValidation)
	ErrNoCapabilitySelected = fmt.Errorf("%w: permissions not set", ErrValidation)
	ErrMissingFile          = fmt.Errorf("%w: missing file", ErrValidation)
	// ErrNameCollision is returned when a file would replace a different file
	// whose name maps to the same resource name.
	ErrNameCollision = fmt.Errorf("%w: another file is stored under the same name", ErrValidation)

	// ErrCorruptMetadata is returned when an existing metadata dataset cannot be parsed.
	ErrCorruptMetadata = errors.New("corrupt metadata")

	// ErrAlreadyExists is reported by a gateway when a create-only write hits an existing resource.
	ErrAlreadyExists = errors.New("already exists")
	// ErrNotEmpty is reported by a gateway when deleting a container that still has children.
	ErrNotEmpty = errors.New("container not empty")
)

// RemoteError wraps a transport or backend failure with the operation that caused it.
type RemoteError struct {
	Op     string
	URL    string
	Status int
	Err    error
}

func (e *RemoteError) Error() string {
	msg := fmt.Sprintf("%s %s", e.Op, e.URL)
	if e.Status != 0 {
		msg = fmt.Sprintf("%s: status %d", msg, e.Status)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *RemoteError) Unwrap() error {
	return e.Err
}

// Is makes every RemoteError match ErrRemote.
func (e *RemoteError) Is(target error) bool {
	return target == ErrRemote
}

// NewRemoteError wraps err as a remote failure of op on url.
func NewRemoteError(op, url string, status int, err error) error {
	return &RemoteError{Op: op, URL: url, Status: status, Err: err}
}

// Reason renders err as a one-line message suitable for a user notification.
func Reason(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrMissingFile):
		return "missing file"
	case errors.Is(err, ErrNameCollision):
		return "A different file with a similar name already exists."
	case errors.Is(err, ErrMissingSubject):
		return "PodURL not provided."
	case errors.Is(err, ErrSelfGrantRejected):
		return "Current user Pod cannot change container permissions to itself."
	case errors.Is(err, ErrNoCapabilitySelected):
		return "Permissions not set."
	case errors.Is(err, ErrInvalidDocumentType):
		return "No document type selected."
	case errors.Is(err, ErrMissingRoot):
		return "Pod URL of the other user not provided."
	case errors.Is(err, ErrNotEmpty):
		return "Container still has documents."
	case errors.Is(err, ErrNotFound):
		return "Document not found"
	case errors.Is(err, ErrCorruptMetadata):
		return "Document metadata is unreadable."
	case errors.Is(err, ErrRemote):
		return "Storage is unavailable."
	default:
		return err.Error()
	}
}
