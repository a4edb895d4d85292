package workflow

import (
	"errors"
	"fmt"

	"github.com/louisbranch/homechain/internal/services/homechain/domain/command"
	"github.com/louisbranch/homechain/internal/services/homechain/storage"
)

var (
	// ErrPreconditionViolation matches every *PreconditionError.
	ErrPreconditionViolation = errors.New("precondition violation")
	// ErrInternal marks a decision the processor could not apply. The
	// transaction was rolled back; resubmitting it fails the same way.
	ErrInternal = errors.New("internal processor error")
)

// PreconditionError reports a business rule that declined a transaction.
// Nothing was written.
type PreconditionError struct {
	Code     string
	Reason   string
	Metadata map[string]string
}

func (e *PreconditionError) Error() string {
	return e.Reason
}

// Unwrap lets errors.Is match ErrPreconditionViolation.
func (e *PreconditionError) Unwrap() error {
	return ErrPreconditionViolation
}

// StoreError reports a persistence or bus failure. The transaction was
// rolled back and may be retried.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

// NotFoundError reports a transaction that referenced a missing entity.
type NotFoundError struct {
	EntityType string
	ID         string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.EntityType, e.ID)
}

// Unwrap lets errors.Is match storage.ErrNotFound.
func (e *NotFoundError) Unwrap() error {
	return storage.ErrNotFound
}

// IsNonRetryable reports whether resubmitting the same transaction cannot succeed
// without a change in registry state or input.
func IsNonRetryable(err error) bool {
	if err == nil {
		return false
	}
	var notFound *NotFoundError
	return errors.Is(err, ErrPreconditionViolation) ||
		errors.Is(err, ErrInternal) ||
		errors.As(err, &notFound) ||
		errors.Is(err, command.ErrTypeRequired) ||
		errors.Is(err, command.ErrTypeUnknown) ||
		errors.Is(err, command.ErrActorTypeInvalid) ||
		errors.Is(err, command.ErrActorIDRequired) ||
		errors.Is(err, command.ErrPayloadInvalid)
}

// IsRetryable reports whether err is an infrastructure failure the caller may retry.
func IsRetryable(err error) bool {
	var storeErr *StoreError
	return errors.As(err, &storeErr) && !IsNonRetryable(err)
}

func wrapLoad(entityType, id string, err error) error {
	if errors.Is(err, storage.ErrNotFound) {
		return &NotFoundError{EntityType: entityType, ID: id}
	}
	return &StoreError{Op: "load " + entityType, Err: err}
}
