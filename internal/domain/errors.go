package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when the provider reports that a repository does not exist.
	ErrNotFound = errors.New("repository not found")
	// ErrProvider matches every provider or transport failure.
	ErrProvider = errors.New("repository data provider error")
	// ErrInvalidRepositoryID is returned for identifiers that are not "owner/name".
	ErrInvalidRepositoryID = errors.New("invalid repository id")
)

// NotFoundError wraps ErrNotFound with the repository that was requested.
type NotFoundError struct {
	RepositoryID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("repository %s not found", e.RepositoryID)
}

func (e *NotFoundError) Unwrap() error {
	return ErrNotFound
}

// ProviderError represents a non-success response or a malformed payload.
// StatusCode is zero when the response could not be decoded.
type ProviderError struct {
	RepositoryID string
	StatusCode   int
	Err          error
}

func (e *ProviderError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("provider returned HTTP %d for %s: %v", e.StatusCode, e.RepositoryID, e.Err)
	}
	return fmt.Sprintf("provider error for %s: %v", e.RepositoryID, e.Err)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

func (e *ProviderError) Is(target error) bool {
	return target == ErrProvider
}

// NetworkError represents a transport failure where no response was received.
// It matches ErrProvider so callers can treat both the same way.
type NetworkError struct {
	RepositoryID string
	Err          error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("network error for %s: %v", e.RepositoryID, e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

func (e *NetworkError) Is(target error) bool {
	return target == ErrProvider
}
