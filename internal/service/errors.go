package service

import (
	"errors"

	"creatorhub/internal/repository"
)

var (
	// ErrValidation marks a malformed request rejected before any provider call.
	ErrValidation = errors.New("validation_failed")
	// ErrPersistence marks a store failure other than the domain sentinels.
	ErrPersistence = errors.New("persistence_failure")
	// ErrInvalidSignature is returned for a webhook whose signature does not verify.
	ErrInvalidSignature = errors.New("invalid_signature")

	ErrInsufficientCredits = repository.ErrInsufficientCredits
	ErrUserNotFound        = repository.ErrNotFound
)

// persistenceError tags err as ErrPersistence unless it already carries a domain sentinel.
func persistenceError(err error) error {
	if err == nil || errors.Is(err, repository.ErrNotFound) || errors.Is(err, repository.ErrInsufficientCredits) ||
		errors.Is(err, repository.ErrDuplicate) {
		return err
	}
	return errors.Join(ErrPersistence, err)
}
