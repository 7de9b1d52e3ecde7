package storage

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound     = errors.New("object not found")
	ErrKeyExists    = errors.New("object already exists at this key")
	ErrInvalidKey   = errors.New("invalid storage key")
	ErrTooLarge     = errors.New("object exceeds maximum size")
	ErrAccessDenied = errors.New("access denied")
)

// StorageError records the operation and key of a failed storage call.
// Sentinels are matched through Unwrap.
type StorageError struct {
	Op  string
	Key string
	Err error
}

func (e *StorageError) Error() string {
	if e.Key != "" {
		return fmt.Sprintf("storage %s %q: %v", e.Op, e.Key, e.Err)
	}
	return fmt.Sprintf("storage %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

func opError(op, key string, err error) error {
	return &StorageError{Op: op, Key: key, Err: err}
}

func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

func IsTooLarge(err error) bool {
	return errors.Is(err, ErrTooLarge)
}

// IsPermanent reports whether retrying the call cannot succeed: the key is
// malformed, the object is too large, or the credentials lack access.
// Everything else is treated as a provider outage.
func IsPermanent(err error) bool {
	return errors.Is(err, ErrInvalidKey) ||
		errors.Is(err, ErrTooLarge) ||
		errors.Is(err, ErrKeyExists) ||
		errors.Is(err, ErrAccessDenied)
}
