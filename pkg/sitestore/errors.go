package sitestore

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when no page is stored under a key.
	ErrNotFound = errors.New("sitestore: site not found")

	// ErrInvalidKey is returned for keys that are empty, contain characters
	// outside [0-9A-Za-z_-], or would resolve outside the store root.
	ErrInvalidKey = errors.New("sitestore: invalid key")
)

// StorageError reports a failure of the underlying medium, such as a full
// disk or a permission problem. It is never retried by the store.
type StorageError struct {
	Op  string
	Key string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("sitestore: %s %q: %v", e.Op, e.Key, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}
