package registry

import (
	"errors"
	"fmt"
)

// ErrRepoNotFound reports that an (owner, repo) pair resolved to nothing.
// It is a first-class outcome, not a storage fault, and maps to HTTP 404.
var ErrRepoNotFound = errors.New("repository not found")

// StorageError wraps a relational store fault (unreachable database,
// malformed query, exhausted pool). It is terminal for the request.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage: %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// ExternalServiceError wraps a search engine fault: the engine was
// unreachable or returned a response that does not match the expected hit
// shape. Malformed responses are a hard failure, never a partial result.
type ExternalServiceError struct {
	Service string
	Err     error
}

func (e *ExternalServiceError) Error() string {
	return fmt.Sprintf("%s: %v", e.Service, e.Err)
}

func (e *ExternalServiceError) Unwrap() error { return e.Err }
