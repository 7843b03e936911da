package milvus

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrInvalidConfig         = errors.New("milvus: invalid config")
	ErrClientClosed          = errors.New("milvus: client is closed")
	ErrInvalidCollectionName = errors.New("milvus: invalid collection name")
	ErrInvalidFieldName      = errors.New("milvus: invalid field name")
	ErrInvalidVectorData     = errors.New("milvus: invalid vector data")
)

// Error adds operation context to a Milvus failure
type Error struct {
	Op         string
	Collection string
	Err        error
}

func (e *Error) Error() string {
	if e.Collection != "" {
		return fmt.Sprintf("milvus: %s failed for collection=%s: %v", e.Op, e.Collection, e.Err)
	}
	return fmt.Sprintf("milvus: %s failed: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// WrapError wraps err with operation context
func WrapError(op string, err error, collection string) error {
	if err == nil {
		return nil
	}
	return &Error{Op: op, Collection: collection, Err: err}
}

// IsTimeout checks if the error is a timeout error
func IsTimeout(err error) bool {
	return err != nil && containsAny(err.Error(), "timeout", "timed out", "deadline exceeded")
}

// IsConnectionError checks if the error is a connection error
func IsConnectionError(err error) bool {
	return err != nil && containsAny(err.Error(), "connection", "dial", "unavailable", "unreachable")
}

func isRetryable(err error) bool {
	return IsTimeout(err) || IsConnectionError(err)
}

func containsAny(s string, substrs ...string) bool {
	s = strings.ToLower(s)
	for _, sub := range substrs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
