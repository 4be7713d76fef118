package rag

import (
	"errors"
	"fmt"
)

// Kind classifies a pipeline failure so callers can pick a recovery policy.
type Kind string

const (
	KindAcquisition Kind = "acquisition"
	KindExtraction  Kind = "extraction"
	KindEmbedding   Kind = "embedding"
	KindRetrieval   Kind = "retrieval"
	KindGeneration  Kind = "generation"
	KindAuth        Kind = "auth"
)

// Error is the common shape of every pipeline error.
type Error struct {
	kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s failed", e.kind, e.Op)
	}
	return fmt.Sprintf("%s: %s: %v", e.kind, e.Op, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

func (e *Error) Kind() Kind { return e.kind }

// Is lets errors.Is match on kind: errors.Is(err, rag.ErrExtraction).
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Op == "" && t.Err == nil && t.kind == e.kind
}

// Sentinels for errors.Is comparisons.
var (
	ErrAcquisition = &Error{kind: KindAcquisition}
	ErrExtraction  = &Error{kind: KindExtraction}
	ErrEmbedding   = &Error{kind: KindEmbedding}
	ErrRetrieval   = &Error{kind: KindRetrieval}
	ErrGeneration  = &Error{kind: KindGeneration}
	ErrAuth        = &Error{kind: KindAuth}
)

func AcquisitionError(op string, err error) error {
	return &Error{kind: KindAcquisition, Op: op, Err: err}
}

func ExtractionError(op string, err error) error {
	return &Error{kind: KindExtraction, Op: op, Err: err}
}

func EmbeddingError(op string, err error) error {
	return &Error{kind: KindEmbedding, Op: op, Err: err}
}

func RetrievalError(op string, err error) error {
	return &Error{kind: KindRetrieval, Op: op, Err: err}
}

func GenerationError(op string, err error) error {
	return &Error{kind: KindGeneration, Op: op, Err: err}
}

func AuthError(op string, err error) error {
	return &Error{kind: KindAuth, Op: op, Err: err}
}

// KindOf returns the kind of the first pipeline error in err's chain, or "".
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.kind
	}
	return ""
}

// IsRetryable reports whether a failed job may be redelivered.
// Content-quality failures are final; everything else (network, datastore) is not.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	switch KindOf(err) {
	case KindExtraction, KindAuth:
		return false
	}
	return true
}
