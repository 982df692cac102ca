package domain

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a per-key failure.
type ErrorKind string

const (
	KindNoOverlap              ErrorKind = "no_overlap"
	KindInconsistentChunkWidth ErrorKind = "inconsistent_chunk_width"
	KindUnsortedInput          ErrorKind = "unsorted_input"
	KindInvalidInput           ErrorKind = "invalid_input"
)

// Sentinels for errors.Is matching against a *KeyError of the same kind.
var (
	ErrNoOverlap              = errors.New(string(KindNoOverlap))
	ErrInconsistentChunkWidth = errors.New(string(KindInconsistentChunkWidth))
	ErrUnsortedInput          = errors.New(string(KindUnsortedInput))
	ErrInvalidInput           = errors.New(string(KindInvalidInput))
)

// KeyError is a data-integrity failure scoped to a single key (a pixel or a
// chunk group). Callers decide whether to drop the key or abort the job.
type KeyError struct {
	Kind   ErrorKind
	Key    string
	Detail string
}

func (e *KeyError) Error() string {
	if e.Key == "" {
		return fmt.Sprintf("%s: %s", e.Kind, e.Detail)
	}
	return fmt.Sprintf("%s [%s]: %s", e.Kind, e.Key, e.Detail)
}

// Is reports whether target is the sentinel for this error's kind.
func (e *KeyError) Is(target error) bool {
	switch e.Kind {
	case KindNoOverlap:
		return target == ErrNoOverlap
	case KindInconsistentChunkWidth:
		return target == ErrInconsistentChunkWidth
	case KindUnsortedInput:
		return target == ErrUnsortedInput
	case KindInvalidInput:
		return target == ErrInvalidInput
	}
	return false
}

// withKey attaches key to err: a *KeyError without a key gets a keyed copy,
// any other error is wrapped with the key as prefix.
func withKey(err error, key string) error {
	var ke *KeyError
	if !errors.As(err, &ke) {
		return fmt.Errorf("%s: %w", key, err)
	}
	if ke.Key != "" {
		return err
	}
	cp := *ke
	cp.Key = key
	return &cp
}

// KindOf returns the kind of a *KeyError in err's chain, or "" if none.
func KindOf(err error) ErrorKind {
	var ke *KeyError
	if errors.As(err, &ke) {
		return ke.Kind
	}
	return ""
}
