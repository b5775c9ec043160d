// Package errs defines the sentinel errors shared across unitrie packages.
//
// Callers can match them with errors.Is even when call sites wrap them with
// additional context via fmt.Errorf("%w: ...").
package errs

import "errors"

// Builder contract violations.
var (
	// ErrEmptyBuilder is returned when Build is called before any key has
	// been added (or after Clear with no new keys).
	ErrEmptyBuilder = errors.New("builder has no entries")

	// ErrDuplicateKey is returned by Build when the same key was added more
	// than once since the last Clear.
	ErrDuplicateKey = errors.New("duplicate key")

	// ErrKeyTooLong is returned by Add when a key exceeds the maximum
	// supported length.
	ErrKeyTooLong = errors.New("key too long")

	// ErrBuilderFrozen is returned by Add after a build has produced a
	// serialized trie; call Clear to start over.
	ErrBuilderFrozen = errors.New("builder already built")
)

// Cursor contract violations.
var (
	// ErrStateMismatch is returned by ResetToState when the saved state was
	// captured from a different buffer or root.
	ErrStateMismatch = errors.New("state belongs to a different trie")
)

// Store envelope validation errors.
var (
	ErrInvalidMagicNumber     = errors.New("invalid magic number")
	ErrInvalidHeaderSize      = errors.New("invalid header size")
	ErrUnsupportedVersion     = errors.New("unsupported format version")
	ErrInvalidUnitType        = errors.New("invalid unit type")
	ErrInvalidCompressionType = errors.New("invalid compression type")
	ErrInvalidRootOffset      = errors.New("invalid root offset")
	ErrInvalidPayload         = errors.New("invalid payload")
	ErrChecksumMismatch       = errors.New("payload checksum mismatch")
)
