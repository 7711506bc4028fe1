package executor

import "errors"

// Sentinel errors classifying tool failures. They are wrapped with request
// context and checked with errors.Is.
var (
	// ErrOutOfBounds indicates a path resolved outside the project root.
	ErrOutOfBounds = errors.New("path escapes project root")

	// ErrNotFound indicates the target file does not exist.
	ErrNotFound = errors.New("file not found")

	// ErrTooLarge indicates a file exceeded the configured read cap.
	// Oversized files are rejected rather than silently truncated.
	ErrTooLarge = errors.New("file exceeds size limit")

	// ErrTimeout indicates a command exceeded its wall-clock timeout and
	// was killed.
	ErrTimeout = errors.New("command timed out")

	// ErrSpawn indicates a command could not be started at all.
	ErrSpawn = errors.New("command failed to start")
)
