package sessions

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation is the parent of every rejected-input error.
	ErrValidation = errors.New("validation error")

	// ErrNotFound is returned for an unknown session id.
	ErrNotFound = errors.New("session not found")

	// ErrCapacityExceeded is returned by Launch when MaxSessions are running.
	ErrCapacityExceeded = errors.New("session capacity exceeded")

	// ErrSpawn is returned when the OS could not start the process.
	ErrSpawn = errors.New("failed to spawn process")

	// ErrPty is returned when a pseudo-terminal could not be set up.
	ErrPty = errors.New("pty error")

	// ErrIO is returned for write, resize and kill failures on an existing session.
	ErrIO = errors.New("session i/o error")

	ErrUnknownAgent         = fmt.Errorf("%w: unknown agent", ErrValidation)
	ErrExecutableNotAllowed = fmt.Errorf("%w: executable not allowed", ErrValidation)
)
