package handlers

import (
	"errors"
	"fmt"
	"unicode"
	"unicode/utf8"

	"github.com/gofiber/fiber/v2"
	"github.com/vanpelt/agentdeck/internal/logger"
	"github.com/vanpelt/agentdeck/internal/sessions"
	"github.com/vanpelt/agentdeck/internal/worktree"
)

// MaxInputBytes caps a single remote input message.
const MaxInputBytes = 4096

// ErrInvalidInput is returned for remote input that is too large, is not
// UTF-8, or carries control characters other than tab and newline.
var ErrInvalidInput = fmt.Errorf("%w: invalid input", sessions.ErrValidation)

// ValidateInput checks a remote input message before it reaches a PTY.
func ValidateInput(data string) error {
	if len(data) > MaxInputBytes {
		return fmt.Errorf("%w: %d bytes exceeds %d", ErrInvalidInput, len(data), MaxInputBytes)
	}
	if !utf8.ValidString(data) {
		return fmt.Errorf("%w: not valid UTF-8", ErrInvalidInput)
	}
	for i, r := range data {
		if r == '\t' || r == '\n' {
			continue
		}
		if unicode.IsControl(r) {
			return fmt.Errorf("%w: control character %U at byte %d", ErrInvalidInput, r, i)
		}
	}
	return nil
}

// statusFor maps domain errors onto HTTP status codes.
func statusFor(err error) int {
	var fe *fiber.Error
	switch {
	case errors.As(err, &fe):
		return fe.Code
	case errors.Is(err, sessions.ErrNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, sessions.ErrValidation):
		return fiber.StatusBadRequest
	case errors.Is(err, sessions.ErrCapacityExceeded):
		return fiber.StatusTooManyRequests
	case errors.Is(err, worktree.ErrNotGitRepo):
		return fiber.StatusBadRequest
	case errors.Is(err, worktree.ErrGit):
		return fiber.StatusConflict
	default:
		return fiber.StatusInternalServerError
	}
}

// ErrorHandler renders every error as {"error": "..."}.
func ErrorHandler(c *fiber.Ctx, err error) error {
	code := statusFor(err)
	if code >= fiber.StatusInternalServerError {
		logger.Errorf("❌ %s %s: %v", c.Method(), c.Path(), err)
	}
	return c.Status(code).JSON(fiber.Map{"error": err.Error()})
}
