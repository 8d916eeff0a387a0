package recovery

import (
	"runtime/debug"

	"github.com/vanpelt/agentdeck/internal/logger"
)

// SafeGo runs fn in a goroutine. A panic is logged with its stack and
// ends only that goroutine.
func SafeGo(name string, fn func()) {
	go Run(name, fn)
}

// SafeGoWithCleanup is SafeGo with a cleanup that runs whether fn returns
// or panics.
func SafeGoWithCleanup(name string, fn func(), cleanup func()) {
	go func() {
		if cleanup != nil {
			defer cleanup()
		}
		Run(name, fn)
	}()
}

// Run calls fn on the current goroutine and swallows a panic, reporting
// whether one happened.
func Run(name string, fn func()) (panicked bool) {
	defer func() {
		if r := recover(); r != nil {
			panicked = true
			logger.Logger.Error().
				Str("goroutine", name).
				Interface("panic", r).
				Bytes("stack", debug.Stack()).
				Msg("🚨 PANIC recovered")
		}
	}()
	fn()
	return false
}
