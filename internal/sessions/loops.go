package sessions

import (
	"errors"
	"io"
	"os"
	"syscall"

	"github.com/vanpelt/agentdeck/internal/events"
	"github.com/vanpelt/agentdeck/internal/logger"
	"github.com/vanpelt/agentdeck/internal/recovery"
)

const readBufferSize = 4096

func (m *Manager) startLoops(e *entry, reader io.Reader) {
	id := e.info.ID
	recovery.SafeGo("pty-reader-"+id, func() { m.readLoop(e, reader) })
	recovery.SafeGo("exit-watcher-"+id, func() { m.watchExit(e) })
}

// readLoop forwards terminal output until the PTY hangs up or is closed.
func (m *Manager) readLoop(e *entry, reader io.Reader) {
	log := logger.WithSession(e.info.ID)
	buf := make([]byte, readBufferSize)
	for {
		n, err := reader.Read(buf)
		if n > 0 {
			chunk := make([]byte, n)
			copy(chunk, buf[:n])
			m.sink.Publish(events.Output(e.info.ID, chunk))
		}
		if err != nil {
			if isHangup(err) {
				log.Debug().Err(err).Msg("📭 PTY reader finished")
			} else {
				log.Warn().Err(err).Msg("⚠️ PTY read failed")
			}
			return
		}
	}
}

// isHangup reports errors that mean the other side of the terminal went
// away rather than something breaking.
func isHangup(err error) bool {
	return errors.Is(err, io.EOF) ||
		errors.Is(err, io.ErrClosedPipe) ||
		errors.Is(err, os.ErrClosed) ||
		errors.Is(err, syscall.EIO)
}

// watchExit blocks until the child is reaped, then records the exit and
// announces it. The entry stays registered until the next cleanup pass.
func (m *Manager) watchExit(e *entry) {
	log := logger.WithSession(e.info.ID)
	status, err := e.child.Wait()
	if err != nil {
		log.Warn().Err(err).Msg("⚠️ Waiting for session process failed")
		e.status.terminate(EndExited, nil)
		m.sink.Publish(events.Exit(e.info.ID, nil, ""))
		return
	}

	code := status.Code
	e.status.terminate(EndExited, &code)
	log.Info().Int("exit_code", code).Str("signal", status.Signal).Msg("🏁 Session process exited")
	m.sink.Publish(events.Exit(e.info.ID, &code, status.Signal))
}
