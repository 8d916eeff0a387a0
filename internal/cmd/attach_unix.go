//go:build !windows

package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/vanpelt/agentdeck/internal/client"
	"github.com/vanpelt/agentdeck/internal/logger"
	"github.com/vanpelt/agentdeck/internal/recovery"
)

// watchResize forwards SIGWINCH to the session until the returned func is
// called.
func watchResize(ctx context.Context, c *client.Client, id string) func() {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGWINCH)
	done := make(chan struct{})

	recovery.SafeGo("attach-resize", func() {
		for {
			select {
			case <-sigCh:
				cols, rows := terminalSize()
				if cols == 0 {
					continue
				}
				if err := c.Resize(ctx, id, cols, rows); err != nil {
					logger.Debugf("Resize %s failed: %v", id, err)
				}
			case <-done:
				return
			}
		}
	})

	return func() {
		signal.Stop(sigCh)
		close(done)
	}
}
