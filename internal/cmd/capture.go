package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/vanpelt/agentdeck/internal/client"
)

var (
	captureOutput   string
	captureDuration time.Duration
)

var captureCmd = &cobra.Command{
	Use:   "capture <session-id>",
	Short: "🎥 Record a session's output to a JSON fixture",
	Long: `# 🎥 Capture

**Record the output of a running session with millisecond timestamps.**

Recording stops when the session exits, after **--duration**, or on Ctrl-C.
The capture is written as JSON with one event per output chunk.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runCapture(cmd, args[0])
	},
}

func init() {
	captureCmd.Flags().StringVarP(&captureOutput, "output", "o", "pty-capture.json", "output file")
	captureCmd.Flags().DurationVar(&captureDuration, "duration", 0, "stop after this long (0 = until exit)")
	rootCmd.AddCommand(captureCmd)
}

func runCapture(cmd *cobra.Command, id string) error {
	c, err := newClient()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	if captureDuration > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, captureDuration)
		defer cancel()
	}

	recorder := client.NewRecorder(id)
	stream := c.Attach(id)
	stream.SetMessageHandler(recorder.Record)
	if err := stream.Connect(ctx); err != nil {
		return err
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "🔴 Recording %s (Ctrl-C to stop)\n", id)

	select {
	case <-stream.Done():
	case <-ctx.Done():
	}
	_ = stream.Close()

	capture := recorder.Finish()
	file, err := os.Create(captureOutput)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer file.Close()
	if err := capture.WriteJSON(file); err != nil {
		return fmt.Errorf("failed to encode capture: %w", err)
	}

	fmt.Fprintf(cmd.ErrOrStderr(), "✅ Saved %s: %d events, %d bytes, %.2fs\n",
		captureOutput, len(capture.Events), capture.TotalBytes, capture.DurationSeconds)
	return nil
}
