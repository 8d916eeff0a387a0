package cmd

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"github.com/vanpelt/agentdeck/internal/client"
	"github.com/vanpelt/agentdeck/internal/events"
	"github.com/vanpelt/agentdeck/internal/sessions"
	"golang.org/x/term"
)

var (
	attachSession string
	attachExec    string
	attachCwd     string
	attachPrompt  string
	attachKeep    bool
)

var attachCmd = &cobra.Command{
	Use:   "attach [agent-type] [-- args...]",
	Short: "🔗 Launch or join a session and stream it here",
	Long: `# 🔗 Attach

**Start a new agent session on the server, or join one with --session, and
stream its terminal to this one.**

Input is sent a line at a time. When stdin closes the session is
terminated unless **--keep** is given.

## 💡 Examples

` + "```bash\nagentdeck attach claude\nagentdeck attach gemini --prompt \"write tests for main.go\"\nagentdeck attach --exec bash --cwd ~/src/app\nagentdeck attach --session 6c1f...\n```",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runAttach(cmd.Context(), cmd, args)
	},
}

func init() {
	attachCmd.Flags().StringVar(&attachSession, "session", "", "join an existing session instead of launching one")
	attachCmd.Flags().StringVar(&attachExec, "exec", "", "allowlisted executable to run instead of an agent profile")
	attachCmd.Flags().StringVar(&attachCwd, "cwd", "", "working directory (default home)")
	attachCmd.Flags().StringVar(&attachPrompt, "prompt", "", "initial prompt for the agent")
	attachCmd.Flags().BoolVar(&attachKeep, "keep", false, "leave the session running when stdin closes")
	rootCmd.AddCommand(attachCmd)
}

func terminalSize() (cols, rows uint16) {
	fd := os.Stdout.Fd()
	if !isatty.IsTerminal(fd) {
		return 0, 0
	}
	w, h, err := term.GetSize(int(fd))
	if err != nil || w <= 0 || h <= 0 {
		return 0, 0
	}
	return uint16(w), uint16(h)
}

func runAttach(ctx context.Context, cmd *cobra.Command, args []string) error {
	c, err := newClient()
	if err != nil {
		return err
	}
	cols, rows := terminalSize()

	id := attachSession
	if id == "" {
		req := sessions.LaunchRequest{
			Executable:    attachExec,
			Cwd:           attachCwd,
			Cols:          cols,
			Rows:          rows,
			InitialPrompt: attachPrompt,
		}
		if len(args) > 0 {
			req.AgentType = args[0]
			req.Args = args[1:]
		}
		if req.AgentType == "" && req.Executable == "" {
			return fmt.Errorf("an agent type or --exec is required")
		}
		id, err = c.Launch(ctx, req)
		if err != nil && id == "" {
			return err
		}
		if err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "warning: %v\n", err)
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "session %s\n", id)
	} else if cols > 0 {
		if err := c.Resize(ctx, id, cols, rows); err != nil {
			return err
		}
	}

	stream := c.Attach(id)
	exitCode := -1
	out := cmd.OutOrStdout()
	stream.SetMessageHandler(func(m client.StreamMessage) {
		switch {
		case m.Error != "":
			fmt.Fprintf(cmd.ErrOrStderr(), "\r\n[rejected: %s]\r\n", m.Error)
		case m.Type == events.TypeOutput:
			if b, err := m.Bytes(); err == nil {
				_, _ = out.Write(b)
			}
		case m.Type == events.TypeExit && m.ExitCode != nil:
			exitCode = *m.ExitCode
		}
	})
	stream.SetErrorHandler(func(err error) {
		fmt.Fprintf(cmd.ErrOrStderr(), "\r\nstream error: %v\r\n", err)
	})
	if err := stream.Connect(ctx); err != nil {
		return err
	}
	defer stream.Close()

	stopResize := watchResize(ctx, c, id)
	defer stopResize()

	stdinDone := make(chan error, 1)
	go func() { stdinDone <- pumpLines(cmd.InOrStdin(), stream) }()

	select {
	case <-stream.Done():
		fmt.Fprintf(cmd.ErrOrStderr(), "\r\nsession %s exited with code %d\r\n", id, exitCode)
		return nil
	case err := <-stdinDone:
		if err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "stdin: %v\n", err)
		}
		if attachKeep {
			fmt.Fprintf(cmd.ErrOrStderr(), "detached from %s\n", id)
			return nil
		}
		return c.Terminate(context.Background(), id)
	case <-ctx.Done():
		return ctx.Err()
	}
}

// pumpLines forwards stdin a line at a time until EOF.
func pumpLines(r io.Reader, stream *client.Stream) error {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		if err := stream.Send(scanner.Text() + "\n"); err != nil {
			return err
		}
	}
	return scanner.Err()
}
