//go:build windows

package cmd

import (
	"context"

	"github.com/vanpelt/agentdeck/internal/client"
)

func watchResize(context.Context, *client.Client, string) func() {
	return func() {}
}
