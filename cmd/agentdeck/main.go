package main

import "github.com/vanpelt/agentdeck/internal/cmd"

func main() {
	cmd.Execute()
}
