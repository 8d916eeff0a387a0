package agents

import (
	"path/filepath"
	"sort"
	"strings"
)

// allowedBinaries is the fixed set of executables a session may run.
// Anything else would turn the session manager into a generic
// remote-exec primitive.
var allowedBinaries = map[string]struct{}{
	// interactive shells
	"bash": {},
	"zsh":  {},
	"sh":   {},
	"fish": {},
	"dash": {},
	"ksh":  {},
	"tcsh": {},
	"nu":   {},
	"pwsh": {},

	// agent CLIs
	"claude":       {},
	"codex":        {},
	"gemini":       {},
	"aider":        {},
	"opencode":     {},
	"amp":          {},
	"goose":        {},
	"cursor-agent": {},
	"qwen":         {},
	"copilot":      {},
}

// IsAllowed reports whether the final path component of pathOrName is a
// permitted binary. A trailing ".exe" is ignored.
func IsAllowed(pathOrName string) bool {
	if strings.TrimSpace(pathOrName) == "" {
		return false
	}
	normalized := strings.ReplaceAll(pathOrName, `\`, "/")
	if strings.HasSuffix(normalized, "/") {
		return false
	}
	base := filepath.Base(normalized)
	base = strings.TrimSuffix(base, ".exe")
	_, ok := allowedBinaries[base]
	return ok
}

// AllowedBinaries returns the allowlist in sorted order.
func AllowedBinaries() []string {
	names := make([]string, 0, len(allowedBinaries))
	for name := range allowedBinaries {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
