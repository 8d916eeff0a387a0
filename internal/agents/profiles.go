// Package agents maps logical agent identifiers onto the binaries that
// implement them and guards which executables a session may start.
package agents

import (
	"errors"
	"fmt"
	"sort"
)

// ErrUnknownAgent is returned by Resolve for an unregistered agent type.
var ErrUnknownAgent = errors.New("unknown agent")

// Profile describes how to start one kind of agent.
type Profile struct {
	Binary      string
	DefaultArgs []string
	// PromptFlag, when set, carries an initial prompt on the command line
	// as [PromptFlag, prompt]. Empty means the agent has no such flag.
	PromptFlag string
}

var profiles = map[string]Profile{
	"claude":       {Binary: "claude"},
	"codex":        {Binary: "codex"},
	"gemini":       {Binary: "gemini", PromptFlag: "--prompt-interactive"},
	"aider":        {Binary: "aider", PromptFlag: "--message"},
	"opencode":     {Binary: "opencode", PromptFlag: "--prompt"},
	"amp":          {Binary: "amp"},
	"goose":        {Binary: "goose", DefaultArgs: []string{"session"}},
	"cursor-agent": {Binary: "cursor-agent"},
	"qwen":         {Binary: "qwen", PromptFlag: "--prompt-interactive"},
	"bash":         {Binary: "bash", DefaultArgs: []string{"--login"}},
	"zsh":          {Binary: "zsh", DefaultArgs: []string{"--login"}},
	"fish":         {Binary: "fish"},
	"sh":           {Binary: "sh"},
}

// Resolve returns the profile registered for agentType. The returned
// value is a copy; callers may not mutate the catalog through it.
func Resolve(agentType string) (Profile, error) {
	p, ok := profiles[agentType]
	if !ok {
		return Profile{}, fmt.Errorf("%w: %q", ErrUnknownAgent, agentType)
	}
	p.DefaultArgs = append([]string(nil), p.DefaultArgs...)
	return p, nil
}

// Args builds the argument list for a launch: default args, caller args,
// and the prompt flag pair when the profile has one and prompt is set.
// The second result reports whether the prompt was placed on the command
// line.
func (p Profile) Args(extra []string, prompt string) ([]string, bool) {
	args := make([]string, 0, len(p.DefaultArgs)+len(extra)+2)
	args = append(args, p.DefaultArgs...)
	args = append(args, extra...)
	if prompt != "" && p.PromptFlag != "" {
		return append(args, p.PromptFlag, prompt), true
	}
	return args, false
}

// NamedProfile pairs an agent type with its profile.
type NamedProfile struct {
	AgentType string
	Profile
}

// Profiles returns the catalog sorted by agent type.
func Profiles() []NamedProfile {
	out := make([]NamedProfile, 0, len(profiles))
	for name := range profiles {
		p, _ := Resolve(name)
		out = append(out, NamedProfile{AgentType: name, Profile: p})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].AgentType < out[j].AgentType })
	return out
}
