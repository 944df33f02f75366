package hooks

import (
	"fmt"
	"strings"
)

// Spec declares how a hook runs. Exactly one field is set.
type Spec struct {
	// Command is an argv executed directly (no shell unless argv[0] is one).
	Command []string
	// Lua is a snippet run in a sandboxed interpreter.
	Lua string
	// Callback names a Go function registered in a Registry.
	Callback string
}

// Kind reports which form the spec takes: "command", "lua" or "callback".
func (s *Spec) Kind() string {
	switch {
	case len(s.Command) > 0:
		return "command"
	case s.Lua != "":
		return "lua"
	case s.Callback != "":
		return "callback"
	}
	return ""
}

// Validate checks that exactly one hook form is configured.
func (s *Spec) Validate() error {
	var set []string
	if len(s.Command) > 0 {
		set = append(set, "command")
	}
	if s.Lua != "" {
		set = append(set, "lua")
	}
	if s.Callback != "" {
		set = append(set, "callback")
	}
	switch len(set) {
	case 0:
		return fmt.Errorf("hook must set one of command, lua or callback")
	case 1:
		return nil
	default:
		return fmt.Errorf("hook sets %s; only one is allowed", strings.Join(set, " and "))
	}
}

// String describes the hook for log output.
func (s *Spec) String() string {
	switch s.Kind() {
	case "command":
		return "command " + strings.Join(s.Command, " ")
	case "lua":
		return "lua snippet"
	case "callback":
		return "callback " + s.Callback
	}
	return "empty hook"
}
