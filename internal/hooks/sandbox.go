package hooks

import (
	lua "github.com/yuin/gopher-lua"
)

// sandbox strips a Lua VM down to pure computation. Hooks keep string,
// table and math plus the basic functions (type, tostring, pairs, error,
// ...). Everything that reaches the host is removed:
//   - os and io (commands, files, environment)
//   - require, dofile, loadfile, load, loadstring (loading code)
//   - debug, rawset, rawget, setmetatable, getmetatable (could be used to
//     bypass the sandbox or the read-only tables)
//   - collectgarbage
func sandbox(L *lua.LState) {
	for _, name := range []string{
		"os", "io",
		"require", "dofile", "loadfile", "load", "loadstring",
		"debug", "rawset", "rawget", "setmetatable", "getmetatable",
		"collectgarbage",
	} {
		L.SetGlobal(name, lua.LNil)
	}
}

// newSandboxedVM creates a Lua VM with sandboxing applied.
func newSandboxedVM() *lua.LState {
	L := lua.NewState()
	sandbox(L)
	return L
}
