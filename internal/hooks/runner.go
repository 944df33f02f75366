// Package hooks runs the post_install and verify extension points.
//
// A hook is declared in the package descriptor as one of:
//
//	post_install = { command = ["sh", "-c", "..."] }
//	verify = { lua = "if args.version == '' then error('no version') end" }
//	verify = { callback = "version-output" }
//
// Commands receive their arguments as GHREL_* environment variables. Lua
// snippets run in a sandboxed VM with read-only "platform" and "args"
// tables. Callbacks are Go functions registered in a Registry; the ghrel
// binary ships the ones in NewBuiltinRegistry. Any error or
// panic becomes an errs.Hook failure for that package; it never aborts the
// run.
package hooks

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"sort"
	"strings"

	lua "github.com/yuin/gopher-lua"

	"github.com/samuelstevens/ghrel/internal/errs"
	"github.com/samuelstevens/ghrel/internal/logging"
	"github.com/samuelstevens/ghrel/internal/platform"
)

const (
	PostInstall = "post_install"
	Verify      = "verify"
)

// Runner executes hooks.
type Runner struct {
	registry *Registry
	platform *platform.Info
	logger   logging.Logger
}

// NewRunner creates a runner. registry may be nil when no callbacks exist.
func NewRunner(registry *Registry, info *platform.Info, logger logging.Logger) *Runner {
	return &Runner{registry: registry, platform: info, logger: logging.OrNop(logger)}
}

// PostInstall runs spec with args. A nil spec is a no-op.
func (r *Runner) PostInstall(ctx context.Context, spec *Spec, args PostInstallArgs) error {
	return r.run(ctx, PostInstall, spec, args.values())
}

// Verify runs spec with args. A nil spec is a no-op.
func (r *Runner) Verify(ctx context.Context, spec *Spec, args VerifyArgs) error {
	return r.run(ctx, Verify, spec, args.values())
}

func (r *Runner) run(ctx context.Context, hook string, spec *Spec, args map[string]string) (err error) {
	if spec == nil {
		return nil
	}
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("panic: %v", p)
		}
		if err != nil {
			err = errs.Wrap(errs.Hook, err, "%s failed: %v", hook, err)
		}
	}()

	r.logger.Debug("running hook", "hook", hook, "spec", spec.String())
	switch spec.Kind() {
	case "command":
		return r.runCommand(ctx, hook, spec.Command, args)
	case "lua":
		return r.runLua(ctx, hook, spec.Lua, args)
	case "callback":
		fn, ok := r.registry.Lookup(spec.Callback)
		if !ok {
			if names := r.registry.Names(); len(names) > 0 {
				return fmt.Errorf("no callback registered as %q (have: %s)", spec.Callback, strings.Join(names, ", "))
			}
			return fmt.Errorf("no callback registered as %q", spec.Callback)
		}
		return fn(ctx, args)
	default:
		return spec.Validate()
	}
}

// envName maps an argument key to its environment variable.
func envName(key string) string {
	return "GHREL_" + strings.ToUpper(key)
}

func (r *Runner) runCommand(ctx context.Context, hook string, argv []string, args map[string]string) error {
	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)

	keys := make([]string, 0, len(args))
	for k := range args {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	env := append(os.Environ(), "GHREL_HOOK="+hook)
	for _, k := range keys {
		env = append(env, envName(k)+"="+args[k])
	}
	cmd.Env = env
	if dir := args["bin_dir"]; dir != "" {
		cmd.Dir = dir
	}

	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out

	err := cmd.Run()
	r.logger.Debug("hook output", "hook", hook, "output", strings.TrimSpace(out.String()))
	if err != nil {
		if msg := lastLine(out.String()); msg != "" {
			return fmt.Errorf("%w: %s", err, msg)
		}
		return err
	}
	return nil
}

func lastLine(s string) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	return strings.TrimSpace(lines[len(lines)-1])
}

func (r *Runner) runLua(ctx context.Context, hook, code string, args map[string]string) error {
	L := newSandboxedVM()
	defer L.Close()
	L.SetContext(ctx)

	if r.platform != nil {
		platform.InjectPlatformTable(L, r.platform)
	}
	t := L.NewTable()
	for k, v := range args {
		L.SetField(t, k, lua.LString(v))
	}
	L.SetField(t, "hook", lua.LString(hook))
	L.SetGlobal("args", platform.ReadOnly(L, t, "args"))

	if err := L.DoString(code); err != nil {
		if apiErr, ok := err.(*lua.ApiError); ok && apiErr.Object != nil {
			return fmt.Errorf("%s", apiErr.Object.String())
		}
		return err
	}
	return nil
}
