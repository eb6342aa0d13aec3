package supervisor

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/hugo-lorenzo-mato/engage/internal/core"
)

// Defaults for the automation runtime artifacts.
const (
	defaultExecutableName = "automation"
	defaultScriptName     = "automation.py"
)

// LaunchSpec describes one automation invocation.
type LaunchSpec struct {
	// ConfigPath is the staged config file handed to the script.
	ConfigPath string

	// Mode selects the bundled executable or the dev-mode script.
	Mode core.RunMode

	// ResourcesRoot is the packaged resources directory (bundled mode).
	ResourcesRoot string

	// AppRoot is the base directory for the dev-mode script search.
	AppRoot string

	// ExecutableName overrides the bundled executable name.
	ExecutableName string

	// ScriptName overrides the dev-mode script name.
	ScriptName string

	// Interpreter overrides the dev-mode interpreter binary.
	Interpreter string

	// Env holds extra environment variables for the subprocess.
	Env map[string]string
}

// invocation is a fully resolved command line.
type invocation struct {
	path       string
	args       []string
	mode       core.RunMode
	scriptPath string
}

// platformKey maps the Go platform onto the resource layout naming:
// platform in {win, mac, linux}, arch in {x64, ia32, arm64}.
func platformKey() (string, string) {
	var platform string
	switch runtime.GOOS {
	case "windows":
		platform = "win"
	case "darwin":
		platform = "mac"
	default:
		platform = "linux"
	}

	var arch string
	switch runtime.GOARCH {
	case "amd64":
		arch = "x64"
	case "386":
		arch = "ia32"
	case "arm64":
		arch = "arm64"
	default:
		arch = runtime.GOARCH
	}
	return platform, arch
}

// scriptCandidates is the fixed, ordered dev-mode search list.
func scriptCandidates(appRoot, script string) []string {
	return []string{
		filepath.Join(appRoot, "src", "resources", "scripts", script),
		filepath.Join(appRoot, "resources", "scripts", script),
		filepath.Join(appRoot, "scripts", script),
	}
}

func defaultInterpreter() string {
	if runtime.GOOS == "windows" {
		return "python"
	}
	return "python3"
}

// ResolveRuntime reports the executable or script a spec would launch,
// without launching it. Used by preflight checks.
func ResolveRuntime(spec LaunchSpec) (string, error) {
	inv, err := resolveInvocation(spec)
	if err != nil {
		return "", err
	}
	if inv.scriptPath != "" {
		return inv.scriptPath, nil
	}
	return inv.path, nil
}

// resolveInvocation turns a LaunchSpec into a concrete command line.
// Selection is made once per launch and is not user-configurable.
func resolveInvocation(spec LaunchSpec) (*invocation, error) {
	switch spec.Mode {
	case core.RunModeBundled:
		return resolveBundled(spec)
	case core.RunModeScript:
		return resolveScript(spec)
	default:
		return nil, core.ErrValidation(core.CodeInvalidConfig, fmt.Sprintf("unknown run mode %q", spec.Mode))
	}
}

func resolveBundled(spec LaunchSpec) (*invocation, error) {
	name := spec.ExecutableName
	if name == "" {
		name = defaultExecutableName
	}
	platform, arch := platformKey()
	if platform == "win" {
		name += ".exe"
	}

	path := filepath.Join(spec.ResourcesRoot, "python-executables", platform+"-"+arch, name)
	if _, err := os.Stat(path); err != nil {
		return nil, core.ErrRuntimeMissing(path).WithCause(err)
	}

	return &invocation{
		path: path,
		args: []string{"--config", spec.ConfigPath},
		mode: core.RunModeBundled,
	}, nil
}

func resolveScript(spec LaunchSpec) (*invocation, error) {
	script := spec.ScriptName
	if script == "" {
		script = defaultScriptName
	}

	candidates := scriptCandidates(spec.AppRoot, script)
	var scriptPath string
	for _, candidate := range candidates {
		if _, err := os.Stat(candidate); err == nil {
			scriptPath = candidate
			break
		}
	}
	if scriptPath == "" {
		return nil, core.ErrScriptNotFound(script, candidates)
	}

	interpreter := spec.Interpreter
	if interpreter == "" {
		interpreter = defaultInterpreter()
	}

	return &invocation{
		path:       interpreter,
		args:       []string{scriptPath, "--config", spec.ConfigPath},
		mode:       core.RunModeScript,
		scriptPath: scriptPath,
	}, nil
}
