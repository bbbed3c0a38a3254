package buildsys

import (
	"os"
	"os/exec"
	"sort"
	"strings"

	"github.com/goplus/llvmlibc/config"
)

// BuildSystem is a configured handle on an external meta-build tool.
// Definitions and environment are collected first; the tool is configured
// lazily on the first BuildTarget call.
type BuildSystem interface {
	config.Definer

	// Env sets key=value for every command the handle spawns.
	Env(key, val string)

	// Target sets the platform triple to compile for.
	Target(triple string)

	// BuildTarget builds one named target and returns the output root.
	BuildTarget(name string) (string, error)

	// Where artifacts land.
	OutputDir() string
}

// Runner executes a prepared command and waits for it.
type Runner func(cmd *exec.Cmd) error

// Run is the default Runner.
func Run(cmd *exec.Cmd) error {
	return cmd.Run()
}

// Command prepares bin with args, wiring stdio to the process and layering
// env over the inherited environment.
func Command(bin string, args []string, env map[string]string) *exec.Cmd {
	cmd := exec.Command(bin, args...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if len(env) > 0 {
		cmd.Env = MergeEnv(os.Environ(), env)
	}
	return cmd
}

// MergeEnv overlays override on base and returns the sorted KEY=VALUE list.
func MergeEnv(base []string, override map[string]string) []string {
	envMap := make(map[string]string, len(base))
	for _, kv := range base {
		if k, v, ok := strings.Cut(kv, "="); ok {
			envMap[k] = v
		}
	}
	for k, v := range override {
		envMap[k] = v
	}
	keys := make([]string, 0, len(envMap))
	for k := range envMap {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		out = append(out, k+"="+envMap[k])
	}
	return out
}
