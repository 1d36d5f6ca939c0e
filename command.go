package procio

import (
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strings"
)

// Command describes the process to launch.
//
// Command is a value type: Start clones it, so later changes by the caller
// do not affect a running process.
type Command struct {
	// Path is the executable. It must name an existing regular file; a
	// relative path is resolved against the current working directory.
	Path string `json:"path"`

	// Dir is the working directory. Empty inherits the caller's working
	// directory; StartInExecutableDir overrides it with Path's directory.
	Dir string `json:"dir,omitempty"`

	// Args are the arguments passed after the executable, in order.
	Args []string `json:"args,omitempty"`

	// Env holds variables set on top of the inherited environment.
	// nil inherits the parent environment unchanged.
	Env map[string]string `json:"env,omitempty"`
}

// Clone returns a deep copy of c.
func (c Command) Clone() Command {
	c.Args = slices.Clone(c.Args)
	c.Env = maps.Clone(c.Env)
	return c
}

// InExecutableDir returns a copy of c whose Dir is the directory holding
// the executable.
func (c Command) InExecutableDir() Command {
	c = c.Clone()
	if abs, err := filepath.Abs(c.Path); err == nil {
		c.Dir = filepath.Dir(abs)
	} else {
		c.Dir = filepath.Dir(c.Path)
	}
	return c
}

// validateEnv rejects keys that would corrupt the environment block.
func validateEnv(env map[string]string) error {
	for k, v := range env {
		if k == "" {
			return fmt.Errorf("%w: empty key", ErrInvalidEnv)
		}
		if strings.ContainsAny(k, "=\x00") {
			return fmt.Errorf("%w: key %q contains '=' or NUL", ErrInvalidEnv, k)
		}
		if strings.Contains(v, "\x00") {
			return fmt.Errorf("%w: value of %q contains NUL", ErrInvalidEnv, k)
		}
	}
	return nil
}

// mergeEnv overlays env on base. Overridden keys are removed from base and
// the overrides are appended in sorted order. nil env returns nil so the
// child inherits the parent environment.
func mergeEnv(base []string, env map[string]string) []string {
	if env == nil {
		return nil
	}
	merged := make([]string, 0, len(base)+len(env))
	for _, kv := range base {
		k, _, _ := strings.Cut(kv, "=")
		if _, override := env[k]; !override {
			merged = append(merged, kv)
		}
	}
	for _, k := range slices.Sorted(maps.Keys(env)) {
		merged = append(merged, k+"="+env[k])
	}
	return merged
}

func environ(env map[string]string) []string {
	return mergeEnv(os.Environ(), env)
}
