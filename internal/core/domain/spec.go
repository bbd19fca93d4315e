// Package domain holds the core types of the environment bootstrapper.
package domain

import (
	"path/filepath"
	"strings"
)

// PythonAlias is the reserved tool alias for the venv interpreter.
const PythonAlias = "python"

// EnvSpec is the environment specification loaded from envup.yaml.
// It is immutable once loaded for the duration of one bootstrap run.
type EnvSpec struct {
	// Root is the absolute path of the project root (the directory containing envup.yaml).
	Root string

	// Python is the interpreter tool spec used to create the venv (e.g. "python@3.12").
	Python string

	// VenvDir is the absolute path of the isolated environment directory.
	VenvDir string

	// Manifest is the absolute path of the dependency manifest file.
	Manifest string

	// Shell is the interactive shell override. Empty means $SHELL, then /bin/bash.
	Shell string

	// Tools maps aliases to tool specs ("package@version"). Includes the
	// interpreter under the PythonAlias key.
	Tools map[string]string

	// Environment holds extra variables for the activated session.
	Environment map[string]string
}

// PythonBinary returns the path of the venv interpreter.
func (s *EnvSpec) PythonBinary() string {
	return filepath.Join(s.VenvDir, "bin", "python")
}

// BinDir returns the venv bin directory prepended to PATH on activation.
func (s *EnvSpec) BinDir() string {
	return filepath.Join(s.VenvDir, "bin")
}

// ShellCommand returns the interactive shell to hand the user, honoring the
// spec override, then the ambient SHELL variable, then /bin/bash.
func (s *EnvSpec) ShellCommand(ambientShell string) string {
	if s.Shell != "" {
		return s.Shell
	}
	if ambientShell != "" {
		return ambientShell
	}
	return "/bin/bash"
}

// SplitToolSpec splits a "package@version" spec into its parts.
// Returns ok=false when the spec does not contain exactly one @.
func SplitToolSpec(spec string) (pkg, version string, ok bool) {
	pkg, version, ok = strings.Cut(spec, "@")
	if !ok || pkg == "" || version == "" {
		return "", "", false
	}
	return pkg, version, true
}

// Command describes an external process invocation.
type Command struct {
	// Name is the executable name or path; Args are its arguments.
	Name string
	Args []string

	// Dir is the working directory. Empty means the current directory.
	Dir string

	// Env holds per-command variable overrides applied last.
	Env map[string]string
}

// Argv returns the full argument vector of the command.
func (c *Command) Argv() []string {
	return append([]string{c.Name}, c.Args...)
}
