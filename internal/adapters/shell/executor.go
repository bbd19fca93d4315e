// Package shell provides a PTY-based executor for running bootstrap commands
// and interactive sessions.
package shell

import (
	"bytes"
	"context"
	"errors"
	"io"
	"math"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/creack/pty"
	"go.trai.ch/envup/internal/core/domain"
	"go.trai.ch/envup/internal/core/ports"
	"go.trai.ch/zerr"
	"golang.org/x/term"
)

// Process represents a running command.
type Process interface {
	Wait() error
	Resize(rows, cols int) error
}

type ptyProcess struct {
	cmd    *exec.Cmd
	ptmx   *os.File
	ioDone <-chan struct{}
}

func (p *ptyProcess) Wait() error {
	err := p.cmd.Wait()

	// Let the copy loop drain what is left in the pty before returning
	<-p.ioDone

	return err
}

func (p *ptyProcess) Resize(rows, cols int) error {
	if rows > math.MaxUint16 || cols > math.MaxUint16 || rows < 0 || cols < 0 {
		return errors.New("terminal size out of bounds")
	}

	return pty.Setsize(p.ptmx, &pty.Winsize{
		Rows: uint16(rows),
		Cols: uint16(cols),
		X:    0,
		Y:    0,
	})
}

// Executor implements ports.Executor using os/exec and pty.
type Executor struct {
	logger ports.Logger
}

// NewExecutor creates a new shell executor.
func NewExecutor(logger ports.Logger) *Executor {
	return &Executor{
		logger: logger,
	}
}

// Start launches the command in a PTY and returns a Process to control and
// wait for it.
func (e *Executor) Start(
	ctx context.Context,
	command *domain.Command,
	env []string,
	stdout, stderr io.Writer,
) (Process, error) {
	stdoutLog := &logWriter{logger: e.logger, level: "info"}
	stderrLog := &logWriter{logger: e.logger, level: "error"}

	finalStdout := io.MultiWriter(stdoutLog, stdout)
	finalStderr := io.MultiWriter(stderrLog, stderr)

	return start(ctx, command, env, finalStdout, finalStderr, stdoutLog, stderrLog)
}

func start(
	ctx context.Context,
	command *domain.Command,
	env []string,
	stdout, _ io.Writer,
	stdoutLog, stderrLog *logWriter,
) (Process, error) {
	if command == nil || command.Name == "" {
		return nil, nil
	}

	cmdEnv := resolveEnvironment(os.Environ(), env, command.Env)

	cmd, err := buildCommand(ctx, command, cmdEnv)
	if err != nil {
		return nil, err
	}

	ptmx, err := pty.Start(cmd)
	if err != nil {
		return nil, zerr.Wrap(err, "failed to start pty")
	}

	ioDone := make(chan struct{})
	go func() {
		defer close(ioDone)
		defer func() { _ = ptmx.Close() }()
		defer func() {
			_ = stdoutLog.Close()
			_ = stderrLog.Close()
		}()

		// The PTY merges stdout and stderr into one stream
		_, _ = io.Copy(stdout, ptmx)
	}()

	return &ptyProcess{
		cmd:    cmd,
		ptmx:   ptmx,
		ioDone: ioDone,
	}, nil
}

// buildCommand constructs the exec.Cmd with the executable resolved against
// the provided environment's PATH, not the host PATH.
func buildCommand(ctx context.Context, command *domain.Command, cmdEnv []string) (*exec.Cmd, error) {
	executable := command.Name
	if !filepath.IsAbs(executable) {
		if lp, err := lookPath(executable, cmdEnv); err == nil {
			executable = lp
		}
	}

	cmd := exec.CommandContext(ctx, executable, command.Args...) //nolint:gosec // spec provided command

	if len(cmd.Args) > 0 {
		cmd.Args[0] = command.Name
	}

	if command.Dir != "" {
		cmd.Dir = command.Dir
	}

	cmd.Env = cmdEnv

	return cmd, nil
}

// Execute runs the command and waits for it to complete.
func (e *Executor) Execute(ctx context.Context, command *domain.Command, env []string, stdout, stderr io.Writer) error {
	proc, err := e.Start(ctx, command, env, stdout, stderr)
	if err != nil {
		return err
	}
	if proc == nil {
		return nil // Empty command
	}

	if span, ok := stdout.(interface{ MarkExecStart() }); ok {
		span.MarkExecStart()
	}

	if err := proc.Wait(); err != nil {
		var exitCode int
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			exitCode = exitErr.ExitCode()
		} else {
			exitCode = -1
		}
		return zerr.With(zerr.Wrap(err, "command failed"), "exit_code", exitCode)
	}

	return nil
}

// ExecuteInteractive runs the command attached to the user's terminal via a
// PTY, forwarding stdin, output and window resizes until the command exits.
// The command gets exactly the provided environment plus per-command
// overrides; the caller's process environment is not inherited.
func (e *Executor) ExecuteInteractive(ctx context.Context, command *domain.Command, env []string) error {
	if command == nil || command.Name == "" {
		return nil
	}

	cmdEnv := mergeCommandEnv(env, command.Env)

	cmd, err := buildCommand(ctx, command, cmdEnv)
	if err != nil {
		return err
	}

	ptmx, err := pty.Start(cmd)
	if err != nil {
		return zerr.Wrap(err, domain.ErrShellFailed.Error())
	}
	defer func() { _ = ptmx.Close() }()

	resizeCh := make(chan os.Signal, 1)
	signal.Notify(resizeCh, syscall.SIGWINCH)
	defer signal.Stop(resizeCh)

	go func() {
		for range resizeCh {
			_ = pty.InheritSize(os.Stdin, ptmx)
		}
	}()
	resizeCh <- syscall.SIGWINCH // initial size

	stdinFd := int(os.Stdin.Fd())
	if term.IsTerminal(stdinFd) {
		oldState, rawErr := term.MakeRaw(stdinFd)
		if rawErr != nil {
			return zerr.Wrap(rawErr, domain.ErrShellFailed.Error())
		}
		defer func() { _ = term.Restore(stdinFd, oldState) }()
	}

	go func() {
		_, _ = io.Copy(ptmx, os.Stdin)
	}()
	_, _ = io.Copy(os.Stdout, ptmx)

	if err := cmd.Wait(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			// A non-zero shell exit is the user's business, not a failure
			return nil
		}
		return zerr.Wrap(err, domain.ErrShellFailed.Error())
	}

	return nil
}

type logWriter struct {
	logger ports.Logger
	level  string
	buf    []byte
}

func (w *logWriter) Write(p []byte) (n int, err error) {
	w.buf = append(w.buf, p...)

	for {
		i := bytes.IndexByte(w.buf, '\n')
		if i < 0 {
			break
		}

		line := w.buf[:i]
		w.logLine(line)

		w.buf = w.buf[i+1:]
	}

	return len(p), nil
}

func (w *logWriter) Close() error {
	if len(w.buf) > 0 {
		w.logLine(w.buf)
		w.buf = nil
	}
	return nil
}

func (w *logWriter) logLine(line []byte) {
	msg := string(line)
	// PTYs may introduce \r. Remove it.
	msg = strings.TrimSuffix(msg, "\r")

	if w.level == "info" {
		w.logger.Info(msg)
	} else {
		w.logger.Error(zerr.New(msg))
	}
}

// allowListedEnvVars are the host environment variables that bootstrap
// commands may inherit. Everything else comes from the resolved tool
// environment so runs stay reproducible.
var allowListedEnvVars = map[string]struct{}{
	"HOME": {},
	"TERM": {},
	"USER": {},
	"PATH": {},
}

// resolveEnvironment merges environment variables with the defined priority:
// allow-listed host vars, then the resolved environment (PATH prepends), then
// per-command overrides.
func resolveEnvironment(sysEnv, toolEnv []string, cmdEnv map[string]string) []string {
	envMap := filterSystemEnv(sysEnv)

	applyToolEnv(envMap, toolEnv)

	for k, v := range cmdEnv {
		envMap[k] = v
	}

	result := make([]string, 0, len(envMap))
	for k, v := range envMap {
		result = append(result, k+"="+v)
	}
	return result
}

// mergeCommandEnv applies per-command overrides on top of an already resolved
// environment without consulting the host environment at all.
func mergeCommandEnv(env []string, overrides map[string]string) []string {
	envMap := make(map[string]string, len(env)+len(overrides))
	for _, entry := range env {
		k, v, ok := strings.Cut(entry, "=")
		if ok {
			envMap[k] = v
		}
	}

	for k, v := range overrides {
		envMap[k] = v
	}

	result := make([]string, 0, len(envMap))
	for k, v := range envMap {
		result = append(result, k+"="+v)
	}
	return result
}

func filterSystemEnv(sysEnv []string) map[string]string {
	envMap := make(map[string]string)
	for _, entry := range sysEnv {
		k, v, ok := strings.Cut(entry, "=")
		if ok {
			if _, allowed := allowListedEnvVars[k]; allowed {
				envMap[k] = v
			}
		}
	}
	return envMap
}

func applyToolEnv(envMap map[string]string, toolEnv []string) {
	for _, entry := range toolEnv {
		k, v, ok := strings.Cut(entry, "=")
		if ok {
			if k == "PATH" {
				if sysPath, exists := envMap["PATH"]; exists && sysPath != "" {
					envMap[k] = v + string(os.PathListSeparator) + sysPath
				} else {
					envMap[k] = v
				}
			} else {
				envMap[k] = v
			}
		}
	}
}

// lookPath searches for an executable in the directories named by the PATH
// entry of the given environment.
func lookPath(file string, env []string) (string, error) {
	var path string
	for _, e := range env {
		if strings.HasPrefix(e, "PATH=") {
			path = strings.TrimPrefix(e, "PATH=")
			break
		}
	}

	if path == "" {
		return "", exec.ErrNotFound
	}

	for _, dir := range filepath.SplitList(path) {
		if dir == "" {
			// Unix shell semantics: path element "" means "."
			dir = "."
		}
		path := filepath.Join(dir, file)
		if err := findExecutable(path); err == nil {
			return path, nil
		}
	}
	return "", exec.ErrNotFound
}

func findExecutable(file string) error {
	d, err := os.Stat(file)
	if err != nil {
		return err
	}
	if m := d.Mode(); !m.IsDir() && m&0o111 != 0 {
		return nil
	}
	return os.ErrPermission
}
