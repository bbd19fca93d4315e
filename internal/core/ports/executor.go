package ports

import (
	"context"
	"io"

	"go.trai.ch/envup/internal/core/domain"
)

// Executor defines the interface for running external processes.
//
//go:generate mockgen -source=executor.go -destination=mocks/mock_executor.go -package=mocks
type Executor interface {
	// Execute runs the command with the specified environment and waits for
	// it to complete. The env parameter contains environment variables in
	// "KEY=VALUE" format; the command does not inherit the full process
	// environment.
	Execute(ctx context.Context, cmd *domain.Command, env []string, stdout, stderr io.Writer) error

	// ExecuteInteractive runs the command attached to the user's terminal via
	// a PTY, forwarding stdin and window resizes until the command exits.
	ExecuteInteractive(ctx context.Context, cmd *domain.Command, env []string) error
}
