package commands_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/envup/cmd/envup/commands"
	"go.trai.ch/envup/internal/app"
	"go.trai.ch/envup/internal/build"
)

type mockApp struct {
	upFunc     func(ctx context.Context, opts app.UpOptions) error
	shellFunc  func(ctx context.Context) error
	statusFunc func(ctx context.Context, out io.Writer) error
	cleanFunc  func(ctx context.Context, opts app.CleanOptions) error
}

func (m *mockApp) Up(ctx context.Context, opts app.UpOptions) error {
	if m.upFunc != nil {
		return m.upFunc(ctx, opts)
	}
	return nil
}

func (m *mockApp) Shell(ctx context.Context) error {
	if m.shellFunc != nil {
		return m.shellFunc(ctx)
	}
	return nil
}

func (m *mockApp) Status(ctx context.Context, out io.Writer) error {
	if m.statusFunc != nil {
		return m.statusFunc(ctx, out)
	}
	return nil
}

func (m *mockApp) Clean(ctx context.Context, opts app.CleanOptions) error {
	if m.cleanFunc != nil {
		return m.cleanFunc(ctx, opts)
	}
	return nil
}

func TestCommands_Up(t *testing.T) {
	t.Run("wires flags correctly", func(t *testing.T) {
		var capturedOpts app.UpOptions
		called := false

		mock := &mockApp{
			upFunc: func(_ context.Context, opts app.UpOptions) error {
				capturedOpts = opts
				called = true
				return nil
			},
		}

		cli := commands.New(mock)
		cli.SetArgs([]string{"up", "--no-shell", "--if-changed", "--output-mode", "linear"})

		err := cli.Execute(context.Background())
		require.NoError(t, err)
		assert.True(t, called)
		assert.True(t, capturedOpts.NoShell)
		assert.True(t, capturedOpts.IfChanged)
		assert.False(t, capturedOpts.Watch)
		assert.Equal(t, "linear", capturedOpts.OutputMode)
	})

	t.Run("ci flag forces linear output without a shell", func(t *testing.T) {
		var capturedOpts app.UpOptions

		mock := &mockApp{
			upFunc: func(_ context.Context, opts app.UpOptions) error {
				capturedOpts = opts
				return nil
			},
		}

		cli := commands.New(mock)
		cli.SetArgs([]string{"up", "--ci"})

		require.NoError(t, cli.Execute(context.Background()))
		assert.Equal(t, "linear", capturedOpts.OutputMode)
		assert.True(t, capturedOpts.NoShell)
	})

	t.Run("watch flag propagates", func(t *testing.T) {
		var capturedOpts app.UpOptions

		mock := &mockApp{
			upFunc: func(_ context.Context, opts app.UpOptions) error {
				capturedOpts = opts
				return nil
			},
		}

		cli := commands.New(mock)
		cli.SetArgs([]string{"up", "--watch"})

		require.NoError(t, cli.Execute(context.Background()))
		assert.True(t, capturedOpts.Watch)
	})

	t.Run("returns error on bootstrap failure", func(t *testing.T) {
		mock := &mockApp{
			upFunc: func(_ context.Context, _ app.UpOptions) error {
				return errors.New("simulated error")
			},
		}

		cli := commands.New(mock)
		cli.SetArgs([]string{"up"})
		cli.SetOutput(new(bytes.Buffer), new(bytes.Buffer))

		err := cli.Execute(context.Background())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "simulated error")
	})
}

func TestCommands_Shell(t *testing.T) {
	called := false
	mock := &mockApp{
		shellFunc: func(_ context.Context) error {
			called = true
			return nil
		},
	}

	cli := commands.New(mock)
	cli.SetArgs([]string{"shell"})

	require.NoError(t, cli.Execute(context.Background()))
	assert.True(t, called)
}

func TestCommands_Status(t *testing.T) {
	mock := &mockApp{
		statusFunc: func(_ context.Context, out io.Writer) error {
			_, err := out.Write([]byte("state: ready\n"))
			return err
		},
	}

	cli := commands.New(mock)
	buf := new(bytes.Buffer)
	cli.SetOutput(buf, buf)
	cli.SetArgs([]string{"status"})

	require.NoError(t, cli.Execute(context.Background()))
	assert.Contains(t, buf.String(), "state: ready")
}

func TestCommands_Clean(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want app.CleanOptions
	}{
		{
			name: "default removes venv",
			args: []string{"clean"},
			want: app.CleanOptions{Venv: true},
		},
		{
			name: "caches flag",
			args: []string{"clean", "--caches"},
			want: app.CleanOptions{Caches: true},
		},
		{
			name: "all flag",
			args: []string{"clean", "--all"},
			want: app.CleanOptions{Venv: true, Caches: true},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var captured app.CleanOptions
			mock := &mockApp{
				cleanFunc: func(_ context.Context, opts app.CleanOptions) error {
					captured = opts
					return nil
				},
			}

			cli := commands.New(mock)
			cli.SetArgs(tt.args)

			require.NoError(t, cli.Execute(context.Background()))
			assert.Equal(t, tt.want, captured)
		})
	}
}

func TestCommands_Version(t *testing.T) {
	mock := &mockApp{}
	cli := commands.New(mock)

	buf := new(bytes.Buffer)
	cli.SetOutput(buf, buf)
	cli.SetArgs([]string{"version"})

	err := cli.Execute(context.Background())
	require.NoError(t, err)

	assert.Contains(t, buf.String(), build.Version)
}
