package core

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/oclaw/polybuild/config"
	"github.com/oclaw/polybuild/notify"
	"github.com/stretchr/testify/require"
)

func newTestDispatcher(t *testing.T, toolchain config.ToolchainConfig) *execDispatcher {
	t.Helper()
	d, err := NewExecDispatcher(toolchain, &fakeClock{step: time.Second}, sequentialIDs())
	require.NoError(t, err)
	return d
}

func TestDispatch_PassesTargetAsSingleArgument(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	script := writeFakeToolchain(t, dir, 0, "")
	marker := filepath.Join(dir, "pwned")
	target := "x86_64; touch " + marker

	d := newTestDispatcher(t, fakeToolchainConfig(script))
	res, err := d.Dispatch(context.Background(), target)

	require.NoError(t, err)
	require.NoError(t, res.Err)
	require.Equal(t, 0, res.ExitCode)
	require.Equal(t, []string{"build", "--release", "--target", target},
		strings.Split(strings.TrimRight(string(res.Stdout), "\n"), "\n"))
	require.Equal(t, []string{"sh", script, "build", "--release", "--target", target}, res.Argv)

	_, statErr := os.Stat(marker)
	require.ErrorIs(t, statErr, os.ErrNotExist, "shell metacharacters in the target were interpreted")
}

func TestDispatch_CapturesFailedBuild(t *testing.T) {
	t.Parallel()

	script := writeFakeToolchain(t, t.TempDir(), 3, "error: linker failed")

	d := newTestDispatcher(t, fakeToolchainConfig(script))
	res, err := d.Dispatch(context.Background(), "wasm32")

	require.NoError(t, err)
	require.True(t, res.Launched)
	require.False(t, res.Succeeded())
	require.Equal(t, 3, res.ExitCode)
	require.Equal(t, "error: linker failed\n", string(res.Stderr))
	var exitErr *exec.ExitError
	require.ErrorAs(t, res.Err, &exitErr)
	require.Equal(t, time.Second, res.Duration)
}

func TestDispatch_KilledBySignal(t *testing.T) {
	t.Parallel()

	script := writeScript(t, t.TempDir(), "killed.sh", "echo compiling\nkill -9 $$\n")

	d := newTestDispatcher(t, fakeToolchainConfig(script))
	res, err := d.Dispatch(context.Background(), "wasm32")

	require.NoError(t, err)
	require.True(t, res.Launched, "a process that ran and printed output was launched")
	require.False(t, res.Succeeded())
	require.Equal(t, 128+9, res.ExitCode)
	require.Equal(t, "compiling\n", string(res.Stdout))
	var exitErr *exec.ExitError
	require.ErrorAs(t, res.Err, &exitErr)
	require.Equal(t, "failed with exit code 137", notify.Status(res))
}

func TestDispatch_LaunchError(t *testing.T) {
	t.Parallel()

	toolchain := config.ToolchainConfig{
		Binary: filepath.Join(t.TempDir(), "no-such-toolchain"),
		Args:   []string{"build", "--target", config.TargetPlaceholder},
	}

	d := newTestDispatcher(t, toolchain)
	res, err := d.Dispatch(context.Background(), "wasm32")

	require.NoError(t, err, "launch errors are carried by the result")
	require.Error(t, res.Err)
	require.False(t, res.Launched)
	require.Equal(t, -1, res.ExitCode)
	require.Empty(t, res.Stdout)
	require.Empty(t, res.Stderr)
}

func TestDispatch_RunsAreIndependent(t *testing.T) {
	t.Parallel()

	script := writeFakeToolchain(t, t.TempDir(), 0, "")
	d := newTestDispatcher(t, fakeToolchainConfig(script))

	first, err := d.Dispatch(context.Background(), "wasm32")
	require.NoError(t, err)
	second, err := d.Dispatch(context.Background(), "wasm32")
	require.NoError(t, err)

	require.NotEqual(t, first.InvocationID, second.InvocationID)
	require.Equal(t, string(first.Stdout), string(second.Stdout))
	require.NotSame(t, first, second)
}

func TestNewExecDispatcher_RequiresBinary(t *testing.T) {
	t.Parallel()

	_, err := NewExecDispatcher(config.ToolchainConfig{}, &fakeClock{}, sequentialIDs())

	require.Error(t, err)
}
