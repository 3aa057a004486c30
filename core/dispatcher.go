package core

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"

	"github.com/google/uuid"
	"github.com/oclaw/polybuild/common"
	"github.com/oclaw/polybuild/config"
	"github.com/oclaw/polybuild/types"
)

var UUIDInvocationGen = types.InvocationGenFromStringer(uuid.NewUUID)

type execDispatcher struct {
	toolchain config.ToolchainConfig
	clock     common.Clock
	gen       types.InvocationIDGen
}

var _ Dispatcher = (*execDispatcher)(nil)

func NewExecDispatcher(
	toolchain config.ToolchainConfig,
	clock common.Clock,
	gen types.InvocationIDGen,
) (*execDispatcher, error) {
	if len(toolchain.Binary) == 0 {
		return nil, fmt.Errorf("toolchain binary is not configured")
	}
	return &execDispatcher{
		toolchain: toolchain,
		clock:     clock,
		gen:       gen,
	}, nil
}

// Dispatch starts the toolchain once for target and waits for it to exit.
// Launch and build failures land in the result, the returned error is only
// for failures that happen before anything is attempted.
func (d *execDispatcher) Dispatch(ctx context.Context, target string) (*types.InvocationResult, error) {
	id, err := d.gen()
	if err != nil {
		return nil, fmt.Errorf("generate invocation id: %w", err)
	}

	argv := d.toolchain.Argv(target)
	res := &types.InvocationResult{
		InvocationID: id,
		Target:       target,
		Argv:         argv,
		ExitCode:     -1,
	}

	logger := common.Logger(ctx).With("invocation_id", id)

	// argv goes straight to execve, target is never seen by a shell
	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Dir = d.toolchain.WorkDir

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	logger.Debug("launching toolchain", "argv", argv, "dir", cmd.Dir)

	start := d.clock.Now()
	if err := cmd.Start(); err != nil {
		res.Duration = common.Since(d.clock, start)
		res.Err = err
		logger.Debug("toolchain could not be started", "err", err)
		return res, nil
	}
	res.Launched = true

	waitErr := cmd.Wait()
	res.Duration = common.Since(d.clock, start)
	res.Stdout = stdout.Bytes()
	res.Stderr = stderr.Bytes()
	res.Err = waitErr

	if code, ok := common.ExitCodeOf(waitErr); ok {
		res.ExitCode = code
	} else if cmd.ProcessState != nil {
		res.ExitCode = common.StateExitCode(cmd.ProcessState)
	}

	logger.Debug("toolchain finished", "exit_code", res.ExitCode, "duration", res.Duration)
	return res, nil
}
