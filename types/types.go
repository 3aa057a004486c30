package types

import (
	"fmt"
	"time"
)

type InvocationID string

type InvocationIDGen func() (InvocationID, error)

func InvocationGenFromStringer[T fmt.Stringer](gen func() (T, error)) InvocationIDGen {
	return func() (InvocationID, error) {
		val, err := gen()
		if err != nil {
			return "", err
		}
		return InvocationID(val.String()), nil
	}
}

// InvocationRequest is a single build request taken from the command line.
type InvocationRequest struct {
	SourcePath string `json:"source_path"`
	Target     string `json:"target"` // passed through to the toolchain as is
}

// InvocationResult is what the toolchain process left behind once it terminated
// (or failed to start).
type InvocationResult struct {
	InvocationID InvocationID  `json:"invocation_id"`
	Target       string        `json:"target"`
	Argv         []string      `json:"argv"`
	Launched     bool          `json:"launched"`  // the process was started, whatever came after
	ExitCode     int           `json:"exit_code"` // -1 when the process never ran, 128+N when killed by signal N
	Stdout       []byte        `json:"stdout"`
	Stderr       []byte        `json:"stderr"`
	Err          error         `json:"-"` // launch error or the *exec.ExitError of a failed build
	Duration     time.Duration `json:"duration"`
}

func (r *InvocationResult) Succeeded() bool {
	return r.Launched && r.Err == nil && r.ExitCode == 0
}

type NotificationData struct {
	Request *InvocationRequest
	Result  *InvocationResult
	// feel free to add more data that can be reused among notifiers
}

type NotificationType string

const (
	NotificationCLI      NotificationType = "cli"      // plain text line into the terminal
	NotificationTelegram NotificationType = "telegram" // message published by the telegram bot
)
