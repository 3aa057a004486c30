package core

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"sync/atomic"
	"testing"
	"time"

	"github.com/oclaw/polybuild/config"
	"github.com/oclaw/polybuild/types"
	"github.com/stretchr/testify/require"
)

// writeScript writes body as a shell script run through sh by fakeToolchainConfig.
func writeScript(t *testing.T, dir, name, body string) string {
	t.Helper()

	if runtime.GOOS == "windows" {
		t.Skip("fake toolchain needs a posix shell")
	}
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skipf("sh not found: %v", err)
	}

	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644), "failed to write fake toolchain")
	return path
}

// writeFakeToolchain creates a script that prints every argument on its own
// line, writes stderrText to stderr and exits with exitCode.
func writeFakeToolchain(t *testing.T, dir string, exitCode int, stderrText string) string {
	t.Helper()

	// the script is run through sh, never exec'd directly, so parallel tests
	// cannot hit ETXTBSY on a file another fork still holds open
	script := "for a in \"$@\"; do printf '%s\\n' \"$a\"; done\n"
	if stderrText != "" {
		script += fmt.Sprintf("printf '%%s\\n' '%s' >&2\n", stderrText)
	}
	script += fmt.Sprintf("exit %d\n", exitCode)

	return writeScript(t, dir, fmt.Sprintf("toolchain-%d.sh", exitCode), script)
}

func fakeToolchainConfig(script string) config.ToolchainConfig {
	return config.ToolchainConfig{
		Binary: "sh",
		Args:   []string{script, "build", "--release", "--target", config.TargetPlaceholder},
	}
}

func writeSource(t *testing.T, dir, contents string) string {
	t.Helper()
	path := filepath.Join(dir, "main.js")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644), "failed to write source")
	return path
}

type fakeClock struct {
	now  time.Time
	step time.Duration
}

func (c *fakeClock) Now() time.Time {
	c.now = c.now.Add(c.step)
	return c.now
}

func sequentialIDs() types.InvocationIDGen {
	var n atomic.Int64
	return func() (types.InvocationID, error) {
		return types.InvocationID(fmt.Sprintf("inv-%d", n.Add(1))), nil
	}
}
