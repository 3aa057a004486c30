package cli

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/oclaw/polybuild/notify"
	"github.com/oclaw/polybuild/types"
)

type cliNotifier struct {
	out io.Writer
}

var _ notify.Notifier = (*cliNotifier)(nil)

func NewCliNotifier(out io.Writer) *cliNotifier {
	return &cliNotifier{
		out: out,
	}
}

func (cn *cliNotifier) Notify(_ context.Context, data *types.NotificationData) error {
	_, err := fmt.Fprintf(cn.out, "Build %s of '%s' for target '%s' %s after %s\n",
		data.Result.InvocationID,
		data.Request.SourcePath,
		data.Request.Target,
		notify.Status(data.Result),
		data.Result.Duration.Round(time.Millisecond),
	)
	return err
}
