package telegram

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/nikoksr/notify/service/telegram"
	"github.com/oclaw/polybuild/notify"
	"github.com/oclaw/polybuild/types"
)

const subject = "polybuild update"

type sender interface {
	Send(ctx context.Context, subject, message string) error
}

type telegramNotifier struct {
	transport sender
}

var _ notify.Notifier = (*telegramNotifier)(nil)

func NewTelegramNotifier(
	token string,
	chatID int64,
) (notify.Notifier, error) {
	if chatID == 0 {
		return nil, fmt.Errorf("telegram chat id is not configured")
	}

	token = strings.TrimSpace(token)
	tgTransport, err := telegram.New(token)
	if err != nil {
		return nil, err
	}
	tgTransport.SetParseMode(telegram.ModeMarkdown)
	tgTransport.AddReceivers(chatID)

	return &telegramNotifier{
		transport: tgTransport,
	}, nil
}

func formatMessage(data *types.NotificationData) string {
	return fmt.Sprintf(`
Build of *%s* for *%s* %s
- invocation-id: *%s*
- execution time: *%s*
`,
		data.Request.SourcePath,
		data.Request.Target,
		notify.Status(data.Result),
		data.Result.InvocationID,
		data.Result.Duration.Round(time.Second),
	)
}

func (tgn *telegramNotifier) Notify(ctx context.Context, data *types.NotificationData) error {
	return tgn.transport.Send(ctx, subject, formatMessage(data))
}
