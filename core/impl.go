package core

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/oclaw/polybuild/common"
	"github.com/oclaw/polybuild/config"
	"github.com/oclaw/polybuild/notify"
	"github.com/oclaw/polybuild/notify/cli"
	"github.com/oclaw/polybuild/notify/telegram"
	"github.com/oclaw/polybuild/types"
)

// launchFailureCode is used under the mirror policy when the toolchain never ran.
const launchFailureCode = 127

// ExitError asks the caller to terminate with Code. The result has already
// been reported when it is returned.
type ExitError struct {
	Code int
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("build finished with exit code %d", e.Code)
}

// NotifierFactory builds the notifier for nType. errOut is the diagnostic
// stream of the run, text notifiers write there.
type NotifierFactory func(cfg *config.BuildConfig, nType types.NotificationType, errOut io.Writer) (notify.Notifier, error)

type builderImpl struct {
	config     *config.BuildConfig
	validator  Validator
	dispatcher Dispatcher
	out        io.Writer
	errOut     io.Writer

	newNotifier NotifierFactory
	regInitOnce sync.Once
	registry    *notify.Registry
}

var _ Builder = (*builderImpl)(nil)

type BuilderOption func(*builderImpl)

func WithNotifierFactory(f NotifierFactory) BuilderOption {
	return func(b *builderImpl) {
		b.newNotifier = f
	}
}

// WithErrOutput sets the stream notifiers write to, os.Stderr by default.
func WithErrOutput(w io.Writer) BuilderOption {
	return func(b *builderImpl) {
		b.errOut = w
	}
}

func WithValidator(v Validator) BuilderOption {
	return func(b *builderImpl) {
		b.validator = v
	}
}

func WithDispatcher(d Dispatcher) BuilderOption {
	return func(b *builderImpl) {
		b.dispatcher = d
	}
}

func NewBuilder(
	cfg *config.BuildConfig,
	clock common.Clock,
	gen types.InvocationIDGen,
	out io.Writer,
	opts ...BuilderOption,
) (*builderImpl, error) {

	b := &builderImpl{
		config:      cfg,
		validator:   NewFsValidator(),
		out:         out,
		errOut:      os.Stderr,
		newNotifier: DefaultNotifierFactory,
	}
	for _, opt := range opts {
		opt(b)
	}

	if b.dispatcher == nil {
		dispatcher, err := NewExecDispatcher(cfg.Toolchain, clock, gen)
		if err != nil {
			return nil, err
		}
		b.dispatcher = dispatcher
	}

	return b, nil
}

// DefaultNotifierFactory creates the notifiers shipped with the binary.
// CLI notifications go to errOut so stdout only carries the build report.
func DefaultNotifierFactory(cfg *config.BuildConfig, nType types.NotificationType, errOut io.Writer) (notify.Notifier, error) {
	switch nType {
	case types.NotificationCLI:
		return cli.NewCliNotifier(errOut), nil
	case types.NotificationTelegram:
		tokenPath, err := config.SecretPath(".tg.token")
		if err != nil {
			return nil, err
		}
		token, err := os.ReadFile(tokenPath)
		if err != nil {
			return nil, err
		}
		return telegram.NewTelegramNotifier(string(token), cfg.NotifierSettings.TelegramChatID)
	}
	return nil, fmt.Errorf("notifier %s is not supported", nType)
}

func (b *builderImpl) initNotifiers(ctx context.Context) {
	b.regInitOnce.Do(func() {
		logger := common.Logger(ctx)
		reg := notify.NewRegistry()
		for _, notif := range b.config.Notifications {
			// several notifications may share one notifier type
			if _, err := reg.GetNotifier(ctx, notif.Type); err == nil {
				continue
			}
			notifier, err := b.newNotifier(b.config, notif.Type, b.errOut)
			if err != nil {
				logger.Warn("notifier init failed", "type", notif.Type, "err", err)
				continue
			}
			if err := reg.RegisterNotifier(notif.Type, notifier); err != nil {
				logger.Debug("notifier registration skipped", "type", notif.Type, "err", err)
			}
		}
		b.registry = reg
	})
}

func (b *builderImpl) Build(ctx context.Context, req *types.InvocationRequest) (*types.InvocationResult, error) {
	if _, err := b.validator.Validate(ctx, req.SourcePath); err != nil {
		return nil, err
	}

	res, err := b.dispatcher.Dispatch(ctx, req.Target)
	if err != nil {
		return nil, err
	}

	if err := Report(b.out, res); err != nil {
		return res, fmt.Errorf("write report: %w", err)
	}

	b.notify(ctx, req, res)

	return res, b.exitStatus(res)
}

func (b *builderImpl) exitStatus(res *types.InvocationResult) error {
	if b.config.ExitPolicy == config.ExitPolicyAlwaysSucceed {
		return nil
	}

	switch {
	case !res.Launched:
		return &ExitError{Code: launchFailureCode}
	case res.ExitCode != 0:
		return &ExitError{Code: res.ExitCode}
	case res.Err != nil:
		return &ExitError{Code: 1}
	}
	return nil
}

// notify never fails the build, errors are only logged.
func (b *builderImpl) notify(ctx context.Context, req *types.InvocationRequest, res *types.InvocationResult) {
	var due []config.Notification
	for _, notifConfig := range b.config.Notifications {
		cond := notifConfig.Conditions
		if cond.RunLongerThan.ReachedBy(res.Duration) || (cond.OnFailure && !res.Succeeded()) {
			due = append(due, notifConfig)
		}
	}
	if len(due) == 0 {
		return
	}

	b.initNotifiers(ctx)
	logger := common.Logger(ctx)

	data := &types.NotificationData{
		Request: req,
		Result:  res,
	}
	for _, notifConfig := range due {
		notifier, err := b.registry.GetNotifier(ctx, notifConfig.Type)
		if err != nil {
			logger.Warn("notification skipped", "type", notifConfig.Type, "err", err)
			continue
		}
		if err := notifier.Notify(ctx, data); err != nil {
			logger.Warn("notification failed", "type", notifConfig.Type, "invocation_id", res.InvocationID, "err", err)
		}
	}
}
