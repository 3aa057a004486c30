package notify

import (
	"context"
	"fmt"

	"github.com/oclaw/polybuild/types"
)

type Notifier interface {
	Notify(context.Context, *types.NotificationData) error
}

type Registry struct {
	notifiers map[types.NotificationType]Notifier
}

func NewRegistry() *Registry {
	return &Registry{
		notifiers: make(map[types.NotificationType]Notifier),
	}
}

// RegisterNotifier keeps the first notifier registered for a type.
func (rg *Registry) RegisterNotifier(nType types.NotificationType, impl Notifier) error {
	if _, exists := rg.notifiers[nType]; exists {
		return fmt.Errorf("duplicate registration for %s", nType)
	}
	rg.notifiers[nType] = impl
	return nil
}

func (rg *Registry) GetNotifier(_ context.Context, nType types.NotificationType) (Notifier, error) {
	n, ok := rg.notifiers[nType]
	if !ok {
		return nil, fmt.Errorf("notifier %s is not supported", nType)
	}
	return n, nil
}

// Status renders a short human readable outcome of the build.
func Status(res *types.InvocationResult) string {
	switch {
	case !res.Launched:
		return "could not start"
	case res.Succeeded():
		return "succeeded"
	default:
		return fmt.Sprintf("failed with exit code %d", res.ExitCode)
	}
}
