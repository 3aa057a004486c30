package core

import (
	"context"

	"github.com/oclaw/polybuild/types"
)

// Builder runs one validate, dispatch and report cycle per call.
type Builder interface {
	Build(ctx context.Context, req *types.InvocationRequest) (*types.InvocationResult, error)
}

type Validator interface {
	Validate(ctx context.Context, sourcePath string) (string, error)
}

type Dispatcher interface {
	Dispatch(ctx context.Context, target string) (*types.InvocationResult, error)
}
