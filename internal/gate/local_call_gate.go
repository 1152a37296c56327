package gate

import (
	"context"

	apperrors "github.com/binary-star-near/nearcrowd-contract/internal/errors"
)

// LocalCallGate serializes calls within a single process.
type LocalCallGate struct {
	sem chan struct{}
}

func NewLocalCallGate() *LocalCallGate {
	return &LocalCallGate{sem: make(chan struct{}, 1)}
}

func (g *LocalCallGate) Acquire(ctx context.Context) error {
	select {
	case g.sem <- struct{}{}:
		return nil
	case <-ctx.Done():
		return apperrors.ErrGateBusy
	}
}

func (g *LocalCallGate) Release(ctx context.Context) error {
	select {
	case <-g.sem:
	default:
	}
	return nil
}
