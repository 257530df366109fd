package testutil

import (
	"context"
	"sync"

	"github.com/openacademy/trilhas-backend/internal/data/aggregates"
	"github.com/openacademy/trilhas-backend/internal/platform/dbctx"
)

// ScriptedTxRunner fails the first transactions with Failures, in order,
// before the body runs. Later transactions go to Next, or run the body
// without a database when Next is nil.
type ScriptedTxRunner struct {
	Failures []error
	Next     aggregates.TxRunner

	mu       sync.Mutex
	attempts int
	bodies   int
}

var _ aggregates.TxRunner = (*ScriptedTxRunner)(nil)

func (r *ScriptedTxRunner) InTx(ctx context.Context, fn func(dbc dbctx.Context) error) error {
	r.mu.Lock()
	r.attempts++
	if len(r.Failures) > 0 {
		err := r.Failures[0]
		r.Failures = r.Failures[1:]
		r.mu.Unlock()
		return err
	}
	r.bodies++
	r.mu.Unlock()

	if r.Next != nil {
		return r.Next.InTx(ctx, fn)
	}
	return fn(dbctx.Context{Ctx: ctx})
}

// Attempts counts every InTx call.
func (r *ScriptedTxRunner) Attempts() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.attempts
}

// Bodies counts the calls that reached the write body.
func (r *ScriptedTxRunner) Bodies() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.bodies
}
