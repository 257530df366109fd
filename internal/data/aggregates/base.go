package aggregates

import (
	"context"
	"strings"
	"time"

	"gorm.io/gorm"

	domainagg "github.com/openacademy/trilhas-backend/internal/domain/aggregates"
	"github.com/openacademy/trilhas-backend/internal/platform/dbctx"
	"github.com/openacademy/trilhas-backend/internal/platform/logger"
)

// TxRunner opens the transaction one aggregate write runs in.
type TxRunner interface {
	InTx(ctx context.Context, fn func(dbc dbctx.Context) error) error
}

type gormTxRunner struct {
	db *gorm.DB
}

func NewGormTxRunner(db *gorm.DB) TxRunner {
	return gormTxRunner{db: db}
}

// InTx does not begin a transaction for a request that is already gone.
func (r gormTxRunner) InTx(ctx context.Context, fn func(dbc dbctx.Context) error) error {
	if r.db == nil {
		return InvariantError("enrollment writes need a database")
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(dbctx.Context{Ctx: ctx, Tx: tx})
	})
}

type BaseDeps struct {
	DB       *gorm.DB
	Log      *logger.Logger
	Runner   TxRunner
	Hooks    Hooks
	CASGuard CASGuard
	// MaxAttempts bounds how often a retryable write is re-run. Zero means 3.
	MaxAttempts int
	Now         func() time.Time
}

func (d BaseDeps) withDefaults() BaseDeps {
	if d.Runner == nil {
		d.Runner = NewGormTxRunner(d.DB)
	}
	if d.Hooks == nil {
		d.Hooks = metricsHooks{}
	}
	if d.CASGuard.db == nil {
		d.CASGuard = NewCASGuard(d.DB)
	}
	if d.Log == nil {
		d.Log = logger.Nop()
	}
	if d.MaxAttempts <= 0 {
		d.MaxAttempts = 3
	}
	if d.Now == nil {
		d.Now = func() time.Time { return time.Now().UTC() }
	}
	return d
}

func executeWrite(ctx context.Context, deps BaseDeps, op string, fn func(dbc dbctx.Context) error) error {
	start := time.Now()
	deps = deps.withDefaults()
	op = strings.TrimSpace(op)
	if op == "" {
		op = "aggregate.write"
	}

	var mapped error
	for attempt := 1; attempt <= deps.MaxAttempts; attempt++ {
		mapped = MapError(op, deps.Runner.InTx(ctx, fn))
		if !domainagg.IsCode(mapped, domainagg.CodeRetryable) || ctx.Err() != nil {
			break
		}
		deps.Hooks.IncRetry(op)
		if attempt < deps.MaxAttempts {
			deps.Log.Warn("aggregate write retrying", "op", op, "attempt", attempt, "error", mapped)
			select {
			case <-ctx.Done():
			case <-time.After(time.Duration(attempt) * 10 * time.Millisecond):
			}
		}
	}

	status := "success"
	if mapped != nil {
		status = aggregateErrorStatus(mapped)
		if domainagg.IsCode(mapped, domainagg.CodeConflict) {
			deps.Hooks.IncConflict(op)
		}
	}
	deps.Hooks.ObserveOperation(op, status, time.Since(start))
	return mapped
}

func aggregateErrorStatus(err error) string {
	if err == nil {
		return "success"
	}
	code := strings.TrimSpace(string(domainagg.CodeOf(err)))
	if code == "" {
		code = strings.TrimSpace(string(domainagg.CodeOf(MapError("aggregate.status", err))))
	}
	if code == "" {
		return "failure"
	}
	return code
}
