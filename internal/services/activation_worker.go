package services

import (
	"context"
	"fmt"
	"time"

	"github.com/openacademy/trilhas-backend/internal/data/repos"
	"github.com/openacademy/trilhas-backend/internal/domain/catalog"
	"github.com/openacademy/trilhas-backend/internal/observability"
	"github.com/openacademy/trilhas-backend/internal/platform/dbctx"
	"github.com/openacademy/trilhas-backend/internal/platform/logger"
)

// ActivationWorker starts turmas whose start date has arrived while they
// are still open for enrollment.
type ActivationWorker struct {
	log      *logger.Logger
	turmas   repos.TurmaRepo
	service  InscriptionService
	metrics  *observability.Metrics
	interval time.Duration
	now      func() time.Time
}

func NewActivationWorker(
	log *logger.Logger,
	turmas repos.TurmaRepo,
	service InscriptionService,
	metrics *observability.Metrics,
	interval time.Duration,
) *ActivationWorker {
	return &ActivationWorker{
		log:      log.With("component", "ActivationWorker"),
		turmas:   turmas,
		service:  service,
		metrics:  metrics,
		interval: interval,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Run sweeps every interval until ctx is done. A zero interval disables it.
func (w *ActivationWorker) Run(ctx context.Context) error {
	if w.interval <= 0 {
		w.log.Info("Activation sweep disabled")
		return nil
	}
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if _, err := w.Sweep(ctx); err != nil {
				w.metrics.IncWorkerError()
				w.log.Warn("Activation sweep failed", "error", err)
			}
		}
	}
}

// Sweep starts every due turma and returns how many were started. One
// failing turma does not stop the others.
func (w *ActivationWorker) Sweep(ctx context.Context) (int, error) {
	due, err := w.turmas.ListByStatus(dbctx.Context{Ctx: ctx}, catalog.TurmaInscricoesAbertas)
	if err != nil {
		return 0, fmt.Errorf("list open turmas: %w", err)
	}
	now := w.now()
	sysCtx := AsSystem(ctx)
	started := 0
	var firstErr error
	for _, t := range due {
		start, err := catalog.ParseDate(t.StartDate)
		if err != nil {
			w.log.Warn("Turma has unparsable startDate", "turma_id", t.ID, "start_date", t.StartDate)
			continue
		}
		if start.After(now) {
			continue
		}
		if _, err := w.service.StartTurma(sysCtx, t.ID); err != nil {
			w.log.Warn("Starting turma failed", "turma_id", t.ID, "error", err)
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		started++
	}
	if started > 0 {
		w.log.Info("Activation sweep started turmas", "count", started)
	}
	return started, firstErr
}
