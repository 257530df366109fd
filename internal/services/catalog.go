package services

import (
	"context"

	"github.com/go-playground/validator/v10"

	"github.com/openacademy/trilhas-backend/internal/data/repos"
	types "github.com/openacademy/trilhas-backend/internal/domain"
	domainagg "github.com/openacademy/trilhas-backend/internal/domain/aggregates"
	"github.com/openacademy/trilhas-backend/internal/domain/catalog"
	"github.com/openacademy/trilhas-backend/internal/platform/apierr"
	"github.com/openacademy/trilhas-backend/internal/platform/dbctx"
	"github.com/openacademy/trilhas-backend/internal/platform/logger"
	"github.com/openacademy/trilhas-backend/internal/realtime"
)

// turmaResource sends turma edits and deletes through the enrollment
// aggregate so the lifecycle and the seat counters stay consistent.
type turmaResource struct {
	Resource
	turmas    repos.TurmaRepo
	agg       domainagg.EnrollmentAggregate
	expand    *Expander
	validate  *validator.Validate
	publisher realtime.Publisher
	log       *logger.Logger
}

func (r *turmaResource) Update(ctx context.Context, id string, partial map[string]any) (any, error) {
	dbc := dbctx.Context{Ctx: ctx}
	cur, err := r.turmas.GetByID(dbc, id)
	if err != nil || cur == nil {
		return nil, err
	}
	next, err := r.turmas.Merge(cur, partial)
	if err != nil {
		return nil, err
	}
	if err := validateRecord(r.validate, next); err != nil {
		return nil, apierr.BadRequest("validation", err.Error())
	}

	res, err := r.agg.ReviseTurma(ctx, domainagg.ReviseTurmaInput{Turma: next})
	if err != nil {
		return nil, err
	}
	if res.From != res.Turma.Status {
		r.log.Info("Turma status changed", "turma_id", id, "from", string(res.From), "to", string(res.Turma.Status))
	}

	msgs := countsMessages(res.Counts)
	if res.Previous != nil {
		msgs = append(msgs, realtime.SSEMessage{Channel: realtime.StaffChannel, Event: realtime.SSEEventTurmaCountsChanged, Data: res.Previous})
	}
	if res.Turma.Status == catalog.TurmaEmAndamento && res.From != catalog.TurmaEmAndamento {
		started := domainagg.StartTurmaResult{TurmaID: id, Activated: res.Activated, Counts: res.Counts}
		msgs = append(msgs, startedMessages(started)...)
	}
	r.publisher.Publish(ctx, msgs...)

	views, err := r.expand.Turmas(dbc, []*types.Turma{res.Turma}, nil)
	if err != nil {
		return nil, err
	}
	return views[0], nil
}

func (r *turmaResource) Delete(ctx context.Context, id string) (bool, error) {
	ok, err := r.agg.RemoveTurma(ctx, id)
	if ok {
		r.log.Info("Turma removed", "turma_id", id)
	}
	return ok, err
}

// trilhaResource refuses to delete a trilha that still has turmas.
type trilhaResource struct {
	Resource
	agg domainagg.EnrollmentAggregate
	log *logger.Logger
}

func (r *trilhaResource) Delete(ctx context.Context, id string) (bool, error) {
	ok, err := r.agg.RemoveTrilha(ctx, id)
	if ok {
		r.log.Info("Trilha removed", "trilha_id", id)
	}
	return ok, err
}
