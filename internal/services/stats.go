package services

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/openacademy/trilhas-backend/internal/data/repos"
	types "github.com/openacademy/trilhas-backend/internal/domain"
	"github.com/openacademy/trilhas-backend/internal/domain/enrollment"
	"github.com/openacademy/trilhas-backend/internal/domain/user"
	"github.com/openacademy/trilhas-backend/internal/platform/apierr"
	"github.com/openacademy/trilhas-backend/internal/platform/dbctx"
	"github.com/openacademy/trilhas-backend/internal/platform/logger"
)

type AdminStats struct {
	TotalUsers           int64                     `json:"totalUsers"`
	TotalTrilhas         int64                     `json:"totalTrilhas"`
	TotalTurmas          int64                     `json:"totalTurmas"`
	TotalInscriptions    int64                     `json:"totalInscriptions"`
	TotalCertificates    int64                     `json:"totalCertificates"`
	PendingInscriptions  int                       `json:"pendingInscriptions"`
	InscriptionsByStatus map[enrollment.Status]int `json:"inscriptionsByStatus"`
	UsersByRole          map[string]int            `json:"usersByRole"`
}

// maxLogLimit bounds an explicit ?limit. Omitting it returns the whole window.
const maxLogLimit = 1000

type StatsService interface {
	Admin(ctx context.Context) (*AdminStats, error)
	// Trilhas reports per-trilha figures; mentors only see their own trilhas.
	Trilhas(ctx context.Context) ([]repos.TrilhaStatsRow, error)
	InscriptionLog(ctx context.Context, since, until time.Time, limit int) ([]repos.InscriptionLogRow, error)
}

type statsService struct {
	log   *logger.Logger
	stats repos.StatsRepo
}

func NewStatsService(log *logger.Logger, stats repos.StatsRepo) StatsService {
	return &statsService{log: log.With("service", "StatsService"), stats: stats}
}

func (s *statsService) Admin(ctx context.Context) (*AdminStats, error) {
	if _, err := requireStaff(ctx); err != nil {
		return nil, err
	}
	dbc := dbctx.Context{Ctx: ctx}
	out := &AdminStats{}

	// Each query gets its own goroutine; on SQLite they queue on the single connection.
	var g errgroup.Group
	count := func(dst *int64, model any) func() error {
		return func() error {
			n, err := s.stats.CountTable(dbc, model)
			*dst = n
			return err
		}
	}
	g.Go(count(&out.TotalUsers, &types.User{}))
	g.Go(count(&out.TotalTrilhas, &types.Trilha{}))
	g.Go(count(&out.TotalTurmas, &types.Turma{}))
	g.Go(count(&out.TotalInscriptions, &types.TurmaInscription{}))
	g.Go(count(&out.TotalCertificates, &types.Certificate{}))
	g.Go(func() error {
		byStatus, err := s.stats.CountInscriptionsByStatus(dbc)
		out.InscriptionsByStatus = byStatus
		return err
	})
	g.Go(func() error {
		byRole, err := s.stats.CountUsersByRole(dbc)
		out.UsersByRole = byRole
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	out.PendingInscriptions = out.InscriptionsByStatus[enrollment.StatusPending]
	return out, nil
}

func (s *statsService) Trilhas(ctx context.Context) ([]repos.TrilhaStatsRow, error) {
	rd, err := caller(ctx)
	if err != nil {
		return nil, err
	}
	mentorID := ""
	switch {
	case isStaff(rd):
	case hasRole(rd, user.RoleMentor):
		mentorID = rd.UserID
	default:
		return nil, apierr.Forbidden("Apenas mentores e coordenadores podem ver estas estatísticas")
	}
	return s.stats.TrilhaStats(dbctx.Context{Ctx: ctx}, mentorID)
}

func (s *statsService) InscriptionLog(ctx context.Context, since, until time.Time, limit int) ([]repos.InscriptionLogRow, error) {
	if _, err := requireStaff(ctx); err != nil {
		return nil, err
	}
	if !since.IsZero() && !until.IsZero() && until.Before(since) {
		return nil, apierr.BadRequest("validation", "until deve ser posterior a since")
	}
	if limit < 0 || limit > maxLogLimit {
		return nil, apierr.BadRequest("validation", fmt.Sprintf("limit deve estar entre 1 e %d", maxLogLimit))
	}
	return s.stats.InscriptionLog(dbctx.Context{Ctx: ctx}, since, until, limit)
}
