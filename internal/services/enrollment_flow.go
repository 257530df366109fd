package services

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/openacademy/trilhas-backend/internal/data/repos"
	types "github.com/openacademy/trilhas-backend/internal/domain"
	domainagg "github.com/openacademy/trilhas-backend/internal/domain/aggregates"
	"github.com/openacademy/trilhas-backend/internal/domain/enrollment"
	"github.com/openacademy/trilhas-backend/internal/platform/apierr"
	"github.com/openacademy/trilhas-backend/internal/platform/ctxutil"
	"github.com/openacademy/trilhas-backend/internal/platform/dbctx"
	"github.com/openacademy/trilhas-backend/internal/platform/logger"
)

// FlowSnapshot is the server view of the enrollment wizard for one turma.
type FlowSnapshot struct {
	Stage          enrollment.Stage        `json:"stage"`
	TurmaID        string                  `json:"turmaId,omitempty"`
	Authenticated  bool                    `json:"authenticated"`
	Verified       bool                    `json:"verified"`
	TurmaOpen      bool                    `json:"turmaOpen"`
	AvailableSeats int                     `json:"availableSeats"`
	Inscription    *types.TurmaInscription `json:"inscription,omitempty"`
}

type FlowSubmitResult struct {
	Stage       enrollment.Stage        `json:"stage"`
	Inscription *types.TurmaInscription `json:"inscription"`
	Counts      domainagg.Counts        `json:"counts"`
}

// EnrollmentFlowService derives the wizard stage from stored state; the
// stage itself is never persisted.
type EnrollmentFlowService interface {
	Snapshot(ctx context.Context, turmaID string) (FlowSnapshot, error)
	Submit(ctx context.Context, turmaID string) (FlowSubmitResult, error)
}

type enrollmentFlowService struct {
	log          *logger.Logger
	users        repos.UserRepo
	turmas       repos.TurmaRepo
	inscriptions repos.TurmaInscriptionRepo
	service      InscriptionService
}

func NewEnrollmentFlowService(
	log *logger.Logger,
	users repos.UserRepo,
	turmas repos.TurmaRepo,
	inscriptions repos.TurmaInscriptionRepo,
	service InscriptionService,
) EnrollmentFlowService {
	return &enrollmentFlowService{
		log:          log.With("service", "EnrollmentFlowService"),
		users:        users,
		turmas:       turmas,
		inscriptions: inscriptions,
		service:      service,
	}
}

func (s *enrollmentFlowService) Snapshot(ctx context.Context, turmaID string) (FlowSnapshot, error) {
	turmaID = strings.TrimSpace(turmaID)
	if turmaID == "" {
		return FlowSnapshot{Stage: enrollment.StageNone}, nil
	}
	dbc := dbctx.Context{Ctx: ctx}
	turma, err := s.turmas.GetByID(dbc, turmaID)
	if err != nil {
		return FlowSnapshot{}, fmt.Errorf("load turma: %w", err)
	}
	if turma == nil {
		return FlowSnapshot{}, apierr.NotFound("Turma not found")
	}

	snap := FlowSnapshot{
		TurmaID:        turma.ID,
		TurmaOpen:      turma.OpenForEnrollment(),
		AvailableSeats: max(turma.MaxStudents-turma.EnrolledCount, 0),
	}
	if rd := ctxutil.GetRequestData(ctx); rd != nil && rd.UserID != "" {
		u, err := s.users.GetByID(dbc, rd.UserID)
		if err != nil {
			return FlowSnapshot{}, fmt.Errorf("load user: %w", err)
		}
		if u != nil {
			snap.Authenticated = true
			snap.Verified = u.IsVerified
			if snap.Inscription, err = s.inscriptions.SeatHolder(dbc, u.ID, turma.ID); err != nil {
				return FlowSnapshot{}, fmt.Errorf("load inscription: %w", err)
			}
		}
	}
	snap.Stage = enrollment.Derive(enrollment.Session{Authenticated: snap.Authenticated, Verified: snap.Verified})
	return snap, nil
}

func (s *enrollmentFlowService) Submit(ctx context.Context, turmaID string) (FlowSubmitResult, error) {
	snap, err := s.Snapshot(ctx, turmaID)
	if err != nil {
		return FlowSubmitResult{}, err
	}
	if snap.TurmaID == "" {
		return FlowSubmitResult{}, apierr.BadRequest("validation", "turmaId é obrigatório")
	}

	flow := enrollment.NewFlow()
	switch flow.Start(snap.TurmaID, enrollment.Session{Authenticated: snap.Authenticated, Verified: snap.Verified}) {
	case enrollment.StageLogin:
		return FlowSubmitResult{Stage: flow.Stage}, apierr.Unauthorized("Faça login para se inscrever")
	case enrollment.StageVerify:
		return FlowSubmitResult{Stage: flow.Stage}, apierr.New(http.StatusUnprocessableEntity, "email_not_verified",
			fmt.Errorf("Verifique seu email antes de se inscrever"))
	}

	res, err := s.service.Enroll(ctx, EnrollRequest{TurmaID: snap.TurmaID})
	if err != nil {
		return FlowSubmitResult{Stage: flow.Stage}, err
	}
	if err := flow.Complete(); err != nil {
		return FlowSubmitResult{}, err
	}
	return FlowSubmitResult{Stage: flow.Stage, Inscription: res.Inscription, Counts: res.Counts}, nil
}
