package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/openacademy/trilhas-backend/internal/data/repos"
	domainagg "github.com/openacademy/trilhas-backend/internal/domain/aggregates"
	"github.com/openacademy/trilhas-backend/internal/domain/enrollment"
	"github.com/openacademy/trilhas-backend/internal/domain/user"
	"github.com/openacademy/trilhas-backend/internal/observability"
	"github.com/openacademy/trilhas-backend/internal/platform/apierr"
	"github.com/openacademy/trilhas-backend/internal/platform/ctxutil"
	"github.com/openacademy/trilhas-backend/internal/platform/dbctx"
	"github.com/openacademy/trilhas-backend/internal/platform/logger"
	"github.com/openacademy/trilhas-backend/internal/realtime"
)

type EnrollRequest struct {
	TurmaID string `json:"turmaId"`
	// UserID defaults to the caller. Only staff may enroll someone else.
	UserID string `json:"userId,omitempty"`
}

// InscriptionService authorizes inscription writes, runs them through the
// enrollment aggregate and announces the results.
type InscriptionService interface {
	Enroll(ctx context.Context, in EnrollRequest) (domainagg.EnrollResult, error)
	Transition(ctx context.Context, id string, ev enrollment.Event, reason string) (domainagg.TransitionResult, error)
	// Patch applies a generic partial update: "status" maps to an event,
	// "progress"/"attendance" to UpdateProgress.
	Patch(ctx context.Context, id string, partial map[string]any) (domainagg.TransitionResult, error)
	UpdateProgress(ctx context.Context, id string, progress, attendance *int) (domainagg.TransitionResult, error)
	StartTurma(ctx context.Context, turmaID string) (domainagg.StartTurmaResult, error)
	SyncCounts(ctx context.Context, turmaID string) (domainagg.Counts, error)
	Remove(ctx context.Context, id string) (bool, error)
	// ReconcileAll recomputes the counters of every turma.
	ReconcileAll(ctx context.Context) (int, error)
}

type inscriptionService struct {
	log          *logger.Logger
	agg          domainagg.EnrollmentAggregate
	inscriptions repos.TurmaInscriptionRepo
	turmas       repos.TurmaRepo
	publisher    realtime.Publisher
	metrics      *observability.Metrics
}

func NewInscriptionService(
	log *logger.Logger,
	agg domainagg.EnrollmentAggregate,
	inscriptions repos.TurmaInscriptionRepo,
	turmas repos.TurmaRepo,
	publisher realtime.Publisher,
	metrics *observability.Metrics,
) InscriptionService {
	if publisher == nil {
		publisher = realtime.NopPublisher{}
	}
	return &inscriptionService{
		log:          log.With("service", "InscriptionService"),
		agg:          agg,
		inscriptions: inscriptions,
		turmas:       turmas,
		publisher:    publisher,
		metrics:      metrics,
	}
}

func (s *inscriptionService) Enroll(ctx context.Context, in EnrollRequest) (domainagg.EnrollResult, error) {
	rd, err := caller(ctx)
	if err != nil {
		return domainagg.EnrollResult{}, err
	}
	userID := strings.TrimSpace(in.UserID)
	if userID == "" {
		userID = rd.UserID
	}
	if userID != rd.UserID && !isStaff(rd) {
		return domainagg.EnrollResult{}, apierr.Forbidden("Você só pode se inscrever em seu próprio nome")
	}

	res, err := s.agg.Enroll(ctx, domainagg.EnrollInput{UserID: userID, TurmaID: in.TurmaID})
	if err != nil {
		s.metrics.IncEnrollment(string(domainagg.CodeOf(err)))
		return res, err
	}
	s.metrics.IncEnrollment("created")
	s.log.Info("Inscription created", "inscription_id", res.Inscription.ID, "turma_id", res.Inscription.TurmaID, "user_id", userID)

	msgs := fanout(realtime.SSEEventInscriptionCreated, res.Inscription, res.Inscription.UserID, res.Inscription.TurmaID)
	msgs = append(msgs, countsMessages(res.Counts)...)
	s.publisher.Publish(ctx, msgs...)
	return res, nil
}

func (s *inscriptionService) Transition(ctx context.Context, id string, ev enrollment.Event, reason string) (domainagg.TransitionResult, error) {
	rd, err := caller(ctx)
	if err != nil {
		return domainagg.TransitionResult{}, err
	}
	if err := s.authorizeEvent(ctx, rd, id, ev); err != nil {
		return domainagg.TransitionResult{}, err
	}
	res, err := s.agg.Transition(ctx, domainagg.TransitionInput{
		InscriptionID: id,
		Event:         ev,
		ActorID:       rd.UserID,
		Reason:        reason,
	})
	if err != nil {
		return res, err
	}
	s.announce(ctx, res)
	return res, nil
}

// auditKeys are accepted in a status patch for compatibility with clients
// that send them; the aggregate sets them itself.
var auditKeys = map[string]bool{
	"id": true, "approvedAt": true, "approvedBy": true, "rejectedAt": true, "rejectedBy": true,
	"activatedAt": true, "completedAt": true, "cancelledAt": true, "cancelledBy": true, "updatedAt": true,
}

func (s *inscriptionService) Patch(ctx context.Context, id string, partial map[string]any) (domainagg.TransitionResult, error) {
	var (
		status     string
		reason     string
		progress   *int
		attendance *int
	)
	for k, v := range partial {
		switch {
		case k == "status":
			str, ok := v.(string)
			if !ok {
				return domainagg.TransitionResult{}, apierr.BadRequest("validation", "status deve ser texto")
			}
			status = str
		case k == "rejectionReason":
			str, _ := v.(string)
			reason = str
		case k == "progress" || k == "attendance":
			n, ok := asInt(v)
			if !ok {
				return domainagg.TransitionResult{}, apierr.BadRequest("validation", k+" deve ser um número inteiro")
			}
			if k == "progress" {
				progress = &n
			} else {
				attendance = &n
			}
		case auditKeys[k]:
		default:
			return domainagg.TransitionResult{}, apierr.BadRequest("validation", fmt.Sprintf("campo %q não pode ser alterado", k))
		}
	}

	switch {
	case status != "" && (progress != nil || attendance != nil):
		return domainagg.TransitionResult{}, apierr.BadRequest("validation", "status não pode ser combinado com progress ou attendance")
	case status != "":
		ev, ok := enrollment.EventTo(enrollment.Status(strings.ToLower(strings.TrimSpace(status))))
		if !ok {
			return domainagg.TransitionResult{}, apierr.BadRequest("validation", fmt.Sprintf("status %q inválido", status))
		}
		return s.Transition(ctx, id, ev, reason)
	case progress != nil || attendance != nil:
		return s.UpdateProgress(ctx, id, progress, attendance)
	default:
		return domainagg.TransitionResult{}, apierr.BadRequest("validation", "Nenhum campo para atualizar")
	}
}

func (s *inscriptionService) UpdateProgress(ctx context.Context, id string, progress, attendance *int) (domainagg.TransitionResult, error) {
	rd, err := caller(ctx)
	if err != nil {
		return domainagg.TransitionResult{}, err
	}
	if !isStaff(rd) {
		if !hasRole(rd, user.RoleMentor) {
			return domainagg.TransitionResult{}, apierr.Forbidden("Apenas mentores e coordenadores podem registrar progresso")
		}
		if err := s.requireTurmaMentor(ctx, rd, id); err != nil {
			return domainagg.TransitionResult{}, err
		}
	}
	res, err := s.agg.UpdateProgress(ctx, domainagg.UpdateProgressInput{
		InscriptionID: id,
		Progress:      progress,
		Attendance:    attendance,
		ActorID:       rd.UserID,
	})
	if err != nil {
		return res, err
	}
	s.announce(ctx, res)
	return res, nil
}

func (s *inscriptionService) StartTurma(ctx context.Context, turmaID string) (domainagg.StartTurmaResult, error) {
	if _, err := requireStaff(ctx); err != nil {
		return domainagg.StartTurmaResult{}, err
	}
	res, err := s.agg.StartTurma(ctx, domainagg.StartTurmaInput{TurmaID: turmaID})
	if err != nil {
		return res, err
	}
	s.log.Info("Turma started", "turma_id", turmaID, "activated", len(res.Activated))

	msgs := append(startedMessages(res), countsMessages(res.Counts)...)
	s.publisher.Publish(ctx, msgs...)
	return res, nil
}

func (s *inscriptionService) SyncCounts(ctx context.Context, turmaID string) (domainagg.Counts, error) {
	if _, err := requireStaff(ctx); err != nil {
		return domainagg.Counts{}, err
	}
	counts, err := s.agg.SyncCounts(ctx, turmaID)
	if err != nil {
		return counts, err
	}
	s.publisher.Publish(ctx, countsMessages(counts)...)
	return counts, nil
}

func (s *inscriptionService) Remove(ctx context.Context, id string) (bool, error) {
	if _, err := requireStaff(ctx); err != nil {
		return false, err
	}
	ins, err := s.inscriptions.GetByID(dbctx.Context{Ctx: ctx}, id)
	if err != nil {
		return false, err
	}
	if ins == nil {
		return false, nil
	}
	ok, err := s.agg.Remove(ctx, id)
	if err != nil || !ok {
		return ok, err
	}
	s.log.Info("Inscription removed", "inscription_id", id, "turma_id", ins.TurmaID)

	msgs := fanout(realtime.SSEEventInscriptionRemoved, ins, ins.UserID, ins.TurmaID)
	if counts, err := s.turmaCounts(ctx, ins.TurmaID); err == nil {
		msgs = append(msgs, countsMessages(counts)...)
	}
	s.publisher.Publish(ctx, msgs...)
	return true, nil
}

func (s *inscriptionService) ReconcileAll(ctx context.Context) (int, error) {
	turmas, err := s.turmas.GetAll(dbctx.Context{Ctx: ctx})
	if err != nil {
		return 0, fmt.Errorf("list turmas: %w", err)
	}
	n := 0
	for _, t := range turmas {
		if _, err := s.agg.SyncCounts(ctx, t.ID); err != nil {
			return n, fmt.Errorf("sync turma %s: %w", t.ID, err)
		}
		n++
	}
	s.log.Info("Turma counters reconciled", "turmas", n)
	return n, nil
}

func (s *inscriptionService) authorizeEvent(ctx context.Context, rd *ctxutil.RequestData, id string, ev enrollment.Event) error {
	switch {
	case isStaff(rd):
		return nil
	case ev == enrollment.EventComplete && hasRole(rd, user.RoleMentor):
		return s.requireTurmaMentor(ctx, rd, id)
	case ev == enrollment.EventCancel:
		ins, err := s.inscriptions.GetByID(dbctx.Context{Ctx: ctx}, id)
		if err != nil {
			return err
		}
		// Unknown ids fall through to the aggregate's not_found.
		if ins == nil || ins.UserID == rd.UserID {
			return nil
		}
		return apierr.Forbidden("Você só pode cancelar suas próprias inscrições")
	default:
		return apierr.Forbidden("Apenas coordenadores e administradores podem realizar esta ação")
	}
}

// requireTurmaMentor lets a mentor act only on inscriptions of a turma they
// mentor. Unknown ids fall through to the aggregate's not_found.
func (s *inscriptionService) requireTurmaMentor(ctx context.Context, rd *ctxutil.RequestData, id string) error {
	dbc := dbctx.Context{Ctx: ctx}
	ins, err := s.inscriptions.GetByID(dbc, id)
	if err != nil || ins == nil {
		return err
	}
	t, err := s.turmas.GetByID(dbc, ins.TurmaID)
	if err != nil {
		return err
	}
	if t == nil || t.MentorID == "" || t.MentorID != rd.UserID {
		return apierr.Forbidden("Apenas o mentor desta turma pode registrar a conclusão")
	}
	return nil
}

func (s *inscriptionService) announce(ctx context.Context, res domainagg.TransitionResult) {
	ins := res.Inscription
	if ins == nil {
		return
	}
	if res.From != ins.Status {
		s.log.Info("Inscription status changed", "inscription_id", ins.ID, "from", string(res.From), "to", string(ins.Status))
	}
	msgs := fanout(realtime.SSEEventInscriptionUpdated, map[string]any{"inscription": ins, "from": res.From}, ins.UserID, ins.TurmaID)
	msgs = append(msgs, countsMessages(res.Counts)...)
	if res.Certificate != nil {
		msgs = append(msgs, realtime.SSEMessage{
			Channel: realtime.UserChannel(ins.UserID),
			Event:   realtime.SSEEventCertificateIssued,
			Data:    res.Certificate,
		})
	}
	s.publisher.Publish(ctx, msgs...)
}

func (s *inscriptionService) turmaCounts(ctx context.Context, turmaID string) (domainagg.Counts, error) {
	t, err := s.turmas.GetByID(dbctx.Context{Ctx: ctx}, turmaID)
	if err != nil || t == nil {
		return domainagg.Counts{}, fmt.Errorf("turma %s unavailable: %v", turmaID, err)
	}
	return domainagg.Counts{
		TurmaID:       t.ID,
		TrilhaID:      t.TrilhaID,
		EnrolledCount: t.EnrolledCount,
		ApprovedCount: t.ApprovedCount,
	}, nil
}

// fanout addresses one event to the student, the turma and staff.
func fanout(ev realtime.SSEEvent, data any, userID, turmaID string) []realtime.SSEMessage {
	return []realtime.SSEMessage{
		{Channel: realtime.UserChannel(userID), Event: ev, Data: data},
		{Channel: realtime.TurmaChannel(turmaID), Event: ev, Data: data},
		{Channel: realtime.StaffChannel, Event: ev, Data: data},
	}
}

// startedMessages announces a started turma and tells each activated student.
func startedMessages(res domainagg.StartTurmaResult) []realtime.SSEMessage {
	msgs := []realtime.SSEMessage{
		{Channel: realtime.TurmaChannel(res.TurmaID), Event: realtime.SSEEventTurmaStarted, Data: res},
		{Channel: realtime.StaffChannel, Event: realtime.SSEEventTurmaStarted, Data: res},
	}
	for _, ins := range res.Activated {
		msgs = append(msgs, realtime.SSEMessage{
			Channel: realtime.UserChannel(ins.UserID),
			Event:   realtime.SSEEventInscriptionUpdated,
			Data:    ins,
		})
	}
	return msgs
}

func countsMessages(c domainagg.Counts) []realtime.SSEMessage {
	if c.TurmaID == "" {
		return nil
	}
	return []realtime.SSEMessage{
		{Channel: realtime.TurmaChannel(c.TurmaID), Event: realtime.SSEEventTurmaCountsChanged, Data: c},
		{Channel: realtime.StaffChannel, Event: realtime.SSEEventTurmaCountsChanged, Data: c},
	}
}

func asInt(v any) (int, bool) {
	switch n := v.(type) {
	case float64:
		if n != float64(int(n)) {
			return 0, false
		}
		return int(n), true
	case int:
		return n, true
	case int64:
		return int(n), true
	default:
		return 0, false
	}
}
