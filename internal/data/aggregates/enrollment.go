package aggregates

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/openacademy/trilhas-backend/internal/data/repos"
	types "github.com/openacademy/trilhas-backend/internal/domain"
	domainagg "github.com/openacademy/trilhas-backend/internal/domain/aggregates"
	"github.com/openacademy/trilhas-backend/internal/domain/catalog"
	"github.com/openacademy/trilhas-backend/internal/domain/enrollment"
	"github.com/openacademy/trilhas-backend/internal/platform/dbctx"
)

const (
	inscriptionsTable = "turma_inscriptions"
	turmasTable       = "turmas"
)

type EnrollmentDeps struct {
	BaseDeps
	Users        repos.UserRepo
	Trilhas      repos.TrilhaRepo
	Turmas       repos.TurmaRepo
	Inscriptions repos.TurmaInscriptionRepo
	Certificates repos.CertificateRepo
}

type enrollmentAggregate struct {
	deps EnrollmentDeps
}

func NewEnrollmentAggregate(deps EnrollmentDeps) domainagg.EnrollmentAggregate {
	deps.BaseDeps = deps.BaseDeps.withDefaults()
	return &enrollmentAggregate{deps: deps}
}

func (a *enrollmentAggregate) Contract() domainagg.Contract {
	return domainagg.EnrollmentAggregateContract
}

func (a *enrollmentAggregate) at(t time.Time) time.Time {
	if t.IsZero() {
		return a.deps.Now()
	}
	return t.UTC()
}

func (a *enrollmentAggregate) Enroll(ctx context.Context, in domainagg.EnrollInput) (domainagg.EnrollResult, error) {
	const op = "Enrollment.Enroll"
	var out domainagg.EnrollResult

	userID := strings.TrimSpace(in.UserID)
	turmaID := strings.TrimSpace(in.TurmaID)
	if userID == "" || turmaID == "" {
		return out, MapError(op, ValidationError("userId e turmaId são obrigatórios"))
	}
	at := a.at(in.EnrollAt)

	err := executeWrite(ctx, a.deps.BaseDeps, op, func(dbc dbctx.Context) error {
		turma, err := a.deps.Turmas.LockByID(dbc, turmaID)
		if err != nil {
			return err
		}
		if turma == nil {
			return fail(domainagg.CodeNotFound, op, "Turma não encontrada")
		}
		if !turma.OpenForEnrollment() {
			return fail(domainagg.CodePreconditionFailed, op, "Esta turma não está com inscrições abertas")
		}

		u, err := a.deps.Users.GetByID(dbc, userID)
		if err != nil {
			return err
		}
		if u == nil {
			return fail(domainagg.CodeNotFound, op, "Usuário não encontrado")
		}
		if !u.IsVerified {
			return fail(domainagg.CodePreconditionFailed, op, "Verifique seu email antes de se inscrever")
		}

		holder, err := a.deps.Inscriptions.SeatHolder(dbc, userID, turmaID)
		if err != nil {
			return err
		}
		if holder != nil {
			return fail(domainagg.CodeConflict, op, "Você já está inscrito nesta turma")
		}

		byStatus, err := a.deps.Inscriptions.CountByStatus(dbc, turmaID)
		if err != nil {
			return err
		}
		capacity := turma.MaxStudents
		if capacity <= 0 {
			capacity = catalog.DefaultMaxStudents
		}
		if seatCount(byStatus) >= capacity {
			return fail(domainagg.CodeCapacityExceeded, op, "Turma lotada. Não há mais vagas disponíveis.")
		}

		rec := &types.TurmaInscription{
			UserID:          userID,
			TurmaID:         turmaID,
			Status:          enrollment.StatusPending,
			InscriptionDate: at,
			Progress:        0,
			Attendance:      0,
		}
		created, err := a.deps.Inscriptions.Create(dbc, rec)
		if err != nil {
			return err
		}
		counts, err := a.recompute(dbc, turma)
		if err != nil {
			return err
		}
		out = domainagg.EnrollResult{Inscription: created, Counts: counts}
		return nil
	})
	if err != nil {
		return domainagg.EnrollResult{}, err
	}
	a.deps.Log.Info("inscription created", "inscription_id", out.Inscription.ID, "turma_id", turmaID, "user_id", userID)
	return out, nil
}

func (a *enrollmentAggregate) Transition(ctx context.Context, in domainagg.TransitionInput) (domainagg.TransitionResult, error) {
	const op = "Enrollment.Transition"
	var out domainagg.TransitionResult

	id := strings.TrimSpace(in.InscriptionID)
	if id == "" {
		return out, MapError(op, ValidationError("inscriptionId é obrigatório"))
	}
	ev, ok := enrollment.ParseEvent(string(in.Event))
	if !ok {
		return out, MapError(op, ValidationError(fmt.Sprintf("evento desconhecido: %q", in.Event)))
	}
	at := a.at(in.At)

	err := executeWrite(ctx, a.deps.BaseDeps, op, func(dbc dbctx.Context) error {
		res, err := a.transitionAndSync(dbc, op, id, ev, in.ActorID, in.Reason, at, nil)
		out = res
		return err
	})
	if err != nil {
		return domainagg.TransitionResult{}, err
	}
	a.deps.Hooks.IncTransition(out.From, out.Inscription.Status)
	a.deps.Log.Info("inscription transitioned",
		"inscription_id", id, "event", string(ev), "from", string(out.From), "to", string(out.Inscription.Status), "actor_id", in.ActorID)
	return out, nil
}

func (a *enrollmentAggregate) UpdateProgress(ctx context.Context, in domainagg.UpdateProgressInput) (domainagg.TransitionResult, error) {
	const op = "Enrollment.UpdateProgress"
	var out domainagg.TransitionResult

	id := strings.TrimSpace(in.InscriptionID)
	if id == "" {
		return out, MapError(op, ValidationError("inscriptionId é obrigatório"))
	}
	if in.Progress == nil && in.Attendance == nil {
		return out, MapError(op, ValidationError("informe progress ou attendance"))
	}
	if in.Progress != nil && (*in.Progress < 0 || *in.Progress > 100) {
		return out, MapError(op, ValidationError("progress deve estar entre 0 e 100"))
	}
	if in.Attendance != nil && (*in.Attendance < 0 || *in.Attendance > 100) {
		return out, MapError(op, ValidationError("attendance deve estar entre 0 e 100"))
	}
	at := a.at(in.At)

	err := executeWrite(ctx, a.deps.BaseDeps, op, func(dbc dbctx.Context) error {
		updates := map[string]any{}
		if in.Progress != nil {
			updates["progress"] = *in.Progress
		}
		if in.Attendance != nil {
			updates["attendance"] = *in.Attendance
		}

		if in.Progress != nil && *in.Progress == 100 {
			res, err := a.transitionAndSync(dbc, op, id, enrollment.EventComplete, in.ActorID, "", at, updates)
			out = res
			return err
		}

		cur, err := a.deps.Inscriptions.LockByID(dbc, id)
		if err != nil {
			return err
		}
		if cur == nil {
			return fail(domainagg.CodeNotFound, op, "Inscrição não encontrada")
		}
		if cur.Status != enrollment.StatusActive {
			return fail(domainagg.CodeInvalidTransition, op, "O progresso só pode ser atualizado em inscrições ativas")
		}
		updates["updated_at"] = at
		ok, err := a.deps.CASGuard.UpdateByStatus(dbc, inscriptionsTable, id, []string{string(enrollment.StatusActive)}, updates)
		if err != nil {
			return err
		}
		if err := RequireCASSuccess(ok, "inscrição alterada por outra requisição"); err != nil {
			return err
		}
		updated, err := a.deps.Inscriptions.GetByID(dbc, id)
		if err != nil {
			return err
		}
		counts, err := a.recomputeByID(dbc, cur.TurmaID)
		if err != nil {
			return err
		}
		out = domainagg.TransitionResult{Inscription: updated, From: cur.Status, Counts: counts}
		return nil
	})
	if err != nil {
		return domainagg.TransitionResult{}, err
	}
	if out.From != out.Inscription.Status {
		a.deps.Hooks.IncTransition(out.From, out.Inscription.Status)
	}
	return out, nil
}

func (a *enrollmentAggregate) StartTurma(ctx context.Context, in domainagg.StartTurmaInput) (domainagg.StartTurmaResult, error) {
	const op = "Enrollment.StartTurma"
	var out domainagg.StartTurmaResult

	turmaID := strings.TrimSpace(in.TurmaID)
	if turmaID == "" {
		return out, MapError(op, ValidationError("turmaId é obrigatório"))
	}
	at := a.at(in.At)

	err := executeWrite(ctx, a.deps.BaseDeps, op, func(dbc dbctx.Context) error {
		turma, err := a.deps.Turmas.LockByID(dbc, turmaID)
		if err != nil {
			return err
		}
		if turma == nil {
			return fail(domainagg.CodeNotFound, op, "Turma não encontrada")
		}
		if turma.Status == catalog.TurmaConcluida {
			return fail(domainagg.CodePreconditionFailed, op, "Turma já concluída")
		}
		if turma.Status != catalog.TurmaEmAndamento {
			if err := a.deps.Turmas.UpdateFields(dbc, turmaID, map[string]any{
				"status":     string(catalog.TurmaEmAndamento),
				"updated_at": at,
			}); err != nil {
				return err
			}
			turma.Status = catalog.TurmaEmAndamento
		}

		activated, err := a.activateApproved(dbc, op, turmaID, at)
		if err != nil {
			return err
		}
		counts, err := a.recompute(dbc, turma)
		if err != nil {
			return err
		}
		out = domainagg.StartTurmaResult{TurmaID: turmaID, Activated: activated, Counts: counts}
		return nil
	})
	if err != nil {
		return domainagg.StartTurmaResult{}, err
	}
	a.observeActivations(len(out.Activated))
	a.deps.Log.Info("turma started", "turma_id", turmaID, "activated", len(out.Activated))
	return out, nil
}

func (a *enrollmentAggregate) ReviseTurma(ctx context.Context, in domainagg.ReviseTurmaInput) (domainagg.ReviseTurmaResult, error) {
	const op = "Enrollment.ReviseTurma"
	var out domainagg.ReviseTurmaResult

	if in.Turma == nil || strings.TrimSpace(in.Turma.ID) == "" {
		return out, MapError(op, ValidationError("turma é obrigatória"))
	}
	next := *in.Turma
	at := a.at(in.At)

	err := executeWrite(ctx, a.deps.BaseDeps, op, func(dbc dbctx.Context) error {
		out = domainagg.ReviseTurmaResult{}
		cur, err := a.deps.Turmas.LockByID(dbc, next.ID)
		if err != nil {
			return err
		}
		if cur == nil {
			return fail(domainagg.CodeNotFound, op, "Turma não encontrada")
		}
		if next.Status != cur.Status {
			msg := fmt.Sprintf("Não é possível mover a turma de %s para %s", cur.Status, next.Status)
			if err := RequireStatusAllowed(op, string(cur.Status), msg, catalog.StatusSources(next.Status)...); err != nil {
				return err
			}
		}
		if next.TrilhaID != cur.TrilhaID {
			trilha, err := a.deps.Trilhas.GetByID(dbc, next.TrilhaID)
			if err != nil {
				return err
			}
			if trilha == nil {
				return fail(domainagg.CodeNotFound, op, "Trilha não encontrada")
			}
		}
		byStatus, err := a.deps.Inscriptions.CountByStatus(dbc, cur.ID)
		if err != nil {
			return err
		}
		if seats := seatCount(byStatus); next.MaxStudents < seats {
			return fail(domainagg.CodePreconditionFailed, op,
				fmt.Sprintf("maxStudents não pode ser menor que as %d vagas ocupadas", seats))
		}

		ok, err := a.deps.CASGuard.UpdateByStatus(dbc, turmasTable, cur.ID, []string{string(cur.Status)}, map[string]any{
			"trilha_id":    next.TrilhaID,
			"name":         next.Name,
			"description":  next.Description,
			"modalidade":   string(next.Modalidade),
			"mentor_id":    next.MentorID,
			"location":     next.Location,
			"horario":      next.Horario,
			"start_date":   next.StartDate,
			"end_date":     next.EndDate,
			"max_students": next.MaxStudents,
			"status":       string(next.Status),
			"updated_at":   at,
		})
		if err != nil {
			return err
		}
		if err := RequireCASSuccess(ok, "turma alterada por outra requisição"); err != nil {
			return err
		}
		if next.Status == catalog.TurmaEmAndamento && cur.Status != catalog.TurmaEmAndamento {
			if out.Activated, err = a.activateApproved(dbc, op, cur.ID, at); err != nil {
				return err
			}
		}
		saved, err := a.deps.Turmas.GetByID(dbc, cur.ID)
		if err != nil {
			return err
		}
		if saved == nil {
			return InvariantError("turma vanished after update")
		}
		if out.Counts, err = a.recompute(dbc, saved); err != nil {
			return err
		}
		if cur.TrilhaID != "" && cur.TrilhaID != saved.TrilhaID {
			n, err := a.recomputeTrilha(dbc, cur.TrilhaID)
			if err != nil {
				return err
			}
			out.Previous = &domainagg.TrilhaCount{TrilhaID: cur.TrilhaID, EnrolledCount: n}
		}
		saved.EnrolledCount = out.Counts.EnrolledCount
		saved.ApprovedCount = out.Counts.ApprovedCount
		out.Turma = saved
		out.From = cur.Status
		return nil
	})
	if err != nil {
		return domainagg.ReviseTurmaResult{}, err
	}
	a.observeActivations(len(out.Activated))
	a.deps.Log.Info("turma revised", "turma_id", out.Turma.ID, "from", string(out.From), "to", string(out.Turma.Status), "activated", len(out.Activated))
	return out, nil
}

func (a *enrollmentAggregate) RemoveTurma(ctx context.Context, turmaID string) (bool, error) {
	const op = "Enrollment.RemoveTurma"

	turmaID = strings.TrimSpace(turmaID)
	if turmaID == "" {
		return false, MapError(op, ValidationError("turmaId é obrigatório"))
	}
	removed := false
	err := executeWrite(ctx, a.deps.BaseDeps, op, func(dbc dbctx.Context) error {
		removed = false
		turma, err := a.deps.Turmas.LockByID(dbc, turmaID)
		if err != nil || turma == nil {
			return err
		}
		byStatus, err := a.deps.Inscriptions.CountByStatus(dbc, turmaID)
		if err != nil {
			return err
		}
		if seats := seatCount(byStatus); seats > 0 {
			return fail(domainagg.CodeConflict, op,
				fmt.Sprintf("A turma possui %d inscrições ocupando vagas", seats))
		}
		if _, err := a.deps.Inscriptions.DeleteReleased(dbc, turmaID); err != nil {
			return err
		}
		if removed, err = a.deps.Turmas.Delete(dbc, turmaID); err != nil {
			return err
		}
		if turma.TrilhaID != "" {
			_, err = a.recomputeTrilha(dbc, turma.TrilhaID)
		}
		return err
	})
	if err != nil {
		return false, err
	}
	return removed, nil
}

func (a *enrollmentAggregate) RemoveTrilha(ctx context.Context, trilhaID string) (bool, error) {
	const op = "Enrollment.RemoveTrilha"

	trilhaID = strings.TrimSpace(trilhaID)
	if trilhaID == "" {
		return false, MapError(op, ValidationError("trilhaId é obrigatório"))
	}
	removed := false
	err := executeWrite(ctx, a.deps.BaseDeps, op, func(dbc dbctx.Context) error {
		turmas, err := a.deps.Turmas.ListByTrilha(dbc, trilhaID)
		if err != nil {
			return err
		}
		if len(turmas) > 0 {
			return fail(domainagg.CodeConflict, op, fmt.Sprintf("A trilha possui %d turmas", len(turmas)))
		}
		removed, err = a.deps.Trilhas.Delete(dbc, trilhaID)
		return err
	})
	if err != nil {
		return false, err
	}
	return removed, nil
}

// activateApproved moves every approved inscription of the turma to active.
func (a *enrollmentAggregate) activateApproved(dbc dbctx.Context, op, turmaID string, at time.Time) ([]*types.TurmaInscription, error) {
	approved, err := a.deps.Inscriptions.ListByTurmaStatus(dbc, turmaID, enrollment.StatusApproved)
	if err != nil {
		return nil, err
	}
	activated := make([]*types.TurmaInscription, 0, len(approved))
	for _, ins := range approved {
		updated, _, err := a.transitionRow(dbc, op, ins.ID, enrollment.EventActivate, "", "", at, nil)
		if err != nil {
			return nil, err
		}
		activated = append(activated, updated)
	}
	return activated, nil
}

func (a *enrollmentAggregate) observeActivations(n int) {
	for i := 0; i < n; i++ {
		a.deps.Hooks.IncTransition(enrollment.StatusApproved, enrollment.StatusActive)
	}
}

func (a *enrollmentAggregate) SyncCounts(ctx context.Context, turmaID string) (domainagg.Counts, error) {
	const op = "Enrollment.SyncCounts"
	var out domainagg.Counts

	turmaID = strings.TrimSpace(turmaID)
	if turmaID == "" {
		return out, MapError(op, ValidationError("turmaId é obrigatório"))
	}
	err := executeWrite(ctx, a.deps.BaseDeps, op, func(dbc dbctx.Context) error {
		turma, err := a.deps.Turmas.LockByID(dbc, turmaID)
		if err != nil {
			return err
		}
		if turma == nil {
			return fail(domainagg.CodeNotFound, op, "Turma não encontrada")
		}
		out, err = a.recompute(dbc, turma)
		return err
	})
	if err != nil {
		return domainagg.Counts{}, err
	}
	return out, nil
}

func (a *enrollmentAggregate) Remove(ctx context.Context, inscriptionID string) (bool, error) {
	const op = "Enrollment.Remove"

	id := strings.TrimSpace(inscriptionID)
	if id == "" {
		return false, MapError(op, ValidationError("inscriptionId é obrigatório"))
	}
	removed := false
	err := executeWrite(ctx, a.deps.BaseDeps, op, func(dbc dbctx.Context) error {
		removed = false
		cur, err := a.deps.Inscriptions.LockByID(dbc, id)
		if err != nil || cur == nil {
			return err
		}
		ok, err := a.deps.Inscriptions.Delete(dbc, id)
		if err != nil {
			return err
		}
		removed = ok
		_, err = a.recomputeByID(dbc, cur.TurmaID)
		return err
	})
	if err != nil {
		return false, err
	}
	return removed, nil
}

// transitionAndSync applies ev, refreshes the counters and issues the
// certificate when the inscription completes.
func (a *enrollmentAggregate) transitionAndSync(dbc dbctx.Context, op, id string, ev enrollment.Event, actorID, reason string, at time.Time, extra map[string]any) (domainagg.TransitionResult, error) {
	var out domainagg.TransitionResult
	updated, from, err := a.transitionRow(dbc, op, id, ev, actorID, reason, at, extra)
	if err != nil {
		return out, err
	}
	counts, err := a.recomputeByID(dbc, updated.TurmaID)
	if err != nil {
		return out, err
	}
	out = domainagg.TransitionResult{Inscription: updated, From: from, Counts: counts}
	if updated.Status == enrollment.StatusCompleted {
		cert, err := a.issueCertificate(dbc, updated, counts.TrilhaID, at)
		if err != nil {
			return out, err
		}
		out.Certificate = cert
	}
	return out, nil
}

// transitionRow moves one inscription through the state machine with a
// compare-and-set on its current status.
func (a *enrollmentAggregate) transitionRow(dbc dbctx.Context, op, id string, ev enrollment.Event, actorID, reason string, at time.Time, extra map[string]any) (*types.TurmaInscription, enrollment.Status, error) {
	cur, err := a.deps.Inscriptions.LockByID(dbc, id)
	if err != nil {
		return nil, "", err
	}
	if cur == nil {
		return nil, "", fail(domainagg.CodeNotFound, op, "Inscrição não encontrada")
	}
	next, err := enrollment.Transition(cur.Status, ev)
	if err != nil {
		return nil, cur.Status, domainagg.NewError(domainagg.CodeInvalidTransition, op,
			fmt.Sprintf("Não é possível aplicar %s a uma inscrição %s (permitido a partir de: %s)", ev, cur.Status, joinStatuses(enrollment.SourcesFor(ev))), err)
	}

	updates := map[string]any{"status": string(next), "updated_at": at}
	switch ev {
	case enrollment.EventApprove:
		updates["approved_at"] = at
		updates["approved_by"] = actorID
	case enrollment.EventReject:
		updates["rejected_at"] = at
		updates["rejected_by"] = actorID
		updates["rejection_reason"] = strings.TrimSpace(reason)
	case enrollment.EventActivate:
		updates["activated_at"] = at
	case enrollment.EventComplete:
		updates["completed_at"] = at
		updates["progress"] = 100
	case enrollment.EventCancel:
		updates["cancelled_at"] = at
		updates["cancelled_by"] = actorID
	}
	for k, v := range extra {
		if _, set := updates[k]; !set {
			updates[k] = v
		}
	}

	ok, err := a.deps.CASGuard.UpdateByStatus(dbc, inscriptionsTable, id, []string{string(cur.Status)}, updates)
	if err != nil {
		return nil, cur.Status, err
	}
	if !ok {
		// The row moved under us; a rerun reads the new status.
		return nil, cur.Status, RetryableError("inscrição alterada por outra requisição")
	}
	updated, err := a.deps.Inscriptions.GetByID(dbc, id)
	if err != nil {
		return nil, cur.Status, err
	}
	if updated == nil {
		return nil, cur.Status, InvariantError("inscription vanished after update")
	}
	return updated, cur.Status, nil
}

func (a *enrollmentAggregate) recomputeByID(dbc dbctx.Context, turmaID string) (domainagg.Counts, error) {
	turma, err := a.deps.Turmas.GetByID(dbc, turmaID)
	if err != nil {
		return domainagg.Counts{}, err
	}
	if turma == nil {
		return domainagg.Counts{TurmaID: turmaID}, nil
	}
	return a.recompute(dbc, turma)
}

// recompute derives the turma and trilha counters from the inscriptions
// table and writes them back. Running it twice yields the same values.
func (a *enrollmentAggregate) recompute(dbc dbctx.Context, turma *types.Turma) (domainagg.Counts, error) {
	byStatus, err := a.deps.Inscriptions.CountByStatus(dbc, turma.ID)
	if err != nil {
		return domainagg.Counts{}, err
	}
	counts := domainagg.Counts{
		TurmaID:       turma.ID,
		TrilhaID:      turma.TrilhaID,
		EnrolledCount: seatCount(byStatus),
		ApprovedCount: byStatus[enrollment.StatusApproved] + byStatus[enrollment.StatusActive] + byStatus[enrollment.StatusCompleted],
	}
	if err := a.deps.Turmas.UpdateFields(dbc, turma.ID, map[string]any{
		"enrolled_count": counts.EnrolledCount,
		"approved_count": counts.ApprovedCount,
	}); err != nil {
		return domainagg.Counts{}, err
	}
	if turma.TrilhaID != "" {
		if counts.TrilhaEnrolledCount, err = a.recomputeTrilha(dbc, turma.TrilhaID); err != nil {
			return domainagg.Counts{}, err
		}
	}
	return counts, nil
}

// recomputeTrilha stores the number of distinct students holding a seat in
// any turma of the trilha.
func (a *enrollmentAggregate) recomputeTrilha(dbc dbctx.Context, trilhaID string) (int, error) {
	n, err := a.deps.Inscriptions.CountSeatUsersForTrilha(dbc, trilhaID)
	if err != nil {
		return 0, err
	}
	if err := a.deps.Trilhas.UpdateFields(dbc, trilhaID, map[string]any{"enrolled_count": n}); err != nil {
		return 0, err
	}
	return n, nil
}

func (a *enrollmentAggregate) issueCertificate(dbc dbctx.Context, ins *types.TurmaInscription, trilhaID string, at time.Time) (*types.Certificate, error) {
	existing, err := a.deps.Certificates.GetByInscriptionID(dbc, ins.ID)
	if err != nil || existing != nil {
		return existing, err
	}
	hours := 0
	if trilhaID != "" {
		trilha, err := a.deps.Trilhas.GetByID(dbc, trilhaID)
		if err != nil {
			return nil, err
		}
		if trilha != nil {
			hours = trilha.Duration
		}
	}
	cert := &types.Certificate{
		UserID:        ins.UserID,
		TurmaID:       ins.TurmaID,
		TrilhaID:      trilhaID,
		InscriptionID: ins.ID,
		Hours:         hours,
		IssuedAt:      at,
	}
	return a.deps.Certificates.Create(dbc, cert)
}

func joinStatuses(statuses []enrollment.Status) string {
	parts := make([]string, 0, len(statuses))
	for _, st := range statuses {
		parts = append(parts, string(st))
	}
	if len(parts) == 0 {
		return "nenhum"
	}
	return strings.Join(parts, ", ")
}

func seatCount(byStatus map[enrollment.Status]int) int {
	n := 0
	for _, s := range enrollment.SeatStatuses {
		n += byStatus[s]
	}
	return n
}
