package aggregates_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"gorm.io/gorm"

	"github.com/openacademy/trilhas-backend/internal/data/aggregates"
	aggtestutil "github.com/openacademy/trilhas-backend/internal/data/aggregates/testutil"
	"github.com/openacademy/trilhas-backend/internal/data/repos"
	"github.com/openacademy/trilhas-backend/internal/data/repos/testutil"
	domainagg "github.com/openacademy/trilhas-backend/internal/domain/aggregates"
	"github.com/openacademy/trilhas-backend/internal/domain/catalog"
	"github.com/openacademy/trilhas-backend/internal/domain/enrollment"
	"github.com/openacademy/trilhas-backend/internal/platform/dbctx"
)

type fixture struct {
	db    *gorm.DB
	set   *repos.Set
	agg   domainagg.EnrollmentAggregate
	hooks *aggtestutil.HooksRecorder
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := testutil.DB(t)
	lg := testutil.Logger(t)
	set, err := repos.NewSet(db, lg)
	if err != nil {
		t.Fatalf("repos: %v", err)
	}
	hooks := &aggtestutil.HooksRecorder{}
	agg := aggregates.NewEnrollmentAggregate(aggregates.EnrollmentDeps{
		BaseDeps:     aggregates.BaseDeps{DB: db, Log: lg, Hooks: hooks},
		Users:        set.Users,
		Trilhas:      set.Trilhas,
		Turmas:       set.Turmas,
		Inscriptions: set.TurmaInscriptions,
		Certificates: set.Certificates,
	})
	return &fixture{db: db, set: set, agg: agg, hooks: hooks}
}

func (f *fixture) turma(t *testing.T, id string) (enrolled, approved int) {
	t.Helper()
	got, err := f.set.Turmas.GetByID(dbctx.Context{}, id)
	if err != nil || got == nil {
		t.Fatalf("load turma %s: %v", id, err)
	}
	return got.EnrolledCount, got.ApprovedCount
}

func TestEnrollCreatesPendingInscriptionAndSyncsCounters(t *testing.T) {
	f := newFixture(t)
	trilha := testutil.SeedTrilha(t, f.db, "Lógica")
	turma := testutil.SeedTurma(t, f.db, trilha.ID, 5, catalog.TurmaInscricoesAbertas)
	u := testutil.SeedUser(t, f.db, "ana@example.com", true)

	res, err := f.agg.Enroll(context.Background(), domainagg.EnrollInput{UserID: u.ID, TurmaID: turma.ID})
	if err != nil {
		t.Fatalf("Enroll: %v", err)
	}
	if res.Inscription == nil || res.Inscription.Status != enrollment.StatusPending {
		t.Fatalf("expected pending inscription, got %+v", res.Inscription)
	}
	if res.Inscription.Progress != 0 || res.Inscription.Attendance != 0 || res.Inscription.InscriptionDate.IsZero() {
		t.Fatalf("unexpected initial fields: %+v", res.Inscription)
	}
	if res.Counts.EnrolledCount != 1 || res.Counts.TrilhaEnrolledCount != 1 {
		t.Fatalf("unexpected counts: %+v", res.Counts)
	}
	if enrolled, _ := f.turma(t, turma.ID); enrolled != 1 {
		t.Fatalf("stored enrolledCount: want=1 got=%d", enrolled)
	}
	storedTrilha, _ := f.set.Trilhas.GetByID(dbctx.Context{}, trilha.ID)
	if storedTrilha.EnrolledCount != 1 {
		t.Fatalf("trilha enrolledCount: want=1 got=%d", storedTrilha.EnrolledCount)
	}
	if len(f.hooks.Operations) != 1 || f.hooks.Operations[0].Status != "success" {
		t.Fatalf("unexpected hooks: %+v", f.hooks.Operations)
	}
}

func TestEnrollRejectsWhenTurmaIsFull(t *testing.T) {
	f := newFixture(t)
	trilha := testutil.SeedTrilha(t, f.db, "Lógica")
	turma := testutil.SeedTurma(t, f.db, trilha.ID, 2, catalog.TurmaInscricoesAbertas)
	for i := 0; i < 2; i++ {
		u := testutil.SeedUser(t, f.db, fmt.Sprintf("seat%d@example.com", i), true)
		testutil.SeedInscription(t, f.db, u.ID, turma.ID, enrollment.StatusApproved)
	}
	late := testutil.SeedUser(t, f.db, "late@example.com", true)

	_, err := f.agg.Enroll(context.Background(), domainagg.EnrollInput{UserID: late.ID, TurmaID: turma.ID})
	if !domainagg.IsCode(err, domainagg.CodeCapacityExceeded) {
		t.Fatalf("expected capacity_exceeded, got %v", err)
	}
	if got := domainagg.MessageOf(err); got != "Turma lotada. Não há mais vagas disponíveis." {
		t.Fatalf("unexpected message %q", got)
	}
	n, _ := f.set.TurmaInscriptions.Count(dbctx.Context{})
	if n != 2 {
		t.Fatalf("no inscription may be written on capacity failure, got %d rows", n)
	}
}

func TestEnrollRejectedSeatsFreeCapacity(t *testing.T) {
	f := newFixture(t)
	trilha := testutil.SeedTrilha(t, f.db, "Lógica")
	turma := testutil.SeedTurma(t, f.db, trilha.ID, 1, catalog.TurmaInscricoesAbertas)
	old := testutil.SeedUser(t, f.db, "old@example.com", true)
	testutil.SeedInscription(t, f.db, old.ID, turma.ID, enrollment.StatusRejected)
	u := testutil.SeedUser(t, f.db, "ana@example.com", true)

	if _, err := f.agg.Enroll(context.Background(), domainagg.EnrollInput{UserID: u.ID, TurmaID: turma.ID}); err != nil {
		t.Fatalf("Enroll: %v", err)
	}
}

func TestEnrollPreconditions(t *testing.T) {
	f := newFixture(t)
	trilha := testutil.SeedTrilha(t, f.db, "Lógica")
	open := testutil.SeedTurma(t, f.db, trilha.ID, 5, catalog.TurmaInscricoesAbertas)
	planned := testutil.SeedTurma(t, f.db, trilha.ID, 5, catalog.TurmaPlanejada)
	verified := testutil.SeedUser(t, f.db, "ana@example.com", true)
	unverified := testutil.SeedUser(t, f.db, "bia@example.com", false)
	ctx := context.Background()

	cases := []struct {
		name string
		in   domainagg.EnrollInput
		want domainagg.ErrorCode
	}{
		{"missing ids", domainagg.EnrollInput{}, domainagg.CodeValidation},
		{"unknown turma", domainagg.EnrollInput{UserID: verified.ID, TurmaID: "nope"}, domainagg.CodeNotFound},
		{"closed turma", domainagg.EnrollInput{UserID: verified.ID, TurmaID: planned.ID}, domainagg.CodePreconditionFailed},
		{"unknown user", domainagg.EnrollInput{UserID: "nope", TurmaID: open.ID}, domainagg.CodeNotFound},
		{"unverified user", domainagg.EnrollInput{UserID: unverified.ID, TurmaID: open.ID}, domainagg.CodePreconditionFailed},
	}
	for _, tc := range cases {
		if _, err := f.agg.Enroll(ctx, tc.in); !domainagg.IsCode(err, tc.want) {
			t.Fatalf("%s: want %s, got %v", tc.name, tc.want, err)
		}
	}

	if _, err := f.agg.Enroll(ctx, domainagg.EnrollInput{UserID: verified.ID, TurmaID: open.ID}); err != nil {
		t.Fatalf("first enroll: %v", err)
	}
	_, err := f.agg.Enroll(ctx, domainagg.EnrollInput{UserID: verified.ID, TurmaID: open.ID})
	if !domainagg.IsCode(err, domainagg.CodeConflict) {
		t.Fatalf("duplicate enroll: want conflict, got %v", err)
	}
	if len(f.hooks.Conflicts) != 1 {
		t.Fatalf("conflict hook: %+v", f.hooks.Conflicts)
	}
}

func TestConcurrentEnrollNeverOvershootsCapacity(t *testing.T) {
	f := newFixture(t)
	trilha := testutil.SeedTrilha(t, f.db, "Lógica")
	turma := testutil.SeedTurma(t, f.db, trilha.ID, 3, catalog.TurmaInscricoesAbertas)

	const attempts = 10
	userIDs := make([]string, attempts)
	for i := range userIDs {
		userIDs[i] = testutil.SeedUser(t, f.db, fmt.Sprintf("race%d@example.com", i), true).ID
	}

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		ok, full int
		other    []error
	)
	for _, id := range userIDs {
		wg.Add(1)
		go func(userID string) {
			defer wg.Done()
			_, err := f.agg.Enroll(context.Background(), domainagg.EnrollInput{UserID: userID, TurmaID: turma.ID})
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				ok++
			case domainagg.IsCode(err, domainagg.CodeCapacityExceeded):
				full++
			default:
				other = append(other, err)
			}
		}(id)
	}
	wg.Wait()

	if len(other) > 0 {
		t.Fatalf("unexpected errors: %v", other)
	}
	if ok != 3 || full != attempts-3 {
		t.Fatalf("want 3 enrolled and %d rejected, got %d/%d", attempts-3, ok, full)
	}
	if enrolled, _ := f.turma(t, turma.ID); enrolled != 3 {
		t.Fatalf("enrolledCount: want=3 got=%d", enrolled)
	}
}

func TestTransitionLifecycleIssuesCertificate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	trilha := testutil.SeedTrilha(t, f.db, "Lógica")
	turma := testutil.SeedTurma(t, f.db, trilha.ID, 5, catalog.TurmaInscricoesAbertas)
	u := testutil.SeedUser(t, f.db, "ana@example.com", true)
	coord := testutil.SeedStaff(t, f.db, "coord@example.com", "coordenador")

	res, err := f.agg.Enroll(ctx, domainagg.EnrollInput{UserID: u.ID, TurmaID: turma.ID})
	if err != nil {
		t.Fatalf("Enroll: %v", err)
	}
	id := res.Inscription.ID

	approved, err := f.agg.Transition(ctx, domainagg.TransitionInput{InscriptionID: id, Event: enrollment.EventApprove, ActorID: coord.ID})
	if err != nil {
		t.Fatalf("approve: %v", err)
	}
	if approved.Inscription.Status != enrollment.StatusApproved || approved.Inscription.ApprovedBy != coord.ID || approved.Inscription.ApprovedAt == nil {
		t.Fatalf("approve audit fields missing: %+v", approved.Inscription)
	}
	if approved.From != enrollment.StatusPending || approved.Counts.ApprovedCount != 1 || approved.Counts.EnrolledCount != 1 {
		t.Fatalf("unexpected approve result: %+v", approved)
	}

	if _, err := f.agg.Transition(ctx, domainagg.TransitionInput{InscriptionID: id, Event: enrollment.EventReject}); !domainagg.IsCode(err, domainagg.CodeInvalidTransition) {
		t.Fatalf("reject after approve: want invalid_transition, got %v", err)
	}

	started, err := f.agg.StartTurma(ctx, domainagg.StartTurmaInput{TurmaID: turma.ID})
	if err != nil {
		t.Fatalf("StartTurma: %v", err)
	}
	if len(started.Activated) != 1 || started.Activated[0].Status != enrollment.StatusActive {
		t.Fatalf("expected one activated inscription, got %+v", started.Activated)
	}
	storedTurma, _ := f.set.Turmas.GetByID(dbctx.Context{}, turma.ID)
	if storedTurma.Status != catalog.TurmaEmAndamento {
		t.Fatalf("turma status: want em-andamento got %s", storedTurma.Status)
	}

	half := 50
	progress, err := f.agg.UpdateProgress(ctx, domainagg.UpdateProgressInput{InscriptionID: id, Progress: &half})
	if err != nil {
		t.Fatalf("UpdateProgress: %v", err)
	}
	if progress.Inscription.Progress != 50 || progress.Inscription.Status != enrollment.StatusActive {
		t.Fatalf("unexpected progress result: %+v", progress.Inscription)
	}

	full, attendance := 100, 90
	done, err := f.agg.UpdateProgress(ctx, domainagg.UpdateProgressInput{InscriptionID: id, Progress: &full, Attendance: &attendance})
	if err != nil {
		t.Fatalf("UpdateProgress to 100: %v", err)
	}
	if done.Inscription.Status != enrollment.StatusCompleted || done.Inscription.CompletedAt == nil || done.Inscription.Attendance != 90 {
		t.Fatalf("expected completed inscription, got %+v", done.Inscription)
	}
	if done.Certificate == nil || done.Certificate.Hours != trilha.Duration || done.Certificate.Code == "" {
		t.Fatalf("expected certificate, got %+v", done.Certificate)
	}
	if done.Counts.EnrolledCount != 1 || done.Counts.ApprovedCount != 1 {
		t.Fatalf("completed inscription still occupies its seat: %+v", done.Counts)
	}

	if _, err := f.agg.Transition(ctx, domainagg.TransitionInput{InscriptionID: id, Event: enrollment.EventCancel}); !domainagg.IsCode(err, domainagg.CodeInvalidTransition) {
		t.Fatalf("cancel after complete: want invalid_transition, got %v", err)
	}
	n, _ := f.set.Certificates.Count(dbctx.Context{})
	if n != 1 {
		t.Fatalf("certificates: want=1 got=%d", n)
	}
}

func TestRejectFreesSeatAndRecordsReason(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	trilha := testutil.SeedTrilha(t, f.db, "Lógica")
	turma := testutil.SeedTurma(t, f.db, trilha.ID, 5, catalog.TurmaInscricoesAbertas)
	u := testutil.SeedUser(t, f.db, "ana@example.com", true)

	res, err := f.agg.Enroll(ctx, domainagg.EnrollInput{UserID: u.ID, TurmaID: turma.ID})
	if err != nil {
		t.Fatalf("Enroll: %v", err)
	}
	rejected, err := f.agg.Transition(ctx, domainagg.TransitionInput{
		InscriptionID: res.Inscription.ID, Event: enrollment.EventReject, ActorID: "coord", Reason: " perfil incompatível ",
	})
	if err != nil {
		t.Fatalf("reject: %v", err)
	}
	if rejected.Inscription.RejectionReason != "perfil incompatível" || rejected.Inscription.RejectedAt == nil {
		t.Fatalf("reject audit fields missing: %+v", rejected.Inscription)
	}
	if rejected.Counts.EnrolledCount != 0 || rejected.Counts.TrilhaEnrolledCount != 0 {
		t.Fatalf("rejected inscription must not hold a seat: %+v", rejected.Counts)
	}

	again, err := f.agg.Enroll(ctx, domainagg.EnrollInput{UserID: u.ID, TurmaID: turma.ID})
	if err != nil {
		t.Fatalf("re-enroll after rejection: %v", err)
	}
	if again.Counts.EnrolledCount != 1 {
		t.Fatalf("re-enroll counts: %+v", again.Counts)
	}
}

func TestUpdateProgressValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	trilha := testutil.SeedTrilha(t, f.db, "Lógica")
	turma := testutil.SeedTurma(t, f.db, trilha.ID, 5, catalog.TurmaEmAndamento)
	u := testutil.SeedUser(t, f.db, "ana@example.com", true)
	pending := testutil.SeedInscription(t, f.db, u.ID, turma.ID, enrollment.StatusPending)

	bad := 101
	if _, err := f.agg.UpdateProgress(ctx, domainagg.UpdateProgressInput{InscriptionID: pending.ID, Progress: &bad}); !domainagg.IsCode(err, domainagg.CodeValidation) {
		t.Fatalf("want validation, got %v", err)
	}
	if _, err := f.agg.UpdateProgress(ctx, domainagg.UpdateProgressInput{InscriptionID: pending.ID}); !domainagg.IsCode(err, domainagg.CodeValidation) {
		t.Fatalf("want validation for empty update, got %v", err)
	}
	ok := 10
	if _, err := f.agg.UpdateProgress(ctx, domainagg.UpdateProgressInput{InscriptionID: pending.ID, Progress: &ok}); !domainagg.IsCode(err, domainagg.CodeInvalidTransition) {
		t.Fatalf("want invalid_transition for pending inscription, got %v", err)
	}
	if _, err := f.agg.UpdateProgress(ctx, domainagg.UpdateProgressInput{InscriptionID: "missing", Progress: &ok}); !domainagg.IsCode(err, domainagg.CodeNotFound) {
		t.Fatalf("want not_found, got %v", err)
	}
}

func TestSyncCountsIsIdempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	trilha := testutil.SeedTrilha(t, f.db, "Lógica")
	turma := testutil.SeedTurma(t, f.db, trilha.ID, 10, catalog.TurmaInscricoesAbertas)
	statuses := []enrollment.Status{
		enrollment.StatusPending, enrollment.StatusApproved, enrollment.StatusActive,
		enrollment.StatusCompleted, enrollment.StatusRejected, enrollment.StatusCancelled,
	}
	for i, s := range statuses {
		u := testutil.SeedUser(t, f.db, fmt.Sprintf("s%d@example.com", i), true)
		testutil.SeedInscription(t, f.db, u.ID, turma.ID, s)
	}

	first, err := f.agg.SyncCounts(ctx, turma.ID)
	if err != nil {
		t.Fatalf("SyncCounts: %v", err)
	}
	second, err := f.agg.SyncCounts(ctx, turma.ID)
	if err != nil {
		t.Fatalf("SyncCounts again: %v", err)
	}
	if first != second {
		t.Fatalf("sync not idempotent: %+v vs %+v", first, second)
	}
	if first.EnrolledCount != 4 || first.ApprovedCount != 3 || first.TrilhaEnrolledCount != 4 {
		t.Fatalf("unexpected counts: %+v", first)
	}
	if enrolled, approved := f.turma(t, turma.ID); enrolled != 4 || approved != 3 {
		t.Fatalf("stored counters: %d/%d", enrolled, approved)
	}

	if _, err := f.agg.SyncCounts(ctx, "missing"); !domainagg.IsCode(err, domainagg.CodeNotFound) {
		t.Fatalf("want not_found, got %v", err)
	}
}

func TestRemoveResyncsCounters(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	trilha := testutil.SeedTrilha(t, f.db, "Lógica")
	turma := testutil.SeedTurma(t, f.db, trilha.ID, 10, catalog.TurmaInscricoesAbertas)
	u := testutil.SeedUser(t, f.db, "ana@example.com", true)

	res, err := f.agg.Enroll(ctx, domainagg.EnrollInput{UserID: u.ID, TurmaID: turma.ID})
	if err != nil {
		t.Fatalf("Enroll: %v", err)
	}
	removed, err := f.agg.Remove(ctx, res.Inscription.ID)
	if err != nil || !removed {
		t.Fatalf("Remove: removed=%v err=%v", removed, err)
	}
	if enrolled, _ := f.turma(t, turma.ID); enrolled != 0 {
		t.Fatalf("enrolledCount after remove: %d", enrolled)
	}
	removed, err = f.agg.Remove(ctx, res.Inscription.ID)
	if err != nil || removed {
		t.Fatalf("second Remove: removed=%v err=%v", removed, err)
	}
}

func TestEnrollRetriesTransientFailures(t *testing.T) {
	f := newFixture(t)
	trilha := testutil.SeedTrilha(t, f.db, "Lógica")
	turma := testutil.SeedTurma(t, f.db, trilha.ID, 5, catalog.TurmaInscricoesAbertas)
	u := testutil.SeedUser(t, f.db, "ana@example.com", true)
	locked := errors.New("database is locked")

	cases := []struct {
		name     string
		failures int
		wantErr  bool
		bodies   int
	}{
		{name: "gives up after every attempt fails", failures: 3, wantErr: true, bodies: 0},
		{name: "recovers on the last attempt", failures: 2, bodies: 1},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			failures := make([]error, tc.failures)
			for i := range failures {
				failures[i] = locked
			}
			runner := &aggtestutil.ScriptedTxRunner{Failures: failures, Next: aggregates.NewGormTxRunner(f.db)}
			hooks := &aggtestutil.HooksRecorder{}
			agg := aggregates.NewEnrollmentAggregate(aggregates.EnrollmentDeps{
				BaseDeps:     aggregates.BaseDeps{DB: f.db, Runner: runner, Hooks: hooks},
				Users:        f.set.Users,
				Trilhas:      f.set.Trilhas,
				Turmas:       f.set.Turmas,
				Inscriptions: f.set.TurmaInscriptions,
				Certificates: f.set.Certificates,
			})

			res, err := agg.Enroll(context.Background(), domainagg.EnrollInput{UserID: u.ID, TurmaID: turma.ID})
			if tc.wantErr {
				if !domainagg.IsCode(err, domainagg.CodeRetryable) {
					t.Fatalf("want retryable, got %v", err)
				}
			} else if err != nil || res.Inscription == nil {
				t.Fatalf("Enroll: res=%+v err=%v", res, err)
			}
			if runner.Attempts() != 3 || runner.Bodies() != tc.bodies {
				t.Fatalf("runner: attempts=%d bodies=%d", runner.Attempts(), runner.Bodies())
			}
			if len(hooks.Retries) != tc.failures || len(hooks.Operations) != 1 {
				t.Fatalf("unexpected hooks: retries=%v ops=%v", hooks.Retries, hooks.Operations)
			}
		})
	}
}

func (f *fixture) trilhaCount(t *testing.T, id string) int {
	t.Helper()
	got, err := f.set.Trilhas.GetByID(dbctx.Context{}, id)
	if err != nil || got == nil {
		t.Fatalf("load trilha %s: %v", id, err)
	}
	return got.EnrolledCount
}

func TestReviseTurmaStartsAndMovesTrilha(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	from := testutil.SeedTrilha(t, f.db, "Lógica")
	to := testutil.SeedTrilha(t, f.db, "Dados")
	turma := testutil.SeedTurma(t, f.db, from.ID, 10, catalog.TurmaInscricoesAbertas)
	approved := testutil.SeedInscription(t, f.db, testutil.SeedUser(t, f.db, "a@example.com", true).ID, turma.ID, enrollment.StatusApproved)
	testutil.SeedInscription(t, f.db, testutil.SeedUser(t, f.db, "b@example.com", true).ID, turma.ID, enrollment.StatusPending)
	if _, err := f.agg.SyncCounts(ctx, turma.ID); err != nil {
		t.Fatalf("SyncCounts: %v", err)
	}

	next := *turma
	next.Status = catalog.TurmaEmAndamento
	next.TrilhaID = to.ID
	res, err := f.agg.ReviseTurma(ctx, domainagg.ReviseTurmaInput{Turma: &next})
	if err != nil {
		t.Fatalf("ReviseTurma: %v", err)
	}
	if res.From != catalog.TurmaInscricoesAbertas || res.Turma.Status != catalog.TurmaEmAndamento {
		t.Fatalf("unexpected status move: from=%s to=%s", res.From, res.Turma.Status)
	}
	if len(res.Activated) != 1 || res.Activated[0].ID != approved.ID || res.Activated[0].Status != enrollment.StatusActive {
		t.Fatalf("unexpected activations: %+v", res.Activated)
	}
	if f.hooks.TransitionsTo(enrollment.StatusActive) != 1 {
		t.Fatalf("activation not observed: %+v", f.hooks.Transitions)
	}
	if res.Previous == nil || res.Previous.TrilhaID != from.ID || res.Previous.EnrolledCount != 0 {
		t.Fatalf("unexpected previous trilha: %+v", res.Previous)
	}
	if got := f.trilhaCount(t, from.ID); got != 0 {
		t.Fatalf("old trilha enrolledCount: %d", got)
	}
	if got := f.trilhaCount(t, to.ID); got != 2 || res.Counts.TrilhaEnrolledCount != 2 {
		t.Fatalf("new trilha enrolledCount: stored=%d result=%d", got, res.Counts.TrilhaEnrolledCount)
	}
}

func TestReviseTurmaGuards(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	trilha := testutil.SeedTrilha(t, f.db, "Lógica")
	turma := testutil.SeedTurma(t, f.db, trilha.ID, 10, catalog.TurmaConcluida)
	open := testutil.SeedTurma(t, f.db, trilha.ID, 10, catalog.TurmaInscricoesAbertas)
	testutil.SeedInscription(t, f.db, testutil.SeedUser(t, f.db, "a@example.com", true).ID, open.ID, enrollment.StatusApproved)
	testutil.SeedInscription(t, f.db, testutil.SeedUser(t, f.db, "b@example.com", true).ID, open.ID, enrollment.StatusPending)

	back := *turma
	back.Status = catalog.TurmaPlanejada
	if _, err := f.agg.ReviseTurma(ctx, domainagg.ReviseTurmaInput{Turma: &back}); !domainagg.IsCode(err, domainagg.CodeInvalidTransition) {
		t.Fatalf("concluida -> planejada: want invalid_transition, got %v", err)
	}

	shrink := *open
	shrink.MaxStudents = 1
	if _, err := f.agg.ReviseTurma(ctx, domainagg.ReviseTurmaInput{Turma: &shrink}); !domainagg.IsCode(err, domainagg.CodePreconditionFailed) {
		t.Fatalf("maxStudents below seats: want precondition_failed, got %v", err)
	}

	lost := *open
	lost.TrilhaID = "missing"
	if _, err := f.agg.ReviseTurma(ctx, domainagg.ReviseTurmaInput{Turma: &lost}); !domainagg.IsCode(err, domainagg.CodeNotFound) {
		t.Fatalf("unknown trilha: want not_found, got %v", err)
	}

	renamed := *open
	renamed.Name = "Turma Noturna"
	res, err := f.agg.ReviseTurma(ctx, domainagg.ReviseTurmaInput{Turma: &renamed})
	if err != nil {
		t.Fatalf("rename: %v", err)
	}
	if res.Turma.Name != "Turma Noturna" || len(res.Activated) != 0 || res.Previous != nil {
		t.Fatalf("unexpected rename result: %+v", res)
	}
}

func TestRemoveTurmaRefusesHeldSeats(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	trilha := testutil.SeedTrilha(t, f.db, "Lógica")
	turma := testutil.SeedTurma(t, f.db, trilha.ID, 10, catalog.TurmaInscricoesAbertas)
	held := testutil.SeedInscription(t, f.db, testutil.SeedUser(t, f.db, "a@example.com", true).ID, turma.ID, enrollment.StatusApproved)
	released := testutil.SeedInscription(t, f.db, testutil.SeedUser(t, f.db, "b@example.com", true).ID, turma.ID, enrollment.StatusRejected)

	if _, err := f.agg.RemoveTurma(ctx, turma.ID); !domainagg.IsCode(err, domainagg.CodeConflict) {
		t.Fatalf("want conflict while a seat is held, got %v", err)
	}
	if _, err := f.agg.RemoveTrilha(ctx, trilha.ID); !domainagg.IsCode(err, domainagg.CodeConflict) {
		t.Fatalf("want conflict while the trilha has turmas, got %v", err)
	}

	if _, err := f.agg.Transition(ctx, domainagg.TransitionInput{InscriptionID: held.ID, Event: enrollment.EventCancel}); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	removed, err := f.agg.RemoveTurma(ctx, turma.ID)
	if err != nil || !removed {
		t.Fatalf("RemoveTurma: removed=%v err=%v", removed, err)
	}
	for _, id := range []string{held.ID, released.ID} {
		if got, err := f.set.TurmaInscriptions.GetByID(dbctx.Context{}, id); err != nil || got != nil {
			t.Fatalf("inscription %s survived its turma: %+v err=%v", id, got, err)
		}
	}
	if got := f.trilhaCount(t, trilha.ID); got != 0 {
		t.Fatalf("trilha enrolledCount after remove: %d", got)
	}

	removed, err = f.agg.RemoveTrilha(ctx, trilha.ID)
	if err != nil || !removed {
		t.Fatalf("RemoveTrilha: removed=%v err=%v", removed, err)
	}
}
