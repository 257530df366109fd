package services_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openacademy/trilhas-backend/internal/data/repos/testutil"
	domainagg "github.com/openacademy/trilhas-backend/internal/domain/aggregates"
	"github.com/openacademy/trilhas-backend/internal/domain/catalog"
	"github.com/openacademy/trilhas-backend/internal/domain/enrollment"
	"github.com/openacademy/trilhas-backend/internal/platform/apierr"
	"github.com/openacademy/trilhas-backend/internal/platform/dbctx"
	"github.com/openacademy/trilhas-backend/internal/realtime"
	"github.com/openacademy/trilhas-backend/internal/services"
)

func TestTurmaStatusPatchStartsTurma(t *testing.T) {
	f := newFixture(t)
	res := newResources(t, f)
	trilha := testutil.SeedTrilha(t, f.db, "Dados")
	turma := testutil.SeedTurma(t, f.db, trilha.ID, 10, catalog.TurmaInscricoesAbertas)
	ana := testutil.SeedUser(t, f.db, "ana@example.com", true)
	ins := testutil.SeedInscription(t, f.db, ana.ID, turma.ID, enrollment.StatusApproved)

	out, err := res.Turmas.Update(context.Background(), turma.ID, map[string]any{"status": "em-andamento"})
	require.NoError(t, err)
	assert.Equal(t, catalog.TurmaEmAndamento, out.(*services.TurmaView).Status)

	got, err := f.set.TurmaInscriptions.GetByID(dbctx.Context{}, ins.ID)
	require.NoError(t, err)
	assert.Equal(t, enrollment.StatusActive, got.Status)
	assert.Contains(t, f.pub.events(realtime.TurmaChannel(turma.ID)), realtime.SSEEventTurmaStarted)
	assert.Contains(t, f.pub.events(realtime.UserChannel(ana.ID)), realtime.SSEEventInscriptionUpdated)

	_, err = res.Turmas.Update(context.Background(), turma.ID, map[string]any{"status": "planejada"})
	assert.True(t, domainagg.IsCode(err, domainagg.CodeInvalidTransition), "got %v", err)
}

func TestTurmaMoveResyncsBothTrilhas(t *testing.T) {
	f := newFixture(t)
	res := newResources(t, f)
	from := testutil.SeedTrilha(t, f.db, "Dados")
	to := testutil.SeedTrilha(t, f.db, "Web")
	turma := testutil.SeedTurma(t, f.db, from.ID, 10, catalog.TurmaInscricoesAbertas)
	ana := testutil.SeedUser(t, f.db, "ana@example.com", true)
	_, err := f.inscriptions.Enroll(as(ana), services.EnrollRequest{TurmaID: turma.ID})
	require.NoError(t, err)

	_, err = res.Turmas.Update(context.Background(), turma.ID, map[string]any{"trilhaId": to.ID})
	require.NoError(t, err)

	old, err := f.set.Trilhas.GetByID(dbctx.Context{}, from.ID)
	require.NoError(t, err)
	assert.Zero(t, old.EnrolledCount)
	moved, err := f.set.Trilhas.GetByID(dbctx.Context{}, to.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, moved.EnrolledCount)
}

func TestTurmaDeleteWithSeatsConflicts(t *testing.T) {
	f := newFixture(t)
	res := newResources(t, f)
	trilha := testutil.SeedTrilha(t, f.db, "Dados")
	turma := testutil.SeedTurma(t, f.db, trilha.ID, 10, catalog.TurmaInscricoesAbertas)
	ana := testutil.SeedUser(t, f.db, "ana@example.com", true)
	enrolled, err := f.inscriptions.Enroll(as(ana), services.EnrollRequest{TurmaID: turma.ID})
	require.NoError(t, err)

	_, err = res.Turmas.Delete(context.Background(), turma.ID)
	assert.True(t, domainagg.IsCode(err, domainagg.CodeConflict), "got %v", err)
	_, err = res.Trilhas.Delete(context.Background(), trilha.ID)
	assert.True(t, domainagg.IsCode(err, domainagg.CodeConflict), "got %v", err)

	_, err = f.inscriptions.Transition(as(ana), enrolled.Inscription.ID, enrollment.EventCancel, "")
	require.NoError(t, err)

	ok, err := res.Turmas.Delete(context.Background(), turma.ID)
	require.NoError(t, err)
	assert.True(t, ok)
	left, err := f.set.TurmaInscriptions.GetByID(dbctx.Context{}, enrolled.Inscription.ID)
	require.NoError(t, err)
	assert.Nil(t, left)

	ok, err = res.Trilhas.Delete(context.Background(), trilha.ID)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestTurmaPatchValidatesMergedRecord(t *testing.T) {
	f := newFixture(t)
	res := newResources(t, f)
	trilha := testutil.SeedTrilha(t, f.db, "Dados")
	turma := testutil.SeedTurma(t, f.db, trilha.ID, 10, catalog.TurmaInscricoesAbertas)

	_, err := res.Turmas.Update(context.Background(), turma.ID, map[string]any{"endDate": "2025-01-01"})
	ae, ok := apierr.As(err)
	require.True(t, ok, "got %v", err)
	assert.Equal(t, http.StatusBadRequest, ae.Status)
}
