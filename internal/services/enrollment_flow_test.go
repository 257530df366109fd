package services_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openacademy/trilhas-backend/internal/data/repos/testutil"
	"github.com/openacademy/trilhas-backend/internal/domain/catalog"
	"github.com/openacademy/trilhas-backend/internal/domain/enrollment"
	"github.com/openacademy/trilhas-backend/internal/platform/apierr"
)

func TestFlowSnapshotDerivesStage(t *testing.T) {
	f := newFixture(t)
	trilha := testutil.SeedTrilha(t, f.db, "Dados")
	turma := testutil.SeedTurma(t, f.db, trilha.ID, 3, catalog.TurmaInscricoesAbertas)
	unverified := testutil.SeedUser(t, f.db, "ana@example.com", false)
	verified := testutil.SeedUser(t, f.db, "bia@example.com", true)

	snap, err := f.flow.Snapshot(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, enrollment.StageNone, snap.Stage)

	snap, err = f.flow.Snapshot(context.Background(), turma.ID)
	require.NoError(t, err)
	assert.Equal(t, enrollment.StageLogin, snap.Stage)
	assert.True(t, snap.TurmaOpen)
	assert.Equal(t, 3, snap.AvailableSeats)

	snap, err = f.flow.Snapshot(as(unverified), turma.ID)
	require.NoError(t, err)
	assert.Equal(t, enrollment.StageVerify, snap.Stage)

	snap, err = f.flow.Snapshot(as(verified), turma.ID)
	require.NoError(t, err)
	assert.Equal(t, enrollment.StageEnroll, snap.Stage)
	assert.Nil(t, snap.Inscription)

	_, err = f.flow.Snapshot(context.Background(), "missing")
	ae, ok := apierr.As(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusNotFound, ae.Status)
}

func TestFlowSubmitEnrollsAndResets(t *testing.T) {
	f := newFixture(t)
	trilha := testutil.SeedTrilha(t, f.db, "Dados")
	turma := testutil.SeedTurma(t, f.db, trilha.ID, 3, catalog.TurmaInscricoesAbertas)
	unverified := testutil.SeedUser(t, f.db, "ana@example.com", false)
	verified := testutil.SeedUser(t, f.db, "bia@example.com", true)

	_, err := f.flow.Submit(context.Background(), turma.ID)
	ae, ok := apierr.As(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusUnauthorized, ae.Status)

	res, err := f.flow.Submit(as(unverified), turma.ID)
	ae, ok = apierr.As(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusUnprocessableEntity, ae.Status)
	assert.Equal(t, enrollment.StageVerify, res.Stage)

	res, err = f.flow.Submit(as(verified), turma.ID)
	require.NoError(t, err)
	assert.Equal(t, enrollment.StageNone, res.Stage)
	assert.Equal(t, enrollment.StatusPending, res.Inscription.Status)
	assert.Equal(t, 1, res.Counts.EnrolledCount)

	snap, err := f.flow.Snapshot(as(verified), turma.ID)
	require.NoError(t, err)
	require.NotNil(t, snap.Inscription)
	assert.Equal(t, res.Inscription.ID, snap.Inscription.ID)
	assert.Equal(t, 2, snap.AvailableSeats)
}
