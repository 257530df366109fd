package repos

import (
	"errors"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openacademy/trilhas-backend/internal/data/repos/testutil"
	types "github.com/openacademy/trilhas-backend/internal/domain"
	"github.com/openacademy/trilhas-backend/internal/domain/catalog"
	"github.com/openacademy/trilhas-backend/internal/platform/dbctx"
)

func TestCollectionCreateAssignsIDAndGetByIDReturnsIt(t *testing.T) {
	db := testutil.DB(t)
	repo, err := NewTrilhaRepo(db, testutil.Logger(t))
	require.NoError(t, err)
	dbc := dbctx.Context{}

	created, err := repo.Create(dbc, &types.Trilha{Title: "Web Básico", Duration: 20})
	require.NoError(t, err)
	require.NotEmpty(t, created.ID)

	got, err := repo.GetByID(dbc, created.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Web Básico", got.Title)
	assert.Equal(t, 20, got.Duration)
}

func TestCollectionGetByIDAbsent(t *testing.T) {
	db := testutil.DB(t)
	repo, err := NewTrilhaRepo(db, testutil.Logger(t))
	require.NoError(t, err)

	got, err := repo.GetByID(dbctx.Context{}, "missing")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestCollectionGetAllKeepsInsertionOrder(t *testing.T) {
	db := testutil.DB(t)
	repo, err := NewTrilhaRepo(db, testutil.Logger(t))
	require.NoError(t, err)
	dbc := dbctx.Context{}

	for _, title := range []string{"C", "A", "B"} {
		_, err := repo.Create(dbc, &types.Trilha{Title: title})
		require.NoError(t, err)
	}
	all, err := repo.GetAll(dbc)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, []string{"C", "A", "B"}, []string{all[0].Title, all[1].Title, all[2].Title})
}

func TestCollectionUpdateMergesShallowly(t *testing.T) {
	db := testutil.DB(t)
	repo, err := NewTrilhaRepo(db, testutil.Logger(t))
	require.NoError(t, err)
	dbc := dbctx.Context{}

	created, err := repo.Create(dbc, &types.Trilha{Title: "Dados", Description: "Intro", Duration: 30})
	require.NoError(t, err)

	updated, err := repo.Update(dbc, created.ID, map[string]any{"title": "Dados II", "id": "hijack", "enrolledCount": 99})
	require.NoError(t, err)
	require.NotNil(t, updated)
	assert.Equal(t, created.ID, updated.ID)
	assert.Equal(t, "Dados II", updated.Title)
	assert.Equal(t, "Intro", updated.Description)
	assert.Equal(t, 30, updated.Duration)
	assert.Equal(t, 0, updated.EnrolledCount)

	stored, err := repo.GetByID(dbc, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Dados II", stored.Title)
}

func TestCollectionUpdateAbsentReturnsNil(t *testing.T) {
	db := testutil.DB(t)
	repo, err := NewTrilhaRepo(db, testutil.Logger(t))
	require.NoError(t, err)

	got, err := repo.Update(dbctx.Context{}, "missing", map[string]any{"title": "x"})
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestCollectionUpdateRejectsWrongTypes(t *testing.T) {
	db := testutil.DB(t)
	repo, err := NewTrilhaRepo(db, testutil.Logger(t))
	require.NoError(t, err)
	dbc := dbctx.Context{}

	created, err := repo.Create(dbc, &types.Trilha{Title: "Dados"})
	require.NoError(t, err)
	_, err = repo.Update(dbc, created.ID, map[string]any{"duration": "muito"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidInput))
}

func TestCollectionDeleteIsIdempotent(t *testing.T) {
	db := testutil.DB(t)
	repo, err := NewTrilhaRepo(db, testutil.Logger(t))
	require.NoError(t, err)
	dbc := dbctx.Context{}

	created, err := repo.Create(dbc, &types.Trilha{Title: "Temp"})
	require.NoError(t, err)

	ok, err := repo.Delete(dbc, created.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.Delete(dbc, created.ID)
	require.NoError(t, err)
	assert.False(t, ok)

	got, err := repo.GetByID(dbc, created.ID)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestCollectionQueryFiltersAndSorts(t *testing.T) {
	db := testutil.DB(t)
	lg := testutil.Logger(t)
	turmas, err := NewTurmaRepo(db, lg)
	require.NoError(t, err)
	dbc := dbctx.Context{}

	trilha := testutil.SeedTrilha(t, db, "Lógica")
	other := testutil.SeedTrilha(t, db, "Web")
	a := testutil.SeedTurma(t, db, trilha.ID, 10, catalog.TurmaInscricoesAbertas)
	b := testutil.SeedTurma(t, db, trilha.ID, 20, catalog.TurmaPlanejada)
	testutil.SeedTurma(t, db, other.ID, 30, catalog.TurmaInscricoesAbertas)

	rows, err := turmas.Query(dbc, ParseQuery(url.Values{"trilhaId": {trilha.ID}}))
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, a.ID, rows[0].ID)
	assert.Equal(t, b.ID, rows[1].ID)

	rows, err = turmas.Query(dbc, ParseQuery(url.Values{"trilhaId": {trilha.ID}, "_sort": {"maxStudents"}, "_order": {"desc"}}))
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, b.ID, rows[0].ID)

	rows, err = turmas.Query(dbc, ParseQuery(url.Values{"status": {"inscricoes-abertas", "planejada"}, "_expand": {"trilha"}}))
	require.NoError(t, err)
	assert.Len(t, rows, 3)

	rows, err = turmas.Query(dbc, Eq("maxStudents", "30"))
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, other.ID, rows[0].TrilhaID)
}

func TestParseQuerySkipsReservedKeys(t *testing.T) {
	q := ParseQuery(url.Values{
		"token":    {"abc.def.ghi"},
		"_expand":  {"trilha"},
		"_sort":    {"name"},
		"trilhaId": {"t1"},
	})
	assert.Equal(t, map[string][]string{"trilhaId": {"t1"}}, q.Filters)
	assert.Equal(t, "name", q.Sort)
}

func TestCollectionQueryRejectsUnknownAndHiddenFields(t *testing.T) {
	db := testutil.DB(t)
	users, err := NewUserRepo(db, testutil.Logger(t))
	require.NoError(t, err)

	_, err = users.Query(dbctx.Context{}, Eq("nope", "1"))
	assert.True(t, errors.Is(err, ErrInvalidInput))

	_, err = users.Query(dbctx.Context{}, Eq("password", "123456"))
	assert.True(t, errors.Is(err, ErrInvalidInput))

	_, err = users.Query(dbctx.Context{}, Query{Sort: "name", Order: "sideways"})
	assert.True(t, errors.Is(err, ErrInvalidInput))
}

func TestMergeRecordProtectsID(t *testing.T) {
	cur := &types.Trilha{ID: "1", Title: "A", Duration: 10}
	next, err := MergeRecord(cur, map[string]any{"id": "2", "title": "B"})
	require.NoError(t, err)
	assert.Equal(t, "1", next.ID)
	assert.Equal(t, "B", next.Title)
	assert.Equal(t, 10, next.Duration)
	assert.Equal(t, "A", cur.Title)
}
