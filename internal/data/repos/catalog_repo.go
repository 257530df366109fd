package repos

import (
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/openacademy/trilhas-backend/internal/domain"
	"github.com/openacademy/trilhas-backend/internal/domain/catalog"
	"github.com/openacademy/trilhas-backend/internal/platform/dbctx"
	"github.com/openacademy/trilhas-backend/internal/platform/logger"
)

type TrilhaRepo interface {
	Collection[types.Trilha]
	UpdateFields(dbc dbctx.Context, id string, updates map[string]any) error
}

type trilhaRepo struct {
	Collection[types.Trilha]
	db  *gorm.DB
	log *logger.Logger
}

func NewTrilhaRepo(db *gorm.DB, baseLog *logger.Logger) (TrilhaRepo, error) {
	c, err := NewCollection[types.Trilha](db, baseLog, "trilhas", CollectionOptions{
		Protected: []string{"enrolledCount", "createdAt"},
	})
	if err != nil {
		return nil, err
	}
	return &trilhaRepo{Collection: c, db: db, log: baseLog.With("repo", "TrilhaRepo")}, nil
}

func (r *trilhaRepo) UpdateFields(dbc dbctx.Context, id string, updates map[string]any) error {
	return updateColumns(r.db, dbc, &types.Trilha{}, id, updates)
}

type TurmaRepo interface {
	Collection[types.Turma]
	LockByID(dbc dbctx.Context, id string) (*types.Turma, error)
	UpdateFields(dbc dbctx.Context, id string, updates map[string]any) error
	ListByTrilha(dbc dbctx.Context, trilhaID string) ([]*types.Turma, error)
	ListByStatus(dbc dbctx.Context, status catalog.TurmaStatus) ([]*types.Turma, error)
}

type turmaRepo struct {
	Collection[types.Turma]
	db  *gorm.DB
	log *logger.Logger
}

func NewTurmaRepo(db *gorm.DB, baseLog *logger.Logger) (TurmaRepo, error) {
	c, err := NewCollection[types.Turma](db, baseLog, "turmas", CollectionOptions{
		Protected: []string{"enrolledCount", "approvedCount", "createdAt"},
	})
	if err != nil {
		return nil, err
	}
	return &turmaRepo{Collection: c, db: db, log: baseLog.With("repo", "TurmaRepo")}, nil
}

// LockByID reads the turma with a row lock. SQLite drops the locking clause;
// there the single-connection pool serializes writers instead.
func (r *turmaRepo) LockByID(dbc dbctx.Context, id string) (*types.Turma, error) {
	if id == "" {
		return nil, nil
	}
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	var row types.Turma
	err := t.WithContext(dbc.Context()).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		Limit(1).
		Find(&row).Error
	if err != nil {
		return nil, err
	}
	if row.ID == "" {
		return nil, nil
	}
	return &row, nil
}

func (r *turmaRepo) UpdateFields(dbc dbctx.Context, id string, updates map[string]any) error {
	return updateColumns(r.db, dbc, &types.Turma{}, id, updates)
}

func (r *turmaRepo) ListByTrilha(dbc dbctx.Context, trilhaID string) ([]*types.Turma, error) {
	return r.Find(dbc, func(db *gorm.DB) *gorm.DB { return db.Where("trilha_id = ?", trilhaID) }, InsertionOrder)
}

func (r *turmaRepo) ListByStatus(dbc dbctx.Context, status catalog.TurmaStatus) ([]*types.Turma, error) {
	return r.Find(dbc, func(db *gorm.DB) *gorm.DB { return db.Where("status = ?", status) }, InsertionOrder)
}

func updateColumns(base *gorm.DB, dbc dbctx.Context, model any, id string, updates map[string]any) error {
	if len(updates) == 0 {
		return nil
	}
	t := dbc.Tx
	if t == nil {
		t = base
	}
	return t.WithContext(dbc.Context()).Model(model).Where("id = ?", id).UpdateColumns(updates).Error
}
