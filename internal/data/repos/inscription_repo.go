package repos

import (
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/openacademy/trilhas-backend/internal/domain"
	"github.com/openacademy/trilhas-backend/internal/domain/enrollment"
	"github.com/openacademy/trilhas-backend/internal/platform/dbctx"
	"github.com/openacademy/trilhas-backend/internal/platform/logger"
)

type TurmaInscriptionRepo interface {
	Collection[types.TurmaInscription]
	LockByID(dbc dbctx.Context, id string) (*types.TurmaInscription, error)
	SeatHolder(dbc dbctx.Context, userID, turmaID string) (*types.TurmaInscription, error)
	CountByStatus(dbc dbctx.Context, turmaID string) (map[enrollment.Status]int, error)
	CountSeatUsersForTrilha(dbc dbctx.Context, trilhaID string) (int, error)
	ListByTurmaStatus(dbc dbctx.Context, turmaID string, status enrollment.Status) ([]*types.TurmaInscription, error)
	// DeleteReleased removes the turma's inscriptions that no longer hold a seat.
	DeleteReleased(dbc dbctx.Context, turmaID string) (int64, error)
}

type turmaInscriptionRepo struct {
	Collection[types.TurmaInscription]
	db  *gorm.DB
	log *logger.Logger
}

func NewTurmaInscriptionRepo(db *gorm.DB, baseLog *logger.Logger) (TurmaInscriptionRepo, error) {
	c, err := NewCollection[types.TurmaInscription](db, baseLog, "turma-inscriptions", CollectionOptions{
		Protected: []string{"createdAt"},
	})
	if err != nil {
		return nil, err
	}
	return &turmaInscriptionRepo{Collection: c, db: db, log: baseLog.With("repo", "TurmaInscriptionRepo")}, nil
}

func (r *turmaInscriptionRepo) tx(dbc dbctx.Context) *gorm.DB {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	return t.WithContext(dbc.Context())
}

func (r *turmaInscriptionRepo) LockByID(dbc dbctx.Context, id string) (*types.TurmaInscription, error) {
	if id == "" {
		return nil, nil
	}
	var row types.TurmaInscription
	err := r.tx(dbc).
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

// SeatHolder returns the inscription currently holding a seat for the pair, if any.
func (r *turmaInscriptionRepo) SeatHolder(dbc dbctx.Context, userID, turmaID string) (*types.TurmaInscription, error) {
	var rows []*types.TurmaInscription
	err := r.tx(dbc).
		Where("user_id = ? AND turma_id = ? AND status IN ?", userID, turmaID, enrollment.SeatStatusStrings()).
		Limit(1).
		Find(&rows).Error
	if err != nil || len(rows) == 0 {
		return nil, err
	}
	return rows[0], nil
}

func (r *turmaInscriptionRepo) CountByStatus(dbc dbctx.Context, turmaID string) (map[enrollment.Status]int, error) {
	var rows []struct {
		Status string
		N      int
	}
	err := r.tx(dbc).
		Model(&types.TurmaInscription{}).
		Select("status, COUNT(*) AS n").
		Where("turma_id = ?", turmaID).
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make(map[enrollment.Status]int, len(rows))
	for _, row := range rows {
		out[enrollment.Status(row.Status)] = row.N
	}
	return out, nil
}

// CountSeatUsersForTrilha counts distinct users holding a seat in any turma of the trilha.
func (r *turmaInscriptionRepo) CountSeatUsersForTrilha(dbc dbctx.Context, trilhaID string) (int, error) {
	var n int64
	err := r.tx(dbc).
		Model(&types.TurmaInscription{}).
		Joins("JOIN turmas ON turmas.id = turma_inscriptions.turma_id").
		Where("turmas.trilha_id = ? AND turma_inscriptions.status IN ?", trilhaID, enrollment.SeatStatusStrings()).
		Distinct("turma_inscriptions.user_id").
		Count(&n).Error
	return int(n), err
}

func (r *turmaInscriptionRepo) ListByTurmaStatus(dbc dbctx.Context, turmaID string, status enrollment.Status) ([]*types.TurmaInscription, error) {
	return r.Find(dbc, func(db *gorm.DB) *gorm.DB {
		return db.Where("turma_id = ? AND status = ?", turmaID, status)
	}, InsertionOrder)
}

func (r *turmaInscriptionRepo) DeleteReleased(dbc dbctx.Context, turmaID string) (int64, error) {
	res := r.tx(dbc).
		Where("turma_id = ? AND status NOT IN ?", turmaID, enrollment.SeatStatusStrings()).
		Delete(&types.TurmaInscription{})
	return res.RowsAffected, res.Error
}

type CertificateRepo interface {
	Collection[types.Certificate]
	GetByInscriptionID(dbc dbctx.Context, inscriptionID string) (*types.Certificate, error)
}

type certificateRepo struct {
	Collection[types.Certificate]
}

func NewCertificateRepo(db *gorm.DB, baseLog *logger.Logger) (CertificateRepo, error) {
	c, err := NewCollection[types.Certificate](db, baseLog, "certificates", CollectionOptions{})
	if err != nil {
		return nil, err
	}
	return &certificateRepo{Collection: c}, nil
}

func (r *certificateRepo) GetByInscriptionID(dbc dbctx.Context, inscriptionID string) (*types.Certificate, error) {
	if inscriptionID == "" {
		return nil, nil
	}
	rows, err := r.Find(dbc, func(db *gorm.DB) *gorm.DB { return db.Where("inscription_id = ?", inscriptionID).Limit(1) })
	if err != nil || len(rows) == 0 {
		return nil, err
	}
	return rows[0], nil
}

// NewLegacyInscriptionRepo serves the deprecated trilha-level inscriptions.
func NewLegacyInscriptionRepo(db *gorm.DB, baseLog *logger.Logger) (Collection[types.Inscription], error) {
	return NewCollection[types.Inscription](db, baseLog, "inscriptions", CollectionOptions{Protected: []string{"createdAt"}})
}
