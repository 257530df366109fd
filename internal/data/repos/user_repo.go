package repos

import (
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/openacademy/trilhas-backend/internal/domain"
	"github.com/openacademy/trilhas-backend/internal/domain/user"
	"github.com/openacademy/trilhas-backend/internal/platform/dbctx"
	"github.com/openacademy/trilhas-backend/internal/platform/logger"
)

type UserRepo interface {
	Collection[types.User]
	GetByEmail(dbc dbctx.Context, email string) (*types.User, error)
	EmailExists(dbc dbctx.Context, email string) (bool, error)
	MarkVerified(dbc dbctx.Context, id string) error
}

type userRepo struct {
	Collection[types.User]
	db  *gorm.DB
	log *logger.Logger
}

func NewUserRepo(db *gorm.DB, baseLog *logger.Logger) (UserRepo, error) {
	c, err := NewCollection[types.User](db, baseLog, "users", CollectionOptions{
		Hidden:    []string{"password", "address", "mackenzieData"},
		Protected: []string{"createdAt"},
	})
	if err != nil {
		return nil, err
	}
	return &userRepo{Collection: c, db: db, log: baseLog.With("repo", "UserRepo")}, nil
}

func (r *userRepo) GetByEmail(dbc dbctx.Context, email string) (*types.User, error) {
	email = user.NormalizeEmail(email)
	if email == "" {
		return nil, nil
	}
	rows, err := r.Find(dbc, func(db *gorm.DB) *gorm.DB { return db.Where("email = ?", email).Limit(1) })
	if err != nil || len(rows) == 0 {
		return nil, err
	}
	return rows[0], nil
}

func (r *userRepo) EmailExists(dbc dbctx.Context, email string) (bool, error) {
	n, err := r.Count(dbc, func(db *gorm.DB) *gorm.DB { return db.Where("email = ?", user.NormalizeEmail(email)) })
	return n > 0, err
}

func (r *userRepo) MarkVerified(dbc dbctx.Context, id string) error {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	return t.WithContext(dbc.Context()).
		Model(&types.User{}).
		Where("id = ?", id).
		UpdateColumns(map[string]any{"is_verified": true, "updated_at": time.Now().UTC()}).Error
}

type VerificationRepo interface {
	Upsert(dbc dbctx.Context, v *types.EmailVerification) error
	Get(dbc dbctx.Context, email string) (*types.EmailVerification, error)
	Delete(dbc dbctx.Context, email string) error
}

type verificationRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewVerificationRepo(db *gorm.DB, baseLog *logger.Logger) VerificationRepo {
	return &verificationRepo{db: db, log: baseLog.With("repo", "VerificationRepo")}
}

func (r *verificationRepo) tx(dbc dbctx.Context) *gorm.DB {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	return t.WithContext(dbc.Context())
}

// Upsert replaces any pending code for the same email.
func (r *verificationRepo) Upsert(dbc dbctx.Context, v *types.EmailVerification) error {
	v.Email = user.NormalizeEmail(v.Email)
	return r.tx(dbc).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "email"}},
		DoUpdates: clause.AssignmentColumns([]string{"code", "created_at", "expires_at"}),
	}).Create(v).Error
}

func (r *verificationRepo) Get(dbc dbctx.Context, email string) (*types.EmailVerification, error) {
	var rows []*types.EmailVerification
	if err := r.tx(dbc).Where("email = ?", user.NormalizeEmail(email)).Limit(1).Find(&rows).Error; err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0], nil
}

func (r *verificationRepo) Delete(dbc dbctx.Context, email string) error {
	return r.tx(dbc).Where("email = ?", strings.ToLower(strings.TrimSpace(email))).Delete(&types.EmailVerification{}).Error
}
