package aggregates

import (
	"strings"

	"gorm.io/gorm"

	domainagg "github.com/openacademy/trilhas-backend/internal/domain/aggregates"
	"github.com/openacademy/trilhas-backend/internal/platform/dbctx"
)

// CASGuard provides compare-and-set helpers for aggregate writes.
type CASGuard struct {
	db *gorm.DB
}

func NewCASGuard(db *gorm.DB) CASGuard {
	return CASGuard{db: db}
}

func (g CASGuard) baseDB(dbc dbctx.Context) (*gorm.DB, error) {
	if dbc.Tx != nil {
		return dbc.Tx.WithContext(dbc.Context()), nil
	}
	if g.db != nil {
		return g.db.WithContext(dbc.Context()), nil
	}
	return nil, ValidationError("missing db transaction context")
}

// UpdateByStatus updates a row only while its status is one of allowedStatuses.
func (g CASGuard) UpdateByStatus(dbc dbctx.Context, table, id string, allowedStatuses []string, updates map[string]any) (bool, error) {
	db, err := g.baseDB(dbc)
	if err != nil {
		return false, err
	}
	table = strings.TrimSpace(table)
	id = strings.TrimSpace(id)
	if table == "" || id == "" {
		return false, ValidationError("table and id are required for UpdateByStatus")
	}
	if len(allowedStatuses) == 0 {
		return false, ValidationError("allowedStatuses must not be empty")
	}
	res := db.Table(table).
		Where("id = ? AND status IN ?", id, allowedStatuses).
		Updates(updates)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// RequireCASSuccess converts a failed compare-and-set into a typed conflict error.
func RequireCASSuccess(ok bool, message string) error {
	if ok {
		return nil
	}
	return ConflictError(strings.TrimSpace(message))
}

// RequireStatusAllowed fails with invalid_transition unless current is one
// of allowed.
func RequireStatusAllowed(op, current, message string, allowed ...string) error {
	current = strings.TrimSpace(current)
	for _, s := range allowed {
		if strings.EqualFold(current, strings.TrimSpace(s)) {
			return nil
		}
	}
	return fail(domainagg.CodeInvalidTransition, op, strings.TrimSpace(message))
}
