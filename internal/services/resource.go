package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"github.com/go-playground/validator/v10"
	"gorm.io/gorm"

	"github.com/openacademy/trilhas-backend/internal/data/repos"
	"github.com/openacademy/trilhas-backend/internal/platform/apierr"
	"github.com/openacademy/trilhas-backend/internal/platform/dbctx"
	"github.com/openacademy/trilhas-backend/internal/platform/logger"
)

// Resource is the REST face of one collection. Get and Update return nil
// for unknown ids; Delete reports whether a record was removed.
type Resource interface {
	Name() string
	Entity() string
	List(ctx context.Context, values url.Values) ([]any, error)
	Get(ctx context.Context, id string, expand []string) (any, error)
	Create(ctx context.Context, body []byte) (any, error)
	Update(ctx context.Context, id string, partial map[string]any) (any, error)
	Delete(ctx context.Context, id string) (bool, error)
}

type ResourceConfig[T any] struct {
	// Entity names one record in messages, e.g. "Turma".
	Entity     string
	Collection repos.Collection[T]
	Expand     func(dbc dbctx.Context, rows []*T, expand []string) ([]any, error)
	// Prepare runs on new records before validation.
	Prepare func(rec *T)
	// Immutable rejects updates with 405.
	Immutable bool
}

type resource[T any] struct {
	cfg      ResourceConfig[T]
	log      *logger.Logger
	validate *validator.Validate
}

func NewResource[T any](log *logger.Logger, cfg ResourceConfig[T]) Resource {
	if cfg.Expand == nil {
		cfg.Expand = func(_ dbctx.Context, rows []*T, _ []string) ([]any, error) {
			out := make([]any, 0, len(rows))
			for _, r := range rows {
				out = append(out, r)
			}
			return out, nil
		}
	}
	return &resource[T]{
		cfg:      cfg,
		log:      log.With("service", "Resource", "collection", cfg.Collection.Name()),
		validate: newValidator(),
	}
}

func (r *resource[T]) Name() string   { return r.cfg.Collection.Name() }
func (r *resource[T]) Entity() string { return r.cfg.Entity }

func (r *resource[T]) List(ctx context.Context, values url.Values) ([]any, error) {
	dbc := dbctx.Context{Ctx: ctx}
	rows, err := r.cfg.Collection.Query(dbc, repos.ParseQuery(values))
	if err != nil {
		return nil, err
	}
	return r.cfg.Expand(dbc, rows, values["_expand"])
}

func (r *resource[T]) Get(ctx context.Context, id string, expand []string) (any, error) {
	dbc := dbctx.Context{Ctx: ctx}
	row, err := r.cfg.Collection.GetByID(dbc, id)
	if err != nil || row == nil {
		return nil, err
	}
	return r.one(dbc, row, expand)
}

func (r *resource[T]) Create(ctx context.Context, body []byte) (any, error) {
	rec := new(T)
	if err := json.Unmarshal(body, rec); err != nil {
		return nil, fmt.Errorf("%w: %v", repos.ErrInvalidInput, err)
	}
	if d, ok := any(rec).(defaulter); ok {
		d.ApplyDefaults()
	}
	if r.cfg.Prepare != nil {
		r.cfg.Prepare(rec)
	}
	if err := validateRecord(r.validate, rec); err != nil {
		return nil, apierr.BadRequest("validation", err.Error())
	}
	dbc := dbctx.Context{Ctx: ctx}
	if _, err := r.cfg.Collection.Create(dbc, rec); err != nil {
		return nil, r.writeError(err)
	}
	return r.one(dbc, rec, nil)
}

func (r *resource[T]) Update(ctx context.Context, id string, partial map[string]any) (any, error) {
	if r.cfg.Immutable {
		return nil, apierr.Newf(http.StatusMethodNotAllowed, "immutable", "%s não pode ser alterado", r.cfg.Entity)
	}
	dbc := dbctx.Context{Ctx: ctx}
	cur, err := r.cfg.Collection.GetByID(dbc, id)
	if err != nil || cur == nil {
		return nil, err
	}
	next, err := r.cfg.Collection.Merge(cur, partial)
	if err != nil {
		return nil, err
	}
	if err := validateRecord(r.validate, next); err != nil {
		return nil, apierr.BadRequest("validation", err.Error())
	}
	saved, err := r.cfg.Collection.Update(dbc, id, partial)
	if err != nil {
		return nil, r.writeError(err)
	}
	if saved == nil {
		return nil, nil
	}
	return r.one(dbc, saved, nil)
}

func (r *resource[T]) Delete(ctx context.Context, id string) (bool, error) {
	ok, err := r.cfg.Collection.Delete(dbctx.Context{Ctx: ctx}, id)
	if err != nil {
		return false, r.writeError(err)
	}
	return ok, nil
}

func (r *resource[T]) one(dbc dbctx.Context, row *T, expand []string) (any, error) {
	views, err := r.cfg.Expand(dbc, []*T{row}, expand)
	if err != nil {
		return nil, err
	}
	return views[0], nil
}

func (r *resource[T]) writeError(err error) error {
	switch {
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return apierr.Conflict("conflict", fmt.Sprintf("%s já existe", r.cfg.Entity))
	case errors.Is(err, gorm.ErrForeignKeyViolated):
		return apierr.Conflict("conflict", fmt.Sprintf("%s está referenciado por outros registros", r.cfg.Entity))
	default:
		return err
	}
}
