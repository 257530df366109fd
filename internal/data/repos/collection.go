package repos

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/openacademy/trilhas-backend/internal/platform/dbctx"
	"github.com/openacademy/trilhas-backend/internal/platform/idgen"
	"github.com/openacademy/trilhas-backend/internal/platform/logger"
)

// ErrInvalidInput marks caller mistakes such as unknown filter fields or
// partial updates that do not fit the record shape.
var ErrInvalidInput = errors.New("invalid input")

// Record is implemented by every model served through a Collection.
type Record interface {
	GetID() string
	SetID(id string)
}

// Scope narrows a query; it is the predicate form of Query.
type Scope = func(*gorm.DB) *gorm.DB

// Collection is the five-operation record accessor over one table.
// Lookups of absent ids return nil/false with a nil error.
type Collection[T any] interface {
	Name() string
	GetAll(dbc dbctx.Context) ([]*T, error)
	GetByID(dbc dbctx.Context, id string) (*T, error)
	GetByIDs(dbc dbctx.Context, ids []string) ([]*T, error)
	Query(dbc dbctx.Context, q Query) ([]*T, error)
	Find(dbc dbctx.Context, scopes ...Scope) ([]*T, error)
	Count(dbc dbctx.Context, scopes ...Scope) (int64, error)
	Create(dbc dbctx.Context, rec *T) (*T, error)
	Update(dbc dbctx.Context, id string, partial map[string]any) (*T, error)
	Merge(cur *T, partial map[string]any) (*T, error)
	Delete(dbc dbctx.Context, id string) (bool, error)
}

type CollectionOptions struct {
	// Hidden fields cannot be used as filters or sort keys.
	Hidden []string
	// Protected fields are dropped from partial updates.
	Protected []string
}

type collection[T any] struct {
	db     *gorm.DB
	log    *logger.Logger
	name   string
	fields fieldIndex
	opts   CollectionOptions
}

// NewCollection builds an accessor for T; name is the REST collection name.
func NewCollection[T any](db *gorm.DB, baseLog *logger.Logger, name string, opts CollectionOptions) (Collection[T], error) {
	if _, ok := any(new(T)).(Record); !ok {
		return nil, fmt.Errorf("collection %s: %T does not implement Record", name, new(T))
	}
	fields, err := indexFields(db, new(T), opts.Hidden)
	if err != nil {
		return nil, fmt.Errorf("collection %s: %w", name, err)
	}
	return &collection[T]{
		db:     db,
		log:    baseLog.With("repo", "Collection", "collection", name),
		name:   name,
		fields: fields,
		opts:   opts,
	}, nil
}

func (r *collection[T]) Name() string { return r.name }

func (r *collection[T]) tx(dbc dbctx.Context) *gorm.DB {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	return t.WithContext(dbc.Context())
}

func (r *collection[T]) GetAll(dbc dbctx.Context) ([]*T, error) {
	return r.Query(dbc, Query{})
}

func (r *collection[T]) GetByID(dbc dbctx.Context, id string) (*T, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, nil
	}
	var rows []*T
	if err := r.tx(dbc).Where("id = ?", id).Limit(1).Find(&rows).Error; err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0], nil
}

func (r *collection[T]) GetByIDs(dbc dbctx.Context, ids []string) ([]*T, error) {
	var rows []*T
	if len(ids) == 0 {
		return rows, nil
	}
	if err := r.tx(dbc).Where("id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *collection[T]) Query(dbc dbctx.Context, q Query) ([]*T, error) {
	scopes, err := r.fields.scopes(q)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(q.Sort) == "" {
		scopes = append(scopes, InsertionOrder)
	}
	return r.Find(dbc, scopes...)
}

// Find returns the rows matching every scope. Callers own ordering.
func (r *collection[T]) Find(dbc dbctx.Context, scopes ...Scope) ([]*T, error) {
	var rows []*T
	if err := r.tx(dbc).Model(new(T)).Scopes(scopes...).Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *collection[T]) Count(dbc dbctx.Context, scopes ...Scope) (int64, error) {
	var n int64
	if err := r.tx(dbc).Model(new(T)).Scopes(scopes...).Count(&n).Error; err != nil {
		return 0, err
	}
	return n, nil
}

func (r *collection[T]) Create(dbc dbctx.Context, rec *T) (*T, error) {
	if rec == nil {
		return nil, fmt.Errorf("%w: empty record", ErrInvalidInput)
	}
	rr := any(rec).(Record)
	if strings.TrimSpace(rr.GetID()) == "" {
		rr.SetID(idgen.New())
	}
	if err := r.tx(dbc).Create(rec).Error; err != nil {
		return nil, err
	}
	return rec, nil
}

// Update shallow-merges partial over the stored record: every field absent
// from partial keeps its stored value. The id never changes.
func (r *collection[T]) Update(dbc dbctx.Context, id string, partial map[string]any) (*T, error) {
	cur, err := r.GetByID(dbc, id)
	if err != nil || cur == nil {
		return nil, err
	}
	next, err := r.Merge(cur, partial)
	if err != nil {
		return nil, err
	}
	if err := r.tx(dbc).Save(next).Error; err != nil {
		return nil, err
	}
	return next, nil
}

// Merge returns {...cur, ...partial} without persisting it.
func (r *collection[T]) Merge(cur *T, partial map[string]any) (*T, error) {
	return MergeRecord(cur, partial, r.opts.Protected...)
}

func (r *collection[T]) Delete(dbc dbctx.Context, id string) (bool, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return false, nil
	}
	res := r.tx(dbc).Where("id = ?", id).Delete(new(T))
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// MergeRecord overlays partial onto a JSON view of cur. Keys listed in
// protected, and "id", are ignored.
func MergeRecord[T any](cur *T, partial map[string]any, protected ...string) (*T, error) {
	raw, err := json.Marshal(cur)
	if err != nil {
		return nil, err
	}
	merged := map[string]any{}
	if err := json.Unmarshal(raw, &merged); err != nil {
		return nil, err
	}
	skip := map[string]bool{"id": true}
	for _, p := range protected {
		skip[p] = true
	}
	for k, v := range partial {
		if skip[k] {
			continue
		}
		merged[k] = v
	}
	raw, err = json.Marshal(merged)
	if err != nil {
		return nil, err
	}
	next := new(T)
	if err := json.Unmarshal(raw, next); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	any(next).(Record).SetID(any(cur).(Record).GetID())
	return next, nil
}

// InsertionOrder sorts rows the way they were created.
func InsertionOrder(db *gorm.DB) *gorm.DB {
	return db.Order("created_at asc").Order("id asc")
}
