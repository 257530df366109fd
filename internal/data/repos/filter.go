package repos

import (
	"fmt"
	"net/url"
	"reflect"
	"strconv"
	"strings"
	"sync"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/schema"
)

// Query is an equality filter over JSON field names. Several values for the
// same field match any of them.
type Query struct {
	Filters map[string][]string
	Sort    string
	Order   string
}

// ParseQuery turns URL query values into a Query. Parameters starting with
// an underscore are reserved; only _sort and _order are read here. "token"
// carries the access token for clients that cannot set headers.
func ParseQuery(values url.Values) Query {
	q := Query{Filters: map[string][]string{}}
	for key, vals := range values {
		switch {
		case key == "_sort":
			q.Sort = strings.TrimSpace(values.Get(key))
		case key == "_order":
			q.Order = strings.ToLower(strings.TrimSpace(values.Get(key)))
		case strings.HasPrefix(key, "_"), key == "token":
			continue
		case len(vals) > 0:
			q.Filters[key] = vals
		}
	}
	return q
}

// Eq is a convenience constructor for single-value filters.
func Eq(kv ...string) Query {
	q := Query{Filters: map[string][]string{}}
	for i := 0; i+1 < len(kv); i += 2 {
		q.Filters[kv[i]] = append(q.Filters[kv[i]], kv[i+1])
	}
	return q
}

type field struct {
	column string
	typ    reflect.Type
}

type fieldIndex map[string]field

var schemaCache sync.Map

func indexFields(db *gorm.DB, model any, hidden []string) (fieldIndex, error) {
	sch, err := schema.Parse(model, &schemaCache, db.NamingStrategy)
	if err != nil {
		return nil, err
	}
	skip := map[string]bool{}
	for _, h := range hidden {
		skip[h] = true
	}
	idx := fieldIndex{}
	for _, f := range sch.Fields {
		if f.DBName == "" {
			continue
		}
		name := strings.Split(f.StructField.Tag.Get("json"), ",")[0]
		if name == "" || name == "-" || skip[name] {
			continue
		}
		idx[name] = field{column: f.DBName, typ: f.FieldType}
	}
	return idx, nil
}

func (idx fieldIndex) scopes(q Query) ([]Scope, error) {
	scopes := make([]Scope, 0, len(q.Filters)+1)
	for name, raws := range q.Filters {
		f, ok := idx[name]
		if !ok {
			return nil, fmt.Errorf("%w: unknown filter field %q", ErrInvalidInput, name)
		}
		vals := make([]any, 0, len(raws))
		for _, raw := range raws {
			v, err := convertValue(f.typ, raw)
			if err != nil {
				return nil, fmt.Errorf("%w: filter %s: %v", ErrInvalidInput, name, err)
			}
			vals = append(vals, v)
		}
		col := clause.Column{Name: f.column}
		if len(vals) == 1 {
			v := vals[0]
			scopes = append(scopes, func(db *gorm.DB) *gorm.DB { return db.Where(clause.Eq{Column: col, Value: v}) })
		} else {
			scopes = append(scopes, func(db *gorm.DB) *gorm.DB { return db.Where(clause.IN{Column: col, Values: vals}) })
		}
	}
	if sortKey := strings.TrimSpace(q.Sort); sortKey != "" {
		f, ok := idx[sortKey]
		if !ok {
			return nil, fmt.Errorf("%w: unknown sort field %q", ErrInvalidInput, sortKey)
		}
		desc := q.Order == "desc"
		if q.Order != "" && q.Order != "asc" && q.Order != "desc" {
			return nil, fmt.Errorf("%w: _order must be asc or desc", ErrInvalidInput)
		}
		scopes = append(scopes, func(db *gorm.DB) *gorm.DB {
			return db.Order(clause.OrderByColumn{Column: clause.Column{Name: f.column}, Desc: desc}).Order("id asc")
		})
	}
	return scopes, nil
}

var timeType = reflect.TypeOf(time.Time{})

func convertValue(t reflect.Type, raw string) (any, error) {
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if t == timeType {
		return time.Parse(time.RFC3339, raw)
	}
	switch t.Kind() {
	case reflect.String:
		return raw, nil
	case reflect.Bool:
		return strconv.ParseBool(raw)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.ParseInt(raw, 10, 64)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return strconv.ParseUint(raw, 10, 64)
	case reflect.Float32, reflect.Float64:
		return strconv.ParseFloat(raw, 64)
	default:
		return nil, fmt.Errorf("field of type %s is not filterable", t)
	}
}
