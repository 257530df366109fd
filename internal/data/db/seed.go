package db

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
	"gorm.io/gorm"

	types "github.com/openacademy/trilhas-backend/internal/domain"
)

// SeedDocument is the legacy datastore layout: one array per collection.
type SeedDocument struct {
	Users             []json.RawMessage `json:"users"`
	Trilhas           []json.RawMessage `json:"trilhas"`
	Turmas            []json.RawMessage `json:"turmas"`
	TurmaInscriptions []json.RawMessage `json:"turma-inscriptions"`
	Certificates      []json.RawMessage `json:"certificates"`
	Inscriptions      []json.RawMessage `json:"inscriptions"`
}

// SeedReport counts inserted rows per collection.
type SeedReport map[string]int

// LoadSeedDocument reads a JSON or YAML seed file.
func LoadSeedDocument(path string) (*SeedDocument, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}
	return ParseSeedDocument(raw, filepath.Ext(path))
}

func ParseSeedDocument(raw []byte, ext string) (*SeedDocument, error) {
	switch strings.ToLower(ext) {
	case ".yaml", ".yml":
		var generic map[string]any
		if err := yaml.Unmarshal(raw, &generic); err != nil {
			return nil, fmt.Errorf("parse yaml seed: %w", err)
		}
		converted, err := json.Marshal(generic)
		if err != nil {
			return nil, fmt.Errorf("convert yaml seed: %w", err)
		}
		raw = converted
	}
	var doc SeedDocument
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("parse seed: %w", err)
	}
	return &doc, nil
}

// Seed imports every collection whose table is still empty. Document order is
// kept by spacing createdAt one millisecond apart when records carry none.
func (s *Service) Seed(doc *SeedDocument) (SeedReport, error) {
	return Seed(s.db, doc)
}

func Seed(db *gorm.DB, doc *SeedDocument) (SeedReport, error) {
	report := SeedReport{}
	if doc == nil {
		return report, nil
	}
	err := db.Transaction(func(tx *gorm.DB) error {
		base := time.Now().UTC().Add(-time.Hour)
		steps := []func() error{
			func() error { return seedTable[types.User](tx, "users", doc.Users, base, report) },
			func() error { return seedTable[types.Trilha](tx, "trilhas", doc.Trilhas, base, report) },
			func() error { return seedTable[types.Turma](tx, "turmas", doc.Turmas, base, report) },
			func() error {
				return seedTable[types.TurmaInscription](tx, "turma-inscriptions", doc.TurmaInscriptions, base, report)
			},
			func() error { return seedTable[types.Certificate](tx, "certificates", doc.Certificates, base, report) },
			func() error { return seedTable[types.Inscription](tx, "inscriptions", doc.Inscriptions, base, report) },
		}
		for _, step := range steps {
			if err := step(); err != nil {
				return err
			}
		}
		return nil
	})
	return report, err
}

type seedable interface {
	GetID() string
}

func seedTable[T any](tx *gorm.DB, name string, raws []json.RawMessage, base time.Time, report SeedReport) error {
	if len(raws) == 0 {
		return nil
	}
	var count int64
	if err := tx.Model(new(T)).Count(&count).Error; err != nil {
		return fmt.Errorf("seed %s: count: %w", name, err)
	}
	if count > 0 {
		return nil
	}
	for i, raw := range raws {
		rec := new(T)
		if err := json.Unmarshal(raw, rec); err != nil {
			return fmt.Errorf("seed %s[%d]: %w", name, i, err)
		}
		if r, ok := any(rec).(seedable); ok && strings.TrimSpace(r.GetID()) == "" {
			return fmt.Errorf("seed %s[%d]: missing id", name, i)
		}
		stampCreatedAt(rec, base.Add(time.Duration(i)*time.Millisecond))
		if err := tx.Create(rec).Error; err != nil {
			return fmt.Errorf("seed %s[%d]: %w", name, i, err)
		}
	}
	report[name] = len(raws)
	return nil
}

func stampCreatedAt(rec any, at time.Time) {
	switch r := rec.(type) {
	case *types.User:
		if r.CreatedAt.IsZero() {
			r.CreatedAt = at
		}
	case *types.Trilha:
		if r.CreatedAt.IsZero() {
			r.CreatedAt = at
		}
	case *types.Turma:
		if r.CreatedAt.IsZero() {
			r.CreatedAt = at
		}
	case *types.TurmaInscription:
		if r.CreatedAt.IsZero() {
			r.CreatedAt = at
		}
		if r.InscriptionDate.IsZero() {
			r.InscriptionDate = r.CreatedAt
		}
	case *types.Certificate:
		if r.CreatedAt.IsZero() {
			r.CreatedAt = at
		}
	case *types.Inscription:
		if r.CreatedAt.IsZero() {
			r.CreatedAt = at
		}
	}
}
