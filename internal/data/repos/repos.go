package repos

import (
	"fmt"

	"gorm.io/gorm"

	types "github.com/openacademy/trilhas-backend/internal/domain"
	"github.com/openacademy/trilhas-backend/internal/platform/logger"
)

// Set groups every repo the services need.
type Set struct {
	Users              UserRepo
	Verifications      VerificationRepo
	Trilhas            TrilhaRepo
	Turmas             TurmaRepo
	TurmaInscriptions  TurmaInscriptionRepo
	Certificates       CertificateRepo
	LegacyInscriptions Collection[types.Inscription]
	Stats              StatsRepo
}

func NewSet(db *gorm.DB, baseLog *logger.Logger) (*Set, error) {
	var (
		s   = &Set{}
		err error
	)
	if s.Users, err = NewUserRepo(db, baseLog); err != nil {
		return nil, fmt.Errorf("users repo: %w", err)
	}
	if s.Trilhas, err = NewTrilhaRepo(db, baseLog); err != nil {
		return nil, fmt.Errorf("trilhas repo: %w", err)
	}
	if s.Turmas, err = NewTurmaRepo(db, baseLog); err != nil {
		return nil, fmt.Errorf("turmas repo: %w", err)
	}
	if s.TurmaInscriptions, err = NewTurmaInscriptionRepo(db, baseLog); err != nil {
		return nil, fmt.Errorf("turma-inscriptions repo: %w", err)
	}
	if s.Certificates, err = NewCertificateRepo(db, baseLog); err != nil {
		return nil, fmt.Errorf("certificates repo: %w", err)
	}
	if s.LegacyInscriptions, err = NewLegacyInscriptionRepo(db, baseLog); err != nil {
		return nil, fmt.Errorf("inscriptions repo: %w", err)
	}
	s.Verifications = NewVerificationRepo(db, baseLog)
	s.Stats = NewStatsRepo(db, baseLog)
	return s, nil
}
