package db

import (
	"fmt"

	types "github.com/openacademy/trilhas-backend/internal/domain"
	"gorm.io/gorm"
)

func AutoMigrateAll(db *gorm.DB) error {
	return db.AutoMigrate(types.Models()...)
}

// EnsureEnrollmentIndexes creates the inscription indexes that model tags
// cannot express.
// The statements are valid on both SQLite and Postgres.
func EnsureEnrollmentIndexes(db *gorm.DB) error {
	// one seat-holding inscription per (user, turma)
	if err := db.Exec(`
		CREATE UNIQUE INDEX IF NOT EXISTS idx_turma_inscriptions_seat
		ON turma_inscriptions(user_id, turma_id)
		WHERE status IN ('pending', 'approved', 'active', 'completed');
	`).Error; err != nil {
		return fmt.Errorf("create idx_turma_inscriptions_seat: %w", err)
	}
	if err := db.Exec(`CREATE INDEX IF NOT EXISTS idx_turma_inscriptions_turma_status ON turma_inscriptions(turma_id, status);`).Error; err != nil {
		return fmt.Errorf("create idx_turma_inscriptions_turma_status: %w", err)
	}
	return nil
}

func (s *Service) AutoMigrateAll() error {
	s.log.Info("Auto migrating tables...")
	if err := AutoMigrateAll(s.db); err != nil {
		s.log.Error("Auto migration failed", "error", err)
		return err
	}
	if err := EnsureEnrollmentIndexes(s.db); err != nil {
		s.log.Error("Enrollment index migration failed", "error", err)
		return err
	}
	return nil
}
