package app

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/openacademy/trilhas-backend/internal/data/repos"
	"github.com/openacademy/trilhas-backend/internal/platform/logger"
)

func wireRepos(db *gorm.DB, log *logger.Logger) (*repos.Set, error) {
	log.Info("Wiring repos...")
	set, err := repos.NewSet(db, log)
	if err != nil {
		return nil, fmt.Errorf("init repos: %w", err)
	}
	return set, nil
}
