// Package domain re-exports the persistent models so infrastructure code can
// refer to them through a single import.
package domain

import (
	"github.com/openacademy/trilhas-backend/internal/domain/catalog"
	"github.com/openacademy/trilhas-backend/internal/domain/certificate"
	"github.com/openacademy/trilhas-backend/internal/domain/enrollment"
	"github.com/openacademy/trilhas-backend/internal/domain/user"
)

type (
	User              = user.User
	EmailVerification = user.EmailVerification
	Trilha            = catalog.Trilha
	Turma             = catalog.Turma
	TurmaInscription  = enrollment.TurmaInscription
	Inscription       = enrollment.Inscription
	Certificate       = certificate.Certificate
)

// Models lists every table the service migrates, in dependency order.
func Models() []any {
	return []any{
		&User{},
		&EmailVerification{},
		&Trilha{},
		&Turma{},
		&TurmaInscription{},
		&Certificate{},
		&Inscription{},
	}
}
