package services

import (
	types "github.com/openacademy/trilhas-backend/internal/domain"
)

// Views embed the stored record and attach the sub-objects requested with
// _expand. Expanded users are always redacted.

type TrilhaView struct {
	*types.Trilha
	Mentor *types.User `json:"mentor,omitempty"`
}

type TurmaView struct {
	*types.Turma
	Trilha *types.Trilha `json:"trilha,omitempty"`
	Mentor *types.User   `json:"mentor,omitempty"`
}

type TurmaInscriptionView struct {
	*types.TurmaInscription
	User  *types.User `json:"user,omitempty"`
	Turma *TurmaView  `json:"turma,omitempty"`
}

type CertificateView struct {
	*types.Certificate
	User   *types.User   `json:"user,omitempty"`
	Turma  *types.Turma  `json:"turma,omitempty"`
	Trilha *types.Trilha `json:"trilha,omitempty"`
}

type InscriptionView struct {
	*types.Inscription
	User   *types.User   `json:"user,omitempty"`
	Trilha *types.Trilha `json:"trilha,omitempty"`
}
