package user

import "strings"

type Role string

const (
	RoleAluno       Role = "aluno"
	RoleMentor      Role = "mentor"
	RoleCoordenador Role = "coordenador"
	RoleAdmin       Role = "admin"
	RoleVisitante   Role = "visitante"
)

// ParseRole maps a raw role, including the english aliases, to its canonical value.
// Unknown or empty input yields RoleAluno.
func ParseRole(raw string) Role {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "aluno", "student":
		return RoleAluno
	case "mentor":
		return RoleMentor
	case "coordenador", "coordinator":
		return RoleCoordenador
	case "admin":
		return RoleAdmin
	case "visitante", "visitor":
		return RoleVisitante
	default:
		return RoleAluno
	}
}

// IsStaff reports whether the role manages trilhas, turmas and inscriptions.
func (r Role) IsStaff() bool {
	return r == RoleAdmin || r == RoleCoordenador
}

// SelfAssignable reports whether sign-up may pick the role. Mentors and
// staff are appointed by an admin.
func (r Role) SelfAssignable() bool {
	return r == RoleAluno || r == RoleVisitante
}
