package testutil

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"gorm.io/gorm"

	types "github.com/openacademy/trilhas-backend/internal/domain"
	"github.com/openacademy/trilhas-backend/internal/domain/catalog"
	"github.com/openacademy/trilhas-backend/internal/domain/enrollment"
	"github.com/openacademy/trilhas-backend/internal/domain/user"
)

var fixtureSeq atomic.Int64

func nextID(prefix string) string {
	return fmt.Sprintf("%s%d", prefix, fixtureSeq.Add(1))
}

func SeedUser(tb testing.TB, tx *gorm.DB, email string, verified bool) *types.User {
	tb.Helper()
	u := &types.User{
		ID:         nextID("u"),
		Name:       "Aluno Teste",
		Email:      email,
		Password:   "123456",
		Role:       user.RoleAluno,
		IsVerified: verified,
	}
	if err := tx.Create(u).Error; err != nil {
		tb.Fatalf("seed user: %v", err)
	}
	return u
}

func SeedStaff(tb testing.TB, tx *gorm.DB, email string, role user.Role) *types.User {
	tb.Helper()
	u := &types.User{
		ID:         nextID("s"),
		Name:       "Equipe Teste",
		Email:      email,
		Password:   "123456",
		Role:       role,
		IsVerified: true,
	}
	if err := tx.Create(u).Error; err != nil {
		tb.Fatalf("seed staff: %v", err)
	}
	return u
}

func SeedTrilha(tb testing.TB, tx *gorm.DB, title string) *types.Trilha {
	tb.Helper()
	t := &types.Trilha{
		ID:       nextID("t"),
		Title:    title,
		Duration: 40,
		Level:    "iniciante",
	}
	if err := tx.Create(t).Error; err != nil {
		tb.Fatalf("seed trilha: %v", err)
	}
	return t
}

func SeedTurma(tb testing.TB, tx *gorm.DB, trilhaID string, maxStudents int, status catalog.TurmaStatus) *types.Turma {
	tb.Helper()
	t := &types.Turma{
		ID:          nextID("tm"),
		TrilhaID:    trilhaID,
		Name:        "Turma Teste",
		Modalidade:  catalog.ModalidadeEADAssincrono,
		StartDate:   "2025-03-01",
		EndDate:     "2025-06-30",
		MaxStudents: maxStudents,
		Status:      status,
	}
	if err := tx.Create(t).Error; err != nil {
		tb.Fatalf("seed turma: %v", err)
	}
	return t
}

func SeedInscription(tb testing.TB, tx *gorm.DB, userID, turmaID string, status enrollment.Status) *types.TurmaInscription {
	tb.Helper()
	now := time.Now().UTC()
	in := &types.TurmaInscription{
		ID:              nextID("i"),
		UserID:          userID,
		TurmaID:         turmaID,
		Status:          status,
		InscriptionDate: now,
	}
	if err := tx.Create(in).Error; err != nil {
		tb.Fatalf("seed inscription: %v", err)
	}
	return in
}
