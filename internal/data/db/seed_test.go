package db

import (
	"fmt"
	"testing"
	"time"

	types "github.com/openacademy/trilhas-backend/internal/domain"
	"github.com/openacademy/trilhas-backend/internal/platform/logger"
)

const seedJSON = `{
  "users": [
    {"id": "1", "name": "Ana Souza", "email": "ANA@example.com", "password": "123456", "role": "student", "isVerified": true},
    {"id": "2", "name": "Carlos Lima", "email": "carlos@example.com", "password": "123456", "role": "coordinator"}
  ],
  "trilhas": [{"id": "10", "title": "Lógica de Programação", "duration": 40}],
  "turmas": [{"id": "100", "trilhaId": "10", "name": "Turma 1", "modalidade": "ead-assincrono", "startDate": "2025-01-01", "endDate": "2025-02-01", "maxStudents": 2, "status": "inscricoes-abertas"}],
  "turma-inscriptions": [{"id": "1000", "userId": "1", "turmaId": "100", "status": "pending"}],
  "certificates": [],
  "inscriptions": [{"id": "5", "userId": "1", "trilhaId": "10", "status": "active"}]
}`

const seedYAML = `
trilhas:
  - id: "10"
    title: Lógica de Programação
    duration: 40
`

func newTestService(t *testing.T) *Service {
	t.Helper()
	svc, err := NewService(logger.Nop(), Config{
		Driver: DriverSQLite,
		DSN:    fmt.Sprintf("file:seed_%d?mode=memory&cache=shared", time.Now().UnixNano()),
		Silent: true,
	})
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	t.Cleanup(func() { _ = svc.Close() })
	if err := svc.AutoMigrateAll(); err != nil {
		t.Fatalf("AutoMigrateAll: %v", err)
	}
	return svc
}

func TestSeedImportsEmptyTablesOnce(t *testing.T) {
	svc := newTestService(t)
	doc, err := ParseSeedDocument([]byte(seedJSON), ".json")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	report, err := svc.Seed(doc)
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
	if report["users"] != 2 || report["turmas"] != 1 || report["turma-inscriptions"] != 1 || report["inscriptions"] != 1 {
		t.Fatalf("unexpected report: %v", report)
	}

	var u types.User
	if err := svc.DB().First(&u, "id = ?", "1").Error; err != nil {
		t.Fatalf("load user: %v", err)
	}
	if u.Email != "ana@example.com" || u.Role != "aluno" {
		t.Fatalf("user not normalized: %+v", u)
	}
	if !u.CheckPassword("123456") {
		t.Fatalf("seeded password must be hashed and verifiable")
	}

	var users []types.User
	if err := svc.DB().Order("created_at asc").Find(&users).Error; err != nil {
		t.Fatalf("list users: %v", err)
	}
	if len(users) != 2 || users[0].ID != "1" || users[1].ID != "2" {
		t.Fatalf("document order not kept: %+v", users)
	}

	again, err := svc.Seed(doc)
	if err != nil {
		t.Fatalf("second seed: %v", err)
	}
	if len(again) != 0 {
		t.Fatalf("second seed must be a no-op, got %v", again)
	}
}

func TestParseSeedDocumentYAML(t *testing.T) {
	doc, err := ParseSeedDocument([]byte(seedYAML), ".yaml")
	if err != nil {
		t.Fatalf("parse yaml: %v", err)
	}
	if len(doc.Trilhas) != 1 {
		t.Fatalf("expected one trilha, got %d", len(doc.Trilhas))
	}
}

func TestSeatIndexRejectsDuplicateActiveInscription(t *testing.T) {
	svc := newTestService(t)
	first := &types.TurmaInscription{ID: "a", UserID: "1", TurmaID: "100", Status: "pending"}
	if err := svc.DB().Create(first).Error; err != nil {
		t.Fatalf("create first: %v", err)
	}
	dup := &types.TurmaInscription{ID: "b", UserID: "1", TurmaID: "100", Status: "approved"}
	if err := svc.DB().Create(dup).Error; err == nil {
		t.Fatalf("expected unique violation for second seat")
	}
	released := &types.TurmaInscription{ID: "c", UserID: "1", TurmaID: "100", Status: "rejected"}
	if err := svc.DB().Create(released).Error; err != nil {
		t.Fatalf("rejected inscription must not hold a seat: %v", err)
	}
}
