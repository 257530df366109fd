package services_test

import (
	"context"
	"sync"
	"testing"

	"gorm.io/gorm"

	"github.com/openacademy/trilhas-backend/internal/data/aggregates"
	"github.com/openacademy/trilhas-backend/internal/data/repos"
	"github.com/openacademy/trilhas-backend/internal/data/repos/testutil"
	types "github.com/openacademy/trilhas-backend/internal/domain"
	domainagg "github.com/openacademy/trilhas-backend/internal/domain/aggregates"
	"github.com/openacademy/trilhas-backend/internal/platform/ctxutil"
	"github.com/openacademy/trilhas-backend/internal/platform/logger"
	"github.com/openacademy/trilhas-backend/internal/realtime"
	"github.com/openacademy/trilhas-backend/internal/services"
)

type recordingPublisher struct {
	mu   sync.Mutex
	msgs []realtime.SSEMessage
}

func (p *recordingPublisher) Publish(_ context.Context, msgs ...realtime.SSEMessage) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.msgs = append(p.msgs, msgs...)
}

func (p *recordingPublisher) events(channel string) []realtime.SSEEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []realtime.SSEEvent
	for _, m := range p.msgs {
		if m.Channel == channel {
			out = append(out, m.Event)
		}
	}
	return out
}

type captureMailer struct {
	mu    sync.Mutex
	codes map[string]string
}

func (m *captureMailer) SendVerificationCode(_ context.Context, email, _, code string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.codes == nil {
		m.codes = map[string]string{}
	}
	m.codes[email] = code
	return nil
}

func (m *captureMailer) code(email string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.codes[email]
}

type fixture struct {
	db           *gorm.DB
	set          *repos.Set
	pub          *recordingPublisher
	agg          domainagg.EnrollmentAggregate
	mailer       *captureMailer
	verification services.VerificationService
	auth         services.AuthService
	inscriptions services.InscriptionService
	flow         services.EnrollmentFlowService
	stats        services.StatsService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := testutil.DB(t)
	lg := testutil.Logger(t)
	set, err := repos.NewSet(db, lg)
	if err != nil {
		t.Fatalf("repos: %v", err)
	}
	f := &fixture{db: db, set: set, pub: &recordingPublisher{}, mailer: &captureMailer{}}
	agg := aggregates.NewEnrollmentAggregate(aggregates.EnrollmentDeps{
		BaseDeps:     aggregates.BaseDeps{DB: db, Log: lg},
		Users:        set.Users,
		Trilhas:      set.Trilhas,
		Turmas:       set.Turmas,
		Inscriptions: set.TurmaInscriptions,
		Certificates: set.Certificates,
	})
	f.agg = agg
	f.verification = services.NewVerificationService(lg, set.Users, services.NewDBCodeStore(set.Verifications), f.mailer, f.pub, 0)
	f.auth = services.NewAuthService(lg, set.Users, f.verification, "test-secret", 0)
	f.inscriptions = services.NewInscriptionService(lg, agg, set.TurmaInscriptions, set.Turmas, f.pub, nil)
	f.flow = services.NewEnrollmentFlowService(lg, set.Users, set.Turmas, set.TurmaInscriptions, f.inscriptions)
	f.stats = services.NewStatsService(lg, set.Stats)
	return f
}

func as(u *types.User) context.Context {
	return ctxutil.WithRequestData(context.Background(), &ctxutil.RequestData{UserID: u.ID, Role: string(u.Role)})
}

func testLogger(t *testing.T) *logger.Logger {
	return testutil.Logger(t)
}
