package services

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/openacademy/trilhas-backend/internal/data/repos"
	types "github.com/openacademy/trilhas-backend/internal/domain"
	"github.com/openacademy/trilhas-backend/internal/domain/user"
	"github.com/openacademy/trilhas-backend/internal/platform/apierr"
	"github.com/openacademy/trilhas-backend/internal/platform/dbctx"
	"github.com/openacademy/trilhas-backend/internal/platform/logger"
	"github.com/openacademy/trilhas-backend/internal/realtime"
)

const DefaultVerificationTTL = 15 * time.Minute

// CodeStore keeps at most one pending code per email.
type CodeStore interface {
	Put(ctx context.Context, v *types.EmailVerification) error
	Get(ctx context.Context, email string) (*types.EmailVerification, error)
	Delete(ctx context.Context, email string) error
}

type dbCodeStore struct {
	repo repos.VerificationRepo
}

func NewDBCodeStore(repo repos.VerificationRepo) CodeStore {
	return &dbCodeStore{repo: repo}
}

func (s *dbCodeStore) Put(ctx context.Context, v *types.EmailVerification) error {
	return s.repo.Upsert(dbctx.Context{Ctx: ctx}, v)
}

func (s *dbCodeStore) Get(ctx context.Context, email string) (*types.EmailVerification, error) {
	return s.repo.Get(dbctx.Context{Ctx: ctx}, email)
}

func (s *dbCodeStore) Delete(ctx context.Context, email string) error {
	return s.repo.Delete(dbctx.Context{Ctx: ctx}, email)
}

// expiredGrace keeps expired codes in Redis long enough to tell "expired"
// apart from "never issued".
const expiredGrace = time.Hour

type redisCodeStore struct {
	rdb    *goredis.Client
	prefix string
}

func NewRedisCodeStore(rdb *goredis.Client) CodeStore {
	return &redisCodeStore{rdb: rdb, prefix: "trilhas:verification:"}
}

func (s *redisCodeStore) Put(ctx context.Context, v *types.EmailVerification) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	ttl := time.Until(v.ExpiresAt) + expiredGrace
	if ttl <= 0 {
		ttl = expiredGrace
	}
	return s.rdb.Set(ctx, s.prefix+v.Email, raw, ttl).Err()
}

func (s *redisCodeStore) Get(ctx context.Context, email string) (*types.EmailVerification, error) {
	raw, err := s.rdb.Get(ctx, s.prefix+email).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var v types.EmailVerification
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, fmt.Errorf("decode verification: %w", err)
	}
	return &v, nil
}

func (s *redisCodeStore) Delete(ctx context.Context, email string) error {
	return s.rdb.Del(ctx, s.prefix+email).Err()
}

type VerificationService interface {
	// Issue creates a new code for email, replacing any pending one, and mails it.
	Issue(ctx context.Context, email string) error
	// Verify checks code and marks the user verified.
	Verify(ctx context.Context, email, code string) (*types.User, error)
}

type verificationService struct {
	log       *logger.Logger
	users     repos.UserRepo
	store     CodeStore
	mailer    Mailer
	publisher realtime.Publisher
	ttl       time.Duration
	now       func() time.Time
}

func NewVerificationService(
	log *logger.Logger,
	users repos.UserRepo,
	store CodeStore,
	mailer Mailer,
	publisher realtime.Publisher,
	ttl time.Duration,
) VerificationService {
	if ttl <= 0 {
		ttl = DefaultVerificationTTL
	}
	if publisher == nil {
		publisher = realtime.NopPublisher{}
	}
	return &verificationService{
		log:       log.With("service", "VerificationService"),
		users:     users,
		store:     store,
		mailer:    mailer,
		publisher: publisher,
		ttl:       ttl,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

func (s *verificationService) Issue(ctx context.Context, email string) error {
	email = user.NormalizeEmail(email)
	u, err := s.users.GetByEmail(dbctx.Context{Ctx: ctx}, email)
	if err != nil {
		return fmt.Errorf("load user: %w", err)
	}
	if u == nil {
		return apierr.NotFound("Usuário não encontrado")
	}
	if u.IsVerified {
		return apierr.Conflict("already_verified", "Email já verificado")
	}

	code, err := newVerificationCode()
	if err != nil {
		return fmt.Errorf("generate code: %w", err)
	}
	now := s.now()
	if err := s.store.Put(ctx, &types.EmailVerification{
		Email:     email,
		Code:      code,
		CreatedAt: now,
		ExpiresAt: now.Add(s.ttl),
	}); err != nil {
		return fmt.Errorf("store verification code: %w", err)
	}
	if err := s.mailer.SendVerificationCode(ctx, email, u.Name, code); err != nil {
		return err
	}
	s.log.Info("Verification code sent", "user_id", u.ID)
	return nil
}

func (s *verificationService) Verify(ctx context.Context, email, code string) (*types.User, error) {
	email = user.NormalizeEmail(email)
	dbc := dbctx.Context{Ctx: ctx}
	u, err := s.users.GetByEmail(dbc, email)
	if err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}
	if u == nil {
		return nil, apierr.NotFound("Usuário não encontrado")
	}
	if u.IsVerified {
		return u.Redacted(), nil
	}

	stored, err := s.store.Get(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("load verification code: %w", err)
	}
	if stored == nil || stored.Code != code {
		return nil, apierr.BadRequest("invalid_code", "Código de verificação inválido")
	}
	if stored.Expired(s.now()) {
		return nil, apierr.BadRequest("expired_code", "Código de verificação expirado")
	}

	if err := s.users.MarkVerified(dbc, u.ID); err != nil {
		return nil, fmt.Errorf("mark verified: %w", err)
	}
	if err := s.store.Delete(ctx, email); err != nil {
		s.log.Warn("Deleting used verification code failed", "user_id", u.ID, "error", err)
	}
	u.IsVerified = true
	s.publisher.Publish(ctx, realtime.SSEMessage{
		Channel: realtime.UserChannel(u.ID),
		Event:   realtime.SSEEventUserVerified,
		Data:    map[string]any{"userId": u.ID},
	})
	s.log.Info("User verified", "user_id", u.ID)
	return u.Redacted(), nil
}

func newVerificationCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1_000_000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}
