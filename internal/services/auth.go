package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"gorm.io/gorm"

	"github.com/openacademy/trilhas-backend/internal/data/repos"
	types "github.com/openacademy/trilhas-backend/internal/domain"
	"github.com/openacademy/trilhas-backend/internal/domain/user"
	"github.com/openacademy/trilhas-backend/internal/platform/apierr"
	"github.com/openacademy/trilhas-backend/internal/platform/ctxutil"
	"github.com/openacademy/trilhas-backend/internal/platform/dbctx"
	"github.com/openacademy/trilhas-backend/internal/platform/logger"
)

type JWTClaims struct {
	Role string `json:"role,omitempty"`
	jwt.RegisteredClaims
}

type RegisterInput struct {
	Name     string    `json:"name" validate:"required,min=2"`
	Email    string    `json:"email" validate:"required,email"`
	Password string    `json:"password" validate:"required,min=6"`
	Role     user.Role `json:"role"`
	CPF      string    `json:"cpf"`
}

type AuthResult struct {
	User        *types.User `json:"user"`
	AccessToken string      `json:"accessToken"`
	ExpiresIn   int         `json:"expiresIn"`
}

type AuthService interface {
	Register(ctx context.Context, in RegisterInput) (*AuthResult, error)
	Login(ctx context.Context, email, password string) (*AuthResult, error)
	Me(ctx context.Context) (*types.User, error)
	SetContextFromToken(ctx context.Context, tokenString string) (context.Context, error)
	GetAccessTTL() time.Duration
}

type authService struct {
	log          *logger.Logger
	users        repos.UserRepo
	verification VerificationService
	validate     *validator.Validate
	jwtSecretKey string
	accessTTL    time.Duration
	now          func() time.Time
}

func NewAuthService(
	log *logger.Logger,
	users repos.UserRepo,
	verification VerificationService,
	jwtSecretKey string,
	accessTTL time.Duration,
) AuthService {
	if accessTTL <= 0 {
		accessTTL = 24 * time.Hour
	}
	return &authService{
		log:          log.With("service", "AuthService"),
		users:        users,
		verification: verification,
		validate:     newValidator(),
		jwtSecretKey: jwtSecretKey,
		accessTTL:    accessTTL,
		now:          time.Now,
	}
}

func (as *authService) Register(ctx context.Context, in RegisterInput) (*AuthResult, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = user.NormalizeEmail(in.Email)
	if err := as.validate.Struct(in); err != nil {
		return nil, apierr.BadRequest("validation", validationMessage(err))
	}
	role := user.ParseRole(string(in.Role))
	if !role.SelfAssignable() {
		role = user.RoleAluno
	}

	dbc := dbctx.Context{Ctx: ctx}
	exists, err := as.users.EmailExists(dbc, in.Email)
	if err != nil {
		return nil, fmt.Errorf("check email: %w", err)
	}
	if exists {
		return nil, apierr.Conflict("email_taken", "Este email já está cadastrado")
	}

	u := &types.User{
		Name:     in.Name,
		Email:    in.Email,
		Password: in.Password,
		Role:     role,
		CPF:      strings.TrimSpace(in.CPF),
	}
	if _, err := as.users.Create(dbc, u); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apierr.Conflict("email_taken", "Este email já está cadastrado")
		}
		return nil, fmt.Errorf("create user: %w", err)
	}
	as.log.Info("User registered", "user_id", u.ID, "role", string(u.Role))

	if as.verification != nil {
		if err := as.verification.Issue(ctx, u.Email); err != nil {
			// The account exists; the caller can ask for a new code.
			as.log.Warn("Issuing verification code failed", "user_id", u.ID, "error", err)
		}
	}
	return as.result(u)
}

func (as *authService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	email = user.NormalizeEmail(email)
	if email == "" || password == "" {
		return nil, apierr.BadRequest("validation", "Email e senha são obrigatórios")
	}
	u, err := as.users.GetByEmail(dbctx.Context{Ctx: ctx}, email)
	if err != nil {
		return nil, fmt.Errorf("load user by email: %w", err)
	}
	if u == nil || !u.CheckPassword(password) {
		return nil, apierr.Unauthorized("Email ou senha inválidos")
	}
	return as.result(u)
}

func (as *authService) Me(ctx context.Context) (*types.User, error) {
	rd := ctxutil.GetRequestData(ctx)
	if rd == nil || rd.UserID == "" {
		return nil, apierr.Unauthorized("missing or invalid token")
	}
	u, err := as.users.GetByID(dbctx.Context{Ctx: ctx}, rd.UserID)
	if err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}
	if u == nil {
		return nil, apierr.NotFound("User not found")
	}
	return u.Redacted(), nil
}

func (as *authService) result(u *types.User) (*AuthResult, error) {
	tok, err := as.generateAccessToken(u)
	if err != nil {
		return nil, fmt.Errorf("generate access token: %w", err)
	}
	return &AuthResult{User: u.Redacted(), AccessToken: tok, ExpiresIn: int(as.accessTTL.Seconds())}, nil
}

func (as *authService) generateAccessToken(u *types.User) (string, error) {
	now := as.now()
	claims := JWTClaims{
		Role: string(u.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   u.ID,
			ExpiresAt: jwt.NewNumericDate(now.Add(as.accessTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(as.jwtSecretKey))
}

func (as *authService) SetContextFromToken(ctx context.Context, tokenString string) (context.Context, error) {
	if tokenString == "" {
		return ctx, nil
	}
	parsedToken, err := jwt.ParseWithClaims(tokenString, &JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
		return []byte(as.jwtSecretKey), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(as.now))
	if err != nil {
		return ctx, fmt.Errorf("failed to parse token: %w", err)
	}
	claims, ok := parsedToken.Claims.(*JWTClaims)
	if !ok || !parsedToken.Valid {
		return ctx, fmt.Errorf("invalid or expired JWT token")
	}
	if strings.TrimSpace(claims.Subject) == "" {
		return ctx, fmt.Errorf("token has no subject")
	}
	// Roles can change after issue; the stored user wins.
	role := claims.Role
	if u, err := as.users.GetByID(dbctx.Context{Ctx: ctx}, claims.Subject); err == nil {
		if u == nil {
			return ctx, fmt.Errorf("token subject no longer exists")
		}
		role = string(u.Role)
	}
	return ctxutil.WithRequestData(ctx, &ctxutil.RequestData{
		TokenString: tokenString,
		UserID:      claims.Subject,
		Role:        role,
	}), nil
}

func (as *authService) GetAccessTTL() time.Duration {
	return as.accessTTL
}
