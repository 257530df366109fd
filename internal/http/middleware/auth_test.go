package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	types "github.com/openacademy/trilhas-backend/internal/domain"
	"github.com/openacademy/trilhas-backend/internal/domain/user"
	"github.com/openacademy/trilhas-backend/internal/platform/ctxutil"
	"github.com/openacademy/trilhas-backend/internal/platform/logger"
	"github.com/openacademy/trilhas-backend/internal/services"
)

// tokenAuth accepts tokens of the form "<role>:<userID>".
type tokenAuth struct{}

func (tokenAuth) Register(context.Context, services.RegisterInput) (*services.AuthResult, error) {
	return nil, errors.New("not implemented")
}
func (tokenAuth) Login(context.Context, string, string) (*services.AuthResult, error) {
	return nil, errors.New("not implemented")
}
func (tokenAuth) Me(context.Context) (*types.User, error) { return nil, errors.New("not implemented") }
func (tokenAuth) GetAccessTTL() time.Duration             { return time.Hour }

func (tokenAuth) SetContextFromToken(ctx context.Context, tok string) (context.Context, error) {
	for i := 0; i < len(tok); i++ {
		if tok[i] == ':' {
			return ctxutil.WithRequestData(ctx, &ctxutil.RequestData{TokenString: tok, Role: tok[:i], UserID: tok[i+1:]}), nil
		}
	}
	return ctx, errors.New("bad token")
}

func authEngine(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	am := NewAuthMiddleware(logger.Nop(), tokenAuth{})
	r := gin.New()
	whoami := func(c *gin.Context) {
		rd := ctxutil.GetRequestData(c.Request.Context())
		if rd == nil {
			c.String(http.StatusOK, "anonymous")
			return
		}
		c.String(http.StatusOK, rd.UserID)
	}
	r.GET("/optional", am.OptionalAuth(), whoami)
	r.GET("/required", am.RequireAuth(), whoami)
	r.GET("/staff", am.RequireAuth(), RequireRole(user.RoleAdmin, user.RoleCoordenador), whoami)
	return r
}

func get(r *gin.Engine, path, bearer string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestAuthMiddleware(t *testing.T) {
	r := authEngine(t)

	cases := []struct {
		name     string
		path     string
		bearer   string
		wantCode int
		wantBody string
	}{
		{"optional anonymous", "/optional", "", http.StatusOK, "anonymous"},
		{"optional bad token stays anonymous", "/optional", "garbage", http.StatusOK, "anonymous"},
		{"optional header", "/optional", "aluno:u1", http.StatusOK, "u1"},
		{"required missing", "/required", "", http.StatusUnauthorized, ""},
		{"required bad token", "/required", "garbage", http.StatusUnauthorized, ""},
		{"required query token", "/required?token=mentor:u2", "", http.StatusOK, "u2"},
		{"role rejected", "/staff", "aluno:u1", http.StatusForbidden, ""},
		{"role accepted", "/staff", "coordenador:u3", http.StatusOK, "u3"},
	}
	for _, tc := range cases {
		rec := get(r, tc.path, tc.bearer)
		if rec.Code != tc.wantCode {
			t.Fatalf("%s: status got=%d want=%d body=%s", tc.name, rec.Code, tc.wantCode, rec.Body.String())
		}
		if tc.wantBody != "" && rec.Body.String() != tc.wantBody {
			t.Fatalf("%s: body got=%q want=%q", tc.name, rec.Body.String(), tc.wantBody)
		}
	}
}

func TestRecoveryReturnsJSON(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Recovery(logger.Nop()))
	r.GET("/boom", func(c *gin.Context) { panic("kaboom") })

	rec := get(r, "/boom", "")
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("unexpected status: %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct == "" || ct[:16] != "application/json" {
		t.Fatalf("expected JSON body, got content type %q", ct)
	}
}
