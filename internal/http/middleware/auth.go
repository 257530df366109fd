package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/openacademy/trilhas-backend/internal/domain/user"
	"github.com/openacademy/trilhas-backend/internal/http/response"
	"github.com/openacademy/trilhas-backend/internal/platform/ctxutil"
	"github.com/openacademy/trilhas-backend/internal/platform/logger"
	"github.com/openacademy/trilhas-backend/internal/services"
)

type AuthMiddleware struct {
	log         *logger.Logger
	authService services.AuthService
}

func NewAuthMiddleware(log *logger.Logger, authService services.AuthService) *AuthMiddleware {
	return &AuthMiddleware{log: log.With("middleware", "AuthMiddleware"), authService: authService}
}

func (am *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := extractTokenFromAll(c)
		if tokenString == "" {
			response.RespondError(c, http.StatusUnauthorized, "unauthorized", errMsg("missing or invalid token"))
			return
		}
		ctx, err := am.authService.SetContextFromToken(c.Request.Context(), tokenString)
		if err != nil {
			am.log.Debug("Token rejected", "error", err)
			response.RespondError(c, http.StatusUnauthorized, "unauthorized", errMsg("missing or invalid token"))
			return
		}
		rd := ctxutil.GetRequestData(ctx)
		if rd == nil || rd.UserID == "" {
			response.RespondError(c, http.StatusUnauthorized, "unauthorized", errMsg("missing or invalid token"))
			return
		}
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// OptionalAuth attaches the caller when a valid token is present and lets
// anonymous requests through. Invalid tokens are treated as anonymous.
func (am *AuthMiddleware) OptionalAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if tokenString := extractTokenFromAll(c); tokenString != "" {
			if ctx, err := am.authService.SetContextFromToken(c.Request.Context(), tokenString); err == nil {
				c.Request = c.Request.WithContext(ctx)
			}
		}
		c.Next()
	}
}

// RequireRole must run after RequireAuth.
func RequireRole(roles ...user.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		rd := ctxutil.GetRequestData(c.Request.Context())
		if rd == nil {
			response.RespondError(c, http.StatusUnauthorized, "unauthorized", errMsg("missing or invalid token"))
			return
		}
		for _, r := range roles {
			if user.Role(rd.Role) == r {
				c.Next()
				return
			}
		}
		response.RespondError(c, http.StatusForbidden, "forbidden", errMsg("Você não tem permissão para esta ação"))
	}
}

func extractTokenFromAll(c *gin.Context) string {
	// EventSource cannot set headers, so the SSE stream passes ?token=.
	if qToken := c.Query("token"); qToken != "" {
		return qToken
	}
	authHeader := c.GetHeader("Authorization")
	if len(authHeader) > 7 && strings.EqualFold(authHeader[:7], "Bearer ") {
		return strings.TrimSpace(authHeader[7:])
	}
	return ""
}

type errMsg string

func (e errMsg) Error() string { return string(e) }
