package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/openacademy/trilhas-backend/internal/http/response"
	"github.com/openacademy/trilhas-backend/internal/services"
)

type AuthHandler struct {
	authService  services.AuthService
	verification services.VerificationService
}

func NewAuthHandler(authService services.AuthService, verification services.VerificationService) *AuthHandler {
	return &AuthHandler{authService: authService, verification: verification}
}

func (ah *AuthHandler) Register(c *gin.Context) {
	var req services.RegisterInput
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	res, err := ah.authService.Register(c.Request.Context(), req)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.RespondCreated(c, res)
}

func (ah *AuthHandler) Login(c *gin.Context) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	res, err := ah.authService.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.RespondOK(c, res)
}

func (ah *AuthHandler) Verify(c *gin.Context) {
	var req struct {
		Email string `json:"email"`
		Code  string `json:"code"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	u, err := ah.verification.Verify(c.Request.Context(), req.Email, req.Code)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.RespondOK(c, gin.H{"user": u.Redacted()})
}

func (ah *AuthHandler) ResendCode(c *gin.Context) {
	var req struct {
		Email string `json:"email"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	if err := ah.verification.Issue(c.Request.Context(), req.Email); err != nil {
		response.Fail(c, err)
		return
	}
	response.RespondOK(c, gin.H{"ok": true})
}

func (ah *AuthHandler) Me(c *gin.Context) {
	u, err := ah.authService.Me(c.Request.Context())
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.RespondOK(c, gin.H{"user": u})
}
