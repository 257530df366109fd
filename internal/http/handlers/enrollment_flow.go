package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/openacademy/trilhas-backend/internal/http/response"
	"github.com/openacademy/trilhas-backend/internal/services"
)

type EnrollmentFlowHandler struct {
	flow services.EnrollmentFlowService
}

func NewEnrollmentFlowHandler(flow services.EnrollmentFlowService) *EnrollmentFlowHandler {
	return &EnrollmentFlowHandler{flow: flow}
}

func (h *EnrollmentFlowHandler) Snapshot(c *gin.Context) {
	snap, err := h.flow.Snapshot(c.Request.Context(), c.Query("turmaId"))
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.RespondOK(c, snap)
}

func (h *EnrollmentFlowHandler) Submit(c *gin.Context) {
	var req struct {
		TurmaID string `json:"turmaId" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	res, err := h.flow.Submit(c.Request.Context(), req.TurmaID)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.RespondCreated(c, res)
}
