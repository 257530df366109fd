package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/openacademy/trilhas-backend/internal/http/response"
	"github.com/openacademy/trilhas-backend/internal/platform/logger"
	"github.com/openacademy/trilhas-backend/internal/services"
)

type TurmaHandler struct {
	log     *logger.Logger
	service services.InscriptionService
}

func NewTurmaHandler(log *logger.Logger, service services.InscriptionService) *TurmaHandler {
	return &TurmaHandler{log: log.With("handler", "TurmaHandler"), service: service}
}

// Start moves the turma to em-andamento and activates its approved inscriptions.
func (h *TurmaHandler) Start(c *gin.Context) {
	res, err := h.service.StartTurma(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.RespondOK(c, gin.H{"turmaId": res.TurmaID, "activated": len(res.Activated), "counts": res.Counts})
}

func (h *TurmaHandler) Sync(c *gin.Context) {
	counts, err := h.service.SyncCounts(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.RespondOK(c, counts)
}
