package handlers

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/openacademy/trilhas-backend/internal/domain/catalog"
	"github.com/openacademy/trilhas-backend/internal/http/response"
	"github.com/openacademy/trilhas-backend/internal/services"
)

type StatsHandler struct {
	stats services.StatsService
}

func NewStatsHandler(stats services.StatsService) *StatsHandler {
	return &StatsHandler{stats: stats}
}

func (h *StatsHandler) Admin(c *gin.Context) {
	out, err := h.stats.Admin(c.Request.Context())
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.RespondOK(c, out)
}

func (h *StatsHandler) Trilhas(c *gin.Context) {
	rows, err := h.stats.Trilhas(c.Request.Context())
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.RespondOK(c, rows)
}

func (h *StatsHandler) Inscriptions(c *gin.Context) {
	since, err := optionalDate(c.Query("since"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", fmt.Errorf("since: %w", err))
		return
	}
	until, err := optionalDate(c.Query("until"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", fmt.Errorf("until: %w", err))
		return
	}
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		if limit, err = strconv.Atoi(raw); err != nil {
			response.RespondError(c, http.StatusBadRequest, "invalid_request", fmt.Errorf("limit: %w", err))
			return
		}
	}
	rows, err := h.stats.InscriptionLog(c.Request.Context(), since, until, limit)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.RespondOK(c, rows)
}

func optionalDate(raw string) (time.Time, error) {
	if raw == "" {
		return time.Time{}, nil
	}
	return catalog.ParseDate(raw)
}
