package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	domainagg "github.com/openacademy/trilhas-backend/internal/domain/aggregates"
	"github.com/openacademy/trilhas-backend/internal/domain/enrollment"
	"github.com/openacademy/trilhas-backend/internal/http/response"
	"github.com/openacademy/trilhas-backend/internal/platform/logger"
	"github.com/openacademy/trilhas-backend/internal/services"
)

// InscriptionHandler serves the turma-inscription writes. Reads go through
// the generic resource routes.
type InscriptionHandler struct {
	log     *logger.Logger
	service services.InscriptionService
}

func NewInscriptionHandler(log *logger.Logger, service services.InscriptionService) *InscriptionHandler {
	return &InscriptionHandler{log: log.With("handler", "InscriptionHandler"), service: service}
}

func (h *InscriptionHandler) Enroll(c *gin.Context) {
	var req services.EnrollRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	res, err := h.service.Enroll(c.Request.Context(), req)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.RespondCreated(c, gin.H{"inscription": res.Inscription, "counts": res.Counts})
}

// Event returns a handler applying ev to the inscription in the route.
func (h *InscriptionHandler) Event(ev enrollment.Event) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			Reason          string `json:"reason"`
			RejectionReason string `json:"rejectionReason"`
		}
		if c.Request.ContentLength > 0 {
			if err := c.ShouldBindJSON(&req); err != nil {
				response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
				return
			}
		}
		if req.Reason == "" {
			req.Reason = req.RejectionReason
		}
		res, err := h.service.Transition(c.Request.Context(), c.Param("id"), ev, req.Reason)
		if err != nil {
			response.Fail(c, err)
			return
		}
		respondTransition(c, res)
	}
}

func (h *InscriptionHandler) Progress(c *gin.Context) {
	var req struct {
		Progress   *int `json:"progress"`
		Attendance *int `json:"attendance"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	res, err := h.service.UpdateProgress(c.Request.Context(), c.Param("id"), req.Progress, req.Attendance)
	if err != nil {
		response.Fail(c, err)
		return
	}
	respondTransition(c, res)
}

// Patch is the generic PATCH /api/turma-inscriptions/:id.
func (h *InscriptionHandler) Patch(c *gin.Context) {
	partial, ok := bindPartial(c)
	if !ok {
		return
	}
	res, err := h.service.Patch(c.Request.Context(), c.Param("id"), partial)
	if err != nil {
		response.Fail(c, err)
		return
	}
	// The generic route answers with the record itself.
	response.RespondOK(c, res.Inscription)
}

func (h *InscriptionHandler) Delete(c *gin.Context) {
	ok, err := h.service.Remove(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Fail(c, err)
		return
	}
	if !ok {
		response.RespondError(c, http.StatusNotFound, "not_found", errMessage("Inscription not found"))
		return
	}
	c.Status(http.StatusNoContent)
}

func respondTransition(c *gin.Context, res domainagg.TransitionResult) {
	body := gin.H{"inscription": res.Inscription, "from": res.From, "counts": res.Counts}
	if res.Certificate != nil {
		body["certificate"] = res.Certificate
	}
	response.RespondOK(c, body)
}

type errMessage string

func (e errMessage) Error() string { return string(e) }
