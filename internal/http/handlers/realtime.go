package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/openacademy/trilhas-backend/internal/domain/user"
	"github.com/openacademy/trilhas-backend/internal/http/response"
	"github.com/openacademy/trilhas-backend/internal/platform/ctxutil"
	"github.com/openacademy/trilhas-backend/internal/platform/logger"
	"github.com/openacademy/trilhas-backend/internal/realtime"
)

type RealtimeHandler struct {
	log *logger.Logger
	hub *realtime.SSEHub
}

func NewRealtimeHandler(log *logger.Logger, hub *realtime.SSEHub) *RealtimeHandler {
	return &RealtimeHandler{log: log.With("handler", "RealtimeHandler"), hub: hub}
}

// SSEStream subscribes the caller to their own channel, staff also to the
// staff channel, and optionally to the turma given by ?turmaId=.
func (h *RealtimeHandler) SSEStream(c *gin.Context) {
	rd := ctxutil.GetRequestData(c.Request.Context())
	if err := Authenticated(rd, ""); err != nil {
		response.RespondError(c, http.StatusUnauthorized, "unauthorized", err)
		return
	}
	client := h.hub.NewSSEClient(rd.UserID)
	defer h.hub.CloseClient(client)

	h.hub.AddChannel(client, realtime.UserChannel(rd.UserID))
	if user.Role(rd.Role).IsStaff() {
		h.hub.AddChannel(client, realtime.StaffChannel)
	}
	if turmaID := c.Query("turmaId"); turmaID != "" {
		h.hub.AddChannel(client, realtime.TurmaChannel(turmaID))
	}
	h.log.Debug("SSE stream open", "user_id", rd.UserID, "client_id", client.ID)
	h.hub.ServeHTTP(c.Writer, c.Request, client)
}
