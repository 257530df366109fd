package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/openacademy/trilhas-backend/internal/domain/user"
	"github.com/openacademy/trilhas-backend/internal/http/response"
	"github.com/openacademy/trilhas-backend/internal/platform/ctxutil"
	"github.com/openacademy/trilhas-backend/internal/platform/logger"
	"github.com/openacademy/trilhas-backend/internal/services"
)

// Access decides whether the caller may write the record with id (empty on create).
// A nil caller is anonymous.
type Access func(rd *ctxutil.RequestData, id string) error

var (
	errLoginRequired = errors.New("Faça login para continuar")
	errForbidden     = errors.New("Você não tem permissão para esta ação")
)

// Authenticated allows any signed-in caller.
func Authenticated(rd *ctxutil.RequestData, _ string) error {
	if rd == nil || rd.UserID == "" {
		return errLoginRequired
	}
	return nil
}

// Roles allows callers holding one of roles.
func Roles(roles ...user.Role) Access {
	return func(rd *ctxutil.RequestData, id string) error {
		if err := Authenticated(rd, id); err != nil {
			return err
		}
		for _, r := range roles {
			if user.Role(rd.Role) == r {
				return nil
			}
		}
		return errForbidden
	}
}

// SelfOrAdmin allows admins and the user whose id is the route id.
func SelfOrAdmin(rd *ctxutil.RequestData, id string) error {
	if err := Authenticated(rd, id); err != nil {
		return err
	}
	if user.Role(rd.Role) == user.RoleAdmin || rd.UserID == id {
		return nil
	}
	return errForbidden
}

// ResourceHandler serves the generic REST routes of one collection. A nil
// Access for a write leaves that route to a specialised handler.
type ResourceHandler struct {
	log      *logger.Logger
	resource services.Resource
	Create   Access
	Update   Access
	Delete   Access
	// Guard inspects a partial update after Update has allowed it.
	Guard func(rd *ctxutil.RequestData, partial map[string]any) error
}

func NewResourceHandler(log *logger.Logger, resource services.Resource) *ResourceHandler {
	return &ResourceHandler{
		log:      log.With("handler", "ResourceHandler", "collection", resource.Name()),
		resource: resource,
	}
}

func (h *ResourceHandler) Name() string { return h.resource.Name() }

func (h *ResourceHandler) List(c *gin.Context) {
	rows, err := h.resource.List(c.Request.Context(), c.Request.URL.Query())
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.RespondOK(c, rows)
}

func (h *ResourceHandler) Get(c *gin.Context) {
	rec, err := h.resource.Get(c.Request.Context(), c.Param("id"), c.QueryArray("_expand"))
	if err != nil {
		response.Fail(c, err)
		return
	}
	if rec == nil {
		h.notFound(c)
		return
	}
	response.RespondOK(c, rec)
}

func (h *ResourceHandler) PostRecord(c *gin.Context) {
	if !h.allow(c, h.Create, "") {
		return
	}
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	rec, err := h.resource.Create(c.Request.Context(), body)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.RespondCreated(c, rec)
}

func (h *ResourceHandler) PatchRecord(c *gin.Context) {
	id := c.Param("id")
	if !h.allow(c, h.Update, id) {
		return
	}
	partial, ok := bindPartial(c)
	if !ok {
		return
	}
	if h.Guard != nil {
		if err := h.Guard(ctxutil.GetRequestData(c.Request.Context()), partial); err != nil {
			response.RespondError(c, http.StatusForbidden, "forbidden", err)
			return
		}
	}
	rec, err := h.resource.Update(c.Request.Context(), id, partial)
	if err != nil {
		response.Fail(c, err)
		return
	}
	if rec == nil {
		h.notFound(c)
		return
	}
	response.RespondOK(c, rec)
}

func (h *ResourceHandler) DeleteRecord(c *gin.Context) {
	id := c.Param("id")
	if !h.allow(c, h.Delete, id) {
		return
	}
	ok, err := h.resource.Delete(c.Request.Context(), id)
	if err != nil {
		response.Fail(c, err)
		return
	}
	if !ok {
		h.notFound(c)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *ResourceHandler) allow(c *gin.Context, access Access, id string) bool {
	if access == nil {
		return true
	}
	if err := access(ctxutil.GetRequestData(c.Request.Context()), id); err != nil {
		status, code := http.StatusForbidden, "forbidden"
		if errors.Is(err, errLoginRequired) {
			status, code = http.StatusUnauthorized, "unauthorized"
		}
		response.RespondError(c, status, code, err)
		return false
	}
	return true
}

func (h *ResourceHandler) notFound(c *gin.Context) {
	response.RespondError(c, http.StatusNotFound, "not_found", fmt.Errorf("%s not found", h.resource.Entity()))
}

// ProtectUserFields stops non-admins from changing role or verification state.
func ProtectUserFields(rd *ctxutil.RequestData, partial map[string]any) error {
	if rd != nil && user.Role(rd.Role) == user.RoleAdmin {
		return nil
	}
	for _, k := range []string{"role", "isVerified"} {
		if _, ok := partial[k]; ok {
			return fmt.Errorf("Apenas administradores podem alterar %s", k)
		}
	}
	return nil
}

func bindPartial(c *gin.Context) (map[string]any, bool) {
	var partial map[string]any
	if err := json.NewDecoder(c.Request.Body).Decode(&partial); err != nil || partial == nil {
		if err == nil {
			err = errors.New("body must be a JSON object")
		}
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return nil, false
	}
	return partial, true
}
