package services

import (
	"context"

	"github.com/openacademy/trilhas-backend/internal/domain/user"
	"github.com/openacademy/trilhas-backend/internal/platform/apierr"
	"github.com/openacademy/trilhas-backend/internal/platform/ctxutil"
)

// SystemActorID marks writes made by background workers.
const SystemActorID = "system"

// AsSystem returns a context acting with admin rights for background jobs.
func AsSystem(ctx context.Context) context.Context {
	return ctxutil.WithRequestData(ctx, &ctxutil.RequestData{UserID: SystemActorID, Role: string(user.RoleAdmin)})
}

func caller(ctx context.Context) (*ctxutil.RequestData, error) {
	rd := ctxutil.GetRequestData(ctx)
	if rd == nil || rd.UserID == "" {
		return nil, apierr.Unauthorized("missing or invalid token")
	}
	return rd, nil
}

func isStaff(rd *ctxutil.RequestData) bool {
	return rd != nil && user.Role(rd.Role).IsStaff()
}

func hasRole(rd *ctxutil.RequestData, roles ...user.Role) bool {
	if rd == nil {
		return false
	}
	for _, r := range roles {
		if user.Role(rd.Role) == r {
			return true
		}
	}
	return false
}

func requireStaff(ctx context.Context) (*ctxutil.RequestData, error) {
	rd, err := caller(ctx)
	if err != nil {
		return nil, err
	}
	if !isStaff(rd) {
		return nil, apierr.Forbidden("Apenas coordenadores e administradores podem realizar esta ação")
	}
	return rd, nil
}
