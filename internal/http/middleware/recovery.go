package middleware

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/openacademy/trilhas-backend/internal/http/response"
	"github.com/openacademy/trilhas-backend/internal/platform/logger"
)

// Recovery turns panics into a 500 JSON body. The panic value is only
// exposed outside release mode.
func Recovery(log *logger.Logger) gin.HandlerFunc {
	return gin.CustomRecoveryWithWriter(nil, func(c *gin.Context, recovered any) {
		if log != nil {
			log.Error("Panic recovered", "path", c.Request.URL.Path, "panic", fmt.Sprint(recovered))
		}
		msg := "internal server error"
		if gin.Mode() != gin.ReleaseMode {
			msg = fmt.Sprint(recovered)
		}
		c.AbortWithStatusJSON(http.StatusInternalServerError, response.ErrorBody{Error: msg, Code: "internal"})
	})
}

// Deprecated marks every response of the group with a Deprecation header.
func Deprecated() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Deprecation", "true")
		c.Next()
	}
}
