package middleware

import (
	"strings"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

var defaultOrigins = []string{
	"http://localhost:5173",
	"http://127.0.0.1:5173",
}

// CORS allows the configured origins; "*" allows any origin without credentials.
func CORS(origins []string) gin.HandlerFunc {
	cleaned := make([]string, 0, len(origins))
	for _, o := range origins {
		if o = strings.TrimRight(strings.TrimSpace(o), "/"); o != "" {
			cleaned = append(cleaned, o)
		}
	}
	if len(cleaned) == 0 {
		cleaned = defaultOrigins
	}
	cfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
		AllowHeaders:  []string{"Authorization", "Content-Type", "X-Requested-With", "X-Request-Id"},
		ExposeHeaders: []string{"X-Request-Id", "X-Trace-Id", "Deprecation"},
	}
	if len(cleaned) == 1 && cleaned[0] == "*" {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = cleaned
		cfg.AllowCredentials = true
	}
	return cors.New(cfg)
}
