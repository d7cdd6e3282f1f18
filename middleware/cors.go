package middleware

import (
	"os"
	"strings"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

var defaultOrigins = []string{
	"http://localhost:5000",
	"http://localhost:5001",
}

// CORS allows configured origins with credentials. CORS_ORIGINS takes a
// comma-separated list; unset falls back to the local dev origins.
func CORS() gin.HandlerFunc {
	config := cors.DefaultConfig()
	config.AllowCredentials = true
	config.AllowHeaders = []string{"*"}
	config.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}

	origins := defaultOrigins
	if env := os.Getenv("CORS_ORIGINS"); env != "" {
		origins = nil
		for _, origin := range strings.Split(env, ",") {
			if origin = strings.TrimSpace(origin); origin != "" {
				origins = append(origins, origin)
			}
		}
	}
	config.AllowOrigins = origins
	return cors.New(config)
}
