package middlewares

import (
	"net/http"

	"github.com/rs/cors"

	"github.com/babylonchain/asset-staking-service/internal/api/handlers"
	"github.com/babylonchain/asset-staking-service/internal/config"
)

const (
	maxAge = 300
)

// CorsMiddleware allows the configured origins to call every route, including
// the admin PUT routes and the caller header.
func CorsMiddleware(cfg *config.Config) func(http.Handler) http.Handler {
	c := cors.New(cors.Options{
		AllowedOrigins: cfg.Server.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", handlers.CallerHeader},
		MaxAge:         maxAge,
	})
	return c.Handler
}
