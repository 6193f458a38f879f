package api

import (
	"github.com/go-chi/chi"
)

func (a *Server) SetupRoutes(r *chi.Mux) {
	handlers := a.handlers
	r.Get("/healthcheck", registerHandler(handlers.HealthCheck))

	r.Post("/v1/deposits", registerHandler(handlers.Stake))
	r.Get("/v1/deposits/{id}", registerHandler(handlers.GetDeposit))
	r.Get("/v1/deposits/{id}/rewards", registerHandler(handlers.PreviewRewards))
	r.Post("/v1/deposits/{id}/unstake", registerHandler(handlers.Unstake))
	r.Post("/v1/deposits/{id}/claim", registerHandler(handlers.ClaimRewards))
	r.Post("/v1/deposits/{id}/withdraw", registerHandler(handlers.Withdraw))
	r.Get("/v1/depositor/deposits", registerHandler(handlers.GetDepositorDeposits))

	r.Get("/v1/config", registerHandler(handlers.GetStakeConfig))
	r.Put("/v1/admin/config/{knob}", registerHandler(handlers.SetStakeConfig))
	r.Post("/v1/admin/pause", registerHandler(handlers.Pause))
	r.Post("/v1/admin/unpause", registerHandler(handlers.Unpause))
	r.Post("/v1/admin/upgrade", registerHandler(handlers.AuthorizeUpgrade))
}
