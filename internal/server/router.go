package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/agrivisor/agrivisor/internal/auth"
	"github.com/agrivisor/agrivisor/internal/handler"
	"github.com/agrivisor/agrivisor/internal/middleware"
	"github.com/agrivisor/agrivisor/pkg/db"
	"github.com/agrivisor/agrivisor/pkg/health"
	"github.com/agrivisor/agrivisor/pkg/redis"
)

// routes builds the full API router: public advisory reads, authenticated
// farmer endpoints, and the admin surface.
func (s *Server) routes() http.Handler {
	tokens := auth.NewTokenService(s.cfg.Auth.JWTSecret, s.cfg.Auth.TokenTTL)

	authH := handler.NewAuth(s.farmers, tokens, s.log)
	farmerH := handler.NewFarmer(s.farmers, s.log)
	farmH := handler.NewFarm(s.farms, s.log)
	advisoryH := handler.NewAdvisory(s.weather, s.market, s.finance, s.recommend, s.farmers, s.farms, s.log)
	adminH := handler.NewAdmin(s.cache, s.farmers, s.farms, s.log)

	checks := health.Checks{"postgres": db.Healthcheck(s.pool)}
	if s.redisClient != nil {
		checks["redis"] = redis.Healthcheck(s.redisClient)
	}

	r := chi.NewRouter()
	r.Use(
		middleware.RequestID(),
		middleware.Recover(s.log),
		middleware.CORS(s.cfg.App.CORSAllowedOrigins...),
		middleware.Timeout(s.cfg.App.RequestTimeout),
	)

	r.Get("/livez", health.LivenessHandler())
	r.Get("/readyz", health.ReadinessHandler(s.log, checks))

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/auth/register", authH.Register)
		r.Post("/auth/login", authH.Login)

		r.Get("/weather/{district}", advisoryH.Weather)
		r.Get("/market/{district}/{commodity}", advisoryH.MarketPrices)
		r.Get("/finance/schemes", advisoryH.FinanceSchemes)
		r.Post("/finance/emi", advisoryH.FinanceEMI)

		r.Group(func(r chi.Router) {
			r.Use(middleware.Authenticate(tokens))

			r.Get("/me", farmerH.Profile)
			r.Put("/me", farmerH.UpdateProfile)

			r.Post("/farms", farmH.Create)
			r.Get("/farms", farmH.List)
			r.Get("/farms/{farmID}", farmH.Get)
			r.Put("/farms/{farmID}", farmH.Update)
			r.Delete("/farms/{farmID}", farmH.Delete)
			r.Post("/farms/{farmID}/recommendation", advisoryH.Recommend)

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireAdmin())

				r.Get("/admin/stats", adminH.Stats)
				r.Post("/admin/cache/invalidate", adminH.InvalidateCache)
			})
		})
	})

	return r
}
