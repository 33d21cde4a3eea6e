/*
Package handler provides the local HTTP control API of the chat client.

The API mirrors what the terminal screens do: log in with a username, read the roster and the
transcript, and submit messages. It also serves health and Prometheus metrics. This file defines
the Router, applying CORS, logging, recovery and IP-based rate limiting.
*/
package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
	"golang.org/x/time/rate"

	"livechat/internal/pkg/limiter"
	"livechat/internal/pkg/logx"
	"livechat/internal/pkg/resp"
)

// Router sets up the routing table of the control API. The returned stop function ends the rate
// limiter's cleanup goroutine and must be called once the server has shut down.
func Router(deps *AppDeps) (http.Handler, func()) {
	writeLimiter := limiter.NewIPRateLimiter(rate.Limit(deps.Config.API.RequestRate), deps.Config.API.RequestBurst)

	r := chi.NewRouter()

	corsAllowedOrigins := []string{}
	if deps.Config.IsDevelopment() {
		corsAllowedOrigins = []string{"*"}
	} else if len(deps.Config.API.AllowedOrigins) > 0 {
		corsAllowedOrigins = deps.Config.API.AllowedOrigins
	}

	c := cors.New(cors.Options{
		AllowedOrigins: corsAllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	})
	r.Use(c.Handler)

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(logx.RequestLogger(deps.Session.Identity().Get))
	r.Use(middleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		resp.RespondSuccess(w, r, map[string]string{
			"status":  "ok",
			"service": "livechat",
		})
	})

	r.Handle("/metrics", promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{}))

	r.Route("/api", func(api chi.Router) {
		api.With(writeLimiter.Middleware).Post("/session", HandleLogin(deps))
		api.Get("/session", HandleGetSession(deps))

		api.Get("/roster", HandleGetRoster(deps))
		api.Get("/transcript", HandleGetTranscript(deps))
		api.With(writeLimiter.Middleware).Post("/messages", HandleSubmitMessage(deps))
	})

	return r, writeLimiter.Stop
}
