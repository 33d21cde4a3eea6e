package handler

import (
	"github.com/prometheus/client_golang/prometheus"

	"livechat/internal/app/session"
	"livechat/internal/app/store"
	"livechat/internal/configs"
)

// AppDeps carries what the control API handlers need.
type AppDeps struct {
	Session *session.Session
	Store   *store.Store
	Config  *configs.AppConfig

	// Gatherer backs /metrics.
	Gatherer prometheus.Gatherer
}
