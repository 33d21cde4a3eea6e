/*
Package logx provides a structured logging wrapper based on zerolog.

This file contains the HTTP middleware used by the local control API. Each call is logged with the
chat user it acted for and an anonymized caller address.
*/
package logx

import (
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
)

// anonymizeIP zeroes the last IPv4 octet or the second half of an IPv6 address.
func anonymizeIP(ipStr string) string {
	host, _, err := net.SplitHostPort(ipStr)
	if err == nil {
		ipStr = host
	}

	ip := net.ParseIP(ipStr)
	if ip == nil {
		return "unknown_ip"
	}

	if ip.IsLoopback() {
		return "127.0.0.1"
	}

	if v4 := ip.To4(); v4 != nil {
		return v4.Mask(net.CIDRMask(24, 32)).String()
	}

	return ip.Mask(net.CIDRMask(64, 128)).String()
}

// RequestLogger returns an HTTP middleware that logs each control API call together with the
// chat user it acted for. identity reports the logged-in username; it may be nil, and an empty
// name is logged as "anonymous". Scrapes of /metrics are logged at debug level.
func RequestLogger(identity func() string) func(next http.Handler) http.Handler {
	baseLogger := Logger()

	return func(next http.Handler) http.Handler {
		fn := func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			logger := baseLogger.With().
				Str("component", "control_api").
				Str("request_id", middleware.GetReqID(r.Context())).
				Str("remote_ip", anonymizeIP(r.RemoteAddr)).
				Str("call", r.Method+" "+r.URL.Path).
				Logger()

			r = r.WithContext(logger.WithContext(r.Context()))

			start := time.Now()
			next.ServeHTTP(ww, r)

			// Read after the handler ran so a login made by this call is attributed to the new user.
			username := "anonymous"
			if identity != nil {
				if name := identity(); name != "" {
					username = name
				}
			}

			status := ww.Status()
			var event *zerolog.Event
			switch {
			case status >= http.StatusInternalServerError:
				event = logger.Error()
			case status >= http.StatusBadRequest:
				event = logger.Warn()
			case r.URL.Path == "/metrics":
				event = logger.Debug()
			default:
				event = logger.Info()
			}

			event.
				Str("username", username).
				Int("status", status).
				Dur("latency", time.Since(start)).
				Msg("Control API call handled")
		}

		return http.HandlerFunc(fn)
	}
}
