/*
Package main is the entry point of the livechat client.

It loads configuration, initializes the global logger, connects to the chat server, wires the
hub, store and session together, optionally serves the local control API and runs the terminal
UI (or waits headless) until the user quits, the connection drops or an interrupt arrives.
*/
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"livechat/internal/app/hub"
	"livechat/internal/app/session"
	"livechat/internal/app/store"
	"livechat/internal/app/transport"
	"livechat/internal/configs"
	"livechat/internal/handler"
	"livechat/internal/pkg/limiter"
	"livechat/internal/pkg/logx"
	"livechat/internal/pkg/metrics"
	"livechat/internal/ui/tui"
)

var build = "develop"

func main() {
	cfg, help, err := configs.LoadConfig(build)
	if err != nil {
		if errors.Is(err, configs.ErrHelpWanted) {
			fmt.Println(help)
			return
		}
		fmt.Fprintf(os.Stderr, "FATAL: Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// The terminal UI owns the screen, so logs go to a file in that mode.
	var logOut io.Writer
	if cfg.UI == configs.UITerminal {
		f, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			fmt.Fprintf(os.Stderr, "FATAL: Failed to open log file: %v\n", err)
			os.Exit(1)
		}
		defer f.Close()
		logOut = f
	}

	logx.InitGlobalLogger(cfg.IsDevelopment(), logOut)
	logx.Logger().Info().
		Str("environment", cfg.Environment).
		Str("server_url", cfg.ServerURL).
		Str("ui", cfg.UI).
		Int("api_port", cfg.API.Port).
		Msg("Configuration loaded successfully")
	logx.Logger().Debug().Msg(cfg.String())

	if err := run(cfg); err != nil {
		logx.Error(err, "Client stopped with error")
		os.Exit(1)
	}
}

func run(cfg *configs.AppConfig) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// -------------------------------------------------------------------------
	// Metrics

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(registry)

	// -------------------------------------------------------------------------
	// Core

	h := hub.New(hub.WithMetrics(m))
	st := store.New(
		store.WithAvatarBase(cfg.AvatarBaseURL),
		store.WithMetrics(m),
	)

	dialCtx, cancelDial := context.WithTimeout(ctx, cfg.Transport.HandshakeTimeout)
	defer cancelDial()

	conn, err := transport.Dial(dialCtx, cfg.ServerURL, h, transport.WithOptions(transport.Options{
		HandshakeTimeout: cfg.Transport.HandshakeTimeout,
		WriteWait:        cfg.Transport.WriteWait,
		PongWait:         cfg.Transport.PongWait,
		MaxMessageSize:   cfg.Transport.MaxMessageSize,
		SendBuffer:       cfg.Transport.SendBuffer,
	}))
	if err != nil {
		return fmt.Errorf("connecting to %s: %w", cfg.ServerURL, err)
	}
	defer conn.Close()

	go conn.ReadPump()
	go conn.WritePump()

	sess := session.New(session.NewIdentity(), h, st, conn,
		session.WithLimiter(limiter.NewSendLimiter(cfg.Send.Rate, cfg.Send.Burst)),
		session.WithMetrics(m),
	)
	defer sess.Close()

	// -------------------------------------------------------------------------
	// Control API

	if cfg.API.Port != 0 {
		router, stopRouter := handler.Router(&handler.AppDeps{
			Session:  sess,
			Store:    st,
			Config:   cfg,
			Gatherer: registry,
		})

		server := &http.Server{
			Addr:         fmt.Sprintf("127.0.0.1:%d", cfg.API.Port),
			Handler:      router,
			ReadTimeout:  5 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  120 * time.Second,
		}

		go func() {
			logx.Info("Control API starting", "addr", server.Addr)
			if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logx.Error(err, "Control API failed")
			}
		}()

		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.API.ShutdownWait)
			defer cancel()

			if err := server.Shutdown(shutdownCtx); err != nil {
				logx.Error(err, "Control API forced to shutdown")
			}
			stopRouter()
		}()
	}

	// -------------------------------------------------------------------------
	// Renderer

	if cfg.UI == configs.UIHeadless {
		if cfg.Username != "" {
			if _, err := sess.Login(cfg.Username); err != nil {
				return fmt.Errorf("login: %w", err)
			}
		}

		select {
		case <-ctx.Done():
			logx.Info("Received shutdown signal.")
		case <-conn.Done():
			logx.Warn("Connection to chat server lost.")
		}
		return nil
	}

	ui := tui.New(sess, st)
	if cfg.Username != "" {
		ui.Login(cfg.Username)
	}

	go func() {
		select {
		case <-ctx.Done():
		case <-conn.Done():
		}
		ui.Stop()
	}()

	if err := ui.Run(); err != nil {
		return fmt.Errorf("terminal ui: %w", err)
	}

	logx.Info("Client stopped.")
	return nil
}
