// Command devserve is a static-file HTTP server for local development: it
// serves one directory tree, injects a live-reload script into HTML
// responses, and reloads connected browsers when files under the root
// change.
package main

import (
	"errors"
	"flag"
	"fmt"
	"net"
	"os"

	"example.com/devserve/internal/config"
	"example.com/devserve/internal/handlers/staticfile"
	"example.com/devserve/internal/livereload"
	"example.com/devserve/internal/logger"
	"example.com/devserve/internal/server"
	"example.com/devserve/internal/util"
)

const version = "0.6.0"

func main() {
	cfg, err := config.Load(os.Args[1:], os.Stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(2)
		}
		fmt.Fprintln(os.Stderr, "devserve:", err)
		os.Exit(1)
	}

	log := logger.New(cfg.LogLevel)
	log.Info().Msgf("devserve %s", version)
	log.Info().Msgf("addr: http://%s", cfg.Addr)
	log.Info().Msgf("root dir: %s", cfg.Root)
	if lan, err := util.LANAddresses(); err == nil && len(lan) > 0 {
		log.Info().Msg("available (IPv4 LAN) addresses:")
		_, port, _ := net.SplitHostPort(cfg.Addr)
		for _, ip := range lan {
			log.Info().Msgf("  http://%s", net.JoinHostPort(ip, port))
		}
	}

	// The websocket port is advertised inside every served HTML page, so
	// failing to bind it is a startup error, not a degraded mode.
	hub := livereload.NewHub(log)
	if err := hub.Listen(cfg.WSAddr()); err != nil {
		logger.ErrorChain(log, "failed to start live-reload endpoint", err)
		os.Exit(1)
	}
	go func() {
		if err := hub.Serve(); err != nil {
			logger.ErrorChain(log, "live-reload endpoint failed", err)
		}
	}()
	defer hub.Close()

	watcher, err := livereload.NewWatcher(cfg.Root, hub.Broadcast, log)
	if err != nil {
		log.Warn().Err(err).Msg("file watching disabled")
	} else {
		defer watcher.Close()
	}

	handler := staticfile.New(cfg, log, server.NewPresenter(log))
	if err := server.New(cfg, log, handler).Run(); err != nil {
		logger.ErrorChain(log, "server exited", err)
		os.Exit(1)
	}
}
