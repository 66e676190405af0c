package main

import (
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"glot-server/internal/config"
	"glot-server/internal/infrastructure/logger"
	"glot-server/internal/interfaces/httpserver"
)

func main() {
	bootLog := logger.GetLogger()

	cfg, err := config.Load()
	if err != nil {
		bootLog.Fatal().Err(err).Msg("load config")
	}

	log, err := logger.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		bootLog.Fatal().Err(err).Msg("configure logger")
	}

	server := httpserver.NewHTTPServer(cfg, log)

	var eg errgroup.Group
	eg.Go(func() error {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		return http.ListenAndServe(fmt.Sprintf(":%d", cfg.MetricsPort), mux)
	})
	eg.Go(func() error {
		log.Info().Int("port", cfg.HTTPPort).Msg("gateway listening")
		return server.Run()
	})

	if err := eg.Wait(); err != nil {
		log.Fatal().Err(err).Msg("server exited")
	}
}
