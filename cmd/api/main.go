package main

import (
	"fmt"
	"net/http"
	"time"

	"gong-export-go/internal/config"
	"gong-export-go/internal/logger"
)

func main() {
	log := logger.New()

	cfg, err := config.Load() // reads .env first
	if err != nil {
		log.WithError(err).Fatal("failed to load config")
	}
	log.WithField("service", "gong-export-go").WithField("base_url", cfg.BaseURL).Info("starting service")

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      newServer(cfg, log).routes(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 5 * time.Minute, // large exports walk many rate-limited batches
		IdleTimeout:  120 * time.Second,
	}
	log.WithField("addr", srv.Addr).Info("listening")
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.WithError(err).Fatal("server terminated")
	}
}
