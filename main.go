// main.go
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"

	"github.com/LilVoxy/clickstream_etl/ETL/config"
	"github.com/LilVoxy/clickstream_etl/ETL/models"
	"github.com/LilVoxy/clickstream_etl/ETL/trend"
	"github.com/LilVoxy/clickstream_etl/routes"
)

func main() {
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	log.Info("Starting analytics API...")

	etlConfig, err := config.GetConfig()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	db, err := config.OpenDatabase(ctx, etlConfig.OLAPConfig)
	cancel()
	if err != nil {
		log.Fatalf("Failed to connect to the analytics database: %v", err)
	}
	defer db.Close()

	router := mux.NewRouter()
	routes.SetupRoutes(router, routes.Dependencies{
		DB:          db,
		RunLog:      models.NewMySQLETLLogRepository(db),
		Predictions: trend.NewMySQLPredictionRepository(db),
	})

	server := &http.Server{
		Addr:         ":" + etlConfig.APIPort,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Infof("API listening on http://localhost%s", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
	log.Info("Shutdown signal received, draining connections...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("Graceful shutdown failed")
	}

	log.Info("API stopped")
}
