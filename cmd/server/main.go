package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"
	log "github.com/sirupsen/logrus"

	"github.com/ritheshsuvarna/natya/internal/api"
	"github.com/ritheshsuvarna/natya/internal/app"
	"github.com/ritheshsuvarna/natya/internal/config"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration: ", err)
	}
	config.SetupLogging(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	components, err := app.Build(ctx, cfg)
	if err != nil {
		log.Fatal("Failed to initialize services: ", err)
	}

	router := api.NewRouter(&api.App{
		Service:       components.Service,
		MaxUploadSize: cfg.Server.MaxUploadSize,
		CORSOrigins:   cfg.Server.CORSOrigins,
	})

	server := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	log.Infof("Server starting on port %s", cfg.Server.Port)
	log.Infof("Upload directory: %s", cfg.Server.UploadDir)
	log.Infof("Analysis storage: %s", components.Store.PersistentName())
	log.Infof("Story provider: %s (enabled: %t)", components.Generator.ProviderName(), components.Generator.Available())
	log.Infof("Max upload size: %s", humanize.IBytes(uint64(cfg.Server.MaxUploadSize)))
	log.Infof("Max concurrent analyses: %d, timeout %v", cfg.Processing.MaxConcurrentAnalyses, cfg.Processing.Timeout)

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- server.ListenAndServe()
	}()

	select {
	case err := <-serverErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error(err)
		}
	case <-ctx.Done():
		log.Info("Shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Processing.Timeout+10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Warnf("HTTP shutdown: %v", err)
	}
	components.Close(shutdownCtx)
	log.Info("Server stopped")
}
