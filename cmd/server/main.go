package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"habita/internal/aireport"
	"habita/internal/catalog"
	"habita/internal/config"
	"habita/internal/export"
	"habita/internal/handler"
	"habita/internal/repository/postgres"
	"habita/internal/router"
	"habita/internal/service"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("FATAL: %v", err)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	db, err := postgres.NewDB(cfg.DB)
	if err != nil {
		return err
	}
	defer db.Close()

	cat := catalog.Default()

	registry := export.NewRegistry()
	if cfg.Reports.EnableXLSX {
		registry.Register(&export.XLSXExporter{})
	}
	if cfg.Reports.EnablePDF {
		registry.Register(&export.PDFExporter{})
	}

	generator := aireport.NewGenerator(aireport.Config{
		URL:         cfg.AI.URL,
		APIKey:      cfg.AI.APIKey,
		Model:       cfg.AI.Model,
		Temperature: cfg.AI.Temperature,
		Timeout:     cfg.AI.Timeout,
	}, cat)

	svc := service.NewReportService(
		cat,
		postgres.NewReportDataRepo(db),
		postgres.NewReportHistoryRepo(db),
		generator,
		registry,
		cfg.Reports.Strict,
	)

	engine := router.New(cfg,
		handler.NewReportHandler(svc, cat, cfg.AI.ExposeDiagnostics),
		handler.NewHealthHandler(db),
	)

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      engine,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("INFO: listening on %s (exports: %v)", srv.Addr, registry.Formats())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-quit:
		log.Printf("INFO: received %s, shutting down", sig)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(ctx)
}
