package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/joho/godotenv"
	"github.com/mdobak/go-xerrors"

	"github.com/ssilva/epivision/internal/capture"
	"github.com/ssilva/epivision/internal/config"
	"github.com/ssilva/epivision/internal/detector"
	"github.com/ssilva/epivision/internal/lgr"
	"github.com/ssilva/epivision/internal/server"
	"github.com/ssilva/epivision/internal/store"
	"github.com/ssilva/epivision/internal/stream"
)

const shutdownTimeout = 10 * time.Second

func main() {
	color.Cyan("EPI Vision - PPE detection streaming service")

	// Load env vars from .env in dev mode
	if os.Getenv("RUN_TIME_ENV") == "dev" || os.Getenv("RUN_TIME_ENV") == "" {
		if err := godotenv.Load(); err != nil {
			lgr.Logger.Info("no .env file loaded", slog.Any("reason", err))
		}
	}

	cfg, err := config.Load(os.Getenv("CONFIG_PATH"))
	if err != nil {
		lgr.Logger.Error("failed to load configuration", slog.Any("error", xerrors.New(err.Error())))
		os.Exit(1)
	}

	lgr.Init(lgr.Config{
		Level:      cfg.Log.Level,
		File:       cfg.Log.File,
		MaxSizeMB:  cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAgeDays: cfg.Log.MaxAgeDays,
	})

	st, err := store.New(cfg.DB.Path)
	if err != nil {
		lgr.Logger.Error("failed to open camera registry", slog.Any("error", xerrors.New(err.Error())))
		os.Exit(1)
	}
	defer st.Close()

	// A missing model is not fatal: cameras stream raw frames until a
	// detector is available.
	var det detector.Detector
	yolo, err := detector.NewYOLODetector(cfg.Detector.ModelPath)
	if err != nil {
		lgr.Logger.Warn("detector unavailable, streaming without annotations",
			slog.String("model_path", cfg.Detector.ModelPath),
			slog.Any("error", xerrors.New(err.Error())),
		)
	} else {
		det = yolo
		defer yolo.Close()
		color.Green("Loaded detection model: %s", cfg.Detector.ModelPath)
	}

	pool := capture.NewPool()
	defer pool.Close()

	pipeline := stream.New(stream.Config{
		Store:      st,
		Pool:       pool,
		Pacer:      capture.NewPacer(),
		Detector:   det,
		Confidence: cfg.Detector.Confidence,
		Width:      cfg.Stream.Width,
		Height:     cfg.Stream.Height,
		Quality:    cfg.Stream.JPEGQuality,
	})

	srv := &http.Server{
		Addr:    cfg.HTTP.Addr,
		Handler: server.New(server.Config{Store: st, Pipeline: pipeline}),
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	errChan := make(chan error, 1)
	go func() {
		lgr.Logger.Info("http server listening", slog.String("addr", cfg.HTTP.Addr))
		errChan <- srv.ListenAndServe()
	}()

	select {
	case sig := <-sigChan:
		lgr.Logger.Info("received shutdown signal", slog.Any("signal", sig))
	case err := <-errChan:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			lgr.Logger.Error("http server failed", slog.Any("error", xerrors.New(err.Error())))
			os.Exit(1)
		}
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		lgr.Logger.Error("shutdown did not complete cleanly", slog.Any("error", xerrors.New(err.Error())))
	}
	lgr.Logger.Info("shutdown complete")
}
