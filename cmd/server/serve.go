package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/DoyleJ11/profit-backend/internal/camera"
	"github.com/DoyleJ11/profit-backend/internal/config"
	"github.com/DoyleJ11/profit-backend/internal/httpapi"
	"github.com/DoyleJ11/profit-backend/internal/hub"
	"github.com/DoyleJ11/profit-backend/internal/logging"
	"github.com/DoyleJ11/profit-backend/internal/media"
	"github.com/DoyleJ11/profit-backend/internal/overlay"
	"github.com/DoyleJ11/profit-backend/internal/pose"
	"github.com/DoyleJ11/profit-backend/internal/session"
	"github.com/DoyleJ11/profit-backend/internal/store"
	"github.com/DoyleJ11/profit-backend/internal/upload"
	"github.com/DoyleJ11/profit-backend/internal/web"
)

const shutdownGrace = 10 * time.Second

func loadConfig() (config.Config, *zap.Logger, error) {
	cfg, err := config.Load(envFile)
	if err != nil {
		return config.Config{}, nil, err
	}
	log, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return config.Config{}, nil, err
	}
	return cfg, log, nil
}

// openHistory picks postgres when DATABASE_URL is set, memory otherwise.
func openHistory(ctx context.Context, cfg config.Config, log *zap.Logger) (store.History, error) {
	if cfg.DatabaseURL == "" {
		log.Info("history kept in memory")
		return store.NewMemory(), nil
	}
	pg, err := store.OpenPostgres(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return pg, nil
}

func runServe(ctx context.Context) (err error) {
	cfg, log, err := loadConfig()
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()
	if addr != "" {
		cfg.Addr = addr
	}

	history, err := openHistory(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer func() { err = multierr.Append(err, history.Close()) }()

	blobs, err := media.Open(cfg.MediaDir, log)
	if err != nil {
		return err
	}
	defer func() { err = multierr.Append(err, blobs.Close()) }()

	pages, err := web.New()
	if err != nil {
		return err
	}

	cam := camera.NewSimulated(cfg.CameraDeny)

	// The hub outlives ctx so Shutdown can still reach it after a signal.
	h := hub.NewHub(context.Background(), hub.Factories{
		NewSession: func(ctx context.Context, id string) *session.Session {
			return session.NewSession(ctx, id, cam, pose.NewMockDetector(pose.RandomChooser()), session.Config{
				ElapsedEvery: cfg.ElapsedTick,
				DetectEvery:  cfg.DetectionTick,
				Recorder:     history,
				Logger:       log,
			})
		},
		NewWorkspace: func(ctx context.Context, id string) *upload.Workspace {
			return upload.NewWorkspace(ctx, id, upload.Config{
				Delay:    cfg.AnalysisDelay,
				Chooser:  pose.RandomChooser(),
				Blobs:    blobs,
				Recorder: history,
				Logger:   log,
			})
		},
	})

	srv := &http.Server{
		Addr: cfg.Addr,
		Handler: httpapi.SetupRoutes(httpapi.Deps{
			Hub:      h,
			History:  history,
			Pages:    pages,
			Renderer: overlay.PNGRenderer{},
			Logger:   log,
		}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("listening", zap.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down")
		sctx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
		// Actors first so every open camera stream is released and
		// recorded before the stores close.
		h.Shutdown(sctx)
		return srv.Shutdown(sctx)
	})
	return g.Wait()
}
