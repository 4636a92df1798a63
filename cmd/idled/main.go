// Package main provides the simulation server binary. It runs one idle dungeon
// session per configured profile and serves the sessions to renderers over gRPC.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"google.golang.org/grpc"

	"github.com/cory-johannsen/delve/internal/config"
	"github.com/cory-johannsen/delve/internal/game/content"
	"github.com/cory-johannsen/delve/internal/game/event"
	"github.com/cory-johannsen/delve/internal/game/state"
	"github.com/cory-johannsen/delve/internal/gameserver"
	"github.com/cory-johannsen/delve/internal/observability"
	"github.com/cory-johannsen/delve/internal/server"
	"github.com/cory-johannsen/delve/internal/sim"
	"github.com/cory-johannsen/delve/internal/storage/file"
	"github.com/cory-johannsen/delve/internal/storage/postgres"
)

func main() {
	start := time.Now()

	configPath := flag.String("config", "configs/dev.yaml", "path to configuration file")
	migrateDB := flag.Bool("migrate", true, "apply database migrations at startup (postgres backend)")
	flag.Parse()

	ctx := context.Background()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}
	logger, err := observability.NewLogger(cfg.Logging)
	if err != nil {
		log.Fatalf("initializing logger: %v", err)
	}
	defer logger.Sync()

	cat, err := content.Open(cfg.Simulation.ContentDir)
	if err != nil {
		logger.Fatal("loading content", zap.Error(err))
	}
	logger.Info("content loaded",
		zap.Int("heroes", len(cat.Heroes())),
		zap.Int("enemies", len(cat.Templates())),
		zap.Int("item_bases", len(cat.Items().Bases())),
	)

	lifecycle := server.NewLifecycle(logger)

	var store state.Store
	switch cfg.Storage.Backend {
	case "postgres":
		repo, pool := openPostgres(ctx, cfg, *migrateDB, logger)
		store = repo
		lifecycle.Add("postgres", &server.FuncService{
			StartFn: func(ctx context.Context) error {
				ticker := time.NewTicker(30 * time.Second)
				defer ticker.Stop()
				for {
					select {
					case <-ctx.Done():
						return nil
					case <-ticker.C:
						if err := pool.Health(ctx, 5*time.Second); err != nil {
							logger.Warn("database health check failed", zap.Error(err))
						}
					}
				}
			},
			StopFn: func(context.Context) error {
				pool.Close()
				return nil
			},
		})
	case "file":
		fs, err := file.NewStore(cfg.Storage.Dir)
		if err != nil {
			logger.Fatal("opening save directory", zap.Error(err))
		}
		store = fs
		logger.Info("file store opened", zap.String("dir", fs.Dir()))
	}

	deps := sim.Deps{Catalog: cat, Store: store, Logger: logger}
	registry := sim.NewRegistry()
	profiles := cfg.Server.Profiles
	if len(profiles) == 0 {
		id := uuid.NewString()
		logger.Info("no profiles configured, starting a new one", zap.String("profile", id))
		profiles = []string{id}
	}
	for _, id := range profiles {
		sess, err := sim.Load(ctx, id, deps, cfg.Simulation)
		if err != nil {
			logger.Fatal("loading session", zap.String("profile", id), zap.Error(err))
		}
		logNotifications(sess, logger)
		if err := registry.Add(sess); err != nil {
			logger.Fatal("registering session", zap.Error(err))
		}
	}

	runner := sim.NewRunner(cfg.Simulation.TickInterval, registry, logger)
	lifecycle.Add("simulation", &server.FuncService{
		StartFn: func(ctx context.Context) error {
			runner.Run(ctx)
			return nil
		},
		StopFn: func(ctx context.Context) error {
			err := registry.SaveAll(ctx)
			for _, sess := range registry.All() {
				sess.Close()
			}
			if err != nil {
				return fmt.Errorf("saving sessions: %w", err)
			}
			return nil
		},
	})

	if cfg.Server.GRPCPort > 0 {
		grpcServer := grpc.NewServer()
		gameserver.RegisterGameService(grpcServer, gameserver.NewGameServiceServer(registry, gameserver.DefaultEventBuffer, logger))
		lifecycle.Add("grpc", &server.FuncService{
			StartFn: func(context.Context) error {
				lis, err := net.Listen("tcp", cfg.Server.Addr())
				if err != nil {
					return fmt.Errorf("listening on %s: %w", cfg.Server.Addr(), err)
				}
				logger.Info("game service listening", zap.String("addr", lis.Addr().String()))
				return grpcServer.Serve(lis)
			},
			StopFn: func(ctx context.Context) error {
				stopped := make(chan struct{})
				go func() {
					grpcServer.GracefulStop()
					close(stopped)
				}()
				select {
				case <-stopped:
				case <-ctx.Done():
					grpcServer.Stop()
				}
				return nil
			},
		})
	}

	logger.Info("simulation server initialized",
		zap.String("server", cfg.Server.Name),
		zap.Int("sessions", registry.Len()),
		zap.String("backend", cfg.Storage.Backend),
		zap.Int("grpc_port", cfg.Server.GRPCPort),
		zap.Duration("startup", time.Since(start)),
	)

	if err := lifecycle.Run(ctx); err != nil {
		logger.Fatal("server error", zap.Error(err))
	}
}

func openPostgres(ctx context.Context, cfg config.Config, migrateDB bool, logger *zap.Logger) (*postgres.SaveRepository, *postgres.Pool) {
	if migrateDB {
		version, err := postgres.MigrateUp(cfg.Database.DSN())
		if err != nil {
			logger.Fatal("migrating database", zap.Error(err))
		}
		logger.Info("database schema ready", zap.Uint("version", version))
	}

	dbStart := time.Now()
	pool, err := postgres.NewPool(ctx, cfg.Database)
	if err != nil {
		logger.Fatal("connecting to database", zap.Error(err))
	}
	logger.Info("database connected",
		zap.String("host", cfg.Database.Host),
		zap.Duration("elapsed", time.Since(dbStart)),
	)

	repo := postgres.NewSaveRepository(pool.DB())
	top, err := repo.Leaderboard(ctx, 5)
	if err != nil {
		logger.Warn("reading leaderboard", zap.Error(err))
	}
	for i, s := range top {
		logger.Info("leaderboard", zap.Int("rank", i+1), zap.String("profile", s.ProfileID), zap.Int("echoes", s.Echoes))
	}
	return repo, pool
}

// logNotifications stands in for a renderer: user-facing notifications are logged.
func logNotifications(sess *sim.Session, logger *zap.Logger) {
	l := logger.With(zap.String("profile", sess.ID()))
	sess.Bus().On(event.NotificationRequested, func(p any) {
		n := p.(event.Notification)
		l.Info("notification", zap.String("severity", string(n.Severity)), zap.String("message", n.Message))
	})
	sess.Bus().On(event.FloorAdvanced, func(p any) {
		l.Info("floor reached", zap.Int("floor", p.(event.FloorAdvancedPayload).Floor))
	})
}
