package bootstrap

import (
	"context"
	"log/slog"
	"time"

	"go.uber.org/fx"
	"gorm.io/gorm"

	"testvault/internal/bootstrap/config"
	"testvault/internal/bootstrap/database"
	"testvault/internal/bootstrap/logging"
	kvinfra "testvault/internal/infrastructure/kv"
	"testvault/internal/ports"
	"testvault/internal/usecase/insights"
	"testvault/internal/usecase/registry"
	"testvault/internal/usecase/runflow"
	"testvault/internal/usecase/snapshot"
)

var Module = fx.Options(
	fx.Provide(provideConfig),
	fx.Provide(provideDatabase),
	fx.Provide(provideApp),
	fx.Provide(provideStore),
	fx.Provide(provideClock),
	fx.Provide(provideIdentity),
	fx.Provide(registry.NewService),
	fx.Provide(runflow.NewService),
	fx.Provide(insights.NewService),
	fx.Provide(snapshot.NewService),
)

type configParams struct {
	fx.In

	Ctx        context.Context
	ConfigFile string `name:"configFile"`
}

func provideConfig(p configParams) (config.Config, error) {
	ctx := logging.WithAttrs(p.Ctx, slog.String("component", "bootstrap.fx"))
	return config.Load(ctx, p.ConfigFile)
}

func provideDatabase(lc fx.Lifecycle, ctx context.Context, cfg config.Config) (*gorm.DB, error) {
	logCtx := logging.WithAttrs(ctx, slog.String("component", "bootstrap.fx"))

	db, err := database.Open(logCtx, cfg.Database)
	if err != nil {
		return nil, err
	}

	lc.Append(fx.Hook{
		OnStop: func(_ context.Context) error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.Close()
		},
	})

	return db, nil
}

func provideApp(cfg config.Config, db *gorm.DB) *App {
	return &App{
		Config: cfg,
		DB:     db,
	}
}

func provideStore(db *gorm.DB, cfg config.Config) ports.KVStore {
	return kvinfra.NewSQLiteStore(db, cfg.Storage.MaxValueBytes)
}

func provideClock() ports.Clock {
	return ports.ClockFunc(time.Now)
}

func provideIdentity(cfg config.Config) ports.Identity {
	user := cfg.App.User
	if user == "" {
		user = "local-user"
	}
	return ports.IdentityFunc(func() string { return user })
}
