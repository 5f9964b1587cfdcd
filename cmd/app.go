package cmd

import (
	"context"
	"fmt"
	"log"

	"apartment-booking/internal/data/gormstore"
	"apartment-booking/internal/data/repository"
	"apartment-booking/internal/integrations/mailer"
	"apartment-booking/internal/integrations/paystack"
	"apartment-booking/internal/usecase"
	"apartment-booking/pkg/database"
	"apartment-booking/pkg/lock"
	"apartment-booking/pkg/utils"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	driverPostgres = "postgres"
	driverSQLite   = "sqlite"
)

// runtime is what every subcommand that touches storage needs.
type runtime struct {
	config  *utils.Config
	logger  *zap.Logger
	repo    *repository.Repository
	closers []func()
}

func loadConfig(opts *rootOptions) (*utils.Config, error) {
	config, err := utils.LoadConfig(opts.envFile)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if opts.port != "" {
		config.App.Port = opts.port
	}
	return config, nil
}

func newLogger(config *utils.Config) *zap.Logger {
	logger, err := utils.InitLogger(config.App.LogPath, config.App.Name, config.App.Debug)
	if err != nil {
		log.Printf("Failed to init logger: %v. Using standard log.", err)
		logger, _ = zap.NewProduction()
	}
	return logger
}

func newRuntime(ctx context.Context, opts *rootOptions) (*runtime, error) {
	config, err := loadConfig(opts)
	if err != nil {
		return nil, err
	}
	logger := newLogger(config)

	rates, err := repository.LoadRateTable(config.Pricing.RatesFile)
	if err != nil {
		logger.Sync()
		return nil, fmt.Errorf("load rates: %w", err)
	}

	rt := &runtime{config: config, logger: logger}

	switch config.Database.Driver {
	case driverPostgres:
		db, err := database.InitDB(ctx, config.Database)
		if err != nil {
			rt.Close()
			return nil, fmt.Errorf("connect database: %w", err)
		}
		rt.closers = append(rt.closers, db.Close)
		rt.repo = repository.NewRepository(db, rates, logger)

	case driverSQLite:
		db, err := database.OpenSQLite(config.Database.SQLitePath, config.App.Debug)
		if err != nil {
			rt.Close()
			return nil, err
		}
		sqlDB, err := db.DB()
		if err != nil {
			rt.Close()
			return nil, err
		}
		rt.closers = append(rt.closers, func() { sqlDB.Close() })

		// The embedded store is for local runs, so its schema is kept current
		// on every start.
		if err := gormstore.Migrate(db); err != nil {
			rt.Close()
			return nil, err
		}
		rt.repo = gormstore.NewRepository(db, rates, logger)

	default:
		rt.Close()
		return nil, fmt.Errorf("unsupported DB_DRIVER %q", config.Database.Driver)
	}

	logger.Info("Database connected successfully", zap.String("driver", config.Database.Driver))
	return rt, nil
}

func (rt *runtime) Close() {
	for i := len(rt.closers) - 1; i >= 0; i-- {
		rt.closers[i]()
	}
	rt.closers = nil
	rt.logger.Sync()
}

// newIntegrations connects the payment gateway, mail and lock backends.
func (rt *runtime) newIntegrations(ctx context.Context) (usecase.Integrations, error) {
	config := rt.config

	if config.Paystack.SecretKey == "" {
		rt.logger.Warn("PAYSTACK_SECRET_KEY is not set, payment calls will be rejected")
	}
	gateway := paystack.NewClient(config.Paystack.BaseURL, config.Paystack.SecretKey, config.Paystack.Timeout, rt.logger)

	locker, err := rt.newLocker(ctx)
	if err != nil {
		return usecase.Integrations{}, err
	}

	return usecase.Integrations{
		Gateway:   gateway,
		Messenger: mailer.New(config.Email, rt.logger),
		Locker:    locker,
	}, nil
}

func (rt *runtime) newLocker(ctx context.Context) (lock.Locker, error) {
	config := rt.config

	switch config.Lock.Backend {
	case "", "local":
		return lock.NewLocalLocker(), nil

	case "redis":
		client := redis.NewClient(&redis.Options{
			Addr:     config.Redis.Addr,
			Password: config.Redis.Password,
			DB:       config.Redis.DB,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			client.Close()
			return nil, fmt.Errorf("connect redis %s: %w", config.Redis.Addr, err)
		}
		rt.closers = append(rt.closers, func() { client.Close() })
		rt.logger.Info("Using redis booking lock", zap.String("addr", config.Redis.Addr))
		return lock.NewRedisLocker(client, config.Lock.TTL, config.Lock.Wait, rt.logger), nil

	default:
		return nil, fmt.Errorf("unsupported LOCK_BACKEND %q", config.Lock.Backend)
	}
}
