package app

import (
	"context"
	"fmt"
	"log"
	"log/slog"

	"socialFeed/internal/config"
	"socialFeed/internal/database"
	"socialFeed/internal/repository"
	"socialFeed/internal/service"
)

// App opens the store selected by STORE_DRIVER and wires services over it.
// The returned func releases the store.
func App(ctx context.Context, cfg *config.Config, logger *slog.Logger) (func(), *repository.Repository, *service.Service) {
	repo, closeStore, err := NewRepository(ctx, cfg)
	if err != nil {
		log.Fatalf("Не удалось инициализировать хранилище: %v", err)
	}

	logger.Info("хранилище готово", "driver", cfg.StoreDriver)

	services := service.NewService(repo, cfg, logger)

	return closeStore, repo, services
}

func NewRepository(ctx context.Context, cfg *config.Config) (*repository.Repository, func(), error) {
	switch cfg.StoreDriver {
	case config.DriverPostgres:
		db, err := database.ConnectDB(cfg)
		if err != nil {
			return nil, nil, err
		}
		repo := &repository.Repository{
			Post: repository.NewPostRepository(db.DB),
			User: repository.NewUserRepository(db.DB),
		}
		return repo, func() { db.CloseDB() }, nil

	case config.DriverMongo:
		client, db, err := database.ConnectMongo(ctx, cfg)
		if err != nil {
			return nil, nil, err
		}
		repo := &repository.Repository{
			Post: repository.NewMongoPostRepository(db),
			User: repository.NewMongoUserDirectory(db),
		}
		return repo, func() { client.Disconnect(context.Background()) }, nil

	case config.DriverBadger:
		db, err := database.OpenBadger(cfg)
		if err != nil {
			return nil, nil, err
		}
		repo := &repository.Repository{
			Post: repository.NewBadgerPostRepository(db),
			User: repository.NewMemoryUserDirectory(nil),
		}
		return repo, func() { db.Close() }, nil

	case config.DriverMemory:
		repo := &repository.Repository{
			Post: repository.NewMemoryPostRepository(),
			User: repository.NewMemoryUserDirectory(nil),
		}
		return repo, func() {}, nil

	default:
		return nil, nil, fmt.Errorf("неизвестный драйвер хранилища: %q", cfg.StoreDriver)
	}
}
