package service

import (
	"log/slog"

	"socialFeed/internal/config"
	"socialFeed/internal/repository"
)

type Service struct {
	Auth      AuthGate
	Post      PostService
	Projector PostProjector
}

func NewService(rep *repository.Repository, cfg *config.Config, logger *slog.Logger) *Service {
	return &Service{
		Auth:      NewAuthGate(cfg.JWTSecretKey),
		Post:      NewPostService(rep.Post, cfg, logger),
		Projector: NewPostProjector(rep.User, cfg.StoreTimeout, logger),
	}
}
