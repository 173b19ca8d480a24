package handlers

import (
	"log/slog"

	"github.com/go-playground/validator/v10"
	"socialFeed/internal/config"
	"socialFeed/internal/repository"
	"socialFeed/internal/service"
)

type Handlers struct {
	PostService service.PostService
	Projector   service.PostProjector
	PostRepo    repository.PostRepository
	Cfg         *config.Config
	Validate    *validator.Validate
	Logger      *slog.Logger
}

func NewHandlers(repo *repository.Repository, service *service.Service, config *config.Config, logger *slog.Logger) *Handlers {
	return &Handlers{
		PostService: service.Post,
		Projector:   service.Projector,
		PostRepo:    repo.Post,
		Cfg:         config,
		Validate:    validator.New(),
		Logger:      logger,
	}
}
