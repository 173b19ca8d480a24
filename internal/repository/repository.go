package repository

import (
	"context"
	"errors"

	"socialFeed/internal/models"
)

var (
	ErrPostNotFound = errors.New("пост не найден")

	// ErrVersionConflict means the post changed since it was read.
	ErrVersionConflict = errors.New("версия поста изменилась")
)

// PostRepository is the keyed store for post aggregates.
// UpdateInteractions is a compare-and-swap: it writes likes and comments
// only if the stored version still equals post.Version, then bumps
// post.Version.
type PostRepository interface {
	Create(ctx context.Context, post *models.Post) error
	GetByID(ctx context.Context, postID string) (*models.Post, error)
	List(ctx context.Context) ([]*models.Post, error)
	UpdateInteractions(ctx context.Context, post *models.Post) error
	Ping(ctx context.Context) error
}

// UserDirectory resolves identities to display names. Unknown ids are
// simply absent from the result.
type UserDirectory interface {
	GetDisplayNames(ctx context.Context, userIDs []string) (map[string]string, error)
}

type Repository struct {
	Post PostRepository
	User UserDirectory
}
