package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"socialFeed/internal/models"
)

// MemoryPostRepository keeps posts in process memory. Posts are copied on
// the way in and out so callers never share state with the store.
type MemoryPostRepository struct {
	mu    sync.RWMutex
	posts map[string]*models.Post
}

func NewMemoryPostRepository() *MemoryPostRepository {
	return &MemoryPostRepository{posts: make(map[string]*models.Post)}
}

func (r *MemoryPostRepository) Create(ctx context.Context, post *models.Post) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.posts[post.PostID]; exists {
		return fmt.Errorf("пост с ID %s уже существует", post.PostID)
	}
	r.posts[post.PostID] = post.Clone()

	return nil
}

func (r *MemoryPostRepository) GetByID(ctx context.Context, postID string) (*models.Post, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	post, ok := r.posts[postID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrPostNotFound, postID)
	}

	return post.Clone(), nil
}

func (r *MemoryPostRepository) List(ctx context.Context) ([]*models.Post, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	posts := make([]*models.Post, 0, len(r.posts))
	for _, post := range r.posts {
		posts = append(posts, post.Clone())
	}
	r.mu.RUnlock()

	sortNewestFirst(posts)
	return posts, nil
}

func (r *MemoryPostRepository) UpdateInteractions(ctx context.Context, post *models.Post) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.posts[post.PostID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrPostNotFound, post.PostID)
	}
	if stored.Version != post.Version {
		return ErrVersionConflict
	}

	updated := stored.Clone()
	updated.Likes = append([]string{}, post.Likes...)
	updated.Comments = append([]models.Comment{}, post.Comments...)
	updated.Version++
	r.posts[post.PostID] = updated

	post.Version = updated.Version
	return nil
}

func (r *MemoryPostRepository) Ping(ctx context.Context) error {
	return ctx.Err()
}

// sortNewestFirst orders by creation time, newest first; ties fall back to
// the id so that the order is stable between calls.
func sortNewestFirst(posts []*models.Post) {
	sort.SliceStable(posts, func(i, j int) bool {
		if posts[i].CreatedAt.Equal(posts[j].CreatedAt) {
			return posts[i].PostID > posts[j].PostID
		}
		return posts[i].CreatedAt.After(posts[j].CreatedAt)
	})
}
