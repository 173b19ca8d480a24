package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/google/uuid"
	"github.com/samber/lo"
	"github.com/sethvargo/go-retry"
	"socialFeed/internal/config"
	"socialFeed/internal/models"
	"socialFeed/internal/repository"
)

const (
	postLockStripes = 64
	retryBaseDelay  = 5 * time.Millisecond
	retryMaxDelay   = 200 * time.Millisecond
)

type CreatePostRequest struct {
	Content  string
	ImageRef string
}

type PostService interface {
	CreatePost(ctx context.Context, identity string, req CreatePostRequest) (*models.Post, error)
	ListPosts(ctx context.Context) ([]*models.Post, error)
	ToggleLike(ctx context.Context, identity, postID string) (*models.Post, error)
	AddComment(ctx context.Context, identity, postID, text string) (*models.Post, error)
}

type postService struct {
	postRepo     repository.PostRepository
	storeTimeout time.Duration
	maxAttempts  int
	locks        *postLocks
	now          func() time.Time
	logger       *slog.Logger
}

// postLocks serializes writers of one post inside the process. Posts that
// land on the same stripe share a lock.
type postLocks [postLockStripes]sync.Mutex

func (l *postLocks) lock(postID string) func() {
	m := &l[xxhash.Sum64String(postID)%postLockStripes]
	m.Lock()
	return m.Unlock
}

func NewPostService(postRepo repository.PostRepository, cfg *config.Config, logger *slog.Logger) PostService {
	maxAttempts := cfg.MutationMaxAttempts
	if maxAttempts < 1 {
		maxAttempts = 1
	}

	return &postService{
		postRepo:     postRepo,
		storeTimeout: cfg.StoreTimeout,
		maxAttempts:  maxAttempts,
		locks:        &postLocks{},
		now:          func() time.Time { return time.Now().UTC().Truncate(time.Millisecond) },
		logger:       logger,
	}
}

func (p *postService) CreatePost(ctx context.Context, identity string, req CreatePostRequest) (*models.Post, error) {
	if identity == "" {
		return nil, ErrUnauthenticated
	}

	content := strings.TrimSpace(req.Content)
	imageRef := strings.TrimSpace(req.ImageRef)
	if content == "" && imageRef == "" {
		return nil, fmt.Errorf("%w: пост должен содержать текст или изображение", ErrInvalidInput)
	}

	post := &models.Post{
		PostID:    uuid.New().String(),
		AuthorID:  identity,
		Content:   content,
		ImageRef:  imageRef,
		Likes:     []string{},
		Comments:  []models.Comment{},
		Version:   1,
		CreatedAt: p.now(),
	}

	err := p.withTimeout(ctx, func(ctx context.Context) error {
		return p.postRepo.Create(ctx, post)
	})
	if err != nil {
		p.logger.Error("не удалось создать пост", "post_id", post.PostID, "error", err)
		return nil, storeError(err)
	}

	p.logger.Info("пост создан", "post_id", post.PostID, "author_id", identity)
	return post, nil
}

func (p *postService) ListPosts(ctx context.Context) ([]*models.Post, error) {
	var posts []*models.Post
	err := p.withTimeout(ctx, func(ctx context.Context) error {
		var err error
		posts, err = p.postRepo.List(ctx)
		return err
	})
	if err != nil {
		p.logger.Error("не удалось получить ленту", "error", err)
		return nil, storeError(err)
	}

	return posts, nil
}

func (p *postService) ToggleLike(ctx context.Context, identity, postID string) (*models.Post, error) {
	if identity == "" {
		return nil, ErrUnauthenticated
	}

	return p.mutate(ctx, postID, func(post *models.Post) {
		if lo.Contains(post.Likes, identity) {
			post.Likes = lo.Without(post.Likes, identity)
			return
		}
		post.Likes = append(post.Likes, identity)
	})
}

func (p *postService) AddComment(ctx context.Context, identity, postID, text string) (*models.Post, error) {
	if identity == "" {
		return nil, ErrUnauthenticated
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return nil, fmt.Errorf("%w: текст комментария обязателен", ErrInvalidInput)
	}

	return p.mutate(ctx, postID, func(post *models.Post) {
		post.Comments = append(post.Comments, models.Comment{
			AuthorID:  identity,
			Text:      text,
			CreatedAt: p.now(),
		})
	})
}

// mutate runs read-modify-write against one post. apply works on a private
// copy; the copy is persisted only if the stored version did not move since
// the read. Writers in this process take the post's lock first, so version
// conflicts come only from other processes sharing the store. Those are
// retried with jittered backoff, up to maxAttempts attempts in total.
func (p *postService) mutate(ctx context.Context, postID string, apply func(post *models.Post)) (*models.Post, error) {
	if postID == "" {
		return nil, fmt.Errorf("%w: пустой идентификатор поста", ErrNotFound)
	}

	unlock := p.locks.lock(postID)
	defer unlock()

	var result *models.Post
	attempt := 0
	err := retry.Do(ctx, p.backoff(), func(ctx context.Context) error {
		attempt++

		var post *models.Post
		err := p.withTimeout(ctx, func(ctx context.Context) error {
			var err error
			post, err = p.postRepo.GetByID(ctx, postID)
			return err
		})
		if err != nil {
			return err
		}

		next := post.Clone()
		apply(next)

		err = p.withTimeout(ctx, func(ctx context.Context) error {
			return p.postRepo.UpdateInteractions(ctx, next)
		})
		if errors.Is(err, repository.ErrVersionConflict) {
			p.logger.Debug("конфликт версий, повтор", "post_id", postID, "attempt", attempt)
			return retry.RetryableError(err)
		}
		if err != nil {
			return err
		}

		result = next
		return nil
	})

	switch {
	case err == nil:
		return result, nil
	case errors.Is(err, repository.ErrPostNotFound):
		return nil, fmt.Errorf("%w: %s", ErrNotFound, postID)
	case errors.Is(err, repository.ErrVersionConflict):
		p.logger.Warn("исчерпаны попытки изменения поста", "post_id", postID, "attempts", attempt)
		return nil, fmt.Errorf("%w: %s", ErrConflict, postID)
	default:
		p.logger.Error("не удалось изменить пост", "post_id", postID, "attempt", attempt, "error", err)
		return nil, storeError(err)
	}
}

func (p *postService) backoff() retry.Backoff {
	b := retry.NewExponential(retryBaseDelay)
	b = retry.WithCappedDuration(retryMaxDelay, b)
	b = retry.WithJitterPercent(50, b)
	return retry.WithMaxRetries(uint64(p.maxAttempts-1), b)
}

// withTimeout bounds a single store call. A zero timeout leaves only the
// caller's deadline in force.
func (p *postService) withTimeout(ctx context.Context, call func(ctx context.Context) error) error {
	if p.storeTimeout <= 0 {
		return call(ctx)
	}

	ctx, cancel := context.WithTimeout(ctx, p.storeTimeout)
	defer cancel()

	return call(ctx)
}

func storeError(err error) error {
	return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
}
