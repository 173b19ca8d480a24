package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/samber/lo"
	"socialFeed/internal/models"
	"socialFeed/internal/repository"
)

// UnknownUsername stands in for identities the directory cannot resolve.
const UnknownUsername = "unknown"

// PostProjector enriches raw posts with display names. It never fails:
// a directory error degrades every name to UnknownUsername.
type PostProjector interface {
	Project(ctx context.Context, posts ...*models.Post) []models.PostView
}

type postProjector struct {
	users   repository.UserDirectory
	timeout time.Duration
	logger  *slog.Logger
}

func NewPostProjector(users repository.UserDirectory, timeout time.Duration, logger *slog.Logger) PostProjector {
	return &postProjector{users: users, timeout: timeout, logger: logger}
}

func (p *postProjector) Project(ctx context.Context, posts ...*models.Post) []models.PostView {
	names := p.resolve(ctx, collectIdentities(posts))

	ref := func(id string) models.UserRef {
		name, ok := names[id]
		if !ok || name == "" {
			name = UnknownUsername
		}
		return models.UserRef{UserID: id, Username: name}
	}

	views := make([]models.PostView, 0, len(posts))
	for _, post := range posts {
		view := models.PostView{
			PostID:    post.PostID,
			Author:    ref(post.AuthorID),
			Content:   post.Content,
			ImageRef:  post.ImageRef,
			Likes:     lo.Map(post.Likes, func(id string, _ int) models.UserRef { return ref(id) }),
			Comments:  make([]models.CommentView, 0, len(post.Comments)),
			CreatedAt: post.CreatedAt,
		}
		for _, c := range post.Comments {
			view.Comments = append(view.Comments, models.CommentView{
				Author:    ref(c.AuthorID),
				Text:      c.Text,
				CreatedAt: c.CreatedAt,
			})
		}
		views = append(views, view)
	}

	return views
}

func (p *postProjector) resolve(ctx context.Context, ids []string) map[string]string {
	if p.users == nil || len(ids) == 0 {
		return map[string]string{}
	}

	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	names, err := p.users.GetDisplayNames(ctx, ids)
	if err != nil {
		p.logger.Warn("не удалось получить имена пользователей", "count", len(ids), "error", err)
		return map[string]string{}
	}
	return names
}

func collectIdentities(posts []*models.Post) []string {
	var ids []string
	for _, post := range posts {
		ids = append(ids, post.AuthorID)
		ids = append(ids, post.Likes...)
		for _, c := range post.Comments {
			ids = append(ids, c.AuthorID)
		}
	}
	return lo.Uniq(ids)
}
