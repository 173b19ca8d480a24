package repository

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"socialFeed/internal/models"
)

const postColumns = `post_id, author_id, content, image_ref, likes, comments, version, created_at`

type PostRepositoryImpl struct {
	DB *sqlx.DB
}

// postRow is the posts table layout. Likes live in a TEXT[] column and
// comments in a JSONB column so that one UPDATE changes both atomically.
type postRow struct {
	PostID    string         `db:"post_id"`
	AuthorID  string         `db:"author_id"`
	Content   string         `db:"content"`
	ImageRef  string         `db:"image_ref"`
	Likes     pq.StringArray `db:"likes"`
	Comments  commentsJSON   `db:"comments"`
	Version   int64          `db:"version"`
	CreatedAt time.Time      `db:"created_at"`
}

type commentsJSON []models.Comment

func (c commentsJSON) Value() (driver.Value, error) {
	if c == nil {
		return []byte("[]"), nil
	}
	return json.Marshal([]models.Comment(c))
}

func (c *commentsJSON) Scan(src interface{}) error {
	var data []byte
	switch v := src.(type) {
	case nil:
		*c = commentsJSON{}
		return nil
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("неподдерживаемый тип комментариев: %T", src)
	}

	var comments []models.Comment
	if err := json.Unmarshal(data, &comments); err != nil {
		return fmt.Errorf("ошибка при разборе комментариев: %w", err)
	}
	*c = comments
	return nil
}

func toPostRow(post *models.Post) postRow {
	likes := pq.StringArray(post.Likes)
	if likes == nil {
		likes = pq.StringArray{}
	}

	return postRow{
		PostID:    post.PostID,
		AuthorID:  post.AuthorID,
		Content:   post.Content,
		ImageRef:  post.ImageRef,
		Likes:     likes,
		Comments:  commentsJSON(post.Comments),
		Version:   post.Version,
		CreatedAt: post.CreatedAt,
	}
}

func (row postRow) toModel() *models.Post {
	likes := []string(row.Likes)
	if likes == nil {
		likes = []string{}
	}
	comments := []models.Comment(row.Comments)
	if comments == nil {
		comments = []models.Comment{}
	}

	return &models.Post{
		PostID:    row.PostID,
		AuthorID:  row.AuthorID,
		Content:   row.Content,
		ImageRef:  row.ImageRef,
		Likes:     likes,
		Comments:  comments,
		Version:   row.Version,
		CreatedAt: row.CreatedAt,
	}
}

func NewPostRepository(db *sqlx.DB) *PostRepositoryImpl {
	return &PostRepositoryImpl{DB: db}
}

func (r *PostRepositoryImpl) Create(ctx context.Context, post *models.Post) error {
	query := `
        INSERT INTO posts
        (post_id, author_id, content, image_ref, likes, comments, version, created_at)
        VALUES
        (:post_id, :author_id, :content, :image_ref, :likes, :comments, :version, :created_at)
    `

	_, err := r.DB.NamedExecContext(ctx, query, toPostRow(post))
	if err != nil {
		return fmt.Errorf("ошибка при создании поста: %w", err)
	}

	return nil
}

func (r *PostRepositoryImpl) GetByID(ctx context.Context, postID string) (*models.Post, error) {
	query := `SELECT ` + postColumns + ` FROM posts WHERE post_id = $1`

	var row postRow
	err := r.DB.GetContext(ctx, &row, query, postID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", ErrPostNotFound, postID)
		}
		return nil, fmt.Errorf("ошибка при получении поста: %w", err)
	}

	return row.toModel(), nil
}

func (r *PostRepositoryImpl) List(ctx context.Context) ([]*models.Post, error) {
	query := `SELECT ` + postColumns + ` FROM posts ORDER BY created_at DESC`

	var rows []postRow
	err := r.DB.SelectContext(ctx, &rows, query)
	if err != nil {
		return nil, fmt.Errorf("ошибка при получении постов: %w", err)
	}

	posts := make([]*models.Post, 0, len(rows))
	for _, row := range rows {
		posts = append(posts, row.toModel())
	}

	return posts, nil
}

func (r *PostRepositoryImpl) UpdateInteractions(ctx context.Context, post *models.Post) error {
	query := `
		UPDATE posts SET
			likes = :likes,
			comments = :comments,
			version = version + 1
		WHERE post_id = :post_id AND version = :version
	`

	result, err := r.DB.NamedExecContext(ctx, query, toPostRow(post))
	if err != nil {
		return fmt.Errorf("ошибка при обновлении поста: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("ошибка при проверке обновленных строк: %w", err)
	}

	if rowsAffected == 0 {
		return ErrVersionConflict
	}

	post.Version++
	return nil
}

func (r *PostRepositoryImpl) Ping(ctx context.Context) error {
	return r.DB.PingContext(ctx)
}
