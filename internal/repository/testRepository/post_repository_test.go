package testRepository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"socialFeed/internal/models"
	"socialFeed/internal/repository"
)

var postColumns = []string{"post_id", "author_id", "content", "image_ref", "likes", "comments", "version", "created_at"}

func setupMockDB(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	sqlxDB := sqlx.NewDb(db, "sqlmock")
	t.Cleanup(func() { sqlxDB.Close() })

	return sqlxDB, mock
}

func TestNewPostRepository(t *testing.T) {
	db, _ := setupMockDB(t)

	repo := repository.NewPostRepository(db)

	assert.NotNil(t, repo)
	assert.Equal(t, db, repo.DB)
}

func TestPostRepositoryImpl_Create(t *testing.T) {
	createdAt := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name        string
		post        *models.Post
		setupMock   func(mock sqlmock.Sqlmock)
		expectError bool
		errorMsg    string
	}{
		{
			name: "Успешное создание поста",
			post: &models.Post{
				PostID:    "post-1",
				AuthorID:  "author-1",
				Content:   "Привет",
				ImageRef:  "https://img.example/1.png",
				Likes:     []string{},
				Comments:  []models.Comment{},
				Version:   1,
				CreatedAt: createdAt,
			},
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec(`INSERT INTO posts`).
					WithArgs(
						"post-1",
						"author-1",
						"Привет",
						"https://img.example/1.png",
						sqlmock.AnyArg(),
						sqlmock.AnyArg(),
						int64(1),
						createdAt,
					).
					WillReturnResult(sqlmock.NewResult(1, 1))
			},
		},
		{
			name: "Ошибка базы данных при создании",
			post: &models.Post{
				PostID:    "post-2",
				AuthorID:  "author-1",
				Content:   "Текст",
				Version:   1,
				CreatedAt: createdAt,
			},
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec(`INSERT INTO posts`).
					WillReturnError(fmt.Errorf("database error"))
			},
			expectError: true,
			errorMsg:    "ошибка при создании поста",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock := setupMockDB(t)
			repo := repository.NewPostRepository(db)

			tt.setupMock(mock)

			err := repo.Create(context.Background(), tt.post)

			if tt.expectError {
				assert.Error(t, err)
				assert.Contains(t, err.Error(), tt.errorMsg)
			} else {
				assert.NoError(t, err)
			}

			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestPostRepositoryImpl_GetByID(t *testing.T) {
	createdAt := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	commentedAt := createdAt.Add(time.Minute)

	tests := []struct {
		name          string
		postID        string
		setupMock     func(mock sqlmock.Sqlmock)
		expectedPost  *models.Post
		expectedError error
		errorMsg      string
	}{
		{
			name:   "Успешное получение поста",
			postID: "post-1",
			setupMock: func(mock sqlmock.Sqlmock) {
				rows := sqlmock.NewRows(postColumns).AddRow(
					"post-1",
					"author-1",
					"Привет",
					"",
					"{liker-1,liker-2}",
					[]byte(`[{"authorId":"liker-1","text":"Класс","createdAt":"2025-03-01T12:01:00Z"}]`),
					int64(3),
					createdAt,
				)
				mock.ExpectQuery(`SELECT (.+) FROM posts WHERE post_id = \$1`).
					WithArgs("post-1").
					WillReturnRows(rows)
			},
			expectedPost: &models.Post{
				PostID:   "post-1",
				AuthorID: "author-1",
				Content:  "Привет",
				Likes:    []string{"liker-1", "liker-2"},
				Comments: []models.Comment{
					{AuthorID: "liker-1", Text: "Класс", CreatedAt: commentedAt},
				},
				Version:   3,
				CreatedAt: createdAt,
			},
		},
		{
			name:   "Пустые лайки и комментарии не превращаются в nil",
			postID: "post-2",
			setupMock: func(mock sqlmock.Sqlmock) {
				rows := sqlmock.NewRows(postColumns).
					AddRow("post-2", "author-1", "", "https://img.example/2.png", "{}", []byte(`[]`), int64(1), createdAt)
				mock.ExpectQuery(`SELECT (.+) FROM posts WHERE post_id = \$1`).
					WithArgs("post-2").
					WillReturnRows(rows)
			},
			expectedPost: &models.Post{
				PostID:    "post-2",
				AuthorID:  "author-1",
				ImageRef:  "https://img.example/2.png",
				Likes:     []string{},
				Comments:  []models.Comment{},
				Version:   1,
				CreatedAt: createdAt,
			},
		},
		{
			name:   "Пост не найден",
			postID: "missing",
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`SELECT (.+) FROM posts WHERE post_id = \$1`).
					WithArgs("missing").
					WillReturnError(sql.ErrNoRows)
			},
			expectedError: repository.ErrPostNotFound,
		},
		{
			name:   "Ошибка базы данных",
			postID: "post-1",
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`SELECT (.+) FROM posts WHERE post_id = \$1`).
					WithArgs("post-1").
					WillReturnError(fmt.Errorf("connection reset"))
			},
			errorMsg: "ошибка при получении поста",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock := setupMockDB(t)
			repo := repository.NewPostRepository(db)

			tt.setupMock(mock)

			post, err := repo.GetByID(context.Background(), tt.postID)

			switch {
			case tt.expectedError != nil:
				assert.ErrorIs(t, err, tt.expectedError)
				assert.Nil(t, post)
			case tt.errorMsg != "":
				assert.Error(t, err)
				assert.Contains(t, err.Error(), tt.errorMsg)
				assert.Nil(t, post)
			default:
				require.NoError(t, err)
				assert.Equal(t, tt.expectedPost, post)
			}

			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestPostRepositoryImpl_List(t *testing.T) {
	newer := time.Date(2025, 3, 2, 0, 0, 0, 0, time.UTC)
	older := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)

	t.Run("Посты возвращаются от новых к старым", func(t *testing.T) {
		db, mock := setupMockDB(t)
		repo := repository.NewPostRepository(db)

		rows := sqlmock.NewRows(postColumns).
			AddRow("post-new", "author-1", "новый", "", "{}", []byte(`[]`), int64(1), newer).
			AddRow("post-old", "author-2", "старый", "", "{author-1}", []byte(`[]`), int64(2), older)
		mock.ExpectQuery(`SELECT (.+) FROM posts ORDER BY created_at DESC`).
			WillReturnRows(rows)

		posts, err := repo.List(context.Background())

		require.NoError(t, err)
		require.Len(t, posts, 2)
		assert.Equal(t, "post-new", posts[0].PostID)
		assert.Equal(t, "post-old", posts[1].PostID)
		assert.Equal(t, []string{"author-1"}, posts[1].Likes)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Пустая лента", func(t *testing.T) {
		db, mock := setupMockDB(t)
		repo := repository.NewPostRepository(db)

		mock.ExpectQuery(`SELECT (.+) FROM posts ORDER BY created_at DESC`).
			WillReturnRows(sqlmock.NewRows(postColumns))

		posts, err := repo.List(context.Background())

		require.NoError(t, err)
		assert.NotNil(t, posts)
		assert.Empty(t, posts)
	})

	t.Run("Ошибка базы данных", func(t *testing.T) {
		db, mock := setupMockDB(t)
		repo := repository.NewPostRepository(db)

		mock.ExpectQuery(`SELECT (.+) FROM posts ORDER BY created_at DESC`).
			WillReturnError(errors.New("timeout"))

		posts, err := repo.List(context.Background())

		assert.Error(t, err)
		assert.Nil(t, posts)
		assert.Contains(t, err.Error(), "ошибка при получении постов")
	})
}

func TestPostRepositoryImpl_UpdateInteractions(t *testing.T) {
	tests := []struct {
		name            string
		setupMock       func(mock sqlmock.Sqlmock)
		expectedError   error
		errorMsg        string
		expectedVersion int64
	}{
		{
			name: "Успешное обновление увеличивает версию",
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec(`UPDATE posts SET`).
					WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(), "post-1", int64(4)).
					WillReturnResult(sqlmock.NewResult(0, 1))
			},
			expectedVersion: 5,
		},
		{
			name: "Версия изменилась",
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec(`UPDATE posts SET`).
					WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(), "post-1", int64(4)).
					WillReturnResult(sqlmock.NewResult(0, 0))
			},
			expectedError:   repository.ErrVersionConflict,
			expectedVersion: 4,
		},
		{
			name: "Ошибка базы данных",
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec(`UPDATE posts SET`).
					WillReturnError(errors.New("deadlock detected"))
			},
			errorMsg:        "ошибка при обновлении поста",
			expectedVersion: 4,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock := setupMockDB(t)
			repo := repository.NewPostRepository(db)

			tt.setupMock(mock)

			post := &models.Post{
				PostID:   "post-1",
				AuthorID: "author-1",
				Likes:    []string{"liker-1"},
				Comments: []models.Comment{{AuthorID: "liker-1", Text: "ок", CreatedAt: time.Now().UTC()}},
				Version:  4,
			}

			err := repo.UpdateInteractions(context.Background(), post)

			switch {
			case tt.expectedError != nil:
				assert.ErrorIs(t, err, tt.expectedError)
			case tt.errorMsg != "":
				assert.Error(t, err)
				assert.Contains(t, err.Error(), tt.errorMsg)
			default:
				assert.NoError(t, err)
			}
			assert.Equal(t, tt.expectedVersion, post.Version)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestPostRepositoryImpl_Ping(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	sqlxDB := sqlx.NewDb(db, "sqlmock")
	defer sqlxDB.Close()

	repo := repository.NewPostRepository(sqlxDB)

	mock.ExpectPing().WillReturnError(errors.New("connection refused"))

	assert.Error(t, repo.Ping(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}
