package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

type userRepository struct {
	db *sqlx.DB
}

type userRow struct {
	UserID   string `db:"user_id"`
	Username string `db:"username"`
}

// NewUserRepository reads the users table owned by the credential issuer.
func NewUserRepository(db *sqlx.DB) UserDirectory {
	return &userRepository{db: db}
}

func (r *userRepository) GetDisplayNames(ctx context.Context, userIDs []string) (map[string]string, error) {
	names := make(map[string]string, len(userIDs))
	if len(userIDs) == 0 {
		return names, nil
	}

	query := `SELECT user_id, username FROM users WHERE user_id = ANY($1)`

	var rows []userRow
	err := r.db.SelectContext(ctx, &rows, query, pq.Array(userIDs))
	if err != nil {
		return nil, fmt.Errorf("ошибка при получении пользователей: %w", err)
	}

	for _, row := range rows {
		names[row.UserID] = row.Username
	}

	return names, nil
}

// MemoryUserDirectory serves display names from a fixed map.
type MemoryUserDirectory struct {
	names map[string]string
}

func NewMemoryUserDirectory(names map[string]string) *MemoryUserDirectory {
	copied := make(map[string]string, len(names))
	for id, name := range names {
		copied[id] = name
	}
	return &MemoryUserDirectory{names: copied}
}

func (d *MemoryUserDirectory) GetDisplayNames(ctx context.Context, userIDs []string) (map[string]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	names := make(map[string]string, len(userIDs))
	for _, id := range userIDs {
		if name, ok := d.names[id]; ok {
			names[id] = name
		}
	}
	return names, nil
}
