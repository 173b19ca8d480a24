package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"
	"go.mongodb.org/mongo-driver/v2/bson"
	"socialFeed/internal/models"
)

const postKeyPrefix = "post:"

// BadgerPostRepository stores every post under post:{id} as a bson
// document. Badger transactions are serializable, so a concurrent writer
// that slipped in between read and commit surfaces as badger.ErrConflict.
type BadgerPostRepository struct {
	db *badger.DB
}

func NewBadgerPostRepository(db *badger.DB) *BadgerPostRepository {
	return &BadgerPostRepository{db: db}
}

func postKey(postID string) []byte {
	return []byte(postKeyPrefix + postID)
}

func encodePost(post *models.Post) ([]byte, error) {
	data, err := bson.Marshal(toPostDocument(post))
	if err != nil {
		return nil, fmt.Errorf("ошибка при кодировании поста: %w", err)
	}
	return data, nil
}

func decodePost(data []byte) (*models.Post, error) {
	var doc postDocument
	if err := bson.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("ошибка при декодировании поста: %w", err)
	}
	return doc.toModel(), nil
}

func readPost(txn *badger.Txn, postID string) (*models.Post, error) {
	item, err := txn.Get(postKey(postID))
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrPostNotFound, postID)
		}
		return nil, err
	}

	var post *models.Post
	err = item.Value(func(val []byte) error {
		post, err = decodePost(val)
		return err
	})
	return post, err
}

func (r *BadgerPostRepository) Create(ctx context.Context, post *models.Post) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := encodePost(post)
	if err != nil {
		return err
	}

	err = r.db.Update(func(txn *badger.Txn) error {
		_, err := txn.Get(postKey(post.PostID))
		switch {
		case err == nil:
			return fmt.Errorf("пост с ID %s уже существует", post.PostID)
		case !errors.Is(err, badger.ErrKeyNotFound):
			return err
		}
		return txn.Set(postKey(post.PostID), data)
	})
	if err != nil {
		return fmt.Errorf("ошибка при создании поста: %w", err)
	}
	return nil
}

func (r *BadgerPostRepository) GetByID(ctx context.Context, postID string) (*models.Post, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var post *models.Post
	err := r.db.View(func(txn *badger.Txn) error {
		var err error
		post, err = readPost(txn, postID)
		return err
	})
	if err != nil {
		if errors.Is(err, ErrPostNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("ошибка при получении поста: %w", err)
	}
	return post, nil
}

func (r *BadgerPostRepository) List(ctx context.Context) ([]*models.Post, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	prefix := []byte(postKeyPrefix)
	var posts []*models.Post

	err := r.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			err := it.Item().Value(func(val []byte) error {
				post, err := decodePost(val)
				if err != nil {
					return err
				}
				posts = append(posts, post)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("ошибка при получении постов: %w", err)
	}

	if posts == nil {
		posts = []*models.Post{}
	}
	sortNewestFirst(posts)
	return posts, nil
}

func (r *BadgerPostRepository) UpdateInteractions(ctx context.Context, post *models.Post) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	err := r.db.Update(func(txn *badger.Txn) error {
		stored, err := readPost(txn, post.PostID)
		if err != nil {
			return err
		}
		if stored.Version != post.Version {
			return ErrVersionConflict
		}

		stored.Likes = post.Likes
		stored.Comments = post.Comments
		stored.Version++

		data, err := encodePost(stored)
		if err != nil {
			return err
		}
		return txn.Set(postKey(post.PostID), data)
	})

	switch {
	case err == nil:
		post.Version++
		return nil
	case errors.Is(err, badger.ErrConflict), errors.Is(err, ErrVersionConflict):
		return ErrVersionConflict
	case errors.Is(err, ErrPostNotFound):
		return err
	default:
		return fmt.Errorf("ошибка при обновлении поста: %w", err)
	}
}

func (r *BadgerPostRepository) Ping(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if r.db.IsClosed() {
		return errors.New("хранилище badger закрыто")
	}
	return nil
}
