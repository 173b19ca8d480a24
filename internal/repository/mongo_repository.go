package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.mongodb.org/mongo-driver/v2/mongo/readpref"
	"socialFeed/internal/models"
)

const (
	postsCollection = "posts"
	usersCollection = "users"
)

// postDocument is the bson layout of a post. It is shared by the Mongo
// and Badger drivers.
type postDocument struct {
	PostID    string            `bson:"_id"`
	AuthorID  string            `bson:"author_id"`
	Content   string            `bson:"content,omitempty"`
	ImageRef  string            `bson:"image_ref,omitempty"`
	Likes     []string          `bson:"likes"`
	Comments  []commentDocument `bson:"comments"`
	Version   int64             `bson:"version"`
	CreatedAt time.Time         `bson:"created_at"`
}

type commentDocument struct {
	AuthorID  string    `bson:"author_id"`
	Text      string    `bson:"text"`
	CreatedAt time.Time `bson:"created_at"`
}

func toPostDocument(post *models.Post) postDocument {
	doc := postDocument{
		PostID:    post.PostID,
		AuthorID:  post.AuthorID,
		Content:   post.Content,
		ImageRef:  post.ImageRef,
		Likes:     append([]string{}, post.Likes...),
		Comments:  toCommentDocuments(post.Comments),
		Version:   post.Version,
		CreatedAt: post.CreatedAt.UTC(),
	}
	return doc
}

func toCommentDocuments(comments []models.Comment) []commentDocument {
	docs := make([]commentDocument, 0, len(comments))
	for _, c := range comments {
		docs = append(docs, commentDocument{AuthorID: c.AuthorID, Text: c.Text, CreatedAt: c.CreatedAt.UTC()})
	}
	return docs
}

func (doc postDocument) toModel() *models.Post {
	comments := make([]models.Comment, 0, len(doc.Comments))
	for _, c := range doc.Comments {
		comments = append(comments, models.Comment{AuthorID: c.AuthorID, Text: c.Text, CreatedAt: c.CreatedAt})
	}

	return &models.Post{
		PostID:    doc.PostID,
		AuthorID:  doc.AuthorID,
		Content:   doc.Content,
		ImageRef:  doc.ImageRef,
		Likes:     append([]string{}, doc.Likes...),
		Comments:  comments,
		Version:   doc.Version,
		CreatedAt: doc.CreatedAt,
	}
}

type MongoPostRepository struct {
	posts *mongo.Collection
}

func NewMongoPostRepository(db *mongo.Database) *MongoPostRepository {
	return &MongoPostRepository{posts: db.Collection(postsCollection)}
}

func (r *MongoPostRepository) Create(ctx context.Context, post *models.Post) error {
	_, err := r.posts.InsertOne(ctx, toPostDocument(post))
	if err != nil {
		return fmt.Errorf("ошибка при создании поста: %w", err)
	}
	return nil
}

func (r *MongoPostRepository) GetByID(ctx context.Context, postID string) (*models.Post, error) {
	var doc postDocument
	err := r.posts.FindOne(ctx, bson.M{"_id": postID}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("%w: %s", ErrPostNotFound, postID)
		}
		return nil, fmt.Errorf("ошибка при получении поста: %w", err)
	}
	return doc.toModel(), nil
}

func (r *MongoPostRepository) List(ctx context.Context) ([]*models.Post, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}})

	cursor, err := r.posts.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("ошибка при получении постов: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []postDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("ошибка при чтении постов: %w", err)
	}

	posts := make([]*models.Post, 0, len(docs))
	for _, doc := range docs {
		posts = append(posts, doc.toModel())
	}
	return posts, nil
}

func (r *MongoPostRepository) UpdateInteractions(ctx context.Context, post *models.Post) error {
	doc := toPostDocument(post)

	filter := bson.M{"_id": post.PostID, "version": post.Version}
	update := bson.M{
		"$set": bson.M{"likes": doc.Likes, "comments": doc.Comments},
		"$inc": bson.M{"version": 1},
	}

	result, err := r.posts.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("ошибка при обновлении поста: %w", err)
	}
	if result.MatchedCount == 0 {
		return ErrVersionConflict
	}

	post.Version++
	return nil
}

func (r *MongoPostRepository) Ping(ctx context.Context) error {
	return r.posts.Database().Client().Ping(ctx, readpref.Primary())
}

type mongoUserDirectory struct {
	users *mongo.Collection
}

type userDocument struct {
	UserID   any    `bson:"_id"`
	Username string `bson:"username"`
}

// userIDFilter matches users keyed either by the identity string or, when the
// identity is 24 hex digits, by the equivalent ObjectId.
func userIDFilter(userIDs []string) bson.M {
	values := make(bson.A, 0, len(userIDs))
	for _, id := range userIDs {
		values = append(values, id)
		if oid, err := bson.ObjectIDFromHex(id); err == nil {
			values = append(values, oid)
		}
	}
	return bson.M{"_id": bson.M{"$in": values}}
}

func directoryKey(id any) (string, bool) {
	switch v := id.(type) {
	case string:
		return v, true
	case bson.ObjectID:
		return v.Hex(), true
	default:
		return "", false
	}
}

func NewMongoUserDirectory(db *mongo.Database) UserDirectory {
	return &mongoUserDirectory{users: db.Collection(usersCollection)}
}

func (d *mongoUserDirectory) GetDisplayNames(ctx context.Context, userIDs []string) (map[string]string, error) {
	names := make(map[string]string, len(userIDs))
	if len(userIDs) == 0 {
		return names, nil
	}

	opts := options.Find().SetProjection(bson.M{"username": 1})
	cursor, err := d.users.Find(ctx, userIDFilter(userIDs), opts)
	if err != nil {
		return nil, fmt.Errorf("ошибка при получении пользователей: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []userDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("ошибка при чтении пользователей: %w", err)
	}

	for _, doc := range docs {
		if key, ok := directoryKey(doc.UserID); ok {
			names[key] = doc.Username
		}
	}
	return names, nil
}
