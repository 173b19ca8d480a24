package models

import (
	"time"
)

// Post is the aggregate root of the feed. Only Likes, Comments and Version
// change after creation.
type Post struct {
	PostID    string    `json:"postId"`
	AuthorID  string    `json:"authorId"`
	Content   string    `json:"content,omitempty"`
	ImageRef  string    `json:"imageUrl,omitempty"`
	Likes     []string  `json:"likes"`
	Comments  []Comment `json:"comments"`
	Version   int64     `json:"-"`
	CreatedAt time.Time `json:"createdAt"`
}

type Comment struct {
	AuthorID  string    `json:"authorId"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"createdAt"`
}

// Clone returns a deep copy so that a mutation attempt never touches
// the snapshot it was computed from.
func (p *Post) Clone() *Post {
	if p == nil {
		return nil
	}

	clone := *p
	clone.Likes = append(make([]string, 0, len(p.Likes)), p.Likes...)
	clone.Comments = append(make([]Comment, 0, len(p.Comments)), p.Comments...)

	return &clone
}

// UserRef is an identity enriched with its display name.
type UserRef struct {
	UserID   string `json:"userId"`
	Username string `json:"username"`
}

type CommentView struct {
	Author    UserRef   `json:"author"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"createdAt"`
}

// PostView is the read projection returned to clients.
type PostView struct {
	PostID    string        `json:"postId"`
	Author    UserRef       `json:"author"`
	Content   string        `json:"content,omitempty"`
	ImageRef  string        `json:"imageUrl,omitempty"`
	Likes     []UserRef     `json:"likes"`
	Comments  []CommentView `json:"comments"`
	CreatedAt time.Time     `json:"createdAt"`
}
