package domain

import "time"

// QnaPost is a question posted to the public board. Anonymous authors prove
// ownership with the password whose hash is kept in PasswordHash.
type QnaPost struct {
	ID           int64
	AuthorName   string
	PasswordHash string
	Title        string
	Content      string
	IsNotice     bool
	ViewCount    int
	CommentCount int
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// QnaComment is a reply to a post or, when ParentID is set, to another comment.
type QnaComment struct {
	ID           int64
	PostID       int64
	ParentID     *int64
	AuthorName   string
	PasswordHash string
	Content      string
	IsAdmin      bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
	Children     []*QnaComment
}
