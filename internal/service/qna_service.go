package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"sm-portal/internal/auth"
	"sm-portal/internal/domain"
	"sm-portal/internal/repository"
)

const (
	DefaultPostPageSize   = 10
	DefaultSearchPageSize = 15
)

// CreatePostInput carries a new Q&A post.
type CreatePostInput struct {
	AuthorName string
	Password   string
	Title      string
	Content    string
	IsNotice   bool
}

// UpdatePostInput carries the editable fields of a post. A nil IsNotice keeps the current flag.
type UpdatePostInput struct {
	Password string
	Title    string
	Content  string
	IsNotice *bool
}

// CreateCommentInput carries a new comment, optionally replying to ParentID.
type CreateCommentInput struct {
	ParentID   *int64
	AuthorName string
	Password   string
	Content    string
}

// QnaService covers the Q&A board. Non-admin mutations require the author's password.
type QnaService interface {
	ListPosts(ctx context.Context, page domain.PageRequest) (domain.Page[domain.QnaPost], error)
	SearchPosts(ctx context.Context, keyword string, page domain.PageRequest) (domain.Page[domain.QnaPost], error)
	GetPost(ctx context.Context, id int64) (*domain.QnaPost, error)
	CreatePost(ctx context.Context, in CreatePostInput, isAdmin bool) (*domain.QnaPost, error)
	UpdatePost(ctx context.Context, id int64, in UpdatePostInput, isAdmin bool) (*domain.QnaPost, error)
	DeletePost(ctx context.Context, id int64, password string, isAdmin bool) error
	CheckPostPassword(ctx context.Context, id int64, password string) (bool, error)

	ListComments(ctx context.Context, postID int64) ([]*domain.QnaComment, error)
	CreateComment(ctx context.Context, postID int64, in CreateCommentInput, isAdmin bool) (*domain.QnaComment, error)
	UpdateComment(ctx context.Context, id int64, password, content string, isAdmin bool) (*domain.QnaComment, error)
	DeleteComment(ctx context.Context, id int64, password string, isAdmin bool) error
	CheckCommentPassword(ctx context.Context, id int64, password string) (bool, error)
}

type qnaService struct {
	posts    repository.QnaPostRepository
	comments repository.QnaCommentRepository
	verifier *auth.PasswordVerifier
	logger   *logrus.Logger
}

func NewQnaService(
	posts repository.QnaPostRepository,
	comments repository.QnaCommentRepository,
	verifier *auth.PasswordVerifier,
	logger *logrus.Logger,
) QnaService {
	return &qnaService{
		posts:    posts,
		comments: comments,
		verifier: verifier,
		logger:   logger,
	}
}

func (s *qnaService) ListPosts(ctx context.Context, page domain.PageRequest) (domain.Page[domain.QnaPost], error) {
	page = normalizePage(page, DefaultPostPageSize)
	posts, total, err := s.posts.List(ctx, page)
	if err != nil {
		return domain.Page[domain.QnaPost]{}, err
	}
	return domain.NewPage(posts, total, page), nil
}

func (s *qnaService) SearchPosts(ctx context.Context, keyword string, page domain.PageRequest) (domain.Page[domain.QnaPost], error) {
	page = normalizePage(page, DefaultSearchPageSize)
	posts, total, err := s.posts.Search(ctx, strings.TrimSpace(keyword), page)
	if err != nil {
		return domain.Page[domain.QnaPost]{}, err
	}
	return domain.NewPage(posts, total, page), nil
}

// GetPost returns the post and counts the view.
func (s *qnaService) GetPost(ctx context.Context, id int64) (*domain.QnaPost, error) {
	post, err := s.posts.Get(ctx, id)
	if err != nil {
		return nil, notFound(err, fmt.Sprintf("post %d", id))
	}
	if err := s.posts.IncrementViewCount(ctx, id); err != nil {
		return nil, notFound(err, fmt.Sprintf("post %d", id))
	}
	post.ViewCount++
	return post, nil
}

func (s *qnaService) CreatePost(ctx context.Context, in CreatePostInput, isAdmin bool) (*domain.QnaPost, error) {
	if err := requireFields(
		field{"author name", in.AuthorName},
		field{"title", in.Title},
		field{"content", in.Content},
	); err != nil {
		return nil, err
	}

	hash, err := s.verifier.Hash(auth.OwnershipSecret(in.Password))
	if err != nil {
		return nil, err
	}
	post := &domain.QnaPost{
		AuthorName:   strings.TrimSpace(in.AuthorName),
		PasswordHash: hash,
		Title:        strings.TrimSpace(in.Title),
		Content:      in.Content,
		IsNotice:     isAdmin && in.IsNotice,
	}
	if _, err := s.posts.Create(ctx, post); err != nil {
		return nil, err
	}
	return post, nil
}

func (s *qnaService) UpdatePost(ctx context.Context, id int64, in UpdatePostInput, isAdmin bool) (*domain.QnaPost, error) {
	if err := requireFields(
		field{"title", in.Title},
		field{"content", in.Content},
	); err != nil {
		return nil, err
	}

	post, err := s.posts.Get(ctx, id)
	if err != nil {
		return nil, notFound(err, fmt.Sprintf("post %d", id))
	}
	if !isAdmin && !s.verifier.Matches(in.Password, post.PasswordHash) {
		return nil, ErrForbidden
	}

	post.Title = strings.TrimSpace(in.Title)
	post.Content = in.Content
	if isAdmin && in.IsNotice != nil {
		post.IsNotice = *in.IsNotice
	}
	if err := s.posts.Update(ctx, post); err != nil {
		return nil, notFound(err, fmt.Sprintf("post %d", id))
	}
	return post, nil
}

func (s *qnaService) DeletePost(ctx context.Context, id int64, password string, isAdmin bool) error {
	post, err := s.posts.Get(ctx, id)
	if err != nil {
		return notFound(err, fmt.Sprintf("post %d", id))
	}
	if !isAdmin && !s.verifier.Matches(password, post.PasswordHash) {
		return ErrForbidden
	}
	if err := s.posts.Delete(ctx, id); err != nil {
		return notFound(err, fmt.Sprintf("post %d", id))
	}
	s.logger.WithFields(logrus.Fields{"post": id, "admin": isAdmin}).Info("qna post deleted")
	return nil
}

func (s *qnaService) CheckPostPassword(ctx context.Context, id int64, password string) (bool, error) {
	post, err := s.posts.Get(ctx, id)
	if err != nil {
		return false, notFound(err, fmt.Sprintf("post %d", id))
	}
	return s.verifier.Matches(password, post.PasswordHash), nil
}

// ListComments returns the root comments of a post, oldest first, with their replies nested.
func (s *qnaService) ListComments(ctx context.Context, postID int64) ([]*domain.QnaComment, error) {
	if _, err := s.posts.Get(ctx, postID); err != nil {
		return nil, notFound(err, fmt.Sprintf("post %d", postID))
	}
	flat, err := s.comments.ListByPost(ctx, postID)
	if err != nil {
		return nil, err
	}
	return buildCommentTree(flat), nil
}

func buildCommentTree(flat []domain.QnaComment) []*domain.QnaComment {
	nodes := make(map[int64]*domain.QnaComment, len(flat))
	for i := range flat {
		c := flat[i]
		c.Children = []*domain.QnaComment{}
		nodes[c.ID] = &c
	}

	roots := []*domain.QnaComment{}
	for i := range flat {
		node := nodes[flat[i].ID]
		if node.ParentID != nil {
			if parent, ok := nodes[*node.ParentID]; ok {
				parent.Children = append(parent.Children, node)
				continue
			}
		}
		roots = append(roots, node)
	}
	return roots
}

func (s *qnaService) CreateComment(ctx context.Context, postID int64, in CreateCommentInput, isAdmin bool) (*domain.QnaComment, error) {
	if err := requireFields(
		field{"author name", in.AuthorName},
		field{"content", in.Content},
	); err != nil {
		return nil, err
	}

	if _, err := s.posts.Get(ctx, postID); err != nil {
		return nil, notFound(err, fmt.Sprintf("post %d", postID))
	}
	if in.ParentID != nil {
		parent, err := s.comments.Get(ctx, *in.ParentID)
		if err != nil {
			return nil, notFound(err, fmt.Sprintf("parent comment %d", *in.ParentID))
		}
		if parent.PostID != postID {
			return nil, fmt.Errorf("parent comment %d on post %d: %w", parent.ID, postID, ErrNotFound)
		}
	}

	hash, err := s.verifier.Hash(auth.OwnershipSecret(in.Password))
	if err != nil {
		return nil, err
	}
	comment := &domain.QnaComment{
		PostID:       postID,
		ParentID:     in.ParentID,
		AuthorName:   strings.TrimSpace(in.AuthorName),
		PasswordHash: hash,
		Content:      in.Content,
		IsAdmin:      isAdmin,
		Children:     []*domain.QnaComment{},
	}
	if _, err := s.comments.Create(ctx, comment); err != nil {
		return nil, err
	}
	return comment, nil
}

func (s *qnaService) UpdateComment(ctx context.Context, id int64, password, content string, isAdmin bool) (*domain.QnaComment, error) {
	if strings.TrimSpace(content) == "" {
		return nil, invalidInput("content is required")
	}
	comment, err := s.comments.Get(ctx, id)
	if err != nil {
		return nil, notFound(err, fmt.Sprintf("comment %d", id))
	}
	if !isAdmin && !s.verifier.Matches(password, comment.PasswordHash) {
		return nil, ErrForbidden
	}
	if err := s.comments.UpdateContent(ctx, id, content); err != nil {
		return nil, notFound(err, fmt.Sprintf("comment %d", id))
	}
	return s.comments.Get(ctx, id)
}

func (s *qnaService) DeleteComment(ctx context.Context, id int64, password string, isAdmin bool) error {
	comment, err := s.comments.Get(ctx, id)
	if err != nil {
		return notFound(err, fmt.Sprintf("comment %d", id))
	}
	if !isAdmin && !s.verifier.Matches(password, comment.PasswordHash) {
		return ErrForbidden
	}
	if err := s.comments.Delete(ctx, id); err != nil {
		return notFound(err, fmt.Sprintf("comment %d", id))
	}
	return nil
}

func (s *qnaService) CheckCommentPassword(ctx context.Context, id int64, password string) (bool, error) {
	comment, err := s.comments.Get(ctx, id)
	if err != nil {
		return false, notFound(err, fmt.Sprintf("comment %d", id))
	}
	return s.verifier.Matches(password, comment.PasswordHash), nil
}
