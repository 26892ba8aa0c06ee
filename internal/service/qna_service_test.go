package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"sm-portal/internal/domain"
	"sm-portal/internal/repository/sqlite"
)

func newQnaService(t *testing.T) QnaService {
	t.Helper()

	db := newTestDB(t)
	logger, _ := newTestLogger()
	return NewQnaService(
		sqlite.NewQnaPostRepository(db),
		sqlite.NewQnaCommentRepository(db),
		newTestVerifier(),
		logger,
	)
}

func TestQnaPostOwnership(t *testing.T) {
	ctx := context.Background()
	svc := newQnaService(t)

	post, err := svc.CreatePost(ctx, CreatePostInput{
		AuthorName: "visitor",
		Password:   "secret123",
		Title:      "How do I apply?",
		Content:    "Question body",
	}, false)
	require.NoError(t, err)
	require.NotZero(t, post.ID)

	ok, err := svc.CheckPostPassword(ctx, post.ID, "secret123")
	require.NoError(t, err)
	require.True(t, ok)
	ok, err = svc.CheckPostPassword(ctx, post.ID, "wrong")
	require.NoError(t, err)
	require.False(t, ok)

	_, err = svc.UpdatePost(ctx, post.ID, UpdatePostInput{Password: "wrong", Title: "x", Content: "y"}, false)
	require.ErrorIs(t, err, ErrForbidden)

	updated, err := svc.UpdatePost(ctx, post.ID, UpdatePostInput{Password: "secret123", Title: "Edited", Content: "Body"}, false)
	require.NoError(t, err)
	require.Equal(t, "Edited", updated.Title)

	require.ErrorIs(t, svc.DeletePost(ctx, post.ID, "wrong", false), ErrForbidden)
	require.NoError(t, svc.DeletePost(ctx, post.ID, "", true))

	_, err = svc.GetPost(ctx, post.ID)
	require.ErrorIs(t, err, ErrNotFound)
	_, err = svc.CheckPostPassword(ctx, post.ID, "secret123")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestQnaBlankPasswordFallsBackToAdmin(t *testing.T) {
	ctx := context.Background()
	svc := newQnaService(t)

	post, err := svc.CreatePost(ctx, CreatePostInput{AuthorName: "anon", Password: "  ", Title: "t", Content: "c"}, false)
	require.NoError(t, err)

	ok, err := svc.CheckPostPassword(ctx, post.ID, "admin")
	require.NoError(t, err)
	require.True(t, ok)

	comment, err := svc.CreateComment(ctx, post.ID, CreateCommentInput{AuthorName: "anon", Content: "hi"}, false)
	require.NoError(t, err)
	ok, err = svc.CheckCommentPassword(ctx, comment.ID, "admin")
	require.NoError(t, err)
	require.True(t, ok)
}

func TestQnaNoticeRequiresAdmin(t *testing.T) {
	ctx := context.Background()
	svc := newQnaService(t)

	visitor, err := svc.CreatePost(ctx, CreatePostInput{AuthorName: "v", Password: "p", Title: "t", Content: "c", IsNotice: true}, false)
	require.NoError(t, err)
	require.False(t, visitor.IsNotice)

	notice, err := svc.CreatePost(ctx, CreatePostInput{AuthorName: "staff", Title: "Notice", Content: "c", IsNotice: true}, true)
	require.NoError(t, err)
	require.True(t, notice.IsNotice)

	page, err := svc.ListPosts(ctx, domain.PageRequest{})
	require.NoError(t, err)
	require.Equal(t, DefaultPostPageSize, page.Size)
	require.Equal(t, int64(2), page.TotalElements)
	require.Equal(t, notice.ID, page.Content[0].ID)
}

func TestQnaGetPostCountsViews(t *testing.T) {
	ctx := context.Background()
	svc := newQnaService(t)

	post, err := svc.CreatePost(ctx, CreatePostInput{AuthorName: "v", Password: "p", Title: "t", Content: "c"}, false)
	require.NoError(t, err)

	first, err := svc.GetPost(ctx, post.ID)
	require.NoError(t, err)
	require.Equal(t, 1, first.ViewCount)
	second, err := svc.GetPost(ctx, post.ID)
	require.NoError(t, err)
	require.Equal(t, 2, second.ViewCount)
}

func TestQnaSearchPosts(t *testing.T) {
	ctx := context.Background()
	svc := newQnaService(t)

	for _, title := range []string{"Admission schedule", "Parking", "Admission fees"} {
		_, err := svc.CreatePost(ctx, CreatePostInput{AuthorName: "v", Password: "p", Title: title, Content: "body"}, false)
		require.NoError(t, err)
	}

	page, err := svc.SearchPosts(ctx, "Admission", domain.PageRequest{})
	require.NoError(t, err)
	require.Equal(t, DefaultSearchPageSize, page.Size)
	require.Equal(t, int64(2), page.TotalElements)
	require.Len(t, page.Content, 2)
}

func TestQnaCommentTree(t *testing.T) {
	ctx := context.Background()
	svc := newQnaService(t)

	post, err := svc.CreatePost(ctx, CreatePostInput{AuthorName: "v", Password: "p", Title: "t", Content: "c"}, false)
	require.NoError(t, err)

	root, err := svc.CreateComment(ctx, post.ID, CreateCommentInput{AuthorName: "a", Password: "pw", Content: "root"}, false)
	require.NoError(t, err)
	reply, err := svc.CreateComment(ctx, post.ID, CreateCommentInput{ParentID: &root.ID, AuthorName: "staff", Content: "reply"}, true)
	require.NoError(t, err)
	require.True(t, reply.IsAdmin)
	nested, err := svc.CreateComment(ctx, post.ID, CreateCommentInput{ParentID: &reply.ID, AuthorName: "a", Password: "pw", Content: "thanks"}, false)
	require.NoError(t, err)
	second, err := svc.CreateComment(ctx, post.ID, CreateCommentInput{AuthorName: "b", Password: "pw", Content: "another"}, false)
	require.NoError(t, err)

	tree, err := svc.ListComments(ctx, post.ID)
	require.NoError(t, err)
	require.Len(t, tree, 2)
	require.Equal(t, root.ID, tree[0].ID)
	require.Equal(t, second.ID, tree[1].ID)
	require.Len(t, tree[0].Children, 1)
	require.Equal(t, reply.ID, tree[0].Children[0].ID)
	require.Len(t, tree[0].Children[0].Children, 1)
	require.Equal(t, nested.ID, tree[0].Children[0].Children[0].ID)
	require.Empty(t, tree[1].Children)

	// deleting a comment takes its replies with it
	require.NoError(t, svc.DeleteComment(ctx, reply.ID, "", true))
	tree, err = svc.ListComments(ctx, post.ID)
	require.NoError(t, err)
	require.Len(t, tree, 2)
	require.Empty(t, tree[0].Children)
}

func TestQnaCommentParentMustBelongToPost(t *testing.T) {
	ctx := context.Background()
	svc := newQnaService(t)

	postA, err := svc.CreatePost(ctx, CreatePostInput{AuthorName: "v", Password: "p", Title: "a", Content: "c"}, false)
	require.NoError(t, err)
	postB, err := svc.CreatePost(ctx, CreatePostInput{AuthorName: "v", Password: "p", Title: "b", Content: "c"}, false)
	require.NoError(t, err)
	onA, err := svc.CreateComment(ctx, postA.ID, CreateCommentInput{AuthorName: "a", Content: "x"}, false)
	require.NoError(t, err)

	_, err = svc.CreateComment(ctx, postB.ID, CreateCommentInput{ParentID: &onA.ID, AuthorName: "a", Content: "y"}, false)
	require.ErrorIs(t, err, ErrNotFound)

	missing := int64(9999)
	_, err = svc.CreateComment(ctx, postA.ID, CreateCommentInput{ParentID: &missing, AuthorName: "a", Content: "y"}, false)
	require.ErrorIs(t, err, ErrNotFound)
	_, err = svc.CreateComment(ctx, 9999, CreateCommentInput{AuthorName: "a", Content: "y"}, false)
	require.ErrorIs(t, err, ErrNotFound)
	_, err = svc.CreateComment(ctx, postA.ID, CreateCommentInput{AuthorName: "a", Content: " "}, false)
	require.ErrorIs(t, err, ErrInvalidInput)
}

func TestQnaCommentOwnership(t *testing.T) {
	ctx := context.Background()
	svc := newQnaService(t)

	post, err := svc.CreatePost(ctx, CreatePostInput{AuthorName: "v", Password: "p", Title: "t", Content: "c"}, false)
	require.NoError(t, err)
	comment, err := svc.CreateComment(ctx, post.ID, CreateCommentInput{AuthorName: "a", Password: "secret123", Content: "first"}, false)
	require.NoError(t, err)

	_, err = svc.UpdateComment(ctx, comment.ID, "wrong", "edited", false)
	require.ErrorIs(t, err, ErrForbidden)

	edited, err := svc.UpdateComment(ctx, comment.ID, "secret123", "edited", false)
	require.NoError(t, err)
	require.Equal(t, "edited", edited.Content)

	require.ErrorIs(t, svc.DeleteComment(ctx, comment.ID, "wrong", false), ErrForbidden)
	require.NoError(t, svc.DeleteComment(ctx, comment.ID, "secret123", false))
	require.ErrorIs(t, svc.DeleteComment(ctx, comment.ID, "secret123", false), ErrNotFound)
}
