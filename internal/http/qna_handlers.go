package http

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"sm-portal/internal/domain"
	"sm-portal/internal/service"
)

type createPostRequest struct {
	AuthorName string `json:"authorName" binding:"required"`
	Password   string `json:"password"`
	Title      string `json:"title" binding:"required"`
	Content    string `json:"content" binding:"required"`
	IsNotice   bool   `json:"isNotice"`
}

type updatePostRequest struct {
	Password string `json:"password"`
	Title    string `json:"title" binding:"required"`
	Content  string `json:"content" binding:"required"`
	IsNotice *bool  `json:"isNotice"`
}

type passwordRequest struct {
	Password string `json:"password"`
}

type createCommentRequest struct {
	ParentID   *int64 `json:"parentId"`
	AuthorName string `json:"authorName" binding:"required"`
	Password   string `json:"password"`
	Content    string `json:"content" binding:"required"`
}

type updateCommentRequest struct {
	Password string `json:"password"`
	Content  string `json:"content" binding:"required"`
}

// bindOptionalJSON binds the body into req; an empty body leaves req zero.
func bindOptionalJSON(c *gin.Context, req any) bool {
	if err := c.ShouldBindJSON(req); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return false
	}
	return true
}

func listedPost(p domain.QnaPost) QnaPostResponse {
	return postToResponse(p, false)
}

func (h *Handler) listPosts(c *gin.Context) {
	page, ok := parsePage(c)
	if !ok {
		return
	}
	posts, err := h.qna.ListPosts(c.Request.Context(), page)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, pageToResponse(posts, listedPost))
}

func (h *Handler) searchPosts(c *gin.Context) {
	page, ok := parsePage(c)
	if !ok {
		return
	}
	posts, err := h.qna.SearchPosts(c.Request.Context(), c.Query("keyword"), page)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, pageToResponse(posts, listedPost))
}

func (h *Handler) getPost(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	post, err := h.qna.GetPost(c.Request.Context(), id)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, postToResponse(*post, true))
}

func (h *Handler) createPost(c *gin.Context) {
	var req createPostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	post, err := h.qna.CreatePost(c.Request.Context(), service.CreatePostInput{
		AuthorName: req.AuthorName,
		Password:   req.Password,
		Title:      req.Title,
		Content:    req.Content,
		IsNotice:   req.IsNotice,
	}, isAdmin(c))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, postToResponse(*post, true))
}

func (h *Handler) checkPostPassword(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req passwordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	valid, err := h.qna.CheckPostPassword(c.Request.Context(), id, req.Password)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"valid": valid})
}

func (h *Handler) updatePost(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req updatePostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	post, err := h.qna.UpdatePost(c.Request.Context(), id, service.UpdatePostInput{
		Password: req.Password,
		Title:    req.Title,
		Content:  req.Content,
		IsNotice: req.IsNotice,
	}, isAdmin(c))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, postToResponse(*post, true))
}

func (h *Handler) deletePost(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req passwordRequest
	if !bindOptionalJSON(c, &req) {
		return
	}

	if err := h.qna.DeletePost(c.Request.Context(), id, req.Password, isAdmin(c)); err != nil {
		h.writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) listComments(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	comments, err := h.qna.ListComments(c.Request.Context(), id)
	if err != nil {
		h.writeError(c, err)
		return
	}

	resp := make([]QnaCommentResponse, len(comments))
	for i, comment := range comments {
		resp[i] = commentToResponse(comment)
	}
	c.JSON(http.StatusOK, resp)
}

func (h *Handler) createComment(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req createCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	comment, err := h.qna.CreateComment(c.Request.Context(), id, service.CreateCommentInput{
		ParentID:   req.ParentID,
		AuthorName: req.AuthorName,
		Password:   req.Password,
		Content:    req.Content,
	}, isAdmin(c))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, commentToResponse(comment))
}

func (h *Handler) checkCommentPassword(c *gin.Context) {
	id, ok := parseID(c, "commentId")
	if !ok {
		return
	}
	var req passwordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	valid, err := h.qna.CheckCommentPassword(c.Request.Context(), id, req.Password)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"valid": valid})
}

func (h *Handler) updateComment(c *gin.Context) {
	id, ok := parseID(c, "commentId")
	if !ok {
		return
	}
	var req updateCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	comment, err := h.qna.UpdateComment(c.Request.Context(), id, req.Password, req.Content, isAdmin(c))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, commentToResponse(comment))
}

func (h *Handler) deleteComment(c *gin.Context) {
	id, ok := parseID(c, "commentId")
	if !ok {
		return
	}
	var req passwordRequest
	if !bindOptionalJSON(c, &req) {
		return
	}

	if err := h.qna.DeleteComment(c.Request.Context(), id, req.Password, isAdmin(c)); err != nil {
		h.writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
