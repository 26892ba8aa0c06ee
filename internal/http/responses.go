package http

import (
	"time"

	"sm-portal/internal/domain"
	"sm-portal/internal/storage"
)

type PageResponse[T any] struct {
	Content       []T   `json:"content"`
	TotalElements int64 `json:"totalElements"`
	TotalPages    int   `json:"totalPages"`
	Number        int   `json:"number"`
	Size          int   `json:"size"`
}

func pageToResponse[T, U any](p domain.Page[T], fn func(T) U) PageResponse[U] {
	mapped := domain.MapPage(p, fn)
	return PageResponse[U]{
		Content:       mapped.Content,
		TotalElements: mapped.TotalElements,
		TotalPages:    mapped.TotalPages,
		Number:        mapped.Number,
		Size:          mapped.Size,
	}
}

type AdminResponse struct {
	ID        int64  `json:"id"`
	Username  string `json:"username"`
	Name      string `json:"name"`
	CreatedAt string `json:"createdAt"`
}

func adminToResponse(a domain.Admin) AdminResponse {
	return AdminResponse{
		ID:        a.ID,
		Username:  a.Username,
		Name:      a.Name,
		CreatedAt: a.CreatedAt.Format(time.RFC3339),
	}
}

type QnaPostResponse struct {
	ID           int64   `json:"id"`
	AuthorName   string  `json:"authorName"`
	Title        string  `json:"title"`
	Content      string  `json:"content,omitempty"`
	IsNotice     bool    `json:"isNotice"`
	ViewCount    int     `json:"viewCount"`
	CommentCount int     `json:"commentCount"`
	CreatedAt    string  `json:"createdAt"`
	UpdatedAt    *string `json:"updatedAt,omitempty"`
}

// postToResponse renders a full post; listings drop the body.
func postToResponse(p domain.QnaPost, withContent bool) QnaPostResponse {
	resp := QnaPostResponse{
		ID:           p.ID,
		AuthorName:   p.AuthorName,
		Title:        p.Title,
		IsNotice:     p.IsNotice,
		ViewCount:    p.ViewCount,
		CommentCount: p.CommentCount,
		CreatedAt:    p.CreatedAt.Format(time.RFC3339),
	}
	if withContent {
		resp.Content = p.Content
		v := p.UpdatedAt.Format(time.RFC3339)
		resp.UpdatedAt = &v
	}
	return resp
}

type QnaCommentResponse struct {
	ID         int64                `json:"id"`
	ParentID   *int64               `json:"parentId,omitempty"`
	AuthorName string               `json:"authorName"`
	Content    string               `json:"content"`
	IsAdmin    bool                 `json:"isAdmin"`
	CreatedAt  string               `json:"createdAt"`
	Children   []QnaCommentResponse `json:"children"`
}

func commentToResponse(c *domain.QnaComment) QnaCommentResponse {
	resp := QnaCommentResponse{
		ID:         c.ID,
		ParentID:   c.ParentID,
		AuthorName: c.AuthorName,
		Content:    c.Content,
		IsAdmin:    c.IsAdmin,
		CreatedAt:  c.CreatedAt.Format(time.RFC3339),
		Children:   make([]QnaCommentResponse, len(c.Children)),
	}
	for i, child := range c.Children {
		resp.Children[i] = commentToResponse(child)
	}
	return resp
}

type CategoryResponse struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	SortOrder int    `json:"sortOrder"`
}

func categoryToResponse(c domain.ReferenceCategory) CategoryResponse {
	return CategoryResponse{ID: c.ID, Name: c.Name, SortOrder: c.SortOrder}
}

type AttachmentResponse struct {
	ID        int64  `json:"id"`
	FileName  string `json:"fileName"`
	SortOrder int    `json:"sortOrder"`
}

type ReferenceResponse struct {
	ID            int64                `json:"id"`
	CategoryID    *int64               `json:"categoryId"`
	CategoryName  string               `json:"categoryName,omitempty"`
	Title         string               `json:"title"`
	Description   string               `json:"description"`
	FileName      string               `json:"fileName"`
	HasThumbnail  bool                 `json:"hasThumbnail"`
	DownloadCount int                  `json:"downloadCount"`
	CreatedAt     string               `json:"createdAt"`
	Files         []AttachmentResponse `json:"files"`
	Images        []AttachmentResponse `json:"images"`
}

func referenceToResponse(r domain.Reference) ReferenceResponse {
	resp := ReferenceResponse{
		ID:            r.ID,
		CategoryID:    r.CategoryID,
		CategoryName:  r.CategoryName,
		Title:         r.Title,
		Description:   r.Description,
		FileName:      r.FileName,
		HasThumbnail:  r.ThumbnailKey != "",
		DownloadCount: r.DownloadCount,
		CreatedAt:     r.CreatedAt.Format(time.RFC3339),
		Files:         make([]AttachmentResponse, len(r.Files)),
		Images:        make([]AttachmentResponse, len(r.Images)),
	}
	for i, f := range r.Files {
		resp.Files[i] = AttachmentResponse{ID: f.ID, FileName: f.FileName, SortOrder: f.SortOrder}
	}
	for i, img := range r.Images {
		resp.Images[i] = AttachmentResponse{ID: img.ID, FileName: img.FileName, SortOrder: img.SortOrder}
	}
	return resp
}

type StorageObjectResponse struct {
	Key          string  `json:"key"`
	Size         int64   `json:"size"`
	LastModified *string `json:"lastModified,omitempty"`
}

func objectToResponse(obj storage.ObjectInfo) StorageObjectResponse {
	resp := StorageObjectResponse{
		Key:  obj.Key,
		Size: obj.Size,
	}
	if obj.LastModified != nil && !obj.LastModified.IsZero() {
		v := obj.LastModified.Format(time.RFC3339)
		resp.LastModified = &v
	}
	return resp
}
