package http

import (
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"sm-portal/internal/service"
)

type updateReferenceRequest struct {
	CategoryID  *int64 `json:"categoryId"`
	Title       string `json:"title" binding:"required"`
	Description string `json:"description"`
}

func (h *Handler) listReferences(c *gin.Context) {
	page, ok := parsePage(c)
	if !ok {
		return
	}
	refs, err := h.references.ListReferences(c.Request.Context(), page)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, pageToResponse(refs, referenceToResponse))
}

func (h *Handler) searchReferences(c *gin.Context) {
	page, ok := parsePage(c)
	if !ok {
		return
	}
	refs, err := h.references.SearchReferences(c.Request.Context(), c.Query("keyword"), page)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, pageToResponse(refs, referenceToResponse))
}

func (h *Handler) listReferencesByCategory(c *gin.Context) {
	categoryID, ok := parseID(c, "categoryId")
	if !ok {
		return
	}
	page, ok := parsePage(c)
	if !ok {
		return
	}
	refs, err := h.references.ListByCategory(c.Request.Context(), categoryID, page)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, pageToResponse(refs, referenceToResponse))
}

func (h *Handler) getReference(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	ref, err := h.references.GetReference(c.Request.Context(), id)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, referenceToResponse(*ref))
}

func (h *Handler) createReference(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.opts.MaxUploadBytes)
	form, err := c.MultipartForm()
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "upload too large"})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	defer form.RemoveAll()

	var in service.ReferenceInput
	if v := strings.TrimSpace(formValue(form, "categoryId")); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid categoryId"})
			return
		}
		in.CategoryID = &id
	}
	in.Title = formValue(form, "title")
	in.Description = formValue(form, "description")

	opened := &openedParts{}
	defer opened.closeAll()

	files, err := opened.open(append(form.File["files"], form.File["file"]...))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	images, err := opened.open(form.File["images"])
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	var thumbnail *service.Upload
	if parts := form.File["thumbnail"]; len(parts) > 0 {
		thumbs, err := opened.open(parts[:1])
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		thumbnail = &thumbs[0]
	}

	ref, err := h.references.CreateReference(c.Request.Context(), in, files, thumbnail, images)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, referenceToResponse(*ref))
}

func formValue(form *multipart.Form, key string) string {
	if values := form.Value[key]; len(values) > 0 {
		return values[0]
	}
	return ""
}

// openedParts keeps uploaded parts open until the request is done.
type openedParts struct {
	files []multipart.File
}

func (o *openedParts) open(headers []*multipart.FileHeader) ([]service.Upload, error) {
	uploads := make([]service.Upload, 0, len(headers))
	for _, fh := range headers {
		f, err := fh.Open()
		if err != nil {
			return nil, fmt.Errorf("open upload %s: %w", fh.Filename, err)
		}
		o.files = append(o.files, f)
		uploads = append(uploads, service.Upload{
			FileName:    fh.Filename,
			ContentType: fh.Header.Get("Content-Type"),
			Size:        fh.Size,
			Body:        f,
		})
	}
	return uploads, nil
}

func (o *openedParts) closeAll() {
	for _, f := range o.files {
		_ = f.Close()
	}
}

func (h *Handler) updateReference(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req updateReferenceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ref, err := h.references.UpdateReference(c.Request.Context(), id, service.ReferenceInput{
		CategoryID:  req.CategoryID,
		Title:       req.Title,
		Description: req.Description,
	})
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, referenceToResponse(*ref))
}

func (h *Handler) deleteReference(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if err := h.references.DeleteReference(c.Request.Context(), id); err != nil {
		h.writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) downloadMainFile(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	dl, err := h.references.OpenMainFile(c.Request.Context(), id)
	h.serveDownload(c, dl, err, "attachment")
}

func (h *Handler) downloadAttachedFile(c *gin.Context) {
	id, ok := parseID(c, "fileId")
	if !ok {
		return
	}
	dl, err := h.references.OpenAttachedFile(c.Request.Context(), id)
	h.serveDownload(c, dl, err, "attachment")
}

func (h *Handler) thumbnail(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	dl, err := h.references.OpenThumbnail(c.Request.Context(), id)
	h.serveDownload(c, dl, err, "inline")
}

func (h *Handler) galleryImage(c *gin.Context) {
	id, ok := parseID(c, "imageId")
	if !ok {
		return
	}
	dl, err := h.references.OpenGalleryImage(c.Request.Context(), id)
	h.serveDownload(c, dl, err, "inline")
}

func (h *Handler) serveDownload(c *gin.Context, dl *service.Download, err error, disposition string) {
	if err != nil {
		h.writeError(c, err)
		return
	}
	defer dl.Body.Close()

	c.DataFromReader(http.StatusOK, -1, dl.ContentType, dl.Body, map[string]string{
		"Content-Disposition": contentDisposition(disposition, dl.FileName),
	})
}

func contentDisposition(disposition, name string) string {
	encoded := strings.ReplaceAll(url.QueryEscape(name), "+", "%20")
	return fmt.Sprintf("%s; filename*=UTF-8''%s", disposition, encoded)
}
