package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/sirupsen/logrus"

	"sm-portal/internal/domain"
	"sm-portal/internal/repository"
	"sm-portal/internal/storage"
)

const DefaultReferencePageSize = 10

// sniffLen is how much of a blob is read to detect its content type.
const sniffLen = 3072

// ReferenceInput carries the metadata of a reference.
type ReferenceInput struct {
	CategoryID  *int64
	Title       string
	Description string
}

// Upload is one uploaded part. Body is consumed once.
type Upload struct {
	FileName    string
	ContentType string
	Size        int64
	Body        io.Reader
}

// Download is an opened blob. The caller closes Body.
type Download struct {
	FileName    string
	ContentType string
	Body        io.ReadCloser
}

// ReferenceService manages the file repository.
type ReferenceService interface {
	ListReferences(ctx context.Context, page domain.PageRequest) (domain.Page[domain.Reference], error)
	SearchReferences(ctx context.Context, keyword string, page domain.PageRequest) (domain.Page[domain.Reference], error)
	ListByCategory(ctx context.Context, categoryID int64, page domain.PageRequest) (domain.Page[domain.Reference], error)
	GetReference(ctx context.Context, id int64) (*domain.Reference, error)
	CreateReference(ctx context.Context, in ReferenceInput, files []Upload, thumbnail *Upload, images []Upload) (*domain.Reference, error)
	UpdateReference(ctx context.Context, id int64, in ReferenceInput) (*domain.Reference, error)
	DeleteReference(ctx context.Context, id int64) error

	OpenMainFile(ctx context.Context, id int64) (*Download, error)
	OpenAttachedFile(ctx context.Context, fileID int64) (*Download, error)
	OpenThumbnail(ctx context.Context, id int64) (*Download, error)
	OpenGalleryImage(ctx context.Context, imageID int64) (*Download, error)

	ListStoredObjects(ctx context.Context, prefix string) ([]storage.ObjectInfo, error)
}

type referenceService struct {
	refs       repository.ReferenceRepository
	categories repository.ReferenceCategoryRepository
	blobs      storage.Service
	logger     *logrus.Logger
}

func NewReferenceService(
	refs repository.ReferenceRepository,
	categories repository.ReferenceCategoryRepository,
	blobs storage.Service,
	logger *logrus.Logger,
) ReferenceService {
	return &referenceService{
		refs:       refs,
		categories: categories,
		blobs:      blobs,
		logger:     logger,
	}
}

func (s *referenceService) ListReferences(ctx context.Context, page domain.PageRequest) (domain.Page[domain.Reference], error) {
	page = normalizePage(page, DefaultReferencePageSize)
	refs, total, err := s.refs.List(ctx, page)
	if err != nil {
		return domain.Page[domain.Reference]{}, err
	}
	return domain.NewPage(refs, total, page), nil
}

func (s *referenceService) SearchReferences(ctx context.Context, keyword string, page domain.PageRequest) (domain.Page[domain.Reference], error) {
	page = normalizePage(page, DefaultReferencePageSize)
	refs, total, err := s.refs.Search(ctx, strings.TrimSpace(keyword), page)
	if err != nil {
		return domain.Page[domain.Reference]{}, err
	}
	return domain.NewPage(refs, total, page), nil
}

func (s *referenceService) ListByCategory(ctx context.Context, categoryID int64, page domain.PageRequest) (domain.Page[domain.Reference], error) {
	page = normalizePage(page, DefaultReferencePageSize)
	refs, total, err := s.refs.ListByCategory(ctx, categoryID, page)
	if err != nil {
		return domain.Page[domain.Reference]{}, err
	}
	return domain.NewPage(refs, total, page), nil
}

func (s *referenceService) GetReference(ctx context.Context, id int64) (*domain.Reference, error) {
	ref, err := s.refs.Get(ctx, id)
	if err != nil {
		return nil, notFound(err, fmt.Sprintf("reference %d", id))
	}
	return ref, nil
}

// CreateReference stores the uploads and records the reference. The first
// file is the main file; the rest become attachments in upload order.
func (s *referenceService) CreateReference(ctx context.Context, in ReferenceInput, files []Upload, thumbnail *Upload, images []Upload) (*domain.Reference, error) {
	if in.CategoryID == nil {
		return nil, invalidInput("category is required")
	}
	if err := requireFields(field{"title", in.Title}); err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, invalidInput("at least one file is required")
	}
	if _, err := s.categories.Get(ctx, *in.CategoryID); err != nil {
		return nil, notFound(err, fmt.Sprintf("category %d", *in.CategoryID))
	}

	var written []string
	put := func(kind storage.Kind, up Upload) (string, error) {
		key := storage.NewKey(kind, up.FileName)
		if err := s.blobs.Put(ctx, key, up.Body, up.Size, up.ContentType); err != nil {
			return "", fmt.Errorf("%w: store %s: %v", ErrStorage, up.FileName, err)
		}
		written = append(written, key)
		return key, nil
	}
	fail := func(err error) (*domain.Reference, error) {
		s.removeBlobs(context.WithoutCancel(ctx), written)
		return nil, err
	}

	ref := &domain.Reference{
		CategoryID:  in.CategoryID,
		Title:       strings.TrimSpace(in.Title),
		Description: in.Description,
		FileName:    files[0].FileName,
	}

	key, err := put(storage.KindFile, files[0])
	if err != nil {
		return fail(err)
	}
	ref.FileKey = key

	if thumbnail != nil && thumbnail.Size > 0 {
		if ref.ThumbnailKey, err = put(storage.KindImage, *thumbnail); err != nil {
			return fail(err)
		}
	}

	for i := 1; i < len(files); i++ {
		key, err := put(storage.KindFile, files[i])
		if err != nil {
			return fail(err)
		}
		ref.Files = append(ref.Files, domain.ReferenceFile{
			FileName:  files[i].FileName,
			FileKey:   key,
			SortOrder: i,
		})
	}

	for i, img := range images {
		if img.Size <= 0 || img.Body == nil {
			continue
		}
		key, err := put(storage.KindImage, img)
		if err != nil {
			return fail(err)
		}
		ref.Images = append(ref.Images, domain.ReferenceImage{
			FileName:  img.FileName,
			FileKey:   key,
			SortOrder: i,
		})
	}

	id, err := s.refs.Create(ctx, ref)
	if err != nil {
		return fail(err)
	}
	s.logger.WithFields(logrus.Fields{
		"reference": id,
		"files":     len(files),
		"images":    len(ref.Images),
	}).Info("reference created")

	return s.GetReference(ctx, id)
}

func (s *referenceService) UpdateReference(ctx context.Context, id int64, in ReferenceInput) (*domain.Reference, error) {
	if err := requireFields(field{"title", in.Title}); err != nil {
		return nil, err
	}
	ref, err := s.refs.Get(ctx, id)
	if err != nil {
		return nil, notFound(err, fmt.Sprintf("reference %d", id))
	}
	if in.CategoryID != nil {
		if _, err := s.categories.Get(ctx, *in.CategoryID); err != nil {
			return nil, notFound(err, fmt.Sprintf("category %d", *in.CategoryID))
		}
		ref.CategoryID = in.CategoryID
	}
	ref.Title = strings.TrimSpace(in.Title)
	ref.Description = in.Description

	if err := s.refs.Update(ctx, ref); err != nil {
		return nil, notFound(err, fmt.Sprintf("reference %d", id))
	}
	return s.GetReference(ctx, id)
}

// DeleteReference removes every blob the reference owns, then the reference.
// Blob failures are logged and do not stop the delete.
func (s *referenceService) DeleteReference(ctx context.Context, id int64) error {
	ref, err := s.refs.Get(ctx, id)
	if err != nil {
		return notFound(err, fmt.Sprintf("reference %d", id))
	}
	s.removeBlobs(ctx, ref.BlobKeys())

	if err := s.refs.Delete(ctx, id); err != nil {
		return notFound(err, fmt.Sprintf("reference %d", id))
	}
	s.logger.WithField("reference", id).Info("reference deleted")
	return nil
}

func (s *referenceService) removeBlobs(ctx context.Context, keys []string) {
	for _, key := range keys {
		if err := s.blobs.Delete(ctx, key); err != nil {
			s.logger.WithError(err).WithField("key", key).Warn("failed to delete stored file")
		}
	}
}

func (s *referenceService) OpenMainFile(ctx context.Context, id int64) (*Download, error) {
	ref, err := s.refs.Get(ctx, id)
	if err != nil {
		return nil, notFound(err, fmt.Sprintf("reference %d", id))
	}
	dl, err := s.open(ctx, ref.FileKey, ref.FileName)
	if err != nil {
		return nil, err
	}
	s.countDownload(ctx, ref.ID)
	return dl, nil
}

func (s *referenceService) OpenAttachedFile(ctx context.Context, fileID int64) (*Download, error) {
	file, err := s.refs.GetFile(ctx, fileID)
	if err != nil {
		return nil, notFound(err, fmt.Sprintf("file %d", fileID))
	}
	dl, err := s.open(ctx, file.FileKey, file.FileName)
	if err != nil {
		return nil, err
	}
	s.countDownload(ctx, file.ReferenceID)
	return dl, nil
}

func (s *referenceService) OpenThumbnail(ctx context.Context, id int64) (*Download, error) {
	ref, err := s.refs.Get(ctx, id)
	if err != nil {
		return nil, notFound(err, fmt.Sprintf("reference %d", id))
	}
	if ref.ThumbnailKey == "" {
		return nil, fmt.Errorf("thumbnail of reference %d: %w", id, ErrNotFound)
	}
	return s.open(ctx, ref.ThumbnailKey, path.Base(ref.ThumbnailKey))
}

func (s *referenceService) OpenGalleryImage(ctx context.Context, imageID int64) (*Download, error) {
	img, err := s.refs.GetImage(ctx, imageID)
	if err != nil {
		return nil, notFound(err, fmt.Sprintf("image %d", imageID))
	}
	return s.open(ctx, img.FileKey, img.FileName)
}

func (s *referenceService) ListStoredObjects(ctx context.Context, prefix string) ([]storage.ObjectInfo, error) {
	objects, err := s.blobs.ListObjects(ctx, prefix)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStorage, err)
	}
	return objects, nil
}

// countDownload bumps the counter; a failure only costs one count.
func (s *referenceService) countDownload(ctx context.Context, refID int64) {
	if err := s.refs.IncrementDownloadCount(ctx, refID); err != nil {
		s.logger.WithError(err).WithField("reference", refID).Warn("failed to count download")
	}
}

func (s *referenceService) open(ctx context.Context, key, name string) (*Download, error) {
	body, err := s.blobs.Open(ctx, key)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotFound) {
			return nil, fmt.Errorf("stored file %s: %w", key, ErrNotFound)
		}
		return nil, fmt.Errorf("%w: open %s: %v", ErrStorage, key, err)
	}

	head := make([]byte, sniffLen)
	n, err := io.ReadFull(body, head)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
		body.Close()
		return nil, fmt.Errorf("%w: read %s: %v", ErrStorage, key, err)
	}
	head = head[:n]

	return &Download{
		FileName:    name,
		ContentType: mimetype.Detect(head).String(),
		Body: struct {
			io.Reader
			io.Closer
		}{io.MultiReader(bytes.NewReader(head), body), body},
	}, nil
}
