package service

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/require"

	"sm-portal/internal/domain"
	"sm-portal/internal/repository/sqlite"
	"sm-portal/internal/storage"
)

// flakyBlobs fails Put after putLimit successful writes and fails Delete for failDelete keys.
type flakyBlobs struct {
	storage.Service
	putLimit   int
	puts       int
	failDelete map[string]bool
}

func (f *flakyBlobs) Put(ctx context.Context, key string, body io.Reader, size int64, contentType string) error {
	if f.putLimit > 0 && f.puts >= f.putLimit {
		return errors.New("disk full")
	}
	f.puts++
	return f.Service.Put(ctx, key, body, size, contentType)
}

func (f *flakyBlobs) Delete(ctx context.Context, key string) error {
	if f.failDelete[key] {
		return errors.New("permission denied")
	}
	return f.Service.Delete(ctx, key)
}

type referenceFixture struct {
	svc      ReferenceService
	category *domain.ReferenceCategory
	blobs    *flakyBlobs
	hook     *test.Hook
}

func newReferenceFixture(t *testing.T) referenceFixture {
	t.Helper()

	db := newTestDB(t)
	logger, hook := newTestLogger()
	categories := sqlite.NewReferenceCategoryRepository(db)
	category := &domain.ReferenceCategory{Name: "Forms"}
	_, err := categories.Create(context.Background(), category)
	require.NoError(t, err)

	blobs := &flakyBlobs{Service: newMemBlobs(), failDelete: map[string]bool{}}
	svc := NewReferenceService(sqlite.NewReferenceRepository(db), categories, blobs, logger)
	return referenceFixture{svc: svc, category: category, blobs: blobs, hook: hook}
}

func upload(name, content string) Upload {
	return Upload{FileName: name, Size: int64(len(content)), Body: strings.NewReader(content)}
}

func readDownload(t *testing.T, dl *Download) string {
	t.Helper()
	defer dl.Body.Close()
	b, err := io.ReadAll(dl.Body)
	require.NoError(t, err)
	return string(b)
}

func storedKeys(t *testing.T, blobs storage.Service) []string {
	t.Helper()
	objects, err := blobs.ListObjects(context.Background(), "")
	require.NoError(t, err)
	keys := make([]string, 0, len(objects))
	for _, obj := range objects {
		keys = append(keys, obj.Key)
	}
	return keys
}

func (f referenceFixture) create(t *testing.T) *domain.Reference {
	t.Helper()
	thumb := upload("cover.png", "\x89PNG\r\n\x1a\nthumb")
	ref, err := f.svc.CreateReference(context.Background(),
		ReferenceInput{CategoryID: &f.category.ID, Title: "Handbook", Description: "2025 edition"},
		[]Upload{upload("handbook.pdf", "%PDF-1.4 main"), upload("appendix.txt", "appendix")},
		&thumb,
		[]Upload{upload("g1.jpg", "img-one"), {FileName: "empty.jpg"}, upload("g2.jpg", "img-two")},
	)
	require.NoError(t, err)
	return ref
}

func TestReferenceCreateAndGet(t *testing.T) {
	ctx := context.Background()
	f := newReferenceFixture(t)

	ref := f.create(t)
	require.Equal(t, "handbook.pdf", ref.FileName)
	require.True(t, strings.HasPrefix(ref.FileKey, "files/"))
	require.True(t, strings.HasPrefix(ref.ThumbnailKey, "thumbnails/thumb_"))
	require.Equal(t, "Forms", ref.CategoryName)
	require.Len(t, ref.Files, 1)
	require.Equal(t, 1, ref.Files[0].SortOrder)
	require.Equal(t, "appendix.txt", ref.Files[0].FileName)
	require.Len(t, ref.Images, 2)
	require.Equal(t, 0, ref.Images[0].SortOrder)
	require.Equal(t, 2, ref.Images[1].SortOrder)

	require.Len(t, storedKeys(t, f.blobs), 5)

	got, err := f.svc.GetReference(ctx, ref.ID)
	require.NoError(t, err)
	require.Equal(t, ref.BlobKeys(), got.BlobKeys())
}

func TestReferenceCreateValidation(t *testing.T) {
	ctx := context.Background()
	f := newReferenceFixture(t)

	_, err := f.svc.CreateReference(ctx, ReferenceInput{Title: "x"}, []Upload{upload("a.txt", "a")}, nil, nil)
	require.ErrorIs(t, err, ErrInvalidInput)
	_, err = f.svc.CreateReference(ctx, ReferenceInput{CategoryID: &f.category.ID, Title: "x"}, nil, nil, nil)
	require.ErrorIs(t, err, ErrInvalidInput)

	missing := int64(404)
	_, err = f.svc.CreateReference(ctx, ReferenceInput{CategoryID: &missing, Title: "x"}, []Upload{upload("a.txt", "a")}, nil, nil)
	require.ErrorIs(t, err, ErrNotFound)
	require.Empty(t, storedKeys(t, f.blobs))
}

func TestReferenceCreateCleansUpOnStorageFailure(t *testing.T) {
	ctx := context.Background()
	f := newReferenceFixture(t)
	f.blobs.putLimit = 2

	_, err := f.svc.CreateReference(ctx,
		ReferenceInput{CategoryID: &f.category.ID, Title: "Broken"},
		[]Upload{upload("a.txt", "a"), upload("b.txt", "b"), upload("c.txt", "c")},
		nil, nil,
	)
	require.ErrorIs(t, err, ErrStorage)
	require.Empty(t, storedKeys(t, f.blobs))

	page, err := f.svc.ListReferences(ctx, domain.PageRequest{})
	require.NoError(t, err)
	require.Zero(t, page.TotalElements)
}

func TestReferenceDownloadsCount(t *testing.T) {
	ctx := context.Background()
	f := newReferenceFixture(t)
	ref := f.create(t)

	dl, err := f.svc.OpenMainFile(ctx, ref.ID)
	require.NoError(t, err)
	require.Equal(t, "handbook.pdf", dl.FileName)
	require.Equal(t, "application/pdf", dl.ContentType)
	require.Equal(t, "%PDF-1.4 main", readDownload(t, dl))

	dl, err = f.svc.OpenAttachedFile(ctx, ref.Files[0].ID)
	require.NoError(t, err)
	require.Equal(t, "appendix", readDownload(t, dl))

	dl, err = f.svc.OpenThumbnail(ctx, ref.ID)
	require.NoError(t, err)
	require.Equal(t, "image/png", dl.ContentType)
	readDownload(t, dl)

	dl, err = f.svc.OpenGalleryImage(ctx, ref.Images[1].ID)
	require.NoError(t, err)
	require.Equal(t, "img-two", readDownload(t, dl))

	got, err := f.svc.GetReference(ctx, ref.ID)
	require.NoError(t, err)
	require.Equal(t, 2, got.DownloadCount)

	_, err = f.svc.OpenAttachedFile(ctx, 9999)
	require.ErrorIs(t, err, ErrNotFound)
	_, err = f.svc.OpenGalleryImage(ctx, 9999)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestReferenceThumbnailMissing(t *testing.T) {
	ctx := context.Background()
	f := newReferenceFixture(t)

	ref, err := f.svc.CreateReference(ctx,
		ReferenceInput{CategoryID: &f.category.ID, Title: "Plain"},
		[]Upload{upload("a.txt", "a")}, nil, nil)
	require.NoError(t, err)
	require.Empty(t, ref.ThumbnailKey)

	_, err = f.svc.OpenThumbnail(ctx, ref.ID)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestReferenceDeleteRemovesEveryBlob(t *testing.T) {
	ctx := context.Background()
	f := newReferenceFixture(t)
	ref := f.create(t)

	require.NoError(t, f.svc.DeleteReference(ctx, ref.ID))
	require.Empty(t, storedKeys(t, f.blobs))

	_, err := f.svc.GetReference(ctx, ref.ID)
	require.ErrorIs(t, err, ErrNotFound)
	require.ErrorIs(t, f.svc.DeleteReference(ctx, ref.ID), ErrNotFound)
}

func TestReferenceDeleteLogsBlobFailures(t *testing.T) {
	ctx := context.Background()
	f := newReferenceFixture(t)
	ref := f.create(t)

	f.blobs.failDelete[ref.FileKey] = true
	f.blobs.failDelete[ref.Images[0].FileKey] = true
	f.hook.Reset()

	require.NoError(t, f.svc.DeleteReference(ctx, ref.ID))
	_, err := f.svc.GetReference(ctx, ref.ID)
	require.ErrorIs(t, err, ErrNotFound)

	var warned []string
	for _, entry := range f.hook.AllEntries() {
		if entry.Level == logrus.WarnLevel {
			warned = append(warned, entry.Data["key"].(string))
		}
	}
	require.ElementsMatch(t, []string{ref.FileKey, ref.Images[0].FileKey}, warned)
	require.ElementsMatch(t, []string{ref.FileKey, ref.Images[0].FileKey}, storedKeys(t, f.blobs))
}

func TestReferenceDeleteToleratesMissingBlobs(t *testing.T) {
	ctx := context.Background()
	f := newReferenceFixture(t)
	ref := f.create(t)

	require.NoError(t, f.blobs.Service.Delete(ctx, ref.FileKey))
	f.hook.Reset()

	require.NoError(t, f.svc.DeleteReference(ctx, ref.ID))
	for _, entry := range f.hook.AllEntries() {
		require.NotEqual(t, logrus.WarnLevel, entry.Level)
	}
}

func TestReferenceUpdateAndListings(t *testing.T) {
	ctx := context.Background()
	f := newReferenceFixture(t)
	ref := f.create(t)

	updated, err := f.svc.UpdateReference(ctx, ref.ID, ReferenceInput{Title: "Student handbook", Description: "revised"})
	require.NoError(t, err)
	require.Equal(t, "Student handbook", updated.Title)
	require.NotNil(t, updated.CategoryID)
	require.Equal(t, f.category.ID, *updated.CategoryID)

	missing := int64(404)
	_, err = f.svc.UpdateReference(ctx, ref.ID, ReferenceInput{CategoryID: &missing, Title: "x"})
	require.ErrorIs(t, err, ErrNotFound)

	page, err := f.svc.SearchReferences(ctx, "revised", domain.PageRequest{})
	require.NoError(t, err)
	require.Equal(t, int64(1), page.TotalElements)

	page, err = f.svc.ListByCategory(ctx, f.category.ID, domain.PageRequest{Size: 5})
	require.NoError(t, err)
	require.Equal(t, 5, page.Size)
	require.Len(t, page.Content, 1)

	page, err = f.svc.ListByCategory(ctx, missing, domain.PageRequest{})
	require.NoError(t, err)
	require.Empty(t, page.Content)
	require.Equal(t, 0, page.TotalPages)
}

func TestReferenceListStoredObjects(t *testing.T) {
	f := newReferenceFixture(t)
	f.create(t)

	objects, err := f.svc.ListStoredObjects(context.Background(), "thumbnails/")
	require.NoError(t, err)
	require.Len(t, objects, 3)
}
