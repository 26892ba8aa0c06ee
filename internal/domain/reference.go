package domain

import "time"

// ReferenceCategory groups references in the file repository.
type ReferenceCategory struct {
	ID        int64
	Name      string
	SortOrder int
	CreatedAt time.Time
}

// Reference is an uploaded document with its attachments and gallery.
type Reference struct {
	ID            int64
	CategoryID    *int64
	CategoryName  string
	Title         string
	Description   string
	FileName      string
	FileKey       string
	ThumbnailKey  string
	DownloadCount int
	CreatedAt     time.Time
	UpdatedAt     time.Time
	Files         []ReferenceFile
	Images        []ReferenceImage
}

// ReferenceFile is an additional attachment of a reference.
type ReferenceFile struct {
	ID          int64
	ReferenceID int64
	FileName    string
	FileKey     string
	SortOrder   int
}

// ReferenceImage is a gallery image of a reference.
type ReferenceImage struct {
	ID          int64
	ReferenceID int64
	FileName    string
	FileKey     string
	SortOrder   int
}

// BlobKeys returns every storage key the reference owns, main file first.
func (r *Reference) BlobKeys() []string {
	var keys []string
	if r.FileKey != "" {
		keys = append(keys, r.FileKey)
	}
	if r.ThumbnailKey != "" {
		keys = append(keys, r.ThumbnailKey)
	}
	for _, f := range r.Files {
		keys = append(keys, f.FileKey)
	}
	for _, img := range r.Images {
		keys = append(keys, img.FileKey)
	}
	return keys
}
