package storage

import (
	"path"
	"strings"

	"github.com/google/uuid"
)

// Kind selects the key namespace of a blob.
type Kind int

const (
	KindFile Kind = iota
	KindImage
)

const (
	filesPrefix     = "files/"
	thumbnailPrefix = "thumbnails/"
)

// NewKey returns a fresh storage key for an upload named originalName,
// keeping its extension: files/<uuid>.ext or thumbnails/thumb_<uuid>.ext.
func NewKey(kind Kind, originalName string) string {
	ext := Extension(originalName)
	switch kind {
	case KindImage:
		return thumbnailPrefix + "thumb_" + uuid.NewString() + ext
	default:
		return filesPrefix + uuid.NewString() + ext
	}
}

// Extension returns the lower-cased extension of name including the dot, or "".
func Extension(name string) string {
	base := path.Base(strings.ReplaceAll(name, `\`, "/"))
	idx := strings.LastIndex(base, ".")
	if idx <= 0 || idx == len(base)-1 {
		return ""
	}
	return strings.ToLower(base[idx:])
}

// validKey rejects keys that could escape the storage root.
func validKey(key string) bool {
	if key == "" || strings.HasPrefix(key, "/") || strings.Contains(key, `\`) {
		return false
	}
	for _, part := range strings.Split(key, "/") {
		if part == "" || part == "." || part == ".." {
			return false
		}
	}
	return true
}
