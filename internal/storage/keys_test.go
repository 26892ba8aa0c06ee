package storage

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewKey(t *testing.T) {
	file := NewKey(KindFile, "Annual Report.PDF")
	require.True(t, strings.HasPrefix(file, "files/"))
	require.True(t, strings.HasSuffix(file, ".pdf"))
	require.True(t, validKey(file))

	thumb := NewKey(KindImage, "cover.png")
	require.True(t, strings.HasPrefix(thumb, "thumbnails/thumb_"))
	require.True(t, strings.HasSuffix(thumb, ".png"))

	require.NotEqual(t, NewKey(KindFile, "a.txt"), NewKey(KindFile, "a.txt"))
}

func TestExtension(t *testing.T) {
	cases := map[string]string{
		"report.pdf":         ".pdf",
		"archive.tar.GZ":     ".gz",
		"noext":              "",
		".hidden":            "",
		"trailing.":          "",
		`C:\docs\scan.JPG`:   ".jpg",
		"dir.with.dots/file": "",
	}
	for name, want := range cases {
		require.Equal(t, want, Extension(name), name)
	}
}
