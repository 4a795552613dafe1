package utils

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/mholt/archiver/v3"
)

// ZipEntry is one named byte buffer to be packaged into an archive.
type ZipEntry struct {
	Name string
	Data []byte
}

// ZipEntries packages the given entries into a single in-memory zip archive.
// Entries are written in order; names are used as given.
func ZipEntries(entries []ZipEntry) ([]byte, error) {
	var buf bytes.Buffer

	z := archiver.NewZip()
	if err := z.Create(&buf); err != nil {
		return nil, fmt.Errorf("failed to create zip archive: %w", err)
	}

	now := time.Now()
	for _, entry := range entries {
		if entry.Name == "" {
			z.Close()
			return nil, fmt.Errorf("zip entry has no name")
		}

		err := z.Write(archiver.File{
			FileInfo: archiver.FileInfo{
				FileInfo:   memFileInfo{name: entry.Name, size: int64(len(entry.Data)), modTime: now},
				CustomName: entry.Name,
			},
			ReadCloser: io.NopCloser(bytes.NewReader(entry.Data)),
		})
		if err != nil {
			z.Close()
			return nil, fmt.Errorf("failed to add %s to zip archive: %w", entry.Name, err)
		}
	}

	if err := z.Close(); err != nil {
		return nil, fmt.Errorf("failed to finalize zip archive: %w", err)
	}

	return buf.Bytes(), nil
}

// memFileInfo describes an in-memory buffer as a regular file.
type memFileInfo struct {
	name    string
	size    int64
	modTime time.Time
}

func (fi memFileInfo) Name() string       { return fi.name }
func (fi memFileInfo) Size() int64        { return fi.size }
func (fi memFileInfo) Mode() os.FileMode  { return 0o644 }
func (fi memFileInfo) ModTime() time.Time { return fi.modTime }
func (fi memFileInfo) IsDir() bool        { return false }
func (fi memFileInfo) Sys() interface{}   { return nil }
