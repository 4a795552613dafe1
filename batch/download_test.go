package batch

import (
	"archive/zip"
	"bytes"
	"context"
	"io"
	"testing"

	"github.com/mobile-next/imgconvert/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func zipContents(t *testing.T, data []byte) map[string][]byte {
	t.Helper()

	reader, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)

	files := make(map[string][]byte)
	for _, f := range reader.File {
		rc, err := f.Open()
		require.NoError(t, err)
		content, err := io.ReadAll(rc)
		rc.Close()
		require.NoError(t, err)
		files[f.Name] = content
	}
	return files
}

func TestDownloadOne(t *testing.T) {
	c := newController(t)
	ids, err := c.AddFiles(context.Background(), []File{
		pngFile(t, "holiday.photo.png", 16, 16),
		{Name: "broken.png", ContentType: "image/png", Data: []byte("nope")},
	})
	require.NoError(t, err)

	d, err := c.DownloadOne(ids[0])
	require.NoError(t, err)
	assert.Equal(t, "holiday.photo.webp", d.Name)
	assert.Equal(t, 1, d.Count)

	it, _ := c.Item(ids[0])
	assert.Equal(t, it.Output.Data, d.Data)

	_, err = c.DownloadOne(ids[1])
	assert.ErrorIs(t, err, ErrNotConverted)

	_, err = c.DownloadOne("missing")
	assert.ErrorIs(t, err, ErrItemNotFound)
}

func TestDownloadAll_ExcludesUnconverted(t *testing.T) {
	c := newController(t)
	_, err := c.AddFiles(context.Background(), []File{
		pngFile(t, "a.png", 16, 16),
		jpegFile(t, "b.jpeg", 16, 16),
		{Name: "c.png", ContentType: "image/png", Data: []byte("nope")},
	})
	require.NoError(t, err)

	d, err := c.DownloadAll()
	require.NoError(t, err)
	assert.Equal(t, "converted-images.webp.zip", d.Name)
	assert.Equal(t, 2, d.Count)

	files := zipContents(t, d.Data)
	assert.Len(t, files, 2)
	assert.Contains(t, files, "a.webp")
	assert.Contains(t, files, "b.webp")
	assert.NotContains(t, files, "c.webp")
}

func TestDownloadAll_DuplicateNames(t *testing.T) {
	c := newController(t)
	require.NoError(t, c.SetOutputFormat(context.Background(), types.FormatPNG))
	_, err := c.AddFiles(context.Background(), []File{
		pngFile(t, "scan.png", 8, 8),
		jpegFile(t, "scan.jpg", 8, 8),
		pngFile(t, "scan", 8, 8),
	})
	require.NoError(t, err)

	d, err := c.DownloadAll()
	require.NoError(t, err)
	assert.Equal(t, "converted-images.png.zip", d.Name)

	files := zipContents(t, d.Data)
	assert.Len(t, files, 3)
	assert.Contains(t, files, "scan.png")
	assert.Contains(t, files, "scan (2).png")
	assert.Contains(t, files, "scan (3).png")
}

func TestDownloadAll_NothingConverted(t *testing.T) {
	c := newController(t)

	_, err := c.DownloadAll()
	assert.ErrorIs(t, err, ErrNothingToDownload)

	_, err = c.AddFiles(context.Background(), []File{{Name: "x.png", ContentType: "image/png", Data: []byte("bad")}})
	require.NoError(t, err)
	_, err = c.DownloadAll()
	assert.ErrorIs(t, err, ErrNothingToDownload)
}

func TestDownloadName(t *testing.T) {
	assert.Equal(t, "a.jpg", DownloadName(Item{Name: "a.heic", Format: types.FormatJPEG}))
	assert.Equal(t, ".hidden.png", DownloadName(Item{Name: ".hidden", Format: types.FormatPNG}))
}
