package attachment

import (
	"bytes"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kingrea/albaform/internal/imagecodec"
)

func pngImage(t *testing.T, name string, width int) imagecodec.Image {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewGray(image.Rect(0, 0, width, 1))))
	return imagecodec.Image{Name: name, Data: buf.Bytes()}
}

func TestAddRejectsFourthImage(t *testing.T) {
	var emitted [][]imagecodec.Image
	c := New(3, func(images []imagecodec.Image) { emitted = append(emitted, images) })

	for i, name := range []string{"a.png", "b.png", "c.png"} {
		require.NoError(t, c.Add(pngImage(t, name, i+1)))
	}
	err := c.Add(pngImage(t, "d.png", 4))
	require.ErrorIs(t, err, ErrLimitReached)

	require.Equal(t, 3, c.Len())
	require.Len(t, emitted, 3, "rejected add must not emit")
	last := emitted[len(emitted)-1]
	require.Equal(t, []string{"a.png", "b.png", "c.png"}, names(last))
	require.Equal(t, "image/png", last[0].MIME)
}

func TestAddRejectsNonImage(t *testing.T) {
	c := New(3, nil)
	err := c.Add(imagecodec.Image{Name: "notes.txt", Data: []byte("hello world, plain text")})
	require.ErrorIs(t, err, ErrNotImage)
	require.Zero(t, c.Len())
}

func TestRemoveKeepsOrder(t *testing.T) {
	var last []imagecodec.Image
	c := New(3, func(images []imagecodec.Image) { last = images })
	for i, name := range []string{"a.png", "b.png", "c.png"} {
		require.NoError(t, c.Add(pngImage(t, name, i+1)))
	}
	require.NoError(t, c.Remove(1))
	require.Equal(t, []string{"a.png", "c.png"}, names(last))
	require.Error(t, c.Remove(5))
}

func TestResetTruncatesWithoutNotifying(t *testing.T) {
	notified := 0
	c := New(2, func([]imagecodec.Image) { notified++ })
	c.Reset([]imagecodec.Image{pngImage(t, "a", 1), pngImage(t, "b", 2), pngImage(t, "c", 3)})
	require.Equal(t, []string{"a", "b"}, names(c.Images()))

	c.Reset(nil)
	require.Zero(t, c.Len())
	require.Zero(t, notified)
}

func TestAddFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "poster.png")
	require.NoError(t, os.WriteFile(path, pngImage(t, "", 3).Data, 0o644))

	c := New(1, nil)
	require.NoError(t, c.AddFile(path))
	require.Equal(t, "poster.png", c.Images()[0].Name)
	require.ErrorIs(t, c.AddFile(path), ErrLimitReached)
	require.Error(t, New(1, nil).AddFile(filepath.Join(dir, "missing.png")))
}

func names(images []imagecodec.Image) []string {
	out := make([]string, 0, len(images))
	for _, img := range images {
		out = append(out, img.Name)
	}
	return out
}
