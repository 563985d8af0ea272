package main

import (
	"bytes"
	"context"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kingrea/albaform/internal/config"
	"github.com/kingrea/albaform/internal/draft"
	"github.com/kingrea/albaform/internal/imagecodec"
	"github.com/kingrea/albaform/internal/storage"
)

func seedDraft(t *testing.T, dir string, d draft.StepOneDraft) {
	t.Helper()
	require.NoError(t, config.InitDir(dir))
	cfg, err := config.NewConfig(dir)
	require.NoError(t, err)
	st, err := storage.Open(cfg)
	require.NoError(t, err)
	defer st.Close()
	raw, err := d.Marshal()
	require.NoError(t, err)
	require.NoError(t, st.Set(context.Background(), cfg.StepKey(), raw))
}

func pngText(t *testing.T) (string, []byte) {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewGray(image.Rect(0, 0, 2, 2))))
	text, err := imagecodec.Encode(context.Background(), imagecodec.Image{Data: buf.Bytes()})
	require.NoError(t, err)
	return text, buf.Bytes()
}

func TestShowDraft(t *testing.T) {
	dir := t.TempDir()
	var out bytes.Buffer
	require.NoError(t, showDraft(context.Background(), &out, dir))
	require.Contains(t, out.String(), "No saved draft.")

	seedDraft(t, dir, draft.StepOneDraft{
		Title:                "Cafe crew",
		RecruitmentStartDate: "2024-01-01",
		RecruitmentEndDate:   "2024-01-05",
		TempImages:           []string{"a", "b"},
	})
	out.Reset()
	require.NoError(t, showDraft(context.Background(), &out, dir))
	require.Contains(t, out.String(), "Title:       Cafe crew")
	require.Contains(t, out.String(), "2024-01-01 ~ 2024-01-05")
	require.Contains(t, out.String(), "Images:      2")
}

func TestClearDraft(t *testing.T) {
	dir := t.TempDir()
	seedDraft(t, dir, draft.StepOneDraft{Title: "gone soon"})

	var out bytes.Buffer
	require.NoError(t, clearDraft(context.Background(), &out, dir))
	require.Contains(t, out.String(), "Draft cleared.")

	out.Reset()
	require.NoError(t, showDraft(context.Background(), &out, dir))
	require.Contains(t, out.String(), "No saved draft.")
}

func TestExportImagesSkipsBrokenEntries(t *testing.T) {
	dir := t.TempDir()
	text, data := pngText(t)
	seedDraft(t, dir, draft.StepOneDraft{TempImages: []string{text, "data:image/png;base64,%%%"}})

	outDir := filepath.Join(t.TempDir(), "images")
	var out bytes.Buffer
	require.NoError(t, exportImages(context.Background(), &out, dir, outDir, false))
	require.Contains(t, out.String(), "skipped:")

	entries, err := os.ReadDir(outDir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	got, err := os.ReadFile(filepath.Join(outDir, entries[0].Name()))
	require.NoError(t, err)
	require.Equal(t, data, got)
}

func TestExportImagesWithoutDraft(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, exportImages(context.Background(), &out, t.TempDir(), "", false))
	require.Contains(t, out.String(), "No images to export.")
}

func TestExportImagesStrictRefusesBrokenEntries(t *testing.T) {
	dir := t.TempDir()
	text, _ := pngText(t)
	seedDraft(t, dir, draft.StepOneDraft{TempImages: []string{text, "data:image/png;base64,%%%"}})

	outDir := filepath.Join(t.TempDir(), "images")
	var out bytes.Buffer
	err := exportImages(context.Background(), &out, dir, outDir, true)
	var codecErr *imagecodec.CodecError
	require.ErrorAs(t, err, &codecErr)
	require.Equal(t, 1, codecErr.Index)
	require.NoDirExists(t, outDir)
}
