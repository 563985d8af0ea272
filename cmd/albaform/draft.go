package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/kingrea/albaform/internal/config"
	"github.com/kingrea/albaform/internal/draft"
	"github.com/kingrea/albaform/internal/imagecodec"
	"github.com/kingrea/albaform/internal/storage"
)

var draftCmd = &cobra.Command{
	Use:   "draft",
	Short: "Inspect or discard the saved step-one draft",
}

var draftShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the saved draft",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return showDraft(cmd.Context(), cmd.OutOrStdout(), projectDir)
	},
}

var draftClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete the saved draft",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return clearDraft(cmd.Context(), cmd.OutOrStdout(), projectDir)
	},
}

var (
	exportOutDir string
	exportStrict bool
)

var draftExportCmd = &cobra.Command{
	Use:   "export-images",
	Short: "Decode the draft's images into files",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return exportImages(cmd.Context(), cmd.OutOrStdout(), projectDir, exportOutDir, exportStrict)
	},
}

func init() {
	draftExportCmd.Flags().StringVarP(&exportOutDir, "out", "o", "", "Output directory (defaults to .albaform/export)")
	draftExportCmd.Flags().BoolVar(&exportStrict, "strict", false, "Fail without writing anything if any image cannot be decoded")

	draftCmd.AddCommand(draftShowCmd, draftClearCmd, draftExportCmd)
	rootCmd.AddCommand(draftCmd)
}

// openDraftStorage loads the project config and opens its storage backend.
func openDraftStorage(dir string) (*config.Config, storage.Storage, error) {
	if err := config.InitDir(dir); err != nil {
		return nil, nil, fmt.Errorf("initializing %s directory: %w", config.AppDir, err)
	}
	cfg, err := config.NewConfig(dir)
	if err != nil {
		return nil, nil, err
	}
	st, err := storage.Open(cfg)
	if err != nil {
		return nil, nil, err
	}
	return cfg, st, nil
}

func readDraft(ctx context.Context, cfg *config.Config, st storage.Storage) (draft.StepOneDraft, bool, error) {
	raw, ok, err := st.Get(ctx, cfg.StepKey())
	if err != nil || !ok {
		return draft.StepOneDraft{}, false, err
	}
	d, err := draft.Parse(raw)
	if err != nil {
		return draft.StepOneDraft{}, false, err
	}
	return d, true, nil
}

func showDraft(ctx context.Context, w io.Writer, dir string) error {
	cfg, st, err := openDraftStorage(dir)
	if err != nil {
		return err
	}
	defer st.Close()

	d, ok, err := readDraft(ctx, cfg, st)
	if err != nil {
		return err
	}
	if !ok {
		fmt.Fprintln(w, "No saved draft.")
		return nil
	}
	fmt.Fprintf(w, "Title:       %s\n", d.Title)
	fmt.Fprintf(w, "Description: %s\n", d.Description)
	fmt.Fprintf(w, "Recruitment: %s ~ %s\n", d.RecruitmentStartDate, d.RecruitmentEndDate)
	fmt.Fprintf(w, "Images:      %d\n", len(d.TempImages))
	return nil
}

func clearDraft(ctx context.Context, w io.Writer, dir string) error {
	cfg, st, err := openDraftStorage(dir)
	if err != nil {
		return err
	}
	defer st.Close()

	if err := st.Delete(ctx, cfg.StepKey()); err != nil {
		return err
	}
	fmt.Fprintln(w, "Draft cleared.")
	return nil
}

func exportImages(ctx context.Context, w io.Writer, dir, outDir string, strict bool) error {
	cfg, st, err := openDraftStorage(dir)
	if err != nil {
		return err
	}
	defer st.Close()

	d, ok, err := readDraft(ctx, cfg, st)
	if err != nil {
		return err
	}
	if !ok || len(d.TempImages) == 0 {
		fmt.Fprintln(w, "No images to export.")
		return nil
	}
	if outDir == "" {
		outDir = cfg.ExportDir()
	}

	var images []imagecodec.Image
	if strict {
		images, err = imagecodec.DecodeAll(ctx, d.TempImages, "image")
		if err != nil {
			return err
		}
	} else {
		var failures []*imagecodec.CodecError
		images, failures = imagecodec.DecodeEach(ctx, d.TempImages, "image")
		for _, f := range failures {
			fmt.Fprintf(w, "skipped: %v\n", f)
		}
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", outDir, err)
	}
	for _, img := range images {
		path := filepath.Join(outDir, img.Name)
		if err := os.WriteFile(path, img.Data, 0o644); err != nil {
			return fmt.Errorf("writing %s: %w", path, err)
		}
		fmt.Fprintln(w, path)
	}
	return nil
}
