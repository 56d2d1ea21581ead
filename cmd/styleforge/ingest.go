package main

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"

	"github.com/auracore/styleforge/internal/descriptor"
	"github.com/auracore/styleforge/internal/orchestrator"
	"github.com/auracore/styleforge/internal/progress"
	"github.com/spf13/cobra"
)

func newIngestCommand() *cobra.Command {
	var userID, title string

	cmd := &cobra.Command{
		Use:   "ingest <portfolio-dir>",
		Short: "Ingest a directory of portfolio images: extraction then profile synthesis",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runIngest(cmd.Context(), args[0], userID, title)
		},
	}

	cmd.Flags().StringVar(&userID, "user", "", "user id the portfolio belongs to (required)")
	cmd.Flags().StringVar(&title, "title", "My Portfolio", "portfolio title")
	_ = cmd.MarkFlagRequired("user")

	return cmd
}

func runIngest(ctx context.Context, dir, userID, title string) error {
	app, err := bootstrap(ctx)
	if err != nil {
		return err
	}
	defer app.Close()

	uploads, err := loadImageUploads(dir)
	if err != nil {
		return fmt.Errorf("load images from %s: %w", dir, err)
	}

	if len(uploads) == 0 {
		return fmt.Errorf("no images found in %s", dir)
	}

	bar := progress.NewBar("extraction", len(uploads))
	renderer := progress.NewRenderer([]*progress.Bar{bar})
	renderer.Render()
	defer renderer.Stop()

	result, err := app.orch.IngestPortfolio(ctx, userID, title, uploads, func(u descriptor.ProgressUpdate) {
		bar.Update(u.Current, u.Message)
		renderer.Render()
	})
	if err != nil {
		return fmt.Errorf("ingest portfolio: %w", err)
	}

	renderer.Stop()
	fmt.Printf("analyzed=%d failed=%d avg_confidence=%.2f avg_completeness=%.1f\n",
		result.Analyzed, result.Failed, result.AvgConfidence, result.AvgCompleteness)

	return nil
}

// loadImageUploads walks dir for image files and builds the content-hash
// and pixel-dimension metadata IngestPortfolio needs per image.
func loadImageUploads(dir string) ([]orchestrator.ImageUpload, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var uploads []orchestrator.ImageUpload

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		path := filepath.Join(dir, entry.Name())

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", path, err)
		}

		sum := sha256.Sum256(data)

		width, height := 0, 0
		if f, err := os.Open(path); err == nil {
			if cfg, _, err := image.DecodeConfig(f); err == nil {
				width, height = cfg.Width, cfg.Height
			}
			_ = f.Close()
		}

		uploads = append(uploads, orchestrator.ImageUpload{
			ContentHash: hex.EncodeToString(sum[:]),
			URL:         path,
			Width:       width,
			Height:      height,
		})
	}

	return uploads, nil
}
