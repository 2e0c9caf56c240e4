package detect

import (
	"errors"
	"fmt"
	"image"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/disintegration/imaging"
	"github.com/dustin/go-humanize"

	"github.com/soocke/food-helper-go/domain/vision"
)

// Artifact file names.
const (
	BeforeFile = "before_food.png"
	AfterFile  = "after_food.png"
	VisualFile = "food_diff.png"
)

// ChangeFile is the crop name for the region at idx.
func ChangeFile(idx int) string { return fmt.Sprintf("change_%d.png", idx) }

// Artifacts lists files written for one comparison.
type Artifacts struct {
	Before  string
	After   string
	Visual  string
	Changes []string
}

// CropRegions cuts each region out of img. Crops are independent copies.
func CropRegions(img image.Image, regions []vision.ChangeRegion) []*image.NRGBA {
	if img == nil {
		return nil
	}
	out := make([]*image.NRGBA, 0, len(regions))
	origin := img.Bounds().Min
	for _, r := range regions {
		out = append(out, imaging.Crop(img, r.Rect().Add(origin)))
	}
	return out
}

// ClearDir removes the regular files in dir, creating it when missing.
func ClearDir(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return err
	}
	var errs []error
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if err := os.Remove(filepath.Join(dir, e.Name())); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// writePNG saves img to path and logs its size.
func writePNG(logger *slog.Logger, path string, img image.Image) error {
	if err := imaging.Save(img, path); err != nil {
		return fmt.Errorf("detect: write %s: %w", path, err)
	}
	if logger != nil {
		var size uint64
		if st, err := os.Stat(path); err == nil {
			size = uint64(st.Size())
		}
		logger.Debug("artifact written", "path", path, "size", humanize.Bytes(size))
	}
	return nil
}

// writeChanges stores the visual and one crop per region into dir. Nothing is
// written when res has no regions.
func writeChanges(logger *slog.Logger, visualDir, changeDir string, after image.Image, res vision.DiffResult) (Artifacts, error) {
	var a Artifacts
	if res.Empty() {
		return a, nil
	}
	if res.Visual != nil {
		a.Visual = filepath.Join(visualDir, VisualFile)
		if err := writePNG(logger, a.Visual, res.Visual); err != nil {
			return a, err
		}
	}
	for i, crop := range CropRegions(after, res.Regions) {
		p := filepath.Join(changeDir, ChangeFile(i))
		if err := writePNG(logger, p, crop); err != nil {
			return a, err
		}
		a.Changes = append(a.Changes, p)
	}
	return a, nil
}

// WriteRun stores the artifacts of a live detection. before/after and the
// visual go into tempDir, crops into diffDir which is cleared first.
func WriteRun(logger *slog.Logger, tempDir, diffDir string, before, after image.Image, res vision.DiffResult) (Artifacts, error) {
	if err := os.MkdirAll(tempDir, 0o755); err != nil {
		return Artifacts{}, err
	}
	if err := ClearDir(diffDir); err != nil {
		return Artifacts{}, err
	}
	a, err := writeChanges(logger, tempDir, diffDir, after, res)
	if err != nil {
		return a, err
	}
	if before != nil {
		a.Before = filepath.Join(tempDir, BeforeFile)
		if err := writePNG(logger, a.Before, before); err != nil {
			return a, err
		}
	}
	if after != nil {
		a.After = filepath.Join(tempDir, AfterFile)
		if err := writePNG(logger, a.After, after); err != nil {
			return a, err
		}
	}
	return a, nil
}

// CompareFiles loads two PNGs, diffs them and writes the visual plus crops
// into outDir after clearing it.
func CompareFiles(logger *slog.Logger, d vision.Differ, beforePath, afterPath, outDir string) (vision.DiffResult, Artifacts, error) {
	before, err := imaging.Open(beforePath)
	if err != nil {
		return vision.DiffResult{}, Artifacts{}, fmt.Errorf("detect: open before: %w", err)
	}
	after, err := imaging.Open(afterPath)
	if err != nil {
		return vision.DiffResult{}, Artifacts{}, fmt.Errorf("detect: open after: %w", err)
	}
	if err := ClearDir(outDir); err != nil {
		return vision.DiffResult{}, Artifacts{}, err
	}
	res, err := d.Diff(before, after)
	if err != nil {
		return res, Artifacts{}, err
	}
	if res.Empty() {
		if logger != nil {
			logger.Info("no changes found", "before", beforePath, "after", afterPath)
		}
		return res, Artifacts{}, nil
	}
	a, err := writeChanges(logger, outDir, outDir, after, res)
	if err == nil && logger != nil {
		logger.Info("changes found", "regions", len(res.Regions), "out", outDir)
	}
	return res, a, err
}
