package main

import (
	"bytes"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/disintegration/imaging"
)

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("FOODHELPER_DATA_DIR", filepath.Join(dir, "data"))
	t.Setenv("FOODHELPER_LOG_DIR", filepath.Join(dir, "logs"))
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs(append(args, "--config", filepath.Join(dir, "config.json"), "--env", ""))
	err := rootCmd.Execute()
	return out.String(), err
}

func writeFrame(t *testing.T, path string, square image.Rectangle) {
	t.Helper()
	img := imaging.New(200, 120, color.Black)
	for y := square.Min.Y; y < square.Max.Y; y++ {
		for x := square.Min.X; x < square.Max.X; x++ {
			img.Set(x, y, color.White)
		}
	}
	if err := imaging.Save(img, path); err != nil {
		t.Fatal(err)
	}
}

func TestDiffCommand_WritesChanges(t *testing.T) {
	dir := t.TempDir()
	before := filepath.Join(dir, "before.png")
	after := filepath.Join(dir, "after.png")
	writeFrame(t, before, image.Rectangle{})
	writeFrame(t, after, image.Rect(50, 40, 70, 60))
	outDir := filepath.Join(dir, "out")

	out, err := runCLI(t, "diff", before, after, "--out", outDir)
	if err != nil {
		t.Fatalf("diff: %v", err)
	}
	if !strings.Contains(out, "1 change(s)") {
		t.Fatalf("unexpected output:\n%s", out)
	}
	if _, err := os.Stat(filepath.Join(outDir, "change_0.png")); err != nil {
		t.Fatalf("crop not written: %v", err)
	}
}

func TestDiffCommand_NoChanges(t *testing.T) {
	dir := t.TempDir()
	before := filepath.Join(dir, "before.png")
	writeFrame(t, before, image.Rectangle{})
	out, err := runCLI(t, "diff", before, before, "--out", filepath.Join(dir, "out"))
	if err != nil || !strings.Contains(out, "no changes") {
		t.Fatalf("expected no changes, got %q %v", out, err)
	}
}

func TestDiffCommand_MissingFile(t *testing.T) {
	dir := t.TempDir()
	if _, err := runCLI(t, "diff", filepath.Join(dir, "a.png"), filepath.Join(dir, "b.png"), "--out", dir); err == nil {
		t.Fatalf("expected error for missing inputs")
	}
}

func TestTemplatesList_Empty(t *testing.T) {
	out, err := runCLI(t, "templates", "list", "food")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if !strings.HasPrefix(out, "CATEGORY") {
		t.Fatalf("expected header, got %q", out)
	}
	if _, err := runCLI(t, "templates", "list", "drinks"); err == nil {
		t.Fatalf("expected unknown category error")
	}
}
