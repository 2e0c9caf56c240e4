package store

import (
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

var discardLogger = slog.New(slog.NewTextHandler(&discardWriter{}, nil))

type discardWriter struct{}

func (d *discardWriter) Write(p []byte) (int, error) { return len(p), nil }

type item struct {
	Name  string `json:"name" validate:"required"`
	Width int    `json:"width" validate:"gt=0"`
}

func (i item) Key() string { return i.Name }

func openItems(t *testing.T, layout Layout) (*Collection[item], string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "nested", "items.json")
	c, err := Open[item](path, layout, discardLogger)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	return c, path
}

func TestCollection_MissingFileIsEmpty(t *testing.T) {
	c, _ := openItems(t, LayoutArray)
	if c.Len() != 0 || len(c.List()) != 0 {
		t.Fatalf("expected empty collection")
	}
}

func TestCollection_InsertPersistsArray(t *testing.T) {
	c, path := openItems(t, LayoutArray)
	if err := c.Insert(item{Name: "bread", Width: 10}); err != nil {
		t.Fatalf("insert: %v", err)
	}
	if err := c.Insert(item{Name: "fish", Width: 12}); err != nil {
		t.Fatalf("insert: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !strings.HasPrefix(strings.TrimSpace(string(data)), "[") {
		t.Fatalf("expected JSON array, got %s", data)
	}
	reopened, err := Open[item](path, LayoutArray, discardLogger)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	got := reopened.List()
	if len(got) != 2 || got[0].Name != "bread" || got[1].Name != "fish" {
		t.Fatalf("unexpected records after reopen: %+v", got)
	}
}

func TestCollection_DuplicateLeavesStoreUnchanged(t *testing.T) {
	c, path := openItems(t, LayoutArray)
	if err := c.Insert(item{Name: "bread", Width: 10}); err != nil {
		t.Fatalf("insert: %v", err)
	}
	before, _ := os.ReadFile(path)
	err := c.Insert(item{Name: "bread", Width: 99})
	if !errors.Is(err, ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}
	if c.Len() != 1 {
		t.Fatalf("count changed after duplicate: %d", c.Len())
	}
	after, _ := os.ReadFile(path)
	if string(before) != string(after) {
		t.Fatalf("file rewritten on duplicate")
	}
	if rec, _ := c.Get("bread"); rec.Width != 10 {
		t.Fatalf("original record overwritten: %+v", rec)
	}
}

func TestCollection_MalformedFileLoadsEmptyAndIsOverwritten(t *testing.T) {
	path := filepath.Join(t.TempDir(), "items.json")
	if err := os.WriteFile(path, []byte("{{{ nope"), 0o644); err != nil {
		t.Fatal(err)
	}
	c, err := Open[item](path, LayoutArray, discardLogger)
	if err != nil {
		t.Fatalf("malformed file should not fail open: %v", err)
	}
	if c.Len() != 0 {
		t.Fatalf("expected empty collection")
	}
	if err := c.Insert(item{Name: "x", Width: 1}); err != nil {
		t.Fatalf("insert: %v", err)
	}
	if err := c.Reload(); err != nil || c.Len() != 1 {
		t.Fatalf("expected file repaired by save, len=%d err=%v", c.Len(), err)
	}
}

func TestCollection_ObjectLayoutUpsertRewrites(t *testing.T) {
	c, path := openItems(t, LayoutObject)
	if err := c.Upsert(item{Name: "food_slot", Width: 5}); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if err := c.Upsert(item{Name: "food_slot", Width: 8}); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if c.Len() != 1 {
		t.Fatalf("upsert should replace, len=%d", c.Len())
	}
	data, _ := os.ReadFile(path)
	if trimmed := strings.TrimSpace(string(data)); !strings.HasPrefix(trimmed, "{") || !strings.Contains(trimmed, `"food_slot"`) {
		t.Fatalf("expected object keyed by label, got %s", data)
	}
	reopened, _ := Open[item](path, LayoutObject, discardLogger)
	if rec, ok := reopened.Get("food_slot"); !ok || rec.Width != 8 {
		t.Fatalf("unexpected record after reopen: %+v ok=%v", rec, ok)
	}
}

func TestCollection_InvalidRecordRejected(t *testing.T) {
	c, path := openItems(t, LayoutArray)
	if err := c.Insert(item{Name: "bad", Width: 0}); !errors.Is(err, ErrInvalid) {
		t.Fatalf("expected ErrInvalid, got %v", err)
	}
	if err := c.Insert(item{}); !errors.Is(err, ErrInvalid) {
		t.Fatalf("expected ErrInvalid for empty key, got %v", err)
	}
	if _, err := os.Stat(path); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("invalid insert must not create the file")
	}
}

func TestCollection_Delete(t *testing.T) {
	c, _ := openItems(t, LayoutArray)
	_ = c.Insert(item{Name: "a", Width: 1})
	_ = c.Insert(item{Name: "b", Width: 2})
	removed, err := c.Delete("a")
	if err != nil || removed.Name != "a" {
		t.Fatalf("delete: %+v %v", removed, err)
	}
	if c.Exists("a") || !c.Exists("b") {
		t.Fatalf("unexpected contents %+v", c.List())
	}
	if _, err := c.Delete("zzz"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestCollection_ListIsSnapshot(t *testing.T) {
	c, _ := openItems(t, LayoutArray)
	_ = c.Insert(item{Name: "a", Width: 1})
	snap := c.List()
	snap[0].Width = 1000
	if rec, _ := c.Get("a"); rec.Width != 1 {
		t.Fatalf("snapshot mutation leaked into collection")
	}
}

func TestCollection_NoTempFilesLeftBehind(t *testing.T) {
	c, path := openItems(t, LayoutArray)
	_ = c.Insert(item{Name: "a", Width: 1})
	entries, _ := os.ReadDir(filepath.Dir(path))
	for _, e := range entries {
		if strings.HasSuffix(e.Name(), ".tmp") {
			t.Fatalf("temp file left behind: %s", e.Name())
		}
	}
}
