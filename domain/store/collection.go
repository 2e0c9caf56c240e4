package store

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"sync"

	"github.com/go-playground/validator/v10"
	jsoniter "github.com/json-iterator/go"
)

var (
	// ErrDuplicate is returned by Insert when the key already exists.
	ErrDuplicate = errors.New("store: duplicate key")
	// ErrNotFound is returned when a key is absent.
	ErrNotFound = errors.New("store: not found")
	// ErrInvalid wraps record validation failures.
	ErrInvalid = errors.New("store: invalid record")
)

var (
	json     = jsoniter.ConfigCompatibleWithStandardLibrary
	validate = validator.New()
)

// Record is anything stored by key. Keys are unique within a collection.
type Record interface {
	Key() string
}

// Layout selects the JSON shape of the backing file.
type Layout int

const (
	// LayoutArray stores records as a JSON array in insertion order.
	LayoutArray Layout = iota
	// LayoutObject stores records as a JSON object keyed by Key().
	LayoutObject
)

// Collection is a JSON file of keyed records. The file is read once on Open
// and rewritten wholesale on every change. A missing or malformed file loads
// as an empty collection. Safe for concurrent use.
type Collection[T Record] struct {
	path   string
	layout Layout
	logger *slog.Logger

	mu    sync.RWMutex
	items []T
}

// Open loads the collection at path. Read errors other than a missing or
// malformed file are returned.
func Open[T Record](path string, layout Layout, logger *slog.Logger) (*Collection[T], error) {
	c := &Collection[T]{path: path, layout: layout, logger: logger}
	if err := c.Reload(); err != nil {
		return nil, err
	}
	return c, nil
}

// Path returns the backing file.
func (c *Collection[T]) Path() string { return c.path }

// Reload re-reads the backing file, discarding in-memory state.
func (c *Collection[T]) Reload() error {
	items, err := c.read()
	if err != nil {
		return err
	}
	c.mu.Lock()
	c.items = items
	c.mu.Unlock()
	return nil
}

func (c *Collection[T]) read() ([]T, error) {
	data, err := os.ReadFile(c.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("store: read %s: %w", c.path, err)
	}
	if len(data) == 0 {
		return nil, nil
	}
	var items []T
	switch c.layout {
	case LayoutObject:
		var m map[string]T
		if err := json.Unmarshal(data, &m); err != nil {
			c.warnMalformed(err)
			return nil, nil
		}
		keys := make([]string, 0, len(m))
		for k := range m {
			keys = append(keys, k)
		}
		slices.Sort(keys)
		for _, k := range keys {
			items = append(items, m[k])
		}
	default:
		if err := json.Unmarshal(data, &items); err != nil {
			c.warnMalformed(err)
			return nil, nil
		}
	}
	return items, nil
}

func (c *Collection[T]) warnMalformed(err error) {
	if c.logger != nil {
		c.logger.Warn("malformed store file, treating as empty", "path", c.path, "error", err)
	}
}

// List returns a snapshot of all records.
func (c *Collection[T]) List() []T {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]T, len(c.items))
	copy(out, c.items)
	return out
}

// Len reports the number of records.
func (c *Collection[T]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

// Get looks a record up by key.
func (c *Collection[T]) Get(key string) (T, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if i := c.index(key); i >= 0 {
		return c.items[i], true
	}
	var zero T
	return zero, false
}

// Exists reports whether key is present.
func (c *Collection[T]) Exists(key string) bool {
	_, ok := c.Get(key)
	return ok
}

// Insert appends rec if its key is new. A duplicate leaves the collection
// and the file unchanged and returns ErrDuplicate.
func (c *Collection[T]) Insert(rec T) error {
	if err := check(rec); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.index(rec.Key()) >= 0 {
		return fmt.Errorf("%w: %q", ErrDuplicate, rec.Key())
	}
	next := append(c.cloneLocked(), rec)
	return c.commitLocked(next)
}

// Upsert replaces the record with the same key or appends a new one.
func (c *Collection[T]) Upsert(rec T) error {
	if err := check(rec); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	next := c.cloneLocked()
	if i := c.index(rec.Key()); i >= 0 {
		next[i] = rec
	} else {
		next = append(next, rec)
	}
	return c.commitLocked(next)
}

// Delete removes the record with key and returns it.
func (c *Collection[T]) Delete(key string) (T, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	var zero T
	i := c.index(key)
	if i < 0 {
		return zero, fmt.Errorf("%w: %q", ErrNotFound, key)
	}
	removed := c.items[i]
	next := c.cloneLocked()
	next = append(next[:i], next[i+1:]...)
	if err := c.commitLocked(next); err != nil {
		return zero, err
	}
	return removed, nil
}

func (c *Collection[T]) index(key string) int {
	for i, it := range c.items {
		if it.Key() == key {
			return i
		}
	}
	return -1
}

func (c *Collection[T]) cloneLocked() []T {
	out := make([]T, len(c.items), len(c.items)+1)
	copy(out, c.items)
	return out
}

// commitLocked persists next and only then swaps it in.
func (c *Collection[T]) commitLocked(next []T) error {
	if err := c.write(next); err != nil {
		return err
	}
	c.items = next
	return nil
}

func (c *Collection[T]) write(items []T) error {
	var payload any
	switch c.layout {
	case LayoutObject:
		m := make(map[string]T, len(items))
		for _, it := range items {
			m[it.Key()] = it
		}
		payload = m
	default:
		if items == nil {
			items = []T{}
		}
		payload = items
	}
	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return fmt.Errorf("store: encode %s: %w", c.path, err)
	}
	return writeAtomic(c.path, data)
}

// writeAtomic writes data to a temp file beside path and renames it over path.
func writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("store: mkdir %s: %w", dir, err)
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("store: temp file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(append(data, '\n')); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("store: write %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("store: close %s: %w", path, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("store: replace %s: %w", path, err)
	}
	return nil
}

func check[T Record](rec T) error {
	if rec.Key() == "" {
		return fmt.Errorf("%w: empty key", ErrInvalid)
	}
	if err := validate.Struct(rec); err != nil {
		var inv *validator.InvalidValidationError
		if errors.As(err, &inv) {
			return nil
		}
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	return nil
}
