package templates

import (
	"errors"
	"fmt"
	"image"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/disintegration/imaging"
	"github.com/dustin/go-humanize"
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/soocke/food-helper-go/config"
	"github.com/soocke/food-helper-go/domain/store"
)

// ErrNoImage is returned when Save is called without pixels.
var ErrNoImage = errors.New("templates: no image")

// SaveRequest describes a new template. Name is optional; when empty it is
// derived from Label.
type SaveRequest struct {
	Category Category
	Label    string
	Name     string
	Rect     image.Rectangle // screen coordinates
	Image    image.Image
}

// Service owns the template collections and their PNG files.
type Service struct {
	logger    *slog.Logger
	dirs      map[Category]string
	cols      map[Category]*store.Collection[Template]
	blackDir  string
	blacklist *store.Collection[blacklistEntry]
	images    *lru.Cache[string, image.Image]
}

// NewService opens the food, effects and blacklist collections under paths.
func NewService(paths config.Paths, cacheSize int, logger *slog.Logger) (*Service, error) {
	if cacheSize <= 0 {
		cacheSize = 32
	}
	cache, err := lru.New[string, image.Image](cacheSize)
	if err != nil {
		return nil, err
	}
	s := &Service{
		logger: logger,
		dirs: map[Category]string{
			CategoryFood:    paths.Food,
			CategoryEffects: paths.Effects,
		},
		cols:     make(map[Category]*store.Collection[Template]),
		blackDir: paths.Blacklist,
		images:   cache,
	}
	files := map[Category]string{
		CategoryFood:    filepath.Join(paths.Food, "food_templates.json"),
		CategoryEffects: filepath.Join(paths.Effects, "region_templates.json"),
	}
	for cat, file := range files {
		col, err := store.Open[Template](file, store.LayoutArray, logger)
		if err != nil {
			return nil, err
		}
		s.cols[cat] = col
	}
	s.blacklist, err = store.Open[blacklistEntry](filepath.Join(paths.Blacklist, "blacklist.json"), store.LayoutArray, logger)
	if err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Service) col(cat Category) (*store.Collection[Template], error) {
	c, ok := s.cols[cat]
	if !ok {
		return nil, fmt.Errorf("templates: unknown category %q", cat)
	}
	return c, nil
}

// List returns a snapshot of the templates in cat.
func (s *Service) List(cat Category) []Template {
	c, err := s.col(cat)
	if err != nil {
		return nil
	}
	return c.List()
}

// Get returns the template called name.
func (s *Service) Get(cat Category, name string) (Template, bool) {
	c, err := s.col(cat)
	if err != nil {
		return Template{}, false
	}
	return c.Get(name)
}

// Exists reports whether name is taken in cat.
func (s *Service) Exists(cat Category, name string) bool {
	_, ok := s.Get(cat, name)
	return ok
}

// Latest returns the most recently saved template in cat.
func (s *Service) Latest(cat Category) (Template, bool) {
	list := s.List(cat)
	if len(list) == 0 {
		return Template{}, false
	}
	return list[len(list)-1], true
}

// Save writes the PNG and appends the record. A taken name returns
// store.ErrDuplicate and touches nothing on disk.
func (s *Service) Save(req SaveRequest) (Template, error) {
	c, err := s.col(req.Category)
	if err != nil {
		return Template{}, err
	}
	if req.Image == nil || req.Image.Bounds().Empty() {
		return Template{}, ErrNoImage
	}
	w, h := req.Rect.Dx(), req.Rect.Dy()
	if w <= 0 || h <= 0 {
		w, h = req.Image.Bounds().Dx(), req.Image.Bounds().Dy()
	}
	t := Template{X: req.Rect.Min.X, Y: req.Rect.Min.Y, Width: w, Height: h, Label: req.Label}
	if req.Name != "" {
		t.Name = SafeName(req.Name)
		t.File = NamedFileName(req.Name)
	} else {
		t.Name = SafeName(req.Label)
		t.File = FileName(req.Category, req.Label, w, h)
	}
	if t.Label == "" {
		t.Label = t.Name
	}
	if c.Exists(t.Name) {
		if s.logger != nil {
			s.logger.Warn("template name already exists", "category", req.Category, "name", t.Name)
		}
		return Template{}, fmt.Errorf("templates: %w: %q", store.ErrDuplicate, t.Name)
	}
	path := filepath.Join(s.dirs[req.Category], t.File)
	if s.fileTaken(c, t.File, path) {
		if s.logger != nil {
			s.logger.Warn("template file already in use", "category", req.Category, "name", t.Name, "file", t.File)
		}
		return Template{}, fmt.Errorf("templates: %w: file %q", store.ErrDuplicate, t.File)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return Template{}, err
	}
	if err := imaging.Save(req.Image, path); err != nil {
		return Template{}, fmt.Errorf("templates: write %s: %w", path, err)
	}
	if err := c.Insert(t); err != nil {
		_ = os.Remove(path)
		return Template{}, err
	}
	s.images.Remove(cacheKey(req.Category, t.Name))
	if s.logger != nil {
		size := int64(0)
		if st, err := os.Stat(path); err == nil {
			size = st.Size()
		}
		s.logger.Info("template saved", "category", req.Category, "name", t.Name, "file", t.File, "size", humanize.Bytes(uint64(size)))
	}
	return t, nil
}

// Image loads the PNG for a template, caching decoded images.
func (s *Service) Image(cat Category, name string) (image.Image, error) {
	key := cacheKey(cat, name)
	if img, ok := s.images.Get(key); ok {
		return img, nil
	}
	t, ok := s.Get(cat, name)
	if !ok {
		return nil, fmt.Errorf("templates: %w: %q", store.ErrNotFound, name)
	}
	img, err := imaging.Open(s.Path(cat, t))
	if err != nil {
		return nil, fmt.Errorf("templates: open %s: %w", t.File, err)
	}
	s.images.Add(key, img)
	return img, nil
}

// Path returns the PNG location of t.
func (s *Service) Path(cat Category, t Template) string {
	return filepath.Join(s.dirs[cat], t.File)
}

// Blacklist removes name from cat and moves its PNG into the blacklist dir.
// The PNG is moved back when a store write fails, so the live record never
// points at a missing file.
func (s *Service) Blacklist(cat Category, name string) error {
	c, err := s.col(cat)
	if err != nil {
		return err
	}
	t, ok := c.Get(name)
	if !ok {
		return fmt.Errorf("templates: %w: %q", store.ErrNotFound, name)
	}
	if err := os.MkdirAll(s.blackDir, 0o755); err != nil {
		return err
	}
	src := s.Path(cat, t)
	dst := filepath.Join(s.blackDir, t.File)
	moved := true
	if err := os.Rename(src, dst); err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("templates: move %s: %w", t.File, err)
		}
		moved = false
	}
	entry := blacklistEntry{Template: t, Category: cat}
	prev, hadPrev := s.blacklist.Get(entry.Key())
	if err := s.blacklist.Upsert(entry); err != nil {
		s.restore(moved, dst, src)
		return err
	}
	if _, err := c.Delete(name); err != nil {
		var rerr error
		if hadPrev {
			rerr = s.blacklist.Upsert(prev)
		} else {
			_, rerr = s.blacklist.Delete(entry.Key())
		}
		if rerr != nil && s.logger != nil {
			s.logger.Warn("blacklist rollback failed", "category", cat, "name", name, "error", rerr)
		}
		s.restore(moved, dst, src)
		return err
	}
	s.images.Remove(cacheKey(cat, name))
	if s.logger != nil {
		s.logger.Info("template blacklisted", "category", cat, "name", name)
	}
	return nil
}

func (s *Service) restore(moved bool, from, to string) {
	if !moved {
		return
	}
	if err := os.Rename(from, to); err != nil && s.logger != nil {
		s.logger.Error("template file not restored", "file", to, "error", err)
	}
}

// fileTaken reports whether file is referenced by a record in c or already
// present on disk.
func (s *Service) fileTaken(c *store.Collection[Template], file, path string) bool {
	for _, t := range c.List() {
		if t.File == file {
			return true
		}
	}
	_, err := os.Stat(path)
	return err == nil
}

// Blacklisted returns the names removed from cat.
func (s *Service) Blacklisted(cat Category) []Template {
	var out []Template
	for _, e := range s.blacklist.List() {
		if e.Category == cat {
			out = append(out, e.Template)
		}
	}
	return out
}

func cacheKey(cat Category, name string) string { return string(cat) + "/" + name }
