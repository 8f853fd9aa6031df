// Package store persists named, versioned template documents on disk and
// publishes saved designs to client targets.
//
// Each template name is a directory; each save is a new immutable version
// file inside it, named <unix-nanos>-<version-id>.json and holding the
// document's flattened JSON form. Load always resolves the newest version and
// merges it onto the built-in defaults, so a template saved by an older
// release still loads with the current element set.
package store

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	gocache "github.com/patrickmn/go-cache"

	billforge "github.com/medira/billforge"
)

// Version describes one saved revision of a template.
type Version struct {
	ID      string
	Name    string
	SavedAt time.Time
}

// Store is a directory-backed template store with an in-memory read cache.
// All methods are safe for concurrent use.
type Store struct {
	dir   string
	cache *gocache.Cache
}

// Open creates a Store rooted at dir, creating the directory if needed.
func Open(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, &billforge.Error{Op: "Open", Err: err}
	}
	return &Store{
		dir:   dir,
		cache: gocache.New(5*time.Minute, 10*time.Minute),
	}, nil
}

// Save writes doc as a new version of the named template and returns the
// version descriptor. The version file is written to a temp file first and
// renamed into place.
func (s *Store) Save(name string, doc *billforge.TemplateDocument) (Version, error) {
	if err := validName(name); err != nil {
		return Version{}, &billforge.Error{Op: "Save", Err: err}
	}
	data, err := doc.MarshalJSON()
	if err != nil {
		return Version{}, &billforge.Error{Op: "Save", Err: err}
	}

	dir := filepath.Join(s.dir, name)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return Version{}, &billforge.Error{Op: "Save", Err: err}
	}

	v := Version{
		ID:      strings.ReplaceAll(uuid.NewString(), "-", "")[:12],
		Name:    name,
		SavedAt: time.Now(),
	}
	final := filepath.Join(dir, fmt.Sprintf("%d-%s.json", v.SavedAt.UnixNano(), v.ID))

	tmp, err := os.CreateTemp(dir, ".save-*")
	if err != nil {
		return Version{}, &billforge.Error{Op: "Save", Err: err}
	}
	_, werr := tmp.Write(data)
	cerr := tmp.Close()
	if werr == nil {
		werr = cerr
	}
	if werr != nil {
		os.Remove(tmp.Name())
		return Version{}, &billforge.Error{Op: "Save", Err: werr}
	}
	if err := os.Rename(tmp.Name(), final); err != nil {
		os.Remove(tmp.Name())
		return Version{}, &billforge.Error{Op: "Save", Err: err}
	}

	s.cache.Delete(name)
	return v, nil
}

// Load returns the newest version of the named template merged onto the
// built-in defaults. A corrupt version file degrades to the defaults; only a
// template that was never saved is an error.
func (s *Store) Load(name string) (*billforge.TemplateDocument, error) {
	if cached, ok := s.cache.Get(name); ok {
		return cached.(*billforge.TemplateDocument).Clone(), nil
	}

	versions, err := s.Versions(name)
	if err != nil {
		return nil, err
	}
	doc, err := s.read(name, versions[len(versions)-1])
	if err != nil {
		return nil, err
	}
	s.cache.Set(name, doc.Clone(), gocache.DefaultExpiration)
	return doc, nil
}

// LoadVersion returns one specific saved version of the named template.
func (s *Store) LoadVersion(name, versionID string) (*billforge.TemplateDocument, error) {
	versions, err := s.Versions(name)
	if err != nil {
		return nil, err
	}
	for _, v := range versions {
		if v.ID == versionID {
			return s.read(name, v)
		}
	}
	return nil, &billforge.Error{Op: "LoadVersion",
		Err: fmt.Errorf("%w: %s@%s", billforge.ErrVersionNotFound, name, versionID)}
}

func (s *Store) read(name string, v Version) (*billforge.TemplateDocument, error) {
	data, err := os.ReadFile(s.versionPath(name, v))
	if err != nil {
		return nil, &billforge.Error{Op: "Load", Err: err}
	}
	return billforge.FromJSON(data), nil
}

// List returns the names of all saved templates, sorted.
func (s *Store) List() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, &billforge.Error{Op: "List", Err: err}
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}

// Versions returns all saved versions of the named template, oldest first.
func (s *Store) Versions(name string) ([]Version, error) {
	if err := validName(name); err != nil {
		return nil, &billforge.Error{Op: "Versions", Err: err}
	}
	entries, err := os.ReadDir(filepath.Join(s.dir, name))
	if err != nil {
		return nil, &billforge.Error{Op: "Versions",
			Err: fmt.Errorf("%w: %q", billforge.ErrTemplateNotFound, name)}
	}

	var versions []Version
	for _, e := range entries {
		v, ok := parseVersionFile(e.Name())
		if !ok {
			continue
		}
		v.Name = name
		versions = append(versions, v)
	}
	if len(versions) == 0 {
		return nil, &billforge.Error{Op: "Versions",
			Err: fmt.Errorf("%w: %q", billforge.ErrTemplateNotFound, name)}
	}
	sort.Slice(versions, func(i, j int) bool {
		if versions[i].SavedAt.Equal(versions[j].SavedAt) {
			return versions[i].ID < versions[j].ID
		}
		return versions[i].SavedAt.Before(versions[j].SavedAt)
	})
	return versions, nil
}

// Delete removes the named template and every saved version of it.
func (s *Store) Delete(name string) error {
	if err := validName(name); err != nil {
		return &billforge.Error{Op: "Delete", Err: err}
	}
	dir := filepath.Join(s.dir, name)
	if _, err := os.Stat(dir); err != nil {
		return &billforge.Error{Op: "Delete",
			Err: fmt.Errorf("%w: %q", billforge.ErrTemplateNotFound, name)}
	}
	if err := os.RemoveAll(dir); err != nil {
		return &billforge.Error{Op: "Delete", Err: err}
	}
	s.cache.Delete(name)
	return nil
}

func (s *Store) versionPath(name string, v Version) string {
	return filepath.Join(s.dir, name, fmt.Sprintf("%d-%s.json", v.SavedAt.UnixNano(), v.ID))
}

// parseVersionFile decodes "<unix-nanos>-<id>.json" into a Version.
func parseVersionFile(filename string) (Version, bool) {
	base, ok := strings.CutSuffix(filename, ".json")
	if !ok {
		return Version{}, false
	}
	ts, id, ok := strings.Cut(base, "-")
	if !ok || id == "" {
		return Version{}, false
	}
	var nanos int64
	if _, err := fmt.Sscanf(ts, "%d", &nanos); err != nil {
		return Version{}, false
	}
	return Version{ID: id, SavedAt: time.Unix(0, nanos)}, true
}

// validName rejects empty names and names that could escape the store root.
func validName(name string) error {
	if name == "" || strings.ContainsAny(name, `/\`) || name == "." || name == ".." {
		return fmt.Errorf("invalid template name %q", name)
	}
	return nil
}
