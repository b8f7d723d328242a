package quiz

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// ErrUnknownQuiz is returned for a quiz name that is not in the catalog.
var ErrUnknownQuiz = errors.New("unknown quiz")

// Entry maps a quiz name shown to users to its question file.
type Entry struct {
	Name string `yaml:"name"`
	File string `yaml:"file"`
}

// DefaultEntries is the built-in catalog used when configuration lists no quizzes.
func DefaultEntries() []Entry {
	return []Entry{
		{Name: "Go basics", File: "go_basics.txt"},
		{Name: "Networking", File: "networking.txt"},
	}
}

// Catalog is the fixed, ordered set of quizzes offered to users.
type Catalog struct {
	dir     string
	entries []Entry
	byName  map[string]Entry
}

// NewCatalog validates entries and resolves relative files against dir.
func NewCatalog(dir string, entries []Entry) (*Catalog, error) {
	if len(entries) == 0 {
		return nil, errors.New("quiz catalog is empty")
	}
	c := &Catalog{dir: dir, byName: make(map[string]Entry, len(entries))}
	for i, e := range entries {
		e.Name = strings.TrimSpace(e.Name)
		e.File = strings.TrimSpace(e.File)
		if e.Name == "" || e.File == "" {
			return nil, fmt.Errorf("quiz catalog entry %d: name and file are required", i+1)
		}
		if _, dup := c.byName[e.Name]; dup {
			return nil, fmt.Errorf("quiz catalog entry %d: duplicate name %q", i+1, e.Name)
		}
		c.byName[e.Name] = e
		c.entries = append(c.entries, e)
	}
	return c, nil
}

// Names returns quiz names in catalog order.
func (c *Catalog) Names() []string {
	names := make([]string, len(c.entries))
	for i, e := range c.entries {
		names[i] = e.Name
	}
	return names
}

// Has reports whether name is an exact catalog entry.
func (c *Catalog) Has(name string) bool {
	_, ok := c.byName[name]
	return ok
}

// Path returns the question file path for name.
func (c *Catalog) Path(name string) (string, error) {
	e, ok := c.byName[name]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownQuiz, name)
	}
	if filepath.IsAbs(e.File) || c.dir == "" {
		return e.File, nil
	}
	return filepath.Join(c.dir, e.File), nil
}
