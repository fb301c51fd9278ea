// Package sourceindex loads a codebase into memory so stack frames can be
// resolved against it.
//
// An Index is built once and never mutated afterwards, so it can be shared
// by concurrent analyses without locking.
package sourceindex

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/fidde/rootcause/pkg/models"
)

// ErrNotDirectory is returned when the root exists but is not a directory.
var ErrNotDirectory = errors.New("codebase root is not a directory")

// DefaultExtensions are indexed when no WithExtensions option is given.
var DefaultExtensions = []string{".py"}

// Index is an immutable cache of source files keyed by project-relative path.
type Index struct {
	root    string
	keyBase string
	files   map[string]models.SourceFile
	paths   []string
}

type options struct {
	extensions []string
	keyBase    string
	logger     *slog.Logger
}

// Option configures New.
type Option func(*options)

// WithExtensions sets the file extensions to index, e.g. ".py".
func WithExtensions(exts ...string) Option {
	return func(o *options) {
		o.extensions = exts
	}
}

// WithKeyBase sets the directory keys are made relative to. By default it is
// two levels above the root, so a root of "dummy_data/codebase" yields keys
// like "dummy_data/codebase/app.py".
func WithKeyBase(dir string) Option {
	return func(o *options) {
		o.keyBase = dir
	}
}

// WithLogger sets the logger used during loading.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

// New walks root and loads every matching file.
//
// A missing root yields an empty index. A root that is not a directory, or a
// file that cannot be read, is returned as an error.
func New(root string, opts ...Option) (*Index, error) {
	o := options{
		extensions: DefaultExtensions,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(&o)
	}

	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolving codebase root: %w", err)
	}

	keyBase := o.keyBase
	if keyBase == "" {
		keyBase = filepath.Dir(filepath.Dir(absRoot))
	} else if keyBase, err = filepath.Abs(keyBase); err != nil {
		return nil, fmt.Errorf("resolving key base: %w", err)
	}

	idx := &Index{
		root:    absRoot,
		keyBase: keyBase,
		files:   make(map[string]models.SourceFile),
	}

	info, err := os.Stat(absRoot)
	if errors.Is(err, fs.ErrNotExist) {
		o.logger.Warn("Codebase root does not exist, using empty index", "root", absRoot)
		return idx, nil
	}
	if err != nil {
		return nil, fmt.Errorf("stat codebase root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s: %w", absRoot, ErrNotDirectory)
	}

	exts := make(map[string]bool, len(o.extensions))
	for _, ext := range o.extensions {
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		exts[ext] = true
	}

	err = filepath.WalkDir(absRoot, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() || !exts[filepath.Ext(path)] {
			return nil
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("reading %s: %w", path, err)
		}

		rel, err := filepath.Rel(keyBase, path)
		if err != nil {
			return fmt.Errorf("relativizing %s: %w", path, err)
		}
		key := filepath.ToSlash(rel)

		content := string(data)
		idx.files[key] = models.SourceFile{
			Path:    key,
			Content: content,
			Lines:   splitLines(content),
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("loading codebase: %w", err)
	}

	idx.paths = make([]string, 0, len(idx.files))
	for key := range idx.files {
		idx.paths = append(idx.paths, key)
	}
	sort.Strings(idx.paths)

	o.logger.Info("Codebase indexed", "root", absRoot, "files", len(idx.paths))
	return idx, nil
}

// splitLines splits like a line reader: a trailing terminator does not start
// an extra empty line, and "\r\n" endings are stripped.
func splitLines(content string) []string {
	if content == "" {
		return nil
	}
	content = strings.TrimSuffix(content, "\n")
	lines := strings.Split(content, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimSuffix(l, "\r")
	}
	return lines
}

// Root returns the absolute codebase root.
func (i *Index) Root() string {
	return i.root
}

// Lookup returns the file stored under path.
func (i *Index) Lookup(path string) (models.SourceFile, bool) {
	f, ok := i.files[path]
	return f, ok
}

// Content returns the full text of path.
func (i *Index) Content(path string) (string, bool) {
	f, ok := i.files[path]
	if !ok {
		return "", false
	}
	return f.Content, true
}

// Lines returns the lines of path. The slice is shared and must not be modified.
func (i *Index) Lines(path string) ([]string, bool) {
	f, ok := i.files[path]
	if !ok {
		return nil, false
	}
	return f.Lines, true
}

// Paths returns all keys in sorted order.
func (i *Index) Paths() []string {
	out := make([]string, len(i.paths))
	copy(out, i.paths)
	return out
}

// Len returns the number of indexed files.
func (i *Index) Len() int {
	return len(i.paths)
}
