// Package templates provides a hot-reloadable set of named HTML templates.
//
// Renders share a read lock and run concurrently. A reload parses the
// source tree into a fresh set without holding the lock, then swaps it in
// under the write lock, so readers only ever see a complete set and a
// failed reload leaves the previous set in place.
package templates

import (
	"bytes"
	"context"
	"html/template"
	"io/fs"
	"maps"
	"os"
	"path"
	"slices"
	"strings"
	"sync"

	"github.com/wolfeidau/sensordash/internal/telemetry"
)

// DefaultExtensions are the file extensions loaded as templates.
var DefaultExtensions = []string{".html", ".tmpl"}

// Context holds the bindings a template is rendered with.
type Context map[string]any

// Option configures a Store.
type Option func(*Store)

// WithFuncs merges custom functions into the default FuncMap.
func WithFuncs(funcs template.FuncMap) Option {
	return func(s *Store) {
		maps.Copy(s.funcs, funcs)
	}
}

// WithExtensions replaces the set of file extensions treated as templates.
func WithExtensions(exts ...string) Option {
	return func(s *Store) {
		s.exts = exts
	}
}

// Store is a named collection of templates loaded from a filesystem.
type Store struct {
	fsys    fs.FS
	funcs   template.FuncMap
	exts    []string
	metrics *telemetry.Metrics

	mu    sync.RWMutex // guards set and names
	set   *template.Template
	names []string

	reloadMu sync.Mutex // serializes reloads
}

// NewFromDir loads every template below dir.
func NewFromDir(dir string, opts ...Option) (*Store, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, &ParseError{File: dir, Err: err}
	}
	if !info.IsDir() {
		return nil, &ParseError{File: dir, Err: fs.ErrInvalid}
	}
	return New(os.DirFS(dir), opts...)
}

// New loads every template in fsys. Templates are named by their slash separated
// path relative to the root, e.g. "dashboard.html" or "partials/header.html".
func New(fsys fs.FS, opts ...Option) (*Store, error) {
	s := &Store{
		fsys:    fsys,
		funcs:   defaultFuncs(),
		exts:    DefaultExtensions,
		metrics: telemetry.GetMetrics(),
	}

	for _, opt := range opts {
		opt(s)
	}

	set, names, err := s.parse()
	if err != nil {
		return nil, err
	}
	s.set, s.names = set, names

	return s, nil
}

// Render executes the named template with the given bindings.
//
// A template referencing a binding that is absent from data fails rather than
// rendering "<no value>". Output is buffered so a failure never yields partial output.
func (s *Store) Render(name string, data Context) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.set.Lookup(name) == nil {
		return "", s.renderFailed(&RenderError{Name: name, Err: ErrTemplateNotFound})
	}

	var buf bytes.Buffer
	if err := s.set.ExecuteTemplate(&buf, name, data); err != nil {
		return "", s.renderFailed(&RenderError{Name: name, Err: err})
	}

	return buf.String(), nil
}

// Reload re-reads the template sources and atomically replaces the current set.
// On error the current set is kept and a *ParseError is returned.
func (s *Store) Reload() error {
	s.reloadMu.Lock()
	defer s.reloadMu.Unlock()

	set, names, err := s.parse()
	if err != nil {
		s.metrics.TemplateReloadErrorsTotal.Add(context.Background(), 1)
		return err
	}

	s.mu.Lock()
	s.set, s.names = set, names
	s.mu.Unlock()

	s.metrics.TemplateReloadsTotal.Add(context.Background(), 1)
	return nil
}

// Names returns the sorted names of all loaded template files.
func (s *Store) Names() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return slices.Clone(s.names)
}

func (s *Store) renderFailed(err *RenderError) error {
	s.metrics.TemplateRenderErrorsTotal.Add(context.Background(), 1)
	return err
}

// parse builds a complete template set from the filesystem without touching s.set.
func (s *Store) parse() (*template.Template, []string, error) {
	root := template.New("").Funcs(s.funcs).Option("missingkey=error")

	var names []string
	err := fs.WalkDir(s.fsys, ".", func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return &ParseError{File: p, Err: err}
		}
		if p != "." && strings.HasPrefix(d.Name(), ".") {
			if d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if d.IsDir() || !slices.Contains(s.exts, path.Ext(p)) {
			return nil
		}

		content, err := fs.ReadFile(s.fsys, p)
		if err != nil {
			return &ParseError{File: p, Err: err}
		}

		if _, err := root.New(p).Parse(string(content)); err != nil {
			return &ParseError{File: p, Err: err}
		}

		names = append(names, p)
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	slices.Sort(names)
	return root, names, nil
}
