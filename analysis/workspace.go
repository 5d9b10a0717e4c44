// Copyright © 2024 The ELPS authors

package analysis

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/sgranade/twine-twee-language-sub001/events"
	"github.com/sgranade/twine-twee-language-sub001/sugarcube"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"
)

// TweeExtensions are the file extensions of Twee documents.
var TweeExtensions = []string{".tw", ".twee"}

// IsTweeFile reports whether path names a Twee document.
func IsTweeFile(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range TweeExtensions {
		if ext == e {
			return true
		}
	}
	return false
}

// Location is a span of a document in the workspace.
type Location struct {
	URI   string
	Start int
	End   int
}

// Workspace indexes analysis results by document URI.  It is safe for
// concurrent use.
type Workspace struct {
	mu      sync.RWMutex
	results map[string]*Result
}

// NewWorkspace returns an empty workspace.
func NewWorkspace() *Workspace {
	return &Workspace{results: make(map[string]*Result)}
}

// Update stores r, replacing any earlier result for the same URI.
func (w *Workspace) Update(r *Result) {
	w.mu.Lock()
	w.results[r.URI] = r
	w.mu.Unlock()
}

// Remove forgets the document uri.
func (w *Workspace) Remove(uri string) {
	w.mu.Lock()
	delete(w.results, uri)
	w.mu.Unlock()
}

// Get returns the result for uri, or nil.
func (w *Workspace) Get(uri string) *Result {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.results[uri]
}

// URIs returns the sorted URIs of all indexed documents.
func (w *Workspace) URIs() []string {
	w.mu.RLock()
	defer w.mu.RUnlock()
	uris := make([]string, 0, len(w.results))
	for uri := range w.results {
		uris = append(uris, uri)
	}
	sort.Strings(uris)
	return uris
}

// each calls fn with every result in URI order.
func (w *Workspace) each(fn func(r *Result)) {
	for _, uri := range w.URIs() {
		if r := w.Get(uri); r != nil {
			fn(r)
		}
	}
}

// PassageDefinitions returns the headers of passages named name.
func (w *Workspace) PassageDefinitions(name string) []Location {
	var locs []Location
	w.each(func(r *Result) {
		for _, p := range r.Passages {
			if p.Name == name {
				locs = append(locs, Location{URI: r.URI, Start: p.NameAt, End: p.NameEnd})
			}
		}
	})
	return locs
}

// PassageNames returns the sorted, distinct names of all passages.
func (w *Workspace) PassageNames() []string {
	seen := make(map[string]bool)
	var names []string
	w.each(func(r *Result) {
		for _, p := range r.Passages {
			if p.Name != "" && !seen[p.Name] {
				seen[p.Name] = true
				names = append(names, p.Name)
			}
		}
	})
	sort.Strings(names)
	return names
}

// SymbolNames returns the sorted, distinct names referenced with the
// given kind.
func (w *Workspace) SymbolNames(kind events.SymbolKind) []string {
	seen := make(map[string]bool)
	var names []string
	w.each(func(r *Result) {
		for _, ref := range r.References {
			if ref.Kind == kind && !seen[ref.Contents] {
				seen[ref.Contents] = true
				names = append(names, ref.Contents)
			}
		}
	})
	sort.Strings(names)
	return names
}

// References returns every reference of the given kind to name.
// Properties are matched on their full contents, such as "$hero.hp".
func (w *Workspace) References(kind events.SymbolKind, name string) []Location {
	var locs []Location
	w.each(func(r *Result) {
		for _, ref := range r.References {
			if ref.Kind != kind || ref.Contents != name {
				continue
			}
			locs = append(locs, Location{URI: r.URI, Start: ref.At, End: RefEnd(ref)})
		}
	})
	return locs
}

// RefEnd returns the end of ref in the document.  A property reference
// starts at the property name, after its scope.
func RefEnd(ref events.SymbolRef) int {
	if ref.Kind == events.KindProperty {
		if i := strings.LastIndexByte(ref.Contents, '.'); i >= 0 {
			return ref.At + len(ref.Contents) - i - 1
		}
	}
	return ref.End()
}

// Widgets returns the widget macros defined anywhere in the workspace.
func (w *Workspace) Widgets() []*sugarcube.MacroInfo {
	var widgets []*sugarcube.MacroInfo
	w.each(func(r *Result) {
		widgets = append(widgets, r.Widgets...)
	})
	return widgets
}

// ScanWorkspace analyzes every Twee document below root.  Hidden
// directories and node_modules are skipped.  Files are analyzed
// concurrently; unreadable files are skipped.
func ScanWorkspace(ctx context.Context, root string, cfg *Config) (*Workspace, error) {
	ctx, span := otel.Tracer(TracerName).Start(ctx, "analysis.ScanWorkspace")
	defer span.End()

	paths, err := FindTweeFiles(root)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	span.SetAttributes(attribute.Int("twee.files", len(paths)))

	ws := NewWorkspace()
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(8)
	for _, path := range paths {
		g.Go(func() error {
			src, err := os.ReadFile(path) //nolint:gosec // the workspace is chosen by the user
			if err != nil {
				return nil
			}
			res, err := Analyze(gctx, PathURI(path), string(src), cfg)
			if err != nil {
				return err
			}
			ws.Update(res)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		span.RecordError(err)
		return nil, err
	}
	return ws, nil
}

// FindTweeFiles returns the sorted paths of Twee documents below root.
func FindTweeFiles(root string) ([]string, error) {
	return FindFiles(root, IsTweeFile)
}

// FindFiles returns the sorted paths of the files below root for which
// match is true.  Hidden directories and node_modules are skipped.
func FindFiles(root string, match func(path string) bool) ([]string, error) {
	var paths []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			if path != root && ShouldSkipDir(d.Name()) {
				return filepath.SkipDir
			}
			return nil
		}
		if match(path) {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(paths)
	return paths, nil
}

// ShouldSkipDir reports whether a directory should not be walked: hidden
// directories, such as .git, and node_modules.
func ShouldSkipDir(name string) bool {
	if name == "." || name == ".." {
		return false
	}
	return strings.HasPrefix(name, ".") || name == "node_modules"
}

// PathURI converts a filesystem path to a file:// URI.
func PathURI(path string) string {
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	return "file://" + filepath.ToSlash(path)
}

// URIPath converts a file:// URI to a filesystem path.
func URIPath(uri string) string {
	if path, ok := strings.CutPrefix(uri, "file://"); ok {
		return filepath.FromSlash(path)
	}
	return uri
}
