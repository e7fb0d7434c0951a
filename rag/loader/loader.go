// Package loader provides a unified DocumentLoader interface and file loaders
// for knowledge base ingestion.
//
// It bridges raw source files and the rag.Document type consumed by the
// chunker and vector store. Use Registry to route loading by file extension:
//
//	registry := loader.NewRegistry()
//	docs, err := registry.Load(ctx, "/path/to/notes.md")
//
// Files with unregistered extensions are not loadable; ingestion silently
// skips them.
package loader

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/BaSui01/voicerag/rag"
)

// DocumentLoader is the unified interface for loading documents from a source file.
type DocumentLoader interface {
	// Load reads the source file and returns documents.
	Load(ctx context.Context, source string) ([]rag.Document, error)

	// SupportedTypes returns the file extensions this loader handles (e.g. ".txt", ".md").
	SupportedTypes() []string
}

// Registry routes Load calls to the appropriate DocumentLoader based on file extension.
type Registry struct {
	loaders map[string]DocumentLoader // extension (lowercase, with dot) -> loader
}

// NewRegistry creates a registry pre-populated with the built-in loaders.
func NewRegistry() *Registry {
	r := &Registry{
		loaders: make(map[string]DocumentLoader),
	}

	builtins := []DocumentLoader{
		NewTextLoader(),
		NewMarkdownLoader(),
	}
	for _, l := range builtins {
		for _, ext := range l.SupportedTypes() {
			r.loaders[strings.ToLower(ext)] = l
		}
	}

	return r
}

// Register adds or replaces a loader for the given file extension.
// ext should include the leading dot (e.g. ".docx").
func (r *Registry) Register(ext string, loader DocumentLoader) {
	r.loaders[strings.ToLower(ext)] = loader
}

// Supports reports whether a loader is registered for the source's extension.
func (r *Registry) Supports(source string) bool {
	_, ok := r.loaders[strings.ToLower(filepath.Ext(source))]
	return ok
}

// Load determines the loader from the source's file extension and delegates to it.
func (r *Registry) Load(ctx context.Context, source string) ([]rag.Document, error) {
	ext := strings.ToLower(filepath.Ext(source))
	if ext == "" {
		return nil, fmt.Errorf("loader: cannot determine file type for %q (no extension)", source)
	}

	l, ok := r.loaders[ext]
	if !ok {
		return nil, fmt.Errorf("loader: no loader registered for extension %q", ext)
	}

	return l.Load(ctx, source)
}

// SupportedTypes returns all registered extensions, sorted.
func (r *Registry) SupportedTypes() []string {
	exts := make([]string, 0, len(r.loaders))
	for ext := range r.loaders {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return exts
}
