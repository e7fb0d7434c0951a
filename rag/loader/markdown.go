package loader

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BaSui01/voicerag/rag"
)

// MarkdownLoader loads Markdown files, splitting by ATX headings.
// Each heading section becomes a separate Document; content before the first
// heading forms a preamble document. A file with no headings yields one Document.
type MarkdownLoader struct{}

// NewMarkdownLoader creates a MarkdownLoader.
func NewMarkdownLoader() *MarkdownLoader {
	return &MarkdownLoader{}
}

// Load reads a Markdown file and splits it into Documents by heading.
func (l *MarkdownLoader) Load(ctx context.Context, source string) ([]rag.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f, err := os.Open(source)
	if err != nil {
		return nil, fmt.Errorf("markdown loader: %w", err)
	}
	defer f.Close()

	type section struct {
		heading string
		lines   []string
	}

	var sections []section
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Text()
		if heading := parseHeading(line); heading != "" {
			sections = append(sections, section{heading: heading})
			continue
		}
		if len(sections) == 0 {
			sections = append(sections, section{})
		}
		sections[len(sections)-1].lines = append(sections[len(sections)-1].lines, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("markdown loader: reading %s: %w", source, err)
	}

	baseName := filepath.Base(source)
	docs := make([]rag.Document, 0, len(sections))
	for i, sec := range sections {
		content := strings.TrimSpace(strings.Join(sec.lines, "\n"))
		if content == "" && sec.heading == "" {
			continue
		}
		if sec.heading != "" {
			content = sec.heading + "\n\n" + content
		}

		docs = append(docs, rag.Document{
			ID:      fmt.Sprintf("%s#%d", source, i),
			Content: content,
			Source:  baseName,
			Metadata: map[string]any{
				"content_type": "text/markdown",
				"loader":       "markdown",
				"heading":      sec.heading,
			},
		})
	}

	return docs, nil
}

// parseHeading detects ATX-style headings (# Heading) and returns the heading
// text, or "" if the line is not a heading.
func parseHeading(line string) string {
	trimmed := strings.TrimSpace(line)
	level := 0
	for _, ch := range trimmed {
		if ch != '#' {
			break
		}
		level++
	}
	if level < 1 || level > 6 {
		return ""
	}
	return strings.TrimSpace(trimmed[level:])
}

// SupportedTypes returns the extensions handled by MarkdownLoader.
func (l *MarkdownLoader) SupportedTypes() []string {
	return []string{".md"}
}
