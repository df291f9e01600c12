package exporters

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"

	"github.com/mrlokans/notebooksync/internal/entities"
)

const contentSource = "kindle_notebook"

// MarkdownExporter writes one markdown note per catalog item into a directory.
type MarkdownExporter struct {
	exportDir string
	logger    zerolog.Logger
}

func NewMarkdownExporter(exportDir string, logger zerolog.Logger) *MarkdownExporter {
	return &MarkdownExporter{
		exportDir: exportDir,
		logger:    logger.With().Str("component", "markdown").Logger(),
	}
}

// GenerateMarkdown renders an item with YAML frontmatter followed by its
// highlights in source order.
func GenerateMarkdown(item entities.LibraryItem) string {
	var builder strings.Builder

	fmt.Fprintf(&builder, "---\n")
	fmt.Fprintf(&builder, "content_source: %s\n", contentSource)
	fmt.Fprintf(&builder, "content_type: book_highlights\n")
	fmt.Fprintf(&builder, "id: %s\n", quote(item.ID))
	fmt.Fprintf(&builder, "title: %s\n", quote(item.Title))
	fmt.Fprintf(&builder, "author: %s\n", quote(item.Author))
	if item.CoverURL != "" {
		fmt.Fprintf(&builder, "cover: %s\n", quote(item.CoverURL))
	}
	if !item.ScrapedAt.IsZero() {
		fmt.Fprintf(&builder, "synced_at: %s\n", item.ScrapedAt.Format("2006-01-02"))
	}
	fmt.Fprintf(&builder, "highlight_count: %d\n", item.HighlightCount)
	fmt.Fprintf(&builder, "tags: [highlights, books]\n")
	fmt.Fprintf(&builder, "---\n\n")
	fmt.Fprintf(&builder, "# %s\n\n", item.Title)
	fmt.Fprintf(&builder, "## Highlights\n\n")

	for _, highlight := range item.Highlights {
		if highlight.Location != "" {
			fmt.Fprintf(&builder, "### %s\n\n", highlight.Location)
		}
		fmt.Fprintf(&builder, "> %s\n\n", strings.ReplaceAll(highlight.Text, "\n", "\n> "))
		if highlight.Note != nil && *highlight.Note != "" {
			fmt.Fprintf(&builder, "**Note:** %s\n\n", *highlight.Note)
		}
	}

	return builder.String()
}

// Export writes every item. A failing item is counted and skipped.
func (e *MarkdownExporter) Export(items []entities.LibraryItem) (ExportResult, error) {
	var result ExportResult

	if err := os.MkdirAll(e.exportDir, 0755); err != nil {
		return result, fmt.Errorf("failed to create export directory: %w", err)
	}

	used := make(map[string]int, len(items))
	for _, item := range items {
		name := Filename(item.Title)
		if n := used[name]; n > 0 {
			name = fmt.Sprintf("%s (%d)", name, n+1)
		}
		used[Filename(item.Title)]++

		path := filepath.Join(e.exportDir, name+".md")
		if err := os.WriteFile(path, []byte(GenerateMarkdown(item)), 0644); err != nil {
			e.logger.Warn().Err(err).Str("id", item.ID).Msg("failed to export item")
			result.BooksFailed++
			continue
		}
		result.BooksProcessed++
		result.HighlightsProcessed += item.HighlightCount
	}

	e.logger.Info().
		Int("books", result.BooksProcessed).
		Int("highlights", result.HighlightsProcessed).
		Str("dir", e.exportDir).
		Msg("markdown export finished")
	return result, nil
}

// Filename turns a title into a safe file name without extension.
func Filename(title string) string {
	name := strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', '*', '?', '"', '<', '>', '|':
			return '_'
		}
		if r < 0x20 {
			return -1
		}
		return r
	}, strings.TrimSpace(title))
	name = strings.Trim(name, ". ")
	if name == "" {
		return "untitled"
	}
	if r := []rune(name); len(r) > 120 {
		name = string(r[:120])
	}
	return name
}

func quote(s string) string {
	return `"` + strings.NewReplacer(`\`, `\\`, `"`, `\"`).Replace(s) + `"`
}
