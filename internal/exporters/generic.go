package exporters

import "github.com/mrlokans/notebooksync/internal/entities"

type CatalogExporter interface {
	Export(items []entities.LibraryItem) (ExportResult, error)
}

type ExportResult struct {
	BooksProcessed      int `json:"books_processed"`
	HighlightsProcessed int `json:"highlights_processed"`
	BooksFailed         int `json:"books_failed"`
}
