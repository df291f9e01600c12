package entities

import "time"

// Annotation is a single highlight, optionally with the reader's note.
// Note is nil when the source had no note element; an empty string means the
// element was present but blank.
type Annotation struct {
	Text     string  `json:"text"`
	Location string  `json:"location"`
	Note     *string `json:"note"`
}

// LibraryItem is one book of the reader's library.
type LibraryItem struct {
	ID             string       `json:"id"`
	Title          string       `json:"title"`
	Author         string       `json:"author"`
	CoverURL       string       `json:"coverUrl"`
	ScrapedAt      time.Time    `json:"scrapedAt"`
	Highlights     []Annotation `json:"highlights"`
	HighlightCount int          `json:"highlightCount"`

	// NativeID is false when ID was generated because the markup had none.
	NativeID bool `json:"-"`
	// Position is the index of the item container in document order.
	Position int `json:"-"`
}

// SetHighlights attaches a complete annotation sequence to the item.
func (i *LibraryItem) SetHighlights(annotations []Annotation) {
	if annotations == nil {
		annotations = []Annotation{}
	}
	i.Highlights = annotations
	i.HighlightCount = len(annotations)
}

// MarkEnrichFailed records that the item's annotations could not be read.
func (i *LibraryItem) MarkEnrichFailed() {
	i.Highlights = []Annotation{}
	i.HighlightCount = 0
}

// Clone returns a deep copy of the item.
func (i LibraryItem) Clone() LibraryItem {
	out := i
	if i.Highlights != nil {
		out.Highlights = make([]Annotation, len(i.Highlights))
		for idx, a := range i.Highlights {
			out.Highlights[idx] = a
			if a.Note != nil {
				note := *a.Note
				out.Highlights[idx].Note = &note
			}
		}
	}
	return out
}

// CatalogStats are the aggregates served by the stats endpoint.
type CatalogStats struct {
	TotalBooks               int          `json:"totalBooks"`
	TotalHighlights          int          `json:"totalHighlights"`
	AverageHighlightsPerBook float64      `json:"averageHighlightsPerBook"`
	MostHighlightedBook      *LibraryItem `json:"mostHighlightedBook"`
}

// CatalogItemRecord is the persisted form of a LibraryItem.
type CatalogItemRecord struct {
	ID             uint   `gorm:"primaryKey"`
	ItemID         string `gorm:"index;size:256"`
	Position       int    `gorm:"index"`
	Title          string `gorm:"size:512"`
	Author         string `gorm:"size:256"`
	CoverURL       string `gorm:"size:2048"`
	NativeID       bool
	HighlightCount int
	ScrapedAt      time.Time
	Annotations    []AnnotationRecord `gorm:"foreignKey:CatalogItemID;constraint:OnDelete:CASCADE"`
}

func (CatalogItemRecord) TableName() string {
	return "catalog_items"
}

// AnnotationRecord is the persisted form of an Annotation.
type AnnotationRecord struct {
	ID            uint `gorm:"primaryKey"`
	CatalogItemID uint `gorm:"index"`
	Ordinal       int
	Text          string  `gorm:"type:text"`
	Location      string  `gorm:"size:256"`
	Note          *string `gorm:"type:text"`
}

func (AnnotationRecord) TableName() string {
	return "catalog_annotations"
}
