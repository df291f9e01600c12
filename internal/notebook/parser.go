package notebook

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/google/uuid"

	"github.com/mrlokans/notebooksync/internal/entities"
)

const unknownValue = "Unknown"

// fallbackNamespace scopes the UUIDv5 identifiers generated for items whose
// markup carries no native id.
var fallbackNamespace = uuid.MustParse("5c3f6f2e-8f3a-4b6e-9a43-2f1d7c0b9e11")

// ParseWarning describes a library container that could not be turned into an item.
type ParseWarning struct {
	Position int
	Reason   string
}

func (w ParseWarning) String() string {
	return fmt.Sprintf("item %d: %s", w.Position, w.Reason)
}

// Parser converts rendered notebook markup into entities.
type Parser struct {
	sel Selectors
}

func NewParser(sel Selectors) *Parser {
	return &Parser{sel: sel}
}

// Selectors returns the profile the parser was built with.
func (p *Parser) Selectors() Selectors {
	return p.sel
}

// Library extracts the library items in document order. pageURL is used to
// resolve relative cover URLs and may be empty. Containers without a title
// element are skipped and reported as warnings.
func (p *Parser) Library(markup, pageURL string, scrapedAt time.Time) ([]entities.LibraryItem, []ParseWarning, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		return nil, nil, fmt.Errorf("parse library markup: %w", err)
	}

	base, _ := url.Parse(pageURL)

	items := []entities.LibraryItem{}
	var warnings []ParseWarning
	seen := make(map[string]int)

	doc.Find(p.sel.LibraryItem).Each(func(position int, s *goquery.Selection) {
		searchable := s.Find(p.sel.SearchableText)
		titleEl := searchable.First()
		if titleEl.Length() == 0 {
			warnings = append(warnings, ParseWarning{Position: position, Reason: "no title element"})
			return
		}

		title := textOr(titleEl, unknownValue)
		author := unknownValue
		if searchable.Length() > 1 {
			author = textOr(searchable.Eq(1), unknownValue)
		}

		item := entities.LibraryItem{
			Title:     title,
			Author:    author,
			CoverURL:  coverURL(s.Find(p.sel.CoverImage).First(), base),
			ScrapedAt: scrapedAt,
			Position:  position,
		}

		if id, ok := s.Attr(p.sel.ItemIDAttribute); ok && strings.TrimSpace(id) != "" {
			item.ID = strings.TrimSpace(id)
			item.NativeID = true
		} else {
			key := title + "\x00" + author
			item.ID = FallbackID(title, author, seen[key])
			seen[key]++
		}

		items = append(items, item)
	})

	return items, warnings, nil
}

// Annotations extracts the annotations of the currently open detail view in
// document order. A missing note element yields a nil Note.
func (p *Parser) Annotations(markup string) ([]entities.Annotation, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		return nil, fmt.Errorf("parse annotation markup: %w", err)
	}

	annotations := []entities.Annotation{}
	doc.Find(p.sel.Annotation).Each(func(_ int, s *goquery.Selection) {
		annotation := entities.Annotation{
			Text:     strings.TrimSpace(s.Find(p.sel.AnnotationText).First().Text()),
			Location: strings.TrimSpace(s.Find(p.sel.AnnotationLocation).First().Text()),
		}
		if noteEl := s.Find(p.sel.AnnotationNote).First(); noteEl.Length() > 0 {
			note := strings.TrimSpace(noteEl.Text())
			annotation.Note = &note
		}
		annotations = append(annotations, annotation)
	})

	return annotations, nil
}

// FallbackID derives an identifier for an item without a native one. The same
// title, author and occurrence always give the same identifier.
func FallbackID(title, author string, occurrence int) string {
	name := title + "\x00" + author + "\x00" + strconv.Itoa(occurrence)
	return "book-" + uuid.NewSHA1(fallbackNamespace, []byte(name)).String()
}

func textOr(s *goquery.Selection, fallback string) string {
	if text := strings.TrimSpace(s.Text()); text != "" {
		return text
	}
	return fallback
}

func coverURL(img *goquery.Selection, base *url.URL) string {
	src, ok := img.Attr("src")
	if !ok {
		return ""
	}
	src = strings.TrimSpace(src)
	if src == "" || base == nil || base.Host == "" {
		return src
	}
	ref, err := url.Parse(src)
	if err != nil {
		return src
	}
	return base.ResolveReference(ref).String()
}
