package scraper

import (
	"context"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// ListingSession replays saved search result pages. Each HTML document is one
// page of the feed; query, filter and sort calls are no-ops because the pages
// were captured with them already applied.
type ListingSession struct {
	selectors *Selectors
	pages     []*goquery.Document
	current   int
	clean     func(string) string
}

// NewListingSession parses the given pages. clean post-processes visible text
// and may be nil.
func NewListingSession(selectors *Selectors, clean func(string) string, pages ...string) (*ListingSession, error) {
	if clean == nil {
		clean = strings.TrimSpace
	}

	docs := make([]*goquery.Document, 0, len(pages))
	for i, html := range pages {
		doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
		if err != nil {
			return nil, fmt.Errorf("failed to parse page %d: %w", i+1, err)
		}
		docs = append(docs, doc)
	}

	return &ListingSession{
		selectors: selectors,
		pages:     docs,
		clean:     clean,
	}, nil
}

func (s *ListingSession) SubmitQuery(ctx context.Context, phrase string) error { return nil }

func (s *ListingSession) ApplyCategoryFilters(ctx context.Context, categories []string) error {
	return nil
}

func (s *ListingSession) SortNewestFirst(ctx context.Context) error { return nil }

func (s *ListingSession) CurrentPageEntries(ctx context.Context) ([]Entry, error) {
	if s.current >= len(s.pages) {
		return nil, nil
	}

	var entries []Entry
	s.pages[s.current].Find(s.selectors.EntrySelector).Each(func(_ int, sel *goquery.Selection) {
		entries = append(entries, &listingEntry{sel: sel, selectors: s.selectors, clean: s.clean})
	})
	return entries, nil
}

func (s *ListingSession) AdvancePage(ctx context.Context) (bool, error) {
	if s.current+1 >= len(s.pages) {
		return false, nil
	}
	s.current++
	return true, nil
}

type listingEntry struct {
	sel       *goquery.Selection
	selectors *Selectors
	clean     func(string) string
}

func (e *listingEntry) ReadField(_ context.Context, field Field) (string, bool, error) {
	found := trySelectors(e.sel, e.selectors.FieldSelectors(field))
	if found == nil {
		return "", false, nil
	}

	if field == FieldImageURL {
		for _, attr := range []string{"src", "data-src"} {
			if v, ok := found.Attr(attr); ok && v != "" {
				return v, true, nil
			}
		}
		return "", false, nil
	}

	return cleanField(field, found.Text(), e.clean), true, nil
}

// cleanField post-processes visible text. Headlines are only trimmed: their
// inner spacing is part of the dedup key.
func cleanField(field Field, text string, clean func(string) string) string {
	if field == FieldHeadline {
		return strings.TrimSpace(text)
	}
	return clean(text)
}

// trySelectors returns the first element matched by the selectors, in order.
func trySelectors(s *goquery.Selection, selectors []string) *goquery.Selection {
	for _, selector := range selectors {
		if found := s.Find(selector).First(); found.Length() > 0 {
			return found
		}
	}
	return nil
}
