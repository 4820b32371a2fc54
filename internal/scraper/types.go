package scraper

import (
	"context"
	"time"
)

// Record is one collected article. It is never modified after it has been
// appended to a run's record list.
type Record struct {
	Date            time.Time
	Title           string
	Description     string
	PictureFilename string
	SearchCount     int
	MoneyFound      bool
}

// Field names a readable part of a result entry.
type Field int

const (
	FieldHeadline Field = iota
	FieldDate
	FieldDescription
	FieldImageURL
)

func (f Field) String() string {
	switch f {
	case FieldHeadline:
		return "headline"
	case FieldDate:
		return "date"
	case FieldDescription:
		return "description"
	case FieldImageURL:
		return "image_url"
	default:
		return "unknown"
	}
}

// Entry is a read-only handle on one item of a results page.
//
// ReadField reports ok=false when the entry has no such sub-element. A non-nil
// error means the read itself failed; errors wrapping ErrStaleReference mean
// the handle no longer points into the live page.
type Entry interface {
	ReadField(ctx context.Context, field Field) (value string, ok bool, err error)
}

// Session drives the search feed on behalf of the engine.
type Session interface {
	SubmitQuery(ctx context.Context, phrase string) error
	// ApplyCategoryFilters skips categories the page does not offer.
	ApplyCategoryFilters(ctx context.Context, categories []string) error
	SortNewestFirst(ctx context.Context) error
	CurrentPageEntries(ctx context.Context) ([]Entry, error)
	// AdvancePage returns false when there is no further page.
	AdvancePage(ctx context.Context) (bool, error)
}

// Selectors locate the search controls and the fields of each result entry.
// Field selectors are tried in order; the first match wins.
type Selectors struct {
	SearchButton   string `yaml:"search_button"`
	SearchInput    string `yaml:"search_input"`
	SearchSubmit   string `yaml:"search_submit"`
	CookieBanner   string `yaml:"cookie_banner"`
	SectionButton  string `yaml:"section_button"`
	CategoryOption string `yaml:"category_option"` // fmt template, %s is the category
	SortSelect     string `yaml:"sort_select"`
	SortValue      string `yaml:"sort_value"`
	ShowMore       string `yaml:"show_more"`

	EntrySelector        string   `yaml:"entry"`
	HeadlineSelectors    []string `yaml:"headline_selectors"`
	DateSelectors        []string `yaml:"date_selectors"`
	DescriptionSelectors []string `yaml:"description_selectors"`
	ImageSelectors       []string `yaml:"image_selectors"`
}

// FieldSelectors returns the selector list for a field.
func (s *Selectors) FieldSelectors(field Field) []string {
	switch field {
	case FieldHeadline:
		return s.HeadlineSelectors
	case FieldDate:
		return s.DateSelectors
	case FieldDescription:
		return s.DescriptionSelectors
	case FieldImageURL:
		return s.ImageSelectors
	}
	return nil
}

// DefaultSelectors matches the search results page of the news site the robot
// was built for.
func DefaultSelectors() *Selectors {
	return &Selectors{
		SearchButton:         "button[data-test-id='search-button']",
		SearchInput:          "input[data-testid='search-input']",
		SearchSubmit:         "button[data-test-id='search-submit']",
		CookieBanner:         "button[data-testid='expanded-dock-btn-selector']",
		SectionButton:        "button[data-testid='search-multiselect-button']",
		CategoryOption:       "input[value*='%s']",
		SortSelect:           "select[data-testid='SearchForm-sortBy']",
		SortValue:            "newest",
		ShowMore:             "button[data-testid='search-show-more-button']",
		EntrySelector:        "li[data-testid='search-bodega-result']",
		HeadlineSelectors:    []string{"h4.css-2fgx4k", "h4"},
		DateSelectors:        []string{"span.css-17ubb9w", "span[data-testid='todays-date']"},
		DescriptionSelectors: []string{"p.css-16nhkrn"},
		ImageSelectors:       []string{"img.css-rq4mmj", "figure img"},
	}
}
