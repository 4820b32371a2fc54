package scraper

import (
	"context"
	"net/url"
	"path"
	"regexp"
	"strings"
	"time"

	"rpa-news-robot/internal/observability"
)

var moneyPattern = regexp.MustCompile(`\$[\d,.]+|[\d,.]+ dollars|\d+ USD`)

// ResourceFetcher retrieves the bytes behind a URL.
type ResourceFetcher interface {
	Get(ctx context.Context, rawURL string) ([]byte, error)
}

// ImageStore persists downloaded image bytes under a file name.
type ImageStore interface {
	Save(name string, data []byte) error
}

// Fields are the optional parts of an entry, resolved with fallback to "".
type Fields struct {
	Description   string
	ImageURL      string
	ImageFilename string
}

type Extractor struct {
	phrase  *regexp.Regexp
	fetcher ResourceFetcher
	images  ImageStore
	logger  *observability.Logger
}

// NewExtractor counts phrase as a regular expression. A phrase that does not
// compile is matched literally instead.
func NewExtractor(phrase string, fetcher ResourceFetcher, images ImageStore, logger *observability.Logger) *Extractor {
	logger = logger.With("component", "extractor")

	var re *regexp.Regexp
	if phrase != "" {
		var err error
		re, err = regexp.Compile(phrase)
		if err != nil {
			logger.Warn("Search phrase is not a valid pattern, matching literally",
				"phrase", phrase,
				"error", err.Error(),
			)
			re = regexp.MustCompile(regexp.QuoteMeta(phrase))
		}
	}

	return &Extractor{
		phrase:  re,
		fetcher: fetcher,
		images:  images,
		logger:  logger,
	}
}

// Extract resolves description and image of one entry independently. A field
// that cannot be located or read degrades to "". Only a stale entry reference
// is returned as an error.
func (x *Extractor) Extract(ctx context.Context, entry Entry) (Fields, error) {
	var fields Fields

	desc, ok, err := entry.ReadField(ctx, FieldDescription)
	switch {
	case IsStale(err):
		return Fields{}, err
	case err != nil:
		x.logger.Warn("Description not resolved", "error", err.Error())
	case ok:
		fields.Description = desc
	default:
		x.logger.Debug("Entry has no description")
	}

	imgURL, ok, err := entry.ReadField(ctx, FieldImageURL)
	switch {
	case IsStale(err):
		return Fields{}, err
	case err != nil:
		x.logger.Warn("Image not resolved", "error", err.Error())
		return fields, nil
	case !ok || strings.TrimSpace(imgURL) == "":
		x.logger.Debug("Entry has no image")
		return fields, nil
	}

	fields.ImageURL = strings.TrimSpace(imgURL)
	fields.ImageFilename = x.download(ctx, fields.ImageURL)
	return fields, nil
}

func (x *Extractor) download(ctx context.Context, imgURL string) string {
	filename := ImageFilename(imgURL)
	if filename == "" {
		x.logger.Warn("Image URL has no file name", "url", imgURL)
		return ""
	}

	x.logger.Info("Downloading image", "url", imgURL)
	data, err := x.fetcher.Get(ctx, imgURL)
	if err != nil {
		x.logger.Warn("Image download failed", "url", imgURL, "error", err.Error())
		return ""
	}

	if err := x.images.Save(filename, data); err != nil {
		x.logger.Warn("Image not saved", "file", filename, "error", err.Error())
		return ""
	}

	x.logger.Info("Image downloaded", "file", filename, "bytes", len(data))
	return filename
}

// Derive computes the phrase count and money flag over "title description".
func (x *Extractor) Derive(title, description string) (searchCount int, moneyFound bool) {
	text := title + " " + description
	if x.phrase != nil {
		searchCount = len(x.phrase.FindAllStringIndex(text, -1))
	}
	return searchCount, moneyPattern.MatchString(text)
}

// BuildRecord extracts the entry and assembles its record.
func (x *Extractor) BuildRecord(ctx context.Context, entry Entry, title string, date time.Time) (Record, error) {
	fields, err := x.Extract(ctx, entry)
	if err != nil {
		return Record{}, err
	}

	count, money := x.Derive(title, fields.Description)
	return Record{
		Date:            date,
		Title:           title,
		Description:     fields.Description,
		PictureFilename: fields.ImageFilename,
		SearchCount:     count,
		MoneyFound:      money,
	}, nil
}

// ImageFilename is the base name of the URL path, without query string.
func ImageFilename(rawURL string) string {
	p := strings.SplitN(rawURL, "?", 2)[0]
	if u, err := url.Parse(rawURL); err == nil {
		p = u.Path
	}

	// A directory URL names no file.
	if p == "" || strings.HasSuffix(p, "/") {
		return ""
	}
	return path.Base(p)
}
