package scraper

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rpa-news-robot/internal/observability"
)

func TestDerive(t *testing.T) {
	x := NewExtractor("Dollar", &fakeFetcher{}, &memoryImages{}, observability.NewNopLogger())

	tests := []struct {
		name        string
		title       string
		description string
		count       int
		money       bool
	}{
		{"phrase in title", "Dollar rises", "", 1, false},
		{"phrase in both", "Dollar rises", "The Dollar is strong", 2, false},
		{"case sensitive", "dollar bill", "", 0, false},
		{"dollar sign amount", "Prices", "It cost $1,000 last year", 0, true},
		{"decimal amount", "Prices", "Now $11.1", 0, true},
		{"word dollars", "5 dollars for coffee", "", 0, true},
		{"USD suffix", "Fee", "about 10 USD", 0, true},
		{"bare dollar sign", "Prices", "costs $ later", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			count, money := x.Derive(tt.title, tt.description)
			assert.Equal(t, tt.count, count)
			assert.Equal(t, tt.money, money)
		})
	}
}

func TestDeriveWithoutPhrase(t *testing.T) {
	x := NewExtractor("", &fakeFetcher{}, &memoryImages{}, observability.NewNopLogger())
	count, _ := x.Derive("Dollar rises", "Dollar")
	assert.Zero(t, count)
}

func TestDeriveInvalidPatternMatchesLiterally(t *testing.T) {
	x := NewExtractor("C++ (", &fakeFetcher{}, &memoryImages{}, observability.NewNopLogger())
	count, _ := x.Derive("Learning C++ ( the hard way", "")
	assert.Equal(t, 1, count)
}

func TestImageFilename(t *testing.T) {
	tests := []struct {
		url      string
		expected string
	}{
		{"https://static01.example.com/images/2024/03/10/rates.jpg?quality=75&auto=webp", "rates.jpg"},
		{"https://static01.example.com/images/photo.png", "photo.png"},
		{"/images/relative.jpg", "relative.jpg"},
		{"https://example.com/", ""},
		{"https://cdn.example.com/x/img/", ""},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			assert.Equal(t, tt.expected, ImageFilename(tt.url))
		})
	}
}

func TestExtractFieldsFallBackIndependently(t *testing.T) {
	ctx := context.Background()

	t.Run("description read fails, image still resolved", func(t *testing.T) {
		images := &memoryImages{}
		x := NewExtractor("Dollar", &fakeFetcher{}, images, observability.NewNopLogger())
		entry := newsEntry("Dollar rises", "March 4").
			with(FieldImageURL, "https://cdn.example.com/a.jpg").
			failing(FieldDescription, errors.New("boom"))

		fields, err := x.Extract(ctx, entry)
		require.NoError(t, err)
		assert.Empty(t, fields.Description)
		assert.Equal(t, "a.jpg", fields.ImageFilename)
		assert.Contains(t, images.files, "a.jpg")
	})

	t.Run("image download fails, description kept", func(t *testing.T) {
		x := NewExtractor("Dollar", &fakeFetcher{err: errNetwork}, &memoryImages{}, observability.NewNopLogger())
		entry := newsEntry("Dollar rises", "March 4").with(FieldImageURL, "https://cdn.example.com/a.jpg")

		fields, err := x.Extract(ctx, entry)
		require.NoError(t, err)
		assert.Equal(t, "About Dollar rises", fields.Description)
		assert.Equal(t, "https://cdn.example.com/a.jpg", fields.ImageURL)
		assert.Empty(t, fields.ImageFilename)
	})

	t.Run("image save fails", func(t *testing.T) {
		x := NewExtractor("Dollar", &fakeFetcher{}, &memoryImages{err: errors.New("disk full")}, observability.NewNopLogger())
		entry := newsEntry("Dollar rises", "March 4").with(FieldImageURL, "https://cdn.example.com/a.jpg")

		fields, err := x.Extract(ctx, entry)
		require.NoError(t, err)
		assert.Empty(t, fields.ImageFilename)
	})

	t.Run("no image element", func(t *testing.T) {
		fetcher := &fakeFetcher{}
		x := NewExtractor("Dollar", fetcher, &memoryImages{}, observability.NewNopLogger())

		fields, err := x.Extract(ctx, newsEntry("Dollar rises", "March 4"))
		require.NoError(t, err)
		assert.Empty(t, fields.ImageFilename)
		assert.Empty(t, fetcher.gets)
	})

	t.Run("stale read is returned", func(t *testing.T) {
		x := NewExtractor("Dollar", &fakeFetcher{}, &memoryImages{}, observability.NewNopLogger())
		entry := newsEntry("Dollar rises", "March 4").staleOnFirstRead(FieldImageURL)

		_, err := x.Extract(ctx, entry)
		assert.True(t, IsStale(err))
	})
}

func TestBuildRecordIsRepeatable(t *testing.T) {
	ctx := context.Background()
	x := NewExtractor("Dollar", &fakeFetcher{}, &memoryImages{}, observability.NewNopLogger())
	entry := newsEntry("Dollar climbs", "March 10, 2024").
		with(FieldDescription, "The Dollar hit $1,200").
		with(FieldImageURL, "https://cdn.example.com/images/rates.jpg?w=600")
	published := date(2024, 3, 10)

	first, err := x.BuildRecord(ctx, entry, "Dollar climbs", published)
	require.NoError(t, err)
	second, err := x.BuildRecord(ctx, entry, "Dollar climbs", published)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, Record{
		Date:            published,
		Title:           "Dollar climbs",
		Description:     "The Dollar hit $1,200",
		PictureFilename: "rates.jpg",
		SearchCount:     2,
		MoneyFound:      true,
	}, first)
	assert.True(t, first.Date.Equal(time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)))
}
