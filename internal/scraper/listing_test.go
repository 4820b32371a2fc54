package scraper

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const firstResultsPage = `<html><body><ol>
<li data-testid="search-bodega-result">
  <span class="css-17ubb9w">Mar. 10, 2024</span>
  <h4 class="css-2fgx4k">Dollar climbs   again</h4>
  <p class="css-16nhkrn">The Dollar hit $1,200.</p>
  <img class="css-rq4mmj" src="https://cdn.example.com/images/rates.jpg?w=600">
</li>
<li data-testid="search-bodega-result">
  <span class="css-17ubb9w">March 2, 2024</span>
  <h4>Quiet day</h4>
  <figure><img data-src="https://cdn.example.com/lazy.png"></figure>
</li>
</ol></body></html>`

const secondResultsPage = `<html><body><ol>
<li data-testid="search-bodega-result">
  <span class="css-17ubb9w">Mar. 10, 2024</span>
  <h4 class="css-2fgx4k">Dollar climbs   again</h4>
</li>
<li data-testid="search-bodega-result">
  <span class="css-17ubb9w">Jan. 3, 2024</span>
  <h4 class="css-2fgx4k">Old news</h4>
</li>
</ol></body></html>`

func TestListingEntryReadField(t *testing.T) {
	ctx := context.Background()
	session, err := NewListingSession(DefaultSelectors(), nil, firstResultsPage)
	require.NoError(t, err)

	entries, err := session.CurrentPageEntries(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	headline, ok, err := entries[0].ReadField(ctx, FieldHeadline)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "Dollar climbs   again", headline)

	img, ok, _ := entries[0].ReadField(ctx, FieldImageURL)
	assert.True(t, ok)
	assert.Equal(t, "https://cdn.example.com/images/rates.jpg?w=600", img)

	_, ok, err = entries[1].ReadField(ctx, FieldDescription)
	require.NoError(t, err)
	assert.False(t, ok, "second entry has no description")

	headline, ok, _ = entries[1].ReadField(ctx, FieldHeadline)
	assert.True(t, ok, "falls back to the plain h4 selector")
	assert.Equal(t, "Quiet day", headline)

	img, ok, _ = entries[1].ReadField(ctx, FieldImageURL)
	assert.True(t, ok)
	assert.Equal(t, "https://cdn.example.com/lazy.png", img)
}

func TestListingSessionPagination(t *testing.T) {
	ctx := context.Background()
	session, err := NewListingSession(DefaultSelectors(), nil, firstResultsPage, secondResultsPage)
	require.NoError(t, err)

	more, err := session.AdvancePage(ctx)
	require.NoError(t, err)
	assert.True(t, more)

	more, err = session.AdvancePage(ctx)
	require.NoError(t, err)
	assert.False(t, more)

	entries, err := session.CurrentPageEntries(ctx)
	require.NoError(t, err)
	assert.Len(t, entries, 2, "stays on the last page")
}

func TestEngineOverListingSession(t *testing.T) {
	session, err := NewListingSession(DefaultSelectors(), collapse, firstResultsPage, secondResultsPage)
	require.NoError(t, err)

	engine, _, images := newTestEngine()
	res, err := engine.Run(context.Background(), session, defaultQuery())
	require.NoError(t, err)
	assertRunInvariants(t, res, defaultQuery())

	assert.Equal(t, []string{"Dollar climbs   again", "Quiet day"}, titles(res.Records))
	assert.Equal(t, "The Dollar hit $1,200.", res.Records[0].Description)
	assert.Equal(t, "date cutoff reached", res.Stats.StoppedReason)
	assert.Equal(t, 1, res.Stats.Duplicates)
	assert.Equal(t, "rates.jpg", res.Records[0].PictureFilename)
	assert.Equal(t, "lazy.png", res.Records[1].PictureFilename)
	assert.Len(t, images.files, 2)
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func TestListingHeadlinesKeepInnerSpacing(t *testing.T) {
	page := `<html><body><ol>
<li data-testid="search-bodega-result">
  <span class="css-17ubb9w">March 10, 2024</span>
  <h4 class="css-2fgx4k">Dollar  climbs</h4>
  <p class="css-16nhkrn">  Rates   moved  </p>
</li>
<li data-testid="search-bodega-result">
  <span class="css-17ubb9w">March 9, 2024</span>
  <h4 class="css-2fgx4k">Dollar climbs</h4>
</li>
</ol></body></html>`
	session, err := NewListingSession(DefaultSelectors(), collapse, page)
	require.NoError(t, err)

	entries, err := session.CurrentPageEntries(context.Background())
	require.NoError(t, err)
	require.Len(t, entries, 2)

	description, _, _ := entries[0].ReadField(context.Background(), FieldDescription)
	assert.Equal(t, "Rates moved", description, "other fields are cleaned")

	engine, _, _ := newTestEngine()
	res, err := engine.Run(context.Background(), session, defaultQuery())
	require.NoError(t, err)
	assert.Equal(t, []string{"Dollar  climbs", "Dollar climbs"}, titles(res.Records))
	assert.Zero(t, res.Stats.Duplicates)
}
