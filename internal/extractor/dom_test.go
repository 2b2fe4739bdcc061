package extractor_test

import (
	"net/url"
	"os"
	"path/filepath"
	"testing"

	"github.com/rohmanhakim/imdb-mcp/internal/extractor"
	"github.com/rohmanhakim/imdb-mcp/internal/metadata"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func loadFixture(t *testing.T, name string) []byte {
	t.Helper()
	data, err := os.ReadFile(filepath.Join("testdata", name))
	require.NoError(t, err)
	return data
}

func pageURL(t *testing.T, raw string) url.URL {
	t.Helper()
	u, err := url.Parse(raw)
	require.NoError(t, err)
	return *u
}

func TestExtractTitle_CurrentLayout(t *testing.T) {
	ext := extractor.NewDomExtractor(&metadata.NoopSink{})

	page, err := ext.ExtractTitle(pageURL(t, "https://www.imdb.com/title/tt1375666/"), loadFixture(t, "title_inception.html"))
	require.Nil(t, err)

	assert.Equal(t, "tt1375666", page.ID)
	assert.Equal(t, "Inception", page.Name)
	assert.Equal(t, "movie", page.Kind)
	require.NotNil(t, page.Year)
	assert.Equal(t, 2010, *page.Year)
	require.NotNil(t, page.Rating)
	assert.InDelta(t, 8.8, *page.Rating, 0.001)
	require.NotNil(t, page.Votes)
	assert.Equal(t, 2600000, *page.Votes)
	assert.Equal(t, []string{"Action", "Adventure", "Sci-Fi"}, page.Genres)
	require.Len(t, page.Directors, 1)
	assert.Equal(t, extractor.Ref{ID: "nm0634240", Name: "Christopher Nolan"}, page.Directors[0])
	require.Len(t, page.Cast, 6)
	assert.Equal(t, extractor.Ref{ID: "nm0000138", Name: "Leonardo DiCaprio"}, page.Cast[0])
	assert.Equal(t, "Dileep Rao", page.Cast[5].Name)
	assert.Contains(t, page.Plot, "his tragic past may doom the project")
	require.NotNil(t, page.RuntimeMinutes)
	assert.Equal(t, 148, *page.RuntimeMinutes)
	assert.Equal(t, "https://m.media-amazon.com/images/M/inception.jpg", page.ImageURL)
}

func TestExtractTitle_LegacyLayoutAndLooseTypes(t *testing.T) {
	ext := extractor.NewDomExtractor(&metadata.NoopSink{})

	page, err := ext.ExtractTitle(pageURL(t, "https://www.imdb.com/title/tt0903747/"), loadFixture(t, "title_series_legacy.html"))
	require.Nil(t, err)

	assert.Equal(t, "tt0903747", page.ID)
	assert.Equal(t, "tv series", page.Kind)
	assert.Equal(t, []string{"Crime"}, page.Genres)
	assert.Empty(t, page.Directors)
	require.Len(t, page.Cast, 2)
	assert.Equal(t, "Bryan Cranston", page.Cast[0].Name)
	assert.Equal(t, "A chemistry teacher diagnosed with inoperable lung cancer turns to manufacturing & selling methamphetamine.", page.Plot)
	require.NotNil(t, page.Rating)
	assert.InDelta(t, 9.5, *page.Rating, 0.001)
	require.NotNil(t, page.Votes)
	assert.Equal(t, 2100000, *page.Votes)
	require.NotNil(t, page.RuntimeMinutes)
	assert.Equal(t, 45, *page.RuntimeMinutes)
	assert.Equal(t, "https://m.media-amazon.com/images/M/bb.jpg", page.ImageURL)
}

func TestExtractTitle_MissingStructuredData(t *testing.T) {
	sink := &errorSink{}
	ext := extractor.NewDomExtractor(sink)

	_, err := ext.ExtractTitle(pageURL(t, "https://www.imdb.com/title/tt1/"), []byte("<html><body><h1>Nothing</h1></body></html>"))
	require.NotNil(t, err)

	var extractionErr *extractor.ExtractionError
	require.ErrorAs(t, err, &extractionErr)
	assert.Equal(t, extractor.ErrCauseNoStructuredData, extractionErr.Cause)
	assert.Equal(t, []metadata.ErrorCause{metadata.CauseContentInvalid}, sink.causes)
}

func TestExtractTitle_EmptyBody(t *testing.T) {
	ext := extractor.NewDomExtractor(&metadata.NoopSink{})

	_, err := ext.ExtractTitle(pageURL(t, "https://www.imdb.com/title/tt1/"), []byte("   "))
	require.NotNil(t, err)

	var extractionErr *extractor.ExtractionError
	require.ErrorAs(t, err, &extractionErr)
	assert.Equal(t, extractor.ErrCauseNoContent, extractionErr.Cause)
}

func TestExtractPerson(t *testing.T) {
	ext := extractor.NewDomExtractor(&metadata.NoopSink{})

	page, err := ext.ExtractPerson(pageURL(t, "https://www.imdb.com/name/nm0634240/"), loadFixture(t, "person_nolan.html"))
	require.Nil(t, err)

	assert.Equal(t, "nm0634240", page.ID)
	assert.Equal(t, "Christopher Nolan", page.Name)
	assert.Equal(t, "1970-07-30", page.BirthDate)
	assert.Empty(t, page.DeathDate)
	assert.Equal(t, "https://m.media-amazon.com/images/M/nolan.jpg", page.ImageURL)
	assert.Contains(t, page.Description, "writer/director")

	require.Len(t, page.KnownFor, 4)
	assert.Equal(t, extractor.Credit{ID: "tt1375666", Title: "Inception"}, page.KnownFor[0])
	assert.Equal(t, "The Dark Knight", page.KnownFor[1].Title)

	require.Len(t, page.Filmography, 2)
	director := page.Filmography[0]
	assert.Equal(t, "director", director.Category)
	require.Len(t, director.Credits, 3)
	assert.Equal(t, "tt15398776", director.Credits[0].ID)
	assert.Equal(t, "Oppenheimer", director.Credits[0].Title)
	require.NotNil(t, director.Credits[0].Year)
	assert.Equal(t, 2023, *director.Credits[0].Year)

	writer := page.Filmography[1]
	assert.Equal(t, "writer", writer.Category)
	require.Len(t, writer.Credits, 2)
	assert.Nil(t, writer.Credits[1].Year)
}

func TestExtractBio_CurrentLayout(t *testing.T) {
	ext := extractor.NewDomExtractor(&metadata.NoopSink{})

	bio, err := ext.ExtractBio(pageURL(t, "https://www.imdb.com/name/nm0634240/bio/"), loadFixture(t, "bio_nolan.html"))
	require.Nil(t, err)

	assert.Equal(t, "Westminster, London, England, UK", bio.BirthPlace)
	assert.Empty(t, bio.DeathPlace)
	assert.Equal(t, "5′ 11″ (1.81 m)", bio.Height)
	assert.Contains(t, bio.BiographyHTML, "<p>Best known for")
	assert.Contains(t, bio.BiographyHTML, "biggest blockbusters")
}

func TestExtractBio_LegacyLayout(t *testing.T) {
	ext := extractor.NewDomExtractor(&metadata.NoopSink{})

	bio, err := ext.ExtractBio(pageURL(t, "https://www.imdb.com/name/nm0000158/bio/"), loadFixture(t, "bio_legacy.html"))
	require.Nil(t, err)

	assert.Equal(t, "Concord, California, USA", bio.BirthPlace)
	assert.Equal(t, "Los Angeles, California, USA", bio.DeathPlace)
	assert.Equal(t, "6' (1.83 m)", bio.Height)
	assert.Contains(t, bio.BiographyHTML, "Thomas Jeffrey Hanks")
}

func TestExtractBio_NoSections(t *testing.T) {
	ext := extractor.NewDomExtractor(&metadata.NoopSink{})

	bio, err := ext.ExtractBio(pageURL(t, "https://www.imdb.com/name/nm1/bio/"), []byte("<html><body></body></html>"))
	require.Nil(t, err)
	assert.Equal(t, extractor.BioPage{}, bio)
}

func TestExtractChart(t *testing.T) {
	ext := extractor.NewDomExtractor(&metadata.NoopSink{})

	items, err := ext.ExtractChart(pageURL(t, "https://www.imdb.com/chart/top/"), loadFixture(t, "chart_top.html"))
	require.Nil(t, err)

	require.Len(t, items, 3)
	assert.Equal(t, "tt0111161", items[0].ID)
	assert.Equal(t, "The Shawshank Redemption", items[0].Name)
	assert.Equal(t, "movie", items[0].Kind)
	require.NotNil(t, items[0].Rating)
	assert.InDelta(t, 9.3, *items[0].Rating, 0.001)
	assert.NotEmpty(t, items[0].Plot)
	assert.Equal(t, "tt0468569", items[2].ID)
}

func TestExtractChart_NoItemList(t *testing.T) {
	ext := extractor.NewDomExtractor(&metadata.NoopSink{})

	_, err := ext.ExtractChart(pageURL(t, "https://www.imdb.com/chart/top/"), loadFixture(t, "title_inception.html"))
	require.NotNil(t, err)
}
