package extractor

import (
	"bytes"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/rohmanhakim/imdb-mcp/internal/metadata"
	"github.com/rohmanhakim/imdb-mcp/pkg/failure"
)

/*
Responsibilities
- Parse content source pages into typed page records
- Prefer the embedded JSON-LD block, fall back to page selectors
- Never invent values: anything not found stays absent

Extraction Strategy
- Structured data first (script[type="application/ld+json"])
- Selector lists second, current layout before the older one
- Only the first match of a selector list is used
*/

type DomExtractor struct {
	metadataSink metadata.MetadataSink
}

func NewDomExtractor(
	metadataSink metadata.MetadataSink,
) *DomExtractor {
	return &DomExtractor{
		metadataSink: metadataSink,
	}
}

func (d *DomExtractor) ExtractTitle(sourceUrl url.URL, htmlByte []byte) (TitlePage, failure.ClassifiedError) {
	page, err := d.extractTitle(sourceUrl, htmlByte)
	if err != nil {
		d.recordError("DomExtractor.ExtractTitle", sourceUrl, err)
		return TitlePage{}, err
	}
	return page, nil
}

func (d *DomExtractor) ExtractPerson(sourceUrl url.URL, htmlByte []byte) (PersonPage, failure.ClassifiedError) {
	page, err := d.extractPerson(sourceUrl, htmlByte)
	if err != nil {
		d.recordError("DomExtractor.ExtractPerson", sourceUrl, err)
		return PersonPage{}, err
	}
	return page, nil
}

// ExtractBio reads the biography sub-page. A bio page without any of the
// known sections is not an error; the result is simply empty.
func (d *DomExtractor) ExtractBio(sourceUrl url.URL, htmlByte []byte) (BioPage, failure.ClassifiedError) {
	doc, err := parse(htmlByte)
	if err != nil {
		d.recordError("DomExtractor.ExtractBio", sourceUrl, err)
		return BioPage{}, err
	}
	return extractBio(doc), nil
}

func (d *DomExtractor) ExtractChart(sourceUrl url.URL, htmlByte []byte) ([]ChartItem, failure.ClassifiedError) {
	items, err := d.extractChart(htmlByte)
	if err != nil {
		d.recordError("DomExtractor.ExtractChart", sourceUrl, err)
		return nil, err
	}
	return items, nil
}

func (d *DomExtractor) recordError(action string, sourceUrl url.URL, err *ExtractionError) {
	d.metadataSink.RecordError(
		time.Now(),
		"extractor",
		action,
		mapExtractionErrorToMetadataCause(err),
		err.Error(),
		[]metadata.Attribute{
			metadata.NewAttr(metadata.AttrURL, sourceUrl.String()),
		},
	)
}

func parse(htmlByte []byte) (*goquery.Document, *ExtractionError) {
	if len(bytes.TrimSpace(htmlByte)) == 0 {
		return nil, &ExtractionError{
			Message:   "empty document",
			Retryable: false,
			Cause:     ErrCauseNoContent,
		}
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(htmlByte))
	if err != nil {
		return nil, &ExtractionError{
			Message:   fmt.Sprintf("failed to parse HTML: %v", err),
			Retryable: false,
			Cause:     ErrCauseNotHTML,
		}
	}
	return doc, nil
}

// findLD returns the first JSON-LD block whose @type is one of types.
// Blocks that fail to decode are skipped.
func findLD(doc *goquery.Document, types ...string) (ldThing, bool) {
	var found ldThing
	var ok bool
	doc.Find(jsonLDSelector).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		thing, err := decodeLD(s.Text())
		if err != nil {
			return true
		}
		if thing.hasType(types...) {
			found, ok = thing, true
			return false
		}
		return true
	})
	return found, ok
}

func firstMatch(doc *goquery.Document, selectors []string) *goquery.Selection {
	for _, sel := range selectors {
		if s := doc.Find(sel); s.Length() > 0 {
			return s
		}
	}
	return nil
}

func (d *DomExtractor) extractTitle(sourceUrl url.URL, htmlByte []byte) (TitlePage, *ExtractionError) {
	doc, err := parse(htmlByte)
	if err != nil {
		return TitlePage{}, err
	}

	ld, ok := findLD(doc, titleLDTypes...)
	if !ok {
		return TitlePage{}, &ExtractionError{
			Message:   "title page has no JSON-LD block",
			Retryable: false,
			Cause:     ErrCauseNoStructuredData,
		}
	}

	page := TitlePage{
		ID:             titleIDFrom(ld.URL),
		Name:           clean(ld.Name),
		Kind:           kindFromLD(ld),
		Year:           yearFrom(ld.DatePublished),
		Genres:         cleanAll(ld.Genre),
		Directors:      refs(ld.Director, personIDFrom),
		RuntimeMinutes: durationMinutes(ld.Duration),
		ImageURL:       string(ld.Image),
	}
	if page.ID == "" {
		page.ID = titleIDFrom(sourceUrl.Path)
	}
	if page.Name == "" {
		page.Name = strings.TrimSpace(doc.Find("h1").First().Text())
	}
	if ld.AggregateRating != nil {
		page.Rating = ld.AggregateRating.RatingValue.Float()
		page.Votes = ld.AggregateRating.RatingCount.Int()
	}

	if cast := firstMatch(doc, castSelectors); cast != nil {
		cast.Each(func(_ int, a *goquery.Selection) {
			name := strings.TrimSpace(a.Text())
			if name == "" {
				return
			}
			page.Cast = append(page.Cast, Ref{ID: personIDFrom(a.AttrOr("href", "")), Name: name})
		})
	}
	if len(page.Cast) == 0 {
		page.Cast = refs(ld.Actor, personIDFrom)
	}

	if plot := firstMatch(doc, plotSelectors); plot != nil {
		page.Plot = strings.TrimSpace(plot.First().Text())
	}
	if page.Plot == "" {
		page.Plot = clean(ld.Description)
	}

	return page, nil
}

func (d *DomExtractor) extractPerson(sourceUrl url.URL, htmlByte []byte) (PersonPage, *ExtractionError) {
	doc, err := parse(htmlByte)
	if err != nil {
		return PersonPage{}, err
	}

	ld, ok := findLD(doc, "Person")
	if !ok {
		return PersonPage{}, &ExtractionError{
			Message:   "person page has no JSON-LD block",
			Retryable: false,
			Cause:     ErrCauseNoStructuredData,
		}
	}

	page := PersonPage{
		ID:          personIDFrom(ld.URL),
		Name:        clean(ld.Name),
		BirthDate:   strings.TrimSpace(ld.BirthDate),
		DeathDate:   strings.TrimSpace(ld.DeathDate),
		ImageURL:    string(ld.Image),
		Description: clean(ld.Description),
	}
	if page.ID == "" {
		page.ID = personIDFrom(sourceUrl.Path)
	}

	if known := firstMatch(doc, knownForSelectors); known != nil {
		seen := make(map[string]bool)
		known.Each(func(_ int, a *goquery.Selection) {
			id := titleIDFrom(a.AttrOr("href", ""))
			title := strings.TrimSpace(a.Text())
			if title == "" {
				title = strings.TrimSpace(a.AttrOr("aria-label", ""))
			}
			if id == "" || title == "" || seen[id] {
				return
			}
			seen[id] = true
			page.KnownFor = append(page.KnownFor, Credit{ID: id, Title: title})
		})
	}

	page.Filmography = extractFilmography(doc)

	return page, nil
}

func extractFilmography(doc *goquery.Document) []FilmographySection {
	var sections []FilmographySection
	index := make(map[string]int)

	doc.Find(filmographyRowSelector).Each(func(_ int, row *goquery.Selection) {
		rowID := row.AttrOr("id", "")
		category, titlePart, found := strings.Cut(rowID, "-")
		id := titleIDFrom(titlePart)
		if !found || category == "" || id == "" {
			return
		}

		link := row.Find(`a[href*="/title/tt"]`).First()
		credit := Credit{
			ID:    id,
			Title: strings.TrimSpace(link.Text()),
			Year:  yearFrom(row.Find(filmographyYearSelector).Text()),
		}

		i, ok := index[category]
		if !ok {
			i = len(sections)
			index[category] = i
			sections = append(sections, FilmographySection{Category: category})
		}
		sections[i].Credits = append(sections[i].Credits, credit)
	})
	return sections
}

func extractBio(doc *goquery.Document) BioPage {
	var bio BioPage

	if rows := firstMatch(doc, overviewRowSelectors); rows != nil {
		rows.Each(func(_ int, row *goquery.Selection) {
			labelSel := row.Find(overviewLabelSelectors).First()
			label := strings.ToLower(strings.TrimSpace(labelSel.Text()))
			value := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(row.Text()), strings.TrimSpace(labelSel.Text())))
			value = strings.Join(strings.Fields(value), " ")

			switch label {
			case "born":
				bio.BirthPlace = placeFrom(value)
			case "died":
				bio.DeathPlace = placeFrom(value)
			case "height":
				bio.Height = value
			}
		})
	}

	if sel := firstMatch(doc, biographySelectors); sel != nil {
		if h, err := sel.First().Html(); err == nil {
			bio.BiographyHTML = strings.TrimSpace(h)
		}
	}
	return bio
}

// placeFrom returns the place part of "July 30, 1970 in London, England, UK"
// or "July 30, 1970 · London, England, UK".
func placeFrom(value string) string {
	for _, sep := range []string{" in ", " · "} {
		if _, place, ok := strings.Cut(value, sep); ok {
			return strings.TrimSpace(place)
		}
	}
	return ""
}

func (d *DomExtractor) extractChart(htmlByte []byte) ([]ChartItem, *ExtractionError) {
	doc, err := parse(htmlByte)
	if err != nil {
		return nil, err
	}

	ld, ok := findLD(doc, "ItemList")
	if !ok {
		return nil, &ExtractionError{
			Message:   "chart page has no ItemList JSON-LD block",
			Retryable: false,
			Cause:     ErrCauseNoStructuredData,
		}
	}

	items := make([]ChartItem, 0, len(ld.ItemListElement))
	for _, el := range ld.ItemListElement {
		id := titleIDFrom(el.Item.URL)
		if id == "" {
			continue
		}
		item := ChartItem{
			ID:   id,
			Name: clean(el.Item.Name),
			Kind: kindFromLD(el.Item),
			Plot: clean(el.Item.Description),
		}
		if el.Item.AggregateRating != nil {
			item.Rating = el.Item.AggregateRating.RatingValue.Float()
			item.Votes = el.Item.AggregateRating.RatingCount.Int()
		}
		items = append(items, item)
	}
	return items, nil
}

func refs(in flexRefs, idFrom func(string) string) []Ref {
	out := make([]Ref, 0, len(in))
	for _, r := range in {
		name := clean(r.Name)
		if name == "" {
			continue
		}
		out = append(out, Ref{ID: idFrom(r.URL), Name: name})
	}
	return out
}

func cleanAll(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if c := clean(s); c != "" {
			out = append(out, c)
		}
	}
	return out
}
