package mdconvert

import (
	"strings"
	"time"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
	"github.com/PuerkitoBio/goquery"
	"github.com/rohmanhakim/imdb-mcp/internal/metadata"
	"github.com/rohmanhakim/imdb-mcp/pkg/failure"
	"golang.org/x/net/html"
)

/*
Turns rich text fragments scraped from the content source (biographies,
plot summaries) into readable plain text.

Conversion Rules
- Paragraphs map to blocks separated by a blank line
- Links are flattened to their text
- Emphasis and line breaks follow CommonMark
- Scripts and styles are dropped
*/

// ConvertRule converts an HTML fragment into text.
type ConvertRule interface {
	Convert(fragment *html.Node) (ConversionResult, failure.ClassifiedError)
}

var _ ConvertRule = (*TextConversionRule)(nil)

type TextConversionRule struct {
	metadataSink metadata.MetadataSink
	conv         *converter.Converter
}

func NewRule(metadataSink metadata.MetadataSink) *TextConversionRule {
	return &TextConversionRule{
		metadataSink: metadataSink,
		conv: converter.NewConverter(
			converter.WithPlugins(
				base.NewBasePlugin(),
				commonmark.NewCommonmarkPlugin(),
			),
		),
	}
}

func (s *TextConversionRule) Convert(fragment *html.Node) (ConversionResult, failure.ClassifiedError) {
	result, err := s.convert(fragment)
	if err != nil {
		s.metadataSink.RecordError(
			time.Now(),
			"mdconvert",
			"TextConversionRule.Convert",
			mapConversionErrorToMetadataCause(err),
			err.Error(),
			[]metadata.Attribute{},
		)
		return ConversionResult{}, err
	}
	return result, nil
}

// ConvertString parses an HTML fragment and converts it.
func (s *TextConversionRule) ConvertString(fragment string) (ConversionResult, failure.ClassifiedError) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return ConversionResult{}, &ConversionError{
			Message:   err.Error(),
			Retryable: false,
			Cause:     ErrCauseConversionFailure,
		}
	}
	body := doc.Find("body")
	if body.Length() == 0 {
		return s.Convert(doc.Get(0))
	}
	return s.Convert(body.Get(0))
}

func (s *TextConversionRule) convert(fragment *html.Node) (ConversionResult, *ConversionError) {
	if fragment == nil {
		return ConversionResult{}, &ConversionError{
			Message:   "cannot convert nil HTML node",
			Retryable: false,
			Cause:     ErrCauseEmptyInput,
		}
	}

	flattenLinks(fragment)

	markdown, err := s.conv.ConvertNode(fragment)
	if err != nil {
		return ConversionResult{}, &ConversionError{
			Message:   err.Error(),
			Retryable: false,
			Cause:     ErrCauseConversionFailure,
		}
	}

	return NewConversionResult(strings.TrimSpace(string(markdown))), nil
}

// flattenLinks replaces every anchor under root with its text content.
func flattenLinks(root *html.Node) {
	sel := goquery.NewDocumentFromNode(root).Find("a")
	sel.Each(func(_ int, a *goquery.Selection) {
		a.ReplaceWithNodes(&html.Node{Type: html.TextNode, Data: a.Text()})
	})
	goquery.NewDocumentFromNode(root).Find("script, style").Remove()
}
