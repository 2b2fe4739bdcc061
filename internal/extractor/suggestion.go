package extractor

import (
	"fmt"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/rohmanhakim/imdb-mcp/pkg/failure"
)

type suggestionEnvelope struct {
	D []struct {
		ID    string `json:"id"`
		L     string `json:"l"`
		Q     string `json:"q"`
		QID   string `json:"qid"`
		Y     int    `json:"y"`
		S     string `json:"s"`
		Image *struct {
			ImageURL string `json:"imageUrl"`
		} `json:"i"`
	} `json:"d"`
}

// suggestionKinds maps the suggestion API's qid to catalog kind labels.
var suggestionKinds = map[string]string{
	"movie":        "movie",
	"tvSeries":     "tv series",
	"tvMiniSeries": "tv mini series",
	"tvMovie":      "tv movie",
	"tvEpisode":    "episode",
	"tvSpecial":    "tv special",
	"tvShort":      "tv short",
	"videoGame":    "video game",
	"video":        "video",
	"short":        "short",
}

// legacyKinds maps the human readable q field used when qid is missing.
var legacyKinds = map[string]string{
	"feature":        "movie",
	"tv series":      "tv series",
	"tv mini-series": "tv mini series",
	"tv movie":       "tv movie",
	"tv episode":     "episode",
	"tv special":     "tv special",
	"video game":     "video game",
	"video":          "video",
	"short":          "short",
}

// ExtractSuggestions decodes a suggestion API response. Entries are kept in
// upstream order; entries without an id are dropped.
func (d *DomExtractor) ExtractSuggestions(body []byte) ([]Suggestion, failure.ClassifiedError) {
	var env suggestionEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		extractionErr := &ExtractionError{
			Message:   fmt.Sprintf("decode suggestions: %v", err),
			Retryable: false,
			Cause:     ErrCauseMalformedJSON,
		}
		d.metadataSink.RecordError(
			time.Now(),
			"extractor",
			"DomExtractor.ExtractSuggestions",
			mapExtractionErrorToMetadataCause(extractionErr),
			extractionErr.Error(),
			nil,
		)
		return nil, extractionErr
	}

	out := make([]Suggestion, 0, len(env.D))
	for _, e := range env.D {
		if e.ID == "" {
			continue
		}
		s := Suggestion{
			ID:       e.ID,
			Label:    clean(e.L),
			Kind:     suggestionKind(e.ID, e.QID, e.Q),
			Subtitle: clean(e.S),
		}
		if e.Y > 0 {
			y := e.Y
			s.Year = &y
		}
		if e.Image != nil {
			s.ImageURL = e.Image.ImageURL
		}
		out = append(out, s)
	}
	return out, nil
}

func suggestionKind(id, qid, q string) string {
	if strings.HasPrefix(id, "nm") {
		return "person"
	}
	if k, ok := suggestionKinds[qid]; ok {
		return k
	}
	return legacyKinds[strings.ToLower(q)]
}
