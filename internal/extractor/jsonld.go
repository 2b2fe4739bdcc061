package extractor

import (
	"bytes"
	"regexp"
	"strconv"
	"strings"

	"github.com/goccy/go-json"
	"golang.org/x/net/html"
)

// ldThing is the subset of schema.org vocabulary IMDb embeds in its pages.
// Fields that IMDb emits either as a scalar or as a list use the flex types.
type ldThing struct {
	Type            flexStrings  `json:"@type"`
	URL             string       `json:"url"`
	Name            string       `json:"name"`
	AlternateName   string       `json:"alternateName"`
	Image           flexURL      `json:"image"`
	Description     string       `json:"description"`
	DatePublished   string       `json:"datePublished"`
	Duration        string       `json:"duration"`
	Genre           flexStrings  `json:"genre"`
	Director        flexRefs     `json:"director"`
	Actor           flexRefs     `json:"actor"`
	AggregateRating *ldRating    `json:"aggregateRating"`
	BirthDate       string       `json:"birthDate"`
	DeathDate       string       `json:"deathDate"`
	ItemListElement []ldListItem `json:"itemListElement"`
}

type ldRating struct {
	RatingValue flexNumber `json:"ratingValue"`
	RatingCount flexNumber `json:"ratingCount"`
}

type ldListItem struct {
	Position int     `json:"position"`
	Item     ldThing `json:"item"`
}

type ldRef struct {
	URL  string `json:"url"`
	Name string `json:"name"`
}

// flexStrings decodes either "x" or ["x", "y"].
type flexStrings []string

func (f *flexStrings) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*f = nil
		return nil
	}
	if data[0] == '[' {
		var list []string
		if err := json.Unmarshal(data, &list); err != nil {
			return err
		}
		*f = list
		return nil
	}
	var single string
	if err := json.Unmarshal(data, &single); err != nil {
		return err
	}
	*f = flexStrings{single}
	return nil
}

// flexRefs decodes either a single object or a list of objects.
type flexRefs []ldRef

func (f *flexRefs) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*f = nil
		return nil
	}
	if data[0] == '[' {
		var list []ldRef
		if err := json.Unmarshal(data, &list); err != nil {
			return err
		}
		*f = list
		return nil
	}
	var single ldRef
	if err := json.Unmarshal(data, &single); err != nil {
		return err
	}
	*f = flexRefs{single}
	return nil
}

// flexURL decodes either "https://..." or {"url": "https://..."}.
type flexURL string

func (f *flexURL) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*f = ""
		return nil
	}
	if data[0] == '{' {
		var obj struct {
			URL string `json:"url"`
		}
		if err := json.Unmarshal(data, &obj); err != nil {
			return err
		}
		*f = flexURL(obj.URL)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	*f = flexURL(s)
	return nil
}

// flexNumber decodes either 8.8 or "8.8". Unparseable values decode as absent.
type flexNumber struct {
	value float64
	ok    bool
}

func (f *flexNumber) UnmarshalJSON(data []byte) error {
	raw := strings.Trim(strings.TrimSpace(string(data)), `"`)
	raw = strings.ReplaceAll(raw, ",", "")
	if raw == "" || raw == "null" {
		*f = flexNumber{}
		return nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		*f = flexNumber{}
		return nil
	}
	*f = flexNumber{value: v, ok: true}
	return nil
}

func (f flexNumber) Float() *float64 {
	if !f.ok {
		return nil
	}
	v := f.value
	return &v
}

func (f flexNumber) Int() *int {
	if !f.ok {
		return nil
	}
	v := int(f.value)
	return &v
}

func (t ldThing) hasType(types ...string) bool {
	for _, have := range t.Type {
		for _, want := range types {
			if have == want {
				return true
			}
		}
	}
	return false
}

func (t ldThing) primaryType() string {
	if len(t.Type) == 0 {
		return ""
	}
	return t.Type[0]
}

func decodeLD(raw string) (ldThing, error) {
	var thing ldThing
	err := json.Unmarshal([]byte(strings.TrimSpace(raw)), &thing)
	return thing, err
}

var (
	titleIDPattern  = regexp.MustCompile(`tt\d+`)
	personIDPattern = regexp.MustCompile(`nm\d+`)
	yearPattern     = regexp.MustCompile(`\b(\d{4})\b`)
	durationPattern = regexp.MustCompile(`^P(?:(\d+)D)?(?:T(?:(\d+)H)?(?:(\d+)M)?(?:(\d+(?:\.\d+)?)S)?)?$`)
)

func titleIDFrom(s string) string {
	return titleIDPattern.FindString(s)
}

func personIDFrom(s string) string {
	return personIDPattern.FindString(s)
}

// yearFrom returns the first four digit number in s.
func yearFrom(s string) *int {
	m := yearPattern.FindStringSubmatch(s)
	if m == nil {
		return nil
	}
	y, err := strconv.Atoi(m[1])
	if err != nil {
		return nil
	}
	return &y
}

// durationMinutes converts an ISO-8601 duration such as "PT2H28M" into
// whole minutes. Seconds are dropped.
func durationMinutes(iso string) *int {
	m := durationPattern.FindStringSubmatch(strings.TrimSpace(iso))
	if m == nil {
		return nil
	}
	atoi := func(s string) int {
		if s == "" {
			return 0
		}
		n, _ := strconv.Atoi(s)
		return n
	}
	minutes := atoi(m[1])*24*60 + atoi(m[2])*60 + atoi(m[3])
	if minutes == 0 {
		return nil
	}
	return &minutes
}

// ldKinds maps schema.org types to the kind labels used across the catalog.
var ldKinds = map[string]string{
	"Movie":        "movie",
	"TVSeries":     "tv series",
	"TVMiniSeries": "tv mini series",
	"TVMovie":      "tv movie",
	"TVEpisode":    "episode",
	"TVSpecial":    "tv special",
	"VideoGame":    "video game",
	"VideoObject":  "video",
	"ShortFilm":    "short",
}

var titleLDTypes = []string{
	"Movie", "TVSeries", "TVMiniSeries", "TVMovie", "TVEpisode",
	"TVSpecial", "VideoGame", "VideoObject", "ShortFilm", "CreativeWork",
}

func kindFromLD(t ldThing) string {
	return ldKinds[t.primaryType()]
}

// clean undoes the HTML entity escaping IMDb applies inside JSON-LD.
func clean(s string) string {
	return strings.TrimSpace(html.UnescapeString(s))
}
