package urlutil

import (
	"net/url"
	"strconv"
	"strings"
)

// Canonicalize applies a deterministic normalization to a URL.
//
// The normalization follows these rules:
//   - Scheme and host are lowercased
//   - Default ports are omitted (e.g., :80 for http, :443 for https)
//   - Fragments and query parameters are removed
//   - Path keeps exactly one trailing slash, the form IMDb serves pages under
func Canonicalize(sourceUrl url.URL) url.URL {
	canonical := sourceUrl

	canonical.Scheme = lowerASCII(canonical.Scheme)
	canonical.Host = lowerASCII(canonical.Host)

	if host, port := canonical.Hostname(), canonical.Port(); port != "" {
		if (canonical.Scheme == "http" && port == "80") ||
			(canonical.Scheme == "https" && port == "443") {
			canonical.Host = host
		}
	}

	canonical.Path = strings.TrimRight(canonical.Path, "/") + "/"
	if !strings.HasPrefix(canonical.Path, "/") {
		canonical.Path = "/" + canonical.Path
	}
	canonical.RawPath = ""

	canonical.Fragment = ""
	canonical.RawFragment = ""
	canonical.RawQuery = ""
	canonical.ForceQuery = false

	return canonical
}

// Page returns base joined with the given path segments, each escaped, with
// a trailing slash. Page(https://www.imdb.com, "title", "tt1375666") yields
// https://www.imdb.com/title/tt1375666/.
func Page(base url.URL, segments ...string) url.URL {
	escaped := make([]string, 0, len(segments))
	for _, s := range segments {
		escaped = append(escaped, url.PathEscape(s))
	}
	joined := base.JoinPath(escaped...)
	return Canonicalize(*joined)
}

func TitlePage(base url.URL, titleKey string) url.URL {
	return Page(base, "title", titleKey)
}

func PersonPage(base url.URL, personKey string) url.URL {
	return Page(base, "name", personKey)
}

func PersonBioPage(base url.URL, personKey string) url.URL {
	return Page(base, "name", personKey, "bio")
}

func ChartPage(base url.URL, chart string) url.URL {
	return Page(base, "chart", chart)
}

// RankedSearchURL builds the advanced title search sorted by user rating:
// {base}/search/title/?count={count}&genres={genres}&sort=user_rating,desc&title_type={titleTypes}.
func RankedSearchURL(base url.URL, titleTypes string, genres []string, count int) url.URL {
	u := Page(base, "search", "title")
	q := url.Values{}
	q.Set("title_type", titleTypes)
	q.Set("genres", strings.Join(genres, ","))
	q.Set("sort", "user_rating,desc")
	q.Set("count", strconv.Itoa(count))
	u.RawQuery = q.Encode()
	return u
}

// SuggestionURL builds the suggestion endpoint address for a free text query:
// {base}/suggestion/x/{query}.json with the query lowercased and escaped.
func SuggestionURL(base url.URL, query string) url.URL {
	q := strings.ToLower(strings.TrimSpace(query))
	u := base
	u.Path = strings.TrimRight(base.Path, "/") + "/suggestion/x/" + q + ".json"
	u.RawPath = ""
	u.RawQuery = ""
	u.Fragment = ""
	return u
}

// lowerASCII converts ASCII characters to lowercase without allocating
// when the input is already lowercase.
func lowerASCII(s string) string {
	var needsLower bool
	for i := 0; i < len(s); i++ {
		if s[i] >= 'A' && s[i] <= 'Z' {
			needsLower = true
			break
		}
	}
	if !needsLower {
		return s
	}
	b := make([]byte, len(s))
	copy(b, s)
	for i := 0; i < len(b); i++ {
		if b[i] >= 'A' && b[i] <= 'Z' {
			b[i] += 'a' - 'A'
		}
	}
	return string(b)
}
