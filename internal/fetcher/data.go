package fetcher

import (
	"net/url"
)

// HTTP boundary

// ContentKind is the body type a caller expects back.
type ContentKind int

const (
	ContentHTML ContentKind = iota
	ContentJSON
)

type FetchParam struct {
	fetchUrl  url.URL
	userAgent string
	expect    ContentKind
}

func NewFetchParam(fetchUrl url.URL, userAgent string, expect ContentKind) FetchParam {
	return FetchParam{
		fetchUrl:  fetchUrl,
		userAgent: userAgent,
		expect:    expect,
	}
}

func (f FetchParam) URL() url.URL {
	return f.fetchUrl
}

type FetchResult struct {
	url      url.URL
	body     []byte
	meta     ResponseMeta
	attempts int
}

func (f *FetchResult) URL() url.URL {
	return f.url
}

func (f *FetchResult) Body() []byte {
	return f.body
}

func (f *FetchResult) Code() int {
	return f.meta.statusCode
}

func (f *FetchResult) ContentType() string {
	return f.meta.contentType
}

// Attempts is the number of HTTP requests it took to obtain the result.
func (f *FetchResult) Attempts() int {
	return f.attempts
}

type ResponseMeta struct {
	statusCode  int
	contentType string
}

// NewFetchResultForTest creates a FetchResult for testing purposes.
func NewFetchResultForTest(
	url url.URL,
	body []byte,
	statusCode int,
	contentType string,
) FetchResult {
	return FetchResult{
		url:  url,
		body: body,
		meta: ResponseMeta{
			statusCode:  statusCode,
			contentType: contentType,
		},
		attempts: 1,
	}
}
