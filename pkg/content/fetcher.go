package content

import (
	"context"
	"fmt"
	"io"
	"time"

	"supportly-be/pkg/rag"

	"github.com/go-resty/resty/v2"
)

const (
	DefaultUserAgent    = "SupportlyBot/1.0"
	DefaultFetchTimeout = 10 * time.Second
	DefaultMaxPageBytes = 5 * 1024 * 1024
)

// Fetcher acquires a page and returns its visible text.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (string, error)
}

type HTTPFetcher struct {
	client   *resty.Client
	maxBytes int64
}

func NewHTTPFetcher(timeout time.Duration) *HTTPFetcher {
	if timeout <= 0 {
		timeout = DefaultFetchTimeout
	}
	client := resty.New().
		SetHeader("User-Agent", DefaultUserAgent).
		SetHeader("Accept", "text/html,application/xhtml+xml,text/plain;q=0.9,*/*;q=0.5").
		SetTimeout(timeout)

	return &HTTPFetcher{client: client, maxBytes: DefaultMaxPageBytes}
}

// WithMaxBytes caps how much of a response body is read.
func (f *HTTPFetcher) WithMaxBytes(n int64) *HTTPFetcher {
	if n > 0 {
		f.maxBytes = n
	}
	return f
}

// Fetch downloads url and extracts its text. Transport failures and non-2xx
// responses are acquisition errors; an empty page is returned as "". A body
// larger than the byte cap is an extraction error.
func (f *HTTPFetcher) Fetch(ctx context.Context, url string) (string, error) {
	resp, err := f.client.R().
		SetContext(ctx).
		SetDoNotParseResponse(true).
		Get(url)
	if err != nil {
		return "", rag.AcquisitionError("fetch", err)
	}
	raw := resp.RawBody()
	defer raw.Close()

	if resp.StatusCode() >= 400 {
		return "", rag.AcquisitionError("fetch", fmt.Errorf("HTTP %d from %s", resp.StatusCode(), url))
	}

	body, err := io.ReadAll(io.LimitReader(raw, f.maxBytes+1))
	if err != nil {
		return "", rag.AcquisitionError("read body", err)
	}
	if int64(len(body)) > f.maxBytes {
		return "", rag.ExtractionError("fetch", fmt.Errorf("page at %s exceeds %d bytes", url, f.maxBytes))
	}

	if looksLikeHTML(resp.Header().Get("Content-Type"), body) {
		return ExtractHTML(body), nil
	}
	return Normalize(string(body)), nil
}
