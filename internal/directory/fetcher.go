package directory

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// Fetcher downloads the directory.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (Response, error)
}

// HTTPFetcher reads the directory API over HTTP, following next links up to
// MaxPages and merging the records.
type HTTPFetcher struct {
	httpClient *http.Client
	maxPages   int
}

func NewHTTPFetcher(httpClient *http.Client, maxPages int) *HTTPFetcher {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	if maxPages < 1 {
		maxPages = 1
	}
	return &HTTPFetcher{httpClient: httpClient, maxPages: maxPages}
}

func (f *HTTPFetcher) Fetch(ctx context.Context, rawURL string) (Response, error) {
	var merged Response

	pageURL := rawURL
	for page := 0; page < f.maxPages && pageURL != ""; page++ {
		resp, err := f.fetchPage(ctx, pageURL)
		if err != nil {
			return Response{}, err
		}
		if page == 0 {
			merged.Links = resp.Links
		}
		merged.Embedded.Records = append(merged.Embedded.Records, resp.Embedded.Records...)
		if len(resp.Embedded.Records) == 0 || resp.Links.Next.Href == "" {
			break
		}

		next, err := resolveLink(pageURL, resp.Links.Next.Href)
		if err != nil {
			return Response{}, err
		}
		if next == pageURL {
			break
		}
		pageURL = next
	}
	return merged, nil
}

func (f *HTTPFetcher) fetchPage(ctx context.Context, pageURL string) (Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return Response{}, fmt.Errorf("directory: failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return Response{}, fmt.Errorf("directory: failed to fetch %s: %w", pageURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return Response{}, fmt.Errorf("directory: HTTP %d: %s", resp.StatusCode, string(body))
	}

	var out Response
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return Response{}, fmt.Errorf("directory: failed to decode response: %w", err)
	}
	return out, nil
}

// resolveLink turns the API's host-relative links into absolute URLs.
func resolveLink(base, href string) (string, error) {
	b, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("directory: invalid url %q: %w", base, err)
	}
	h, err := url.Parse(href)
	if err != nil {
		return "", fmt.Errorf("directory: invalid link %q: %w", href, err)
	}
	return b.ResolveReference(h).String(), nil
}
