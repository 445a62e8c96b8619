package fetch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/nao1215/estatewatch/internal/extract"
	"github.com/nao1215/estatewatch/internal/model"
)

// Fetcher defaults.
const (
	// DefaultUserAgent is sent with every page request.
	DefaultUserAgent = "estatewatch/1.0 (+https://github.com/nao1215/estatewatch)"

	// DefaultMaxBodySize limits how much of a page response is read.
	DefaultMaxBodySize = 10 * 1024 * 1024 // 10MB
)

// searchRequest is the body of one page request. The crawl is always
// unfiltered: every filter and sort field is sent explicitly as null or "".
type searchRequest struct {
	PageIndex         int      `json:"pageIndex"`
	CategoryID        *int     `json:"categoryID"`
	CityID            *int     `json:"cityID"`
	MinAppraisedPrice *float64 `json:"minAppraisedPrice"`
	MaxAppraisedPrice *float64 `json:"maxAppraisedPrice"`
	Latitude          string   `json:"latitude"`
	Longitude         string   `json:"longitude"`
	Sorting           *string  `json:"sorting"`
}

// Fetcher retrieves every results page and aggregates them into one snapshot.
type Fetcher struct {
	client      *http.Client
	endpoint    string
	extractor   *extract.Extractor
	userAgent   string
	maxBodySize int64
	logger      *slog.Logger
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithExtractor sets the extractor used for every page.
func WithExtractor(e *extract.Extractor) Option {
	return func(f *Fetcher) {
		f.extractor = e
	}
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(f *Fetcher) {
		if ua != "" {
			f.userAgent = ua
		}
	}
}

// WithMaxBodySize sets the maximum accepted response body size in bytes.
func WithMaxBodySize(size int64) Option {
	return func(f *Fetcher) {
		if size > 0 {
			f.maxBodySize = size
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(f *Fetcher) {
		f.logger = logger
	}
}

// New creates a Fetcher posting search requests to endpoint with client.
func New(client *http.Client, endpoint string, opts ...Option) *Fetcher {
	f := &Fetcher{
		client:      client,
		endpoint:    endpoint,
		userAgent:   DefaultUserAgent,
		maxBodySize: DefaultMaxBodySize,
	}

	for _, opt := range opts {
		opt(f)
	}

	if f.client == nil {
		f.client = http.DefaultClient
	}
	if f.extractor == nil {
		f.extractor = extract.New()
	}
	if f.logger == nil {
		f.logger = slog.Default()
	}

	return f
}

// FetchCurrentSnapshot fetches pages 1..last in order and returns all their
// listings as one snapshot. The last page index is read from page 1.
func (f *Fetcher) FetchCurrentSnapshot(ctx context.Context) (model.Snapshot, error) {
	first, err := f.fetchPage(ctx, 1)
	if err != nil {
		return nil, err
	}

	lastPage, err := first.PageCount()
	if err != nil {
		return nil, fmt.Errorf("page 1: %w", err)
	}

	listings, err := first.Listings()
	if err != nil {
		return nil, fmt.Errorf("page 1: %w", err)
	}

	// The page count is remote input, so it must not size any allocation.
	snapshot := make(model.Snapshot, 0, len(listings))
	snapshot = append(snapshot, listings...)

	f.logger.Debug("fetched page", "page", 1, "last_page", lastPage, "listings", len(listings))

	for pageIndex := 2; pageIndex <= lastPage; pageIndex++ {
		page, err := f.fetchPage(ctx, pageIndex)
		if err != nil {
			return nil, err
		}

		listings, err := page.Listings()
		if err != nil {
			return nil, fmt.Errorf("page %d: %w", pageIndex, err)
		}
		snapshot = append(snapshot, listings...)

		f.logger.Debug("fetched page", "page", pageIndex, "last_page", lastPage, "listings", len(listings))
	}

	f.logger.Info("fetched current snapshot", "pages", max(lastPage, 1), "listings", len(snapshot))

	return snapshot, nil
}

// fetchPage posts the search request for pageIndex and parses the response.
func (f *Fetcher) fetchPage(ctx context.Context, pageIndex int) (*extract.Page, error) {
	body, err := f.post(ctx, pageIndex)
	if err != nil {
		return nil, err
	}

	page, err := f.extractor.ParsePage(body)
	if err != nil {
		return nil, fmt.Errorf("page %d: %w", pageIndex, err)
	}
	return page, nil
}

// post sends one search request and returns the raw response body.
func (f *Fetcher) post(ctx context.Context, pageIndex int) ([]byte, error) {
	payload, err := json.Marshal(searchRequest{PageIndex: pageIndex})
	if err != nil {
		return nil, fmt.Errorf("%w: failed to encode request for page %d: %w", model.ErrFetch, pageIndex, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, f.endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create request for page %d: %w", model.ErrFetch, pageIndex, err)
	}
	req.Header.Set("Content-Type", "application/json; charset=utf-8")
	req.Header.Set("Accept", "application/json, text/javascript, */*")
	req.Header.Set("User-Agent", f.userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: request for page %d failed: %w", model.ErrFetch, pageIndex, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// Drain a little so the connection can be reused
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096)) //nolint:errcheck
		return nil, fmt.Errorf("%w: page %d returned status %d", model.ErrFetch, pageIndex, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBodySize+1))
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read page %d: %w", model.ErrFetch, pageIndex, err)
	}
	if int64(len(body)) > f.maxBodySize {
		return nil, fmt.Errorf("%w: page %d exceeds %d bytes", model.ErrFetch, pageIndex, f.maxBodySize)
	}

	return body, nil
}
