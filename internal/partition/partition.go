package partition

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"tradeexplorer/internal/metrics"
)

const (
	DefaultBaseURL         = "https://storage.googleapis.com"
	DefaultBucket          = "data-apps-one-data"
	DefaultPrefix          = "sources/trade-explorer/reformat-front-end/"
	DefaultPageSize        = 200
	DefaultTimeout         = 30 * time.Second
	DefaultRateLimitPerSec = 10
	DefaultRateLimitBurst  = 10
	DefaultUserAgent       = "TradeExplorer/0.1"

	objectSuffix = ".parquet"
	listFields   = "items(name,size,updated),nextPageToken"
)

var (
	ErrNotFound  = errors.New("partition: no parquet objects found")
	ErrTransport = errors.New("partition: transport failure")
)

type Config struct {
	BaseURL         string
	Bucket          string
	Prefix          string
	PageSize        int
	Timeout         time.Duration
	RateLimitPerSec int
	RateLimitBurst  int
	UserAgent       string
}

// Locator resolves a reporting country to the parquet objects holding its
// records. Resolutions are memoized for the life of the Locator and
// concurrent requests for one country share a single listing.
type Locator struct {
	config  Config
	client  *http.Client
	limiter *rateLimiter
	logger  *slog.Logger

	group   singleflight.Group
	mu      sync.RWMutex
	objects map[string][]string
}

func NewWithConfig(cfg Config, logger *slog.Logger) (*Locator, error) {
	if strings.TrimSpace(cfg.BaseURL) == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if _, err := url.Parse(cfg.BaseURL); err != nil {
		return nil, fmt.Errorf("partition: invalid base url: %w", err)
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if strings.TrimSpace(cfg.Bucket) == "" {
		return nil, errors.New("partition: bucket is required")
	}
	if cfg.PageSize <= 0 {
		cfg.PageSize = DefaultPageSize
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.RateLimitBurst <= 0 {
		cfg.RateLimitBurst = DefaultRateLimitBurst
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = DefaultUserAgent
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Locator{
		config:  cfg,
		client:  &http.Client{Timeout: cfg.Timeout},
		limiter: newRateLimiter(cfg.RateLimitPerSec, cfg.RateLimitBurst),
		logger:  logger.With("component", "partition"),
		objects: make(map[string][]string),
	}, nil
}

func (l *Locator) Close() {
	l.limiter.Close()
}

// Locate returns the sorted object names for country. A caller whose context
// ends stops waiting, but the shared listing still runs to completion.
func (l *Locator) Locate(ctx context.Context, country string) ([]string, error) {
	if names, ok := l.cached(country); ok {
		metrics.CacheLookups.WithLabelValues("partition", "hit").Inc()
		return names, nil
	}

	detached := context.WithoutCancel(ctx)
	ch := l.group.DoChan(country, func() (any, error) {
		if names, ok := l.cached(country); ok {
			return names, nil
		}
		metrics.CacheLookups.WithLabelValues("partition", "miss").Inc()
		names, err := l.list(detached, country)
		if err != nil {
			return nil, err
		}
		l.mu.Lock()
		l.objects[country] = names
		l.mu.Unlock()
		return names, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Shared {
			metrics.CacheLookups.WithLabelValues("partition", "shared").Inc()
		}
		if res.Err != nil {
			return nil, res.Err
		}
		return append([]string(nil), res.Val.([]string)...), nil
	}
}

// EnsureAll locates every country concurrently and returns the first failure.
func (l *Locator) EnsureAll(ctx context.Context, countries []string) error {
	g, ctx := errgroup.WithContext(ctx)
	for _, country := range countries {
		g.Go(func() error {
			_, err := l.Locate(ctx, country)
			return err
		})
	}
	return g.Wait()
}

// URLs resolves the cached objects of country to download addresses.
func (l *Locator) URLs(country string) ([]string, error) {
	names, ok := l.cached(country)
	if !ok {
		return nil, fmt.Errorf("partition: %s has not been located", country)
	}
	urls := make([]string, 0, len(names))
	for _, name := range names {
		urls = append(urls, l.DownloadURL(name))
	}
	return urls, nil
}

func (l *Locator) DownloadURL(objectName string) string {
	return fmt.Sprintf("%s/download/storage/v1/b/%s/o/%s?alt=media",
		l.config.BaseURL, escapeComponent(l.config.Bucket), escapeComponent(objectName))
}

func (l *Locator) cached(country string) ([]string, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	names, ok := l.objects[country]
	if !ok {
		return nil, false
	}
	return append([]string(nil), names...), true
}

type listResponse struct {
	Items []struct {
		Name string `json:"name"`
	} `json:"items"`
	NextPageToken string `json:"nextPageToken"`
}

func (l *Locator) list(ctx context.Context, country string) ([]string, error) {
	start := time.Now()
	var names []string
	pageToken := ""
	pages := 0
	for {
		body, err := l.doRequest(ctx, l.listURL(country, pageToken))
		metrics.ListingRequests.WithLabelValues(metrics.Result(err)).Inc()
		if err != nil {
			l.logger.Error("listing failed", "country", country, "page", pages, "error", err)
			return nil, err
		}
		var payload listResponse
		if err := json.NewDecoder(bytes.NewReader(body)).Decode(&payload); err != nil {
			return nil, fmt.Errorf("%w: decode listing for %s: %w", ErrTransport, country, err)
		}
		for _, item := range payload.Items {
			if strings.HasSuffix(item.Name, objectSuffix) {
				names = append(names, item.Name)
			}
		}
		pages++
		pageToken = payload.NextPageToken
		if pageToken == "" {
			break
		}
	}

	if len(names) == 0 {
		return nil, fmt.Errorf("%w for %s", ErrNotFound, country)
	}
	sort.Strings(names)
	l.logger.Info("located partitions", "country", country, "objects", len(names), "pages", pages,
		"dur_ms", time.Since(start).Milliseconds())
	return names, nil
}

func (l *Locator) listURL(country, pageToken string) string {
	params := url.Values{}
	params.Set("prefix", l.config.Prefix+"country="+encodePartitionValue(country)+"/")
	params.Set("fields", listFields)
	params.Set("maxResults", strconv.Itoa(l.config.PageSize))
	if pageToken != "" {
		params.Set("pageToken", pageToken)
	}
	return fmt.Sprintf("%s/storage/v1/b/%s/o?%s", l.config.BaseURL, escapeComponent(l.config.Bucket), params.Encode())
}

func (l *Locator) doRequest(ctx context.Context, endpoint string) ([]byte, error) {
	if err := l.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if l.config.UserAgent != "" {
		req.Header.Set("User-Agent", l.config.UserAgent)
	}

	resp, err := l.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTransport, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %w", ErrTransport, err)
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, fmt.Errorf("%w: listing request failed (%s): %s", ErrTransport, resp.Status, snippet(body))
	}
	return body, nil
}

func snippet(body []byte) string {
	const max = 200
	text := strings.TrimSpace(string(body))
	if len(text) > max {
		return text[:max] + "..."
	}
	return text
}

// encodePartitionValue encodes a hive partition value the way the dataset
// writer names its directories.
func encodePartitionValue(value string) string {
	return strings.NewReplacer("*", "%2A", "'", "%27").Replace(escapeComponent(value))
}

// escapeComponent percent-encodes every byte outside the URI component
// unreserved set (A-Z a-z 0-9 - _ . ! ~ * ' ( )).
func escapeComponent(value string) string {
	const hex = "0123456789ABCDEF"
	var b strings.Builder
	b.Grow(len(value))
	for i := 0; i < len(value); i++ {
		c := value[i]
		if isUnreserved(c) {
			b.WriteByte(c)
			continue
		}
		b.WriteByte('%')
		b.WriteByte(hex[c>>4])
		b.WriteByte(hex[c&0x0F])
	}
	return b.String()
}

func isUnreserved(c byte) bool {
	switch {
	case 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z', '0' <= c && c <= '9':
		return true
	}
	return strings.IndexByte("-_.!~*'()", c) >= 0
}
