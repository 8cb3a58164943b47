// Package catalog looks up external catalog links for books.
//
// The only provider is NeoDB, whose search results carry links to the
// equivalent records on other sites. The lookup is used to attach a Douban
// book page to newly mirrored books.
package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/mrlokans/readsync/internal/retry"
)

const (
	DefaultBaseURL = "https://neodb.social"

	// DoubanBookPrefix is the canonical book-review domain accepted as a match.
	DoubanBookPrefix = "https://book.douban.com"

	searchPath     = "/api/catalog/search"
	defaultTimeout = 10 * time.Second
)

// ErrUnexpectedStatus is returned for non-200 search responses.
var ErrUnexpectedStatus = errors.New("unexpected catalog response status")

// DefaultPolicy retries a lookup three times, five seconds apart.
var DefaultPolicy = retry.Fixed(3, 5*time.Second)

// Client searches the NeoDB catalog.
type Client struct {
	httpClient *http.Client
	baseURL    string
	policy     retry.Policy
	log        zerolog.Logger
}

// NewClient creates a catalog client. An empty baseURL uses DefaultBaseURL.
func NewClient(baseURL string, policy retry.Policy, log zerolog.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	c := &Client{
		httpClient: &http.Client{
			Timeout: defaultTimeout,
		},
		baseURL: strings.TrimRight(baseURL, "/"),
		policy:  policy,
		log:     log,
	}
	if c.policy.OnRetry == nil {
		c.policy.OnRetry = func(attempt int, err error) {
			c.log.Warn().Err(err).Int("attempt", attempt).Msg("catalog lookup failed, retrying")
		}
	}
	return c
}

// LookupDoubanURL returns the Douban page of the book with the given ISBN,
// or "" when the catalog has no exact match.
func (c *Client) LookupDoubanURL(ctx context.Context, isbn string) (string, error) {
	isbn = strings.TrimSpace(isbn)
	if isbn == "" {
		return "", nil
	}

	return retry.Do(ctx, c.policy, func(ctx context.Context) (string, error) {
		items, err := c.search(ctx, isbn)
		if err != nil {
			return "", err
		}
		return pickExternalURL(items, isbn, DoubanBookPrefix), nil
	})
}

func (c *Client) search(ctx context.Context, query string) ([]searchItem, error) {
	q := url.Values{}
	q.Set("query", query)
	q.Set("page", "1")
	q.Set("category", "book")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+searchPath+"?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("search catalog: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: %d", ErrUnexpectedStatus, resp.StatusCode)
	}

	var result searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return result.Data, nil
}

// pickExternalURL filters items to exact ISBN matches and returns the first
// external resource of the first match that starts with prefix.
func pickExternalURL(items []searchItem, isbn, prefix string) string {
	for _, item := range items {
		if item.ISBN != isbn {
			continue
		}
		for _, res := range item.ExternalResources {
			if strings.HasPrefix(res.URL, prefix) {
				return res.URL
			}
		}
		// only the first exact match is considered
		return ""
	}
	return ""
}

// NeoDB API response types (internal)

type searchResponse struct {
	Data  []searchItem `json:"data"`
	Pages int          `json:"pages"`
	Count int          `json:"count"`
}

type searchItem struct {
	UUID              string             `json:"uuid"`
	Title             string             `json:"title"`
	ISBN              string             `json:"isbn"`
	ExternalResources []externalResource `json:"external_resources"`
}

type externalResource struct {
	URL string `json:"url"`
}
