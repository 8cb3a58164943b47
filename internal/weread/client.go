package weread

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/time/rate"

	"github.com/mrlokans/readsync/internal/retry"
)

const (
	defaultBaseURL = "https://weread.qq.com"

	shelfPath    = "/web/shelf/sync"
	notebookPath = "/api/user/notebook"
	bookInfoPath = "/web/book/info"
	readInfoPath = "/web/book/readinfo"

	defaultTimeout   = 30 * time.Second
	defaultRateLimit = 2 // requests per second
	userAgent        = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0 Safari/537.36"
)

// Client interfaces with the WeRead web API
type Client struct {
	httpClient *http.Client
	baseURL    string
	cookie     string
	limiter    *rate.Limiter
	policy     retry.Policy
}

// Option customizes a Client.
type Option func(*Client)

// WithBaseURL points the client at another host, used by tests.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) { c.baseURL = baseURL }
}

func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) { c.httpClient = httpClient }
}

// WithRateLimit throttles the client to rps requests per second.
func WithRateLimit(rps float64) Option {
	return func(c *Client) {
		if rps > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(rps), 1)
		}
	}
}

// WithRetryPolicy retries rate-limited and 5xx responses under p.
// The policy's Retryable predicate is replaced by IsRetryable when unset.
func WithRetryPolicy(p retry.Policy) Option {
	return func(c *Client) {
		if p.Retryable == nil {
			p.Retryable = IsRetryable
		}
		c.policy = p
	}
}

// NewClient creates a new WeRead API client authenticated by cookie
func NewClient(cookie string, opts ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{
			Timeout: defaultTimeout,
		},
		baseURL: defaultBaseURL,
		cookie:  cookie,
		limiter: rate.NewLimiter(rate.Limit(defaultRateLimit), 1),
		policy:  retry.Once,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// GetBookshelf fetches the shelf: books, progress snapshots and archive folders.
func (c *Client) GetBookshelf(ctx context.Context) (*Bookshelf, error) {
	var shelf Bookshelf
	if err := c.get(ctx, shelfPath, nil, &shelf); err != nil {
		return nil, fmt.Errorf("fetch bookshelf: %w", err)
	}
	return &shelf, nil
}

// GetNotebookBookIDs lists the IDs of books that carry notes or highlights.
func (c *Client) GetNotebookBookIDs(ctx context.Context) ([]string, error) {
	var resp notebookResponse
	if err := c.get(ctx, notebookPath, nil, &resp); err != nil {
		return nil, fmt.Errorf("fetch notebooks: %w", err)
	}

	ids := make([]string, 0, len(resp.Books))
	for _, b := range resp.Books {
		if b.BookID != "" {
			ids = append(ids, b.BookID)
		}
	}
	return ids, nil
}

// GetBookInfo fetches the detailed metadata of a book.
func (c *Client) GetBookInfo(ctx context.Context, bookID string) (*BookInfo, error) {
	q := url.Values{}
	q.Set("bookId", bookID)

	var info BookInfo
	if err := c.get(ctx, bookInfoPath, q, &info); err != nil {
		return nil, fmt.Errorf("fetch book info %s: %w", bookID, err)
	}
	return &info, nil
}

// GetReadInfo fetches the reading state of a book, including the daily log.
func (c *Client) GetReadInfo(ctx context.Context, bookID string) (*ReadInfo, error) {
	q := url.Values{}
	q.Set("bookId", bookID)
	q.Set("readingDetail", "1")
	q.Set("readingBookIndex", "1")
	q.Set("finishedDate", "1")

	var info ReadInfo
	if err := c.get(ctx, readInfoPath, q, &info); err != nil {
		return nil, fmt.Errorf("fetch read info %s: %w", bookID, err)
	}
	return &info, nil
}

func (c *Client) get(ctx context.Context, path string, query url.Values, out any) error {
	u, err := url.Parse(c.baseURL + path)
	if err != nil {
		return fmt.Errorf("failed to parse URL: %w", err)
	}
	if query != nil {
		u.RawQuery = query.Encode()
	}

	return retry.Run(ctx, c.policy, func(ctx context.Context) error {
		if c.limiter != nil {
			if err := c.limiter.Wait(ctx); err != nil {
				return err
			}
		}
		return c.doRequest(ctx, u.String(), out)
	})
}

func (c *Client) doRequest(ctx context.Context, url string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Cookie", c.cookie)
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		return ErrSessionExpired
	}
	if resp.StatusCode == http.StatusTooManyRequests {
		return ErrRateLimited
	}
	if resp.StatusCode >= 500 {
		return &ServerError{StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d: %s", resp.StatusCode, string(body))
	}

	var envelope errorEnvelope
	if err := json.Unmarshal(body, &envelope); err == nil && envelope.ErrCode != nil && *envelope.ErrCode != 0 {
		return &APIError{Code: *envelope.ErrCode, Message: envelope.ErrMsg}
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
