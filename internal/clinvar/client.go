// Package clinvar resolves clinical-significance labels for SPDI
// identifiers through the NCBI Variation Services API.
package clinvar

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/inodb/vibe-triage/internal/ratelimit"
)

// DefaultBaseURL is the SPDI endpoint of the NCBI Variation Services.
const DefaultBaseURL = "https://api.ncbi.nlm.nih.gov/variation/v0/spdi"

// DefaultTimeout bounds a single remote query.
const DefaultTimeout = 30 * time.Second

// Labels returned by Resolve besides the significance reported upstream.
const (
	LabelUnknown  = "Unknown"              // found, but no significance given
	LabelNotFound = "Not found in ClinVar" // upstream 404; cached
	LabelAPIError = "API Error"            // unexpected status; not cached
	LabelError    = "Error"                // transport or decode failure; not cached
)

// maxErrorBody limits how much of an error response is logged.
const maxErrorBody = 512

// Cache is the label store consulted before any remote call.
type Cache interface {
	Lookup(id string) (string, bool)
	Store(id, label string) error
}

// Client resolves SPDI identifiers, caching permanent answers only.
// Not safe for concurrent use.
type Client struct {
	httpClient *http.Client
	limiter    ratelimit.Limiter
	cache      Cache
	baseURL    string
	logger     *zap.Logger
	stats      Stats
}

// Stats counts Resolve outcomes.
type Stats struct {
	CacheHits   int
	RemoteCalls int
	Found       int
	NotFound    int
	APIErrors   int
	Errors      int
}

// NewClient creates a client querying DefaultBaseURL.
func NewClient(c Cache, limiter ratelimit.Limiter) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: DefaultTimeout},
		limiter:    limiter,
		cache:      c,
		baseURL:    DefaultBaseURL,
		logger:     zap.NewNop(),
	}
}

// SetBaseURL overrides the endpoint, e.g. for a mirror or a test server.
func (c *Client) SetBaseURL(u string) {
	c.baseURL = strings.TrimRight(u, "/")
}

// SetHTTPClient replaces the HTTP client.
func (c *Client) SetHTTPClient(hc *http.Client) {
	c.httpClient = hc
}

// SetLogger sets the logger for transient failures.
func (c *Client) SetLogger(l *zap.Logger) {
	c.logger = l
}

// Stats returns outcome counts so far.
func (c *Client) Stats() Stats {
	return c.stats
}

// spdiResponse is the part of the SPDI endpoint response that is used.
type spdiResponse struct {
	ClinicalSignificance *struct {
		Description *string `json:"description"`
	} `json:"clinical_significance"`
}

// Resolve returns the clinical-significance label for id.
//
// Cached labels are returned without touching the limiter. Otherwise one
// rate-limited GET is issued. Found and not-found answers are cached;
// bad statuses and transport or decode failures are not, so they are
// retried on the next run. Resolve never fails: failures come back as
// LabelAPIError or LabelError.
func (c *Client) Resolve(ctx context.Context, id string) string {
	if label, ok := c.cache.Lookup(id); ok {
		c.stats.CacheHits++
		return label
	}

	if err := c.limiter.Wait(ctx); err != nil {
		c.stats.Errors++
		c.logger.Warn("rate limiter wait aborted", zap.String("id", id), zap.Error(err))
		return LabelError
	}

	c.stats.RemoteCalls++
	label, cacheable := c.query(ctx, id)
	if cacheable {
		if err := c.cache.Store(id, label); err != nil {
			c.logger.Warn("failed to persist significance", zap.String("id", id), zap.Error(err))
		}
	}
	return label
}

// query performs the remote call and classifies the outcome.
func (c *Client) query(ctx context.Context, id string) (label string, cacheable bool) {
	u := fmt.Sprintf("%s/%s/", c.baseURL, url.PathEscape(id))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		c.stats.Errors++
		c.logger.Warn("failed to build ClinVar request", zap.String("id", id), zap.Error(err))
		return LabelError, false
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.stats.Errors++
		c.logger.Warn("ClinVar request failed", zap.String("id", id), zap.Error(err))
		return LabelError, false
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	switch resp.StatusCode {
	case http.StatusOK:
		var body spdiResponse
		if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
			c.stats.Errors++
			c.logger.Warn("malformed ClinVar response", zap.String("id", id), zap.Error(err))
			return LabelError, false
		}
		c.stats.Found++
		if body.ClinicalSignificance == nil || body.ClinicalSignificance.Description == nil {
			return LabelUnknown, true
		}
		return *body.ClinicalSignificance.Description, true

	case http.StatusNotFound:
		c.stats.NotFound++
		return LabelNotFound, true

	default:
		c.stats.APIErrors++
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		c.logger.Warn("ClinVar API error",
			zap.String("id", id),
			zap.Int("status", resp.StatusCode),
			zap.ByteString("body", snippet))
		return LabelAPIError, false
	}
}
