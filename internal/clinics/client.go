// Package clinics wraps the external clinic-search API and formats clinic
// records into reply fragments. The client performs one bounded HTTP request
// per lookup; every transport or decoding failure is reported as a single
// "locator unavailable" condition for the engine to degrade on.
package clinics

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/clinicline/go-sms-backend/internal/domain"
)

const (
	defaultRadiusMiles = 60
	defaultPageSize    = 5
	defaultTimeout     = 10 * time.Second
	defaultUserAgent   = "clinicline-sms/0.1"
)

// ErrUnavailable is returned for any network, HTTP, or decoding failure of
// the clinic-search API.
var ErrUnavailable = errors.New("clinics: search API unavailable")

// Config controls how the search client behaves.
type Config struct {
	BaseURL     string
	APIKey      string
	RadiusMiles int
	PageSize    int
	Timeout     time.Duration
	HTTPClient  *http.Client
	UserAgent   string
}

// Client queries the clinic-search API by ZIP code.
type Client struct {
	baseURL    string
	apiKey     string
	radius     int
	pageSize   int
	httpClient *http.Client
	userAgent  string
}

// New creates a configured Client with sane defaults. The API key is
// required; the service must not start without one.
func New(cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, errors.New("clinics: API key is required")
	}
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		return nil, errors.New("clinics: base URL is required")
	}
	radius := cfg.RadiusMiles
	if radius <= 0 {
		radius = defaultRadiusMiles
	}
	pageSize := cfg.PageSize
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = defaultTimeout
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	userAgent := strings.TrimSpace(cfg.UserAgent)
	if userAgent == "" {
		userAgent = defaultUserAgent
	}
	return &Client{
		baseURL:    baseURL,
		apiKey:     cfg.APIKey,
		radius:     radius,
		pageSize:   pageSize,
		httpClient: httpClient,
		userAgent:  userAgent,
	}, nil
}

// searchResponse is the JSON envelope of the search endpoint.
type searchResponse struct {
	Clinics []domain.Clinic `json:"clinics"`
}

// FindNearest returns the clinics around zip ordered by ascending
// miles_from_query_location. The API's own ordering is not trusted.
func (c *Client) FindNearest(ctx context.Context, zip string) ([]domain.Clinic, error) {
	q := url.Values{}
	q.Set("zip", zip)
	q.Set("distance", strconv.Itoa(c.radius))
	q.Set("per_page", strconv.Itoa(c.pageSize))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/clinics?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("%w: status %d", ErrUnavailable, resp.StatusCode)
	}

	var out searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("%w: decode: %v", ErrUnavailable, err)
	}

	results := out.Clinics
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].MilesFromQueryLocation < results[j].MilesFromQueryLocation
	})
	return results, nil
}
