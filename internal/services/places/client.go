package places

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"marquee/internal/services"
)

// Place represents a single text search match.
type Place struct {
	PlaceID          string   `json:"place_id"`
	Name             string   `json:"name"`
	Rating           float64  `json:"rating"`
	UserRatingsTotal int64    `json:"user_ratings_total"`
	PriceLevel       *int     `json:"price_level"`
	Types            []string `json:"types"`
}

// Details carries the subset of place details relevant to the tagline.
type Details struct {
	Name       string   `json:"name"`
	Rating     float64  `json:"rating"`
	PriceLevel *int     `json:"price_level"`
	Types      []string `json:"types"`
}

type searchResponse struct {
	Status       string  `json:"status"`
	ErrorMessage string  `json:"error_message"`
	Results      []Place `json:"results"`
}

type detailsResponse struct {
	Status       string   `json:"status"`
	ErrorMessage string   `json:"error_message"`
	Result       *Details `json:"result"`
}

// Searcher defines the lookup operations the coordinator uses.
type Searcher interface {
	SearchRestaurants(ctx context.Context, location string) ([]Place, error)
	GetDetails(ctx context.Context, placeID string) (*Details, error)
}

// Client provides access to the Places web service.
type Client struct {
	apiKey     string
	baseURL    string
	maxResults int
	httpClient *http.Client
}

var _ Searcher = (*Client)(nil)

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// New creates a Places client.
func New(apiKey, baseURL string, maxResults, timeoutSeconds int, opts ...Option) (*Client, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, services.Wrap(services.ErrConfiguration, "places", "new", "api key required", nil)
	}
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		return nil, services.Wrap(services.ErrConfiguration, "places", "new", "base url required", nil)
	}
	if maxResults <= 0 {
		maxResults = 20
	}
	timeout := time.Duration(timeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	client := &Client{
		apiKey:     apiKey,
		baseURL:    strings.TrimRight(baseURL, "/"),
		maxResults: maxResults,
		httpClient: &http.Client{Timeout: timeout},
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

// SearchRestaurants performs a text search for restaurants around the given
// location. Zero results is a valid answer, not an error.
func (c *Client) SearchRestaurants(ctx context.Context, location string) ([]Place, error) {
	location = strings.TrimSpace(location)
	if location == "" {
		return nil, services.Wrap(services.ErrConfiguration, "places", "search", "location must not be empty", nil)
	}
	endpoint, err := url.Parse(c.baseURL + "/textsearch/json")
	if err != nil {
		return nil, fmt.Errorf("parse places url: %w", err)
	}
	params := url.Values{}
	params.Set("query", "restaurants in "+location)
	params.Set("key", c.apiKey)
	endpoint.RawQuery = params.Encode()

	var payload searchResponse
	if err := c.get(ctx, endpoint.String(), "text search", &payload); err != nil {
		return nil, err
	}
	if payload.Status != "OK" && payload.Status != "ZERO_RESULTS" {
		return nil, services.Wrap(services.ErrExternalAPI, "places", "text search", apiMessage(payload.Status, payload.ErrorMessage), nil)
	}
	results := payload.Results
	if len(results) > c.maxResults {
		results = results[:c.maxResults]
	}
	return results, nil
}

// GetDetails fetches the detail fields for a place. A non-OK detail status
// yields (nil, nil): the search result alone is enough to publish and the
// detail pass only refines the tagline.
func (c *Client) GetDetails(ctx context.Context, placeID string) (*Details, error) {
	placeID = strings.TrimSpace(placeID)
	if placeID == "" {
		return nil, services.Wrap(services.ErrExternalAPI, "places", "details", "place id must not be empty", nil)
	}
	endpoint, err := url.Parse(c.baseURL + "/details/json")
	if err != nil {
		return nil, fmt.Errorf("parse places url: %w", err)
	}
	params := url.Values{}
	params.Set("place_id", placeID)
	params.Set("fields", "name,rating,price_level,types")
	params.Set("key", c.apiKey)
	endpoint.RawQuery = params.Encode()

	var payload detailsResponse
	if err := c.get(ctx, endpoint.String(), "details", &payload); err != nil {
		return nil, err
	}
	if payload.Status != "OK" {
		return nil, nil
	}
	return payload.Result, nil
}

func (c *Client) get(ctx context.Context, endpoint, operation string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}

	requestStart := time.Now()
	resp, err := c.httpClient.Do(req)
	latency := time.Since(requestStart)
	if err != nil {
		return services.Wrap(services.ErrExternalAPI, "places", operation, fmt.Sprintf("execute request (latency=%v)", latency), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return services.Wrap(services.ErrExternalAPI, "places", operation, fmt.Sprintf("returned %d (latency=%v)", resp.StatusCode, latency), nil)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return services.Wrap(services.ErrExternalAPI, "places", operation, "decode response", err)
	}
	return nil
}

func apiMessage(status, errorMessage string) string {
	if strings.TrimSpace(errorMessage) != "" {
		return errorMessage
	}
	if strings.TrimSpace(status) != "" {
		return status
	}
	return "places api error"
}

// PriceLevelOrDefault resolves the nullable price level, defaulting to the
// mid tier the scoring model centers on.
func PriceLevelOrDefault(level *int) int {
	if level == nil {
		return 2
	}
	return *level
}
