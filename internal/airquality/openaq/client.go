// Package openaq provides a client for the OpenAQ v2 API.
package openaq

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/airpulse/airpulse/internal/airquality"
	"github.com/airpulse/airpulse/internal/geo"
	"github.com/airpulse/airpulse/internal/provider/resilience"
)

const (
	// DefaultBaseURL is the base URL for the OpenAQ v2 API.
	DefaultBaseURL = "https://api.openaq.org/v2"

	// ProviderName identifies this provider.
	ProviderName = "openaq"
)

// ClientConfig holds configuration for the OpenAQ client.
type ClientConfig struct {
	// BaseURL is the API base URL (defaults to DefaultBaseURL).
	BaseURL string

	// APIKey is sent as X-API-Key when set.
	APIKey string

	// HTTPClient is the HTTP client to use.
	// If nil, a default resilient client will be created.
	HTTPClient HTTPDoer

	// Timeout for individual API requests (default: 10s).
	Timeout time.Duration
}

// HTTPDoer abstracts HTTP request execution.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client is an OpenAQ API client.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient HTTPDoer
}

// NewClient creates a new OpenAQ client.
func NewClient(cfg ClientConfig) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout == 0 {
			timeout = 10 * time.Second
		}
		httpClient = resilience.NewClient(resilience.ClientConfig{
			Name:            ProviderName,
			Timeout:         timeout,
			MaxRetries:      2,
			InitialInterval: 200 * time.Millisecond,
			MaxInterval:     2 * time.Second,
		})
	}

	return &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		apiKey:     cfg.APIKey,
		httpClient: httpClient,
	}
}

// Name returns the provider name.
func (c *Client) Name() string {
	return ProviderName
}

// API response types (from OpenAQ v2 /latest).

type latestResponse struct {
	Results []latestResult `json:"results"`
}

type latestResult struct {
	Location     string            `json:"location"`
	City         string            `json:"city"`
	Country      string            `json:"country"`
	Coordinates  *coordinatesData  `json:"coordinates"`
	Measurements []measurementData `json:"measurements"`
}

type coordinatesData struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

type measurementData struct {
	Parameter   string  `json:"parameter"`
	Value       float64 `json:"value"`
	Unit        string  `json:"unit"`
	LastUpdated string  `json:"lastUpdated"`
}

// FetchLatest retrieves the latest measurements near q.Coordinates.
func (c *Client) FetchLatest(ctx context.Context, q airquality.Query) ([]airquality.Sample, error) {
	radius := q.RadiusMeters
	if radius <= 0 {
		radius = airquality.DefaultRadiusMeters
	}
	limit := q.Limit
	if limit <= 0 {
		limit = airquality.DefaultLimit
	}

	params := url.Values{}
	params.Set("coordinates", formatCoordinates(q.Coordinates))
	params.Set("radius", strconv.Itoa(radius))
	params.Set("limit", strconv.Itoa(limit))

	reqURL := fmt.Sprintf("%s/latest?%s", c.baseURL, params.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("X-API-Key", c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch latest: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d from latest endpoint", resp.StatusCode)
	}

	var result latestResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode latest response: %w", err)
	}

	fetchedAt := time.Now()
	samples := make([]airquality.Sample, 0, len(result.Results))
	for i := range result.Results {
		samples = append(samples, toSample(&result.Results[i], fetchedAt))
	}

	return samples, nil
}

// formatCoordinates renders "lat,lon" the way OpenAQ expects.
func formatCoordinates(c geo.Coordinates) string {
	return strconv.FormatFloat(c.Lat, 'f', -1, 64) + "," + strconv.FormatFloat(c.Lon, 'f', -1, 64)
}

// toSample converts an API result to a domain Sample.
func toSample(r *latestResult, fetchedAt time.Time) airquality.Sample {
	sample := airquality.Sample{
		Location:     r.Location,
		City:         r.City,
		Country:      r.Country,
		Measurements: make([]airquality.Measurement, 0, len(r.Measurements)),
		FetchedAt:    fetchedAt,
		Provider:     ProviderName,
	}
	if r.Coordinates != nil {
		sample.Coordinates = geo.Coordinates{Lat: r.Coordinates.Latitude, Lon: r.Coordinates.Longitude}
	}

	for _, m := range r.Measurements {
		lastUpdated, _ := time.Parse(time.RFC3339, m.LastUpdated)
		sample.Measurements = append(sample.Measurements, airquality.Measurement{
			Parameter:   airquality.Parameter(strings.ToLower(m.Parameter)),
			Value:       m.Value,
			Unit:        m.Unit,
			LastUpdated: lastUpdated,
		})
	}

	return sample
}

// Ensure Client implements airquality.Provider.
var _ airquality.Provider = (*Client)(nil)
