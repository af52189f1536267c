package geocoding

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/UnknownOlympus/waypoint/internal/models"
	"golang.org/x/time/rate"
)

const (
	nominatimBaseURL   = "https://nominatim.openstreetmap.org/search"
	nominatimUserAgent = "Waypoint/1.0 (https://github.com/UnknownOlympus/waypoint)"
	nominatimTimeout   = 10 * time.Second
	// The public instance allows one request per second.
	nominatimRateLimit = 1
)

// HTTPClient defines the interface for making HTTP requests.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// NominatimProvider geocodes addresses with the OpenStreetMap Nominatim API.
type NominatimProvider struct {
	client   HTTPClient
	baseURL  string
	language string
	limiter  *rate.Limiter
	log      *slog.Logger
}

type nominatimResult struct {
	Lat string `json:"lat"`
	Lon string `json:"lon"`
}

// Common errors for Nominatim provider.
var (
	ErrNominatimEmptyResponse = errors.New("nominatim API returned empty response")
	ErrNominatimInvalidCoords = errors.New("nominatim API returned invalid coordinates")
)

// NewNominatimProvider creates a provider for the public Nominatim instance.
// A rateLimit of 0 applies the public usage policy of one request per second.
func NewNominatimProvider(rateLimit int, language string, log *slog.Logger) *NominatimProvider {
	if rateLimit <= 0 {
		rateLimit = nominatimRateLimit
	}

	return NewNominatimProviderWithClient(
		&http.Client{Timeout: nominatimTimeout},
		nominatimBaseURL,
		rate.NewLimiter(rate.Limit(rateLimit), 1),
		language,
		log,
	)
}

// NewNominatimProviderWithClient creates a provider with an injected HTTP client,
// endpoint and limiter, e.g. for a self-hosted instance.
func NewNominatimProviderWithClient(
	client HTTPClient,
	baseURL string,
	limiter *rate.Limiter,
	language string,
	log *slog.Logger,
) *NominatimProvider {
	return &NominatimProvider{
		client:   client,
		baseURL:  baseURL,
		language: language,
		limiter:  limiter,
		log:      log,
	}
}

// Geocode resolves an address. When the full address yields nothing, trailing
// comma separated components are dropped one at a time, so
// "Rua da Aurora, 123, Recife" is retried as "Rua da Aurora, 123" and then
// "Rua da Aurora".
func (np *NominatimProvider) Geocode(ctx context.Context, address string) (*models.Coordinates, error) {
	candidates := addressCandidates(address)

	for level, candidate := range candidates {
		coords, err := np.search(ctx, candidate)
		if err == nil {
			if level > 0 {
				np.log.InfoContext(ctx, "Geocoded using shortened address",
					"original", address, "shortened", candidate, "level", level)
			}
			return coords, nil
		}
		if !errors.Is(err, ErrNominatimEmptyResponse) {
			return nil, err
		}
	}

	np.log.WarnContext(ctx, "No Nominatim results for address", "address", address, "tried", len(candidates))

	return nil, ErrNominatimEmptyResponse
}

func addressCandidates(address string) []string {
	parts := strings.Split(address, ",")
	trimmed := make([]string, 0, len(parts))
	for _, part := range parts {
		if part = strings.TrimSpace(part); part != "" {
			trimmed = append(trimmed, part)
		}
	}
	if len(trimmed) == 0 {
		return []string{strings.TrimSpace(address)}
	}

	candidates := make([]string, 0, len(trimmed))
	for end := len(trimmed); end > 0; end-- {
		candidates = append(candidates, strings.Join(trimmed[:end], ", "))
	}

	return candidates
}

func (np *NominatimProvider) search(ctx context.Context, address string) (*models.Coordinates, error) {
	if err := np.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	reqURL, err := url.Parse(np.baseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse base URL: %w", err)
	}

	query := reqURL.Query()
	query.Set("q", address)
	query.Set("format", "json")
	query.Set("limit", "1")
	if np.language != "" {
		query.Set("accept-language", np.language)
	}
	reqURL.RawQuery = query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", nominatimUserAgent)

	resp, err := np.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute geocoding request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		np.log.ErrorContext(ctx, "Nominatim API error", "status", resp.StatusCode, "body", string(body))
		return nil, fmt.Errorf("nominatim API returned status %d: %s", resp.StatusCode, string(body))
	}

	var results []nominatimResult
	if err = json.Unmarshal(body, &results); err != nil {
		return nil, fmt.Errorf("failed to decode nominatim response: %w", err)
	}
	if len(results) == 0 {
		return nil, ErrNominatimEmptyResponse
	}

	lat, err := strconv.ParseFloat(results[0].Lat, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid latitude: %s", ErrNominatimInvalidCoords, results[0].Lat)
	}
	lon, err := strconv.ParseFloat(results[0].Lon, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid longitude: %s", ErrNominatimInvalidCoords, results[0].Lon)
	}

	np.log.DebugContext(ctx, "Nominatim found result", "address", address, "lat", lat, "lon", lon)

	return &models.Coordinates{Latitude: lat, Longitude: lon}, nil
}
