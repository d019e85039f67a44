package geo

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"marketplace_backend/platform/apperr"
	"marketplace_backend/platform/config"
	"marketplace_backend/platform/logger"

	"golang.org/x/time/rate"
)

// resultLimit caps how many candidates a single lookup requests.
const resultLimit = 10

// Geocoder resolves a free-text query into raw place candidates.
type Geocoder interface {
	Lookup(ctx context.Context, query string) ([]RawPlace, error)
}

// Client is the adapter for the Nominatim search endpoint. Requests are
// country-scoped, identified by a stable User-Agent per the provider's
// usage policy, and throttled to one request per second process-wide.
type Client struct {
	httpClient *http.Client
	baseURL    string
	userAgent  string
	country    string
	limiter    *rate.Limiter
	log        *logger.Logger
}

// NewClient creates a geocoder client from configuration.
func NewClient(cfg config.GeocoderConfig, log *logger.Logger) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: cfg.GetGeocoderTimeout()},
		baseURL:    cfg.GetGeocoderBaseURL(),
		userAgent:  cfg.GetGeocoderUserAgent(),
		country:    cfg.GetGeocoderCountry(),
		limiter:    rate.NewLimiter(rate.Limit(1), 1),
		log:        log,
	}
}

// Lookup queries the provider for places matching the free-text query
// within the configured country. A provider answer with zero matches is
// an empty slice, not an error; transport failures, timeouts and
// non-success statuses surface as upstream-unavailable errors.
func (c *Client) Lookup(ctx context.Context, query string) ([]RawPlace, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, apperr.Wrap(apperr.KindUnavailable, "place lookup timed out", err).WithOp("geo.Lookup")
	}

	params := url.Values{}
	params.Set("q", query)
	params.Set("countrycodes", c.country)
	params.Set("format", "json")
	params.Set("addressdetails", "1")
	params.Set("limit", fmt.Sprintf("%d", resultLimit))

	reqURL := fmt.Sprintf("%s?%s", c.baseURL, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "building place lookup request", err).WithOp("geo.Lookup")
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.log.UpstreamError("geocoder", err)
		return nil, apperr.Wrap(apperr.KindUnavailable, "place lookup failed", err).WithOp("geo.Lookup")
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		c.log.Error("geocoder upstream error", "status", resp.StatusCode)
		return nil, apperr.Unavailable(fmt.Sprintf("place lookup returned status %d", resp.StatusCode)).WithOp("geo.Lookup")
	}

	var places []RawPlace
	if err := json.NewDecoder(resp.Body).Decode(&places); err != nil {
		c.log.UpstreamError("geocoder", err)
		return nil, apperr.Wrap(apperr.KindUnavailable, "decoding place lookup payload", err).WithOp("geo.Lookup")
	}

	return places, nil
}
