package lookup

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"housing-ranker/models"
	"housing-ranker/utils"
)

// ErrNoGeocode is returned when the geocoder finds nothing for an address.
var ErrNoGeocode = errors.New("address not found")

// Place categories queried around each listing.
const (
	CategoryRestaurant = "restaurant"
	CategoryPark       = "park"
	CategoryPolice     = "police"
	CategoryTransit    = "transit_station"
)

// PlacesOptions configures the places client.
type PlacesOptions struct {
	APIKey         string
	BaseURL        string
	Timeout        time.Duration
	ServicesRadius int
	PoliceRadius   int
	MaxRetries     int
	// Region is appended to every geocoded address, e.g. "Lima, Peru".
	Region string
}

// Coordinates is a geocoded point.
type Coordinates struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Key is the cache key for a point, rounded to about one meter.
func (c Coordinates) Key() string {
	return fmt.Sprintf("%.5f,%.5f", c.Lat, c.Lng)
}

// PlacesClient counts amenities around a location. Results are cached per
// coordinate, so repeated addresses cost one set of requests.
type PlacesClient struct {
	opts   PlacesOptions
	http   *http.Client
	logger *utils.Logger
	retry  *utils.RetryConfig

	mu    sync.Mutex
	cache map[string]models.AmenityCounts
}

type apiStatus struct {
	Status       string `json:"status"`
	ErrorMessage string `json:"error_message"`
}

type geocodeResponse struct {
	apiStatus
	Results []struct {
		FormattedAddress string `json:"formatted_address"`
		Geometry         struct {
			Location Coordinates `json:"location"`
		} `json:"geometry"`
	} `json:"results"`
}

type nearbyResponse struct {
	apiStatus
	Results []json.RawMessage `json:"results"`
}

// NewPlacesClient creates a client. Zero radii default to 500 m and 1000 m.
func NewPlacesClient(opts PlacesOptions, logger *utils.Logger) *PlacesClient {
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}
	if opts.ServicesRadius <= 0 {
		opts.ServicesRadius = 500
	}
	if opts.PoliceRadius <= 0 {
		opts.PoliceRadius = 1000
	}
	opts.BaseURL = strings.TrimRight(opts.BaseURL, "/")
	return &PlacesClient{
		opts:   opts,
		http:   &http.Client{Timeout: opts.Timeout},
		logger: logger,
		retry:  &utils.RetryConfig{MaxAttempts: opts.MaxRetries, BaseDelay: time.Second, Logger: logger},
		cache:  make(map[string]models.AmenityCounts),
	}
}

// Lookup geocodes a location and counts the amenities around it.
func (c *PlacesClient) Lookup(ctx context.Context, location string) (models.AmenityCounts, error) {
	coords, err := c.Geocode(ctx, location)
	if err != nil {
		return models.AmenityCounts{}, err
	}
	return c.Nearby(ctx, coords)
}

// Geocode resolves an address to coordinates.
func (c *PlacesClient) Geocode(ctx context.Context, address string) (Coordinates, error) {
	query := strings.TrimSpace(address)
	if c.opts.Region != "" && !strings.Contains(strings.ToLower(query), strings.ToLower(c.opts.Region)) {
		query += ", " + c.opts.Region
	}

	params := url.Values{}
	params.Set("address", query)

	var body geocodeResponse
	if err := c.get(ctx, "geocode", "/geocode/json", params, &body); err != nil {
		return Coordinates{}, err
	}
	if body.Status == "ZERO_RESULTS" || len(body.Results) == 0 {
		return Coordinates{}, fmt.Errorf("geocode %q: %w", address, ErrNoGeocode)
	}
	loc := body.Results[0].Geometry.Location
	c.logger.Debug("[places] %q → %s (%s)", address, loc.Key(), body.Results[0].FormattedAddress)
	return loc, nil
}

// Nearby counts restaurants, parks and transit stations within the services
// radius and police stations within the police radius. The four category
// queries run concurrently.
func (c *PlacesClient) Nearby(ctx context.Context, at Coordinates) (models.AmenityCounts, error) {
	key := at.Key()
	c.mu.Lock()
	if counts, ok := c.cache[key]; ok {
		c.mu.Unlock()
		return counts, nil
	}
	c.mu.Unlock()

	var counts models.AmenityCounts
	g, gctx := errgroup.WithContext(ctx)
	queries := []struct {
		category string
		radius   int
		dst      *int
	}{
		{CategoryRestaurant, c.opts.ServicesRadius, &counts.Restaurants},
		{CategoryPark, c.opts.ServicesRadius, &counts.Parks},
		{CategoryPolice, c.opts.PoliceRadius, &counts.PoliceStations},
		{CategoryTransit, c.opts.ServicesRadius, &counts.TransitStations},
	}
	for _, q := range queries {
		g.Go(func() error {
			n, err := c.countNearby(gctx, at, q.category, q.radius)
			if err != nil {
				return err
			}
			*q.dst = n
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return models.AmenityCounts{}, err
	}

	c.mu.Lock()
	c.cache[key] = counts
	c.mu.Unlock()
	return counts, nil
}

func (c *PlacesClient) countNearby(ctx context.Context, at Coordinates, category string, radius int) (int, error) {
	params := url.Values{}
	params.Set("location", fmt.Sprintf("%f,%f", at.Lat, at.Lng))
	params.Set("radius", fmt.Sprint(radius))
	params.Set("type", category)

	var body nearbyResponse
	if err := c.get(ctx, "nearby "+category, "/place/nearbysearch/json", params, &body); err != nil {
		return 0, err
	}
	return len(body.Results), nil
}

// get performs one API call with retries. A non-OK API status other than
// ZERO_RESULTS is an error.
func (c *PlacesClient) get(ctx context.Context, name, path string, params url.Values, dst interface{ status() apiStatus }) error {
	params.Set("key", c.opts.APIKey)
	endpoint := c.opts.BaseURL + path + "?" + params.Encode()

	return c.retry.DoContext(ctx, "places "+name, func(ctx context.Context) error {
		ctx, cancel := context.WithTimeout(ctx, c.opts.Timeout)
		defer cancel()

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return fmt.Errorf("build request: %w", err)
		}
		resp, err := c.http.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("places %s: status %d", name, resp.StatusCode)
		}
		if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
			return fmt.Errorf("decode places %s: %w", name, err)
		}
		st := dst.status()
		if st.Status != "" && st.Status != "OK" && st.Status != "ZERO_RESULTS" {
			return fmt.Errorf("places %s: %s %s", name, st.Status, st.ErrorMessage)
		}
		return nil
	})
}

func (s apiStatus) status() apiStatus { return s }
