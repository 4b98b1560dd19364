// Package lookup holds the clients for the external reference services: the
// SUNAT exchange rate and the places (geocode + nearby search) API.
package lookup

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"

	"housing-ranker/utils"
)

// ExchangeOptions configures the exchange-rate client.
type ExchangeOptions struct {
	BaseURL  string
	Timeout  time.Duration
	Fallback float64
	// Pinned, when positive, is returned without any network call.
	Pinned     float64
	MaxRetries int
}

// ExchangeClient fetches the USD→PEN selling rate once per run and memoizes it.
type ExchangeClient struct {
	opts   ExchangeOptions
	http   *http.Client
	logger *utils.Logger
	now    func() time.Time

	once     sync.Once
	rate     float64
	fallback bool
}

type sunatResponse struct {
	Compra float64 `json:"compra"`
	Venta  float64 `json:"venta"`
	Fecha  string  `json:"fecha"`
}

// NewExchangeClient creates a client. A zero timeout defaults to 10s.
func NewExchangeClient(opts ExchangeOptions, logger *utils.Logger) *ExchangeClient {
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}
	return &ExchangeClient{
		opts:   opts,
		http:   &http.Client{Timeout: opts.Timeout},
		logger: logger,
		now:    time.Now,
	}
}

// Rate returns the run's exchange rate and whether the fallback was used.
// Lookup failures never surface as errors.
func (c *ExchangeClient) Rate(ctx context.Context) (float64, bool) {
	c.once.Do(func() {
		if c.opts.Pinned > 0 {
			c.rate = c.opts.Pinned
			c.logger.Info("[exchange] Using pinned rate %.4f", c.rate)
			return
		}

		retry := &utils.RetryConfig{MaxAttempts: c.opts.MaxRetries, BaseDelay: 500 * time.Millisecond, Logger: c.logger}
		var rate float64
		err := retry.DoContext(ctx, "exchange rate lookup", func(ctx context.Context) error {
			var err error
			rate, err = c.fetch(ctx)
			return err
		})
		if err != nil {
			c.logger.Warn("[exchange] %v, using fallback %.2f", err, c.opts.Fallback)
			c.rate = c.opts.Fallback
			c.fallback = true
			return
		}
		c.rate = rate
		c.logger.Info("[exchange] 1 USD = S/ %.4f", rate)
	})
	return c.rate, c.fallback
}

func (c *ExchangeClient) fetch(ctx context.Context) (float64, error) {
	u, err := url.Parse(c.opts.BaseURL)
	if err != nil {
		return 0, fmt.Errorf("parse exchange url: %w", err)
	}
	q := u.Query()
	q.Set("fecha", c.now().Format("2006-01-02"))
	u.RawQuery = q.Encode()

	ctx, cancel := context.WithTimeout(ctx, c.opts.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return 0, fmt.Errorf("build exchange request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, fmt.Errorf("exchange request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("exchange service returned status %d", resp.StatusCode)
	}

	var body sunatResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return 0, fmt.Errorf("decode exchange response: %w", err)
	}
	if body.Venta <= 0 {
		return 0, fmt.Errorf("exchange response has no selling rate")
	}
	return body.Venta, nil
}
