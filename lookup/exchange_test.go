package lookup

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"housing-ranker/utils"
)

func TestExchangeRateFromService(t *testing.T) {
	var calls atomic.Int64
	var gotDate string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		gotDate = r.URL.Query().Get("fecha")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"compra":3.712,"venta":3.725,"fecha":"2025-03-14"}`))
	}))
	defer srv.Close()

	c := NewExchangeClient(ExchangeOptions{BaseURL: srv.URL, Fallback: 3.7, MaxRetries: 1}, utils.NewDiscardLogger())
	c.now = func() time.Time { return time.Date(2025, 3, 14, 10, 0, 0, 0, time.UTC) }

	rate, fallback := c.Rate(context.Background())
	assert.Equal(t, 3.725, rate)
	assert.False(t, fallback)
	assert.Equal(t, "2025-03-14", gotDate)

	// memoized for the rest of the run
	rate, _ = c.Rate(context.Background())
	assert.Equal(t, 3.725, rate)
	assert.Equal(t, int64(1), calls.Load())
}

func TestExchangeRateFallback(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{"server error", func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}},
		{"malformed body", func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`<html>`))
		}},
		{"missing rate", func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`{"compra":3.7}`))
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(tt.handler)
			defer srv.Close()

			c := NewExchangeClient(ExchangeOptions{BaseURL: srv.URL, Fallback: 3.72, MaxRetries: 1}, utils.NewDiscardLogger())
			rate, fallback := c.Rate(context.Background())
			assert.Equal(t, 3.72, rate)
			assert.True(t, fallback)
		})
	}
}

func TestExchangeRatePinned(t *testing.T) {
	var calls atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
	}))
	defer srv.Close()

	c := NewExchangeClient(ExchangeOptions{BaseURL: srv.URL, Pinned: 3.5, Fallback: 3.72}, utils.NewDiscardLogger())
	rate, fallback := c.Rate(context.Background())

	assert.Equal(t, 3.5, rate)
	assert.False(t, fallback)
	assert.Zero(t, calls.Load())
}
