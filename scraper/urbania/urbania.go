// Package urbania fetches rental search result pages with a headless browser
// and turns their listing cards into raw listings.
package urbania

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"os/exec"
	"strings"
	"sync"
	"time"

	"github.com/chromedp/chromedp"

	"housing-ranker/models"
	"housing-ranker/storage"
	"housing-ranker/utils"
)

const (
	baseURL     = "https://urbania.pe"
	pageTimeout = 60 * time.Second
)

// Options controls what the fetcher visits.
type Options struct {
	Districts      []string
	Operation      string
	Pages          int
	MaxConcurrency int
	RateLimitMs    int
	MaxRetries     int
	ChromeBin      string
}

// Fetcher drives the browser over district search pages.
type Fetcher struct {
	opts   Options
	logger *utils.Logger
	pool   *utils.WorkerPool
	seen   *utils.KeySet
	retry  *utils.RetryConfig

	mu       sync.Mutex
	listings []*models.RawListing
}

// New creates a ready-to-use Fetcher.
func New(opts Options, logger *utils.Logger) *Fetcher {
	if opts.Operation == "" {
		opts.Operation = "alquiler"
	}
	if opts.Pages < 1 {
		opts.Pages = 1
	}
	return &Fetcher{
		opts:   opts,
		logger: logger,
		pool:   utils.NewWorkerPool(opts.MaxConcurrency, opts.RateLimitMs),
		seen:   utils.NewKeySet(),
		retry: &utils.RetryConfig{
			MaxAttempts: opts.MaxRetries,
			BaseDelay:   2 * time.Second,
			Logger:      logger,
		},
	}
}

// SearchURL is the search page for one district and page number.
func SearchURL(operation, district string, page int) string {
	q := url.Values{}
	q.Set("districts", strings.ToLower(strings.ReplaceAll(utils.FoldAccents(district), " ", "-")))
	q.Set("page", fmt.Sprint(page))
	return fmt.Sprintf("%s/buscar/%s-de-departamentos?%s", baseURL, operation, q.Encode())
}

// Fetch visits every district page and returns the unique listings found.
func (f *Fetcher) Fetch(ctx context.Context) ([]*models.RawListing, error) {
	if len(f.opts.Districts) == 0 {
		return nil, fmt.Errorf("urbania: no districts to fetch")
	}

	chromeBin := f.opts.ChromeBin
	if chromeBin == "" {
		chromeBin = findChromeBinary()
	}
	f.logger.Info("[urbania] Using browser binary: %s", chromeBin)

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
	)
	if chromeBin != "" {
		opts = append(opts, chromedp.ExecPath(chromeBin))
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
	defer cancelAlloc()

	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx, chromedp.WithLogf(func(string, ...interface{}) {}))
	defer cancelBrowser()

	// Start the browser once so every tab shares it.
	if err := chromedp.Run(browserCtx); err != nil {
		return nil, fmt.Errorf("urbania: start browser: %w", err)
	}

	for _, district := range f.opts.Districts {
		for page := 1; page <= f.opts.Pages; page++ {
			pageURL := SearchURL(f.opts.Operation, district, page)
			f.pool.Submit(func() {
				if ctx.Err() != nil {
					return
				}
				f.fetchPage(browserCtx, pageURL)
			})
		}
	}
	f.pool.Wait()

	f.logger.Info("[urbania] Fetch complete — %d unique listings", len(f.listings))
	return f.listings, nil
}

func (f *Fetcher) fetchPage(browserCtx context.Context, pageURL string) {
	var html string
	err := f.retry.Do("fetch "+pageURL, func() error {
		tabCtx, cancel := chromedp.NewContext(browserCtx)
		defer cancel()
		tabCtx, cancelTimeout := context.WithTimeout(tabCtx, pageTimeout)
		defer cancelTimeout()

		return chromedp.Run(tabCtx,
			chromedp.Navigate(pageURL),
			chromedp.WaitReady("body", chromedp.ByQuery),
			chromedp.Sleep(2*time.Second),
			chromedp.OuterHTML("html", &html, chromedp.ByQuery),
		)
	})
	if err != nil {
		f.logger.Error("[urbania] %v", err)
		return
	}

	cards, err := storage.ParseListingCards(strings.NewReader(html), baseURL)
	if err != nil {
		f.logger.Error("[urbania] Parse %s: %v", pageURL, err)
		return
	}

	added := 0
	f.mu.Lock()
	for _, c := range cards {
		if c.OperationType == "" {
			c.OperationType = f.opts.Operation
		}
		if c.URL != "" && !f.seen.Add(c.URL) {
			continue
		}
		f.listings = append(f.listings, c)
		added++
	}
	f.mu.Unlock()
	f.logger.Info("[urbania] %s — %d cards, %d new", pageURL, len(cards), added)
}

func findChromeBinary() string {
	if bin := os.Getenv("CHROME_BIN"); bin != "" {
		return bin
	}

	names := []string{"google-chrome-stable", "google-chrome", "chromium", "chromium-browser"}
	for _, name := range names {
		if path, err := exec.LookPath(name); err == nil {
			return path
		}
	}

	paths := []string{
		"/usr/bin/google-chrome-stable",
		"/usr/bin/google-chrome",
		"/usr/bin/chromium-browser",
		"/usr/bin/chromium",
		"/snap/bin/chromium",
	}
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}

	return ""
}
