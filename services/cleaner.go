package services

import (
	"regexp"
	"strconv"
	"strings"

	"housing-ranker/models"
	"housing-ranker/utils"
)

var (
	// numberRegexp captures the first decimal number once thousands commas are gone.
	numberRegexp = regexp.MustCompile(`\d+(?:\.\d+)?`)
	// integerRegexp captures the first run of digits.
	integerRegexp = regexp.MustCompile(`\d+`)
	// localDollarRegexp matches the "S/" sol prefix that must not count as a dollar marker.
	localDollarRegexp = regexp.MustCompile(`S\s*/\s*\.?\s*\$`)
)

// CleanerOptions carries the run-level reference values the cleaner needs.
type CleanerOptions struct {
	ExchangeRate    float64
	LocalCurrency   string
	ForeignCurrency string
	CurrencyMarkers []string
	CurrentYear     int
	BaselineYear    int
	OperationFilter string
}

// Cleaner transforms RawListings into typed CleanedListings. It never fails on
// a malformed field: every field degrades to nil or its default.
type Cleaner struct {
	logger *utils.Logger
	opts   CleanerOptions
}

// NewCleaner creates a Cleaner with the given logger and options.
func NewCleaner(logger *utils.Logger, opts CleanerOptions) *Cleaner {
	if opts.LocalCurrency == "" {
		opts.LocalCurrency = "PEN"
	}
	if opts.ForeignCurrency == "" {
		opts.ForeignCurrency = "USD"
	}
	return &Cleaner{logger: logger, opts: opts}
}

// Clean filters raw listings by operation type, drops duplicate URLs and
// parses the remaining rows. Degradations are counted into summary when it is
// non-nil. Seq on each result is its position in the returned slice.
func (c *Cleaner) Clean(raw []*models.RawListing, summary *models.RunSummary) []*models.CleanedListing {
	seen := utils.NewKeySet()
	filter := strings.ToLower(strings.TrimSpace(c.opts.OperationFilter))
	result := make([]*models.CleanedListing, 0, len(raw))

	for _, r := range raw {
		if filter != "" && !strings.Contains(strings.ToLower(r.OperationType), filter) {
			c.logger.Debug("[cleaner] Skipping %q: operation %q", r.Title, r.OperationType)
			if summary != nil {
				summary.FilteredOperation++
			}
			continue
		}

		url := strings.TrimSpace(r.URL)
		if url != "" && !seen.Add(url) {
			c.logger.Debug("[cleaner] Duplicate URL skipped: %s", url)
			if summary != nil {
				summary.DuplicateURLs++
			}
			continue
		}

		l := c.CleanOne(r)
		l.Seq = len(result)
		l.URL = url
		c.count(l, r, summary)
		result = append(result, l)
	}

	c.logger.Info("[cleaner] Cleaned %d → %d listings (dropped %d)",
		len(raw), len(result), len(raw)-len(result))
	return result
}

// CleanOne parses a single raw listing without filtering.
func (c *Cleaner) CleanOne(r *models.RawListing) *models.CleanedListing {
	l := &models.CleanedListing{
		Title:         utils.CollapseSpaces(utils.RepairMojibake(r.Title)),
		Location:      utils.CollapseSpaces(utils.RepairMojibake(r.Location)),
		OperationType: utils.CollapseSpaces(r.OperationType),
		DatePublished: strings.TrimSpace(r.DatePublished),
		URL:           strings.TrimSpace(r.URL),
	}

	price, foreign := c.ParsePrice(r.Price)
	l.Price = price
	l.PriceCurrency = c.opts.LocalCurrency
	if price != nil && foreign {
		l.PriceCurrency = c.opts.ForeignCurrency
	}
	l.Area = c.ParseArea(r.Area)
	l.Bedrooms, l.BedroomsDefaulted = c.ParseCount(r.Bedroom)
	l.Bathrooms, l.BathroomsDefaulted = c.ParseCount(r.Bathroom)
	l.YearBuilt, l.YearDefaulted = c.ParseYear(r.YearBuilt)
	return l
}

func (c *Cleaner) count(l *models.CleanedListing, r *models.RawListing, summary *models.RunSummary) {
	if l.Price == nil {
		c.logger.Debug("[cleaner] No price in %q (%s)", r.Price, l.URL)
	}
	if l.Area == nil {
		c.logger.Debug("[cleaner] No area in %q (%s)", r.Area, l.URL)
	}
	if summary == nil {
		return
	}
	if l.Price == nil {
		summary.PriceMissing++
	} else if l.PriceCurrency == c.opts.ForeignCurrency {
		summary.ConvertedCurrency++
	}
	if l.Area == nil {
		summary.AreaMissing++
	}
	if l.BedroomsDefaulted {
		summary.BedroomsDefaulted++
	}
	if l.BathroomsDefaulted {
		summary.BathroomsDefaulted++
	}
	if l.YearDefaulted {
		summary.YearDefaulted++
	}
}

// ParsePrice extracts the first number and converts it to local currency when
// the text carries a foreign-currency marker. Text without digits gives nil.
// Examples:
//
//	"S/ 2,500"  → 2500, false
//	"USD 900"   → 900 × rate, true
//	"Consultar" → nil
func (c *Cleaner) ParsePrice(raw string) (*float64, bool) {
	text := strings.ToUpper(strings.TrimSpace(raw))
	value, ok := firstNumber(text)
	if !ok {
		return nil, false
	}
	if !c.hasForeignMarker(text) {
		return &value, false
	}
	converted := value * c.opts.ExchangeRate
	return &converted, true
}

func (c *Cleaner) hasForeignMarker(text string) bool {
	for _, marker := range c.opts.CurrencyMarkers {
		m := strings.ToUpper(marker)
		if m == "" {
			continue
		}
		if m == "$" {
			stripped := localDollarRegexp.ReplaceAllString(text, "")
			if strings.Contains(stripped, "$") {
				return true
			}
			continue
		}
		if strings.Contains(text, m) {
			return true
		}
	}
	return false
}

// ParseArea extracts the first number; unit suffixes such as "m²" or the
// mis-decoded "mÂ²" are ignored.
func (c *Cleaner) ParseArea(raw string) *float64 {
	value, ok := firstNumber(raw)
	if !ok {
		return nil
	}
	return &value
}

// ParseCount returns the first integer in raw, or 1 when there is none or it
// is zero. The second result reports whether the default was applied.
func (c *Cleaner) ParseCount(raw string) (int, bool) {
	match := integerRegexp.FindString(raw)
	if match == "" {
		return 1, true
	}
	n, err := strconv.Atoi(match)
	if err != nil || n < 1 {
		return 1, true
	}
	return n, false
}

// ParseYear coerces raw to a construction year. Missing, unparsable and
// implausible values (before 1800 or after the current year) give the
// baseline year.
func (c *Cleaner) ParseYear(raw string) (int, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return c.opts.BaselineYear, true
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return c.opts.BaselineYear, true
	}
	year := int(f)
	if year < 1800 || year > c.opts.CurrentYear {
		return c.opts.BaselineYear, true
	}
	return year, false
}

func firstNumber(raw string) (float64, bool) {
	match := numberRegexp.FindString(strings.ReplaceAll(raw, ",", ""))
	if match == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(match, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}
