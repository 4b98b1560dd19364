package storage

import (
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"housing-ranker/models"
	"housing-ranker/utils"
)

// DefaultListingBaseURL resolves relative card links on saved search pages.
const DefaultListingBaseURL = "https://urbania.pe"

// ParseListingCards extracts raw listings from a rental search results page.
// Each div.card yields one listing: a.title (title and link), div.price,
// div.address and the div.feature items (area, bedrooms, bathrooms).
// Relative links are resolved against baseURL, or DefaultListingBaseURL when
// it is empty.
func ParseListingCards(r io.Reader, baseURL string) ([]*models.RawListing, error) {
	if baseURL == "" {
		baseURL = DefaultListingBaseURL
	}
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("html: parse base url: %w", err)
	}

	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("html: parse document: %w", err)
	}

	operation := pageOperation(doc)
	var listings []*models.RawListing
	doc.Find("div.card").Each(func(_ int, card *goquery.Selection) {
		title := card.Find("a.title").First()
		l := &models.RawListing{
			Title:         cardText(title),
			Price:         cardText(card.Find("div.price").First()),
			Location:      cardText(card.Find("div.address").First()),
			OperationType: operation,
		}
		if op, ok := card.Attr("data-operation"); ok && op != "" {
			l.OperationType = op
		}
		if date, ok := card.Attr("data-date"); ok {
			l.DatePublished = strings.TrimSpace(date)
		}
		if href, ok := title.Attr("href"); ok && href != "" {
			if u, err := url.Parse(href); err == nil {
				l.URL = base.ResolveReference(u).String()
			}
		}

		card.Find("div.feature").Each(func(_ int, f *goquery.Selection) {
			text := strings.ToLower(cardText(f))
			switch {
			case strings.Contains(text, "m²") || strings.Contains(text, "m2"):
				l.Area = text
			case strings.Contains(text, "dorm") || strings.Contains(text, "hab"):
				l.Bedroom = text
			case strings.Contains(text, "baño") || strings.Contains(text, "bano"):
				l.Bathroom = text
			case strings.Contains(text, "año") || strings.Contains(text, "antig"):
				l.YearBuilt = yearFromFeature(text)
			}
		})

		if l.Location == "" && l.Title == "" {
			return
		}
		listings = append(listings, l)
	})
	return listings, nil
}

// pageOperation reads the operation type from the page, defaulting to rentals.
func pageOperation(doc *goquery.Document) string {
	if op, ok := doc.Find("body").Attr("data-operation"); ok && op != "" {
		return op
	}
	if canonical, ok := doc.Find(`link[rel="canonical"]`).Attr("href"); ok && strings.Contains(canonical, "venta") {
		return "venta"
	}
	return "alquiler"
}

func yearFromFeature(text string) string {
	for _, tok := range strings.Fields(text) {
		if len(tok) == 4 && strings.Trim(tok, "0123456789") == "" {
			return tok
		}
	}
	return ""
}

func cardText(s *goquery.Selection) string {
	return utils.CollapseSpaces(s.Text())
}
