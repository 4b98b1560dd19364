package services

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"housing-ranker/config"
	"housing-ranker/models"
	"housing-ranker/utils"
)

const (
	topRankedLimit    = 5
	topDistrictsLimit = 10
)

type InsightService struct {
	logger *utils.Logger
	out    io.Writer
}

func NewInsightService(logger *utils.Logger) *InsightService {
	return &InsightService{logger: logger, out: os.Stdout}
}

// SetOutput redirects the printed report.
func (s *InsightService) SetOutput(w io.Writer) {
	s.out = w
}

func (s *InsightService) Generate(result *models.RunResult) *models.InsightReport {
	report := &models.InsightReport{Summary: result.Summary}
	if len(result.All) == 0 {
		return report
	}

	report.TotalListings = len(result.All)
	report.ValidListings = len(result.Valid)

	var scoreTotal float64
	for _, l := range result.All {
		scoreTotal += l.FinalScore
	}
	report.AverageScore = models.Round2(scoreTotal / float64(len(result.All)))

	type acc struct {
		count        int
		price, score float64
	}
	byDistrict := make(map[string]*acc)
	var priceTotal, areaTotal float64
	for _, l := range result.Valid {
		priceTotal += *l.Price
		areaTotal += *l.Area
		if !l.Resolved() {
			continue
		}
		a := byDistrict[l.District]
		if a == nil {
			a = &acc{}
			byDistrict[l.District] = a
		}
		a.count++
		a.price += *l.Price
		a.score += l.FinalScore
	}
	if n := len(result.Valid); n > 0 {
		report.AveragePrice = models.Round2(priceTotal / float64(n))
		report.AverageArea = models.Round2(areaTotal / float64(n))
	}

	// result.All is already ranked
	report.TopRanked = result.All[:min(topRankedLimit, len(result.All))]

	for d, a := range byDistrict {
		report.TopDistricts = append(report.TopDistricts, models.DistrictStat{
			District:     d,
			Count:        a.count,
			AveragePrice: models.Round2(a.price / float64(a.count)),
			AverageScore: models.Round2(a.score / float64(a.count)),
		})
	}
	sort.Slice(report.TopDistricts, func(i, j int) bool {
		di, dj := report.TopDistricts[i], report.TopDistricts[j]
		if di.AverageScore != dj.AverageScore {
			return di.AverageScore > dj.AverageScore
		}
		return di.District < dj.District
	})
	if len(report.TopDistricts) > topDistrictsLimit {
		report.TopDistricts = report.TopDistricts[:topDistrictsLimit]
	}

	return report
}

func (s *InsightService) Print(r *models.InsightReport) {
	w := s.out
	sep := strings.Repeat("═", 60)
	thin := strings.Repeat("─", 60)

	fmt.Fprintf(w, "\n\033[1;35m%s\033[0m\n", sep)
	fmt.Fprintf(w, "\033[1;35m  🏠 LIMA RENTAL RANKING\033[0m\n")
	fmt.Fprintf(w, "\033[1;35m%s\033[0m\n\n", sep)

	fmt.Fprintf(w, "\033[1;33m  Overview\033[0m\n")
	fmt.Fprintf(w, "  %s\n", thin)
	fmt.Fprintf(w, "  Listings scored      : \033[1m%d\033[0m\n", r.TotalListings)
	fmt.Fprintf(w, "  Valid (price + area) : \033[1m%d\033[0m\n", r.ValidListings)
	fmt.Fprintf(w, "  Average final score  : \033[1m%.2f\033[0m\n", r.AverageScore)
	if r.AveragePrice > 0 {
		fmt.Fprintf(w, "  Average price        : \033[1;32mS/ %.0f\033[0m\n", r.AveragePrice)
		fmt.Fprintf(w, "  Average area         : \033[1;32m%.0f m²\033[0m\n", r.AverageArea)
	}
	fmt.Fprintln(w)

	fmt.Fprintf(w, "\033[1;33m  Top %d Ranked Properties\033[0m\n", topRankedLimit)
	fmt.Fprintf(w, "  %s\n", thin)
	if len(r.TopRanked) == 0 {
		fmt.Fprintf(w, "  No listings scored\n")
	}
	for i, l := range r.TopRanked {
		district := l.District
		if district == "" {
			district = "?"
		}
		fmt.Fprintf(w, "  \033[1m%d.\033[0m %-34s %-18s \033[1;32m%5.2f\033[0m\n",
			i+1, truncate(l.Title, 32), truncate(district, 18), l.FinalScore)
	}
	fmt.Fprintln(w)

	fmt.Fprintf(w, "\033[1;33m  Districts by Average Score\033[0m\n")
	fmt.Fprintf(w, "  %s\n", thin)
	if len(r.TopDistricts) == 0 {
		fmt.Fprintf(w, "  No district data\n")
	}
	for _, d := range r.TopDistricts {
		bar := strings.Repeat("█", int(d.AverageScore))
		fmt.Fprintf(w, "  %-24s %-10s %5.2f  S/ %-8.0f (%d)\n",
			truncate(d.District, 24), bar, d.AverageScore, d.AveragePrice, d.Count)
	}
	fmt.Fprintln(w)

	if r.Summary != nil {
		s.printAudit(r.Summary)
	}

	fmt.Fprintf(w, "\n\033[1;35m%s\033[0m\n\n", sep)
}

// printAudit prints every non-fatal condition of the run with fallback rates.
func (s *InsightService) printAudit(sum *models.RunSummary) {
	w := s.out
	thin := strings.Repeat("─", 60)

	fmt.Fprintf(w, "\033[1;33m  Run Audit (%s)\033[0m\n", sum.RunID)
	fmt.Fprintf(w, "  %s\n", thin)
	fallback := ""
	if sum.ExchangeRateFallback {
		fallback = " \033[33m(fallback)\033[0m"
	}
	fmt.Fprintf(w, "  Variant                : %s\n", sum.Variant)
	fmt.Fprintf(w, "  Exchange rate          : %.4f%s\n", sum.ExchangeRate, fallback)
	fmt.Fprintf(w, "  Raw rows               : %d\n", sum.RawListings)
	fmt.Fprintf(w, "  Filtered (operation)   : %d\n", sum.FilteredOperation)
	fmt.Fprintf(w, "  Duplicate URLs         : %d\n", sum.DuplicateURLs)
	fmt.Fprintf(w, "  Strict-mode dropped    : %d\n", sum.StrictDropped)
	fmt.Fprintf(w, "  Converted from USD     : %d\n", sum.ConvertedCurrency)
	fmt.Fprintf(w, "  Price missing          : %d (%.1f%%)\n", sum.PriceMissing, sum.CleanedRate(sum.PriceMissing))
	fmt.Fprintf(w, "  Area missing           : %d (%.1f%%)\n", sum.AreaMissing, sum.CleanedRate(sum.AreaMissing))
	fmt.Fprintf(w, "  Bedrooms defaulted     : %d (%.1f%%)\n", sum.BedroomsDefaulted, sum.CleanedRate(sum.BedroomsDefaulted))
	fmt.Fprintf(w, "  Bathrooms defaulted    : %d (%.1f%%)\n", sum.BathroomsDefaulted, sum.CleanedRate(sum.BathroomsDefaulted))
	fmt.Fprintf(w, "  Year defaulted         : %d (%.1f%%)\n", sum.YearDefaulted, sum.CleanedRate(sum.YearDefaulted))
	fmt.Fprintf(w, "  Districts resolved     : %d\n", sum.ResolvedDistricts)
	fmt.Fprintf(w, "  City-wide fallback     : %d (%.1f%%)\n", sum.CityWideListings, sum.CleanedRate(sum.CityWideListings))
	fmt.Fprintf(w, "  Unresolved             : %d (%.1f%%)\n", sum.UnresolvedListings, sum.CleanedRate(sum.UnresolvedListings))
	fmt.Fprintf(w, "  Security unmatched     : %d (%.1f%%)\n", sum.SecurityUnmatched, sum.Rate(sum.SecurityUnmatched))
	fmt.Fprintf(w, "  Security rows dropped  : %d\n", sum.SecurityLabelsDropped)
	fmt.Fprintf(w, "  Amenities known        : %d (%.1f%%)\n", sum.AmenitiesKnown, sum.Rate(sum.AmenitiesKnown))
	fmt.Fprintf(w, "  Amenity lookup failures: %d\n", sum.AmenityLookupFailures)
	if sum.Variant == config.VariantFourFactor {
		fmt.Fprintf(w, "  Market basis           : %d district+bedrooms, %d district, %d neutral\n",
			sum.MarketBedroomBasis, sum.MarketDistrictBasis, sum.MarketNeutralBasis)
	}
	if names := sum.UnmatchedDistrictNames(); len(names) > 0 {
		fmt.Fprintf(w, "  Unmatched districts    : %s\n", strings.Join(names, ", "))
	}
}

func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-3]) + "..."
}
