package services

import (
	"sort"

	"housing-ranker/models"
	"housing-ranker/utils"
)

// SecurityIndex is the per-district security table. Built once per run and
// read-only afterwards.
type SecurityIndex struct {
	records map[string]models.SecurityRecord
	ordered []models.SecurityRecord
	neutral float64
	dropped int
}

// BuildSecurityIndex canonicalizes each incident label with the resolver,
// sums counts per district and scores them with an inverted min-max: the
// district with the fewest incidents gets 10, the most gets 0. Labels that do
// not resolve are dropped and counted.
func BuildSecurityIndex(rows []models.IncidentRow, resolver *DistrictResolver, neutral float64, logger *utils.Logger) *SecurityIndex {
	idx := &SecurityIndex{
		records: make(map[string]models.SecurityRecord),
		neutral: neutral,
	}

	counts := make(map[string]int)
	var order []string
	droppedLabels := make(map[string]struct{})
	for _, row := range rows {
		district, ok := resolver.Canonicalize(row.DistrictLabel)
		if !ok {
			idx.dropped++
			droppedLabels[row.DistrictLabel] = struct{}{}
			continue
		}
		if _, seen := counts[district]; !seen {
			order = append(order, district)
		}
		counts[district] += max(row.Count, 0)
	}
	for label := range droppedLabels {
		logger.Debug("[security] Dropped unknown label %q", label)
	}

	values := make([]float64, len(order))
	for i, d := range order {
		values[i] = float64(counts[d])
	}
	scores := InvertedMinMax(values)

	for i, d := range order {
		rec := models.SecurityRecord{District: d, CrimeCount: counts[d], SecurityScore: scores[i]}
		idx.records[d] = rec
		idx.ordered = append(idx.ordered, rec)
	}
	sort.SliceStable(idx.ordered, func(i, j int) bool {
		if idx.ordered[i].CrimeCount != idx.ordered[j].CrimeCount {
			return idx.ordered[i].CrimeCount > idx.ordered[j].CrimeCount
		}
		return idx.ordered[i].District < idx.ordered[j].District
	})

	logger.Info("[security] %d districts indexed from %d rows (%d rows dropped)",
		len(idx.ordered), len(rows), idx.dropped)
	return idx
}

// Score returns the district's security score, or the neutral score and false
// when the district never appeared in the security source.
func (s *SecurityIndex) Score(district string) (float64, bool) {
	if s == nil {
		return 0, false
	}
	rec, ok := s.records[district]
	if !ok {
		return s.neutral, false
	}
	return rec.SecurityScore, true
}

// Records returns the table sorted by crime count, highest first.
func (s *SecurityIndex) Records() []models.SecurityRecord {
	if s == nil {
		return nil
	}
	out := make([]models.SecurityRecord, len(s.ordered))
	copy(out, s.ordered)
	return out
}

// Dropped is the number of incident rows whose label did not resolve.
func (s *SecurityIndex) Dropped() int {
	if s == nil {
		return 0
	}
	return s.dropped
}

func (s *SecurityIndex) Len() int {
	if s == nil {
		return 0
	}
	return len(s.ordered)
}
