package services

import (
	"sort"
	"strings"

	"housing-ranker/config"
	"housing-ranker/models"
	"housing-ranker/utils"
)

// DistrictResolver maps free-text locations onto the profile's district
// vocabulary. It is immutable after construction and safe to share.
type DistrictResolver struct {
	logger *utils.Logger

	city          string
	cityTailDepth int
	cityWideLabel string

	vocab    map[string]string // normalized name → canonical
	folded   map[string]string // accent-folded name → canonical
	aliases  map[string]string // accent-folded alias → canonical
	prefixes []string          // longest first
}

// NewDistrictResolver builds a resolver from a city profile.
func NewDistrictResolver(profile *config.CityProfile, logger *utils.Logger) *DistrictResolver {
	r := &DistrictResolver{
		logger:        logger,
		city:          utils.FoldAccents(utils.NormalizeLabel(profile.City)),
		cityTailDepth: profile.CityTailDepth,
		cityWideLabel: profile.CityWideLabel,
		vocab:         make(map[string]string, len(profile.Districts)),
		folded:        make(map[string]string, len(profile.Districts)),
		aliases:       make(map[string]string, len(profile.Aliases)),
	}

	for _, d := range profile.Districts {
		canonical := utils.NormalizeLabel(d)
		r.vocab[canonical] = canonical
		r.folded[utils.FoldAccents(canonical)] = canonical
	}
	for alias, target := range profile.Aliases {
		canonical, ok := r.vocab[utils.NormalizeLabel(target)]
		if !ok {
			continue
		}
		r.aliases[utils.FoldAccents(utils.NormalizeLabel(alias))] = canonical
	}

	for _, p := range profile.Prefixes {
		if p = utils.NormalizeLabel(p); p != "" {
			r.prefixes = append(r.prefixes, p)
		}
	}
	sort.SliceStable(r.prefixes, func(i, j int) bool {
		return len(r.prefixes[i]) > len(r.prefixes[j])
	})
	return r
}

// Resolve returns the district named by a location string. The leftmost
// segment wins; an exact vocabulary match in any segment outranks prefix
// stripping, which outranks alias substitution.
func (r *DistrictResolver) Resolve(location string) models.Resolution {
	// an exported city-wide district fed back in
	if r.cityWideLabel != "" && utils.NormalizeLabel(location) == utils.NormalizeLabel(r.cityWideLabel) {
		return models.Resolution{District: r.cityWideLabel, Status: models.DistrictCityWide}
	}
	segments := splitSegments(location)
	if len(segments) == 0 {
		return models.Resolution{Status: models.DistrictUnresolved}
	}

	cityMentioned := false
	for _, seg := range segments {
		if utils.FoldAccents(seg) == r.city {
			cityMentioned = true
			break
		}
	}
	body := segments[:len(segments)-r.cityTail(segments)]

	if d, ok := r.matchExact(body); ok {
		return resolved(d)
	}
	if d, ok := r.matchStripped(body); ok {
		return resolved(d)
	}
	if d, ok := r.matchAlias(body); ok {
		return resolved(d)
	}

	if cityMentioned {
		r.logger.Debug("[district] %q falls back to %s", location, r.cityWideLabel)
		return models.Resolution{District: r.cityWideLabel, Status: models.DistrictCityWide}
	}
	r.logger.Debug("[district] Unresolved location %q", location)
	return models.Resolution{Status: models.DistrictUnresolved}
}

// Canonicalize applies the exact, prefix and alias rules to a single label,
// as found in the security source's district column.
func (r *DistrictResolver) Canonicalize(label string) (string, bool) {
	seg := utils.NormalizeLabel(label)
	if seg == "" {
		return "", false
	}
	one := []string{seg}
	if d, ok := r.matchExact(one); ok {
		return d, true
	}
	if d, ok := r.matchStripped(one); ok {
		return d, true
	}
	return r.matchAlias(one)
}

// cityTail counts trailing segments equal to the city name, keeping at least
// one segment in front of them.
func (r *DistrictResolver) cityTail(segments []string) int {
	n := 0
	for i := len(segments) - 1; i > 0 && n < r.cityTailDepth; i-- {
		if utils.FoldAccents(segments[i]) != r.city {
			break
		}
		n++
	}
	return n
}

func (r *DistrictResolver) matchExact(segments []string) (string, bool) {
	for _, seg := range segments {
		if d, ok := r.vocab[seg]; ok {
			return d, true
		}
	}
	return "", false
}

func (r *DistrictResolver) matchStripped(segments []string) (string, bool) {
	for _, seg := range segments {
		stripped := r.stripPrefixes(seg)
		if stripped == seg {
			continue
		}
		if d, ok := r.vocab[stripped]; ok {
			return d, true
		}
	}
	return "", false
}

func (r *DistrictResolver) matchAlias(segments []string) (string, bool) {
	for _, seg := range segments {
		for _, candidate := range []string{seg, r.stripPrefixes(seg)} {
			key := utils.FoldAccents(candidate)
			if d, ok := r.aliases[key]; ok {
				return d, true
			}
			if d, ok := r.folded[key]; ok {
				return d, true
			}
		}
	}
	return "", false
}

// stripPrefixes removes leading locality-type prefixes until none applies.
func (r *DistrictResolver) stripPrefixes(seg string) string {
	for {
		next := seg
		for _, p := range r.prefixes {
			if rest, ok := cutPrefixWord(seg, p); ok {
				next = rest
				break
			}
		}
		if next == seg || next == "" {
			return seg
		}
		seg = next
	}
}

// cutPrefixWord removes prefix p from s when p is a whole word there: followed
// by a space, or itself ending in a period.
func cutPrefixWord(s, p string) (string, bool) {
	if !strings.HasPrefix(s, p) {
		return s, false
	}
	rest := s[len(p):]
	if rest == "" {
		return s, false
	}
	if !strings.HasSuffix(p, ".") && rest[0] != ' ' {
		return s, false
	}
	return strings.TrimSpace(rest), true
}

func splitSegments(location string) []string {
	norm := utils.NormalizeLabel(location)
	if norm == "" {
		return nil
	}
	parts := strings.Split(norm, ",")
	segments := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			segments = append(segments, p)
		}
	}
	return segments
}

func resolved(district string) models.Resolution {
	return models.Resolution{District: district, Status: models.DistrictResolved}
}
