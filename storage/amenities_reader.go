package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"housing-ranker/models"
)

// LoadAmenities reads a JSON object of amenity counts keyed by listing URL.
// An empty path yields an empty map.
func LoadAmenities(path string) (map[string]models.AmenityCounts, error) {
	if path == "" {
		return map[string]models.AmenityCounts{}, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("amenities: read %s: %w", path, err)
	}

	var raw map[string]models.AmenityCounts
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("amenities: parse %s: %w", path, err)
	}

	out := make(map[string]models.AmenityCounts, len(raw))
	for url, counts := range raw {
		if url = strings.TrimSpace(url); url != "" {
			out[url] = counts
		}
	}
	return out, nil
}
