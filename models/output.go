package models

import "math"

// OutputRecord is the export row consumed by the UI layer. Unknown numerics
// are nil so JSON consumers receive null.
type OutputRecord struct {
	Title          string   `json:"title"`
	Location       string   `json:"location"`
	District       *string  `json:"district"`
	DistrictStatus string   `json:"district_status"`
	PriceClean     *float64 `json:"price_clean"`
	AreaClean      *float64 `json:"area_clean"`
	BedroomClean   int      `json:"bedroom_clean"`
	BathroomClean  int      `json:"bathroom_clean"`
	CostScore      float64  `json:"cost_score"`
	SafetyScore    float64  `json:"safety_score"`
	ServicesScore  float64  `json:"services_score"`
	FinalScore     float64  `json:"final_score"`
	DatePublished  string   `json:"date_pub"`
	URL            string   `json:"url"`
}

// ToOutput converts a scored listing into its export row.
func (s *ScoredListing) ToOutput() OutputRecord {
	rec := OutputRecord{
		Title:          s.Title,
		Location:       s.Location,
		DistrictStatus: string(s.Status),
		PriceClean:     roundPtr(s.Price),
		AreaClean:      roundPtr(s.Area),
		BedroomClean:   s.Bedrooms,
		BathroomClean:  s.Bathrooms,
		CostScore:      Round2(s.CostScore),
		SafetyScore:    Round2(s.SafetyScore),
		ServicesScore:  Round2(s.ServicesScore),
		FinalScore:     Round2(s.FinalScore),
		DatePublished:  s.DatePublished,
		URL:            s.URL,
	}
	if s.Status != DistrictUnresolved && s.District != "" {
		d := s.District
		rec.District = &d
	}
	return rec
}

// Round2 rounds half away from zero to two decimals.
func Round2(f float64) float64 {
	return math.Round(f*100) / 100
}

func roundPtr(f *float64) *float64 {
	if f == nil || math.IsNaN(*f) || math.IsInf(*f, 0) {
		return nil
	}
	v := Round2(*f)
	return &v
}
