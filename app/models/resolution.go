package models

import "fmt"

// ResolutionPolicy captures how a courier wants locality resolution to
// behave. Strict couriers (Bosta) require an exact city lookup at intake and
// reject orders they cannot place; best-effort couriers (Aramex, Khazenly)
// resolve fuzzily at shipment time and fall back to a default city rather
// than fail.
type ResolutionPolicy struct {
	Courier CourierID `yaml:"courier" json:"courier"`

	// RequiresCityMatch distinguishes strict from best-effort behavior.
	RequiresCityMatch bool `yaml:"requires_city_match" json:"requires_city_match"`

	CityThreshold     float64 `yaml:"city_threshold" json:"city_threshold"`
	DistrictThreshold float64 `yaml:"district_threshold" json:"district_threshold"`
	CityCutoff        float64 `yaml:"city_cutoff" json:"city_cutoff"`
	DistrictCutoff    float64 `yaml:"district_cutoff" json:"district_cutoff"`

	// FallbackDistrictTemplate names the synthetic district used when strict
	// district matching fails, e.g. "Default - %s" with the city name. Only
	// meaningful when RequiresCityMatch is set.
	FallbackDistrictTemplate string `yaml:"fallback_district_template" json:"fallback_district_template"`

	// FallbackCity is where best-effort resolution lands when no city clears
	// the threshold.
	FallbackCity string `yaml:"fallback_city" json:"fallback_city"`

	// SpecialCaseCity, when set, gets a second district-level pass with its
	// own threshold and fallback (Aramex distinguishes Cairo districts).
	SpecialCaseCity          string  `yaml:"special_case_city" json:"special_case_city"`
	SpecialDistrictThreshold float64 `yaml:"special_district_threshold" json:"special_district_threshold"`
	SpecialFallbackDistrict  string  `yaml:"special_fallback_district" json:"special_fallback_district"`
}

func validThreshold(v float64) bool { return v > 0 && v <= 1 }

// Validate rejects policies that would silently disable matching.
func (p ResolutionPolicy) Validate() error {
	if !p.Courier.Valid() {
		return fmt.Errorf("resolution policy: unknown courier %q", p.Courier)
	}
	if !validThreshold(p.CityCutoff) || !validThreshold(p.DistrictCutoff) {
		return fmt.Errorf("resolution policy %s: cutoffs must be in (0, 1]", p.Courier)
	}
	if p.RequiresCityMatch {
		if !validThreshold(p.DistrictThreshold) {
			return fmt.Errorf("resolution policy %s: district threshold must be in (0, 1]", p.Courier)
		}
		if p.FallbackDistrictTemplate == "" {
			return fmt.Errorf("resolution policy %s: strict matching needs a fallback district template", p.Courier)
		}
		return nil
	}
	if !validThreshold(p.CityThreshold) {
		return fmt.Errorf("resolution policy %s: city threshold must be in (0, 1]", p.Courier)
	}
	if p.FallbackCity == "" {
		return fmt.Errorf("resolution policy %s: best-effort matching needs a fallback city", p.Courier)
	}
	if p.FallbackDistrictTemplate != "" {
		return fmt.Errorf("resolution policy %s: fallback district template only applies to strict matching", p.Courier)
	}
	if p.SpecialCaseCity != "" {
		if !validThreshold(p.SpecialDistrictThreshold) {
			return fmt.Errorf("resolution policy %s: special-case district threshold must be in (0, 1]", p.Courier)
		}
		if p.SpecialFallbackDistrict == "" {
			return fmt.Errorf("resolution policy %s: special-case city needs a fallback district", p.Courier)
		}
	}
	return nil
}

// FallbackDistrictName renders the synthetic district for a city under a
// strict policy.
func (p ResolutionPolicy) FallbackDistrictName(city string) string {
	return fmt.Sprintf(p.FallbackDistrictTemplate, city)
}

// ResolvedAddress is the courier-facing outcome of resolution: display names
// plus the courier reference IDs shipment payloads need.
type ResolvedAddress struct {
	CityName     string `bson:"city_name" json:"city_name"`
	DistrictName string `bson:"district_name" json:"district_name"`
	CityRef      string `bson:"city_ref,omitempty" json:"city_ref,omitempty"`
	DistrictRef  string `bson:"district_ref,omitempty" json:"district_ref,omitempty"`
}
