package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/courier-gateway/app/models"
)

// CourierEndpoints holds the base URLs of the courier APIs. Tests point them
// at httptest servers.
type CourierEndpoints struct {
	BostaURL    string `yaml:"bosta_url" json:"bosta_url"`
	AramexURL   string `yaml:"aramex_url" json:"aramex_url"`
	KhazenlyURL string `yaml:"khazenly_url" json:"khazenly_url"`
}

type CacheCfg struct {
	ReferenceSize  int           `yaml:"reference_size" json:"reference_size"`
	ResolutionSize int           `yaml:"resolution_size" json:"resolution_size"`
	ResolutionTTL  time.Duration `yaml:"resolution_ttl" json:"resolution_ttl"`
}

type AramexAccount struct {
	Username      string `yaml:"username" json:"-"`
	Password      string `yaml:"password" json:"-"`
	AccountNumber string `yaml:"account_number" json:"account_number"`
	AccountPin    string `yaml:"account_pin" json:"-"`
	AccountEntity string `yaml:"account_entity" json:"account_entity"`
}

type GatewayCfg struct {
	Endpoints CourierEndpoints                             `yaml:"endpoints" json:"endpoints"`
	Cache     CacheCfg                                     `yaml:"cache" json:"cache"`
	Aramex    AramexAccount                                `yaml:"aramex" json:"aramex"`
	Policies  map[models.CourierID]models.ResolutionPolicy `yaml:"policies" json:"policies"`
}

var C GatewayCfg

// Load reads the gateway config file into C, filling unset policy fields
// from the built-in defaults and validating the result.
func Load(path string) error {
	C = defaults()
	b, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	var loaded GatewayCfg
	if err := yaml.Unmarshal(b, &loaded); err != nil {
		return err
	}
	merge(&loaded)
	for courier, p := range C.Policies {
		if err := p.Validate(); err != nil {
			return fmt.Errorf("config: policy %s: %w", courier, err)
		}
	}
	return nil
}

// UseDefaults resets C without reading a file. The server falls back to this
// when no config file is present.
func UseDefaults() {
	C = defaults()
}

func merge(loaded *GatewayCfg) {
	if loaded.Endpoints.BostaURL != "" {
		C.Endpoints.BostaURL = loaded.Endpoints.BostaURL
	}
	if loaded.Endpoints.AramexURL != "" {
		C.Endpoints.AramexURL = loaded.Endpoints.AramexURL
	}
	if loaded.Endpoints.KhazenlyURL != "" {
		C.Endpoints.KhazenlyURL = loaded.Endpoints.KhazenlyURL
	}
	if loaded.Cache.ReferenceSize > 0 {
		C.Cache.ReferenceSize = loaded.Cache.ReferenceSize
	}
	if loaded.Cache.ResolutionSize > 0 {
		C.Cache.ResolutionSize = loaded.Cache.ResolutionSize
	}
	if loaded.Cache.ResolutionTTL > 0 {
		C.Cache.ResolutionTTL = loaded.Cache.ResolutionTTL
	}
	if loaded.Aramex.Username != "" {
		C.Aramex = loaded.Aramex
	}
	for courier, p := range loaded.Policies {
		C.Policies[courier] = p
	}
}

// defaults encodes the resolution behavior each courier was tuned for. Bosta
// is strict: exact city, fuzzy district at 0.70, synthetic default district
// as fallback. Aramex and Khazenly are best-effort at shipment time, with
// Aramex running a second district pass for Cairo.
func defaults() GatewayCfg {
	return GatewayCfg{
		Endpoints: CourierEndpoints{
			BostaURL:    "https://app.bosta.co",
			AramexURL:   "https://ws.aramex.net",
			KhazenlyURL: "https://khazenly.my.salesforce.com",
		},
		Cache: CacheCfg{
			ReferenceSize:  256,
			ResolutionSize: 4096,
			ResolutionTTL:  24 * time.Hour,
		},
		Policies: map[models.CourierID]models.ResolutionPolicy{
			models.CourierBosta: {
				Courier:                  models.CourierBosta,
				RequiresCityMatch:        true,
				DistrictThreshold:        0.70,
				CityCutoff:               0.4,
				DistrictCutoff:           0.1,
				FallbackDistrictTemplate: "Default - %s",
			},
			models.CourierAramex: {
				Courier:                  models.CourierAramex,
				CityThreshold:            0.80,
				CityCutoff:               0.4,
				DistrictCutoff:           0.1,
				FallbackCity:             "Cairo",
				SpecialCaseCity:          "Cairo",
				SpecialDistrictThreshold: 0.65,
				SpecialFallbackDistrict:  "Downtown Cairo",
			},
			models.CourierKhazenly: {
				Courier:        models.CourierKhazenly,
				CityThreshold:  0.80,
				CityCutoff:     0.4,
				DistrictCutoff: 0.1,
				FallbackCity:   "Cairo",
			},
		},
	}
}
