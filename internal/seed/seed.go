// Package seed ships the courier reference localities embedded in the
// binary. The seed command loads them into mongo; tests use them directly.
package seed

import (
	_ "embed"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/courier-gateway/app/models"
)

//go:embed localities.yaml
var raw []byte

type districtEntry struct {
	Ref     string `yaml:"ref"`
	Name    string `yaml:"name"`
	AltName string `yaml:"alt_name"`
}

type cityEntry struct {
	Ref       string          `yaml:"ref"`
	Name      string          `yaml:"name"`
	Code      string          `yaml:"code"`
	Districts []districtEntry `yaml:"districts"`
}

type courierEntry struct {
	Cities         []cityEntry     `yaml:"cities"`
	CairoDistricts []districtEntry `yaml:"cairo_districts"`
}

type seedFile struct {
	Bosta    courierEntry `yaml:"bosta"`
	Aramex   courierEntry `yaml:"aramex"`
	Khazenly courierEntry `yaml:"khazenly"`
}

// Candidates parses the embedded reference data into a flat candidate list.
// Couriers that address by plain name get their name as courier ref. Aramex's
// Cairo districts are parented under its Cairo city entry.
func Candidates() ([]models.LocalityCandidate, error) {
	var f seedFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("seed: parse localities: %w", err)
	}

	var out []models.LocalityCandidate
	for _, city := range f.Bosta.Cities {
		if city.Ref == "" || city.Name == "" {
			return nil, fmt.Errorf("seed: bosta city missing ref or name: %+v", city)
		}
		out = append(out, models.LocalityCandidate{
			Courier:    models.CourierBosta,
			CourierRef: city.Ref,
			Name:       city.Name,
		})
		for _, d := range city.Districts {
			if d.Ref == "" || d.Name == "" {
				return nil, fmt.Errorf("seed: bosta district missing ref or name in %s", city.Name)
			}
			out = append(out, models.LocalityCandidate{
				Courier:    models.CourierBosta,
				CourierRef: d.Ref,
				Name:       d.Name,
				AltName:    d.AltName,
				ParentRef:  city.Ref,
			})
		}
	}

	for _, set := range []struct {
		courier models.CourierID
		entry   courierEntry
	}{
		{models.CourierAramex, f.Aramex},
		{models.CourierKhazenly, f.Khazenly},
	} {
		cairoRef := ""
		for _, city := range set.entry.Cities {
			if city.Name == "" {
				return nil, fmt.Errorf("seed: %s city missing name", set.courier)
			}
			ref := city.Ref
			if ref == "" {
				ref = city.Name
			}
			if city.Name == "Cairo" {
				cairoRef = ref
			}
			out = append(out, models.LocalityCandidate{
				Courier:    set.courier,
				CourierRef: ref,
				Name:       city.Name,
			})
		}
		for _, d := range set.entry.CairoDistricts {
			if cairoRef == "" {
				return nil, fmt.Errorf("seed: %s has cairo districts but no Cairo city", set.courier)
			}
			ref := d.Ref
			if ref == "" {
				ref = d.Name
			}
			out = append(out, models.LocalityCandidate{
				Courier:    set.courier,
				CourierRef: ref,
				Name:       d.Name,
				AltName:    d.AltName,
				ParentRef:  cairoRef,
			})
		}
	}

	return out, nil
}
