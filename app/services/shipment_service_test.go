package services

import (
	"context"
	"testing"

	"go.uber.org/zap"

	"github.com/courier-gateway/app/models"
	"github.com/courier-gateway/internal/matcher"
)

func khazenlyPolicy() models.ResolutionPolicy {
	return models.ResolutionPolicy{
		Courier:        models.CourierKhazenly,
		CityThreshold:  0.80,
		CityCutoff:     0.4,
		DistrictCutoff: 0.1,
		FallbackCity:   "Cairo",
	}
}

func newShipmentService(t *testing.T) *ShipmentService {
	t.Helper()
	logger := zap.NewNop()
	locality := NewLocalityService(newMemoryStore(t), matcher.NewResolver(logger), nil, logger)
	policies := map[models.CourierID]models.ResolutionPolicy{
		models.CourierKhazenly: khazenlyPolicy(),
	}
	return NewShipmentService(nil, locality, policies, nil, nil, nil, logger)
}

// The governorate names the city; the storefront city field is
// district-grained and can cross-match an unrelated governorate ("Smouha"
// scores past the threshold against "Sohag").
func TestResolveDropoffPrefersGovernorate(t *testing.T) {
	ss := newShipmentService(t)

	order := &models.Order{
		Customer: models.Customer{
			Governorate: "Alexandria",
			City:        "Smouha",
			District:    "Smouha",
		},
	}

	addr, err := ss.resolveDropoff(context.Background(), models.CourierKhazenly, order)
	if err != nil {
		t.Fatalf("resolveDropoff: %v", err)
	}
	if addr.CityName != "Alexandria" {
		t.Errorf("city = %q, want Alexandria", addr.CityName)
	}
	if addr.DistrictName != "Smouha" {
		t.Errorf("district = %q, want the raw district passed through", addr.DistrictName)
	}
}

func TestResolveDropoffFallsBackToCityField(t *testing.T) {
	ss := newShipmentService(t)

	order := &models.Order{
		Customer: models.Customer{
			City:     "Alexandria",
			District: "Smouha",
		},
	}

	addr, err := ss.resolveDropoff(context.Background(), models.CourierKhazenly, order)
	if err != nil {
		t.Fatalf("resolveDropoff: %v", err)
	}
	if addr.CityName != "Alexandria" {
		t.Errorf("city = %q, want Alexandria", addr.CityName)
	}
}
