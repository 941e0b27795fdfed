package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/courier-gateway/app/models"
	"github.com/courier-gateway/internal/matcher"
	"github.com/courier-gateway/internal/seed"
)

// memoryStore serves candidates from a slice so resolution logic is tested
// without mongo.
type memoryStore struct {
	cands []models.LocalityCandidate
}

func newMemoryStore(t *testing.T) *memoryStore {
	t.Helper()
	cands, err := seed.Candidates()
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
	return &memoryStore{cands: cands}
}

func (m *memoryStore) Cities(_ context.Context, courier models.CourierID) ([]models.LocalityCandidate, error) {
	var out []models.LocalityCandidate
	for _, c := range m.cands {
		if c.Courier == courier && c.IsCity() {
			out = append(out, c)
		}
	}
	return out, nil
}

func (m *memoryStore) Districts(_ context.Context, courier models.CourierID, cityRef string) ([]models.LocalityCandidate, error) {
	var out []models.LocalityCandidate
	for _, c := range m.cands {
		if c.Courier == courier && c.ParentRef == cityRef {
			out = append(out, c)
		}
	}
	return out, nil
}

func (m *memoryStore) CityByName(ctx context.Context, courier models.CourierID, name string) (*models.LocalityCandidate, error) {
	cities, _ := m.Cities(ctx, courier)
	for i := range cities {
		if strings.EqualFold(cities[i].Name, strings.TrimSpace(name)) {
			return &cities[i], nil
		}
	}
	return nil, nil
}

func (m *memoryStore) DistrictByName(ctx context.Context, courier models.CourierID, cityRef, name string) (*models.LocalityCandidate, error) {
	districts, _ := m.Districts(ctx, courier, cityRef)
	for i := range districts {
		if strings.EqualFold(districts[i].Name, strings.TrimSpace(name)) {
			return &districts[i], nil
		}
	}
	return nil, nil
}

func strictPolicy() models.ResolutionPolicy {
	return models.ResolutionPolicy{
		Courier:                  models.CourierBosta,
		RequiresCityMatch:        true,
		DistrictThreshold:        0.70,
		CityCutoff:               0.4,
		DistrictCutoff:           0.1,
		FallbackDistrictTemplate: "Default - %s",
	}
}

func bestEffortPolicy() models.ResolutionPolicy {
	return models.ResolutionPolicy{
		Courier:                  models.CourierAramex,
		CityThreshold:            0.80,
		CityCutoff:               0.4,
		DistrictCutoff:           0.1,
		FallbackCity:             "Cairo",
		SpecialCaseCity:          "Cairo",
		SpecialDistrictThreshold: 0.65,
		SpecialFallbackDistrict:  "Downtown Cairo",
	}
}

func newLocalityService(t *testing.T) *LocalityService {
	t.Helper()
	logger := zap.NewNop()
	return NewLocalityService(newMemoryStore(t), matcher.NewResolver(logger), nil, logger)
}

func TestResolveAddressFrancoArabic(t *testing.T) {
	ls := newLocalityService(t)

	addr, err := ls.ResolveAddress(context.Background(), strictPolicy(), "Cairo", "Masr el gdeda")
	if err != nil {
		t.Fatalf("ResolveAddress: %v", err)
	}
	if addr.CityName != "Cairo" || addr.CityRef != "FceDyHXwpSYYF9zGW" {
		t.Errorf("city = %q (%s), want Cairo", addr.CityName, addr.CityRef)
	}
	if addr.DistrictName != "ElKorba (Masr ElGedida)" {
		t.Errorf("district = %q, want ElKorba", addr.DistrictName)
	}
	if addr.DistrictRef == "" {
		t.Error("district ref must be populated on a fuzzy match")
	}
}

func TestResolveAddressAmbiguousFallsBack(t *testing.T) {
	ls := newLocalityService(t)

	addr, err := ls.ResolveAddress(context.Background(), strictPolicy(), "Sharqia", "Zag")
	if err != nil {
		t.Fatalf("ResolveAddress: %v", err)
	}
	if addr.DistrictName != "Default - Sharqia" {
		t.Errorf("district = %q, want the city default", addr.DistrictName)
	}
}

func TestResolveAddressUnknownGovernorate(t *testing.T) {
	ls := newLocalityService(t)

	_, err := ls.ResolveAddress(context.Background(), strictPolicy(), "Atlantis", "Nasr City")
	var rej *RejectionError
	if !errors.As(err, &rej) {
		t.Fatalf("want RejectionError, got %v", err)
	}
	if rej.Code != CodeUnresolvableGovernorate {
		t.Errorf("code = %q, want %q", rej.Code, CodeUnresolvableGovernorate)
	}
}

func TestResolveAddressMissingFallbackRejects(t *testing.T) {
	logger := zap.NewNop()
	store := newMemoryStore(t)
	// Strip the default districts to simulate a reference data gap.
	kept := store.cands[:0]
	for _, c := range store.cands {
		if !strings.HasPrefix(c.Name, "Default - ") {
			kept = append(kept, c)
		}
	}
	store.cands = kept
	ls := NewLocalityService(store, matcher.NewResolver(logger), nil, logger)

	_, err := ls.ResolveAddress(context.Background(), strictPolicy(), "Sharqia", "Zag")
	var rej *RejectionError
	if !errors.As(err, &rej) {
		t.Fatalf("want RejectionError, got %v", err)
	}
	if rej.Code != CodeDistrictNoFallback {
		t.Errorf("code = %q, want %q", rej.Code, CodeDistrictNoFallback)
	}
}

func TestResolveAddressPassthrough(t *testing.T) {
	ls := newLocalityService(t)

	policy := bestEffortPolicy()
	addr, err := ls.ResolveAddress(context.Background(), policy, "whatever governorate", "whatever district")
	if err != nil {
		t.Fatalf("ResolveAddress: %v", err)
	}
	if addr.CityName != "whatever governorate" || addr.DistrictName != "whatever district" {
		t.Errorf("passthrough must keep raw strings, got %+v", addr)
	}
	if addr.CityRef != "" || addr.DistrictRef != "" {
		t.Errorf("passthrough must not link candidates, got %+v", addr)
	}
}

func TestResolveShipmentLocalityFuzzyCity(t *testing.T) {
	ls := newLocalityService(t)

	addr, err := ls.ResolveShipmentLocality(context.Background(), bestEffortPolicy(), "Ciaro", "Madi")
	if err != nil {
		t.Fatalf("ResolveShipmentLocality: %v", err)
	}
	if addr.CityName != "Cairo" {
		t.Errorf("city = %q, want Cairo", addr.CityName)
	}
	// Cairo is the special case, so the district got its own pass.
	if addr.DistrictName != "Maadi" {
		t.Errorf("district = %q, want Maadi", addr.DistrictName)
	}
}

func TestResolveShipmentLocalityFallbackCity(t *testing.T) {
	ls := newLocalityService(t)

	addr, err := ls.ResolveShipmentLocality(context.Background(), bestEffortPolicy(), "xyzzy", "nowhere special")
	if err != nil {
		t.Fatalf("ResolveShipmentLocality: %v", err)
	}
	if addr.CityName != "Cairo" {
		t.Errorf("unmatched city must fall back to Cairo, got %q", addr.CityName)
	}
	if addr.DistrictName != "Downtown Cairo" {
		t.Errorf("unmatched special-case district must fall back, got %q", addr.DistrictName)
	}
}

func TestResolveShipmentLocalityNonSpecialKeepsRawDistrict(t *testing.T) {
	ls := newLocalityService(t)

	addr, err := ls.ResolveShipmentLocality(context.Background(), bestEffortPolicy(), "Alexandria", "Smoha St 5")
	if err != nil {
		t.Fatalf("ResolveShipmentLocality: %v", err)
	}
	if addr.CityName != "Alexandria" {
		t.Errorf("city = %q, want Alexandria", addr.CityName)
	}
	if addr.DistrictName != "Smoha St 5" {
		t.Errorf("district must pass through outside the special case, got %q", addr.DistrictName)
	}
}

func TestResolveShipmentLocalityCaching(t *testing.T) {
	logger := zap.NewNop()
	cache, err := NewResolutionCache("", 16, 0, logger)
	if err != nil {
		t.Fatal(err)
	}
	ls := NewLocalityService(newMemoryStore(t), matcher.NewResolver(logger), cache, logger)

	first, err := ls.ResolveShipmentLocality(context.Background(), bestEffortPolicy(), "Ciaro", "Madi")
	if err != nil {
		t.Fatal(err)
	}
	second, err := ls.ResolveShipmentLocality(context.Background(), bestEffortPolicy(), "Ciaro", "Madi")
	if err != nil {
		t.Fatal(err)
	}
	if first != second {
		t.Errorf("cached result differs: %+v vs %+v", first, second)
	}

	stats, err := cache.Stats(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if stats.TotalHits == 0 {
		t.Error("second resolution should have hit the cache")
	}
}

func TestFingerprintNormalizes(t *testing.T) {
	a := Fingerprint(models.CourierAramex, "Cairo", "El-Maadi")
	b := Fingerprint(models.CourierAramex, " cairo ", "  el maadi ")
	if a != b {
		t.Error("spelling variants that normalize identically must share a fingerprint")
	}
	if a == Fingerprint(models.CourierKhazenly, "Cairo", "El-Maadi") {
		t.Error("fingerprints must be courier-scoped")
	}
}

func TestFingerprintSeparatesComponents(t *testing.T) {
	// Pairs whose concatenations normalize identically must not share a key.
	a := Fingerprint(models.CourierKhazenly, "Nasr", "City")
	b := Fingerprint(models.CourierKhazenly, "Nas", "rCity")
	if a == b {
		t.Error("distinct (city, district) pairs must not collide")
	}
}
