package services

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/courier-gateway/app/models"
	"github.com/courier-gateway/internal/matcher"
)

// Rejection codes surfaced as 400s at order intake.
const (
	CodeUnresolvableGovernorate = "UNRESOLVABLE_GOVERNORATE"
	CodeDistrictNoFallback      = "DISTRICT_NO_FALLBACK"
)

// RejectionError means the address cannot be placed with the brand's courier
// and the order must not be created.
type RejectionError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *RejectionError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// LocalityService orchestrates locality resolution around a courier policy:
// strict couriers resolve fully at order intake, best-effort couriers at
// shipment time.
type LocalityService struct {
	store    ReferenceStore
	resolver *matcher.Resolver
	cache    IResolutionCache
	logger   *zap.Logger
}

func NewLocalityService(store ReferenceStore, resolver *matcher.Resolver, cache IResolutionCache, logger *zap.Logger) *LocalityService {
	return &LocalityService{store: store, resolver: resolver, cache: cache, logger: logger}
}

// ResolveAddress runs intake-time resolution. Under a strict policy the
// governorate must match a known city exactly (case-insensitive) and the
// district is fuzzy-matched with the seeded default district as fallback;
// either gap is a RejectionError. Under a best-effort policy the raw strings
// pass through untouched and shipment-time resolution handles them later.
func (ls *LocalityService) ResolveAddress(ctx context.Context, policy models.ResolutionPolicy, governorate, district string) (models.ResolvedAddress, error) {
	if !policy.RequiresCityMatch {
		return models.ResolvedAddress{CityName: governorate, DistrictName: district}, nil
	}

	city, err := ls.store.CityByName(ctx, policy.Courier, governorate)
	if err != nil {
		return models.ResolvedAddress{}, err
	}
	if city == nil {
		return models.ResolvedAddress{}, &RejectionError{
			Code:    CodeUnresolvableGovernorate,
			Message: fmt.Sprintf("governorate %q is not serviced by %s", governorate, policy.Courier),
		}
	}

	districts, err := ls.store.Districts(ctx, policy.Courier, city.CourierRef)
	if err != nil {
		return models.ResolvedAddress{}, err
	}

	res := ls.resolver.Resolve(district, districts, policy.DistrictThreshold, policy.DistrictCutoff)
	if res.Matched != nil {
		return models.ResolvedAddress{
			CityName:     city.Name,
			DistrictName: res.Matched.Name,
			CityRef:      city.CourierRef,
			DistrictRef:  res.Matched.CourierRef,
		}, nil
	}

	fallbackName := policy.FallbackDistrictName(city.Name)
	fallback, err := ls.store.DistrictByName(ctx, policy.Courier, city.CourierRef, fallbackName)
	if err != nil {
		return models.ResolvedAddress{}, err
	}
	if fallback == nil {
		// Reference data gap. Failing hard here is what gets it noticed
		// and fixed.
		ls.logger.Error("fallback district missing",
			zap.String("courier", string(policy.Courier)),
			zap.String("city", city.Name),
			zap.String("fallback", fallbackName))
		return models.ResolvedAddress{}, &RejectionError{
			Code:    CodeDistrictNoFallback,
			Message: fmt.Sprintf("no district match for %q and city %q has no fallback district", district, city.Name),
		}
	}

	return models.ResolvedAddress{
		CityName:     city.Name,
		DistrictName: fallback.Name,
		CityRef:      city.CourierRef,
		DistrictRef:  fallback.CourierRef,
	}, nil
}

// ResolveShipmentLocality runs best-effort resolution at shipment-creation
// time. The city is fuzzy-matched against the courier's own city list with a
// fixed fallback instead of rejection; a special-case city (Aramex's Cairo)
// gets a second, district-level pass. Outcomes are cached by fingerprint.
func (ls *LocalityService) ResolveShipmentLocality(ctx context.Context, policy models.ResolutionPolicy, rawCity, rawDistrict string) (models.ResolvedAddress, error) {
	key := Fingerprint(policy.Courier, rawCity, rawDistrict)
	if ls.cache != nil {
		if cached, ok, err := ls.cache.Get(ctx, key); err == nil && ok {
			return *cached, nil
		}
	}

	cities, err := ls.store.Cities(ctx, policy.Courier)
	if err != nil {
		return models.ResolvedAddress{}, err
	}

	addr := models.ResolvedAddress{DistrictName: rawDistrict}

	res := ls.resolver.Resolve(rawCity, cities, policy.CityThreshold, policy.CityCutoff)
	if res.Matched != nil {
		addr.CityName = res.Matched.Name
		addr.CityRef = res.Matched.CourierRef
	} else {
		fallback, err := ls.store.CityByName(ctx, policy.Courier, policy.FallbackCity)
		if err != nil {
			return models.ResolvedAddress{}, err
		}
		addr.CityName = policy.FallbackCity
		if fallback != nil {
			addr.CityRef = fallback.CourierRef
		}
	}

	if policy.SpecialCaseCity != "" && addr.CityName == policy.SpecialCaseCity {
		if err := ls.resolveSpecialDistrict(ctx, policy, addr.CityRef, rawDistrict, &addr); err != nil {
			return models.ResolvedAddress{}, err
		}
	}

	if ls.cache != nil {
		if err := ls.cache.Set(ctx, key, &addr); err != nil {
			ls.logger.Warn("resolution cache write failed", zap.Error(err))
		}
	}
	return addr, nil
}

func (ls *LocalityService) resolveSpecialDistrict(ctx context.Context, policy models.ResolutionPolicy, cityRef, rawDistrict string, addr *models.ResolvedAddress) error {
	districts, err := ls.store.Districts(ctx, policy.Courier, cityRef)
	if err != nil {
		return err
	}

	res := ls.resolver.Resolve(rawDistrict, districts, policy.SpecialDistrictThreshold, policy.DistrictCutoff)
	if res.Matched != nil {
		addr.DistrictName = res.Matched.Name
		addr.DistrictRef = res.Matched.CourierRef
		return nil
	}

	addr.DistrictName = policy.SpecialFallbackDistrict
	fallback, err := ls.store.DistrictByName(ctx, policy.Courier, cityRef, policy.SpecialFallbackDistrict)
	if err != nil {
		return err
	}
	if fallback != nil {
		addr.DistrictRef = fallback.CourierRef
	}
	return nil
}

// PreviewMatch scores an input against a courier's candidate set without
// applying any threshold. Used by the admin preview endpoint only.
func (ls *LocalityService) PreviewMatch(ctx context.Context, courier models.CourierID, cityRef, input string, cutoff float64) ([]matcher.CandidateDiagnostic, error) {
	var (
		candidates []models.LocalityCandidate
		err        error
	)
	if cityRef == "" {
		candidates, err = ls.store.Cities(ctx, courier)
	} else {
		candidates, err = ls.store.Districts(ctx, courier, cityRef)
	}
	if err != nil {
		return nil, err
	}
	return ls.resolver.Diagnose(input, candidates, cutoff), nil
}
