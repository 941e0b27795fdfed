package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/courier-gateway/app/models"
	"github.com/courier-gateway/app/requests"
	"github.com/courier-gateway/app/responses"
	"github.com/courier-gateway/app/services"
	"github.com/courier-gateway/internal/seed"
)

// AdminController exposes brand registration, reference data seeding and
// the matcher diagnostics endpoints.
type AdminController struct {
	orderService     *services.OrderService
	localityService  *services.LocalityService
	referenceService *services.ReferenceService
	resolutionCache  services.IResolutionCache
	policies         map[models.CourierID]models.ResolutionPolicy
	logger           *zap.Logger
}

func NewAdminController(
	orderService *services.OrderService,
	localityService *services.LocalityService,
	referenceService *services.ReferenceService,
	resolutionCache services.IResolutionCache,
	policies map[models.CourierID]models.ResolutionPolicy,
	logger *zap.Logger,
) *AdminController {
	return &AdminController{
		orderService:     orderService,
		localityService:  localityService,
		referenceService: referenceService,
		resolutionCache:  resolutionCache,
		policies:         policies,
		logger:           logger,
	}
}

// CreateBrand registers a merchant. The pickup address, when given, is
// resolved against the brand's courier here so every later shipment reuses
// the stored refs.
func (ac *AdminController) CreateBrand(c *gin.Context) {
	var req requests.CreateBrandRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, responses.ErrorResponse{
			Error:   "INVALID_REQUEST",
			Message: "invalid request body: " + err.Error(),
		})
		return
	}

	courier := models.CourierID(req.DeliveryCompany)
	if !courier.Valid() {
		c.JSON(http.StatusBadRequest, responses.ErrorResponse{
			Error:   "UNKNOWN_COURIER",
			Message: "unsupported delivery company: " + req.DeliveryCompany,
		})
		return
	}
	policy, ok := ac.policies[courier]
	if !ok {
		c.JSON(http.StatusBadRequest, responses.ErrorResponse{
			Error:   "UNKNOWN_COURIER",
			Message: "no resolution policy for courier: " + req.DeliveryCompany,
		})
		return
	}

	brand := &models.Brand{
		Name:            req.Name,
		Website:         req.Website,
		ContactEmail:    req.ContactEmail,
		PhoneNumber:     req.PhoneNumber,
		DeliveryCompany: courier,
		DeliveryAPIKey:  req.DeliveryAPIKey,
	}
	if req.Khazenly != nil {
		brand.Khazenly = &models.KhazenlyConfig{
			ClientID:     req.Khazenly.ClientID,
			ClientSecret: req.Khazenly.ClientSecret,
			RefreshToken: req.Khazenly.RefreshToken,
			StoreName:    req.Khazenly.StoreName,
		}
	}

	if req.Pickup != nil {
		resolved, err := ac.localityService.ResolveAddress(c.Request.Context(), policy, req.Pickup.Governorate, req.Pickup.District)
		if err != nil {
			var rej *services.RejectionError
			if errors.As(err, &rej) {
				c.JSON(http.StatusBadRequest, responses.ErrorResponse{
					Error:   rej.Code,
					Message: "pickup address: " + rej.Message,
				})
				return
			}
			ac.logger.Error("pickup resolution failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, responses.ErrorResponse{
				Error:   "INTERNAL_ERROR",
				Message: "could not resolve pickup address",
			})
			return
		}
		brand.DefaultPickup = &models.PickupLocation{
			Name:        req.Pickup.Name,
			AddressLine: req.Pickup.AddressLine,
			Resolved:    resolved,
		}
	}

	if err := ac.orderService.CreateBrand(c.Request.Context(), brand); err != nil {
		ac.logger.Error("brand creation failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, responses.ErrorResponse{
			Error:   "INTERNAL_ERROR",
			Message: "could not create brand",
		})
		return
	}

	c.JSON(http.StatusCreated, responses.BrandResponse{Brand: brand})
}

// SeedLocalities loads the embedded reference data into the database,
// replacing whatever is there.
func (ac *AdminController) SeedLocalities(c *gin.Context) {
	candidates, err := seed.Candidates()
	if err != nil {
		ac.logger.Error("seed data invalid", zap.Error(err))
		c.JSON(http.StatusInternalServerError, responses.ErrorResponse{
			Error:   "SEED_ERROR",
			Message: err.Error(),
		})
		return
	}

	if err := ac.referenceService.SeedLocalities(c.Request.Context(), candidates); err != nil {
		ac.logger.Error("seeding failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, responses.ErrorResponse{
			Error:   "SEED_ERROR",
			Message: err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, responses.SeedResponse{Seeded: len(candidates)})
}

// InvalidateCache drops both cache layers so the next lookups reload from
// the database.
func (ac *AdminController) InvalidateCache(c *gin.Context) {
	ac.referenceService.Invalidate()
	if err := ac.resolutionCache.Clear(c.Request.Context()); err != nil {
		ac.logger.Warn("resolution cache clear failed", zap.Error(err))
	}
	c.JSON(http.StatusOK, gin.H{"invalidated": true})
}

// PreviewMatch scores an input string against a courier's reference set
// without any threshold applied. Useful for tuning and for explaining why
// a given address did or did not match.
func (ac *AdminController) PreviewMatch(c *gin.Context) {
	var req requests.PreviewMatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, responses.ErrorResponse{
			Error:   "INVALID_REQUEST",
			Message: "invalid request body: " + err.Error(),
		})
		return
	}

	courier := models.CourierID(req.Courier)
	if !courier.Valid() {
		c.JSON(http.StatusBadRequest, responses.ErrorResponse{
			Error:   "UNKNOWN_COURIER",
			Message: "unsupported courier: " + req.Courier,
		})
		return
	}

	diags, err := ac.localityService.PreviewMatch(c.Request.Context(), courier, req.CityRef, req.Input, req.Cutoff)
	if err != nil {
		ac.logger.Error("match preview failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, responses.ErrorResponse{
			Error:   "INTERNAL_ERROR",
			Message: err.Error(),
		})
		return
	}

	results := make([]responses.MatchPreviewEntry, 0, len(diags))
	for _, d := range diags {
		results = append(results, responses.MatchPreviewEntry{
			Name:        d.Name,
			Label:       d.Label,
			Score:       d.DisplayScore(),
			RawScore:    d.Score,
			JaroWinkler: d.JaroWinkler,
			Levenshtein: d.Levenshtein,
		})
	}

	c.JSON(http.StatusOK, responses.MatchPreviewResponse{
		Input:   req.Input,
		Results: results,
	})
}

// Stats reports cache effectiveness counters.
func (ac *AdminController) Stats(c *gin.Context) {
	resp := responses.StatsResponse{
		ReferenceLists: ac.referenceService.CachedLists(),
	}

	stats, err := ac.resolutionCache.Stats(c.Request.Context())
	if err != nil {
		ac.logger.Warn("resolution cache stats unavailable", zap.Error(err))
	} else if stats != nil {
		resp.ResolutionCache = &responses.CacheStatsView{
			HitRate:    stats.HitRate,
			TotalHits:  stats.TotalHits,
			TotalMiss:  stats.TotalMiss,
			TotalItems: stats.TotalItems,
		}
	}

	c.JSON(http.StatusOK, resp)
}
