package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/courier-gateway/app/models"
	"github.com/courier-gateway/internal/courier"
)

const credentialsCollection = "courier_credentials"

// ShipmentService routes a confirmed order to the brand's courier. Strict
// couriers ship with the address resolved at intake; best-effort couriers
// get their locality resolved here, just before the payload is built.
type ShipmentService struct {
	db       *mongo.Database
	locality *LocalityService
	policies map[models.CourierID]models.ResolutionPolicy
	bosta    *courier.BostaClient
	aramex   *courier.AramexClient
	khazenly *courier.KhazenlyClient
	logger   *zap.Logger
}

func NewShipmentService(
	db *mongo.Database,
	locality *LocalityService,
	policies map[models.CourierID]models.ResolutionPolicy,
	bosta *courier.BostaClient,
	aramex *courier.AramexClient,
	khazenly *courier.KhazenlyClient,
	logger *zap.Logger,
) *ShipmentService {
	return &ShipmentService{
		db:       db,
		locality: locality,
		policies: policies,
		bosta:    bosta,
		aramex:   aramex,
		khazenly: khazenly,
		logger:   logger,
	}
}

// Dispatch creates the courier shipment for a confirmed order and returns
// the tracking reference.
func (ss *ShipmentService) Dispatch(ctx context.Context, brand *models.Brand, order *models.Order) (string, error) {
	if brand.DefaultPickup == nil {
		return "", fmt.Errorf("brand %s has no default pickup location", brand.Name)
	}

	shipment := courier.Shipment{
		Order:  order,
		Brand:  brand,
		Pickup: *brand.DefaultPickup,
	}

	switch brand.DeliveryCompany {
	case models.CourierBosta:
		if order.Customer.Resolved == nil {
			return "", fmt.Errorf("order %s has no resolved address", order.ID.Hex())
		}
		shipment.Dropoff = *order.Customer.Resolved
		return ss.bosta.CreateDelivery(ctx, shipment)

	case models.CourierAramex:
		dropoff, err := ss.resolveDropoff(ctx, brand.DeliveryCompany, order)
		if err != nil {
			return "", err
		}
		shipment.Dropoff = dropoff
		tracking, _, err := ss.aramex.CreateShipment(ctx, shipment)
		return tracking, err

	case models.CourierKhazenly:
		dropoff, err := ss.resolveDropoff(ctx, brand.DeliveryCompany, order)
		if err != nil {
			return "", err
		}
		shipment.Dropoff = dropoff

		cred, err := ss.ensureKhazenlyCredential(ctx, brand)
		if err != nil {
			return "", err
		}
		return ss.khazenly.CreateOrder(ctx, shipment, cred)

	default:
		return "", fmt.Errorf("unknown delivery company %q", brand.DeliveryCompany)
	}
}

// resolveDropoff runs best-effort locality resolution for couriers that take
// free-form city names.
func (ss *ShipmentService) resolveDropoff(ctx context.Context, courierID models.CourierID, order *models.Order) (models.ResolvedAddress, error) {
	policy, ok := ss.policies[courierID]
	if !ok {
		return models.ResolvedAddress{}, fmt.Errorf("no resolution policy for courier %q", courierID)
	}
	// The governorate carries the city-level input; the storefront city
	// field is district-grained and would cross-match other governorates.
	rawCity := order.Customer.Governorate
	if rawCity == "" {
		rawCity = order.Customer.City
	}
	return ss.locality.ResolveShipmentLocality(ctx, policy, rawCity, order.Customer.District)
}

type storedCredential struct {
	BrandID     primitive.ObjectID `bson:"brand_id"`
	AccessToken string             `bson:"access_token"`
	Expiry      time.Time          `bson:"expiry"`
}

// ensureKhazenlyCredential loads the brand's cached token, refreshes it when
// needed and persists the refreshed value.
func (ss *ShipmentService) ensureKhazenlyCredential(ctx context.Context, brand *models.Brand) (courier.Credential, error) {
	var stored storedCredential
	err := ss.db.Collection(credentialsCollection).
		FindOne(ctx, bson.M{"brand_id": brand.ID}).Decode(&stored)
	if err != nil && !errors.Is(err, mongo.ErrNoDocuments) {
		return courier.Credential{}, err
	}

	current := courier.Credential{AccessToken: stored.AccessToken, Expiry: stored.Expiry}
	now := time.Now()

	cred, err := ss.khazenly.EnsureCredential(ctx, brand.Khazenly, current, now)
	if err != nil {
		return courier.Credential{}, err
	}

	if cred != current {
		_, err = ss.db.Collection(credentialsCollection).UpdateOne(ctx,
			bson.M{"brand_id": brand.ID},
			bson.M{"$set": bson.M{"access_token": cred.AccessToken, "expiry": cred.Expiry}},
			options.Update().SetUpsert(true))
		if err != nil {
			ss.logger.Warn("failed to persist refreshed khazenly token", zap.Error(err))
		}
	}
	return cred, nil
}
