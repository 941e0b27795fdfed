package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	"github.com/courier-gateway/app/adapters"
	"github.com/courier-gateway/app/models"
)

const (
	brandsCollection = "brands"
	ordersCollection = "orders"
)

var (
	ErrBrandNotFound     = errors.New("brand not found")
	ErrOrderNotFound     = errors.New("order not found")
	ErrDuplicateOrder    = errors.New("order with this external id already exists")
	ErrInvalidTransition = errors.New("order is not pending")
)

// OrderService owns the intake side: brands, webhook orders and their
// confirmation lifecycle. Shipment dispatch lives in ShipmentService.
type OrderService struct {
	db       *mongo.Database
	locality *LocalityService
	policies map[models.CourierID]models.ResolutionPolicy
	logger   *zap.Logger
}

func NewOrderService(db *mongo.Database, locality *LocalityService, policies map[models.CourierID]models.ResolutionPolicy, logger *zap.Logger) *OrderService {
	return &OrderService{db: db, locality: locality, policies: policies, logger: logger}
}

// CreateBrand assigns the webhook ID merchants point their storefront at.
func (os *OrderService) CreateBrand(ctx context.Context, brand *models.Brand) error {
	if !brand.DeliveryCompany.Valid() {
		return fmt.Errorf("unknown delivery company %q", brand.DeliveryCompany)
	}
	brand.WebhookID = uuid.NewString()
	brand.CreatedAt = time.Now()

	res, err := os.db.Collection(brandsCollection).InsertOne(ctx, brand)
	if err != nil {
		return fmt.Errorf("insert brand: %w", err)
	}
	brand.ID = res.InsertedID.(primitive.ObjectID)
	os.logger.Info("brand created",
		zap.String("name", brand.Name),
		zap.String("webhook_id", brand.WebhookID))
	return nil
}

func (os *OrderService) BrandByWebhookID(ctx context.Context, webhookID string) (*models.Brand, error) {
	var brand models.Brand
	err := os.db.Collection(brandsCollection).FindOne(ctx, bson.M{"webhook_id": webhookID}).Decode(&brand)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrBrandNotFound
	}
	if err != nil {
		return nil, err
	}
	return &brand, nil
}

// CreateOrder resolves the incoming address under the brand's courier policy
// and persists the order as pending. A RejectionError from resolution
// propagates unwrapped so the controller can 400 it with the courier's
// reason.
func (os *OrderService) CreateOrder(ctx context.Context, brand *models.Brand, in adapters.IncomingOrder) (*models.Order, error) {
	policy, ok := os.policies[brand.DeliveryCompany]
	if !ok {
		return nil, fmt.Errorf("no resolution policy for courier %q", brand.DeliveryCompany)
	}

	if in.ExternalID != "" {
		count, err := os.db.Collection(ordersCollection).CountDocuments(ctx,
			bson.M{"brand_id": brand.ID, "external_id": in.ExternalID})
		if err != nil {
			return nil, err
		}
		if count > 0 {
			return nil, ErrDuplicateOrder
		}
	}

	resolved, err := os.locality.ResolveAddress(ctx, policy, in.Customer.Governorate, in.Customer.District)
	if err != nil {
		return nil, err
	}

	customer := models.Customer{
		ID:          primitive.NewObjectID(),
		FirstName:   in.Customer.FirstName,
		LastName:    in.Customer.LastName,
		Email:       in.Customer.Email,
		Phone:       in.Customer.Phone,
		Address:     in.Customer.Address,
		Apartment:   in.Customer.Apartment,
		District:    resolved.DistrictName,
		City:        in.Customer.City,
		Governorate: in.Customer.Governorate,
		Country:     in.Customer.Country,
		PostalCode:  in.Customer.PostalCode,
		Resolved:    &resolved,
	}

	order := &models.Order{
		BrandID:      brand.ID,
		ExternalID:   in.ExternalID,
		Customer:     customer,
		Status:       models.OrderPending,
		ShippingCost: in.ShippingCost,
		TotalCost:    in.TotalCost,
		CreatedAt:    time.Now(),
	}
	for _, it := range in.Items {
		order.Items = append(order.Items, models.OrderItem{
			ProductName: it.ProductName,
			Price:       it.Price,
			Quantity:    it.Quantity,
			Size:        it.Size,
			SKU:         it.SKU,
		})
	}
	if order.TotalCost == 0 {
		order.TotalCost = order.ItemsTotal() + order.ShippingCost
	}

	res, err := os.db.Collection(ordersCollection).InsertOne(ctx, order)
	if err != nil {
		return nil, fmt.Errorf("insert order: %w", err)
	}
	order.ID = res.InsertedID.(primitive.ObjectID)

	os.logger.Info("order created",
		zap.String("order", order.ID.Hex()),
		zap.String("brand", brand.Name),
		zap.String("city", resolved.CityName),
		zap.String("district", resolved.DistrictName))
	return order, nil
}

func (os *OrderService) GetOrder(ctx context.Context, id string) (*models.Order, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrOrderNotFound
	}
	var order models.Order
	err = os.db.Collection(ordersCollection).FindOne(ctx, bson.M{"_id": oid}).Decode(&order)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (os *OrderService) BrandByID(ctx context.Context, id primitive.ObjectID) (*models.Brand, error) {
	var brand models.Brand
	err := os.db.Collection(brandsCollection).FindOne(ctx, bson.M{"_id": id}).Decode(&brand)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrBrandNotFound
	}
	if err != nil {
		return nil, err
	}
	return &brand, nil
}

// setStatus moves a pending order to its terminal status and stamps
// responded_at, atomically so double confirmations lose.
func (os *OrderService) setStatus(ctx context.Context, id string, status models.OrderStatus) (*models.Order, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrOrderNotFound
	}

	now := time.Now()
	var order models.Order
	err = os.db.Collection(ordersCollection).FindOneAndUpdate(ctx,
		bson.M{"_id": oid, "status": models.OrderPending},
		bson.M{"$set": bson.M{"status": status, "responded_at": now}},
	).Decode(&order)
	if errors.Is(err, mongo.ErrNoDocuments) {
		// Either unknown or already responded; tell the caller which.
		if _, getErr := os.GetOrder(ctx, id); getErr != nil {
			return nil, getErr
		}
		return nil, ErrInvalidTransition
	}
	if err != nil {
		return nil, err
	}

	order.Status = status
	order.RespondedAt = &now
	return &order, nil
}

func (os *OrderService) ConfirmOrder(ctx context.Context, id string) (*models.Order, error) {
	return os.setStatus(ctx, id, models.OrderConfirmed)
}

func (os *OrderService) CancelOrder(ctx context.Context, id string) (*models.Order, error) {
	return os.setStatus(ctx, id, models.OrderCancelled)
}

func (os *OrderService) SetTrackingNumber(ctx context.Context, id primitive.ObjectID, tracking string) error {
	_, err := os.db.Collection(ordersCollection).UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"tracking_number": tracking}})
	return err
}
