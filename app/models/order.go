package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// OrderStatus tracks the confirmation lifecycle of an intake order.
type OrderStatus string

const (
	OrderPending   OrderStatus = "pending"
	OrderConfirmed OrderStatus = "confirmed"
	OrderCancelled OrderStatus = "cancelled"
)

// Brand is a merchant account. Incoming webhooks are addressed by WebhookID,
// never by the mongo _id.
type Brand struct {
	ID              primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	Name            string             `bson:"name" json:"name"`
	Website         string             `bson:"website,omitempty" json:"website,omitempty"`
	ContactEmail    string             `bson:"contact_email,omitempty" json:"contact_email,omitempty"`
	PhoneNumber     string             `bson:"phone_number,omitempty" json:"phone_number,omitempty"`
	WebhookID       string             `bson:"webhook_id" json:"webhook_id"`
	DeliveryCompany CourierID          `bson:"delivery_company" json:"delivery_company"`
	DeliveryAPIKey  string             `bson:"delivery_api_key,omitempty" json:"-"`
	Khazenly        *KhazenlyConfig    `bson:"khazenly,omitempty" json:"-"`
	DefaultPickup   *PickupLocation    `bson:"default_pickup,omitempty" json:"default_pickup,omitempty"`
	CreatedAt       time.Time          `bson:"created_at" json:"created_at"`
}

// KhazenlyConfig holds the per-brand OAuth material for Khazenly's API. The
// refresh token is long-lived; access tokens are short-lived and handed
// around as explicit Credential values, never stored here.
type KhazenlyConfig struct {
	ClientID     string `bson:"client_id" json:"-"`
	ClientSecret string `bson:"client_secret" json:"-"`
	RefreshToken string `bson:"refresh_token" json:"-"`
	StoreName    string `bson:"store_name" json:"store_name"`
}

// PickupLocation is a brand warehouse, pre-resolved against the brand's
// courier so shipment creation never matches pickup addresses fuzzily.
type PickupLocation struct {
	Name        string          `bson:"name" json:"name"`
	AddressLine string          `bson:"address_line" json:"address_line"`
	Resolved    ResolvedAddress `bson:"resolved" json:"resolved"`
}

// Customer is the shipping recipient as adapted from the storefront payload.
// Governorate holds the raw storefront value after static mapping; Resolved
// is populated at intake for strict couriers and at shipment time otherwise.
type Customer struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	FirstName   string             `bson:"first_name" json:"first_name"`
	LastName    string             `bson:"last_name" json:"last_name"`
	Email       string             `bson:"email,omitempty" json:"email,omitempty"`
	Phone       string             `bson:"phone" json:"phone"`
	Address     string             `bson:"address" json:"address"`
	Apartment   string             `bson:"apartment,omitempty" json:"apartment,omitempty"`
	District    string             `bson:"district" json:"district"`
	City        string             `bson:"city" json:"city"`
	Governorate string             `bson:"governorate" json:"governorate"`
	Country     string             `bson:"country,omitempty" json:"country,omitempty"`
	PostalCode  string             `bson:"postal_code,omitempty" json:"postal_code,omitempty"`
	Resolved    *ResolvedAddress   `bson:"resolved,omitempty" json:"resolved,omitempty"`
}

func (c Customer) FullName() string {
	if c.LastName == "" {
		return c.FirstName
	}
	return c.FirstName + " " + c.LastName
}

type OrderItem struct {
	ProductName string  `bson:"product_name" json:"product_name"`
	Price       float64 `bson:"price" json:"price"`
	Quantity    int     `bson:"quantity" json:"quantity"`
	Size        string  `bson:"size,omitempty" json:"size,omitempty"`
	SKU         string  `bson:"sku,omitempty" json:"sku,omitempty"`
}

// Order is an intake order awaiting confirmation. ExternalID is the
// storefront's order identifier and is unique per brand.
type Order struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	BrandID        primitive.ObjectID `bson:"brand_id" json:"brand_id"`
	ExternalID     string             `bson:"external_id,omitempty" json:"external_id,omitempty"`
	Customer       Customer           `bson:"customer" json:"customer"`
	Items          []OrderItem        `bson:"items" json:"items"`
	Status         OrderStatus        `bson:"status" json:"status"`
	ShippingCost   float64            `bson:"shipping_cost" json:"shipping_cost"`
	TotalCost      float64            `bson:"total_cost" json:"total_cost"`
	TrackingNumber string             `bson:"tracking_number,omitempty" json:"tracking_number,omitempty"`
	CreatedAt      time.Time          `bson:"created_at" json:"created_at"`
	RespondedAt    *time.Time         `bson:"responded_at,omitempty" json:"responded_at,omitempty"`
}

// ItemsTotal sums the line items; TotalCost additionally includes shipping.
func (o Order) ItemsTotal() float64 {
	total := 0.0
	for _, it := range o.Items {
		total += it.Price * float64(it.Quantity)
	}
	return total
}
