// Package courier holds the outbound clients for the delivery companies.
// Each client takes a Shipment built by the shipment service and returns the
// courier's tracking number.
package courier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/courier-gateway/app/models"
)

// Shipment carries everything a courier client needs to place one delivery.
// Dropoff and Pickup are already resolved against the courier's reference
// data by the time a client sees them.
type Shipment struct {
	Order   *models.Order
	Brand   *models.Brand
	Dropoff models.ResolvedAddress
	Pickup  models.PickupLocation
}

// itemsSummary renders "2x Shirt (M), 1x Bag" for notes and labels.
func itemsSummary(items []models.OrderItem) string {
	if len(items) == 0 {
		return "General Items"
	}
	parts := make([]string, 0, len(items))
	for _, it := range items {
		line := fmt.Sprintf("%dx %s", it.Quantity, it.ProductName)
		if it.Size != "" {
			line += fmt.Sprintf(" (%s)", it.Size)
		}
		parts = append(parts, line)
	}
	s := strings.Join(parts, ", ")
	if len(s) > 200 {
		s = s[:197] + "..."
	}
	return s
}

// BostaClient creates type-10 (forward package) deliveries through Bosta's
// JSON API. Auth is the brand's API key in the Authorization header.
type BostaClient struct {
	baseURL string
	http    *http.Client
	logger  *zap.Logger
}

func NewBostaClient(baseURL string, logger *zap.Logger) *BostaClient {
	return &BostaClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 30 * time.Second},
		logger:  logger,
	}
}

type bostaAddress struct {
	CityID     string `json:"cityId"`
	DistrictID string `json:"districtId"`
	FirstLine  string `json:"firstLine"`
	SecondLine string `json:"secondLine,omitempty"`
}

type bostaDeliveryRequest struct {
	Type              int          `json:"type"`
	COD               float64      `json:"cod"`
	BusinessReference string       `json:"businessReference"`
	GoodsInfo         struct {
		Amount float64 `json:"amount"`
	} `json:"goodsInfo"`
	Receiver struct {
		FirstName string `json:"firstName"`
		LastName  string `json:"lastName"`
		Phone     string `json:"phone"`
		Email     string `json:"email,omitempty"`
	} `json:"receiver"`
	DropOffAddress bostaAddress `json:"dropOffAddress"`
	PickupAddress  bostaAddress `json:"pickupAddress"`
	ReturnAddress  bostaAddress `json:"returnAddress"`
	Notes          string       `json:"notes"`
}

type bostaDeliveryResponse struct {
	Data struct {
		TrackingNumber string `json:"trackingNumber"`
	} `json:"data"`
	Message string `json:"message"`
}

// CreateDelivery places the shipment and returns Bosta's tracking number.
func (c *BostaClient) CreateDelivery(ctx context.Context, s Shipment) (string, error) {
	if s.Brand.DeliveryAPIKey == "" {
		return "", fmt.Errorf("bosta: brand %s has no API key", s.Brand.Name)
	}
	if s.Dropoff.CityRef == "" || s.Dropoff.DistrictRef == "" {
		return "", fmt.Errorf("bosta: order %s dropoff is not fully resolved", s.Order.ID.Hex())
	}
	if s.Pickup.Resolved.CityRef == "" || s.Pickup.Resolved.DistrictRef == "" {
		return "", fmt.Errorf("bosta: brand %s pickup location is not fully resolved", s.Brand.Name)
	}

	customer := s.Order.Customer
	ref := s.Order.ExternalID
	if ref == "" {
		ref = s.Order.ID.Hex()
	}

	req := bostaDeliveryRequest{
		Type:              10,
		COD:               s.Order.TotalCost,
		BusinessReference: ref,
		DropOffAddress: bostaAddress{
			CityID:     s.Dropoff.CityRef,
			DistrictID: s.Dropoff.DistrictRef,
			FirstLine:  customer.Address,
			SecondLine: customer.Apartment,
		},
		PickupAddress: bostaAddress{
			CityID:     s.Pickup.Resolved.CityRef,
			DistrictID: s.Pickup.Resolved.DistrictRef,
			FirstLine:  s.Pickup.AddressLine,
		},
		ReturnAddress: bostaAddress{
			CityID:     s.Pickup.Resolved.CityRef,
			DistrictID: s.Pickup.Resolved.DistrictRef,
			FirstLine:  s.Pickup.AddressLine,
		},
		Notes: fmt.Sprintf("Contents: %s. Order for %s.", itemsSummary(s.Order.Items), customer.FirstName),
	}
	if len(s.Order.Items) > 0 {
		req.GoodsInfo.Amount = s.Order.Items[0].Price
	}
	req.Receiver.FirstName = customer.FirstName
	req.Receiver.LastName = customer.LastName
	req.Receiver.Phone = SanitizePhone(customer.Phone)
	req.Receiver.Email = customer.Email

	body, err := json.Marshal(req)
	if err != nil {
		return "", err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/api/v2/deliveries?apiVersion=1", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	httpReq.Header.Set("Authorization", s.Brand.DeliveryAPIKey)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("bosta: request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.logger.Error("bosta delivery rejected",
			zap.Int("status", resp.StatusCode),
			zap.ByteString("body", raw))
		return "", fmt.Errorf("bosta: status %d", resp.StatusCode)
	}

	var out bostaDeliveryResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return "", fmt.Errorf("bosta: decode response: %w", err)
	}
	if out.Data.TrackingNumber == "" {
		return "", fmt.Errorf("bosta: response carried no tracking number")
	}

	c.logger.Info("bosta delivery created",
		zap.String("order", s.Order.ID.Hex()),
		zap.String("tracking", out.Data.TrackingNumber))
	return out.Data.TrackingNumber, nil
}
