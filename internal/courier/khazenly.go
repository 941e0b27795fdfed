package courier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/courier-gateway/app/models"
)

const (
	// Khazenly does not report token lifetimes, so we assume two hours and
	// refresh an hour early.
	khazenlyTokenLifetime = 2 * time.Hour
	khazenlyRefreshBuffer = time.Hour
)

// Credential is a time-boxed Khazenly access token. It is passed explicitly
// through the call chain and persisted per brand by the caller; the client
// itself holds no token state.
type Credential struct {
	AccessToken string    `bson:"access_token" json:"-"`
	Expiry      time.Time `bson:"expiry" json:"expiry"`
}

// Valid reports whether the credential can still be used at the given time,
// keeping the refresh buffer in hand.
func (c Credential) Valid(now time.Time) bool {
	return c.AccessToken != "" && c.Expiry.After(now.Add(khazenlyRefreshBuffer))
}

// KhazenlyClient talks to Khazenly's Salesforce-hosted REST API.
type KhazenlyClient struct {
	baseURL string
	http    *http.Client
	logger  *zap.Logger
}

func NewKhazenlyClient(baseURL string, logger *zap.Logger) *KhazenlyClient {
	return &KhazenlyClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 30 * time.Second},
		logger:  logger,
	}
}

// EnsureCredential returns cred unchanged while it is still valid, otherwise
// refreshes it with the brand's refresh token. Callers persist the returned
// credential when it changed.
func (c *KhazenlyClient) EnsureCredential(ctx context.Context, cfg *models.KhazenlyConfig, cred Credential, now time.Time) (Credential, error) {
	if cred.Valid(now) {
		return cred, nil
	}
	c.logger.Info("khazenly token expiring, refreshing")
	return c.Refresh(ctx, cfg, now)
}

// Refresh exchanges the brand's long-lived refresh token for a new access
// token.
func (c *KhazenlyClient) Refresh(ctx context.Context, cfg *models.KhazenlyConfig, now time.Time) (Credential, error) {
	if cfg == nil || cfg.RefreshToken == "" {
		return Credential{}, fmt.Errorf("khazenly: refresh token is missing")
	}

	params := url.Values{
		"grant_type":    {"refresh_token"},
		"client_id":     {cfg.ClientID},
		"client_secret": {cfg.ClientSecret},
		"refresh_token": {cfg.RefreshToken},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/selfservice/services/oauth2/token?"+params.Encode(), nil)
	if err != nil {
		return Credential{}, err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return Credential{}, fmt.Errorf("khazenly: auth request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		c.logger.Error("khazenly auth rejected",
			zap.Int("status", resp.StatusCode),
			zap.ByteString("body", raw))
		return Credential{}, fmt.Errorf("khazenly: auth status %d", resp.StatusCode)
	}

	var out struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return Credential{}, fmt.Errorf("khazenly: decode auth response: %w", err)
	}
	if out.AccessToken == "" {
		return Credential{}, fmt.Errorf("khazenly: auth response carried no access token")
	}

	return Credential{AccessToken: out.AccessToken, Expiry: now.Add(khazenlyTokenLifetime)}, nil
}

type khazenlyLineItem struct {
	ItemName       string  `json:"itemName"`
	SKU            string  `json:"sku"`
	Price          float64 `json:"price"`
	Quantity       int     `json:"quantity"`
	DiscountAmount float64 `json:"discountAmount"`
}

type khazenlyOrderRequest struct {
	Order struct {
		OrderID            string  `json:"orderId"`
		OrderNumber        string  `json:"orderNumber"`
		StoreName          string  `json:"storeName"`
		StoreCurrency      string  `json:"storeCurrency"`
		TotalAmount        float64 `json:"totalAmount"`
		InvoiceTotalAmount float64 `json:"invoiceTotalAmount"`
		TaxAmount          float64 `json:"taxAmount"`
		DiscountAmount     float64 `json:"discountAmount"`
		ShippingFees       float64 `json:"shippingFees"`
		PaymentMethod      string  `json:"paymentMethod"`
		PaymentStatus      string  `json:"paymentStatus"`
		Weight             float64 `json:"weight"`
	} `json:"Order"`
	Customer struct {
		CustomerName string `json:"customerName"`
		Tel          string `json:"Tel"`
		Address1     string `json:"address1"`
		Address2     string `json:"address2"`
		City         string `json:"City"`
		Country      string `json:"Country"`
	} `json:"Customer"`
	LineItems []khazenlyLineItem `json:"LineItems"`
}

type khazenlyOrderResponse struct {
	ResultCode int    `json:"resultCode"`
	Result     string `json:"result"`
	Order      struct {
		SalesOrderNumber string `json:"salesOrderNumber"`
	} `json:"order"`
}

// CreateOrder places the shipment with Khazenly and returns its sales order
// number as the tracking reference. The dropoff city must already be
// resolved against Khazenly's city list.
func (c *KhazenlyClient) CreateOrder(ctx context.Context, s Shipment, cred Credential) (string, error) {
	if s.Brand.Khazenly == nil {
		return "", fmt.Errorf("khazenly: brand %s has no khazenly config", s.Brand.Name)
	}

	order := s.Order
	customer := order.Customer

	isCOD := order.TotalCost > 0
	paymentMethod := "Pre-Paid"
	paymentStatus := "paid"
	if isCOD {
		paymentMethod = "Cash-on-Delivery (COD)"
		paymentStatus = "pending"
	}

	var req khazenlyOrderRequest
	itemsTotal := 0.0
	for _, it := range order.Items {
		sku := it.SKU
		if sku == "" {
			sku = it.ProductName
		}
		req.LineItems = append(req.LineItems, khazenlyLineItem{
			ItemName: it.ProductName,
			SKU:      sku,
			Price:    it.Price,
			Quantity: it.Quantity,
		})
		itemsTotal += it.Price * float64(it.Quantity)
	}

	// Shipping fees balance the invoice so it sums exactly to the amount
	// collected from the customer.
	shipping := order.TotalCost - itemsTotal
	if shipping < 0 {
		shipping = 0
	}

	ref := order.ExternalID
	if ref == "" {
		ref = order.ID.Hex()
	}

	req.Order.OrderID = order.ID.Hex()
	req.Order.OrderNumber = ref
	req.Order.StoreName = s.Brand.Khazenly.StoreName
	req.Order.StoreCurrency = "EGP"
	req.Order.TotalAmount = order.TotalCost
	req.Order.InvoiceTotalAmount = order.TotalCost
	req.Order.ShippingFees = shipping
	req.Order.PaymentMethod = paymentMethod
	req.Order.PaymentStatus = paymentStatus
	req.Order.Weight = 1.0

	address1 := customer.Address
	if s.Dropoff.DistrictName != "" {
		address1 = s.Dropoff.DistrictName + ", " + customer.Address
	}
	req.Customer.CustomerName = customer.FullName()
	req.Customer.Tel = SanitizePhone(customer.Phone)
	req.Customer.Address1 = address1
	req.Customer.Address2 = customer.Apartment
	req.Customer.City = s.Dropoff.CityName
	req.Customer.Country = "Egypt"

	body, err := json.Marshal(req)
	if err != nil {
		return "", err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/services/apexrest/api/CreateOrder", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	httpReq.Header.Set("Authorization", "Bearer "+cred.AccessToken)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("khazenly: request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.logger.Error("khazenly order rejected",
			zap.Int("status", resp.StatusCode),
			zap.ByteString("body", raw))
		return "", fmt.Errorf("khazenly: status %d", resp.StatusCode)
	}

	var out khazenlyOrderResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return "", fmt.Errorf("khazenly: decode response: %w", err)
	}
	if out.ResultCode != 0 && out.Result != "Success" {
		return "", fmt.Errorf("khazenly: result %d %q", out.ResultCode, out.Result)
	}
	if out.Order.SalesOrderNumber == "" {
		return "", fmt.Errorf("khazenly: response carried no sales order number")
	}

	c.logger.Info("khazenly order created",
		zap.String("order", order.ID.Hex()),
		zap.String("tracking", out.Order.SalesOrderNumber))
	return out.Order.SalesOrderNumber, nil
}
