package courier

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/courier-gateway/app/models"
)

func khazenlyConfig() *models.KhazenlyConfig {
	return &models.KhazenlyConfig{
		ClientID:     "client",
		ClientSecret: "secret",
		RefreshToken: "refresh-abc",
		StoreName:    "test-store",
	}
}

func TestCredentialValid(t *testing.T) {
	now := time.Now()
	tests := []struct {
		name string
		cred Credential
		want bool
	}{
		{"fresh", Credential{AccessToken: "t", Expiry: now.Add(2 * time.Hour)}, true},
		{"inside refresh buffer", Credential{AccessToken: "t", Expiry: now.Add(30 * time.Minute)}, false},
		{"expired", Credential{AccessToken: "t", Expiry: now.Add(-time.Minute)}, false},
		{"empty token", Credential{Expiry: now.Add(2 * time.Hour)}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.cred.Valid(now); got != tt.want {
				t.Errorf("Valid = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestKhazenlyRefresh(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/selfservice/services/oauth2/token" {
			t.Errorf("path = %q", r.URL.Path)
		}
		q := r.URL.Query()
		if q.Get("grant_type") != "refresh_token" || q.Get("refresh_token") != "refresh-abc" {
			t.Errorf("query = %v", q)
		}
		w.Write([]byte(`{"access_token": "new-token"}`))
	}))
	defer srv.Close()

	client := NewKhazenlyClient(srv.URL, zap.NewNop())
	now := time.Now()
	cred, err := client.Refresh(context.Background(), khazenlyConfig(), now)
	if err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if cred.AccessToken != "new-token" {
		t.Errorf("token = %q", cred.AccessToken)
	}
	if got := cred.Expiry.Sub(now); got != khazenlyTokenLifetime {
		t.Errorf("expiry in %v, want %v", got, khazenlyTokenLifetime)
	}
}

func TestKhazenlyEnsureCredentialSkipsRefreshWhileValid(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("valid credential must not trigger a refresh")
	}))
	defer srv.Close()

	client := NewKhazenlyClient(srv.URL, zap.NewNop())
	now := time.Now()
	cred := Credential{AccessToken: "still-good", Expiry: now.Add(2 * time.Hour)}

	got, err := client.EnsureCredential(context.Background(), khazenlyConfig(), cred, now)
	if err != nil {
		t.Fatal(err)
	}
	if got != cred {
		t.Errorf("credential changed: %+v", got)
	}
}

func TestKhazenlyRefreshMissingToken(t *testing.T) {
	client := NewKhazenlyClient("http://unused", zap.NewNop())
	if _, err := client.Refresh(context.Background(), &models.KhazenlyConfig{}, time.Now()); err == nil {
		t.Error("missing refresh token must fail")
	}
}

func TestKhazenlyCreateOrder(t *testing.T) {
	var got khazenlyOrderRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/services/apexrest/api/CreateOrder" {
			t.Errorf("path = %q", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer tok" {
			t.Errorf("authorization = %q", r.Header.Get("Authorization"))
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Fatalf("decode: %v", err)
		}
		w.Write([]byte(`{"resultCode": 0, "order": {"salesOrderNumber": "SO-5501"}}`))
	}))
	defer srv.Close()

	client := NewKhazenlyClient(srv.URL, zap.NewNop())
	s := testShipment()
	s.Brand.Khazenly = khazenlyConfig()
	s.Dropoff = models.ResolvedAddress{CityName: "Cairo", DistrictName: "Maadi"}

	tracking, err := client.CreateOrder(context.Background(), s, Credential{AccessToken: "tok"})
	if err != nil {
		t.Fatalf("CreateOrder: %v", err)
	}
	if tracking != "SO-5501" {
		t.Errorf("tracking = %q", tracking)
	}

	if got.Customer.Address1 != "Maadi, 12 Baghdad St" {
		t.Errorf("address1 = %q, want district before street", got.Customer.Address1)
	}
	if got.Customer.City != "Cairo" {
		t.Errorf("city = %q", got.Customer.City)
	}
	if got.Order.PaymentMethod != "Cash-on-Delivery (COD)" || got.Order.PaymentStatus != "pending" {
		t.Errorf("payment = %q/%q", got.Order.PaymentMethod, got.Order.PaymentStatus)
	}
	// 1155 collected, items total 1100, shipping balances the difference.
	if got.Order.ShippingFees != 55 {
		t.Errorf("shipping fees = %f, want 55", got.Order.ShippingFees)
	}
	if len(got.LineItems) != 2 || got.LineItems[1].SKU != "Tote Bag" {
		t.Errorf("line items = %+v, want product name as SKU fallback", got.LineItems)
	}
}

func TestKhazenlyCreateOrderLogicError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"resultCode": 17, "result": "Duplicate order"}`))
	}))
	defer srv.Close()

	client := NewKhazenlyClient(srv.URL, zap.NewNop())
	s := testShipment()
	s.Brand.Khazenly = khazenlyConfig()
	if _, err := client.CreateOrder(context.Background(), s, Credential{AccessToken: "tok"}); err == nil {
		t.Error("non-zero result code must fail")
	}
}
