package adapters

import (
	"encoding/json"
	"testing"
)

func decode(t *testing.T, raw string) map[string]interface{} {
	t.Helper()
	var m map[string]interface{}
	if err := json.Unmarshal([]byte(raw), &m); err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	return m
}

func TestAdaptShopify(t *testing.T) {
	payload := decode(t, `{
		"order_number": "#1042",
		"customer": {"email": "nour@example.com", "phone": "+201001234567"},
		"shipping_address": {
			"first_name": "Nour", "last_name": "Hassan",
			"address1": "12 Baghdad St", "address2": "Apt 3",
			"city": "Korba", "province": "6th of October",
			"country": "Egypt", "zip": "11757", "phone": ""
		},
		"line_items": [
			{"name": "Linen Shirt", "quantity": 2, "price": "450.00", "variant_title": "M"},
			{"title": "Tote Bag", "qty": 1, "total": 200}
		],
		"shipping_lines": [{"price": "55.00"}],
		"total_price": "1155.00"
	}`)

	order := Adapt(payload)

	if order.ExternalID != "1042" {
		t.Errorf("external id = %q, want 1042 with hash stripped", order.ExternalID)
	}
	if order.Customer.Governorate != "Giza" {
		t.Errorf("governorate = %q, want Giza via static map", order.Customer.Governorate)
	}
	if order.Customer.Phone != "+201001234567" {
		t.Errorf("phone = %q, want fallback to customer phone", order.Customer.Phone)
	}
	if order.Customer.District != "Korba" {
		t.Errorf("district = %q, want the shipping city", order.Customer.District)
	}
	if len(order.Items) != 2 {
		t.Fatalf("items = %d, want 2", len(order.Items))
	}
	if order.Items[0].Price != 450 || order.Items[0].Quantity != 2 || order.Items[0].Size != "M" {
		t.Errorf("item[0] = %+v", order.Items[0])
	}
	if order.Items[1].ProductName != "Tote Bag" || order.Items[1].Quantity != 1 {
		t.Errorf("item[1] = %+v", order.Items[1])
	}
	if order.ShippingCost != 55 || order.TotalCost != 1155 {
		t.Errorf("costs = %f/%f", order.ShippingCost, order.TotalCost)
	}
}

func TestAdaptWooCommerce(t *testing.T) {
	payload := decode(t, `{
		"id": 7781,
		"billing": {"email": "s@example.com", "phone": "01112223334", "first_name": "Sara", "last_name": "A", "state": "el sharkia", "city": "Zagazig", "address_1": "5 Talaat Harb", "country": "EG"},
		"shipping": {},
		"line_items": [
			{"name": "Mug", "quantity": 4, "total": "220.00", "meta_data": [{"key": "Size", "value": "L"}]}
		],
		"shipping_total": "40.00",
		"total": "260.00"
	}`)

	order := Adapt(payload)

	if order.ExternalID != "7781" {
		t.Errorf("external id = %q", order.ExternalID)
	}
	if order.Customer.Governorate != "Sharqia" {
		t.Errorf("governorate = %q, want Sharqia", order.Customer.Governorate)
	}
	if order.Customer.FirstName != "Sara" || order.Customer.City != "Zagazig" {
		t.Errorf("billing fallback failed: %+v", order.Customer)
	}
	if len(order.Items) != 1 {
		t.Fatalf("items = %d, want 1", len(order.Items))
	}
	if order.Items[0].Price != 55 {
		t.Errorf("unit price = %f, want line total divided by quantity", order.Items[0].Price)
	}
	if order.Items[0].Size != "L" {
		t.Errorf("size = %q, want L from meta data", order.Items[0].Size)
	}
}

func TestAdaptGeneric(t *testing.T) {
	payload := decode(t, `{
		"external_id": "ord-9",
		"customer": {"first_name": "Omar", "phone": "0100", "city": "Nasr City", "state": "Cairo", "address": "x"},
		"items": [{"product_name": "Thing", "quantity": 1, "price": 99.5}],
		"shipping_cost": "10",
		"total_cost": "109.5"
	}`)

	order := Adapt(payload)

	if order.ExternalID != "ord-9" {
		t.Errorf("external id = %q", order.ExternalID)
	}
	if order.Customer.District != "Nasr City" {
		t.Errorf("district should default to city, got %q", order.Customer.District)
	}
	if order.TotalCost != 109.5 || order.ShippingCost != 10 {
		t.Errorf("costs = %f/%f", order.ShippingCost, order.TotalCost)
	}
}

func TestAdaptUnknownShape(t *testing.T) {
	order := Adapt(decode(t, `{"id": 5, "customer": {"first_name": "A"}}`))
	if order.ExternalID != "5" {
		t.Errorf("external id = %q", order.ExternalID)
	}
	if len(order.Items) != 0 {
		t.Errorf("unknown shape must not invent items")
	}
}

func TestNumCoercion(t *testing.T) {
	tests := []struct {
		in   interface{}
		want float64
	}{
		{"12.50", 12.5},
		{" 7 ", 7},
		{3.25, 3.25},
		{"not a number", 0},
		{nil, 0},
	}
	for _, tt := range tests {
		if got := num(tt.in); got != tt.want {
			t.Errorf("num(%v) = %f, want %f", tt.in, got, tt.want)
		}
	}
}
