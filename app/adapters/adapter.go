// Package adapters turns platform-specific webhook payloads (Shopify,
// WooCommerce, or the generic shape) into one intake structure. Detection is
// by payload shape, not by a declared source, because storefront plugins lie
// about who they are more often than they change their field names.
package adapters

import (
	"strconv"
	"strings"

	"github.com/courier-gateway/internal/mapping"
)

// IncomingOrder is the platform-neutral order every adapter produces.
// Customer.Governorate has already been through the static governorate map.
type IncomingOrder struct {
	ExternalID   string
	Customer     IncomingCustomer
	Items        []IncomingItem
	ShippingCost float64
	TotalCost    float64
}

type IncomingCustomer struct {
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	Email       string `json:"email"`
	Phone       string `json:"phone"`
	Address     string `json:"address"`
	Apartment   string `json:"apartment"`
	City        string `json:"city"`
	Governorate string `json:"state"`
	Country     string `json:"country"`
	PostalCode  string `json:"postal_code"`
	District    string `json:"district"`
}

type IncomingItem struct {
	ProductName string  `json:"product_name"`
	Quantity    int     `json:"quantity"`
	Price       float64 `json:"price"`
	Size        string  `json:"size"`
	SKU         string  `json:"sku"`
}

// Adapt detects the payload platform and converts it. Unknown shapes yield a
// minimally-populated order rather than an error; the order service's own
// validation decides whether it is usable.
func Adapt(data map[string]interface{}) IncomingOrder {
	if _, hasLines := data["line_items"]; hasLines {
		if _, hasCustomer := data["customer"]; hasCustomer {
			return adaptShopify(data)
		}
		if _, hasBilling := data["billing"]; hasBilling {
			return adaptWooCommerce(data)
		}
	}
	if items, ok := data["items"].([]interface{}); ok {
		return adaptGeneric(data, items)
	}
	return IncomingOrder{
		ExternalID: str(data["id"]),
		Customer:   adaptCustomerMap(obj(data["customer"])),
	}
}

func adaptShopify(data map[string]interface{}) IncomingOrder {
	customer := obj(data["customer"])
	shipping := obj(data["shipping_address"])

	rawGov := str(shipping["province"])
	if rawGov == "" {
		rawGov = str(customer["province"])
	}

	phone := str(shipping["phone"])
	if phone == "" {
		phone = str(customer["phone"])
	}

	order := IncomingOrder{
		Customer: IncomingCustomer{
			FirstName:   str(shipping["first_name"]),
			LastName:    str(shipping["last_name"]),
			Email:       str(customer["email"]),
			Phone:       phone,
			Address:     str(shipping["address1"]),
			Apartment:   str(shipping["address2"]),
			City:        str(shipping["city"]),
			District:    str(shipping["city"]),
			Governorate: mapping.MapGovernorate(rawGov),
			Country:     str(shipping["country"]),
			PostalCode:  str(shipping["zip"]),
		},
		TotalCost: num(data["total_price"]),
	}

	if lines, ok := data["shipping_lines"].([]interface{}); ok && len(lines) > 0 {
		order.ShippingCost = num(obj(lines[0])["price"])
	}

	for _, li := range list(data["line_items"]) {
		item := obj(li)
		name := str(item["name"])
		if name == "" {
			name = str(item["title"])
		}
		if name == "" {
			name = "item"
		}
		order.Items = append(order.Items, IncomingItem{
			ProductName: name,
			Quantity:    qty(item),
			Price:       firstNum(item, "price", "price_per_unit", "total", "subtotal"),
			Size:        str(item["variant_title"]),
			SKU:         str(item["sku"]),
		})
	}

	for _, key := range []string{"order_number", "name", "id"} {
		if id := str(data[key]); id != "" {
			order.ExternalID = strings.ReplaceAll(id, "#", "")
			break
		}
	}
	return order
}

func adaptWooCommerce(data map[string]interface{}) IncomingOrder {
	shipping := obj(data["shipping"])
	billing := obj(data["billing"])

	pick := func(key string) string {
		if v := str(shipping[key]); v != "" {
			return v
		}
		return str(billing[key])
	}

	order := IncomingOrder{
		ExternalID: str(data["id"]),
		Customer: IncomingCustomer{
			FirstName:   pick("first_name"),
			LastName:    pick("last_name"),
			Email:       str(billing["email"]),
			Phone:       pick("phone"),
			Address:     pick("address_1"),
			Apartment:   pick("address_2"),
			City:        pick("city"),
			District:    pick("city"),
			Governorate: mapping.MapGovernorate(pick("state")),
			Country:     pick("country"),
			PostalCode:  pick("postcode"),
		},
		ShippingCost: num(data["shipping_total"]),
		TotalCost:    num(data["total"]),
	}

	for _, li := range list(data["line_items"]) {
		item := obj(li)
		quantity := qty(item)
		unitPrice := num(item["total"])
		if quantity > 0 {
			unitPrice /= float64(quantity)
		}

		size := ""
		for _, md := range list(item["meta_data"]) {
			meta := obj(md)
			if strings.EqualFold(str(meta["key"]), "size") {
				size = str(meta["value"])
				break
			}
		}

		name := str(item["name"])
		if name == "" {
			name = "item"
		}
		order.Items = append(order.Items, IncomingItem{
			ProductName: name,
			Quantity:    quantity,
			Price:       unitPrice,
			Size:        size,
			SKU:         str(item["sku"]),
		})
	}
	return order
}

func adaptGeneric(data map[string]interface{}, items []interface{}) IncomingOrder {
	order := IncomingOrder{
		ExternalID:   str(data["external_id"]),
		Customer:     adaptCustomerMap(obj(data["customer"])),
		ShippingCost: num(data["shipping_cost"]),
		TotalCost:    num(data["total_cost"]),
	}
	for _, li := range items {
		item := obj(li)
		order.Items = append(order.Items, IncomingItem{
			ProductName: str(item["product_name"]),
			Quantity:    qty(item),
			Price:       num(item["price"]),
			Size:        str(item["size"]),
			SKU:         str(item["sku"]),
		})
	}
	return order
}

func adaptCustomerMap(m map[string]interface{}) IncomingCustomer {
	district := str(m["district"])
	if district == "" {
		district = str(m["city"])
	}
	return IncomingCustomer{
		FirstName:   str(m["first_name"]),
		LastName:    str(m["last_name"]),
		Email:       str(m["email"]),
		Phone:       str(m["phone"]),
		Address:     str(m["address"]),
		Apartment:   str(m["apartment"]),
		City:        str(m["city"]),
		District:    district,
		Governorate: mapping.MapGovernorate(str(m["state"])),
		Country:     str(m["country"]),
		PostalCode:  str(m["postal_code"]),
	}
}

func obj(v interface{}) map[string]interface{} {
	if m, ok := v.(map[string]interface{}); ok {
		return m
	}
	return map[string]interface{}{}
}

func list(v interface{}) []interface{} {
	if l, ok := v.([]interface{}); ok {
		return l
	}
	return nil
}

func str(v interface{}) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		if t == float64(int64(t)) {
			return strconv.FormatInt(int64(t), 10)
		}
		return strconv.FormatFloat(t, 'f', -1, 64)
	case int:
		return strconv.Itoa(t)
	}
	return ""
}

// num coerces the price formats storefronts send: JSON numbers or numeric
// strings. Anything else is zero.
func num(v interface{}) float64 {
	switch t := v.(type) {
	case float64:
		return t
	case int:
		return float64(t)
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		if err != nil {
			return 0
		}
		return f
	}
	return 0
}

func qty(item map[string]interface{}) int {
	for _, key := range []string{"quantity", "qty"} {
		if n := int(num(item[key])); n > 0 {
			return n
		}
	}
	return 1
}

func firstNum(item map[string]interface{}, keys ...string) float64 {
	for _, key := range keys {
		if f := num(item[key]); f != 0 {
			return f
		}
	}
	return 0
}
