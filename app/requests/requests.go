package requests

// CreateBrandRequest registers a merchant and its courier wiring.
type CreateBrandRequest struct {
	Name            string `json:"name" binding:"required"`
	Website         string `json:"website"`
	ContactEmail    string `json:"contact_email"`
	PhoneNumber     string `json:"phone_number"`
	DeliveryCompany string `json:"delivery_company" binding:"required"`
	DeliveryAPIKey  string `json:"delivery_api_key"`

	Khazenly *KhazenlyConfigRequest `json:"khazenly"`
	Pickup   *PickupRequest         `json:"pickup"`
}

type KhazenlyConfigRequest struct {
	ClientID     string `json:"client_id"`
	ClientSecret string `json:"client_secret"`
	RefreshToken string `json:"refresh_token"`
	StoreName    string `json:"store_name"`
}

// PickupRequest names the warehouse address. Governorate and district are
// resolved against the brand's courier at registration time, never per
// shipment.
type PickupRequest struct {
	Name        string `json:"name" binding:"required"`
	AddressLine string `json:"address_line" binding:"required"`
	Governorate string `json:"governorate" binding:"required"`
	District    string `json:"district" binding:"required"`
}

// PreviewMatchRequest scores an input against a courier's reference set.
type PreviewMatchRequest struct {
	Courier string  `json:"courier" binding:"required"`
	CityRef string  `json:"city_ref"`
	Input   string  `json:"input" binding:"required"`
	Cutoff  float64 `json:"cutoff"`
}
