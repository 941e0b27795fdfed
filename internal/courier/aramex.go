package courier

import (
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

// AramexAccount is the SOAP ClientInfo block. One account serves all brands;
// per-brand shipper details come from the shipment itself.
type AramexAccount struct {
	Username      string
	Password      string
	AccountNumber string
	AccountPin    string
	AccountEntity string
	CountryCode   string
	Version       string
}

// AramexClient talks to Aramex's SOAP shipping API. The request envelope is
// built with encoding/xml so address lines with markup characters stay safe.
type AramexClient struct {
	baseURL string
	account AramexAccount
	http    *http.Client
	logger  *zap.Logger
}

func NewAramexClient(baseURL string, account AramexAccount, logger *zap.Logger) *AramexClient {
	if account.CountryCode == "" {
		account.CountryCode = "EG"
	}
	if account.Version == "" {
		account.Version = "v1.0"
	}
	return &AramexClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		account: account,
		http:    &http.Client{Timeout: 45 * time.Second},
		logger:  logger,
	}
}

type aramexAddress struct {
	Line1               string `xml:"v1:Line1"`
	Line2               string `xml:"v1:Line2"`
	Line3               string `xml:"v1:Line3"`
	City                string `xml:"v1:City"`
	StateOrProvinceCode string `xml:"v1:StateOrProvinceCode"`
	PostCode            string `xml:"v1:PostCode"`
	CountryCode         string `xml:"v1:CountryCode"`
}

type aramexContact struct {
	Department   string `xml:"v1:Department"`
	PersonName   string `xml:"v1:PersonName"`
	CompanyName  string `xml:"v1:CompanyName"`
	PhoneNumber1 string `xml:"v1:PhoneNumber1"`
	CellPhone    string `xml:"v1:CellPhone"`
	EmailAddress string `xml:"v1:EmailAddress"`
	Type         string `xml:"v1:Type"`
}

type aramexParty struct {
	Reference1    string        `xml:"v1:Reference1"`
	AccountNumber string        `xml:"v1:AccountNumber,omitempty"`
	PartyAddress  aramexAddress `xml:"v1:PartyAddress"`
	Contact       aramexContact `xml:"v1:Contact"`
}

type aramexAmount struct {
	CurrencyCode string  `xml:"v1:CurrencyCode"`
	Value        float64 `xml:"v1:Value"`
}

type aramexDetails struct {
	ActualWeightUnit      string       `xml:"v1:ActualWeight>v1:Unit"`
	ActualWeightValue     float64      `xml:"v1:ActualWeight>v1:Value"`
	ChargeableWeightUnit  string       `xml:"v1:ChargeableWeight>v1:Unit"`
	ChargeableWeightValue float64      `xml:"v1:ChargeableWeight>v1:Value"`
	DescriptionOfGoods    string       `xml:"v1:DescriptionOfGoods"`
	GoodsOriginCountry    string       `xml:"v1:GoodsOriginCountry"`
	NumberOfPieces        int          `xml:"v1:NumberOfPieces"`
	ProductGroup          string       `xml:"v1:ProductGroup"`
	ProductType           string       `xml:"v1:ProductType"`
	PaymentType           string       `xml:"v1:PaymentType"`
	PaymentOptions        string       `xml:"v1:PaymentOptions"`
	CustomsValueAmount    aramexAmount `xml:"v1:CustomsValueAmount"`
	CashOnDeliveryAmount  aramexAmount `xml:"v1:CashOnDeliveryAmount"`
}

type aramexShipment struct {
	Shipper          aramexParty   `xml:"v1:Shipper"`
	Consignee        aramexParty   `xml:"v1:Consignee"`
	ShippingDateTime string        `xml:"v1:ShippingDateTime"`
	DueDate          string        `xml:"v1:DueDate"`
	Comments         string        `xml:"v1:Comments"`
	PickupLocation   string        `xml:"v1:PickupLocation"`
	Details          aramexDetails `xml:"v1:Details"`
	ForeignHAWB      string        `xml:"v1:ForeignHAWB"`
	TransportType    int           `xml:"v1:TransportType"`
}

type aramexEnvelope struct {
	XMLName xml.Name `xml:"soapenv:Envelope"`
	Soapenv string   `xml:"xmlns:soapenv,attr"`
	V1      string   `xml:"xmlns:v1,attr"`
	Body    struct {
		Request struct {
			ClientInfo struct {
				UserName           string `xml:"v1:UserName"`
				Password           string `xml:"v1:Password"`
				Version            string `xml:"v1:Version"`
				AccountNumber      string `xml:"v1:AccountNumber"`
				AccountPin         string `xml:"v1:AccountPin"`
				AccountEntity      string `xml:"v1:AccountEntity"`
				AccountCountryCode string `xml:"v1:AccountCountryCode"`
			} `xml:"v1:ClientInfo"`
			Transaction struct {
				Reference1 string `xml:"v1:Reference1"`
			} `xml:"v1:Transaction"`
			Shipments struct {
				Shipment aramexShipment `xml:"v1:Shipment"`
			} `xml:"v1:Shipments"`
			LabelInfo struct {
				ReportID   int    `xml:"v1:ReportID"`
				ReportType string `xml:"v1:ReportType"`
			} `xml:"v1:LabelInfo"`
		} `xml:"v1:ShipmentCreationRequest"`
	} `xml:"soapenv:Body"`
}

// aramexResponse decodes only the fields dispatch cares about; the real
// response is much larger.
type aramexResponse struct {
	HasErrors     bool   `xml:"Body>ShipmentCreationResponse>HasErrors"`
	ProcessedID   string `xml:"Body>ShipmentCreationResponse>Shipments>ProcessedShipment>ID"`
	LabelURL      string `xml:"Body>ShipmentCreationResponse>Shipments>ProcessedShipment>ShipmentLabel>LabelURL"`
	Notifications string `xml:"Body>ShipmentCreationResponse>Notifications"`
}

// CreateShipment places a domestic COD shipment and returns the tracking ID
// and label URL.
func (c *AramexClient) CreateShipment(ctx context.Context, s Shipment) (string, string, error) {
	customer := s.Order.Customer
	phone := SanitizePhone(customer.Phone)

	now := time.Now()
	ref := s.Order.ExternalID
	if ref == "" {
		ref = s.Order.ID.Hex()
	}

	pieces := 0
	for _, it := range s.Order.Items {
		pieces += it.Quantity
	}
	if pieces < 1 {
		pieces = 1
	}

	env := aramexEnvelope{
		Soapenv: "http://schemas.xmlsoap.org/soap/envelope/",
		V1:      "http://ws.aramex.net/ShippingAPI/v1/",
	}
	reqBody := &env.Body.Request
	reqBody.ClientInfo.UserName = c.account.Username
	reqBody.ClientInfo.Password = c.account.Password
	reqBody.ClientInfo.Version = c.account.Version
	reqBody.ClientInfo.AccountNumber = c.account.AccountNumber
	reqBody.ClientInfo.AccountPin = c.account.AccountPin
	reqBody.ClientInfo.AccountEntity = c.account.AccountEntity
	reqBody.ClientInfo.AccountCountryCode = c.account.CountryCode
	reqBody.Transaction.Reference1 = s.Order.ID.Hex()
	reqBody.LabelInfo.ReportID = 9201
	reqBody.LabelInfo.ReportType = "URL"

	brandPhone := s.Brand.PhoneNumber
	if brandPhone == "" {
		brandPhone = "01000000000"
	}
	brandEmail := s.Brand.ContactEmail
	if brandEmail == "" {
		brandEmail = "logistics@brand.com"
	}

	reqBody.Shipments.Shipment = aramexShipment{
		Shipper: aramexParty{
			Reference1:    c.account.AccountNumber,
			AccountNumber: c.account.AccountNumber,
			PartyAddress: aramexAddress{
				Line1:               s.Pickup.AddressLine,
				Line2:               s.Pickup.Resolved.DistrictName,
				City:                s.Pickup.Resolved.CityName,
				StateOrProvinceCode: s.Pickup.Resolved.CityName,
				PostCode:            "00000",
				CountryCode:         c.account.CountryCode,
			},
			Contact: aramexContact{
				Department:   "Logistics",
				PersonName:   s.Brand.Name,
				CompanyName:  s.Brand.Name,
				PhoneNumber1: brandPhone,
				CellPhone:    brandPhone,
				EmailAddress: brandEmail,
				Type:         "Business",
			},
		},
		Consignee: aramexParty{
			Reference1: customer.ID.Hex(),
			PartyAddress: aramexAddress{
				Line1:               customer.Address,
				Line2:               s.Dropoff.DistrictName,
				Line3:               customer.Apartment,
				City:                s.Dropoff.CityName,
				StateOrProvinceCode: s.Dropoff.CityName,
				PostCode:            orDefault(customer.PostalCode, "00000"),
				CountryCode:         "EG",
			},
			Contact: aramexContact{
				Department:   "Personal",
				PersonName:   customer.FullName(),
				CompanyName:  customer.FullName(),
				PhoneNumber1: phone,
				CellPhone:    phone,
				EmailAddress: customer.Email,
				Type:         "Individual",
			},
		},
		// Ship in an hour so the shipment is immediately visible in handover.
		ShippingDateTime: now.Add(time.Hour).Format("2006-01-02T15:04:05"),
		DueDate:          now.AddDate(0, 0, 3).Format("2006-01-02T15:04:05"),
		Comments:         "Handle with care",
		PickupLocation:   "Reception",
		Details: aramexDetails{
			ActualWeightUnit:      "KG",
			ActualWeightValue:     1.0,
			ChargeableWeightUnit:  "KG",
			ChargeableWeightValue: 1.0,
			DescriptionOfGoods:    itemsSummary(s.Order.Items),
			GoodsOriginCountry:    "EG",
			NumberOfPieces:        pieces,
			ProductGroup:          "DOM",
			ProductType:           "CDS",
			PaymentType:           "P",
			PaymentOptions:        "ACCT",
			CustomsValueAmount:    aramexAmount{CurrencyCode: "EGP", Value: s.Order.TotalCost},
			CashOnDeliveryAmount:  aramexAmount{CurrencyCode: "EGP", Value: s.Order.TotalCost},
		},
		ForeignHAWB: fmt.Sprintf("%s-%d", ref, now.Unix()),
	}

	payload, err := xml.Marshal(env)
	if err != nil {
		return "", "", err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/ShippingAPI.V2/Shipping/Service_1_0.svc",
		bytes.NewReader(append([]byte(xml.Header), payload...)))
	if err != nil {
		return "", "", err
	}
	httpReq.Header.Set("Content-Type", "text/xml; charset=utf-8")
	httpReq.Header.Set("SOAPAction", "http://ws.aramex.net/ShippingAPI/v1/Service_1_0/CreateShipments")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return "", "", fmt.Errorf("aramex: request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		c.logger.Error("aramex http error", zap.Int("status", resp.StatusCode))
		return "", "", fmt.Errorf("aramex: status %d", resp.StatusCode)
	}

	var out aramexResponse
	if err := xml.Unmarshal(raw, &out); err != nil {
		return "", "", fmt.Errorf("aramex: decode response: %w", err)
	}
	if out.HasErrors {
		c.logger.Error("aramex shipment rejected", zap.ByteString("body", raw))
		return "", "", fmt.Errorf("aramex: shipment rejected: %s", out.Notifications)
	}
	if out.ProcessedID == "" {
		return "", "", fmt.Errorf("aramex: response carried no shipment ID")
	}

	c.logger.Info("aramex shipment created",
		zap.String("order", s.Order.ID.Hex()),
		zap.String("tracking", out.ProcessedID))
	return out.ProcessedID, out.LabelURL, nil
}

func orDefault(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}
