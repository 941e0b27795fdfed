package courier

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go.uber.org/zap"
)

func TestSanitizePhone(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"01001234567", "01001234567"},
		{"+201001234567", "01001234567"},
		{"+20 100 123-4567", "01001234567"},
		{"(0100) 123 4567", "01001234567"},
		{"+212345", "12345"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := SanitizePhone(tt.in); got != tt.want {
			t.Errorf("SanitizePhone(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

const aramexOKResponse = `<?xml version="1.0"?>
<s:Envelope xmlns:s="http://schemas.xmlsoap.org/soap/envelope/">
  <s:Body>
    <ShipmentCreationResponse xmlns="http://ws.aramex.net/ShippingAPI/v1/">
      <HasErrors>false</HasErrors>
      <Shipments>
        <ProcessedShipment>
          <ID>44123456789</ID>
          <ShipmentLabel><LabelURL>https://example.com/label.pdf</LabelURL></ShipmentLabel>
        </ProcessedShipment>
      </Shipments>
    </ShipmentCreationResponse>
  </s:Body>
</s:Envelope>`

func testAramexAccount() AramexAccount {
	return AramexAccount{
		Username:      "user@brand.com",
		Password:      "secret",
		AccountNumber: "60500000",
		AccountPin:    "221144",
		AccountEntity: "CAI",
	}
}

func TestAramexCreateShipment(t *testing.T) {
	var body string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("SOAPAction"); !strings.Contains(got, "CreateShipments") {
			t.Errorf("SOAPAction = %q", got)
		}
		raw, _ := io.ReadAll(r.Body)
		body = string(raw)
		w.Write([]byte(aramexOKResponse))
	}))
	defer srv.Close()

	client := NewAramexClient(srv.URL, testAramexAccount(), zap.NewNop())
	s := testShipment()
	s.Dropoff.CityName = "Cairo"
	s.Dropoff.DistrictName = "Maadi"

	tracking, label, err := client.CreateShipment(context.Background(), s)
	if err != nil {
		t.Fatalf("CreateShipment: %v", err)
	}
	if tracking != "44123456789" {
		t.Errorf("tracking = %q", tracking)
	}
	if label != "https://example.com/label.pdf" {
		t.Errorf("label = %q", label)
	}

	for _, want := range []string{
		"<v1:UserName>user@brand.com</v1:UserName>",
		"<v1:AccountEntity>CAI</v1:AccountEntity>",
		"<v1:City>Cairo</v1:City>",
		"<v1:Line2>Maadi</v1:Line2>",
		"<v1:PhoneNumber1>01001234567</v1:PhoneNumber1>",
		"<v1:ProductGroup>DOM</v1:ProductGroup>",
		"<v1:PaymentOptions>ACCT</v1:PaymentOptions>",
	} {
		if !strings.Contains(body, want) {
			t.Errorf("request body missing %s", want)
		}
	}
}

func TestAramexCreateShipmentHasErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<Envelope><Body><ShipmentCreationResponse><HasErrors>true</HasErrors></ShipmentCreationResponse></Body></Envelope>`))
	}))
	defer srv.Close()

	client := NewAramexClient(srv.URL, testAramexAccount(), zap.NewNop())
	if _, _, err := client.CreateShipment(context.Background(), testShipment()); err == nil {
		t.Error("HasErrors response must fail")
	}
}
