// Package mapping translates storefront governorate spellings into the city
// names the courier reference data uses. It runs before any fuzzy matching,
// so the table holds only literal spellings storefronts are known to send.
package mapping

import "strings"

// shopifyGovernorates maps lowercase storefront governorate values to courier
// city names. Entries come from observed checkout payloads; several map
// satellite cities onto the governorate the couriers actually serve.
var shopifyGovernorates = map[string]string{
	"al sharkia":     "Sharqia",
	"as sharqiyah":   "Sharqia",
	"el sharkia":     "Sharqia",
	"al qalyubia":    "El Kalioubia",
	"el kalioubia":   "El Kalioubia",
	"qalyubia":       "El Kalioubia",
	"al dakahliyah":  "Dakahlia",
	"el dakahleya":   "Dakahlia",
	"dakahlia":       "Dakahlia",
	"menofia":        "Monufia",
	"al minufiyah":   "Monufia",
	"monufia":        "Monufia",
	"beni suef":      "Bani Suif",
	"kafr al-sheikh": "Kafr Alsheikh",
	"kafr el sheikh": "Kafr Alsheikh",
	"port said":      "Port Said",
	"qena":           "Qena",
	"red sea":        "Red Sea",
	"sohag":          "Sohag",
	"south sinai":    "South Sinai",
	"suez":           "Suez",
	// 6th of October is served through Giza.
	"6th of october": "Giza",
	"alexandria":     "Alexandria",
	"assuit":         "Assuit",
	"aswan":          "Aswan",
	"behira":         "Behira",
	"cairo":          "Cairo",
	"damietta":       "Damietta",
	"fayoum":         "Fayoum",
	"gharbia":        "Gharbia",
	"giza":           "Giza",
	"ismailia":       "Ismailia",
	"luxor":          "Luxor",
	"matrouh":        "Matrouh",
	"menya":          "Menya",
	"new valley":     "New Valley",
	"north coast":    "North Coast",
	"north sinai":    "North Sinai",
}

// MapGovernorate returns the courier city name for a storefront governorate
// value. Lookup is case-insensitive after trimming; unknown values pass
// through unchanged so the fuzzy city matcher can still take a shot at them.
func MapGovernorate(raw string) string {
	if mapped, ok := shopifyGovernorates[strings.ToLower(strings.TrimSpace(raw))]; ok {
		return mapped
	}
	return raw
}
