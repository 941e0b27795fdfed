package courier

import "regexp"

var rePhoneJunk = regexp.MustCompile(`[^0-9+]`)

// SanitizePhone cleans a phone number into the local format the couriers
// accept: digits only, Egyptian mobile numbers kept as-is, the "+2" country
// prefix stripped.
func SanitizePhone(phone string) string {
	phone = rePhoneJunk.ReplaceAllString(phone, "")
	if len(phone) == 11 && phone[0] == '0' && phone[1] == '1' {
		return phone
	}
	if len(phone) > 2 && phone[:2] == "+2" {
		return phone[2:]
	}
	return phone
}
