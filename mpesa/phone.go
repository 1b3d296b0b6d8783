package mpesa

import (
	"regexp"
	"strings"
)

// canonicalPhone is the only shape the gateway accepts: 254 followed by a
// Safaricom (7) or Airtel-range (1) subscriber number.
var canonicalPhone = regexp.MustCompile(`^254[17]\d{8}$`)

// NormalizePhone converts any accepted input shape (leading 0, +254, 254, or a
// bare subscriber number) into the canonical 254XXXXXXXXX form.
func NormalizePhone(raw string) (string, error) {
	phone := strings.TrimSpace(raw)
	switch {
	case strings.HasPrefix(phone, "0"):
		phone = "254" + phone[1:]
	case strings.HasPrefix(phone, "+254"):
		phone = phone[1:]
	case !strings.HasPrefix(phone, "254"):
		phone = "254" + phone
	}
	if !canonicalPhone.MatchString(phone) {
		return "", &ValidationError{Message: "Invalid phone number format. Use 254XXXXXXXXX, 07XXXXXXXX, or +254XXXXXXXXX"}
	}
	return phone, nil
}
