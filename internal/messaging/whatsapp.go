package messaging

import "strings"

const whatsappPrefix = "whatsapp:"

// NormalizeWhatsApp formats a phone number as a Twilio WhatsApp address.
// Idempotent: an already-prefixed address is returned unchanged.
func NormalizeWhatsApp(number string) string {
	number = strings.TrimSpace(number)
	if number == "" {
		return ""
	}
	if strings.HasPrefix(number, whatsappPrefix) {
		return number
	}
	return whatsappPrefix + number
}
