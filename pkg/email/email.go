package email

import (
	"strings"

	"github.com/asaskevich/govalidator"
)

// Normalize lowercases and trims an address so every store key and lookup
// agrees on one canonical form.
func Normalize(address string) string {
	return strings.ToLower(strings.TrimSpace(address))
}

// Valid reports whether the address is syntactically usable. Deliverability
// is proven later by the OTP round trip, not here.
func Valid(address string) bool {
	address = Normalize(address)
	return address != "" && govalidator.IsEmail(address)
}
