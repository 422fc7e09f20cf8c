package adapters

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"strings"

	"github.com/fanora/payment-service/internal/domain/port"
)

// verifyHMAC checks a hex-encoded HMAC-SHA256 digest of the payload in
// constant time.
func verifyHMAC(secret string, payload []byte, gotHex string) error {
	if gotHex == "" {
		return port.ErrInvalidSignature
	}
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	want := mac.Sum(nil)

	got, err := hex.DecodeString(gotHex)
	if err != nil {
		return port.ErrInvalidSignature
	}
	if !hmac.Equal(want, got) {
		return port.ErrInvalidSignature
	}
	return nil
}

// verifyBearer compares a shared webhook token in constant time.
func verifyBearer(token, authHeader string) error {
	got := strings.TrimPrefix(authHeader, "Bearer ")
	if got == "" {
		return port.ErrInvalidSignature
	}
	if subtle.ConstantTimeCompare([]byte(token), []byte(got)) != 1 {
		return port.ErrInvalidSignature
	}
	return nil
}

// signHMAC produces the hex digest our outbound requests carry.
func signHMAC(secret string, payload []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}
