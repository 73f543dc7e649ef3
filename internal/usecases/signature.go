package usecases

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidSignature covers a missing header, a header without "=", and a
// digest mismatch. The request is rejected with 403 in all three cases.
var ErrInvalidSignature = errors.New("invalid signature")

// VerifySignature checks the X-Hub-Signature-256 header against an
// HMAC-SHA256 of the raw body keyed with the tenant's webhook secret. The
// header format is "sha256=<hexdigest>"; comparison is constant-time.
func VerifySignature(secret string, body []byte, header string) error {
	if header == "" || !strings.Contains(header, "=") {
		return fmt.Errorf("%w: missing or malformed signature header", ErrInvalidSignature)
	}

	provided := header[strings.Index(header, "=")+1:]

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))

	if !hmac.Equal([]byte(expected), []byte(provided)) {
		return fmt.Errorf("%w: digest mismatch", ErrInvalidSignature)
	}
	return nil
}
