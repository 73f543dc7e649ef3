package usecases

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sign(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return "sha256=" + hex.EncodeToString(mac.Sum(nil))
}

func TestVerifySignatureAcceptsValidDigest(t *testing.T) {
	body := []byte(`{"entry":[]}`)
	assert.NoError(t, VerifySignature("s3cret", body, sign("s3cret", body)))
}

func TestVerifySignatureRejectsBodyMutation(t *testing.T) {
	body := []byte(`{"entry":[]}`)
	header := sign("s3cret", body)

	// flip one bit of the body
	tampered := make([]byte, len(body))
	copy(tampered, body)
	tampered[0] ^= 0x01

	err := VerifySignature("s3cret", tampered, header)
	assert.ErrorIs(t, err, ErrInvalidSignature)
}

func TestVerifySignatureRejectsHeaderMutation(t *testing.T) {
	body := []byte(`{"entry":[]}`)
	header := []byte(sign("s3cret", body))
	header[len(header)-1] ^= 0x01

	err := VerifySignature("s3cret", body, string(header))
	assert.ErrorIs(t, err, ErrInvalidSignature)
}

func TestVerifySignatureRejectsWrongSecret(t *testing.T) {
	body := []byte(`{"entry":[]}`)
	err := VerifySignature("other", body, sign("s3cret", body))
	assert.ErrorIs(t, err, ErrInvalidSignature)
}

func TestVerifySignatureRejectsMissingHeader(t *testing.T) {
	err := VerifySignature("s3cret", []byte("body"), "")
	require.ErrorIs(t, err, ErrInvalidSignature)
}

func TestVerifySignatureRejectsHeaderWithoutEquals(t *testing.T) {
	err := VerifySignature("s3cret", []byte("body"), "sha256deadbeef")
	require.ErrorIs(t, err, ErrInvalidSignature)
}
