package infrastructure

import (
	"errors"
	"fmt"

	"github.com/fernet/fernet-go"
)

// ErrDecrypt is returned for any undecryptable value: wrong key, corrupted
// ciphertext, or a value that was never encrypted.
var ErrDecrypt = errors.New("secretbox: cannot decrypt value")

// SecretBox encrypts and decrypts tenant credential fields with a Fernet key.
// Tokens are interchangeable with the ones the provisioning scripts produce.
type SecretBox struct {
	keys []*fernet.Key
}

func NewSecretBox(key string) (*SecretBox, error) {
	k, err := fernet.DecodeKey(key)
	if err != nil {
		return nil, fmt.Errorf("invalid fernet key: %w", err)
	}
	return &SecretBox{keys: []*fernet.Key{k}}, nil
}

func (s *SecretBox) Encrypt(plaintext string) (string, error) {
	tok, err := fernet.EncryptAndSign([]byte(plaintext), s.keys[0])
	if err != nil {
		return "", fmt.Errorf("encrypt value: %w", err)
	}
	return string(tok), nil
}

// Decrypt verifies and decrypts a stored token. TTL is zero: credentials do
// not expire.
func (s *SecretBox) Decrypt(ciphertext string) (string, error) {
	msg := fernet.VerifyAndDecrypt([]byte(ciphertext), 0, s.keys)
	if msg == nil {
		return "", ErrDecrypt
	}
	return string(msg), nil
}
