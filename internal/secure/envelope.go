// Package secure seals template payloads for transport. The wire shape is
// a JSON envelope of base64 fields; the key is derived from a shared
// passphrase with PBKDF2 and the payload sealed with AES-256-GCM, the GCM
// nonce doubling as the envelope IV.
package secure

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"

	"golang.org/x/crypto/pbkdf2"
)

const (
	saltSize   = 16
	keySize    = 32
	iterations = 10000
)

// ErrDecrypt covers every way an envelope can fail to open: bad base64,
// wrong passphrase, truncated or tampered ciphertext. Callers get one
// sentinel so responses never leak which check failed.
var ErrDecrypt = errors.New("secure: cannot decrypt envelope")

// Envelope is the transport form of a sealed payload.
type Envelope struct {
	IV   string `json:"iv"`
	Salt string `json:"salt"`
	Data string `json:"data"`
}

// Seal encrypts plaintext under the passphrase with a fresh salt and nonce.
func Seal(plaintext []byte, passphrase string) (Envelope, error) {
	salt := make([]byte, saltSize)
	if _, err := rand.Read(salt); err != nil {
		return Envelope{}, fmt.Errorf("generate salt: %w", err)
	}

	gcm, err := newGCM(passphrase, salt)
	if err != nil {
		return Envelope{}, err
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return Envelope{}, fmt.Errorf("generate nonce: %w", err)
	}

	sealed := gcm.Seal(nil, nonce, plaintext, nil)
	return Envelope{
		IV:   base64.StdEncoding.EncodeToString(nonce),
		Salt: base64.StdEncoding.EncodeToString(salt),
		Data: base64.StdEncoding.EncodeToString(sealed),
	}, nil
}

// Open decrypts an envelope sealed under the same passphrase.
func Open(env Envelope, passphrase string) ([]byte, error) {
	nonce, err := base64.StdEncoding.DecodeString(env.IV)
	if err != nil {
		return nil, ErrDecrypt
	}
	salt, err := base64.StdEncoding.DecodeString(env.Salt)
	if err != nil {
		return nil, ErrDecrypt
	}
	sealed, err := base64.StdEncoding.DecodeString(env.Data)
	if err != nil {
		return nil, ErrDecrypt
	}

	gcm, err := newGCM(passphrase, salt)
	if err != nil {
		return nil, err
	}
	if len(nonce) != gcm.NonceSize() {
		return nil, ErrDecrypt
	}

	plaintext, err := gcm.Open(nil, nonce, sealed, nil)
	if err != nil {
		return nil, ErrDecrypt
	}
	return plaintext, nil
}

func newGCM(passphrase string, salt []byte) (cipher.AEAD, error) {
	key := pbkdf2.Key([]byte(passphrase), salt, iterations, keySize, sha256.New)
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("derive cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("derive gcm: %w", err)
	}
	return gcm, nil
}
