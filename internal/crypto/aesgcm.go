// Package crypto seals evidence payloads with AES-256-GCM under a freshly
// generated per-upload key.
package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
)

const (
	KeySize   = 32
	NonceSize = 12
	TagSize   = 16
)

var ErrDecryptionFailed = errors.New("decryption failed")

// Envelope carries ciphertext together with the nonce and authentication tag
// produced by the cipher. Ciphertext excludes the tag; Seal splits the GCM
// output so the wire format can carry the three parts separately.
type Envelope struct {
	Ciphertext []byte
	Nonce      []byte
	Tag        []byte
}

// GenerateKey returns a fresh random 256-bit key, hex encoded.
func GenerateKey() (string, error) {
	key := make([]byte, KeySize)
	if _, err := rand.Read(key); err != nil {
		return "", fmt.Errorf("generate key: %w", err)
	}
	return hex.EncodeToString(key), nil
}

// Seal encrypts plaintext under the hex-encoded key with a random nonce.
func Seal(hexKey string, plaintext []byte) (Envelope, error) {
	aead, err := newAEAD(hexKey)
	if err != nil {
		return Envelope{}, err
	}

	nonce := make([]byte, NonceSize)
	if _, err := rand.Read(nonce); err != nil {
		return Envelope{}, fmt.Errorf("generate nonce: %w", err)
	}

	sealed := aead.Seal(nil, nonce, plaintext, nil)
	split := len(sealed) - TagSize
	return Envelope{
		Ciphertext: sealed[:split],
		Nonce:      nonce,
		Tag:        sealed[split:],
	}, nil
}

// Open decrypts an envelope. A wrong key, a flipped ciphertext bit or a
// mangled tag fails authentication instead of returning corrupt plaintext.
func Open(hexKey string, env Envelope) ([]byte, error) {
	aead, err := newAEAD(hexKey)
	if err != nil {
		return nil, err
	}
	if len(env.Nonce) != NonceSize {
		return nil, fmt.Errorf("invalid nonce length %d", len(env.Nonce))
	}

	sealed := make([]byte, 0, len(env.Ciphertext)+len(env.Tag))
	sealed = append(sealed, env.Ciphertext...)
	sealed = append(sealed, env.Tag...)

	plaintext, err := aead.Open(nil, env.Nonce, sealed, nil)
	if err != nil {
		return nil, ErrDecryptionFailed
	}
	return plaintext, nil
}

func newAEAD(hexKey string) (cipher.AEAD, error) {
	key, err := hex.DecodeString(hexKey)
	if err != nil {
		return nil, fmt.Errorf("decode key: %w", err)
	}
	if len(key) != KeySize {
		return nil, fmt.Errorf("key must be %d bytes, got %d", KeySize, len(key))
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}
