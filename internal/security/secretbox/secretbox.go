// Package secretbox provides authenticated encryption for small opaque
// blobs that travel through untrusted parties (the OAuth state parameter).
//
// Every Protector derives its own AES-256 key from the application master
// secret plus a versioned purpose string via HKDF-SHA256, so blobs sealed
// for one purpose can never be opened under another (e.g. state tokens for
// two provider integrations are mutually unreadable).
package secretbox

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/hkdf"
)

const (
	nonceSizeGCM      = 12 // 96-bit nonce per AES-GCM recommendation
	requiredKeyLength = 32 // 32 bytes => AES-256
)

// ErrOpen is returned for any blob that is malformed, truncated or fails
// authentication. Callers must treat it as "no data" and not distinguish.
var ErrOpen = errors.New("secretbox: cannot open blob")

// Protector seals and opens blobs under a purpose-bound key.
// Safe for concurrent use after construction.
type Protector struct {
	aead cipher.AEAD
}

// NewProtector derives a key for the given purpose from the master secret.
// The master secret must be exactly 32 bytes. The purpose string is part of
// the data contract: changing it invalidates all previously sealed blobs.
func NewProtector(master []byte, purpose string) (*Protector, error) {
	if len(master) != requiredKeyLength {
		return nil, fmt.Errorf("secretbox: master secret must be %d bytes, got %d", requiredKeyLength, len(master))
	}
	if purpose == "" {
		return nil, errors.New("secretbox: purpose must not be empty")
	}

	key := make([]byte, requiredKeyLength)
	kdf := hkdf.New(sha256.New, master, nil, []byte(purpose))
	if _, err := io.ReadFull(kdf, key); err != nil {
		return nil, fmt.Errorf("secretbox: derive key: %w", err)
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("secretbox: aes.NewCipher: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("secretbox: cipher.NewGCM: %w", err)
	}
	return &Protector{aead: aead}, nil
}

// Seal encrypts plaintext and returns base64url(nonce || ciphertext).
// The output is URL-safe and unpadded, suitable for a query parameter.
func (p *Protector) Seal(plaintext []byte) (string, error) {
	nonce := make([]byte, nonceSizeGCM)
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("secretbox: nonce random: %w", err)
	}
	out := p.aead.Seal(nonce, nonce, plaintext, nil)
	return base64.RawURLEncoding.EncodeToString(out), nil
}

// Open decodes and decrypts a blob produced by Seal.
// Any failure, including a single flipped byte, yields ErrOpen.
func (p *Protector) Open(blob string) ([]byte, error) {
	raw, err := base64.RawURLEncoding.DecodeString(blob)
	if err != nil {
		return nil, ErrOpen
	}
	if len(raw) < nonceSizeGCM+p.aead.Overhead() {
		return nil, ErrOpen
	}
	nonce, ct := raw[:nonceSizeGCM], raw[nonceSizeGCM:]
	pt, err := p.aead.Open(nil, nonce, ct, nil)
	if err != nil {
		return nil, ErrOpen
	}
	return pt, nil
}
