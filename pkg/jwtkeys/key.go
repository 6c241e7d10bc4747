// Package jwtkeys implements the admin-module's JWT signing key lifecycle:
// hot-reload of a verifier's public key file from disk (private keys are
// not reloaded from disk), and scheduled rotation
// coordinated across replicas with a Redis distributed lock. It satisfies
// unifiedjwt.KeyProvider so the same manager can sign and verify tokens.
package jwtkeys

import (
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"
	"time"
)

// DefaultValidity is the lifetime of a newly minted key, including overlap
// with the previous key so in-flight tokens keep verifying.
const DefaultValidity = 24*time.Hour + 1*time.Hour

// RotationValidity is the validity assigned to a key created by scheduled
// rotation; it equals DefaultValidity (24h plus 1h overlap).
const RotationValidity = 25 * time.Hour

// MaxActiveKeys bounds how many keys may be active simultaneously.
const MaxActiveKeys = 2

// Key is the persisted shape of a JWT signing key, as the admin-module's
// store records it.
type Key struct {
	Version       string // UUID string, also used as the JWT "kid" header
	PublicKeyPEM  string
	PrivateKeyPEM string
	CreatedAt     time.Time
	ExpiresAt     time.Time
	IsActive      bool
	RotationCount int
}

// ErrInvalidPEM is returned when key material does not begin with a valid
// PEM header.
var ErrInvalidPEM = errors.New("jwtkeys: key material is not valid PEM")

// looksLikePEM performs the cheap validity check the hot-reload watcher
// runs before swapping in new key material: it must start with the PEM
// armor so a half-written file from an in-progress key rotation tool is
// never adopted.
func looksLikePEM(data []byte) bool {
	const marker = "-----BEGIN"
	if len(data) < len(marker) {
		return false
	}
	return string(data[:len(marker)]) == marker
}

// parsePrivateKey decodes a PEM-encoded PKCS#1 or PKCS#8 RSA private key.
func parsePrivateKey(pemBytes []byte) (*rsa.PrivateKey, error) {
	if !looksLikePEM(pemBytes) {
		return nil, ErrInvalidPEM
	}
	block, _ := pem.Decode(pemBytes)
	if block == nil {
		return nil, ErrInvalidPEM
	}

	if key, err := x509.ParsePKCS1PrivateKey(block.Bytes); err == nil {
		return key, nil
	}

	key, err := x509.ParsePKCS8PrivateKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("parse private key: %w", err)
	}
	rsaKey, ok := key.(*rsa.PrivateKey)
	if !ok {
		return nil, errors.New("jwtkeys: key is not RSA")
	}
	return rsaKey, nil
}

// parsePublicKey decodes a PEM-encoded PKIX RSA public key.
func parsePublicKey(pemBytes []byte) (*rsa.PublicKey, error) {
	if !looksLikePEM(pemBytes) {
		return nil, ErrInvalidPEM
	}
	block, _ := pem.Decode(pemBytes)
	if block == nil {
		return nil, ErrInvalidPEM
	}

	key, err := x509.ParsePKIXPublicKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("parse public key: %w", err)
	}
	rsaKey, ok := key.(*rsa.PublicKey)
	if !ok {
		return nil, errors.New("jwtkeys: key is not RSA")
	}
	return rsaKey, nil
}
