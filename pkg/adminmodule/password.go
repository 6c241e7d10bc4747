package adminmodule

import (
	"crypto/rand"
	"encoding/json"
	"errors"
	"math/big"

	"golang.org/x/crypto/bcrypt"
)

// DefaultBcryptCost is 10: higher costs add noticeable per-request
// latency on the login/token endpoints.
const DefaultBcryptCost = 10

var (
	ErrPasswordTooShort = errors.New("password does not meet the minimum length requirement")
	ErrPasswordTooLong  = errors.New("password must be at most 72 characters")
)

// MinAdminPasswordLength and MinSystemSecretLength differentiate the
// policy: admin users need 8+ characters, system/service secrets 12+.
const (
	MinAdminPasswordLength = 8
	MinSystemSecretLength  = 12
	MaxSecretLength        = 72 // bcrypt's input limit
	maxSecretHistory       = 5
)

// HashSecret bcrypt-hashes a password or client secret after validating it
// against minLength.
func HashSecret(secret string, minLength int) (string, error) {
	if err := ValidateSecretLength(secret, minLength); err != nil {
		return "", err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(secret), DefaultBcryptCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// ValidateSecretLength enforces the role-specific length floor and
// bcrypt's hard ceiling.
func ValidateSecretLength(secret string, minLength int) error {
	if len(secret) < minLength {
		return ErrPasswordTooShort
	}
	if len(secret) > MaxSecretLength {
		return ErrPasswordTooLong
	}
	return nil
}

// VerifySecret checks a plaintext secret against a bcrypt hash in
// constant time.
func VerifySecret(secret, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(secret)) == nil
}

// SecretHistory is a bounded, newest-first list of previously used secret
// hashes, used by both AdminUser.PasswordHashHistory and
// ServiceAccount.SecretHashHistory to reject reuse of recent secrets.
type SecretHistory []string

// DecodeSecretHistory parses the JSON-encoded history column. An empty
// string decodes to an empty history.
func DecodeSecretHistory(encoded string) (SecretHistory, error) {
	if encoded == "" {
		return SecretHistory{}, nil
	}
	var history SecretHistory
	if err := json.Unmarshal([]byte(encoded), &history); err != nil {
		return nil, err
	}
	return history, nil
}

// Encode serializes the history for storage.
func (h SecretHistory) Encode() (string, error) {
	encoded, err := json.Marshal(h)
	if err != nil {
		return "", err
	}
	return string(encoded), nil
}

// Contains reports whether plaintext matches any hash in the history,
// via constant-time bcrypt compare against each entry.
func (h SecretHistory) Contains(plaintext string) bool {
	for _, hash := range h {
		if VerifySecret(plaintext, hash) {
			return true
		}
	}
	return false
}

// Push prepends a new hash and truncates to maxSecretHistory entries.
func (h SecretHistory) Push(hash string) SecretHistory {
	next := append(SecretHistory{hash}, h...)
	if len(next) > maxSecretHistory {
		next = next[:maxSecretHistory]
	}
	return next
}

// passwordCharClasses are the character sets the generator guarantees at
// least one occurrence of, in the order it seeds them before shuffling.
var passwordCharClasses = []string{
	"abcdefghijkmnopqrstuvwxyz", // lowercase, excluding visually ambiguous l
	"ABCDEFGHJKLMNPQRSTUVWXYZ",  // uppercase, excluding visually ambiguous I/O
	"23456789",                  // digits, excluding 0/1
	"!@#$%^&*()-_=+",            // symbols
}

const generatedPasswordLength = 20

// GeneratePassword produces a cryptographically random password that is
// guaranteed to contain at least one character from every class in
// passwordCharClasses, then Fisher-Yates shuffled so the guaranteed
// characters aren't predictably placed.
func GeneratePassword() (string, error) {
	alphabet := ""
	for _, class := range passwordCharClasses {
		alphabet += class
	}

	result := make([]byte, generatedPasswordLength)

	// Seed one guaranteed character per class.
	for i, class := range passwordCharClasses {
		c, err := randomByteFrom(class)
		if err != nil {
			return "", err
		}
		result[i] = c
	}

	// Fill the remainder from the full alphabet.
	for i := len(passwordCharClasses); i < generatedPasswordLength; i++ {
		c, err := randomByteFrom(alphabet)
		if err != nil {
			return "", err
		}
		result[i] = c
	}

	// Fisher-Yates shuffle using crypto/rand.
	for i := len(result) - 1; i > 0; i-- {
		j, err := randomIndex(i + 1)
		if err != nil {
			return "", err
		}
		result[i], result[j] = result[j], result[i]
	}

	return string(result), nil
}

func randomByteFrom(set string) (byte, error) {
	idx, err := randomIndex(len(set))
	if err != nil {
		return 0, err
	}
	return set[idx], nil
}

func randomIndex(n int) (int, error) {
	max := big.NewInt(int64(n))
	v, err := rand.Int(rand.Reader, max)
	if err != nil {
		return 0, err
	}
	return int(v.Int64()), nil
}
