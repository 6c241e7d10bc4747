package unifiedjwt

import (
	"crypto/rsa"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// KeyProvider is implemented by the JWT key lifecycle manager (pkg/jwtkeys).
// It decouples signing/verification from key rotation and hot-reload.
type KeyProvider interface {
	// SigningKey returns the currently active private key and its version,
	// used as the token's "kid" header so verifiers can pick the right
	// public key even while two versions overlap during rotation.
	SigningKey() (version string, key *rsa.PrivateKey, err error)

	// PublicKey returns the public key for a given version ("kid"). It must
	// succeed for any version still within its overlap window.
	PublicKey(version string) (*rsa.PublicKey, error)
}

// Config holds configuration for token generation and lifetimes.
type Config struct {
	// Issuer is the token issuer claim. Default: "artstore".
	Issuer string

	// AccessTokenDuration is the lifetime of access tokens. Default: 15 minutes.
	AccessTokenDuration time.Duration

	// RefreshTokenDuration is the lifetime of refresh tokens. Default: 7 days.
	RefreshTokenDuration time.Duration
}

// Service issues and validates UnifiedJWT tokens signed with RS256.
type Service struct {
	config Config
	keys   KeyProvider
}

// TokenPair contains both access and refresh tokens for a subject.
type TokenPair struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	TokenType    string    `json:"token_type"`
	ExpiresIn    int64     `json:"expires_in"`
	ExpiresAt    time.Time `json:"expires_at"`
}

// Subject describes the principal a token is minted for.
type Subject struct {
	ID        string // sub claim: admin user ID or service-account client ID
	Type      SubjectType
	Role      string
	Name      string
	ClientID  string // set for service accounts
	RateLimit int    // set for service accounts
}

// NewService creates a new UnifiedJWT service backed by the given key
// provider.
func NewService(config Config, keys KeyProvider) *Service {
	if config.Issuer == "" {
		config.Issuer = "artstore"
	}
	if config.AccessTokenDuration == 0 {
		config.AccessTokenDuration = 15 * time.Minute
	}
	if config.RefreshTokenDuration == 0 {
		config.RefreshTokenDuration = 7 * 24 * time.Hour
	}
	return &Service{config: config, keys: keys}
}

// GenerateTokenPair mints an access/refresh token pair for the subject.
func (s *Service) GenerateTokenPair(subject Subject) (*TokenPair, error) {
	now := time.Now()
	accessExpiry := now.Add(s.config.AccessTokenDuration)
	refreshExpiry := now.Add(s.config.RefreshTokenDuration)

	accessToken, err := s.generateToken(subject, now, accessExpiry)
	if err != nil {
		return nil, fmt.Errorf("generate access token: %w", err)
	}
	refreshToken, err := s.generateToken(subject, now, refreshExpiry)
	if err != nil {
		return nil, fmt.Errorf("generate refresh token: %w", err)
	}

	return &TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    "Bearer",
		ExpiresIn:    int64(s.config.AccessTokenDuration.Seconds()),
		ExpiresAt:    accessExpiry,
	}, nil
}

func (s *Service) generateToken(subject Subject, issuedAt, expiresAt time.Time) (string, error) {
	version, privateKey, err := s.keys.SigningKey()
	if err != nil {
		return "", fmt.Errorf("no signing key available: %w", err)
	}

	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.config.Issuer,
			Subject:   subject.ID,
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			NotBefore: jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
		Type:      string(subject.Type),
		Role:      subject.Role,
		Name:      subject.Name,
		ClientID:  subject.ClientID,
		RateLimit: subject.RateLimit,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	token.Header["kid"] = version

	signed, err := token.SignedString(privateKey)
	if err != nil {
		return "", ErrTokenSigningFailed
	}
	return signed, nil
}

// ValidateToken parses and verifies a token's signature and required
// claims. It does not distinguish access vs. refresh tokens; callers that
// care (the OAuth2 refresh flow) check Claims.Type themselves.
func (s *Service) ValidateToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodRSA); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		kid, _ := token.Header["kid"].(string)
		if kid == "" {
			return nil, errors.New("token missing kid header")
		}
		return s.keys.PublicKey(kid)
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	if err := claims.Validate(); err != nil {
		return nil, ErrInvalidToken
	}

	return claims, nil
}
