package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	nanoid "github.com/matoous/go-nanoid/v2"
)

// DefaultTokenTTL bounds the lifetime of a minted speech token. One token
// covers a single synthesis request.
const DefaultTokenTTL = 2 * time.Minute

// MinSecretLength is the shortest accepted HMAC signing secret.
const MinSecretLength = 32

// JWTConfig configures speech token signing.
type JWTConfig struct {
	// Secret is the HMAC signing key shared with the gateway.
	Secret []byte

	// Issuer identifies this installation to the gateway.
	Issuer string

	// TTL defaults to DefaultTokenTTL.
	TTL time.Duration
}

func (c JWTConfig) ttl() time.Duration {
	if c.TTL <= 0 {
		return DefaultTokenTTL
	}
	return c.TTL
}

// Usable reports whether the config can sign tokens.
func (c JWTConfig) Usable() bool {
	return len(c.Secret) >= MinSecretLength
}

// SpeechClaims are the claims carried by a speech token. Voice scopes the
// token to the participant voice being synthesized.
type SpeechClaims struct {
	jwt.RegisteredClaims
	Voice string `json:"voice,omitempty"`
}

// MintSpeechToken signs a short-lived token for one synthesis request.
func MintSpeechToken(cfg JWTConfig, subject, voice string) (string, error) {
	if !cfg.Usable() {
		return "", ErrSecretTooShort
	}

	tokenID, err := nanoid.New()
	if err != nil {
		return "", fmt.Errorf("generate token ID: %w", err)
	}

	now := time.Now()
	claims := SpeechClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    cfg.Issuer,
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(cfg.ttl())),
			ID:        tokenID,
		},
		Voice: voice,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(cfg.Secret)
}

// ParseSpeechToken validates a token minted by MintSpeechToken.
func ParseSpeechToken(cfg JWTConfig, tokenString string) (*SpeechClaims, error) {
	claims := &SpeechClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return cfg.Secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrInvalidToken
	}
	if !token.Valid {
		return nil, ErrInvalidToken
	}

	if cfg.Issuer != "" {
		issuer, err := token.Claims.GetIssuer()
		if err != nil || issuer != cfg.Issuer {
			return nil, ErrInvalidToken
		}
	}

	return claims, nil
}
