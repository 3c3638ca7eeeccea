package auth

import (
	"net/http"
	"strings"
	"unicode"
)

// Credentials authenticate requests to the speech gateway. A static API key
// takes precedence; otherwise a token is minted per request from JWT.
type Credentials struct {
	APIKey  string
	JWT     JWTConfig
	Subject string
}

// Configured reports whether the credentials can authorize a request.
func (c Credentials) Configured() bool {
	return c.APIKey != "" || c.JWT.Usable()
}

// Authorize sets the Authorization header on req. The voice is embedded in
// minted tokens and ignored for API keys.
func (c Credentials) Authorize(req *http.Request, voice string) error {
	if c.APIKey != "" {
		if err := ValidateAPIKey(c.APIKey); err != nil {
			return err
		}
		req.Header.Set("Authorization", "Bearer "+c.APIKey)
		return nil
	}
	if !c.JWT.Usable() {
		return ErrNoCredentials
	}

	subject := c.Subject
	if subject == "" {
		subject = "scrumsim"
	}
	token, err := MintSpeechToken(c.JWT, subject, voice)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	return nil
}

// ValidateAPIKey rejects keys that are too short or contain whitespace.
func ValidateAPIKey(key string) error {
	if len(key) < 8 {
		return ErrInvalidAPIKey
	}
	if strings.IndexFunc(key, unicode.IsSpace) >= 0 {
		return ErrInvalidAPIKey
	}
	return nil
}

// Redact returns a display form of a secret: a short prefix and its
// fingerprint.
func Redact(secret string) string {
	if secret == "" {
		return "(unset)"
	}
	prefix := secret
	if len(prefix) > 4 {
		prefix = prefix[:4]
	}
	return prefix + "... (" + Fingerprint(secret) + ")"
}
