// Package auth provides credentials for the commercial speech gateway.
//
// The gateway accepts either a static API key or a short-lived HS256 token
// signed with a shared secret:
//
//	creds := auth.Credentials{
//	    JWT: auth.JWTConfig{
//	        Secret: []byte(os.Getenv("SCRUMSIM_SPEECH_SECRET")),
//	        Issuer: "scrumsim",
//	    },
//	}
//	if err := creds.Authorize(req, "en-US-sarah"); err != nil {
//	    return err
//	}
//
// Secrets never appear in logs; use Redact or Fingerprint for diagnostics.
package auth
