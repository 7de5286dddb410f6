package auth

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v4"
)

const defaultServiceTokenLeeway = 30 * time.Second

var (
	// ErrServiceTokenInvalid signals a malformed or badly signed service token.
	ErrServiceTokenInvalid = errors.New("auth: service token invalid")
	// ErrServiceTokenExpired signals an expired service token.
	ErrServiceTokenExpired = errors.New("auth: service token expired")
)

// ServiceTokenConfig controls HS256 service token verification for
// machine-to-machine routes.
type ServiceTokenConfig struct {
	// Secret is the shared HS256 signing key.
	Secret []byte
	// Audience, when set, must match the token aud claim.
	Audience string
	// Issuer, when set, must match the token iss claim.
	Issuer string
	// Leeway tolerates clock skew on time-based claims.
	Leeway time.Duration
}

// ServiceTokenVerifier validates HS256 bearer tokens minted for internal
// callers such as schedulers and queue workers.
type ServiceTokenVerifier struct {
	secret   []byte
	audience string
	issuer   string
	parser   *jwt.Parser
}

// NewServiceTokenVerifier builds a verifier from the shared-secret config.
func NewServiceTokenVerifier(cfg ServiceTokenConfig) (*ServiceTokenVerifier, error) {
	if len(cfg.Secret) == 0 {
		return nil, errors.New("auth: service token secret is required")
	}
	leeway := cfg.Leeway
	if leeway <= 0 {
		leeway = defaultServiceTokenLeeway
	}

	parserOpts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithLeeway(leeway),
	}
	if aud := strings.TrimSpace(cfg.Audience); aud != "" {
		parserOpts = append(parserOpts, jwt.WithAudience(aud))
	}
	if iss := strings.TrimSpace(cfg.Issuer); iss != "" {
		parserOpts = append(parserOpts, jwt.WithIssuer(iss))
	}

	return &ServiceTokenVerifier{
		secret:   cfg.Secret,
		audience: strings.TrimSpace(cfg.Audience),
		issuer:   strings.TrimSpace(cfg.Issuer),
		parser:   jwt.NewParser(parserOpts...),
	}, nil
}

// Verify parses and validates a raw token, returning its subject claim.
func (v *ServiceTokenVerifier) Verify(raw string) (string, error) {
	if v == nil {
		return "", ErrServiceTokenInvalid
	}
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", fmt.Errorf("%w: empty token", ErrServiceTokenInvalid)
	}

	claims := &jwt.RegisteredClaims{}
	_, err := v.parser.ParseWithClaims(raw, claims, func(token *jwt.Token) (interface{}, error) {
		return v.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", fmt.Errorf("%w: %v", ErrServiceTokenExpired, err)
		}
		return "", fmt.Errorf("%w: %v", ErrServiceTokenInvalid, err)
	}

	return claims.Subject, nil
}

// RequireServiceToken guards internal routes with bearer HS256 tokens. The
// verified subject is exposed to handlers via an Identity carrying the
// internal role.
func RequireServiceToken(verifier *ServiceTokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw, ok := bearerToken(r)
			if !ok {
				writeAuthError(w, http.StatusUnauthorized, "unauthenticated", "authorization header missing or invalid")
				return
			}
			if verifier == nil {
				writeAuthError(w, http.StatusUnauthorized, "unauthenticated", "authorization service unavailable")
				return
			}

			subject, err := verifier.Verify(raw)
			if err != nil {
				if errors.Is(err, ErrServiceTokenExpired) {
					writeAuthError(w, http.StatusUnauthorized, "token_expired", "service token expired")
					return
				}
				writeAuthError(w, http.StatusUnauthorized, "invalid_token", "service token invalid")
				return
			}

			identity := &Identity{
				UID:   subject,
				Roles: []string{RoleInternal},
			}
			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), identity)))
		})
	}
}
