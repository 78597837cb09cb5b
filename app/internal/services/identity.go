package services

import (
	"context"
	"crypto/ecdsa"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"pagefun/shared/logger"

	"github.com/golang-jwt/jwt/v5"
)

// IdentityCookieName is the session cookie carrying the identity token when
// no Authorization header is present.
const IdentityCookieName = "pagefun-id-token"

// LinkedAccount is one account attached to a verified identity. The
// provider distinguishes variants by Type; wallets carry ChainType and
// Address, email accounts carry Address only, social accounts carry
// Provider and Subject.
type LinkedAccount struct {
	Type      string `json:"type"`
	ChainType string `json:"chain_type,omitempty"`
	Address   string `json:"address,omitempty"`
	Provider  string `json:"provider,omitempty"`
	Subject   string `json:"subject,omitempty"`
}

// IdentityClaims is the verified claim set resolved from a session token.
// Ephemeral, never persisted.
type IdentityClaims struct {
	UserID         string
	LinkedAccounts []LinkedAccount
}

// IdentityResolver verifies an opaque session token into claims.
type IdentityResolver interface {
	Resolve(ctx context.Context, token string) (*IdentityClaims, error)
}

// IdentityVerifier is a thin wrapper over the identity provider's signed
// identity token: ES256, issuer "privy.io", audience = app ID. The
// linked_accounts claim is a JSON-encoded array.
type IdentityVerifier struct {
	appID     string
	publicKey *ecdsa.PublicKey
	appLogger *logger.Logger
}

type identityTokenClaims struct {
	jwt.RegisteredClaims
	LinkedAccounts string `json:"linked_accounts"`
}

func NewIdentityVerifier(appID, verificationKeyPEM string, appLogger *logger.Logger) (*IdentityVerifier, error) {
	if appID == "" {
		return nil, fmt.Errorf("identity app ID not configured")
	}
	if verificationKeyPEM == "" {
		return nil, fmt.Errorf("identity verification key not configured")
	}
	// Keys pasted into env files often arrive with escaped newlines.
	verificationKeyPEM = strings.ReplaceAll(verificationKeyPEM, `\n`, "\n")
	publicKey, err := jwt.ParseECPublicKeyFromPEM([]byte(verificationKeyPEM))
	if err != nil {
		return nil, fmt.Errorf("failed to parse identity verification key: %w", err)
	}
	appLogger.Info("Identity verifier initialized", "appID", appID)
	return &IdentityVerifier{appID: appID, publicKey: publicKey, appLogger: appLogger}, nil
}

// Resolve verifies the token and returns its claims, or ErrUnauthenticated
// when the token is missing, malformed, expired, or rejected.
func (v *IdentityVerifier) Resolve(ctx context.Context, token string) (*IdentityClaims, error) {
	if token == "" {
		return nil, ErrUnauthenticated
	}

	claims := &identityTokenClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		return v.publicKey, nil
	},
		jwt.WithValidMethods([]string{"ES256"}),
		jwt.WithIssuer("privy.io"),
		jwt.WithAudience(v.appID),
	)
	if err != nil || !parsed.Valid {
		v.appLogger.Debug("Identity token rejected", "error", err)
		return nil, ErrUnauthenticated
	}

	var accounts []LinkedAccount
	if claims.LinkedAccounts != "" {
		if err := json.Unmarshal([]byte(claims.LinkedAccounts), &accounts); err != nil {
			v.appLogger.Warn("Identity token has malformed linked_accounts claim", "error", err)
			return nil, ErrUnauthenticated
		}
	}

	return &IdentityClaims{
		UserID:         claims.Subject,
		LinkedAccounts: accounts,
	}, nil
}

// TokenFromRequest extracts the identity token from the Authorization
// header, falling back to the session cookie. Empty when neither is set.
func TokenFromRequest(r *http.Request) string {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if strings.HasPrefix(strings.ToLower(header), "bearer ") {
		return strings.TrimSpace(header[len("Bearer "):])
	}
	if cookie, err := r.Cookie(IdentityCookieName); err == nil {
		return cookie.Value
	}
	return ""
}
