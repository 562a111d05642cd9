package security

import (
	"crypto/ecdsa"
	"crypto/rand"
	"crypto/rsa"
	"encoding/hex"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Codec-level verification failures. Services collapse these into a single
// category before they cross the caller boundary.
var (
	// ErrSignatureInvalid is returned when the signature does not verify against our key.
	ErrSignatureInvalid = errors.New("token signature invalid")
	// ErrTokenExpired is returned when the token is past its expiry.
	ErrTokenExpired = errors.New("token expired")
	// ErrMalformedToken is returned when the token cannot be decoded at all.
	ErrMalformedToken = errors.New("malformed token")
)

// AccessClaims holds JWT claims for the access assertion.
type AccessClaims struct {
	jwt.RegisteredClaims
	TenantID string `json:"tenant_id"`
}

// RefreshClaims holds JWT claims for the refresh token (jti binds the token to its stored row).
type RefreshClaims struct {
	jwt.RegisteredClaims
	TenantID string `json:"tenant_id"`
}

// TokenProvider mints and verifies JWT access assertions and refresh tokens
// using RS256 or ES256. Access and refresh use independent key pairs; both are
// injected once at construction and never mutated.
type TokenProvider struct {
	accessKeys  KeyPair
	refreshKeys KeyPair
	issuer      string
	audience    string
	accessTTL   time.Duration
	refreshTTL  time.Duration
}

// NewTokenProvider returns a TokenProvider signing access tokens with accessKeys
// and refresh tokens with refreshKeys. issuer and audience are set on claims and
// validated on verify.
func NewTokenProvider(accessKeys, refreshKeys KeyPair, issuer, audience string, accessTTL, refreshTTL time.Duration) *TokenProvider {
	return &TokenProvider{
		accessKeys:  accessKeys,
		refreshKeys: refreshKeys,
		issuer:      issuer,
		audience:    audience,
		accessTTL:   accessTTL,
		refreshTTL:  refreshTTL,
	}
}

// AccessTTL returns the configured access assertion lifetime.
func (p *TokenProvider) AccessTTL() time.Duration { return p.accessTTL }

// RefreshTTL returns the configured refresh token lifetime.
func (p *TokenProvider) RefreshTTL() time.Duration { return p.refreshTTL }

// MintAccess mints a short-lived access assertion for the given user and tenant.
// Returns the token string and its expiration time.
func (p *TokenProvider) MintAccess(userID, tenantID string) (token string, expiresAt time.Time, err error) {
	now := time.Now().UTC()
	expiresAt = now.Add(p.accessTTL)
	claims := AccessClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			Issuer:    p.issuer,
			Audience:  jwt.ClaimStrings{p.audience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
		TenantID: tenantID,
	}
	token, err = sign(p.accessKeys, claims)
	return token, expiresAt, err
}

// MintRefresh mints a long-lived refresh token and returns the token, its jti,
// and expiration time. The caller stores the token's digest keyed row with the jti.
func (p *TokenProvider) MintRefresh(userID, tenantID string) (token, jti string, expiresAt time.Time, err error) {
	jti, err = generateJTI()
	if err != nil {
		return "", "", time.Time{}, err
	}
	now := time.Now().UTC()
	expiresAt = now.Add(p.refreshTTL)
	claims := RefreshClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        jti,
			Subject:   userID,
			Issuer:    p.issuer,
			Audience:  jwt.ClaimStrings{p.audience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
		TenantID: tenantID,
	}
	token, err = sign(p.refreshKeys, claims)
	return token, jti, expiresAt, err
}

// VerifyAccess parses and verifies the access assertion (signature, exp, iss, aud).
// Returns the subject user id, tenant id, and issue time.
func (p *TokenProvider) VerifyAccess(tokenString string) (userID, tenantID string, issuedAt time.Time, err error) {
	claims := &AccessClaims{}
	if err := p.parse(tokenString, p.accessKeys, claims); err != nil {
		return "", "", time.Time{}, err
	}
	issued := time.Time{}
	if claims.IssuedAt != nil {
		issued = claims.IssuedAt.Time
	}
	return claims.Subject, claims.TenantID, issued, nil
}

// VerifyRefresh parses and verifies the refresh token (signature, exp, iss, aud).
// Returns the subject user id, tenant id, and jti.
func (p *TokenProvider) VerifyRefresh(tokenString string) (userID, tenantID, jti string, err error) {
	claims := &RefreshClaims{}
	if err := p.parse(tokenString, p.refreshKeys, claims); err != nil {
		return "", "", "", err
	}
	return claims.Subject, claims.TenantID, claims.ID, nil
}

func (p *TokenProvider) parse(tokenString string, keys KeyPair, claims jwt.Claims) error {
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodRSA); ok {
			return keys.Public, nil
		}
		if _, ok := token.Method.(*jwt.SigningMethodECDSA); ok {
			return keys.Public, nil
		}
		return nil, ErrSignatureInvalid
	},
		jwt.WithIssuer(p.issuer),
		jwt.WithAudience(p.audience),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return classifyJWTError(err)
	}
	if !token.Valid {
		return ErrSignatureInvalid
	}
	return nil
}

func classifyJWTError(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenMalformed):
		return ErrMalformedToken
	case errors.Is(err, jwt.ErrTokenExpired):
		return ErrTokenExpired
	default:
		return ErrSignatureInvalid
	}
}

func sign(keys KeyPair, claims jwt.Claims) (string, error) {
	var method jwt.SigningMethod
	switch keys.Private.Public().(type) {
	case *rsa.PublicKey:
		method = jwt.SigningMethodRS256
	case *ecdsa.PublicKey:
		method = jwt.SigningMethodES256
	default:
		return "", ErrSignatureInvalid
	}
	t := jwt.NewWithClaims(method, claims)
	return t.SignedString(keys.Private)
}

func generateJTI() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
