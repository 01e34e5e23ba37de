package auth

import (
	"context"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Identity is what the identity provider vouches for.
type Identity struct {
	Subject       string
	Email         string
	EmailVerified bool
	Name          string
	Picture       string
}

type IdentityVerifier interface {
	VerifyIDToken(ctx context.Context, idToken string) (*Identity, error)
}

// IDTokenVerifier checks RS256 ID tokens issued by an OpenID-style provider,
// using either a pinned PEM key or the provider's JWKS document.
type IDTokenVerifier struct {
	issuer          string
	audience        string
	verificationKey string
	jwksURL         string
	httpClient      *http.Client
	cacheTTL        time.Duration
	// minRefetch spaces out JWKS fetches triggered by unknown or stale keys.
	minRefetch time.Duration

	mu          sync.Mutex
	keys        map[string]*rsa.PublicKey
	fetchedAt   time.Time
	lastAttempt time.Time
}

type idTokenClaims struct {
	Email         string `json:"email"`
	EmailVerified bool   `json:"email_verified"`
	Name          string `json:"name"`
	Picture       string `json:"picture"`
	jwt.RegisteredClaims
}

type jwks struct {
	Keys []jwk `json:"keys"`
}

type jwk struct {
	Kty string `json:"kty"`
	Kid string `json:"kid"`
	Use string `json:"use"`
	N   string `json:"n"`
	E   string `json:"e"`
}

func NewIDTokenVerifier(issuer, audience, verificationKey, jwksURL string) *IDTokenVerifier {
	return &IDTokenVerifier{
		issuer:          issuer,
		audience:        audience,
		verificationKey: verificationKey,
		jwksURL:         jwksURL,
		httpClient:      &http.Client{Timeout: 5 * time.Second},
		cacheTTL:        time.Hour,
		minRefetch:      30 * time.Second,
		keys:            map[string]*rsa.PublicKey{},
	}
}

func (v *IDTokenVerifier) VerifyIDToken(ctx context.Context, idToken string) (*Identity, error) {
	if strings.TrimSpace(idToken) == "" {
		return nil, errors.New("missing id token")
	}

	claims := &idTokenClaims{}
	token, err := jwt.ParseWithClaims(idToken, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodRSA); !ok {
			return nil, errors.New("unexpected signing method")
		}

		if strings.TrimSpace(v.verificationKey) != "" {
			return jwt.ParseRSAPublicKeyFromPEM([]byte(v.verificationKey))
		}
		if strings.TrimSpace(v.jwksURL) == "" {
			return nil, errors.New("no identity verification key configured")
		}
		return v.keyFromJWKS(ctx, token)
	})
	if err != nil || !token.Valid {
		return nil, fmt.Errorf("invalid id token: %w", err)
	}

	if strings.TrimSpace(claims.Subject) == "" {
		return nil, errors.New("missing subject claim")
	}
	if strings.TrimSpace(v.issuer) != "" && claims.Issuer != v.issuer {
		return nil, errors.New("invalid issuer")
	}
	if strings.TrimSpace(v.audience) != "" {
		ok := false
		for _, aud := range claims.Audience {
			if aud == v.audience {
				ok = true
				break
			}
		}
		if !ok {
			return nil, errors.New("invalid audience")
		}
	}

	return &Identity{
		Subject:       claims.Subject,
		Email:         claims.Email,
		EmailVerified: claims.EmailVerified,
		Name:          claims.Name,
		Picture:       claims.Picture,
	}, nil
}

func (v *IDTokenVerifier) keyFromJWKS(ctx context.Context, token *jwt.Token) (*rsa.PublicKey, error) {
	kidRaw, ok := token.Header["kid"]
	if !ok {
		return nil, errors.New("missing kid")
	}
	kid, ok := kidRaw.(string)
	if !ok || kid == "" {
		return nil, errors.New("invalid kid")
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	// Providers rotate keys, so an unknown kid forces a refetch, at most once
	// per minRefetch.
	key, found := v.keys[kid]
	if found && time.Since(v.fetchedAt) < v.cacheTTL {
		return key, nil
	}
	if time.Since(v.lastAttempt) < v.minRefetch {
		if found {
			return key, nil
		}
		return nil, errors.New("signing key not found")
	}
	v.lastAttempt = time.Now()
	if err := v.refreshKeys(ctx); err != nil {
		return nil, err
	}
	if key, found := v.keys[kid]; found {
		return key, nil
	}
	return nil, errors.New("signing key not found")
}

func (v *IDTokenVerifier) refreshKeys(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, v.jwksURL, nil)
	if err != nil {
		return err
	}
	resp, err := v.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("jwks fetch failed: %d", resp.StatusCode)
	}

	var set jwks
	if err := json.NewDecoder(resp.Body).Decode(&set); err != nil {
		return err
	}

	keys := make(map[string]*rsa.PublicKey, len(set.Keys))
	for _, key := range set.Keys {
		if key.Kty != "RSA" || key.Kid == "" {
			continue
		}
		pub, err := buildRSAPublicKey(key.N, key.E)
		if err != nil {
			continue
		}
		keys[key.Kid] = pub
	}
	v.keys = keys
	v.fetchedAt = time.Now()
	return nil
}

func buildRSAPublicKey(nB64, eB64 string) (*rsa.PublicKey, error) {
	nBytes, err := base64.RawURLEncoding.DecodeString(nB64)
	if err != nil {
		return nil, err
	}
	eBytes, err := base64.RawURLEncoding.DecodeString(eB64)
	if err != nil {
		return nil, err
	}

	n := new(big.Int).SetBytes(nBytes)
	e := 0
	for _, b := range eBytes {
		e = e<<8 + int(b)
	}
	if e == 0 {
		return nil, errors.New("invalid exponent")
	}

	return &rsa.PublicKey{N: n, E: e}, nil
}
