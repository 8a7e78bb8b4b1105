package middleware

import (
	"net"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/podnotes/server/internal/shared/requestctx"
)

const (
	// IdentityKey is the gin context key for the resolved client identity.
	IdentityKey = "identity"
	// ClientTokenHeader carries the signed client token for non-browser clients.
	ClientTokenHeader = "X-Client-Token"
)

// IdentityResolver issues and validates signed client tokens and derives a
// stable identity string for every request. Identities are opaque keys for
// usage attribution only; collisions behind shared NAT are accepted.
type IdentityResolver struct {
	secret     []byte
	expiry     time.Duration
	cookieName string
}

// NewIdentityResolver creates a new identity resolver. An empty secret
// disables token issuance; identities then come from the network address.
func NewIdentityResolver(secret string, expiry time.Duration, cookieName string) *IdentityResolver {
	if cookieName == "" {
		cookieName = "podnotes_client"
	}
	return &IdentityResolver{
		secret:     []byte(secret),
		expiry:     expiry,
		cookieName: cookieName,
	}
}

// Middleware resolves the client identity for each request and stores it in
// both the gin context and the request context.
func (r *IdentityResolver) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		identity := r.resolve(c)

		c.Set(IdentityKey, identity)
		c.Request = c.Request.WithContext(requestctx.WithIdentity(c.Request.Context(), identity))

		c.Next()
	}
}

// resolve returns the identity for the request, minting a fresh client token
// when none is presented and token issuance is enabled.
func (r *IdentityResolver) resolve(c *gin.Context) string {
	if len(r.secret) > 0 {
		if token := r.presentedToken(c); token != "" {
			if subject, err := r.parseToken(token); err == nil {
				return "tok:" + subject
			}
		}

		// No valid token: mint one so the identity survives IP churn.
		subject := uuid.New().String()
		if signed, err := r.mintToken(subject); err == nil {
			c.SetCookie(r.cookieName, signed, int(r.expiry.Seconds()), "/", "", false, true)
			c.Header(ClientTokenHeader, signed)
			return "tok:" + subject
		}
	}

	return "ip:" + clientAddress(c)
}

func (r *IdentityResolver) presentedToken(c *gin.Context) string {
	if cookie, err := c.Cookie(r.cookieName); err == nil && cookie != "" {
		return cookie
	}
	return c.GetHeader(ClientTokenHeader)
}

func (r *IdentityResolver) mintToken(subject string) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   subject,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(r.expiry)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(r.secret)
}

func (r *IdentityResolver) parseToken(token string) (string, error) {
	parsed, err := jwt.ParseWithClaims(token, &jwt.RegisteredClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return r.secret, nil
	})
	if err != nil {
		return "", err
	}
	claims, ok := parsed.Claims.(*jwt.RegisteredClaims)
	if !ok || claims.Subject == "" {
		return "", jwt.ErrTokenInvalidClaims
	}
	return claims.Subject, nil
}

// clientAddress derives a network identity: first hop of X-Forwarded-For,
// falling back to the connection's remote address.
func clientAddress(c *gin.Context) string {
	if fwd := c.GetHeader("X-Forwarded-For"); fwd != "" {
		if first, _, found := strings.Cut(fwd, ","); found || first != "" {
			return strings.TrimSpace(first)
		}
	}
	if host, _, err := net.SplitHostPort(c.Request.RemoteAddr); err == nil {
		return host
	}
	return c.Request.RemoteAddr
}

// GetIdentity returns the resolved identity from the gin context.
func GetIdentity(c *gin.Context) string {
	return c.GetString(IdentityKey)
}
