package server

import (
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	// flowCookieName is the cookie binding a browser to its in-flight login flow
	flowCookieName = "broker_flow"
	flowAudience   = "oauth-broker-flow"
)

// flowCookies signs the flow id into an HS256 JWT so that a browser can only
// complete the flow it started. The cookie holds no secrets.
type flowCookies struct {
	secret  []byte
	ttl     time.Duration
	secure  bool
	nowTime func() time.Time
}

func newFlowCookies(secret []byte, ttl time.Duration, secure bool, nowTime func() time.Time) *flowCookies {
	return &flowCookies{secret: secret, ttl: ttl, secure: secure, nowTime: nowTime}
}

func (c *flowCookies) sign(flowID string, expiresAt time.Time) (string, error) {
	now := c.nowTime()
	claims := jwt.RegisteredClaims{
		Subject:   flowID,
		Audience:  jwt.ClaimStrings{flowAudience},
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(expiresAt),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.secret)
	if err != nil {
		return "", fmt.Errorf("[flowCookies sign] %w", err)
	}
	return signed, nil
}

// verify returns the flow id carried by a cookie value.
func (c *flowCookies) verify(value string) (string, error) {
	var claims jwt.RegisteredClaims
	_, err := jwt.ParseWithClaims(value, &claims,
		func(*jwt.Token) (any, error) { return c.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithAudience(flowAudience),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(c.nowTime),
	)
	if err != nil {
		return "", fmt.Errorf("[flowCookies verify] %w", err)
	}
	if claims.Subject == "" {
		return "", fmt.Errorf("[flowCookies verify] no flow id")
	}
	return claims.Subject, nil
}

// issue sets the binding cookie for flowID.
func (c *flowCookies) issue(w http.ResponseWriter, r *http.Request, flowID string, expiresAt time.Time) error {
	value, err := c.sign(flowID, expiresAt)
	if err != nil {
		return err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     flowCookieName,
		Value:    value,
		Path:     flowCookiePath,
		HttpOnly: true,
		Secure:   c.secure || getScheme(r) == "https",
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(c.ttl / time.Second),
	})
	return nil
}

// flowID returns the flow id bound to the request's browser, or "" when the
// cookie is absent, forged or expired.
func (c *flowCookies) flowID(r *http.Request) string {
	cookie, err := r.Cookie(flowCookieName)
	if err != nil {
		return ""
	}
	id, err := c.verify(cookie.Value)
	if err != nil {
		return ""
	}
	return id
}

func (c *flowCookies) clear(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     flowCookieName,
		Value:    "",
		Path:     flowCookiePath,
		HttpOnly: true,
		Secure:   c.secure || getScheme(r) == "https",
		SameSite: http.SameSiteLaxMode,
		MaxAge:   -1,
	})
}
