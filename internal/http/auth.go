package http

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"popballoons/internal/session"
)

const (
	tokenIssuer       = "popballoons"
	managerContextKey = "session.manager"
)

var errInvalidToken = errors.New("invalid client token")

// TokenIssuer signs the client tokens that bind a browser to its session manager.
type TokenIssuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewTokenIssuer(secret string, ttl time.Duration) *TokenIssuer {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &TokenIssuer{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// Issue returns a token for clientID. account may be empty before login.
func (t *TokenIssuer) Issue(clientID, account string) (string, time.Time, error) {
	now := t.now()
	expires := now.Add(t.ttl)
	claims := jwt.RegisteredClaims{
		Issuer:    tokenIssuer,
		Subject:   account,
		ID:        clientID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(expires),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return signed, expires, nil
}

// Parse validates a token and returns the client id it carries.
func (t *TokenIssuer) Parse(token string) (string, error) {
	var claims jwt.RegisteredClaims
	parsed, err := jwt.ParseWithClaims(token, &claims, func(*jwt.Token) (any, error) {
		return t.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(tokenIssuer),
		jwt.WithTimeFunc(t.now),
	)
	if err != nil || !parsed.Valid {
		return "", errInvalidToken
	}
	if claims.ID == "" {
		return "", errInvalidToken
	}
	return claims.ID, nil
}

func bearerToken(c *gin.Context) string {
	header := strings.TrimSpace(c.GetHeader("Authorization"))
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

// lookupManager resolves the caller's session manager from its bearer token.
func (h *Handler) lookupManager(c *gin.Context) (*session.Manager, bool) {
	token := bearerToken(c)
	if token == "" {
		return nil, false
	}
	clientID, err := h.tokens.Parse(token)
	if err != nil {
		return nil, false
	}
	return h.sessions.Get(clientID)
}

func (h *Handler) requireClient() gin.HandlerFunc {
	return func(c *gin.Context) {
		m, ok := h.lookupManager(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "please login first"})
			return
		}
		c.Set(managerContextKey, m)
		c.Next()
	}
}

func managerFrom(c *gin.Context) *session.Manager {
	v, _ := c.Get(managerContextKey)
	m, _ := v.(*session.Manager)
	return m
}
