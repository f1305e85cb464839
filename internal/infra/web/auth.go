package web

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// AccessGuard validates the bearer token minted by the platform's (external)
// authorization layer before any request reaches the orchestrator. Whether the
// caller may refund a given order has already been decided there; the guard
// only verifies the token and extracts the operator identity for the audit
// trail. No ambient privilege: handlers read the operator from the request
// context, never from globals.
type AccessGuard struct {
	secret []byte
	ttl    time.Duration
}

func NewAccessGuard(secret string, ttl time.Duration) *AccessGuard {
	return &AccessGuard{secret: []byte(secret), ttl: ttl}
}

type operatorClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

type ctxKey string

const ctxOperator ctxKey = "operator"

// Operator returns the authenticated operator id for the request, if any.
func Operator(ctx context.Context) string {
	if v := ctx.Value(ctxOperator); v != nil {
		return v.(string)
	}
	return ""
}

// Mint issues a short-lived operator token. Used by ops tooling and tests;
// production tokens come from the external authorization service sharing the
// same secret.
func (g *AccessGuard) Mint(operator, role string) (string, error) {
	now := time.Now()
	claims := operatorClaims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(g.ttl)),
			Subject:   operator,
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(g.secret)
}

func (g *AccessGuard) parse(raw string) (*operatorClaims, error) {
	claims := &operatorClaims{}
	tok, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return g.secret, nil
	})
	if err != nil || !tok.Valid {
		return nil, errors.New("invalid token")
	}
	if claims.Subject == "" {
		return nil, errors.New("token missing subject")
	}
	return claims, nil
}

// Require rejects requests without a valid bearer token and stores the
// operator identity in the request context.
func (g *AccessGuard) Require(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if len(g.secret) == 0 {
			http.Error(w, "Forbidden", http.StatusForbidden)
			return
		}
		authHeader := r.Header.Get("Authorization")
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		claims, err := g.parse(parts[1])
		if err != nil {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		ctx := context.WithValue(r.Context(), ctxOperator, claims.Subject)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
