// internal/auth/gate.go
package auth

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/time/rate"
)

const tokenTTL = 12 * time.Hour

var (
	// ErrBadPassword means the submitted admin password did not match.
	ErrBadPassword = errors.New("invalid admin password")
	// ErrBadToken means the bearer token is missing, malformed or expired.
	ErrBadToken = errors.New("invalid or expired token")
)

// Gate verifies the shared admin password and issues short-lived session
// tokens for the catalog and roster mutation endpoints. The shared
// password is a deliberate carry-over from the reference app; the hash is
// only held in memory.
type Gate struct {
	passwordHash string
	passwordSalt string
	signingKey   []byte
	limiter      *rate.Limiter
	now          func() time.Time
}

// NewGate hashes the shared admin password and prepares the signing key.
func NewGate(password string, signingKey []byte) (*Gate, error) {
	hash, salt, err := hashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("hash admin password: %w", err)
	}
	return &Gate{
		passwordHash: hash,
		passwordSalt: salt,
		signingKey:   signingKey,
		limiter:      rate.NewLimiter(rate.Every(1*time.Minute), 5),
		now:          time.Now,
	}, nil
}

// Login checks the shared password and returns a signed session token.
// Attempts are rate limited to blunt password guessing.
func (g *Gate) Login(password string) (string, error) {
	if !g.limiter.Allow() {
		return "", fmt.Errorf("too many login attempts: %w", ErrBadPassword)
	}

	ok, err := verifyPassword(password, g.passwordSalt, g.passwordHash)
	if err != nil {
		return "", fmt.Errorf("verify password: %w", err)
	}
	if !ok {
		return "", ErrBadPassword
	}

	now := g.now()
	claims := jwt.RegisteredClaims{
		ID:        uuid.NewString(),
		Subject:   "admin",
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(tokenTTL)),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(g.signingKey)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Verify checks a bearer token string.
func (g *Gate) Verify(tokenString string) error {
	token, err := jwt.ParseWithClaims(tokenString, &jwt.RegisteredClaims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return g.signingKey, nil
	}, jwt.WithTimeFunc(g.now))
	if err != nil || !token.Valid {
		return ErrBadToken
	}
	return nil
}

// HandleLogin is the POST /auth/login endpoint.
func (g *Gate) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	token, err := g.Login(req.Password)
	if err != nil {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		json.NewEncoder(w).Encode(map[string]interface{}{"success": false, "message": "Invalid admin password."})
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"token": token})
}

// Middleware requires a valid bearer token on every request it wraps.
func (g *Gate) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		tokenString, found := strings.CutPrefix(header, "Bearer ")
		if !found {
			http.Error(w, "missing bearer token", http.StatusUnauthorized)
			return
		}
		if err := g.Verify(tokenString); err != nil {
			http.Error(w, err.Error(), http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}
