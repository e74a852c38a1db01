package auth

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/mind-engage/mindengage-pathways/internal/identity"
)

var ErrBadToken = errors.New("bad token")

// AuthService verifies tokens minted by the LMS backend. Both sides share the
// HMAC secret.
type AuthService struct{ hmac []byte }

func NewAuthService(secret string) *AuthService { return &AuthService{hmac: []byte(secret)} }

type Claims struct {
	Sub    string `json:"sub"`
	Role   string `json:"role"` // STUDENT, INSTRUCTOR or ADMIN, any case
	UserID int64  `json:"userId,omitempty"`
	Email  string `json:"email,omitempty"`
	jwt.RegisteredClaims
}

// Candidate is the learner the token speaks for. userId wins over a numeric
// sub; a non-numeric sub leaves only the email to go on.
func (c *Claims) Candidate() identity.Candidate {
	id := c.UserID
	if id == 0 {
		id, _ = strconv.ParseInt(c.Sub, 10, 64)
	}
	return identity.Candidate{ID: id, Email: c.Email}
}

// IssueJWT signs claims with the shared secret. The gateway never calls it;
// tests and local tooling do.
func (a *AuthService) IssueJWT(c Claims, ttl time.Duration) (string, error) {
	now := time.Now()
	if c.Issuer == "" {
		c.Issuer = "mindengage-offline"
	}
	c.IssuedAt = jwt.NewNumericDate(now)
	c.ExpiresAt = jwt.NewNumericDate(now.Add(ttl))
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, &c)
	return t.SignedString(a.hmac)
}

func (a *AuthService) Parse(tokenStr string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		return a.hmac, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, errors.Join(ErrBadToken, err)
	}
	c, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrBadToken
	}
	return c, nil
}

func bearer(r *http.Request) (string, bool) {
	h := r.Header.Get("Authorization")
	if !strings.HasPrefix(h, "Bearer ") {
		return "", false
	}
	tok := strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
	return tok, tok != ""
}

// JWTMiddleware verifies the bearer token and stores its claims, subject and
// raw value on the request context. With required=false a request without
// a token passes through anonymously; a token that fails to verify is
// rejected either way.
func JWTMiddleware(a *AuthService, required bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tok, ok := bearer(r)
			if !ok {
				if required {
					http.Error(w, "missing bearer", http.StatusUnauthorized)
					return
				}
				next.ServeHTTP(w, r)
				return
			}
			claims, err := a.Parse(tok)
			if err != nil {
				http.Error(w, "bad token", http.StatusUnauthorized)
				return
			}
			ctx := WithClaims(r.Context(), claims)
			ctx = WithSubject(ctx, claims.Sub)
			ctx = WithToken(ctx, tok)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
