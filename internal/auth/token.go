package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	ErrMissingToken = errors.New("authorization token required")
	ErrInvalidToken = errors.New("invalid or expired token")
)

// Verifier checks HMAC-signed bearer tokens carrying a user_id claim.
type Verifier struct {
	secret []byte
	issuer string
}

func NewVerifier(secret, issuer string) *Verifier {
	return &Verifier{secret: []byte(secret), issuer: issuer}
}

// UserID parses "Bearer <token>" (or a bare token) and returns the user_id claim.
func (v *Verifier) UserID(header string) (uuid.UUID, error) {
	tokenString := strings.TrimSpace(header)
	if tokenString == "" {
		return uuid.Nil, ErrMissingToken
	}
	if parts := strings.SplitN(tokenString, " ", 2); len(parts) == 2 {
		if !strings.EqualFold(parts[0], "Bearer") {
			return uuid.Nil, fmt.Errorf("%w: unsupported authorization scheme", ErrInvalidToken)
		}
		tokenString = strings.TrimSpace(parts[1])
	}

	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{"HS256", "HS384", "HS512"})}
	if v.issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.issuer))
	}
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return v.secret, nil
	}, opts...)
	if err != nil || !token.Valid {
		return uuid.Nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return uuid.Nil, ErrInvalidToken
	}
	raw, ok := claims["user_id"].(string)
	if !ok {
		return uuid.Nil, fmt.Errorf("%w: user_id claim missing", ErrInvalidToken)
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: user_id claim is not a UUID", ErrInvalidToken)
	}
	return id, nil
}

// Sign issues a token for userID. Used by tooling and tests.
func (v *Verifier) Sign(userID uuid.UUID, ttl time.Duration) (string, error) {
	claims := jwt.MapClaims{
		"user_id": userID.String(),
		"exp":     time.Now().Add(ttl).Unix(),
	}
	if v.issuer != "" {
		claims["iss"] = v.issuer
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(v.secret)
}
