package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

func TestVerifierRoundTrip(t *testing.T) {
	v := NewVerifier("s3cret", "tax-1040")
	id := uuid.New()
	tok, err := v.Sign(id, time.Hour)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	for _, header := range []string{"Bearer " + tok, "bearer " + tok, tok} {
		got, err := v.UserID(header)
		if err != nil {
			t.Fatalf("UserID(%q): %v", header[:10], err)
		}
		if got != id {
			t.Fatalf("got %s, want %s", got, id)
		}
	}
}

func TestVerifierRejects(t *testing.T) {
	v := NewVerifier("s3cret", "")
	id := uuid.New()

	expired, _ := v.Sign(id, -time.Minute)
	otherKey, _ := NewVerifier("other", "").Sign(id, time.Hour)
	noClaim, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": "x"}).SignedString([]byte("s3cret"))
	badID, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"user_id": "42"}).SignedString([]byte("s3cret"))

	cases := map[string]struct {
		header string
		want   error
	}{
		"empty":       {"", ErrMissingToken},
		"scheme":      {"Basic abc", ErrInvalidToken},
		"expired":     {"Bearer " + expired, ErrInvalidToken},
		"wrong key":   {"Bearer " + otherKey, ErrInvalidToken},
		"no user_id":  {"Bearer " + noClaim, ErrInvalidToken},
		"non-uuid id": {"Bearer " + badID, ErrInvalidToken},
	}
	for name, c := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := v.UserID(c.header); !errors.Is(err, c.want) {
				t.Fatalf("err = %v, want %v", err, c.want)
			}
		})
	}
}

func TestVerifierIssuer(t *testing.T) {
	tok, _ := NewVerifier("k", "someone-else").Sign(uuid.New(), time.Hour)
	if _, err := NewVerifier("k", "tax-1040").UserID(tok); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected issuer mismatch, got %v", err)
	}
}
