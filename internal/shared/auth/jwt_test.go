package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func TestSignAndVerify(t *testing.T) {
	issuer, err := NewIssuer("secret", "dev")
	if err != nil {
		t.Fatalf("NewIssuer: %v", err)
	}
	token, err := issuer.Sign(Claims{
		Email:            "a@example.com",
		RegisteredClaims: jwt.RegisteredClaims{Subject: "google:123"},
	})
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}

	claims, err := issuer.Verify(token)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if claims.Subject != "google:123" || claims.Email != "a@example.com" {
		t.Fatalf("unexpected claims %+v", claims)
	}
}

func TestVerifyRejects(t *testing.T) {
	issuer, _ := NewIssuer("secret", "dev")
	other, _ := NewIssuer("other", "dev")

	foreign, _ := other.Sign(Claims{RegisteredClaims: jwt.RegisteredClaims{Subject: "u"}})
	if _, err := issuer.Verify(foreign); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for foreign signature, got %v", err)
	}

	issuer.now = func() time.Time { return time.Now().Add(-48 * time.Hour) }
	expired, _ := issuer.Sign(Claims{RegisteredClaims: jwt.RegisteredClaims{Subject: "u"}})
	issuer.now = time.Now
	if _, err := issuer.Verify(expired); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for expired token, got %v", err)
	}

	if _, err := issuer.Verify("not.a.token"); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for garbage, got %v", err)
	}

	none, _ := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{RegisteredClaims: jwt.RegisteredClaims{Subject: "u"}}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	if _, err := issuer.Verify(none); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for alg none, got %v", err)
	}
}

func TestSignRequiresSubject(t *testing.T) {
	issuer, _ := NewIssuer("secret", "dev")
	if _, err := issuer.Sign(Claims{}); err == nil {
		t.Fatalf("expected error without subject")
	}
}

func TestNewIssuerRequiresSecretInProduction(t *testing.T) {
	if _, err := NewIssuer("", "production"); !errors.Is(err, errMissingSecret) {
		t.Fatalf("expected errMissingSecret, got %v", err)
	}
	if _, err := NewIssuer("", "dev"); err != nil {
		t.Fatalf("dev should fall back to a development secret: %v", err)
	}
}
