package token

import (
	"errors"
	"testing"
	"time"

	"github.com/hitoshi/ichiba/internal/model"
)

func TestIssueAndVerify_ReturnsClaims(t *testing.T) {
	issuer := NewIssuer("test-secret")

	tok, err := issuer.Issue("u1", "Test User", model.RoleUser, 7*24*time.Hour)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tok == "" {
		t.Fatal("expected non-empty token")
	}

	claims, err := issuer.Verify(tok)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if claims.Subject != "u1" {
		t.Errorf("subject = %q, want %q", claims.Subject, "u1")
	}
	if claims.FullName != "Test User" {
		t.Errorf("fullName = %q, want %q", claims.FullName, "Test User")
	}
	if claims.Role != model.RoleUser {
		t.Errorf("role = %q, want %q", claims.Role, model.RoleUser)
	}
}

func TestVerify_WrongSecret_ReturnsSignatureInvalid(t *testing.T) {
	issuer := NewIssuer("secret-a")
	other := NewIssuer("secret-b")

	tok, err := issuer.Issue("u1", "Test User", model.RoleUser, time.Hour)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	_, err = other.Verify(tok)
	if !errors.Is(err, ErrSignatureInvalid) {
		t.Errorf("err = %v, want ErrSignatureInvalid", err)
	}
}

func TestVerify_MalformedToken_ReturnsSignatureInvalid(t *testing.T) {
	issuer := NewIssuer("test-secret")

	_, err := issuer.Verify("not.a.token")
	if !errors.Is(err, ErrSignatureInvalid) {
		t.Errorf("err = %v, want ErrSignatureInvalid", err)
	}
}

func TestVerify_ExpiredToken_ReturnsExpired(t *testing.T) {
	issuer := NewIssuer("test-secret")

	tok, err := issuer.Issue("u1", "Test User", model.RoleUser, time.Millisecond)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	time.Sleep(10 * time.Millisecond)

	_, err = issuer.Verify(tok)
	if !errors.Is(err, ErrExpired) {
		t.Errorf("err = %v, want ErrExpired", err)
	}
}

func TestVerify_ExpiredToken_WithFakeClock(t *testing.T) {
	issuer := NewIssuer("test-secret")
	base := time.Now()
	issuer.now = func() time.Time { return base }

	tok, err := issuer.Issue("u1", "Test User", model.RoleUser, 7*24*time.Hour)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// 有効期限直前は検証に成功する
	issuer.now = func() time.Time { return base.Add(7*24*time.Hour - time.Minute) }
	if _, err := issuer.Verify(tok); err != nil {
		t.Errorf("unexpected error before expiry: %v", err)
	}

	// 有効期限を過ぎると期限切れになる
	issuer.now = func() time.Time { return base.Add(7*24*time.Hour + time.Minute) }
	if _, err := issuer.Verify(tok); !errors.Is(err, ErrExpired) {
		t.Errorf("err = %v, want ErrExpired", err)
	}
}

func TestClaims_RemainingTTL(t *testing.T) {
	issuer := NewIssuer("test-secret")
	base := time.Now()
	issuer.now = func() time.Time { return base }

	tok, err := issuer.Issue("u1", "Test User", model.RoleUser, time.Hour)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	claims, err := issuer.Verify(tok)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	remaining := claims.RemainingTTL(base.Add(30 * time.Minute))
	// jwtのNumericDateは秒精度のため誤差1秒まで許容する
	if remaining < 30*time.Minute-time.Second || remaining > 30*time.Minute+time.Second {
		t.Errorf("remaining = %v, want ~%v", remaining, 30*time.Minute)
	}
}

func TestClaims_RemainingTTL_PastExpiry_ReturnsZero(t *testing.T) {
	issuer := NewIssuer("test-secret")
	base := time.Now()
	issuer.now = func() time.Time { return base }

	tok, err := issuer.Issue("u1", "Test User", model.RoleUser, time.Hour)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	claims, err := issuer.Verify(tok)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got := claims.RemainingTTL(base.Add(2 * time.Hour)); got != 0 {
		t.Errorf("remaining = %v, want 0", got)
	}
}

func TestIssue_DifferentRoles(t *testing.T) {
	issuer := NewIssuer("test-secret")

	tok, err := issuer.Issue("s1", "Seller One", model.RoleSeller, time.Hour)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	claims, err := issuer.Verify(tok)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if claims.Role != model.RoleSeller {
		t.Errorf("role = %q, want %q", claims.Role, model.RoleSeller)
	}
}
