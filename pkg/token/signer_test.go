package token

import (
	"strings"
	"testing"
	"time"

	"laptopstore/models"
)

func TestSignVerifyRoundTrip(t *testing.T) {
	s := NewSigner([]byte("test-secret"))
	issued := time.Now()
	expires := issued.Add(time.Hour)

	value, err := s.Sign("tok-1", "alice", models.RoleModerator, issued, expires)
	if err != nil {
		t.Fatalf("sign failed: %v", err)
	}
	claims, err := s.Verify(value)
	if err != nil {
		t.Fatalf("verify failed: %v", err)
	}
	if claims.Subject != "alice" {
		t.Fatalf("subject = %q, want alice", claims.Subject)
	}
	if claims.Role != string(models.RoleModerator) {
		t.Fatalf("role = %q, want MODERATOR", claims.Role)
	}
	if claims.ID != "tok-1" {
		t.Fatalf("jti = %q, want tok-1", claims.ID)
	}
	if claims.ExpiresAt.Unix() != expires.Unix() {
		t.Fatalf("exp = %v, want %v", claims.ExpiresAt.Unix(), expires.Unix())
	}
}

func TestVerifyRejectsTamperedSignature(t *testing.T) {
	s := NewSigner([]byte("test-secret"))
	value, err := s.Sign("tok-2", "alice", models.RoleUser, time.Now(), time.Now().Add(time.Hour))
	if err != nil {
		t.Fatalf("sign failed: %v", err)
	}
	// flip one character in the signature segment
	last := value[len(value)-1]
	flip := byte('A')
	if last == 'A' {
		flip = 'B'
	}
	tampered := value[:len(value)-1] + string(flip)
	if _, err := s.Verify(tampered); err == nil {
		t.Fatal("expected tampered token to fail verification")
	}
}

func TestVerifyRejectsExpiredClaim(t *testing.T) {
	s := NewSigner([]byte("test-secret"))
	value, err := s.Sign("tok-3", "alice", models.RoleUser, time.Now().Add(-2*time.Hour), time.Now().Add(-time.Hour))
	if err != nil {
		t.Fatalf("sign failed: %v", err)
	}
	if _, err := s.Verify(value); err == nil {
		t.Fatal("expected expired token to fail verification")
	}
}

func TestVerifyRejectsWrongKeyAndGarbage(t *testing.T) {
	a := NewSigner([]byte("key-a"))
	b := NewSigner([]byte("key-b"))
	value, err := a.Sign("tok-4", "alice", models.RoleUser, time.Now(), time.Now().Add(time.Hour))
	if err != nil {
		t.Fatalf("sign failed: %v", err)
	}
	if _, err := b.Verify(value); err == nil {
		t.Fatal("expected verification with wrong key to fail")
	}
	for _, garbage := range []string{"", "not-a-token", strings.Repeat("x.", 40)} {
		if _, err := a.Verify(garbage); err == nil {
			t.Fatalf("expected %q to fail verification", garbage)
		}
	}
}
