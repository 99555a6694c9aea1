package token

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"laptopstore/models"
)

func newTestService(t *testing.T, ttl time.Duration, maxPerUser int) (*Service, *Store) {
	t.Helper()
	store := NewStore(newTestDB(t))
	signer := NewSigner([]byte("test-secret"))
	return NewService(signer, store, ttl, maxPerUser, zap.NewNop()), store
}

func testUser(role models.Role) *models.User {
	return &models.User{ID: 1, Username: "alice", Role: role, Enabled: true}
}

func TestIssueValidRoundTrip(t *testing.T) {
	svc, _ := newTestService(t, time.Hour, 5)
	ctx := context.Background()

	sess, err := svc.Issue(ctx, testUser(models.RoleUser), "10.0.0.1", "curl/8.0")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if sess.Record.IPAddress != "10.0.0.1" || sess.Record.UserAgent != "curl/8.0" {
		t.Fatalf("metadata not persisted: %+v", sess.Record)
	}

	ident, err := svc.Validate(ctx, sess.Value)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if ident.Username != "alice" || ident.Role != models.RoleUser {
		t.Fatalf("identity = %+v", ident)
	}
}

func TestSequentialIssuanceEvictsOldest(t *testing.T) {
	const k = 3
	svc, _ := newTestService(t, time.Hour, k)
	ctx := context.Background()
	user := testUser(models.RoleUser)

	var sessions []*Session
	for i := 0; i < 5; i++ {
		sess, err := svc.Issue(ctx, user, "", "")
		if err != nil {
			t.Fatalf("issue %d: %v", i, err)
		}
		sessions = append(sessions, sess)
		time.Sleep(5 * time.Millisecond) // distinct issuance timestamps
	}

	recs, err := svc.Sessions(ctx, "alice")
	if err != nil {
		t.Fatalf("sessions: %v", err)
	}
	if len(recs) != k {
		t.Fatalf("valid count = %d, want %d", len(recs), k)
	}

	// the two oldest are revoked, the three newest survive
	for i, sess := range sessions {
		_, err := svc.Validate(ctx, sess.Value)
		if i < 2 && !errors.Is(err, ErrInvalidToken) {
			t.Fatalf("session %d should be evicted, got %v", i, err)
		}
		if i >= 2 && err != nil {
			t.Fatalf("session %d should be valid, got %v", i, err)
		}
	}
}

func TestValidateAfterRevokeOne(t *testing.T) {
	svc, _ := newTestService(t, time.Hour, 5)
	ctx := context.Background()

	sess, err := svc.Issue(ctx, testUser(models.RoleUser), "", "")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, err := svc.Validate(ctx, sess.Value); err != nil {
		t.Fatalf("validate before revoke: %v", err)
	}
	if err := svc.RevokeOne(ctx, sess.Value); err != nil {
		t.Fatalf("revoke: %v", err)
	}
	// the very next validate observes the revocation
	if _, err := svc.Validate(ctx, sess.Value); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("validate after revoke = %v, want ErrInvalidToken", err)
	}
	// revoking again is fine
	if err := svc.RevokeOne(ctx, sess.Value); err != nil {
		t.Fatalf("second revoke: %v", err)
	}
}

func TestValidateRejectsExpiredStoreRecord(t *testing.T) {
	svc, store := newTestService(t, time.Hour, 5)
	ctx := context.Background()

	sess, err := svc.Issue(ctx, testUser(models.RoleUser), "", "")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	// expire the stored record while the signed claim is still in the future
	err = store.db.Model(&models.AuthToken{}).
		Where("id = ?", sess.Record.ID).
		Update("expires_at", time.Now().Add(-time.Minute)).Error
	if err != nil {
		t.Fatalf("expire record: %v", err)
	}
	if _, err := svc.Validate(ctx, sess.Value); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("validate = %v, want ErrInvalidToken", err)
	}
}

func TestValidateRejectsDeletedRecord(t *testing.T) {
	svc, store := newTestService(t, time.Hour, 5)
	ctx := context.Background()

	sess, err := svc.Issue(ctx, testUser(models.RoleUser), "", "")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if err := store.db.Delete(&models.AuthToken{}, "id = ?", sess.Record.ID).Error; err != nil {
		t.Fatalf("delete record: %v", err)
	}
	// stage A still passes, stage B must reject
	if _, err := svc.Validate(ctx, sess.Value); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("validate = %v, want ErrInvalidToken", err)
	}
}

func TestRevokeAllSparesLaterIssuance(t *testing.T) {
	svc, _ := newTestService(t, time.Hour, 5)
	ctx := context.Background()
	user := testUser(models.RoleUser)

	first, err := svc.Issue(ctx, user, "", "")
	if err != nil {
		t.Fatalf("issue first: %v", err)
	}
	second, err := svc.Issue(ctx, user, "", "")
	if err != nil {
		t.Fatalf("issue second: %v", err)
	}

	if err := svc.RevokeAll(ctx, "alice"); err != nil {
		t.Fatalf("revoke all: %v", err)
	}
	for i, sess := range []*Session{first, second} {
		if _, err := svc.Validate(ctx, sess.Value); !errors.Is(err, ErrInvalidToken) {
			t.Fatalf("session %d survived revoke-all: %v", i, err)
		}
	}

	fresh, err := svc.Issue(ctx, user, "", "")
	if err != nil {
		t.Fatalf("issue after revoke-all: %v", err)
	}
	if _, err := svc.Validate(ctx, fresh.Value); err != nil {
		t.Fatalf("fresh session invalid after revoke-all: %v", err)
	}
}

func TestRoleSnapshotIsAuthoritative(t *testing.T) {
	svc, _ := newTestService(t, time.Hour, 5)
	ctx := context.Background()

	user := testUser(models.RoleUser)
	asUser, err := svc.Issue(ctx, user, "", "")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	// a role change applies only to tokens issued afterwards
	user.Role = models.RoleAdmin
	asAdmin, err := svc.Issue(ctx, user, "", "")
	if err != nil {
		t.Fatalf("issue after role change: %v", err)
	}

	ident, err := svc.Validate(ctx, asUser.Value)
	if err != nil {
		t.Fatalf("validate old token: %v", err)
	}
	if ident.Role != models.RoleUser {
		t.Fatalf("old token role = %s, want USER", ident.Role)
	}
	ident, err = svc.Validate(ctx, asAdmin.Value)
	if err != nil {
		t.Fatalf("validate new token: %v", err)
	}
	if ident.Role != models.RoleAdmin {
		t.Fatalf("new token role = %s, want ADMIN", ident.Role)
	}
}
