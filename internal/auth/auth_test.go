package auth

import (
	"context"
	"crypto"
	"crypto/ed25519"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"encoding/base64"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/alphabot-ai/noticeboard/internal/model"
	"github.com/alphabot-ai/noticeboard/internal/store/sqlite"
)

const testSecret = "test-hash-secret"

func newTestStore(t *testing.T) *sqlite.Store {
	t.Helper()
	st, err := sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name()))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })
	return st
}

func registerMember(t *testing.T, st *sqlite.Store, username string) (string, ed25519.PrivateKey, int64) {
	t.Helper()
	pub, priv, err := ed25519.GenerateKey(nil)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	pubStr := base64.RawStdEncoding.EncodeToString(pub)
	member := model.Member{Username: username, CreatedAt: time.Now()}
	key := model.MemberKey{Alg: AlgEd25519, PublicKey: pubStr, CreatedAt: time.Now()}
	memberID, _, err := st.CreateMember(context.Background(), &member, &key)
	if err != nil {
		t.Fatalf("create member: %v", err)
	}
	return pubStr, priv, memberID
}

func signedChallenge(t *testing.T, svc *Service, priv ed25519.PrivateKey) (string, string) {
	t.Helper()
	challenge, err := svc.CreateChallenge(context.Background(), AlgEd25519)
	if err != nil {
		t.Fatalf("challenge: %v", err)
	}
	sig := ed25519.Sign(priv, []byte(challenge.Challenge))
	return challenge.Challenge, base64.RawStdEncoding.EncodeToString(sig)
}

func TestEd25519Login(t *testing.T) {
	st := newTestStore(t)
	svc := NewService(st, testSecret, time.Hour, time.Minute)
	pub, priv, memberID := registerMember(t, st, "alice")

	challenge, sig := signedChallenge(t, svc, priv)
	issued, err := svc.VerifyAndCreateToken(context.Background(), AlgEd25519, pub, challenge, sig)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if issued.AccessToken == "" || issued.MemberID != memberID {
		t.Fatalf("unexpected issued token: %+v", issued)
	}

	principal, err := svc.Authenticate(context.Background(), issued.AccessToken)
	if err != nil {
		t.Fatalf("authenticate: %v", err)
	}
	if principal.Username != "alice" || principal.MemberID != memberID {
		t.Fatalf("unexpected principal: %+v", principal)
	}

	// challenges are single use
	if _, err := svc.VerifyAndCreateToken(context.Background(), AlgEd25519, pub, challenge, sig); err == nil {
		t.Fatalf("expected replayed challenge to fail")
	}
}

func TestUnregisteredKeyRejected(t *testing.T) {
	st := newTestStore(t)
	svc := NewService(st, testSecret, time.Hour, time.Minute)

	pub, priv, err := ed25519.GenerateKey(nil)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	challenge, sig := signedChallenge(t, svc, priv)
	_, err = svc.VerifyAndCreateToken(context.Background(), AlgEd25519, base64.RawStdEncoding.EncodeToString(pub), challenge, sig)
	if !errors.Is(err, ErrKeyNotRegistered) {
		t.Fatalf("expected ErrKeyNotRegistered, got %v", err)
	}
}

func TestTokenExpiration(t *testing.T) {
	st := newTestStore(t)
	svc := NewService(st, testSecret, -1*time.Second, time.Minute)
	pub, priv, _ := registerMember(t, st, "alice")

	challenge, sig := signedChallenge(t, svc, priv)
	issued, err := svc.VerifyAndCreateToken(context.Background(), AlgEd25519, pub, challenge, sig)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if _, err := svc.Authenticate(context.Background(), issued.AccessToken); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected token expiration error, got %v", err)
	}
}

func TestRevokedKeyRejected(t *testing.T) {
	st := newTestStore(t)
	svc := NewService(st, testSecret, time.Hour, time.Minute)
	pub, priv, memberID := registerMember(t, st, "alice")

	keys, err := st.GetMemberKeys(context.Background(), memberID)
	if err != nil || len(keys) != 1 {
		t.Fatalf("get keys: %v", err)
	}
	if err := st.RevokeMemberKey(context.Background(), memberID, keys[0].ID, time.Now()); err != nil {
		t.Fatalf("revoke key: %v", err)
	}

	challenge, sig := signedChallenge(t, svc, priv)
	if _, err := svc.VerifyAndCreateToken(context.Background(), AlgEd25519, pub, challenge, sig); !errors.Is(err, ErrKeyRevoked) {
		t.Fatalf("expected ErrKeyRevoked, got %v", err)
	}
}

func TestDeletedMemberTokenRejected(t *testing.T) {
	st := newTestStore(t)
	svc := NewService(st, testSecret, time.Hour, time.Minute)
	pub, priv, memberID := registerMember(t, st, "alice")

	challenge, sig := signedChallenge(t, svc, priv)
	issued, err := svc.VerifyAndCreateToken(context.Background(), AlgEd25519, pub, challenge, sig)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if err := st.DeleteMember(context.Background(), memberID); err != nil {
		t.Fatalf("delete member: %v", err)
	}
	if _, err := svc.Authenticate(context.Background(), issued.AccessToken); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected revoked token, got %v", err)
	}
}

func TestForeignSecretRejected(t *testing.T) {
	st := newTestStore(t)
	svc := NewService(st, testSecret, time.Hour, time.Minute)
	pub, priv, _ := registerMember(t, st, "alice")

	challenge, sig := signedChallenge(t, svc, priv)
	issued, err := svc.VerifyAndCreateToken(context.Background(), AlgEd25519, pub, challenge, sig)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}

	other := NewService(st, "another-secret", time.Hour, time.Minute)
	if _, err := other.Authenticate(context.Background(), issued.AccessToken); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected signature failure, got %v", err)
	}
	if _, err := svc.Authenticate(context.Background(), "not-a-jwt"); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected malformed token failure, got %v", err)
	}
}

func TestVerifyRSA(t *testing.T) {
	priv, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("generate rsa key: %v", err)
	}
	der, err := x509.MarshalPKIXPublicKey(&priv.PublicKey)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	pub := base64.StdEncoding.EncodeToString(der)
	h := sha256.Sum256([]byte("hello"))

	pss, err := rsa.SignPSS(rand.Reader, priv, crypto.SHA256, h[:], nil)
	if err != nil {
		t.Fatalf("sign pss: %v", err)
	}
	if err := VerifySignature(AlgRSAPSS, pub, "hello", base64.StdEncoding.EncodeToString(pss)); err != nil {
		t.Fatalf("verify pss: %v", err)
	}

	pkcs, err := rsa.SignPKCS1v15(rand.Reader, priv, crypto.SHA256, h[:])
	if err != nil {
		t.Fatalf("sign pkcs1: %v", err)
	}
	if err := VerifySignature(AlgRSASHA256, pub, "hello", base64.StdEncoding.EncodeToString(pkcs)); err != nil {
		t.Fatalf("verify pkcs1: %v", err)
	}
	if err := VerifySignature(AlgRSASHA256, pub, "tampered", base64.StdEncoding.EncodeToString(pkcs)); !errors.Is(err, ErrBadSignature) {
		t.Fatalf("expected ErrBadSignature, got %v", err)
	}
}

func TestUnsupportedAlg(t *testing.T) {
	if err := VerifySignature("dsa", "", "", ""); err == nil {
		t.Fatalf("expected unsupported alg error")
	}
}
