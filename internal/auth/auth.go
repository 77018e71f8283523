// Package auth implements challenge/response login with member public keys
// and the bearer tokens issued afterwards.
package auth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/alphabot-ai/noticeboard/internal/model"
	"github.com/alphabot-ai/noticeboard/internal/store"
)

var (
	ErrChallengeExpired  = errors.New("challenge expired")
	ErrChallengeMismatch = errors.New("challenge alg mismatch")
	ErrKeyNotRegistered  = errors.New("key not registered")
	ErrKeyRevoked        = errors.New("key revoked")
	ErrInvalidToken      = errors.New("invalid token")
)

// Store is the slice of persistence the auth service needs.
type Store interface {
	store.AuthStore
	FindMemberKey(ctx context.Context, alg, publicKey string) (model.MemberKey, *model.Member, error)
}

type Service struct {
	store        Store
	secret       []byte
	tokenTTL     time.Duration
	challengeTTL time.Duration
	now          func() time.Time
}

// Principal is the identity carried by a valid bearer token.
type Principal struct {
	MemberID int64
	Username string
	KeyID    int64
}

// Issued describes a freshly minted access token.
type Issued struct {
	AccessToken string
	ExpiresAt   time.Time
	MemberID    int64
	Username    string
	KeyID       int64
}

type claims struct {
	jwt.RegisteredClaims
	MemberID int64 `json:"mid"`
	KeyID    int64 `json:"kid"`
}

func NewService(st Store, secret string, tokenTTL, challengeTTL time.Duration) *Service {
	return &Service{
		store:        st,
		secret:       []byte(secret),
		tokenTTL:     tokenTTL,
		challengeTTL: challengeTTL,
		now:          time.Now,
	}
}

func (s *Service) CreateChallenge(ctx context.Context, alg string) (model.Challenge, error) {
	challenge, err := randomToken(32)
	if err != nil {
		return model.Challenge{}, err
	}
	c := model.Challenge{
		Challenge: challenge,
		Alg:       alg,
		ExpiresAt: s.now().Add(s.challengeTTL),
	}
	if err := s.store.CreateChallenge(ctx, c); err != nil {
		return model.Challenge{}, err
	}
	return c, nil
}

// VerifyChallenge consumes a challenge and checks that it was signed by the
// given key. It does not require the key to be registered, so registration
// can use it to prove key ownership.
func (s *Service) VerifyChallenge(ctx context.Context, alg, publicKey, challenge, signature string) error {
	c, err := s.store.ConsumeChallenge(ctx, challenge)
	if err != nil {
		return err
	}
	if s.now().After(c.ExpiresAt) {
		return ErrChallengeExpired
	}
	if c.Alg != alg {
		return ErrChallengeMismatch
	}
	return VerifySignature(alg, publicKey, challenge, signature)
}

// VerifyAndCreateToken checks a signed challenge from a registered key and
// issues a bearer token for its member.
func (s *Service) VerifyAndCreateToken(ctx context.Context, alg, publicKey, challenge, signature string) (Issued, error) {
	if err := s.VerifyChallenge(ctx, alg, publicKey, challenge, signature); err != nil {
		return Issued{}, err
	}

	key, member, err := s.store.FindMemberKey(ctx, alg, publicKey)
	if errors.Is(err, store.ErrNotFound) || (err == nil && member == nil) {
		return Issued{}, ErrKeyNotRegistered
	}
	if err != nil {
		return Issued{}, err
	}
	if key.RevokedAt != nil {
		return Issued{}, ErrKeyRevoked
	}

	now := s.now()
	record := model.Token{
		ID:        uuid.NewString(),
		MemberID:  member.ID,
		Username:  member.Username,
		KeyID:     key.ID,
		ExpiresAt: now.Add(s.tokenTTL),
	}
	signed, err := s.sign(record, now)
	if err != nil {
		return Issued{}, fmt.Errorf("sign token: %w", err)
	}
	if err := s.store.CreateToken(ctx, record); err != nil {
		return Issued{}, err
	}

	return Issued{
		AccessToken: signed,
		ExpiresAt:   record.ExpiresAt,
		MemberID:    member.ID,
		Username:    member.Username,
		KeyID:       key.ID,
	}, nil
}

// Authenticate validates a bearer token. Tokens whose server-side record is
// gone are rejected even if the signature still verifies.
func (s *Service) Authenticate(ctx context.Context, bearer string) (Principal, error) {
	var parsed claims
	_, err := jwt.ParseWithClaims(bearer, &parsed, func(*jwt.Token) (any, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return Principal{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if parsed.ID == "" {
		return Principal{}, fmt.Errorf("%w: missing jti", ErrInvalidToken)
	}

	record, err := s.store.GetToken(ctx, parsed.ID)
	if errors.Is(err, store.ErrNotFound) {
		return Principal{}, fmt.Errorf("%w: revoked", ErrInvalidToken)
	}
	if err != nil {
		return Principal{}, err
	}
	if s.now().After(record.ExpiresAt) {
		return Principal{}, fmt.Errorf("%w: expired", ErrInvalidToken)
	}
	return Principal{MemberID: record.MemberID, Username: record.Username, KeyID: record.KeyID}, nil
}

func (s *Service) sign(record model.Token, now time.Time) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        record.ID,
			Subject:   record.Username,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(record.ExpiresAt),
		},
		MemberID: record.MemberID,
		KeyID:    record.KeyID,
	})
	return token.SignedString(s.secret)
}

func randomToken(size int) (string, error) {
	b := make([]byte, size)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

