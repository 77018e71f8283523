package store

import (
	"context"
	"errors"
	"time"

	"github.com/alphabot-ai/noticeboard/internal/model"
)

var (
	ErrNotFound      = errors.New("not found")
	ErrDuplicateKey  = errors.New("duplicate key")
	ErrDuplicateName = errors.New("duplicate name")
)

type Store interface {
	ArticleStore
	MemberStore
	AuthStore
	GetSiteStats(ctx context.Context) (model.SiteStats, error)
	Close() error
}

type ArticleStore interface {
	CreateArticle(ctx context.Context, article *model.Article) (int64, error)
	GetArticle(ctx context.Context, id int64) (model.Article, error)
	ListArticles(ctx context.Context) ([]model.Article, error)
	ListArticlesByMember(ctx context.Context, memberID int64, limit int) ([]model.Article, error)
	UpdateArticle(ctx context.Context, id int64, subject, content string, updatedAt time.Time) error
	HideArticle(ctx context.Context, id int64) error
}

type MemberStore interface {
	CreateMember(ctx context.Context, member *model.Member, key *model.MemberKey) (memberID, keyID int64, err error)
	GetMember(ctx context.Context, id int64) (model.Member, error)
	GetMemberByUsername(ctx context.Context, username string) (model.Member, error)
	GetMemberKeys(ctx context.Context, memberID int64) ([]model.MemberKey, error)
	RevokeMemberKey(ctx context.Context, memberID, keyID int64, revokedAt time.Time) error
	FindMemberKey(ctx context.Context, alg, publicKey string) (model.MemberKey, *model.Member, error)
	DeleteMember(ctx context.Context, memberID int64) error
}

type AuthStore interface {
	CreateChallenge(ctx context.Context, c model.Challenge) error
	ConsumeChallenge(ctx context.Context, challenge string) (model.Challenge, error)
	CreateToken(ctx context.Context, token model.Token) error
	GetToken(ctx context.Context, id string) (model.Token, error)
}
