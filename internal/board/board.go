// Package board implements the article operations of the notice board:
// listing, reading, writing, modifying and removing articles.
//
// Every operation answers with a result.Result. Business outcomes such as
// "not found" or "not the owner" travel inside the envelope; a principal that
// does not resolve to a member is reported as a Go error instead, since
// authentication is expected to guarantee it never happens.
package board

import (
	"context"
	"errors"

	"github.com/alphabot-ai/noticeboard/internal/model"
	"github.com/alphabot-ai/noticeboard/internal/result"
)

var ErrUnknownMember = errors.New("principal does not resolve to a member")

// Principal is the authenticated identity behind a write request.
type Principal struct {
	Username string
}

type WriteRequest struct {
	Subject string `json:"subject"`
	Content string `json:"content"`
}

type ModifyRequest struct {
	Subject string `json:"subject"`
	Content string `json:"content"`
}

type ArticleView struct {
	Article model.Article `json:"article"`
}

type ArticleList struct {
	Articles []model.Article `json:"articles"`
}

// MemberFinder resolves usernames to members.
type MemberFinder interface {
	FindByUsername(ctx context.Context, username string) (model.Member, bool, error)
}

// ArticleRepository is the persistence side of the article operations.
// Lookups report storage faults as errors; mutations report every outcome
// through the envelope.
type ArticleRepository interface {
	FindAll(ctx context.Context) ([]model.Article, error)
	FindByID(ctx context.Context, id int64) (model.Article, bool, error)
	Create(ctx context.Context, member model.Member, subject, content string) result.Result[model.Article]
	Update(ctx context.Context, article model.Article, subject, content string) result.Result[model.Article]
	CheckOwnership(member model.Member, article model.Article) result.Result[result.Empty]
	Remove(ctx context.Context, article model.Article) result.Result[result.Empty]
}
