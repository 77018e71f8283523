package board

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/alphabot-ai/noticeboard/internal/model"
	"github.com/alphabot-ai/noticeboard/internal/result"
	"github.com/alphabot-ai/noticeboard/internal/store"
)

// Repository adapts a store.ArticleStore to ArticleRepository.
type Repository struct {
	store  store.ArticleStore
	logger *slog.Logger
	now    func() time.Time
}

func NewRepository(st store.ArticleStore, logger *slog.Logger) *Repository {
	if logger == nil {
		logger = slog.Default()
	}
	return &Repository{store: st, logger: logger, now: time.Now}
}

func (r *Repository) FindAll(ctx context.Context) ([]model.Article, error) {
	articles, err := r.store.ListArticles(ctx)
	if err != nil {
		return nil, fmt.Errorf("list articles: %w", err)
	}
	if articles == nil {
		articles = []model.Article{}
	}
	return articles, nil
}

func (r *Repository) FindByID(ctx context.Context, id int64) (model.Article, bool, error) {
	article, err := r.store.GetArticle(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return model.Article{}, false, nil
	}
	if err != nil {
		return model.Article{}, false, fmt.Errorf("get article %d: %w", id, err)
	}
	return article, true, nil
}

func (r *Repository) Create(ctx context.Context, member model.Member, subject, content string) result.Result[model.Article] {
	now := r.now()
	article := model.Article{
		Subject:    subject,
		Content:    content,
		MemberID:   member.ID,
		MemberName: member.Username,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	id, err := r.store.CreateArticle(ctx, &article)
	if err != nil {
		r.logger.ErrorContext(ctx, "create article", "member_id", member.ID, "error", err)
		return result.Fail[model.Article](result.Internal, "could not save article")
	}
	article.ID = id
	if stored, err := r.store.GetArticle(ctx, id); err == nil {
		article = stored
	}
	return result.Success(result.Created, "article created", article)
}

func (r *Repository) Update(ctx context.Context, article model.Article, subject, content string) result.Result[model.Article] {
	now := r.now()
	err := r.store.UpdateArticle(ctx, article.ID, subject, content, now)
	if errors.Is(err, store.ErrNotFound) {
		return result.Fail[model.Article](result.NotFound, notFoundMessage(article.ID))
	}
	if err != nil {
		r.logger.ErrorContext(ctx, "update article", "article_id", article.ID, "error", err)
		return result.Fail[model.Article](result.Internal, "could not save article")
	}
	article.Subject = subject
	article.Content = content
	article.UpdatedAt = now
	if stored, err := r.store.GetArticle(ctx, article.ID); err == nil {
		article = stored
	}
	return result.Success(result.OK, "article updated", article)
}

func (r *Repository) CheckOwnership(member model.Member, article model.Article) result.Result[result.Empty] {
	return CanModify(member, article)
}

func (r *Repository) Remove(ctx context.Context, article model.Article) result.Result[result.Empty] {
	err := r.store.HideArticle(ctx, article.ID)
	if errors.Is(err, store.ErrNotFound) {
		return result.Fail[result.Empty](result.NotFound, notFoundMessage(article.ID))
	}
	if err != nil {
		r.logger.ErrorContext(ctx, "remove article", "article_id", article.ID, "error", err)
		return result.Fail[result.Empty](result.Internal, "could not remove article")
	}
	return result.Success(result.OK, "article removed", result.Empty{})
}

// CanModify reports whether member owns article.
func CanModify(member model.Member, article model.Article) result.Result[result.Empty] {
	if article.MemberID != member.ID {
		return result.Fail[result.Empty](result.Forbidden,
			fmt.Sprintf("member %s is not allowed to modify article %d", member.Username, article.ID))
	}
	return result.Success(result.OK, "", result.Empty{})
}

// Members adapts a store.MemberStore to MemberFinder.
type Members struct {
	store store.MemberStore
}

func NewMembers(st store.MemberStore) *Members {
	return &Members{store: st}
}

func (m *Members) FindByUsername(ctx context.Context, username string) (model.Member, bool, error) {
	member, err := m.store.GetMemberByUsername(ctx, username)
	if errors.Is(err, store.ErrNotFound) {
		return model.Member{}, false, nil
	}
	if err != nil {
		return model.Member{}, false, fmt.Errorf("get member %q: %w", username, err)
	}
	return member, true, nil
}

func notFoundMessage(id int64) string {
	return fmt.Sprintf("article %d does not exist", id)
}
