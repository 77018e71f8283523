package board

import (
	"context"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/alphabot-ai/noticeboard/internal/model"
	"github.com/alphabot-ai/noticeboard/internal/result"
)

var tracer = otel.Tracer("github.com/alphabot-ai/noticeboard/internal/board")

type Service struct {
	articles ArticleRepository
	members  MemberFinder
	logger   *slog.Logger
}

func NewService(articles ArticleRepository, members MemberFinder, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{articles: articles, members: members, logger: logger}
}

// List returns every visible article in repository order. An empty board is
// a success.
func (s *Service) List(ctx context.Context) result.Result[ArticleList] {
	ctx, span := tracer.Start(ctx, "board.Service.List")
	defer span.End()

	articles, err := s.articles.FindAll(ctx)
	if err != nil {
		s.logger.ErrorContext(ctx, "list articles", "error", err)
		return finish(span, result.Fail[ArticleList](result.Internal, "could not load articles"))
	}
	span.SetAttributes(attribute.Int("articles.count", len(articles)))
	return finish(span, result.Success(result.OK, "", ArticleList{Articles: articles}))
}

func (s *Service) Find(ctx context.Context, id int64) result.Result[ArticleView] {
	ctx, span := tracer.Start(ctx, "board.Service.Find", trace.WithAttributes(attribute.Int64("article.id", id)))
	defer span.End()

	article, res := s.lookup(ctx, id)
	if res.Failed() {
		return finish(span, result.Recast[ArticleView](res))
	}
	return finish(span, result.Success(result.OK, "", ArticleView{Article: article}))
}

// Write creates an article owned by the principal's member.
func (s *Service) Write(ctx context.Context, p Principal, req WriteRequest) (result.Result[ArticleView], error) {
	ctx, span := tracer.Start(ctx, "board.Service.Write")
	defer span.End()

	member, err := s.resolve(ctx, p)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "resolve member")
		return result.Result[ArticleView]{}, err
	}
	span.SetAttributes(attribute.Int64("member.id", member.ID))

	created := s.articles.Create(ctx, member, req.Subject, req.Content)
	if created.Failed() {
		return finish(span, result.Recast[ArticleView](created)), nil
	}
	return finish(span, result.Map(created, toView)), nil
}

// Modify replaces subject and content of an article. The ownership check
// runs before any mutation is attempted.
func (s *Service) Modify(ctx context.Context, p Principal, id int64, req ModifyRequest) (result.Result[ArticleView], error) {
	ctx, span := tracer.Start(ctx, "board.Service.Modify", trace.WithAttributes(attribute.Int64("article.id", id)))
	defer span.End()

	member, article, check, err := s.authorize(ctx, span, p, id)
	if err != nil {
		return result.Result[ArticleView]{}, err
	}
	if check.Failed() {
		return finish(span, result.Recast[ArticleView](check)), nil
	}

	updated := s.articles.Update(ctx, article, req.Subject, req.Content)
	if updated.Failed() {
		return finish(span, result.Recast[ArticleView](updated)), nil
	}
	s.logger.InfoContext(ctx, "article modified", "article_id", id, "member_id", member.ID)
	return finish(span, result.Map(updated, toView)), nil
}

// CanModify reports whether member may change article.
func (s *Service) CanModify(member model.Member, article model.Article) result.Result[result.Empty] {
	return s.articles.CheckOwnership(member, article)
}

// Remove hides an article from every later read. Only the owner may remove
// it.
func (s *Service) Remove(ctx context.Context, p Principal, id int64) (result.Result[result.Empty], error) {
	ctx, span := tracer.Start(ctx, "board.Service.Remove", trace.WithAttributes(attribute.Int64("article.id", id)))
	defer span.End()

	member, article, check, err := s.authorize(ctx, span, p, id)
	if err != nil {
		return result.Result[result.Empty]{}, err
	}
	if check.Failed() {
		return finish(span, check), nil
	}

	removed := s.articles.Remove(ctx, article)
	if !removed.Failed() {
		s.logger.InfoContext(ctx, "article removed", "article_id", id, "member_id", member.ID)
	}
	return finish(span, removed), nil
}

// authorize resolves the member, loads the article and runs the ownership
// check, stopping at the first failure.
func (s *Service) authorize(ctx context.Context, span trace.Span, p Principal, id int64) (model.Member, model.Article, result.Result[result.Empty], error) {
	member, err := s.resolve(ctx, p)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "resolve member")
		return model.Member{}, model.Article{}, result.Result[result.Empty]{}, err
	}
	span.SetAttributes(attribute.Int64("member.id", member.ID))

	article, found := s.lookup(ctx, id)
	if found.Failed() {
		return member, model.Article{}, result.Recast[result.Empty](found), nil
	}
	return member, article, s.CanModify(member, article), nil
}

func (s *Service) resolve(ctx context.Context, p Principal) (model.Member, error) {
	member, ok, err := s.members.FindByUsername(ctx, p.Username)
	if err != nil {
		return model.Member{}, fmt.Errorf("resolve member %q: %w", p.Username, err)
	}
	if !ok {
		return model.Member{}, fmt.Errorf("%w: %s", ErrUnknownMember, p.Username)
	}
	return member, nil
}

// lookup turns an absent article into a NotFound failure.
func (s *Service) lookup(ctx context.Context, id int64) (model.Article, result.Result[result.Empty]) {
	article, ok, err := s.articles.FindByID(ctx, id)
	if err != nil {
		s.logger.ErrorContext(ctx, "find article", "article_id", id, "error", err)
		return model.Article{}, result.Fail[result.Empty](result.Internal, "could not load article")
	}
	if !ok {
		return model.Article{}, result.Fail[result.Empty](result.NotFound, notFoundMessage(id))
	}
	return article, result.Success(result.OK, "", result.Empty{})
}

func toView(a model.Article) ArticleView {
	return ArticleView{Article: a}
}

func finish[T any](span trace.Span, r result.Result[T]) result.Result[T] {
	span.SetAttributes(attribute.String("result.code", string(r.Code())))
	if r.Failed() {
		span.SetStatus(codes.Error, r.Message())
	}
	return r
}
