package httpapp

import (
	"net/http"
	"strings"

	"github.com/alphabot-ai/noticeboard/internal/auth"
	"github.com/alphabot-ai/noticeboard/internal/board"
	"github.com/alphabot-ai/noticeboard/internal/result"
)

// handleListArticles godoc
//
//	@Summary		List articles
//	@Description	Get every article, newest first. An empty board is still a success.
//	@Tags			Articles
//	@Produce		json
//	@Success		200	{object}	ArticleListEnvelope
//	@Router			/api/articles [get]
func (s *Server) handleListArticles(w http.ResponseWriter, r *http.Request) {
	writeResult(w, s.board.List(r.Context()))
}

// handleFindArticle godoc
//
//	@Summary		Get an article
//	@Description	Get a single article by ID
//	@Tags			Articles
//	@Produce		json
//	@Param			id	path		int	true	"Article ID"
//	@Success		200	{object}	ArticleEnvelope
//	@Failure		400	{object}	Envelope	"Invalid article id"
//	@Failure		404	{object}	Envelope	"Article does not exist"
//	@Router			/api/articles/{id} [get]
func (s *Server) handleFindArticle(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeResult(w, result.Fail[result.Empty](result.BadRequest, "invalid article id"))
		return
	}
	writeResult(w, s.board.Find(r.Context(), id))
}

// handleWriteArticle godoc
//
//	@Summary		Write an article
//	@Description	Create an article owned by the authenticated member. Requires authentication.
//	@Tags			Articles
//	@Accept			json
//	@Produce		json
//	@Security		BearerAuth
//	@Param			article	body		board.WriteRequest	true	"Subject and content"
//	@Success		201		{object}	ArticleEnvelope
//	@Failure		400		{object}	Envelope	"Missing subject or content"
//	@Failure		401		{object}	Envelope	"Unauthorized"
//	@Failure		429		{object}	Envelope	"Rate limit exceeded"
//	@Router			/api/articles [post]
func (s *Server) handleWriteArticle(w http.ResponseWriter, r *http.Request) {
	p, ok := s.principal(w, r)
	if !ok {
		return
	}
	var req board.WriteRequest
	if !decodeArticle(w, r, &req.Subject, &req.Content, &req) {
		return
	}
	if !s.allowRateLimit(w, r, "write", p.MemberID, s.cfg.RateLimits.WritePerMinute) {
		return
	}

	res, err := s.board.Write(r.Context(), boardPrincipal(p), req)
	if err != nil {
		s.fault(w, r, err)
		return
	}
	writeResult(w, res)
}

// handleModifyArticle godoc
//
//	@Summary		Modify an article
//	@Description	Replace subject and content of your own article. Requires authentication.
//	@Tags			Articles
//	@Accept			json
//	@Produce		json
//	@Security		BearerAuth
//	@Param			id		path		int					true	"Article ID"
//	@Param			article	body		board.ModifyRequest	true	"New subject and content"
//	@Success		200		{object}	ArticleEnvelope
//	@Failure		400		{object}	Envelope	"Invalid id or missing fields"
//	@Failure		401		{object}	Envelope	"Unauthorized"
//	@Failure		403		{object}	Envelope	"Not the owner"
//	@Failure		404		{object}	Envelope	"Article does not exist"
//	@Router			/api/articles/{id} [patch]
func (s *Server) handleModifyArticle(w http.ResponseWriter, r *http.Request) {
	p, ok := s.principal(w, r)
	if !ok {
		return
	}
	id, ok := pathID(r)
	if !ok {
		writeResult(w, result.Fail[result.Empty](result.BadRequest, "invalid article id"))
		return
	}
	var req board.ModifyRequest
	if !decodeArticle(w, r, &req.Subject, &req.Content, &req) {
		return
	}
	if !s.allowRateLimit(w, r, "modify", p.MemberID, s.cfg.RateLimits.ModifyPerMinute) {
		return
	}

	res, err := s.board.Modify(r.Context(), boardPrincipal(p), id, req)
	if err != nil {
		s.fault(w, r, err)
		return
	}
	writeResult(w, res)
}

// handleRemoveArticle godoc
//
//	@Summary		Remove an article
//	@Description	Remove your own article. Removed articles are hidden from every later read. Requires authentication.
//	@Tags			Articles
//	@Produce		json
//	@Security		BearerAuth
//	@Param			id	path		int	true	"Article ID"
//	@Success		200	{object}	Envelope
//	@Failure		401	{object}	Envelope	"Unauthorized"
//	@Failure		403	{object}	Envelope	"Not the owner"
//	@Failure		404	{object}	Envelope	"Article does not exist"
//	@Router			/api/articles/{id} [delete]
func (s *Server) handleRemoveArticle(w http.ResponseWriter, r *http.Request) {
	p, ok := s.principal(w, r)
	if !ok {
		return
	}
	id, ok := pathID(r)
	if !ok {
		writeResult(w, result.Fail[result.Empty](result.BadRequest, "invalid article id"))
		return
	}
	if !s.allowRateLimit(w, r, "modify", p.MemberID, s.cfg.RateLimits.ModifyPerMinute) {
		return
	}

	res, err := s.board.Remove(r.Context(), boardPrincipal(p), id)
	if err != nil {
		s.fault(w, r, err)
		return
	}
	writeResult(w, res)
}

// decodeArticle reads the request body into dest and trims the subject and
// content it points at. Both must be non-blank.
func decodeArticle(w http.ResponseWriter, r *http.Request, subject, content *string, dest any) bool {
	if err := readJSON(r.Body, dest); err != nil {
		writeResult(w, result.Fail[result.Empty](result.BadRequest, "invalid request body"))
		return false
	}
	*subject = strings.TrimSpace(*subject)
	*content = strings.TrimSpace(*content)
	if *subject == "" || *content == "" {
		writeResult(w, result.Fail[result.Empty](result.BadRequest, "subject and content are required"))
		return false
	}
	return true
}

func boardPrincipal(p auth.Principal) board.Principal {
	return board.Principal{Username: p.Username}
}

// Envelope documents the response shape of article endpoints.
type Envelope struct {
	Code    string `json:"code" example:"F404"`
	Message string `json:"message" example:"article 7 does not exist"`
}

type ArticleEnvelope struct {
	Envelope
	Data board.ArticleView `json:"data"`
}

type ArticleListEnvelope struct {
	Envelope
	Data board.ArticleList `json:"data"`
}
