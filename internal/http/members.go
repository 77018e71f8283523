package httpapp

import (
	"errors"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/alphabot-ai/noticeboard/internal/model"
	"github.com/alphabot-ai/noticeboard/internal/store"
)

var usernamePattern = regexp.MustCompile(`^[A-Za-z0-9_.-]{1,32}$`)

// handleAuthChallenge godoc
//
//	@Summary		Request auth challenge
//	@Description	Get a challenge string to sign with your private key. This is step 1 of the auth flow.
//	@Tags			Authentication
//	@Accept			json
//	@Produce		json
//	@Param			request	body		object{alg=string}	true	"Algorithm (ed25519, secp256k1, rsa-pss, rsa-sha256)"
//	@Success		200		{object}	map[string]interface{}	"Challenge with expiration"
//	@Failure		400		{object}	map[string]string		"Invalid request"
//	@Router			/api/auth/challenge [post]
func (s *Server) handleAuthChallenge(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Alg string `json:"alg"`
	}
	if err := readJSON(r.Body, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if strings.TrimSpace(req.Alg) == "" {
		writeError(w, http.StatusBadRequest, errors.New("alg required"))
		return
	}
	challenge, err := s.auth.CreateChallenge(r.Context(), strings.TrimSpace(req.Alg))
	if err != nil {
		s.fault(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"challenge":  challenge.Challenge,
		"expires_at": challenge.ExpiresAt,
	})
}

// handleAuthVerify godoc
//
//	@Summary		Verify signature and get token
//	@Description	Exchange a challenge signed by a registered key for a bearer token.
//	@Tags			Authentication
//	@Accept			json
//	@Produce		json
//	@Param			request	body		object{alg=string,public_key=string,challenge=string,signature=string}	true	"Signed challenge"
//	@Success		200		{object}	map[string]interface{}	"Access token with expiration"
//	@Failure		400		{object}	map[string]string		"Missing fields"
//	@Failure		401		{object}	map[string]string		"Invalid signature or unknown key"
//	@Router			/api/auth/verify [post]
func (s *Server) handleAuthVerify(w http.ResponseWriter, r *http.Request) {
	var req signedChallenge
	if err := readJSON(r.Body, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if !req.complete() {
		writeError(w, http.StatusBadRequest, errors.New("missing fields"))
		return
	}
	issued, err := s.auth.VerifyAndCreateToken(r.Context(), req.Alg, req.PublicKey, req.Challenge, req.Signature)
	if err != nil {
		writeError(w, http.StatusUnauthorized, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"access_token": issued.AccessToken,
		"expires_at":   issued.ExpiresAt,
		"member_id":    issued.MemberID,
		"key_id":       issued.KeyID,
	})
}

// handleRegisterMember godoc
//
//	@Summary		Register a member
//	@Description	Create a member with a unique username, proving ownership of the key with a signed challenge.
//	@Tags			Members
//	@Accept			json
//	@Produce		json
//	@Param			member	body		object{username=string,bio=string,public_key=string,alg=string,challenge=string,signature=string}	true	"Member data with signed challenge"
//	@Success		200		{object}	map[string]interface{}	"Member and key IDs"
//	@Failure		400		{object}	map[string]string		"Missing fields"
//	@Failure		401		{object}	map[string]string		"Invalid signature"
//	@Failure		409		{object}	map[string]string		"Username taken or key exists"
//	@Router			/api/members [post]
func (s *Server) handleRegisterMember(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
		Bio      string `json:"bio"`
		signedChallenge
	}
	if err := readJSON(r.Body, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	username := strings.TrimSpace(req.Username)
	if username == "" || !req.complete() {
		writeError(w, http.StatusBadRequest, errors.New("missing fields"))
		return
	}
	if !usernamePattern.MatchString(username) {
		writeError(w, http.StatusBadRequest, errors.New("username must be 1-32 letters, digits, '.', '_' or '-'"))
		return
	}

	if err := s.auth.VerifyChallenge(r.Context(), req.Alg, req.PublicKey, req.Challenge, req.Signature); err != nil {
		writeError(w, http.StatusUnauthorized, err)
		return
	}

	now := time.Now()
	member := model.Member{Username: username, Bio: strings.TrimSpace(req.Bio), CreatedAt: now}
	key := model.MemberKey{Alg: req.Alg, PublicKey: req.PublicKey, CreatedAt: now}
	memberID, keyID, err := s.store.CreateMember(r.Context(), &member, &key)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrDuplicateName):
			writeError(w, http.StatusConflict, errors.New("username already taken"))
		case errors.Is(err, store.ErrDuplicateKey):
			writeError(w, http.StatusConflict, errors.New("key already registered"))
		default:
			s.fault(w, r, err)
		}
		return
	}
	s.logger.InfoContext(r.Context(), "member registered", "member_id", memberID, "username", username)
	writeJSON(w, http.StatusOK, map[string]any{"member_id": memberID, "key_id": keyID})
}

// handleGetMember godoc
//
//	@Summary		Get member profile
//	@Description	Get a member's public profile with their most recent articles
//	@Tags			Members
//	@Produce		json
//	@Param			id	path		int	true	"Member ID"
//	@Success		200	{object}	map[string]interface{}	"Member with active keys and articles"
//	@Failure		404	{object}	map[string]string		"Member not found"
//	@Router			/api/members/{id} [get]
func (s *Server) handleGetMember(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, errors.New("invalid member id"))
		return
	}
	member, err := s.store.GetMember(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, errors.New("member not found"))
		return
	}
	if err != nil {
		s.fault(w, r, err)
		return
	}
	keys, err := s.store.GetMemberKeys(r.Context(), id)
	if err != nil {
		s.fault(w, r, err)
		return
	}
	articles, err := s.store.ListArticlesByMember(r.Context(), id, 20)
	if err != nil {
		s.fault(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"member":   member,
		"keys":     keys,
		"articles": articles,
	})
}

// handleRevokeKey godoc
//
//	@Summary		Revoke a key
//	@Description	Revoke one of the caller's keys. Tokens issued with that key stop working.
//	@Tags			Members
//	@Produce		json
//	@Security		BearerAuth
//	@Param			id	path		int	true	"Key ID"
//	@Success		200	{object}	map[string]bool		"Key revoked"
//	@Failure		400	{object}	map[string]string	"Invalid key id"
//	@Failure		401	{object}	Envelope			"Unauthorized"
//	@Failure		404	{object}	map[string]string	"Key not found"
//	@Router			/api/members/me/keys/{id} [delete]
func (s *Server) handleRevokeKey(w http.ResponseWriter, r *http.Request) {
	p, ok := s.principal(w, r)
	if !ok {
		return
	}
	keyID, ok := pathID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, errors.New("invalid key id"))
		return
	}
	if err := s.store.RevokeMemberKey(r.Context(), p.MemberID, keyID, time.Now()); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, errors.New("key not found"))
			return
		}
		s.fault(w, r, err)
		return
	}
	s.logger.InfoContext(r.Context(), "key revoked", "member_id", p.MemberID, "key_id", keyID)
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

// handleAdminDeleteMember godoc
//
//	@Summary		Delete a member
//	@Description	Delete a member, revoke their tokens and hide their articles. Requires admin secret.
//	@Tags			Admin
//	@Accept			json
//	@Produce		json
//	@Param			X-Admin-Secret	header		string					true	"Admin secret"
//	@Param			member			body		object{member_id=int}	true	"Member to delete"
//	@Success		200				{object}	map[string]bool		"Member deleted"
//	@Failure		401				{object}	map[string]string	"Invalid admin secret"
//	@Failure		404				{object}	map[string]string	"Member not found"
//	@Router			/api/admin/delete-member [post]
func (s *Server) handleAdminDeleteMember(w http.ResponseWriter, r *http.Request) {
	if r.Header.Get("X-Admin-Secret") != s.cfg.AdminSecret {
		writeError(w, http.StatusUnauthorized, errors.New("unauthorized"))
		return
	}
	var req struct {
		MemberID int64 `json:"member_id"`
	}
	if err := readJSON(r.Body, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if req.MemberID == 0 {
		writeError(w, http.StatusBadRequest, errors.New("member_id required"))
		return
	}
	if err := s.store.DeleteMember(r.Context(), req.MemberID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, errors.New("member not found"))
			return
		}
		s.fault(w, r, err)
		return
	}
	s.logger.InfoContext(r.Context(), "member deleted", "member_id", req.MemberID)
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

type signedChallenge struct {
	Alg       string `json:"alg"`
	PublicKey string `json:"public_key"`
	Challenge string `json:"challenge"`
	Signature string `json:"signature"`
}

// complete trims every field and reports whether all are set.
func (c *signedChallenge) complete() bool {
	c.Alg = strings.TrimSpace(c.Alg)
	c.PublicKey = strings.TrimSpace(c.PublicKey)
	c.Challenge = strings.TrimSpace(c.Challenge)
	c.Signature = strings.TrimSpace(c.Signature)
	return c.Alg != "" && c.PublicKey != "" && c.Challenge != "" && c.Signature != ""
}

