package httpapp

import (
	"net/http"

	"github.com/swaggo/swag"
)

// handleGetStats godoc
//
//	@Summary		Get site statistics
//	@Description	Get counts of members and visible articles
//	@Tags			Stats
//	@Produce		json
//	@Success		200	{object}	model.SiteStats	"Site statistics"
//	@Router			/api/stats [get]
func (s *Server) handleGetStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.store.GetSiteStats(r.Context())
	if err != nil {
		s.fault(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// handleVersion godoc
//
//	@Summary		Get build information
//	@Tags			Stats
//	@Produce		json
//	@Success		200	{object}	BuildInfo
//	@Router			/api/version [get]
func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.build)
}

func (s *Server) serveOpenAPIJSON(w http.ResponseWriter, r *http.Request) {
	doc, err := swag.ReadDoc()
	if err != nil {
		s.fault(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	_, _ = w.Write([]byte(doc))
}
