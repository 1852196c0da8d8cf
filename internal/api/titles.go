// SPDX-License-Identifier: MIT

package api

import (
	"net/http"

	"github.com/JacobDahan/occam-api/internal/log"
	"github.com/JacobDahan/occam-api/internal/model"
)

func (s *Server) handleSearchTitles(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")

	titles, err := s.provider.SearchTitles(r.Context(), q)
	if err != nil {
		log.FromContext(r.Context()).Warn().Err(err).Str("query", q).Msg("title search failed")
		writeError(w, err)
		return
	}
	if titles == nil {
		titles = []model.Title{}
	}
	writeJSON(w, http.StatusOK, titles)
}
