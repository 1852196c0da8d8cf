// SPDX-License-Identifier: MIT

package api

import (
	"encoding/json"
	"net/http"

	"github.com/JacobDahan/occam-api/internal/apperr"
	"github.com/JacobDahan/occam-api/internal/model"
)

// handleRecommendations is a literal stub: the wire contract (request
// shape, response shape) is part of the HTTP surface, but ranking titles
// against a user's taste and subscriptions is unimplemented.
func (s *Server) handleRecommendations(w http.ResponseWriter, r *http.Request) {
	var req model.RecommendationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperr.InvalidInput("request body is not valid JSON"))
		return
	}

	writeJSON(w, http.StatusOK, []model.Title{})
}
