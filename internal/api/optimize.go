// SPDX-License-Identifier: MIT

package api

import (
	"encoding/json"
	"net/http"

	"github.com/JacobDahan/occam-api/internal/apperr"
	"github.com/JacobDahan/occam-api/internal/log"
	"github.com/JacobDahan/occam-api/internal/model"
	"github.com/JacobDahan/occam-api/internal/optimizer"
)

func (s *Server) handleOptimize(w http.ResponseWriter, r *http.Request) {
	logger := log.FromContext(r.Context())

	var req model.OptimizationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperr.InvalidInput("request body is not valid JSON"))
		return
	}

	combined := dedupeTitleIDs(append(append([]model.TitleID{}, req.MustHave...), req.NiceToHave...))

	availability, err := s.provider.FetchAvailabilityBatch(r.Context(), combined)
	if err != nil {
		logger.Warn().Err(err).Int("title_count", len(combined)).Msg("optimize: availability batch failed")
		writeError(w, err)
		return
	}

	catalogEntries, err := s.catalog.ServiceInfoByIDs(r.Context(), distinctSubscriptionServiceIDs(availability))
	if err != nil {
		logger.Error().Err(err).Msg("optimize: catalog lookup failed")
		writeError(w, err)
		return
	}

	resp, err := optimizer.Solve(req, availability, catalogEntries, s.weights, logger)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

func dedupeTitleIDs(ids []model.TitleID) []model.TitleID {
	seen := make(map[model.TitleID]struct{}, len(ids))
	out := make([]model.TitleID, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

func distinctSubscriptionServiceIDs(availability []model.StreamingAvailability) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, a := range availability {
		for _, svc := range a.SubscriptionServices() {
			if _, ok := seen[svc.ServiceID]; ok {
				continue
			}
			seen[svc.ServiceID] = struct{}{}
			out = append(out, svc.ServiceID)
		}
	}
	return out
}
