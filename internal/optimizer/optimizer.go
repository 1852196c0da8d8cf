// SPDX-License-Identifier: MIT

// Package optimizer solves the subscription-selection problem: given a set
// of must-have and nice-to-have titles, their batched availability, and the
// service catalog, it picks the service bundle(s) that satisfy every
// available must-have title at minimum cost, biased toward nice-to-have
// coverage across a spectrum of bonus weights.
//
// No dependency in this module's reach provides linear/integer programming,
// so the program is solved directly: catalogs reaching this stage are
// already restricted to services that appear in the batch's availability
// results, which keeps them small enough for exhaustive search over the
// power set to be the simplest correct solver. See DESIGN.md.
package optimizer

import (
	"sort"

	"github.com/rs/zerolog"

	"github.com/JacobDahan/occam-api/internal/apperr"
	"github.com/JacobDahan/occam-api/internal/model"
)

// DefaultWeights is the cost-focused→coverage-focused spectrum the
// optimizer sweeps when the caller does not override it via configuration.
var DefaultWeights = []float64{0.1, 1.0, 3.0, 10.0, 100.0}

// maxExhaustiveServices bounds the power-set search. Catalogs are filtered
// to services that actually appear in the batch's availability results, so
// in practice this is never approached; beyond it, solveWeight falls back
// to a greedy heuristic rather than enumerating an intractable power set.
const maxExhaustiveServices = 22

// Solve computes the ordered configuration spectrum for req, given the
// batched availability for every title named in it and the active service
// catalog. weights defaults to DefaultWeights when nil or empty.
func Solve(req model.OptimizationRequest, availability []model.StreamingAvailability, catalog []model.ServiceInfo, weights []float64, logger zerolog.Logger) (model.OptimizationResponse, error) {
	mustHave := dedupe(req.MustHave)
	niceToHave := dedupe(req.NiceToHave)

	if len(mustHave) == 0 && len(niceToHave) == 0 {
		return model.OptimizationResponse{}, apperr.InvalidInput("must_have and nice_to_have cannot both be empty")
	}

	if len(weights) == 0 {
		weights = DefaultWeights
	}

	coverage := buildCoverageIndex(availability)

	availableMust, unavailableMust := partitionByAvailability(mustHave, coverage)
	availableNice, unavailableNice := partitionByAvailability(niceToHave, coverage)

	// The catalog is restricted to ids with a subscription entry anywhere in
	// the supplied availability batch, not merely those covering the requested titles:
	// the batch is the caller's view of "what's out there" for this
	// request, independent of which specific titles ended up unavailable.
	filteredCatalog := filterCatalog(catalog, allServiceIDs(coverage))

	if len(filteredCatalog) == 0 {
		return model.OptimizationResponse{}, apperr.Optimization("No streaming services found for provided titles")
	}

	if len(mustHave) > 0 && len(availableMust) == 0 {
		logger.Warn().Int("must_have_requested", len(mustHave)).
			Msg("optimizer: every must-have title is unavailable on any cataloged service")
		return model.OptimizationResponse{
			Configurations:        []model.ServiceConfiguration{},
			UnavailableMustHave:   unavailableMust,
			UnavailableNiceToHave: unavailableNice,
		}, nil
	}

	sort.Slice(filteredCatalog, func(i, j int) bool { return filteredCatalog[i].ID < filteredCatalog[j].ID })

	mustConstraints := coverageIndices(filteredCatalog, coverage, availableMust)
	niceConstraints := coverageIndices(filteredCatalog, coverage, availableNice)

	configs := make([]model.ServiceConfiguration, 0, len(weights))
	seen := make(map[string]struct{}, len(weights))

	for _, w := range weights {
		selected := solveWeight(filteredCatalog, mustConstraints, niceConstraints, w)
		signature := canonicalSignature(filteredCatalog, selected)
		if _, dup := seen[signature]; dup {
			continue
		}
		seen[signature] = struct{}{}

		configs = append(configs, buildConfiguration(filteredCatalog, selected, len(availableMust), niceConstraints))
	}

	return model.OptimizationResponse{
		Configurations:        configs,
		UnavailableMustHave:   unavailableMust,
		UnavailableNiceToHave: unavailableNice,
	}, nil
}

// dedupe removes repeated ids, preserving first-seen order.
func dedupe(ids []model.TitleID) []model.TitleID {
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

// buildCoverageIndex maps each title to the subscription-service ids that
// carry it, from the batched availability results. Non-subscription
// entries (rent/buy/free/addon) are not coverage for optimization purposes.
func buildCoverageIndex(availability []model.StreamingAvailability) map[model.TitleID][]string {
	index := make(map[model.TitleID][]string, len(availability))
	for _, a := range availability {
		for _, s := range a.SubscriptionServices() {
			index[a.ID] = append(index[a.ID], s.ServiceID)
		}
	}
	return index
}

// partitionByAvailability splits ids into those with at least one
// subscription service and those with none.
func partitionByAvailability(ids []model.TitleID, coverage map[model.TitleID][]string) (available, unavailable []model.TitleID) {
	available = []model.TitleID{}
	unavailable = []model.TitleID{}
	for _, id := range ids {
		if len(coverage[id]) > 0 {
			available = append(available, id)
		} else {
			unavailable = append(unavailable, id)
		}
	}
	return available, unavailable
}

// allServiceIDs collects every distinct service id appearing anywhere in
// the coverage index.
func allServiceIDs(coverage map[model.TitleID][]string) map[string]struct{} {
	out := make(map[string]struct{})
	for _, services := range coverage {
		for _, s := range services {
			out[s] = struct{}{}
		}
	}
	return out
}

func filterCatalog(catalog []model.ServiceInfo, usedIDs map[string]struct{}) []model.ServiceInfo {
	out := make([]model.ServiceInfo, 0, len(catalog))
	for _, svc := range catalog {
		if _, ok := usedIDs[svc.ID]; ok {
			out = append(out, svc)
		}
	}
	return out
}

// coverageIndices maps each of titles to the indices, within catalog, of
// the services that cover it. Titles with no covering index in catalog are
// skipped (already filtered out as unavailable upstream).
func coverageIndices(catalog []model.ServiceInfo, coverage map[model.TitleID][]string, titles []model.TitleID) [][]int {
	indexOf := make(map[string]int, len(catalog))
	for i, svc := range catalog {
		indexOf[svc.ID] = i
	}

	out := make([][]int, 0, len(titles))
	for _, t := range titles {
		var idxs []int
		for _, serviceID := range coverage[t] {
			if i, ok := indexOf[serviceID]; ok {
				idxs = append(idxs, i)
			}
		}
		if len(idxs) > 0 {
			out = append(out, idxs)
		}
	}
	return out
}

// solveWeight returns the selected services (one bool per catalog index) minimizing
// Σcost·x − weight·Σ(nice-to-have coverage) subject to every must-have
// constraint being satisfied.
func solveWeight(catalog []model.ServiceInfo, mustConstraints, niceConstraints [][]int, weight float64) []bool {
	n := len(catalog)
	if n <= maxExhaustiveServices {
		return solveExhaustive(catalog, mustConstraints, niceConstraints, weight)
	}
	return solveGreedy(catalog, mustConstraints, niceConstraints, weight)
}

func solveExhaustive(catalog []model.ServiceInfo, mustConstraints, niceConstraints [][]int, weight float64) []bool {
	n := len(catalog)
	best := make([]bool, n)
	bestObjective := 0.0
	found := false

	total := 1 << uint(n)
	for mask := 0; mask < total; mask++ {
		if !satisfiesAll(mask, mustConstraints) {
			continue
		}
		objective := objectiveFor(catalog, niceConstraints, mask, weight)
		if !found || objective < bestObjective {
			found = true
			bestObjective = objective
			best = maskToBools(mask, n)
		}
	}
	return best
}

func satisfiesAll(mask int, constraints [][]int) bool {
	for _, idxs := range constraints {
		covered := false
		for _, i := range idxs {
			if mask&(1<<uint(i)) != 0 {
				covered = true
				break
			}
		}
		if !covered {
			return false
		}
	}
	return true
}

func objectiveFor(catalog []model.ServiceInfo, niceConstraints [][]int, mask int, weight float64) float64 {
	cost := 0.0
	for i, svc := range catalog {
		if mask&(1<<uint(i)) != 0 {
			cost += svc.MonthlyCost
		}
	}
	bonus := 0
	for _, idxs := range niceConstraints {
		for _, i := range idxs {
			if mask&(1<<uint(i)) != 0 {
				bonus++
				break
			}
		}
	}
	return cost - weight*float64(bonus)
}

func maskToBools(mask, n int) []bool {
	out := make([]bool, n)
	for i := 0; i < n; i++ {
		out[i] = mask&(1<<uint(i)) != 0
	}
	return out
}

// solveGreedy is a heuristic fallback for catalogs too large to enumerate
// exhaustively: it first assembles a feasible cover for every must-have
// constraint (each round, the service covering the most still-uncovered
// constraints, the cheaper one on ties), then adds
// any remaining service whose nice-to-have bonus outweighs its cost.
func solveGreedy(catalog []model.ServiceInfo, mustConstraints, niceConstraints [][]int, weight float64) []bool {
	n := len(catalog)
	selected := make([]bool, n)

	uncovered := make([]bool, len(mustConstraints))
	for i := range uncovered {
		uncovered[i] = true
	}

	for {
		remaining := 0
		for _, u := range uncovered {
			if u {
				remaining++
			}
		}
		if remaining == 0 {
			break
		}

		bestService, bestCovers, bestCost := -1, 0, 0.0
		for i, svc := range catalog {
			if selected[i] {
				continue
			}
			covers := 0
			for ci, idxs := range mustConstraints {
				if !uncovered[ci] {
					continue
				}
				for _, si := range idxs {
					if si == i {
						covers++
						break
					}
				}
			}
			if covers == 0 {
				continue
			}
			if bestService == -1 || covers > bestCovers || (covers == bestCovers && svc.MonthlyCost < bestCost) {
				bestService, bestCovers, bestCost = i, covers, svc.MonthlyCost
			}
		}
		if bestService == -1 {
			// No remaining service covers any uncovered constraint; the
			// constraint set is infeasible with this catalog. Leave it
			// unmet rather than loop forever.
			break
		}
		selected[bestService] = true
		for ci, idxs := range mustConstraints {
			if !uncovered[ci] {
				continue
			}
			for _, si := range idxs {
				if si == bestService {
					uncovered[ci] = false
					break
				}
			}
		}
	}

	for i, svc := range catalog {
		if selected[i] {
			continue
		}
		bonus := 0
		for _, idxs := range niceConstraints {
			for _, si := range idxs {
				if si == i {
					bonus++
					break
				}
			}
		}
		if weight*float64(bonus) > svc.MonthlyCost {
			selected[i] = true
		}
	}

	return selected
}

func canonicalSignature(catalog []model.ServiceInfo, selected []bool) string {
	ids := make([]string, 0, len(catalog))
	for i, svc := range catalog {
		if selected[i] {
			ids = append(ids, svc.ID)
		}
	}
	sort.Strings(ids)
	signature := ""
	for i, id := range ids {
		if i > 0 {
			signature += ","
		}
		signature += id
	}
	return signature
}

func buildConfiguration(catalog []model.ServiceInfo, selected []bool, mustHaveCoverage int, niceConstraints [][]int) model.ServiceConfiguration {
	var services []model.ServiceInfo
	var totalCost float64
	for i, svc := range catalog {
		if selected[i] {
			services = append(services, svc)
			totalCost += svc.MonthlyCost
		}
	}

	niceCoverage := 0
	for _, idxs := range niceConstraints {
		for _, i := range idxs {
			if selected[i] {
				niceCoverage++
				break
			}
		}
	}

	return model.ServiceConfiguration{
		Services:           services,
		TotalCost:          roundCurrency(totalCost),
		MustHaveCoverage:   mustHaveCoverage,
		NiceToHaveCoverage: niceCoverage,
	}
}

// roundCurrency rounds to the nearest cent, clearing float64 summation
// drift (e.g. 15.49 + 7.99 landing a hair off 23.48).
func roundCurrency(v float64) float64 {
	return float64(int64(v*100+0.5)) / 100
}
