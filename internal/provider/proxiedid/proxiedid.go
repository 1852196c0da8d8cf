// SPDX-License-Identifier: MIT

// Package proxiedid implements the StreamingProvider capability against an
// upstream keyed by its own proprietary numeric id space (Watchmode).
package proxiedid

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/JacobDahan/occam-api/internal/apperr"
	"github.com/JacobDahan/occam-api/internal/cache"
	"github.com/JacobDahan/occam-api/internal/model"
	"github.com/JacobDahan/occam-api/internal/provider"
	"github.com/JacobDahan/occam-api/internal/provider/quota"
)

const (
	titleCacheTTL      = 3600 * time.Second
	availCacheTTL      = 604800 * time.Second
	idMappingCacheTTL  = 2592000 * time.Second // 30 days: the id mapping is stable
)

// ServiceMapping is the canonical service a native service id resolves to,
// loaded at startup from the relational catalog.
type ServiceMapping struct {
	ID   string
	Name string
}

// Provider is the proxied-id StreamingProvider. serviceMappings is loaded
// once at startup from the relational catalog and never mutated after.
type Provider struct {
	http            *http.Client
	apiKey          string
	apiURL          string
	cache           *cache.Cache
	logger          zerolog.Logger
	quota           *quota.Tracker
	serviceMappings map[int64]ServiceMapping
}

// New builds a proxied-id provider. serviceMappings maps a native service
// id to its canonical (id, name), loaded at startup from the catalog
// repository's NativeServiceMapping.
func New(httpClient *http.Client, apiKey, apiURL string, c *cache.Cache, logger zerolog.Logger, quotaTracker *quota.Tracker, serviceMappings map[int64]ServiceMapping) *Provider {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &Provider{
		http:            httpClient,
		apiKey:          apiKey,
		apiURL:          strings.TrimRight(apiURL, "/"),
		cache:           c,
		logger:          logger,
		quota:           quotaTracker,
		serviceMappings: serviceMappings,
	}
}

// Name reports the provider's static identity for logging.
func (p *Provider) Name() string { return "proxied-id" }

type searchResultDTO struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	Type     string `json:"type"`
	Year     *int   `json:"year"`
	ImdbID   string `json:"imdb_id"`
}

type searchResponseDTO struct {
	Results []searchResultDTO `json:"results"`
}

type idSearchResponseDTO struct {
	TitleResults []searchResultDTO `json:"title_results"`
}

type sourceDTO struct {
	SourceID   int64   `json:"source_id"`
	Name       string  `json:"name"`
	SourceType string  `json:"type"`
	Format     *string `json:"format"`
	WebURL     *string `json:"web_url"`
}

type detailsDTO struct {
	Sources []sourceDTO `json:"sources"`
}

func (d searchResultDTO) toTitle() model.Title {
	var overview *string
	return model.Title{
		ID:          model.Native(uint64(d.ID)),
		Title:       d.Name,
		TitleType:   model.ParseTitleType(d.Type),
		ReleaseYear: d.Year,
		Overview:    overview,
	}
}

// SearchTitles searches by free-text title. Results carrying an IMDB id
// opportunistically prime the Imdb→native cache; a DTO without an IMDB id
// logs at debug and gets no id-mapping entry, but is still returned (and
// cached with the rest of the search result). It is always returned as a
// Native-keyed Title regardless, since this provider's own upstream only
// ever resolves availability by its native id space.
func (p *Provider) SearchTitles(ctx context.Context, query string) ([]model.Title, error) {
	trimmed := strings.TrimSpace(query)
	if trimmed == "" {
		return nil, apperr.InvalidInput("Search query cannot be empty")
	}

	key := model.TitleSearchKey(trimmed)
	return cache.Cached(ctx, p.cache, key, titleCacheTTL, func() ([]model.Title, error) {
		reqURL := fmt.Sprintf("%s/v1/autocomplete-search/?apiKey=%s&search_value=%s&search_type=1",
			p.apiURL, url.QueryEscape(p.apiKey), url.QueryEscape(trimmed))

		var resp searchResponseDTO
		if err := p.getJSON(ctx, reqURL, &resp); err != nil {
			return nil, err
		}

		titles := make([]model.Title, len(resp.Results))
		for i, r := range resp.Results {
			if r.ImdbID != "" {
				cache.SetInBackground(p.cache, model.ImdbToNativeKey(r.ImdbID), r.ID, idMappingCacheTTL)
			} else {
				p.logger.Debug().Int64("native_id", r.ID).Msg("search result has no IMDB id, skipping id-mapping cache")
			}
			titles[i] = r.toTitle()
		}

		p.logger.Info().Str("query", trimmed).Int("results", len(titles)).
			Str("provider", p.Name()).Msg("title search completed")
		return titles, nil
	})
}

// FetchAvailability resolves id to a native id (directly, or via the
// cached/upstream Imdb→native mapping), fetches its details, and maps
// sources to ServiceAvailability using the startup-loaded service mapping
// table. The returned StreamingAvailability.ID is always the originally
// requested id, never the native id resolved internally.
func (p *Provider) FetchAvailability(ctx context.Context, id model.TitleID) (model.StreamingAvailability, error) {
	nativeID, err := p.resolveNativeID(ctx, id)
	if err != nil {
		return model.StreamingAvailability{}, err
	}

	key := model.AvailabilityKey(id.String())
	return cache.Cached(ctx, p.cache, key, availCacheTTL, func() (model.StreamingAvailability, error) {
		reqURL := fmt.Sprintf("%s/v1/title/%d/details/?apiKey=%s&append_to_response=sources&regions=US",
			p.apiURL, nativeID, url.QueryEscape(p.apiKey))

		var details detailsDTO
		if err := p.getJSON(ctx, reqURL, &details); err != nil {
			return model.StreamingAvailability{}, err
		}

		var services []model.ServiceAvailability
		for _, src := range details.Sources {
			entry, ok := p.serviceMappings[src.SourceID]
			if !ok {
				p.logger.Debug().Int64("native_service_id", src.SourceID).Str("name", src.Name).
					Msg("unknown native service id, skipping source")
				continue
			}
			availType, ok := parseAvailabilityType(src.SourceType)
			if !ok {
				continue
			}
			services = append(services, model.ServiceAvailability{
				ServiceID:        entry.ID,
				ServiceName:      entry.Name,
				AvailabilityType: availType,
				Quality:          src.Format,
				Link:             src.WebURL,
			})
		}

		p.logger.Info().Uint64("native_id", nativeID).Int("services", len(services)).
			Str("provider", p.Name()).Msg("availability fetched")

		return model.StreamingAvailability{
			ID:       id,
			Services: services,
			CachedAt: time.Now(),
		}, nil
	})
}

// FetchAvailabilityBatch fans out FetchAvailability in parallel.
func (p *Provider) FetchAvailabilityBatch(ctx context.Context, ids []model.TitleID) ([]model.StreamingAvailability, error) {
	return provider.DefaultFetchAvailabilityBatch(ctx, p, ids, p.logger)
}

func (p *Provider) resolveNativeID(ctx context.Context, id model.TitleID) (uint64, error) {
	if id.IsNative() {
		return id.Native, nil
	}

	imdb := id.Imdb
	key := model.ImdbToNativeKey(imdb)
	return cache.Cached(ctx, p.cache, key, idMappingCacheTTL, func() (uint64, error) {
		reqURL := fmt.Sprintf("%s/v1/search/?apiKey=%s&search_field=imdb_id&search_value=%s",
			p.apiURL, url.QueryEscape(p.apiKey), url.QueryEscape(imdb))

		var resp idSearchResponseDTO
		if err := p.getJSON(ctx, reqURL, &resp); err != nil {
			return 0, err
		}
		if len(resp.TitleResults) == 0 {
			return 0, apperr.ExternalAPI("No native ID found for IMDB %s", imdb)
		}
		return uint64(resp.TitleResults[0].ID), nil
	})
}

func parseAvailabilityType(raw string) (model.AvailabilityType, bool) {
	switch strings.ToLower(raw) {
	case "sub", "subscription":
		return model.AvailabilitySubscription, true
	case "rent":
		return model.AvailabilityRent, true
	case "buy", "purchase":
		return model.AvailabilityBuy, true
	case "free":
		return model.AvailabilityFree, true
	case "addon":
		return model.AvailabilityAddon, true
	default:
		return "", false
	}
}

func (p *Provider) getJSON(ctx context.Context, targetURL string, out any) error {
	if p.quota != nil {
		if err := p.quota.CheckQuota(ctx); err != nil {
			return err
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, targetURL, nil)
	if err != nil {
		return apperr.InternalWrap(err, "proxied-id: build request failed")
	}

	resp, err := p.http.Do(req)
	if err != nil {
		return apperr.ExternalAPIWrap(err, "proxied-id: request failed")
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 8*1024))
		return apperr.ExternalAPI("Watchmode API returned status %d: %s", resp.StatusCode, string(body))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return apperr.ExternalAPIWrap(err, "proxied-id: decode response failed")
	}

	if p.quota != nil {
		go p.quota.RecordCall(context.Background())
	}
	return nil
}
