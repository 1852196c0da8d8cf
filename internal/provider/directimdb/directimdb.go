// SPDX-License-Identifier: MIT

// Package directimdb implements the StreamingProvider capability against
// an upstream that returns IMDB-keyed show data directly (RapidAPI's
// Streaming Availability API).
package directimdb

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
	titleCacheTTL = 3600 * time.Second
	availCacheTTL = 604800 * time.Second
	searchCountry = "us"
)

// Provider is the direct-IMDB StreamingProvider.
type Provider struct {
	http   *http.Client
	apiKey string
	apiURL string
	cache  *cache.Cache
	logger zerolog.Logger
	quota  *quota.Tracker
}

// New builds a direct-IMDB provider. quotaTracker may be nil to disable
// usage tracking (e.g. in tests).
func New(httpClient *http.Client, apiKey, apiURL string, c *cache.Cache, logger zerolog.Logger, quotaTracker *quota.Tracker) *Provider {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &Provider{
		http:   httpClient,
		apiKey: apiKey,
		apiURL: strings.TrimRight(apiURL, "/"),
		cache:  c,
		logger: logger,
		quota:  quotaTracker,
	}
}

// Name reports the provider's static identity for logging.
func (p *Provider) Name() string { return "direct-imdb" }

type apiShow struct {
	ID           string `json:"id"`
	ImdbID       string `json:"imdbId"`
	Title        string `json:"title"`
	ShowType     string `json:"showType"`
	Overview     string `json:"overview"`
	ReleaseYear  *int   `json:"releaseYear"`
	FirstAirYear *int   `json:"firstAirYear"`
}

type apiService struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type apiStreamingOption struct {
	Service          apiService `json:"service"`
	AvailabilityType string     `json:"availabilityType"`
	Quality          *string    `json:"quality"`
	Link             *string    `json:"link"`
}

type apiShowDetails struct {
	ImdbID           string                           `json:"imdbId"`
	StreamingOptions map[string][]apiStreamingOption `json:"streamingOptions"`
}

func (d apiShow) toTitle() model.Title {
	var id model.TitleID
	if d.ImdbID != "" {
		id = model.Imdb(d.ImdbID)
	} else {
		id = model.Imdb(d.ID)
	}

	year := d.ReleaseYear
	if year == nil {
		year = d.FirstAirYear
	}

	var overview *string
	if d.Overview != "" {
		overview = &d.Overview
	}

	return model.Title{
		ID:          id,
		Title:       d.Title,
		TitleType:   model.ParseTitleType(d.ShowType),
		ReleaseYear: year,
		Overview:    overview,
	}
}

// SearchTitles searches by free-text title, cached at TitleSearch(query) for
// one hour.
func (p *Provider) SearchTitles(ctx context.Context, query string) ([]model.Title, error) {
	trimmed := strings.TrimSpace(query)
	if trimmed == "" {
		return nil, apperr.InvalidInput("Search query cannot be empty")
	}

	key := model.TitleSearchKey(trimmed)
	return cache.Cached(ctx, p.cache, key, titleCacheTTL, func() ([]model.Title, error) {
		reqURL := fmt.Sprintf("%s/shows/search/title?title=%s&country=%s",
			p.apiURL, url.QueryEscape(trimmed), searchCountry)

		var shows []apiShow
		if err := p.getJSON(ctx, reqURL, &shows); err != nil {
			return nil, err
		}

		titles := make([]model.Title, len(shows))
		for i, s := range shows {
			titles[i] = s.toTitle()
		}

		p.logger.Info().Str("query", trimmed).Int("results", len(titles)).
			Str("provider", p.Name()).Msg("title search completed")
		return titles, nil
	})
}

// FetchAvailability fetches a single title's availability, cached at
// Availability(id) for one week.
func (p *Provider) FetchAvailability(ctx context.Context, id model.TitleID) (model.StreamingAvailability, error) {
	key := model.AvailabilityKey(id.String())
	return cache.Cached(ctx, p.cache, key, availCacheTTL, func() (model.StreamingAvailability, error) {
		reqURL := fmt.Sprintf("%s/shows/%s?country=us", p.apiURL, url.QueryEscape(id.String()))

		var details apiShowDetails
		if err := p.getJSON(ctx, reqURL, &details); err != nil {
			return model.StreamingAvailability{}, err
		}

		avail, err := p.convert(details)
		if err != nil {
			return model.StreamingAvailability{}, err
		}
		avail.ID = id

		p.logger.Info().Str("title_id", id.String()).Int("services", len(avail.Services)).
			Str("provider", p.Name()).Msg("availability fetched")
		return avail, nil
	})
}

// FetchAvailabilityBatch fans out FetchAvailability in parallel; this
// provider has no bulk endpoint of its own.
func (p *Provider) FetchAvailabilityBatch(ctx context.Context, ids []model.TitleID) ([]model.StreamingAvailability, error) {
	return provider.DefaultFetchAvailabilityBatch(ctx, p, ids, p.logger)
}

func (p *Provider) convert(details apiShowDetails) (model.StreamingAvailability, error) {
	if details.ImdbID == "" {
		return model.StreamingAvailability{}, apperr.ExternalAPI("API response missing IMDB ID")
	}

	var services []model.ServiceAvailability
	for _, opt := range details.StreamingOptions[searchCountry] {
		availType, ok := parseAvailabilityType(opt.AvailabilityType)
		if !ok {
			continue
		}
		services = append(services, model.ServiceAvailability{
			ServiceID:        opt.Service.ID,
			ServiceName:      opt.Service.Name,
			AvailabilityType: availType,
			Quality:          opt.Quality,
			Link:             opt.Link,
		})
	}

	return model.StreamingAvailability{
		ID:       model.Imdb(details.ImdbID),
		Services: services,
		CachedAt: time.Now(),
	}, nil
}

func parseAvailabilityType(raw string) (model.AvailabilityType, bool) {
	switch raw {
	case "subscription":
		return model.AvailabilitySubscription, true
	case "rent":
		return model.AvailabilityRent, true
	case "buy":
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
		return apperr.InternalWrap(err, "direct-imdb: build request failed")
	}
	req.Header.Set("X-RapidAPI-Key", p.apiKey)

	resp, err := p.http.Do(req)
	if err != nil {
		return apperr.ExternalAPIWrap(err, "direct-imdb: request failed")
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 8*1024))
		return apperr.ExternalAPI("API returned status %d: %s", resp.StatusCode, string(body))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return apperr.ExternalAPIWrap(err, "direct-imdb: decode response failed")
	}

	if p.quota != nil {
		go p.quota.RecordCall(context.Background())
	}
	return nil
}
