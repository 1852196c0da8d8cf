// SPDX-License-Identifier: MIT

package model

// TitleType distinguishes a movie from a series.
type TitleType string

const (
	TitleTypeMovie  TitleType = "movie"
	TitleTypeSeries TitleType = "series"
)

// Title is the canonical representation of a movie or series, produced by
// converting a provider's DTO. It is immutable after construction.
type Title struct {
	ID          TitleID   `json:"id"`
	Title       string    `json:"title"`
	TitleType   TitleType `json:"title_type"`
	ReleaseYear *int      `json:"release_year,omitempty"`
	Overview    *string   `json:"overview,omitempty"`
}

// ParseTitleType maps an upstream show-type string to TitleType. Unknown
// strings fall back to movie; only an unambiguous series marker yields
// series, per the direct-IMDB provider's conversion rule.
func ParseTitleType(raw string) TitleType {
	switch raw {
	case "series", "tv_series":
		return TitleTypeSeries
	default:
		return TitleTypeMovie
	}
}
