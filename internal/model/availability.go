// SPDX-License-Identifier: MIT

package model

import "time"

// AvailabilityType is the mode in which a title is available on a service.
type AvailabilityType string

const (
	AvailabilitySubscription AvailabilityType = "subscription"
	AvailabilityRent         AvailabilityType = "rent"
	AvailabilityBuy          AvailabilityType = "buy"
	AvailabilityFree         AvailabilityType = "free"
	AvailabilityAddon        AvailabilityType = "addon"
)

// ServiceAvailability describes one service on which a title can be watched.
type ServiceAvailability struct {
	ServiceID        string           `json:"service_id"`
	ServiceName      string           `json:"service_name"`
	AvailabilityType AvailabilityType `json:"availability_type"`
	Quality          *string          `json:"quality,omitempty"`
	Link             *string          `json:"link,omitempty"`
}

// StreamingAvailability is the per-title result of a provider availability
// lookup. ID always mirrors the TitleID the caller requested, even when the
// provider resolved through a different id space internally.
type StreamingAvailability struct {
	ID       TitleID               `json:"id"`
	Services []ServiceAvailability `json:"services"`
	CachedAt time.Time             `json:"cached_at"`
}

// SubscriptionServices returns the subset of Services whose availability
// type is subscription — the only type the optimizer considers.
func (a StreamingAvailability) SubscriptionServices() []ServiceAvailability {
	var out []ServiceAvailability
	for _, s := range a.Services {
		if s.AvailabilityType == AvailabilitySubscription {
			out = append(out, s)
		}
	}
	return out
}
