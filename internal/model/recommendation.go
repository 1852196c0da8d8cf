// SPDX-License-Identifier: MIT

package model

// RecommendationRequest carries a user's known titles and current
// subscriptions for the recommendations endpoint. Both fields are opaque
// strings rather than TitleID — the endpoint is a stub (see api package)
// and does not yet resolve them against a provider.
type RecommendationRequest struct {
	UserTitles         []string `json:"user_titles"`
	SubscribedServices []string `json:"subscribed_services"`
}
