// SPDX-License-Identifier: MIT

package model

// ServiceInfo is a service catalog entry: a subscribable streaming service
// and its monthly price. The source of truth is the relational store,
// restricted to rows flagged active.
type ServiceInfo struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	MonthlyCost float64 `json:"monthly_cost"`
}
