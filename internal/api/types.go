package api

import (
	"time"

	"github.com/rjardine/newsroute/internal/model"
	"github.com/rjardine/newsroute/internal/routing"
)

// RouteTestRequest is the JSON body for POST /route/test: evaluate a scheme
// against an item without dispatching anything.
type RouteTestRequest struct {
	SchemeID string      `json:"scheme_id"`
	Item     *model.Item `json:"item"`

	// Arrival defaults to the server's current time when absent.
	Arrival *time.Time `json:"arrival,omitempty"`
}

// RouteTestResponse lists the actions the scheme would produce.
type RouteTestResponse struct {
	Scheme  string           `json:"scheme"`
	Arrival time.Time        `json:"arrival"`
	Actions []routing.Action `json:"actions"`
}

// IngestResponse reports the per-action outcomes of routing one item.
type IngestResponse struct {
	ItemID  string               `json:"item_id"`
	Routed  bool                 `json:"routed"`
	Results []IngestActionResult `json:"results"`
}

// IngestActionResult is one dispatched action's outcome.
type IngestActionResult struct {
	Rule       string `json:"rule"`
	Kind       string `json:"kind"`
	Desk       string `json:"desk"`
	Stage      string `json:"stage"`
	ArchivedID string `json:"archived_id,omitempty"`
	Error      string `json:"error,omitempty"`
}

// ProviderStatus is one row of GET /providers: the stored provider plus its
// computed idle state.
type ProviderStatus struct {
	Provider *model.IngestProvider `json:"provider"`
	Idle     bool                  `json:"idle"`
}

// ErrorResponse is returned on errors.
type ErrorResponse struct {
	Error string `json:"error"`
}

// HealthzResponse is returned by GET /healthz.
type HealthzResponse struct {
	Status        string `json:"status"`
	UptimeSeconds int64  `json:"uptime_seconds"`
	Schemes       int    `json:"schemes"`
	Providers     int    `json:"providers"`
}
