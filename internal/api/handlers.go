package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/rjardine/newsroute/internal/events"
	"github.com/rjardine/newsroute/internal/ingest"
	"github.com/rjardine/newsroute/internal/model"
	"github.com/rjardine/newsroute/internal/store"
)

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	resp := HealthzResponse{
		Status:        "ok",
		UptimeSeconds: int64(time.Since(s.startedAt).Seconds()),
	}
	if schemes, err := s.schemes.ListSchemes(r.Context()); err == nil {
		resp.Schemes = len(schemes)
	}
	if providers, err := s.providers.ListProviders(r.Context()); err == nil {
		resp.Providers = len(providers)
	}
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleListSchemes(w http.ResponseWriter, r *http.Request) {
	schemes, err := s.schemes.ListSchemes(r.Context())
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if schemes == nil {
		schemes = []*model.RoutingScheme{}
	}
	s.writeJSON(w, http.StatusOK, schemes)
}

func (s *Server) handleSaveScheme(w http.ResponseWriter, r *http.Request) {
	var scheme model.RoutingScheme
	if err := json.NewDecoder(r.Body).Decode(&scheme); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return
	}

	created := scheme.ID == ""
	if err := s.schemes.SaveScheme(r.Context(), &scheme); err != nil {
		if errors.Is(err, model.ErrInvalidRule) {
			s.writeError(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	s.writeJSON(w, status, scheme)
}

func (s *Server) handleGetScheme(w http.ResponseWriter, r *http.Request) {
	scheme, err := s.schemes.GetScheme(r.Context(), chi.URLParam(r, "schemeID"))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			s.writeError(w, http.StatusNotFound, "scheme not found")
			return
		}
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, scheme)
}

func (s *Server) handleDeleteScheme(w http.ResponseWriter, r *http.Request) {
	if err := s.schemes.DeleteScheme(r.Context(), chi.URLParam(r, "schemeID")); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			s.writeError(w, http.StatusNotFound, "scheme not found")
			return
		}
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListProviders(w http.ResponseWriter, r *http.Request) {
	providers, err := s.providers.ListProviders(r.Context())
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	now := s.now()
	out := make([]ProviderStatus, len(providers))
	for i, p := range providers {
		out[i] = ProviderStatus{Provider: p, Idle: ingest.IsIdle(p, now)}
	}
	s.writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleUpsertProvider(w http.ResponseWriter, r *http.Request) {
	var provider model.IngestProvider
	if err := json.NewDecoder(r.Body).Decode(&provider); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return
	}
	if err := s.providers.UpsertProvider(r.Context(), &provider); err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.hub.Publish(events.TypeProviderUpdated, provider)
	s.writeJSON(w, http.StatusOK, provider)
}

// handleRouteTest evaluates a stored scheme against a submitted item without
// dispatching anything, so operators can verify rules before binding them to
// a live provider.
func (s *Server) handleRouteTest(w http.ResponseWriter, r *http.Request) {
	var req RouteTestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return
	}
	if req.SchemeID == "" || req.Item == nil {
		s.writeError(w, http.StatusBadRequest, "scheme_id and item are required")
		return
	}

	scheme, err := s.schemes.GetScheme(r.Context(), req.SchemeID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			s.writeError(w, http.StatusNotFound, "scheme not found")
			return
		}
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	arrival := s.now()
	if req.Arrival != nil {
		arrival = *req.Arrival
	}

	actions, err := s.matcher.Evaluate(r.Context(), scheme, req.Item, arrival)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	s.writeJSON(w, http.StatusOK, RouteTestResponse{
		Scheme:  scheme.Name,
		Arrival: arrival,
		Actions: actions,
	})
}

// handleIngest routes one submitted item through the provider's scheme and
// dispatches the matched actions.
func (s *Server) handleIngest(w http.ResponseWriter, r *http.Request) {
	if s.router == nil {
		s.writeError(w, http.StatusServiceUnavailable, "routing pipeline not configured")
		return
	}

	provider, err := s.providers.GetProvider(r.Context(), chi.URLParam(r, "providerID"))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			s.writeError(w, http.StatusNotFound, "provider not found")
			return
		}
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	var item model.Item
	if err := json.NewDecoder(r.Body).Decode(&item); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return
	}
	if item.GUID == "" {
		s.writeError(w, http.StatusBadRequest, "item guid is required")
		return
	}

	results, err := s.router.Route(r.Context(), provider, &item, s.now())
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	resp := IngestResponse{
		ItemID:  item.GUID,
		Routed:  len(results) > 0,
		Results: make([]IngestActionResult, len(results)),
	}
	for i, res := range results {
		resp.Results[i] = IngestActionResult{
			Rule:       res.Action.Rule,
			Kind:       string(res.Action.Kind),
			Desk:       res.Action.Desk,
			Stage:      res.Action.Stage,
			ArchivedID: res.ItemID,
		}
		if res.Err != nil {
			resp.Results[i].Error = res.Err.Error()
		}
	}
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleRecentLog(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			s.writeError(w, http.StatusBadRequest, "limit must be a non-negative integer")
			return
		}
		limit = n
	}

	entries, err := s.audits.RecentItemLog(r.Context(), limit)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if entries == nil {
		entries = []store.ItemLogEntry{}
	}
	s.writeJSON(w, http.StatusOK, entries)
}

func (s *Server) handleItemHistory(w http.ResponseWriter, r *http.Request) {
	entries, err := s.audits.ItemHistory(r.Context(), chi.URLParam(r, "guid"))
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if entries == nil {
		entries = []store.ItemLogEntry{}
	}
	s.writeJSON(w, http.StatusOK, entries)
}
