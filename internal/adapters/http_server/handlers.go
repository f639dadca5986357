// internal/adapters/http_server/handlers.go
package httpserver

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"triposo/internal/domain"
	"triposo/internal/query"
)

// Explorer is the slice of the API facade the HTTP surface serves.
type Explorer interface {
	Location(ctx context.Context, p query.Params) (*domain.Location, error)
	Locations(ctx context.Context, p query.Params) ([]*domain.Location, error)
	Poi(ctx context.Context, p query.Params) (*domain.PointOfInterest, error)
	Pois(ctx context.Context, p query.Params) ([]*domain.PointOfInterest, error)
	Tags(ctx context.Context, p query.Params) ([]*domain.Tag, error)
	CommonTagLabels(ctx context.Context, p query.Params) ([]*domain.Tag, error)
	DayPlan(ctx context.Context, p query.Params) (*domain.DayPlan, error)
}

type Handlers struct {
	API    Explorer
	Misses domain.MissLog // optional
}

type problem struct {
	Type   string `json:"type"`
	Title  string `json:"title"`
	Status int    `json:"status"`
	Detail string `json:"detail,omitempty"`
}

type listBody[T any] struct {
	Count   int `json:"count"`
	Results []T `json:"results"`
}

type missView struct {
	Resource string `json:"resource"`
	Query    string `json:"query"`
	Count    int    `json:"count"`
	LastSeen string `json:"last_seen"`
}

func (s *Server) MountHandlers(h *Handlers) {
	s.mux.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200); _, _ = w.Write([]byte("ok")) })
	s.mux.Route("/v1", func(r chi.Router) {
		r.Get("/locations", h.listLocations)
		r.Get("/locations/{id}", h.getLocation)
		r.Get("/pois", h.listPois)
		r.Get("/pois/{id}", h.getPoi)
		r.Get("/tags", h.listTags)
		r.Get("/labels", h.listLabels)
		r.Get("/dayplans/{locationID}", h.getDayPlan)
		if h.Misses != nil {
			r.Get("/misses", h.listMisses)
		}
	})
}

// paramsFromRequest keeps the caller's query parameters in the order they
// were written. lead pairs come first and shadow query keys of the same name;
// a repeated key keeps its first value.
func paramsFromRequest(r *http.Request, lead ...string) query.Params {
	p := query.NewParams()
	seen := make(map[string]bool)
	for i := 0; i+1 < len(lead); i += 2 {
		p.Set(lead[i], lead[i+1])
		seen[lead[i]] = true
	}
	var keys []string
	for _, pair := range strings.Split(r.URL.RawQuery, "&") {
		k, _, _ := strings.Cut(pair, "=")
		if uk, err := url.QueryUnescape(k); err == nil {
			k = uk
		}
		if k == "" || seen[k] {
			continue
		}
		seen[k] = true
		keys = append(keys, k)
	}
	rest := query.FromValues(r.URL.Query(), keys)
	for _, k := range rest.Keys() {
		v, _ := rest.Get(k)
		p.Set(k, v)
	}
	return p
}

func writeProblem(w http.ResponseWriter, status int, title, detail string) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(problem{Type: "about:blank", Title: title, Status: status, Detail: detail}); err != nil {
		log.Error().Err(err).Msg("write JSON problem response failed")
	}
}

// writeUpstreamError maps facade errors onto gateway statuses.
func writeUpstreamError(w http.ResponseWriter, err error) {
	var se *domain.StatusError
	switch {
	case errors.Is(err, domain.ErrUnauthorized):
		writeProblem(w, http.StatusBadGateway, "Upstream Unauthorized", "remote service rejected the configured credentials")
	case errors.As(err, &se):
		writeProblem(w, http.StatusBadGateway, "Upstream Error", "remote status "+strconv.Itoa(se.Status))
	case errors.Is(err, context.DeadlineExceeded):
		writeProblem(w, http.StatusGatewayTimeout, "Upstream Timeout", "")
	default:
		log.Error().Err(err).Msg("upstream call failed")
		writeProblem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}

// calcETagAndBody marshals once and hashes once, returning both ETag and body.
func calcETagAndBody(v any) (string, []byte) {
	body, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Msg("failed to marshal object for ETag/body")
		return "", nil
	}
	sum := sha1.Sum(body)
	return `W/"` + hex.EncodeToString(sum[:]) + `"`, body
}

func writeJSON(w http.ResponseWriter, r *http.Request, v any) {
	etag, body := calcETagAndBody(v)
	if body == nil {
		writeProblem(w, http.StatusInternalServerError, "Internal Error", "encode failed")
		return
	}
	// If client already has this version, short-circuit.
	if inm := r.Header.Get("If-None-Match"); inm != "" && inm == etag {
		w.Header().Set("ETag", etag)
		w.WriteHeader(http.StatusNotModified)
		return
	}
	w.Header().Set("ETag", etag)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(body); err != nil {
		log.Error().Err(err).Msg("failed to write response body")
	}
}

func single[T any](w http.ResponseWriter, r *http.Request, what string, v *T, err error) {
	if err != nil {
		writeUpstreamError(w, err)
		return
	}
	if v == nil {
		writeProblem(w, http.StatusNotFound, "Not Found", what+" not found")
		return
	}
	writeJSON(w, r, v)
}

func list[T any](w http.ResponseWriter, r *http.Request, vs []T, err error) {
	if err != nil {
		writeUpstreamError(w, err)
		return
	}
	if vs == nil {
		vs = []T{}
	}
	writeJSON(w, r, listBody[T]{Count: len(vs), Results: vs})
}

func (h *Handlers) getLocation(w http.ResponseWriter, r *http.Request) {
	v, err := h.API.Location(r.Context(), paramsFromRequest(r, "id", chi.URLParam(r, "id")))
	single(w, r, "location", v, err)
}

func (h *Handlers) listLocations(w http.ResponseWriter, r *http.Request) {
	vs, err := h.API.Locations(r.Context(), paramsFromRequest(r))
	list(w, r, vs, err)
}

func (h *Handlers) getPoi(w http.ResponseWriter, r *http.Request) {
	v, err := h.API.Poi(r.Context(), paramsFromRequest(r, "id", chi.URLParam(r, "id")))
	single(w, r, "poi", v, err)
}

func (h *Handlers) listPois(w http.ResponseWriter, r *http.Request) {
	vs, err := h.API.Pois(r.Context(), paramsFromRequest(r))
	list(w, r, vs, err)
}

func (h *Handlers) listTags(w http.ResponseWriter, r *http.Request) {
	vs, err := h.API.Tags(r.Context(), paramsFromRequest(r))
	list(w, r, vs, err)
}

func (h *Handlers) listLabels(w http.ResponseWriter, r *http.Request) {
	vs, err := h.API.CommonTagLabels(r.Context(), paramsFromRequest(r))
	list(w, r, vs, err)
}

func (h *Handlers) getDayPlan(w http.ResponseWriter, r *http.Request) {
	v, err := h.API.DayPlan(r.Context(), paramsFromRequest(r, "location_id", chi.URLParam(r, "locationID")))
	single(w, r, "day plan", v, err)
}

func (h *Handlers) listMisses(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if ls := r.URL.Query().Get("limit"); ls != "" {
		l, err := strconv.Atoi(ls)
		if err != nil || l <= 0 || l > 500 {
			writeProblem(w, http.StatusBadRequest, "Invalid limit", "limit must be an integer between 1 and 500")
			return
		}
		limit = l
	}
	ms, err := h.Misses.ListMisses(r.Context(), limit)
	if err != nil {
		log.Error().Err(err).Msg("list misses failed")
		writeProblem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	out := make([]missView, 0, len(ms))
	for _, m := range ms {
		out = append(out, missView{Resource: m.Resource, Query: m.Query, Count: m.Count, LastSeen: m.LastSeen.UTC().Format("2006-01-02T15:04:05Z")})
	}
	writeJSON(w, r, listBody[missView]{Count: len(out), Results: out})
}
