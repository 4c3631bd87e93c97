package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/rgdevment/urlinfo/internal/domain"
	"github.com/rgdevment/urlinfo/internal/platform/http/middleware"
	"github.com/rgdevment/urlinfo/internal/service"
	"github.com/rs/zerolog"
)

type Handler struct {
	service     service.Service
	prefix      string
	insertRoute string
	log         zerolog.Logger
}

// NewHandler builds the dispatcher. prefix is the API root without slashes
// ("urlinfo/1"); insertRoute is the extra POST route ("/urlinfo/post").
func NewHandler(s service.Service, prefix, insertRoute string, logger zerolog.Logger) *Handler {
	return &Handler{
		service:     s,
		prefix:      strings.Trim(prefix, "/"),
		insertRoute: insertRoute,
		log:         logger,
	}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/healthz", h.Health)
	r.Get("/readyz", h.Ready)

	r.Post(h.insertRoute, h.CreateRecord)
	for _, root := range []string{"/" + h.prefix, "/" + h.prefix + "/"} {
		if root != h.insertRoute {
			r.Post(root, h.CreateRecord)
		}
	}

	// Every other GET goes to the lookup engine, which owns the prefix check
	// and unescapes the path segment by segment.
	r.Get("/*", h.Lookup)
}

func (h *Handler) Lookup(w http.ResponseWriter, r *http.Request) {
	res, err := h.service.Lookup(r.Context(), r.URL.EscapedPath())
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	if res.Kind == domain.KindListing {
		respondJSON(w, http.StatusOK, ListingResponse{Error: false, URLs: res.URLs})
		return
	}

	respondJSON(w, http.StatusOK, LookupResponse{
		Error:      !res.Found,
		URL:        res.URL,
		Reputation: res.Reputation,
		Message:    res.Message,
	})
}

func (h *Handler) CreateRecord(w http.ResponseWriter, r *http.Request) {
	req, err := decodeCreateRecord(w, r)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	rec, err := h.service.Ingest(r.Context(), req.Domain, req.URI, req.Result)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, rec)
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) Ready(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Ready(r.Context()); err != nil {
		h.log.Warn().Err(err).Msg("readiness check failed")
		respondJSON(w, http.StatusServiceUnavailable, map[string]bool{"ready": false})
		return
	}
	respondJSON(w, http.StatusOK, map[string]bool{"ready": true})
}

// StatusFor maps the error taxonomy onto HTTP status codes.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrBadRequest),
		errors.Is(err, domain.ErrMalformedPath),
		errors.Is(err, domain.ErrInvalidPayload):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrURITooLong):
		return http.StatusRequestURITooLong
	case errors.Is(err, domain.ErrDuplicateRecord):
		return http.StatusConflict
	case errors.Is(err, domain.ErrStoreUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func (h *Handler) respondError(w http.ResponseWriter, r *http.Request, err error) {
	status := StatusFor(err)

	var msg string
	switch status {
	case http.StatusServiceUnavailable:
		// Driver detail stays in the log.
		msg = domain.ErrStoreUnavailable.Error()
		w.Header().Set("Retry-After", "1")
		h.log.Error().Err(err).Str("request_id", middleware.GetRequestID(r.Context())).Msg("store unavailable")
	case http.StatusInternalServerError:
		msg = http.StatusText(status)
		h.log.Error().Err(err).Str("request_id", middleware.GetRequestID(r.Context())).Msg("unclassified error")
	default:
		msg = err.Error()
		if errors.Is(err, domain.ErrBadRequest) {
			msg = domain.ErrBadRequest.Error()
		}
	}

	respondJSON(w, status, ErrorResponse{Error: true, Message: msg})
}

func respondJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
