// Package httpapi exposes the geo REST API.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"github.com/DigitalTwins-IS/ms-geo/internal/config"
	"github.com/DigitalTwins-IS/ms-geo/internal/domain"
	"github.com/DigitalTwins-IS/ms-geo/internal/domain/geo"
	"github.com/DigitalTwins-IS/ms-geo/internal/metrics"
	"github.com/DigitalTwins-IS/ms-geo/internal/services/cities"
	"github.com/DigitalTwins-IS/ms-geo/internal/services/zones"
	"github.com/DigitalTwins-IS/ms-geo/internal/storage"
)

// handler bundles the HTTP endpoints for the geo services.
type handler struct {
	cities         *cities.Service
	zones          *zones.Service
	pinger         storage.Pinger
	apiPrefix      string
	defaultCountry string
}

// healthResponse is returned by the health endpoints.
type healthResponse struct {
	Status   string `json:"status"`
	Service  string `json:"service"`
	Version  string `json:"version"`
	Database string `json:"database,omitempty"`
}

// NewHandler returns the router exposing the geo REST API.
func NewHandler(cfg *config.Config, citySvc *cities.Service, zoneSvc *zones.Service, pinger storage.Pinger) http.Handler {
	h := &handler{
		cities:         citySvc,
		zones:          zoneSvc,
		pinger:         pinger,
		apiPrefix:      cfg.APIPrefix,
		defaultCountry: cfg.DefaultCountry,
	}

	r := mux.NewRouter()
	r.HandleFunc("/", h.root).Methods(http.MethodGet)
	r.HandleFunc("/health", h.health).Methods(http.MethodGet)
	r.Handle("/metrics", metrics.Handler()).Methods(http.MethodGet)

	api := r.PathPrefix(cfg.APIPrefix).Subrouter()
	api.HandleFunc("/health", h.healthWithDatabase).Methods(http.MethodGet)
	api.HandleFunc("/cities", h.listCities).Methods(http.MethodGet)
	api.HandleFunc("/cities", h.createCity).Methods(http.MethodPost)
	api.HandleFunc("/cities/{id:[0-9]+}", h.getCity).Methods(http.MethodGet)
	api.HandleFunc("/cities/{id:[0-9]+}", h.updateCity).Methods(http.MethodPut)
	api.HandleFunc("/zones", h.listZones).Methods(http.MethodGet)
	api.HandleFunc("/zones", h.createZone).Methods(http.MethodPost)
	api.HandleFunc("/zones/{id:[0-9]+}", h.getZone).Methods(http.MethodGet)
	api.HandleFunc("/zones/{id:[0-9]+}", h.updateZone).Methods(http.MethodPut)
	api.HandleFunc("/coordinates/validate", h.validateCoordinates).Methods(http.MethodPost)

	return r
}

// --- health -----------------------------------------------------------------

func (h *handler) root(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, h.apiPrefix+"/health", http.StatusTemporaryRedirect)
}

func (h *handler) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{
		Status:  "healthy",
		Service: config.ServiceName,
		Version: config.ServiceVersion,
	})
}

func (h *handler) healthWithDatabase(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	resp := healthResponse{
		Status:   "healthy",
		Service:  config.ServiceName,
		Version:  config.ServiceVersion,
		Database: "connected",
	}
	if err := h.pinger.Ping(ctx); err != nil {
		resp.Status = "unhealthy"
		resp.Database = "error: " + err.Error()
	}
	writeJSON(w, http.StatusOK, resp)
}

// --- cities -----------------------------------------------------------------

func (h *handler) listCities(w http.ResponseWriter, r *http.Request) {
	filter, err := parseListFilter(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	result, err := h.cities.List(r.Context(), filter)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *handler) getCity(w http.ResponseWriter, r *http.Request) {
	id := pathID(r)

	result, err := h.cities.GetWithZones(r.Context(), id)
	if err != nil {
		writeError(w, statusFor(err, http.StatusInternalServerError), err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *handler) createCity(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Name    string `json:"name"`
		Country string `json:"country"`
	}
	if err := decodeJSON(r.Body, &payload); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	created, err := h.cities.Create(r.Context(), payload.Name, payload.Country)
	if err != nil {
		writeError(w, statusFor(err, http.StatusInternalServerError), err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (h *handler) updateCity(w http.ResponseWriter, r *http.Request) {
	id := pathID(r)

	var payload struct {
		Name     *string `json:"name"`
		Country  *string `json:"country"`
		IsActive *bool   `json:"is_active"`
	}
	if err := decodeJSON(r.Body, &payload); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	updated, err := h.cities.Update(r.Context(), id, payload.Name, payload.Country, payload.IsActive)
	if err != nil {
		writeError(w, statusFor(err, http.StatusInternalServerError), err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

// --- zones ------------------------------------------------------------------

func (h *handler) listZones(w http.ResponseWriter, r *http.Request) {
	filter, err := parseListFilter(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	zoneFilter := storage.ZoneFilter{ListFilter: filter}
	if raw := r.URL.Query().Get("city_id"); raw != "" {
		cityID, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || cityID <= 0 {
			writeError(w, http.StatusBadRequest, fmt.Errorf("city_id must be a positive integer"))
			return
		}
		zoneFilter.CityID = cityID
	}

	result, err := h.zones.List(r.Context(), zoneFilter)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *handler) getZone(w http.ResponseWriter, r *http.Request) {
	id := pathID(r)

	result, err := h.zones.Get(r.Context(), id)
	if err != nil {
		writeError(w, statusFor(err, http.StatusInternalServerError), err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *handler) createZone(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Name        string `json:"name"`
		CityID      int64  `json:"city_id"`
		Color       string `json:"color"`
		Description string `json:"description"`
	}
	if err := decodeJSON(r.Body, &payload); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	created, err := h.zones.Create(r.Context(), payload.Name, payload.CityID, payload.Color, payload.Description)
	if err != nil {
		writeError(w, statusFor(err, http.StatusInternalServerError), err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (h *handler) updateZone(w http.ResponseWriter, r *http.Request) {
	id := pathID(r)

	var payload struct {
		Name        *string `json:"name"`
		CityID      *int64  `json:"city_id"`
		Color       *string `json:"color"`
		Description *string `json:"description"`
		IsActive    *bool   `json:"is_active"`
	}
	if err := decodeJSON(r.Body, &payload); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	updated, err := h.zones.Update(r.Context(), id, payload.Name, payload.CityID, payload.Color, payload.Description, payload.IsActive)
	if err != nil {
		writeError(w, statusFor(err, http.StatusInternalServerError), err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

// --- coordinates ------------------------------------------------------------

func (h *handler) validateCoordinates(w http.ResponseWriter, r *http.Request) {
	var coords geo.Coordinates
	if err := decodeJSON(r.Body, &coords); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	if err := coords.Validate(); err != nil {
		writeError(w, http.StatusUnprocessableEntity, err)
		return
	}

	writeJSON(w, http.StatusOK, struct {
		geo.Coordinates
		IsValid bool   `json:"is_valid"`
		Country string `json:"country"`
	}{
		Coordinates: coords,
		IsValid:     true,
		Country:     h.defaultCountry,
	})
}

// --- helpers ----------------------------------------------------------------

// pathID reads the {id} route variable. The route pattern guarantees digits.
func pathID(r *http.Request) int64 {
	id, _ := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	return id
}

func parseListFilter(r *http.Request) (storage.ListFilter, error) {
	filter := storage.ListFilter{Limit: 100}
	query := r.URL.Query()

	if raw := query.Get("skip"); raw != "" {
		skip, err := strconv.Atoi(raw)
		if err != nil || skip < 0 {
			return storage.ListFilter{}, fmt.Errorf("skip must be a non-negative integer")
		}
		filter.Skip = skip
	}
	if raw := query.Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 1 || limit > 1000 {
			return storage.ListFilter{}, fmt.Errorf("limit must be between 1 and 1000")
		}
		filter.Limit = limit
	}
	if raw := query.Get("is_active"); raw != "" {
		active, err := strconv.ParseBool(raw)
		if err != nil {
			return storage.ListFilter{}, fmt.Errorf("is_active must be a boolean")
		}
		filter.IsActive = &active
	}
	return filter, nil
}

// statusFor maps service errors to status codes: missing rows to 404,
// invariant and uniqueness violations to 400, anything else to fallback.
func statusFor(err error, fallback int) int {
	var (
		validation domain.ValidationError
		conflict   domain.ConflictError
	)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		return http.StatusNotFound
	case errors.As(err, &validation), errors.As(err, &conflict):
		return http.StatusBadRequest
	}
	return fallback
}

func decodeJSON(body io.ReadCloser, dst interface{}) error {
	defer body.Close()
	dec := json.NewDecoder(body)
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
}
