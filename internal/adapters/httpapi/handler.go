package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	santhosh "github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/zonecal/zonecal/internal/core/civiltime"
	"github.com/zonecal/zonecal/internal/core/domain"
	"github.com/zonecal/zonecal/internal/core/usecase"
)

const (
	timeFormat      = "2006-01-02T15:04:05.999999999Z07:00"
	maxJSONBodySize = 1 << 20
)

type Handler struct {
	profiles *usecase.ProfileService
	events   *usecase.EventService
	audit    *usecase.AuditService
	logger   *slog.Logger
}

func NewHandler(profiles *usecase.ProfileService, events *usecase.EventService, audit *usecase.AuditService, logger *slog.Logger) *Handler {
	return &Handler{profiles: profiles, events: events, audit: audit, logger: logger}
}

func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(h.requestLogger)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", h.healthz)
	r.Get("/openapi.json", h.openapi)

	r.Get("/v1/profiles", h.listProfiles)
	r.Post("/v1/profiles", h.createProfile)
	r.Put("/v1/profiles/{id}", h.updateProfile)
	r.Delete("/v1/profiles/{id}", h.deleteProfile)
	r.Get("/v1/profiles/{id}/events", h.listProfileEvents)
	r.Get("/v1/profiles/{id}/events.ics", h.profileCalendar)

	r.Post("/v1/events", h.createEvent)
	r.Put("/v1/events/{id}", h.updateEvent)
	r.Delete("/v1/events/{id}", h.deleteEvent)

	r.Get("/v1/log", h.listLog)

	return r
}

type createProfileRequest struct {
	Name string `json:"name"`
}

type updateProfileRequest struct {
	Name         string `json:"name"`
	UserTimezone string `json:"userTimezone"`
}

type eventRequest struct {
	ProfileIDs []string `json:"profileIds"`
	Start      string   `json:"start"`
	End        string   `json:"end"`
	Timezone   string   `json:"timezone"`
}

type profileResponse struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	UserTimezone string `json:"userTimezone"`
	CreatedAt    string `json:"createdAt"`
	UpdatedAt    string `json:"updatedAt"`
}

type eventResponse struct {
	ID            string   `json:"id"`
	ProfileIDs    []string `json:"profileIds"`
	StartUTC      string   `json:"startUtc"`
	EndUTC        string   `json:"endUtc"`
	EventTimezone string   `json:"eventTimezone"`
	CreatedAt     string   `json:"createdAt"`
	UpdatedAt     string   `json:"updatedAt"`
}

// displayEventResponse augments an event with its projection into the
// viewing zone requested through ?tz=.
type displayEventResponse struct {
	eventResponse
	StartDisplay    string `json:"startDisplay"`
	EndDisplay      string `json:"endDisplay"`
	DisplayZone     string `json:"displayZone"`
	DisplayFallback bool   `json:"displayFallback"`
}

type logEntryResponse struct {
	ID          string `json:"id"`
	Timestamp   string `json:"timestamp"`
	EventType   string `json:"eventType"`
	EntityID    string `json:"entityId"`
	Description string `json:"description"`
}

func (h *Handler) listProfiles(w http.ResponseWriter, r *http.Request) {
	profiles, err := h.profiles.List(r.Context())
	if err != nil {
		h.handleDomainError(w, err)
		return
	}

	result := make([]profileResponse, 0, len(profiles))
	for _, profile := range profiles {
		result = append(result, toProfileResponse(profile))
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": result})
}

func (h *Handler) createProfile(w http.ResponseWriter, r *http.Request) {
	var req createProfileRequest
	if !h.decodeJSON(w, r, profileCreateSchema, &req) {
		return
	}

	profile, err := h.profiles.Create(r.Context(), req.Name)
	if err != nil {
		h.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toProfileResponse(profile))
}

func (h *Handler) updateProfile(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req updateProfileRequest
	if !h.decodeJSON(w, r, profileUpdateSchema, &req) {
		return
	}

	profile, err := h.profiles.Update(r.Context(), id, req.Name, req.UserTimezone)
	if err != nil {
		h.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toProfileResponse(profile))
}

func (h *Handler) deleteProfile(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := h.profiles.Delete(r.Context(), id); err != nil {
		h.handleDomainError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) listProfileEvents(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	events, err := h.events.ListForProfile(r.Context(), id)
	if err != nil {
		h.handleDomainError(w, err)
		return
	}

	zone := r.URL.Query().Get("tz")
	if zone == "" {
		result := make([]eventResponse, 0, len(events))
		for _, event := range events {
			result = append(result, toEventResponse(event))
		}
		writeJSON(w, http.StatusOK, map[string]any{"items": result})
		return
	}

	result := make([]displayEventResponse, 0, len(events))
	for _, event := range events {
		result = append(result, toDisplayEventResponse(event, zone))
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": result})
}

func (h *Handler) createEvent(w http.ResponseWriter, r *http.Request) {
	var req eventRequest
	if !h.decodeJSON(w, r, eventWriteSchema, &req) {
		return
	}

	event, err := h.events.Create(r.Context(), usecase.EventInput{
		ProfileIDs: req.ProfileIDs,
		Start:      req.Start,
		End:        req.End,
		Timezone:   req.Timezone,
	})
	if err != nil {
		h.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toEventResponse(event))
}

func (h *Handler) updateEvent(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req eventRequest
	if !h.decodeJSON(w, r, eventWriteSchema, &req) {
		return
	}

	event, err := h.events.Update(r.Context(), id, usecase.EventInput{
		ProfileIDs: req.ProfileIDs,
		Start:      req.Start,
		End:        req.End,
		Timezone:   req.Timezone,
	})
	if err != nil {
		h.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toEventResponse(event))
}

func (h *Handler) deleteEvent(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := h.events.Delete(r.Context(), id); err != nil {
		h.handleDomainError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) listLog(w http.ResponseWriter, r *http.Request) {
	entries, err := h.audit.List(r.Context())
	if err != nil {
		h.handleDomainError(w, err)
		return
	}

	result := make([]logEntryResponse, 0, len(entries))
	for _, entry := range entries {
		result = append(result, logEntryResponse{
			ID:          entry.ID,
			Timestamp:   entry.Timestamp.UTC().Format(timeFormat),
			EventType:   string(entry.EventType),
			EntityID:    entry.EntityID,
			Description: entry.Description,
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": result})
}

func (h *Handler) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) openapi(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, openapiSpec())
}

// requestLogger emits one structured line per request with the outcome
// status and the chi request id.
func (h *Handler) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		level := slog.LevelInfo
		if ww.Status() >= 500 {
			level = slog.LevelError
		}
		h.logger.LogAttrs(r.Context(), level, "http request",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Int("status", ww.Status()),
			slog.Duration("duration", time.Since(start)),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)
	})
}

// decodeJSON enforces the body size limit, validates the payload against
// schema and unmarshals it into dst. It writes the error response itself
// and reports whether the caller should continue.
func (h *Handler) decodeJSON(w http.ResponseWriter, r *http.Request, schema *santhosh.Schema, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBodySize)
	raw, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid json body")
		return false
	}

	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json body")
		return false
	}
	if err := schema.Validate(doc); err != nil {
		writeErrorDetails(w, http.StatusBadRequest, "invalid input", schemaViolations(err))
		return false
	}

	if err := json.Unmarshal(raw, dst); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json body")
		return false
	}
	return true
}

func (h *Handler) handleDomainError(w http.ResponseWriter, err error) {
	var verr *domain.ValidationError
	switch {
	case errors.As(err, &verr):
		details := make([]string, 0, len(verr.Errors))
		for _, fieldErr := range verr.Errors {
			details = append(details, fieldErr.String())
		}
		writeErrorDetails(w, http.StatusBadRequest, "invalid input", details)
	case errors.Is(err, domain.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, "not found")
	default:
		h.logger.Error("handle request", "err", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}

func toProfileResponse(profile domain.Profile) profileResponse {
	return profileResponse{
		ID:           profile.ID,
		Name:         profile.Name,
		UserTimezone: profile.UserTimezone,
		CreatedAt:    profile.CreatedAt.UTC().Format(timeFormat),
		UpdatedAt:    profile.UpdatedAt.UTC().Format(timeFormat),
	}
}

func toEventResponse(event domain.Event) eventResponse {
	return eventResponse{
		ID:            event.ID,
		ProfileIDs:    event.ProfileIDs,
		StartUTC:      event.StartUTC.UTC().Format(timeFormat),
		EndUTC:        event.EndUTC.UTC().Format(timeFormat),
		EventTimezone: event.EventTimezone,
		CreatedAt:     event.CreatedAt.UTC().Format(timeFormat),
		UpdatedAt:     event.UpdatedAt.UTC().Format(timeFormat),
	}
}

func toDisplayEventResponse(event domain.Event, zone string) displayEventResponse {
	start := civiltime.FormatInZone(event.StartUTC, zone)
	end := civiltime.FormatInZone(event.EndUTC, zone)
	return displayEventResponse{
		eventResponse:   toEventResponse(event),
		StartDisplay:    start.Display,
		EndDisplay:      end.Display,
		DisplayZone:     start.Zone,
		DisplayFallback: start.FallbackUTC,
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	data, err := json.Marshal(body)
	if err != nil {
		slog.Error("encode json response", "err", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(append(data, '\n')); err != nil {
		slog.Error("write response", "err", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]any{"error": message})
}

func writeErrorDetails(w http.ResponseWriter, status int, message string, details []string) {
	writeJSON(w, status, map[string]any{"error": message, "details": details})
}

func openapiSpec() map[string]any {
	return map[string]any{
		"openapi": "3.0.3",
		"info": map[string]any{
			"title":   "zonecal",
			"version": "1.0.0",
		},
		"paths": map[string]any{
			"/v1/profiles": map[string]any{
				"get":  map[string]any{"summary": "List profiles"},
				"post": map[string]any{"summary": "Create profile"},
			},
			"/v1/profiles/{id}": map[string]any{
				"put":    map[string]any{"summary": "Update profile"},
				"delete": map[string]any{"summary": "Delete profile and cascade memberships"},
			},
			"/v1/profiles/{id}/events": map[string]any{
				"get": map[string]any{"summary": "List events for profile, optionally projected into ?tz="},
			},
			"/v1/profiles/{id}/events.ics": map[string]any{
				"get": map[string]any{"summary": "Export profile events as iCalendar"},
			},
			"/v1/events": map[string]any{
				"post": map[string]any{"summary": "Create event from civil date/time and zone"},
			},
			"/v1/events/{id}": map[string]any{
				"put":    map[string]any{"summary": "Update event"},
				"delete": map[string]any{"summary": "Delete event"},
			},
			"/v1/log": map[string]any{
				"get": map[string]any{"summary": "List audit log entries, newest first"},
			},
		},
	}
}
