package httpapi

import (
	"net/http"
	"slices"
	"strings"

	ical "github.com/arran4/golang-ical"
	"github.com/go-chi/chi/v5"

	"github.com/zonecal/zonecal/internal/core/domain"
)

// profileCalendar exports the profile's events as an iCalendar feed. Times
// go out as the stored UTC instants; calendar clients localize themselves,
// so the ?tz= projection does not apply here.
func (h *Handler) profileCalendar(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	events, err := h.events.ListForProfile(r.Context(), id)
	if err != nil {
		h.handleDomainError(w, err)
		return
	}
	profiles, err := h.profiles.List(r.Context())
	if err != nil {
		h.handleDomainError(w, err)
		return
	}

	names := make(map[string]string, len(profiles))
	for _, profile := range profiles {
		names[profile.ID] = profile.Name
	}

	cal := ical.NewCalendar()
	cal.SetMethod(ical.MethodPublish)
	for _, event := range events {
		entry := cal.AddEvent(event.ID)
		entry.SetStartAt(event.StartUTC)
		entry.SetEndAt(event.EndUTC)
		entry.SetSummary(calendarSummary(event, names))
		entry.SetCreatedTime(event.CreatedAt)
		entry.SetDtStampTime(event.UpdatedAt)
	}

	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte(cal.Serialize())); err != nil {
		h.logger.Error("write calendar response", "err", err)
	}
}

// calendarSummary names the event after its members. Membership is stored
// sorted by id, so the names are re-sorted to keep the feed deterministic.
func calendarSummary(event domain.Event, names map[string]string) string {
	resolved := make([]string, 0, len(event.ProfileIDs))
	for _, profileID := range event.ProfileIDs {
		if name, ok := names[profileID]; ok {
			resolved = append(resolved, name)
		}
	}
	if len(resolved) == 0 {
		return "Event"
	}
	slices.Sort(resolved)
	return "Event: " + strings.Join(resolved, ", ")
}
